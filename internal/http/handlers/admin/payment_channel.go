package admin

import (
	"errors"

	"github.com/carrierpay/internal/http/response"
	"github.com/carrierpay/internal/payment/dimoco"
	"github.com/carrierpay/internal/repository"
	"github.com/carrierpay/internal/service"

	"github.com/gin-gonic/gin"
)

// DimocoCredentialsRequest 单个环境的凭据
type DimocoCredentialsRequest struct {
	MerchantID   string `json:"merchant_id"`
	OrderID      string `json:"order_id"`
	ClientSecret string `json:"client_secret"`
	LogoURL      string `json:"logo_url"`
	ServiceName  string `json:"service_name"`
}

func (r DimocoCredentialsRequest) toCredentials() dimoco.Credentials {
	return dimoco.Credentials{
		MerchantID:   r.MerchantID,
		OrderID:      r.OrderID,
		ClientSecret: r.ClientSecret,
		LogoURL:      r.LogoURL,
		ServiceName:  r.ServiceName,
	}
}

// CreateDimocoChannelRequest 创建 Dimoco 渠道请求
type CreateDimocoChannelRequest struct {
	Name           string                   `json:"name" binding:"required"`
	GatewayURL     string                   `json:"gateway_url" binding:"required"`
	WebhookURL     string                   `json:"webhook_url"`
	SuccessURL     string                   `json:"success_url" binding:"required"`
	FailURL        string                   `json:"fail_url" binding:"required"`
	Test           DimocoCredentialsRequest `json:"test"`
	Live           DimocoCredentialsRequest `json:"live"`
	LogAllRequests bool                     `json:"log_all_requests"`
	AutoFinish     bool                     `json:"auto_finish"`
	SkipZeroAmount bool                     `json:"skip_zero_amount"`
	IsActive       *bool                    `json:"is_active"`
}

// CreateDimocoChannel 创建 Dimoco 支付渠道，凭据加密后落库，响应中不回显
func (h *Handler) CreateDimocoChannel(c *gin.Context) {
	var req CreateDimocoChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	channel, err := h.PaymentService.CreateDimocoChannel(c.Request.Context(), service.DimocoChannelInput{
		Name:           req.Name,
		GatewayURL:     req.GatewayURL,
		WebhookURL:     req.WebhookURL,
		SuccessURL:     req.SuccessURL,
		FailURL:        req.FailURL,
		Test:           req.Test.toCredentials(),
		Live:           req.Live.toCredentials(),
		LogAllRequests: req.LogAllRequests,
		AutoFinish:     req.AutoFinish,
		SkipZeroAmount: req.SkipZeroAmount,
		IsActive:       req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentChannelConfigInvalid):
			respondError(c, response.CodeBadRequest, "payment channel config invalid", err)
		case errors.Is(err, service.ErrSettingsSecretUnavailable):
			respondError(c, response.CodeInternal, "secret key not configured", err)
		default:
			respondError(c, response.CodeInternal, "payment channel create failed", err)
		}
		return
	}
	response.Success(c, channel)
}

// GetPaymentChannels 获取支付渠道列表
func (h *Handler) GetPaymentChannels(c *gin.Context) {
	page, pageSize := pageQuery(c)

	channels, total, err := h.PaymentService.ListChannels(repository.PaymentChannelListFilter{
		Page:         page,
		PageSize:     pageSize,
		ProviderType: c.Query("provider_type"),
		ActiveOnly:   c.Query("active") == "true",
	})
	if err != nil {
		respondError(c, response.CodeInternal, "payment channel fetch failed", err)
		return
	}
	response.SuccessWithPage(c, channels, response.BuildPagination(page, pageSize, total))
}
