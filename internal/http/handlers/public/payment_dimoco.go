package public

import (
	"net/http"
	"strconv"

	"github.com/carrierpay/internal/http/response"
	"github.com/carrierpay/internal/service"

	"github.com/gin-gonic/gin"
)

// DimocoPaymentRequest 发起 Dimoco 支付请求
type DimocoPaymentRequest struct {
	ChannelID uint   `json:"channel_id" binding:"required"`
	OrderIDs  []uint `json:"order_ids" binding:"required,min=1"`
	InvoiceNo string `json:"invoice_no"`
}

// maxWebhookBodyBytes 回调表单大小上限
const maxWebhookBodyBytes = 1 << 20

// CreateDimocoPayment 发起支付，失败时同样返回跳转地址（失败页）
func (h *Handler) CreateDimocoPayment(c *gin.Context) {
	var req DimocoPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	result, err := h.PaymentService.InitiateDimocoPayment(c.Request.Context(), service.InitiatePaymentInput{
		ChannelID: req.ChannelID,
		OrderIDs:  req.OrderIDs,
		InvoiceNo: req.InvoiceNo,
	})
	if err != nil {
		respondWithMappedError(c, err, paymentInitiateErrorRules, response.CodeInternal, "payment initiate failed")
		return
	}
	response.Success(c, gin.H{
		"successful":   result.Successful,
		"redirect_url": result.RedirectURL,
	})
}

// DimocoWebhook 网关异步通知。无论结果如何都返回结构完整的应答，HTTP 状态取自处理结果。
func (h *Handler) DimocoWebhook(c *gin.Context) {
	log := requestLog(c)
	channelID, err := strconv.ParseUint(c.Param("channel_id"), 10, 64)
	if err != nil || channelID == 0 {
		log.Warnw("dimoco_webhook_channel_invalid", "channel_id", c.Param("channel_id"))
		c.JSON(http.StatusBadRequest, gin.H{"successful": false, "status": "invalid channel"})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)
	if err := c.Request.ParseForm(); err != nil {
		log.Warnw("dimoco_webhook_form_invalid", "channel_id", channelID, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"successful": false, "status": "invalid form"})
		return
	}
	log.Infow("dimoco_webhook_received",
		"channel_id", channelID,
		"client_ip", c.ClientIP(),
		"data_size", len(c.Request.PostForm.Get("data")),
	)

	result := h.PaymentService.HandleDimocoWebhook(c.Request.Context(), service.DimocoWebhookInput{
		ChannelID: uint(channelID),
		Form:      c.Request.PostForm,
	})
	status := result.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"successful": result.Successful,
		"status":     result.Status,
	})
}
