package admin

import (
	"errors"
	"strings"
	"time"

	handlershared "github.com/carrierpay/internal/http/handlers/shared"
	"github.com/carrierpay/internal/http/response"
	"github.com/carrierpay/internal/service"

	"github.com/gin-gonic/gin"
)

var captchaErrorRules = []response.ErrorRule{
	{Target: service.ErrCaptchaRequired, Code: response.CodeBadRequest, Message: "captcha required"},
	{Target: service.ErrCaptchaInvalid, Code: response.CodeBadRequest, Message: "captcha invalid"},
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username       string                `json:"username" binding:"required"`
	Password       string                `json:"password" binding:"required"`
	CaptchaPayload CaptchaPayloadRequest `json:"captcha_payload"`
}

// CaptchaPayloadRequest 验证码请求载荷
type CaptchaPayloadRequest struct {
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

func (r CaptchaPayloadRequest) toServicePayload() service.CaptchaVerifyPayload {
	return service.CaptchaVerifyPayload{
		CaptchaID:   strings.TrimSpace(r.CaptchaID),
		CaptchaCode: strings.TrimSpace(r.CaptchaCode),
	}
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string                 `json:"token"`
	ExpiresAt time.Time              `json:"expires_at"`
	User      map[string]interface{} `json:"user"`
}

// AdminLogin 管理员登录
func (h *Handler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if captchaErr := h.CaptchaService.Verify(req.CaptchaPayload.toServicePayload()); captchaErr != nil {
		handlershared.RespondAppError(c, response.MatchError(captchaErr, captchaErrorRules, response.CodeInternal, "captcha verify failed"))
		return
	}

	admin, token, expiresAt, err := h.AuthService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, response.CodeUnauthorized, "invalid username or password", nil)
			return
		}
		respondError(c, response.CodeInternal, "login failed", err)
		return
	}
	response.Success(c, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User: map[string]interface{}{
			"id":       admin.ID,
			"username": admin.Username,
		},
	})
}

// GetLoginCaptcha 获取登录图片验证码
func (h *Handler) GetLoginCaptcha(c *gin.Context) {
	if !h.CaptchaService.Enabled() {
		respondError(c, response.CodeBadRequest, "captcha unavailable", nil)
		return
	}
	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		respondError(c, response.CodeInternal, "captcha generate failed", err)
		return
	}
	response.Success(c, gin.H{
		"captcha_id":   challenge.CaptchaID,
		"image_base64": challenge.ImageBase64,
	})
}
