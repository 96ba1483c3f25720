package shared

import (
	"github.com/carrierpay/internal/http/response"
	"github.com/carrierpay/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 与 trace_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	var kv []interface{}
	if id := c.GetString("request_id"); id != "" {
		kv = append(kv, "request_id", id)
	}
	if c.Request == nil {
		return logger.SW(kv...)
	}
	return logger.Ctx(c.Request.Context(), kv...)
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, msg string, err error) {
	RespondAppError(c, response.WrapError(code, msg, err))
}

// RespondAppError 按 AppError 返回响应；服务端错误记 error，其余记 warn。
func RespondAppError(c *gin.Context, appErr *response.AppError) {
	if appErr.Err != nil {
		log := RequestLog(c)
		if appErr.Internal() {
			log.Errorw("handler_error", "code", appErr.Code, "message", appErr.Message, "error", appErr.Err)
		} else {
			log.Warnw("handler_rejected", "code", appErr.Code, "message", appErr.Message, "error", appErr.Err)
		}
	}
	response.Error(c, appErr.Code, appErr.Message)
}
