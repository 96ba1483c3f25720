package admin

import (
	handlershared "github.com/carrierpay/internal/http/handlers/shared"
	"github.com/carrierpay/internal/provider"

	"github.com/gin-gonic/gin"
)

// Handler 后台管理接口处理器入口
// 说明：该处理器仅用于管理端 API。
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func pageQuery(c *gin.Context) (int, int) {
	return handlershared.PageQuery(c)
}
