package shared

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// 管理端列表分页
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageQuery 读取 page / page_size 查询参数；非法值回落为第一页与默认条数，条数上限 MaxPageSize
func PageQuery(c *gin.Context) (page, pageSize int) {
	page = queryInt(c, "page")
	if page < 1 {
		page = 1
	}
	pageSize = queryInt(c, "page_size")
	switch {
	case pageSize <= 0:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func queryInt(c *gin.Context, key string) int {
	value, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return 0
	}
	return value
}
