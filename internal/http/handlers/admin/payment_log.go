package admin

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/carrierpay/internal/http/response"
	"github.com/carrierpay/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetPaymentLogs 获取支付请求日志列表
func (h *Handler) GetPaymentLogs(c *gin.Context) {
	page, pageSize := pageQuery(c)

	filter, err := buildPaymentLogFilter(c, page, pageSize)
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	logs, total, err := h.PaymentService.PaymentLogs(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "payment log fetch failed", err)
		return
	}
	response.SuccessWithPage(c, logs, response.BuildPagination(page, pageSize, total))
}

func buildPaymentLogFilter(c *gin.Context, page, pageSize int) (repository.PaymentLogListFilter, error) {
	filter := repository.PaymentLogListFilter{
		Page:      page,
		PageSize:  pageSize,
		InvoiceNo: strings.TrimSpace(c.Query("invoice_no")),
		Search:    strings.TrimSpace(c.Query("search")),
	}
	if raw := strings.TrimSpace(c.Query("channel_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid channel_id: %w", err)
		}
		filter.ChannelID = uint(id)
	}
	if raw := strings.TrimSpace(c.Query("incoming")); raw != "" {
		incoming, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid incoming: %w", err)
		}
		filter.Incoming = &incoming
	}
	from, err := parseTimeQuery(c.Query("created_from"))
	if err != nil {
		return filter, err
	}
	to, err := parseTimeQuery(c.Query("created_to"))
	if err != nil {
		return filter, err
	}
	filter.CreatedFrom = from
	filter.CreatedTo = to
	return filter, nil
}

// parseTimeQuery 支持 RFC3339 与日期
func parseTimeQuery(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q", raw)
	}
	return &t, nil
}
