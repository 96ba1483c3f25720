package repository

import "time"

// PaymentChannelListFilter 查询支付渠道列表的过滤条件
type PaymentChannelListFilter struct {
	Page         int
	PageSize     int
	ProviderType string
	ActiveOnly   bool
}

// PaymentLogListFilter 查询支付日志列表的过滤条件
type PaymentLogListFilter struct {
	Page        int
	PageSize    int
	ChannelID   uint
	InvoiceNo   string
	Search      string
	Incoming    *bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
