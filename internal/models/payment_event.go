package models

import "time"

// PaymentEvent 已处理的网关回调，EventKey 唯一保证重复投递只生效一次
type PaymentEvent struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	ProviderType string    `gorm:"not null;uniqueIndex:idx_payment_event_key" json:"provider_type"`
	EventKey     string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_payment_event_key" json:"event_key"` // 回调原文的 SHA-256
	Reference    string    `gorm:"index;type:varchar(128)" json:"reference"`
	InvoiceNo    string    `gorm:"index;type:varchar(64)" json:"invoice_no"`
	Accepted     bool      `gorm:"not null;default:false" json:"accepted"`
	Detail       string    `gorm:"type:text" json:"detail"`
	BilledAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"billed_amount"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (PaymentEvent) TableName() string {
	return "payment_events"
}
