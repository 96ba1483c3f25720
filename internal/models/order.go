package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID                    uint           `gorm:"primarykey" json:"id"`                                // 主键
	OrderNo               string         `gorm:"uniqueIndex;not null" json:"order_no"`                // 订单编号
	InvoiceNo             string         `gorm:"index;type:varchar(64)" json:"invoice_no"`            // 发票号（同一次支付的多笔订单共用）
	Email                 string         `gorm:"type:varchar(255)" json:"email"`                      // 下单邮箱
	Phone                 string         `gorm:"type:varchar(32)" json:"phone,omitempty"`             // 手机号（MSISDN）
	Language              string         `gorm:"type:varchar(8)" json:"language,omitempty"`           // 语言（ISO 639-1）
	CountryCode           string         `gorm:"type:varchar(2)" json:"country_code,omitempty"`       // 国家（ISO 3166-1 alpha-2）
	Currency              string         `gorm:"type:varchar(3);not null" json:"currency"`            // 币种
	Status                string         `gorm:"index;not null" json:"status"`                        // 订单状态
	ChannelID             *uint          `gorm:"index" json:"channel_id,omitempty"`                   // 发起支付的渠道
	ProviderTransactionID string         `gorm:"index;type:varchar(128)" json:"provider_transaction_id"` // 网关流水号（reference）
	GatewayRequestID      string         `gorm:"type:varchar(64)" json:"gateway_request_id"`          // 发起支付时生成的 request_id
	PaidAt                *time.Time     `gorm:"index" json:"paid_at"`                                // 支付时间
	CompletedAt           *time.Time     `json:"completed_at"`                                        // 完成时间
	CreatedAt             time.Time      `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt             time.Time      `gorm:"index" json:"updated_at"`                             // 更新时间
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`                                      // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
