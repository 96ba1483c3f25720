package models

import "time"

// PaymentLog 与支付网关的交互记录
type PaymentLog struct {
	ID           uint      `gorm:"primarykey" json:"id"`                           // 主键
	ChannelID    uint      `gorm:"index;not null" json:"channel_id"`               // 支付渠道ID
	ProviderType string    `gorm:"not null" json:"provider_type"`                  // 提供方类型
	InvoiceNo    string    `gorm:"index;type:varchar(64)" json:"invoice_no"`       // 发票号
	Incoming     bool      `gorm:"not null;default:false;index" json:"incoming"`   // 是否为网关回调
	URL          string    `gorm:"type:varchar(500)" json:"url,omitempty"`         // 请求地址
	HTTPStatus   int       `gorm:"not null;default:0" json:"http_status"`          // HTTP 状态码
	RequestForm  string    `gorm:"type:text" json:"request_form,omitempty"`        // 请求参数（name: value 逐行）
	ResponseBody string    `gorm:"type:text" json:"response_body,omitempty"`       // 响应报文
	Error        string    `gorm:"type:text" json:"error,omitempty"`               // 错误信息
	CreatedAt    time.Time `gorm:"index" json:"created_at"`                        // 创建时间
}

// TableName 指定表名
func (PaymentLog) TableName() string {
	return "payment_logs"
}
