package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentChannel 支付渠道配置
type PaymentChannel struct {
	ID             uint           `gorm:"primarykey" json:"id"`                          // 主键
	Name           string         `gorm:"not null" json:"name"`                          // 渠道名称
	ProviderType   string         `gorm:"not null;index" json:"provider_type"`           // 提供方类型（dimoco）
	ConfigJSON     JSON           `gorm:"type:json" json:"-"`                            // 渠道配置，敏感字段加密存储
	LogAllRequests bool           `gorm:"not null;default:false" json:"log_all_requests"` // 记录完整请求与响应
	AutoFinish     bool           `gorm:"not null;default:false" json:"auto_finish"`     // 支付成功后订单直接完成
	SkipZeroAmount bool           `gorm:"not null;default:false" json:"skip_zero_amount"` // 应付为 0 时跳过网关直接视为已支付
	IsActive       bool           `gorm:"not null;default:true" json:"is_active"`        // 是否启用
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                       // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间
}

// TableName 指定表名
func (PaymentChannel) TableName() string {
	return "payment_channels"
}
