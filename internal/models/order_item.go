package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem 订单行
type OrderItem struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                  // 主键
	OrderID     uint           `gorm:"index;not null" json:"order_id"`                        // 订单ID
	ItemType    string         `gorm:"type:varchar(32);not null" json:"item_type"`            // 行类型（product/shipping/...）
	Title       string         `gorm:"not null" json:"title"`                                 // 标题快照
	Description string         `gorm:"type:text" json:"description,omitempty"`                // 描述，用于支付页商品预览
	ImageURL    string         `gorm:"type:varchar(500)" json:"image_url,omitempty"`          // 图片，用于支付页商品预览
	UnitPrice   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"` // 不含税单价
	Quantity    int            `gorm:"not null;default:1" json:"quantity"`                    // 数量
	VatRate     Money          `gorm:"type:decimal(6,2);not null;default:0" json:"vat_rate"`  // 税率（百分比）
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                            // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                        // 软删除时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
