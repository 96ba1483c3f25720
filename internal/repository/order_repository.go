package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/carrierpay/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	GetByIDs(ids []uint) ([]models.Order, error)
	ListByInvoiceNo(invoiceNo string) ([]models.Order, error)
	UpdateGatewayReference(ids []uint, channelID uint, reference, requestID string) error
	TransitionStatus(ids []uint, from []string, to string, updates map[string]interface{}) (int64, error)
	WithTx(tx *gorm.DB) *GormOrderRepository
	WithContext(ctx context.Context) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// WithContext 绑定上下文，查询受调用方超时约束
func (r *GormOrderRepository) WithContext(ctx context.Context) *GormOrderRepository {
	if ctx == nil {
		return r
	}
	return &GormOrderRepository{db: r.db.WithContext(ctx)}
}

// Create 创建订单与订单项
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		order.Items = items
		return nil
	})
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDs 按 ID 列表获取订单（含订单项），按 ID 升序
func (r *GormOrderRepository) GetByIDs(ids []uint) ([]models.Order, error) {
	if len(ids) == 0 {
		return []models.Order{}, nil
	}
	var orders []models.Order
	if err := r.db.Preload("Items").Where("id IN ?", ids).Order("id asc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListByInvoiceNo 获取同一发票号下的全部订单（含订单项）
func (r *GormOrderRepository) ListByInvoiceNo(invoiceNo string) ([]models.Order, error) {
	invoiceNo = strings.TrimSpace(invoiceNo)
	if invoiceNo == "" {
		return []models.Order{}, nil
	}
	var orders []models.Order
	if err := r.db.Preload("Items").Where("invoice_no = ?", invoiceNo).Order("id asc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateGatewayReference 记录网关流水号与 request_id
func (r *GormOrderRepository) UpdateGatewayReference(ids []uint, channelID uint, reference, requestID string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&models.Order{}).Where("id IN ?", ids).Updates(map[string]interface{}{
		"channel_id":              channelID,
		"provider_transaction_id": reference,
		"gateway_request_id":      requestID,
	}).Error
}

// TransitionStatus 仅当订单处于 from 状态之一时才更新为 to，返回实际更新的行数
func (r *GormOrderRepository) TransitionStatus(ids []uint, from []string, to string, updates map[string]interface{}) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	query := r.db.Model(&models.Order{}).Where("id IN ?", ids)
	if len(from) > 0 {
		query = query.Where("status IN ?", from)
	}
	result := query.Updates(updates)
	return result.RowsAffected, result.Error
}
