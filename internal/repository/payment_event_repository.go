package repository

import (
	"errors"

	"github.com/carrierpay/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentEventRepository 网关回调去重
type PaymentEventRepository interface {
	CreateIfAbsent(event *models.PaymentEvent) (bool, error)
	GetByKey(providerType, eventKey string) (*models.PaymentEvent, error)
	WithTx(tx *gorm.DB) *GormPaymentEventRepository
}

// GormPaymentEventRepository GORM 实现
type GormPaymentEventRepository struct {
	db *gorm.DB
}

// NewPaymentEventRepository 创建回调事件仓库
func NewPaymentEventRepository(db *gorm.DB) *GormPaymentEventRepository {
	return &GormPaymentEventRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentEventRepository) WithTx(tx *gorm.DB) *GormPaymentEventRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentEventRepository{db: tx}
}

// CreateIfAbsent 插入事件，唯一键冲突时不报错并返回 false
func (r *GormPaymentEventRepository) CreateIfAbsent(event *models.PaymentEvent) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetByKey 根据唯一键获取事件
func (r *GormPaymentEventRepository) GetByKey(providerType, eventKey string) (*models.PaymentEvent, error) {
	var event models.PaymentEvent
	err := r.db.Where("provider_type = ? AND event_key = ?", providerType, eventKey).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}
