package repository

import (
	"strings"

	"github.com/carrierpay/internal/models"

	"gorm.io/gorm"
)

// PaymentLogRepository 支付日志数据访问接口
type PaymentLogRepository interface {
	Create(log *models.PaymentLog) error
	ListAdmin(filter PaymentLogListFilter) ([]models.PaymentLog, int64, error)
}

// GormPaymentLogRepository GORM 实现
type GormPaymentLogRepository struct {
	db *gorm.DB
}

// NewPaymentLogRepository 创建支付日志仓库
func NewPaymentLogRepository(db *gorm.DB) *GormPaymentLogRepository {
	return &GormPaymentLogRepository{db: db}
}

// Create 写入日志
func (r *GormPaymentLogRepository) Create(log *models.PaymentLog) error {
	return r.db.Create(log).Error
}

// ListAdmin 管理端日志列表，按时间倒序
func (r *GormPaymentLogRepository) ListAdmin(filter PaymentLogListFilter) ([]models.PaymentLog, int64, error) {
	query := r.db.Model(&models.PaymentLog{})
	if filter.ChannelID != 0 {
		query = query.Where("channel_id = ?", filter.ChannelID)
	}
	if filter.InvoiceNo != "" {
		query = query.Where("invoice_no = ?", filter.InvoiceNo)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, count := buildLikeCondition(r.db, []string{"invoice_no", "error", "response_body"})
		query = query.Where("("+condition+")", repeatLikeArgs("%"+search+"%", count)...)
	}
	if filter.Incoming != nil {
		query = query.Where("incoming = ?", *filter.Incoming)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	return findPage[models.PaymentLog](query, filter.Page, filter.PageSize, "id desc")
}
