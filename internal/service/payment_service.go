package service

import (
	"context"
	"time"

	"github.com/carrierpay/internal/config"
	"github.com/carrierpay/internal/logger"
	"github.com/carrierpay/internal/models"
	"github.com/carrierpay/internal/queue"
	"github.com/carrierpay/internal/repository"

	"go.uber.org/zap"
)

// PaymentService 支付服务
type PaymentService struct {
	orderRepo   repository.OrderRepository
	channelRepo repository.PaymentChannelRepository
	logRepo     repository.PaymentLogRepository
	eventRepo   repository.PaymentEventRepository
	settings    *DimocoSettingsResolver
	queueClient *queue.Client
	cfg         config.PaymentConfig
	now         func() time.Time
}

// NewPaymentService 创建支付服务
func NewPaymentService(orderRepo repository.OrderRepository, channelRepo repository.PaymentChannelRepository, logRepo repository.PaymentLogRepository, eventRepo repository.PaymentEventRepository, settings *DimocoSettingsResolver, queueClient *queue.Client, cfg config.PaymentConfig) *PaymentService {
	return &PaymentService{
		orderRepo:   orderRepo,
		channelRepo: channelRepo,
		logRepo:     logRepo,
		eventRepo:   eventRepo,
		settings:    settings,
		queueClient: queueClient,
		cfg:         cfg,
		now:         time.Now,
	}
}

// PaymentLogs 分页查询支付日志
func (s *PaymentService) PaymentLogs(filter repository.PaymentLogListFilter) ([]models.PaymentLog, int64, error) {
	return s.logRepo.ListAdmin(filter)
}

func (s *PaymentService) replayTTL() time.Duration {
	if s.cfg.ReplayTTLSeconds <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.cfg.ReplayTTLSeconds) * time.Second
}

func paymentLogger(ctx context.Context, kv ...interface{}) *zap.SugaredLogger {
	return logger.Ctx(ctx, kv...)
}
