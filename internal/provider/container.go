package provider

import (
	"github.com/carrierpay/internal/cache"
	"github.com/carrierpay/internal/config"
	"github.com/carrierpay/internal/logger"
	"github.com/carrierpay/internal/models"
	"github.com/carrierpay/internal/queue"
	"github.com/carrierpay/internal/repository"
	"github.com/carrierpay/internal/secret"
	"github.com/carrierpay/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	SecretBox   *secret.Box

	// Repositories
	AdminRepo          repository.AdminRepository
	OrderRepo          repository.OrderRepository
	PaymentChannelRepo repository.PaymentChannelRepository
	PaymentLogRepo     repository.PaymentLogRepository
	PaymentEventRepo   repository.PaymentEventRepository

	// Services
	AuthService    *service.AuthService
	CaptchaService *service.CaptchaService
	DimocoSettings *service.DimocoSettingsResolver
	PaymentService *service.PaymentService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端，未启用时回调结论同步落库
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	box, err := secret.NewBox(cfg.Security.SecretKey)
	if err != nil {
		logger.Warnw("provider_init_secret_box_failed", "error", err)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		SecretBox:   box,
	}
	c.initRepositories()
	c.initServices()
	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PaymentChannelRepo = repository.NewPaymentChannelRepository(db)
	c.PaymentLogRepo = repository.NewPaymentLogRepository(db)
	c.PaymentEventRepo = repository.NewPaymentEventRepository(db)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config.JWT, c.AdminRepo)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha, nil)
	c.DimocoSettings = service.NewDimocoSettingsResolver(
		c.PaymentChannelRepo,
		c.SecretBox,
		c.Config.Payment.Environment,
		c.Config.Payment.GatewayURL,
		c.Config.Payment.RequestTimeout(),
	)
	c.PaymentService = service.NewPaymentService(
		c.OrderRepo,
		c.PaymentChannelRepo,
		c.PaymentLogRepo,
		c.PaymentEventRepo,
		c.DimocoSettings,
		c.QueueClient,
		c.Config.Payment,
	)
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
