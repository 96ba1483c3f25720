package router

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/carrierpay/internal/cache"
	"github.com/carrierpay/internal/config"
	adminhandlers "github.com/carrierpay/internal/http/handlers/admin"
	publichandlers "github.com/carrierpay/internal/http/handlers/public"
	"github.com/carrierpay/internal/logger"
	"github.com/carrierpay/internal/models"
	"github.com/carrierpay/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "cp"
	}
	initiateRule := buildRateLimitRule(redisPrefix, "payment_initiate", cfg.RateLimit.PaymentInitiate)
	adminLoginRule := buildRateLimitRule(redisPrefix, "admin_login", cfg.RateLimit.AdminLogin)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(TracingMiddleware(cfg.Telemetry.ServiceName))
	r.Use(LoggerMiddleware(log))

	r.GET("/healthz", healthz)

	apiV1 := r.Group("/api/v1")
	{
		payments := apiV1.Group("/payments")
		{
			payments.POST("/dimoco", RateLimitMiddleware(cache.Client(), initiateRule, KeyByIP), publicHandler.CreateDimocoPayment)
			// 网关回调不限流，重复投递由幂等处理吸收
			payments.POST("/dimoco/webhook/:channel_id", publicHandler.DimocoWebhook)
		}

		adminGroup := apiV1.Group("/admin")
		adminGroup.GET("/captcha/image", adminHandler.GetLoginCaptcha)
		adminGroup.POST("/login", RateLimitMiddleware(cache.Client(), adminLoginRule, KeyByIP), adminHandler.AdminLogin)

		authorized := adminGroup.Group("")
		authorized.Use(JWTAuthMiddleware(c.AuthService))
		{
			authorized.GET("/payment-logs", adminHandler.GetPaymentLogs)
			authorized.GET("/payment-channels", adminHandler.GetPaymentChannels)
			authorized.POST("/payment-channels", adminHandler.CreateDimocoChannel)
		}
	}

	return r
}

func buildRateLimitRule(redisPrefix, name string, rule config.RateLimitRule) RateLimitRule {
	return RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:%s", redisPrefix, name),
		WindowSeconds: rule.WindowSeconds,
		MaxRequests:   rule.MaxRequests,
		BlockSeconds:  rule.BlockSeconds,
	}
}

func healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"database": "ok", "redis": "ok"}
	healthy := true
	if err := pingDB(ctx); err != nil {
		status["database"] = err.Error()
		healthy = false
	}
	if err := cache.Ping(ctx); err != nil {
		status["redis"] = err.Error()
		healthy = false
	}
	if !healthy {
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}

func pingDB(ctx context.Context) error {
	if models.DB == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := models.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
