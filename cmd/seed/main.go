package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/carrierpay/internal/config"
	"github.com/carrierpay/internal/constants"
	"github.com/carrierpay/internal/logger"
	"github.com/carrierpay/internal/models"
	"github.com/carrierpay/internal/payment/dimoco"
	"github.com/carrierpay/internal/provider"
	"github.com/carrierpay/internal/service"
)

// 初始化联调数据：加密后的 Dimoco 渠道、一笔待支付订单、管理员 token
func main() {
	var (
		gatewayURL = flag.String("gateway", "https://sandbox-dcb.dimoco.at/sph/payment", "网关地址")
		baseURL    = flag.String("base-url", "", "对外访问地址，默认取 server.public_base_url")
		shopURL    = flag.String("shop-url", "http://localhost:3000", "商城地址，用于生成成功/失败跳转")
	)
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, models.LogLevelForMode(cfg.Server.Mode)); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.InitDefaultAdmin(os.Getenv("CP_DEFAULT_ADMIN_USERNAME"), os.Getenv("CP_DEFAULT_ADMIN_PASSWORD")); err != nil {
		stdLog.Fatalf("Failed to create admin: %v", err)
	}

	container := provider.NewContainer(cfg)
	defer container.Close()
	ctx := context.Background()

	base := strings.TrimRight(firstNonEmpty(*baseURL, cfg.Server.PublicBaseURL), "/")
	shop := strings.TrimRight(*shopURL, "/")
	channel, err := container.PaymentService.CreateDimocoChannel(ctx, service.DimocoChannelInput{
		Name:       "Dimoco",
		GatewayURL: *gatewayURL,
		SuccessURL: shop + "/payment/success",
		FailURL:    shop + "/payment/failed",
		Test: dimoco.Credentials{
			MerchantID:   os.Getenv("CP_SEED_DIMOCO_MERCHANT_ID"),
			OrderID:      os.Getenv("CP_SEED_DIMOCO_ORDER_ID"),
			ClientSecret: os.Getenv("CP_SEED_DIMOCO_CLIENT_SECRET"),
			ServiceName:  "carrierpay demo",
		},
		LogAllRequests: true,
	})
	if err != nil {
		stdLog.Fatalf("Failed to create channel: %v", err)
	}
	// 回调地址依赖渠道 ID，创建后补写
	channel.ConfigJSON["webhook_url"] = fmt.Sprintf("%s/api/v1/payments/dimoco/webhook/%d", base, channel.ID)
	if err := container.PaymentChannelRepo.Update(channel); err != nil {
		stdLog.Fatalf("Failed to update channel webhook url: %v", err)
	}
	stdLog.Printf("Created dimoco channel: id=%d", channel.ID)

	order := &models.Order{
		OrderNo:     "CP-DEMO-1",
		InvoiceNo:   "INV-DEMO-1",
		Email:       "shopper@example.com",
		Phone:       "436641234567",
		Language:    "de",
		CountryCode: "AT",
		Currency:    "EUR",
		Status:      constants.OrderStatusPendingPayment,
	}
	items := []models.OrderItem{{
		ItemType:    constants.OrderItemTypeProduct,
		Title:       "Ringtone",
		Description: "Classic ringtone",
		ImageURL:    shop + "/static/ringtone.png",
		UnitPrice:   models.MustMoney("4.19"),
		Quantity:    1,
		VatRate:     models.MustMoney("20"),
	}}
	if err := container.OrderRepo.Create(order, items); err != nil {
		stdLog.Fatalf("Failed to create order: %v", err)
	}
	stdLog.Printf("Created order: id=%d invoice=%s total=%s", order.ID, order.InvoiceNo, service.OrderTotal(*order).StringFixed(2))

	admin, err := container.AdminRepo.GetByUsername(firstNonEmpty(os.Getenv("CP_DEFAULT_ADMIN_USERNAME"), "admin"))
	if err != nil || admin == nil {
		stdLog.Fatalf("Failed to load admin: %v", err)
	}
	token, expiresAt, err := container.AuthService.GenerateJWT(admin)
	if err != nil {
		stdLog.Fatalf("Failed to sign admin token: %v", err)
	}
	stdLog.Printf("Admin token (expires %s): %s", expiresAt.Format("2006-01-02 15:04"), token)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
