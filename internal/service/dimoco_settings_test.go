package service

import (
	"errors"
	"testing"

	"github.com/carrierpay/internal/constants"
	"github.com/carrierpay/internal/models"
	"github.com/carrierpay/internal/payment/dimoco"
	"github.com/carrierpay/internal/secret"

	"github.com/shopspring/decimal"
)

func TestDimocoSettingsResolverSelectsEnvironment(t *testing.T) {
	box, err := secret.NewBox("resolver-key")
	if err != nil {
		t.Fatalf("new box failed: %v", err)
	}
	testCreds, _ := SealDimocoCredentials(box, dimoco.Credentials{MerchantID: "m-test", OrderID: "o-test", ClientSecret: "s-test"})
	liveCreds, _ := SealDimocoCredentials(box, dimoco.Credentials{MerchantID: "m-live", OrderID: "o-live", ClientSecret: "s-live", ServiceName: "Live Shop"})
	channel := &models.PaymentChannel{
		ID:           1,
		ProviderType: constants.PaymentProviderDimoco,
		ConfigJSON: models.JSON{
			"fail_url": "https://shop.example.com/failed",
			"test":     testCreds,
			"live":     liveCreds,
		},
		AutoFinish: true,
		IsActive:   true,
	}

	for env, merchant := range map[string]string{
		"development": "m-test",
		"test":        "m-test",
		"live":        "m-live",
	} {
		resolver := NewDimocoSettingsResolver(nil, box, env, "", 0)
		cfg, err := resolver.Build(channel)
		if err != nil {
			t.Fatalf("%s: build failed: %v", env, err)
		}
		if cfg.MerchantID != merchant {
			t.Fatalf("%s: expected merchant %s, got %s", env, merchant, cfg.MerchantID)
		}
		if !cfg.AutoFinish || cfg.GatewayURL != dimoco.DefaultGatewayURL {
			t.Fatalf("%s: unexpected config %s", env, cfg)
		}
	}

	resolver := NewDimocoSettingsResolver(nil, box, "live", "http://127.0.0.1:9999/pay", 0)
	cfg, err := resolver.Build(channel)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if cfg.GatewayURL != "http://127.0.0.1:9999/pay" || cfg.ClientSecret != "s-live" || cfg.ServiceName != "Live Shop" {
		t.Fatalf("unexpected override config: %s", cfg)
	}
}

func TestDimocoSettingsResolverNeedsKeyForSealedValues(t *testing.T) {
	box, _ := secret.NewBox("resolver-key")
	sealed, _ := SealDimocoCredentials(box, dimoco.Credentials{MerchantID: "m", OrderID: "o", ClientSecret: "s"})
	channel := &models.PaymentChannel{
		ProviderType: constants.PaymentProviderDimoco,
		ConfigJSON:   models.JSON{"test": sealed},
		IsActive:     true,
	}
	resolver := NewDimocoSettingsResolver(nil, nil, "test", "", 0)
	if _, err := resolver.Build(channel); !errors.Is(err, ErrSettingsSecretUnavailable) {
		t.Fatalf("expected secret unavailable, got %v", err)
	}

	other, _ := secret.NewBox("another-key")
	resolver = NewDimocoSettingsResolver(nil, other, "test", "", 0)
	if _, err := resolver.Build(channel); !errors.Is(err, ErrPaymentChannelConfigInvalid) {
		t.Fatalf("expected config invalid, got %v", err)
	}
}

func TestDimocoSettingsResolverPlainLegacyValues(t *testing.T) {
	channel := &models.PaymentChannel{
		ProviderType: constants.PaymentProviderDimoco,
		ConfigJSON: models.JSON{
			"test": map[string]interface{}{"merchant_id": "m", "order_id": "o", "client_secret": "s"},
		},
	}
	cfg, err := NewDimocoSettingsResolver(nil, nil, "test", "", 0).Build(channel)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if err := dimoco.ValidateConfig(cfg); err != nil {
		t.Fatalf("plain values must be usable: %v", err)
	}
}

func TestOrderTotalIncludesVat(t *testing.T) {
	order := models.Order{Items: []models.OrderItem{
		{UnitPrice: models.MustMoney("42.01"), Quantity: 1, VatRate: models.MustMoney("19")},
		{UnitPrice: models.MustMoney("2.50"), Quantity: 2},
		{UnitPrice: models.MustMoney("9.99"), Quantity: 0},
	}}
	if got := OrderTotal(order); !got.Equal(decimal.RequireFromString("54.99")) {
		t.Fatalf("unexpected total: %s", got)
	}
	if got := SumTotals([]models.Order{order, order}); !got.Equal(decimal.RequireFromString("109.98")) {
		t.Fatalf("unexpected sum: %s", got)
	}
}
