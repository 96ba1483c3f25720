package dimoco

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	EnvironmentTest = "test"
	EnvironmentLive = "live"
)

// Credentials 单个环境的凭据
type Credentials struct {
	MerchantID   string `json:"merchant_id"`   // 加密存储
	OrderID      string `json:"order_id"`      // 加密存储
	ClientSecret string `json:"client_secret"` // 加密存储
	LogoURL      string `json:"logo_url"`      // 明文
	ServiceName  string `json:"service_name"`  // 明文
}

// ChannelConfig 支付渠道中保存的原始配置
type ChannelConfig struct {
	GatewayURL string      `json:"gateway_url"`
	WebhookURL string      `json:"webhook_url"`
	SuccessURL string      `json:"success_url"`
	FailURL    string      `json:"fail_url"`
	Test       Credentials `json:"test"`
	Live       Credentials `json:"live"`
}

// ParseChannelConfig 解析渠道配置
func ParseChannelConfig(raw map[string]interface{}) (*ChannelConfig, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty config", ErrConfigInvalid)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal config failed", ErrConfigInvalid)
	}
	var cfg ChannelConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal config failed", ErrConfigInvalid)
	}
	cfg.normalize()
	return &cfg, nil
}

// NormalizeEnvironment development 视为 test，其余非 live 值一律视为 test
func NormalizeEnvironment(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case EnvironmentLive, "production", "prod":
		return EnvironmentLive
	default:
		return EnvironmentTest
	}
}

// Credentials 按环境选择凭据
func (c *ChannelConfig) Credentials(env string) Credentials {
	if NormalizeEnvironment(env) == EnvironmentLive {
		return c.Live
	}
	return c.Test
}

// Build 结合已解密的凭据生成网关配置
func (c *ChannelConfig) Build(creds Credentials) *Config {
	return &Config{
		GatewayURL:   c.GatewayURL,
		MerchantID:   strings.TrimSpace(creds.MerchantID),
		OrderID:      strings.TrimSpace(creds.OrderID),
		ClientSecret: creds.ClientSecret,
		LogoURL:      strings.TrimSpace(creds.LogoURL),
		ServiceName:  strings.TrimSpace(creds.ServiceName),
		WebhookURL:   c.WebhookURL,
		SuccessURL:   c.SuccessURL,
		FailURL:      c.FailURL,
	}
}

func (c *ChannelConfig) normalize() {
	c.GatewayURL = strings.TrimSpace(c.GatewayURL)
	if c.GatewayURL == "" {
		c.GatewayURL = DefaultGatewayURL
	}
	c.WebhookURL = strings.TrimSpace(c.WebhookURL)
	c.SuccessURL = strings.TrimSpace(c.SuccessURL)
	c.FailURL = strings.TrimSpace(c.FailURL)
}
