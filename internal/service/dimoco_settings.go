package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carrierpay/internal/constants"
	"github.com/carrierpay/internal/models"
	"github.com/carrierpay/internal/payment/dimoco"
	"github.com/carrierpay/internal/repository"
	"github.com/carrierpay/internal/secret"
)

// DimocoSettingsResolver 读取渠道配置并解密敏感字段
type DimocoSettingsResolver struct {
	channelRepo     repository.PaymentChannelRepository
	box             *secret.Box
	environment     string
	gatewayOverride string
	timeout         time.Duration
}

// NewDimocoSettingsResolver 创建渠道配置解析器，box 为空时无法读取加密字段
func NewDimocoSettingsResolver(channelRepo repository.PaymentChannelRepository, box *secret.Box, environment, gatewayOverride string, timeout time.Duration) *DimocoSettingsResolver {
	return &DimocoSettingsResolver{
		channelRepo:     channelRepo,
		box:             box,
		environment:     dimoco.NormalizeEnvironment(environment),
		gatewayOverride: strings.TrimSpace(gatewayOverride),
		timeout:         timeout,
	}
}

// Environment 当前生效的环境
func (r *DimocoSettingsResolver) Environment() string {
	return r.environment
}

// LoadChannel 读取并校验渠道
func (r *DimocoSettingsResolver) LoadChannel(ctx context.Context, channelID uint) (*models.PaymentChannel, error) {
	if channelID == 0 {
		return nil, ErrPaymentChannelNotFound
	}
	channel, err := r.channelRepo.WithContext(ctx).GetByID(channelID)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, ErrPaymentChannelNotFound
	}
	if strings.ToLower(strings.TrimSpace(channel.ProviderType)) != constants.PaymentProviderDimoco {
		return nil, ErrPaymentProviderNotSupported
	}
	if !channel.IsActive {
		return nil, ErrPaymentChannelInactive
	}
	return channel, nil
}

// Resolve 按当前环境生成网关配置。凭据缺失不在此处报错，由调用方校验。
func (r *DimocoSettingsResolver) Resolve(ctx context.Context, channelID uint) (*dimoco.Config, error) {
	channel, err := r.LoadChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	return r.Build(channel)
}

// Build 从已加载的渠道生成网关配置
func (r *DimocoSettingsResolver) Build(channel *models.PaymentChannel) (*dimoco.Config, error) {
	channelCfg, err := dimoco.ParseChannelConfig(channel.ConfigJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentChannelConfigInvalid, err)
	}
	creds := channelCfg.Credentials(r.environment)
	if creds.MerchantID, err = r.open(creds.MerchantID); err != nil {
		return nil, err
	}
	if creds.OrderID, err = r.open(creds.OrderID); err != nil {
		return nil, err
	}
	if creds.ClientSecret, err = r.open(creds.ClientSecret); err != nil {
		return nil, err
	}

	cfg := channelCfg.Build(creds)
	if r.gatewayOverride != "" {
		cfg.GatewayURL = r.gatewayOverride
	}
	cfg.LogAllRequests = channel.LogAllRequests
	cfg.AutoFinish = channel.AutoFinish
	if r.timeout > 0 {
		cfg.TimeoutSeconds = int(r.timeout / time.Second)
	}
	return cfg, nil
}

func (r *DimocoSettingsResolver) open(value string) (string, error) {
	if !secret.IsSealed(value) {
		return value, nil
	}
	if r.box == nil {
		return "", ErrSettingsSecretUnavailable
	}
	plain, err := r.box.Decrypt(value)
	if err != nil {
		if errors.Is(err, secret.ErrCipherBroken) {
			return "", fmt.Errorf("%w: %v", ErrPaymentChannelConfigInvalid, err)
		}
		return "", err
	}
	return plain, nil
}

// SealDimocoCredentials 加密单个环境下的敏感字段，返回可直接写入渠道配置的 map
func SealDimocoCredentials(box *secret.Box, creds dimoco.Credentials) (map[string]interface{}, error) {
	if box == nil {
		return nil, ErrSettingsSecretUnavailable
	}
	sealed := map[string]interface{}{
		"logo_url":     creds.LogoURL,
		"service_name": creds.ServiceName,
	}
	for key, value := range map[string]string{
		"merchant_id":   creds.MerchantID,
		"order_id":      creds.OrderID,
		"client_secret": creds.ClientSecret,
	} {
		if value == "" {
			sealed[key] = ""
			continue
		}
		encrypted, err := box.Encrypt(value)
		if err != nil {
			return nil, err
		}
		sealed[key] = encrypted
	}
	return sealed, nil
}
