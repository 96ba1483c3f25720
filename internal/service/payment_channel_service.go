package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/carrierpay/internal/constants"
	"github.com/carrierpay/internal/models"
	"github.com/carrierpay/internal/payment/dimoco"
	"github.com/carrierpay/internal/repository"
)

// DimocoChannelInput 创建 Dimoco 渠道的明文输入，凭据在落库前加密
type DimocoChannelInput struct {
	Name           string
	GatewayURL     string
	WebhookURL     string
	SuccessURL     string
	FailURL        string
	Test           dimoco.Credentials
	Live           dimoco.Credentials
	LogAllRequests bool
	AutoFinish     bool
	SkipZeroAmount bool
	IsActive       *bool
}

// CreateDimocoChannel 加密凭据并创建渠道
func (s *PaymentService) CreateDimocoChannel(ctx context.Context, input DimocoChannelInput) (*models.PaymentChannel, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrPaymentChannelConfigInvalid)
	}
	for field, raw := range map[string]string{
		"gateway_url": input.GatewayURL,
		"success_url": input.SuccessURL,
		"fail_url":    input.FailURL,
	} {
		if err := requireAbsoluteURL(raw); err != nil {
			return nil, fmt.Errorf("%w: %s %v", ErrPaymentChannelConfigInvalid, field, err)
		}
	}

	testCreds, err := SealDimocoCredentials(s.settings.box, input.Test)
	if err != nil {
		return nil, err
	}
	liveCreds, err := SealDimocoCredentials(s.settings.box, input.Live)
	if err != nil {
		return nil, err
	}

	channel := &models.PaymentChannel{
		Name:         name,
		ProviderType: constants.PaymentProviderDimoco,
		ConfigJSON: models.JSON{
			"gateway_url": strings.TrimSpace(input.GatewayURL),
			"webhook_url": strings.TrimSpace(input.WebhookURL),
			"success_url": strings.TrimSpace(input.SuccessURL),
			"fail_url":    strings.TrimSpace(input.FailURL),
			"test":        testCreds,
			"live":        liveCreds,
		},
		LogAllRequests: input.LogAllRequests,
		AutoFinish:     input.AutoFinish,
		SkipZeroAmount: input.SkipZeroAmount,
		IsActive:       true,
	}
	if input.IsActive != nil {
		channel.IsActive = *input.IsActive
	}
	if err := s.channelRepo.WithContext(ctx).Create(channel); err != nil {
		return nil, err
	}
	paymentLogger(ctx, "channel_id", channel.ID).Infow("dimoco_channel_created",
		"log_all_requests", channel.LogAllRequests,
		"auto_finish", channel.AutoFinish,
	)
	return channel, nil
}

// ListChannels 分页查询支付渠道
func (s *PaymentService) ListChannels(filter repository.PaymentChannelListFilter) ([]models.PaymentChannel, int64, error) {
	return s.channelRepo.List(filter)
}

func requireAbsoluteURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("absolute url required")
	}
	return nil
}
