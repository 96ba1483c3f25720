package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/carrierpay/internal/constants"
	"github.com/carrierpay/internal/logger"
	"github.com/carrierpay/internal/models"
	"github.com/carrierpay/internal/payment/dimoco"
	"github.com/carrierpay/internal/telemetry"

	"go.uber.org/zap"
)

// InitiatePaymentInput 发起 Dimoco 支付
type InitiatePaymentInput struct {
	ChannelID uint
	OrderIDs  []uint
	InvoiceNo string // 为空时取第一笔订单的发票号
}

// InitiatePaymentResult 发起支付结果，失败时 RedirectURL 为渠道的失败地址
type InitiatePaymentResult struct {
	Successful  bool
	RedirectURL string
	Reference   string
	RequestID   string
}

// InitiateDimocoPayment 为一笔或多笔订单发起运营商代扣。
// 订单与渠道不存在时返回错误；渠道加载后的任何失败（含 panic）都转为跳转失败地址。
func (s *PaymentService) InitiateDimocoPayment(ctx context.Context, input InitiatePaymentInput) (result *InitiatePaymentResult, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var channel *models.PaymentChannel
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		paymentLogger(ctx, "channel_id", input.ChannelID).Errorw("dimoco_payment_start_panic", "panic", r)
		if channel == nil {
			result, err = nil, ErrPaymentInternal
			return
		}
		result, err = &InitiatePaymentResult{RedirectURL: failURLOf(channel)}, nil
	}()
	orderIDs := uniqueOrderIDs(input.OrderIDs)
	if len(orderIDs) == 0 {
		return nil, ErrPaymentInvalid
	}
	orders, err := s.orderRepo.WithContext(ctx).GetByIDs(orderIDs)
	if err != nil {
		return nil, err
	}
	if len(orders) != len(orderIDs) {
		return nil, ErrOrderNotFound
	}
	for _, order := range orders {
		if order.Status != constants.OrderStatusPendingPayment {
			return nil, ErrPaymentInvalid
		}
	}
	// 仓库按 id 升序返回，购物者信息取调用方给出的第一笔订单
	first := orderByID(orders, orderIDs[0])
	invoiceNo := strings.TrimSpace(input.InvoiceNo)
	if invoiceNo == "" {
		invoiceNo = strings.TrimSpace(first.InvoiceNo)
	}
	if invoiceNo == "" {
		return nil, ErrPaymentInvalid
	}

	channel, err = s.settings.LoadChannel(ctx, input.ChannelID)
	if err != nil {
		return nil, err
	}
	log := paymentLogger(ctx,
		"channel_id", channel.ID,
		"invoice_no", invoiceNo,
		"order_ids", dimoco.JoinOrderIDs(orderIDs),
	)

	cfg, err := s.settings.Build(channel)
	if err != nil {
		log.Errorw("dimoco_settings_resolve_failed", "error", err)
		return &InitiatePaymentResult{RedirectURL: failURLOf(channel)}, nil
	}
	failed := &InitiatePaymentResult{RedirectURL: cfg.FailURL}
	amount := SumTotals(orders)
	if amount.IsZero() && channel.SkipZeroAmount {
		return s.settleZeroAmount(ctx, orderIDs, cfg, log)
	}
	if err := dimoco.ValidateConfig(cfg); err != nil {
		log.Errorw("dimoco_settings_invalid", "error", err)
		return failed, nil
	}

	createInput := dimoco.CreateInput{
		Amount:       amount,
		OrderIDs:     orderIDs,
		InvoiceNo:    invoiceNo,
		ShopperEmail: strings.TrimSpace(first.Email),
		MSISDN:       strings.TrimSpace(first.Phone),
		Language:     strings.TrimSpace(first.Language),
		Country:      strings.TrimSpace(first.CountryCode),
		Product:      productPromptOf(first),
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout())
	defer cancel()
	started := s.now()
	created, err := dimoco.CreatePayment(callCtx, cfg, createInput)
	elapsed := time.Since(started).Seconds()
	s.recordOutgoing(channel.ID, cfg, invoiceNo, created, err, log)

	if err != nil {
		mapped := mapDimocoGatewayError(err)
		telemetry.Payments().RecordInitiation(ctx, constants.PaymentProviderDimoco, outcomeLabel(mapped), elapsed)
		log.Warnw("dimoco_payment_start_failed", "error", err, "mapped", mapped)
		return failed, nil
	}
	telemetry.Payments().RecordInitiation(ctx, constants.PaymentProviderDimoco, "success", elapsed)

	if err := s.orderRepo.WithContext(ctx).UpdateGatewayReference(orderIDs, channel.ID, created.Reference, created.RequestID); err != nil {
		log.Errorw("dimoco_order_reference_update_failed", "reference", created.Reference, "error", err)
		return failed, nil
	}

	redirectURL := created.RedirectURL
	if redirectURL == "" {
		redirectURL = cfg.SuccessURL
	}
	log.Infow("dimoco_payment_started",
		"reference", created.Reference,
		"request_id", created.RequestID,
		"action_status", created.Status.String(),
		"amount", dimoco.FormatAmount(createInput.Amount),
	)
	return &InitiatePaymentResult{
		Successful:  true,
		RedirectURL: redirectURL,
		Reference:   created.Reference,
		RequestID:   created.RequestID,
	}, nil
}

// settleZeroAmount 应付为 0 且渠道允许时不请求网关，直接将订单置为已支付
func (s *PaymentService) settleZeroAmount(ctx context.Context, orderIDs []uint, cfg *dimoco.Config, log *zap.SugaredLogger) (*InitiatePaymentResult, error) {
	now := s.now()
	target := constants.OrderStatusPaid
	updates := map[string]interface{}{"paid_at": now, "updated_at": now}
	if cfg.AutoFinish {
		target = constants.OrderStatusCompleted
		updates["completed_at"] = now
	}
	if _, err := s.orderRepo.WithContext(ctx).TransitionStatus(orderIDs, []string{constants.OrderStatusPendingPayment}, target, updates); err != nil {
		log.Errorw("dimoco_zero_amount_settle_failed", "error", err)
		return &InitiatePaymentResult{RedirectURL: cfg.FailURL}, nil
	}
	log.Infow("dimoco_zero_amount_settled", "status", target)
	telemetry.Payments().RecordInitiation(ctx, constants.PaymentProviderDimoco, "skipped", 0)
	return &InitiatePaymentResult{Successful: true, RedirectURL: cfg.SuccessURL}, nil
}

// recordOutgoing 渠道开启 log_all_requests 时记录与网关的完整交互
func (s *PaymentService) recordOutgoing(channelID uint, cfg *dimoco.Config, invoiceNo string, result *dimoco.CreateResult, callErr error, log *zap.SugaredLogger) {
	if s.logRepo == nil || cfg == nil || !cfg.LogAllRequests {
		return
	}
	entry := &models.PaymentLog{
		ChannelID:    channelID,
		ProviderType: constants.PaymentProviderDimoco,
		InvoiceNo:    invoiceNo,
		Incoming:     false,
		URL:          cfg.GatewayURL,
	}
	if result != nil {
		entry.URL = result.Exchange.URL
		entry.HTTPStatus = result.Exchange.HTTPStatus
		entry.RequestForm = logger.RedactLines(result.Exchange.RequestForm)
		entry.ResponseBody = result.Exchange.ResponseBody
	}
	if callErr != nil {
		entry.Error = callErr.Error()
	}
	if err := s.logRepo.Create(entry); err != nil {
		log.Warnw("dimoco_payment_log_write_failed", "error", err)
	}
}

func productPromptOf(order models.Order) *dimoco.ProductPrompt {
	for _, item := range order.Items {
		if item.ItemType != constants.OrderItemTypeProduct {
			continue
		}
		image := strings.TrimSpace(item.ImageURL)
		if image == "" {
			continue
		}
		return &dimoco.ProductPrompt{ImageURL: image, Description: item.Description}
	}
	return nil
}

func orderByID(orders []models.Order, id uint) models.Order {
	for _, order := range orders {
		if order.ID == id {
			return order
		}
	}
	return orders[0]
}

func failURLOf(channel *models.PaymentChannel) string {
	if channel == nil {
		return ""
	}
	if raw, ok := channel.ConfigJSON["fail_url"].(string); ok {
		return strings.TrimSpace(raw)
	}
	return ""
}

func uniqueOrderIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

func mapDimocoGatewayError(err error) error {
	switch {
	case errors.Is(err, dimoco.ErrConfigInvalid):
		return ErrPaymentChannelConfigInvalid
	case errors.Is(err, dimoco.ErrRequestFailed):
		return ErrPaymentGatewayRequestFailed
	case errors.Is(err, dimoco.ErrStatusRejected):
		return ErrPaymentRejected
	case errors.Is(err, dimoco.ErrSignatureMissing), errors.Is(err, dimoco.ErrSignatureInvalid):
		return ErrPaymentSignatureInvalid
	case errors.Is(err, dimoco.ErrResponseInvalid):
		return ErrPaymentGatewayResponseInvalid
	default:
		return ErrPaymentGatewayRequestFailed
	}
}

func outcomeLabel(err error) string {
	switch err {
	case nil:
		return "success"
	case ErrPaymentChannelConfigInvalid:
		return "config_invalid"
	case ErrPaymentRejected:
		return "rejected"
	case ErrPaymentGatewayResponseInvalid:
		return "response_invalid"
	default:
		return "request_failed"
	}
}
