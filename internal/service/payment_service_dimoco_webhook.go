package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"

	"github.com/carrierpay/internal/cache"
	"github.com/carrierpay/internal/constants"
	"github.com/carrierpay/internal/models"
	"github.com/carrierpay/internal/payment/dimoco"
	"github.com/carrierpay/internal/queue"
	"github.com/carrierpay/internal/telemetry"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

const (
	webhookStatusInvalidSignature = "invalid signature"
	webhookStatusInvalidData      = "invalid webhook data"
	webhookStatusNoOrderIDs       = "no order ids found in webhook data"
	webhookStatusNoInvoice        = "no invoice number found in webhook data"
	webhookStatusNoOrders         = "no orders found for invoice number"
	webhookStatusChannelInvalid   = "payment channel unavailable"
	webhookStatusInternalError    = "error processing dimoco payment update"
)

var webhookTracer = otel.Tracer("github.com/carrierpay/internal/service")

// DimocoWebhookInput 网关回调输入
type DimocoWebhookInput struct {
	ChannelID uint
	Form      map[string][]string
}

// StatusUpdateResult 回调处理结果。StatusCode 为 0 以外的值时由 HTTP 层原样返回。
type StatusUpdateResult struct {
	Successful bool
	Status     string
	StatusCode int
}

// HandleDimocoWebhook 验签、解析并对账一次网关回调，结果总是非空
func (s *PaymentService) HandleDimocoWebhook(ctx context.Context, input DimocoWebhookInput) (result *StatusUpdateResult) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := webhookTracer.Start(ctx, "dimoco.webhook")
	defer span.End()
	span.SetAttributes(attribute.Int64("payment.channel_id", int64(input.ChannelID)))

	log := paymentLogger(ctx, "channel_id", input.ChannelID)
	trace := &webhookTrace{}
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("dimoco_webhook_panic", "panic", r)
			trace.err = fmt.Errorf("panic: %v", r)
			result = internalWebhookError()
			if trace.eventKey != "" {
				_ = cache.Del(context.Background(), replayMarkerKey(trace.eventKey))
			}
		}
		span.SetAttributes(
			attribute.Int("http.status_code", result.StatusCode),
			attribute.Bool("payment.accepted", result.Successful),
		)
		telemetry.Payments().RecordWebhook(ctx, constants.PaymentProviderDimoco, result.Successful, result.StatusCode)
		s.recordIncoming(input.ChannelID, trace, result)
	}()

	result, trace.err = s.handleDimocoWebhook(ctx, input, trace)
	if trace.err != nil {
		log.Warnw("dimoco_webhook_rejected",
			"invoice_no", trace.invoiceNo,
			"status_code", result.StatusCode,
			"error", trace.err,
		)
		return result
	}
	log.Infow("dimoco_webhook_processed",
		"invoice_no", trace.invoiceNo,
		"accepted", result.Successful,
		"detail", result.Status,
	)
	return result
}

// webhookTrace 收集回调处理过程中用于日志的信息
type webhookTrace struct {
	invoiceNo string
	rawData   string
	eventKey  string
	logAll    bool
	err       error
}

func (s *PaymentService) handleDimocoWebhook(ctx context.Context, input DimocoWebhookInput, trace *webhookTrace) (*StatusUpdateResult, error) {
	channel, err := s.settings.LoadChannel(ctx, input.ChannelID)
	if err != nil {
		if errors.Is(err, ErrPaymentChannelNotFound) || errors.Is(err, ErrPaymentChannelInactive) || errors.Is(err, ErrPaymentProviderNotSupported) {
			return badWebhook(webhookStatusChannelInvalid), err
		}
		return internalWebhookError(), err
	}
	cfg, err := s.settings.Build(channel)
	if err != nil {
		return internalWebhookError(), err
	}
	trace.logAll = cfg.LogAllRequests

	apiResult, wh, err := dimoco.ParseWebhook(cfg, input.Form)
	if wh != nil && cfg.LogAllRequests {
		trace.rawData = wh.Data
	}
	switch {
	case err == nil:
	case errors.Is(err, dimoco.ErrSignatureMissing), errors.Is(err, dimoco.ErrSignatureInvalid):
		return badWebhook(webhookStatusInvalidSignature), err
	case errors.Is(err, dimoco.ErrResponseInvalid):
		return badWebhook(webhookStatusInvalidData), err
	default:
		return internalWebhookError(), err
	}
	trace.invoiceNo, _ = dimoco.InvoiceNumber(apiResult)

	orderIDs, err := dimoco.OrderIDs(apiResult)
	if err != nil {
		return badWebhook(webhookStatusNoOrderIDs), err
	}

	expected := decimal.Zero
	if apiResult.ActionResult.Status == dimoco.ActionStatusSuccess {
		if trace.invoiceNo == "" {
			return badWebhook(webhookStatusNoInvoice), dimoco.ErrInvoiceMissing
		}
		lookupCtx, cancel := context.WithTimeout(ctx, s.cfg.WebhookTimeout())
		orders, err := s.orderRepo.WithContext(lookupCtx).ListByInvoiceNo(trace.invoiceNo)
		cancel()
		if err != nil {
			return internalWebhookError(), err
		}
		if len(orders) == 0 {
			return badWebhook(webhookStatusNoOrders), ErrOrderNotFound
		}
		expected = SumTotals(orders)
	}
	verdict := dimoco.Reconcile(apiResult, expected)

	trace.eventKey = webhookEventKey(wh.Data)
	payload := queue.DimocoOutcomePayload{
		ChannelID:    channel.ID,
		EventKey:     trace.eventKey,
		Reference:    apiResult.Reference,
		InvoiceNo:    trace.invoiceNo,
		OrderIDs:     orderIDs,
		Accepted:     verdict.Accepted,
		AutoFinish:   cfg.AutoFinish,
		Detail:       verdict.Detail,
		BilledAmount: dimoco.FormatAmount(verdict.Billed),
	}
	if err := s.dispatchDimocoOutcome(ctx, payload); err != nil {
		return internalWebhookError(), err
	}
	return &StatusUpdateResult{
		Successful: verdict.Accepted,
		Status:     verdict.Detail,
		StatusCode: http.StatusOK,
	}, nil
}

// ExtractDimocoInvoiceNumber 验签后读取回调中的发票号
func (s *PaymentService) ExtractDimocoInvoiceNumber(ctx context.Context, channelID uint, form map[string][]string) (string, error) {
	cfg, err := s.settings.Resolve(ctx, channelID)
	if err != nil {
		return "", err
	}
	apiResult, _, err := dimoco.ParseWebhook(cfg, form)
	if err != nil {
		return "", mapDimocoGatewayError(err)
	}
	return dimoco.InvoiceNumber(apiResult)
}

// dispatchDimocoOutcome 队列可用时异步落库，否则同步落库。
// 重放标记只在落库或入队成功后写入；同步路径总是落库，由 payment_events 去重。
func (s *PaymentService) dispatchDimocoOutcome(ctx context.Context, payload queue.DimocoOutcomePayload) error {
	markerKey := replayMarkerKey(payload.EventKey)
	if !s.queueClient.Enabled() {
		if err := s.ApplyDimocoOutcome(ctx, payload); err != nil {
			return err
		}
		s.markReplayed(ctx, markerKey)
		return nil
	}

	seen, err := cache.Exists(ctx, markerKey)
	if err != nil {
		paymentLogger(ctx).Warnw("dimoco_webhook_replay_marker_failed", "error", err)
	}
	if seen {
		paymentLogger(ctx, "event_key", payload.EventKey).Infow("dimoco_webhook_replayed")
		return nil
	}
	if err := s.queueClient.EnqueueDimocoOutcome(payload); err != nil {
		return err
	}
	s.markReplayed(ctx, markerKey)
	return nil
}

func (s *PaymentService) markReplayed(ctx context.Context, key string) {
	if _, err := cache.MarkOnce(ctx, key, s.replayTTL()); err != nil {
		paymentLogger(ctx).Warnw("dimoco_webhook_replay_marker_failed", "error", err)
	}
}

func replayMarkerKey(eventKey string) string {
	return "webhook:dimoco:" + eventKey
}

// ApplyDimocoOutcome 持久化对账结论。同一回调只生效一次，订单仅允许从待支付流转。
func (s *PaymentService) ApplyDimocoOutcome(ctx context.Context, payload queue.DimocoOutcomePayload) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if payload.EventKey == "" {
		return ErrPaymentInvalid
	}
	billed, err := decimal.NewFromString(payload.BilledAmount)
	if err != nil {
		billed = decimal.Zero
	}
	now := s.now()
	log := paymentLogger(ctx,
		"event_key", payload.EventKey,
		"reference", payload.Reference,
		"invoice_no", payload.InvoiceNo,
	)

	var transitioned int64
	err = models.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := s.eventRepo.WithTx(tx).CreateIfAbsent(&models.PaymentEvent{
			ProviderType: constants.PaymentProviderDimoco,
			EventKey:     payload.EventKey,
			Reference:    payload.Reference,
			InvoiceNo:    payload.InvoiceNo,
			Accepted:     payload.Accepted,
			Detail:       payload.Detail,
			BilledAmount: models.NewMoneyFromDecimal(billed),
		})
		if err != nil {
			return ErrPaymentUpdateFailed
		}
		if !created || !payload.Accepted {
			return nil
		}
		target := constants.OrderStatusPaid
		updates := map[string]interface{}{
			"paid_at":    now,
			"updated_at": now,
		}
		if payload.AutoFinish {
			target = constants.OrderStatusCompleted
			updates["completed_at"] = now
		}
		transitioned, err = s.orderRepo.WithTx(tx).TransitionStatus(payload.OrderIDs, []string{constants.OrderStatusPendingPayment}, target, updates)
		if err != nil {
			return ErrOrderUpdateFailed
		}
		return nil
	})
	if err != nil {
		log.Errorw("dimoco_outcome_apply_failed", "error", err)
		return err
	}
	if payload.Accepted {
		log.Infow("dimoco_outcome_applied", "orders_updated", transitioned, "auto_finish", payload.AutoFinish)
	} else {
		log.Infow("dimoco_outcome_recorded", "accepted", false, "detail", payload.Detail)
	}
	return nil
}

// recordIncoming 每次回调都写一条入站日志；完整报文仅在渠道开启 log_all_requests 时保存
func (s *PaymentService) recordIncoming(channelID uint, trace *webhookTrace, result *StatusUpdateResult) {
	if s.logRepo == nil || result == nil {
		return
	}
	entry := &models.PaymentLog{
		ChannelID:    channelID,
		ProviderType: constants.PaymentProviderDimoco,
		InvoiceNo:    trace.invoiceNo,
		Incoming:     true,
		HTTPStatus:   result.StatusCode,
	}
	if trace.logAll {
		entry.RequestForm = trace.rawData
		entry.ResponseBody = result.Status
	}
	if trace.err != nil {
		entry.Error = trace.err.Error()
	}
	if err := s.logRepo.Create(entry); err != nil {
		paymentLogger(context.Background(), "channel_id", channelID).Warnw("dimoco_webhook_log_write_failed", "error", err)
	}
}

func webhookEventKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func badWebhook(status string) *StatusUpdateResult {
	return &StatusUpdateResult{Successful: false, Status: status, StatusCode: http.StatusBadRequest}
}

func internalWebhookError() *StatusUpdateResult {
	return &StatusUpdateResult{Successful: false, Status: webhookStatusInternalError, StatusCode: http.StatusInternalServerError}
}
