package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/carrierpay/internal/logger"
	"github.com/carrierpay/internal/queue"
	"github.com/carrierpay/internal/service"

	"github.com/hibiken/asynq"
)

// OutcomeApplier 持久化回调对账结论
type OutcomeApplier interface {
	ApplyDimocoOutcome(ctx context.Context, payload queue.DimocoOutcomePayload) error
}

// Consumer 异步任务消费者
type Consumer struct {
	payments OutcomeApplier
}

// NewConsumer 创建消费者
func NewConsumer(payments OutcomeApplier) *Consumer {
	return &Consumer{payments: payments}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskDimocoOutcome, c.handleDimocoOutcome)
}

func (c *Consumer) handleDimocoOutcome(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.payments == nil {
		logger.Debugw("worker_dimoco_outcome_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseDimocoOutcomePayload(task.Payload())
	if err != nil {
		logger.Warnw("worker_dimoco_outcome_unmarshal_failed", "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if payload.EventKey == "" || len(payload.OrderIDs) == 0 {
		logger.Debugw("worker_dimoco_outcome_skip_invalid_payload", "event_key", payload.EventKey, "order_ids", payload.OrderIDs)
		return nil
	}
	if err := c.payments.ApplyDimocoOutcome(ctx, payload); err != nil {
		if errors.Is(err, service.ErrPaymentInvalid) {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		logger.Ctx(ctx, "event_key", payload.EventKey, "invoice_no", payload.InvoiceNo).
			Warnw("worker_dimoco_outcome_apply_failed", "error", err)
		return err
	}
	return nil
}
