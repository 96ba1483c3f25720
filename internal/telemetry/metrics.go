package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/carrierpay"

// PaymentMetrics 支付相关指标
type PaymentMetrics struct {
	initiations     metric.Int64Counter
	webhookVerdicts metric.Int64Counter
	gatewayLatency  metric.Float64Histogram
}

var (
	paymentMetricsOnce sync.Once
	paymentMetrics     *PaymentMetrics
)

// Payments 返回进程级支付指标；需在 Init 之后首次调用才会绑定到导出器
func Payments() *PaymentMetrics {
	paymentMetricsOnce.Do(func() {
		paymentMetrics = newPaymentMetrics(otel.Meter(meterName))
	})
	return paymentMetrics
}

func newPaymentMetrics(meter metric.Meter) *PaymentMetrics {
	m := &PaymentMetrics{}
	// 创建失败时保留 nil，记录方法会跳过
	m.initiations, _ = meter.Int64Counter(
		"payment_initiations_total",
		metric.WithDescription("Payment initiations by provider and outcome"),
	)
	m.webhookVerdicts, _ = meter.Int64Counter(
		"payment_webhook_verdicts_total",
		metric.WithDescription("Webhook verdicts by provider and result"),
	)
	m.gatewayLatency, _ = meter.Float64Histogram(
		"payment_gateway_latency_seconds",
		metric.WithDescription("Outbound gateway call latency"),
		metric.WithUnit("s"),
	)
	return m
}

// RecordInitiation 记录一次发起支付
func (m *PaymentMetrics) RecordInitiation(ctx context.Context, provider, outcome string, seconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	)
	if m.initiations != nil {
		m.initiations.Add(ctx, 1, attrs)
	}
	if m.gatewayLatency != nil && seconds > 0 {
		m.gatewayLatency.Record(ctx, seconds, attrs)
	}
}

// RecordWebhook 记录一次回调结论
func (m *PaymentMetrics) RecordWebhook(ctx context.Context, provider string, accepted bool, statusCode int) {
	if m == nil || m.webhookVerdicts == nil {
		return
	}
	m.webhookVerdicts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.Bool("accepted", accepted),
		attribute.Int("status_code", statusCode),
	))
}
