package logger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func useObservedLogger(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	previous := L
	L = zap.New(core)
	t.Cleanup(func() { L = previous })
	return logs
}

func TestCtxAddsTraceFields(t *testing.T) {
	logs := useObservedLogger(t)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x0a, 0x0b, 0x0c, 0x01},
		SpanID:     trace.SpanID{0x01, 0x02},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	Ctx(ctx, "invoice_no", "INV-7").Infow("dimoco_payment_started")
	Ctx(context.Background(), "invoice_no", "INV-8").Infow("dimoco_payment_started")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	traced := entries[0].ContextMap()
	if traced["trace_id"] != sc.TraceID().String() || traced["span_id"] != sc.SpanID().String() || traced["invoice_no"] != "INV-7" {
		t.Fatalf("unexpected traced fields: %v", traced)
	}
	if _, ok := entries[1].ContextMap()["trace_id"]; ok {
		t.Fatalf("context without span must not carry trace_id")
	}
}

func TestReleaseModeWritesJSONFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	log := New("release", Options{Dir: dir, Filename: "carrierpay.log"})
	log.Info("dimoco_webhook_processed", zap.String("invoice_no", "INV-9"))
	_ = log.Sync()

	raw, err := os.ReadFile(filepath.Join(dir, "carrierpay.log"))
	if err != nil {
		t.Fatalf("read log file failed: %v", err)
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(raw))), &entry); err != nil {
		t.Fatalf("release log must be json: %v (%s)", err, raw)
	}
	if entry["message"] != "dimoco_webhook_processed" || entry["invoice_no"] != "INV-9" || entry["level"] != "info" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Fatalf("entry must carry time: %v", entry)
	}
}

func TestDebugModeSkipsFile(t *testing.T) {
	dir := t.TempDir()
	log := New(" Debug ", Options{Dir: dir, Filename: "debug.log"})
	log.Debug("debug_only")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(dir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode must log to console only")
	}
}

func TestResolveLogFilePathDefaults(t *testing.T) {
	dir := t.TempDir()
	got, err := resolveLogFilePath(Options{Dir: dir, Filename: "  "})
	if err != nil {
		t.Fatalf("resolve log path failed: %v", err)
	}
	if got != filepath.Join(dir, defaultLogFilename) {
		t.Fatalf("blank filename must fall back to %s, got %s", defaultLogFilename, got)
	}
	if _, err := os.Stat(got); err != nil {
		t.Fatalf("log file must be created: %v", err)
	}
}

func TestNormalizePositiveInt(t *testing.T) {
	if normalizePositiveInt(0, defaultLogMaxBackups) != defaultLogMaxBackups || normalizePositiveInt(-3, 1) != 1 {
		t.Fatalf("non-positive values must fall back")
	}
	if normalizePositiveInt(12, defaultLogMaxSizeMB) != 12 {
		t.Fatalf("positive value must be kept")
	}
}

func TestRedactLines(t *testing.T) {
	text := "merchant: m-1\nclient_secret: abcdef\namount: 49.99\nX-Token: t\nnot a pair"
	got := RedactLines(text)
	if strings.Contains(got, "abcdef") {
		t.Fatalf("secret leaked: %s", got)
	}
	for _, want := range []string{"client_secret: ***(6)", "X-Token: ***(1)", "amount: 49.99", "not a pair"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in %s", want, got)
		}
	}
	if Redact("") != "" {
		t.Fatalf("empty value must stay empty")
	}
}

func TestIsSensitiveKey(t *testing.T) {
	cases := map[string]bool{
		"client_secret":  true,
		"Authorization":  true,
		"admin_password": true,
		"merchant":       false,
		"amount":         false,
	}
	for key, want := range cases {
		if got := IsSensitiveKey(key); got != want {
			t.Fatalf("%s: want %v got %v", key, want, got)
		}
	}
}
