package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/carrierpay/internal/config"
	"github.com/carrierpay/internal/constants"

	"github.com/mojocn/base64Captcha"
)

func TestCaptchaServiceDisabledSkipsVerify(t *testing.T) {
	svc := NewCaptchaService(config.CaptchaConfig{}, nil)
	if svc.Enabled() {
		t.Fatalf("empty provider must disable captcha")
	}
	if err := svc.Verify(CaptchaVerifyPayload{}); err != nil {
		t.Fatalf("disabled captcha must pass: %v", err)
	}
	if _, err := svc.GenerateImageChallenge(); !errors.Is(err, ErrCaptchaConfigInvalid) {
		t.Fatalf("expected config invalid, got %v", err)
	}
	var missing *CaptchaService
	if missing.Enabled() || missing.Verify(CaptchaVerifyPayload{}) != nil {
		t.Fatalf("nil service must behave as disabled")
	}
}

func TestCaptchaServiceImageChallenge(t *testing.T) {
	store := base64Captcha.NewMemoryStore(100, time.Minute)
	svc := NewCaptchaService(config.CaptchaConfig{Provider: " Image "}, store)

	challenge, err := svc.GenerateImageChallenge()
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if challenge.CaptchaID == "" || !strings.HasPrefix(challenge.ImageBase64, "data:image/png;base64,") {
		t.Fatalf("unexpected challenge: %+v", challenge)
	}
	answer := store.Get(challenge.CaptchaID, false)
	if len(answer) != 5 {
		t.Fatalf("default length must be 5, got %q", answer)
	}

	if err := svc.Verify(CaptchaVerifyPayload{CaptchaID: challenge.CaptchaID}); !errors.Is(err, ErrCaptchaRequired) {
		t.Fatalf("expected captcha required, got %v", err)
	}
	if err := svc.Verify(CaptchaVerifyPayload{CaptchaID: challenge.CaptchaID, CaptchaCode: " " + answer + " "}); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if err := svc.Verify(CaptchaVerifyPayload{CaptchaID: challenge.CaptchaID, CaptchaCode: answer}); !errors.Is(err, ErrCaptchaInvalid) {
		t.Fatalf("answer must be single use, got %v", err)
	}
}

func TestNormalizeCaptchaConfig(t *testing.T) {
	cfg := normalizeCaptchaConfig(config.CaptchaConfig{Image: config.CaptchaImageConfig{Length: 20, NoiseCount: -1}})
	if cfg.Provider != constants.CaptchaProviderNone {
		t.Fatalf("unexpected provider: %s", cfg.Provider)
	}
	if cfg.Image.Length != 5 || cfg.Image.Width != 240 || cfg.Image.Height != 80 || cfg.Image.NoiseCount != 0 {
		t.Fatalf("unexpected image config: %+v", cfg.Image)
	}
	if cfg.Image.ExpireSeconds != 300 || cfg.Image.MaxStore != 10240 {
		t.Fatalf("unexpected store config: %+v", cfg.Image)
	}
}
