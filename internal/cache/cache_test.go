package cache

import (
	"context"
	"testing"
	"time"

	"github.com/carrierpay/internal/config"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init disabled failed: %v", err)
	}
	if Enabled() || Client() != nil {
		t.Fatalf("cache must be disabled")
	}
	ctx := context.Background()
	var dest map[string]string
	hit, err := GetJSON(ctx, "k", &dest)
	if err != nil || hit {
		t.Fatalf("disabled get must miss: hit=%v err=%v", hit, err)
	}
	if err := SetJSON(ctx, "k", map[string]string{"a": "b"}, time.Minute); err != nil {
		t.Fatalf("disabled set failed: %v", err)
	}
	first, err := MarkOnce(ctx, "webhook:abc", time.Minute)
	if err != nil || !first {
		t.Fatalf("disabled mark must report first: %v %v", first, err)
	}
	if err := Ping(ctx); err != nil {
		t.Fatalf("disabled ping failed: %v", err)
	}
}

func TestBuildKey(t *testing.T) {
	if got := BuildKey(" auth:admin:1 "); got != redisPrefix+":auth:admin:1" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := BuildKey(""); got != redisPrefix {
		t.Fatalf("unexpected empty key: %s", got)
	}
}
