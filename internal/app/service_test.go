package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeService struct {
	name     string
	startErr error
	block    bool
	stopped  int32
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.startErr
}

func (s *fakeService) Stop(context.Context) error {
	atomic.AddInt32(&s.stopped, 1)
	return nil
}

func TestRunnerStopsAllWhenContextCanceled(t *testing.T) {
	a := &fakeService{name: "a", block: true}
	b := &fakeService{name: "b", block: true}
	runner := NewRunner(a, b)
	var cleaned int32
	runner.OnExit(func() { atomic.AddInt32(&cleaned, 1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx, time.Second, nil) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("runner did not stop")
	}
	if atomic.LoadInt32(&a.stopped) != 1 || atomic.LoadInt32(&b.stopped) != 1 {
		t.Fatalf("all services must be stopped")
	}
	if atomic.LoadInt32(&cleaned) != 1 {
		t.Fatalf("cleanup must run once")
	}
}

func TestRunnerPropagatesStartError(t *testing.T) {
	boom := errors.New("bind failed")
	failing := &fakeService{name: "http", startErr: boom}
	blocking := &fakeService{name: "worker", block: true}

	err := NewRunner(failing, blocking).Run(context.Background(), time.Second, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected start error, got %v", err)
	}
	if atomic.LoadInt32(&blocking.stopped) != 1 {
		t.Fatalf("remaining service must be stopped")
	}
}

func TestRunnerRejectsEmpty(t *testing.T) {
	if err := NewRunner().Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("expected error for empty runner")
	}
	if _, err := BuildRunner(nil, "all"); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
