package resilience

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/taskworker/domain/task"
)

func TestNewExecutor_AcceptsNonPositiveMaxConcurrent(t *testing.T) {
	t.Parallel()

	for _, n := range []int{-1, 0, 1} {
		e := NewExecutor(n)
		if e == nil {
			t.Fatalf("NewExecutor(%d) returned nil", n)
		}
	}
}

func TestExecutor_Execute_Success(t *testing.T) {
	t.Parallel()
	e := NewExecutor(1)

	out, err := e.Execute(context.Background(), func(context.Context) (json.RawMessage, error) {
		return json.RawMessage(`{"ok":true}`), nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}
	if string(out) != `{"ok":true}` {
		t.Errorf("Execute() output = %s, want {\"ok\":true}", out)
	}
}

func TestExecutor_Execute_Failure(t *testing.T) {
	t.Parallel()
	e := NewExecutor(1)
	wantErr := errors.New("task body failed")

	_, err := e.Execute(context.Background(), func(context.Context) (json.RawMessage, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Execute() error = %v, want %v", err, wantErr)
	}
}

func TestExecutor_Execute_ContextCancellation(t *testing.T) {
	t.Parallel()
	e := NewExecutor(1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := e.Execute(ctx, func(ctx context.Context) (json.RawMessage, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return json.RawMessage(`{}`), nil
		}
	})
	if err == nil {
		t.Error("Execute() should return an error on context cancellation")
	}
}

func TestExecutor_BoundsConcurrency(t *testing.T) {
	t.Parallel()
	e := NewExecutor(1)

	var inFlight, maxSeen atomic.Int32
	work := func(context.Context) (json.RawMessage, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			cur := maxSeen.Load()
			if n <= cur || maxSeen.CompareAndSwap(cur, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return nil, nil
	}

	done := make(chan struct{}, 2)
	go func() { e.Execute(context.Background(), work); done <- struct{}{} }()
	go func() { e.Execute(context.Background(), work); done <- struct{}{} }()
	<-done
	<-done

	if got := maxSeen.Load(); got > 1 {
		t.Errorf("max concurrent executions observed = %d, want <= 1", got)
	}
}

func TestPreviewRetry_RespectsMinAndMax(t *testing.T) {
	t.Parallel()
	cfg := task.RetryConfig{MaxAttempts: 5, MinTimeoutInMs: 1000, MaxTimeoutInMs: 4000, Factor: 2, Randomize: false}

	if got := PreviewRetry(cfg, 1); got != 1000 {
		t.Errorf("PreviewRetry(attempt=1) = %d, want 1000", got)
	}
	if got := PreviewRetry(cfg, 2); got != 2000 {
		t.Errorf("PreviewRetry(attempt=2) = %d, want 2000", got)
	}
	if got := PreviewRetry(cfg, 10); got != cfg.MaxTimeoutInMs {
		t.Errorf("PreviewRetry(attempt=10) = %d, want capped at %d", got, cfg.MaxTimeoutInMs)
	}
}

func TestPreviewRetry_TreatsNonPositiveAttemptAsFirst(t *testing.T) {
	t.Parallel()
	cfg := task.RetryConfig{MaxAttempts: 3, MinTimeoutInMs: 500, MaxTimeoutInMs: 60000, Factor: 2, Randomize: false}

	if got := PreviewRetry(cfg, 0); got != PreviewRetry(cfg, 1) {
		t.Errorf("PreviewRetry(attempt=0) = %d, want same as attempt=1 (%d)", got, PreviewRetry(cfg, 1))
	}
}

func TestPreviewRetry_RandomizeStaysWithinBounds(t *testing.T) {
	t.Parallel()
	cfg := task.RetryConfig{MaxAttempts: 3, MinTimeoutInMs: 1000, MaxTimeoutInMs: 60000, Factor: 2, Randomize: true}

	for attempt := 1; attempt <= 5; attempt++ {
		delay := PreviewRetry(cfg, attempt)
		base := float64(cfg.MinTimeoutInMs)
		for i := 1; i < attempt; i++ {
			base *= cfg.Factor
		}
		if base > float64(cfg.MaxTimeoutInMs) {
			base = float64(cfg.MaxTimeoutInMs)
		}
		if delay < 0 || float64(delay) > base {
			t.Errorf("attempt %d: delay %d out of expected range [0, %v]", attempt, delay, base)
		}
	}
}
