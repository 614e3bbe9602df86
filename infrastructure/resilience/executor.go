// Package resilience bounds task execution concurrency with fortify's
// bulkhead, the same resilience library the originating codebase builds
// its tool executor on, and computes retry backoff previews with plain
// exponential arithmetic.
package resilience

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"

	"github.com/felixgeelhaar/fortify/bulkhead"

	"github.com/felixgeelhaar/taskworker/domain/task"
)

// Executor bounds how many task bodies run at once. The runtime only
// ever hosts a single run at a time (see Non-goals), so a bulkhead sized
// to 1 exists to keep a slow synchronous task body from starving the
// heartbeat goroutine's scheduling rather than to multiplex work.
type Executor struct {
	bh bulkhead.Bulkhead[json.RawMessage]
}

// NewExecutor constructs an Executor with the given maximum concurrency.
func NewExecutor(maxConcurrent int) *Executor {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Executor{
		bh: bulkhead.New[json.RawMessage](bulkhead.Config{MaxConcurrent: maxConcurrent}),
	}
}

// Execute runs fn through the bulkhead.
func (e *Executor) Execute(ctx context.Context, fn func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	return e.bh.Execute(ctx, fn)
}

// PreviewRetry computes the delay the coordinator's backoff policy would
// produce for the given attempt number under cfg, without performing any
// retry itself — the worker never retries its own runs (see Non-goals);
// this exists purely so a diagnostic LOG line can tell an operator what
// the next attempt's backoff would be.
func PreviewRetry(cfg task.RetryConfig, attempt int) int {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(cfg.MinTimeoutInMs) * math.Pow(cfg.Factor, float64(attempt-1))
	if delay > float64(cfg.MaxTimeoutInMs) {
		delay = float64(cfg.MaxTimeoutInMs)
	}
	if cfg.Randomize {
		delay = delay/2 + delay/2*rand.Float64()
	}
	return int(delay)
}
