// Package adgate models the simulated ad countdown that gates rewards. The
// countdown is an explicit cancellable task: the continuation fires exactly
// once after the full countdown, and never after cancellation.
package adgate

import (
	"context"
	"log/slog"
	"time"

	"github.com/pakreward/rewards-service/internal/idempotency"
)

// Continuation is the reward application deferred behind the ad.
type Continuation func(ctx context.Context) error

// Gate runs ad countdowns.
type Gate struct {
	countdown time.Duration
	once      idempotency.Manager
	log       *slog.Logger
}

// New constructs a Gate. The idempotency manager may be nil; guarded runs
// then degrade to plain runs.
func New(countdown time.Duration, once idempotency.Manager, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}

	return &Gate{
		countdown: countdown,
		once:      once,
		log:       log,
	}
}

// Run waits out the countdown and invokes the continuation. A cancelled
// context aborts the countdown and the continuation never fires; any
// deduction already applied before Run is not rolled back.
func (g *Gate) Run(ctx context.Context, fn Continuation) error {
	if fn == nil {
		return nil
	}

	timer := time.NewTimer(g.countdown)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		g.log.Debug("ad countdown cancelled", "error", ctx.Err())
		return ctx.Err()
	case <-timer.C:
	}

	return fn(ctx)
}

// RunGuarded behaves like Run but additionally ensures the continuation
// executes at most once per key within ttl, surviving replays of the same
// gated action.
func (g *Gate) RunGuarded(ctx context.Context, key string, ttl time.Duration, fn Continuation) (fromCache bool, err error) {
	if g.once == nil {
		return false, g.Run(ctx, fn)
	}

	timer := time.NewTimer(g.countdown)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		g.log.Debug("ad countdown cancelled", "error", ctx.Err())
		return false, ctx.Err()
	case <-timer.C:
	}

	result, err := g.once.Execute(ctx, key, ttl, func(ctx context.Context) (interface{}, error) {
		return nil, fn(ctx)
	})
	if err != nil {
		return false, err
	}

	return result.FromCache, nil
}
