// Package retry runs fetch attempts with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mspro-labs/scoop-scout/internal/scrapeerr"
)

// Policy bounds the attempts made for one operation.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy is three attempts waiting 2s then 4s.
var DefaultPolicy = Policy{
	MaxAttempts: 3,
	BaseDelay:   2 * time.Second,
	MaxDelay:    30 * time.Second,
}

// Delay is the wait after the given failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// ExhaustedError carries the last retryable failure once the budget is spent.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Controller applies a Policy. It holds no per-operation state and is safe
// for concurrent use.
type Controller struct {
	policy Policy
	logger *zap.Logger
	sleep  SleepFunc
}

type Option func(*Controller)

// WithSleep replaces the wall-clock wait, for tests.
func WithSleep(fn SleepFunc) Option {
	return func(c *Controller) { c.sleep = fn }
}

func New(policy Policy, logger *zap.Logger, opts ...Option) *Controller {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		policy: policy,
		logger: logger.Named("retry"),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Policy() Policy { return c.policy }

// Do calls op until it succeeds, fails with a non-retryable error, or the
// attempt budget runs out.
func (c *Controller) Do(ctx context.Context, op func(ctx context.Context) error, fields ...zap.Field) error {
	var last error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		last = err

		if ctx.Err() != nil {
			return errors.Join(last, ctx.Err())
		}
		if !scrapeerr.Retryable(err) {
			return err
		}
		if attempt == c.policy.MaxAttempts {
			break
		}

		delay := c.policy.Delay(attempt)
		c.logger.With(fields...).Warn("attempt failed, backing off",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))

		if err := c.sleep(ctx, delay); err != nil {
			return errors.Join(last, err)
		}
	}

	return &ExhaustedError{Attempts: c.policy.MaxAttempts, Err: last}
}

// Value is Do for operations that produce a result.
func Value[T any](ctx context.Context, c *Controller, op func(ctx context.Context) (T, error), fields ...zap.Field) (T, error) {
	var out T
	err := c.Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	}, fields...)
	return out, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
