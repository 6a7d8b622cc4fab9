// Package retry runs operations with a bounded exponential backoff.
//
// Only errors classified as transient are retried; anything else is
// returned on the first failure. The context bounds the total wait.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy bounds a retry loop.
type Policy struct {
	// MaxAttempts is the total number of tries including the first one.
	MaxAttempts uint `mapstructure:"max_attempts" default:"3"`
	// InitialInterval is the wait before the second attempt.
	InitialInterval time.Duration `mapstructure:"initial_interval" default:"100ms"`
	// MaxInterval caps the wait between attempts.
	MaxInterval time.Duration `mapstructure:"max_interval" default:"2s"`
	// CallTimeout bounds every single attempt.
	CallTimeout time.Duration `mapstructure:"call_timeout" default:"5s"`
}

// DefaultPolicy is used when a zero Policy is supplied.
var DefaultPolicy = Policy{
	MaxAttempts:     3,
	InitialInterval: 100 * time.Millisecond,
	MaxInterval:     2 * time.Second,
	CallTimeout:     5 * time.Second,
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts == 0 {
		p.MaxAttempts = DefaultPolicy.MaxAttempts
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = DefaultPolicy.InitialInterval
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = DefaultPolicy.MaxInterval
	}
	if p.CallTimeout <= 0 {
		p.CallTimeout = DefaultPolicy.CallTimeout
	}
	return p
}

// Backoff returns the exponential schedule described by the policy.
func (p Policy) Backoff() *backoff.ExponentialBackOff {
	p = p.normalized()
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.Reset()
	return b
}

// Attempts returns the effective attempt budget.
func (p Policy) Attempts() uint {
	return p.normalized().MaxAttempts
}

// Delay returns the wait before the given retry (1 for the first retry).
func (p Policy) Delay(retry int) time.Duration {
	b := p.Backoff()
	var d time.Duration
	for i := 0; i < retry; i++ {
		d = b.NextBackOff()
	}
	return d
}

// Do calls op until it succeeds, returns a non-transient error, or the
// attempt budget is spent. Each attempt gets its own CallTimeout context.
func Do[T any](ctx context.Context, p Policy, isTransient func(error) bool, op func(ctx context.Context) (T, error)) (T, error) {
	p = p.normalized()

	return backoff.Retry(ctx, func() (T, error) {
		callCtx, cancel := context.WithTimeout(ctx, p.CallTimeout)
		defer cancel()

		res, err := op(callCtx)
		if err != nil && isTransient != nil && !isTransient(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	},
		backoff.WithBackOff(p.Backoff()),
		backoff.WithMaxTries(p.MaxAttempts),
		backoff.WithMaxElapsedTime(time.Duration(p.MaxAttempts)*(p.CallTimeout+p.MaxInterval)),
	)
}

// Run is Do for operations without a result.
func Run(ctx context.Context, p Policy, isTransient func(error) bool, op func(ctx context.Context) error) error {
	_, err := Do(ctx, p, isTransient, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Always treats every error as transient.
func Always(error) bool { return true }
