package host

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrStopped is returned when submitting to a loop that has shut down.
var ErrStopped = errors.New("host executor stopped")

// Executor is the game host's single-threaded execution context. Tasks run
// one at a time in submission order.
type Executor interface {
	Submit(task func()) error
}

// Whitelist is the live access list. Its methods may only be called from a
// task running on the Executor.
type Whitelist interface {
	IsWhitelisted(id uuid.UUID) bool
	SetWhitelisted(id uuid.UUID, on bool) error
	Whitelisted() []uuid.UUID
}

// Host is a game server runtime as seen by the sync engine.
type Host interface {
	Executor
	Whitelist
}

// Config configures the standalone host loop.
type Config struct {
	// TickInterval is the time between two ticks (50ms is 20 ticks per second).
	TickInterval time.Duration `mapstructure:"tick_interval" default:"50ms"`
	// WhitelistFile persists the whitelist as JSON when set.
	WhitelistFile string `mapstructure:"whitelist_file" default:"whitelist.json"`
}

// Call runs fn on the executor and waits for its result. The wait is bounded
// by ctx; fn itself still runs once it has been queued.
func Call[T any](ctx context.Context, exec Executor, fn func() (T, error)) (T, error) {
	var zero T
	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)

	err := exec.Submit(func() {
		val, err := fn()
		done <- result{val: val, err: err}
	})
	if err != nil {
		return zero, err
	}

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
