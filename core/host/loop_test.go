package host

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startLoop(t *testing.T, cfg Config) (*Loop, context.CancelFunc) {
	t.Helper()
	if cfg.TickInterval == 0 {
		cfg.TickInterval = time.Millisecond
	}
	l, err := NewLoop(cfg, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = l.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return l, cancel
}

func TestLoop_RunsTasksInSubmissionOrder(t *testing.T) {
	l, _ := startLoop(t, Config{})

	var mu sync.Mutex
	var order []int
	for i := 0; i < 50; i++ {
		i := i
		require.NoError(t, l.Submit(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}

	_, err := Call(context.Background(), l, func() (struct{}, error) { return struct{}{}, nil })
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 50)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestLoop_PanickingTaskDoesNotStopLoop(t *testing.T) {
	l, _ := startLoop(t, Config{})

	require.NoError(t, l.Submit(func() { panic("boom") }))

	got, err := Call(context.Background(), l, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestLoop_SubmitAfterStop(t *testing.T) {
	l, cancel := startLoop(t, Config{})
	cancel()

	require.Eventually(t, func() bool {
		return errors.Is(l.Submit(func() {}), ErrStopped)
	}, time.Second, time.Millisecond)
}

func TestCall_PropagatesErrorAndContext(t *testing.T) {
	l, _ := startLoop(t, Config{})

	_, err := Call(context.Background(), l, func() (int, error) { return 0, errors.New("nope") })
	assert.EqualError(t, err, "nope")

	// A loop that never ticks leaves the caller bounded by its context
	idle, err := NewLoop(Config{}, zap.NewNop())
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = Call(ctx, idle, func() (int, error) { return 1, nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoop_WhitelistPersists(t *testing.T) {
	file := filepath.Join(t.TempDir(), "whitelist.json")
	a, b := uuid.New(), uuid.New()

	l, cancel := startLoop(t, Config{WhitelistFile: file})
	_, err := Call(context.Background(), l, func() (struct{}, error) {
		assert.NoError(t, l.SetWhitelisted(a, true))
		assert.NoError(t, l.SetWhitelisted(b, true))
		assert.NoError(t, l.SetWhitelisted(b, false))
		assert.True(t, l.IsWhitelisted(a))
		assert.False(t, l.IsWhitelisted(b))
		return struct{}{}, nil
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(file)
		if err != nil {
			return false
		}
		var entries []whitelistEntry
		return json.Unmarshal(data, &entries) == nil && len(entries) == 1 && entries[0].UUID == a.String()
	}, time.Second, time.Millisecond)
	cancel()

	reloaded, err := NewLoop(Config{WhitelistFile: file}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a}, reloaded.Whitelisted())
}

func TestLoop_RejectsNilUUID(t *testing.T) {
	l, err := NewLoop(Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.Error(t, l.SetWhitelisted(uuid.Nil, true))
}

func TestNewLoop_MalformedFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "whitelist.json")
	require.NoError(t, os.WriteFile(file, []byte("{not json"), 0o644))

	_, err := NewLoop(Config{WhitelistFile: file}, zap.NewNop())
	assert.Error(t, err)
}
