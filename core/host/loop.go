package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type whitelistEntry struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// Loop is a standalone host: a ticking goroutine that drains submitted
// tasks in order, plus a whitelist owned by that goroutine.
type Loop struct {
	tick   time.Duration
	file   string
	logger *zap.Logger

	commandsMu sync.Mutex // protects pending and stopped between submitters and the tick loop
	pending    []func()
	stopped    bool

	// owned by the loop goroutine
	whitelist map[uuid.UUID]struct{}
	dirty     bool

	ticks atomic.Uint64
}

// NewLoop creates a loop and loads the whitelist file if it exists.
func NewLoop(cfg Config, logger *zap.Logger) (*Loop, error) {
	tick := cfg.TickInterval
	if tick <= 0 {
		tick = 50 * time.Millisecond
	}
	l := &Loop{
		tick:      tick,
		file:      cfg.WhitelistFile,
		logger:    logger,
		whitelist: make(map[uuid.UUID]struct{}),
	}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Loop) Submit(task func()) error {
	l.commandsMu.Lock()
	defer l.commandsMu.Unlock()

	if l.stopped {
		return ErrStopped
	}
	l.pending = append(l.pending, task)
	return nil
}

// Run ticks until ctx is done. Tasks queued before shutdown still run.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.commandsMu.Lock()
			l.stopped = true
			l.commandsMu.Unlock()
			l.step()
			return nil
		case <-ticker.C:
			l.step()
		}
	}
}

// Ticks returns how many ticks have run.
func (l *Loop) Ticks() uint64 {
	return l.ticks.Load()
}

func (l *Loop) step() {
	l.commandsMu.Lock()
	tasks := l.pending
	l.pending = nil
	l.commandsMu.Unlock()

	for _, task := range tasks {
		l.runTask(task)
	}

	if l.dirty {
		if err := l.save(); err != nil {
			l.logger.Error("Failed to persist whitelist", zap.String("file", l.file), zap.Error(err))
		} else {
			l.dirty = false
		}
	}
	l.ticks.Add(1)
}

func (l *Loop) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Host task panicked", zap.Any("panic", r))
		}
	}()
	task()
}

func (l *Loop) IsWhitelisted(id uuid.UUID) bool {
	_, ok := l.whitelist[id]
	return ok
}

func (l *Loop) SetWhitelisted(id uuid.UUID, on bool) error {
	if id == uuid.Nil {
		return errors.New("cannot whitelist the nil uuid")
	}
	_, present := l.whitelist[id]
	if on == present {
		return nil
	}
	if on {
		l.whitelist[id] = struct{}{}
	} else {
		delete(l.whitelist, id)
	}
	l.dirty = true
	return nil
}

func (l *Loop) Whitelisted() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(l.whitelist))
	for id := range l.whitelist {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func (l *Loop) load() error {
	if l.file == "" {
		return nil
	}
	data, err := os.ReadFile(l.file)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read whitelist: %w", err)
	}

	var entries []whitelistEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse whitelist %s: %w", l.file, err)
	}
	for _, e := range entries {
		id, err := uuid.Parse(e.UUID)
		if err != nil {
			l.logger.Warn("Skipping malformed whitelist entry", zap.String("uuid", e.UUID))
			continue
		}
		l.whitelist[id] = struct{}{}
	}
	return nil
}

func (l *Loop) save() error {
	if l.file == "" {
		return nil
	}
	entries := make([]whitelistEntry, 0, len(l.whitelist))
	for _, id := range l.Whitelisted() {
		entries = append(entries, whitelistEntry{UUID: id.String()})
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	tmp := l.file + ".tmp"
	if dir := filepath.Dir(l.file); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, l.file)
}
