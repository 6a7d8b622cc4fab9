package rolesync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"role-sync/core/host"
	"role-sync/core/logger"
	"role-sync/core/permission"
	"role-sync/core/platform"
	"role-sync/core/reconcile"
	"role-sync/core/retry"
	"role-sync/core/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// applyAttempts is the retry budget of a single mutation inside an apply
// step. The step runs on the host thread, so it stays small.
const applyAttempts = 2

// Bridge turns role facts into applied authorization changes.
type Bridge struct {
	store     store.Store
	adapter   permission.Adapter
	host      host.Host
	directory *platform.Directory
	logger    *zap.Logger
	cfg       Config

	mapping         atomic.Pointer[reconcile.Mapping]
	manageWhitelist atomic.Bool
	persist         func(manage bool) error

	queue *queue

	mu     sync.RWMutex
	states map[string]State
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithClock overrides the time source used for requeue delays.
func WithClock(now func() time.Time) Option {
	return func(b *Bridge) {
		b.queue.now = now
	}
}

// WithWhitelistPersister is called after whitelist management is toggled.
func WithWhitelistPersister(persist func(manage bool) error) Option {
	return func(b *Bridge) {
		b.persist = persist
	}
}

// NewBridge wires the engine. A nil adapter means no permission backend was
// found: the bridge then refuses facts with ErrFeatureDisabled.
func NewBridge(cfg Config, st store.Store, adapter permission.Adapter, h host.Host, dir *platform.Directory, logger *zap.Logger, opts ...Option) *Bridge {
	if dir == nil {
		dir = platform.NewDirectory(nil)
	}
	b := &Bridge{
		store:     st,
		adapter:   adapter,
		host:      h,
		directory: dir,
		logger:    logger,
		cfg:       cfg,
		queue:     newQueue(time.Now),
		states:    make(map[string]State),
	}
	b.SetMapping(cfg.Roles)
	b.manageWhitelist.Store(cfg.ManageWhitelist)
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Enabled reports whether a permission backend is bound.
func (b *Bridge) Enabled() bool {
	return b.adapter != nil
}

// Backend returns the bound adapter name, or "" when disabled.
func (b *Bridge) Backend() string {
	if b.adapter == nil {
		return ""
	}
	return b.adapter.Name()
}

// Mapping returns the active role to group mapping.
func (b *Bridge) Mapping() reconcile.Mapping {
	if m := b.mapping.Load(); m != nil {
		return *m
	}
	return nil
}

// SetMapping swaps the role mapping. The stored copy has role ids and group
// names lowercased. Work already planned keeps the old one.
func (b *Bridge) SetMapping(m reconcile.Mapping) {
	cp := m.Normalized()
	b.mapping.Store(&cp)
}

// ManageWhitelist reports whether the engine maintains the whitelist.
func (b *Bridge) ManageWhitelist() bool {
	return b.manageWhitelist.Load()
}

// State returns the sync state of a platform account.
func (b *Bridge) State(platformID string) State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if s, ok := b.states[platformID]; ok {
		return s
	}
	return StateUnlinked
}

func (b *Bridge) setState(platformID string, s State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.states[platformID] = s
}

// Deliver queues a fact. It never blocks on I/O and may be called from any
// goroutine, including the platform client's event thread.
func (b *Bridge) Deliver(f Fact) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if b.adapter == nil {
		return fmt.Errorf("%w: %w", ErrFeatureDisabled, permission.ErrBackendMissing)
	}

	f.Roles = append([]string(nil), f.Roles...)
	b.directory.Record(f.PlatformID, f.Roles, f.Kind != MemberLeft)

	if !b.queue.push(&item{fact: f}) {
		return ErrStopped
	}
	return nil
}

// Run processes queued work until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	if b.adapter == nil {
		b.logger.Warn("Role sync disabled, no permission backend bound")
		<-ctx.Done()
		b.queue.close()
		return nil
	}

	workers := b.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	b.logger.Info("Role sync started",
		zap.String("backend", b.adapter.Name()),
		zap.Int("workers", workers),
		zap.Bool("manage_whitelist", b.ManageWhitelist()))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.work(ctx)
		}()
	}

	<-ctx.Done()
	if dropped := b.queue.close(); dropped > 0 {
		b.logger.Warn("Dropping pending sync work on shutdown", zap.Int("accounts", dropped))
	}
	wg.Wait()
	return nil
}

// Wait blocks until no work is pending or in progress.
func (b *Bridge) Wait(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for !b.queue.idle() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func (b *Bridge) work(ctx context.Context) {
	for {
		it, ok := b.queue.pop(ctx)
		if !ok {
			return
		}
		b.handle(ctx, it)
		b.queue.done(it.fact.PlatformID)
	}
}

func (b *Bridge) handle(ctx context.Context, it *item) {
	id := it.fact.PlatformID
	l := logger.WithAccount(b.logger, id, "").With(
		zap.String("kind", string(it.fact.Kind)),
		zap.Int("attempt", it.attempt+1))

	defer func() {
		if r := recover(); r != nil {
			l.Error("Sync work item panicked", zap.Any("panic", r))
			b.setState(id, StateSyncFailed)
		}
	}()

	err := b.process(ctx, it, l)
	if err == nil || ctx.Err() != nil {
		return
	}

	fields := []zap.Field{zap.Error(err)}
	var failure *ApplyFailure
	if errors.As(err, &failure) {
		fields = append(fields,
			zap.String("game_id", failure.GameID.String()),
			zap.Strings("failed_actions", actionNames(it.redrive)))
	}

	next := it.attempt + 1
	if !isTransient(err) || uint(next) >= b.cfg.Requeue.Attempts() {
		l.Error("Giving up on account sync", fields...)
		return
	}

	delay := b.cfg.Requeue.Delay(next)
	it.attempt = next
	b.queue.requeue(it, delay)
	l.Warn("Account sync failed, requeued", append(fields, zap.Duration("delay", delay))...)
}

// process brings one account in line with its latest fact.
func (b *Bridge) process(ctx context.Context, it *item, l *zap.Logger) error {
	id := it.fact.PlatformID

	link, err := retry.Do(ctx, b.cfg.Retry, store.IsTransient, func(ctx context.Context) (*store.Link, error) {
		return b.store.FindByPlatform(ctx, id)
	})
	if err != nil {
		b.setState(id, StateSyncFailed)
		return fmt.Errorf("failed to resolve link: %w", err)
	}

	if it.fact.Kind == MemberLeft && link != nil {
		err := retry.Run(ctx, b.cfg.Retry, store.IsTransient, func(ctx context.Context) error {
			return b.store.RemoveLinkByPlatform(ctx, id)
		})
		if err != nil {
			b.setState(id, StateSyncFailed)
			return fmt.Errorf("failed to remove link: %w", err)
		}
		l.Info("Removed link of departed member", zap.String("game_id", link.GameID.String()))
		it.formerGameID = link.GameID
		link = nil
	}

	if it.formerGameID != uuid.Nil && (link == nil || link.GameID != it.formerGameID) {
		claimed, err := b.linkedNow(ctx, b.cfg.Retry, it.formerGameID)
		if err != nil {
			b.setState(id, StateSyncFailed)
			return err
		}
		if claimed {
			// the new owner's own sync decides what the game account keeps
			l.Info("Former game account is linked again, skipping cleanup",
				zap.String("game_id", it.formerGameID.String()))
			if it.redriveFor == it.formerGameID {
				it.redrive = nil
			}
		} else if err := b.sync(ctx, it, l, it.formerGameID, false); err != nil {
			return err
		}
		it.formerGameID = uuid.Nil
	}

	if link == nil {
		b.setState(id, StateUnlinked)
		return nil
	}
	return b.sync(ctx, it, l, link.GameID, true)
}

// sync plans and applies the changes for one game account. A pending
// redrive for that account replaces planning.
func (b *Bridge) sync(ctx context.Context, it *item, l *zap.Logger, gameID uuid.UUID, linked bool) error {
	id := it.fact.PlatformID
	done := StateUnlinked
	if linked {
		done = StateLinked
	}
	b.setState(id, StateSyncing)

	actions := it.redrive
	if len(actions) == 0 || it.redriveFor != gameID {
		plan, err := b.plan(ctx, it.fact.Roles, gameID, linked)
		if err != nil {
			b.setState(id, StateSyncFailed)
			return err
		}
		actions = plan.Actions
	}

	if len(actions) == 0 {
		it.redrive = nil
		b.setState(id, done)
		return nil
	}

	res, err := host.Call(ctx, b.host, func() (*ApplyResult, error) {
		if !linked {
			// A link made since planning wins over this cleanup.
			claimed, err := b.linkedNow(ctx, b.applyPolicy(), gameID)
			if err != nil || claimed {
				return nil, err
			}
		}
		return b.apply(ctx, gameID, actions), nil
	})
	if err != nil {
		b.setState(id, StateSyncFailed)
		return fmt.Errorf("failed to run apply step: %w", err)
	}
	if res == nil {
		it.redrive = nil
		b.setState(id, done)
		l.Info("Former game account is linked again, cleanup dropped",
			zap.String("game_id", gameID.String()))
		return nil
	}

	if len(res.Failed) > 0 {
		it.redrive = res.FailedActions()
		it.redriveFor = gameID
		b.setState(id, StateSyncFailed)
		return &ApplyFailure{PlatformID: id, GameID: gameID, Failed: res.Failed}
	}

	it.redrive = nil
	b.setState(id, done)
	l.Info("Account synced",
		zap.String("game_id", gameID.String()),
		zap.Strings("actions", actionNames(res.Applied)))
	return nil
}

func (b *Bridge) plan(ctx context.Context, roles []string, gameID uuid.UUID, linked bool) (*reconcile.Plan, error) {
	current, err := retry.Do(ctx, b.cfg.Retry, permission.IsTransient, func(ctx context.Context) (reconcile.Set, error) {
		return b.adapter.PlayerGroups(ctx, gameID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read groups of %s: %w", gameID, err)
	}

	whitelisted, err := host.Call(ctx, b.host, func() (bool, error) {
		return b.host.IsWhitelisted(gameID), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read whitelist: %w", err)
	}

	return reconcile.BuildPlan(reconcile.Input{
		Linked:          linked,
		Member:          linked,
		Roles:           roles,
		Mapping:         b.Mapping(),
		CurrentGroups:   current,
		Whitelisted:     whitelisted,
		ManageWhitelist: b.ManageWhitelist(),
	}), nil
}

// apply runs on the host executor. Every action is attempted even when an
// earlier one failed.
func (b *Bridge) apply(ctx context.Context, gameID uuid.UUID, actions []reconcile.Action) *ApplyResult {
	policy := b.applyPolicy()
	manage := b.ManageWhitelist()

	res := &ApplyResult{GameID: gameID}
	for _, a := range actions {
		var err error
		switch a.Type {
		case reconcile.ActionGrantGroup:
			err = retry.Run(ctx, policy, permission.IsTransient, func(ctx context.Context) error {
				return b.adapter.GrantGroup(ctx, gameID, a.Group)
			})
		case reconcile.ActionRevokeGroup:
			err = retry.Run(ctx, policy, permission.IsTransient, func(ctx context.Context) error {
				return b.adapter.RevokeGroup(ctx, gameID, a.Group)
			})
		case reconcile.ActionWhitelistAdd, reconcile.ActionWhitelistRemove:
			if !manage {
				// management was switched off after planning
				continue
			}
			err = b.host.SetWhitelisted(gameID, a.Type == reconcile.ActionWhitelistAdd)
		default:
			err = fmt.Errorf("unknown action %q", a.Type)
		}

		if err != nil {
			res.Failed = append(res.Failed, ActionError{Action: a, Err: err})
			continue
		}
		res.Applied = append(res.Applied, a)
	}
	return res
}

// applyPolicy is the retry policy for I/O made from the host thread.
func (b *Bridge) applyPolicy() retry.Policy {
	policy := b.cfg.Retry
	policy.MaxAttempts = applyAttempts
	return policy
}

// linkedNow reports whether any account holds a link to gameID.
func (b *Bridge) linkedNow(ctx context.Context, policy retry.Policy, gameID uuid.UUID) (bool, error) {
	owner, err := retry.Do(ctx, policy, store.IsTransient, func(ctx context.Context) (*store.Link, error) {
		return b.store.FindByGame(ctx, gameID)
	})
	if err != nil {
		return false, fmt.Errorf("failed to resolve link of %s: %w", gameID, err)
	}
	return owner != nil, nil
}

func isTransient(err error) bool {
	var failure *ApplyFailure
	if errors.As(err, &failure) {
		for _, f := range failure.Failed {
			if permission.IsTransient(f.Err) {
				return true
			}
		}
		return false
	}
	switch {
	case errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrInvalidLink), errors.Is(err, host.ErrStopped):
		return false
	case store.IsTransient(err):
		return true
	}
	return permission.IsTransient(err)
}
