// Package memory is an in-process permission backend.
//
// It keeps group membership in a map and is meant for standalone runs and
// tests. It is only detected when explicitly enabled.
package memory

import (
	"context"
	"sync"

	"role-sync/core/reconcile"

	"github.com/google/uuid"
)

// Name is the registry name of this adapter.
const Name = "memory"

// Adapter stores group membership in memory. Group names are stored
// lowercased, matching how LuckPerms keys its group nodes.
type Adapter struct {
	enabled bool

	mu     sync.RWMutex
	groups map[uuid.UUID]reconcile.Set
}

// New creates a memory backend. A disabled backend is never detected.
func New(enabled bool) *Adapter {
	return &Adapter{
		enabled: enabled,
		groups:  make(map[uuid.UUID]reconcile.Set),
	}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) Detect(ctx context.Context) bool {
	return a.enabled
}

func (a *Adapter) GrantGroup(ctx context.Context, gameID uuid.UUID, group string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	set, ok := a.groups[gameID]
	if !ok {
		set = make(reconcile.Set)
		a.groups[gameID] = set
	}
	set[reconcile.Fold(group)] = struct{}{}
	return nil
}

func (a *Adapter) RevokeGroup(ctx context.Context, gameID uuid.UUID, group string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.groups[gameID], reconcile.Fold(group))
	return nil
}

func (a *Adapter) PlayerGroups(ctx context.Context, gameID uuid.UUID) (reconcile.Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(reconcile.Set, len(a.groups[gameID]))
	for group := range a.groups[gameID] {
		out[group] = struct{}{}
	}
	return out, nil
}
