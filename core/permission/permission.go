package permission

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"role-sync/core/reconcile"

	"github.com/google/uuid"
)

// ErrBackendMissing is returned by Select when no registered backend is present.
var ErrBackendMissing = errors.New("no permission backend detected")

// Adapter translates abstract group operations into one permission system's API.
type Adapter interface {
	// Name returns the unique name of this adapter (e.g., "luckperms").
	Name() string
	// Detect reports whether the backend is installed and reachable.
	Detect(ctx context.Context) bool
	// GrantGroup adds the player to group.
	GrantGroup(ctx context.Context, gameID uuid.UUID, group string) error
	// RevokeGroup removes the player from group.
	RevokeGroup(ctx context.Context, gameID uuid.UUID, group string) error
	// PlayerGroups returns every group the player currently belongs to.
	PlayerGroups(ctx context.Context, gameID uuid.UUID) (reconcile.Set, error)
}

// StatusError is a non-success response from a remote backend.
type StatusError struct {
	Backend string
	Status  int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded %d: %s", e.Backend, e.Status, e.Body)
}

// IsTransient reports whether a backend failure is worth retrying. Client
// errors other than 429 are permanent; everything else is retried.
func IsTransient(err error) bool {
	var status *StatusError
	if errors.As(err, &status) {
		return status.Status == http.StatusTooManyRequests || status.Status >= 500
	}
	return !errors.Is(err, context.Canceled)
}

// Registry holds every adapter the binary knows about.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter. Names must be unique.
func (r *Registry) Register(a Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[a.Name()]; exists {
		return fmt.Errorf("permission adapter %q already registered", a.Name())
	}
	r.adapters[a.Name()] = a
	return nil
}

// Names returns the registered adapter names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// probeOrder lists adapters in priority order, then the rest by name.
// Unknown names in priority are skipped.
func (r *Registry) probeOrder(priority []string) []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var order []Adapter
	for _, name := range priority {
		if a, ok := r.adapters[name]; ok && !seen[name] {
			order = append(order, a)
			seen[name] = true
		}
	}

	rest := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		order = append(order, r.adapters[name])
	}
	return order
}

// Select probes adapters in deterministic order and binds the first one
// detected. The result enforces callTimeout on every call.
func (r *Registry) Select(ctx context.Context, priority []string, callTimeout time.Duration) (Adapter, error) {
	for _, a := range r.probeOrder(priority) {
		probeCtx, cancel := context.WithTimeout(ctx, callTimeout)
		found := a.Detect(probeCtx)
		cancel()
		if found {
			return Bounded(a, callTimeout), nil
		}
	}
	return nil, ErrBackendMissing
}

// Bounded wraps an adapter so that no call can outlive timeout.
func Bounded(a Adapter, timeout time.Duration) Adapter {
	if timeout <= 0 {
		return a
	}
	if b, ok := a.(*bounded); ok {
		a = b.Adapter
	}
	return &bounded{Adapter: a, timeout: timeout}
}

type bounded struct {
	Adapter
	timeout time.Duration
}

func (b *bounded) Detect(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.Adapter.Detect(ctx)
}

func (b *bounded) GrantGroup(ctx context.Context, gameID uuid.UUID, group string) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.Adapter.GrantGroup(ctx, gameID, group)
}

func (b *bounded) RevokeGroup(ctx context.Context, gameID uuid.UUID, group string) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.Adapter.RevokeGroup(ctx, gameID, group)
}

func (b *bounded) PlayerGroups(ctx context.Context, gameID uuid.UUID) (reconcile.Set, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.Adapter.PlayerGroups(ctx, gameID)
}
