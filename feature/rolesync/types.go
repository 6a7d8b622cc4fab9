package rolesync

import (
	"errors"
	"fmt"
	"strings"

	"role-sync/core/reconcile"

	"github.com/google/uuid"
)

var (
	// ErrFeatureDisabled is returned when an operation needs something that
	// is switched off or missing, such as whitelist management or a backend.
	ErrFeatureDisabled = errors.New("feature disabled")
	// ErrStopped is returned by Deliver once the bridge has shut down.
	ErrStopped = errors.New("bridge stopped")
	// ErrNotLinked is returned when an admin operation targets an account without a link.
	ErrNotLinked = errors.New("account is not linked")
	// ErrInvalidFact is returned for facts that cannot be processed.
	ErrInvalidFact = errors.New("invalid fact")
)

// EventKind classifies a role fact.
type EventKind string

const (
	MemberJoined EventKind = "member_joined"
	RolesChanged EventKind = "roles_changed"
	// MemberLeft removes the account's link and everything it was granted.
	MemberLeft EventKind = "member_left"
)

// Fact is one role notification from the chat platform.
type Fact struct {
	PlatformID string    `json:"platform_id"`
	Roles      []string  `json:"roles"`
	Kind       EventKind `json:"kind"`
}

// Validate checks that the fact names an account and a known kind.
func (f Fact) Validate() error {
	if strings.TrimSpace(f.PlatformID) == "" {
		return fmt.Errorf("%w: platform id is required", ErrInvalidFact)
	}
	switch f.Kind {
	case MemberJoined, RolesChanged, MemberLeft:
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidFact, f.Kind)
	}
}

// State is where an account sits in the sync lifecycle.
type State string

const (
	StateUnlinked   State = "unlinked"
	StateLinked     State = "linked"
	StateSyncing    State = "syncing"
	StateSyncFailed State = "sync_failed"
)

// ActionError is one mutation that did not go through.
type ActionError struct {
	Action reconcile.Action
	Err    error
}

// ApplyResult records what an apply step did.
type ApplyResult struct {
	GameID  uuid.UUID          `json:"game_id"`
	Applied []reconcile.Action `json:"applied"`
	Failed  []ActionError      `json:"-"`
}

// FailedActions returns the actions that need a redrive.
func (r *ApplyResult) FailedActions() []reconcile.Action {
	out := make([]reconcile.Action, 0, len(r.Failed))
	for _, f := range r.Failed {
		out = append(out, f.Action)
	}
	return out
}

// ApplyFailure is returned when an apply step left actions undone.
type ApplyFailure struct {
	PlatformID string
	GameID     uuid.UUID
	Failed     []ActionError
}

func (e *ApplyFailure) Error() string {
	parts := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		parts = append(parts, fmt.Sprintf("%s (%v)", f.Action, f.Err))
	}
	return fmt.Sprintf("apply for %s/%s failed: %s", e.PlatformID, e.GameID, strings.Join(parts, ", "))
}

// Unwrap exposes every underlying action error.
func (e *ApplyFailure) Unwrap() []error {
	out := make([]error, 0, len(e.Failed))
	for _, f := range e.Failed {
		out = append(out, f.Err)
	}
	return out
}

func actionNames(actions []reconcile.Action) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.String())
	}
	return out
}
