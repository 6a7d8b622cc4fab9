package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrConflict matches every *ConflictError.
	ErrConflict = errors.New("link conflict")
	// ErrTransient matches every *TransientError.
	ErrTransient = errors.New("transient store failure")
	// ErrInvalidLink is returned for empty platform ids or nil game ids.
	ErrInvalidLink = errors.New("invalid link")
)

// ConflictError reports that one side of a requested link is already
// linked to someone else. It is never resolved by the store.
type ConflictError struct {
	PlatformID string
	GameID     uuid.UUID

	// ExistingGameID is set when PlatformID is already linked to another game account.
	ExistingGameID uuid.UUID
	// ExistingPlatformID is set when GameID is already linked to another platform account.
	ExistingPlatformID string
}

func (e *ConflictError) Error() string {
	if e.ExistingGameID != uuid.Nil {
		return fmt.Sprintf("platform account %s is already linked to game account %s", e.PlatformID, e.ExistingGameID)
	}
	return fmt.Sprintf("game account %s is already linked to platform account %s", e.GameID, e.ExistingPlatformID)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// TransientError wraps an I/O failure that may succeed on retry.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func (e *TransientError) Is(target error) bool {
	return target == ErrTransient
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

func transient(op string, err error) error {
	if err == nil {
		return nil
	}
	var conflict *ConflictError
	if errors.As(err, &conflict) || errors.Is(err, ErrInvalidLink) || errors.Is(err, ErrTransient) {
		return err
	}
	return &TransientError{Op: op, Err: err}
}
