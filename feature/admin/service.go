package admin

import (
	"context"
	"errors"
	"sync"

	"role-sync/core/lang"
	"role-sync/core/store"
	"role-sync/feature/rolesync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrReloadUnsupported is returned when no reload hook was configured.
var ErrReloadUnsupported = errors.New("reload is not supported")

// ReloadFunc re-reads configuration, applies it and returns the new messages.
type ReloadFunc func(ctx context.Context) (*lang.Bundle, error)

// Service handles administrative operations.
type Service struct {
	bridge *rolesync.Bridge
	logger *zap.Logger
	reload ReloadFunc

	mu       sync.RWMutex
	messages *lang.Bundle
}

// NewService creates a new admin service. reload may be nil.
func NewService(bridge *rolesync.Bridge, messages *lang.Bundle, reload ReloadFunc, logger *zap.Logger) *Service {
	return &Service{
		bridge:   bridge,
		logger:   logger,
		reload:   reload,
		messages: messages,
	}
}

// Messages returns the active message bundle.
func (s *Service) Messages() *lang.Bundle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.messages
}

// Status summarizes the running engine.
type Status struct {
	Enabled         bool   `json:"enabled"`
	Backend         string `json:"backend"`
	ManageWhitelist bool   `json:"manage_whitelist"`
	Language        string `json:"language"`
}

// Status returns the engine status.
func (s *Service) Status() Status {
	return Status{
		Enabled:         s.bridge.Enabled(),
		Backend:         s.bridge.Backend(),
		ManageWhitelist: s.bridge.ManageWhitelist(),
		Language:        s.Messages().Language(),
	}
}

// ResetWhitelist rebuilds the whitelist from the stored links.
func (s *Service) ResetWhitelist(ctx context.Context) (*rolesync.ResetResult, error) {
	return s.bridge.ResetWhitelist(ctx)
}

// SetManageWhitelist enables or disables whitelist management.
func (s *Service) SetManageWhitelist(ctx context.Context, enabled bool) error {
	return s.bridge.SetManageWhitelist(ctx, enabled)
}

// Resync queues a full sync for a game uuid or platform id.
func (s *Service) Resync(ctx context.Context, id string) (*store.Link, error) {
	return s.bridge.ManualResync(ctx, id)
}

// Link links two accounts and queues their first sync.
func (s *Service) Link(ctx context.Context, platformID string, gameID uuid.UUID, relink bool) (*store.Link, error) {
	return s.bridge.Link(ctx, platformID, gameID, relink)
}

// Unlink removes a link by game uuid or platform id.
func (s *Service) Unlink(ctx context.Context, id string) (*store.Link, error) {
	return s.bridge.Unlink(ctx, id)
}

// FindLink returns the link for a game uuid or platform id, or nil.
func (s *Service) FindLink(ctx context.Context, id string) (*store.Link, error) {
	return s.bridge.Resolve(ctx, id)
}

// Account describes a platform account.
func (s *Service) Account(ctx context.Context, platformID string) (*rolesync.Account, error) {
	return s.bridge.Account(ctx, platformID)
}

// Reload re-reads configuration and swaps the message bundle.
func (s *Service) Reload(ctx context.Context) error {
	if s.reload == nil {
		return ErrReloadUnsupported
	}
	bundle, err := s.reload(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.messages = bundle
	s.mu.Unlock()
	s.logger.Info("Configuration reloaded", zap.String("language", bundle.Language()))
	return nil
}
