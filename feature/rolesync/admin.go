package rolesync

import (
	"context"
	"errors"
	"fmt"

	"role-sync/core/host"
	"role-sync/core/logger"
	"role-sync/core/permission"
	"role-sync/core/platform"
	"role-sync/core/retry"
	"role-sync/core/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResetResult reports what a whitelist reset changed.
type ResetResult struct {
	Cleared int `json:"cleared"`
	Added   int `json:"added"`
}

// ResetWhitelist rebuilds the live whitelist from the stored links. It runs
// as a single task on the host executor, so no sync can interleave.
func (b *Bridge) ResetWhitelist(ctx context.Context) (*ResetResult, error) {
	if !b.ManageWhitelist() {
		return nil, fmt.Errorf("%w: whitelist management is off", ErrFeatureDisabled)
	}

	res, err := host.Call(ctx, b.host, func() (*ResetResult, error) {
		if !b.ManageWhitelist() {
			return nil, fmt.Errorf("%w: whitelist management is off", ErrFeatureDisabled)
		}

		// Read everything before touching the whitelist so a store failure
		// leaves it as it was.
		linked, err := retry.Do(ctx, b.applyPolicy(), store.IsTransient, func(ctx context.Context) ([]uuid.UUID, error) {
			var ids []uuid.UUID
			for link, err := range b.store.ListAll(ctx) {
				if err != nil {
					return nil, err
				}
				ids = append(ids, link.GameID)
			}
			return ids, nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list links: %w", err)
		}

		res := &ResetResult{}
		for _, id := range b.host.Whitelisted() {
			if err := b.host.SetWhitelisted(id, false); err != nil {
				return res, err
			}
			res.Cleared++
		}
		for _, id := range linked {
			if err := b.host.SetWhitelisted(id, true); err != nil {
				return res, err
			}
			res.Added++
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}

	b.logger.Info("Whitelist reset", zap.Int("cleared", res.Cleared), zap.Int("added", res.Added))
	return res, nil
}

// SetManageWhitelist switches whitelist management. The flag flips on the
// host executor so it never changes in the middle of an apply step.
func (b *Bridge) SetManageWhitelist(ctx context.Context, manage bool) error {
	_, err := host.Call(ctx, b.host, func() (struct{}, error) {
		b.manageWhitelist.Store(manage)
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}

	if b.persist != nil {
		if err := b.persist(manage); err != nil {
			return fmt.Errorf("failed to save whitelist setting: %w", err)
		}
	}
	b.logger.Info("Whitelist management changed", zap.Bool("manage_whitelist", manage))
	return nil
}

// Reload applies a re-read configuration: the role mapping and the
// whitelist switch. Nothing is written back. Worker counts and retry
// budgets keep their startup values.
func (b *Bridge) Reload(ctx context.Context, cfg Config) error {
	_, err := host.Call(ctx, b.host, func() (struct{}, error) {
		b.SetMapping(cfg.Roles)
		b.manageWhitelist.Store(cfg.ManageWhitelist)
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}
	b.logger.Info("Sync configuration reloaded",
		zap.Int("mapped_roles", len(cfg.Roles)),
		zap.Bool("manage_whitelist", cfg.ManageWhitelist))
	return nil
}

// ManualResync queues a full sync for an account named by game uuid or
// platform id, using the last known roles.
func (b *Bridge) ManualResync(ctx context.Context, id string) (*store.Link, error) {
	link, err := b.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotLinked, id)
	}
	if err := b.enqueueResync(ctx, link.PlatformID, uuid.Nil); err != nil {
		return nil, err
	}
	return link, nil
}

// Link stores a link and queues a sync for it. With relink set, existing
// links of either account are removed first and the old game account is
// cleaned up; otherwise they produce a store conflict.
func (b *Bridge) Link(ctx context.Context, platformID string, gameID uuid.UUID, relink bool) (*store.Link, error) {
	var former uuid.UUID
	if relink {
		prev, err := b.store.FindByPlatform(ctx, platformID)
		if err != nil {
			return nil, err
		}
		if prev != nil && prev.GameID != gameID {
			if err := b.store.RemoveLinkByPlatform(ctx, platformID); err != nil {
				return nil, err
			}
			former = prev.GameID
		}

		other, err := b.store.FindByGame(ctx, gameID)
		if err != nil {
			return nil, err
		}
		if other != nil && other.PlatformID != platformID {
			if err := b.store.RemoveLinkByGame(ctx, gameID); err != nil {
				return nil, err
			}
			b.setState(other.PlatformID, StateUnlinked)
		}
	}

	link, err := b.store.UpsertLink(ctx, platformID, gameID)
	if err != nil {
		return nil, err
	}
	b.setState(platformID, StateLinked)
	logger.WithAccount(b.logger, platformID, gameID.String()).Info("Account linked")

	if err := b.enqueueResync(ctx, platformID, former); err != nil {
		b.logger.Warn("Linked account was not queued for sync",
			zap.String("platform_id", platformID), zap.Error(err))
	}
	return link, nil
}

// Unlink removes an account's link and queues the revocation of everything
// the engine granted to its game account.
func (b *Bridge) Unlink(ctx context.Context, id string) (*store.Link, error) {
	link, err := b.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotLinked, id)
	}

	if err := b.store.RemoveLinkByPlatform(ctx, link.PlatformID); err != nil {
		return nil, err
	}
	b.setState(link.PlatformID, StateUnlinked)
	logger.WithAccount(b.logger, link.PlatformID, link.GameID.String()).Info("Account unlinked")

	if b.adapter != nil {
		b.queue.push(&item{
			fact:         Fact{PlatformID: link.PlatformID, Kind: RolesChanged},
			formerGameID: link.GameID,
		})
	}
	return link, nil
}

// Resolve finds a link by game uuid or, failing to parse one, by platform id.
func (b *Bridge) Resolve(ctx context.Context, id string) (*store.Link, error) {
	return retry.Do(ctx, b.cfg.Retry, store.IsTransient, func(ctx context.Context) (*store.Link, error) {
		if gameID, err := uuid.Parse(id); err == nil {
			return b.store.FindByGame(ctx, gameID)
		}
		return b.store.FindByPlatform(ctx, id)
	})
}

// Account is the admin view of one platform account.
type Account struct {
	PlatformID  string      `json:"platform_id"`
	Link        *store.Link `json:"link,omitempty"`
	State       State       `json:"state"`
	Roles       []string    `json:"roles"`
	Whitelisted bool        `json:"whitelisted"`
}

// Account describes what the engine knows about a platform account.
func (b *Bridge) Account(ctx context.Context, platformID string) (*Account, error) {
	link, err := b.store.FindByPlatform(ctx, platformID)
	if err != nil {
		return nil, err
	}

	acc := &Account{PlatformID: platformID, Link: link, State: b.State(platformID), Roles: []string{}}
	if roles, _, err := b.directory.MemberRoles(ctx, platformID); err == nil {
		acc.Roles = roles
	}
	if link != nil {
		acc.Whitelisted, err = host.Call(ctx, b.host, func() (bool, error) {
			return b.host.IsWhitelisted(link.GameID), nil
		})
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// enqueueResync queues a sync built from the last known roles. Accounts
// whose roles were never observed sync with no roles.
func (b *Bridge) enqueueResync(ctx context.Context, platformID string, former uuid.UUID) error {
	if b.adapter == nil {
		return fmt.Errorf("%w: %w", ErrFeatureDisabled, permission.ErrBackendMissing)
	}

	roles, member, err := b.directory.MemberRoles(ctx, platformID)
	switch {
	case errors.Is(err, platform.ErrUnknownMember):
		roles, member = nil, true
	case err != nil:
		return fmt.Errorf("failed to fetch roles: %w", err)
	}

	kind := RolesChanged
	if !member {
		kind = MemberLeft
	}
	if !b.queue.push(&item{fact: Fact{PlatformID: platformID, Roles: roles, Kind: kind}, formerGameID: former}) {
		return ErrStopped
	}
	return nil
}
