package platform

import (
	"context"
	"errors"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrUnknownMember is returned when no source knows the account.
var ErrUnknownMember = errors.New("platform member unknown")

// RoleSource answers which roles a chat account currently holds.
type RoleSource interface {
	// MemberRoles returns the role ids and whether the account is still a
	// member of the community.
	MemberRoles(ctx context.Context, platformID string) (roles []string, member bool, err error)
}

type snapshot struct {
	roles  []string
	member bool
}

// Directory remembers the last role state seen for each account and falls
// back to an upstream source for accounts it has never seen.
type Directory struct {
	mu       sync.RWMutex
	known    map[string]snapshot
	upstream RoleSource
	group    singleflight.Group
}

// NewDirectory creates a directory. upstream may be nil.
func NewDirectory(upstream RoleSource) *Directory {
	return &Directory{
		known:    make(map[string]snapshot),
		upstream: upstream,
	}
}

// Record stores the latest role state for an account.
func (d *Directory) Record(platformID string, roles []string, member bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.known[platformID] = snapshot{roles: normalize(roles), member: member}
}

// Forget drops what is known about an account.
func (d *Directory) Forget(platformID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.known, platformID)
}

func (d *Directory) MemberRoles(ctx context.Context, platformID string) ([]string, bool, error) {
	d.mu.RLock()
	snap, ok := d.known[platformID]
	d.mu.RUnlock()
	if ok {
		return append([]string(nil), snap.roles...), snap.member, nil
	}
	if d.upstream == nil {
		return nil, false, ErrUnknownMember
	}

	v, err, _ := d.group.Do(platformID, func() (any, error) {
		roles, member, err := d.upstream.MemberRoles(ctx, platformID)
		if err != nil {
			return nil, err
		}
		return snapshot{roles: normalize(roles), member: member}, nil
	})
	if err != nil {
		return nil, false, err
	}

	snap = v.(snapshot)
	d.mu.Lock()
	if _, raced := d.known[platformID]; !raced {
		d.known[platformID] = snap
	}
	d.mu.Unlock()
	return append([]string(nil), snap.roles...), snap.member, nil
}

func normalize(roles []string) []string {
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
