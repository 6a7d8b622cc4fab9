package reconcile

import (
	"sort"
	"strings"
)

// Fold returns the canonical form of a role or group name. Config keys and
// permission backends lowercase names, so every comparison uses this form.
func Fold(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Set is a set of group or role names.
type Set map[string]struct{}

// NewSet builds a set from the given items.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Has reports whether item is in the set.
func (s Set) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for item := range s {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

// Folded returns a copy with every member in canonical form.
func (s Set) Folded() Set {
	out := make(Set, len(s))
	for item := range s {
		if f := Fold(item); f != "" {
			out[f] = struct{}{}
		}
	}
	return out
}

// Intersect returns the members present in both sets.
func (s Set) Intersect(other Set) Set {
	out := make(Set)
	for item := range s {
		if other.Has(item) {
			out[item] = struct{}{}
		}
	}
	return out
}

// Mapping is the role to group table. One role may imply several groups,
// and several roles may imply the same group.
type Mapping map[string][]string

// Normalized returns a copy with role ids and group names folded. Roles
// that differ only in case are merged.
func (m Mapping) Normalized() Mapping {
	out := make(Mapping, len(m))
	for role, groups := range m {
		key := Fold(role)
		if key == "" {
			continue
		}
		seen := NewSet(out[key]...)
		for _, group := range groups {
			g := Fold(group)
			if g == "" || seen.Has(g) {
				continue
			}
			seen[g] = struct{}{}
			out[key] = append(out[key], g)
		}
		if _, ok := out[key]; !ok {
			out[key] = []string{}
		}
	}
	return out
}

// GroupsFor returns the union of groups implied by roles. Role ids and
// group names are matched without regard to case.
func (m Mapping) GroupsFor(roles []string) Set {
	held := make(Set, len(roles))
	for _, role := range roles {
		held[Fold(role)] = struct{}{}
	}

	out := make(Set)
	for role, groups := range m {
		if !held.Has(Fold(role)) {
			continue
		}
		for _, group := range groups {
			if g := Fold(group); g != "" {
				out[g] = struct{}{}
			}
		}
	}
	return out
}

// Managed returns every group the mapping can grant, folded. Groups outside
// this set are never touched by a sync.
func (m Mapping) Managed() Set {
	out := make(Set)
	for _, groups := range m {
		for _, group := range groups {
			if g := Fold(group); g != "" {
				out[g] = struct{}{}
			}
		}
	}
	return out
}

// Delta is the minimal change turning current into desired.
type Delta struct {
	ToGrant  []string `json:"to_grant"`
	ToRevoke []string `json:"to_revoke"`
}

// Empty reports whether the delta changes nothing.
func (d Delta) Empty() bool {
	return len(d.ToGrant) == 0 && len(d.ToRevoke) == 0
}

// ActionType represents the type of mutation action.
type ActionType string

const (
	// ActionGrantGroup adds the player to a permission group.
	ActionGrantGroup ActionType = "grant_group"
	// ActionRevokeGroup removes the player from a permission group.
	ActionRevokeGroup ActionType = "revoke_group"
	// ActionWhitelistAdd adds the player to the live whitelist.
	ActionWhitelistAdd ActionType = "whitelist_add"
	// ActionWhitelistRemove removes the player from the live whitelist.
	ActionWhitelistRemove ActionType = "whitelist_remove"
)

// Action represents a planned mutation for one game account.
type Action struct {
	// Type specifies the action to perform.
	Type ActionType `json:"type"`

	// Group is the permission group for grant/revoke actions.
	Group string `json:"group,omitempty"`
}

// String renders the action as "type" or "type:group" for logs.
func (a Action) String() string {
	if a.Group == "" {
		return string(a.Type)
	}
	return string(a.Type) + ":" + a.Group
}

// Input is everything the planner needs to know about one account.
type Input struct {
	// Linked is true when the account has an active identity link.
	Linked bool
	// Member is false once the platform account left the community.
	Member bool
	// Roles is the account's current role set on the platform.
	Roles []string
	// Mapping is the role to group table.
	Mapping Mapping
	// CurrentGroups is what the permission backend reports for the player.
	CurrentGroups Set
	// Whitelisted is the live whitelist state of the player.
	Whitelisted bool
	// ManageWhitelist enables whitelist actions.
	ManageWhitelist bool
}

// Plan contains the ordered actions for one account.
type Plan struct {
	// Delta is the group change the actions were derived from.
	Delta Delta `json:"delta"`

	// Actions contains planned mutation operations in apply order.
	Actions []Action `json:"actions"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate statistics for a plan.
type PlanSummary struct {
	Grants          int  `json:"grants"`
	Revokes         int  `json:"revokes"`
	WhitelistAdd    bool `json:"whitelist_add"`
	WhitelistRemove bool `json:"whitelist_remove"`
}
