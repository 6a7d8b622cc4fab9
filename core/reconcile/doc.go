// Package reconcile computes authorization deltas for linked accounts.
//
// Everything here is pure: the package holds no state between calls and
// never talks to a store, a permission backend or the game host. Callers
// gather the facts, ask for a Plan, and apply it themselves.
//
// # Algebra
//
// Reconcile(current, desired) returns ToGrant = desired - current and
// ToRevoke = current - desired. Applying it always yields desired:
//
//	current ∪ ToGrant − ToRevoke == desired
//
// # Desired State
//
// Desired groups are the union of the mapped groups of every role the
// account holds. An account without an active link (or that left the
// community) wants no managed groups and is not whitelisted.
//
// Group rank conflicts are left to the permission backend; the planner only
// computes set membership.
//
// # Usage Example
//
//	plan := reconcile.BuildPlan(reconcile.Input{
//	    Linked:          true,
//	    Member:          true,
//	    Roles:           []string{"123", "456"},
//	    Mapping:         cfg.Sync.Roles,
//	    CurrentGroups:   current,
//	    Whitelisted:     whitelist.IsWhitelisted(gameID),
//	    ManageWhitelist: true,
//	})
//	for _, action := range plan.Actions { ... }
package reconcile
