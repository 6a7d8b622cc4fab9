package reconcile

// Reconcile computes the minimal group change from current to desired:
// ToGrant = desired - current and ToRevoke = current - desired.
// Both slices are sorted and never share a member.
func Reconcile(current, desired Set) Delta {
	delta := Delta{
		ToGrant:  []string{},
		ToRevoke: []string{},
	}

	grant := make(Set)
	for group := range desired {
		if !current.Has(group) {
			grant[group] = struct{}{}
		}
	}

	revoke := make(Set)
	for group := range current {
		if !desired.Has(group) {
			revoke[group] = struct{}{}
		}
	}

	delta.ToGrant = append(delta.ToGrant, grant.Sorted()...)
	delta.ToRevoke = append(delta.ToRevoke, revoke.Sorted()...)
	return delta
}

// DesiredGroups maps roles through the mapping. An unlinked account wants
// nothing regardless of its roles.
func DesiredGroups(linked bool, roles []string, m Mapping) Set {
	if !linked {
		return make(Set)
	}
	return m.GroupsFor(roles)
}

// DesiredWhitelisted reports whether the account should be on the whitelist.
func DesiredWhitelisted(linked bool) bool {
	return linked
}
