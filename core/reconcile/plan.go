package reconcile

// BuildPlan computes the actions that bring one account in line with its
// roles. It is pure: it reads only the input and never touches a backend.
//
// Only groups named by the mapping are considered, so groups handed out by
// other means survive a sync. Group names are compared folded. Apply order is whitelist removal, revokes,
// grants, whitelist addition.
func BuildPlan(in Input) *Plan {
	linked := in.Linked && in.Member

	managed := in.Mapping.Managed()
	current := in.CurrentGroups.Folded().Intersect(managed)
	desired := DesiredGroups(linked, in.Roles, in.Mapping)

	delta := Reconcile(current, desired)
	plan := &Plan{
		Delta:   delta,
		Actions: make([]Action, 0, len(delta.ToGrant)+len(delta.ToRevoke)+1),
	}

	wantWhitelisted := DesiredWhitelisted(linked)
	if in.ManageWhitelist && !wantWhitelisted && in.Whitelisted {
		plan.Actions = append(plan.Actions, Action{Type: ActionWhitelistRemove})
		plan.Summary.WhitelistRemove = true
	}

	for _, group := range delta.ToRevoke {
		plan.Actions = append(plan.Actions, Action{Type: ActionRevokeGroup, Group: group})
		plan.Summary.Revokes++
	}
	for _, group := range delta.ToGrant {
		plan.Actions = append(plan.Actions, Action{Type: ActionGrantGroup, Group: group})
		plan.Summary.Grants++
	}

	if in.ManageWhitelist && wantWhitelisted && !in.Whitelisted {
		plan.Actions = append(plan.Actions, Action{Type: ActionWhitelistAdd})
		plan.Summary.WhitelistAdd = true
	}

	return plan
}

// Empty reports whether the plan has nothing to apply.
func (p *Plan) Empty() bool {
	return p == nil || len(p.Actions) == 0
}
