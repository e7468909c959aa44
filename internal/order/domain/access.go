package domain

// Access guard predicates. They never touch storage and never mutate the order.

func CanView(actor Actor, o Order) bool {
	switch actor.Role {
	case RoleManager, RoleWarehouse:
		return true
	case RoleSalesperson:
		return o.SalespersonID == actor.ID
	}
	return false
}

func CanEdit(actor Actor, o Order) bool {
	switch actor.Role {
	case RoleSalesperson:
		return o.SalespersonID == actor.ID && o.Status == StatusDraft
	case RoleManager:
		return o.Status != StatusFulfilled
	}
	return false
}

func CanDelete(actor Actor, o Order) bool {
	switch actor.Role {
	case RoleSalesperson:
		return o.SalespersonID == actor.ID && o.Status == StatusDraft
	case RoleManager:
		return o.Status != StatusFulfilled
	}
	return false
}

// CanTransition checks the role column of the transition table and, for
// owner-only edges, that the actor is the order's salesperson. It does not
// check the order's current status.
func CanTransition(actor Actor, o Order, action Action) bool {
	t, ok := TransitionFor(action)
	if !ok {
		return false
	}
	if actor.Role != t.Role {
		return false
	}
	if t.OwnerOnly && o.SalespersonID != actor.ID {
		return false
	}
	return true
}

// mayMutate reports whether the actor's role and ownership could ever allow an
// edit or delete of o, regardless of its status. It separates permission
// failures from state failures.
func mayMutate(actor Actor, o Order) bool {
	switch actor.Role {
	case RoleSalesperson:
		return o.SalespersonID == actor.ID
	case RoleManager:
		return true
	}
	return false
}

// CheckEdit returns nil when actor may edit o, ErrPermissionDenied when the
// role or ownership forbids it, or an IllegalTransitionError when the order's
// status does not allow edits.
func CheckEdit(actor Actor, o Order) error {
	if CanEdit(actor, o) {
		return nil
	}
	if !mayMutate(actor, o) {
		return ErrPermissionDenied
	}
	return &IllegalTransitionError{From: o.Status, Action: "edit"}
}

// CheckDelete mirrors CheckEdit for soft deletion.
func CheckDelete(actor Actor, o Order) error {
	if CanDelete(actor, o) {
		return nil
	}
	if !mayMutate(actor, o) {
		return ErrPermissionDenied
	}
	return &IllegalTransitionError{From: o.Status, Action: "delete"}
}
