package domain

type Role string

const (
	RoleSalesperson Role = "salesperson"
	RoleManager     Role = "manager"
	RoleWarehouse   Role = "warehouse"
)

func (r Role) Valid() bool {
	return r == RoleSalesperson || r == RoleManager || r == RoleWarehouse
}

// Actor is an already-authenticated caller.
type Actor struct {
	ID   string
	Role Role
}

type Action string

const (
	ActionSubmit        Action = "submit"
	ActionApprove       Action = "approve"
	ActionReject        Action = "reject"
	ActionStartPacking  Action = "start_packing"
	ActionMarkPacked    Action = "mark_packed"
	ActionMarkShipped   Action = "mark_shipped"
	ActionMarkDelivered Action = "mark_delivered"
	ActionFulfill       Action = "fulfill"
	ActionReopen        Action = "reopen"
)

// Transition is one edge of the order state machine.
type Transition struct {
	Action Action
	From   OrderStatus
	To     OrderStatus
	Role   Role
	// OwnerOnly restricts the edge to the order's own salesperson.
	OwnerOnly bool
	// StockGate re-validates every item against current stock before the edge is taken.
	StockGate bool
	// ConsumesStock decrements product stock for in-stock items. Only the
	// approved -> fulfilled edge consumes stock.
	ConsumesStock bool
}

var transitions = map[Action]Transition{
	ActionSubmit:        {Action: ActionSubmit, From: StatusDraft, To: StatusSubmitted, Role: RoleSalesperson, OwnerOnly: true, StockGate: true},
	ActionApprove:       {Action: ActionApprove, From: StatusSubmitted, To: StatusApproved, Role: RoleManager, StockGate: true},
	ActionReject:        {Action: ActionReject, From: StatusSubmitted, To: StatusRejected, Role: RoleManager},
	ActionStartPacking:  {Action: ActionStartPacking, From: StatusApproved, To: StatusPacking, Role: RoleWarehouse},
	ActionMarkPacked:    {Action: ActionMarkPacked, From: StatusPacking, To: StatusPacked, Role: RoleWarehouse},
	ActionMarkShipped:   {Action: ActionMarkShipped, From: StatusPacked, To: StatusShipped, Role: RoleWarehouse},
	ActionMarkDelivered: {Action: ActionMarkDelivered, From: StatusShipped, To: StatusDelivered, Role: RoleWarehouse},
	ActionFulfill:       {Action: ActionFulfill, From: StatusApproved, To: StatusFulfilled, Role: RoleWarehouse, ConsumesStock: true},
	ActionReopen:        {Action: ActionReopen, From: StatusRejected, To: StatusDraft, Role: RoleSalesperson, OwnerOnly: true},
}

// TransitionFor returns the edge driven by action.
func TransitionFor(action Action) (Transition, bool) {
	t, ok := transitions[action]
	return t, ok
}

// canMove reports whether from -> to is an edge of the state machine.
func canMove(from, to OrderStatus) bool {
	for _, t := range transitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}

// orderedTransitions lists every edge in workflow order.
func orderedTransitions() []Transition {
	out := make([]Transition, 0, len(transitions))
	for _, action := range []Action{
		ActionSubmit, ActionApprove, ActionReject, ActionStartPacking, ActionMarkPacked,
		ActionMarkShipped, ActionMarkDelivered, ActionFulfill, ActionReopen,
	} {
		out = append(out, transitions[action])
	}
	return out
}

// SetsManager reports whether taking t records the actor as the order's manager.
func (t Transition) SetsManager() bool {
	return t.Role == RoleManager
}

// SetsWarehouse reports whether taking t records the actor as the order's warehouse handler.
func (t Transition) SetsWarehouse() bool {
	return t.Role == RoleWarehouse
}
