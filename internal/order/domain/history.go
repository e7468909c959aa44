package domain

import "time"

// StatusHistory is one append-only audit record of a status change.
type StatusHistory struct {
	ID             string
	OrderID        string
	PreviousStatus OrderStatus
	NewStatus      OrderStatus
	ChangedBy      string
	ChangedAt      time.Time
	Notes          *string
}

func NewStatusHistory(id, orderID string, from, to OrderStatus, actorID string, notes string, at time.Time) StatusHistory {
	h := StatusHistory{
		ID:             id,
		OrderID:        orderID,
		PreviousStatus: from,
		NewStatus:      to,
		ChangedBy:      actorID,
		ChangedAt:      at.UTC(),
	}
	if notes != "" {
		truncated := TruncateNotes(notes)
		h.Notes = &truncated
	}
	return h
}
