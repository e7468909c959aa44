package domain

import "time"

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status.changed"
)

type OrderCreated struct {
	OrderID       string `json:"order_id"`
	SalespersonID string `json:"salesperson_id"`
	CustomerName  string `json:"customer_name"`
	Total         string `json:"total"`
	ItemCount     int    `json:"item_count"`
}

type OrderStatusChanged struct {
	OrderID        string      `json:"order_id"`
	PreviousStatus OrderStatus `json:"previous_status"`
	NewStatus      OrderStatus `json:"new_status"`
	ChangedBy      string      `json:"changed_by"`
	ChangedAt      time.Time   `json:"changed_at"`
	Notes          string      `json:"notes,omitempty"`
}
