package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxNotesLength bounds order notes and status history notes, in characters.
const MaxNotesLength = 1000

type OrderStatus string

const (
	StatusDraft     OrderStatus = "draft"
	StatusSubmitted OrderStatus = "submitted"
	StatusApproved  OrderStatus = "approved"
	StatusPacking   OrderStatus = "packing"
	StatusPacked    OrderStatus = "packed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusFulfilled OrderStatus = "fulfilled"
	StatusRejected  OrderStatus = "rejected"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusPacking, StatusPacked,
		StatusShipped, StatusDelivered, StatusFulfilled, StatusRejected:
		return true
	}
	return false
}

type LineStatus string

const (
	LinePending     LineStatus = "pending"
	LineFulfilled   LineStatus = "fulfilled"
	LineBackordered LineStatus = "backordered"
)

type Order struct {
	ID              string
	CustomerName    string
	ContactPerson   string
	Email           string
	ShippingAddress *string
	DeliveryDate    *time.Time
	Notes           string
	Status          OrderStatus
	SalespersonID   string
	ManagerID       *string
	WarehouseID     *string
	Items           []OrderItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

type OrderItem struct {
	ID         string
	OrderID    string
	ProductID  string
	Quantity   int
	UnitPrice  decimal.Decimal
	LineTotal  decimal.Decimal
	IsInStock  bool
	LineStatus LineStatus
}

// Details holds the customer-facing scalar fields of an order.
type Details struct {
	CustomerName    string
	ContactPerson   string
	Email           string
	ShippingAddress *string
	DeliveryDate    *time.Time
	Notes           string
}

// ItemRequest is a requested order line before validation.
type ItemRequest struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

func NewOrder(id, salespersonID string, details Details, items []OrderItem, now time.Time) Order {
	now = now.UTC()
	o := Order{
		ID:              id,
		CustomerName:    details.CustomerName,
		ContactPerson:   details.ContactPerson,
		Email:           details.Email,
		ShippingAddress: details.ShippingAddress,
		DeliveryDate:    details.DeliveryDate,
		Notes:           details.Notes,
		Status:          StatusDraft,
		SalespersonID:   salespersonID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	o.Items = make([]OrderItem, 0, len(items))
	for _, item := range items {
		item.OrderID = id
		o.Items = append(o.Items, item)
	}
	return o
}

// LineTotal is the only way line totals are computed.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal)
	}
	return total
}

func (o Order) IsDeleted() bool {
	return o.DeletedAt != nil
}

// TruncateNotes cuts notes to MaxNotesLength characters.
func TruncateNotes(notes string) string {
	runes := []rune(notes)
	if len(runes) <= MaxNotesLength {
		return notes
	}
	return string(runes[:MaxNotesLength])
}
