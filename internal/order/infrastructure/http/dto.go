package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmehra2102/Sales-Order-Management/internal/order/application"
	"github.com/dmehra2102/Sales-Order-Management/internal/order/domain"
)

type itemReq struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type createOrderReq struct {
	CustomerName    string    `json:"customer_name" validate:"required"`
	ContactPerson   string    `json:"contact_person" validate:"required"`
	Email           string    `json:"email" validate:"required,email"`
	ShippingAddress *string   `json:"shipping_address"`
	DeliveryDate    *string   `json:"delivery_date"`
	Notes           string    `json:"notes" validate:"max=1000"`
	Items           []itemReq `json:"items" validate:"required,min=1,dive"`
}

type updateOrderReq struct {
	CustomerName    *string    `json:"customer_name" validate:"omitempty,min=1"`
	ContactPerson   *string    `json:"contact_person" validate:"omitempty,min=1"`
	Email           *string    `json:"email" validate:"omitempty,email"`
	ShippingAddress *string    `json:"shipping_address"`
	DeliveryDate    *string    `json:"delivery_date"`
	Notes           *string    `json:"notes" validate:"omitempty,max=1000"`
	Items           *[]itemReq `json:"items" validate:"omitempty,min=1,dive"`
}

type transitionReq struct {
	Notes string `json:"notes"`
}

type restockReq struct {
	Amount int `json:"amount" validate:"gt=0"`
}

type itemResp struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	LineTotal  string `json:"line_total"`
	IsInStock  bool   `json:"is_in_stock"`
	LineStatus string `json:"line_status"`
}

type orderResp struct {
	ID              string     `json:"id"`
	CustomerName    string     `json:"customer_name"`
	ContactPerson   string     `json:"contact_person"`
	Email           string     `json:"email"`
	ShippingAddress *string    `json:"shipping_address,omitempty"`
	DeliveryDate    *string    `json:"delivery_date,omitempty"`
	Notes           string     `json:"notes"`
	Status          string     `json:"status"`
	SalespersonID   string     `json:"salesperson_id"`
	ManagerID       *string    `json:"manager_id,omitempty"`
	WarehouseID     *string    `json:"warehouse_id,omitempty"`
	Total           string     `json:"total"`
	Items           []itemResp `json:"items"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type historyResp struct {
	ID             string    `json:"id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	ChangedBy      string    `json:"changed_by"`
	ChangedAt      time.Time `json:"changed_at"`
	Notes          *string   `json:"notes,omitempty"`
}

type stockResp struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

const dateLayout = "2006-01-02"

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	if t, err := time.Parse(dateLayout, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("%w: delivery_date %q is not a date", domain.ErrInvalidInput, v)
	}
	// delivery_date is a calendar date; keep the day as written by the caller
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &day, nil
}

func toItemRequests(in []itemReq) []domain.ItemRequest {
	out := make([]domain.ItemRequest, 0, len(in))
	for _, it := range in {
		out = append(out, domain.ItemRequest{ProductID: strings.TrimSpace(it.ProductID), Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	return out
}

func (r createOrderReq) command(actor domain.Actor) (application.CreateOrderCommand, error) {
	date, err := parseDate(r.DeliveryDate)
	if err != nil {
		return application.CreateOrderCommand{}, err
	}
	var addr *string
	if r.ShippingAddress != nil && strings.TrimSpace(*r.ShippingAddress) != "" {
		a := strings.TrimSpace(*r.ShippingAddress)
		addr = &a
	}
	return application.CreateOrderCommand{
		Actor: actor,
		Details: domain.Details{
			CustomerName:    strings.TrimSpace(r.CustomerName),
			ContactPerson:   strings.TrimSpace(r.ContactPerson),
			Email:           strings.TrimSpace(r.Email),
			ShippingAddress: addr,
			DeliveryDate:    date,
			Notes:           r.Notes,
		},
		Items: toItemRequests(r.Items),
	}, nil
}

func (r updateOrderReq) patch() (application.OrderPatch, error) {
	date, err := parseDate(r.DeliveryDate)
	if err != nil {
		return application.OrderPatch{}, err
	}
	p := application.OrderPatch{
		CustomerName:    r.CustomerName,
		ContactPerson:   r.ContactPerson,
		Email:           r.Email,
		ShippingAddress: r.ShippingAddress,
		DeliveryDate:    date,
		Notes:           r.Notes,
	}
	if r.Items != nil {
		items := toItemRequests(*r.Items)
		p.Items = &items
	}
	return p, nil
}

func toOrderResp(o domain.Order) orderResp {
	resp := orderResp{
		ID:              o.ID,
		CustomerName:    o.CustomerName,
		ContactPerson:   o.ContactPerson,
		Email:           o.Email,
		ShippingAddress: o.ShippingAddress,
		Notes:           o.Notes,
		Status:          string(o.Status),
		SalespersonID:   o.SalespersonID,
		ManagerID:       o.ManagerID,
		WarehouseID:     o.WarehouseID,
		Total:           o.Total().StringFixed(2),
		Items:           make([]itemResp, 0, len(o.Items)),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if o.DeliveryDate != nil {
		d := o.DeliveryDate.Format(dateLayout)
		resp.DeliveryDate = &d
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, itemResp{
			ID:         it.ID,
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice.StringFixed(2),
			LineTotal:  it.LineTotal.StringFixed(2),
			IsInStock:  it.IsInStock,
			LineStatus: string(it.LineStatus),
		})
	}
	return resp
}

func toHistoryResp(h domain.StatusHistory) historyResp {
	return historyResp{
		ID:             h.ID,
		PreviousStatus: string(h.PreviousStatus),
		NewStatus:      string(h.NewStatus),
		ChangedBy:      h.ChangedBy,
		ChangedAt:      h.ChangedAt,
		Notes:          h.Notes,
	}
}
