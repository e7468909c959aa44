package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	invdomain "github.com/dmehra2102/Sales-Order-Management/internal/inventory/domain"
	"github.com/dmehra2102/Sales-Order-Management/internal/order/domain"
)

// memStore is an in-memory stand-in for the postgres repositories. Conditional
// writes behave like their SQL counterparts.
type memStore struct {
	mu       sync.Mutex
	orders   map[string]domain.Order
	products map[string]invdomain.Product
	history  []domain.StatusHistory
	events   []recordedEvent

	historyErr error
}

type recordedEvent struct {
	AggregateID string
	Type        string
	Payload     any
}

func newMemStore() *memStore {
	return &memStore{
		orders:   map[string]domain.Order{},
		products: map[string]invdomain.Product{},
	}
}

func (m *memStore) addProduct(id, name string, stock int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[id] = invdomain.Product{ID: id, SKU: "SKU-" + id, Name: name, Price: decimal.NewFromInt(10), StockQuantity: stock}
}

func (m *memStore) setStock(id string, stock int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.products[id]
	p.StockQuantity = stock
	m.products[id] = p
}

func (m *memStore) stockOf(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].StockQuantity
}

func (m *memStore) historyFor(orderID string) []domain.StatusHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.StatusHistory
	for _, h := range m.history {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out
}

func (m *memStore) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

func (m *memStore) raw(id string) domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneOrder(m.orders[id])
}

func (m *memStore) Get(_ context.Context, id string) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.IsDeleted() {
		return domain.Order{}, domain.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (m *memStore) List(_ context.Context, filter ListFilter) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.IsDeleted() {
			continue
		}
		if filter.SalespersonID != "" && o.SalespersonID != filter.SalespersonID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) Insert(_ context.Context, o domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *memStore) UpdateDetails(_ context.Context, o domain.Order, expected domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.orders[o.ID]
	if !ok || cur.IsDeleted() || cur.Status != expected {
		return domain.ErrStaleStatus
	}
	items := cur.Items
	cur = cloneOrder(o)
	cur.Status = expected
	cur.Items = items
	m.orders[o.ID] = cur
	return nil
}

func (m *memStore) ReplaceItems(_ context.Context, orderID string, items []domain.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.orders[orderID]
	cur.Items = append([]domain.OrderItem(nil), items...)
	m.orders[orderID] = cur
	return nil
}

func (m *memStore) UpdateItems(_ context.Context, items []domain.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		o := m.orders[item.OrderID]
		for i := range o.Items {
			if o.Items[i].ID == item.ID {
				o.Items[i] = item
			}
		}
		m.orders[item.OrderID] = o
	}
	return nil
}

func (m *memStore) ChangeStatus(_ context.Context, c StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.orders[c.OrderID]
	if !ok || cur.IsDeleted() || cur.Status != c.From {
		return domain.ErrStaleStatus
	}
	cur.Status = c.To
	cur.UpdatedAt = c.At
	if c.ManagerID != nil {
		cur.ManagerID = c.ManagerID
	}
	if c.WarehouseID != nil {
		cur.WarehouseID = c.WarehouseID
	}
	m.orders[c.OrderID] = cur
	return nil
}

func (m *memStore) SoftDelete(_ context.Context, id string, expected domain.OrderStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.orders[id]
	if !ok || cur.IsDeleted() || cur.Status != expected {
		return domain.ErrStaleStatus
	}
	cur.DeletedAt = &at
	m.orders[id] = cur
	return nil
}

func (m *memStore) FindProducts(_ context.Context, ids []string) (map[string]invdomain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]invdomain.Product, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok && p.DeletedAt == nil {
			out[id] = p
		}
	}
	return out, nil
}

func (m *memStore) DecrementStock(_ context.Context, productID string, amount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return invdomain.ErrProductNotFound
	}
	if p.StockQuantity < amount {
		return invdomain.ErrInsufficientStock
	}
	p.StockQuantity -= amount
	m.products[productID] = p
	return nil
}

func (m *memStore) Record(_ context.Context, h domain.StatusHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.historyErr != nil {
		return m.historyErr
	}
	m.history = append(m.history, h)
	return nil
}

func (m *memStore) ListHistory(orderID string) []domain.StatusHistory {
	return m.historyFor(orderID)
}

func (m *memStore) Enqueue(_ context.Context, aggregateID, eventType string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, recordedEvent{AggregateID: aggregateID, Type: eventType, Payload: payload})
	return nil
}

type snapshot struct {
	orders   map[string]domain.Order
	products map[string]invdomain.Product
	history  []domain.StatusHistory
	events   []recordedEvent
}

func (m *memStore) snapshot() snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := snapshot{
		orders:   make(map[string]domain.Order, len(m.orders)),
		products: make(map[string]invdomain.Product, len(m.products)),
		history:  append([]domain.StatusHistory(nil), m.history...),
		events:   append([]recordedEvent(nil), m.events...),
	}
	for k, v := range m.orders {
		s.orders[k] = cloneOrder(v)
	}
	for k, v := range m.products {
		s.products[k] = v
	}
	return s
}

func (m *memStore) restore(s snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = s.orders
	m.products = s.products
	m.history = s.history
	m.events = s.events
}

// historyView adapts memStore to HistoryRecorder; memStore already has a List
// method for orders.
type historyView struct{ *memStore }

func (h historyView) List(_ context.Context, orderID string) ([]domain.StatusHistory, error) {
	return h.ListHistory(orderID), nil
}

// memTx serializes transactions and rolls the store back when fn fails.
type memTx struct {
	mu    sync.Mutex
	store *memStore
}

func (t *memTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	before := t.store.snapshot()
	if err := fn(ctx); err != nil {
		t.store.restore(before)
		return err
	}
	return nil
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	return o
}

var errHistoryDown = errors.New("history table unavailable")
