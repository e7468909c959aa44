package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []OrderStatus{
	StatusDraft, StatusSubmitted, StatusApproved, StatusPacking, StatusPacked,
	StatusShipped, StatusDelivered, StatusFulfilled, StatusRejected,
}

func TestStateMachine_OnlyTableEdges(t *testing.T) {
	legal := map[[2]OrderStatus]bool{
		{StatusDraft, StatusSubmitted}:     true,
		{StatusSubmitted, StatusApproved}:  true,
		{StatusSubmitted, StatusRejected}:  true,
		{StatusApproved, StatusPacking}:    true,
		{StatusPacking, StatusPacked}:      true,
		{StatusPacked, StatusShipped}:      true,
		{StatusShipped, StatusDelivered}:   true,
		{StatusApproved, StatusFulfilled}:  true,
		{StatusRejected, StatusDraft}:      true,
	}
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			assert.Equal(t, legal[[2]OrderStatus{from, to}], canMove(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTransitions_StockFlags(t *testing.T) {
	for _, tr := range orderedTransitions() {
		switch tr.Action {
		case ActionSubmit, ActionApprove:
			assert.True(t, tr.StockGate, tr.Action)
		default:
			assert.False(t, tr.StockGate, tr.Action)
		}
		assert.Equal(t, tr.Action == ActionFulfill, tr.ConsumesStock, tr.Action)
	}
	for _, action := range []Action{ActionSubmit, ActionReopen} {
		tr, ok := TransitionFor(action)
		require.True(t, ok)
		assert.True(t, tr.OwnerOnly, action)
	}

	_, ok := TransitionFor(Action("teleport"))
	assert.False(t, ok)
}

func TestLineTotal(t *testing.T) {
	price := decimal.RequireFromString("10.00")
	assert.True(t, LineTotal(5, price).Equal(decimal.RequireFromString("50.00")))
	assert.True(t, LineTotal(3, decimal.RequireFromString("0.333")).Equal(decimal.RequireFromString("0.999")))
}

func TestTruncateNotes(t *testing.T) {
	assert.Equal(t, "short", TruncateNotes("short"))

	long := strings.Repeat("ä", MaxNotesLength+20)
	got := TruncateNotes(long)
	assert.Equal(t, MaxNotesLength, len([]rune(got)))
}

func TestNewStatusHistory_NotesOptional(t *testing.T) {
	h := NewStatusHistory("h1", "o1", StatusDraft, StatusSubmitted, "u1", "", fixedNow)
	assert.Nil(t, h.Notes)

	h = NewStatusHistory("h2", "o1", StatusDraft, StatusSubmitted, "u1", "rush", fixedNow)
	require.NotNil(t, h.Notes)
	assert.Equal(t, "rush", *h.Notes)
}

func TestErrors_MatchSentinels(t *testing.T) {
	var err error = &IllegalTransitionError{From: StatusFulfilled, To: StatusFulfilled, Action: ActionFulfill}
	assert.True(t, errors.Is(err, ErrIllegalTransition))

	err = &InsufficientStockError{Issues: []StockIssue{{Product: "Widget", Requested: 5, Available: 3}}}
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Contains(t, err.Error(), "Widget (requested 5, available 3)")

	err = &InvalidReferenceError{ProductID: "p-404"}
	assert.True(t, errors.Is(err, ErrInvalidReference))

	cause := errors.New("disk full")
	err = &PartialFailureError{OrderID: "o1", Err: cause}
	assert.True(t, errors.Is(err, ErrPartialFailure))
	assert.True(t, errors.Is(err, cause))
}

func TestValidateItemRequests(t *testing.T) {
	ok := []ItemRequest{{ProductID: "p1", Quantity: 1, UnitPrice: decimal.Zero}}
	require.NoError(t, ValidateItemRequests(ok))

	cases := map[string][]ItemRequest{
		"empty":          nil,
		"zero quantity":  {{ProductID: "p1", Quantity: 0, UnitPrice: decimal.NewFromInt(1)}},
		"negative price": {{ProductID: "p1", Quantity: 1, UnitPrice: decimal.NewFromInt(-1)}},
		"missing id":     {{ProductID: " ", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}},
	}
	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateItemRequests(items), ErrInvalidInput)
		})
	}
}

func TestValidateDetails(t *testing.T) {
	d := Details{CustomerName: "Acme", ContactPerson: "Rae", Email: "rae@acme.test"}
	require.NoError(t, ValidateDetails(d))

	bad := d
	bad.Email = "not-an-email"
	assert.ErrorIs(t, ValidateDetails(bad), ErrInvalidInput)

	bad = d
	bad.Notes = strings.Repeat("x", MaxNotesLength+1)
	assert.ErrorIs(t, ValidateDetails(bad), ErrInvalidInput)
}
