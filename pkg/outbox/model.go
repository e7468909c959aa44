package outbox

import "time"

// Status is the delivery state of an outbox row.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// Event is an integration event stored in the same transaction as the order
// change that raised it. The relay delivers it at least once.
type Event struct {
	ID            int64
	AggregateType string
	AggregateID   string
	Type          string
	Payload       []byte
	Headers       map[string]string
	Traceparent   string
	CreatedAt     time.Time

	// Set while the event is leased by a relay.
	Status     Status
	RelayID    string
	RetryCount int
}

// Attempt is the 1-based delivery attempt the relay is about to make.
func (e Event) Attempt() int {
	return e.RetryCount + 1
}
