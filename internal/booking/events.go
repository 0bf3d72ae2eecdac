package booking

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventBookingCreated = "BookingCreated"
	EventBookingUpdated = "BookingUpdated"
	EventBookingPaid    = "BookingPaid"
	EventBookingDeleted = "BookingDeleted"
)

// TopicBookingEvents carries every booking event; see PartitionKey.
const TopicBookingEvents = "booking.events"

// Partition key = booking id, so events of one booking stay ordered.
func PartitionKey(bookingID string) []byte { return []byte(bookingID) }

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // booking id
	Payload       json.RawMessage `json:"payload"`
}

// SnapshotPayload is sent after every create, update and payment. ClientTotal
// is what this client computed and submitted; ServerTotal is what the backend
// answered with, when it answered with a number.
type SnapshotPayload struct {
	BookingID   string           `json:"booking_id"`
	ClientTotal decimal.Decimal  `json:"client_total"`
	ServerTotal *decimal.Decimal `json:"server_total,omitempty"`
	IsPaid      bool             `json:"is_paid"`
	Items       []SelectedDish   `json:"items,omitempty"`
}

type DeletedPayload struct {
	BookingID string `json:"booking_id"`
}

// Snapshot builds the payload for b as the server returned it.
func Snapshot(b Booking, clientTotal decimal.Decimal) SnapshotPayload {
	p := SnapshotPayload{
		BookingID:   b.ID,
		ClientTotal: clientTotal,
		IsPaid:      b.IsPaid,
		Items:       b.Selection().Payload(),
	}
	if b.TotalAmount.IsNumber() {
		d, _ := b.TotalAmount.Decimal()
		p.ServerTotal = &d
	}
	return p
}
