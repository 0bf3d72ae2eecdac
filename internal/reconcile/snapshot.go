// Package reconcile records, per booking event, the total the client computed
// next to the total the backend returned, and flags the ones that differ.
package reconcile

import (
	"fmt"
	"time"

	"github.com/ariefcatur/go-table-booking/internal/booking"
	kafkax "github.com/ariefcatur/go-table-booking/internal/kafka"
	"github.com/shopspring/decimal"
)

type Snapshot struct {
	EventID     string           `json:"event_id"`
	EventType   string           `json:"event_type"`
	BookingID   string           `json:"booking_id"`
	Producer    string           `json:"producer"`
	ClientTotal decimal.Decimal  `json:"client_total"`
	ServerTotal *decimal.Decimal `json:"server_total,omitempty"`
	IsPaid      bool             `json:"is_paid"`
	Diverged    bool             `json:"diverged"`
	OccurredAt  time.Time        `json:"occurred_at"`
	RecordedAt  time.Time        `json:"recorded_at"`
}

// Diverged reports whether the backend answered with a total different from
// the client's. A missing server total is not a divergence.
func Diverged(client decimal.Decimal, server *decimal.Decimal) bool {
	return server != nil && !server.Equal(client)
}

// FromEnvelope maps a booking event to its snapshot row. ok is false for
// event types this service does not track.
func FromEnvelope(env booking.Envelope) (s Snapshot, ok bool, err error) {
	s = Snapshot{
		EventID:    env.EventID,
		EventType:  env.EventType,
		BookingID:  env.CorrelationID,
		Producer:   env.Producer,
		OccurredAt: env.OccurredAt,
	}
	if env.EventID == "" {
		return s, false, fmt.Errorf("event without id (type %s)", env.EventType)
	}

	switch env.EventType {
	case booking.EventBookingCreated, booking.EventBookingUpdated, booking.EventBookingPaid:
		p, err := kafkax.UnwrapPayload[booking.SnapshotPayload](env.Payload)
		if err != nil {
			return s, false, err
		}
		if p.BookingID != "" {
			s.BookingID = p.BookingID
		}
		s.ClientTotal = p.ClientTotal
		s.ServerTotal = p.ServerTotal
		s.IsPaid = p.IsPaid
		s.Diverged = Diverged(p.ClientTotal, p.ServerTotal)
	case booking.EventBookingDeleted:
		p, err := kafkax.UnwrapPayload[booking.DeletedPayload](env.Payload)
		if err != nil {
			return s, false, err
		}
		if p.BookingID != "" {
			s.BookingID = p.BookingID
		}
	default:
		return s, false, nil
	}

	if s.BookingID == "" {
		return s, false, fmt.Errorf("event %s carries no booking id", env.EventID)
	}
	return s, true, nil
}
