package kafka

import (
	"context"

	"github.com/ariefcatur/go-table-booking/internal/booking"
	"github.com/segmentio/kafka-go"
)

type publisher interface {
	Publish(ctx context.Context, key, value []byte, headers ...kafka.Header) error
}

// Sink publishes booking envelopes, keyed by booking id.
type Sink struct {
	p publisher
}

func NewSink(p *Producer) *Sink { return &Sink{p: p} }

func (s *Sink) Emit(ctx context.Context, env booking.Envelope) error {
	key, value, headers, err := EncodeEnvelope(env)
	if err != nil {
		return err
	}
	return s.p.Publish(ctx, key, value, headers...)
}
