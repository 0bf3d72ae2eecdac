package reconcile

import (
	"context"

	kafkax "github.com/ariefcatur/go-table-booking/internal/kafka"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type SnapshotWriter interface {
	RecordSnapshot(ctx context.Context, s Snapshot) (bool, error)
}

type Service struct {
	Repo  SnapshotWriter
	Dedup Deduper
	Log   *logrus.Entry
}

// HandleBookingEvent is installed as the consumer handler. Malformed
// messages are logged and skipped so they do not block the partition.
func (s *Service) HandleBookingEvent(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.DecodeEnvelope(m)
	if err != nil {
		s.Log.WithError(err).WithField("offset", m.Offset).Warn("skip undecodable message")
		return nil
	}
	log := s.Log.WithFields(logrus.Fields{"event_id": env.EventID, "event": env.EventType, "booking_id": env.CorrelationID})

	snap, ok, err := FromEnvelope(env)
	if err != nil {
		log.WithError(err).Warn("skip malformed event")
		return nil
	}
	if !ok {
		return nil
	}

	if s.Dedup != nil {
		seen, err := s.Dedup.Seen(ctx, env.EventID)
		if err != nil {
			log.WithError(err).Warn("dedup lookup failed")
		}
		if seen {
			return nil
		}
	}

	inserted, err := s.Repo.RecordSnapshot(ctx, snap)
	if err != nil {
		return err
	}
	if s.Dedup != nil {
		if err := s.Dedup.Mark(ctx, env.EventID); err != nil {
			log.WithError(err).Warn("dedup mark failed")
		}
	}

	if snap.Diverged {
		log.WithFields(logrus.Fields{
			"client_total": snap.ClientTotal.String(),
			"server_total": snap.ServerTotal.String(),
		}).Warn("booking total diverged")
	} else if inserted {
		log.Debug("snapshot recorded")
	}
	return nil
}
