package reconcile

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repo struct {
	DB *pgxpool.Pool
}

const snapshotColumns = `event_id, event_type, booking_id, producer,
	client_total::text, server_total::text, is_paid, diverged, occurred_at, recorded_at`

// RecordSnapshot inserts s once per event id. inserted is false when the
// event was already recorded.
func (r *Repo) RecordSnapshot(ctx context.Context, s Snapshot) (inserted bool, err error) {
	var server *string
	if s.ServerTotal != nil {
		v := s.ServerTotal.String()
		server = &v
	}
	tag, err := r.DB.Exec(ctx, `
		INSERT INTO booking_snapshots
			(event_id, event_type, booking_id, producer, client_total, server_total, is_paid, diverged, occurred_at)
		VALUES ($1, $2, $3, $4, CAST($5::text AS NUMERIC), CAST($6::text AS NUMERIC), $7, $8, $9)
		ON CONFLICT (event_id) DO NOTHING`,
		s.EventID, s.EventType, s.BookingID, s.Producer,
		s.ClientTotal.String(), server, s.IsPaid, s.Diverged, s.OccurredAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert snapshot %s: %w", s.EventID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListDiscrepancies returns the most recent diverged snapshots first.
func (r *Repo) ListDiscrepancies(ctx context.Context, limit int) ([]Snapshot, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+snapshotColumns+`
		FROM booking_snapshots
		WHERE diverged
		ORDER BY recorded_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// SnapshotsForBooking returns every snapshot of one booking in event order.
func (r *Repo) SnapshotsForBooking(ctx context.Context, bookingID string) ([]Snapshot, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+snapshotColumns+`
		FROM booking_snapshots
		WHERE booking_id = $1
		ORDER BY occurred_at, recorded_at`, bookingID)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]Snapshot, error) {
	defer rows.Close()
	out := []Snapshot{}
	for rows.Next() {
		var (
			s      Snapshot
			client string
			server *string
		)
		if err := rows.Scan(&s.EventID, &s.EventType, &s.BookingID, &s.Producer,
			&client, &server, &s.IsPaid, &s.Diverged, &s.OccurredAt, &s.RecordedAt); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(client)
		if err != nil {
			return nil, fmt.Errorf("client_total %q: %w", client, err)
		}
		s.ClientTotal = d
		if server != nil {
			d, err := decimal.NewFromString(*server)
			if err != nil {
				return nil, fmt.Errorf("server_total %q: %w", *server, err)
			}
			s.ServerTotal = &d
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
