package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ariefcatur/go-table-booking/internal/booking"
	kafkax "github.com/ariefcatur/go-table-booking/internal/kafka"
	"github.com/ariefcatur/go-table-booking/internal/logx"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	rows map[string]Snapshot
	err  error
}

func (r *memRepo) RecordSnapshot(_ context.Context, s Snapshot) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	if _, ok := r.rows[s.EventID]; ok {
		return false, nil
	}
	r.rows[s.EventID] = s
	return true, nil
}

type memDedup struct {
	marked  map[string]bool
	seenErr error
}

func (d *memDedup) Seen(_ context.Context, id string) (bool, error) {
	return d.marked[id], d.seenErr
}

func (d *memDedup) Mark(_ context.Context, id string) error {
	d.marked[id] = true
	return nil
}

func newReconciler() (*Service, *memRepo, *memDedup) {
	repo := &memRepo{rows: map[string]Snapshot{}}
	dd := &memDedup{marked: map[string]bool{}}
	return &Service{Repo: repo, Dedup: dd, Log: logx.NewWithOutput(io.Discard, "test", "debug")}, repo, dd
}

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func message(t *testing.T, id, typ string, payload any) kafkago.Message {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	env := booking.Envelope{
		EventID: id, EventType: typ, EventVersion: 1,
		OccurredAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Producer:   "bookctl", CorrelationID: "b1", Payload: raw,
	}
	key, value, headers, err := kafkax.EncodeEnvelope(env)
	require.NoError(t, err)
	return kafkago.Message{Key: key, Value: value, Headers: headers}
}

func TestDiverged(t *testing.T) {
	cases := []struct {
		name   string
		client int64
		server *decimal.Decimal
		want   bool
	}{
		{"no server total", 130000, nil, false},
		{"equal", 130000, dec(130000), false},
		{"different", 130000, dec(125000), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Diverged(decimal.NewFromInt(tc.client), tc.server))
		})
	}
}

func TestHandleBookingEvent_RecordsDivergence(t *testing.T) {
	svc, repo, dd := newReconciler()
	m := message(t, "e1", booking.EventBookingPaid, booking.SnapshotPayload{
		BookingID: "b1", ClientTotal: decimal.NewFromInt(130000), ServerTotal: dec(125000), IsPaid: true,
	})

	require.NoError(t, svc.HandleBookingEvent(context.Background(), m))

	got, ok := repo.rows["e1"]
	require.True(t, ok)
	assert.True(t, got.Diverged)
	assert.True(t, got.IsPaid)
	assert.Equal(t, "b1", got.BookingID)
	assert.Equal(t, "bookctl", got.Producer)
	assert.True(t, dd.marked["e1"])
}

func TestHandleBookingEvent_Dedup(t *testing.T) {
	svc, repo, dd := newReconciler()
	dd.marked["e1"] = true

	m := message(t, "e1", booking.EventBookingCreated, booking.SnapshotPayload{BookingID: "b1", ClientTotal: decimal.NewFromInt(1)})
	require.NoError(t, svc.HandleBookingEvent(context.Background(), m))
	assert.Empty(t, repo.rows)
}

func TestHandleBookingEvent_DedupFailureStillRecords(t *testing.T) {
	svc, repo, dd := newReconciler()
	dd.seenErr = errors.New("redis down")

	m := message(t, "e2", booking.EventBookingUpdated, booking.SnapshotPayload{BookingID: "b1", ClientTotal: decimal.NewFromInt(5)})
	require.NoError(t, svc.HandleBookingEvent(context.Background(), m))
	assert.Contains(t, repo.rows, "e2")
}

func TestHandleBookingEvent_Skips(t *testing.T) {
	svc, repo, _ := newReconciler()
	ctx := context.Background()

	assert.NoError(t, svc.HandleBookingEvent(ctx, kafkago.Message{Value: []byte("{")}))
	assert.NoError(t, svc.HandleBookingEvent(ctx, message(t, "e3", "OrderCreated", map[string]string{"x": "y"})))
	assert.NoError(t, svc.HandleBookingEvent(ctx, message(t, "e4", booking.EventBookingPaid, []int{1})))
	assert.Empty(t, repo.rows)
}

func TestHandleBookingEvent_RepoErrorIsRetried(t *testing.T) {
	svc, repo, dd := newReconciler()
	repo.err = errors.New("db down")

	m := message(t, "e5", booking.EventBookingPaid, booking.SnapshotPayload{BookingID: "b1", ClientTotal: decimal.NewFromInt(5)})
	assert.Error(t, svc.HandleBookingEvent(context.Background(), m))
	assert.False(t, dd.marked["e5"], "failed events are not marked")
}

func TestFromEnvelope_Deleted(t *testing.T) {
	raw, _ := json.Marshal(booking.DeletedPayload{BookingID: "b9"})
	s, ok, err := FromEnvelope(booking.Envelope{EventID: "e6", EventType: booking.EventBookingDeleted, Payload: raw})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b9", s.BookingID)
	assert.False(t, s.Diverged)
	assert.True(t, s.ClientTotal.IsZero())
}

func TestFromEnvelope_MissingIDs(t *testing.T) {
	_, _, err := FromEnvelope(booking.Envelope{EventType: booking.EventBookingPaid})
	assert.Error(t, err)

	raw, _ := json.Marshal(booking.SnapshotPayload{ClientTotal: decimal.NewFromInt(1)})
	_, ok, err := FromEnvelope(booking.Envelope{EventID: "e7", EventType: booking.EventBookingPaid, Payload: raw})
	assert.Error(t, err)
	assert.False(t, ok)
}
