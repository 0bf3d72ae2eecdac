// Package app holds the screen-level operations: each one reads the session,
// calls the backend and hands back what the backend now says.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-table-booking/internal/api"
	"github.com/ariefcatur/go-table-booking/internal/booking"
	"github.com/ariefcatur/go-table-booking/internal/session"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrBookingPaid     = errors.New("booking is already paid")
	ErrBookingNotFound = errors.New("booking not found")
)

// Backend is the subset of the REST API the screens use.
type Backend interface {
	Login(ctx context.Context, username, password string) (api.LoginResult, error)
	Signup(ctx context.Context, username, email, password string) error
	Menus(ctx context.Context) ([]booking.MenuItem, error)
	CreateBooking(ctx context.Context, token string, sub booking.Submission) (*booking.Booking, error)
	UpdateBooking(ctx context.Context, token, id string, sub booking.Submission) (*booking.Booking, error)
	PayBooking(ctx context.Context, token, id string) (*booking.Booking, error)
	DeleteBooking(ctx context.Context, token, id string) error
	History(ctx context.Context, token string) ([]booking.Booking, error)
	Me(ctx context.Context, token string) (api.Profile, error)
	UpdateMe(ctx context.Context, token string, p api.Profile) (api.Profile, error)
}

// EventSink receives booking events. Delivery is best effort.
type EventSink interface {
	Emit(ctx context.Context, env booking.Envelope) error
}

// NopSink drops every event. It is the default when no broker is configured.
type NopSink struct{}

func (NopSink) Emit(context.Context, booking.Envelope) error { return nil }

// Service runs the booking operations against the backend. The session token
// is read from the manager on every call.
type Service struct {
	backend  Backend
	session  *session.Manager
	events   EventSink
	producer string
	log      *logrus.Entry
}

// New returns a Service. A nil events sink is replaced by NopSink.
func New(backend Backend, sess *session.Manager, events EventSink, producer string, log *logrus.Entry) *Service {
	if events == nil {
		events = NopSink{}
	}
	return &Service{backend: backend, session: sess, events: events, producer: producer, log: log}
}

func (s *Service) Login(ctx context.Context, username, password string) (session.State, error) {
	res, err := s.backend.Login(ctx, username, password)
	if err != nil {
		return session.State{}, err
	}
	role := session.Role(res.Role)
	if err := s.session.Login(ctx, res.Token, role); err != nil {
		return session.State{}, err
	}
	s.log.WithField("role", role).Info("signed in")
	return session.State{LoggedIn: true, Role: role}, nil
}

func (s *Service) Signup(ctx context.Context, username, email, password string) error {
	return s.backend.Signup(ctx, username, email, password)
}

func (s *Service) Logout(ctx context.Context) error {
	return s.session.Logout(ctx)
}

func (s *Service) Menu(ctx context.Context, category string) ([]booking.MenuItem, error) {
	items, err := s.backend.Menus(ctx)
	if err != nil {
		return nil, err
	}
	return booking.FilterMenu(items, category), nil
}

// CreateBooking submits a new booking with the total computed from sel.
// The returned booking is nil when the backend does not echo it.
func (s *Service) CreateBooking(ctx context.Context, d booking.Draft, sel *booking.Selection) (*booking.Booking, error) {
	if err := d.ValidateForCreate(); err != nil {
		return nil, err
	}
	if err := booking.ValidateLines(sel.Lines()); err != nil {
		return nil, err
	}
	token, err := s.session.Token(ctx)
	if err != nil {
		return nil, err
	}

	sub := booking.NewSubmission(d, sel)
	created, err := s.backend.CreateBooking(ctx, token, sub)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	if created != nil {
		s.emitSnapshot(ctx, booking.EventBookingCreated, *created, sel.Total())
	}
	return created, nil
}

// SaveBooking stores edits to an unpaid booking. The result is the server's
// copy when it sends one back; otherwise the local edit with the computed
// total.
func (s *Service) SaveBooking(ctx context.Context, b booking.Booking, d booking.Draft, sel *booking.Selection) (booking.Booking, error) {
	if !booking.CanTransition(b.Status(), booking.StatusPaid) {
		return b, ErrBookingPaid
	}
	if err := d.ValidateForUpdate(); err != nil {
		return b, err
	}
	if err := booking.ValidateLines(sel.Lines()); err != nil {
		return b, err
	}
	token, err := s.session.Token(ctx)
	if err != nil {
		return b, err
	}

	sub := booking.NewSubmission(d, sel)
	saved, err := s.backend.UpdateBooking(ctx, token, b.ID, sub)
	if err != nil {
		return b, fmt.Errorf("update booking %s: %w", b.ID, err)
	}

	if saved != nil {
		s.emitSnapshot(ctx, booking.EventBookingUpdated, *saved, sel.Total())
		return *saved, nil
	}

	out := b
	out.Name, out.Phone, out.Date, out.Time, out.People, out.Note = d.Name, d.Phone, d.Date, d.Time, d.People, d.Note
	out.SelectedDishes = sel.Lines()
	out.TotalAmount = sub.TotalAmount
	// The server sent nothing back, so there is no server total to report.
	p := booking.Snapshot(out, sel.Total())
	p.ServerTotal = nil
	s.emit(ctx, booking.EventBookingUpdated, out.ID, p)
	return out, nil
}

// Pay marks b paid on the server, then reloads the history and returns the
// server's copy. b itself is never flipped locally; on any error the caller
// keeps what it had.
func (s *Service) Pay(ctx context.Context, b booking.Booking) (booking.Booking, error) {
	if !booking.CanTransition(b.Status(), booking.StatusPaid) {
		return b, ErrBookingPaid
	}
	token, err := s.session.Token(ctx)
	if err != nil {
		return b, err
	}

	echo, err := s.backend.PayBooking(ctx, token, b.ID)
	if err != nil {
		return b, fmt.Errorf("pay booking %s: %w", b.ID, err)
	}
	clientTotal, priced := s.clientTotal(ctx, b.SelectedDishes)

	history, err := s.History(ctx)
	if err != nil {
		if echo != nil {
			s.log.WithError(err).WithField("booking_id", b.ID).Warn("refresh after payment failed, using payment response")
			if priced {
				s.emitSnapshot(ctx, booking.EventBookingPaid, *echo, clientTotal)
			}
			return *echo, nil
		}
		return b, fmt.Errorf("refresh after payment: %w", err)
	}
	fresh, ok := booking.FindBooking(history, b.ID)
	if !ok {
		return b, fmt.Errorf("refresh after payment: %w", ErrBookingNotFound)
	}
	if priced {
		s.emitSnapshot(ctx, booking.EventBookingPaid, fresh, clientTotal)
	}
	return fresh, nil
}

// clientTotal prices lines the way the editor does. Lines loaded from history
// may carry bare dish ids; those are priced from the menu. ok is false when
// the menu is needed but cannot be loaded.
func (s *Service) clientTotal(ctx context.Context, lines []booking.LineItem) (decimal.Decimal, bool) {
	bare := false
	for _, l := range lines {
		if !l.UnitPrice().IsSet() {
			bare = true
			break
		}
	}
	if !bare {
		return booking.Total(lines), true
	}
	menu, err := s.backend.Menus(ctx)
	if err != nil {
		s.log.WithError(err).Warn("load menu for payment total, skipping event")
		return decimal.Zero, false
	}
	return booking.Total(booking.AttachMenu(lines, menu)), true
}

// History loads the user's bookings, newest first, with totals filled in.
func (s *Service) History(ctx context.Context) ([]booking.Booking, error) {
	token, err := s.session.Token(ctx)
	if err != nil {
		return nil, err
	}
	bs, err := s.backend.History(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return booking.NormalizeHistory(bs), nil
}

func (s *Service) Delete(ctx context.Context, b booking.Booking) error {
	if b.IsPaid {
		return ErrBookingPaid
	}
	token, err := s.session.Token(ctx)
	if err != nil {
		return err
	}
	if err := s.backend.DeleteBooking(ctx, token, b.ID); err != nil {
		return fmt.Errorf("delete booking %s: %w", b.ID, err)
	}
	s.emit(ctx, booking.EventBookingDeleted, b.ID, booking.DeletedPayload{BookingID: b.ID})
	return nil
}

func (s *Service) Profile(ctx context.Context) (api.Profile, error) {
	token, err := s.session.Token(ctx)
	if err != nil {
		return api.Profile{}, err
	}
	return s.backend.Me(ctx, token)
}

// UpdateProfile saves p and then reloads it, as the profile screen does.
func (s *Service) UpdateProfile(ctx context.Context, p api.Profile) (api.Profile, error) {
	token, err := s.session.Token(ctx)
	if err != nil {
		return api.Profile{}, err
	}
	if _, err := s.backend.UpdateMe(ctx, token, p); err != nil {
		return api.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return s.backend.Me(ctx, token)
}

func (s *Service) emitSnapshot(ctx context.Context, eventType string, b booking.Booking, clientTotal decimal.Decimal) {
	s.emit(ctx, eventType, b.ID, booking.Snapshot(b, clientTotal))
}

func (s *Service) emit(ctx context.Context, eventType, bookingID string, payload any) {
	env, err := NewEnvelope(eventType, s.producer, bookingID, payload)
	if err == nil {
		err = s.events.Emit(ctx, env)
	}
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"event": eventType, "booking_id": bookingID}).Warn("emit event")
	}
}

func NewEnvelope(eventType, producer, bookingID string, payload any) (booking.Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return booking.Envelope{}, err
	}
	return booking.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: bookingID,
		Payload:       raw,
	}, nil
}
