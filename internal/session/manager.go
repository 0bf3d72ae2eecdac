package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoCredential aborts any authenticated operation. It is never retried.
var ErrNoCredential = errors.New("not signed in")

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// State is what observers see after a login or logout.
type State struct {
	LoggedIn bool
	Role     Role
}

// Manager is the single entry point to the credential. It caches nothing:
// Token reads the store on every call.
type Manager struct {
	store Store
	now   func() time.Time

	mu   sync.Mutex
	next int
	subs map[int]func(State)
}

func NewManager(store Store) *Manager {
	return &Manager{store: store, now: time.Now, subs: map[int]func(State){}}
}

// Subscribe registers fn for login/logout notifications. The returned
// function unregisters it.
func (m *Manager) Subscribe(fn func(State)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next
	m.next++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Manager) notify(s State) {
	m.mu.Lock()
	fns := make([]func(State), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

func (m *Manager) Login(ctx context.Context, token string, role Role) error {
	if token == "" {
		return fmt.Errorf("login: %w", ErrNoCredential)
	}
	if err := m.store.Set(ctx, KeyToken, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if err := m.store.Set(ctx, KeyRole, string(role)); err != nil {
		_ = m.store.Remove(ctx, KeyToken)
		return fmt.Errorf("store role: %w", err)
	}
	m.notify(State{LoggedIn: true, Role: role})
	return nil
}

func (m *Manager) Logout(ctx context.Context) error {
	errTok := m.store.Remove(ctx, KeyToken)
	errRole := m.store.Remove(ctx, KeyRole)
	m.notify(State{})
	return errors.Join(errTok, errRole)
}

// Token returns the bearer token, or ErrNoCredential when none is stored or
// the stored one is a JWT past its exp claim. Opaque tokens are passed through.
func (m *Manager) Token(ctx context.Context) (string, error) {
	tok, err := m.store.Get(ctx, KeyToken)
	if errors.Is(err, ErrNotFound) || (err == nil && tok == "") {
		return "", ErrNoCredential
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	if exp, ok := expiry(tok); ok && !m.now().Before(exp) {
		return "", fmt.Errorf("%w: token expired at %s", ErrNoCredential, exp.Format(time.RFC3339))
	}
	return tok, nil
}

func (m *Manager) Role(ctx context.Context) (Role, error) {
	r, err := m.store.Get(ctx, KeyRole)
	if errors.Is(err, ErrNotFound) {
		return "", ErrNoCredential
	}
	return Role(r), err
}

// Current mirrors the app start-up check: signed in only when both token and
// role are present.
func (m *Manager) Current(ctx context.Context) State {
	if _, err := m.Token(ctx); err != nil {
		return State{}
	}
	r, err := m.Role(ctx)
	if err != nil || r == "" {
		return State{}
	}
	return State{LoggedIn: true, Role: r}
}

// expiry reads exp without verifying the signature; the backend verifies.
func expiry(tok string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
