package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "u1",
		"role": "user",
		"exp":  exp.Unix(),
	})
	s, err := tok.SignedString([]byte("any-key"))
	require.NoError(t, err)
	return s
}

func TestManager_NoToken(t *testing.T) {
	m := NewManager(NewMemoryStore())

	_, err := m.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoCredential)
	assert.False(t, m.Current(context.Background()).LoggedIn)
}

func TestManager_LoginLogoutNotifies(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore())

	var seen []State
	cancel := m.Subscribe(func(s State) { seen = append(seen, s) })

	require.NoError(t, m.Login(ctx, "opaque-token", RoleAdmin))
	tok, err := m.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", tok)
	assert.Equal(t, State{LoggedIn: true, Role: RoleAdmin}, m.Current(ctx))

	require.NoError(t, m.Logout(ctx))
	_, err = m.Token(ctx)
	assert.ErrorIs(t, err, ErrNoCredential)

	cancel()
	require.NoError(t, m.Login(ctx, "again", RoleUser))

	assert.Equal(t, []State{{LoggedIn: true, Role: RoleAdmin}, {}}, seen)
}

func TestManager_RejectsEmptyToken(t *testing.T) {
	err := NewManager(NewMemoryStore()).Login(context.Background(), "", RoleUser)
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestManager_ExpiredJWT(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(NewMemoryStore())
	m.now = func() time.Time { return now }

	require.NoError(t, m.Login(ctx, signed(t, now.Add(time.Hour)), RoleUser))
	_, err := m.Token(ctx)
	assert.NoError(t, err)

	require.NoError(t, m.Login(ctx, signed(t, now.Add(-time.Minute)), RoleUser))
	_, err = m.Token(ctx)
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestManager_LogoutElsewhereIsSeenImmediately(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))

	screenA := NewManager(store)
	screenB := NewManager(NewFileStore(store.path))

	require.NoError(t, screenA.Login(ctx, "tok", RoleUser))
	_, err := screenB.Token(ctx)
	require.NoError(t, err)

	require.NoError(t, screenA.Logout(ctx))
	_, err = screenB.Token(ctx)
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json"))

	_, err := s.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, KeyToken, "abc"))
	require.NoError(t, s.Set(ctx, KeyRole, "user"))
	v, err := s.Get(ctx, KeyRole)
	require.NoError(t, err)
	assert.Equal(t, "user", v)

	require.NoError(t, s.Remove(ctx, KeyToken))
	require.NoError(t, s.Remove(ctx, KeyToken))
	_, err = s.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrNotFound)
}
