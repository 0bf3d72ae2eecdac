// Package session keeps the bearer token and role of the signed-in user in a
// key-value store that every command and screen reads through.
package session

import (
	"context"
	"errors"
)

const (
	KeyToken = "token"
	KeyRole  = "role"
)

var ErrNotFound = errors.New("session: key not found")

// Store is the persistent key-value storage for the credential.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
