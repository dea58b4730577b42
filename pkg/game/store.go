package game

import (
	"context"
	"errors"
)

// ErrNotFound indicates a requested session record is missing or past its
// retention horizon. Absence after the horizon is expected, not an error in
// the storage implementation.
var ErrNotFound = errors.New("session record not found")

// Store persists session records keyed by session id. Implementations apply a
// retention horizon: Put refreshes it, and Get treats expired records as
// absent. Expiry is a storage-lifetime concern and never appears in game
// state.
type Store interface {
	Put(ctx context.Context, session *Session) error
	Get(ctx context.Context, sessionID uint32) (*Session, error)
}
