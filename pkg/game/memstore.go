package game

import (
	"context"
	"sync"
	"time"
)

// MemStore is an in-memory Store for tests and single-process deployments.
// Expired records are purged lazily on access.
type MemStore struct {
	mu        sync.Mutex
	retention time.Duration
	now       func() time.Time
	sessions  map[uint32]memRecord
}

type memRecord struct {
	session   *Session
	expiresAt time.Time
}

// NewMemStore creates a store whose records expire retention after their last
// write. A zero retention disables expiry.
func NewMemStore(retention time.Duration) *MemStore {
	return &MemStore{
		retention: retention,
		now:       time.Now,
		sessions:  map[uint32]memRecord{},
	}
}

// Put stores a copy of the session and refreshes its retention horizon.
func (m *MemStore) Put(_ context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := memRecord{session: session.Clone()}
	if m.retention > 0 {
		rec.expiresAt = m.now().Add(m.retention)
	}
	m.sessions[session.ID] = rec
	return nil
}

// Get returns a copy of the stored session, or ErrNotFound if it is missing
// or past its retention horizon.
func (m *MemStore) Get(_ context.Context, sessionID uint32) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if !rec.expiresAt.IsZero() && m.now().After(rec.expiresAt) {
		delete(m.sessions, sessionID)
		return nil, ErrNotFound
	}
	return rec.session.Clone(), nil
}
