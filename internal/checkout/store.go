package checkout

import (
	"context"
	"sync"
	"time"

	pkgerrors "github.com/lokapasar/checkout/pkg/errors"
)

// SessionStore persists checkout sessions for their short lifetime.
type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Find(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	session   *Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Suited for single-instance
// deployments and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore builds an in-memory session store with the given TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryStore) Save(_ context.Context, session *Session) error {
	if session == nil || session.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[session.ID] = memoryEntry{
		session:   session.Clone(),
		expiresAt: m.now().Add(m.ttl),
	}
	return nil
}

func (m *MemoryStore) Find(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	entry, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok || m.now().After(entry.expiresAt) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
	}
	return entry.session.Clone(), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}
