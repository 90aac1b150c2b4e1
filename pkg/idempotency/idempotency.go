package idempotency

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"
)

const Header = "Idempotency-Key"

const maxKeyLen = 128

// Key returns the client supplied idempotency key, or "" when absent or too long.
func Key(r *http.Request) string {
	k := strings.TrimSpace(r.Header.Get(Header))
	if len(k) > maxKeyLen {
		return ""
	}
	return k
}

// Store remembers which resource a keyed submission produced.
type Store interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
	Unlock(ctx context.Context, scope, key string) error
}

// MemoryStore is a process-local Store for single-instance deployments.
type MemoryStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	locks  map[string]time.Time
	values map[string]entry
}

type entry struct {
	value   string
	expires time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:    ttl,
		now:    time.Now,
		locks:  map[string]time.Time{},
		values: map[string]entry{},
	}
}

func (m *MemoryStore) TryLock(_ context.Context, scope, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := scope + ":" + key
	if exp, ok := m.locks[k]; ok && m.now().Before(exp) {
		return false, nil
	}
	m.locks[k] = m.now().Add(m.ttl)
	return true, nil
}

func (m *MemoryStore) Remember(_ context.Context, scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[scope+":"+key] = entry{value: value, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Recall(_ context.Context, scope, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.values[scope+":"+key]
	if !ok || !m.now().Before(e.expires) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *MemoryStore) Unlock(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.locks, scope+":"+key)
	return nil
}
