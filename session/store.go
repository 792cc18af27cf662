package session

import (
	"context"
	"sync"
	"time"
)

// TokenKey is the well-known key the bearer token lives under.
const TokenKey = "authToken"

// Key scopes TokenKey to one browser session.
func Key(sessionID string) string {
	return TokenKey + ":" + sessionID
}

// TokenStore persists bearer tokens. Get returns "" and no error when the key
// is absent.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, token string) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore keeps tokens in process memory. Tokens are lost on restart.
// Entries unused for longer than the retention passed to Purge are dropped.
type MemoryStore struct {
	now func() time.Time

	mu     sync.Mutex
	tokens map[string]memoryToken
}

type memoryToken struct {
	token    string
	lastUsed time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now, tokens: make(map[string]memoryToken)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.tokens[key]
	if !ok {
		return "", nil
	}
	e.lastUsed = m.now()
	m.tokens[key] = e
	return e.token, nil
}

func (m *MemoryStore) Set(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[key] = memoryToken{token: token, lastUsed: m.now()}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, key)
	return nil
}

// Purge drops tokens not read or written within maxIdle and returns how many
// were removed.
func (m *MemoryStore) Purge(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for key, e := range m.tokens {
		if e.lastUsed.Before(cutoff) {
			delete(m.tokens, key)
			n++
		}
	}
	return n
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}
