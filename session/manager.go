package session

import (
	"sync"
	"time"

	"github.com/HARIOM-JHA01/addmy-partner/monitoring"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager owns the live sessions of this process. Tokens outlive sessions:
// a swept session is rebuilt and revalidated on the browser's next request.
type Manager struct {
	deps *Deps
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(deps Deps) *Manager {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Tokens == nil {
		deps.Tokens = NewMemoryStore()
	}
	deps.Log = deps.Log.Named("session")
	return &Manager{
		deps:     &deps,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, creating an uninitialized one if needed.
func (m *Manager) Get(id string) *Session {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		s.touch(now)
		return s
	}
	s := newSession(id, m.deps, now)
	m.sessions[id] = s
	monitoring.ActiveSessions.Set(float64(len(m.sessions)))
	return s
}

// New creates a session with a fresh id.
func (m *Manager) New() *Session {
	return m.Get(uuid.NewString())
}

// Sweep forgets sessions idle for longer than maxIdle and returns how many
// were dropped.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for id, s := range m.sessions {
		if s.idleSince(now) > maxIdle {
			delete(m.sessions, id)
			dropped++
		}
	}
	monitoring.ActiveSessions.Set(float64(len(m.sessions)))
	if dropped > 0 {
		m.deps.Log.Debug("swept idle sessions", zap.Int("dropped", dropped), zap.Int("remaining", len(m.sessions)))
	}
	return dropped
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
