package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = errors.New("session not found")

// Manager keeps in-memory sessions keyed by a random id. Every Get marks the
// session as used; Sweep evicts the ones left idle.
type Manager struct {
	mu       sync.RWMutex
	pageSize int
	sessions map[string]*entry
	now      func() time.Time
}

type entry struct {
	sess     *Session
	lastUsed time.Time
}

func NewManager(pageSize int) *Manager {
	return &Manager{pageSize: pageSize, sessions: make(map[string]*entry), now: time.Now}
}

// Create starts a new session and returns its id.
func (m *Manager) Create() (string, *Session) {
	id := uuid.NewString()
	s := New(m.pageSize)
	m.mu.Lock()
	m.sessions[id] = &entry{sess: s, lastUsed: m.now()}
	m.mu.Unlock()
	return id, s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastUsed = m.now()
	return e.sess, nil
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Delete removes the session and releases its index.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	return e.sess.Close(ctx)
}

// Sweep evicts sessions unused for longer than maxIdle and returns how many
// were removed.
func (m *Manager) Sweep(ctx context.Context, maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)
	var idle []*Session
	m.mu.Lock()
	for id, e := range m.sessions {
		if e.lastUsed.Before(cutoff) {
			idle = append(idle, e.sess)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
	for _, s := range idle {
		if err := s.Close(ctx); err != nil {
			slog.Warn("closing idle session", "error", err)
		}
	}
	return len(idle)
}

// Run sweeps idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval, maxIdle time.Duration, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(ctx, maxIdle); n > 0 {
				logger.Info("evicted idle sessions", "count", n, "remaining", m.Len())
			}
		}
	}
}
