package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/palamut62/my-notes/internal/gate"
)

// forgetter is implemented by limiters that can drop the counters of a
// finished session.
type forgetter interface {
	Forget(prefix string)
}

// Manager is the in-memory registry of live sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	idleTTL  time.Duration
	limiter  gate.Limiter
	now      func() time.Time
}

// NewManager returns a Manager expiring sessions idle for longer than
// idleTTL. Zero disables expiry.
func NewManager(idleTTL time.Duration, limiter gate.Limiter) *Manager {
	if limiter == nil {
		limiter = gate.Unlimited{}
	}
	return &Manager{
		sessions: make(map[string]*Session),
		idleTTL:  idleTTL,
		limiter:  limiter,
		now:      time.Now,
	}
}

// Create registers a new session for the user holding the given one-time
// code.
func (m *Manager) Create(userID, email, code string) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		UserID:   userID,
		Email:    email,
		code:     code,
		gates:    make(map[string]*gate.Gate),
		limiter:  m.limiter,
		lastSeen: m.now(),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns the live session with the given id and marks it used.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}

	now := m.now()
	if m.idleTTL > 0 && s.idleSince(now) > m.idleTTL {
		m.Delete(id)
		return nil, false
	}
	s.touch(now)
	return s, true
}

// Delete ends one session.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		m.forget(id)
	}
}

// DeleteUser ends every session of userID and returns how many ended.
func (m *Manager) DeleteUser(userID string) int {
	var ids []string

	m.mu.Lock()
	for id, s := range m.sessions {
		if s.UserID == userID {
			ids = append(ids, id)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.forget(id)
	}
	return len(ids)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep ends idle sessions and returns how many ended.
func (m *Manager) Sweep() int {
	if m.idleTTL <= 0 {
		return 0
	}
	now := m.now()

	var ids []string
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.idleSince(now) > m.idleTTL {
			ids = append(ids, id)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.forget(id)
	}
	return len(ids)
}

// StartSweeper runs Sweep every interval until ctx is done.
func (m *Manager) StartSweeper(ctx context.Context, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info("Session sweeper stopped")
				return
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					log.Info("Expired idle sessions", zap.Int("count", n))
				}
			}
		}
	}()
}

func (m *Manager) forget(id string) {
	if f, ok := m.limiter.(forgetter); ok {
		f.Forget(id + ":")
	}
}
