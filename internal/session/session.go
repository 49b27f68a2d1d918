// Package session holds the per-login reveal state: the cached one-time
// code and the gates of every secret the user asked to see.
package session

import (
	"sync"
	"time"

	"github.com/palamut62/my-notes/internal/gate"
)

// Session is the server-side state of one login.
type Session struct {
	ID     string
	UserID string
	Email  string

	mu       sync.Mutex
	code     string
	gates    map[string]*gate.Gate
	deletion *gate.Gate
	delCode  string
	limiter  gate.Limiter
	lastSeen time.Time
}

// Code returns the one-time code cached at login.
func (s *Session) Code() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

// SetCode replaces the cached one-time code.
func (s *Session) SetCode(code string) {
	s.mu.Lock()
	s.code = code
	s.mu.Unlock()
}

// Gate returns the gate of itemID, creating a hidden one on first use.
func (s *Session) Gate(itemID string) *gate.Gate {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.gates[itemID]
	if !ok {
		g = gate.New(s.ID+":"+itemID, s.limiter)
		s.gates[itemID] = g
	}
	return g
}

// LookupGate returns the gate of itemID if one exists.
func (s *Session) LookupGate(itemID string) (*gate.Gate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.gates[itemID]
	return g, ok
}

// Revealed reports whether itemID is currently revealed.
func (s *Session) Revealed(itemID string) bool {
	g, ok := s.LookupGate(itemID)
	return ok && g.State() == gate.Revealed
}

// DropGate forgets the gate of itemID.
func (s *Session) DropGate(itemID string) {
	s.mu.Lock()
	delete(s.gates, itemID)
	s.mu.Unlock()
}

// GateCount returns the number of live item gates.
func (s *Session) GateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.gates)
}

// StartDeletion opens the deletion prompt with a fresh code. The code only
// lives in memory and replaces any earlier deletion code.
func (s *Session) StartDeletion() (string, error) {
	code, err := gate.NewCode()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.delCode = code
	s.deletion = gate.New(s.ID+":account-deletion", s.limiter)
	s.deletion.RequestReveal()
	return code, nil
}

// Deletion returns the deletion gate and its code, or nil when no deletion
// was started.
func (s *Session) Deletion() (*gate.Gate, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletion, s.delCode
}

// ClearDeletion drops the deletion gate and its code.
func (s *Session) ClearDeletion() {
	s.mu.Lock()
	s.deletion = nil
	s.delCode = ""
	s.mu.Unlock()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}
