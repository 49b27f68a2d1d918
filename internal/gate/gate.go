// Package gate implements the step-up verification that stands in front of
// every disclosure of a stored secret: a secret stays hidden until the
// holder of the session's one-time code types it in.
package gate

import (
	"context"
	"crypto/subtle"
	"errors"
	"sync"
)

// InvalidCodeMessage is what the user sees after a wrong submission.
const InvalidCodeMessage = "Invalid verification code"

var (
	// ErrInvalidCode is returned by Submit for a wrong code.
	ErrInvalidCode = errors.New("invalid verification code")
	// ErrNotAwaitingCode is returned by Submit when no prompt is open.
	ErrNotAwaitingCode = errors.New("verification not requested")
	// ErrTooManyAttempts is returned by Submit while the limiter refuses
	// further attempts.
	ErrTooManyAttempts = errors.New("too many verification attempts")
	// ErrNoCode is returned when the session holds no code to compare with.
	ErrNoCode = errors.New("no verification code generated")
)

// State is the position of a Gate.
type State int

const (
	// Hidden: the secret is masked and no prompt is open.
	Hidden State = iota
	// AwaitingCode: the prompt is open, nothing disclosed yet.
	AwaitingCode
	// Revealed: the secret may be shown until Hide.
	Revealed
)

// String returns the wire name of s.
func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case AwaitingCode:
		return "awaiting_code"
	case Revealed:
		return "revealed"
	default:
		return "unknown"
	}
}

// Gate is the reveal state of one secret in one session. It is safe for
// concurrent use.
type Gate struct {
	mu      sync.Mutex
	state   State
	errMsg  string
	key     string
	limiter Limiter
}

// New returns a Hidden gate. key identifies the gate to the limiter and
// must be unique per session and item. A nil limiter allows unlimited
// attempts.
func New(key string, limiter Limiter) *Gate {
	if limiter == nil {
		limiter = Unlimited{}
	}
	return &Gate{key: key, limiter: limiter}
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Error returns the message to show under the prompt, or "".
func (g *Gate) Error() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.errMsg
}

// RequestReveal opens the verification prompt. A revealed gate stays
// revealed; an open prompt is reset.
func (g *Gate) RequestReveal() State {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != Revealed {
		g.state = AwaitingCode
		g.errMsg = ""
	}
	return g.state
}

// Submit compares code with expected. Equality is exact: no trimming, no
// case folding. A match moves the gate to Revealed; a mismatch leaves it
// awaiting and records InvalidCodeMessage.
func (g *Gate) Submit(ctx context.Context, code, expected string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != AwaitingCode {
		return ErrNotAwaitingCode
	}
	if expected == "" {
		g.errMsg = "No verification code generated"
		return ErrNoCode
	}

	if allowed, err := g.limiter.Allow(ctx, g.key); err == nil && !allowed {
		g.errMsg = "Too many attempts, try again later"
		return ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(code), []byte(expected)) != 1 {
		_ = g.limiter.Fail(ctx, g.key)
		g.errMsg = InvalidCodeMessage
		return ErrInvalidCode
	}

	_ = g.limiter.Reset(ctx, g.key)
	g.state = Revealed
	g.errMsg = ""
	return nil
}

// Cancel closes an open prompt without disclosing anything.
func (g *Gate) Cancel() State {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == AwaitingCode {
		g.state = Hidden
		g.errMsg = ""
	}
	return g.state
}

// Hide masks the secret again. Hiding a hidden gate does nothing; the
// next reveal needs the code again.
func (g *Gate) Hide() State {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == Revealed {
		g.state = Hidden
	}
	return g.state
}
