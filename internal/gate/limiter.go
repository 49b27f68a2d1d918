package gate

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Limiter bounds failed code submissions per gate key.
type Limiter interface {
	// Allow reports whether another attempt may be made for key.
	Allow(ctx context.Context, key string) (bool, error)
	// Fail records a failed attempt for key.
	Fail(ctx context.Context, key string) error
	// Reset forgets the failures of key after a successful attempt.
	Reset(ctx context.Context, key string) error
}

// Unlimited never refuses an attempt.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (bool, error) { return true, nil }
func (Unlimited) Fail(context.Context, string) error          { return nil }
func (Unlimited) Reset(context.Context, string) error         { return nil }

type window struct {
	failures int
	start    time.Time
}

// MemoryLimiter counts failures per key in a fixed window held in process
// memory.
type MemoryLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	now     func() time.Time
	entries map[string]*window
}

// NewMemoryLimiter allows max failures per key within w.
func NewMemoryLimiter(max int, w time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		max:     max,
		window:  w,
		now:     time.Now,
		entries: make(map[string]*window),
	}
}

func (l *MemoryLimiter) current(key string) *window {
	e, ok := l.entries[key]
	if !ok {
		return nil
	}
	if l.now().Sub(e.start) >= l.window {
		delete(l.entries, key)
		return nil
	}
	return e
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.current(key)
	return e == nil || e.failures < l.max, nil
}

func (l *MemoryLimiter) Fail(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.current(key)
	if e == nil {
		e = &window{start: l.now()}
		l.entries[key] = e
	}
	e.failures++
	return nil
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, key)
	return nil
}

// Forget drops every counter whose key starts with prefix. Sessions call it
// when they end.
func (l *MemoryLimiter) Forget(prefix string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for k := range l.entries {
		if strings.HasPrefix(k, prefix) {
			delete(l.entries, k)
		}
	}
}
