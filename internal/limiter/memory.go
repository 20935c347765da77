package limiter

import (
	"context"
	"strings"
	"sync"
	"time"
)

type attempts struct {
	fails        int
	updatedAt    time.Time
	blockedUntil time.Time
}

// Memory is an in-process limiter with a sliding failure window and lockout.
type Memory struct {
	mu       sync.Mutex
	rows     map[string]*attempts
	window   time.Duration
	maxFails int
	blockFor time.Duration
	now      func() time.Time
}

// NewMemory blocks a (email, ip) pair for blockFor once maxFails failures
// happen with less than window between consecutive attempts.
func NewMemory(window time.Duration, maxFails int, blockFor time.Duration) *Memory {
	return &Memory{
		rows:     map[string]*attempts{},
		window:   window,
		maxFails: maxFails,
		blockFor: blockFor,
		now:      time.Now,
	}
}

// WithClock replaces time.Now; for tests.
func (l *Memory) WithClock(now func() time.Time) *Memory {
	l.now = now
	return l
}

func rowKey(email string, ipHash []byte) string {
	return strings.ToLower(strings.TrimSpace(email)) + "\x00" + string(ipHash)
}

// Allow reports whether login is currently allowed and a retry-after duration.
func (l *Memory) Allow(_ context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.rows[rowKey(email, ipHash)]
	if !ok {
		return true, 0, nil
	}
	if now := l.now(); a.blockedUntil.After(now) {
		return false, a.blockedUntil.Sub(now), nil
	}
	return true, 0, nil
}

// Success resets counters for (email, ip).
func (l *Memory) Success(_ context.Context, email string, ipHash []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.rows, rowKey(email, ipHash))
	return nil
}

// Failure records a failed attempt; may set a block until a future time.
func (l *Memory) Failure(_ context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	k := rowKey(email, ipHash)
	a, ok := l.rows[k]
	if !ok {
		a = &attempts{}
		l.rows[k] = a
	}
	if now.Sub(a.updatedAt) > l.window {
		a.fails = 0
	}
	a.fails++
	a.updatedAt = now
	if a.fails >= l.maxFails {
		a.blockedUntil = now.Add(l.blockFor)
		return true, l.blockFor, nil
	}
	return false, 0, nil
}
