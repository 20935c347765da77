package tokenstore

import (
	"context"
	"sync"
	"time"

	"github.com/softseven/studio-admin/internal/errs"
)

// MemoryStore keeps the token in process memory.
type MemoryStore struct {
	mu  sync.Mutex
	tok *Token
	now func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{now: time.Now} }

// Load returns the token if present and not expired.
func (m *MemoryStore) Load(context.Context) (Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tok == nil || m.tok.Value == "" || m.tok.Expired(m.now()) {
		return Token{}, errs.ErrNoToken
	}
	return *m.tok, nil
}

// Save replaces the stored token.
func (m *MemoryStore) Save(_ context.Context, tok Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = &tok
	return nil
}

// Clear removes the token.
func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = nil
	return nil
}
