package auth

import (
	"context"
	"errors"
	"sync"
)

// ErrNoToken indicates a backend holds no token yet.
var ErrNoToken = errors.New("auth: no token stored")

// Backend persists OAuth tokens between runs. Load returns ErrNoToken when
// nothing is stored. Implementations must be safe for concurrent use.
type Backend interface {
	// Load retrieves the stored token.
	Load(ctx context.Context) (*Token, error)
	// Store persists the token, replacing any previous one.
	Store(ctx context.Context, token *Token) error
	// Delete removes the stored token. Deleting a missing token is not
	// an error.
	Delete(ctx context.Context) error
	// Exists reports whether a token is stored.
	Exists(ctx context.Context) (bool, error)
}

// MemoryBackend keeps the token in process memory. It is the zero-setup
// backend used by tests and short-lived tools.
type MemoryBackend struct {
	mu    sync.Mutex
	token *Token
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Load retrieves the stored token.
func (b *MemoryBackend) Load(_ context.Context) (*Token, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.token == nil {
		return nil, ErrNoToken
	}
	return b.token.Clone(), nil
}

// Store persists the token.
func (b *MemoryBackend) Store(_ context.Context, token *Token) error {
	if token == nil {
		return errors.New("auth: cannot store a nil token")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.token = token.Clone()
	return nil
}

// Delete removes the stored token.
func (b *MemoryBackend) Delete(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.token = nil
	return nil
}

// Exists reports whether a token is stored.
func (b *MemoryBackend) Exists(_ context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token != nil, nil
}
