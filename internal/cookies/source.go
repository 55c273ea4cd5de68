package cookies

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrCookieNotFound is returned when no cookie string is stored for a domain.
	ErrCookieNotFound = errors.New("cookie not found")

	// ErrEmptyDomain is returned when a domain is required but missing.
	ErrEmptyDomain = errors.New("domain is required")
)

// Source returns the most recently committed raw cookie string for a domain.
// ok is false when nothing is stored, which is a normal state and not an error.
type Source interface {
	Cookie(ctx context.Context, domain string) (raw string, ok bool, err error)
}

// MemorySource implements Source using in-memory storage.
// Data is lost on restart.
type MemorySource struct {
	mu      sync.RWMutex
	cookies map[string]string
}

var _ Source = (*MemorySource)(nil)

// NewMemorySource creates an empty in-memory cookie source.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		cookies: make(map[string]string),
	}
}

func (m *MemorySource) Cookie(ctx context.Context, domain string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	raw, ok := m.cookies[domain]
	return raw, ok, nil
}

// Set replaces the cookie string for domain.
func (m *MemorySource) Set(domain, raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cookies[domain] = raw
}

// Delete removes the cookie string for domain.
func (m *MemorySource) Delete(domain string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.cookies, domain)
}
