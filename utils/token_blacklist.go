package utils

import (
	"sync"
	"time"
)

// TokenBlacklist remembers revoked token ids until they would have expired anyway.
type TokenBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewTokenBlacklist() *TokenBlacklist {
	return &TokenBlacklist{entries: map[string]time.Time{}, now: time.Now}
}

// Revoke stores a token id until expiration to support logout semantics.
func (b *TokenBlacklist) Revoke(id string, expiresAt time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.purgeLocked()
	if expiresAt.After(b.now()) {
		b.entries[id] = expiresAt
	}
}

// IsRevoked checks if a token was revoked before natural expiration.
func (b *TokenBlacklist) IsRevoked(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.entries[id]
	if !ok {
		return false
	}
	if b.now().After(exp) {
		delete(b.entries, id)
		return false
	}
	return true
}

// Len is the number of live entries.
func (b *TokenBlacklist) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.purgeLocked()
	return len(b.entries)
}

func (b *TokenBlacklist) purgeLocked() {
	now := b.now()
	for id, exp := range b.entries {
		if now.After(exp) {
			delete(b.entries, id)
		}
	}
}
