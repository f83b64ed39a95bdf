// Package preview hands out revocable references to document bytes for thumbnail rendering.
package preview

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const refPrefix = "prv_"

var ErrRevoked = errors.New("preview: reference not found or revoked")

type entry struct {
	data      []byte
	mediaType string
}

// Registry maps preview references to bytes until they are revoked.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Create registers data and returns a new reference.
func (r *Registry) Create(data []byte, mediaType string) string {
	ref := refPrefix + uuid.NewString()
	r.mu.Lock()
	r.entries[ref] = entry{data: data, mediaType: mediaType}
	r.mu.Unlock()
	return ref
}

// Open returns the bytes and media type behind ref.
func (r *Registry) Open(ref string) ([]byte, string, error) {
	if !strings.HasPrefix(ref, refPrefix) {
		return nil, "", ErrRevoked
	}
	r.mu.RLock()
	e, ok := r.entries[ref]
	r.mu.RUnlock()
	if !ok {
		return nil, "", ErrRevoked
	}
	return e.data, e.mediaType, nil
}

// Revoke releases one reference. Revoking twice is a no-op.
func (r *Registry) Revoke(ref string) {
	r.mu.Lock()
	delete(r.entries, ref)
	r.mu.Unlock()
}

// RevokeAll releases every reference and returns how many were live.
func (r *Registry) RevokeAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.entries)
	r.entries = make(map[string]entry)
	return n
}

// Len reports the number of live references.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
