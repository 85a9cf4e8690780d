// Package directory implements the session directory: the mapping from
// short shareable room codes to live host endpoints. Hosts claim a code when
// they open an endpoint; clients resolve a code to find out where to dial.
package directory

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrCodeTaken   = errors.New("session code already in use")
	ErrCodeUnknown = errors.New("unknown session code")
)

type entry struct {
	addr      string
	expiresAt time.Time
}

// Registry is the in-memory code -> host-address table. Registrations expire
// unless refreshed, so codes of crashed hosts become reusable.
type Registry struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]entry
}

func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Registry{ttl: ttl, entries: make(map[string]entry)}
}

// Claim registers code for addr. A live registration for the same code by a
// different host is a collision.
func (r *Registry) Claim(code, addr string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[code]; ok && now.Before(e.expiresAt) && e.addr != addr {
		return ErrCodeTaken
	}
	r.entries[code] = entry{addr: addr, expiresAt: now.Add(r.ttl)}
	return nil
}

// Refresh extends a registration's lease.
func (r *Registry) Refresh(code, addr string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[code]
	if !ok || now.After(e.expiresAt) || e.addr != addr {
		return ErrCodeUnknown
	}
	e.expiresAt = now.Add(r.ttl)
	r.entries[code] = e
	return nil
}

// Resolve returns the host address behind code.
func (r *Registry) Resolve(code string, now time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[code]
	if !ok || now.After(e.expiresAt) {
		return "", ErrCodeUnknown
	}
	return e.addr, nil
}

// Release removes a registration; only the owning address may release it.
func (r *Registry) Release(code, addr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[code]; ok && e.addr == addr {
		delete(r.entries, code)
	}
}

// Sweep drops expired registrations and reports how many were removed.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for code, e := range r.entries {
		if now.After(e.expiresAt) {
			delete(r.entries, code)
			n++
		}
	}
	return n
}
