package claim

import (
	"strings"
	"sync"

	goverrors "github.com/felixgeelhaar/govern/internal/errors"
)

// Entry pairs a claim with the check that verifies it
type Entry struct {
	Claim Claim
	Check Check
}

// Registry holds claims in registration order
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
	index   map[string]int
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register adds a claim. IDs must be non-empty and unique.
func (r *Registry) Register(c Claim, check Check) error {
	if strings.TrimSpace(c.ID) == "" {
		return goverrors.NewClaimRegistrationError(c.ID, "claim id is required")
	}
	if check == nil {
		return goverrors.NewClaimRegistrationError(c.ID, "check is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[c.ID]; exists {
		return goverrors.NewClaimRegistrationError(c.ID, "duplicate claim id")
	}
	r.index[c.ID] = len(r.entries)
	r.entries = append(r.entries, Entry{Claim: c, Check: check})
	return nil
}

// Entries returns a copy of the registered entries in registration order
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)
	return entries
}

// Claims returns the registered claims in registration order
func (r *Registry) Claims() []Claim {
	r.mu.RLock()
	defer r.mu.RUnlock()

	claims := make([]Claim, len(r.entries))
	for i, e := range r.entries {
		claims[i] = e.Claim
	}
	return claims
}

// Len returns the number of registered claims
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
