package core

import "sync"

// AdmitOutcome is the result of asking the registry to admit an identity.
type AdmitOutcome int

const (
	// Admitted means a new entry was appended.
	Admitted AdmitOutcome = iota
	// Reconnected means an entry owned by the same connection was replaced in place.
	Reconnected
	// Rejected means another connection already holds the name.
	Rejected
)

func (o AdmitOutcome) String() string {
	switch o {
	case Admitted:
		return "admitted"
	case Reconnected:
		return "reconnected"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Registry is the table of currently admitted identities.
// Entries keep insertion order; reconnects keep their position.
type Registry struct {
	mu      sync.RWMutex
	policy  Policy
	entries []Identity
	byName  map[string]int // normalized name -> index into entries
	byConn  map[string]int // conn id -> index into entries
}

// NewRegistry builds an empty registry. A nil policy grants nothing.
func NewRegistry(policy Policy) *Registry {
	if policy == nil {
		policy = ReservedAdminPolicy("", "")
	}
	return &Registry{
		policy: policy,
		byName: make(map[string]int),
		byConn: make(map[string]int),
	}
}

// Admit inserts or replaces the entry for requested.
// The returned identity carries the display name computed by the policy.
func (r *Registry) Admit(requested Identity) (Identity, AdmitOutcome) {
	key := normalizeName(requested.Name)
	requested.DisplayName = r.policy.Resolve(requested).DisplayName

	r.mu.Lock()
	defer r.mu.Unlock()

	if idx, ok := r.byName[key]; ok {
		if r.entries[idx].ConnID != requested.ConnID {
			return r.entries[idx], Rejected
		}
		r.entries[idx] = requested
		return requested, Reconnected
	}

	// Same connection re-joining under a new name.
	if idx, ok := r.byConn[requested.ConnID]; ok {
		delete(r.byName, normalizeName(r.entries[idx].Name))
		r.entries[idx] = requested
		r.byName[key] = idx
		return requested, Reconnected
	}

	r.entries = append(r.entries, requested)
	idx := len(r.entries) - 1
	r.byName[key] = idx
	r.byConn[requested.ConnID] = idx
	return requested, Admitted
}

// Remove deletes the entry owned by connID. Absent entries are a no-op.
func (r *Registry) Remove(connID string) (Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.byConn[connID]
	if !ok {
		return Identity{}, false
	}
	removed := r.entries[idx]
	r.entries = append(r.entries[:idx], r.entries[idx+1:]...)
	r.reindex()
	return removed, true
}

// Find returns the entry owned by connID.
func (r *Registry) Find(connID string) (Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byConn[connID]
	if !ok {
		return Identity{}, false
	}
	return r.entries[idx], true
}

// Snapshot returns a copy of all entries in insertion order.
func (r *Registry) Snapshot() []Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Identity, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of admitted identities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) reindex() {
	clear(r.byName)
	clear(r.byConn)
	for i, id := range r.entries {
		r.byName[normalizeName(id.Name)] = i
		r.byConn[id.ConnID] = i
	}
}
