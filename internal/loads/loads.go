// Package loads tracks every in-flight image load. Loads are indexed two
// ways: by url, consulted when starting or finishing a load, and by load
// key, the fast path used during response delivery.
package loads

import (
	"sync"

	"github.com/veldt/imagecache/internal/imagetype"
)

// AllPendingLoads owns the pending-load lifecycle from creation to removal.
// Both indices live under one lock, so no reader ever observes them
// disagreeing: a url is tracked iff its key is, with identical cardinality.
type AllPendingLoads struct {
	mu     sync.RWMutex
	byKey  map[imagetype.Key]*PendingLoad
	byURL  map[string]imagetype.Key
	keygen imagetype.Generator
}

// New returns an empty pending-load index.
func New() *AllPendingLoads {
	return &AllPendingLoads{
		byKey: make(map[imagetype.Key]*PendingLoad),
		byURL: make(map[string]imagetype.Key),
	}
}

// IsEmpty reports whether no loads are pending. The indices must agree on
// emptiness; a disagreement means the index is corrupt and panics.
func (a *AllPendingLoads) IsEmpty() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if (len(a.byKey) == 0) != (len(a.byURL) == 0) {
		panic("imagecache: pending-load indices disagree")
	}
	return len(a.byKey) == 0
}

// Len returns the number of pending loads, panicking if the indices have
// diverged in cardinality.
func (a *AllPendingLoads) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.byKey) != len(a.byURL) {
		panic("imagecache: pending-load indices disagree")
	}
	return len(a.byKey)
}

// Get returns the pending load for key.
func (a *AllPendingLoads) Get(key imagetype.Key) (*PendingLoad, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	pl, ok := a.byKey[key]
	return pl, ok
}

// Remove deletes the load for key from both indices in one critical
// section. It returns the removed load, or false if the key is unknown.
func (a *AllPendingLoads) Remove(key imagetype.Key) (*PendingLoad, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	pl, ok := a.byKey[key]
	if !ok {
		return nil, false
	}
	delete(a.byKey, key)
	delete(a.byURL, pl.url)
	return pl, true
}

// GetOrCreate is the dedup primitive. If url is already tracked it returns
// the existing key and load with created=false. If untracked and canRequest
// is true, it allocates a key, creates the load, inserts it into both
// indices, and returns created=true: the caller must originate the fetch.
// If untracked and canRequest is false, nothing is created and the returned
// load is nil.
//
// Concurrent first requests for one url resolve to exactly one creator; the
// others observe the winner's entry as an ordinary hit.
func (a *AllPendingLoads) GetOrCreate(url string, canRequest bool) (imagetype.Key, *PendingLoad, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if key, ok := a.byURL[url]; ok {
		return key, a.byKey[key], false
	}
	if !canRequest {
		return 0, nil, false
	}
	key := a.keygen.Next()
	pl := newPendingLoad(url)
	a.byKey[key] = pl
	a.byURL[url] = key
	return key, pl, true
}
