package usecase

import "sync"

// IdentityLocks serializes mutating flows per identity. Read-compare-write
// sequences (refresh rotation, secret redemption, password reset) must not
// interleave for the same user, else a consumed secret could succeed twice
// or a revoked refresh reference could be re-installed. Every service that
// mutates session or secret state must share one instance, so the
// serialization holds across flows, not just within one.
type IdentityLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// NewIdentityLocks constructs an empty lock set.
func NewIdentityLocks() *IdentityLocks {
	return &IdentityLocks{locks: make(map[string]*lockEntry)}
}

// Lock acquires the mutex for the given key and returns its release
// function. Entries are reference counted so the map does not grow with
// the number of users ever seen.
func (k *IdentityLocks) Lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
