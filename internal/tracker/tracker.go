// Package tracker maintains the mapping from guest memory ranges to the
// cache entries decoded from them, so that guest memory writes can be
// translated into precise cache invalidations.
//
// The mapping is an explicit owned index from range to entry key rather
// than back-pointers embedded in cache entries, which keeps ownership
// between entries and the index acyclic.
package tracker

import "sync"

// span is a half-open byte range [start, end).
type span struct {
	start uint64
	end   uint64
}

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// Index maps registered address ranges to entry keys.
//
// Index is safe for concurrent use.
// Index must not be copied after creation (has mutex).
type Index[K comparable] struct {
	mu      sync.Mutex
	entries map[K]span
}

// New creates an empty index.
func New[K comparable]() *Index[K] {
	return &Index[K]{entries: make(map[K]span)}
}

// Register records that key covers size bytes starting at start.
// Re-registering a key replaces its previous range.
func (ix *Index[K]) Register(key K, start, size uint64) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries[key] = span{start: start, end: start + size}
}

// Unregister removes a key from the index.
// Returns true if the key was found and removed.
func (ix *Index[K]) Unregister(key K) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, ok := ix.entries[key]; ok {
		delete(ix.entries, key)
		return true
	}
	return false
}

// Overlapping returns the keys whose registered ranges intersect the
// size bytes starting at start. Order is unspecified.
func (ix *Index[K]) Overlapping(start, size uint64) []K {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	query := span{start: start, end: start + size}
	var keys []K
	for key, s := range ix.entries {
		if s.overlaps(query) {
			keys = append(keys, key)
		}
	}
	return keys
}

// Len returns the number of registered keys.
func (ix *Index[K]) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.entries)
}
