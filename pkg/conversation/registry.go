// Package conversation provides the in-process cache that maps a provider and
// a client-chosen conversation identifier to the engine's opaque continuation
// state, so a multi-turn dialogue resumes the correct engine-side context.
// State lives for the process lifetime only; optional LRU eviction bounds
// memory usage.
package conversation

import (
	"container/list"
	"sync"
)

// State is the engine-specific continuation value captured from a stream.
// The registry owns stored values after capture; callers reference them only
// by key and never hold them directly.
type State any

// Key addresses one conversation's continuation state. Conversation
// identifiers are untrusted, client-chosen strings.
type Key struct {
	Provider       string
	ConversationID string
}

// entry pairs a stored state with its LRU position.
type entry struct {
	state   State
	lruElem *list.Element
}

// Registry is a concurrency-safe conversation cache with optional LRU
// eviction. Writes follow last-write-wins semantics.
type Registry struct {
	mu      sync.RWMutex
	entries map[Key]*entry
	lruList *list.List // front = most recently used, back = least recently used
	maxSize int        // 0 = unlimited
}

// New creates a registry. If maxSize is 0 the registry grows without limit.
// If maxSize > 0, the least recently used entry is evicted when the limit
// is reached.
func New(maxSize int) *Registry {
	return &Registry{
		entries: make(map[Key]*entry),
		lruList: list.New(),
		maxSize: maxSize,
	}
}

// Get returns the continuation state stored under key. Both return values
// are total: a missing key yields (nil, false), never an error.
// Get refreshes recency, so it takes the write lock.
func (r *Registry) Get(key Key) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	if !ok {
		return nil, false
	}
	r.lruList.MoveToFront(e.lruElem)
	return e.state, true
}

// Put stores state under key, overwriting any previous value.
func (r *Registry) Put(key Key, state State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[key]; ok {
		e.state = state
		r.lruList.MoveToFront(e.lruElem)
		return
	}

	// Evict if at capacity.
	if r.maxSize > 0 && len(r.entries) >= r.maxSize {
		r.evictOldest()
	}

	elem := r.lruList.PushFront(key)
	r.entries[key] = &entry{state: state, lruElem: elem}
}

// Len reports the number of cached conversations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// evictOldest removes the least recently used entry.
// Must be called with r.mu held.
func (r *Registry) evictOldest() {
	back := r.lruList.Back()
	if back == nil {
		return
	}

	key := back.Value.(Key)
	r.lruList.Remove(back)
	delete(r.entries, key)
}
