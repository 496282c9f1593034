// Package state holds the swappable "current dataset" references used by the
// presentation layers.
package state

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/KaramelBytes/trendloom/internal/dataset"
	"github.com/google/uuid"
)

// Current is an owned reference to the dataset being analyzed. Readers always
// observe a complete Dataset; replacement is a single atomic swap.
type Current struct {
	ds       atomic.Pointer[dataset.Dataset]
	lastSeen atomic.Int64
}

// Load returns the current dataset, or nil when nothing has been loaded.
func (c *Current) Load() *dataset.Dataset {
	c.touch()
	return c.ds.Load()
}

// Store replaces the current dataset.
func (c *Current) Store(ds *dataset.Dataset) {
	c.touch()
	c.ds.Store(ds)
}

// Swap replaces the current dataset and returns the previous one.
func (c *Current) Swap(ds *dataset.Dataset) *dataset.Dataset {
	c.touch()
	return c.ds.Swap(ds)
}

// CompareAndSwap replaces old with ds only if old is still current. Edit
// commits use it so a concurrent upload is never overwritten by a stale edit.
func (c *Current) CompareAndSwap(old, ds *dataset.Dataset) bool {
	c.touch()
	return c.ds.CompareAndSwap(old, ds)
}

func (c *Current) touch() { c.lastSeen.Store(time.Now().UnixNano()) }

// Registry maps session ids to their Current.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Current
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Current)}
}

// Create registers a fresh session and returns its id.
func (r *Registry) Create() (string, *Current) {
	id := uuid.NewString()
	c := &Current{}
	c.touch()
	r.mu.Lock()
	r.sessions[id] = c
	r.mu.Unlock()
	return id, c
}

// Get looks up an existing session.
func (r *Registry) Get(id string) (*Current, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.sessions[id]
	return c, ok
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Prune drops sessions idle for longer than ttl and returns how many were removed.
func (r *Registry) Prune(now time.Time, ttl time.Duration) int {
	cutoff := now.Add(-ttl).UnixNano()
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, c := range r.sessions {
		if c.lastSeen.Load() < cutoff {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}
