package schema

import (
	"sort"
	"sync"
	"sync/atomic"
)

// statements holds the DDL text derived from one schema. It never changes
// once stored.
type statements struct {
	columns string
	create  string
	drop    string

	// created is set once this process has issued CREATE for the schema.
	created atomic.Bool
}

// Registry caches schema-derived DDL text by table name. It is shared by
// every Table constructed against it and is safe for concurrent use: lookups
// take a read lock, and a miss synthesizes text outside any lock before
// storing it under the write lock. The first stored entry for a name wins.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*statements
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*statements)}
}

func (r *Registry) lookup(name string, build func() *statements) *statements {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()
	if ok {
		return entry
	}

	built := build()

	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.entries[name]; ok {
		return entry
	}
	r.entries[name] = built
	return built
}

// Has reports whether DDL text is cached for name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Created reports whether CREATE has been issued for name in this process.
func (r *Registry) Created(name string) bool {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()
	return ok && entry.created.Load()
}

// Names lists the cached schema names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
