// Package handles binds owned engine instances to host object identities.
//
// The host runtime cannot hold a native pointer in its own object storage,
// so each host object is keyed by a stable numeric identity instead. The
// registry is a process-wide arena mapping that identity to an engine plus
// a per-handle mutex. An identity moves through three states: uninstalled
// (absent), installed, and destroyed (absent again); Install, Acquire and
// Remove enforce the transitions and reject everything else.
package handles

import (
	"errors"
	"sync"
)

// ObjectID identifies one host-side object for the lifetime of the process.
type ObjectID uint64

var (
	// ErrAlreadyInstalled is returned by Install when the identity already
	// has a live handle (double initialization).
	ErrAlreadyInstalled = errors.New("handle already installed for object")

	// ErrNotInstalled is returned by Acquire and Remove when the identity
	// has no live handle (use before init, use after destroy, or double
	// destroy).
	ErrNotInstalled = errors.New("no handle installed for object")
)

// Registry is a thread-safe arena of per-object handles. The zero value is
// not usable; construct with NewRegistry.
type Registry[E any] struct {
	mu      sync.Mutex
	entries map[ObjectID]*entry[E]
}

// entry.mu serializes all use of the engine, including teardown. destroyed
// is only read and written under entry.mu.
type entry[E any] struct {
	mu        sync.Mutex
	engine    E
	destroyed bool
}

func NewRegistry[E any]() *Registry[E] {
	return &Registry[E]{entries: make(map[ObjectID]*entry[E])}
}

// Install registers engine under id. It fails with ErrAlreadyInstalled if a
// live handle exists for id; the caller keeps ownership of engine in that
// case.
func (r *Registry[E]) Install(id ObjectID, engine E) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; exists {
		return ErrAlreadyInstalled
	}

	r.entries[id] = &entry[E]{engine: engine}
	return nil
}

// Acquire returns a locked view of id's engine, blocking until the handle's
// lock is free. The caller must call Release on the returned guard on every
// exit path. Acquire fails with ErrNotInstalled if id has no live handle,
// including when the handle was destroyed while this call waited for the
// lock.
func (r *Registry[E]) Acquire(id ObjectID) (*Guard[E], error) {
	r.mu.Lock()
	e, ok := r.entries[id]
	r.mu.Unlock()

	if !ok {
		return nil, ErrNotInstalled
	}

	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return nil, ErrNotInstalled
	}

	return &Guard[E]{entry: e}, nil
}

// Remove unregisters id and transfers the engine back to the caller, who
// becomes responsible for releasing its resources. Remove takes the
// per-handle lock first, so it waits out any in-flight use of the handle;
// acquirers that raced past the map lookup observe the destroyed state and
// fail. A second Remove for the same id fails with ErrNotInstalled.
func (r *Registry[E]) Remove(id ObjectID) (E, error) {
	var zero E

	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()

	if !ok {
		return zero, ErrNotInstalled
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.destroyed = true
	engine := e.engine
	e.engine = zero
	return engine, nil
}

// Len returns the number of live handles.
func (r *Registry[E]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Guard is an exclusively locked view of one handle's engine. No other use
// of the same handle (including destruction) proceeds until Release.
type Guard[E any] struct {
	entry    *entry[E]
	released bool
}

// Engine returns the guarded engine. Must not be retained past Release.
func (g *Guard[E]) Engine() E {
	return g.entry.engine
}

// Release unlocks the handle. Calling Release more than once is a no-op.
func (g *Guard[E]) Release() {
	if g.released {
		return
	}
	g.released = true
	g.entry.mu.Unlock()
}
