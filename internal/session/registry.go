package session

import (
	"sort"
	"sync"

	"resumecraft/internal/reconcile"
	"resumecraft/internal/state"
)

// DefaultSurface names the editing surface used when the caller does not
// pick one.
const DefaultSurface = "default"

// Registry holds one EditSession per editing surface of a workspace.
type Registry struct {
	store      *state.Store
	reconciler *reconcile.Reconciler

	mu       sync.Mutex
	sessions map[string]*EditSession
}

// NewRegistry creates an empty registry over store.
func NewRegistry(store *state.Store, reconciler *reconcile.Reconciler) *Registry {
	return &Registry{
		store:      store,
		reconciler: reconciler,
		sessions:   make(map[string]*EditSession),
	}
}

// Surface returns the session for name, creating it on first use.
func (r *Registry) Surface(name string) *EditSession {
	if name == "" {
		name = DefaultSurface
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[name]
	if !ok {
		s = New(r.store, r.reconciler)
		r.sessions[name] = s
	}
	return s
}

// Close drops the session for name, discarding uncommitted edits.
func (r *Registry) Close(name string) {
	r.mu.Lock()
	delete(r.sessions, name)
	r.mu.Unlock()
}

// Surfaces lists the open surface names in order.
func (r *Registry) Surfaces() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.sessions))
	for name := range r.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
