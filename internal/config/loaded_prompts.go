package config

import (
	"sync"
)

// LoadedPrompts holds the content of prompts loaded from files for one
// operation
type LoadedPrompts struct {
	System string
	User   string
}

// promptRegistry is replaced wholesale on reload, so readers never see a
// half-loaded set
type promptRegistry struct {
	mu   sync.RWMutex
	byOp map[string]LoadedPrompts
}

var loadedPrompts = &promptRegistry{byOp: map[string]LoadedPrompts{}}

func (r *promptRegistry) replace(next map[string]LoadedPrompts) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byOp = next
}

func (r *promptRegistry) get(operation string) LoadedPrompts {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byOp[operation]
}

func (r *promptRegistry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, p := range r.byOp {
		if p.System != "" {
			n++
		}
		if p.User != "" {
			n++
		}
	}
	return n
}

// GetPromptsForOperation returns a copy of the loaded prompts for an operation
func GetPromptsForOperation(operation string) LoadedPrompts {
	return loadedPrompts.get(operation)
}
