package grammar

import (
	"fmt"
	"sync"
)

// Registry maps grammar names to loaded Grammars, the Go analogue of
// spec.md §6's "grammar file contract": rather than loading a
// host-language module and reading a `g`/`grammar` value out of it, a
// Go grammar package registers itself at import time, the same
// blank-import self-registration idiom `database/sql` drivers (and
// this project's own lib/pq dependency) use.
type Registry struct {
	mu       sync.RWMutex
	grammars map[string]*Grammar
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{grammars: make(map[string]*Grammar)}
}

// Register binds name to g. A name collision is resolved by
// suffixing _2, _3, … per spec.md §6, rather than overwriting the
// earlier registration — mirroring PYRQG_GRAMMARS plugin merge rules.
func (r *Registry) Register(name string, g *Grammar) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	final := name
	for n := 2; ; n++ {
		if _, exists := r.grammars[final]; !exists {
			break
		}
		final = fmt.Sprintf("%s_%d", name, n)
	}
	r.grammars[final] = g
	return final
}

// Get looks up a registered grammar by name.
func (r *Registry) Get(name string) (*Grammar, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.grammars[name]
	return g, ok
}

// Names returns every registered grammar name, for the CLI's `list`
// mode.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.grammars))
	for n := range r.grammars {
		names = append(names, n)
	}
	return names
}

// Default is the process-wide registry that self-registering grammar
// packages use, analogous to database/sql's package-level driver
// registry.
var Default = NewRegistry()

// Register binds name to g in the Default registry. Grammar packages
// call this from an init() func, e.g.
// grammar.Register("simple", buildSimpleGrammar()).
func Register(name string, g *Grammar) string {
	return Default.Register(name, g)
}
