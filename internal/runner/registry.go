package runner

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrUnexpectedConstructor is returned by a wrapping runner (e.g.
// ysql) when the underlying constructor it delegates to doesn't
// return the concrete type it expects.
var ErrUnexpectedConstructor = errors.New("runner: constructor returned unexpected type")

// Constructor builds a Runner from a DSN. Registered runners are
// resolved by name through a Registry, replacing the teacher/source's
// load-time global registration per design note §9 ("Mutable global
// registries become registry objects passed by reference").
type Constructor func(cfg Config) (Runner, error)

// Registry maps runner names to constructors and resolves aliases,
// per spec.md §6 "Runner registry".
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry returns an empty registry. Callers register concrete
// runner packages (postgresql, ysql, ycql) at construction time.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Register binds name to a constructor.
func (r *Registry) Register(name string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[name] = ctor
}

// canonicalName resolves spec.md §6's target-API aliases:
// ysql→ysql, ycql→ycql, postgres|postgresql|sql→postgresql.
func canonicalName(name string) string {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "sql":
		return "postgresql"
	case "ysql":
		return "ysql"
	case "ycql":
		return "ycql"
	default:
		return strings.ToLower(name)
	}
}

// Build resolves name (applying alias rules) and constructs a Runner.
func (r *Registry) Build(name string, cfg Config) (Runner, error) {
	canon := canonicalName(name)
	r.mu.RLock()
	ctor, ok := r.ctors[canon]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("runner: no runner registered for %q", name)
	}
	return ctor(cfg)
}

// Names returns the set of registered runner names, for the CLI's
// `runners` mode.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ctors))
	for n := range r.ctors {
		names = append(names, n)
	}
	return names
}
