// Package modules implements spec.md §6.3's module bootstrap contract:
// `import <name>` looks up a native initializer by name and calls it to
// obtain a Module object. The CORE owns this registry protocol only;
// module bodies (e.g. pkg/ext/mathmod) live outside it.
package modules

import (
	"fmt"
	"sync"

	"github.com/ember-lang/ember/internal/object"
)

// Initializer builds a fresh Module object. Called at most once per
// name per Registry (the result is cached), matching the teacher's
// loader.go cache shape.
type Initializer func() (*object.Module, error)

// Registry is a name -> Initializer table with a load-once cache.
// Implements vm.ModuleLoader.
type Registry struct {
	mu    sync.Mutex
	inits map[string]Initializer
	cache map[string]*object.Module
}

func NewRegistry() *Registry {
	return &Registry{
		inits: map[string]Initializer{},
		cache: map[string]*object.Module{},
	}
}

// Register binds name to init. Re-registering a name overwrites the
// previous binding and evicts any cached instance.
func (r *Registry) Register(name string, init Initializer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inits[name] = init
	delete(r.cache, name)
}

// Load resolves name, calling its Initializer on first use.
func (r *Registry) Load(name string) (*object.Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.cache[name]; ok {
		return m, nil
	}
	init, ok := r.inits[name]
	if !ok {
		return nil, fmt.Errorf("no module registered for %q", name)
	}
	m, err := init()
	if err != nil {
		return nil, err
	}
	r.cache[name] = m
	return m, nil
}
