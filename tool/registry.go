package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrDuplicateTool is returned when a tool name is registered twice.
	ErrDuplicateTool = errors.New("tool: duplicate tool name")
	// ErrInvalidDefinition is returned for definitions that cannot be registered.
	ErrInvalidDefinition = errors.New("tool: invalid definition")
)

// Handler implements one tool. Arguments have already been validated against
// the definition schema when the handler runs.
type Handler func(ctx context.Context, args Arguments) (Result, error)

// Definition is the registered record for one tool.
type Definition struct {
	Name        string
	Description string
	Schema      Schema
	Handler     Handler
}

// Registry maps tool names to definitions. It is built once at startup and
// read concurrently afterwards.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]Definition
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register inserts a definition. It fails when the name is already taken or
// the definition is incomplete.
func (r *Registry) Register(def Definition) error {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDefinition)
	}
	if name != def.Name {
		return fmt.Errorf("%w: name %q has surrounding whitespace", ErrInvalidDefinition, def.Name)
	}
	if def.Handler == nil {
		return fmt.Errorf("%w: tool %q has no handler", ErrInvalidDefinition, name)
	}
	if err := def.Schema.Check(); err != nil {
		return fmt.Errorf("%w: tool %q: %v", ErrInvalidDefinition, name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateTool, name)
	}
	r.defs[name] = def
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// Definitions returns all definitions in registration order.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name])
	}
	return out
}

// Names returns registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
