package hooks

import (
	"fmt"
	"sort"
)

// Registry holds the hook types available to one run.
// Types are registered once before evaluation, then looked up by name while
// directives are dispatched.
type Registry struct {
	specs map[string]*Spec
}

// NewRegistry returns a Registry holding the hooks of every provider.
// Providers are registered in order; a type registered twice is an error.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{specs: make(map[string]*Spec)}
	for _, p := range providers {
		for _, s := range p.Hooks() {
			s.provider = p.Name()
			if err := r.Register(s); err != nil {
				return nil, fmt.Errorf("provider %s: %w", p.Name(), err)
			}
		}
	}
	return r, nil
}

// Register adds a hook type to the registry.
// Returns ErrTypeAlreadyExists if a type with that name is already registered
// and ErrInvalidSpec if the spec is malformed.
func (r *Registry) Register(s Spec) error {
	if s.Type == "" {
		return fmt.Errorf("%w: empty type name", ErrInvalidSpec)
	}
	if s.New == nil {
		return fmt.Errorf("%w: type %s: nil constructor", ErrInvalidSpec, s.Type)
	}
	if _, exists := r.specs[s.Type]; exists {
		return fmt.Errorf("%w: %s", ErrTypeAlreadyExists, s.Type)
	}

	sch, err := schemaOf(s.New())
	if err != nil {
		return fmt.Errorf("type %s: %w", s.Type, err)
	}
	for _, name := range s.Ambient {
		if !ambientNames[name] {
			return fmt.Errorf("%w: type %s: unknown ambient field %q", ErrInvalidSpec, s.Type, name)
		}
		if !sch.has(name) {
			return fmt.Errorf("%w: type %s: ambient field %q is not declared by the hook", ErrInvalidSpec, s.Type, name)
		}
	}
	s.schema = sch

	r.specs[s.Type] = &s
	return nil
}

// Get returns the spec registered under name.
func (r *Registry) Get(name string) (*Spec, error) {
	s, ok := r.specs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHookType, name)
	}
	return s, nil
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.specs))
	for name := range r.specs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
