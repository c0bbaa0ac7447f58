package item

import (
	"fmt"
	"sort"
	"sync"
)

// TemplateResolver maps a stored template reference to its template.
// Implementations must be idempotent: the same reference always yields the
// same *Template.
type TemplateResolver interface {
	Resolve(ref string) (*Template, error)
}

// ResolverFunc adapts a function to TemplateResolver.
type ResolverFunc func(ref string) (*Template, error)

func (f ResolverFunc) Resolve(ref string) (*Template, error) { return f(ref) }

// Registry is the in-memory template table filled at load time.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]*Template)}
}

// Register validates and adds t. A duplicate id is an error.
func (r *Registry) Register(t *Template) error {
	if t == nil {
		return fmt.Errorf("registry: nil template")
	}
	if err := t.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.templates[t.ID]; dup {
		return fmt.Errorf("registry: duplicate template id %q", t.ID)
	}
	r.templates[t.ID] = t
	return nil
}

// MustRegister registers every template and panics on error. For fixtures.
func (r *Registry) MustRegister(ts ...*Template) *Registry {
	for _, t := range ts {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}

// Resolve implements TemplateResolver.
func (r *Registry) Resolve(ref string) (*Template, error) {
	r.mu.RLock()
	t, ok := r.templates[ref]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, ref)
	}
	return t, nil
}

// Get returns the template with id, or nil.
func (r *Registry) Get(id string) *Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.templates[id]
}

// Len returns the number of registered templates.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}

// IDs returns all template ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.templates))
	for id := range r.templates {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
