// Package substitution provides the text functions a transform applies to
// each captured group, and the registry they are looked up from.
package substitution

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Substitution rewrites the text of one capture group.
type Substitution interface {
	// ID is the stable identifier used for serialization.
	ID() string
	// Name is the human readable name shown in selection lists.
	Name() string
	// Apply returns the substituted text.
	Apply(text string) string
	// Clone returns an independent copy, including configuration.
	Clone() Substitution
	// MarshalData returns the implementation specific configuration as
	// XML content, or nil when there is none.
	MarshalData() ([]byte, error)
	// UnmarshalData restores configuration written by MarshalData.
	UnmarshalData(data []byte) error
}

// Equal reports whether a and b are the same kind with the same configuration.
func Equal(a, b Substitution) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.ID() != b.ID() {
		return false
	}
	da, errA := a.MarshalData()
	db, errB := b.MarshalData()
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(da, db)
}

// ErrUnknown is returned when no substitution is registered under a key.
var ErrUnknown = errors.New("unknown substitution")

// Factory creates a substitution with its default configuration.
type Factory func() Substitution

// Entry describes a registered substitution.
type Entry struct {
	ID   string
	Name string
}

// Registry maps substitution ids and names to factories.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	entries   []Entry
	factories map[string]Factory
	names     map[string]string // lower case name -> id
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		names:     make(map[string]string),
	}
}

// NewBuiltinRegistry creates a registry holding the built in substitutions.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	for _, f := range []Factory{
		func() Substitution { return NoChange{} },
		func() Substitution { return ToLower{} },
		func() Substitution { return ToUpper{} },
		func() Substitution { return NewCodeLookup() },
		func() Substitution { return &Swizzle{} },
	} {
		if err := r.Register(f); err != nil {
			panic(err)
		}
	}
	return r
}

var defaultRegistry = NewBuiltinRegistry()

// Default returns the process wide registry. Additional substitutions
// registered here become available to every transform.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a substitution kind. The id and name must be unused.
func (r *Registry) Register(f Factory) error {
	s := f()
	id, name := s.ID(), s.Name()
	if id == "" {
		return errors.New("substitution id is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[id]; ok {
		return fmt.Errorf("substitution %q already registered", id)
	}
	if _, ok := r.names[strings.ToLower(name)]; ok {
		return fmt.Errorf("substitution name %q already registered", name)
	}
	r.factories[id] = f
	r.names[strings.ToLower(name)] = id
	r.entries = append(r.entries, Entry{ID: id, Name: name})
	return nil
}

// Lookup finds a factory by id, or by name ignoring case.
func (r *Registry) Lookup(key string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if f, ok := r.factories[key]; ok {
		return f, true
	}
	if id, ok := r.names[strings.ToLower(strings.TrimSpace(key))]; ok {
		return r.factories[id], true
	}
	return nil, false
}

// New creates a substitution by id or name.
func (r *Registry) New(key string) (Substitution, error) {
	f, ok := r.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, key)
	}
	return f(), nil
}

// Entries lists the registered substitutions in registration order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entry(nil), r.entries...)
}
