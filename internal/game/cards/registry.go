package cards

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownCard is returned when a definition id is not registered.
var ErrUnknownCard = errors.New("unknown card")

// Registry holds card definitions. It is populated before games are created
// and treated as read-only afterwards.
type Registry struct {
	mu    sync.RWMutex
	cards map[string]*CardDefinition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{cards: make(map[string]*CardDefinition)}
}

// Register validates and stores a definition. Registering an id twice is an
// error.
func (r *Registry) Register(def CardDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.cards[def.ID]; exists {
		return fmt.Errorf("card %s already registered", def.ID)
	}
	stored := def
	r.cards[def.ID] = &stored
	return nil
}

// MustRegister registers every definition and panics on the first error.
func (r *Registry) MustRegister(defs ...CardDefinition) {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
}

// Get returns the definition for id.
func (r *Registry) Get(id string) (*CardDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.cards[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCard, id)
	}
	return def, nil
}

// All returns every definition sorted by id.
func (r *Registry) All() []*CardDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*CardDefinition, 0, len(r.cards))
	for _, def := range r.cards {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cards)
}

// Reset removes every definition.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards = make(map[string]*CardDefinition)
}
