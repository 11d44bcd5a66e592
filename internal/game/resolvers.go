package game

import (
	"fmt"
	"sort"
	"sync"

	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
)

// CustomResolver implements an ability that the effect primitives cannot
// express. It mutates state directly and returns the events it caused.
type CustomResolver func(state *GameState, ctx EffectContext) []rules.Event

// ResolverRegistry maps resolver keys to implementations. Looking up an
// unregistered key during resolution is an engine bug.
type ResolverRegistry struct {
	mu        sync.RWMutex
	resolvers map[string]CustomResolver
}

// NewResolverRegistry creates an empty registry.
func NewResolverRegistry() *ResolverRegistry {
	return &ResolverRegistry{resolvers: make(map[string]CustomResolver)}
}

// Register adds a resolver under key.
func (r *ResolverRegistry) Register(key string, fn CustomResolver) error {
	if key == "" {
		return fmt.Errorf("resolver key is empty")
	}
	if fn == nil {
		return fmt.Errorf("resolver %s is nil", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.resolvers[key]; exists {
		return fmt.Errorf("resolver %s already registered", key)
	}
	r.resolvers[key] = fn
	return nil
}

// Get returns the resolver registered under key.
func (r *ResolverRegistry) Get(key string) (CustomResolver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.resolvers[key]
	return fn, ok
}

// Keys lists the registered keys in sorted order.
func (r *ResolverRegistry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.resolvers))
	for k := range r.resolvers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Reset removes every resolver.
func (r *ResolverRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers = make(map[string]CustomResolver)
}
