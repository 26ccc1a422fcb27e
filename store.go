package eventrouter

import (
	"reflect"
	"sort"
)

// Store owns one CallbackRegistry per event type. It is created by the
// application and shared by every Router built on it, so subscribers and
// deferred events registered through one router are visible to the others.
// A Poll on any router delivers every queued event of the types it has
// pending, including events deferred through another router.
//
// A Store is not safe for concurrent use.
type Store struct {
	registries map[reflect.Type]any
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		registries: make(map[reflect.Type]any),
	}
}

// RegistryFor returns the registry for E, creating it on first use.
func RegistryFor[E any](s *Store) *CallbackRegistry[E] {
	typ := reflect.TypeFor[E]()
	if reg, ok := s.registries[typ]; ok {
		return reg.(*CallbackRegistry[E])
	}

	reg := newCallbackRegistry[E](typ)
	s.registries[typ] = reg
	return reg
}

// Lookup returns the registry for E without creating it.
func Lookup[E any](s *Store) (*CallbackRegistry[E], bool) {
	reg, ok := s.registries[reflect.TypeFor[E]()]
	if !ok {
		return nil, false
	}
	return reg.(*CallbackRegistry[E]), true
}

// Len returns the number of event types with a registry.
func (s *Store) Len() int {
	return len(s.registries)
}

// Types returns the sorted names of the event types with a registry.
func (s *Store) Types() []string {
	names := make([]string, 0, len(s.registries))
	for typ := range s.registries {
		names = append(names, typ.String())
	}
	sort.Strings(names)
	return names
}

// Reset drops every registry. Handles issued before the reset no longer
// refer to anything, and events still pending on a router are delivered to
// the dropped registries' subscribers on its next Poll.
func (s *Store) Reset() {
	s.registries = make(map[reflect.Type]any)
}
