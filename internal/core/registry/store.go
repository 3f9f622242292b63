package registry

import (
	"fmt"
	"sync"

	"github.com/sceneforge/sceneforge/internal/core/observability/log"
)

// Sink is the untyped face of a Store. Configuration loaders address target
// registries through singleton keys and only see this contract.
type Sink interface {
	// Accept stores an untyped value, failing with ErrWrongType when the
	// value does not match the store's element type.
	Accept(name string, value any) error
	// Lookup returns an entry untyped, reporting whether it exists.
	Lookup(name string) (any, bool)
}

// Hook is invoked on register/unregister with the entry name. Hooks exist for
// side-effect bookkeeping (wiring a collider into the collision driver,
// tearing listeners down on removal) and must not mutate the store.
type Hook func(name string)

// Store is a name-keyed registry for one category of registrable values.
// Re-registration overwrites; removal is explicit. Process-lifetime state:
// construct once, pass by reference, Clear on teardown.
type Store[T any] struct {
	mu           sync.RWMutex
	label        string
	entries      map[string]T
	log          log.Log
	onRegister   Hook
	onUnregister Hook
}

func NewStore[T any](label string, logger log.Log) *Store[T] {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store[T]{
		label:   label,
		entries: make(map[string]T),
		log:     logger.With(log.String("registry", label)),
	}
}

// OnRegister installs a hook run after every successful Register.
func (s *Store[T]) OnRegister(h Hook) { s.onRegister = h }

// OnUnregister installs a hook run after every successful Unregister.
func (s *Store[T]) OnUnregister(h Hook) { s.onUnregister = h }

// Register stores entry under name, overwriting any previous entry.
func (s *Store[T]) Register(name string, entry T) {
	s.mu.Lock()
	if _, exists := s.entries[name]; exists {
		s.log.Warn("overwriting registry entry", log.String("name", name))
	}
	s.entries[name] = entry
	hook := s.onRegister
	s.mu.Unlock()

	if hook != nil {
		hook(name)
	}
}

// Unregister removes the entry for name. Removing an absent name is a no-op.
func (s *Store[T]) Unregister(name string) {
	s.mu.Lock()
	_, exists := s.entries[name]
	delete(s.entries, name)
	hook := s.onUnregister
	s.mu.Unlock()

	if exists && hook != nil {
		hook(name)
	}
}

func (s *Store[T]) Get(name string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[name]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s[%s]: %w", s.label, name, ErrNotFound)
	}
	return entry, nil
}

func (s *Store[T]) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[name]
	return ok
}

// Names returns a snapshot of all registered names.
func (s *Store[T]) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear discards every entry without running hooks. Teardown only.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]T)
}

func (s *Store[T]) Accept(name string, value any) error {
	typed, ok := value.(T)
	if !ok {
		return fmt.Errorf("%s[%s]: %T: %w", s.label, name, value, ErrWrongType)
	}
	s.Register(name, typed)
	return nil
}

func (s *Store[T]) Lookup(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[name]
	if !ok {
		return nil, false
	}
	return entry, true
}
