// Package singleton tracks one live instance per logical key for the whole
// engine process. Instances are created exactly once, either eagerly during
// pipeline execution or lazily on first lookup; nothing is ever silently
// replaced.
package singleton

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/sceneforge/sceneforge/internal/core/observability/log"
)

var (
	// ErrNotFound is returned on non-lazy lookup of an absent key.
	ErrNotFound = errors.New("singleton not found")
	// ErrDuplicateInstance is returned when creating a key that is live.
	ErrDuplicateInstance = errors.New("singleton already exists")
	// ErrNoProvider is returned when creating a key with no bound provider.
	ErrNoProvider = errors.New("no provider bound for singleton key")
)

// Provider constructs the instance answering to a key. A class declares which
// key it answers to by being bound as that key's provider; interchangeable
// implementations simply bind the same key.
type Provider func(args map[string]any) (any, error)

// Scope owns the key -> instance mapping. Explicit process-lifetime state:
// pass by reference into the pipeline and assembler, Close on teardown.
type Scope struct {
	mu        sync.RWMutex
	instances map[string]any
	providers map[string]Provider
	flight    singleflight.Group
	log       log.Log
}

func NewScope(logger log.Log) *Scope {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Scope{
		instances: make(map[string]any),
		providers: make(map[string]Provider),
		log:       logger,
	}
}

// Bind associates a provider with key. Re-binding overwrites the provider but
// never touches a live instance.
func (s *Scope) Bind(key string, provider Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[key] = provider
}

// Attach stores an externally constructed instance under key.
func (s *Scope) Attach(key string, instance any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.instances[key]; exists {
		return fmt.Errorf("attach %q: %w", key, ErrDuplicateInstance)
	}
	s.instances[key] = instance
	return nil
}

// Create constructs the instance for key through its bound provider. A second
// Create for the same key fails with ErrDuplicateInstance.
func (s *Scope) Create(key string, args map[string]any) (any, error) {
	s.mu.RLock()
	_, exists := s.instances[key]
	s.mu.RUnlock()
	if exists {
		return nil, fmt.Errorf("create %q: %w", key, ErrDuplicateInstance)
	}

	instance, err := s.construct(key, args)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, raced := s.instances[key]; raced {
		return nil, fmt.Errorf("create %q: %w", key, ErrDuplicateInstance)
	}
	s.instances[key] = instance
	s.log.Debug("singleton created", log.String("key", key))
	return instance, nil
}

// Get returns the live instance for key, failing with ErrNotFound when the
// instance has not been created. Callers wanting deferred semantics use
// Deferred instead.
func (s *Scope) Get(key string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	instance, ok := s.instances[key]
	if !ok {
		return nil, fmt.Errorf("singleton %q: %w", key, ErrNotFound)
	}
	return instance, nil
}

// GetOrCreate returns the existing instance unchanged, or constructs it once
// through the bound provider. Concurrent calls for one key collapse into a
// single construction.
func (s *Scope) GetOrCreate(key string, args map[string]any) (any, error) {
	s.mu.RLock()
	instance, ok := s.instances[key]
	s.mu.RUnlock()
	if ok {
		return instance, nil
	}

	instance, err, _ := s.flight.Do(key, func() (any, error) {
		s.mu.RLock()
		existing, raced := s.instances[key]
		s.mu.RUnlock()
		if raced {
			return existing, nil
		}
		built, err := s.construct(key, args)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.instances[key] = built
		s.mu.Unlock()
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

// Deferred returns a lazy handle for key. Lookup failure is deferred to the
// handle's first Resolve.
func (s *Scope) Deferred(key string) *Deferred {
	return NewDeferred(func() (any, error) {
		return s.Get(key)
	})
}

func (s *Scope) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.instances[key]
	return ok
}

// Keys lists every key with a live instance.
func (s *Scope) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.instances))
	for key := range s.instances {
		keys = append(keys, key)
	}
	return keys
}

// Close discards all instances and providers. Teardown only.
func (s *Scope) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances = make(map[string]any)
	s.providers = make(map[string]Provider)
}

func (s *Scope) construct(key string, args map[string]any) (any, error) {
	s.mu.RLock()
	provider, ok := s.providers[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("singleton %q: %w", key, ErrNoProvider)
	}
	instance, err := provider(args)
	if err != nil {
		return nil, fmt.Errorf("singleton %q: %w", key, err)
	}
	return instance, nil
}
