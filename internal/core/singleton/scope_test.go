package singleton

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type widget struct{ size int }

func TestCreateAndGetIdentity(t *testing.T) {
	s := NewScope(nil)
	s.Bind("Widget", func(args map[string]any) (any, error) {
		size, _ := args["size"].(int)
		return &widget{size: size}, nil
	})

	created, err := s.Create("Widget", map[string]any{"size": 3})
	require.NoError(t, err)

	got, err := s.Get("Widget")
	require.NoError(t, err)
	require.Same(t, created, got)
}

func TestCreateDuplicateFails(t *testing.T) {
	s := NewScope(nil)
	s.Bind("Widget", func(map[string]any) (any, error) { return &widget{}, nil })

	_, err := s.Create("Widget", nil)
	require.NoError(t, err)
	_, err = s.Create("Widget", nil)
	require.ErrorIs(t, err, ErrDuplicateInstance)
}

func TestCreateWithoutProvider(t *testing.T) {
	s := NewScope(nil)
	_, err := s.Create("Unbound", nil)
	require.ErrorIs(t, err, ErrNoProvider)
}

func TestGetAbsent(t *testing.T) {
	s := NewScope(nil)
	_, err := s.Get("Nothing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAttach(t *testing.T) {
	s := NewScope(nil)
	w := &widget{size: 1}
	require.NoError(t, s.Attach("Widget", w))

	got, err := s.Get("Widget")
	require.NoError(t, err)
	require.Same(t, w, got)

	require.ErrorIs(t, s.Attach("Widget", &widget{}), ErrDuplicateInstance)
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	s := NewScope(nil)
	var built atomic.Int32
	s.Bind("Widget", func(map[string]any) (any, error) {
		built.Add(1)
		return &widget{}, nil
	})

	first, err := s.GetOrCreate("Widget", nil)
	require.NoError(t, err)
	second, err := s.GetOrCreate("Widget", nil)
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, int32(1), built.Load())
}

func TestGetOrCreateCollapsesConcurrentCalls(t *testing.T) {
	s := NewScope(nil)
	var built atomic.Int32
	s.Bind("Widget", func(map[string]any) (any, error) {
		built.Add(1)
		return &widget{}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.GetOrCreate("Widget", nil)
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), built.Load())
}

func TestDeferredResolvesLate(t *testing.T) {
	s := NewScope(nil)
	handle := s.Deferred("Widget")

	// instance attached after the handle was taken
	w := &widget{size: 9}
	require.NoError(t, s.Attach("Widget", w))

	got, err := handle.Resolve()
	require.NoError(t, err)
	require.Same(t, w, got)
}

func TestDeferredMemoizes(t *testing.T) {
	calls := 0
	handle := NewDeferred(func() (any, error) {
		calls++
		return &widget{}, nil
	})

	first, err := handle.Resolve()
	require.NoError(t, err)
	second, err := handle.Resolve()
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, 1, calls)
}

func TestCloseDiscardsEverything(t *testing.T) {
	s := NewScope(nil)
	require.NoError(t, s.Attach("Widget", &widget{}))
	s.Close()

	_, err := s.Get("Widget")
	require.ErrorIs(t, err, ErrNotFound)
	require.Empty(t, s.Keys())
}
