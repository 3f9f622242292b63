package scene

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sceneforge/sceneforge/internal/core/object"
)

func TestSceneMembership(t *testing.T) {
	s := New("main")
	a := object.New("a", "main")
	b := object.New("b", "main")

	s.Add(a)
	s.Add(b)
	require.Equal(t, 2, s.Len())
	require.Equal(t, []*object.GameObject{a, b}, s.Objects())

	s.Remove(a)
	require.Equal(t, []*object.GameObject{b}, s.Objects())

	// removing twice is harmless
	s.Remove(a)
	require.Equal(t, 1, s.Len())
}

func TestSceneUpdateSurvivesMutation(t *testing.T) {
	s := New("main")

	a := object.New("a", "main")
	b := object.New("b", "main")
	s.Add(a)
	s.Add(b)

	// a component that removes its own object mid-update
	removed := 0
	require.NoError(t, a.Components().Add("suicide", &funcComponent{fn: func() {
		s.Remove(a)
		removed++
	}}))
	updated := 0
	require.NoError(t, b.Components().Add("counter", &funcComponent{fn: func() { updated++ }}))

	s.Update(0.016)
	require.Equal(t, 1, removed)
	require.Equal(t, 1, updated)
	require.Equal(t, 1, s.Len())
}

type funcComponent struct{ fn func() }

func (f *funcComponent) TypeName() string { return "func" }
func (f *funcComponent) Update(float64)   { f.fn() }
