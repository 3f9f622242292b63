// Package scene partitions game objects. Entities in different scenes never
// interact except through global broadcast events.
package scene

import (
	"github.com/sceneforge/sceneforge/internal/core/object"
)

// Scene is one named partition of game objects, updated in insertion order.
type Scene struct {
	name    string
	objects []*object.GameObject
}

func New(name string) *Scene {
	return &Scene{name: name}
}

func (s *Scene) Name() string { return s.name }

func (s *Scene) Add(obj *object.GameObject) {
	s.objects = append(s.objects, obj)
}

func (s *Scene) Remove(obj *object.GameObject) {
	for i, o := range s.objects {
		if o == obj {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			return
		}
	}
}

// Objects returns a snapshot of the scene's members in insertion order.
func (s *Scene) Objects() []*object.GameObject {
	out := make([]*object.GameObject, len(s.objects))
	copy(out, s.objects)
	return out
}

func (s *Scene) Len() int { return len(s.objects) }

// Update advances every object. Snapshot first: an update may spawn into or
// remove from this scene.
func (s *Scene) Update(dt float64) {
	for _, obj := range s.Objects() {
		obj.Update(dt)
	}
}
