package object

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateComponentName is returned when a reference-name collides
	// within one object.
	ErrDuplicateComponentName = errors.New("duplicate component reference-name")
	// ErrNoTransform is returned when an object has no transform capability
	// and no default transform is configured.
	ErrNoTransform = errors.New("object has no transform and no default transform class")
)

// Container holds one object's components keyed by reference-name, preserving
// declaration order. Reference-names are unique within one object.
type Container struct {
	owner *GameObject
	order []string
	items map[string]Component
}

func NewContainer(owner *GameObject) *Container {
	return &Container{
		owner: owner,
		items: make(map[string]Component),
	}
}

// Add inserts a component under name, failing on collision.
func (c *Container) Add(name string, component Component) error {
	if _, exists := c.items[name]; exists {
		return fmt.Errorf("%s[%s]: %w", c.owner.Name(), name, ErrDuplicateComponentName)
	}
	c.items[name] = component
	c.order = append(c.order, name)
	return nil
}

// Override replaces (or inserts) without collision checking.
func (c *Container) Override(name string, component Component) {
	if _, exists := c.items[name]; !exists {
		c.order = append(c.order, name)
	}
	c.items[name] = component
}

func (c *Container) Remove(name string) {
	if _, exists := c.items[name]; !exists {
		return
	}
	delete(c.items, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// ByName returns the component registered under the reference-name.
func (c *Container) ByName(name string) (Component, bool) {
	component, ok := c.items[name]
	return component, ok
}

// All returns components in declaration order.
func (c *Container) All() []Component {
	out := make([]Component, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.items[name])
	}
	return out
}

// Each visits components in declaration order.
func (c *Container) Each(fn func(name string, component Component)) {
	for _, name := range c.order {
		fn(name, c.items[name])
	}
}

func (c *Container) Len() int { return len(c.order) }

// Names returns reference-names in declaration order.
func (c *Container) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// OfType collects components satisfying a capability interface.
func OfType[T any](c *Container) []T {
	var out []T
	for _, name := range c.order {
		if t, ok := c.items[name].(T); ok {
			out = append(out, t)
		}
	}
	return out
}
