package registry

import (
	"fmt"

	"github.com/sceneforge/sceneforge/internal/core/observability/log"
)

// Constructor builds an instance from keyword-style arguments.
type Constructor func(args map[string]any) (any, error)

// Classes maps registered class names to constructor closures. It backs the
// singleton providers and the classget/classinit directives.
type Classes struct {
	*Store[Constructor]
}

func NewClasses(logger log.Log) *Classes {
	return &Classes{Store: NewStore[Constructor]("classes", logger)}
}

// Construct builds a new instance of the named class. An unregistered name
// fails with ErrUnknownType.
func (c *Classes) Construct(name string, args map[string]any) (any, error) {
	ctor, err := c.Get(name)
	if err != nil {
		return nil, fmt.Errorf("construct %q: %w", name, ErrUnknownType)
	}
	instance, err := ctor(args)
	if err != nil {
		return nil, fmt.Errorf("construct %q: %w", name, err)
	}
	return instance, nil
}
