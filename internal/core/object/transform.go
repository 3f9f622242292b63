package object

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// TransformType is the registered name of the built-in transform.
const TransformType = "transform"

// Transform is the built-in position component and the engine's default
// transform class.
type Transform struct {
	source   *GameObject
	position Vec2
	velocity Vec2
}

type transformArgs struct {
	X  float64 `mapstructure:"x"`
	Y  float64 `mapstructure:"y"`
	VX float64 `mapstructure:"vx"`
	VY float64 `mapstructure:"vy"`
}

// NewTransform is the Constructor for the built-in transform.
func NewTransform(args map[string]any, source *GameObject) (Component, error) {
	var ta transformArgs
	if err := mapstructure.WeakDecode(args, &ta); err != nil {
		return nil, fmt.Errorf("transform args: %w", err)
	}
	return &Transform{
		source:   source,
		position: Vec2{X: ta.X, Y: ta.Y},
		velocity: Vec2{X: ta.VX, Y: ta.VY},
	}, nil
}

func (t *Transform) TypeName() string { return TransformType }

func (t *Transform) Update(dt float64) {
	if t.velocity.X != 0 || t.velocity.Y != 0 {
		t.position = t.position.Add(Vec2{X: t.velocity.X * dt, Y: t.velocity.Y * dt})
	}
}

func (t *Transform) Position() Vec2 { return t.position }

func (t *Transform) Velocity() Vec2 { return t.velocity }

func (t *Transform) SetVelocity(v Vec2) { t.velocity = v }

// Move translates the transform, or teleports it when absolute is set.
func (t *Transform) Move(to Vec2, absolute bool) {
	if absolute {
		t.position = to
		return
	}
	t.position = t.position.Add(to)
}
