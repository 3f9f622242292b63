package object

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// RectColliderType is the registered name of the built-in AABB collider.
const RectColliderType = "rect_collider"

// RectCollider is the built-in axis-aligned box collider. Its bounds follow
// the owning object's transform. The collision driver consumes it through the
// collision package's Collider contract.
type RectCollider struct {
	source  *GameObject
	layer   string
	w, h    float64
	offset  Vec2
	physics bool
}

type rectColliderArgs struct {
	Layer   string  `mapstructure:"layer"`
	W       float64 `mapstructure:"w"`
	H       float64 `mapstructure:"h"`
	OffsetX float64 `mapstructure:"offset_x"`
	OffsetY float64 `mapstructure:"offset_y"`
	Physics bool    `mapstructure:"physics"`
}

// NewRectCollider is the Constructor for the built-in collider. The engine
// wraps it to register new colliders with the collision driver.
func NewRectCollider(args map[string]any, source *GameObject) (Component, error) {
	var ca rectColliderArgs
	if err := mapstructure.WeakDecode(args, &ca); err != nil {
		return nil, fmt.Errorf("rect_collider args: %w", err)
	}
	if ca.Layer == "" {
		return nil, fmt.Errorf("rect_collider: layer is required")
	}
	return &RectCollider{
		source:  source,
		layer:   ca.Layer,
		w:       ca.W,
		h:       ca.H,
		offset:  Vec2{X: ca.OffsetX, Y: ca.OffsetY},
		physics: ca.Physics,
	}, nil
}

func (c *RectCollider) TypeName() string { return RectColliderType }

func (c *RectCollider) Update(float64) {}

func (c *RectCollider) Source() *GameObject { return c.source }

func (c *RectCollider) Layer() string { return c.layer }

// Physics reports whether overlaps are physical collisions rather than
// triggers.
func (c *RectCollider) Physics() bool { return c.physics }

func (c *RectCollider) Bounds() (Rect, error) {
	t, err := c.source.Transform()
	if err != nil {
		return Rect{}, err
	}
	pos := t.Position().Add(c.offset)
	return Rect{X: pos.X, Y: pos.Y, W: c.w, H: c.h}, nil
}
