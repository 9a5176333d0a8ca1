package rig

import (
	"github.com/bandinopla/threejs-cannones-rigger/pkg/dynamics"
)

// Constraint is anything the session tracks from pass 2: a standard joint,
// a sync link, a cable rig, or a host-supplied custom constraint. Every
// constraint created while rigging is tracked exactly once so Clear can
// reverse it.
type Constraint interface {
	Enable()
	Disable()
	// Update runs the constraint's per-frame work. Plain joints no-op.
	Update(dt float32)
	// RemoveFrom undoes every registration the constraint made against
	// the world.
	RemoveFrom(world *dynamics.World)
}

// Joint wraps an engine-native constraint built from a constraint node.
type Joint struct {
	Name  string
	Kind  Tag
	Inner dynamics.Constraint
}

// Enable re-enables the underlying joint.
func (j *Joint) Enable() {
	j.Inner.SetEnabled(true)
}

// Disable stops the underlying joint from being solved.
func (j *Joint) Disable() {
	j.Inner.SetEnabled(false)
}

// Update is a no-op; the world solves joints itself.
func (j *Joint) Update(dt float32) {}

// RemoveFrom removes the underlying joint from the world.
func (j *Joint) RemoveFrom(world *dynamics.World) {
	world.RemoveConstraint(j.Inner)
}
