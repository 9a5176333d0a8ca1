package rig

import (
	"github.com/bandinopla/threejs-cannones-rigger/pkg/dynamics"
	"github.com/bandinopla/threejs-cannones-rigger/pkg/math"
)

// SyncLink copies a body's pose onto a visual node once per frame, keeping
// the relative placement the node had when the link first updated. The
// offset is captured lazily on the first Update so the node keeps whatever
// pose it was authored with, instead of snapping onto the body.
type SyncLink struct {
	node   sceneNode
	source *dynamics.Body

	offsetPos   math.Vec3
	offsetRot   math.Quat
	initialized bool
	enabled     bool
}

// sceneNode is the slice of the scene graph the link needs.
type sceneNode interface {
	WorldPosition() math.Vec3
	WorldRotation() math.Quat
	SetWorldPose(position math.Vec3, rotation math.Quat)
}

func newSyncLink(node sceneNode, source *dynamics.Body) *SyncLink {
	return &SyncLink{node: node, source: source, enabled: true}
}

// Source returns the body driving this link.
func (l *SyncLink) Source() *dynamics.Body {
	return l.source
}

// Enable resumes per-frame copying.
func (l *SyncLink) Enable() {
	l.enabled = true
}

// Disable pauses per-frame copying; the node keeps its last pose.
func (l *SyncLink) Disable() {
	l.enabled = false
}

// Update copies the body pose (composed with the captured offset) onto the
// node. The first call captures the offset and leaves the node where it is.
func (l *SyncLink) Update(dt float32) {
	if !l.enabled {
		return
	}
	node := l.node
	if !l.initialized {
		invRot := l.source.Quaternion.Inverse()
		l.offsetPos = invRot.Rotate(node.WorldPosition().Sub(l.source.Position))
		l.offsetRot = invRot.Mul(node.WorldRotation()).Normalize()
		l.initialized = true
	}

	position := l.source.Position.Add(l.source.Quaternion.Rotate(l.offsetPos))
	rotation := l.source.Quaternion.Mul(l.offsetRot).Normalize()
	node.SetWorldPose(position, rotation)
}

// RemoveFrom is a no-op; sync links register nothing with the world.
func (l *SyncLink) RemoveFrom(world *dynamics.World) {}
