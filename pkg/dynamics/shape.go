// Package dynamics is a small rigid-body world used as the physics
// collaborator for scene rigs: bodies with compound box/sphere shapes,
// impulse-based contact resolution and the four joint types the rigger
// emits (point, distance, hinge, lock). It is deliberately minimal; hosts
// with stronger solver needs can keep the rig layer and swap this out.
package dynamics

import (
	"github.com/bandinopla/threejs-cannones-rigger/pkg/math"
)

// Shape is a collision volume attached to a body.
type Shape interface {
	// BoundingRadius returns the radius of a sphere that encloses the
	// shape, centered on the shape origin.
	BoundingRadius() float32

	// Extents returns the axis-aligned half extents of the shape in its
	// local frame.
	Extents() math.Vec3
}

// Box is a box shape described by half extents along each axis.
type Box struct {
	HalfExtents math.Vec3
}

// NewBox returns a box shape with the given half extents.
func NewBox(halfExtents math.Vec3) *Box {
	return &Box{HalfExtents: halfExtents}
}

// BoundingRadius returns the half diagonal of the box.
func (b *Box) BoundingRadius() float32 {
	return b.HalfExtents.Length()
}

// Extents returns the box half extents.
func (b *Box) Extents() math.Vec3 {
	return b.HalfExtents
}

// Sphere is a sphere shape.
type Sphere struct {
	Radius float32
}

// NewSphere returns a sphere shape with the given radius.
func NewSphere(radius float32) *Sphere {
	return &Sphere{Radius: radius}
}

// BoundingRadius returns the sphere radius.
func (s *Sphere) BoundingRadius() float32 {
	return s.Radius
}

// Extents returns uniform half extents equal to the radius.
func (s *Sphere) Extents() math.Vec3 {
	return math.Vec3{X: s.Radius, Y: s.Radius, Z: s.Radius}
}
