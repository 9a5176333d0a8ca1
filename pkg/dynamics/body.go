package dynamics

import (
	"github.com/google/uuid"

	"github.com/bandinopla/threejs-cannones-rigger/pkg/math"
)

// DefaultCollisionFilter is the group and mask a body collides on when the
// annotation left them unspecified.
const DefaultCollisionFilter = 1

// ShapeRef attaches a shape to a body at a local offset and orientation.
type ShapeRef struct {
	Shape       Shape
	Offset      math.Vec3
	Orientation math.Quat
}

// Body is a rigid body. A body with zero mass is static: it never moves and
// ignores impulses, but still collides.
type Body struct {
	ID   uuid.UUID
	Name string

	Position        math.Vec3
	Quaternion      math.Quat
	Velocity        math.Vec3
	AngularVelocity math.Vec3

	LinearDamping  float32
	AngularDamping float32
	Restitution    float32
	Friction       float32

	CollisionGroup int
	CollisionMask  int

	Shapes []ShapeRef

	mass       float32
	invMass    float32
	invInertia float32 // scalar approximation of the inverse inertia tensor

	force  math.Vec3
	torque math.Vec3
}

// NewBody creates a body with the given mass. Mass 0 makes the body static.
func NewBody(mass float32) *Body {
	b := &Body{
		ID:             uuid.New(),
		Quaternion:     math.QuatIdentity(),
		LinearDamping:  0.01,
		AngularDamping: 0.05,
		Restitution:    0.1,
		Friction:       0.4,
		CollisionGroup: DefaultCollisionFilter,
		CollisionMask:  DefaultCollisionFilter,
	}
	b.SetMass(mass)
	return b
}

// Mass returns the body mass (0 for static bodies).
func (b *Body) Mass() float32 {
	return b.mass
}

// InvMass returns 1/mass, or 0 for static bodies.
func (b *Body) InvMass() float32 {
	return b.invMass
}

// InvInertia returns the scalar inverse inertia, 0 for static bodies.
func (b *Body) InvInertia() float32 {
	return b.invInertia
}

// SetMass sets the body mass and refreshes derived quantities.
func (b *Body) SetMass(mass float32) {
	b.mass = mass
	if mass > 0 {
		b.invMass = 1 / mass
	} else {
		b.invMass = 0
	}
	b.updateInertia()
}

// Static reports whether the body is immovable.
func (b *Body) Static() bool {
	return b.invMass == 0
}

// AddShape attaches a shape at the given local offset and orientation.
func (b *Body) AddShape(shape Shape, offset math.Vec3, orientation math.Quat) {
	b.Shapes = append(b.Shapes, ShapeRef{Shape: shape, Offset: offset, Orientation: orientation})
	b.updateInertia()
}

// updateInertia recomputes the scalar inertia from the attached shapes,
// treating the body as a solid sphere of its bounding radius.
func (b *Body) updateInertia() {
	if b.invMass == 0 || len(b.Shapes) == 0 {
		b.invInertia = 0
		return
	}
	var radius float32
	for _, ref := range b.Shapes {
		r := ref.Offset.Length() + ref.Shape.BoundingRadius()
		if r > radius {
			radius = r
		}
	}
	if radius == 0 {
		b.invInertia = 0
		return
	}
	inertia := 0.4 * b.mass * radius * radius
	b.invInertia = 1 / inertia
}

// PointToWorld converts a body-local point to world space.
func (b *Body) PointToWorld(local math.Vec3) math.Vec3 {
	return b.Position.Add(b.Quaternion.Rotate(local))
}

// PointToLocal converts a world point to body-local space.
func (b *Body) PointToLocal(world math.Vec3) math.Vec3 {
	return b.Quaternion.Inverse().Rotate(world.Sub(b.Position))
}

// VectorToWorld rotates a body-local vector into world space.
func (b *Body) VectorToWorld(local math.Vec3) math.Vec3 {
	return b.Quaternion.Rotate(local)
}

// VectorToLocal rotates a world vector into body-local space.
func (b *Body) VectorToLocal(world math.Vec3) math.Vec3 {
	return b.Quaternion.Inverse().Rotate(world)
}

// VelocityAt returns the velocity of the body at a world point, including
// the angular contribution.
func (b *Body) VelocityAt(worldPoint math.Vec3) math.Vec3 {
	r := worldPoint.Sub(b.Position)
	return b.Velocity.Add(b.AngularVelocity.Cross(r))
}

// ApplyForce accumulates a force (world space) acting at the center of mass
// for the next step.
func (b *Body) ApplyForce(force math.Vec3) {
	if b.Static() {
		return
	}
	b.force = b.force.Add(force)
}

// ApplyImpulse applies an instantaneous impulse at a world point.
func (b *Body) ApplyImpulse(impulse, worldPoint math.Vec3) {
	if b.Static() {
		return
	}
	b.Velocity = b.Velocity.Add(impulse.Scale(b.invMass))
	r := worldPoint.Sub(b.Position)
	b.AngularVelocity = b.AngularVelocity.Add(r.Cross(impulse).Scale(b.invInertia))
}

// integrate advances the body state by h seconds.
func (b *Body) integrate(h float32, gravity math.Vec3) {
	if b.Static() {
		b.force = math.Vec3{}
		b.torque = math.Vec3{}
		return
	}

	accel := gravity.Add(b.force.Scale(b.invMass))
	b.Velocity = b.Velocity.Add(accel.Scale(h))
	b.AngularVelocity = b.AngularVelocity.Add(b.torque.Scale(b.invInertia * h))

	damp := 1 / (1 + h*b.LinearDamping)
	b.Velocity = b.Velocity.Scale(damp)
	angDamp := 1 / (1 + h*b.AngularDamping)
	b.AngularVelocity = b.AngularVelocity.Scale(angDamp)

	b.Position = b.Position.Add(b.Velocity.Scale(h))

	// dq/dt = 0.5 * w * q
	w := b.AngularVelocity
	if w.LengthSq() > 0 {
		wq := math.Quat{X: w.X, Y: w.Y, Z: w.Z, W: 0}
		dq := wq.Mul(b.Quaternion)
		b.Quaternion = math.Quat{
			X: b.Quaternion.X + 0.5*h*dq.X,
			Y: b.Quaternion.Y + 0.5*h*dq.Y,
			Z: b.Quaternion.Z + 0.5*h*dq.Z,
			W: b.Quaternion.W + 0.5*h*dq.W,
		}.Normalize()
	}

	b.force = math.Vec3{}
	b.torque = math.Vec3{}
}

// AABB returns the world axis-aligned bounds of the body across all shapes.
func (b *Body) AABB() (math.Vec3, math.Vec3) {
	minB := b.Position
	maxB := b.Position
	for i, ref := range b.Shapes {
		center := b.PointToWorld(ref.Offset)
		// Conservative: extents of the rotated shape bounded by the extents
		// rotated onto each world axis.
		ext := rotatedExtents(ref.Shape.Extents(), b.Quaternion.Mul(ref.Orientation))
		lo := center.Sub(ext)
		hi := center.Add(ext)
		if i == 0 {
			minB, maxB = lo, hi
			continue
		}
		minB = math.Vec3{X: min32(minB.X, lo.X), Y: min32(minB.Y, lo.Y), Z: min32(minB.Z, lo.Z)}
		maxB = math.Vec3{X: max32(maxB.X, hi.X), Y: max32(maxB.Y, hi.Y), Z: max32(maxB.Z, hi.Z)}
	}
	return minB, maxB
}

// rotatedExtents bounds a rotated box by projecting its half extents onto
// the world axes.
func rotatedExtents(ext math.Vec3, q math.Quat) math.Vec3 {
	bx := q.Rotate(math.Vec3{X: ext.X})
	by := q.Rotate(math.Vec3{Y: ext.Y})
	bz := q.Rotate(math.Vec3{Z: ext.Z})
	return math.Vec3{
		X: abs32(bx.X) + abs32(by.X) + abs32(bz.X),
		Y: abs32(bx.Y) + abs32(by.Y) + abs32(bz.Y),
		Z: abs32(bx.Z) + abs32(by.Z) + abs32(bz.Z),
	}
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func abs32(a float32) float32 {
	if a < 0 {
		return -a
	}
	return a
}
