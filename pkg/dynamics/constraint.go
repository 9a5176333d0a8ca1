package dynamics

import (
	"github.com/google/uuid"

	"github.com/bandinopla/threejs-cannones-rigger/pkg/math"
)

// Constraint restricts the relative motion of two bodies. Constraints are
// solved iteratively after contact resolution each substep.
type Constraint interface {
	// BodyA and BodyB return the constrained bodies.
	BodyA() *Body
	BodyB() *Body
	// Enabled reports whether the constraint currently participates in
	// solving.
	Enabled() bool
	SetEnabled(enabled bool)
	// CollideConnected reports whether contacts between the two bodies
	// are still generated while the constraint is enabled.
	CollideConnected() bool

	solve(h float32)
}

// Bias factors for the positional stabilization of joints.
const (
	jointBeta    = 0.4
	angularBeta  = 0.3
	velocityBeta = 0.9
)

type constraintBase struct {
	id               uuid.UUID
	bodyA, bodyB     *Body
	enabled          bool
	collideConnected bool
}

func newConstraintBase(a, b *Body, collideConnected bool) constraintBase {
	return constraintBase{
		id:               uuid.New(),
		bodyA:            a,
		bodyB:            b,
		enabled:          true,
		collideConnected: collideConnected,
	}
}

func (c *constraintBase) BodyA() *Body            { return c.bodyA }
func (c *constraintBase) BodyB() *Body            { return c.bodyB }
func (c *constraintBase) Enabled() bool           { return c.enabled }
func (c *constraintBase) SetEnabled(enabled bool) { c.enabled = enabled }
func (c *constraintBase) CollideConnected() bool  { return c.collideConnected }

// SetCollideConnected toggles contact generation between the constrained
// bodies.
func (c *constraintBase) SetCollideConnected(collide bool) { c.collideConnected = collide }

// solvePointEquality pins two body-local points together; shared by the
// point, hinge and lock joints.
func solvePointEquality(a, b *Body, pivotA, pivotB math.Vec3) {
	worldA := a.PointToWorld(pivotA)
	worldB := b.PointToWorld(pivotB)

	invMassSum := a.invMass + b.invMass
	if invMassSum == 0 {
		return
	}

	// Cancel the relative velocity at the pivot.
	relVel := b.VelocityAt(worldB).Sub(a.VelocityAt(worldA))
	if relVel.LengthSq() > 0 {
		ra := worldA.Sub(a.Position)
		rb := worldB.Sub(b.Position)
		k := invMassSum + ra.LengthSq()*a.invInertia + rb.LengthSq()*b.invInertia
		impulse := relVel.Scale(-velocityBeta / k)
		a.ApplyImpulse(impulse.Negate(), worldA)
		b.ApplyImpulse(impulse, worldB)
	}

	// Pull the pivots back together.
	err := worldB.Sub(worldA)
	correction := err.Scale(jointBeta / invMassSum)
	a.Position = a.Position.Add(correction.Scale(a.invMass))
	b.Position = b.Position.Sub(correction.Scale(b.invMass))
}

// nudgeOrientation rotates both bodies a fraction of the way towards making
// b's orientation equal a's orientation composed with rest.
func nudgeOrientation(a, b *Body, rest math.Quat) {
	target := a.Quaternion.Mul(rest)
	diff := target.Mul(b.Quaternion.Inverse())
	if diff.W < 0 {
		diff = math.Quat{X: -diff.X, Y: -diff.Y, Z: -diff.Z, W: -diff.W}
	}

	wa := a.invInertia
	wb := b.invInertia
	sum := wa + wb
	if sum == 0 {
		return
	}

	// Take a fraction of the correction rotation, split by inverse inertia.
	blend := func(q math.Quat, t float32) math.Quat {
		return math.QuatIdentity().Slerp(q, t)
	}
	b.Quaternion = blend(diff, angularBeta*wb/sum).Mul(b.Quaternion).Normalize()
	inv := diff.Inverse()
	a.Quaternion = blend(inv, angularBeta*wa/sum).Mul(a.Quaternion).Normalize()

	// Bleed off relative angular velocity.
	relOmega := b.AngularVelocity.Sub(a.AngularVelocity)
	a.AngularVelocity = a.AngularVelocity.Add(relOmega.Scale(angularBeta * wa / sum))
	b.AngularVelocity = b.AngularVelocity.Sub(relOmega.Scale(angularBeta * wb / sum))
}

// PointToPointConstraint keeps one local point of each body coincident.
type PointToPointConstraint struct {
	constraintBase
	PivotA math.Vec3
	PivotB math.Vec3
}

// NewPointToPointConstraint builds a ball joint between local pivots.
func NewPointToPointConstraint(a *Body, pivotA math.Vec3, b *Body, pivotB math.Vec3) *PointToPointConstraint {
	return &PointToPointConstraint{
		constraintBase: newConstraintBase(a, b, true),
		PivotA:         pivotA,
		PivotB:         pivotB,
	}
}

func (c *PointToPointConstraint) solve(h float32) {
	solvePointEquality(c.bodyA, c.bodyB, c.PivotA, c.PivotB)
}

// DistanceConstraint keeps the body centers at a fixed distance.
type DistanceConstraint struct {
	constraintBase
	Distance float32
}

// NewDistanceConstraint builds a distance joint. distance <= 0 captures the
// current center distance.
func NewDistanceConstraint(a, b *Body, distance float32) *DistanceConstraint {
	if distance <= 0 {
		distance = a.Position.Distance(b.Position)
	}
	return &DistanceConstraint{
		constraintBase: newConstraintBase(a, b, true),
		Distance:       distance,
	}
}

func (c *DistanceConstraint) solve(h float32) {
	a, b := c.bodyA, c.bodyB
	invMassSum := a.invMass + b.invMass
	if invMassSum == 0 {
		return
	}

	delta := b.Position.Sub(a.Position)
	dist := delta.Length()
	if dist < 1e-6 {
		return
	}
	n := delta.Scale(1 / dist)
	err := dist - c.Distance

	// Remove velocity along the rod.
	relVel := b.Velocity.Sub(a.Velocity).Dot(n)
	impulse := n.Scale(-relVel * velocityBeta / invMassSum)
	if !a.Static() {
		a.Velocity = a.Velocity.Sub(impulse.Scale(a.invMass))
	}
	if !b.Static() {
		b.Velocity = b.Velocity.Add(impulse.Scale(b.invMass))
	}

	correction := n.Scale(err * jointBeta / invMassSum)
	a.Position = a.Position.Add(correction.Scale(a.invMass))
	b.Position = b.Position.Sub(correction.Scale(b.invMass))
}

// HingeConstraint pins a pivot point and keeps a local axis of each body
// aligned, leaving rotation about that axis free.
type HingeConstraint struct {
	constraintBase
	PivotA math.Vec3
	PivotB math.Vec3
	AxisA  math.Vec3
	AxisB  math.Vec3
}

// NewHingeConstraint builds a hinge joint from local pivots and local axes.
func NewHingeConstraint(a *Body, pivotA, axisA math.Vec3, b *Body, pivotB, axisB math.Vec3) *HingeConstraint {
	return &HingeConstraint{
		constraintBase: newConstraintBase(a, b, true),
		PivotA:         pivotA,
		PivotB:         pivotB,
		AxisA:          axisA.Normalize(),
		AxisB:          axisB.Normalize(),
	}
}

func (c *HingeConstraint) solve(h float32) {
	a, b := c.bodyA, c.bodyB
	solvePointEquality(a, b, c.PivotA, c.PivotB)

	// Align the world axes with a small rotation of the movable side(s).
	wa := a.VectorToWorld(c.AxisA)
	wb := b.VectorToWorld(c.AxisB)
	cross := wb.Cross(wa)
	sum := a.invInertia + b.invInertia
	if sum == 0 {
		return
	}
	if cross.LengthSq() > 1e-10 {
		axis := cross.Normalize()
		angle := cross.Length() * angularBeta
		rotB := math.QuatFromAxisAngle(axis, angle*b.invInertia/sum)
		b.Quaternion = rotB.Mul(b.Quaternion).Normalize()
		rotA := math.QuatFromAxisAngle(axis, -angle*a.invInertia/sum)
		a.Quaternion = rotA.Mul(a.Quaternion).Normalize()
	}

	// Damp relative angular velocity perpendicular to the hinge axis.
	relOmega := b.AngularVelocity.Sub(a.AngularVelocity)
	along := wa.Scale(relOmega.Dot(wa))
	perp := relOmega.Sub(along)
	a.AngularVelocity = a.AngularVelocity.Add(perp.Scale(angularBeta * a.invInertia / sum))
	b.AngularVelocity = b.AngularVelocity.Sub(perp.Scale(angularBeta * b.invInertia / sum))
}

// LockConstraint freezes the relative transform of two bodies as it was at
// creation time.
type LockConstraint struct {
	constraintBase
	restOffset   math.Vec3 // b's position in a's frame
	restRotation math.Quat // b's orientation relative to a
}

// NewLockConstraint builds a rigid lock capturing the current relative
// pose of the two bodies. Contacts between locked bodies are suppressed.
func NewLockConstraint(a, b *Body) *LockConstraint {
	return &LockConstraint{
		constraintBase: newConstraintBase(a, b, false),
		restOffset:     a.PointToLocal(b.Position),
		restRotation:   a.Quaternion.Inverse().Mul(b.Quaternion).Normalize(),
	}
}

func (c *LockConstraint) solve(h float32) {
	a, b := c.bodyA, c.bodyB
	// Pin b's center to its rest location in a's frame.
	solvePointEquality(a, b, c.restOffset, math.Vec3{})
	nudgeOrientation(a, b, c.restRotation)
}
