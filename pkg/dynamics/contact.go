package dynamics

import (
	"github.com/bandinopla/threejs-cannones-rigger/pkg/math"
)

// contact is a single penetrating point between two bodies.
// normal points from a towards b.
type contact struct {
	a, b   *Body
	point  math.Vec3
	normal math.Vec3
	depth  float32
}

// collide generates contacts for every overlapping shape pair of two bodies.
func collide(a, b *Body) []contact {
	var contacts []contact
	for _, sa := range a.Shapes {
		for _, sb := range b.Shapes {
			if c, ok := collideShapes(a, sa, b, sb); ok {
				contacts = append(contacts, c)
			}
		}
	}
	return contacts
}

func collideShapes(a *Body, sa ShapeRef, b *Body, sb ShapeRef) (contact, bool) {
	switch shapeA := sa.Shape.(type) {
	case *Sphere:
		switch shapeB := sb.Shape.(type) {
		case *Sphere:
			return sphereSphere(a, sa, shapeA, b, sb, shapeB)
		case *Box:
			return sphereBox(a, sa, shapeA, b, sb, shapeB)
		}
	case *Box:
		switch shapeB := sb.Shape.(type) {
		case *Sphere:
			c, ok := sphereBox(b, sb, shapeB, a, sa, shapeA)
			if ok {
				c.a, c.b = a, b
				c.normal = c.normal.Negate()
			}
			return c, ok
		case *Box:
			return boxBox(a, sa, shapeA, b, sb, shapeB)
		}
	}
	return contact{}, false
}

func sphereSphere(a *Body, sa ShapeRef, shapeA *Sphere, b *Body, sb ShapeRef, shapeB *Sphere) (contact, bool) {
	ca := a.PointToWorld(sa.Offset)
	cb := b.PointToWorld(sb.Offset)
	delta := cb.Sub(ca)
	dist := delta.Length()
	sum := shapeA.Radius + shapeB.Radius
	if dist >= sum {
		return contact{}, false
	}
	normal := math.Vec3{Y: 1}
	if dist > 1e-6 {
		normal = delta.Scale(1 / dist)
	}
	return contact{
		a:      a,
		b:      b,
		point:  ca.Add(normal.Scale(shapeA.Radius)),
		normal: normal,
		depth:  sum - dist,
	}, true
}

func sphereBox(a *Body, sa ShapeRef, sphere *Sphere, b *Body, sb ShapeRef, box *Box) (contact, bool) {
	center := a.PointToWorld(sa.Offset)

	boxQuat := b.Quaternion.Mul(sb.Orientation)
	boxPos := b.PointToWorld(sb.Offset)

	// Sphere center in the box frame.
	local := boxQuat.Inverse().Rotate(center.Sub(boxPos))
	he := box.HalfExtents
	clamped := math.Vec3{
		X: clamp32(local.X, -he.X, he.X),
		Y: clamp32(local.Y, -he.Y, he.Y),
		Z: clamp32(local.Z, -he.Z, he.Z),
	}
	delta := local.Sub(clamped)
	distSq := delta.LengthSq()
	if distSq > sphere.Radius*sphere.Radius {
		return contact{}, false
	}

	var normalLocal math.Vec3
	var depth float32
	if distSq > 1e-9 {
		// Center outside the box: push along the separation vector.
		dist := delta.Length()
		normalLocal = delta.Scale(1 / dist)
		depth = sphere.Radius - dist
	} else {
		// Center inside the box: push out along the closest face.
		dx := he.X - abs32(local.X)
		dy := he.Y - abs32(local.Y)
		dz := he.Z - abs32(local.Z)
		switch {
		case dx <= dy && dx <= dz:
			normalLocal = math.Vec3{X: sign32(local.X)}
			depth = dx + sphere.Radius
		case dy <= dz:
			normalLocal = math.Vec3{Y: sign32(local.Y)}
			depth = dy + sphere.Radius
		default:
			normalLocal = math.Vec3{Z: sign32(local.Z)}
			depth = dz + sphere.Radius
		}
	}

	normalWorld := boxQuat.Rotate(normalLocal)
	point := boxPos.Add(boxQuat.Rotate(clamped))
	return contact{
		a:      a,
		b:      b,
		point:  point,
		normal: normalWorld.Negate(), // from sphere towards box
		depth:  depth,
	}, true
}

// boxBox resolves two boxes through their world-axis bounds. Rotated boxes
// get a conservative fit; for the axis-aligned rigs the exporter produces
// this is exact.
func boxBox(a *Body, sa ShapeRef, boxA *Box, b *Body, sb ShapeRef, boxB *Box) (contact, bool) {
	ca := a.PointToWorld(sa.Offset)
	cb := b.PointToWorld(sb.Offset)
	ea := rotatedExtents(boxA.HalfExtents, a.Quaternion.Mul(sa.Orientation))
	eb := rotatedExtents(boxB.HalfExtents, b.Quaternion.Mul(sb.Orientation))

	delta := cb.Sub(ca)
	overlapX := ea.X + eb.X - abs32(delta.X)
	overlapY := ea.Y + eb.Y - abs32(delta.Y)
	overlapZ := ea.Z + eb.Z - abs32(delta.Z)
	if overlapX <= 0 || overlapY <= 0 || overlapZ <= 0 {
		return contact{}, false
	}

	var normal math.Vec3
	var depth float32
	switch {
	case overlapX <= overlapY && overlapX <= overlapZ:
		normal = math.Vec3{X: sign32(delta.X)}
		depth = overlapX
	case overlapY <= overlapZ:
		normal = math.Vec3{Y: sign32(delta.Y)}
		depth = overlapY
	default:
		normal = math.Vec3{Z: sign32(delta.Z)}
		depth = overlapZ
	}

	// Contact point: middle of the overlap along the normal, at b's center
	// projected onto a's surface.
	point := cb.Sub(normal.Scale(eb.Dot(math.Vec3{
		X: abs32(normal.X), Y: abs32(normal.Y), Z: abs32(normal.Z),
	})))
	return contact{a: a, b: b, point: point, normal: normal, depth: depth}, true
}

// resolve applies an impulse plus positional correction for one contact.
func (c *contact) resolve() {
	a, b := c.a, c.b
	invMassSum := a.invMass + b.invMass
	if invMassSum == 0 {
		return
	}

	relVel := b.VelocityAt(c.point).Sub(a.VelocityAt(c.point))
	vn := relVel.Dot(c.normal)
	if vn < 0 {
		ra := c.point.Sub(a.Position)
		rb := c.point.Sub(b.Position)
		angA := ra.Cross(c.normal).LengthSq() * a.invInertia
		angB := rb.Cross(c.normal).LengthSq() * b.invInertia
		k := invMassSum + angA + angB

		restitution := min32(a.Restitution, b.Restitution)
		jn := -(1 + restitution) * vn / k
		impulse := c.normal.Scale(jn)
		a.ApplyImpulse(impulse.Negate(), c.point)
		b.ApplyImpulse(impulse, c.point)

		// Coulomb friction against the tangential velocity.
		tangent := relVel.Sub(c.normal.Scale(vn))
		tLen := tangent.Length()
		if tLen > 1e-6 {
			tDir := tangent.Scale(1 / tLen)
			jt := -tLen / k
			mu := (a.Friction + b.Friction) / 2
			jt = clamp32(jt, -mu*jn, mu*jn)
			fImpulse := tDir.Scale(jt)
			a.ApplyImpulse(fImpulse.Negate(), c.point)
			b.ApplyImpulse(fImpulse, c.point)
		}
	}

	// Positional correction keeps resting stacks from sinking.
	const slop = 0.005
	const percent = 0.6
	depth := c.depth - slop
	if depth <= 0 {
		return
	}
	correction := c.normal.Scale(depth * percent / invMassSum)
	a.Position = a.Position.Sub(correction.Scale(a.invMass))
	b.Position = b.Position.Add(correction.Scale(b.invMass))
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sign32(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}
