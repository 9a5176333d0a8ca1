package dynamics

import (
	"bytes"

	"github.com/bandinopla/threejs-cannones-rigger/pkg/math"
)

// World owns bodies and constraints and advances them in fixed substeps.
type World struct {
	Gravity math.Vec3

	// Substeps per Step call; more substeps buy stability for stacked
	// bodies and stiff joints.
	Substeps int
	// SolverIterations is how many times the joint set is relaxed per
	// substep.
	SolverIterations int

	bodies      []*Body
	constraints []Constraint
}

// NewWorld creates a world with the given gravity and default solver
// settings.
func NewWorld(gravity math.Vec3) *World {
	return &World{
		Gravity:          gravity,
		Substeps:         2,
		SolverIterations: 8,
	}
}

// AddBody registers a body with the world.
func (w *World) AddBody(b *Body) {
	w.bodies = append(w.bodies, b)
}

// RemoveBody unregisters a body. No-op if the body is not registered.
func (w *World) RemoveBody(b *Body) {
	for i, body := range w.bodies {
		if body == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			return
		}
	}
}

// AddConstraint registers a constraint with the world.
func (w *World) AddConstraint(c Constraint) {
	w.constraints = append(w.constraints, c)
}

// RemoveConstraint unregisters a constraint. No-op if not registered.
func (w *World) RemoveConstraint(c Constraint) {
	for i, constraint := range w.constraints {
		if constraint == c {
			w.constraints = append(w.constraints[:i], w.constraints[i+1:]...)
			return
		}
	}
}

// Bodies returns the registered bodies in registration order.
func (w *World) Bodies() []*Body {
	return w.bodies
}

// NumBodies returns the number of registered bodies.
func (w *World) NumBodies() int {
	return len(w.bodies)
}

// NumConstraints returns the number of registered constraints.
func (w *World) NumConstraints() int {
	return len(w.constraints)
}

// BodyByName returns the first registered body with the given name, or nil.
func (w *World) BodyByName(name string) *Body {
	for _, b := range w.bodies {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Step advances the simulation by dt seconds.
func (w *World) Step(dt float32) {
	if dt <= 0 {
		return
	}
	substeps := w.Substeps
	if substeps < 1 {
		substeps = 1
	}
	h := dt / float32(substeps)

	suppressed := w.suppressedPairs()

	for s := 0; s < substeps; s++ {
		for _, b := range w.bodies {
			b.integrate(h, w.Gravity)
		}

		for _, c := range w.findContacts(suppressed) {
			c.resolve()
		}

		iterations := w.SolverIterations
		if iterations < 1 {
			iterations = 1
		}
		for i := 0; i < iterations; i++ {
			for _, c := range w.constraints {
				if c.Enabled() {
					c.solve(h)
				}
			}
		}
	}
}

type bodyPair struct {
	a, b *Body
}

func orderedPair(a, b *Body) bodyPair {
	if bytes.Compare(a.ID[:], b.ID[:]) > 0 {
		a, b = b, a
	}
	return bodyPair{a: a, b: b}
}

// suppressedPairs collects body pairs whose contacts are disabled by an
// enabled constraint with CollideConnected() == false.
func (w *World) suppressedPairs() map[bodyPair]struct{} {
	var pairs map[bodyPair]struct{}
	for _, c := range w.constraints {
		if c.CollideConnected() || !c.Enabled() {
			continue
		}
		a, b := c.BodyA(), c.BodyB()
		if a == nil || b == nil {
			continue
		}
		if pairs == nil {
			pairs = map[bodyPair]struct{}{}
		}
		pairs[orderedPair(a, b)] = struct{}{}
	}
	return pairs
}

// findContacts runs the all-pairs broad phase plus per-shape narrow phase.
func (w *World) findContacts(suppressed map[bodyPair]struct{}) []contact {
	var contacts []contact
	for i := 0; i < len(w.bodies); i++ {
		for j := i + 1; j < len(w.bodies); j++ {
			a, b := w.bodies[i], w.bodies[j]
			if a.Static() && b.Static() {
				continue
			}
			if a.CollisionGroup&b.CollisionMask == 0 || b.CollisionGroup&a.CollisionMask == 0 {
				continue
			}
			if suppressed != nil {
				if _, skip := suppressed[orderedPair(a, b)]; skip {
					continue
				}
			}
			if !aabbOverlap(a, b) {
				continue
			}
			contacts = append(contacts, collide(a, b)...)
		}
	}
	return contacts
}

func aabbOverlap(a, b *Body) bool {
	aMin, aMax := a.AABB()
	bMin, bMax := b.AABB()
	return aMin.X <= bMax.X && aMax.X >= bMin.X &&
		aMin.Y <= bMax.Y && aMax.Y >= bMin.Y &&
		aMin.Z <= bMax.Z && aMax.Z >= bMin.Z
}
