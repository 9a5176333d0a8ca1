package rig

import (
	"github.com/bandinopla/threejs-cannones-rigger/pkg/dynamics"
	"github.com/bandinopla/threejs-cannones-rigger/pkg/math"
	"github.com/bandinopla/threejs-cannones-rigger/pkg/scene"
)

// CableOptions tunes the chains built for cable-tagged nodes.
type CableOptions struct {
	// SegmentsPerUnit controls chain resolution; at least 2 segments are
	// always created.
	SegmentsPerUnit float32
	// SegmentRadius is the collision radius of each chain body.
	SegmentRadius float32
	// SegmentMass is the mass of each chain body.
	SegmentMass float32
}

// DefaultCableOptions returns the tuning used when the host sets nothing.
func DefaultCableOptions() CableOptions {
	return CableOptions{
		SegmentsPerUnit: 2,
		SegmentRadius:   0.05,
		SegmentMass:     0.1,
	}
}

// CableRig is a flexible chain of bodies spanning two anchor points,
// exposed to the session as one constraint-like unit. The head and tail
// can be rigid-locked to external bodies; sample points along the chain
// are refreshed every update for a host skinning pass.
type CableRig struct {
	name   string
	world  *dynamics.World
	length float32

	segments []*dynamics.Body
	links    []dynamics.Constraint
	headLock *dynamics.PointToPointConstraint
	tailLock *dynamics.PointToPointConstraint

	points  []math.Vec3
	enabled bool
}

// newCableRig builds the chain between the world positions of head and
// tail and registers every body and link with the world.
func newCableRig(world *dynamics.World, node *scene.Node, head, tail *scene.Node, opts CableOptions, filter Filter) *CableRig {
	headPos := head.WorldPosition()
	tailPos := tail.WorldPosition()
	length := headPos.Distance(tailPos)

	segments := int(length * opts.SegmentsPerUnit)
	if segments < 2 {
		segments = 2
	}

	rig := &CableRig{
		name:    node.Name,
		world:   world,
		length:  length,
		enabled: true,
	}

	spacing := length / float32(segments-1)
	for i := 0; i < segments; i++ {
		t := float32(i) / float32(segments-1)
		b := dynamics.NewBody(opts.SegmentMass)
		b.Name = node.Name
		b.AddShape(dynamics.NewSphere(opts.SegmentRadius), math.Vec3{}, math.QuatIdentity())
		b.Position = headPos.Lerp(tailPos, t)
		b.CollisionGroup = defaultFilterBits(filter.Group)
		b.CollisionMask = defaultFilterBits(filter.Mask)
		b.LinearDamping = 0.3
		world.AddBody(b)
		rig.segments = append(rig.segments, b)

		if i > 0 {
			link := dynamics.NewDistanceConstraint(rig.segments[i-1], b, spacing)
			world.AddConstraint(link)
			rig.links = append(rig.links, link)
		}
	}

	rig.points = make([]math.Vec3, segments)
	rig.refreshPoints()
	return rig
}

// Length returns the rig length measured between the anchors at build time.
func (c *CableRig) Length() float32 {
	return c.length
}

// Points returns the current chain sample points, head to tail. The slice
// is reused between updates; copy it to keep a snapshot.
func (c *CableRig) Points() []math.Vec3 {
	return c.points
}

// Head returns the chain body at the head anchor.
func (c *CableRig) Head() *dynamics.Body {
	return c.segments[0]
}

// Tail returns the chain body at the tail anchor.
func (c *CableRig) Tail() *dynamics.Body {
	return c.segments[len(c.segments)-1]
}

// LockHead rigid-locks the head of the chain to the given body, replacing
// any previous head lock.
func (c *CableRig) LockHead(body *dynamics.Body) {
	c.headLock = c.relock(c.headLock, c.Head(), body)
}

// LockTail rigid-locks the tail of the chain to the given body, replacing
// any previous tail lock.
func (c *CableRig) LockTail(body *dynamics.Body) {
	c.tailLock = c.relock(c.tailLock, c.Tail(), body)
}

func (c *CableRig) relock(old *dynamics.PointToPointConstraint, end, body *dynamics.Body) *dynamics.PointToPointConstraint {
	if old != nil {
		c.world.RemoveConstraint(old)
	}
	lock := dynamics.NewPointToPointConstraint(
		end, math.Vec3{},
		body, body.PointToLocal(end.Position),
	)
	// The chain end sits inside (or flush against) the anchor body;
	// contacts there would fight the lock.
	lock.SetCollideConnected(false)
	lock.SetEnabled(c.enabled)
	c.world.AddConstraint(lock)
	return lock
}

// Enable re-enables the anchor locks and every internal link.
func (c *CableRig) Enable() {
	c.setEnabled(true)
}

// Disable suspends the anchor locks and every internal link.
func (c *CableRig) Disable() {
	c.setEnabled(false)
}

func (c *CableRig) setEnabled(enabled bool) {
	c.enabled = enabled
	for _, link := range c.links {
		link.SetEnabled(enabled)
	}
	if c.headLock != nil {
		c.headLock.SetEnabled(enabled)
	}
	if c.tailLock != nil {
		c.tailLock.SetEnabled(enabled)
	}
}

// Update resyncs the sample points with the chain bodies.
func (c *CableRig) Update(dt float32) {
	c.refreshPoints()
}

func (c *CableRig) refreshPoints() {
	for i, seg := range c.segments {
		c.points[i] = seg.Position
	}
}

// RemoveFrom removes the locks, links and chain bodies from the world.
func (c *CableRig) RemoveFrom(world *dynamics.World) {
	if c.headLock != nil {
		world.RemoveConstraint(c.headLock)
		c.headLock = nil
	}
	if c.tailLock != nil {
		world.RemoveConstraint(c.tailLock)
		c.tailLock = nil
	}
	for _, link := range c.links {
		world.RemoveConstraint(link)
	}
	c.links = nil
	for _, seg := range c.segments {
		world.RemoveBody(seg)
	}
	c.segments = nil
}
