package rig

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bandinopla/threejs-cannones-rigger/pkg/dynamics"
	"github.com/bandinopla/threejs-cannones-rigger/pkg/math"
	"github.com/bandinopla/threejs-cannones-rigger/pkg/scene"
)

// Errors surfaced by RigScene. Both indicate authoring or integration
// mistakes on custom-constraint nodes; everything else degrades to a
// logged skip.
var (
	ErrMissingCustomID = errors.New("custom constraint node has no identifier")
	ErrNoFactory       = errors.New("no factory registered for custom constraint id")
)

// CustomParams is what a registered custom-constraint factory receives.
// BodyA and BodyB are nil when the node's references did not resolve.
type CustomParams struct {
	Node           *scene.Node
	CollisionGroup int
	CollisionMask  int
	BodyA          *dynamics.Body
	BodyB          *dynamics.Body
}

// CustomFactory builds a host-defined constraint for a custom-tagged node.
type CustomFactory func(world *dynamics.World, params CustomParams) (Constraint, error)

// Session owns every body and constraint rigged from one scene. All
// methods must be called from the host's single simulation thread.
type Session struct {
	world *dynamics.World
	log   *zap.Logger

	// Cable tunes the chains built for cable-tagged nodes; adjust before
	// calling RigScene.
	Cable CableOptions

	factories map[string]CustomFactory

	bodies       map[*scene.Node]*dynamics.Body
	bodiesByName map[string]*dynamics.Body
	constraints  []Constraint
	joints       map[string]*Joint
	syncs        map[string]*SyncLink
	cables       map[string]*CableRig
	customs      map[string]Constraint
}

// NewSession creates a session rigging into the given world. log may be
// nil.
func NewSession(world *dynamics.World, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{
		world:     world,
		log:       log,
		Cable:     DefaultCableOptions(),
		factories: map[string]CustomFactory{},
	}
	s.resetIndices()
	return s
}

func (s *Session) resetIndices() {
	s.bodies = map[*scene.Node]*dynamics.Body{}
	s.bodiesByName = map[string]*dynamics.Body{}
	s.constraints = nil
	s.joints = map[string]*Joint{}
	s.syncs = map[string]*SyncLink{}
	s.cables = map[string]*CableRig{}
	s.customs = map[string]Constraint{}
}

// RegisterCustomConstraint registers (or overwrites) a factory for
// custom-tagged nodes carrying the given identifier. Must happen before
// RigScene meets such a node.
func (s *Session) RegisterCustomConstraint(id string, factory CustomFactory) {
	s.factories[id] = factory
}

// World returns the physics world the session rigs into.
func (s *Session) World() *dynamics.World {
	return s.world
}

// RigScene walks the subtree under root twice: pass 1 builds a body for
// every collider node, pass 2 builds constraints, which may reference
// bodies by node name in any order. Call Clear before rigging again or
// bodies and constraints will be duplicated.
func (s *Session) RigScene(root *scene.Node) error {
	root.UpdateWorldMatrix()

	root.Walk(func(n *scene.Node) bool {
		s.rigBody(n)
		return true
	})

	var err error
	root.Walk(func(n *scene.Node) bool {
		err = s.rigConstraint(n)
		return err == nil
	})
	return err
}

// rigBody is pass 1 for a single node.
func (s *Session) rigBody(n *scene.Node) {
	tag, filter := Normalize(n.Annotations[KeyType], n.Annotations[KeyGroup], n.Annotations[KeyMask])
	if !tag.Collider() {
		return
	}

	body := s.createCollider(colliderShape(tag, n), n, filter)
	if tag == TagCompound {
		attachCompoundChildren(body, n)
	}
	s.log.Debug("collider built",
		zap.String("node", n.Name),
		zap.String("tag", tag.String()),
		zap.Float32("mass", body.Mass()),
	)
}

// rigConstraint is pass 2 for a single node.
func (s *Session) rigConstraint(n *scene.Node) error {
	tag, filter := Normalize(n.Annotations[KeyType], n.Annotations[KeyGroup], n.Annotations[KeyMask])

	switch tag {
	case TagDistance, TagPoint, TagHinge, TagLock:
		s.rigJoint(tag, n)
	case TagSync:
		s.rigSync(n)
	case TagCable:
		s.rigCable(n, filter)
	case TagCustom:
		return s.rigCustom(n, filter)
	}
	return nil
}

// refBody resolves a cross-reference annotation (a node name) to a body
// built in pass 1.
func (s *Session) refBody(n *scene.Node, key string) *dynamics.Body {
	name := annotationString(n, key)
	if name == "" {
		return nil
	}
	return s.bodiesByName[name]
}

func (s *Session) track(c Constraint) {
	s.constraints = append(s.constraints, c)
}

func (s *Session) rigJoint(tag Tag, n *scene.Node) {
	bodyA := s.refBody(n, KeyRefA)
	bodyB := s.refBody(n, KeyRefB)
	if bodyA == nil || bodyB == nil {
		s.log.Warn("joint node references unresolved bodies, skipping",
			zap.String("node", n.Name),
			zap.String("tag", tag.String()),
			zap.String("refA", annotationString(n, KeyRefA)),
			zap.String("refB", annotationString(n, KeyRefB)),
		)
		return
	}

	var inner dynamics.Constraint
	switch tag {
	case TagDistance:
		inner = dynamics.NewDistanceConstraint(bodyA, bodyB, 0)
	case TagPoint:
		pivot := n.WorldPosition()
		inner = dynamics.NewPointToPointConstraint(
			bodyA, bodyA.PointToLocal(pivot),
			bodyB, bodyB.PointToLocal(pivot),
		)
	case TagHinge:
		pivot := n.WorldPosition()
		axis := n.WorldRotation().Rotate(math.Vec3{Y: 1})
		inner = dynamics.NewHingeConstraint(
			bodyA, bodyA.PointToLocal(pivot), bodyA.VectorToLocal(axis),
			bodyB, bodyB.PointToLocal(pivot), bodyB.VectorToLocal(axis),
		)
	case TagLock:
		inner = dynamics.NewLockConstraint(bodyA, bodyB)
	}

	s.world.AddConstraint(inner)
	joint := &Joint{Name: n.Name, Kind: tag, Inner: inner}
	if _, taken := s.joints[n.Name]; !taken {
		s.joints[n.Name] = joint
	}
	s.track(joint)
}

func (s *Session) rigSync(n *scene.Node) {
	source := s.refBody(n, KeySyncSource)
	if source == nil {
		s.log.Warn("sync node's source body not found, skipping",
			zap.String("node", n.Name),
			zap.String("source", annotationString(n, KeySyncSource)),
		)
		return
	}
	link := newSyncLink(n, source)
	if _, taken := s.syncs[n.Name]; !taken {
		s.syncs[n.Name] = link
	}
	s.track(link)
}

func (s *Session) rigCable(n *scene.Node, filter Filter) {
	children := n.Children()
	if len(children) < 2 {
		s.log.Warn("cable node needs two anchor children, skipping",
			zap.String("node", n.Name),
			zap.Int("children", len(children)),
		)
		return
	}

	cable := newCableRig(s.world, n, children[0], children[1], s.Cable, filter)
	if bodyA := s.refBody(n, KeyRefA); bodyA != nil {
		cable.LockHead(bodyA)
	}
	if bodyB := s.refBody(n, KeyRefB); bodyB != nil {
		cable.LockTail(bodyB)
	}
	if _, taken := s.cables[n.Name]; !taken {
		s.cables[n.Name] = cable
	}
	s.track(cable)
}

func (s *Session) rigCustom(n *scene.Node, filter Filter) error {
	id := annotationString(n, KeyCustomID)
	if id == "" {
		return fmt.Errorf("node %q: %w", n.Name, ErrMissingCustomID)
	}
	factory, ok := s.factories[id]
	if !ok {
		return fmt.Errorf("node %q, id %q: %w", n.Name, id, ErrNoFactory)
	}

	constraint, err := factory(s.world, CustomParams{
		Node:           n,
		CollisionGroup: defaultFilterBits(filter.Group),
		CollisionMask:  defaultFilterBits(filter.Mask),
		BodyA:          s.refBody(n, KeyRefA),
		BodyB:          s.refBody(n, KeyRefB),
	})
	if err != nil {
		return fmt.Errorf("custom constraint %q on node %q: %w", id, n.Name, err)
	}

	if _, taken := s.customs[n.Name]; !taken {
		s.customs[n.Name] = constraint
	}
	s.track(constraint)
	return nil
}

// Update runs every tracked constraint's per-frame work, in creation
// order. Call once per tick after the world has stepped.
func (s *Session) Update(dt float32) {
	for _, c := range s.constraints {
		c.Update(dt)
	}
}

// Clear removes every tracked constraint (in reverse creation order) and
// then every tracked body from the world, and empties the indices. Safe to
// call when nothing was rigged.
func (s *Session) Clear() {
	for i := len(s.constraints) - 1; i >= 0; i-- {
		s.constraints[i].RemoveFrom(s.world)
	}
	for _, body := range s.bodies {
		s.world.RemoveBody(body)
	}
	s.resetIndices()
}

// GetBodyByName returns the body built for the collider node with the
// given name, or nil. With duplicate names the first built body wins.
func (s *Session) GetBodyByName(name string) *dynamics.Body {
	return s.bodiesByName[name]
}

// BodyFor returns the body built for the given node, or nil.
func (s *Session) BodyFor(node *scene.Node) *dynamics.Body {
	return s.bodies[node]
}

// GetJoint returns the standard joint built from the named constraint
// node, or nil.
func (s *Session) GetJoint(name string) *Joint {
	return s.joints[name]
}

// GetSyncLink returns the sync link built from the named node, or nil.
func (s *Session) GetSyncLink(name string) *SyncLink {
	return s.syncs[name]
}

// GetCableRig returns the cable rig built from the named node, or nil.
func (s *Session) GetCableRig(name string) *CableRig {
	return s.cables[name]
}

// GetCustomConstraint returns the custom constraint built from the named
// node, or nil.
func (s *Session) GetCustomConstraint(name string) Constraint {
	return s.customs[name]
}

// Constraints returns every tracked constraint in creation order.
func (s *Session) Constraints() []Constraint {
	return s.constraints
}
