package rig

import (
	"github.com/bandinopla/threejs-cannones-rigger/pkg/dynamics"
	"github.com/bandinopla/threejs-cannones-rigger/pkg/math"
	"github.com/bandinopla/threejs-cannones-rigger/pkg/scene"
)

// defaultFilterBits maps an unspecified (zero) group or mask to the
// default collision bit.
func defaultFilterBits(bits int) int {
	if bits == 0 {
		return dynamics.DefaultCollisionFilter
	}
	return bits
}

// annotationFloat reads a numeric annotation, tolerating the numeric types
// different importers produce. Missing or non-numeric values yield 0.
func annotationFloat(n *scene.Node, key string) float32 {
	switch v := n.Annotations[key].(type) {
	case float32:
		return v
	case float64:
		return float32(v)
	case int:
		return float32(v)
	case int64:
		return float32(v)
	}
	return 0
}

// annotationString reads a string annotation; missing values yield "".
func annotationString(n *scene.Node, key string) string {
	s, _ := n.Annotations[key].(string)
	return s
}

// createCollider builds a body for a collider node: shape sized elsewhere,
// posed at the node's world transform, filtered per the node's
// annotations, registered with the world and indexed by node. The node is
// made invisible; it is a proxy for physics geometry, not a renderable.
func (s *Session) createCollider(shape dynamics.Shape, node *scene.Node, filter Filter) *dynamics.Body {
	node.Visible = false

	body := dynamics.NewBody(annotationFloat(node, KeyMass))
	body.Name = node.Name
	body.CollisionGroup = defaultFilterBits(filter.Group)
	body.CollisionMask = defaultFilterBits(filter.Mask)

	position, rotation, _ := node.WorldMatrix().Decompose()
	body.Position = position
	body.Quaternion = rotation

	if shape != nil {
		body.AddShape(shape, math.Vec3{}, math.QuatIdentity())
	}

	s.world.AddBody(body)
	s.bodies[node] = body
	if _, taken := s.bodiesByName[node.Name]; !taken {
		s.bodiesByName[node.Name] = body
	}
	return body
}

// attachCompoundChildren adds one box sub-shape per direct child of a
// compound node, expressed relative to the compound's world frame. World
// matrices must be current before this runs.
func attachCompoundChildren(body *dynamics.Body, compound *scene.Node) {
	compoundPos, compoundRot, _ := compound.WorldMatrix().Decompose()
	invRot := compoundRot.Inverse()

	for _, child := range compound.Children() {
		childPos, childRot, childScale := child.WorldMatrix().Decompose()

		offset := invRot.Rotate(childPos.Sub(compoundPos))
		orientation := invRot.Mul(childRot).Normalize()

		body.AddShape(dynamics.NewBox(childScale), offset, orientation)
	}
}

// colliderShape builds the sized shape for a box or sphere tag from the
// node's world scale. Compound nodes start with no shape of their own.
func colliderShape(tag Tag, node *scene.Node) dynamics.Shape {
	switch tag {
	case TagBox:
		return dynamics.NewBox(node.WorldScale())
	case TagSphere:
		// Uniform scale is an authoring assumption; X stands in for the
		// radius either way.
		return dynamics.NewSphere(node.WorldScale().X)
	}
	return nil
}
