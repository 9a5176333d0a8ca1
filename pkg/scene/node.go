// Package scene provides the hierarchical scene graph the rigger walks.
// Nodes are produced by an importer (or by hand in tests) and carry the
// free-form annotations written by the authoring tool's exporter.
package scene

import (
	"github.com/bandinopla/threejs-cannones-rigger/pkg/math"
)

// Node is an entry in the scene graph. Local transform components are
// authoritative; the world matrix is derived by UpdateWorldMatrix.
type Node struct {
	Name    string
	Visible bool

	Position math.Vec3
	Rotation math.Quat
	Scale    math.Vec3

	// Annotations holds the raw key/value metadata exported with the node.
	// The rigger reads it; nothing here writes it.
	Annotations map[string]any

	parent   *Node
	children []*Node

	world math.Mat4
}

// New creates a detached node with identity transform.
func New(name string) *Node {
	return &Node{
		Name:        name,
		Visible:     true,
		Rotation:    math.QuatIdentity(),
		Scale:       math.Vec3{X: 1, Y: 1, Z: 1},
		Annotations: map[string]any{},
		world:       math.Identity(),
	}
}

// Parent returns the node's parent, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the node's direct children in insertion order.
func (n *Node) Children() []*Node {
	return n.children
}

// AddChild attaches child to n, detaching it from any previous parent.
func (n *Node) AddChild(child *Node) *Node {
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}
	child.parent = n
	n.children = append(n.children, child)
	return child
}

// RemoveChild detaches child from n. No-op if child is not a direct child.
func (n *Node) RemoveChild(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// LocalMatrix returns the node's local transform matrix.
func (n *Node) LocalMatrix() math.Mat4 {
	return math.Compose(n.Position, n.Rotation, n.Scale)
}

// UpdateWorldMatrix recomputes the world matrix of n and all descendants
// from the current local transforms. n's parent chain is assumed current;
// call this on the root before reading world poses.
func (n *Node) UpdateWorldMatrix() {
	if n.parent != nil {
		n.world = n.parent.world.Mul(n.LocalMatrix())
	} else {
		n.world = n.LocalMatrix()
	}
	for _, c := range n.children {
		c.UpdateWorldMatrix()
	}
}

// WorldMatrix returns the world matrix as of the last UpdateWorldMatrix.
func (n *Node) WorldMatrix() math.Mat4 {
	return n.world
}

// WorldPosition returns the world-space position of the node.
func (n *Node) WorldPosition() math.Vec3 {
	return n.world.Translation()
}

// WorldRotation returns the world-space orientation of the node.
func (n *Node) WorldRotation() math.Quat {
	_, q, _ := n.world.Decompose()
	return q
}

// WorldScale returns the world-space scale of the node.
func (n *Node) WorldScale() math.Vec3 {
	_, _, s := n.world.Decompose()
	return s
}

// SetWorldPose positions the node so its world transform matches the given
// pose, converting into parent-local space when the node has a parent.
// Scale is left untouched.
func (n *Node) SetWorldPose(position math.Vec3, rotation math.Quat) {
	if n.parent == nil {
		n.Position = position
		n.Rotation = rotation
		return
	}
	n.Position = n.parent.world.Inverse().TransformPoint(position)
	_, parentRot, _ := n.parent.world.Decompose()
	n.Rotation = parentRot.Inverse().Mul(rotation).Normalize()
}

// Walk visits n and every descendant depth-first in child order.
// Returning false from fn stops the walk.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Find returns the first node in the subtree with the given name, or nil.
// When names collide the first match in traversal order wins.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Walk(func(node *Node) bool {
		if node.Name == name {
			found = node
			return false
		}
		return true
	})
	return found
}
