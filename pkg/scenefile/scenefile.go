// Package scenefile parses YAML scene descriptions into a scene graph.
// It exists for the demo harness and tests; real hosts hand the rigger a
// scene graph produced by their own importer.
package scenefile

import (
	"fmt"
	"os"

	"github.com/chewxy/math32"
	"gopkg.in/yaml.v3"

	"github.com/bandinopla/threejs-cannones-rigger/pkg/math"
	"github.com/bandinopla/threejs-cannones-rigger/pkg/scene"
)

// Document is the top-level YAML structure.
type Document struct {
	Name  string     `yaml:"name"`
	Nodes []NodeSpec `yaml:"nodes"`
}

// NodeSpec describes one node. Rotation is euler degrees applied in X, Y,
// Z order; omitted vectors default to zero (scale to one).
type NodeSpec struct {
	Name        string         `yaml:"name"`
	Position    []float32      `yaml:"position"`
	Rotation    []float32      `yaml:"rotation"`
	Scale       []float32      `yaml:"scale"`
	Annotations map[string]any `yaml:"annotations"`
	Children    []NodeSpec     `yaml:"children"`
}

// Load reads and parses a scene file.
func Load(path string) (*scene.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene file: %w", err)
	}
	root, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return root, nil
}

// Parse builds a scene graph from YAML. The returned root carries the
// document name and has up-to-date world matrices.
func Parse(data []byte) (*scene.Node, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	name := doc.Name
	if name == "" {
		name = "scene"
	}
	root := scene.New(name)
	for i := range doc.Nodes {
		child, err := buildNode(&doc.Nodes[i])
		if err != nil {
			return nil, err
		}
		root.AddChild(child)
	}
	root.UpdateWorldMatrix()
	return root, nil
}

func buildNode(spec *NodeSpec) (*scene.Node, error) {
	n := scene.New(spec.Name)

	var err error
	if n.Position, err = vec3(spec.Position, math.Vec3{}, spec.Name, "position"); err != nil {
		return nil, err
	}
	if n.Scale, err = vec3(spec.Scale, math.Vec3{X: 1, Y: 1, Z: 1}, spec.Name, "scale"); err != nil {
		return nil, err
	}
	euler, err := vec3(spec.Rotation, math.Vec3{}, spec.Name, "rotation")
	if err != nil {
		return nil, err
	}
	n.Rotation = eulerDegrees(euler)

	for key, value := range spec.Annotations {
		n.Annotations[key] = value
	}

	for i := range spec.Children {
		child, err := buildNode(&spec.Children[i])
		if err != nil {
			return nil, err
		}
		n.AddChild(child)
	}
	return n, nil
}

func vec3(values []float32, fallback math.Vec3, node, field string) (math.Vec3, error) {
	switch len(values) {
	case 0:
		return fallback, nil
	case 3:
		return math.Vec3{X: values[0], Y: values[1], Z: values[2]}, nil
	}
	return math.Vec3{}, fmt.Errorf("node %q: %s needs 3 components, got %d", node, field, len(values))
}

const degToRad = math32.Pi / 180

// eulerDegrees converts XYZ euler angles in degrees to a quaternion,
// applied in X, then Y, then Z order.
func eulerDegrees(deg math.Vec3) math.Quat {
	qx := math.QuatFromAxisAngle(math.Vec3{X: 1}, deg.X*degToRad)
	qy := math.QuatFromAxisAngle(math.Vec3{Y: 1}, deg.Y*degToRad)
	qz := math.QuatFromAxisAngle(math.Vec3{Z: 1}, deg.Z*degToRad)
	return qz.Mul(qy).Mul(qx).Normalize()
}
