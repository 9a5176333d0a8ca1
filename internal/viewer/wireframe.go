package viewer

import (
	"github.com/chewxy/math32"

	"github.com/bandinopla/threejs-cannones-rigger/pkg/dynamics"
	"github.com/bandinopla/threejs-cannones-rigger/pkg/math"
	"github.com/bandinopla/threejs-cannones-rigger/pkg/rig"
)

// Color is an RGB line color in 0..1.
type Color [3]float32

var (
	ColorStatic  = Color{0.3, 0.8, 0.3}
	ColorDynamic = Color{0.9, 0.9, 0.9}
	ColorCable   = Color{0.2, 0.7, 1.0}
	ColorJoint   = Color{1.0, 0.8, 0.1}
)

// circleSegments is the segment count per sphere great circle.
const circleSegments = 24

// floatsPerVertex is position plus color.
const floatsPerVertex = 6

// LineBuffer accumulates colored line vertices for one frame.
type LineBuffer struct {
	verts []float32
}

// Reset clears the buffer while keeping its capacity.
func (b *LineBuffer) Reset() {
	b.verts = b.verts[:0]
}

// Line appends one line segment.
func (b *LineBuffer) Line(from, to math.Vec3, color Color) {
	b.verts = append(b.verts,
		from.X, from.Y, from.Z, color[0], color[1], color[2],
		to.X, to.Y, to.Z, color[0], color[1], color[2],
	)
}

// Vertices returns the interleaved position/color data.
func (b *LineBuffer) Vertices() []float32 {
	return b.verts
}

// VertexCount returns the number of vertices in the buffer.
func (b *LineBuffer) VertexCount() int {
	return len(b.verts) / floatsPerVertex
}

// AppendWorld draws every body in the world, static ones in green.
func (b *LineBuffer) AppendWorld(world *dynamics.World) {
	for _, body := range world.Bodies() {
		color := ColorDynamic
		if body.Static() {
			color = ColorStatic
		}
		b.AppendBody(body, color)
	}
}

// AppendBody draws all shapes of a body at its current pose.
func (b *LineBuffer) AppendBody(body *dynamics.Body, color Color) {
	for _, ref := range body.Shapes {
		toWorld := func(local math.Vec3) math.Vec3 {
			return body.PointToWorld(ref.Offset.Add(ref.Orientation.Rotate(local)))
		}
		switch shape := ref.Shape.(type) {
		case *dynamics.Box:
			b.appendBox(shape.HalfExtents, toWorld, color)
		case *dynamics.Sphere:
			b.appendSphere(shape.Radius, toWorld, color)
		}
	}
}

// AppendSession draws cables as polylines and joints as lines between
// their anchor bodies, on top of whatever is already buffered.
func (b *LineBuffer) AppendSession(session *rig.Session) {
	for _, c := range session.Constraints() {
		switch rc := c.(type) {
		case *rig.CableRig:
			b.AppendPolyline(rc.Points(), ColorCable)
		case *rig.Joint:
			ba, bb := rc.Inner.BodyA(), rc.Inner.BodyB()
			if ba != nil && bb != nil {
				b.Line(ba.Position, bb.Position, ColorJoint)
			}
		}
	}
}

// AppendPolyline draws consecutive points as a connected line strip.
func (b *LineBuffer) AppendPolyline(points []math.Vec3, color Color) {
	for i := 1; i < len(points); i++ {
		b.Line(points[i-1], points[i], color)
	}
}

func (b *LineBuffer) appendBox(half math.Vec3, toWorld func(math.Vec3) math.Vec3, color Color) {
	corner := func(sx, sy, sz float32) math.Vec3 {
		return toWorld(math.Vec3{X: sx * half.X, Y: sy * half.Y, Z: sz * half.Z})
	}
	var c [8]math.Vec3
	idx := 0
	for _, z := range []float32{-1, 1} {
		for _, y := range []float32{-1, 1} {
			for _, x := range []float32{-1, 1} {
				c[idx] = corner(x, y, z)
				idx++
			}
		}
	}
	// 12 edges of the cube, indexed by the loop order above.
	edges := [12][2]int{
		{0, 1}, {2, 3}, {4, 5}, {6, 7},
		{0, 2}, {1, 3}, {4, 6}, {5, 7},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
	for _, e := range edges {
		b.Line(c[e[0]], c[e[1]], color)
	}
}

func (b *LineBuffer) appendSphere(radius float32, toWorld func(math.Vec3) math.Vec3, color Color) {
	circle := func(point func(cos, sin float32) math.Vec3) {
		step := 2 * math32.Pi / circleSegments
		prev := toWorld(point(1, 0))
		for i := 1; i <= circleSegments; i++ {
			angle := float32(i) * step
			next := toWorld(point(math32.Cos(angle), math32.Sin(angle)))
			b.Line(prev, next, color)
			prev = next
		}
	}
	circle(func(c, s float32) math.Vec3 { return math.Vec3{X: radius * c, Y: radius * s} })
	circle(func(c, s float32) math.Vec3 { return math.Vec3{Y: radius * c, Z: radius * s} })
	circle(func(c, s float32) math.Vec3 { return math.Vec3{Z: radius * c, X: radius * s} })
}
