package viewer

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/bandinopla/threejs-cannones-rigger/pkg/dynamics"
	"github.com/bandinopla/threejs-cannones-rigger/pkg/math"
)

func TestBoxWireframeVertexCount(t *testing.T) {
	body := dynamics.NewBody(0)
	body.AddShape(dynamics.NewBox(math.Vec3{X: 1, Y: 1, Z: 1}), math.Vec3{}, math.QuatIdentity())

	var buf LineBuffer
	buf.AppendBody(body, ColorStatic)
	if got := buf.VertexCount(); got != 24 {
		t.Fatalf("box wireframe has %d vertices, want 24", got)
	}
}

func TestBoxWireframeFollowsPose(t *testing.T) {
	body := dynamics.NewBody(1)
	body.Position = math.Vec3{X: 10, Y: 5, Z: -2}
	body.AddShape(dynamics.NewBox(math.Vec3{X: 1, Y: 2, Z: 3}), math.Vec3{}, math.QuatIdentity())

	var buf LineBuffer
	buf.AppendBody(body, ColorDynamic)

	// Every vertex stays inside the translated box bounds.
	verts := buf.Vertices()
	for i := 0; i < len(verts); i += floatsPerVertex {
		x, y, z := verts[i], verts[i+1], verts[i+2]
		if math32.Abs(x-10) > 1.001 || math32.Abs(y-5) > 2.001 || math32.Abs(z+2) > 3.001 {
			t.Fatalf("vertex (%v, %v, %v) outside box at (10, 5, -2)", x, y, z)
		}
	}
}

func TestSphereWireframeOnSurface(t *testing.T) {
	body := dynamics.NewBody(1)
	body.Position = math.Vec3{Y: 3}
	body.AddShape(dynamics.NewSphere(2), math.Vec3{}, math.QuatIdentity())

	var buf LineBuffer
	buf.AppendBody(body, ColorDynamic)

	if got, want := buf.VertexCount(), 3*circleSegments*2; got != want {
		t.Fatalf("sphere wireframe has %d vertices, want %d", got, want)
	}
	verts := buf.Vertices()
	for i := 0; i < len(verts); i += floatsPerVertex {
		p := math.Vec3{X: verts[i], Y: verts[i+1], Z: verts[i+2]}
		if r := p.Sub(math.Vec3{Y: 3}).Length(); math32.Abs(r-2) > 1e-3 {
			t.Fatalf("circle vertex at radius %v, want 2", r)
		}
	}
}

func TestLineColors(t *testing.T) {
	var buf LineBuffer
	buf.Line(math.Vec3{}, math.Vec3{X: 1}, ColorCable)

	verts := buf.Vertices()
	if len(verts) != 2*floatsPerVertex {
		t.Fatalf("line emitted %d floats", len(verts))
	}
	for _, base := range []int{0, floatsPerVertex} {
		got := Color{verts[base+3], verts[base+4], verts[base+5]}
		if got != ColorCable {
			t.Fatalf("vertex color = %v, want %v", got, ColorCable)
		}
	}
}

func TestPolyline(t *testing.T) {
	var buf LineBuffer
	points := []math.Vec3{{}, {X: 1}, {X: 2}, {X: 3}}
	buf.AppendPolyline(points, ColorCable)
	if got := buf.VertexCount(); got != 6 {
		t.Fatalf("polyline of 4 points has %d vertices, want 6", got)
	}

	buf.Reset()
	buf.AppendPolyline(points[:1], ColorCable)
	if buf.VertexCount() != 0 {
		t.Fatal("single point should emit nothing")
	}
}

func TestAppendWorldColorsByMotion(t *testing.T) {
	world := dynamics.NewWorld(math.Vec3{Y: -9.82})
	static := dynamics.NewBody(0)
	static.AddShape(dynamics.NewBox(math.Vec3{X: 1, Y: 1, Z: 1}), math.Vec3{}, math.QuatIdentity())
	moving := dynamics.NewBody(1)
	moving.AddShape(dynamics.NewSphere(1), math.Vec3{}, math.QuatIdentity())
	world.AddBody(static)
	world.AddBody(moving)

	var buf LineBuffer
	buf.AppendWorld(world)

	wantVerts := 24 + 3*circleSegments*2
	if got := buf.VertexCount(); got != wantVerts {
		t.Fatalf("world wireframe has %d vertices, want %d", got, wantVerts)
	}
	// First box vertex carries the static color.
	verts := buf.Vertices()
	if got := (Color{verts[3], verts[4], verts[5]}); got != ColorStatic {
		t.Fatalf("static body color = %v", got)
	}
}
