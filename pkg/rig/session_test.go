package rig

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/bandinopla/threejs-cannones-rigger/pkg/dynamics"
	"github.com/bandinopla/threejs-cannones-rigger/pkg/math"
	"github.com/bandinopla/threejs-cannones-rigger/pkg/scene"
)

func vecClose(a, b math.Vec3, eps float64) bool {
	return gomath.Abs(float64(a.X-b.X)) < eps &&
		gomath.Abs(float64(a.Y-b.Y)) < eps &&
		gomath.Abs(float64(a.Z-b.Z)) < eps
}

// colliderNode builds a node annotated as a collider.
func colliderNode(name, tag string, mass float32) *scene.Node {
	n := scene.New(name)
	n.Annotations[KeyType] = tag
	if mass != 0 {
		n.Annotations[KeyMass] = mass
	}
	return n
}

func newSessionWorld() (*Session, *dynamics.World) {
	w := dynamics.NewWorld(math.Vec3{Y: -9.81})
	return NewSession(w, nil), w
}

func TestColliderBodyMatchesNodeWorldPose(t *testing.T) {
	s, _ := newSessionWorld()

	root := scene.New("root")
	root.Position = math.Vec3{X: 4}
	root.Rotation = math.QuatFromAxisAngle(math.Vec3{Y: 1}, 0.5)

	box := colliderNode("Box", "box", 1)
	box.Position = math.Vec3{Z: 3}
	box.Scale = math.Vec3{X: 0.5, Y: 0.5, Z: 0.5}
	root.AddChild(box)

	if err := s.RigScene(root); err != nil {
		t.Fatalf("RigScene: %v", err)
	}

	body := s.GetBodyByName("Box")
	if body == nil {
		t.Fatal("collider body not indexed by name")
	}
	if !vecClose(body.Position, box.WorldPosition(), 1e-3) {
		t.Errorf("body position %v, node world position %v", body.Position, box.WorldPosition())
	}
	if box.Visible {
		t.Error("collider proxy node should have been hidden")
	}
	if body.Mass() != 1 {
		t.Errorf("mass: got %v, want 1", body.Mass())
	}
}

func TestSphereColliderUsesScaleAsRadius(t *testing.T) {
	s, _ := newSessionWorld()

	root := scene.New("root")
	ball := colliderNode("Ball", "sphere", 1)
	ball.Scale = math.Vec3{X: 2, Y: 2, Z: 2}
	root.AddChild(ball)

	if err := s.RigScene(root); err != nil {
		t.Fatalf("RigScene: %v", err)
	}

	body := s.GetBodyByName("Ball")
	sphere, ok := body.Shapes[0].Shape.(*dynamics.Sphere)
	if !ok {
		t.Fatalf("expected sphere shape, got %T", body.Shapes[0].Shape)
	}
	if sphere.Radius != 2 {
		t.Errorf("radius: got %v, want 2", sphere.Radius)
	}
}

func TestCompoundChildrenRecomposeToWorldPoses(t *testing.T) {
	s, _ := newSessionWorld()

	root := scene.New("root")
	compound := colliderNode("Hull", "compound", 2)
	compound.Position = math.Vec3{X: 1, Y: 2, Z: 3}
	compound.Rotation = math.QuatFromAxisAngle(math.Vec3{Y: 1}, 0.8)
	root.AddChild(compound)

	partA := scene.New("partA")
	partA.Position = math.Vec3{X: 1}
	partA.Scale = math.Vec3{X: 0.5, Y: 0.25, Z: 0.25}
	compound.AddChild(partA)

	partB := scene.New("partB")
	partB.Position = math.Vec3{X: -1, Y: 0.5}
	partB.Rotation = math.QuatFromAxisAngle(math.Vec3{Z: 1}, 0.3)
	partB.Scale = math.Vec3{X: 0.25, Y: 0.5, Z: 0.25}
	compound.AddChild(partB)

	if err := s.RigScene(root); err != nil {
		t.Fatalf("RigScene: %v", err)
	}

	body := s.GetBodyByName("Hull")
	if len(body.Shapes) != 2 {
		t.Fatalf("expected one sub-shape per child, got %d", len(body.Shapes))
	}
	if !vecClose(body.Position, compound.WorldPosition(), 1e-3) {
		t.Errorf("compound body pose %v, node %v", body.Position, compound.WorldPosition())
	}

	children := compound.Children()
	for i, ref := range body.Shapes {
		recomposed := body.PointToWorld(ref.Offset)
		want := children[i].WorldPosition()
		if !vecClose(recomposed, want, 1e-3) {
			t.Errorf("sub-shape %d recomposed to %v, child world position %v", i, recomposed, want)
		}
	}
}

func TestExporterSpellingsRig(t *testing.T) {
	s, w := newSessionWorld()

	// The addon writes "glue" for the compound kind and "dist" for the
	// distance constraint.
	root := scene.New("root")
	hull := colliderNode("Hull", "glue", 2)
	hull.Position = math.Vec3{Y: 1}
	root.AddChild(hull)

	part := scene.New("part")
	part.Position = math.Vec3{X: 0.5}
	part.Scale = math.Vec3{X: 0.5, Y: 0.25, Z: 0.25}
	hull.AddChild(part)

	anchor := colliderNode("Anchor", "box", 0)
	anchor.Position = math.Vec3{X: 3, Y: 1}
	root.AddChild(anchor)

	keep := scene.New("KeepApart")
	keep.Annotations[KeyType] = "dist"
	keep.Annotations[KeyRefA] = "Hull"
	keep.Annotations[KeyRefB] = "Anchor"
	root.AddChild(keep)

	if err := s.RigScene(root); err != nil {
		t.Fatalf("RigScene: %v", err)
	}

	body := s.GetBodyByName("Hull")
	if body == nil {
		t.Fatal("glue node should build a compound body")
	}
	if len(body.Shapes) != 1 {
		t.Fatalf("expected one sub-shape for the child, got %d", len(body.Shapes))
	}

	joint := s.GetJoint("KeepApart")
	if joint == nil {
		t.Fatal("dist node should build a joint")
	}
	if joint.Kind != TagDistance {
		t.Fatalf("joint kind = %v, want %v", joint.Kind, TagDistance)
	}
	if w.NumConstraints() != 1 {
		t.Fatalf("world has %d constraints, want 1", w.NumConstraints())
	}
}

func TestClearIsNetZero(t *testing.T) {
	s, w := newSessionWorld()

	root := scene.New("root")
	a := colliderNode("A", "box", 0)
	a.Scale = math.Vec3{X: 1, Y: 1, Z: 1}
	root.AddChild(a)
	b := colliderNode("B", "box", 1)
	b.Position = math.Vec3{X: 2}
	b.Scale = math.Vec3{X: 0.5, Y: 0.5, Z: 0.5}
	root.AddChild(b)

	lock := scene.New("Weld")
	lock.Annotations[KeyType] = "lock"
	lock.Annotations[KeyRefA] = "A"
	lock.Annotations[KeyRefB] = "B"
	root.AddChild(lock)

	rope := scene.New("Rope")
	rope.Annotations[KeyType] = "cable"
	head := scene.New("head")
	head.Position = math.Vec3{Y: 2}
	rope.AddChild(head)
	tail := scene.New("tail")
	rope.AddChild(tail)
	root.AddChild(rope)

	if err := s.RigScene(root); err != nil {
		t.Fatalf("RigScene: %v", err)
	}
	if w.NumBodies() == 0 || w.NumConstraints() == 0 {
		t.Fatalf("rig should have populated the world: %d bodies, %d constraints",
			w.NumBodies(), w.NumConstraints())
	}

	s.Clear()
	if w.NumBodies() != 0 || w.NumConstraints() != 0 {
		t.Errorf("clear should leave the world empty: %d bodies, %d constraints",
			w.NumBodies(), w.NumConstraints())
	}
	if s.GetBodyByName("A") != nil {
		t.Error("indices should be empty after clear")
	}

	// Safe to call again with nothing rigged.
	s.Clear()
}

func TestSyncLinkPreservesAuthoredPoseThenTracks(t *testing.T) {
	s, w := newSessionWorld()
	w.Gravity = math.Vec3{}

	root := scene.New("root")
	driver := colliderNode("Driver", "box", 1)
	driver.Position = math.Vec3{X: 1, Y: 2}
	driver.Scale = math.Vec3{X: 0.5, Y: 0.5, Z: 0.5}
	root.AddChild(driver)

	visual := scene.New("Visual")
	visual.Position = math.Vec3{X: 1.5, Y: 2.5, Z: 0.5}
	visual.Annotations[KeyType] = "sync"
	visual.Annotations[KeySyncSource] = "Driver"
	root.AddChild(visual)

	if err := s.RigScene(root); err != nil {
		t.Fatalf("RigScene: %v", err)
	}
	if s.GetSyncLink("Visual") == nil {
		t.Fatal("sync link should be retrievable by node name")
	}

	authored := visual.WorldPosition()
	s.Update(1.0 / 60.0)
	root.UpdateWorldMatrix()
	if !vecClose(visual.WorldPosition(), authored, 1e-3) {
		t.Errorf("first update should reproduce the authored pose: got %v, want %v",
			visual.WorldPosition(), authored)
	}

	body := s.GetBodyByName("Driver")
	body.Position = body.Position.Add(math.Vec3{X: 3})
	s.Update(1.0 / 60.0)
	root.UpdateWorldMatrix()
	want := authored.Add(math.Vec3{X: 3})
	if !vecClose(visual.WorldPosition(), want, 1e-3) {
		t.Errorf("node should track the body: got %v, want %v", visual.WorldPosition(), want)
	}
}

func TestSyncWithUnresolvedSourceIsSkipped(t *testing.T) {
	s, w := newSessionWorld()

	root := scene.New("root")
	visual := scene.New("Visual")
	visual.Annotations[KeyType] = "sync"
	visual.Annotations[KeySyncSource] = "Ghost"
	root.AddChild(visual)

	if err := s.RigScene(root); err != nil {
		t.Fatalf("unresolved sync source should not fail the rig: %v", err)
	}
	if len(s.Constraints()) != 0 || w.NumConstraints() != 0 {
		t.Error("no link should have been created")
	}
}

func TestJointWithUnresolvedRefIsSkipped(t *testing.T) {
	s, w := newSessionWorld()

	root := scene.New("root")
	a := colliderNode("A", "box", 1)
	root.AddChild(a)

	joint := scene.New("Pin")
	joint.Annotations[KeyType] = "point"
	joint.Annotations[KeyRefA] = "A"
	joint.Annotations[KeyRefB] = "Missing"
	root.AddChild(joint)

	if err := s.RigScene(root); err != nil {
		t.Fatalf("unresolved joint refs should not fail the rig: %v", err)
	}
	if s.GetJoint("Pin") != nil || w.NumConstraints() != 0 {
		t.Error("no joint should have been created")
	}
}

type stubConstraint struct {
	updates int
	removed bool
}

func (c *stubConstraint) Enable()  {}
func (c *stubConstraint) Disable() {}
func (c *stubConstraint) Update(dt float32) {
	c.updates++
}
func (c *stubConstraint) RemoveFrom(world *dynamics.World) {
	c.removed = true
}

func TestCustomConstraintDispatch(t *testing.T) {
	s, _ := newSessionWorld()

	stub := &stubConstraint{}
	var gotParams CustomParams
	s.RegisterCustomConstraint("winch", func(w *dynamics.World, p CustomParams) (Constraint, error) {
		gotParams = p
		return stub, nil
	})

	root := scene.New("root")
	a := colliderNode("A", "box", 1)
	root.AddChild(a)

	node := scene.New("Winch1")
	node.Annotations[KeyType] = "custom"
	node.Annotations[KeyCustomID] = "winch"
	node.Annotations[KeyRefA] = "A"
	node.Annotations[KeyGroup] = 4
	root.AddChild(node)

	if err := s.RigScene(root); err != nil {
		t.Fatalf("RigScene: %v", err)
	}

	if got := s.GetCustomConstraint("Winch1"); got != Constraint(stub) {
		t.Errorf("retrieved constraint should be the factory's instance")
	}
	if gotParams.BodyA != s.GetBodyByName("A") {
		t.Error("factory should receive the resolved body A")
	}
	if gotParams.BodyB != nil {
		t.Error("unresolved body B should be nil")
	}
	if gotParams.CollisionGroup != 4 || gotParams.CollisionMask != 1 {
		t.Errorf("filter: got group %d mask %d", gotParams.CollisionGroup, gotParams.CollisionMask)
	}

	s.Update(1.0 / 60.0)
	if stub.updates != 1 {
		t.Errorf("custom constraint should be updated, got %d", stub.updates)
	}
	s.Clear()
	if !stub.removed {
		t.Error("clear should call RemoveFrom on the custom constraint")
	}
}

func TestCustomConstraintErrors(t *testing.T) {
	s, _ := newSessionWorld()

	root := scene.New("root")
	node := scene.New("Broken")
	node.Annotations[KeyType] = "custom"
	node.Annotations[KeyCustomID] = "nobody-registered-this"
	root.AddChild(node)

	err := s.RigScene(root)
	if !errors.Is(err, ErrNoFactory) {
		t.Errorf("expected ErrNoFactory, got %v", err)
	}

	s.Clear()
	delete(node.Annotations, KeyCustomID)
	err = s.RigScene(root)
	if !errors.Is(err, ErrMissingCustomID) {
		t.Errorf("expected ErrMissingCustomID, got %v", err)
	}
}

func TestCableRigBuildsChainAndLocks(t *testing.T) {
	s, w := newSessionWorld()

	root := scene.New("root")
	a := colliderNode("Anchor", "box", 0)
	a.Position = math.Vec3{Y: 4}
	root.AddChild(a)

	rope := scene.New("Rope")
	rope.Annotations[KeyType] = "cable"
	rope.Annotations[KeyRefA] = "Anchor"
	head := scene.New("head")
	head.Position = math.Vec3{Y: 4}
	rope.AddChild(head)
	tail := scene.New("tail")
	tail.Position = math.Vec3{Y: 1}
	rope.AddChild(tail)
	root.AddChild(rope)

	if err := s.RigScene(root); err != nil {
		t.Fatalf("RigScene: %v", err)
	}

	cable := s.GetCableRig("Rope")
	if cable == nil {
		t.Fatal("cable rig should be retrievable by node name")
	}
	if gomath.Abs(float64(cable.Length()-3)) > 1e-3 {
		t.Errorf("length: got %v, want 3", cable.Length())
	}
	if len(cable.Points()) < 2 {
		t.Fatalf("expected sample points, got %d", len(cable.Points()))
	}
	// 1 anchor body + chain bodies; chain links + head lock.
	wantBodies := 1 + len(cable.Points())
	if w.NumBodies() != wantBodies {
		t.Errorf("bodies: got %d, want %d", w.NumBodies(), wantBodies)
	}
	wantConstraints := len(cable.Points()) - 1 + 1
	if w.NumConstraints() != wantConstraints {
		t.Errorf("constraints: got %d, want %d", w.NumConstraints(), wantConstraints)
	}

	// The chain should hang from the locked head when stepped.
	for i := 0; i < 120; i++ {
		w.Step(1.0 / 60.0)
		s.Update(1.0 / 60.0)
	}
	headPoint := cable.Points()[0]
	if headPoint.Distance(math.Vec3{Y: 4}) > 0.3 {
		t.Errorf("locked head drifted to %v", headPoint)
	}

	s.Clear()
	if w.NumBodies() != 0 || w.NumConstraints() != 0 {
		t.Errorf("clear should remove the whole chain: %d bodies, %d constraints",
			w.NumBodies(), w.NumConstraints())
	}
}

func TestFloorAndCrateEndToEnd(t *testing.T) {
	s, w := newSessionWorld()

	root := scene.New("root")
	floor := colliderNode("Floor", "box", 0)
	floor.Scale = math.Vec3{X: 5, Y: 0.5, Z: 5}
	root.AddChild(floor)

	crate := colliderNode("Crate", "box", 1)
	crate.Position = math.Vec3{Y: 3}
	crate.Scale = math.Vec3{X: 0.5, Y: 0.5, Z: 0.5}
	root.AddChild(crate)

	if err := s.RigScene(root); err != nil {
		t.Fatalf("RigScene: %v", err)
	}

	floorBody := s.GetBodyByName("Floor")
	crateBody := s.GetBodyByName("Crate")
	if floorBody == nil || crateBody == nil || floorBody == crateBody {
		t.Fatal("floor and crate should resolve to distinct bodies")
	}

	for i := 0; i < 300; i++ {
		w.Step(1.0 / 60.0)
		s.Update(1.0 / 60.0)
	}

	if crateBody.Position.Y < 0.85 || crateBody.Position.Y > 1.25 {
		t.Errorf("crate should rest on the floor near y=1, got %v", crateBody.Position.Y)
	}
}

func TestLockConstraintEndToEnd(t *testing.T) {
	s, w := newSessionWorld()
	w.Gravity = math.Vec3{}

	root := scene.New("root")
	a := colliderNode("A", "box", 0)
	a.Scale = math.Vec3{X: 0.5, Y: 0.5, Z: 0.5}
	root.AddChild(a)

	b := colliderNode("B", "box", 1)
	b.Position = math.Vec3{X: 2}
	b.Scale = math.Vec3{X: 0.5, Y: 0.5, Z: 0.5}
	root.AddChild(b)

	weld := scene.New("Weld")
	weld.Annotations[KeyType] = "lock"
	weld.Annotations[KeyRefA] = "A"
	weld.Annotations[KeyRefB] = "B"
	root.AddChild(weld)

	if err := s.RigScene(root); err != nil {
		t.Fatalf("RigScene: %v", err)
	}
	if s.GetJoint("Weld") == nil || s.GetJoint("Weld").Kind != TagLock {
		t.Fatal("lock joint should be retrievable by node name")
	}

	bodyA := s.GetBodyByName("A")
	bodyB := s.GetBodyByName("B")
	bodyA.Position = bodyA.Position.Add(math.Vec3{Y: 1.5})

	for i := 0; i < 60; i++ {
		w.Step(1.0 / 60.0)
		s.Update(1.0 / 60.0)
	}

	want := math.Vec3{X: 2, Y: 1.5}
	if bodyB.Position.Distance(want) > 0.25 {
		t.Errorf("locked body should follow rigidly to %v, got %v", want, bodyB.Position)
	}
}
