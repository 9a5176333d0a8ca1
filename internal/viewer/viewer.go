package viewer

import (
	"fmt"
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/bandinopla/threejs-cannones-rigger/pkg/dynamics"
	"github.com/bandinopla/threejs-cannones-rigger/pkg/math"
	"github.com/bandinopla/threejs-cannones-rigger/pkg/rig"
)

// Viewer draws a rigged world as wireframes and owns the frame loop.
type Viewer struct {
	window *Window
	log    *zap.Logger

	Camera *OrbitCamera

	program  uint32
	viewProj int32
	vao      uint32
	vbo      uint32
	vboCap   int

	buffer LineBuffer

	dragging bool
}

// New initializes OpenGL state on the window's context.
func New(window *Window, log *zap.Logger) (*Viewer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("initializing OpenGL: %w", err)
	}

	v := &Viewer{
		window: window,
		log:    log,
		Camera: NewOrbitCamera(),
	}

	program, err := compileProgram(lineVertexShader, lineFragmentShader)
	if err != nil {
		return nil, err
	}
	v.program = program
	v.viewProj = getUniform(program, "uViewProj")

	gl.GenVertexArrays(1, &v.vao)
	gl.GenBuffers(1, &v.vbo)
	gl.BindVertexArray(v.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, v.vbo)
	stride := int32(floatsPerVertex * 4)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.BindVertexArray(0)

	gl.Enable(gl.DEPTH_TEST)
	gl.ClearColor(0.08, 0.09, 0.11, 1.0)

	v.log.Info("viewer ready", zap.String("gl", gl.GoStr(gl.GetString(gl.VERSION))))
	return v, nil
}

// Close releases GL resources.
func (v *Viewer) Close() {
	gl.DeleteBuffers(1, &v.vbo)
	gl.DeleteVertexArrays(1, &v.vao)
	gl.DeleteProgram(v.program)
}

// Run drives the frame loop until the window closes. Each frame it calls
// step with the fixed timestep, then redraws world and session.
func (v *Viewer) Run(world *dynamics.World, session *rig.Session, stepHz int, step func(dt float32)) {
	if stepHz <= 0 {
		stepHz = 60
	}
	dt := 1.0 / float32(stepHz)

	v.fitToWorld(world)

	running := true
	for running {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			running = v.handleEvent(event) && running
		}

		step(dt)

		v.buffer.Reset()
		v.buffer.AppendWorld(world)
		if session != nil {
			v.buffer.AppendSession(session)
		}
		v.draw()

		v.window.SwapBuffers()
		sdl.Delay(uint32(1000 / stepHz))
	}
}

func (v *Viewer) handleEvent(event sdl.Event) bool {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return false
	case *sdl.KeyboardEvent:
		if e.Type == sdl.KEYDOWN && e.Keysym.Sym == sdl.K_ESCAPE {
			return false
		}
	case *sdl.MouseButtonEvent:
		if e.Button == sdl.BUTTON_LEFT {
			v.dragging = e.Type == sdl.MOUSEBUTTONDOWN
		}
	case *sdl.MouseMotionEvent:
		if v.dragging {
			v.Camera.HandleDrag(float32(e.XRel), float32(e.YRel))
		}
	case *sdl.MouseWheelEvent:
		v.Camera.HandleZoom(float32(e.Y))
	}
	return true
}

func (v *Viewer) draw() {
	width, height := v.window.Size()
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	aspect := float32(width) / float32(height)
	proj := math.Perspective(55*math32.Pi/180, aspect, 0.05, 500)
	viewProj := proj.Mul(v.Camera.ViewMatrix())

	gl.UseProgram(v.program)
	gl.UniformMatrix4fv(v.viewProj, 1, false, viewProj.Ptr())

	verts := v.buffer.Vertices()
	if len(verts) == 0 {
		return
	}
	gl.BindVertexArray(v.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, v.vbo)
	if len(verts) > v.vboCap {
		gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, unsafe.Pointer(&verts[0]), gl.DYNAMIC_DRAW)
		v.vboCap = len(verts)
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(verts)*4, unsafe.Pointer(&verts[0]))
	}
	gl.DrawArrays(gl.LINES, 0, int32(v.buffer.VertexCount()))
	gl.BindVertexArray(0)
}

func (v *Viewer) fitToWorld(world *dynamics.World) {
	bodies := world.Bodies()
	if len(bodies) == 0 {
		return
	}
	min, max := bodies[0].AABB()
	for _, body := range bodies[1:] {
		bmin, bmax := body.AABB()
		min = math.Vec3{X: min32(min.X, bmin.X), Y: min32(min.Y, bmin.Y), Z: min32(min.Z, bmin.Z)}
		max = math.Vec3{X: max32(max.X, bmax.X), Y: max32(max.Y, bmax.Y), Z: max32(max.Z, bmax.Z)}
	}
	v.Camera.FitToBounds(min, max)
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
