package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"reflect"
	"runtime"
	"strings"
	"time"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"github.com/stewi1014/fractality/fractal"
	"github.com/stewi1014/fractality/link"
	"github.com/stewi1014/fractality/programs"
)

// A triangle covering the whole viewport.
var vertices = []float32{
	-1, -1,
	-1, 3,
	3, -1,
}

const vertAttribLocation = 0

type vertexUniforms struct {
	Camera mgl32.Mat4 `uniform:"camera"`
}

// glProgram is one compiled variant of the evaluator.
type glProgram struct {
	id               uint32
	uniformLocations map[string]int32
	cache            fractal.UniformCache
}

func NewRenderWindow(
	app *gtk.Application,
	conn net.Conn,
	ctx context.Context,
	quit func(error),
	state fractal.State,
	debug bool,
) *RenderWindow {
	var err error
	w := &RenderWindow{
		ctx:      ctx,
		quit:     quit,
		state:    state,
		debug:    debug,
		programs: make(map[fractal.Tier]*glProgram),
		fps:      frameCounter{interval: fpsInterval},
	}

	w.ApplicationWindow, err = gtk.ApplicationWindowNew(app)
	if err != nil {
		quit(fmt.Errorf("gtk.ApplicationWindowNew: %w", err))
		return nil
	}

	w.SetDefaultSize(getWindowSize())

	w.gla, err = gtk.GLAreaNew()
	if err != nil {
		quit(fmt.Errorf("gtk.GLAreaNew: %w", err))
		return nil
	}

	w.gla.SetRequiredVersion(4, 6)
	w.gla.Connect("realize", w.glaRealize)
	w.gla.Connect("render", w.glaRender)
	w.gla.Connect("unrealize", w.glaUnrealize)

	w.gla.SetEvents(
		int(gdk.BUTTON_PRESS_MASK) |
			int(gdk.BUTTON_RELEASE_MASK) |
			int(gdk.POINTER_MOTION_MASK) |
			int(gdk.SCROLL_MASK) |
			int(gdk.SMOOTH_SCROLL_MASK),
	)
	w.gla.Connect("resize", w.resize)
	w.gla.Connect("scroll-event", w.scroll)
	w.gla.Connect("button-press-event", w.button)
	w.gla.Connect("button-release-event", w.button)
	w.gla.Connect("motion-notify-event", w.motion)

	w.messenger = link.NewMessenger(ctx, conn, quit, w.receive)

	w.Add(w.gla)
	w.ShowAll()

	return w
}

func getWindowSize() (width, height int) {
	width = 1200
	height = 800

	display, err := gdk.DisplayGetDefault()
	if err != nil {
		return
	}

	monitor, err := display.GetPrimaryMonitor()
	if err != nil {
		return
	}

	width = int(float32(monitor.GetGeometry().GetWidth()) * .6)
	height = int(float32(monitor.GetGeometry().GetHeight()) * .6)
	return
}

type RenderWindow struct {
	*gtk.ApplicationWindow
	gla *gtk.GLArea

	ctx   context.Context
	quit  func(error)
	debug bool

	vao      uint32
	vbo      uint32
	programs map[fractal.Tier]*glProgram
	current  *glProgram
	camera   vertexUniforms

	// state is only touched on the GTK main loop.
	fps       frameCounter
	state     fractal.State
	view      fractal.ViewTransform
	viewport  fractal.Viewport
	precision *fractal.PrecisionSelector
	messenger *link.Messenger
}

var glDebugSeverities = map[uint32]string{
	gl.DEBUG_SEVERITY_HIGH:         "high",
	gl.DEBUG_SEVERITY_MEDIUM:       "medium",
	gl.DEBUG_SEVERITY_LOW:          "low",
	gl.DEBUG_SEVERITY_NOTIFICATION: "notification",
}

var glDebugSources = map[uint32]string{
	gl.DEBUG_SOURCE_API:             "api",
	gl.DEBUG_SOURCE_APPLICATION:     "application",
	gl.DEBUG_SOURCE_OTHER:           "other",
	gl.DEBUG_SOURCE_SHADER_COMPILER: "shaderCompiler",
	gl.DEBUG_SOURCE_THIRD_PARTY:     "thirdParty",
	gl.DEBUG_SOURCE_WINDOW_SYSTEM:   "windowSystem",
}

func glDebugMessage(
	source,
	gltype,
	id,
	severity uint32,
	length int32,
	message string,
	user unsafe.Pointer,
) {
	level := slog.LevelDebug
	switch severity {
	case gl.DEBUG_SEVERITY_HIGH:
		level = slog.LevelError
	case gl.DEBUG_SEVERITY_MEDIUM:
		level = slog.LevelWarn
	}

	slog.Log(context.Background(), level, message,
		"source", glDebugSources[source],
		"severity", glDebugSeverities[severity],
		"type", gltype,
		"id", id,
	)
}

// glExtensions lists the extensions of the current context.
func glExtensions() []string {
	var n int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &n)

	extensions := make([]string, 0, n)
	for i := int32(0); i < n; i++ {
		extensions = append(extensions, gl.GoStr(gl.GetStringi(gl.EXTENSIONS, uint32(i))))
	}
	return extensions
}

func (w *RenderWindow) glaRealize(gla *gtk.GLArea) {
	gla.MakeCurrent()

	err := gl.Init()
	if err != nil {
		w.quit(fmt.Errorf("gl.Init: %w", err))
		return
	}
	slog.Info("initialised OpenGL",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)),
	)

	if w.debug {
		gl.DebugMessageCallback(glDebugMessage, nil)
		gl.Enable(gl.DEBUG_OUTPUT)
	}

	w.precision = fractal.NewPrecisionSelector(func() bool {
		return fractal.DoublePrecisionSupported(glExtensions())
	})
	w.messenger.Send(&link.CapabilityMessage{DoublePrecision: w.precision.Supported()})

	gl.GenVertexArrays(1, &w.vao)
	gl.BindVertexArray(w.vao)

	gl.GenBuffers(1, &w.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, w.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(vertAttribLocation)
	gl.VertexAttribPointerWithOffset(vertAttribLocation, 2, gl.FLOAT, false, 2*4, 0)

	tiers := []fractal.Tier{fractal.Single}
	if w.precision.Supported() {
		tiers = append(tiers, fractal.Double)
	}
	for _, tier := range tiers {
		p, err := loadProgram(programs.Fractal, tier)
		if err != nil && tier == fractal.Single {
			w.quit(fmt.Errorf("loading %v precision program: %w", tier, err))
			return
		}
		if err != nil {
			// Rendering carries on at single precision.
			WrapErrorDialog(w.ApplicationWindow, func() error {
				return fmt.Errorf("loading %v precision program: %w", tier, err)
			})()
			continue
		}
		w.programs[tier] = p
	}

	w.publish()
}

func (w *RenderWindow) glaRender(gla *gtk.GLArea) {
	tier := w.precision.Tier(w.state.UseDoublePrecision)
	p := w.programs[tier]
	if p == nil {
		p = w.programs[fractal.Single]
		tier = fractal.Single
	}
	if p == nil {
		return
	}

	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.UseProgram(p.id)
	if p != w.current {
		p.loadUniforms(&w.camera)
		w.current = p
	}
	if uniforms, changed := p.cache.Update(w.state, tier); changed {
		p.loadUniforms(&uniforms)
	}

	gl.BindVertexArray(w.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)

	if fps, ok := w.fps.Frame(time.Now()); ok {
		w.SetTitle(fpsTitle(fps))
	}
}

func (w *RenderWindow) glaUnrealize(gla *gtk.GLArea) {
	gla.MakeCurrent()
	for tier, p := range w.programs {
		gl.DeleteProgram(p.id)
		delete(w.programs, tier)
	}
	gl.DeleteBuffers(1, &w.vbo)
	gl.DeleteVertexArrays(1, &w.vao)
	w.current = nil
}

func (w *RenderWindow) resize(gla *gtk.GLArea, width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))

	// Event coordinates are logical pixels; width and height are not.
	logicalWidth, logicalHeight := gla.GetAllocatedWidth(), gla.GetAllocatedHeight()
	w.viewport = fractal.Viewport{
		Size: mgl64.Vec2{float64(logicalWidth), float64(logicalHeight)},
	}

	long := float32(max(logicalWidth, logicalHeight, 1))
	w.camera.Camera = mgl32.Scale3D(float32(logicalWidth)/long, float32(logicalHeight)/long, 1)
	w.current = nil
	w.publish()
}

func (w *RenderWindow) changed() {
	w.gla.QueueRender()
}

func (w *RenderWindow) publish() {
	w.messenger.Send(&link.StateMessage{State: w.state, Aspect: w.viewport.Aspect()})
}

func (w *RenderWindow) button(gla *gtk.GLArea, event *gdk.Event) {
	button := gdk.EventButtonNewFromEvent(event)
	if button.Button() != gdk.BUTTON_PRIMARY {
		return
	}
	cursor := mgl64.Vec2{button.X(), button.Y()}

	switch button.Type() {
	case gdk.EVENT_BUTTON_PRESS:
		w.view.Press(&w.state, w.viewport, cursor)
	case gdk.EVENT_BUTTON_RELEASE:
		dragged := w.view.Dragging()
		w.view.Release()
		if dragged {
			w.publish()
		}
	}
}

func (w *RenderWindow) motion(gla *gtk.GLArea, event *gdk.Event) {
	x, y := gdk.EventMotionNewFromEvent(event).MotionVal()
	if w.view.Move(&w.state, w.viewport, mgl64.Vec2{x, y}) {
		w.changed()
	}
}

func (w *RenderWindow) scroll(gla *gtk.GLArea, event *gdk.Event) {
	scroll := gdk.EventScrollNewFromEvent(event)

	var lines float64
	switch scroll.Direction() {
	case gdk.SCROLL_UP:
		lines = 1
	case gdk.SCROLL_DOWN:
		lines = -1
	case gdk.SCROLL_SMOOTH:
		lines = -scroll.DeltaY()
	default:
		return
	}

	cursor := mgl64.Vec2{scroll.X(), scroll.Y()}
	if w.view.Scroll(&w.state, w.viewport, cursor, lines, fractal.ScrollLines) {
		w.changed()
		w.publish()
	}
}

func (w *RenderWindow) receive(msg any) {
	edit, ok := msg.(*link.EditMessage)
	if !ok {
		slog.Warn("render window ignoring message", "type", reflect.TypeOf(msg))
		return
	}

	glib.IdleAdd(func() {
		next := edit.State
		if !edit.View {
			next = next.WithView(w.state)
		} else if w.view.Dragging() {
			w.view.Release()
		}
		w.state = next
		w.changed()
	})
}

func loadProgram(program programs.Program, tier fractal.Tier) (*glProgram, error) {
	vertexSource, fragmentSource := program.Shaders(tier)

	vertexShader, err := compileShader(vertexSource+"\x00", gl.VERTEX_SHADER)
	if err != nil {
		return nil, err
	}
	defer gl.DeleteShader(vertexShader)

	fragmentShader, err := compileShader(fragmentSource+"\x00", gl.FRAGMENT_SHADER)
	if err != nil {
		return nil, err
	}
	defer gl.DeleteShader(fragmentShader)

	id := gl.CreateProgram()
	gl.AttachShader(id, vertexShader)
	gl.AttachShader(id, fragmentShader)
	gl.BindAttribLocation(id, vertAttribLocation, gl.Str("vert\x00"))
	gl.BindFragDataLocation(id, 0, gl.Str("outputColor\x00"))
	gl.LinkProgram(id)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var l int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &l)

		log := strings.Repeat("\x00", int(l+1))
		gl.GetProgramInfoLog(id, l, nil, gl.Str(log))
		gl.DeleteProgram(id)
		return nil, fmt.Errorf("failed to link program %v: %v", program.Name, log)
	}

	p := &glProgram{
		id:               id,
		uniformLocations: make(map[string]int32),
	}
	for _, f := range append(programs.UniformFields(&vertexUniforms{}), programs.UniformFields(&fractal.Uniforms{})...) {
		p.uniformLocations[f.Name] = gl.GetUniformLocation(id, gl.Str(f.Name+"\x00"))
	}

	slog.Debug("loaded program", "name", program.Name, "tier", tier)
	return p, nil
}

var (
	typeMat4          = reflect.TypeOf(mgl32.Mat4{})
	typeEncodedFloat  = reflect.TypeOf(fractal.EncodedFloat{})
	typeEncodedFloat2 = reflect.TypeOf(fractal.EncodedFloat2{})
	typeUint32        = reflect.TypeOf(uint32(0))
	typeInt32         = reflect.TypeOf(int32(0))
	typeFloat32       = reflect.TypeOf(float32(0))
)

// loadUniforms uploads every tagged field of the struct v points to. The
// program must be in use.
func (p *glProgram) loadUniforms(v any) {
	for _, f := range programs.UniformFields(v) {
		loc, ok := p.uniformLocations[f.Name]
		if !ok || loc < 0 {
			continue
		}
		ptr := f.Value.Addr().UnsafePointer()

		switch f.Value.Type() {
		case typeMat4:
			gl.UniformMatrix4fv(loc, 1, false, (*float32)(ptr))
		case typeEncodedFloat:
			gl.Uniform2uiv(loc, 1, (*uint32)(ptr))
		case typeEncodedFloat2:
			gl.Uniform4uiv(loc, 1, (*uint32)(ptr))
		case typeUint32:
			gl.Uniform1uiv(loc, 1, (*uint32)(ptr))
		case typeInt32:
			gl.Uniform1iv(loc, 1, (*int32)(ptr))
		case typeFloat32:
			gl.Uniform1fv(loc, 1, (*float32)(ptr))
		default:
			slog.Warn("unsupported uniform type", "name", f.Name, "type", f.Value.Type())
		}
	}
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	defer runtime.KeepAlive(source)
	cstring, free := gl.Strs(source)
	defer free()

	shader := gl.CreateShader(shaderType)
	gl.ShaderSource(shader, 1, cstring, nil)
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var l int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &l)

		log := strings.Repeat("\x00", int(l+1))
		gl.GetShaderInfoLog(shader, l, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("shader failed to compile: %v", log)
	}

	return shader, nil
}
