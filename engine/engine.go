package engine

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Carmen-Shannon/oxy-primer/config"
	"github.com/Carmen-Shannon/oxy-primer/engine/mesh"
	"github.com/Carmen-Shannon/oxy-primer/engine/profiler"
	"github.com/Carmen-Shannon/oxy-primer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-primer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-primer/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-primer/engine/renderer/vertex_array"
	"github.com/Carmen-Shannon/oxy-primer/engine/transform"
	"github.com/Carmen-Shannon/oxy-primer/engine/window"
)

var (
	// ErrWindowInit wraps failures to create the window.
	ErrWindowInit = errors.New("window initialization failed")

	// ErrGPUInit wraps failures to acquire the GPU device or configure the surface.
	ErrGPUInit = errors.New("gpu initialization failed")

	// ErrResourceInit wraps failures to load shaders, upload geometry or build the pipeline.
	ErrResourceInit = errors.New("resource initialization failed")

	// ErrNotRunning is returned by Run when Init has not succeeded.
	ErrNotRunning = errors.New("engine is not running")
)

// PipelineKey is the key of the single render pipeline.
const PipelineKey = "primer"

// State is the lifecycle stage of the engine.
type State int

const (
	// StateInit is the state before Init succeeds.
	StateInit State = iota
	// StateRunning is the state between a successful Init and Shutdown.
	StateRunning
	// StateShutdown is the state after Shutdown; resources are released.
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// RenderContext pairs the renderer with the pipeline whose uniforms are being set.
// It satisfies transform.UniformTarget.
type RenderContext struct {
	Renderer renderer.Renderer
	Pipeline pipeline.Pipeline
}

var _ transform.UniformTarget = RenderContext{}

// UniformLocation resolves name in the pipeline's uniform group, -1 if absent.
func (c RenderContext) UniformLocation(name string) int {
	return c.Pipeline.UniformLocation(name)
}

// WriteUniform uploads data to the pipeline's uniform at location.
func (c RenderContext) WriteUniform(location int, data []byte) error {
	return c.Renderer.WriteUniform(c.Pipeline, location, data)
}

// WindowFactory creates the platform window.
type WindowFactory func(options ...window.WindowBuilderOption) (window.Window, error)

// RendererFactory creates the renderer on a window surface.
type RendererFactory func(surface renderer.Surface, options ...renderer.RendererBuilderOption) (renderer.Renderer, error)

// ShaderLoader loads and parses a WGSL file.
type ShaderLoader func(key string, shaderType shader.ShaderType, path string, options ...shader.ShaderBuilderOption) (shader.Shader, error)

type releaser struct {
	name    string
	release func()
}

type engine struct {
	cfg config.Config

	newWindow   WindowFactory
	newRenderer RendererFactory
	loadShader  ShaderLoader

	state    State
	releases []releaser

	window      window.Window
	ctx         RenderContext
	vertexArray vertex_array.VertexArray
	composer    *transform.Composer
	exitKey     int

	profiler         *profiler.Profiler
	profilingEnabled bool

	frames    int
	maxFrames int
}

// Engine owns the window, the GPU resources and the render loop for one mesh.
// All methods must be called from the main goroutine.
type Engine interface {
	// Init creates the window, the renderer, the shaders, the mesh buffers and the pipeline,
	// in that order. On failure everything already created is released in reverse order.
	//
	// Returns:
	//   - error: wraps ErrWindowInit, ErrGPUInit or ErrResourceInit
	Init() error

	// Run renders frames until the window is asked to close, the exit key is pressed
	// or the frame limit is reached.
	//
	// Returns:
	//   - error: ErrNotRunning if Init has not succeeded
	Run() error

	// Shutdown releases the pipeline, the vertex array, the renderer and the window, in that order.
	// Subsequent calls are no-ops.
	Shutdown()

	// Quit asks the render loop to stop after the current frame.
	Quit()

	State() State
	Window() window.Window
	Context() RenderContext
	VertexArray() vertex_array.VertexArray
	Composer() *transform.Composer

	// Frames returns the number of frames presented.
	Frames() int
}

var _ Engine = &engine{}

// NewEngine creates an engine for cfg. Nothing is created until Init.
//
// Parameters:
//   - cfg: the scene configuration
//   - options: variadic list of EngineBuilderOption functions to configure the engine
//
// Returns:
//   - Engine: the engine in StateInit
func NewEngine(cfg config.Config, options ...EngineBuilderOption) Engine {
	e := &engine{
		cfg:       cfg,
		newWindow: window.NewWindow,
		newRenderer: func(surface renderer.Surface, options ...renderer.RendererBuilderOption) (renderer.Renderer, error) {
			return renderer.NewRenderer(renderer.BackendTypeWGPU, surface, options...)
		},
		loadShader:       shader.NewShader,
		profilingEnabled: cfg.Profiler.Enabled,
	}
	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithInterval(time.Duration(cfg.Profiler.Interval * float64(time.Second))))
	}
	return e
}

func (e *engine) Init() error {
	if e.state != StateInit {
		return fmt.Errorf("init called in state %s", e.state)
	}
	if err := e.init(); err != nil {
		e.releaseAll()
		e.state = StateShutdown
		return err
	}
	e.state = StateRunning
	return nil
}

func (e *engine) init() error {
	cfg := e.cfg

	win, err := e.newWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
		window.WithResizable(cfg.Window.Resizable),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWindowInit, err)
	}
	e.window = win
	e.push("window", func() {
		if err := win.Close(); err != nil {
			log.Printf("[Engine] closing window: %v", err)
		}
	})
	width, height := win.Size()
	log.Printf("[Engine] window %q opened at %dx%d", cfg.Window.Title, width, height)

	presentMode, err := cfg.PresentMode()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGPUInit, err)
	}
	sampleCount, err := cfg.SampleCount()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGPUInit, err)
	}
	cc := cfg.Renderer.ClearColor
	r, err := e.newRenderer(win,
		renderer.WithPresentMode(presentMode),
		renderer.WithMSAA(sampleCount),
		renderer.WithForceSoftwareRenderer(cfg.Renderer.SoftwareRenderer),
		renderer.WithClearColor(cc[0], cc[1], cc[2], cc[3]),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGPUInit, err)
	}
	e.ctx.Renderer = r
	e.push("renderer", r.Release)

	validation, err := cfg.ValidationMode()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrResourceInit, err)
	}
	vs, err := e.loadShader("vertex", shader.ShaderTypeVertex, cfg.Shaders.Vertex, shader.WithValidation(validation))
	if err != nil {
		return fmt.Errorf("%w: vertex shader: %v", ErrResourceInit, err)
	}
	fs, err := e.loadShader("fragment", shader.ShaderTypeFragment, cfg.Shaders.Fragment, shader.WithValidation(validation))
	if err != nil {
		return fmt.Errorf("%w: fragment shader: %v", ErrResourceInit, err)
	}
	log.Printf("[Engine] loaded shaders %s (%s) and %s (%s)", vs.Key(), cfg.Shaders.Vertex, fs.Key(), cfg.Shaders.Fragment)

	geometry, err := mesh.Named(cfg.Mesh.Kind, cfg.Mesh.Radius, cfg.Mesh.Segments)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrResourceInit, err)
	}
	if err := geometry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrResourceInit, err)
	}
	va := r.NewVertexArray(cfg.Mesh.Kind)
	e.vertexArray = va
	e.push("vertex array", va.Release)
	if _, err := va.CreateVertexBuffer(0, 3, geometry.Positions); err != nil {
		return fmt.Errorf("%w: positions: %v", ErrResourceInit, err)
	}
	if _, err := va.CreateVertexBuffer(1, 3, geometry.Colors); err != nil {
		return fmt.Errorf("%w: colors: %v", ErrResourceInit, err)
	}
	if _, err := va.CreateIndexBuffer(geometry.Indices); err != nil {
		return fmt.Errorf("%w: indices: %v", ErrResourceInit, err)
	}
	log.Printf("[Engine] uploaded %s: %d vertices, %d triangles", cfg.Mesh.Kind, geometry.VertexCount(), geometry.TriangleCount())

	cullMode, err := cfg.CullMode()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrResourceInit, err)
	}
	frontFace, err := cfg.FrontFace()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrResourceInit, err)
	}
	p := pipeline.NewPipeline(PipelineKey,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithCullMode(cullMode),
		pipeline.WithFrontFace(frontFace),
		pipeline.WithDepthTestEnabled(cfg.Raster.DepthTest),
		pipeline.WithDepthWriteEnabled(cfg.Raster.DepthTest),
	)
	if err := r.RegisterPipeline(p, va); err != nil {
		return fmt.Errorf("%w: %v", ErrResourceInit, err)
	}
	e.ctx.Pipeline = p
	e.push("pipeline", func() { r.ReleasePipeline(p) })

	chain, err := transform.NewChain(cfg.Transform...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrResourceInit, err)
	}
	e.composer = transform.NewComposer(chain,
		transform.WithMatrixUniform(cfg.Uniforms.Matrix),
		transform.WithTimeUniform(cfg.Uniforms.Time),
	)
	for _, name := range []string{cfg.Uniforms.Matrix, cfg.Uniforms.Time} {
		log.Printf("[Engine] uniform %q at location %d", name, p.UniformLocation(name))
	}

	if e.exitKey, err = cfg.ExitKeyCode(); err != nil {
		return fmt.Errorf("%w: %v", ErrResourceInit, err)
	}
	return nil
}

// push records a resource to release at shutdown; releases run last-in first-out.
func (e *engine) push(name string, release func()) {
	e.releases = append(e.releases, releaser{name: name, release: release})
}

func (e *engine) releaseAll() {
	for i := len(e.releases) - 1; i >= 0; i-- {
		r := e.releases[i]
		r.release()
		log.Printf("[Engine] released %s", r.name)
	}
	e.releases = nil
}

func (e *engine) Run() error {
	if e.state != StateRunning {
		return fmt.Errorf("%w (state %s)", ErrNotRunning, e.state)
	}
	for !e.window.ShouldClose() {
		if e.maxFrames > 0 && e.frames >= e.maxFrames {
			break
		}
		e.frame()
		e.window.PollEvents()
		if e.exitKey >= 0 && e.window.KeyPressed(e.exitKey) {
			e.window.SetShouldClose(true)
		}
	}
	log.Printf("[Engine] render loop finished after %d frames", e.frames)
	return nil
}

// frame renders one frame. Failures are logged and the frame is dropped.
func (e *engine) frame() {
	r, p := e.ctx.Renderer, e.ctx.Pipeline

	width, height := e.window.Size()
	if width <= 0 || height <= 0 {
		return
	}
	if resized, err := r.Resize(width, height); err != nil {
		log.Printf("[Engine] resize to %dx%d failed: %v", width, height, err)
		return
	} else if resized {
		log.Printf("[Engine] surface resized to %dx%d", width, height)
	}

	t := float32(e.window.Time())
	if err := r.BeginFrame(); err != nil {
		log.Printf("[Engine] skipping frame: %v", err)
		return
	}
	if err := r.SetViewport(width, height); err != nil {
		log.Printf("[Engine] viewport: %v", err)
	}
	if _, err := e.composer.Apply(e.ctx, t); err != nil {
		log.Printf("[Engine] uniforms: %v", err)
	}
	if err := r.Draw(p, e.vertexArray); err != nil {
		log.Printf("[Engine] draw: %v", err)
	}
	if err := r.EndFrame(); err != nil {
		log.Printf("[Engine] submit: %v", err)
		return
	}
	r.Present()
	e.frames++

	if e.profilingEnabled {
		e.profiler.Tick()
	}
}

func (e *engine) Shutdown() {
	if e.state == StateShutdown {
		return
	}
	e.releaseAll()
	e.state = StateShutdown
}

func (e *engine) Quit() {
	if e.window != nil {
		e.window.SetShouldClose(true)
	}
}

func (e *engine) State() State {
	return e.state
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Context() RenderContext {
	return e.ctx
}

func (e *engine) VertexArray() vertex_array.VertexArray {
	return e.vertexArray
}

func (e *engine) Composer() *transform.Composer {
	return e.composer
}

func (e *engine) Frames() int {
	return e.frames
}
