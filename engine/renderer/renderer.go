package renderer

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-primer/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-primer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-primer/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-primer/engine/renderer/vertex_array"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrNoFrame is returned by frame operations issued outside BeginFrame/EndFrame.
	ErrNoFrame = errors.New("no frame in progress")

	// ErrUnknownUniform is returned by WriteUniform for a negative or unbound location.
	ErrUnknownUniform = errors.New("unknown uniform location")

	// ErrNotRegistered is returned when a pipeline is used before RegisterPipeline.
	ErrNotRegistered = errors.New("pipeline not registered")

	// ErrRendererReleased is returned by every operation after Release.
	ErrRendererReleased = errors.New("renderer released")
)

// Surface is the part of a window the renderer needs to create and size its swapchain.
type Surface interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Size() (width, height int)
}

type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	forceFallbackAdapter bool
	presentMode          PresentMode
	sampleCount          MSAASampleCount
	clearColor           wgpu.Color

	width, height int
	inFrame       bool
	released      bool
}

// Renderer draws indexed meshes through registered pipelines onto a window surface.
// All methods must be called from the thread that created the window.
type Renderer interface {
	// NewVertexArray creates an empty vertex array whose buffers are allocated on this renderer's device.
	//
	// Parameters:
	//   - label: the label used for the vertex array's GPU buffers
	//
	// Returns:
	//   - vertex_array.VertexArray: the new vertex array
	NewVertexArray(label string) vertex_array.VertexArray

	// RegisterPipeline creates the GPU objects for p, using va's bindings as the vertex layout.
	// The vertex shader's inputs must all be satisfied by va and va must pass Validate.
	//
	// Parameters:
	//   - p: the pipeline to register
	//   - va: the vertex array that will be drawn with p
	//
	// Returns:
	//   - error: an error if validation fails or a GPU object could not be created
	RegisterPipeline(p pipeline.Pipeline, va vertex_array.VertexArray) error

	// Pipeline returns the registered pipeline with the given key, or nil.
	Pipeline(key string) pipeline.Pipeline

	// WriteUniform uploads data to the group 0 uniform at location.
	//
	// Parameters:
	//   - p: a registered pipeline
	//   - location: a binding index obtained from Pipeline.UniformLocation
	//   - data: the bytes to upload, starting at offset 0
	//
	// Returns:
	//   - error: ErrUnknownUniform for a negative or unbound location, or a size error
	WriteUniform(p pipeline.Pipeline, location int, data []byte) error

	// BeginFrame acquires the next surface texture and begins a render pass that clears
	// color and depth.
	//
	// Returns:
	//   - error: an error if a frame is already in progress or the surface is unavailable
	BeginFrame() error

	// SetViewport sets the viewport of the current frame to the full width x height rectangle.
	SetViewport(width, height int) error

	// Draw issues one indexed draw of va's full index count with pipeline p.
	//
	// Returns:
	//   - error: an error if no frame is in progress or p/va are not drawable
	Draw(p pipeline.Pipeline, va vertex_array.VertexArray) error

	// EndFrame ends the render pass and submits the frame's commands.
	EndFrame() error

	// Present shows the last submitted frame.
	Present()

	// Resize reconfigures the surface when the size differs from the current one.
	// A zero dimension leaves the surface untouched.
	//
	// Returns:
	//   - bool: true if the surface was reconfigured
	//   - error: an error if reconfiguring failed
	Resize(width, height int) (bool, error)

	// SetPresentMode sets the present mode and reconfigures the surface.
	SetPresentMode(mode PresentMode) error

	// ReleasePipeline releases p's GPU objects and forgets it.
	ReleasePipeline(p pipeline.Pipeline)

	// Release releases every remaining pipeline, then the device and surface. Subsequent calls are no-ops.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer with the specified backend type on the given surface.
// The surface is configured at its current size before returning.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - surface: the window providing the platform surface descriptor and size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
//   - error: an error if no adapter or device could be acquired
func NewRenderer(backendType RendererBackendType, surface Surface, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
		presentMode:   PresentModeUncapped,
		sampleCount:   MSAAOff,
		clearColor:    wgpu.Color{R: 0.3, G: 0.3, B: 0.3, A: 0},
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	if r.backend == nil {
		switch backendType {
		case BackendTypeWGPU:
			fallthrough
		default:
			b, err := newWGPURendererBackend(surface.SurfaceDescriptor(), r.forceFallbackAdapter, r.sampleCount, r.clearColor)
			if err != nil {
				return nil, err
			}
			r.backend = b
		}
	}
	r.backend.SetPresentMode(r.presentMode)

	width, height := surface.Size()
	if _, err := r.Resize(width, height); err != nil {
		r.backend.Release()
		return nil, err
	}
	log.Printf("[Renderer] surface configured at %dx%d, present mode %s, %dx MSAA", width, height, r.presentMode, r.sampleCount)
	return r, nil
}

func (r *renderer) NewVertexArray(label string) vertex_array.VertexArray {
	return vertex_array.NewVertexArray(label, r.backend)
}

func (r *renderer) RegisterPipeline(p pipeline.Pipeline, va vertex_array.VertexArray) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrRendererReleased
	}
	key := p.PipelineKey()
	if _, exists := r.pipelineCache[key]; exists {
		return fmt.Errorf("pipeline %q already registered", key)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := va.Validate(); err != nil {
		return fmt.Errorf("pipeline %q: %w", key, err)
	}
	if err := va.CheckShaderInputs(p.Shader(shader.ShaderTypeVertex).VertexInputs()); err != nil {
		return fmt.Errorf("pipeline %q: %w", key, err)
	}
	if err := r.backend.RegisterRenderPipeline(p, va.BufferLayouts()); err != nil {
		p.Release()
		return fmt.Errorf("pipeline %q: %w", key, err)
	}
	r.pipelineCache[key] = p
	return nil
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) WriteUniform(p pipeline.Pipeline, location int, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrRendererReleased
	}
	if location < 0 {
		return fmt.Errorf("%s: %w %d", p.PipelineKey(), ErrUnknownUniform, location)
	}
	provider := p.Uniforms(pipeline.UniformGroup)
	if provider == nil || r.pipelineCache[p.PipelineKey()] != p {
		return fmt.Errorf("%s: %w", p.PipelineKey(), ErrNotRegistered)
	}
	if provider.BufferSize(location) == 0 {
		return fmt.Errorf("%s: %w %d", p.PipelineKey(), ErrUnknownUniform, location)
	}
	write := bind_group_provider.BufferWrite{
		Provider: provider,
		Binding:  location,
		Data:     data,
	}
	if err := write.Check(); err != nil {
		return err
	}
	r.backend.WriteBuffers([]bind_group_provider.BufferWrite{write})
	return nil
}

func (r *renderer) BeginFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrRendererReleased
	}
	if r.inFrame {
		return errors.New("previous frame not ended")
	}
	if err := r.backend.BeginFrame(); err != nil {
		return err
	}
	r.inFrame = true
	return nil
}

func (r *renderer) SetViewport(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inFrame {
		return ErrNoFrame
	}
	r.backend.SetViewport(0, 0, float32(width), float32(height))
	return nil
}

func (r *renderer) Draw(p pipeline.Pipeline, va vertex_array.VertexArray) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inFrame {
		return ErrNoFrame
	}
	if r.pipelineCache[p.PipelineKey()] != p {
		return fmt.Errorf("%s: %w", p.PipelineKey(), ErrNotRegistered)
	}
	if va.IndexBuffer() == nil || va.IndexCount() == 0 {
		return fmt.Errorf("%s: %w", va.Label(), vertex_array.ErrReleased)
	}
	return r.backend.DrawIndexed(p, va)
}

func (r *renderer) EndFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inFrame {
		return ErrNoFrame
	}
	r.inFrame = false
	return r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.backend.Present()
}

func (r *renderer) Resize(width, height int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return false, ErrRendererReleased
	}
	if width <= 0 || height <= 0 || (width == r.width && height == r.height) {
		return false, nil
	}
	if err := r.backend.ConfigureSurface(width, height); err != nil {
		return false, err
	}
	r.width, r.height = width, height
	return true, nil
}

func (r *renderer) SetPresentMode(mode PresentMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrRendererReleased
	}
	r.presentMode = mode
	r.backend.SetPresentMode(mode)
	if r.width == 0 || r.height == 0 {
		return nil
	}
	return r.backend.ConfigureSurface(r.width, r.height)
}

func (r *renderer) ReleasePipeline(p pipeline.Pipeline) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pipelineCache[p.PipelineKey()] == p {
		delete(r.pipelineCache, p.PipelineKey())
	}
	p.Release()
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.released = true
	for key, p := range r.pipelineCache {
		p.Release()
		delete(r.pipelineCache, key)
	}
	r.backend.Release()
	log.Printf("[Renderer] device released")
}
