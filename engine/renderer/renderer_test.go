package renderer

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-primer/common"
	"github.com/Carmen-Shannon/oxy-primer/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-primer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-primer/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-primer/engine/renderer/vertex_array"
	"github.com/cogentcore/webgpu/wgpu"
)

const testVertexSource = `
struct VertexInput {
    @location(0) position: vec3f,
    @location(1) color: vec3f,
}

struct VertexOutput {
    @builtin(position) clip_position: vec4f,
    @location(0) color: vec3f,
}

@group(0) @binding(0) var<uniform> T: mat4x4<f32>;

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip_position = T * vec4f(in.position, 1.0);
    out.color = in.color;
    return out;
}
`

const testFragmentSource = `
@group(0) @binding(1) var<uniform> time: f32;

@fragment
fn fs_main(@location(0) color: vec3f) -> @location(0) vec4f {
    return vec4f(color * time, 1.0);
}
`

type fakeSurface struct{ width, height int }

func (s fakeSurface) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (s fakeSurface) Size() (int, int)                            { return s.width, s.height }

type fakeBuffer struct {
	label string
	size  uint64
}

func (b *fakeBuffer) Label() string { return b.label }
func (b *fakeBuffer) Size() uint64  { return b.size }
func (b *fakeBuffer) Native() any   { return nil }
func (b *fakeBuffer) Release()      {}

type fakeBackend struct {
	configured  [][2]int
	presentMode PresentMode
	writes      []bind_group_provider.BufferWrite
	calls       []string
	beginErr    error
	registerErr error
	released    int
}

func (b *fakeBackend) AllocateBuffer(label string, usage wgpu.BufferUsage, data []byte) (vertex_array.Buffer, error) {
	return &fakeBuffer{label: label, size: uint64(len(data))}, nil
}

func (b *fakeBackend) ConfigureSurface(width, height int) error {
	b.configured = append(b.configured, [2]int{width, height})
	return nil
}

func (b *fakeBackend) SetPresentMode(mode PresentMode) { b.presentMode = mode }

func (b *fakeBackend) RegisterRenderPipeline(p pipeline.Pipeline, layouts []wgpu.VertexBufferLayout) error {
	if b.registerErr != nil {
		return b.registerErr
	}
	for g, desc := range p.BindGroupLayouts() {
		provider := bind_group_provider.NewBindGroupProvider("fake", bind_group_provider.WithGroup(g))
		for _, e := range desc.Entries {
			provider.SetBuffer(int(e.Binding), nil, common.AlignUp(e.Buffer.MinBindingSize, 16))
		}
		p.SetUniforms(provider)
	}
	b.calls = append(b.calls, "register")
	return nil
}

func (b *fakeBackend) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.writes = append(b.writes, writes...)
}

func (b *fakeBackend) BeginFrame() error {
	if b.beginErr != nil {
		return b.beginErr
	}
	b.calls = append(b.calls, "begin")
	return nil
}

func (b *fakeBackend) SetViewport(x, y, width, height float32) {
	b.calls = append(b.calls, "viewport")
}

func (b *fakeBackend) DrawIndexed(p pipeline.Pipeline, va vertex_array.VertexArray) error {
	b.calls = append(b.calls, "draw")
	return nil
}

func (b *fakeBackend) EndFrame() error {
	b.calls = append(b.calls, "end")
	return nil
}

func (b *fakeBackend) Present() { b.calls = append(b.calls, "present") }
func (b *fakeBackend) Release() { b.released++ }

func newTestRenderer(t *testing.T, backend *fakeBackend) Renderer {
	t.Helper()
	r, err := NewRenderer(BackendTypeWGPU, fakeSurface{640, 480}, withBackend(backend))
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func newTestPipeline(t *testing.T, key string) pipeline.Pipeline {
	t.Helper()
	off := shader.WithValidation(shader.ValidationOff)
	vs, err := shader.NewShaderFromSource("vs", shader.ShaderTypeVertex, testVertexSource, off)
	if err != nil {
		t.Fatal(err)
	}
	fs, err := shader.NewShaderFromSource("fs", shader.ShaderTypeFragment, testFragmentSource, off)
	if err != nil {
		t.Fatal(err)
	}
	return pipeline.NewPipeline(key, pipeline.WithVertexShader(vs), pipeline.WithFragmentShader(fs))
}

func newTestVertexArray(t *testing.T, r Renderer, withColor bool) vertex_array.VertexArray {
	t.Helper()
	va := r.NewVertexArray("tri")
	if _, err := va.CreateVertexBuffer(0, 3, []float32{-1, -1, 0, 1, -1, 0, 0, 1, 0}); err != nil {
		t.Fatal(err)
	}
	if withColor {
		if _, err := va.CreateVertexBuffer(1, 3, []float32{1, 0, 0, 0, 1, 0, 0, 0, 1}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := va.CreateIndexBuffer([]uint32{0, 1, 2}); err != nil {
		t.Fatal(err)
	}
	return va
}

func TestNewRendererConfiguresSurface(t *testing.T) {
	backend := &fakeBackend{}
	newTestRenderer(t, backend)
	if len(backend.configured) != 1 || backend.configured[0] != [2]int{640, 480} {
		t.Errorf("configured = %v, want [[640 480]]", backend.configured)
	}
	if backend.presentMode != PresentModeUncapped {
		t.Errorf("default present mode = %s, want uncapped", backend.presentMode)
	}
}

func TestResize(t *testing.T) {
	backend := &fakeBackend{}
	r := newTestRenderer(t, backend)

	tests := []struct {
		width, height int
		want          bool
	}{
		{640, 480, false},
		{0, 480, false},
		{800, 600, true},
		{800, 600, false},
	}
	for _, tt := range tests {
		got, err := r.Resize(tt.width, tt.height)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("Resize(%d, %d) = %v, want %v", tt.width, tt.height, got, tt.want)
		}
	}
	if len(backend.configured) != 2 {
		t.Errorf("surface configured %d times, want 2", len(backend.configured))
	}
}

func TestRegisterPipeline(t *testing.T) {
	backend := &fakeBackend{}
	r := newTestRenderer(t, backend)
	p := newTestPipeline(t, "mesh")

	if err := r.RegisterPipeline(p, newTestVertexArray(t, r, false)); err == nil {
		t.Fatal("vertex array without colors accepted")
	}
	if err := r.RegisterPipeline(p, newTestVertexArray(t, r, true)); err != nil {
		t.Fatalf("RegisterPipeline: %v", err)
	}
	if r.Pipeline("mesh") != p {
		t.Error("registered pipeline not cached")
	}
	if err := r.RegisterPipeline(p, newTestVertexArray(t, r, true)); err == nil {
		t.Error("duplicate key accepted")
	}

	failing := &fakeBackend{registerErr: errors.New("device lost")}
	r2 := newTestRenderer(t, failing)
	p2 := newTestPipeline(t, "mesh")
	if err := r2.RegisterPipeline(p2, newTestVertexArray(t, r2, true)); err == nil {
		t.Fatal("backend failure not reported")
	}
	if !p2.Released() || r2.Pipeline("mesh") != nil {
		t.Error("failed pipeline not released and forgotten")
	}
}

func TestWriteUniform(t *testing.T) {
	backend := &fakeBackend{}
	r := newTestRenderer(t, backend)
	p := newTestPipeline(t, "mesh")
	if err := r.WriteUniform(p, 0, make([]byte, 64)); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("write before register = %v", err)
	}
	if err := r.RegisterPipeline(p, newTestVertexArray(t, r, true)); err != nil {
		t.Fatal(err)
	}

	matrix := common.RotateY(0.5).Bytes()
	tests := []struct {
		name     string
		location int
		data     []byte
		want     error
		wantErr  bool
	}{
		{"transform", p.UniformLocation("T"), matrix, nil, false},
		{"time", p.UniformLocation("time"), common.ValueToBytes(float32(1.5)), nil, false},
		{"missing name", p.UniformLocation("missing"), matrix, ErrUnknownUniform, true},
		{"unbound location", 7, matrix, ErrUnknownUniform, true},
		{"overflow", p.UniformLocation("time"), matrix, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(backend.writes)
			err := r.WriteUniform(p, tt.location, tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("WriteUniform() = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("WriteUniform() = %v, want %v", err, tt.want)
			}
			wrote := len(backend.writes) - before
			if tt.wantErr && wrote != 0 || !tt.wantErr && wrote != 1 {
				t.Errorf("backend received %d writes", wrote)
			}
		})
	}
	last := backend.writes[len(backend.writes)-1]
	if last.Binding != 1 || len(last.Data) != 4 {
		t.Errorf("time write = binding %d, %d bytes", last.Binding, len(last.Data))
	}
}

func TestFrameSequence(t *testing.T) {
	backend := &fakeBackend{}
	r := newTestRenderer(t, backend)
	p := newTestPipeline(t, "mesh")
	va := newTestVertexArray(t, r, true)
	if err := r.RegisterPipeline(p, va); err != nil {
		t.Fatal(err)
	}

	if err := r.Draw(p, va); !errors.Is(err, ErrNoFrame) {
		t.Errorf("draw outside frame = %v", err)
	}
	if err := r.EndFrame(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("end outside frame = %v", err)
	}

	if err := r.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := r.BeginFrame(); err == nil {
		t.Error("nested BeginFrame accepted")
	}
	if err := r.SetViewport(640, 480); err != nil {
		t.Fatal(err)
	}
	if err := r.Draw(p, va); err != nil {
		t.Fatal(err)
	}
	if err := r.EndFrame(); err != nil {
		t.Fatal(err)
	}
	r.Present()

	want := []string{"register", "begin", "viewport", "draw", "end", "present"}
	if len(backend.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", backend.calls, want)
	}
	for i := range want {
		if backend.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", backend.calls, want)
		}
	}

	va.Release()
	if err := r.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := r.Draw(p, va); !errors.Is(err, vertex_array.ErrReleased) {
		t.Errorf("draw of released vertex array = %v", err)
	}
}

func TestBeginFrameFailure(t *testing.T) {
	backend := &fakeBackend{beginErr: errors.New("surface timeout")}
	r := newTestRenderer(t, backend)
	if err := r.BeginFrame(); err == nil {
		t.Fatal("expected error")
	}
	backend.beginErr = nil
	if err := r.BeginFrame(); err != nil {
		t.Errorf("frame after failed frame: %v", err)
	}
}

func TestRelease(t *testing.T) {
	backend := &fakeBackend{}
	r := newTestRenderer(t, backend)
	p := newTestPipeline(t, "mesh")
	if err := r.RegisterPipeline(p, newTestVertexArray(t, r, true)); err != nil {
		t.Fatal(err)
	}

	r.Release()
	r.Release()
	if backend.released != 1 {
		t.Errorf("backend released %d times, want 1", backend.released)
	}
	if !p.Released() {
		t.Error("pipeline not released with renderer")
	}
	if err := r.BeginFrame(); !errors.Is(err, ErrRendererReleased) {
		t.Errorf("BeginFrame after release = %v", err)
	}
}
