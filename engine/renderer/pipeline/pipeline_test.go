package pipeline

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-primer/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-primer/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

const vertexSource = `
struct VertexInput {
    @location(0) position: vec3f,
    @location(1) color: vec3f,
}

struct VertexOutput {
    @builtin(position) clip_position: vec4f,
    @location(0) color: vec3f,
}

@group(0) @binding(0) var<uniform> T: mat4x4<f32>;
@group(0) @binding(1) var<uniform> time: f32;

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip_position = T * vec4f(in.position, 1.0);
    out.color = in.color * time;
    return out;
}
`

const fragmentSource = `
@group(0) @binding(1) var<uniform> time: f32;
@group(0) @binding(2) var<uniform> tint: vec4f;

@fragment
fn fs_main(@location(0) color: vec3f) -> @location(0) vec4f {
    return vec4f(color, 1.0) * tint * time;
}
`

func newShaders(t *testing.T) (shader.Shader, shader.Shader) {
	t.Helper()
	off := shader.WithValidation(shader.ValidationOff)
	vs, err := shader.NewShaderFromSource("vs", shader.ShaderTypeVertex, vertexSource, off)
	if err != nil {
		t.Fatalf("vertex shader: %v", err)
	}
	fs, err := shader.NewShaderFromSource("fs", shader.ShaderTypeFragment, fragmentSource, off)
	if err != nil {
		t.Fatalf("fragment shader: %v", err)
	}
	return vs, fs
}

func TestDefaults(t *testing.T) {
	p := NewPipeline("mesh")
	if p.CullMode() != wgpu.CullModeBack || p.FrontFace() != wgpu.FrontFaceCCW {
		t.Errorf("cull/front face = %v/%v", p.CullMode(), p.FrontFace())
	}
	if p.Topology() != wgpu.PrimitiveTopologyTriangleList {
		t.Errorf("topology = %v", p.Topology())
	}
	if p.DepthTestEnabled() || p.DepthWriteEnabled() {
		t.Error("depth test enabled by default")
	}
	if p.Pipeline() != nil {
		t.Error("unregistered pipeline has a native object")
	}

	p = NewPipeline("mesh", WithCullMode(wgpu.CullModeNone), WithDepthTestEnabled(true), WithFrontFace(wgpu.FrontFaceCW))
	if p.CullMode() != wgpu.CullModeNone || !p.DepthTestEnabled() || p.FrontFace() != wgpu.FrontFaceCW {
		t.Error("options not applied")
	}
}

func TestUniformLocation(t *testing.T) {
	vs, fs := newShaders(t)
	p := NewPipeline("mesh", WithVertexShader(vs), WithFragmentShader(fs))

	tests := []struct {
		name string
		want int
	}{
		{"T", 0},
		{"time", 1},
		{"tint", 2},
		{"missing", -1},
		{"", -1},
	}
	for _, tt := range tests {
		if got := p.UniformLocation(tt.name); got != tt.want {
			t.Errorf("UniformLocation(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
	if p.UniformName(2) != "tint" || p.UniformName(9) != "" {
		t.Errorf("UniformName = %q/%q", p.UniformName(2), p.UniformName(9))
	}
}

func TestMergedLayouts(t *testing.T) {
	vs, fs := newShaders(t)
	p := NewPipeline("mesh", WithVertexShader(vs), WithFragmentShader(fs))

	layouts := p.BindGroupLayouts()
	if len(layouts) != 1 {
		t.Fatalf("got %d groups, want 1", len(layouts))
	}
	entries := layouts[0].Entries
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	want := []wgpu.ShaderStage{
		wgpu.ShaderStageVertex,
		wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
		wgpu.ShaderStageFragment,
	}
	for i, e := range entries {
		if e.Binding != uint32(i) {
			t.Errorf("entry %d has binding %d", i, e.Binding)
		}
		if e.Visibility != want[i] {
			t.Errorf("binding %d visibility = %v, want %v", e.Binding, e.Visibility, want[i])
		}
	}
	if entries[0].Buffer.MinBindingSize != 64 {
		t.Errorf("T min binding size = %d, want 64", entries[0].Buffer.MinBindingSize)
	}
}

func TestValidate(t *testing.T) {
	vs, fs := newShaders(t)
	tests := []struct {
		name    string
		opts    []PipelineBuilderOption
		wantErr bool
	}{
		{"complete", []PipelineBuilderOption{WithVertexShader(vs), WithFragmentShader(fs)}, false},
		{"no vertex", []PipelineBuilderOption{WithFragmentShader(fs)}, true},
		{"no fragment", []PipelineBuilderOption{WithVertexShader(vs)}, true},
		{"swapped", []PipelineBuilderOption{WithVertexShader(fs), WithFragmentShader(vs)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewPipeline("mesh", tt.opts...).Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrIncompletePipeline) {
				t.Errorf("error %v does not wrap ErrIncompletePipeline", err)
			}
		})
	}
}

func TestUniformProvidersAndRelease(t *testing.T) {
	p := NewPipeline("mesh")
	p.SetUniforms(bind_group_provider.NewBindGroupProvider("g1", bind_group_provider.WithGroup(1)))
	g0 := bind_group_provider.NewBindGroupProvider("g0")
	g0.SetBuffer(0, nil, 64)
	p.SetUniforms(g0)

	providers := p.UniformProviders()
	if len(providers) != 2 || providers[0].Group() != 0 || providers[1].Group() != 1 {
		t.Fatalf("providers not in group order: %v", providers)
	}
	if p.Uniforms(0) != g0 {
		t.Error("Uniforms(0) is not the stored provider")
	}

	p.Release()
	p.Release()
	if !p.Released() {
		t.Error("Released() = false after Release")
	}
	if len(p.UniformProviders()) != 0 || len(g0.Bindings()) != 0 {
		t.Error("providers survived Release")
	}
}
