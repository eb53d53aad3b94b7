package shader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

const testVertexSource = `
// vertex stage
struct VertexInput {
    @location(1) color: vec3f,
    @location(0) position: vec3<f32>,
}

struct VertexOutput {
    @builtin(position) clip_position: vec4f,
    @location(0) color: vec3f,
}

/* the composed model transform
   /* nested */ still a comment */
@group(0) @binding(0) var<uniform> T: mat4x4<f32>;
@group(0) @binding(1) var<uniform> time: f32;

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip_position = T * vec4f(in.position, 1.0);
    out.color = in.color;
    return out;
}
`

const testFragmentSource = `
struct Params {
    tint: vec3f,
    strength: f32,
    offsets: array<vec2f, 3>,
}

@group(0) @binding(1) var<uniform> time: f32;
@group(1) @binding(0) var<uniform> params: Params;

@fragment
fn fs_main(@location(0) color: vec3f) -> @location(0) vec4f {
    return vec4f(color * params.tint * time, 1.0);
}
`

func noValidation() ShaderBuilderOption {
	return WithValidation(ValidationOff)
}

func TestParseVertexShader(t *testing.T) {
	s, err := NewShaderFromSource("vs", ShaderTypeVertex, testVertexSource, noValidation())
	if err != nil {
		t.Fatalf("NewShaderFromSource: %v", err)
	}
	if s.EntryPoint() != "vs_main" {
		t.Errorf("entry point = %q, want vs_main", s.EntryPoint())
	}

	inputs := s.VertexInputs()
	if len(inputs) != 2 {
		t.Fatalf("got %d vertex inputs, want 2", len(inputs))
	}
	want := []VertexInput{
		{Name: "position", Location: 0, Format: wgpu.VertexFormatFloat32x3, Components: 3},
		{Name: "color", Location: 1, Format: wgpu.VertexFormatFloat32x3, Components: 3},
	}
	for i := range want {
		if inputs[i] != want[i] {
			t.Errorf("input %d = %+v, want %+v", i, inputs[i], want[i])
		}
	}

	desc, ok := s.BindGroupLayoutDescriptors()[0]
	if !ok {
		t.Fatal("group 0 missing")
	}
	if len(desc.Entries) != 2 {
		t.Fatalf("group 0 has %d entries, want 2", len(desc.Entries))
	}
	if got := desc.Entries[0].Buffer.MinBindingSize; got != 64 {
		t.Errorf("T min binding size = %d, want 64", got)
	}
	if got := desc.Entries[1].Buffer.MinBindingSize; got != 4 {
		t.Errorf("time min binding size = %d, want 4", got)
	}
	for _, e := range desc.Entries {
		if e.Visibility != wgpu.ShaderStageVertex {
			t.Errorf("binding %d visibility = %v, want vertex", e.Binding, e.Visibility)
		}
		if e.Buffer.Type != wgpu.BufferBindingTypeUniform {
			t.Errorf("binding %d type = %v, want uniform", e.Binding, e.Buffer.Type)
		}
	}
}

func TestBindGroupFromVarName(t *testing.T) {
	s, err := NewShaderFromSource("vs", ShaderTypeVertex, testVertexSource, noValidation())
	if err != nil {
		t.Fatalf("NewShaderFromSource: %v", err)
	}
	tests := []struct {
		name        string
		group       int
		wantBinding int
		wantOK      bool
	}{
		{"T", 0, 0, true},
		{"time", 0, 1, true},
		{"R", 0, -1, false},
		{"T", 3, -1, false},
	}
	for _, tt := range tests {
		binding, ok := s.BindGroupFromVarName(tt.group, tt.name)
		if binding != tt.wantBinding || ok != tt.wantOK {
			t.Errorf("BindGroupFromVarName(%d, %q) = %d, %v; want %d, %v", tt.group, tt.name, binding, ok, tt.wantBinding, tt.wantOK)
		}
	}
	if got := s.BindGroupVarName(0, 1); got != "time" {
		t.Errorf("BindGroupVarName(0, 1) = %q, want time", got)
	}
}

func TestParseFragmentShaderStructSizes(t *testing.T) {
	s, err := NewShaderFromSource("fs", ShaderTypeFragment, testFragmentSource, noValidation())
	if err != nil {
		t.Fatalf("NewShaderFromSource: %v", err)
	}
	if s.EntryPoint() != "fs_main" {
		t.Errorf("entry point = %q, want fs_main", s.EntryPoint())
	}
	if s.VertexInputs() != nil {
		t.Errorf("fragment shader reported vertex inputs: %+v", s.VertexInputs())
	}
	desc := s.BindGroupLayoutDescriptors()[1]
	if len(desc.Entries) != 1 {
		t.Fatalf("group 1 has %d entries, want 1", len(desc.Entries))
	}
	// vec3f at 0 (size 12), f32 at 12, array<vec2f, 3> at 16 (stride 8) -> 40, rounded to align 16 -> 48
	if got := desc.Entries[0].Buffer.MinBindingSize; got != 48 {
		t.Errorf("Params min binding size = %d, want 48", got)
	}
	if desc.Entries[0].Visibility != wgpu.ShaderStageFragment {
		t.Errorf("visibility = %v, want fragment", desc.Entries[0].Visibility)
	}
}

func TestNewShaderErrors(t *testing.T) {
	tests := []struct {
		name       string
		shaderType ShaderType
		source     string
	}{
		{
			name:       "missing entry point",
			shaderType: ShaderTypeVertex,
			source:     "@fragment fn fs_main() -> @location(0) vec4f { return vec4f(1.0); }",
		},
		{
			name:       "texture binding",
			shaderType: ShaderTypeFragment,
			source: `@group(0) @binding(0) var tex: texture_2d<f32>;
@fragment fn fs_main() -> @location(0) vec4f { return vec4f(1.0); }`,
		},
		{
			name:       "matrix vertex input",
			shaderType: ShaderTypeVertex,
			source: `struct In { @location(0) m: mat2x2<f32>, }
@vertex fn vs_main(in: In) -> @builtin(position) vec4f { return vec4f(1.0); }`,
		},
		{
			name:       "duplicate location",
			shaderType: ShaderTypeVertex,
			source: `struct A { @location(0) a: vec3f, }
struct B { @location(0) b: vec2f, }
@vertex fn vs_main(a: A) -> @builtin(position) vec4f { return vec4f(1.0); }`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewShaderFromSource("bad", tt.shaderType, tt.source, noValidation()); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestValidationModes(t *testing.T) {
	errRejected := errors.New("rejected")
	reject := WithCompiler(func(string) ([]byte, error) { return nil, errRejected })

	if _, err := NewShaderFromSource("vs", ShaderTypeVertex, testVertexSource, reject); err != nil {
		t.Errorf("warn mode returned %v, want nil", err)
	}

	_, err := NewShaderFromSource("vs", ShaderTypeVertex, testVertexSource, reject, WithValidation(ValidationStrict))
	if !errors.Is(err, errRejected) {
		t.Errorf("strict mode returned %v, want %v", err, errRejected)
	}

	called := false
	spy := WithCompiler(func(string) ([]byte, error) { called = true; return nil, nil })
	if _, err := NewShaderFromSource("vs", ShaderTypeVertex, testVertexSource, spy, WithValidation(ValidationOff)); err != nil {
		t.Fatalf("off mode: %v", err)
	}
	if called {
		t.Error("compiler ran with validation off")
	}
}

func TestNewShaderFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vertex.wgsl")
	if err := os.WriteFile(path, []byte(testVertexSource), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewShader("vs", ShaderTypeVertex, path, noValidation())
	if err != nil {
		t.Fatalf("NewShader: %v", err)
	}
	if s.Key() != "vs" || s.Module().Label != "vs" {
		t.Errorf("key/label = %q/%q", s.Key(), s.Module().Label)
	}

	if _, err := NewShader("missing", ShaderTypeVertex, filepath.Join(t.TempDir(), "nope.wgsl")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want ErrNotExist", err)
	}
	if _, err := NewShader("empty", ShaderTypeVertex, ""); err == nil {
		t.Error("empty path accepted")
	}
}

func TestBundledShaders(t *testing.T) {
	vs, err := NewShader("vertex", ShaderTypeVertex, "../../../assets/shaders/vertex.wgsl", noValidation())
	if err != nil {
		t.Fatalf("vertex: %v", err)
	}
	if len(vs.VertexInputs()) != 2 {
		t.Errorf("vertex inputs = %+v", vs.VertexInputs())
	}
	if b, ok := vs.BindGroupFromVarName(0, "T"); !ok || b != 0 {
		t.Errorf("T binding = %d, %v", b, ok)
	}

	fs, err := NewShader("fragment", ShaderTypeFragment, "../../../assets/shaders/fragment.wgsl", noValidation())
	if err != nil {
		t.Fatalf("fragment: %v", err)
	}
	if b, ok := fs.BindGroupFromVarName(0, "time"); !ok || b != 1 {
		t.Errorf("time binding = %d, %v", b, ok)
	}
}
