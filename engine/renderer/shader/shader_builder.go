package shader

import "github.com/gogpu/naga"

// ValidationMode controls how NewShader reacts to the WGSL front-end rejecting a source.
type ValidationMode int

const (
	// ValidationWarn logs front-end diagnostics and keeps the shader. This is the default.
	// The GPU driver still compiles the module and has the final word.
	ValidationWarn ValidationMode = iota

	// ValidationStrict turns front-end diagnostics into a NewShader error.
	ValidationStrict

	// ValidationOff skips the front-end entirely.
	ValidationOff
)

// ShaderBuilderOption is a functional option applied to a shader during construction via NewShader.
type ShaderBuilderOption func(*shader)

// WithValidation sets how WGSL front-end diagnostics are handled.
//
// Parameters:
//   - mode: ValidationWarn, ValidationStrict or ValidationOff
//
// Returns:
//   - ShaderBuilderOption: option function to apply
func WithValidation(mode ValidationMode) ShaderBuilderOption {
	return func(s *shader) {
		s.validation = mode
	}
}

// WithCompiler replaces the WGSL front-end used for validation.
//
// Parameters:
//   - compile: a function that compiles WGSL source and returns an error on rejection
//
// Returns:
//   - ShaderBuilderOption: option function to apply
func WithCompiler(compile func(source string) ([]byte, error)) ShaderBuilderOption {
	return func(s *shader) {
		s.compiler = compile
	}
}

// compileWGSL runs the naga front-end and SPIR-V back-end over source. The SPIR-V output is
// discarded; the WebGPU device consumes the WGSL text directly.
func compileWGSL(source string) ([]byte, error) {
	return naga.Compile(source)
}
