package engine

import "github.com/Carmen-Shannon/oxy-primer/engine/profiler"

// EngineBuilderOption is a functional option used to configure an Engine during construction.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables the frame profiler, overriding the configuration.
//
// Parameters:
//   - enabled: true to log frame statistics
//
// Returns:
//   - EngineBuilderOption: a function that applies the profiling option to an engine
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler replaces the profiler built from the configuration.
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithMaxFrames stops the render loop after n presented frames. Zero runs until the window closes.
//
// Parameters:
//   - n: the frame limit
//
// Returns:
//   - EngineBuilderOption: a function that applies the frame limit to an engine
func WithMaxFrames(n int) EngineBuilderOption {
	return func(e *engine) {
		e.maxFrames = n
	}
}

// WithWindowFactory replaces window.NewWindow.
func WithWindowFactory(f WindowFactory) EngineBuilderOption {
	return func(e *engine) {
		e.newWindow = f
	}
}

// WithRendererFactory replaces the WebGPU renderer constructor.
func WithRendererFactory(f RendererFactory) EngineBuilderOption {
	return func(e *engine) {
		e.newRenderer = f
	}
}

// WithShaderLoader replaces shader.NewShader.
func WithShaderLoader(f ShaderLoader) EngineBuilderOption {
	return func(e *engine) {
		e.loadShader = f
	}
}
