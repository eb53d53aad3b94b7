package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-primer/common"
	"github.com/Carmen-Shannon/oxy-primer/engine/mesh"
	"github.com/Carmen-Shannon/oxy-primer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-primer/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-primer/engine/transform"
	"github.com/cogentcore/webgpu/wgpu"
	"gopkg.in/yaml.v3"
)

// Config is the scene description read from YAML. Fields missing from the file keep the
// values from Default.
type Config struct {
	Window    WindowConfig     `yaml:"window"`
	Renderer  RendererConfig   `yaml:"renderer"`
	Shaders   ShaderConfig     `yaml:"shaders"`
	Mesh      MeshConfig       `yaml:"mesh"`
	Raster    RasterConfig     `yaml:"raster"`
	Uniforms  UniformConfig    `yaml:"uniforms"`
	Transform []transform.Step `yaml:"transform"`
	ExitKey   string           `yaml:"exit_key"`
	Profiler  ProfilerConfig   `yaml:"profiler"`
}

// WindowConfig sizes and titles the window. A zero width or height selects a square of half the desktop height.
type WindowConfig struct {
	Title     string `yaml:"title"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Resizable bool   `yaml:"resizable"`
}

type RendererConfig struct {
	PresentMode      string     `yaml:"present_mode"`
	MSAA             int        `yaml:"msaa"`
	SoftwareRenderer bool       `yaml:"software_renderer"`
	ClearColor       [4]float64 `yaml:"clear_color"`
}

type ShaderConfig struct {
	Vertex     string `yaml:"vertex"`
	Fragment   string `yaml:"fragment"`
	Validation string `yaml:"validation"`
}

type MeshConfig struct {
	Kind     string  `yaml:"kind"`
	Radius   float32 `yaml:"radius"`
	Segments int     `yaml:"segments"`
}

type RasterConfig struct {
	CullMode  string `yaml:"cull_mode"`
	FrontFace string `yaml:"front_face"`
	DepthTest bool   `yaml:"depth_test"`
}

type UniformConfig struct {
	Matrix string `yaml:"matrix"`
	Time   string `yaml:"time"`
}

type ProfilerConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Interval float64 `yaml:"interval_seconds"`
}

// Default returns the built-in scene: a spinning cube on a grey background.
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:     "GLprimer",
			Resizable: true,
		},
		Renderer: RendererConfig{
			PresentMode: renderer.PresentModeUncapped.String(),
			MSAA:        int(renderer.MSAAOff),
			ClearColor:  [4]float64{0.3, 0.3, 0.3, 0},
		},
		Shaders: ShaderConfig{
			Vertex:     "assets/shaders/vertex.wgsl",
			Fragment:   "assets/shaders/fragment.wgsl",
			Validation: "warn",
		},
		Mesh: MeshConfig{
			Kind:     "cube",
			Radius:   0.8,
			Segments: 200,
		},
		Raster: RasterConfig{
			CullMode:  "back",
			FrontFace: "ccw",
		},
		Uniforms: UniformConfig{
			Matrix: transform.DefaultMatrixUniform,
			Time:   transform.DefaultTimeUniform,
		},
		Transform: transform.DefaultChain(),
		ExitKey:   "escape",
		Profiler: ProfilerConfig{
			Enabled:  true,
			Interval: 1,
		},
	}
}

// Load reads and validates the YAML scene file at path on top of Default.
//
// Parameters:
//   - path: the YAML file to read
//
// Returns:
//   - Config: the merged configuration
//   - error: an error if the file cannot be read, parsed or validated
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes on top of Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every enumerated field and the transform chain, joining all problems found.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.PresentMode(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.SampleCount(); err != nil {
		errs = append(errs, err)
	}
	for i, v := range c.Renderer.ClearColor {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("renderer.clear_color[%d] = %v is outside [0, 1]", i, v))
		}
	}
	if c.Shaders.Vertex == "" || c.Shaders.Fragment == "" {
		errs = append(errs, errors.New("shaders.vertex and shaders.fragment are required"))
	}
	if _, err := c.ValidationMode(); err != nil {
		errs = append(errs, err)
	}
	if !slices.Contains(mesh.Kinds, strings.ToLower(strings.TrimSpace(c.Mesh.Kind))) {
		errs = append(errs, fmt.Errorf("mesh.kind %q is not one of %s", c.Mesh.Kind, strings.Join(mesh.Kinds, ", ")))
	}
	if _, err := c.CullMode(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.FrontFace(); err != nil {
		errs = append(errs, err)
	}
	if c.Uniforms.Matrix == "" || c.Uniforms.Time == "" {
		errs = append(errs, errors.New("uniforms.matrix and uniforms.time must be non-empty"))
	}
	for i, s := range c.Transform {
		if err := s.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("transform[%d]: %w", i, err))
		}
	}
	if _, err := c.ExitKeyCode(); err != nil {
		errs = append(errs, err)
	}
	if c.Profiler.Interval < 0 {
		errs = append(errs, fmt.Errorf("profiler.interval_seconds = %v must not be negative", c.Profiler.Interval))
	}
	return errors.Join(errs...)
}

// PresentMode maps renderer.present_mode onto renderer.PresentMode.
func (c Config) PresentMode() (renderer.PresentMode, error) {
	switch strings.ToLower(c.Renderer.PresentMode) {
	case "", "uncapped", "immediate":
		return renderer.PresentModeUncapped, nil
	case "vsync", "fifo":
		return renderer.PresentModeVSync, nil
	default:
		return 0, fmt.Errorf("renderer.present_mode %q is not uncapped or vsync", c.Renderer.PresentMode)
	}
}

// SampleCount maps renderer.msaa onto renderer.MSAASampleCount.
func (c Config) SampleCount() (renderer.MSAASampleCount, error) {
	switch c.Renderer.MSAA {
	case 0, 1:
		return renderer.MSAAOff, nil
	case 4:
		return renderer.MSAA4x, nil
	default:
		return 0, fmt.Errorf("renderer.msaa %d is not 1 or 4", c.Renderer.MSAA)
	}
}

// ValidationMode maps shaders.validation onto shader.ValidationMode.
func (c Config) ValidationMode() (shader.ValidationMode, error) {
	switch strings.ToLower(c.Shaders.Validation) {
	case "", "warn":
		return shader.ValidationWarn, nil
	case "strict":
		return shader.ValidationStrict, nil
	case "off":
		return shader.ValidationOff, nil
	default:
		return 0, fmt.Errorf("shaders.validation %q is not warn, strict or off", c.Shaders.Validation)
	}
}

// CullMode maps raster.cull_mode onto wgpu.CullMode.
func (c Config) CullMode() (wgpu.CullMode, error) {
	switch strings.ToLower(c.Raster.CullMode) {
	case "", "back":
		return wgpu.CullModeBack, nil
	case "front":
		return wgpu.CullModeFront, nil
	case "none":
		return wgpu.CullModeNone, nil
	default:
		return 0, fmt.Errorf("raster.cull_mode %q is not back, front or none", c.Raster.CullMode)
	}
}

// FrontFace maps raster.front_face onto wgpu.FrontFace.
func (c Config) FrontFace() (wgpu.FrontFace, error) {
	switch strings.ToLower(c.Raster.FrontFace) {
	case "", "ccw":
		return wgpu.FrontFaceCCW, nil
	case "cw":
		return wgpu.FrontFaceCW, nil
	default:
		return 0, fmt.Errorf("raster.front_face %q is not ccw or cw", c.Raster.FrontFace)
	}
}

// ExitKeyCode resolves exit_key to a key code. An empty name disables the exit key and returns -1.
func (c Config) ExitKeyCode() (int, error) {
	if strings.TrimSpace(c.ExitKey) == "" {
		return -1, nil
	}
	code, ok := common.KeyFromName(c.ExitKey)
	if !ok {
		return 0, fmt.Errorf("exit_key %q is not a known key", c.ExitKey)
	}
	return code, nil
}
