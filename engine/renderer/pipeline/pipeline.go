package pipeline

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-primer/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-primer/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// UniformGroup is the bind group index that holds the named uniforms addressed by UniformLocation.
const UniformGroup = 0

// ErrIncompletePipeline is returned by Validate when a required shader stage is missing or mismatched.
var ErrIncompletePipeline = errors.New("pipeline is incomplete")

// pipeline is the implementation of the Pipeline interface.
// It pairs a vertex and fragment shader with the fixed-function state used to create the render pipeline.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for labels and lookups
	pipelineKey string

	// the shader references are required to be set before the pipeline is registered with a renderer.

	vertexShader, fragmentShader shader.Shader

	// layouts holds the bind group layouts of both stages merged by group index
	layouts map[int]wgpu.BindGroupLayoutDescriptor

	// renderPipeline is nil until the pipeline is registered
	renderPipeline *wgpu.RenderPipeline

	// uniforms holds one provider per bind group, created when the pipeline is registered
	uniforms map[int]bind_group_provider.BindGroupProvider

	released bool

	depthTestEnabled  bool
	depthWriteEnabled bool
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	frontFace         wgpu.FrontFace
	writeMask         wgpu.ColorWriteMask
}

// Pipeline defines the interface for a linked vertex + fragment shader program and its fixed-function state.
// Named uniforms declared in bind group 0 by either stage are addressed by their binding index.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader associated with the specified type if it exists, nil otherwise.
	//
	// Parameters:
	//   - shaderType: the type of shader to retrieve (vertex or fragment)
	//
	// Returns:
	//   - shader.Shader: the shader associated with the specified type, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// Validate reports whether both shader stages are present and of the expected type.
	//
	// Returns:
	//   - error: wraps ErrIncompletePipeline when a stage is missing or mismatched
	Validate() error

	// BindGroupLayouts returns the bind group layouts of both stages merged by group index.
	// A binding used by both stages has the union of their visibilities.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: merged descriptors keyed by group index
	BindGroupLayouts() map[int]wgpu.BindGroupLayoutDescriptor

	// UniformLocation resolves a uniform variable name declared in group 0 to its binding index.
	// The vertex stage is searched first.
	//
	// Parameters:
	//   - name: the WGSL variable name
	//
	// Returns:
	//   - int: the binding index, or -1 if neither stage declares the name
	UniformLocation(name string) int

	// UniformName returns the variable name bound at the given location in group 0, or "" if none.
	//
	// Parameters:
	//   - location: the binding index
	//
	// Returns:
	//   - string: the WGSL variable name
	UniformName(location int) string

	// Uniforms returns the provider that owns the buffers and bind group for the given group index.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider, or nil if the group has none yet
	Uniforms(group int) bind_group_provider.BindGroupProvider

	// UniformProviders returns every provider sorted by group index.
	//
	// Returns:
	//   - []bind_group_provider.BindGroupProvider: the providers in group order
	UniformProviders() []bind_group_provider.BindGroupProvider

	// SetUniforms stores a provider at the provider's group index.
	//
	// Parameters:
	//   - provider: the provider to store
	SetUniforms(provider bind_group_provider.BindGroupProvider)

	// Pipeline returns the underlying render pipeline, nil until registered.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the native pipeline object
	Pipeline() *wgpu.RenderPipeline

	// SetRenderPipeline stores the native render pipeline created by the renderer backend.
	//
	// Parameters:
	//   - p: the created render pipeline
	SetRenderPipeline(p *wgpu.RenderPipeline)

	DepthTestEnabled() bool
	DepthWriteEnabled() bool
	CullMode() wgpu.CullMode
	Topology() wgpu.PrimitiveTopology
	FrontFace() wgpu.FrontFace
	WriteMask() wgpu.ColorWriteMask

	// Released reports whether Release has been called.
	Released() bool

	// Release frees the uniform providers and the native pipeline. Subsequent calls are no-ops.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a new Pipeline with the given key and options.
// Defaults match a single opaque mesh: triangle list, counter-clockwise front faces,
// back-face culling and no depth test.
//
// Parameters:
//   - pipelineKey: a unique key used for labels and lookups
//   - opts: variadic list of PipelineBuilderOption functions to configure the Pipeline
//
// Returns:
//   - Pipeline: the configured pipeline, not yet registered with a renderer
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		uniforms:          make(map[int]bind_group_provider.BindGroupProvider),
		depthTestEnabled:  false,
		depthWriteEnabled: false,
		cullMode:          wgpu.CullModeBack,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
	}
	for _, opt := range opts {
		opt(p)
	}

	var vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor
	if p.vertexShader != nil {
		vertexLayouts = p.vertexShader.BindGroupLayoutDescriptors()
	}
	if p.fragmentShader != nil {
		fragmentLayouts = p.fragmentShader.BindGroupLayoutDescriptors()
	}
	p.layouts = mergeBindGroupLayouts(vertexLayouts, fragmentLayouts)
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) Validate() error {
	if p.vertexShader == nil {
		return fmt.Errorf("%s: %w: no vertex shader", p.pipelineKey, ErrIncompletePipeline)
	}
	if p.fragmentShader == nil {
		return fmt.Errorf("%s: %w: no fragment shader", p.pipelineKey, ErrIncompletePipeline)
	}
	if p.vertexShader.ShaderType() != shader.ShaderTypeVertex {
		return fmt.Errorf("%s: %w: %s is a %s shader", p.pipelineKey, ErrIncompletePipeline, p.vertexShader.Key(), p.vertexShader.ShaderType())
	}
	if p.fragmentShader.ShaderType() != shader.ShaderTypeFragment {
		return fmt.Errorf("%s: %w: %s is a %s shader", p.pipelineKey, ErrIncompletePipeline, p.fragmentShader.Key(), p.fragmentShader.ShaderType())
	}
	return nil
}

func (p *pipeline) BindGroupLayouts() map[int]wgpu.BindGroupLayoutDescriptor {
	return p.layouts
}

func (p *pipeline) UniformLocation(name string) int {
	for _, s := range []shader.Shader{p.vertexShader, p.fragmentShader} {
		if s == nil {
			continue
		}
		if binding, ok := s.BindGroupFromVarName(UniformGroup, name); ok {
			return binding
		}
	}
	return -1
}

func (p *pipeline) UniformName(location int) string {
	for _, s := range []shader.Shader{p.vertexShader, p.fragmentShader} {
		if s == nil {
			continue
		}
		if name := s.BindGroupVarName(UniformGroup, location); name != "" {
			return name
		}
	}
	return ""
}

func (p *pipeline) Uniforms(group int) bind_group_provider.BindGroupProvider {
	return p.uniforms[group]
}

func (p *pipeline) UniformProviders() []bind_group_provider.BindGroupProvider {
	groups := make([]int, 0, len(p.uniforms))
	for g := range p.uniforms {
		groups = append(groups, g)
	}
	sort.Ints(groups)
	providers := make([]bind_group_provider.BindGroupProvider, 0, len(groups))
	for _, g := range groups {
		providers = append(providers, p.uniforms[g])
	}
	return providers
}

func (p *pipeline) SetUniforms(provider bind_group_provider.BindGroupProvider) {
	p.uniforms[provider.Group()] = provider
}

func (p *pipeline) Pipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) Released() bool {
	return p.released
}

func (p *pipeline) Release() {
	if p.released {
		return
	}
	p.released = true
	for _, provider := range p.UniformProviders() {
		provider.Release()
	}
	p.uniforms = make(map[int]bind_group_provider.BindGroupProvider)
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
}

// mergeBindGroupLayouts combines the per-group bind group layout descriptors from the vertex
// and fragment shaders into one map. Entries with the same binding in the same group have
// their visibility OR'd together.
//
// Parameters:
//   - vertexLayouts: bind group layout descriptors from the vertex shader
//   - fragmentLayouts: bind group layout descriptors from the fragment shader
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors keyed by group index
func mergeBindGroupLayouts(vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor)

	groupIndices := make(map[int]bool)
	for g := range vertexLayouts {
		groupIndices[g] = true
	}
	for g := range fragmentLayouts {
		groupIndices[g] = true
	}

	for g := range groupIndices {
		vDesc, hasV := vertexLayouts[g]
		fDesc, hasF := fragmentLayouts[g]

		switch {
		case hasV && !hasF:
			merged[g] = vDesc
		case hasF && !hasV:
			merged[g] = fDesc
		default:
			entryMap := make(map[uint32]wgpu.BindGroupLayoutEntry)
			for _, e := range vDesc.Entries {
				entryMap[e.Binding] = e
			}
			for _, e := range fDesc.Entries {
				if existing, ok := entryMap[e.Binding]; ok {
					existing.Visibility |= e.Visibility
					if e.Buffer.MinBindingSize > existing.Buffer.MinBindingSize {
						existing.Buffer.MinBindingSize = e.Buffer.MinBindingSize
					}
					entryMap[e.Binding] = existing
				} else {
					entryMap[e.Binding] = e
				}
			}

			entries := make([]wgpu.BindGroupLayoutEntry, 0, len(entryMap))
			for _, e := range entryMap {
				entries = append(entries, e)
			}
			sort.Slice(entries, func(i, j int) bool {
				return entries[i].Binding < entries[j].Binding
			})

			merged[g] = wgpu.BindGroupLayoutDescriptor{
				Label:   vDesc.Label,
				Entries: entries,
			}
		}
	}

	return merged
}
