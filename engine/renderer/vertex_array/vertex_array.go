package vertex_array

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-primer/common"
	"github.com/Carmen-Shannon/oxy-primer/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrReleased is returned when a buffer is created on a vertex array that has already been released.
	ErrReleased = errors.New("vertex array released")

	// ErrInvalidDimensions is returned when an attribute is not 1 to 4 float components wide.
	ErrInvalidDimensions = errors.New("attribute dimensions must be between 1 and 4")

	// ErrRaggedData is returned when a value slice is empty or not a whole number of vectors.
	ErrRaggedData = errors.New("attribute data is not a whole number of vectors")

	// ErrLocationInUse is returned when two vertex buffers are bound to the same location.
	ErrLocationInUse = errors.New("attribute location already bound")

	// ErrIndexBufferExists is returned when a second index buffer is created on the same vertex array.
	ErrIndexBufferExists = errors.New("index buffer already created")

	// ErrInvalidGeometry is returned by Validate for out-of-range or incomplete index data.
	ErrInvalidGeometry = errors.New("invalid geometry")
)

// Buffer is a handle to exactly one GPU buffer.
type Buffer interface {
	// Label returns the debug label the buffer was created with.
	Label() string

	// Size returns the allocated size in bytes.
	Size() uint64

	// Native returns the backend object (a *wgpu.Buffer for the WebGPU renderer).
	Native() any

	// Release frees the GPU memory. The vertex array calls it exactly once.
	Release()
}

// Allocator creates static GPU buffers initialised with data. The renderer backend implements it.
type Allocator interface {
	// AllocateBuffer creates a buffer with the given usage and uploads data into it.
	//
	// Parameters:
	//   - label: debug label for the GPU object
	//   - usage: buffer usage flags (vertex or index, plus copy destination)
	//   - data: the initial contents, which also fix the buffer size
	//
	// Returns:
	//   - Buffer: the created buffer
	//   - error: if the device could not create it
	AllocateBuffer(label string, usage wgpu.BufferUsage, data []byte) (Buffer, error)
}

// Binding records one vertex attribute: where the shader reads it and which buffer feeds it.
type Binding struct {
	// Location is the shader @location the attribute is bound to.
	Location int

	// Dimensions is the number of float32 components per vertex.
	Dimensions int

	// VertexCount is the number of vectors stored in the buffer.
	VertexCount int

	// Buffer holds the tightly packed float32 data.
	Buffer Buffer
}

// Format returns the vertex format matching the binding's dimensions.
func (b Binding) Format() wgpu.VertexFormat {
	return floatFormat(b.Dimensions)
}

// VertexArray is the set of attribute bindings and the index buffer a draw call references.
// Buffers created through it are owned by it and released together by Release.
type VertexArray interface {
	// Label returns the debug label of the vertex array.
	//
	// Returns:
	//   - string: the label
	Label() string

	// CreateVertexBuffer uploads values to a new static vertex buffer and binds it at location
	// as dimensions-component float32 vectors, tightly packed from offset zero.
	//
	// Parameters:
	//   - location: the shader @location to bind to
	//   - dimensions: components per vertex, 1 to 4
	//   - values: the flattened vectors
	//
	// Returns:
	//   - Buffer: the created buffer
	//   - error: ErrInvalidDimensions, ErrRaggedData, ErrLocationInUse, ErrReleased or an allocation error
	CreateVertexBuffer(location, dimensions int, values []float32) (Buffer, error)

	// CreateIndexBuffer uploads indices to a new static index buffer and makes it the index buffer of this vertex array.
	//
	// Parameters:
	//   - indices: the triangle list indices
	//
	// Returns:
	//   - Buffer: the created buffer
	//   - error: ErrRaggedData for an empty list, ErrIndexBufferExists, ErrReleased or an allocation error
	CreateIndexBuffer(indices []uint32) (Buffer, error)

	// Bindings returns the attribute bindings sorted by location.
	//
	// Returns:
	//   - []Binding: the bindings
	Bindings() []Binding

	// IndexBuffer returns the index buffer, or nil before CreateIndexBuffer.
	//
	// Returns:
	//   - Buffer: the index buffer
	IndexBuffer() Buffer

	// IndexCount returns the number of indices a full draw covers.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// VertexCount returns the number of vertices every binding agrees on, or the smallest count if they disagree.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// BufferLayouts describes the bindings as one vertex buffer slot each, slot i holding the i-th binding by location.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the layouts in slot order
	BufferLayouts() []wgpu.VertexBufferLayout

	// CheckShaderInputs verifies that every vertex input of a shader has a binding of matching width.
	//
	// Parameters:
	//   - inputs: the shader's vertex inputs
	//
	// Returns:
	//   - error: describing the first missing or mismatched location
	CheckShaderInputs(inputs []shader.VertexInput) error

	// Validate checks the geometry invariants: an index buffer exists, its length is a multiple of 3,
	// every index is below the vertex count, and all bindings hold the same number of vertices.
	//
	// Returns:
	//   - error: wrapping ErrInvalidGeometry when an invariant fails
	Validate() error

	// Release releases every buffer in reverse creation order. Later calls do nothing.
	Release()
}

type vertexArray struct {
	mu        sync.Mutex
	label     string
	allocator Allocator

	bindings    map[int]Binding
	indexBuffer Buffer
	indexCount  int
	maxIndex    uint32

	// created keeps every buffer in creation order for Release.
	created  []Buffer
	released bool
}

var _ VertexArray = &vertexArray{}

// NewVertexArray creates an empty vertex array whose buffers are allocated through allocator.
//
// Parameters:
//   - label: debug label used as the prefix of buffer labels
//   - allocator: the GPU buffer allocator
//
// Returns:
//   - VertexArray: the empty vertex array
func NewVertexArray(label string, allocator Allocator) VertexArray {
	return &vertexArray{
		label:     label,
		allocator: allocator,
		bindings:  make(map[int]Binding),
	}
}

func (va *vertexArray) Label() string {
	return va.label
}

func (va *vertexArray) CreateVertexBuffer(location, dimensions int, values []float32) (Buffer, error) {
	va.mu.Lock()
	defer va.mu.Unlock()

	if va.released {
		return nil, ErrReleased
	}
	if dimensions < 1 || dimensions > 4 {
		return nil, fmt.Errorf("%s location %d: %w (got %d)", va.label, location, ErrInvalidDimensions, dimensions)
	}
	if len(values) == 0 || len(values)%dimensions != 0 {
		return nil, fmt.Errorf("%s location %d: %w (%d values, %d per vertex)", va.label, location, ErrRaggedData, len(values), dimensions)
	}
	if _, ok := va.bindings[location]; ok {
		return nil, fmt.Errorf("%s location %d: %w", va.label, location, ErrLocationInUse)
	}

	label := fmt.Sprintf("%s Vertex Buffer %d", va.label, location)
	buf, err := va.allocator.AllocateBuffer(label, wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst, common.SliceToBytes(values))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}

	va.bindings[location] = Binding{
		Location:    location,
		Dimensions:  dimensions,
		VertexCount: len(values) / dimensions,
		Buffer:      buf,
	}
	va.created = append(va.created, buf)
	return buf, nil
}

func (va *vertexArray) CreateIndexBuffer(indices []uint32) (Buffer, error) {
	va.mu.Lock()
	defer va.mu.Unlock()

	if va.released {
		return nil, ErrReleased
	}
	if va.indexBuffer != nil {
		return nil, fmt.Errorf("%s: %w", va.label, ErrIndexBufferExists)
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("%s index buffer: %w (no indices)", va.label, ErrRaggedData)
	}

	label := va.label + " Index Buffer"
	data := common.SliceToBytes(indices)
	// Queue writes must be a multiple of 4 bytes; uint32 indices always are.
	buf, err := va.allocator.AllocateBuffer(label, wgpu.BufferUsageIndex|wgpu.BufferUsageCopyDst, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}

	var maxIndex uint32
	for _, idx := range indices {
		maxIndex = max(maxIndex, idx)
	}
	va.indexBuffer = buf
	va.indexCount = len(indices)
	va.maxIndex = maxIndex
	va.created = append(va.created, buf)
	return buf, nil
}

func (va *vertexArray) Bindings() []Binding {
	va.mu.Lock()
	defer va.mu.Unlock()
	return va.sortedBindings()
}

func (va *vertexArray) sortedBindings() []Binding {
	out := make([]Binding, 0, len(va.bindings))
	for _, b := range va.bindings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Location < out[j].Location
	})
	return out
}

func (va *vertexArray) IndexBuffer() Buffer {
	va.mu.Lock()
	defer va.mu.Unlock()
	return va.indexBuffer
}

func (va *vertexArray) IndexCount() int {
	va.mu.Lock()
	defer va.mu.Unlock()
	return va.indexCount
}

func (va *vertexArray) VertexCount() int {
	va.mu.Lock()
	defer va.mu.Unlock()
	return va.vertexCount()
}

func (va *vertexArray) vertexCount() int {
	count := -1
	for _, b := range va.bindings {
		if count < 0 || b.VertexCount < count {
			count = b.VertexCount
		}
	}
	return max(count, 0)
}

func (va *vertexArray) BufferLayouts() []wgpu.VertexBufferLayout {
	va.mu.Lock()
	defer va.mu.Unlock()

	bindings := va.sortedBindings()
	layouts := make([]wgpu.VertexBufferLayout, 0, len(bindings))
	for _, b := range bindings {
		layouts = append(layouts, wgpu.VertexBufferLayout{
			ArrayStride: uint64(b.Dimensions) * 4,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{
				{
					Format:         b.Format(),
					Offset:         0,
					ShaderLocation: uint32(b.Location),
				},
			},
		})
	}
	return layouts
}

func (va *vertexArray) CheckShaderInputs(inputs []shader.VertexInput) error {
	va.mu.Lock()
	defer va.mu.Unlock()

	for _, in := range inputs {
		b, ok := va.bindings[in.Location]
		if !ok {
			return fmt.Errorf("%s: shader input %q at location %d has no vertex buffer", va.label, in.Name, in.Location)
		}
		if in.Format != b.Format() {
			return fmt.Errorf("%s: shader input %q at location %d expects %d components, buffer holds %d", va.label, in.Name, in.Location, in.Components, b.Dimensions)
		}
	}
	return nil
}

func (va *vertexArray) Validate() error {
	va.mu.Lock()
	defer va.mu.Unlock()

	if va.indexBuffer == nil {
		return fmt.Errorf("%s: %w: no index buffer", va.label, ErrInvalidGeometry)
	}
	if va.indexCount%3 != 0 {
		return fmt.Errorf("%s: %w: %d indices is not a whole number of triangles", va.label, ErrInvalidGeometry, va.indexCount)
	}
	if len(va.bindings) == 0 {
		return fmt.Errorf("%s: %w: no vertex buffers", va.label, ErrInvalidGeometry)
	}
	vertices := va.vertexCount()
	for _, b := range va.bindings {
		if b.VertexCount != vertices {
			return fmt.Errorf("%s: %w: location %d holds %d vertices, expected %d", va.label, ErrInvalidGeometry, b.Location, b.VertexCount, vertices)
		}
	}
	if int(va.maxIndex) >= vertices {
		return fmt.Errorf("%s: %w: index %d out of range for %d vertices", va.label, ErrInvalidGeometry, va.maxIndex, vertices)
	}
	return nil
}

func (va *vertexArray) Release() {
	va.mu.Lock()
	defer va.mu.Unlock()

	if va.released {
		return
	}
	va.released = true
	for i := len(va.created) - 1; i >= 0; i-- {
		va.created[i].Release()
	}
	va.created = nil
	va.bindings = make(map[int]Binding)
	va.indexBuffer = nil
	va.indexCount = 0
}

func floatFormat(dimensions int) wgpu.VertexFormat {
	switch dimensions {
	case 1:
		return wgpu.VertexFormatFloat32
	case 2:
		return wgpu.VertexFormatFloat32x2
	case 3:
		return wgpu.VertexFormatFloat32x3
	case 4:
		return wgpu.VertexFormatFloat32x4
	default:
		return wgpu.VertexFormat(0)
	}
}
