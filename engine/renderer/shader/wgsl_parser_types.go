package shader

import "github.com/cogentcore/webgpu/wgpu"

// VertexInput describes one @location input of a vertex entry point.
type VertexInput struct {
	// Name is the struct field name in the WGSL source.
	Name string

	// Location is the @location index the attribute is read from.
	Location int

	// Format is the vertex format matching the WGSL type.
	Format wgpu.VertexFormat

	// Components is the number of scalar components (1 for f32, 3 for vec3f).
	Components int
}

// vertexFormatInfo holds the wgpu vertex format and its component count for a WGSL type
type vertexFormatInfo struct {
	format     wgpu.VertexFormat
	components int
}

// wgslTypeLayout holds the byte size and alignment of a WGSL type.
// Used to compute MinBindingSize for buffer bindings.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// parsedField represents a single field extracted from a WGSL struct during parsing
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// parsedStruct represents a WGSL struct block extracted during parsing
type parsedStruct struct {
	name   string
	fields []parsedField
}
