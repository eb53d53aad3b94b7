package shader

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslVertexFormatMap maps WGSL type names to their wgpu vertex format and component count
var wgslVertexFormatMap = map[string]vertexFormatInfo{
	"f32":       {wgpu.VertexFormatFloat32, 1},
	"vec2f":     {wgpu.VertexFormatFloat32x2, 2},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 2},
	"vec3f":     {wgpu.VertexFormatFloat32x3, 3},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 3},
	"vec4f":     {wgpu.VertexFormatFloat32x4, 4},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 4},
	"i32":       {wgpu.VertexFormatSint32, 1},
	"vec2i":     {wgpu.VertexFormatSint32x2, 2},
	"vec2<i32>": {wgpu.VertexFormatSint32x2, 2},
	"vec3i":     {wgpu.VertexFormatSint32x3, 3},
	"vec3<i32>": {wgpu.VertexFormatSint32x3, 3},
	"vec4i":     {wgpu.VertexFormatSint32x4, 4},
	"vec4<i32>": {wgpu.VertexFormatSint32x4, 4},
	"u32":       {wgpu.VertexFormatUint32, 1},
	"vec2u":     {wgpu.VertexFormatUint32x2, 2},
	"vec2<u32>": {wgpu.VertexFormatUint32x2, 2},
	"vec3u":     {wgpu.VertexFormatUint32x3, 3},
	"vec3<u32>": {wgpu.VertexFormatUint32x3, 3},
	"vec4u":     {wgpu.VertexFormatUint32x4, 4},
	"vec4<u32>": {wgpu.VertexFormatUint32x4, 4},
}

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) attributes
	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex matches a struct field line: optional attributes, name, colon, type.
	fieldRegex = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(0) var<uniform> T: mat4x4<f32>;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseVertexInputs collects the @location fields of every pure vertex input struct
// (at least one @location, no @builtin) and returns them sorted by location.
//
// Parameters:
//   - source: the raw WGSL source code string
//
// Returns:
//   - []VertexInput: the inputs sorted by location
//   - error: if a field has a type that cannot be a vertex attribute or two fields share a location
func parseVertexInputs(source string) ([]VertexInput, error) {
	cleaned := stripComments(source)
	structs := parseStructBlocks(cleaned)

	seen := make(map[int]string)
	var inputs []VertexInput
	for _, ps := range structs {
		if !isVertexInputStruct(ps) {
			continue
		}
		for _, f := range ps.fields {
			if f.location < 0 {
				continue
			}
			info, ok := wgslVertexFormatMap[f.typeName]
			if !ok {
				return nil, fmt.Errorf("vertex input %s.%s: unsupported type %q", ps.name, f.name, f.typeName)
			}
			if other, dup := seen[f.location]; dup {
				return nil, fmt.Errorf("vertex inputs %s and %s.%s share @location(%d)", other, ps.name, f.name, f.location)
			}
			seen[f.location] = ps.name + "." + f.name
			inputs = append(inputs, VertexInput{
				Name:       f.name,
				Location:   f.location,
				Format:     info.format,
				Components: info.components,
			})
		}
	}

	sort.Slice(inputs, func(i, j int) bool {
		return inputs[i].Location < inputs[j].Location
	})
	return inputs, nil
}

// parseBindGroupLayouts extracts all @group(N) @binding(M) resource declarations from WGSL
// source and returns them as wgpu.BindGroupLayoutDescriptor values grouped by group index.
// Each descriptor's entries are sorted by binding index. The provided visibility flag is
// applied to all entries, corresponding to the shader stage that declared them.
//
// Parameters:
//   - source: the raw WGSL source code string
//   - visibility: the shader stage visibility flag to set on each entry
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: layout descriptors keyed by group index
//   - map[int]map[int]string: variable names keyed by group and binding index
//   - error: if a declaration is not a uniform or storage buffer
func parseBindGroupLayouts(source string, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string, error) {
	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	varNames := make(map[int]map[int]string)
	cleaned := stripComments(source)

	// Struct sizes feed MinBindingSize so the renderer can size uniform buffers from the shader alone.
	structSizes := computeStructSizes(parseStructBlocks(cleaned))

	for _, match := range bindGroupDeclRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		addressSpace := strings.TrimSpace(match[3])
		varName := strings.TrimSpace(match[4])
		typeName := strings.TrimSpace(match[5])

		entry, ok := classifyResource(uint32(binding), visibility, addressSpace)
		if !ok {
			return nil, nil, fmt.Errorf("binding %q (group %d, binding %d): only uniform and storage buffers are supported", varName, group, binding)
		}
		if layout, ok := resolveTypeLayout(typeName, structSizes); ok && layout.size > 0 {
			entry.Buffer.MinBindingSize = layout.size
		}

		groups[group] = append(groups[group], entry)
		if varNames[group] == nil {
			varNames[group] = make(map[int]string)
		}
		varNames[group][binding] = varName
	}

	result := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Binding < entries[j].Binding
		})
		result[g] = wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("Group %d Layout", g),
			Entries: entries,
		}
	}

	return result, varNames, nil
}

// parseEntryPoint extracts the entry point function name for the given shader type
// from WGSL source. Returns an empty string if no matching entry point annotation is found.
//
// Parameters:
//   - source: the raw WGSL source code string
//   - shaderType: the stage to search for
//
// Returns:
//   - string: the entry point function name, or empty string if not found
func parseEntryPoint(source string, shaderType ShaderType) string {
	cleaned := stripComments(source)

	var re *regexp.Regexp
	switch shaderType {
	case ShaderTypeVertex:
		re = vertexEntryRegex
	case ShaderTypeFragment:
		re = fragmentEntryRegex
	default:
		return ""
	}

	if match := re.FindStringSubmatch(cleaned); match != nil {
		return match[1]
	}
	return ""
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source
// and parses their fields including @location and @builtin attributes.
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))

	for _, match := range matches {
		structs = append(structs, parsedStruct{
			name:   match[1],
			fields: parseStructFields(match[2]),
		})
	}

	return structs
}

// parseStructFields parses the body of a struct block into individual fields.
func parseStructFields(body string) []parsedField {
	lines := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field := parsedField{
			isBuiltin: builtinRegex.MatchString(line),
			location:  -1,
		}
		if locMatch := locationRegex.FindStringSubmatch(line); locMatch != nil {
			if loc, err := strconv.Atoi(locMatch[1]); err == nil {
				field.location = loc
			}
		}

		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		field.name = fm[1]
		field.typeName = strings.TrimSpace(fm[2])

		fields = append(fields, field)
	}

	return fields
}
