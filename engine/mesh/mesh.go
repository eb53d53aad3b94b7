package mesh

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidGeometry is wrapped by every Validate failure.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Geometry is an indexed triangle list with one position and one color per vertex.
// Positions and Colors are tightly packed xyz triples; Indices reference vertices three at a time.
type Geometry struct {
	Positions []float32
	Colors    []float32
	Indices   []uint32
}

// VertexCount returns the number of vertices described by Positions.
func (g Geometry) VertexCount() int {
	return len(g.Positions) / 3
}

// TriangleCount returns the number of triangles described by Indices.
func (g Geometry) TriangleCount() int {
	return len(g.Indices) / 3
}

// Validate reports whether the geometry can be uploaded and drawn as a triangle list.
//
// Returns:
//   - error: wraps ErrInvalidGeometry describing the first problem found
func (g Geometry) Validate() error {
	switch {
	case len(g.Positions) == 0:
		return fmt.Errorf("%w: no positions", ErrInvalidGeometry)
	case len(g.Positions)%3 != 0:
		return fmt.Errorf("%w: %d position components is not a multiple of 3", ErrInvalidGeometry, len(g.Positions))
	case len(g.Colors) != len(g.Positions):
		return fmt.Errorf("%w: %d color components for %d position components", ErrInvalidGeometry, len(g.Colors), len(g.Positions))
	case len(g.Indices) == 0 || len(g.Indices)%3 != 0:
		return fmt.Errorf("%w: %d indices is not a whole number of triangles", ErrInvalidGeometry, len(g.Indices))
	}
	vertices := uint32(g.VertexCount())
	for i, idx := range g.Indices {
		if idx >= vertices {
			return fmt.Errorf("%w: index %d at position %d exceeds %d vertices", ErrInvalidGeometry, idx, i, vertices)
		}
	}
	return nil
}

// Kinds lists the names accepted by Named.
var Kinds = []string{"cube", "triangle", "sphere"}

// Named builds the geometry registered under kind. radius and segments only apply to the sphere.
//
// Parameters:
//   - kind: one of Kinds, case-insensitive
//   - radius: sphere radius
//   - segments: sphere segments around the equator
//
// Returns:
//   - Geometry: the generated geometry
//   - error: an error for an unknown kind or invalid sphere parameters
func Named(kind string, radius float32, segments int) (Geometry, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "cube":
		return Cube(), nil
	case "triangle":
		return Triangle(), nil
	case "sphere":
		return Sphere(radius, segments)
	default:
		return Geometry{}, fmt.Errorf("unknown mesh %q, want one of %s", kind, strings.Join(Kinds, ", "))
	}
}

// Triangle returns a single triangle spanning the lower edge and top center of clip space.
func Triangle() Geometry {
	return Geometry{
		Positions: []float32{
			-1, -1, 0,
			1, -1, 0,
			0, 1, 0,
		},
		Colors: []float32{
			1, 0, 0,
			0, 1, 0,
			0, 0, 1,
		},
		Indices: []uint32{0, 1, 2},
	}
}

// cubeCorners are the eight corners of the cube, each emitted three times so every face
// touching a corner gets its own vertex.
var cubeCorners = [8][3]float32{
	{-1, -1, -1},
	{-1, -1, 1},
	{-1, 1, 1},
	{-1, 1, -1},
	{1, -1, -1},
	{1, -1, 1},
	{1, 1, 1},
	{1, 1, -1},
}

// cubeIndices winds all twelve triangles counter-clockwise seen from outside.
var cubeIndices = []uint32{
	// x = -1
	0, 3, 9, 3, 6, 9,
	// z = +1
	4, 17, 7, 17, 20, 7,
	// x = +1
	15, 21, 18, 15, 13, 21,
	// z = -1
	12, 10, 23, 12, 1, 10,
	// y = +1
	8, 22, 11, 8, 19, 22,
	// y = -1
	2, 16, 5, 2, 14, 16,
}

// Cube returns the 24-vertex cube spanning [-1, 1] on every axis, colored by position.
func Cube() Geometry {
	positions := make([]float32, 0, 24*3)
	for _, c := range cubeCorners {
		for range 3 {
			positions = append(positions, c[0], c[1], c[2])
		}
	}
	colors := make([]float32, len(positions))
	copy(colors, positions)
	indices := make([]uint32, len(cubeIndices))
	copy(indices, cubeIndices)
	return Geometry{Positions: positions, Colors: colors, Indices: indices}
}
