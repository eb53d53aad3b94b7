package common

import (
	"math"
	"unsafe"
)

// Matrix4 is a 4x4 single-precision matrix stored row by row: element [i*4+j] holds row i, column j.
// Translation lives in the last row (elements 12, 13, 14), so the flat array is byte-identical to the
// column-major mat4x4<f32> layout WGSL reads from a uniform buffer and can be uploaded without a transpose.
type Matrix4 [16]float32

// Identity returns the 4x4 identity matrix.
func Identity() Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// RotateX returns a rotation of theta radians about the X axis.
//
// Parameters:
//   - theta: rotation angle in radians (any finite value)
//
// Returns:
//   - Matrix4: the rotation matrix
func RotateX(theta float32) Matrix4 {
	s, c := sincos(theta)
	return Matrix4{
		1, 0, 0, 0,
		0, c, s, 0,
		0, -s, c, 0,
		0, 0, 0, 1,
	}
}

// RotateY returns a rotation of theta radians about the Y axis.
//
// Parameters:
//   - theta: rotation angle in radians (any finite value)
//
// Returns:
//   - Matrix4: the rotation matrix
func RotateY(theta float32) Matrix4 {
	s, c := sincos(theta)
	return Matrix4{
		c, 0, -s, 0,
		0, 1, 0, 0,
		s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// RotateZ returns a rotation of theta radians about the Z axis.
//
// Parameters:
//   - theta: rotation angle in radians (any finite value)
//
// Returns:
//   - Matrix4: the rotation matrix
func RotateZ(theta float32) Matrix4 {
	s, c := sincos(theta)
	return Matrix4{
		c, s, 0, 0,
		-s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Scale returns a non-uniform scale matrix with diagonal (sx, sy, sz, 1).
// Zero and negative factors are accepted as given; a zero factor flattens the mesh along that axis.
//
// Parameters:
//   - sx: scale factor along X
//   - sy: scale factor along Y
//   - sz: scale factor along Z
//
// Returns:
//   - Matrix4: the scale matrix
func Scale(sx, sy, sz float32) Matrix4 {
	return Matrix4{
		sx, 0, 0, 0,
		0, sy, 0, 0,
		0, 0, sz, 0,
		0, 0, 0, 1,
	}
}

// Translate returns a translation by (x, y, z).
//
// Parameters:
//   - x: offset along X
//   - y: offset along Y
//   - z: offset along Z
//
// Returns:
//   - Matrix4: identity with the offset in elements 12, 13 and 14
func Translate(x, y, z float32) Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		x, y, z, 1,
	}
}

// Multiply returns the matrix product a*b in the row-by-row layout of Matrix4:
// result[i*4+j] = sum over k of a[i*4+k] * b[k*4+j].
// The product is associative up to floating-point rounding and not commutative.
//
// Parameters:
//   - a: left-hand matrix
//   - b: right-hand matrix
//
// Returns:
//   - Matrix4: the product
func Multiply(a, b Matrix4) Matrix4 {
	var out Matrix4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[i*4+k] * b[k*4+j]
			}
			out[i*4+j] = sum
		}
	}
	return out
}

// ApproxEqual reports whether every element of m is within eps of the matching element of other.
func (m Matrix4) ApproxEqual(other Matrix4, eps float32) bool {
	for i := range m {
		d := m[i] - other[i]
		if d < 0 {
			d = -d
		}
		if d > eps {
			return false
		}
	}
	return true
}

// Bytes returns a copy of the matrix as 64 little-endian bytes ready for a uniform upload.
func (m Matrix4) Bytes() []byte {
	out := make([]byte, 64)
	copy(out, SliceToBytes(m[:]))
	return out
}

func sincos(theta float32) (float32, float32) {
	s, c := math.Sincos(float64(theta))
	return float32(s), float32(c)
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}

// ValueToBytes copies a single fixed-size value (float32, uint32, small structs) into a new byte slice.
//
// Parameters:
//   - v: the value to copy
//
// Returns:
//   - []byte: a byte slice owning a copy of the value's memory
func ValueToBytes[T any](v T) []byte {
	size := unsafe.Sizeof(v)
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(&v)), int(size)))
	return out
}
