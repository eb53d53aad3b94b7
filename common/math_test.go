package common

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const eps = 1e-5

func TestIdentityConstructors(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix4
	}{
		{"translate zero", Translate(0, 0, 0)},
		{"scale one", Scale(1, 1, 1)},
		{"rotate x zero", RotateX(0)},
		{"rotate y zero", RotateY(0)},
		{"rotate z zero", RotateZ(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.m != Identity() {
				t.Errorf("got %v, want exact identity", tt.m)
			}
		})
	}
}

func TestRotationRoundTrip(t *testing.T) {
	angles := []float32{0.1, 0.5236, 1, math.Pi / 2, 2.5, -3}
	rotations := map[string]func(float32) Matrix4{
		"x": RotateX,
		"y": RotateY,
		"z": RotateZ,
	}
	for axis, rot := range rotations {
		for _, theta := range angles {
			got := Multiply(rot(theta), rot(-theta))
			if !got.ApproxEqual(Identity(), eps) {
				t.Errorf("rotate %s(%v)*rotate %s(%v) = %v, want identity", axis, theta, axis, -theta, got)
			}
		}
	}
}

func TestRotationComposesAngles(t *testing.T) {
	a, b := float32(0.3), float32(1.1)
	got := Multiply(RotateY(a), RotateY(b))
	want := RotateY(a + b)
	if !got.ApproxEqual(want, eps) {
		t.Errorf("RotateY(a)*RotateY(b) = %v, want %v", got, want)
	}
}

func TestMultiplyAssociative(t *testing.T) {
	a := RotateY(0.7)
	b := Scale(2, 0.5, -1)
	c := Multiply(Translate(1, -2, 3), RotateZ(1.3))

	left := Multiply(Multiply(a, b), c)
	right := Multiply(a, Multiply(b, c))
	if !left.ApproxEqual(right, 1e-4) {
		t.Errorf("(a*b)*c = %v, a*(b*c) = %v", left, right)
	}
}

func TestMultiplyNotCommutative(t *testing.T) {
	r := RotateZ(math.Pi / 4)
	s := Scale(2, 1, 1)
	if Multiply(r, s).ApproxEqual(Multiply(s, r), eps) {
		t.Error("rotation and non-uniform scale commuted")
	}
}

func TestMultiplyByIdentity(t *testing.T) {
	m := Multiply(RotateX(0.4), Translate(5, 6, 7))
	if got := Multiply(m, Identity()); got != m {
		t.Errorf("m*I = %v, want %v", got, m)
	}
	if got := Multiply(Identity(), m); got != m {
		t.Errorf("I*m = %v, want %v", got, m)
	}
}

func TestTranslateLayout(t *testing.T) {
	m := Translate(0.5, -1, 2)
	if m[12] != 0.5 || m[13] != -1 || m[14] != 2 || m[15] != 1 {
		t.Errorf("translation row = %v, want [0.5 -1 2 1]", m[12:])
	}
}

func TestRotateXHalfTurn(t *testing.T) {
	want := Matrix4{
		1, 0, 0, 0,
		0, -1, 0, 0,
		0, 0, -1, 0,
		0, 0, 0, 1,
	}
	if got := RotateX(math.Pi); !got.ApproxEqual(want, eps) {
		t.Errorf("RotateX(pi) = %v, want %v", got, want)
	}
}

func TestScaleZeroFlattens(t *testing.T) {
	m := Multiply(RotateY(0), Scale(0.9, 0.9, 0))
	if m[10] != 0 {
		t.Errorf("z scale element = %v, want 0", m[10])
	}
	if m[0] != 0.9 || m[5] != 0.9 {
		t.Errorf("x/y scale = %v/%v, want 0.9", m[0], m[5])
	}
}

func TestFrameTransformAtStart(t *testing.T) {
	// At t=0 the animated Y rotation vanishes and only the fixed X tilt remains.
	got := Multiply(RotateY(0), RotateX(math.Pi/6))
	if !got.ApproxEqual(RotateX(math.Pi/6), eps) {
		t.Errorf("got %v, want RotateX(pi/6)", got)
	}
}

func TestMatchesColumnMajorLayout(t *testing.T) {
	// Matrix4 stored row by row is byte-identical to a column-major matrix, so each constructor
	// must agree with mgl32, and Multiply(a, b) with mgl32's b*a.
	tests := []struct {
		name string
		got  Matrix4
		want mgl32.Mat4
	}{
		{"rotate x", RotateX(0.8), mgl32.HomogRotate3DX(0.8)},
		{"rotate y", RotateY(-1.2), mgl32.HomogRotate3DY(-1.2)},
		{"rotate z", RotateZ(2.1), mgl32.HomogRotate3DZ(2.1)},
		{"scale", Scale(0.9, 0.9, 0), mgl32.Scale3D(0.9, 0.9, 0)},
		{"translate", Translate(0.5, 0.5, 0), mgl32.Translate3D(0.5, 0.5, 0)},
		{
			"multiply",
			Multiply(RotateY(0.6), RotateX(math.Pi/6)),
			mgl32.HomogRotate3DX(math.Pi / 6).Mul4(mgl32.HomogRotate3DY(0.6)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !mgl32.Mat4(tt.got).ApproxEqualThreshold(tt.want, eps) {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestBytesLittleEndian(t *testing.T) {
	m := Translate(1.5, 0, 0)
	b := m.Bytes()
	if len(b) != 64 {
		t.Fatalf("len = %d, want 64", len(b))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(b[48:52])); got != 1.5 {
		t.Errorf("element 12 = %v, want 1.5", got)
	}
	b[0] = 0xff
	if m[0] != 1 {
		t.Error("Bytes shares memory with the matrix")
	}
}

func TestValueToBytes(t *testing.T) {
	b := ValueToBytes(float32(2.5))
	if len(b) != 4 {
		t.Fatalf("len = %d, want 4", len(b))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(b)); got != 2.5 {
		t.Errorf("got %v, want 2.5", got)
	}
}

func TestAlignUp(t *testing.T) {
	tests := []struct{ n, align, want uint64 }{
		{4, 16, 16},
		{16, 16, 16},
		{64, 16, 64},
		{65, 16, 80},
		{7, 0, 7},
	}
	for _, tt := range tests {
		if got := AlignUp(tt.n, tt.align); got != tt.want {
			t.Errorf("AlignUp(%d, %d) = %d, want %d", tt.n, tt.align, got, tt.want)
		}
	}
}

func TestKeyFromName(t *testing.T) {
	if code, ok := KeyFromName(" Escape "); !ok || code != KeyEsc {
		t.Errorf("KeyFromName(Escape) = %d, %v", code, ok)
	}
	if _, ok := KeyFromName("hyper"); ok {
		t.Error("unknown key resolved")
	}
}
