package transform

import (
	"fmt"
	"log"
	"math"

	"github.com/Carmen-Shannon/oxy-primer/common"
)

// Op names an elementary transform.
type Op string

const (
	OpRotateX   Op = "rotate_x"
	OpRotateY   Op = "rotate_y"
	OpRotateZ   Op = "rotate_z"
	OpScale     Op = "scale"
	OpTranslate Op = "translate"
)

// Step is one elementary transform of a Chain.
// Rotations use Angle + Rate*t radians at time t; scale and translate use X, Y and Z.
type Step struct {
	Op    Op      `yaml:"op"`
	Angle float32 `yaml:"angle,omitempty"`
	Rate  float32 `yaml:"rate,omitempty"`
	X     float32 `yaml:"x,omitempty"`
	Y     float32 `yaml:"y,omitempty"`
	Z     float32 `yaml:"z,omitempty"`
}

// Validate reports whether the step names a known operation.
func (s Step) Validate() error {
	switch s.Op {
	case OpRotateX, OpRotateY, OpRotateZ, OpScale, OpTranslate:
		return nil
	default:
		return fmt.Errorf("unknown transform op %q", s.Op)
	}
}

// Matrix returns the step's matrix at time t. An unknown op yields the identity.
func (s Step) Matrix(t float32) common.Matrix4 {
	switch s.Op {
	case OpRotateX:
		return common.RotateX(s.Angle + s.Rate*t)
	case OpRotateY:
		return common.RotateY(s.Angle + s.Rate*t)
	case OpRotateZ:
		return common.RotateZ(s.Angle + s.Rate*t)
	case OpScale:
		return common.Scale(s.X, s.Y, s.Z)
	case OpTranslate:
		return common.Translate(s.X, s.Y, s.Z)
	default:
		return common.Identity()
	}
}

// Chain is an ordered list of steps composed left to right.
type Chain []Step

// DefaultChain spins about y at one radian per second after tilting pi/6 about x.
func DefaultChain() Chain {
	return Chain{
		{Op: OpRotateY, Rate: 1},
		{Op: OpRotateX, Angle: math.Pi / 6},
	}
}

// NewChain validates steps and returns them as a Chain. A scale step with a zero
// component is kept as given and logged, since it flattens the mesh.
//
// Parameters:
//   - steps: the steps in composition order
//
// Returns:
//   - Chain: the validated chain
//   - error: an error naming the first invalid step
func NewChain(steps ...Step) (Chain, error) {
	for i, s := range steps {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		if s.Op == OpScale && (s.X == 0 || s.Y == 0 || s.Z == 0) {
			log.Printf("[Transform] step %d scales by (%g, %g, %g); a zero factor flattens the mesh", i, s.X, s.Y, s.Z)
		}
	}
	return Chain(steps), nil
}

// Compose multiplies the step matrices at time t in order. An empty chain is the identity.
//
// Parameters:
//   - t: elapsed time in seconds
//
// Returns:
//   - common.Matrix4: S0(t) * S1(t) * ... * Sn(t)
func (c Chain) Compose(t float32) common.Matrix4 {
	m := common.Identity()
	for _, s := range c {
		m = common.Multiply(m, s.Matrix(t))
	}
	return m
}
