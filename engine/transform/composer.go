package transform

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/Carmen-Shannon/oxy-primer/common"
)

const (
	// DefaultMatrixUniform is the shader variable receiving the composed transform.
	DefaultMatrixUniform = "T"

	// DefaultTimeUniform is the shader variable receiving the elapsed time.
	DefaultTimeUniform = "time"
)

// UniformTarget resolves shader variable names and accepts uniform uploads.
type UniformTarget interface {
	// UniformLocation returns the location of the named uniform, or -1 if the program has none.
	UniformLocation(name string) int

	// WriteUniform uploads data to the uniform at location.
	WriteUniform(location int, data []byte) error
}

// Composer composes a Chain each frame and uploads it, with the elapsed time, to a UniformTarget.
type Composer struct {
	chain       Chain
	matrixName  string
	timeName    string
	missing     map[string]bool
	lastMatrix  common.Matrix4
	frameUpload int
}

// NewComposer creates a Composer for chain.
//
// Parameters:
//   - chain: the transform chain to compose each frame
//   - options: variadic list of ComposerOption functions to configure the uniform names
//
// Returns:
//   - *Composer: the composer
func NewComposer(chain Chain, options ...ComposerOption) *Composer {
	c := &Composer{
		chain:      chain,
		matrixName: DefaultMatrixUniform,
		timeName:   DefaultTimeUniform,
		missing:    make(map[string]bool),
		lastMatrix: common.Identity(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Apply composes the chain at time t and uploads the matrix (64 bytes) and the time (one float32).
// A uniform the target cannot locate is reported once per name and skipped. A failed upload
// does not stop the other one.
//
// Parameters:
//   - target: the program receiving the uniforms
//   - t: elapsed time in seconds
//
// Returns:
//   - common.Matrix4: the composed matrix
//   - error: the joined upload errors, nil if every located uniform was written
func (c *Composer) Apply(target UniformTarget, t float32) (common.Matrix4, error) {
	m := c.chain.Compose(t)
	c.lastMatrix = m
	c.frameUpload = 0

	var errs []error
	if loc := c.locate(target, c.matrixName); loc >= 0 {
		if err := target.WriteUniform(loc, m.Bytes()); err != nil {
			errs = append(errs, fmt.Errorf("upload %s: %w", c.matrixName, err))
		} else {
			c.frameUpload++
		}
	}
	if loc := c.locate(target, c.timeName); loc >= 0 {
		if err := target.WriteUniform(loc, common.ValueToBytes(t)); err != nil {
			errs = append(errs, fmt.Errorf("upload %s: %w", c.timeName, err))
		} else {
			c.frameUpload++
		}
	}
	return m, errors.Join(errs...)
}

func (c *Composer) locate(target UniformTarget, name string) int {
	loc := target.UniformLocation(name)
	if loc < 0 && !c.missing[name] {
		c.missing[name] = true
		log.Printf("[Transform] unable to locate variable '%s' in shader", name)
	}
	return loc
}

// Chain returns the chain being composed.
func (c *Composer) Chain() Chain {
	return c.chain
}

// LastMatrix returns the matrix composed by the most recent Apply.
func (c *Composer) LastMatrix() common.Matrix4 {
	return c.lastMatrix
}

// Uploads returns how many uniforms the most recent Apply wrote.
func (c *Composer) Uploads() int {
	return c.frameUpload
}

// Missing returns the uniform names that could not be located so far, sorted.
func (c *Composer) Missing() []string {
	names := make([]string, 0, len(c.missing))
	for name := range c.missing {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
