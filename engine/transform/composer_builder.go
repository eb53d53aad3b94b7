package transform

// ComposerOption is a functional option used to configure a Composer during construction.
type ComposerOption func(*Composer)

// WithMatrixUniform sets the shader variable that receives the composed transform.
//
// Parameters:
//   - name: the WGSL variable name; empty keeps DefaultMatrixUniform
//
// Returns:
//   - ComposerOption: a function that sets the matrix uniform name
func WithMatrixUniform(name string) ComposerOption {
	return func(c *Composer) {
		if name != "" {
			c.matrixName = name
		}
	}
}

// WithTimeUniform sets the shader variable that receives the elapsed time in seconds.
//
// Parameters:
//   - name: the WGSL variable name; empty keeps DefaultTimeUniform
//
// Returns:
//   - ComposerOption: a function that sets the time uniform name
func WithTimeUniform(name string) ComposerOption {
	return func(c *Composer) {
		if name != "" {
			c.timeName = name
		}
	}
}
