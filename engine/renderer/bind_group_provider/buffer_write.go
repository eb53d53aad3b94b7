package bind_group_provider

import "fmt"

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// Check reports whether the write fits inside the target buffer and keeps the 4-byte
// size and offset alignment queue writes require.
//
// Returns:
//   - error: nil if the write can be submitted
func (w BufferWrite) Check() error {
	if w.Provider == nil {
		return fmt.Errorf("buffer write to binding %d: no provider", w.Binding)
	}
	size := w.Provider.BufferSize(w.Binding)
	if size == 0 {
		return fmt.Errorf("%s: no buffer at binding %d", w.Provider.Label(), w.Binding)
	}
	if w.Offset%4 != 0 || len(w.Data)%4 != 0 {
		return fmt.Errorf("%s: binding %d write of %d bytes at offset %d is not 4-byte aligned", w.Provider.Label(), w.Binding, len(w.Data), w.Offset)
	}
	if w.Offset+uint64(len(w.Data)) > size {
		return fmt.Errorf("%s: binding %d write of %d bytes at offset %d overflows %d byte buffer", w.Provider.Label(), w.Binding, len(w.Data), w.Offset, size)
	}
	return nil
}
