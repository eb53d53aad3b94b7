package bind_group_provider

import (
	"reflect"
	"testing"
)

func TestProviderBookkeeping(t *testing.T) {
	p := NewBindGroupProvider("uniforms", WithGroup(2))
	if p.Group() != 2 || p.Label() != "uniforms" {
		t.Fatalf("group/label = %d/%q", p.Group(), p.Label())
	}

	p.SetBuffer(1, nil, 16)
	p.SetBuffer(0, nil, 64)
	if got := p.Bindings(); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Errorf("Bindings() = %v, want [0 1]", got)
	}
	if p.BufferSize(0) != 64 || p.BufferSize(5) != 0 {
		t.Errorf("sizes = %d/%d", p.BufferSize(0), p.BufferSize(5))
	}

	p.Release()
	p.Release()
	if len(p.Bindings()) != 0 {
		t.Errorf("bindings after release = %v", p.Bindings())
	}
}

func TestBufferWriteCheck(t *testing.T) {
	p := NewBindGroupProvider("uniforms")
	p.SetBuffer(0, nil, 64)
	p.SetBuffer(1, nil, 16)

	tests := []struct {
		name    string
		write   BufferWrite
		wantErr bool
	}{
		{"matrix", BufferWrite{Provider: p, Binding: 0, Data: make([]byte, 64)}, false},
		{"scalar", BufferWrite{Provider: p, Binding: 1, Data: make([]byte, 4)}, false},
		{"overflow", BufferWrite{Provider: p, Binding: 1, Data: make([]byte, 64)}, true},
		{"offset overflow", BufferWrite{Provider: p, Binding: 1, Offset: 16, Data: make([]byte, 4)}, true},
		{"unaligned", BufferWrite{Provider: p, Binding: 0, Offset: 2, Data: make([]byte, 4)}, true},
		{"missing binding", BufferWrite{Provider: p, Binding: 7, Data: make([]byte, 4)}, true},
		{"no provider", BufferWrite{Binding: 0, Data: make([]byte, 4)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.write.Check()
			if (err != nil) != tt.wantErr {
				t.Errorf("Check() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
