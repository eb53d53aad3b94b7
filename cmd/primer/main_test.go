package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunConfigErrors(t *testing.T) {
	dir := t.TempDir()
	badScene := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(badScene, []byte("mesh:\n  kind: torus\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "unknown mesh flag", args: []string{"-mesh", "torus"}, want: exitConfig},
		{name: "missing config file", args: []string{"-config", filepath.Join(dir, "missing.yaml")}, want: exitConfig},
		{name: "invalid config file", args: []string{"-config", badScene}, want: exitConfig},
		{name: "unknown flag", args: []string{"-fullscreen"}, want: exitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(tt.args); got != tt.want {
				t.Errorf("run(%q) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}
