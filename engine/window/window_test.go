package window

import "testing"

func TestResolveSize(t *testing.T) {
	tests := []struct {
		name                  string
		width, height         int
		desktopW, desktopH    int
		wantWidth, wantHeight int
	}{
		{"configured", 800, 600, 1920, 1080, 800, 600},
		{"unset", 0, 0, 1920, 1080, 540, 540},
		{"half unset", 800, 0, 2560, 1440, 720, 720},
		{"no monitor height", 0, 0, 1024, 0, 512, 512},
		{"no monitor", 0, 0, 0, 0, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := resolveSize(tt.width, tt.height, tt.desktopW, tt.desktopH)
			if w != tt.wantWidth || h != tt.wantHeight {
				t.Errorf("resolveSize() = %dx%d, want %dx%d", w, h, tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestOptions(t *testing.T) {
	w := newEngineWindow()
	if w.title != DefaultTitle || !w.resizable {
		t.Errorf("defaults = %q resizable=%v", w.title, w.resizable)
	}

	w = newEngineWindow(WithTitle("cube"), WithSize(640, 480), WithResizable(false))
	if w.title != "cube" || w.width != 640 || w.height != 480 || w.resizable {
		t.Errorf("options not applied: %+v", w)
	}
	if newEngineWindow(WithTitle("")).title != DefaultTitle {
		t.Error("empty title replaced the default")
	}
}

func TestUninitializedWindow(t *testing.T) {
	w := newEngineWindow()
	if !w.ShouldClose() {
		t.Error("uninitialized window does not report ShouldClose")
	}
	if w.KeyPressed(256) || w.Time() != 0 || w.SurfaceDescriptor() != nil {
		t.Error("uninitialized window reports platform state")
	}
	w.PollEvents()
	w.SetShouldClose(true)
	if err := w.Close(); err == nil {
		t.Error("closing an uninitialized window succeeded")
	}
}
