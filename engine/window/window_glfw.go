package window

import (
	"fmt"
	"log"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow holds the GLFW-specific window state.
type glfwWindow struct {
	parent *engineWindow
	window *glfw.Window
}

// newPlatformWindow creates the GLFW window and stores it as the internal window.
// The calling goroutine stays locked to its OS thread, as GLFW requires.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
// go-gl/glfw: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw
func newPlatformWindow(w *engineWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	if monitor := glfw.GetPrimaryMonitor(); monitor != nil {
		if mode := monitor.GetVideoMode(); mode != nil {
			w.desktopWidth, w.desktopHeight = mode.Width, mode.Height
		}
	}
	log.Printf("[Window] desktop size is %dx%d", w.desktopWidth, w.desktopHeight)
	width, height := resolveSize(w.width, w.height, w.desktopWidth, w.desktopHeight)

	// WebGPU provides its own graphics API, so disable OpenGL context creation.
	// Reference: https://www.glfw.org/docs/latest/window_guide.html#window_hints_ctx
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	if w.resizable {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Resizable, glfw.False)
	}

	win, err := glfw.CreateWindow(width, height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %w", err)
	}

	gw := &glfwWindow{
		parent: w,
		window: win,
	}
	w.internalWindow = gw

	// Use framebuffer size callback for pixel-accurate resize events.
	// On high-DPI displays (e.g., macOS Retina), framebuffer size differs from window size.
	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetFramebufferSizeCallback
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width = width
		w.height = height
	})

	fbWidth, fbHeight := win.GetFramebufferSize()
	w.width = fbWidth
	w.height = fbHeight

	// Elapsed time is measured from window creation.
	glfw.SetTime(0)
	return nil
}

func platformWindow(w *engineWindow) *glfw.Window {
	gw, ok := w.internalWindow.(*glfwWindow)
	if !ok || gw == nil {
		return nil
	}
	return gw.window
}

// platformGetSurfaceDescriptor creates a platform-appropriate wgpu.SurfaceDescriptor from the GLFW window.
// Uses the wgpuglfw bridge package which has per-platform implementations (Windows, X11, Wayland, macOS).
//
// Reference: https://pkg.go.dev/github.com/cogentcore/webgpu/wgpuglfw#GetSurfaceDescriptor
func platformGetSurfaceDescriptor(w *engineWindow) *wgpu.SurfaceDescriptor {
	win := platformWindow(w)
	if win == nil {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(win)
}

// platformShouldClose reports true for a missing window so a loop over a closed window stops.
func platformShouldClose(w *engineWindow) bool {
	win := platformWindow(w)
	if win == nil {
		return true
	}
	return win.ShouldClose()
}

func platformSetShouldClose(w *engineWindow, value bool) {
	if win := platformWindow(w); win != nil {
		win.SetShouldClose(value)
	}
}

// platformPollEvents polls GLFW for pending events without blocking.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#PollEvents
func platformPollEvents(w *engineWindow) {
	if platformWindow(w) == nil {
		return
	}
	glfw.PollEvents()
}

func platformTime(w *engineWindow) float64 {
	if platformWindow(w) == nil {
		return 0
	}
	return glfw.GetTime()
}

// platformKeyPressed maps the key code straight onto glfw.Key; the common key codes share GLFW's values.
func platformKeyPressed(w *engineWindow, key int) bool {
	win := platformWindow(w)
	if win == nil {
		return false
	}
	return win.GetKey(glfw.Key(key)) == glfw.Press
}

// platformCloseWindow destroys the GLFW window and terminates the GLFW library.
// Returns an error if the internal window has not been initialized.
//
// Parameters:
//   - w: the engineWindow to close
//
// Returns:
//   - error: error if the window is not initialized
func platformCloseWindow(w *engineWindow) error {
	win := platformWindow(w)
	if win == nil {
		return fmt.Errorf("window is not initialized")
	}
	win.SetShouldClose(true)
	win.Destroy()
	glfw.Terminate()
	w.internalWindow = nil
	log.Printf("[Window] window destroyed")
	return nil
}
