package window

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// DefaultTitle is the title used when none is configured.
const DefaultTitle = "GLprimer"

// Window defines the interface for a platform window that owns the presentation surface,
// the input state and the frame timer.
type Window interface {
	// ShouldClose reports whether the user or the program requested the window to close.
	//
	// Returns:
	//   - bool: true once a close has been requested
	ShouldClose() bool

	// SetShouldClose sets or clears the close request flag.
	//
	// Parameters:
	//   - value: true to request the render loop to stop
	SetShouldClose(value bool)

	// PollEvents processes pending window and input events without blocking.
	PollEvents()

	// Size returns the current framebuffer size in pixels.
	//
	// Returns:
	//   - width: the framebuffer width
	//   - height: the framebuffer height
	Size() (width, height int)

	// Time returns the seconds elapsed since the window was created.
	//
	// Returns:
	//   - float64: elapsed seconds
	Time() float64

	// KeyPressed reports whether the key is currently held down.
	//
	// Parameters:
	//   - key: a key code from the common package (e.g. common.KeyEsc)
	//
	// Returns:
	//   - bool: true if the key is pressed
	KeyPressed(key int) bool

	// SurfaceDescriptor returns the platform surface descriptor used to create a WebGPU surface.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil if the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// DesktopSize returns the video mode size of the primary monitor.
	//
	// Returns:
	//   - width: the desktop width in pixels
	//   - height: the desktop height in pixels
	DesktopSize() (width, height int)

	// Close destroys the window and shuts the windowing library down. Subsequent calls are no-ops.
	//
	// Returns:
	//   - error: an error if the window was never initialized
	Close() error
}

type engineWindow struct {
	title string

	// width and height are the requested client size; zero selects a square of half the desktop height
	width  int
	height int

	resizable bool

	desktopWidth  int
	desktopHeight int

	internalWindow any
	closed         bool
}

var _ Window = &engineWindow{}

// NewWindow creates the platform window and makes it current for the calling OS thread.
//
// Parameters:
//   - options: variadic list of WindowBuilderOption functions to configure the window
//
// Returns:
//   - Window: the created window
//   - error: an error if the windowing library or the window could not be initialized
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := newEngineWindow(options...)
	if err := newPlatformWindow(w); err != nil {
		return nil, err
	}
	return w, nil
}

func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		title:     DefaultTitle,
		resizable: true,
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

// resolveSize returns the requested size, or a square of half the desktop height when
// either requested dimension is not positive.
func resolveSize(width, height, desktopWidth, desktopHeight int) (int, int) {
	if width > 0 && height > 0 {
		return width, height
	}
	side := desktopHeight / 2
	if side <= 0 {
		side = desktopWidth / 2
	}
	if side <= 0 {
		side = 1
	}
	return side, side
}

func (w *engineWindow) ShouldClose() bool {
	return platformShouldClose(w)
}

func (w *engineWindow) SetShouldClose(value bool) {
	platformSetShouldClose(w, value)
}

func (w *engineWindow) PollEvents() {
	platformPollEvents(w)
}

func (w *engineWindow) Size() (int, int) {
	return w.width, w.height
}

func (w *engineWindow) Time() float64 {
	return platformTime(w)
}

func (w *engineWindow) KeyPressed(key int) bool {
	return platformKeyPressed(w, key)
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) DesktopSize() (int, int) {
	return w.desktopWidth, w.desktopHeight
}

func (w *engineWindow) Close() error {
	if w.closed {
		return nil
	}
	if err := platformCloseWindow(w); err != nil {
		return err
	}
	w.closed = true
	return nil
}
