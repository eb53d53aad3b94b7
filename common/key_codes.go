package common

import "strings"

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyQ     = 81  // Q key (ASCII)
	KeyX     = 88  // X key (ASCII)
	KeySpace = 32  // Spacebar (ASCII)
	KeyEsc   = 256 // Escape key (GLFW)
	KeyEnter = 257 // Enter key (GLFW)
)

var keyNames = map[string]int{
	"escape": KeyEsc,
	"esc":    KeyEsc,
	"enter":  KeyEnter,
	"space":  KeySpace,
	"q":      KeyQ,
	"x":      KeyX,
}

// KeyFromName resolves a configured key name (case-insensitive, e.g. "escape", "q") to its key code.
//
// Parameters:
//   - name: the key name
//
// Returns:
//   - int: the key code
//   - bool: false if the name is unknown
func KeyFromName(name string) (int, bool) {
	code, ok := keyNames[strings.ToLower(strings.TrimSpace(name))]
	return code, ok
}
