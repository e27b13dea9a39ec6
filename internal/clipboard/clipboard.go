// Package clipboard moves PNG images to and from the system clipboard.
package clipboard

import (
	"errors"
	"os"
)

var (
	// ErrNoImage means the clipboard holds something other than a PNG.
	ErrNoImage   = errors.New("clipboard does not contain an image")
	errNoDisplay = errors.New("clipboard requires DISPLAY or WAYLAND_DISPLAY")
)

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}
