// Package clipboard moves annotated images and upload URLs through the
// system clipboard.
package clipboard

import "errors"

var (
	// ErrEmpty is returned when the clipboard holds no data of the requested kind.
	ErrEmpty = errors.New("clipboard holds no matching data")
	// ErrUnsupported is returned on platforms without clipboard access.
	ErrUnsupported = errors.New("clipboard is not supported on this platform")

	errNoDisplay = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")
)
