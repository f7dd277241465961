//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"errors"
	"testing"
)

func TestNoCgoErrors(t *testing.T) {
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")
	if err := WriteText("x"); !errors.Is(err, errNoDisplay) {
		t.Fatalf("expected errNoDisplay, got %v", err)
	}
	t.Setenv("DISPLAY", ":0")
	if _, err := ReadText(); !errors.Is(err, errCGODisabled) {
		t.Fatalf("expected errCGODisabled, got %v", err)
	}
}
