package appstate

import (
	"image"

	"golang.org/x/mobile/event/mouse"

	"github.com/example/polymark/internal/viewport"
)

// HandleMouse translates a window mouse event into pointer intents. stage is
// the stage rectangle in window coordinates. A left release that did not pan
// is delivered as a click.
func (m *Machine) HandleMouse(e mouse.Event, stage image.Rectangle) bool {
	at := image.Pt(int(e.X), int(e.Y))
	inside := at.In(stage)
	p := viewport.Pt(float64(e.X)-float64(stage.Min.X), float64(e.Y)-float64(stage.Min.Y))

	switch {
	case e.Button == mouse.ButtonWheelUp:
		return inside && m.Wheel(p, -1)
	case e.Button == mouse.ButtonWheelDown:
		return inside && m.Wheel(p, 1)
	case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress:
		if !inside {
			return false
		}
		m.pressed = true
		m.PointerDown(p)
		return false
	case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirRelease:
		if !m.pressed || !inside {
			m.pressed = false
			return m.EndGesture()
		}
		m.pressed = false
		changed := m.PointerUp(p)
		if m.Click(p) {
			changed = true
		}
		return changed
	case e.Direction == mouse.DirNone:
		if !inside && !m.dragging {
			return m.SetHovered(0)
		}
		return m.PointerMove(p)
	}
	return false
}
