package appstate

import (
	"math"

	"github.com/example/polymark/internal/annotation"
	"github.com/example/polymark/internal/viewport"
)

// PointerDown starts a pan gesture. Panning is only possible while idle with
// an image loaded; otherwise the press is ignored and the following click is
// free to add a point.
func (m *Machine) PointerDown(screen viewport.Point) bool {
	if !m.Ready() || m.State() != StateIdle {
		return false
	}
	m.dragging = true
	m.moved = false
	m.start = screen
	m.origin = m.view
	return true
}

// PointerMove pans while dragging and tracks hover otherwise. It reports
// whether anything visible changed.
func (m *Machine) PointerMove(screen viewport.Point) bool {
	if m.dragging {
		delta := screen.Sub(m.start)
		if math.Abs(delta.X)+math.Abs(delta.Y) > DragThreshold {
			m.moved = true
		}
		next := viewport.PanBy(delta, m.origin)
		if next == m.view {
			return false
		}
		m.view = next
		return true
	}
	if !m.Ready() {
		return false
	}
	id := 0
	if p, ok := viewport.ScreenToImage(screen, m.view, m.img.Size); ok && m.State() == StateIdle {
		id = m.set.HitTest(annotation.Point(p))
	}
	return m.SetHovered(id)
}

// PointerUp ends a pan gesture. The moved flag survives only until the click
// that completes the same gesture; callers that deliver no click must use
// PointerLeave or EndGesture.
func (m *Machine) PointerUp(viewport.Point) bool {
	if !m.dragging {
		return false
	}
	m.dragging = false
	return true
}

// EndGesture ends a pan gesture that no click will follow, so the next click
// is never swallowed.
func (m *Machine) EndGesture() bool {
	changed := m.PointerUp(viewport.Point{})
	m.moved = false
	return changed
}

// PointerLeave behaves like a release outside the stage.
func (m *Machine) PointerLeave() bool {
	changed := m.EndGesture()
	if m.SetHovered(0) {
		changed = true
	}
	return changed
}

// Click adds a vertex while drawing. A click that ends a drag is swallowed,
// as is one outside the image. While idle, a click selects the polygon under
// the pointer.
func (m *Machine) Click(screen viewport.Point) bool {
	if !m.Ready() {
		return false
	}
	if m.moved {
		m.moved = false
		return false
	}
	p, ok := viewport.ScreenToImage(screen, m.view, m.img.Size)
	if m.State() == StateIdle {
		id := 0
		if ok {
			id = m.set.HitTest(annotation.Point(p))
		}
		return m.SetSelected(id)
	}
	if !ok {
		m.log.WithField("x", screen.X).WithField("y", screen.Y).Debug("click outside image")
		return false
	}
	return m.mutate("add-point", func(s *annotation.Set) bool { return s.AddPoint(annotation.Point(p)) })
}

// Wheel zooms around the pointer. Negative deltaY zooms in. Zoom works while
// drawing as well as idle.
func (m *Machine) Wheel(screen viewport.Point, deltaY float64) bool {
	if !m.Ready() {
		return false
	}
	sign := 0
	switch {
	case deltaY < 0:
		sign = -1
	case deltaY > 0:
		sign = 1
	}
	next := viewport.ZoomAt(screen, sign, m.view)
	if next == m.view {
		return false
	}
	m.view = next
	return true
}
