package appstate

import (
	"fmt"

	"github.com/example/polymark/internal/annotation"
)

// Status messages shown above the stage.
const (
	StatusNoImage    = "Upload an image to start."
	StatusLoading    = "Loading image..."
	StatusFailed     = "Image failed to load."
	StatusDrawing    = "Click to add points, then Finish Polygon."
	StatusIdle       = "Click Start Polygon to begin drawing."
	statusLimitFmt   = "Polygon limit reached (%d/%d)."
	drawingDetailFmt = "%s - Points %d"
)

// StatusLimit is the message shown once the polygon cap is reached.
var StatusLimit = fmt.Sprintf(statusLimitFmt, annotation.MaxPolygons, annotation.MaxPolygons)

// Status returns the one-line hint for the current situation.
func (m *Machine) Status() string {
	switch m.img.Status {
	case ImageNone:
		return StatusNoImage
	case ImageLoading:
		return StatusLoading
	case ImageFailed:
		return StatusFailed
	}
	if m.set.Full() {
		return StatusLimit
	}
	if m.set.Drawing() {
		return StatusDrawing
	}
	return StatusIdle
}

// DrawingDetail describes the polygon in progress, or "" when idle.
func (m *Machine) DrawingDetail() string {
	cur := m.set.Current
	if cur == nil {
		return ""
	}
	return fmt.Sprintf(drawingDetailFmt, cur.Class, len(cur.Points))
}

// Counter renders the "n/10" polygon counter.
func (m *Machine) Counter() string {
	return fmt.Sprintf("%d/%d", len(m.set.Polygons), annotation.MaxPolygons)
}

// CanStart mirrors the Start Polygon button's enabled state.
func (m *Machine) CanStart() bool { return m.Ready() && m.set.CanStart() }

// CanFinish mirrors the Finish Polygon button. It stays enabled at the cap so
// the open polygon can still be dismissed.
func (m *Machine) CanFinish() bool {
	cur := m.set.Current
	return cur != nil && len(cur.Points) >= annotation.MinPoints
}

// CanUndo mirrors the Undo Point button.
func (m *Machine) CanUndo() bool { return m.set.CanUndo() }

// CanCancel mirrors the Cancel Polygon button.
func (m *Machine) CanCancel() bool { return m.set.Drawing() }

// CanClear mirrors the Clear button.
func (m *Machine) CanClear() bool { return m.Ready() && len(m.set.Polygons) > 0 }

// CanExport reports whether there is something to export: an image and at
// least one committed polygon. An open polygon is left out of the export.
func (m *Machine) CanExport() bool {
	return m.Ready() && len(m.set.Polygons) > 0
}
