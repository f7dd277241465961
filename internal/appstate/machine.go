package appstate

import (
	"image"

	log "github.com/sirupsen/logrus"

	"github.com/example/polymark/internal/annotation"
	"github.com/example/polymark/internal/viewport"
)

// DragThreshold is the Manhattan distance in screen pixels after which a
// press-move-release counts as a pan rather than a click.
const DragThreshold = 4

// State is the drawing mode of the editor.
type State int

const (
	// StateIdle has no polygon under construction; dragging pans.
	StateIdle State = iota
	// StateDrawing has a current polygon; clicks add vertices.
	StateDrawing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDrawing:
		return "drawing"
	default:
		return "unknown"
	}
}

// ImageStatus tracks the lifecycle of the image being annotated.
type ImageStatus int

const (
	ImageNone ImageStatus = iota
	ImageLoading
	ImageReady
	ImageFailed
)

func (s ImageStatus) String() string {
	switch s {
	case ImageNone:
		return "none"
	case ImageLoading:
		return "loading"
	case ImageReady:
		return "ready"
	case ImageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ImageInfo describes the image the annotations belong to.
type ImageInfo struct {
	Ref    string
	Size   image.Point
	Status ImageStatus
	Err    error
}

// Machine owns one editing session: the annotation set, the viewport and the
// pointer gesture in progress. It is not safe for concurrent use; hand
// Snapshot copies to readers on other goroutines.
type Machine struct {
	set   *annotation.Set
	view  viewport.Viewport
	stage image.Point
	img   ImageInfo
	token uint64

	dragging bool
	moved    bool
	pressed  bool
	start    viewport.Point
	origin   viewport.Viewport

	notice    string
	log       log.FieldLogger
	listeners []func(prev, next State)
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger used for transition tracing.
func WithLogger(l log.FieldLogger) Option { return func(m *Machine) { m.log = l } }

// WithStage sets the initial stage size in screen pixels.
func WithStage(size image.Point) Option { return func(m *Machine) { m.stage = size } }

// WithListener registers fn to be called after every Idle/Drawing change.
func WithListener(fn func(prev, next State)) Option {
	return func(m *Machine) { m.OnTransition(fn) }
}

// NewMachine returns a machine with no image loaded.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		set:  annotation.New(),
		view: viewport.Identity(),
		log:  log.StandardLogger(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// OnTransition registers fn to be called after every Idle/Drawing change.
func (m *Machine) OnTransition(fn func(prev, next State)) {
	if fn != nil {
		m.listeners = append(m.listeners, fn)
	}
}

// State reports whether a polygon is being drawn.
func (m *Machine) State() State {
	if m.set.Drawing() {
		return StateDrawing
	}
	return StateIdle
}

// Annotations exposes the set for read access. Mutate it only through the
// Machine's methods.
func (m *Machine) Annotations() *annotation.Set { return m.set }

// Viewport returns the current view transform.
func (m *Machine) Viewport() viewport.Viewport { return m.view }

// Stage returns the stage size.
func (m *Machine) Stage() image.Point { return m.stage }

// Image returns the loaded image description.
func (m *Machine) Image() ImageInfo { return m.img }

// Ready reports whether an image is loaded and drawing is enabled.
func (m *Machine) Ready() bool { return m.img.Status == ImageReady }

// Dragging reports whether a pan gesture is in progress.
func (m *Machine) Dragging() bool { return m.dragging }

// Notice returns the last transient message, such as a dropped polygon.
func (m *Machine) Notice() string { return m.notice }

// mutate runs fn against the set, tracing state changes and notifying
// listeners.
func (m *Machine) mutate(op string, fn func(*annotation.Set) bool) bool {
	prev := m.State()
	changed := fn(m.set)
	next := m.State()
	if !changed {
		m.log.WithField("op", op).Debug("rejected")
		return false
	}
	if prev != next {
		m.transition(op, prev, next)
	}
	return true
}

func (m *Machine) transition(op string, prev, next State) {
	m.log.WithFields(log.Fields{"op": op, "from": prev.String(), "to": next.String()}).Debug("state transition")
	for _, fn := range m.listeners {
		fn(prev, next)
	}
}

// StartPolygon opens a new polygon. It needs a loaded image.
func (m *Machine) StartPolygon() bool {
	if !m.Ready() {
		return false
	}
	m.notice = ""
	m.moved = false
	return m.mutate("start", (*annotation.Set).StartPolygon)
}

// FinishPolygon commits the current polygon. At the polygon cap the current
// polygon is dropped and a notice is recorded.
func (m *Machine) FinishPolygon() bool {
	full := m.set.Full() && m.set.Drawing()
	ok := m.mutate("finish", (*annotation.Set).FinishPolygon)
	if ok && full {
		m.notice = "Polygon limit reached; the open polygon was discarded."
		m.log.Warn(m.notice)
	}
	return ok
}

// UndoPoint removes the last vertex of the current polygon.
func (m *Machine) UndoPoint() bool { return m.mutate("undo", (*annotation.Set).UndoLastPoint) }

// CancelPolygon discards the current polygon.
func (m *Machine) CancelPolygon() bool { return m.mutate("cancel", (*annotation.Set).CancelPolygon) }

// DeletePolygon removes a committed polygon.
func (m *Machine) DeletePolygon(id int) bool {
	return m.mutate("delete", func(s *annotation.Set) bool { return s.DeletePolygon(id) })
}

// DeleteSelected removes the selected polygon, if any.
func (m *Machine) DeleteSelected() bool {
	id := m.set.Selected()
	if id == 0 {
		return false
	}
	return m.DeletePolygon(id)
}

// UpdateClass relabels a committed polygon.
func (m *Machine) UpdateClass(id int, class string) bool {
	return m.mutate("update-class", func(s *annotation.Set) bool { return s.UpdateClass(id, class) })
}

// SetCurrentClass picks the label for new polygons and the one in progress.
func (m *Machine) SetCurrentClass(class string) bool {
	return m.mutate("set-class", func(s *annotation.Set) bool { return s.SetCurrentClass(class) })
}

// RelabelSelected applies class to the selected polygon.
func (m *Machine) RelabelSelected(class string) bool {
	id := m.set.Selected()
	if id == 0 {
		return false
	}
	return m.UpdateClass(id, class)
}

// ClearAll removes every polygon and resets the class choice.
func (m *Machine) ClearAll() bool {
	m.notice = ""
	return m.mutate("clear", (*annotation.Set).ClearAll)
}

// SetHovered records the polygon under the pointer.
func (m *Machine) SetHovered(id int) bool {
	return m.mutate("hover", func(s *annotation.Set) bool { return s.SetHovered(id) })
}

// SetSelected records the selected polygon.
func (m *Machine) SetSelected(id int) bool {
	return m.mutate("select", func(s *annotation.Set) bool { return s.SetSelected(id) })
}

// CycleSelection selects the next polygon in creation order.
func (m *Machine) CycleSelection() bool {
	return m.mutate("cycle-select", (*annotation.Set).CycleSelection)
}

// ResetView fits the image to the stage again.
func (m *Machine) ResetView() bool {
	if !m.Ready() {
		return false
	}
	next := viewport.FitToStage(m.img.Size, m.stage)
	if next == m.view {
		return false
	}
	m.view = next
	return true
}

// Resize records a new stage size. The view is left alone so the image does
// not jump while the window is resized; ResetView refits it.
func (m *Machine) Resize(size image.Point) bool {
	if size == m.stage {
		return false
	}
	first := m.stage == (image.Point{})
	m.stage = size
	if first && m.Ready() {
		m.view = viewport.FitToStage(m.img.Size, m.stage)
	}
	return true
}

// Snapshot is a read-only copy of everything the compositor needs.
type Snapshot struct {
	Set      *annotation.Set
	View     viewport.Viewport
	Image    ImageInfo
	Stage    image.Point
	State    State
	Status   string
	Dragging bool
}

// Snapshot copies the current session for a reader.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		Set:      m.set.Clone(),
		View:     m.view,
		Image:    m.img,
		Stage:    m.stage,
		State:    m.State(),
		Status:   m.Status(),
		Dragging: m.dragging,
	}
}
