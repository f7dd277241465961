// Package annotation holds the polygon set being drawn over an image and the
// transitions that edit it.
//
// Every transition returns whether it changed the set. A transition whose
// precondition does not hold is a silent no-op, so callers can fire them from
// input handlers without checking first.
package annotation

// MaxPolygons caps the number of committed polygons per image.
const MaxPolygons = 10

// MinPoints is the smallest vertex count a committed polygon may have.
const MinPoints = 3

// Point is a position in image pixels, origin top-left.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Polygon is a committed, closed shape.
type Polygon struct {
	ID     int     `json:"id"`
	Points []Point `json:"points"`
	Class  string  `json:"classLabel"`
}

// Current is the polygon under construction. It has no id until committed.
type Current struct {
	Points []Point `json:"points"`
	Class  string  `json:"classLabel"`
}

// Set is the full annotation state for one image. HoveredID and SelectedID
// use 0 for "none" since polygon ids start at 1.
type Set struct {
	Polygons     []Polygon `json:"polygons"`
	Current      *Current  `json:"current,omitempty"`
	CurrentClass string    `json:"currentClass"`
	HoveredID    int       `json:"hoveredId,omitempty"`
	SelectedID   int       `json:"selectedId,omitempty"`
}

// New returns the empty initial set.
func New() *Set {
	return &Set{Polygons: []Polygon{}, CurrentClass: DefaultClass}
}

// NextID returns max(existing ids ∪ {0}) + 1.
func (s *Set) NextID() int {
	max := 0
	for _, p := range s.Polygons {
		if p.ID > max {
			max = p.ID
		}
	}
	return max + 1
}

// Drawing reports whether a polygon is under construction.
func (s *Set) Drawing() bool { return s.Current != nil }

// Full reports whether the polygon cap has been reached.
func (s *Set) Full() bool { return len(s.Polygons) >= MaxPolygons }

// Remaining returns how many more polygons may be committed.
func (s *Set) Remaining() int {
	if n := MaxPolygons - len(s.Polygons); n > 0 {
		return n
	}
	return 0
}

// CanStart reports whether StartPolygon would succeed.
func (s *Set) CanStart() bool { return s.Current == nil && !s.Full() }

// CanFinish reports whether FinishPolygon would commit.
func (s *Set) CanFinish() bool {
	return s.Current != nil && !s.Full() && len(s.Current.Points) >= MinPoints
}

// CanUndo reports whether UndoLastPoint would remove a point.
func (s *Set) CanUndo() bool { return s.Current != nil && len(s.Current.Points) > 0 }

// Find returns the polygon with id.
func (s *Set) Find(id int) (Polygon, bool) {
	if i := s.index(id); i >= 0 {
		return s.Polygons[i], true
	}
	return Polygon{}, false
}

func (s *Set) index(id int) int {
	if id <= 0 {
		return -1
	}
	for i := range s.Polygons {
		if s.Polygons[i].ID == id {
			return i
		}
	}
	return -1
}

// Hovered returns the hovered id if it still names a polygon, else 0.
func (s *Set) Hovered() int {
	if s.index(s.HoveredID) < 0 {
		return 0
	}
	return s.HoveredID
}

// Selected returns the selected id if it still names a polygon, else 0.
func (s *Set) Selected() int {
	if s.index(s.SelectedID) < 0 {
		return 0
	}
	return s.SelectedID
}

// StartPolygon opens a new current polygon labelled with CurrentClass.
func (s *Set) StartPolygon() bool {
	if !s.CanStart() {
		return false
	}
	s.Current = &Current{Points: []Point{}, Class: s.CurrentClass}
	return true
}

// AddPoint appends p to the current polygon.
func (s *Set) AddPoint(p Point) bool {
	if s.Current == nil {
		return false
	}
	s.Current.Points = append(s.Current.Points, p)
	return true
}

// UndoLastPoint drops the most recent vertex of the current polygon.
func (s *Set) UndoLastPoint() bool {
	if !s.CanUndo() {
		return false
	}
	s.Current.Points = s.Current.Points[:len(s.Current.Points)-1]
	return true
}

// CancelPolygon discards the current polygon.
func (s *Set) CancelPolygon() bool {
	if s.Current == nil {
		return false
	}
	s.Current = nil
	return true
}

// FinishPolygon commits the current polygon. At the cap the current polygon
// is discarded without being committed; with fewer than MinPoints vertices
// nothing happens.
func (s *Set) FinishPolygon() bool {
	if s.Current == nil {
		return false
	}
	if s.Full() {
		s.Current = nil
		return true
	}
	if len(s.Current.Points) < MinPoints {
		return false
	}
	s.Polygons = append(s.Polygons, Polygon{ID: s.NextID(), Points: clonePoints(s.Current.Points), Class: s.Current.Class})
	s.Current = nil
	return true
}

// DeletePolygon removes the polygon with id and clears hover or selection
// pointing at it.
func (s *Set) DeletePolygon(id int) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.Polygons = append(s.Polygons[:i:i], s.Polygons[i+1:]...)
	if s.HoveredID == id {
		s.HoveredID = 0
	}
	if s.SelectedID == id {
		s.SelectedID = 0
	}
	return true
}

// UpdateClass relabels a committed polygon. The current polygon is never
// touched here; see SetCurrentClass.
func (s *Set) UpdateClass(id int, class string) bool {
	i := s.index(id)
	if i < 0 || s.Polygons[i].Class == class {
		return false
	}
	s.Polygons[i].Class = class
	return true
}

// SetCurrentClass picks the label for new polygons and relabels the one in
// progress.
func (s *Set) SetCurrentClass(class string) bool {
	changed := s.CurrentClass != class
	s.CurrentClass = class
	if s.Current != nil && s.Current.Class != class {
		s.Current.Class = class
		changed = true
	}
	return changed
}

// ClearAll empties the set back to its initial state.
func (s *Set) ClearAll() bool {
	if s.empty() {
		return false
	}
	*s = *New()
	return true
}

// Reset unconditionally restores the initial state.
func (s *Set) Reset() { *s = *New() }

func (s *Set) empty() bool {
	return len(s.Polygons) == 0 && s.Current == nil && s.HoveredID == 0 &&
		s.SelectedID == 0 && s.CurrentClass == DefaultClass
}

// SetHovered records the polygon under the pointer. Zero clears it.
func (s *Set) SetHovered(id int) bool {
	if s.HoveredID == id {
		return false
	}
	s.HoveredID = id
	return true
}

// SetSelected records the selected polygon. Zero clears it.
func (s *Set) SetSelected(id int) bool {
	if s.SelectedID == id {
		return false
	}
	s.SelectedID = id
	return true
}

// CycleSelection moves the selection to the next polygon in creation order,
// wrapping to none after the last one.
func (s *Set) CycleSelection() bool {
	if len(s.Polygons) == 0 {
		return s.SetSelected(0)
	}
	i := s.index(s.SelectedID)
	if i+1 >= len(s.Polygons) {
		return s.SetSelected(0)
	}
	return s.SetSelected(s.Polygons[i+1].ID)
}

// Clone returns a deep copy safe to hand to a reader on another goroutine.
func (s *Set) Clone() *Set {
	out := &Set{
		Polygons:     make([]Polygon, len(s.Polygons)),
		CurrentClass: s.CurrentClass,
		HoveredID:    s.HoveredID,
		SelectedID:   s.SelectedID,
	}
	for i, p := range s.Polygons {
		out.Polygons[i] = Polygon{ID: p.ID, Class: p.Class, Points: clonePoints(p.Points)}
	}
	if s.Current != nil {
		out.Current = &Current{Class: s.Current.Class, Points: clonePoints(s.Current.Points)}
	}
	return out
}

func clonePoints(pts []Point) []Point {
	out := make([]Point, len(pts))
	copy(out, pts)
	return out
}
