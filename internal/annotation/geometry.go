package annotation

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// Contains reports whether p lies inside the polygon using the even-odd rule.
func (p Polygon) Contains(pt Point) bool {
	return containsPoint(p.Points, pt)
}

func containsPoint(pts []Point, pt Point) bool {
	if len(pts) < MinPoints {
		return false
	}
	inside := false
	j := len(pts) - 1
	for i := range pts {
		a, b := pts[i], pts[j]
		if (a.Y > pt.Y) != (b.Y > pt.Y) {
			x := (b.X-a.X)*(pt.Y-a.Y)/(b.Y-a.Y) + a.X
			if pt.X < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// Bounds returns the integer rectangle enclosing the vertices.
func (p Polygon) Bounds() image.Rectangle {
	if len(p.Points) == 0 {
		return image.Rectangle{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pt := range p.Points {
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxX = math.Max(maxX, pt.X)
		maxY = math.Max(maxY, pt.Y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}

// Centroid returns the vertex average, used to place id labels.
func (p Polygon) Centroid() Point {
	var c Point
	if len(p.Points) == 0 {
		return c
	}
	for _, pt := range p.Points {
		c.X += pt.X
		c.Y += pt.Y
	}
	n := float64(len(p.Points))
	return Point{c.X / n, c.Y / n}
}

// HitTest returns the id of the topmost committed polygon under pt, or 0.
// Later polygons are drawn above earlier ones.
func (s *Set) HitTest(pt Point) int {
	for i := len(s.Polygons) - 1; i >= 0; i-- {
		if s.Polygons[i].Contains(pt) {
			return s.Polygons[i].ID
		}
	}
	return 0
}

// ErrInvalidPolygons is wrapped by every error returned from Validate.
var ErrInvalidPolygons = errors.New("invalid polygons")

// Validate checks a polygon list received from outside the editor against the
// invariants the editor itself maintains: at most MaxPolygons, unique positive
// ids, at least MinPoints vertices each, every vertex inside size.
func Validate(polys []Polygon, size image.Point) error {
	if len(polys) > MaxPolygons {
		return fmt.Errorf("%w: %d polygons, limit is %d", ErrInvalidPolygons, len(polys), MaxPolygons)
	}
	seen := make(map[int]bool, len(polys))
	for _, p := range polys {
		if p.ID <= 0 {
			return fmt.Errorf("%w: id %d is not positive", ErrInvalidPolygons, p.ID)
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate id %d", ErrInvalidPolygons, p.ID)
		}
		seen[p.ID] = true
		if len(p.Points) < MinPoints {
			return fmt.Errorf("%w: polygon %d has %d points", ErrInvalidPolygons, p.ID, len(p.Points))
		}
		for _, pt := range p.Points {
			if pt.X < 0 || pt.Y < 0 || pt.X > float64(size.X) || pt.Y > float64(size.Y) ||
				math.IsNaN(pt.X) || math.IsNaN(pt.Y) {
				return fmt.Errorf("%w: polygon %d point (%g,%g) outside %dx%d", ErrInvalidPolygons, p.ID, pt.X, pt.Y, size.X, size.Y)
			}
		}
	}
	return nil
}
