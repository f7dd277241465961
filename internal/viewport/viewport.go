// Package viewport maps between screen space and image space for a pannable,
// zoomable canvas. Every function is pure: a Viewport is a small value that is
// replaced, never mutated in place.
package viewport

import (
	"image"
	"math"
)

const (
	// MinFitScale and MaxFitScale bound the scale chosen when fitting an image
	// to the stage.
	MinFitScale = 0.1
	MaxFitScale = 3.0

	// MinScale and MaxScale bound interactive zoom.
	MinScale = 0.25
	MaxScale = 5.0

	// ZoomInFactor is applied per wheel step towards the user.
	ZoomInFactor = 1.1
	// ZoomOutFactor is the exact inverse of ZoomInFactor so a step in and a
	// step out at the same anchor returns to the starting view. It is
	// deliberately 1/1.1 rather than 0.9, which would drift by 1% per pair.
	ZoomOutFactor = 1 / ZoomInFactor
)

// Point is a position in either screen or image space.
type Point struct {
	X float64
	Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Viewport maps image space to screen space: screen = translate + scale*image.
type Viewport struct {
	Scale      float64
	TranslateX float64
	TranslateY float64
}

// Identity is the viewport that draws the image at native size from the
// stage origin.
func Identity() Viewport { return Viewport{Scale: 1} }

// Translate returns the translation as a point.
func (v Viewport) Translate() Point { return Point{v.TranslateX, v.TranslateY} }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FitToStage returns a viewport that shows the whole image centered on the
// stage. Zero sized inputs produce the identity viewport.
func FitToStage(imageSize, stageSize image.Point) Viewport {
	if imageSize.X <= 0 || imageSize.Y <= 0 || stageSize.X <= 0 || stageSize.Y <= 0 {
		return Identity()
	}
	iw, ih := float64(imageSize.X), float64(imageSize.Y)
	sw, sh := float64(stageSize.X), float64(stageSize.Y)
	scale := clamp(math.Min(sw/iw, sh/ih), MinFitScale, MaxFitScale)
	return Viewport{
		Scale:      scale,
		TranslateX: (sw - iw*scale) / 2,
		TranslateY: (sh - ih*scale) / 2,
	}
}

// ScreenToImage maps a screen position into image space. The boolean is false
// when the result lies outside [0,w]x[0,h]; the edges count as inside.
func ScreenToImage(screen Point, v Viewport, imageSize image.Point) (Point, bool) {
	if v.Scale <= 0 {
		return Point{}, false
	}
	p := Point{
		X: (screen.X - v.TranslateX) / v.Scale,
		Y: (screen.Y - v.TranslateY) / v.Scale,
	}
	if p.X < 0 || p.Y < 0 || p.X > float64(imageSize.X) || p.Y > float64(imageSize.Y) {
		return p, false
	}
	return p, true
}

// ImageToScreen is the forward mapping.
func ImageToScreen(p Point, v Viewport) Point {
	return Point{
		X: v.TranslateX + v.Scale*p.X,
		Y: v.TranslateY + v.Scale*p.Y,
	}
}

// ZoomAt scales the view around the screen anchor so the image point under
// the anchor stays put. A negative deltaSign zooms in (wheel up), a positive
// one zooms out and zero leaves the view unchanged.
func ZoomAt(anchor Point, deltaSign int, v Viewport) Viewport {
	if deltaSign == 0 || v.Scale <= 0 {
		return v
	}
	factor := ZoomInFactor
	if deltaSign > 0 {
		factor = ZoomOutFactor
	}
	next := clamp(v.Scale*factor, MinScale, MaxScale)
	ix := (anchor.X - v.TranslateX) / v.Scale
	iy := (anchor.Y - v.TranslateY) / v.Scale
	return Viewport{
		Scale:      next,
		TranslateX: anchor.X - ix*next,
		TranslateY: anchor.Y - iy*next,
	}
}

// PanBy offsets origin by delta screen pixels. Scale is untouched.
func PanBy(delta Point, origin Viewport) Viewport {
	return Viewport{
		Scale:      origin.Scale,
		TranslateX: origin.TranslateX + delta.X,
		TranslateY: origin.TranslateY + delta.Y,
	}
}

// ScreenRect returns the stage rectangle covered by an image of the given
// size, rounded outwards to whole pixels.
func (v Viewport) ScreenRect(imageSize image.Point) image.Rectangle {
	min := ImageToScreen(Point{}, v)
	max := ImageToScreen(Point{float64(imageSize.X), float64(imageSize.Y)}, v)
	return image.Rect(
		int(math.Floor(min.X)), int(math.Floor(min.Y)),
		int(math.Ceil(max.X)), int(math.Ceil(max.Y)),
	)
}

// Percent reports the scale as a rounded percentage for status displays.
func (v Viewport) Percent() int {
	return int(math.Round(v.Scale * 100))
}
