// Package render composites annotation polygons over their source image,
// both for the interactive canvas and for the exported JPEG.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/gogpu/gg"

	"github.com/example/polymark/internal/annotation"
)

// Stroke widths and marker sizes in image pixels.
const (
	LineWidth         = 2.0
	HoverLineWidth    = 2.5
	SelectedLineWidth = 3.0
	CurrentLineWidth  = 3.0
	VertexRadius      = 3.5
	GlowBlur          = 16
)

// Highlight names the polygons that get hover or selection styling. Zero
// means none; ids that match no polygon are ignored.
type Highlight struct {
	HoveredID  int
	SelectedID int
}

type style struct {
	width   float64
	closed  bool
	markers bool
}

// Render draws base at native resolution with every committed polygon closed
// and filled, hover and selection emphasised, and cur (if any) as an open
// stroke. Vertex markers are drawn on all of them.
func Render(base image.Image, polys []annotation.Polygon, cur *annotation.Current, hl Highlight) (*image.RGBA, error) {
	canvas := toRGBA(base)
	if hl.SelectedID > 0 {
		for _, p := range polys {
			if p.ID != hl.SelectedID {
				continue
			}
			if err := ApplyGlow(canvas, p.Points, annotation.ColorsFor(p.Class).Stroke, DefaultGlowOptions()); err != nil {
				return nil, fmt.Errorf("glow polygon %d: %w", p.ID, err)
			}
		}
	}

	dc := gg.NewContextForImage(canvas)
	defer dc.Close()
	for _, p := range polys {
		st := style{width: LineWidth, closed: len(p.Points) >= annotation.MinPoints, markers: true}
		switch p.ID {
		case hl.SelectedID:
			st.width = SelectedLineWidth
		case hl.HoveredID:
			st.width = HoverLineWidth
		}
		if err := drawPolygon(dc, p.Points, p.Class, st); err != nil {
			return nil, fmt.Errorf("draw polygon %d: %w", p.ID, err)
		}
	}
	if cur != nil {
		if err := drawPolygon(dc, cur.Points, cur.Class, style{width: CurrentLineWidth, markers: true}); err != nil {
			return nil, fmt.Errorf("draw current polygon: %w", err)
		}
	}
	return toRGBA(dc.Image()), nil
}

func setColor(dc *gg.Context, c color.RGBA, alpha float64) {
	dc.SetRGBA(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, alpha)
}

func drawPolygon(dc *gg.Context, pts []annotation.Point, class string, st style) error {
	if len(pts) == 0 {
		return nil
	}
	colors := annotation.ColorsFor(class)

	dc.SetLineWidth(st.width)
	dc.SetLineJoin(gg.LineJoinMiter)
	dc.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		dc.LineTo(p.X, p.Y)
	}
	if st.closed {
		dc.ClosePath()
		setColor(dc, colors.Stroke, float64(colors.Fill.A)/255)
		if err := dc.FillPreserve(); err != nil {
			return err
		}
	}
	setColor(dc, colors.Stroke, 1)
	if len(pts) > 1 {
		if err := dc.Stroke(); err != nil {
			return err
		}
	} else {
		dc.ClearPath()
	}

	if !st.markers {
		return nil
	}
	for _, p := range pts {
		dc.DrawCircle(p.X, p.Y, VertexRadius)
		if err := dc.Fill(); err != nil {
			return err
		}
	}
	return nil
}

func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
