package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/gogpu/gg"

	"github.com/example/polymark/internal/annotation"
)

// GlowOptions configures the halo drawn around a selected polygon.
type GlowOptions struct {
	// Blur is the canvas style shadow blur. The box blur uses half of it as
	// its radius, which looks close to a Gaussian of the same size.
	Blur    int
	Width   float64
	Opacity float64
}

// DefaultGlowOptions matches the on-screen selection halo.
func DefaultGlowOptions() GlowOptions {
	return GlowOptions{
		Blur:    GlowBlur,
		Width:   SelectedLineWidth,
		Opacity: 0.9,
	}
}

// ApplyGlow blurs the outline of pts and composites it onto dst in col. Only
// the area around the polygon is touched.
func ApplyGlow(dst *image.RGBA, pts []annotation.Point, col color.RGBA, opts GlowOptions) error {
	if dst == nil || len(pts) < 2 || opts.Opacity <= 0 {
		return nil
	}
	opacity := opts.Opacity
	if opacity > 1 {
		opacity = 1
	}
	radius := opts.Blur / 2
	if radius < 0 {
		radius = 0
	}

	poly := annotation.Polygon{Points: pts}
	pad := radius + int(opts.Width) + 1
	area := poly.Bounds().Inset(-pad).Intersect(dst.Bounds())
	if area.Empty() {
		return nil
	}

	mask, err := outlineMask(area, pts, opts.Width)
	if err != nil {
		return err
	}
	blurred := blurGray(mask, radius)

	alpha := uint8(opacity*255 + 0.5)
	src := image.NewUniform(color.RGBA{col.R, col.G, col.B, 255})
	scaled := image.NewAlpha(blurred.Bounds())
	for i, v := range blurred.Pix {
		scaled.Pix[i] = uint8(int(v) * int(alpha) / 255)
	}
	draw.DrawMask(dst, area, src, image.Point{}, scaled, image.Point{}, draw.Over)
	return nil
}

// outlineMask rasterizes the closed outline of pts into a gray mask covering
// area, with pixel (0,0) of the mask at area.Min.
func outlineMask(area image.Rectangle, pts []annotation.Point, width float64) (*image.Gray, error) {
	dc := gg.NewContext(area.Dx(), area.Dy())
	defer dc.Close()
	dc.SetRGBA(1, 1, 1, 1)
	dc.SetLineWidth(width)
	dc.SetLineJoin(gg.LineJoinRound)
	ox, oy := float64(area.Min.X), float64(area.Min.Y)
	dc.MoveTo(pts[0].X-ox, pts[0].Y-oy)
	for _, p := range pts[1:] {
		dc.LineTo(p.X-ox, p.Y-oy)
	}
	dc.ClosePath()
	if err := dc.Stroke(); err != nil {
		return nil, err
	}
	rgba, ok := dc.Image().(*image.RGBA)
	if !ok {
		rgba = toRGBA(dc.Image())
	}
	mask := image.NewGray(image.Rect(0, 0, area.Dx(), area.Dy()))
	for y := 0; y < area.Dy(); y++ {
		for x := 0; x < area.Dx(); x++ {
			mask.Pix[y*mask.Stride+x] = rgba.Pix[y*rgba.Stride+x*4+3]
		}
	}
	return mask, nil
}

// blurGray runs a separable box blur using prefix sums per row and column.
func blurGray(src *image.Gray, radius int) *image.Gray {
	if radius <= 0 {
		out := image.NewGray(src.Bounds())
		copy(out.Pix, src.Pix)
		return out
	}
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	tmp := image.NewGray(bounds)
	dst := image.NewGray(bounds)

	prefix := make([]int, max(w, h)+1)
	for y := 0; y < h; y++ {
		row := y * src.Stride
		for x := 0; x < w; x++ {
			prefix[x+1] = prefix[x] + int(src.Pix[row+x])
		}
		for x := 0; x < w; x++ {
			x0 := max(x-radius, 0)
			x1 := min(x+radius, w-1)
			tmp.Pix[y*tmp.Stride+x] = uint8((prefix[x1+1] - prefix[x0]) / (x1 - x0 + 1))
		}
	}

	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			prefix[y+1] = prefix[y] + int(tmp.Pix[y*tmp.Stride+x])
		}
		for y := 0; y < h; y++ {
			y0 := max(y-radius, 0)
			y1 := min(y+radius, h-1)
			dst.Pix[y*dst.Stride+x] = uint8((prefix[y1+1] - prefix[y0]) / (y1 - y0 + 1))
		}
	}
	return dst
}
