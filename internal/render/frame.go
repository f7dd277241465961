package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/example/polymark/internal/annotation"
	"github.com/example/polymark/internal/viewport"
)

// Stage backdrop colors.
var (
	CheckerLight = color.RGBA{58, 58, 64, 255}
	CheckerDark  = color.RGBA{44, 44, 50, 255}
)

const checkerSize = 8

var (
	backdropMu    sync.Mutex
	backdropCache *image.RGBA
)

func drawCheckerboard(dst *image.RGBA, rect image.Rectangle, size int, light, dark color.Color) {
	lu := image.NewUniform(light)
	du := image.NewUniform(dark)
	for y := rect.Min.Y; y < rect.Max.Y; y += size {
		for x := rect.Min.X; x < rect.Max.X; x += size {
			src := lu
			if ((x/size)+(y/size))%2 != 0 {
				src = du
			}
			draw.Draw(dst, image.Rect(x, y, x+size, y+size).Intersect(rect), src, image.Point{}, draw.Src)
		}
	}
}

// DrawBackdrop fills rect of dst with the stage checkerboard. The pattern is
// cached per size.
func DrawBackdrop(dst *image.RGBA, rect image.Rectangle) {
	backdropMu.Lock()
	defer backdropMu.Unlock()
	size := rect.Size()
	if backdropCache == nil || backdropCache.Bounds().Size() != size {
		backdropCache = image.NewRGBA(image.Rectangle{Max: size})
		drawCheckerboard(backdropCache, backdropCache.Bounds(), checkerSize, CheckerLight, CheckerDark)
	}
	draw.Draw(dst, rect, backdropCache, image.Point{}, draw.Src)
}

// Frame paints scene into the stage area of dst as seen through v. Stage
// coordinates start at stage.Min.
func Frame(dst *image.RGBA, stage image.Rectangle, scene image.Image, v viewport.Viewport) {
	DrawBackdrop(dst, stage)
	if scene == nil {
		return
	}
	sb := scene.Bounds()
	dr := v.ScreenRect(sb.Size()).Add(stage.Min)
	clip, ok := dst.SubImage(stage).(*image.RGBA)
	if !ok {
		return
	}
	var scaler xdraw.Scaler = xdraw.NearestNeighbor
	if v.Scale < 1 {
		scaler = xdraw.ApproxBiLinear
	}
	scaler.Scale(clip, dr, scene, sb, draw.Over, nil)
}

// DrawBadges labels each polygon with its id at the projected centroid.
func DrawBadges(dst *image.RGBA, stage image.Rectangle, polys []annotation.Polygon, v viewport.Viewport) {
	face := basicfont.Face7x13
	for _, p := range polys {
		if len(p.Points) == 0 {
			continue
		}
		c := p.Centroid()
		sp := viewport.ImageToScreen(viewport.Pt(c.X, c.Y), v)
		label := fmt.Sprintf("#%d", p.ID)
		d := &font.Drawer{Face: face}
		w := d.MeasureString(label).Ceil()
		x := stage.Min.X + int(sp.X) - w/2
		y := stage.Min.Y + int(sp.Y)
		box := image.Rect(x-3, y-11, x+w+3, y+4)
		if !box.Overlaps(stage) {
			continue
		}
		col := annotation.ColorsFor(p.Class).Stroke
		draw.Draw(dst, box.Intersect(stage), image.NewUniform(color.RGBA{0, 0, 0, 160}), image.Point{}, draw.Over)
		d.Dst = dst
		d.Src = image.NewUniform(col)
		d.Dot = fixed.P(x, y)
		d.DrawString(label)
	}
}
