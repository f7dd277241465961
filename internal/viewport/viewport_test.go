package viewport

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

func TestFitToStage(t *testing.T) {
	tests := []struct {
		name  string
		img   image.Point
		stage image.Point
		want  Viewport
	}{
		{"landscape", image.Pt(800, 600), image.Pt(1000, 1000), Viewport{Scale: 1.25, TranslateX: 0, TranslateY: 125}},
		{"shrink", image.Pt(4000, 2000), image.Pt(800, 600), Viewport{Scale: 0.2, TranslateX: 0, TranslateY: 100}},
		{"clamped low", image.Pt(20000, 20000), image.Pt(800, 600), Viewport{Scale: 0.1, TranslateX: -600, TranslateY: -700}},
		{"clamped high", image.Pt(10, 10), image.Pt(800, 600), Viewport{Scale: 3, TranslateX: 385, TranslateY: 285}},
		{"empty image", image.Point{}, image.Pt(800, 600), Identity()},
		{"empty stage", image.Pt(800, 600), image.Point{}, Identity()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitToStage(tt.img, tt.stage)
			assert.InDelta(t, tt.want.Scale, got.Scale, tol)
			assert.InDelta(t, tt.want.TranslateX, got.TranslateX, tol)
			assert.InDelta(t, tt.want.TranslateY, got.TranslateY, tol)
		})
	}
}

func TestScreenToImageBounds(t *testing.T) {
	v := Viewport{Scale: 2, TranslateX: 10, TranslateY: 20}
	size := image.Pt(100, 50)

	p, ok := ScreenToImage(Pt(10, 20), v, size)
	assert.True(t, ok, "top-left corner is inside")
	assert.Equal(t, Pt(0, 0), p)

	p, ok = ScreenToImage(Pt(210, 120), v, size)
	assert.True(t, ok, "bottom-right corner is inside")
	assert.Equal(t, Pt(100, 50), p)

	_, ok = ScreenToImage(Pt(9, 30), v, size)
	assert.False(t, ok)
	_, ok = ScreenToImage(Pt(50, 121), v, size)
	assert.False(t, ok)

	_, ok = ScreenToImage(Pt(50, 50), Viewport{}, size)
	assert.False(t, ok, "degenerate scale never maps")
}

func TestScreenToImageInvertsForwardMapping(t *testing.T) {
	views := []Viewport{
		Identity(),
		{Scale: 0.37, TranslateX: -12.5, TranslateY: 40},
		{Scale: 4.2, TranslateX: 300, TranslateY: -77.25},
	}
	size := image.Pt(640, 480)
	points := []Point{Pt(1, 1), Pt(320.5, 200.25), Pt(639, 479), Pt(12.75, 400)}
	for _, v := range views {
		for _, p := range points {
			got, ok := ScreenToImage(ImageToScreen(p, v), v, size)
			require.True(t, ok)
			assert.InDelta(t, p.X, got.X, 1e-9)
			assert.InDelta(t, p.Y, got.Y, 1e-9)
		}
	}
}

func TestZoomAtKeepsAnchor(t *testing.T) {
	v := Viewport{Scale: 1.5, TranslateX: 40, TranslateY: -10}
	anchor := Pt(300, 200)
	before, _ := ScreenToImage(anchor, v, image.Pt(10000, 10000))

	in := ZoomAt(anchor, -1, v)
	assert.InDelta(t, 1.65, in.Scale, tol)
	after, _ := ScreenToImage(anchor, in, image.Pt(10000, 10000))
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)

	out := ZoomAt(anchor, 1, v)
	assert.Less(t, out.Scale, v.Scale)
}

func TestZoomRoundTrip(t *testing.T) {
	v := Viewport{Scale: 0.8, TranslateX: 13, TranslateY: 7}
	anchor := Pt(120, 340)
	back := ZoomAt(anchor, 1, ZoomAt(anchor, -1, v))
	assert.InDelta(t, v.Scale, back.Scale, 1e-9)
	assert.InDelta(t, v.TranslateX, back.TranslateX, 1e-9)
	assert.InDelta(t, v.TranslateY, back.TranslateY, 1e-9)
}

func TestZoomFactorsAreInverse(t *testing.T) {
	assert.InDelta(t, 1.0, ZoomInFactor*ZoomOutFactor, tol)
	assert.NotEqual(t, 0.9, ZoomOutFactor)

	v := Viewport{Scale: 1}
	anchor := Pt(50, 50)
	for i := 0; i < 20; i++ {
		v = ZoomAt(anchor, 1, ZoomAt(anchor, -1, v))
	}
	assert.InDelta(t, 1.0, v.Scale, 1e-6, "repeated in/out pairs do not drift")
}

func TestZoomClamps(t *testing.T) {
	v := Viewport{Scale: MaxScale}
	assert.Equal(t, MaxScale, ZoomAt(Pt(0, 0), -1, v).Scale)
	v = Viewport{Scale: MinScale}
	assert.Equal(t, MinScale, ZoomAt(Pt(0, 0), 1, v).Scale)
	v = Viewport{Scale: 2, TranslateX: 5}
	assert.Equal(t, v, ZoomAt(Pt(50, 50), 0, v))
}

func TestPanBy(t *testing.T) {
	origin := Viewport{Scale: 2, TranslateX: 10, TranslateY: 10}
	got := PanBy(Pt(-4, 6.5), origin)
	assert.Equal(t, Viewport{Scale: 2, TranslateX: 6, TranslateY: 16.5}, got)
}

func TestScreenRect(t *testing.T) {
	v := Viewport{Scale: 0.5, TranslateX: 10.2, TranslateY: 5}
	assert.Equal(t, image.Rect(10, 5, 61, 30), v.ScreenRect(image.Pt(100, 50)))
	assert.Equal(t, 50, v.Percent())
}
