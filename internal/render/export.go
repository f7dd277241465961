package render

import (
	"fmt"
	"image"
	"io"

	"github.com/gogpu/gg"

	"github.com/example/polymark/internal/annotation"
)

const (
	// ExportQuality is the JPEG quality of exported images.
	ExportQuality = 95
	// ExportFilename is the name offered for downloads.
	ExportFilename = "annotated.jpeg"
	// ExportContentType is the media type of exported images.
	ExportContentType = "image/jpeg"
)

// Export flattens the committed polygons onto base at native resolution.
// Polygons with fewer than three points are skipped, nothing is highlighted
// and no vertex markers are drawn.
func Export(base image.Image, polys []annotation.Polygon) (*image.RGBA, error) {
	dc, err := exportContext(base, polys)
	if err != nil {
		return nil, err
	}
	defer dc.Close()
	return toRGBA(dc.Image()), nil
}

// EncodeExport writes the exported image to w as JPEG.
func EncodeExport(w io.Writer, base image.Image, polys []annotation.Polygon) error {
	dc, err := exportContext(base, polys)
	if err != nil {
		return err
	}
	defer dc.Close()
	if err := dc.EncodeJPEG(w, ExportQuality); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	return nil
}

func exportContext(base image.Image, polys []annotation.Polygon) (*gg.Context, error) {
	dc := gg.NewContextForImage(toRGBA(base))
	for _, p := range polys {
		if len(p.Points) < annotation.MinPoints {
			continue
		}
		if err := drawPolygon(dc, p.Points, p.Class, style{width: LineWidth, closed: true}); err != nil {
			dc.Close()
			return nil, fmt.Errorf("export polygon %d: %w", p.ID, err)
		}
	}
	return dc, nil
}
