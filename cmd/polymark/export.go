package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/example/polymark/internal/annotation"
	"github.com/example/polymark/internal/clipboard"
	"github.com/example/polymark/internal/imagesource"
	"github.com/example/polymark/internal/render"
	"github.com/example/polymark/internal/upload"
)

type exportCmd struct {
	image       string
	polygons    string
	output      string
	server      string
	toClipboard bool
	*root
	fs *flag.FlagSet
}

func (e *exportCmd) FlagSet() *flag.FlagSet {
	return e.fs
}

func parseExportCmd(args []string, r *root) (*exportCmd, error) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	e := &exportCmd{root: r, fs: fs}
	fs.Usage = usageFunc(e)
	fs.StringVar(&e.polygons, "polygons", "", "JSON file with the polygons to draw")
	fs.StringVar(&e.output, "output", render.ExportFilename, "write the JPEG to this path, - for stdout")
	fs.StringVar(&e.server, "server", "", "render on this upload service instead of locally; the image must be a URL it returned")
	fs.BoolVar(&e.toClipboard, "to-clipboard", false, "also copy the exported image to the clipboard")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: e, msg: "export needs exactly one image"}
	}
	e.image = fs.Arg(0)
	if e.polygons == "" {
		return nil, fmt.Errorf("-polygons is required")
	}
	if e.server != "" && e.toClipboard {
		return nil, fmt.Errorf("-to-clipboard cannot be used with -server")
	}
	return e, nil
}

// readPolygons accepts a bare array or an object with a "polygons" field,
// which covers both saved sets and /export request bodies.
func readPolygons(path string) ([]annotation.Polygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	var polys []annotation.Polygon
	if len(data) > 0 && data[0] == '[' {
		err = json.Unmarshal(data, &polys)
	} else {
		var wrapped struct {
			Polygons []annotation.Polygon `json:"polygons"`
		}
		err = json.Unmarshal(data, &wrapped)
		polys = wrapped.Polygons
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return polys, nil
}

func (e *exportCmd) Run() error {
	polys, err := readPolygons(e.polygons)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var data []byte
	if e.server != "" {
		data, err = upload.NewClient(e.server).Export(ctx, upload.ExportRequest{Image: e.image, Polygons: polys})
		if err != nil {
			return err
		}
	} else {
		if data, err = e.renderLocal(ctx, polys); err != nil {
			return err
		}
	}

	if e.output == "-" {
		_, err = e.root.out().Write(data)
		return err
	}
	if err := os.WriteFile(e.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", e.output, err)
	}
	log.WithFields(log.Fields{"path": e.output, "polygons": len(polys)}).Info("exported")
	if e.root != nil {
		e.root.notifier.Export(e.output)
	}
	return nil
}

func (e *exportCmd) renderLocal(ctx context.Context, polys []annotation.Polygon) ([]byte, error) {
	img, err := imagesource.New().Load(ctx, e.image)
	if err != nil {
		return nil, err
	}
	if err := annotation.Validate(polys, img.Bounds().Size()); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := render.EncodeExport(&buf, img, polys); err != nil {
		return nil, err
	}
	if e.toClipboard {
		flat, err := render.Export(img, polys)
		if err != nil {
			return nil, err
		}
		if err := clipboard.WriteImage(flat); err != nil {
			if !errors.Is(err, clipboard.ErrUnsupported) {
				return nil, fmt.Errorf("copy to clipboard: %w", err)
			}
			log.WithError(err).Warn("clipboard")
		} else if e.root != nil {
			e.root.notifier.Copy(e.output, flat)
		}
	}
	return buf.Bytes(), nil
}
