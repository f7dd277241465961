package main

import (
	"bytes"
	"errors"
	"flag"
	"image"
	"image/color"
	"image/jpeg"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/example/polymark/internal/annotation"
	"github.com/example/polymark/internal/config"
	"github.com/example/polymark/internal/notify"
	"github.com/example/polymark/internal/upload"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRoot(out *bytes.Buffer) *root {
	r := &root{
		fs:       flag.NewFlagSet("polymark", flag.ContinueOnError),
		program:  "polymark",
		notifier: notify.New(notify.DefaultPreferences()),
		config:   config.New(),
		logLevel: "error",
	}
	if out != nil {
		r.stdout = out
	}
	return r
}

func writeJPEG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	path := filepath.Join(dir, "photo.jpg")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const trianglesJSON = `{"polygons":[{"id":1,"classLabel":"Class 1","points":[{"x":2,"y":2},{"x":30,"y":2},{"x":30,"y":20}]}]}`

func TestParseExportRequiresPolygons(t *testing.T) {
	_, err := parseExportCmd([]string{"photo.jpg"}, testRoot(nil))
	if err == nil {
		t.Fatalf("expected error")
	}
	if want := "-polygons is required"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected error to mention %q, got %v", want, err)
	}
}

func TestParseExportClipboardWithServer(t *testing.T) {
	_, err := parseExportCmd([]string{"-polygons", "p.json", "-server", "http://x", "-to-clipboard", "photo.jpg"}, testRoot(nil))
	if err == nil {
		t.Fatalf("expected error")
	}
	if want := "-to-clipboard cannot be used"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected error to mention %q, got %v", want, err)
	}
}

func TestParseExportUsage(t *testing.T) {
	_, err := parseExportCmd(nil, testRoot(nil))
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if want := "polymark export -polygons"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected help to contain %q, got %v", want, err)
	}
}

func TestParseAnnotateTooManyImages(t *testing.T) {
	_, err := parseAnnotateCmd([]string{"a.jpg", "b.jpg"}, testRoot(nil))
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if want := "at most one image"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected error to mention %q, got %v", want, err)
	}
}

func TestParseAnnotateDefaultsOutputFromConfig(t *testing.T) {
	r := testRoot(nil)
	r.config.Output = "out/labelled.jpeg"
	a, err := parseAnnotateCmd([]string{"https://example.com/a.jpg"}, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.output != "out/labelled.jpeg" || a.source != "https://example.com/a.jpg" {
		t.Fatalf("unexpected command: %+v", a)
	}
}

func TestReadPolygonsShapes(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"wrapped.json": trianglesJSON,
		"bare.json":    `[{"id":1,"classLabel":"Class 1","points":[{"x":2,"y":2},{"x":30,"y":2},{"x":30,"y":20}]}]`,
	} {
		polys, err := readPolygons(writeFile(t, dir, name, content))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(polys) != 1 || polys[0].Class != "Class 1" || len(polys[0].Points) != 3 {
			t.Fatalf("%s: unexpected polygons %+v", name, polys)
		}
	}
	if _, err := readPolygons(writeFile(t, dir, "broken.json", "{")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestExportRunWritesJPEG(t *testing.T) {
	dir := t.TempDir()
	src := writeJPEG(t, dir, 40, 30)
	polys := writeFile(t, dir, "polys.json", trianglesJSON)
	out := filepath.Join(dir, "annotated.jpeg")

	cmd, err := parseExportCmd([]string{"-polygons", polys, "-output", out, src}, testRoot(nil))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if img.Bounds().Size() != image.Pt(40, 30) {
		t.Fatalf("expected native size, got %v", img.Bounds().Size())
	}
}

func TestExportRunToStdout(t *testing.T) {
	dir := t.TempDir()
	src := writeJPEG(t, dir, 40, 30)
	polys := writeFile(t, dir, "polys.json", trianglesJSON)
	var buf bytes.Buffer

	cmd, err := parseExportCmd([]string{"-polygons", polys, "-output", "-", src}, testRoot(&buf))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := jpeg.Decode(&buf); err != nil {
		t.Fatalf("stdout is not a jpeg: %v", err)
	}
}

func TestExportRunRejectsPolygonsOutsideImage(t *testing.T) {
	dir := t.TempDir()
	src := writeJPEG(t, dir, 10, 10)
	polys := writeFile(t, dir, "polys.json", trianglesJSON)

	cmd, err := parseExportCmd([]string{"-polygons", polys, "-output", filepath.Join(dir, "out.jpeg"), src}, testRoot(nil))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); !errors.Is(err, annotation.ErrInvalidPolygons) {
		t.Fatalf("expected invalid polygons, got %v", err)
	}
}

func TestUploadRunPrintsURL(t *testing.T) {
	store, err := upload.NewStore(t.TempDir(), 2)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	srv := httptest.NewServer(upload.New(store).Handler())
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	src := writeJPEG(t, t.TempDir(), 8, 8)
	cmd, err := parseUploadCmd([]string{"-server", srv.URL, src}, testRoot(&buf))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(got, srv.URL+"/uploads/img-") || !strings.HasSuffix(got, ".jpg") {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestUploadRunReportsRejection(t *testing.T) {
	store, err := upload.NewStore(t.TempDir(), 2)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	srv := httptest.NewServer(upload.New(store).Handler())
	t.Cleanup(srv.Close)

	src := writeFile(t, t.TempDir(), "notes.jpg", "not a jpeg at all")
	cmd, err := parseUploadCmd([]string{"-server", srv.URL, src}, testRoot(nil))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	err = cmd.Run()
	var se *upload.StatusError
	if !errors.As(err, &se) || se.Status != 415 {
		t.Fatalf("expected 415, got %v", err)
	}
}

func TestDefaultServer(t *testing.T) {
	if got := defaultServer(":3001"); got != "http://localhost:3001" {
		t.Fatalf("got %q", got)
	}
	if got := defaultServer("0.0.0.0:80"); got != "http://0.0.0.0:80" {
		t.Fatalf("got %q", got)
	}
}

func TestClassesListsPalette(t *testing.T) {
	var buf bytes.Buffer
	if err := (&classesCmd{root: testRoot(&buf)}).Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"Class 1", "#ff3b30", "Class 2", "#34c759", "Class 3", "#007aff"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("expected %q in %q", want, buf.String())
		}
	}
}

func TestRootUnknownCommand(t *testing.T) {
	r := testRoot(nil)
	err := r.Run([]string{"bogus"})
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if want := "Usage: polymark"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected root help, got %v", err)
	}
}

func TestRootVersionAndConfigPrint(t *testing.T) {
	var buf bytes.Buffer
	r := testRoot(&buf)
	if err := r.Run([]string{"version"}); err != nil {
		t.Fatalf("version: %v", err)
	}
	if want := "polymark version dev"; !strings.Contains(buf.String(), want) {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}

	buf.Reset()
	r = testRoot(&buf)
	if err := r.Run([]string{"config", "print"}); err != nil {
		t.Fatalf("config print: %v", err)
	}
	if want := "listen = :3001"; !strings.Contains(buf.String(), want) {
		t.Fatalf("expected %q in %q", want, buf.String())
	}
}

func TestWindowThemeFallsBack(t *testing.T) {
	r := testRoot(nil)
	r.themeName = "dark"
	if got := r.windowTheme().Name; got != "dark" {
		t.Fatalf("expected dark, got %q", got)
	}
	r.themeName = "no-such-theme"
	if got := r.windowTheme().Name; got != "default" {
		t.Fatalf("expected fallback to default, got %q", got)
	}
}
