package upload

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/polymark/internal/annotation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func jpegFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

type harness struct {
	srv     *httptest.Server
	store   *Store
	client  *resty.Client
	uploads []string
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	store, err := NewStore(t.TempDir(), 4)
	require.NoError(t, err)
	logger := log.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(log.WarnLevel)

	h := &harness{store: store, client: resty.New()}
	opts = append([]Option{WithLogger(logger), WithUploadHook(func(u string) { h.uploads = append(h.uploads, u) })}, opts...)
	h.srv = httptest.NewServer(New(store, opts...).Handler())
	t.Cleanup(h.srv.Close)
	return h
}

func (h *harness) upload(t *testing.T, filename, contentType string, data []byte) (*resty.Response, Response, apiError) {
	t.Helper()
	var ok Response
	var fail apiError
	req := h.client.R().SetResult(&ok).SetError(&fail)
	if contentType == "" {
		req.SetFileReader(FieldName, filename, bytes.NewReader(data))
	} else {
		req.SetMultipartField(FieldName, filename, contentType, bytes.NewReader(data))
	}
	resp, err := req.Post(h.srv.URL + "/upload")
	require.NoError(t, err)
	return resp, ok, fail
}

func TestUploadAcceptsJPEG(t *testing.T) {
	h := newHarness(t)
	resp, ok, _ := h.upload(t, "Photo.JPG", "image/jpeg", jpegFixture(t, 20, 10))

	require.Equal(t, http.StatusCreated, resp.StatusCode())
	assert.True(t, ok.OK)
	require.True(t, strings.HasPrefix(ok.ImageURL, h.srv.URL+"/uploads/img-"), ok.ImageURL)
	assert.Equal(t, []string{ok.ImageURL}, h.uploads)

	name := filepath.Base(ok.ImageURL)
	assert.True(t, ValidName(name))
	_, err := os.Stat(filepath.Join(h.store.Dir(), name))
	assert.NoError(t, err)

	get, err := h.client.R().Get(ok.ImageURL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get.StatusCode())
	assert.Equal(t, jpegFixture(t, 20, 10), get.Body())
}

func TestUploadDetectsContentType(t *testing.T) {
	h := newHarness(t)
	resp, ok, _ := h.upload(t, "photo.jpeg", "", jpegFixture(t, 4, 4))
	require.Equal(t, http.StatusCreated, resp.StatusCode())
	assert.True(t, ok.OK)
}

func TestUploadRejections(t *testing.T) {
	jpg := jpegFixture(t, 8, 8)
	cases := []struct {
		name        string
		filename    string
		contentType string
		data        []byte
		status      int
		msg         string
	}{
		{"png extension", "photo.png", "image/jpeg", jpg, http.StatusUnsupportedMediaType, msgNotJPEG},
		{"declared png", "photo.jpg", "image/png", jpg, http.StatusUnsupportedMediaType, msgNotJPEG},
		{"text disguised", "photo.jpg", "image/jpeg", []byte("hello, not really a jpeg"), http.StatusUnsupportedMediaType, msgNotJPEG},
		{"too large", "photo.jpg", "image/jpeg", append(jpg, make([]byte, 2048)...), http.StatusRequestEntityTooLarge, msgTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, WithMaxBytes(int64(len(jpg)+1024)))
			resp, _, fail := h.upload(t, tc.filename, tc.contentType, tc.data)
			assert.Equal(t, tc.status, resp.StatusCode())
			assert.False(t, fail.OK)
			assert.Equal(t, tc.msg, fail.Error)
			assert.Empty(t, h.uploads)

			entries, err := os.ReadDir(h.store.Dir())
			require.NoError(t, err)
			assert.Empty(t, entries, "rejected uploads leave nothing behind")
		})
	}
}

func TestUploadMissingField(t *testing.T) {
	h := newHarness(t)
	var fail apiError
	resp, err := h.client.R().
		SetError(&fail).
		SetFormData(map[string]string{"other": "x"}).
		SetMultipartField("other", "a.jpg", "image/jpeg", bytes.NewReader(jpegFixture(t, 2, 2))).
		Post(h.srv.URL + "/upload")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	assert.Equal(t, msgNoFile, fail.Error)

	resp, err = h.client.R().SetError(&fail).SetBody(map[string]string{"a": "b"}).Post(h.srv.URL + "/upload")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	assert.Equal(t, msgNoFile, fail.Error)
}

func TestHealthCORSAndUnknown(t *testing.T) {
	h := newHarness(t)
	resp, err := h.client.R().Get(h.srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.JSONEq(t, `{"ok":true}`, resp.String())
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))

	resp, err = h.client.R().Options(h.srv.URL + "/upload")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode())

	resp, err = h.client.R().Get(h.srv.URL + "/uploads/../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())

	resp, err = h.client.R().Get(h.srv.URL + "/uploads/img-1-deadbeef.jpg")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
}

func TestPublicURL(t *testing.T) {
	h := newHarness(t, WithPublicURL("https://labels.example.com/"))
	resp, ok, _ := h.upload(t, "a.jpg", "image/jpeg", jpegFixture(t, 4, 4))
	require.Equal(t, http.StatusCreated, resp.StatusCode())
	assert.True(t, strings.HasPrefix(ok.ImageURL, "https://labels.example.com/uploads/img-"), ok.ImageURL)
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	resp, ok, _ := h.upload(t, "a.jpg", "image/jpeg", jpegFixture(t, 100, 100))
	require.Equal(t, http.StatusCreated, resp.StatusCode())

	tri := annotation.Polygon{ID: 1, Class: "Class 1", Points: []annotation.Point{{X: 10, Y: 10}, {X: 90, Y: 10}, {X: 50, Y: 90}}}
	exp, err := h.client.R().
		SetBody(ExportRequest{Image: ok.ImageURL, Polygons: []annotation.Polygon{tri}}).
		Post(h.srv.URL + "/export")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, exp.StatusCode(), exp.String())
	assert.Equal(t, "image/jpeg", exp.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="annotated.jpeg"`, exp.Header().Get("Content-Disposition"))

	img, err := jpeg.Decode(bytes.NewReader(exp.Body()))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(100, 100), img.Bounds().Size())

	// The bare stored name works too, and hits the cache.
	exp, err = h.client.R().
		SetBody(ExportRequest{Image: filepath.Base(ok.ImageURL), Polygons: nil}).
		Post(h.srv.URL + "/export")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, exp.StatusCode())
}

func TestExportRejections(t *testing.T) {
	h := newHarness(t)
	_, ok, _ := h.upload(t, "a.jpg", "image/jpeg", jpegFixture(t, 50, 50))

	outside := annotation.Polygon{ID: 1, Points: []annotation.Point{{X: 0, Y: 0}, {X: 60, Y: 0}, {X: 0, Y: 10}}}
	two := annotation.Polygon{ID: 2, Points: []annotation.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}}
	cases := []struct {
		name   string
		body   any
		status int
	}{
		{"missing image field", map[string]any{"polygons": []any{}}, http.StatusBadRequest},
		{"malformed", "{", http.StatusBadRequest},
		{"unknown image", ExportRequest{Image: "img-1-00000000.jpg"}, http.StatusNotFound},
		{"point outside", ExportRequest{Image: ok.ImageURL, Polygons: []annotation.Polygon{outside}}, http.StatusBadRequest},
		{"too few points", ExportRequest{Image: ok.ImageURL, Polygons: []annotation.Polygon{two}}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := h.client.R().
				SetHeader("Content-Type", "application/json").
				SetBody(tc.body).
				Post(h.srv.URL + "/export")
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode(), resp.String())
		})
	}
}

func TestStoredName(t *testing.T) {
	assert.Equal(t, "img-1-abcdef01.jpg", storedName("http://h:1/uploads/img-1-abcdef01.jpg"))
	assert.Equal(t, "img-1-abcdef01.jpg", storedName("img-1-abcdef01.jpg"))
}
