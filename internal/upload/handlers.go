package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"
	log "github.com/sirupsen/logrus"

	"github.com/example/polymark/internal/annotation"
	"github.com/example/polymark/internal/render"
)

// FieldName is the multipart field carrying the image.
const FieldName = "image"

// sniffLen is how much of the file filetype needs to recognise JPEG.
const sniffLen = 261

// Response is the body of a successful upload.
type Response struct {
	OK       bool   `json:"ok"`
	ImageURL string `json:"imageUrl"`
}

func (s *Server) fail(c *gin.Context, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	} else {
		s.log.WithError(err).WithField("path", c.Request.URL.Path).Debug("rejected")
	}
	c.JSON(status, apiError{Error: msg})
}

func (s *Server) handleUpload(c *gin.Context) {
	limit := s.maxBytes + multipartSlack
	if c.Request.ContentLength > limit {
		s.fail(c, fmt.Errorf("%w: request of %s", ErrTooLarge, humanize.Bytes(uint64(c.Request.ContentLength))))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	header, err := c.FormFile(FieldName)
	if err != nil {
		s.fail(c, err)
		return
	}
	if header.Size > s.maxBytes {
		s.fail(c, fmt.Errorf("%w: %s", ErrTooLarge, humanize.Bytes(uint64(header.Size))))
		return
	}
	if err := checkDeclared(header); err != nil {
		s.fail(c, err)
		return
	}

	f, err := header.Open()
	if err != nil {
		s.fail(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	body, err := sniff(f)
	if err != nil {
		s.fail(c, err)
		return
	}
	name, n, err := s.store.Save(body)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apiError{Error: msgServerError})
		return
	}

	imageURL := s.baseURL(c.Request) + "/uploads/" + name
	s.log.WithFields(log.Fields{"name": name, "size": humanize.Bytes(uint64(n)), "original": header.Filename}).Info("stored upload")
	if s.onUpload != nil {
		s.onUpload(imageURL)
	}
	c.JSON(http.StatusCreated, Response{OK: true, ImageURL: imageURL})
}

// checkDeclared applies the extension and MIME rules to what the client sent.
func checkDeclared(h *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(h.Filename))
	if ext != ".jpg" && ext != ".jpeg" {
		return fmt.Errorf("%w: extension %q", ErrNotJPEG, ext)
	}
	if ct := h.Header.Get("Content-Type"); ct != "image/jpeg" {
		return fmt.Errorf("%w: content type %q", ErrNotJPEG, ct)
	}
	return nil
}

// sniff confirms the content really is JPEG and returns a reader over the
// whole file.
func sniff(r io.Reader) (io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	kind, _ := filetype.Match(head)
	if kind.MIME.Value != "image/jpeg" {
		return nil, fmt.Errorf("%w: content sniffed as %q", ErrNotJPEG, kind.MIME.Value)
	}
	return io.MultiReader(bytes.NewReader(head), r), nil
}

func (s *Server) handleFile(c *gin.Context) {
	p, err := s.store.Path(c.Param("name"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.File(p)
}

// ExportRequest is the body of POST /export.
type ExportRequest struct {
	Image    string               `json:"image" binding:"required"`
	Polygons []annotation.Polygon `json:"polygons"`
}

// storedName accepts either a bare stored name or an imageUrl returned by
// /upload.
func storedName(ref string) string {
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return ref
}

func (s *Server) handleExport(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Error: "Invalid export request."})
		return
	}
	img, err := s.store.Image(storedName(req.Image))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.fail(c, err)
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apiError{Error: msgServerError})
		return
	}
	if err := annotation.Validate(req.Polygons, img.Bounds().Size()); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := render.EncodeExport(&buf, img, req.Polygons); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apiError{Error: msgServerError})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", render.ExportFilename))
	c.Data(http.StatusOK, render.ExportContentType, buf.Bytes())
}
