// Package upload is the HTTP service that accepts JPEG uploads, serves them
// back and renders annotated exports.
package upload

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// MaxUploadBytes is the largest accepted image.
const MaxUploadBytes = 10 << 20

// multipartSlack covers the multipart framing around the file itself.
const multipartSlack = 64 << 10

// Server wires the store to a gin router.
type Server struct {
	store     *Store
	log       log.FieldLogger
	publicURL string
	maxBytes  int64
	onUpload  func(url string)
	engine    *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l log.FieldLogger) Option { return func(s *Server) { s.log = l } }

// WithPublicURL fixes the base of returned image URLs, for servers behind a
// proxy. Without it the request's scheme and host are used.
func WithPublicURL(u string) Option {
	return func(s *Server) { s.publicURL = strings.TrimRight(u, "/") }
}

// WithMaxBytes overrides the upload size limit.
func WithMaxBytes(n int64) Option { return func(s *Server) { s.maxBytes = n } }

// WithUploadHook registers fn to run after each successful upload.
func WithUploadHook(fn func(url string)) Option { return func(s *Server) { s.onUpload = fn } }

// New builds the router.
func New(store *Store, opts ...Option) *Server {
	s := &Server{store: store, log: log.StandardLogger(), maxBytes: MaxUploadBytes}
	for _, o := range opts {
		o(s)
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = s.maxBytes + multipartSlack
	r.Use(gin.Recovery(), RequestLogger(s.log), cors())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.POST("/upload", s.handleUpload)
	r.GET("/uploads/:name", s.handleFile)
	r.HEAD("/uploads/:name", s.handleFile)
	r.POST("/export", s.handleExport)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, apiError{Error: "Not found."})
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.WithFields(log.Fields{"addr": addr, "dir": s.store.Dir()}).Info("upload server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("upload server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// baseURL is the absolute prefix of returned image URLs.
func (s *Server) baseURL(r *http.Request) string {
	if s.publicURL != "" {
		return s.publicURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + r.Host
}
