package upload

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/example/polymark/internal/render"
)

// StatusError is returned by Client when the service answers with a failure.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upload service: status %d", e.Status)
	}
	return fmt.Sprintf("upload service: %s (status %d)", e.Message, e.Status)
}

// Client talks to a running upload service.
type Client struct {
	http *resty.Client
}

// NewClient returns a client for the service rooted at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{http: resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(60 * time.Second)}
}

// Upload sends a JPEG and returns the URL it is served from.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	var ok Response
	var fail apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&ok).
		SetError(&fail).
		SetMultipartField(FieldName, filename, render.ExportContentType, r).
		Post("/upload")
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	if resp.IsError() {
		return "", &StatusError{Status: resp.StatusCode(), Message: fail.Error}
	}
	return ok.ImageURL, nil
}

// Export asks the service to render req and returns the JPEG bytes.
func (c *Client) Export(ctx context.Context, req ExportRequest) ([]byte, error) {
	var fail apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetError(&fail).
		Post("/export")
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if resp.IsError() {
		return nil, &StatusError{Status: resp.StatusCode(), Message: fail.Error}
	}
	return resp.Body(), nil
}
