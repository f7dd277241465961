// Package imagesource fetches the image to annotate from a URL or a local
// path and decodes it with EXIF orientation applied.
package imagesource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/go-resty/resty/v2"
)

// DefaultMaxBytes matches the upload service limit.
const DefaultMaxBytes = 10 << 20

var (
	// ErrTooLarge is returned when the source exceeds the configured limit.
	ErrTooLarge = errors.New("image too large")
	// ErrFetch is returned when a remote source answers with an error status.
	ErrFetch = errors.New("image fetch failed")
)

// Fetcher loads images by reference.
type Fetcher struct {
	client   *resty.Client
	maxBytes int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient replaces the HTTP client used for remote references.
func WithClient(c *resty.Client) Option { return func(f *Fetcher) { f.client = c } }

// WithMaxBytes sets the size limit for a single image.
func WithMaxBytes(n int64) Option { return func(f *Fetcher) { f.maxBytes = n } }

// New returns a Fetcher with a 30 second HTTP timeout.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   resty.New().SetTimeout(30 * time.Second),
		maxBytes: DefaultMaxBytes,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// IsRemote reports whether ref names an http(s) resource.
func IsRemote(ref string) bool {
	u, err := url.Parse(ref)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Bytes returns the raw encoded image named by ref.
func (f *Fetcher) Bytes(ctx context.Context, ref string) ([]byte, error) {
	if IsRemote(ref) {
		return f.fetch(ctx, ref)
	}
	return f.read(strings.TrimPrefix(ref, "file://"))
}

func (f *Fetcher) fetch(ctx context.Context, ref string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(ref)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", ref, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %s returned %s", ErrFetch, ref, resp.Status())
	}
	data := resp.Body()
	if err := f.checkSize(int64(len(data))); err != nil {
		return nil, err
	}
	return data, nil
}

func (f *Fetcher) read(path string) ([]byte, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	if st, err := fh.Stat(); err == nil {
		if err := f.checkSize(st.Size()); err != nil {
			return nil, err
		}
	}
	data, err := io.ReadAll(io.LimitReader(fh, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := f.checkSize(int64(len(data))); err != nil {
		return nil, err
	}
	return data, nil
}

func (f *Fetcher) checkSize(n int64) error {
	if f.maxBytes > 0 && n > f.maxBytes {
		return fmt.Errorf("%w: %s exceeds %s", ErrTooLarge, humanize.Bytes(uint64(n)), humanize.Bytes(uint64(f.maxBytes)))
	}
	return nil
}

// Load fetches and decodes the image named by ref.
func (f *Fetcher) Load(ctx context.Context, ref string) (image.Image, error) {
	data, err := f.Bytes(ctx, ref)
	if err != nil {
		return nil, err
	}
	img, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}
	return img, nil
}

// Decode decodes any registered image format, honouring EXIF orientation so
// the annotated pixels match what a browser shows.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
