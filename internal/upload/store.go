package upload

import (
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/example/polymark/internal/imagesource"
)

// DefaultCacheSize is the number of decoded images kept for exports.
const DefaultCacheSize = 16

var namePattern = regexp.MustCompile(`^img-[0-9]+-[0-9a-f]{8}\.jpg$`)

// NewName returns a collision-resistant stored name for an upload made at t.
func NewName(t time.Time) string {
	return fmt.Sprintf("img-%d-%s.jpg", t.UnixMilli(), uuid.NewString()[:8])
}

// ValidName reports whether name could have been produced by NewName.
func ValidName(name string) bool { return namePattern.MatchString(name) }

// Store keeps uploaded images on disk. It is safe for concurrent use.
type Store struct {
	dir   string
	cache *lru.Cache[string, image.Image]
	now   func() time.Time
}

// NewStore creates dir if needed and returns a store rooted there.
func NewStore(dir string, cacheSize int) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	cache, err := lru.New[string, image.Image](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("image cache: %w", err)
	}
	return &Store{dir: dir, cache: cache, now: time.Now}, nil
}

// Dir returns the directory holding stored files.
func (s *Store) Dir() string { return s.dir }

// Save writes r under a fresh name. The file appears atomically: readers
// never see a partial upload.
func (s *Store) Save(r io.Reader) (string, int64, error) {
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	n, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		cleanup()
		return "", 0, fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", 0, fmt.Errorf("close upload: %w", err)
	}
	name := NewName(s.now())
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		cleanup()
		return "", 0, fmt.Errorf("store upload: %w", err)
	}
	return name, n, nil
}

// Path returns the on-disk path of a stored name.
func (s *Store) Path(name string) (string, error) {
	if !ValidName(name) {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return "", err
	}
	return path, nil
}

// Image returns the decoded image for name, caching recent decodes.
func (s *Store) Image(name string) (image.Image, error) {
	if img, ok := s.cache.Get(name); ok {
		return img, nil
	}
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	img, err := imagesource.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	s.cache.Add(name, img)
	return img, nil
}
