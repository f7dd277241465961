package upload

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewName(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	a, b := NewName(at), NewName(at)
	assert.Regexp(t, `^img-1700000000123-[0-9a-f]{8}\.jpg$`, a)
	assert.NotEqual(t, a, b)
	assert.True(t, ValidName(a))
	for _, bad := range []string{"", "../img-1-abcdef01.jpg", "img-1-abcdef01.png", ".upload-123", "img-x-abcdef01.jpg"} {
		assert.False(t, ValidName(bad), bad)
	}
}

func TestStoreSaveAndImage(t *testing.T) {
	s, err := NewStore(t.TempDir(), 0)
	require.NoError(t, err)

	data := jpegFixture(t, 12, 6)
	name, n, err := s.Save(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file renamed into place")
	assert.Equal(t, name, entries[0].Name())

	img, err := s.Image(name)
	require.NoError(t, err)
	assert.Equal(t, 12, img.Bounds().Dx())

	cached, err := s.Image(name)
	require.NoError(t, err)
	assert.Same(t, img, cached)

	_, err = s.Image("img-1-00000000.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Path("../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)
}
