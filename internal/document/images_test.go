package document

import (
	"bytes"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageLoader_Load(t *testing.T) {
	dir := t.TempDir()
	loader := NewImageLoader(0)

	t.Run("png is re-encoded", func(t *testing.T) {
		img, err := loader.Load(writePNG(t, dir, "a.png", 40, 20))
		require.NoError(t, err)
		assert.Equal(t, imageTypePNG, img.Type)
		assert.Equal(t, "png", img.Format)
		assert.Equal(t, 40, img.Width)
		assert.Equal(t, 20, img.Height)

		cfg, err := png.DecodeConfig(bytes.NewReader(img.Data))
		require.NoError(t, err)
		assert.Equal(t, 40, cfg.Width)
	})

	t.Run("jpeg passes through", func(t *testing.T) {
		path := writeJPEG(t, dir, "b.jpg", 30, 60)
		raw, err := os.ReadFile(path)
		require.NoError(t, err)

		img, err := loader.Load(path)
		require.NoError(t, err)
		assert.Equal(t, imageTypeJPEG, img.Type)
		assert.Equal(t, raw, img.Data)
		assert.Equal(t, 60, img.Height)
	})

	t.Run("bmp is converted", func(t *testing.T) {
		img, err := loader.Load(writeBMP(t, dir, "c.bmp", 8, 8))
		require.NoError(t, err)
		assert.Equal(t, "bmp", img.Format)
		assert.Equal(t, imageTypePNG, img.Type)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loader.Load(filepath.Join(dir, "nope.png"))
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("not an image", func(t *testing.T) {
		_, err := loader.Load(writeFixture(t, dir, "d.png", []byte("plain text")))
		require.Error(t, err)
		assert.NotErrorIs(t, err, fs.ErrNotExist)
		assert.Contains(t, err.Error(), "decode image")
	})

	t.Run("directory", func(t *testing.T) {
		_, err := loader.Load(dir)
		assert.ErrorContains(t, err, "is a directory")
	})
}

func TestImageLoader_MaxSize(t *testing.T) {
	path := writePNG(t, t.TempDir(), "big.png", 64, 64)

	_, err := NewImageLoader(10).Load(path)
	assert.ErrorContains(t, err, "image too large")
}

func TestImageLoader_LeavesFilesUntouched(t *testing.T) {
	path := writePNG(t, t.TempDir(), "a.png", 10, 10)
	before, err := os.Stat(path)
	require.NoError(t, err)

	_, err = NewImageLoader(0).Load(path)
	require.NoError(t, err)

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
	assert.Equal(t, before.Size(), after.Size())
}

func TestSupportedImageFormats(t *testing.T) {
	assert.Contains(t, SupportedImageFormats(), "webp")
	assert.Contains(t, SupportedImageFormats(), "jpeg")
}
