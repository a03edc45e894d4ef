package document

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoding
	"image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"  // register BMP decoding
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF decoding
	_ "golang.org/x/image/webp" // register WebP decoding
)

// Image types handed to the layout engine.
const (
	imageTypeJPEG = "JPG"
	imageTypePNG  = "PNG"
)

// LoadedImage is an image normalised for embedding.
type LoadedImage struct {
	Data   []byte
	Type   string // JPG or PNG
	Format string // source format as reported by image.Decode
	Width  int
	Height int
}

// ImageLoader reads image files for the grid. It never modifies them.
type ImageLoader struct {
	maxSize int64
}

// NewImageLoader creates a loader rejecting files above maxSize bytes.
// A maxSize of 0 disables the limit.
func NewImageLoader(maxSize int64) *ImageLoader {
	return &ImageLoader{maxSize: maxSize}
}

// SupportedImageFormats lists the source formats the loader decodes.
func SupportedImageFormats() []string {
	return []string{"jpeg", "png", "gif", "bmp", "tiff", "webp"}
}

// Load reads and decodes path. JPEG data is passed through; every other
// format is re-encoded as 8-bit PNG. A missing file yields an error
// wrapping fs.ErrNotExist.
func (l *ImageLoader) Load(path string) (LoadedImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return LoadedImage{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return LoadedImage{}, err
	}
	if info.IsDir() {
		return LoadedImage{}, fmt.Errorf("%s is a directory", path)
	}
	if l.maxSize > 0 && info.Size() > l.maxSize {
		return LoadedImage{}, fmt.Errorf("image too large: %d bytes (max: %d bytes)", info.Size(), l.maxSize)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return LoadedImage{}, fmt.Errorf("read image: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return LoadedImage{}, fmt.Errorf("decode image: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return LoadedImage{}, fmt.Errorf("image has no pixels")
	}

	loaded := LoadedImage{
		Format: format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}
	if format == "jpeg" {
		loaded.Data = data
		loaded.Type = imageTypeJPEG
		return loaded, nil
	}

	pngData, err := encodePNG(img)
	if err != nil {
		return LoadedImage{}, err
	}
	loaded.Data = pngData
	loaded.Type = imageTypePNG
	return loaded, nil
}

// encodePNG writes img as a non-interlaced 8-bit RGBA PNG.
func encodePNG(img image.Image) ([]byte, error) {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
