package texture

import (
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
)

// Load reads a TGA, PNG or JPEG file and returns an NRGBA image.
func Load(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("texture: open %s: %w", path, err)
	}
	defer f.Close()

	img, err := Decode(f, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("texture: %s: %w", path, err)
	}
	return img, nil
}

// Decode reads an image, choosing the decoder by ext. The tga package
// registers with an empty magic string, so image.Decode would hand it
// every format.
func Decode(r io.Reader, ext string) (*image.NRGBA, error) {
	var (
		img image.Image
		err error
	)
	switch strings.ToLower(ext) {
	case ".tga":
		img, err = tga.Decode(r)
	case ".png":
		img, err = png.Decode(r)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(r)
	default:
		return nil, fmt.Errorf("unsupported texture format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return toNRGBA(img), nil
}

// toNRGBA converts any image to a zero-origin NRGBA.
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
