package batch

import (
	"fmt"
	"image"
	"io"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
)

// Output formats.
const (
	FormatWebP = "webp"
	FormatTGA  = "tga"
)

// Encode writes img in the given format.
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case FormatWebP:
		if err := nativewebp.Encode(w, img, nil); err != nil {
			return fmt.Errorf("WebP encode: %w", err)
		}
	case FormatTGA:
		if err := tga.Encode(w, img); err != nil {
			return fmt.Errorf("TGA encode: %w", err)
		}
	default:
		return fmt.Errorf("batch: unknown output format %q", format)
	}
	return nil
}

// FrameName returns the output file name of image i.
func FrameName(i int, format string) string {
	return fmt.Sprintf("frame_%05d.%s", i, format)
}
