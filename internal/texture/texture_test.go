package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checker() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	img.SetNRGBA(1, 0, color.NRGBA{0, 255, 0, 255})
	img.SetNRGBA(0, 1, color.NRGBA{0, 0, 255, 255})
	img.SetNRGBA(1, 1, color.NRGBA{255, 255, 255, 128})
	return img
}

func writeImage(t *testing.T, name string, enc func(*bytes.Buffer) error) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, enc(&buf))
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestLoadPNG(t *testing.T) {
	path := writeImage(t, "skin.png", func(b *bytes.Buffer) error { return png.Encode(b, checker()) })
	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, checker().Pix, img.Pix)
}

func TestLoadJPEG(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(src.Pix); i += 4 {
		copy(src.Pix[i:], []uint8{200, 120, 40, 255})
	}
	for _, name := range []string{"skin.jpg", "skin.JPEG"} {
		path := writeImage(t, name, func(b *bytes.Buffer) error { return jpeg.Encode(b, src, nil) })
		img, err := Load(path)
		require.NoError(t, err, name)
		assert.Equal(t, image.Rect(0, 0, 8, 8), img.Bounds())
		c := img.NRGBAAt(3, 3)
		assert.InDelta(t, 200, int(c.R), 8)
		assert.InDelta(t, 120, int(c.G), 8)
		assert.InDelta(t, 40, int(c.B), 8)
		assert.Equal(t, uint8(255), c.A)
	}
}

func TestLoadTGA(t *testing.T) {
	path := writeImage(t, "skin.TGA", func(b *bytes.Buffer) error { return tga.Encode(b, checker()) })
	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
	assert.Equal(t, color.NRGBA{0, 255, 0, 255}, img.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{0, 0, 255, 255}, img.NRGBAAt(0, 1))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := writeImage(t, "skin.bmp", func(b *bytes.Buffer) error { return png.Encode(b, checker()) })
	_, err = Load(path)
	assert.ErrorContains(t, err, "unsupported")

	path = writeImage(t, "broken.png", func(b *bytes.Buffer) error { _, err := b.WriteString("not a png"); return err })
	_, err = Load(path)
	assert.ErrorContains(t, err, "decode")
}

func TestToNRGBAResetsOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 7, 6))
	src.Set(5, 5, color.RGBA{10, 20, 30, 255})
	out := toNRGBA(src)
	assert.Equal(t, image.Rect(0, 0, 2, 1), out.Bounds())
	assert.Equal(t, color.NRGBA{10, 20, 30, 255}, out.NRGBAAt(0, 0))
}

func TestCacheLoadsOnce(t *testing.T) {
	path := writeImage(t, "skin.png", func(b *bytes.Buffer) error { return png.Encode(b, checker()) })
	c := NewCache()

	var wg sync.WaitGroup
	results := make([]*image.NRGBA, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			img, err := c.Get(path)
			assert.NoError(t, err)
			results[i] = img
		}()
	}
	wg.Wait()

	for _, img := range results[1:] {
		assert.Same(t, results[0], img)
	}
	assert.Equal(t, 1, c.Len())

	// Errors are remembered as well.
	missing := filepath.Join(t.TempDir(), "gone.png")
	_, err1 := c.Get(missing)
	_, err2 := c.Get(missing)
	assert.Error(t, err1)
	assert.Equal(t, err1, err2)
	assert.Equal(t, 2, c.Len())
}
