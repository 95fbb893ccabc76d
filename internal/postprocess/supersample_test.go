package postprocess

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDownsampleSize(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 64, 32))
	out := Downsample(src, 32, 16)
	assert.Equal(t, image.Rect(0, 0, 32, 16), out.Bounds())
}

func TestDownsampleSameSizeIsNoop(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	assert.Same(t, src, Downsample(src, 8, 8))
}

func TestDownsampleKeepsColorAtTransparentEdge(t *testing.T) {
	// Left half opaque red, right half fully transparent black.
	src := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 8; x++ {
			src.SetNRGBA(x, y, color.NRGBA{200, 0, 0, 255})
		}
	}
	out := Downsample(src, 8, 8)

	inside := out.NRGBAAt(1, 4)
	assert.InDelta(t, 200, int(inside.R), 2)
	assert.InDelta(t, 255, int(inside.A), 2)
	assert.Equal(t, uint8(0), out.NRGBAAt(6, 4).A)

	// A partly covered pixel near the edge stays red instead of darkening.
	edge := out.NRGBAAt(3, 4)
	assert.Less(t, edge.A, uint8(250))
	assert.Greater(t, edge.A, uint8(200))
	assert.InDelta(t, 200, int(edge.R), 3)
}
