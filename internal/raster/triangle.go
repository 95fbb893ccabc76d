package raster

import (
	"image"
	"image/color"
	"math"

	"bvh-skin-renderer/internal/mathutil"
)

type fillMode int

const (
	fillDepth   fillMode = iota // z-tested and z-written
	fillOverlay                 // drawn over everything, alpha-blended by base.A
)

// corner is a projected triangle corner: screen x, y, depth, and UV.
type corner struct {
	p  mathutil.Vec3
	uv mathutil.Vec2
}

// rasterizeTriangle fills one screen-space triangle with flat shading.
//
// This is the hot path; nothing in the pixel loop allocates.
func rasterizeTriangle(fb *FrameBuffer, c [3]corner, tex *image.NRGBA, base color.NRGBA, shade float64, lc *LightConfig, mode fillMode) {
	x0, y0, z0 := c[0].p[0], c[0].p[1], c[0].p[2]
	x1, y1, z1 := c[1].p[0], c[1].p[1], c[1].p[2]
	x2, y2, z2 := c[2].p[0], c[2].p[1], c[2].p[2]

	minX := max(int(math.Min(math.Min(x0, x1), x2)), 0)
	maxX := min(int(math.Max(math.Max(x0, x1), x2))+1, fb.Width-1)
	minY := max(int(math.Min(math.Min(y0, y1), y2)), 0)
	maxY := min(int(math.Max(math.Max(y0, y1), y2))+1, fb.Height-1)
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	// Untextured faces shade once.
	flat := lc.Light(base, shade)
	alpha := float64(base.A) / 255

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) - y2
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			zIdx := rowOff + sx
			pxIdx := zIdx * 4

			if mode == fillOverlay {
				blendPixel(fb.Color[pxIdx:pxIdx+4], flat, alpha)
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			if z <= fb.ZBuf[zIdx] {
				continue
			}

			col := flat
			if tex != nil {
				uv := mathutil.Vec2{
					w0*c[0].uv[0] + w1*c[1].uv[0] + w2*c[2].uv[0],
					w0*c[0].uv[1] + w1*c[1].uv[1] + w2*c[2].uv[1],
				}
				texel := SampleTexture(tex, uv)
				// Skip transparent texels
				if texel.A < 8 {
					continue
				}
				col = lc.Light(texel, shade)
			}
			fb.ZBuf[zIdx] = z
			fb.Color[pxIdx] = col.R
			fb.Color[pxIdx+1] = col.G
			fb.Color[pxIdx+2] = col.B
			fb.Color[pxIdx+3] = col.A
		}
	}
}

// blendPixel composites c over the non-premultiplied pixel dst with coverage a.
func blendPixel(dst []uint8, c color.NRGBA, a float64) {
	da := float64(dst[3]) / 255
	outA := a + da*(1-a)
	if outA <= 0 {
		return
	}
	mix := func(src, d uint8) uint8 {
		return clamp255((float64(src)*a + float64(d)*da*(1-a)) / outA)
	}
	dst[0] = mix(c.R, dst[0])
	dst[1] = mix(c.G, dst[1])
	dst[2] = mix(c.B, dst[2])
	dst[3] = clamp255(outA * 255)
}
