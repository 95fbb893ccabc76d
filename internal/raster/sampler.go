package raster

import (
	"image"
	"image/color"

	"bvh-skin-renderer/internal/mathutil"
)

// SampleTexture performs bilinear filtering with UV wrapping. V runs bottom
// to top as in OBJ files, so it is flipped against image rows.
// Accesses tex.Pix directly for performance.
func SampleTexture(tex *image.NRGBA, uv mathutil.Vec2) color.NRGBA {
	w := tex.Rect.Dx()
	h := tex.Rect.Dy()
	if w == 0 || h == 0 {
		return color.NRGBA{}
	}

	u := wrap01(uv[0])
	v := 1 - wrap01(uv[1])

	fx := u * float64(w-1)
	fy := v * float64(h-1)
	x0 := int(fx)
	y0 := int(fy)
	x1 := (x0 + 1) % w
	y1 := (y0 + 1) % h
	dx := fx - float64(x0)
	dy := fy - float64(y0)

	stride := tex.Stride
	pix := tex.Pix

	i00 := y0*stride + x0*4
	i10 := y0*stride + x1*4
	i01 := y1*stride + x0*4
	i11 := y1*stride + x1*4

	w00 := (1 - dx) * (1 - dy)
	w10 := dx * (1 - dy)
	w01 := (1 - dx) * dy
	w11 := dx * dy

	var out [4]uint8
	for c := 0; c < 4; c++ {
		f := float64(pix[i00+c])*w00 + float64(pix[i10+c])*w10 + float64(pix[i01+c])*w01 + float64(pix[i11+c])*w11
		out[c] = uint8(f + 0.5)
	}
	return color.NRGBA{out[0], out[1], out[2], out[3]}
}

func wrap01(x float64) float64 {
	x -= float64(int(x))
	if x < 0 {
		x += 1
	}
	return x
}
