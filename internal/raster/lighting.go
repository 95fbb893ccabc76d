package raster

import (
	"image/color"
	"math"

	"bvh-skin-renderer/internal/mathutil"
)

// LightConfig holds precomputed lighting parameters. Directions are in view
// space (camera looks down -Z, Y up).
type LightConfig struct {
	LightDir mathutil.Vec3
	RimDir   mathutil.Vec3
	ViewDir  mathutil.Vec3
	HalfMain mathutil.Vec3 // precomputed half-vector for Blinn-Phong
	Ambient  float64
	Hemi     float64
	Direct   float64
	Rim      float64
	SpecInt  float64
	SpecPow  float64
	Exposure float64
	InvGamma float64
}

// DefaultLightConfig returns a three-point studio setup: key from the upper
// right, cool rim from behind, hemisphere fill.
func DefaultLightConfig() LightConfig {
	lightDir := mathutil.Vec3{180, 260, 140}.Normalize()
	rimDir := mathutil.Vec3{-160, 130, -210}.Normalize()
	viewDir := mathutil.Vec3{0, -110, -400}.Normalize()

	return LightConfig{
		LightDir: lightDir,
		RimDir:   rimDir,
		ViewDir:  viewDir,
		HalfMain: lightDir.Sub(viewDir).Normalize(),
		Ambient:  0.55,
		Hemi:     0.50,
		Direct:   1.50,
		Rim:      0.60,
		SpecInt:  0.45,
		SpecPow:  12.0,
		Exposure: 1.05,
		InvGamma: 1.0 / 2.2,
	}
}

// ComputeShade returns the combined lighting scalar for a unit face normal.
// Faces are lit on both sides.
func (lc *LightConfig) ComputeShade(normal mathutil.Vec3) float64 {
	ndlMain := math.Abs(normal.Dot(lc.LightDir))
	ndlRim := math.Abs(normal.Dot(lc.RimDir))

	hemi := (1.0-math.Abs(normal[1]))*0.5 + 0.5

	ndh := max(normal.Dot(lc.HalfMain), 0)
	spec := math.Pow(ndh, lc.SpecPow) * lc.SpecInt

	return lc.Ambient + hemi*lc.Hemi + ndlMain*lc.Direct + ndlRim*lc.Rim + spec
}

// Light shades an sRGB color: decode to linear, scale by shade and exposure,
// ACES tone map, encode back to sRGB. Alpha passes through.
func (lc *LightConfig) Light(c color.NRGBA, shade float64) color.NRGBA {
	k := shade * lc.Exposure
	enc := func(v uint8) uint8 {
		return clamp255(math.Pow(ACESTonemap(srgbToLinear[v]*k), lc.InvGamma) * 255)
	}
	return color.NRGBA{enc(c.R), enc(c.G), enc(c.B), c.A}
}

// Precomputed sRGB-to-linear lookup table (256 entries).
var srgbToLinear [256]float64

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, 2.2)
	}
}

// ACESTonemap applies ACES Filmic tone mapping to a linear value.
func ACESTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
