package raster

import (
	"image"
	"image/color"

	"bvh-skin-renderer/internal/mesh"
)

// Style holds the colors and lighting of a preview frame.
type Style struct {
	Light      LightConfig
	Background color.NRGBA
	MeshColor  color.NRGBA // used when the mesh has no texture
	BoneColor  color.NRGBA // alpha sets overlay opacity
}

// DefaultStyle returns a grey mesh with translucent green bones on a
// transparent background.
func DefaultStyle() Style {
	return Style{
		Light:     DefaultLightConfig(),
		MeshColor: color.NRGBA{160, 160, 170, 255},
		BoneColor: color.NRGBA{121, 207, 171, 190},
	}
}

// Frame is everything drawn in one image.
type Frame struct {
	Mesh    *mesh.Mesh
	Texture *image.NRGBA // optional
	Bones   *mesh.Mesh   // optional overlay, see BoneBoxes
}

// RenderFrame draws f through view into a new image of the view's size.
func RenderFrame(f Frame, view View, style Style) *image.NRGBA {
	fb := NewFrameBuffer(view.Width, view.Height)
	if style.Background.A > 0 {
		fb.Fill(style.Background)
	}
	if f.Mesh != nil {
		RenderMesh(fb, f.Mesh, view, f.Texture, style.MeshColor, &style.Light)
	}
	if f.Bones != nil {
		RenderOverlay(fb, f.Bones, view, style.BoneColor, &style.Light)
	}
	return fb.Image()
}

// RenderMesh rasterizes m into fb with depth testing. The texture is used
// only when m carries per-corner UVs; otherwise its average color stands in
// for base.
func RenderMesh(fb *FrameBuffer, m *mesh.Mesh, view View, tex *image.NRGBA, base color.NRGBA, lc *LightConfig) {
	useTex := tex != nil && m.HasTexCoords()
	if tex != nil && !useTex {
		base = averageColor(tex)
	}
	var sampler *image.NRGBA
	if useTex {
		sampler = tex
	}
	drawTriangles(fb, m, view, sampler, base, lc, fillDepth)
}

// RenderOverlay draws m on top of fb regardless of depth, blended by col.A.
func RenderOverlay(fb *FrameBuffer, m *mesh.Mesh, view View, col color.NRGBA, lc *LightConfig) {
	drawTriangles(fb, m, view, nil, col, lc, fillOverlay)
}

func drawTriangles(fb *FrameBuffer, m *mesh.Mesh, view View, tex *image.NRGBA, base color.NRGBA, lc *LightConfig, mode fillMode) {
	proj := view.ProjectAll(m.Positions)
	nv := len(m.Positions)

	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		if tri[0] >= nv || tri[1] >= nv || tri[2] >= nv {
			continue
		}
		p0, p1, p2 := m.Positions[tri[0]], m.Positions[tri[1]], m.Positions[tri[2]]
		n := view.Rot.MulVec3(p1.Sub(p0).Cross(p2.Sub(p0))).Normalize()
		if n.IsZero() {
			continue
		}
		shade := lc.ComputeShade(n)

		var c [3]corner
		for k, v := range tri {
			c[k].p = proj[v]
			if tex != nil {
				c[k].uv = m.TexCoords[3*t+k]
			}
		}
		rasterizeTriangle(fb, c, tex, base, shade, lc, mode)
	}
}

func averageColor(tex *image.NRGBA) color.NRGBA {
	b := tex.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return color.NRGBA{160, 160, 170, 255}
	}

	var sumR, sumG, sumB float64
	stride := tex.Stride
	for y := 0; y < h; y++ {
		off := y * stride
		for x := 0; x < w; x++ {
			i := off + x*4
			sumR += float64(tex.Pix[i])
			sumG += float64(tex.Pix[i+1])
			sumB += float64(tex.Pix[i+2])
		}
	}
	n := float64(w * h)
	return color.NRGBA{uint8(sumR/n + 0.5), uint8(sumG/n + 0.5), uint8(sumB/n + 0.5), 255}
}
