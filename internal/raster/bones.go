package raster

import (
	"iter"

	"bvh-skin-renderer/internal/mathutil"
	"bvh-skin-renderer/internal/mesh"
	"bvh-skin-renderer/internal/skeleton"
)

// Box corner layout, Y along the bone:
//
//	   3-----2
//	  /|    /|
//	 0 --- 1 |
//	 | 7 - | 6
//	 |/    |/
//	 4 --- 5
var boxIndices = [36]uint32{
	0, 1, 2, 0, 2, 3,
	1, 4, 0, 1, 4, 5,
	1, 6, 5, 1, 2, 6,
	2, 3, 7, 2, 6, 7,
	0, 3, 7, 0, 4, 7,
	4, 5, 6, 4, 6, 7,
}

// BoneBoxes builds one square-section box per bone, width wide and as long
// as the bone, after scaling segment endpoints by scale. Bones shorter than
// 1e-6 are skipped.
func BoneBoxes(segments iter.Seq[skeleton.Segment], scale, width float64) *mesh.Mesh {
	m := &mesh.Mesh{}
	for seg := range segments {
		a, b := seg.From.Scale(scale), seg.To.Scale(scale)
		axis := b.Sub(a)
		length := axis.Len()
		if length <= 1e-6 {
			continue
		}
		up := axis.Scale(1 / length)
		q := mathutil.QuatFromTo(mathutil.Vec3{0, 1, 0}, up)
		x := q.Rotate(mathutil.Vec3{0.5 * width, 0, 0})
		z := q.Rotate(mathutil.Vec3{0, 0, 0.5 * width})
		y := up.Scale(0.5 * length)
		c := a.Add(b).Scale(0.5)

		base := uint32(len(m.Positions))
		m.Positions = append(m.Positions,
			c.Sub(x).Add(y).Add(z),
			c.Add(x).Add(y).Add(z),
			c.Add(x).Add(y).Sub(z),
			c.Sub(x).Add(y).Sub(z),
			c.Sub(x).Sub(y).Add(z),
			c.Add(x).Sub(y).Add(z),
			c.Add(x).Sub(y).Sub(z),
			c.Sub(x).Sub(y).Sub(z),
		)
		for _, i := range boxIndices {
			m.Indices = append(m.Indices, base+i)
		}
	}
	return m
}
