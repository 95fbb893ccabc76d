package mesh

import (
	"fmt"
	"math"

	"bvh-skin-renderer/internal/mathutil"
)

// Mesh is an indexed triangle mesh. TexCoords, when present, are per corner
// (parallel to Indices) so that UV seams never duplicate positions.
type Mesh struct {
	Positions []mathutil.Vec3
	Normals   []mathutil.Vec3
	Indices   []uint32
	TexCoords []mathutil.Vec2
}

// TriangleCount returns the number of complete index triples.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// HasTexCoords reports whether every corner carries a UV.
func (m *Mesh) HasTexCoords() bool {
	return len(m.TexCoords) > 0 && len(m.TexCoords) == len(m.Indices)
}

// Triangle returns the vertex indices of triangle i.
func (m *Mesh) Triangle(i int) [3]int {
	return [3]int{int(m.Indices[3*i]), int(m.Indices[3*i+1]), int(m.Indices[3*i+2])}
}

// Clone returns a deep copy.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Positions: append([]mathutil.Vec3(nil), m.Positions...),
		Normals:   append([]mathutil.Vec3(nil), m.Normals...),
		Indices:   append([]uint32(nil), m.Indices...),
		TexCoords: append([]mathutil.Vec2(nil), m.TexCoords...),
	}
}

// Validate checks the index buffer against the vertex count.
func (m *Mesh) Validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("mesh: index count %d is not a multiple of 3", len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Positions) {
			return fmt.Errorf("mesh: index %d at %d out of range (%d vertices)", idx, i, len(m.Positions))
		}
	}
	if len(m.TexCoords) > 0 && len(m.TexCoords) != len(m.Indices) {
		return fmt.Errorf("mesh: %d texcoords for %d corners", len(m.TexCoords), len(m.Indices))
	}
	return nil
}

// ComputeNormals returns area-weighted vertex normals. Degenerate triangles and
// out-of-range indices contribute nothing; isolated vertices get a zero normal.
func (m *Mesh) ComputeNormals() []mathutil.Vec3 {
	normals := make([]mathutil.Vec3, len(m.Positions))
	nv := len(m.Positions)
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		if tri[0] >= nv || tri[1] >= nv || tri[2] >= nv {
			continue
		}
		p0, p1, p2 := m.Positions[tri[0]], m.Positions[tri[1]], m.Positions[tri[2]]
		// Cross product length is twice the area, so larger faces weigh more.
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		for _, v := range tri {
			normals[v] = normals[v].Add(n)
		}
	}
	for i := range normals {
		normals[i] = normals[i].Normalize()
	}
	return normals
}

// Bounds returns the axis-aligned bounding box of all positions.
// An empty mesh returns (+Inf, -Inf).
func (m *Mesh) Bounds() (mathutil.Vec3, mathutil.Vec3) {
	return BoundsOf(m.Positions)
}

// BoundsOf returns the axis-aligned bounding box of points.
func BoundsOf(points []mathutil.Vec3) (mathutil.Vec3, mathutil.Vec3) {
	lo := mathutil.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mathutil.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, p := range points {
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	return lo, hi
}
