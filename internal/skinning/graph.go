package skinning

import (
	"slices"

	"bvh-skin-renderer/internal/mathutil"
	"bvh-skin-renderer/internal/mesh"
)

// buildAdjacency returns the undirected vertex graph of the triangle edges,
// sorted and deduplicated per vertex. Out-of-range indices are ignored.
func buildAdjacency(m *mesh.Mesh) [][]int {
	n := len(m.Positions)
	nb := make([][]int, n)
	addEdge := func(a, b int) {
		if a >= n || b >= n {
			return
		}
		nb[a] = append(nb[a], b)
		nb[b] = append(nb[b], a)
	}
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		addEdge(tri[0], tri[1])
		addEdge(tri[1], tri[2])
		addEdge(tri[2], tri[0])
	}
	for i := range nb {
		slices.Sort(nb[i])
		nb[i] = slices.Compact(nb[i])
	}
	return nb
}

// buildComponents flood-fills the adjacency graph with an explicit stack.
// It returns the component id per vertex and the member list per component.
func buildComponents(nb [][]int) ([]int, [][]int) {
	compID := make([]int, len(nb))
	for i := range compID {
		compID[i] = -1
	}
	var comps [][]int
	var stack []int
	for seed := range nb {
		if compID[seed] != -1 {
			continue
		}
		cur := len(comps)
		var members []int
		compID[seed] = cur
		stack = append(stack[:0], seed)
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			members = append(members, v)
			for _, w := range nb[v] {
				if compID[w] != -1 {
					continue
				}
				compID[w] = cur
				stack = append(stack, w)
			}
		}
		comps = append(comps, members)
	}
	return compID, comps
}

// centroid returns the mean position of the given vertices.
func centroid(positions []mathutil.Vec3, members []int) mathutil.Vec3 {
	var c mathutil.Vec3
	if len(members) == 0 {
		return c
	}
	for _, v := range members {
		c = c.Add(positions[v])
	}
	return c.Scale(1 / float64(len(members)))
}

// distanceToSegment returns the distance from p to segment ab and the clamped
// projection parameter t. Zero-length segments measure to a.
func distanceToSegment(p, a, b mathutil.Vec3) (float64, float64) {
	ab := b.Sub(a)
	lenSq := ab.LenSq()
	if lenSq <= degenerateLenSq {
		return p.Sub(a).Len(), 0
	}
	t := p.Sub(a).Dot(ab) / lenSq
	t = min(max(t, 0), 1)
	return p.Sub(a.Add(ab.Scale(t))).Len(), t
}
