package skinning

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"bvh-skin-renderer/internal/mathutil"
	"bvh-skin-renderer/internal/mesh"
	"bvh-skin-renderer/internal/skeleton"
)

// JointMatrices returns, in canonical order, each joint's bind-to-world
// matrix translate(scale·globalPos) × rotate(globalRot) and the scaled
// global position.
func JointMatrices(skel *skeleton.Skeleton, scale float64) ([]mathutil.Mat4, []mathutil.Vec3) {
	order := skel.DFSJoints()
	mats := make([]mathutil.Mat4, len(order))
	pos := make([]mathutil.Vec3, len(order))
	for i, id := range order {
		j, _ := skel.Joint(id)
		pos[i] = j.GlobalTranslation.Scale(scale)
		mats[i] = mathutil.FromTranslationQuat(pos[i], j.GlobalRotation)
	}
	return mats, pos
}

// Solve computes automatic skinning weights for bind against frame 0 of
// motion. The bind skeleton is scaled by scale to match the mesh units.
//
// Weights come from a distance falloff to every eligible bone segment,
// smoothed by heat diffusion over the mesh graph, then reduced to the
// MaxInfluences strongest joints and normalized. A vertex that ends up with
// no qualifying joint is bound rigidly to its nearest eligible joint.
func Solve(bind *mesh.Mesh, motion *skeleton.Motion, scale float64, opts Options) (*Result, error) {
	if bind == nil || len(bind.Positions) == 0 {
		return nil, fmt.Errorf("%w: mesh has no vertices", ErrEmptyInput)
	}
	skel, ok := motion.Frame(0)
	if !ok {
		return nil, fmt.Errorf("%w: motion has no frames", ErrEmptyInput)
	}
	mats, bindPos := JointMatrices(skel, scale)
	if len(bindPos) == 0 {
		return nil, fmt.Errorf("%w: skeleton has no joints", ErrEmptyInput)
	}
	opts = opts.Clamp()

	inv := make([]mathutil.Mat4, len(mats))
	for i, m := range mats {
		inv[i] = m.InverseAffine()
	}
	segments := skel.SegmentIndices()

	positions := bind.Positions
	vcount, jcount := len(positions), len(bindPos)

	neighbors := buildAdjacency(bind)
	compID, comps := buildComponents(neighbors)
	allowed := eligibility(positions, comps, segments, bindPos, opts.ComponentMaxJoints)
	eligibleFor := func(v int) []bool {
		if allowed == nil {
			return nil
		}
		return allowed[compID[v]]
	}

	// field[j*vcount+v] is joint j's weight at vertex v.
	field := make([]float64, jcount*vcount)
	nearest := make([]int, vcount)
	for v, p := range positions {
		nearest[v] = rawWeights(p, segments, bindPos, eligibleFor(v), field, v, vcount)
	}

	if opts.HeatIterations > 0 {
		diffuse(field, neighbors, positions, bindPos, opts)
	}

	influences := make([]Influence, vcount)
	for v, p := range positions {
		influences[v] = selectInfluences(field, v, vcount, jcount, eligibleFor(v), p, bindPos)
	}

	return &Result{
		Influences:     influences,
		InverseBind:    inv,
		BindPositions:  bindPos,
		Components:     compID,
		ComponentCount: len(comps),
		NearestSegment: nearest,
	}, nil
}

// eligibility ranks bone segments by distance to each component's centroid
// and admits their endpoint joints until the cap is reached. Both endpoints
// of a segment are admitted before the cap is checked. A component that
// admits nothing gets every joint. Returns nil when the restriction is off.
func eligibility(positions []mathutil.Vec3, comps [][]int, segments [][2]int, bindPos []mathutil.Vec3, maxJoints int) [][]bool {
	if maxJoints <= 0 || len(segments) == 0 {
		return nil
	}
	jcount := len(bindPos)
	limit := min(maxJoints, jcount)

	type ranked struct {
		dist float64
		seg  int
	}
	allowed := make([][]bool, len(comps))
	order := make([]ranked, 0, len(segments))
	for c, members := range comps {
		allowed[c] = make([]bool, jcount)
		center := centroid(positions, members)

		order = order[:0]
		for s, seg := range segments {
			if seg[0] >= jcount || seg[1] >= jcount {
				continue
			}
			d, _ := distanceToSegment(center, bindPos[seg[0]], bindPos[seg[1]])
			order = append(order, ranked{d, s})
		}
		slices.SortStableFunc(order, func(a, b ranked) int { return cmp.Compare(a.dist, b.dist) })

		count := 0
		for _, r := range order {
			for _, j := range segments[r.seg] {
				if !allowed[c][j] {
					allowed[c][j] = true
					count++
				}
			}
			if count >= limit {
				break
			}
		}
		if count == 0 {
			for j := range allowed[c] {
				allowed[c][j] = true
			}
		}
	}
	return allowed
}

// rawWeights accumulates the segment falloff weights of vertex v into field
// and returns the index of the nearest eligible segment, or -1.
func rawWeights(p mathutil.Vec3, segments [][2]int, bindPos []mathutil.Vec3, allowed []bool, field []float64, v, vcount int) int {
	jcount := len(bindPos)
	nearest, nearestDist := -1, math.MaxFloat64
	for s, seg := range segments {
		a, b := seg[0], seg[1]
		if a >= jcount || b >= jcount {
			continue
		}
		if allowed != nil && !allowed[a] && !allowed[b] {
			continue
		}
		d, t := distanceToSegment(p, bindPos[a], bindPos[b])
		if d < nearestDist {
			nearest, nearestDist = s, d
		}
		w := math.Pow(max(0, 1-d/WeightRadius), FalloffPower)
		if w <= 0 {
			continue
		}
		if allowed == nil || allowed[a] {
			field[a*vcount+v] += (1 - t) * w
		}
		if allowed == nil || allowed[b] {
			field[b*vcount+v] += t * w
		}
	}
	return nearest
}

// diffuse runs Jacobi-style neighbor averaging on each joint's weight field.
// Vertices within the anchor radius of the joint, and vertices without
// neighbors, keep their value.
func diffuse(field []float64, neighbors [][]int, positions, bindPos []mathutil.Vec3, opts Options) {
	vcount := len(positions)
	lambda := opts.HeatLambda
	r2 := opts.HeatAnchorRadius * opts.HeatAnchorRadius
	anchored := make([]bool, vcount)
	tmp := make([]float64, vcount)

	for j, jp := range bindPos {
		clear(anchored)
		if opts.HeatAnchorRadius > 0 {
			for v, p := range positions {
				anchored[v] = p.Sub(jp).LenSq() <= r2
			}
		}
		cur := field[j*vcount : (j+1)*vcount]
		for range opts.HeatIterations {
			for v := range cur {
				nb := neighbors[v]
				if anchored[v] || len(nb) == 0 {
					tmp[v] = cur[v]
					continue
				}
				sum := 0.0
				for _, w := range nb {
					sum += cur[w]
				}
				tmp[v] = (1-lambda)*cur[v] + lambda*sum/float64(len(nb))
			}
			copy(cur, tmp)
		}
	}
}

// selectInfluences keeps the strongest eligible weights at or above
// MinWeight and normalizes them. With none left, the nearest eligible joint
// gets the whole vertex.
func selectInfluences(field []float64, v, vcount, jcount int, allowed []bool, p mathutil.Vec3, bindPos []mathutil.Vec3) Influence {
	best := emptyInfluence()
	for j := 0; j < jcount; j++ {
		if allowed != nil && !allowed[j] {
			continue
		}
		w := field[j*vcount+v]
		if w < MinWeight {
			continue
		}
		for k := 0; k < MaxInfluences; k++ {
			if w > best.Weights[k] {
				copy(best.Weights[k+1:], best.Weights[k:MaxInfluences-1])
				copy(best.Joints[k+1:], best.Joints[k:MaxInfluences-1])
				best.Weights[k], best.Joints[k] = w, j
				break
			}
		}
	}

	if sum := best.Sum(); sum > 0 {
		for k := range best.Weights {
			best.Weights[k] /= sum
		}
		return best
	}

	out := emptyInfluence()
	nearest, nearestDist := -1, math.MaxFloat64
	for j := 0; j < jcount; j++ {
		if allowed != nil && !allowed[j] {
			continue
		}
		if d := p.Sub(bindPos[j]).LenSq(); d < nearestDist {
			nearest, nearestDist = j, d
		}
	}
	if nearest >= 0 {
		out.Joints[0], out.Weights[0] = nearest, 1
	}
	return out
}
