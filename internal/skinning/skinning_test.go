package skinning

import (
	"math"
	"strings"
	"testing"

	"bvh-skin-renderer/internal/bvh"
	"bvh-skin-renderer/internal/mathutil"
	"bvh-skin-renderer/internal/mesh"
	"bvh-skin-renderer/internal/skeleton"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Root at the origin, Child one unit up. Frame 0 is the identity pose,
// frame 1 turns the root 90 degrees about Z.
const twoJointChain = `HIERARCHY
ROOT Root
{
	OFFSET 0 0 0
	CHANNELS 3 Zrotation Xrotation Yrotation
	JOINT Child
	{
		OFFSET 0 1 0
		CHANNELS 3 Zrotation Xrotation Yrotation
	}
}
MOTION
Frames: 2
Frame Time: 0.1
0 0 0 0 0 0
90 0 0 0 0 0
`

// Same chain with an end site at (0,2,0).
const threeJointChain = `HIERARCHY
ROOT Root
{
	OFFSET 0 0 0
	CHANNELS 3 Zrotation Xrotation Yrotation
	JOINT Child
	{
		OFFSET 0 1 0
		CHANNELS 3 Zrotation Xrotation Yrotation
		End Site
		{
			OFFSET 0 1 0
		}
	}
}
MOTION
Frames: 2
Frame Time: 0.1
0 0 0 0 0 0
0 0 0 45 0 0
`

// Two bones pointing left and right from the origin.
const star = `HIERARCHY
ROOT Root
{
	OFFSET 0 0 0
	CHANNELS 3 Zrotation Xrotation Yrotation
	JOINT Left
	{
		OFFSET -2 0 0
		CHANNELS 3 Zrotation Xrotation Yrotation
	}
	JOINT Right
	{
		OFFSET 2 0 0
		CHANNELS 3 Zrotation Xrotation Yrotation
	}
}
MOTION
Frames: 1
Frame Time: 0.1
0 0 0 0 0 0 0 0 0
`

func loadMotion(t *testing.T, src string) *skeleton.Motion {
	t.Helper()
	clip, err := bvh.Parse(strings.NewReader(src), bvh.Options{})
	require.NoError(t, err)
	m, err := clip.Motion()
	require.NoError(t, err)
	return m
}

// grid builds an nx×ny quad grid in the z=0 plane.
func grid(nx, ny int, x0, x1, y0, y1 float64) *mesh.Mesh {
	m := &mesh.Mesh{}
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			x := x0 + (x1-x0)*float64(i)/float64(nx)
			y := y0 + (y1-y0)*float64(j)/float64(ny)
			m.Positions = append(m.Positions, mathutil.Vec3{x, y, 0})
		}
	}
	at := func(i, j int) uint32 { return uint32(j*(nx+1) + i) }
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			m.Indices = append(m.Indices,
				at(i, j), at(i+1, j), at(i+1, j+1),
				at(i, j), at(i+1, j+1), at(i, j+1))
		}
	}
	m.Normals = m.ComputeNormals()
	return m
}

func triangle(a, b, c mathutil.Vec3) *mesh.Mesh {
	m := &mesh.Mesh{
		Positions: []mathutil.Vec3{a, b, c},
		Indices:   []uint32{0, 1, 2},
	}
	m.Normals = m.ComputeNormals()
	return m
}

func assertVec3InDelta(t *testing.T, want, got mathutil.Vec3, delta float64) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], delta, "component %d of %v", i, got)
	}
}

func TestEndToEndTwoJointChain(t *testing.T) {
	motion := loadMotion(t, twoJointChain)
	bind := triangle(
		mathutil.Vec3{0.1, 1, 0},
		mathutil.Vec3{-0.1, 1, 0.05},
		mathutil.Vec3{0, 1.05, -0.1},
	)

	res, err := Solve(bind, motion, 1, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Influences, 3)
	require.Len(t, res.InverseBind, 2)

	for v, inf := range res.Influences {
		assert.Equal(t, 1, inf.Dominant(), "vertex %d", v)
		assert.InDelta(t, 1.0, inf.Sum(), 1e-4)
	}

	posed, err := Apply(bind, motion, 0, 1, res.Influences, res.InverseBind)
	require.NoError(t, err)
	for v := range bind.Positions {
		assertVec3InDelta(t, bind.Positions[v], posed.Positions[v], 1e-9)
	}
}

func TestApplyFollowsRootRotation(t *testing.T) {
	motion := loadMotion(t, twoJointChain)
	bind := triangle(
		mathutil.Vec3{0.1, 1, 0},
		mathutil.Vec3{-0.1, 1, 0.05},
		mathutil.Vec3{0, 1.05, -0.1},
	)
	res, err := Solve(bind, motion, 1, DefaultOptions())
	require.NoError(t, err)

	posed, err := Apply(bind, motion, 1, 1, res.Influences, res.InverseBind)
	require.NoError(t, err)

	rz := mathutil.RotZ(math.Pi / 2)
	for v, p := range bind.Positions {
		assertVec3InDelta(t, rz.MulVec3(p), posed.Positions[v], 1e-9)
	}
	// Bind mesh untouched.
	assert.Equal(t, mathutil.Vec3{0.1, 1, 0}, bind.Positions[0])
	require.Len(t, posed.Normals, 3)
	assert.InDelta(t, 1.0, posed.Normals[0].Len(), 1e-9)
}

func TestWeightsNormalizedWithFallback(t *testing.T) {
	motion := loadMotion(t, threeJointChain)
	bind := grid(6, 12, -0.9, 0.9, -0.5, 2.5)

	for _, opts := range []Options{
		DefaultOptions(),
		{},
		{HeatIterations: 5, HeatLambda: 1, ComponentMaxJoints: 1},
	} {
		res, err := Solve(bind, motion, 1, opts)
		require.NoError(t, err)
		require.Len(t, res.Influences, len(bind.Positions))
		for v, inf := range res.Influences {
			require.GreaterOrEqual(t, inf.Joints[0], 0, "vertex %d has no joint", v)
			assert.InDelta(t, 1.0, inf.Sum(), 1e-4, "vertex %d", v)
			for k, w := range inf.Weights {
				assert.GreaterOrEqual(t, w, 0.0)
				if inf.Joints[k] < 0 {
					assert.Zero(t, w)
				}
			}
		}
	}
}

func TestFarVertexFallsBackToNearestJoint(t *testing.T) {
	motion := loadMotion(t, twoJointChain)
	// Every vertex is well outside the weight radius.
	bind := triangle(
		mathutil.Vec3{5, 1, 0},
		mathutil.Vec3{5.2, 1, 0},
		mathutil.Vec3{5, 1.2, 0},
	)
	res, err := Solve(bind, motion, 1, Options{})
	require.NoError(t, err)
	for _, inf := range res.Influences {
		assert.Equal(t, [MaxInfluences]int{1, -1, -1, -1}, inf.Joints)
		assert.Equal(t, [MaxInfluences]float64{1, 0, 0, 0}, inf.Weights)
	}
}

func TestComponentIsolation(t *testing.T) {
	motion := loadMotion(t, star)
	left := []mathutil.Vec3{{-1.9, 0.1, 0}, {-1.8, -0.1, 0}, {-2.0, -0.1, 0.1}}
	right := []mathutil.Vec3{{1.9, 0.1, 0}, {2.0, -0.1, 0.1}, {1.8, -0.1, 0}}
	bind := &mesh.Mesh{
		Positions: append(append([]mathutil.Vec3{}, left...), right...),
		Indices:   []uint32{0, 1, 2, 3, 4, 5},
	}

	opts := DefaultOptions()
	opts.ComponentMaxJoints = 1
	res, err := Solve(bind, motion, 1, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ComponentCount)
	assert.Equal(t, []int{0, 0, 0, 1, 1, 1}, res.Components)

	// Canonical order: Root 0, Left 1, Right 2.
	for v := 0; v < 3; v++ {
		assert.Equal(t, 1, res.Influences[v].Dominant(), "left vertex %d", v)
		assert.NotContains(t, res.Influences[v].Joints, 2)
		assert.Equal(t, 0, res.NearestSegment[v])
	}
	for v := 3; v < 6; v++ {
		assert.Equal(t, 2, res.Influences[v].Dominant(), "right vertex %d", v)
		assert.NotContains(t, res.Influences[v].Joints, 1)
		assert.Equal(t, 1, res.NearestSegment[v])
	}
}

func TestDeformIsDeterministic(t *testing.T) {
	motion := loadMotion(t, threeJointChain)
	bind := grid(4, 8, -0.3, 0.3, 0, 2)
	res, err := Solve(bind, motion, 1, DefaultOptions())
	require.NoError(t, err)

	a, err := Apply(bind, motion, 1, 1, res.Influences, res.InverseBind)
	require.NoError(t, err)
	b, err := Apply(bind, motion, 1, 1, res.Influences, res.InverseBind)
	require.NoError(t, err)
	assert.Equal(t, a.Positions, b.Positions)
	assert.Equal(t, a.Normals, b.Normals)
}

func TestSolveScalesBindPose(t *testing.T) {
	motion := loadMotion(t, twoJointChain)
	bind := triangle(
		mathutil.Vec3{0.1, 2, 0},
		mathutil.Vec3{-0.1, 2, 0},
		mathutil.Vec3{0, 2.1, 0},
	)
	res, err := Solve(bind, motion, 2, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []mathutil.Vec3{{0, 0, 0}, {0, 2, 0}}, res.BindPositions)
	assertVec3InDelta(t, mathutil.Vec3{}, res.InverseBind[1].MulPoint(mathutil.Vec3{0, 2, 0}), 1e-12)
}

func TestSolveEmptyInput(t *testing.T) {
	motion := loadMotion(t, twoJointChain)
	empty, err := skeleton.NewMotion(nil, 0.1)
	require.NoError(t, err)
	tri := triangle(mathutil.Vec3{}, mathutil.Vec3{1, 0, 0}, mathutil.Vec3{0, 1, 0})

	tests := []struct {
		name   string
		mesh   *mesh.Mesh
		motion *skeleton.Motion
	}{
		{"nil mesh", nil, motion},
		{"no vertices", &mesh.Mesh{}, motion},
		{"nil motion", tri, nil},
		{"no frames", tri, empty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Solve(tt.mesh, tt.motion, 1, DefaultOptions())
			assert.ErrorIs(t, err, ErrEmptyInput)
			assert.Nil(t, res)
		})
	}
}

func TestApplyErrors(t *testing.T) {
	motion := loadMotion(t, twoJointChain)
	bind := triangle(
		mathutil.Vec3{0.1, 1, 0},
		mathutil.Vec3{-0.1, 1, 0},
		mathutil.Vec3{0, 1.1, 0},
	)
	res, err := Solve(bind, motion, 1, DefaultOptions())
	require.NoError(t, err)

	tests := []struct {
		name       string
		frame      int
		influences []Influence
		inverse    []mathutil.Mat4
		want       error
	}{
		{"no influences", 0, nil, res.InverseBind, ErrEmptyInput},
		{"no inverse bind", 0, res.Influences, nil, ErrEmptyInput},
		{"frame past end", 2, res.Influences, res.InverseBind, ErrIndex},
		{"negative frame", -1, res.Influences, res.InverseBind, ErrIndex},
		{"joint count mismatch", 0, res.Influences, res.InverseBind[:1], ErrIndex},
		{"vertex count mismatch", 0, res.Influences[:2], res.InverseBind, ErrIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Apply(bind, motion, tt.frame, 1, tt.influences, tt.inverse)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, out)
		})
	}
}

func TestAdjacencyDedupAndSort(t *testing.T) {
	m := &mesh.Mesh{
		Positions: make([]mathutil.Vec3, 5),
		Indices:   []uint32{0, 2, 1, 1, 2, 0, 2, 3, 9},
	}
	nb := buildAdjacency(m)
	assert.Equal(t, []int{1, 2}, nb[0])
	assert.Equal(t, []int{0, 2}, nb[1])
	assert.Equal(t, []int{0, 1, 3}, nb[2])
	assert.Equal(t, []int{2}, nb[3])
	assert.Empty(t, nb[4])

	ids, comps := buildComponents(nb)
	assert.Equal(t, []int{0, 0, 0, 0, 1}, ids)
	assert.Len(t, comps, 2)
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, comps[0])
	assert.Equal(t, []int{4}, comps[1])
}

func TestDistanceToSegment(t *testing.T) {
	a, b := mathutil.Vec3{0, 0, 0}, mathutil.Vec3{0, 2, 0}

	d, tt := distanceToSegment(mathutil.Vec3{1, 1, 0}, a, b)
	assert.InDelta(t, 1.0, d, 1e-12)
	assert.InDelta(t, 0.5, tt, 1e-12)

	d, tt = distanceToSegment(mathutil.Vec3{0, 5, 0}, a, b)
	assert.InDelta(t, 3.0, d, 1e-12)
	assert.Equal(t, 1.0, tt)

	d, tt = distanceToSegment(mathutil.Vec3{0, -1, 0}, a, b)
	assert.InDelta(t, 1.0, d, 1e-12)
	assert.Equal(t, 0.0, tt)

	// Zero-length bone measures to its start point.
	d, tt = distanceToSegment(mathutil.Vec3{3, 4, 0}, a, a)
	assert.InDelta(t, 5.0, d, 1e-12)
	assert.Equal(t, 0.0, tt)
}

func TestSelectInfluencesTopFour(t *testing.T) {
	field := []float64{0.01, 0.5, 0.3, 0.1, 0.2, 0.05}
	pos := make([]mathutil.Vec3, len(field))
	inf := selectInfluences(field, 0, 1, len(field), nil, mathutil.Vec3{}, pos)

	assert.Equal(t, [MaxInfluences]int{1, 2, 4, 3}, inf.Joints)
	assert.InDelta(t, 0.5/1.1, inf.Weights[0], 1e-12)
	assert.InDelta(t, 0.1/1.1, inf.Weights[3], 1e-12)
	assert.InDelta(t, 1.0, inf.Sum(), 1e-12)
}

func TestSelectInfluencesRespectsEligibility(t *testing.T) {
	field := []float64{0.9, 0, 0}
	pos := []mathutil.Vec3{{0, 0, 0}, {0, 1, 0}, {0, 3, 0}}
	allowed := []bool{false, true, true}

	// Joint 0 is strongest and closest but not eligible.
	inf := selectInfluences(field, 0, 1, 3, allowed, mathutil.Vec3{0, 0.2, 0}, pos)
	assert.Equal(t, [MaxInfluences]int{1, -1, -1, -1}, inf.Joints)
	assert.Equal(t, 1.0, inf.Weights[0])
}

func TestDiffusionHoldsAnchorsAndIsolatedVertices(t *testing.T) {
	positions := []mathutil.Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {9, 9, 9}}
	neighbors := [][]int{{1}, {0, 2}, {1}, nil}
	field := []float64{1, 0, 0, 0.5}

	diffuse(field, neighbors, positions, []mathutil.Vec3{{0, 0, 0}}, Options{
		HeatIterations:   10,
		HeatLambda:       0.5,
		HeatAnchorRadius: 0.1,
	})
	assert.Equal(t, 1.0, field[0], "anchored vertex")
	assert.Equal(t, 0.5, field[3], "isolated vertex")
	assert.Greater(t, field[1], 0.0)
	assert.Greater(t, field[1], field[2])
}

func TestOptionsClamp(t *testing.T) {
	o := Options{HeatIterations: -3, HeatLambda: 1.7, HeatAnchorRadius: -1, ComponentMaxJoints: -2}.Clamp()
	assert.Equal(t, Options{HeatIterations: 0, HeatLambda: 1, HeatAnchorRadius: 0, ComponentMaxJoints: 0}, o)

	o = Options{HeatLambda: -0.5}.Clamp()
	assert.Equal(t, 0.0, o.HeatLambda)
	assert.Equal(t, DefaultOptions(), DefaultOptions().Clamp())
}

func TestJointMatricesCanonicalOrder(t *testing.T) {
	motion := loadMotion(t, star)
	skel, _ := motion.Frame(0)
	mats, pos := JointMatrices(skel, 0.5)
	require.Len(t, mats, 3)
	assert.Equal(t, []mathutil.Vec3{{0, 0, 0}, {-1, 0, 0}, {1, 0, 0}}, pos)
	assert.Equal(t, mathutil.Vec3{-1, 0, 0}, mats[1].Translation())
}
