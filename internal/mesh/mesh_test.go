package mesh

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bvh-skin-renderer/internal/mathutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeNormalsAreaWeighted(t *testing.T) {
	// A large triangle facing +Z and a tiny one facing +X share vertex 0.
	m := &Mesh{
		Positions: []mathutil.Vec3{
			{0, 0, 0}, {10, 0, 0}, {0, 10, 0},
			{0, 0.1, 0}, {0, 0, 0.1},
		},
		Indices: []uint32{0, 1, 2, 0, 3, 4},
	}
	n := m.ComputeNormals()
	require.Len(t, n, 5)
	assert.InDelta(t, 1.0, n[0].Len(), 1e-12)
	assert.Greater(t, n[0][2], 0.99)
	assert.Equal(t, mathutil.Vec3{0, 0, 1}, n[1])
	assert.InDelta(t, 1.0, n[3][0], 1e-12)
}

func TestComputeNormalsSkipsDegenerate(t *testing.T) {
	m := &Mesh{
		Positions: []mathutil.Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {5, 5, 5}},
		Indices:   []uint32{0, 1, 2, 0, 1, 7},
	}
	n := m.ComputeNormals()
	for _, v := range n {
		assert.Equal(t, mathutil.Vec3{}, v)
	}
}

func TestBoundsAndClone(t *testing.T) {
	m := &Mesh{
		Positions: []mathutil.Vec3{{1, -2, 3}, {-1, 4, 0}},
		Indices:   []uint32{0, 1, 0},
	}
	lo, hi := m.Bounds()
	assert.Equal(t, mathutil.Vec3{-1, -2, 0}, lo)
	assert.Equal(t, mathutil.Vec3{1, 4, 3}, hi)

	c := m.Clone()
	c.Positions[0] = mathutil.Vec3{}
	c.Indices[0] = 1
	assert.Equal(t, mathutil.Vec3{1, -2, 3}, m.Positions[0])
	assert.Equal(t, uint32(0), m.Indices[0])

	lo, hi = (&Mesh{}).Bounds()
	assert.True(t, math.IsInf(lo[0], 1))
	assert.True(t, math.IsInf(hi[0], -1))
}

func TestValidate(t *testing.T) {
	ok := &Mesh{Positions: make([]mathutil.Vec3, 3), Indices: []uint32{0, 1, 2}}
	assert.NoError(t, ok.Validate())
	assert.Equal(t, 1, ok.TriangleCount())

	assert.ErrorContains(t, (&Mesh{Positions: make([]mathutil.Vec3, 3), Indices: []uint32{0, 1}}).Validate(), "multiple of 3")
	assert.ErrorContains(t, (&Mesh{Positions: make([]mathutil.Vec3, 3), Indices: []uint32{0, 1, 3}}).Validate(), "out of range")
	assert.ErrorContains(t, (&Mesh{
		Positions: make([]mathutil.Vec3, 3),
		Indices:   []uint32{0, 1, 2},
		TexCoords: make([]mathutil.Vec2, 2),
	}).Validate(), "texcoords")
}

const quadOBJ = `# unit quad
o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
s off
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func TestParseOBJQuad(t *testing.T) {
	m, err := ParseOBJ(strings.NewReader(quadOBJ))
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	assert.Len(t, m.Positions, 4)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, m.Indices)
	require.True(t, m.HasTexCoords())
	assert.Equal(t, mathutil.Vec2{1, 1}, m.TexCoords[2])
	assert.Equal(t, mathutil.Vec2{0, 1}, m.TexCoords[5])
	for _, n := range m.Normals {
		assert.Equal(t, mathutil.Vec3{0, 0, 1}, n)
	}
}

func TestParseOBJNegativeIndicesAndNoUV(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
f -3 -2 -1
v 0 0 1
f 1//1 2//1 4//1
`
	m, err := ParseOBJ(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2, 0, 1, 3}, m.Indices)
	assert.False(t, m.HasTexCoords())
	assert.Nil(t, m.TexCoords)
}

func TestParseOBJErrors(t *testing.T) {
	tests := []struct {
		name, src, want string
	}{
		{"bad number", "v 0 x 0\n", `bad number "x"`},
		{"short vertex", "v 0 0\n", "expected 3 numbers"},
		{"short face", "v 0 0 0\nv 1 0 0\nf 1 2\n", "at least 3 corners"},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", "index 0"},
		{"out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n", "out of range"},
		{"bad uv index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1/1 2/1 3/1\n", "out of range"},
		{"garbage index", "v 0 0 0\nf a b c\n", `bad index "a"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOBJ(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadOBJ(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	require.NoError(t, os.WriteFile(path, []byte(quadOBJ), 0o644))

	m, err := LoadOBJ(path)
	require.NoError(t, err)
	assert.Equal(t, 2, m.TriangleCount())

	_, err = LoadOBJ(filepath.Join(t.TempDir(), "missing.obj"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
