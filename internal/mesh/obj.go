package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"bvh-skin-renderer/internal/mathutil"
)

// LoadOBJ reads a Wavefront OBJ file. See ParseOBJ.
func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("obj: open %s: %w", path, err)
	}
	defer f.Close()

	m, err := ParseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("obj: %s: %w", path, err)
	}
	return m, nil
}

// ParseOBJ reads positions (v), texture coordinates (vt) and faces (f).
// Polygons are fan-triangulated. Face corners may be v, v/t, v//n or v/t/n,
// with 1-based or negative (relative) indices. Other records are ignored.
// Normals are always recomputed from the triangles.
func ParseOBJ(r io.Reader) (*Mesh, error) {
	m := &Mesh{}
	var uvs []mathutil.Vec2
	var cornerUV []int // per corner, -1 when absent
	anyUV := false

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			m.Positions = append(m.Positions, mathutil.Vec3{v[0], v[1], v[2]})
		case "vt":
			v, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			uvs = append(uvs, mathutil.Vec2{v[0], v[1]})
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 corners", lineNo)
			}
			pos := make([]int, 0, len(fields)-1)
			tex := make([]int, 0, len(fields)-1)
			for _, corner := range fields[1:] {
				p, t, err := parseCorner(corner, len(m.Positions), len(uvs))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				if t >= 0 {
					anyUV = true
				}
				pos = append(pos, p)
				tex = append(tex, t)
			}
			// Fan: (0, i, i+1)
			for i := 1; i+1 < len(pos); i++ {
				for _, k := range [3]int{0, i, i + 1} {
					m.Indices = append(m.Indices, uint32(pos[k]))
					cornerUV = append(cornerUV, tex[k])
				}
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if anyUV {
		m.TexCoords = make([]mathutil.Vec2, len(cornerUV))
		for i, t := range cornerUV {
			if t >= 0 {
				m.TexCoords[i] = uvs[t]
			}
		}
	}
	m.Normals = m.ComputeNormals()
	return m, nil
}

func parseFloats(fields []string, n int) ([]float64, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d numbers, got %d", n, len(fields))
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", fields[i])
		}
		out[i] = v
	}
	return out, nil
}

// parseCorner resolves "p", "p/t", "p//n" or "p/t/n" into 0-based position and
// texcoord indices. A missing texcoord is -1.
func parseCorner(s string, numPos, numUV int) (int, int, error) {
	parts := strings.Split(s, "/")
	p, err := resolveIndex(parts[0], numPos)
	if err != nil {
		return 0, 0, fmt.Errorf("face corner %q: %w", s, err)
	}
	t := -1
	if len(parts) > 1 && parts[1] != "" {
		t, err = resolveIndex(parts[1], numUV)
		if err != nil {
			return 0, 0, fmt.Errorf("face corner %q: %w", s, err)
		}
	}
	return p, t, nil
}

func resolveIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad index %q", s)
	}
	switch {
	case i > 0:
		i--
	case i < 0:
		i += n
	default:
		return 0, fmt.Errorf("index 0 is invalid")
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("index %s out of range (%d defined)", s, n)
	}
	return i, nil
}
