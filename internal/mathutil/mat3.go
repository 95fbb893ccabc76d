package mathutil

// Mat3 is a row-major 3×3 matrix: element (r, c) lives at index r*3+c.
type Mat3 [9]float64

// Mat3Identity returns the identity matrix.
func Mat3Identity() Mat3 {
	return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// Mat3Mul returns a·b, so b applies first.
func Mat3Mul(a, b Mat3) Mat3 {
	var m Mat3
	for r := range 3 {
		for c := range 3 {
			m[r*3+c] = a[r*3]*b[c] + a[r*3+1]*b[3+c] + a[r*3+2]*b[6+c]
		}
	}
	return m
}

// MulVec3 returns m·v.
func (m Mat3) MulVec3(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

func (m Mat3) Det() float64 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}

// Inverse returns the adjugate over the determinant. A singular matrix
// yields the identity.
func (m Mat3) Inverse() Mat3 {
	d := m.Det()
	if d == 0 {
		return Mat3Identity()
	}
	k := 1 / d
	return Mat3{
		(m[4]*m[8] - m[5]*m[7]) * k,
		(m[2]*m[7] - m[1]*m[8]) * k,
		(m[1]*m[5] - m[2]*m[4]) * k,
		(m[5]*m[6] - m[3]*m[8]) * k,
		(m[0]*m[8] - m[2]*m[6]) * k,
		(m[2]*m[3] - m[0]*m[5]) * k,
		(m[3]*m[7] - m[4]*m[6]) * k,
		(m[1]*m[6] - m[0]*m[7]) * k,
		(m[0]*m[4] - m[1]*m[3]) * k,
	}
}
