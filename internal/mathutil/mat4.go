package mathutil

import "math"

// Mat4 is a row-major affine transform. Joint skin, bind and pose
// matrices all use it; points are column vectors, so M·p.
type Mat4 [16]float64

// Mat4Identity returns the identity transform.
func Mat4Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mat4Mul returns a·b, so b applies first.
func Mat4Mul(a, b Mat4) Mat4 {
	var m Mat4
	for r := range 4 {
		row := a[r*4 : r*4+4]
		for c := range 4 {
			m[r*4+c] = row[0]*b[c] + row[1]*b[4+c] + row[2]*b[8+c] + row[3]*b[12+c]
		}
	}
	return m
}

// MulPoint transforms a 3D point (w=1) by the 4×4 matrix.
func (m Mat4) MulPoint(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2] + m[3],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2] + m[7],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2] + m[11],
	}
}

// FromMat3Translation builds a 4×4 affine matrix from a 3×3 rotation and translation.
func FromMat3Translation(r Mat3, t Vec3) Mat4 {
	return Mat4{
		r[0], r[1], r[2], t[0],
		r[3], r[4], r[5], t[1],
		r[6], r[7], r[8], t[2],
		0, 0, 0, 1,
	}
}

// FromTranslationQuat builds translate(t) × rotate(q).
func FromTranslationQuat(t Vec3, q Quat) Mat4 {
	return FromMat3Translation(QuatToMat3(q), t)
}

// Mat3 returns the upper-left 3×3 block.
func (m Mat4) Mat3() Mat3 {
	return Mat3{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}
}

// Translation returns the translation column.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[3], m[7], m[11]}
}

// InverseAffine inverts an affine matrix (bottom row 0 0 0 1).
// A singular linear part inverts to identity, see Mat3.Inverse.
func (m Mat4) InverseAffine() Mat4 {
	inv := m.Mat3().Inverse()
	t := inv.MulVec3(m.Translation()).Scale(-1)
	return FromMat3Translation(inv, t)
}

// IsIdentity reports whether every element is within 1e-8 of identity.
func (m Mat4) IsIdentity() bool {
	id := Mat4Identity()
	for i, v := range m {
		if math.Abs(v-id[i]) > 1e-8 {
			return false
		}
	}
	return true
}
