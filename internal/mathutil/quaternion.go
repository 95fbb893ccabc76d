package mathutil

import "math"

// Quat represents a quaternion (x, y, z, w).
type Quat [4]float64

// QuatIdentity returns the no-rotation quaternion. The zero Quat is not a rotation.
func QuatIdentity() Quat {
	return Quat{0, 0, 0, 1}
}

// EulerToQuat converts Euler angles (radians) to a quaternion equal to
// qZ × qY × qX, i.e. X is applied first, then Y, then Z.
func EulerToQuat(rx, ry, rz float64) Quat {
	cx, sx := math.Cos(rx*0.5), math.Sin(rx*0.5)
	cy, sy := math.Cos(ry*0.5), math.Sin(ry*0.5)
	cz, sz := math.Cos(rz*0.5), math.Sin(rz*0.5)

	return Quat{
		sx*cy*cz - cx*sy*sz, // x
		cx*sy*cz + sx*cy*sz, // y
		cx*cy*sz - sx*sy*cz, // z
		cx*cy*cz + sx*sy*sz, // w
	}
}

// QuatToEuler is the inverse of EulerToQuat, returning (rx, ry, rz) in radians.
func QuatToEuler(q Quat) Vec3 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	rx := math.Atan2(2*(y*z+w*x), w*w-x*x-y*y+z*z)
	sinY := -2 * (x*z - w*y)
	if sinY > 1 {
		sinY = 1
	} else if sinY < -1 {
		sinY = -1
	}
	ry := math.Asin(sinY)
	rz := math.Atan2(2*(x*y+w*z), w*w+x*x-y*y-z*z)
	return Vec3{rx, ry, rz}
}

// QuatMul returns a × b (b applied first).
func QuatMul(a, b Quat) Quat {
	ax, ay, az, aw := a[0], a[1], a[2], a[3]
	bx, by, bz, bw := b[0], b[1], b[2], b[3]
	return Quat{
		aw*bx + ax*bw + ay*bz - az*by,
		aw*by - ax*bz + ay*bw + az*bx,
		aw*bz + ax*by - ay*bx + az*bw,
		aw*bw - ax*bx - ay*by - az*bz,
	}
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q[0], q[1], q[2]}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q[3])).Add(u.Cross(t))
}

// Normalize returns the unit quaternion, or identity for a zero quaternion.
func (q Quat) Normalize() Quat {
	l := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if l < 1e-12 {
		return QuatIdentity()
	}
	return Quat{q[0] / l, q[1] / l, q[2] / l, q[3] / l}
}

// QuatToMat3 converts a quaternion to a 3×3 rotation matrix.
func QuatToMat3(q Quat) Mat3 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	return Mat3{
		1 - 2*(yy+zz), 2 * (xy - wz), 2 * (xz + wy),
		2 * (xy + wz), 1 - 2*(xx+zz), 2 * (yz - wx),
		2 * (xz - wy), 2 * (yz + wx), 1 - 2*(xx+yy),
	}
}

// QuatFromTo returns the shortest-arc rotation taking unit vector from onto
// unit vector to. Opposite vectors rotate half a turn about any perpendicular axis.
func QuatFromTo(from, to Vec3) Quat {
	const eps = 1e-9
	cos := from.Dot(to)
	if cos >= 1-eps {
		return QuatIdentity()
	}
	if cos < -1+eps {
		axis := Vec3{0, 0, 1}.Cross(from)
		if axis.LenSq() < eps {
			axis = Vec3{1, 0, 0}.Cross(from)
		}
		axis = axis.Normalize()
		return Quat{axis[0], axis[1], axis[2], 0}
	}
	axis := from.Cross(to)
	s := math.Sqrt((1 + cos) * 2)
	return Quat{axis[0] / s, axis[1] / s, axis[2] / s, s * 0.5}
}
