package mathutil

import "math"

// AxisAngle returns the rotation of a radians about a unit axis.
func AxisAngle(axis Vec3, a float64) Quat {
	s := math.Sin(a / 2)
	return Quat{axis[0] * s, axis[1] * s, axis[2] * s, math.Cos(a / 2)}
}

// RotX, RotY and RotZ return right-handed rotations about the world axes.
func RotX(a float64) Mat3 { return QuatToMat3(AxisAngle(Vec3{1, 0, 0}, a)) }

func RotY(a float64) Mat3 { return QuatToMat3(AxisAngle(Vec3{0, 1, 0}, a)) }

func RotZ(a float64) Mat3 { return QuatToMat3(AxisAngle(Vec3{0, 0, 1}, a)) }

func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}

// Deg2RadVec3 converts BVH channel degrees to radians per component.
func Deg2RadVec3(v Vec3) Vec3 {
	return v.Scale(math.Pi / 180)
}

// Rad2DegVec3 converts radians back to degrees per component.
func Rad2DegVec3(v Vec3) Vec3 {
	return v.Scale(180 / math.Pi)
}
