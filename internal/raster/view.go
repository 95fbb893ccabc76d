package raster

import (
	"bvh-skin-renderer/internal/mathutil"
	"bvh-skin-renderer/internal/mesh"
)

// View is an orthographic camera: rotate into view space, center, scale to
// pixels. Screen Y grows downward; depth grows toward the viewer.
type View struct {
	Rot    mathutil.Mat3
	Center mathutil.Vec3 // view-space point mapped to the image center
	Scale  float64       // pixels per world unit
	Width  int
	Height int
}

// FitView returns a view that frames every point with margin pixels to spare
// on each side. Fit it once over everything a clip will draw so the camera
// holds still between frames.
func FitView(rot mathutil.Mat3, points []mathutil.Vec3, width, height, margin int) View {
	rotated := make([]mathutil.Vec3, len(points))
	for i, p := range points {
		rotated[i] = rot.MulVec3(p)
	}
	lo, hi := mesh.BoundsOf(rotated)
	if len(points) == 0 {
		lo, hi = mathutil.Vec3{}, mathutil.Vec3{}
	}

	center := lo.Add(hi).Scale(0.5)
	spanX := max(hi[0]-lo[0], 0.001)
	spanY := max(hi[1]-lo[1], 0.001)

	availX := float64(max(width-2*margin, 1))
	availY := float64(max(height-2*margin, 1))
	scale := min(availX/spanX, availY/spanY)

	return View{Rot: rot, Center: center, Scale: scale, Width: width, Height: height}
}

// Scaled returns the same framing for an image factor times larger.
func (v View) Scaled(factor int) View {
	v.Scale *= float64(factor)
	v.Width *= factor
	v.Height *= factor
	return v
}

// Project maps a world point to (screen x, screen y, depth).
func (v View) Project(p mathutil.Vec3) mathutil.Vec3 {
	t := v.Rot.MulVec3(p)
	return mathutil.Vec3{
		(t[0]-v.Center[0])*v.Scale + float64(v.Width)/2,
		-(t[1]-v.Center[1])*v.Scale + float64(v.Height)/2,
		t[2],
	}
}

// ProjectAll projects every point.
func (v View) ProjectAll(points []mathutil.Vec3) []mathutil.Vec3 {
	out := make([]mathutil.Vec3, len(points))
	for i, p := range points {
		out[i] = v.Project(p)
	}
	return out
}
