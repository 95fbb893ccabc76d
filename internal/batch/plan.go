package batch

import (
	"math"

	"bvh-skin-renderer/internal/mathutil"
	"bvh-skin-renderer/internal/mesh"
	"bvh-skin-renderer/internal/playback"
	"bvh-skin-renderer/internal/skeleton"
)

// Job is one output image.
type Job struct {
	Index int     `json:"index"` // output sequence number
	Frame int     `json:"frame"` // motion frame shown
	Time  float64 `json:"time"`  // seconds from the start of the clip
}

// Plan resamples clip frames [start, end) to fps output images. An end of
// zero or past the clip means the last frame; fps <= 0 keeps the clip rate.
func Plan(clock *playback.Clock, fps float64, start, end int) []Job {
	if clock.FrameCount <= 0 {
		return nil
	}
	if end <= 0 || end > clock.FrameCount {
		end = clock.FrameCount
	}
	start = max(start, 0)
	if start >= end {
		return nil
	}

	step := clock.Step()
	if fps <= 0 {
		fps = 1 / step
	}
	t0 := float64(start) * step
	span := float64(end-start) * step
	n := int(math.Ceil(span*fps - 1e-6))

	jobs := make([]Job, 0, n)
	for i := 0; i < n; i++ {
		t := t0 + float64(i)/fps
		jobs = append(jobs, Job{Index: i, Frame: min(clock.FrameAt(t), end-1), Time: t})
	}
	return jobs
}

// ViewPoints returns points that bound everything a clip can draw: the bind
// mesh, every frame's scaled joints, and the mesh bounds carried along by the
// root's motion. Fit a raster.View to them once per clip.
func ViewPoints(bind *mesh.Mesh, motion *skeleton.Motion, scale float64) []mathutil.Vec3 {
	points := append([]mathutil.Vec3(nil), bind.Positions...)
	lo, hi := bind.Bounds()
	corners := boxCorners(lo, hi)

	root0 := rootPosition(motion, 0).Scale(scale)
	for f := 0; f < motion.FrameCount(); f++ {
		for _, p := range motion.JointPositions(f) {
			points = append(points, p.Scale(scale))
		}
		shift := rootPosition(motion, f).Scale(scale).Sub(root0)
		for _, c := range corners {
			points = append(points, c.Add(shift))
		}
	}
	return points
}

func rootPosition(motion *skeleton.Motion, f int) mathutil.Vec3 {
	skel, ok := motion.Frame(f)
	if !ok {
		return mathutil.Vec3{}
	}
	j, _ := skel.Joint(skel.Root())
	return j.GlobalTranslation
}

func boxCorners(lo, hi mathutil.Vec3) []mathutil.Vec3 {
	if lo[0] > hi[0] {
		return nil
	}
	out := make([]mathutil.Vec3, 0, 8)
	for i := 0; i < 8; i++ {
		c := lo
		for k := 0; k < 3; k++ {
			if i&(1<<k) != 0 {
				c[k] = hi[k]
			}
		}
		out = append(out, c)
	}
	return out
}
