package bvh

import (
	"fmt"
	"math"

	"bvh-skin-renderer/internal/mathutil"
	"bvh-skin-renderer/internal/skeleton"
)

// Motion materializes every frame of the clip as an independent, fully posed skeleton.
//
// Per frame the base hierarchy is cloned, channel values are scattered into
// per-joint position and rotation accumulators, and then:
//   - a non-zero position delta sets offset = base offset + delta
//   - a non-zero rotation delta replaces the local rotation with the delta
//     converted from degrees (not composed with the rest rotation)
//
// followed by one forward-kinematics pass.
func (c *Clip) Motion() (*skeleton.Motion, error) {
	n := len(c.Channels)
	if c.FrameCount < 0 || c.FrameCount > math.MaxInt/max(n, 1) || len(c.Values) != c.FrameCount*n {
		return nil, fmt.Errorf("%w: %d values for %d frames of %d channels", ErrParse, len(c.Values), c.FrameCount, len(c.Channels))
	}

	baseJoints := c.Base.DFSJoints()
	jointCount := len(baseJoints)
	channelCount := len(c.Channels)

	frames := make([]*skeleton.Skeleton, 0, min(c.FrameCount, 1<<16))
	posDelta := make([]mathutil.Vec3, jointCount)
	rotDeg := make([]mathutil.Vec3, jointCount)

	for f := 0; f < c.FrameCount; f++ {
		frame := c.Base.Clone()
		frameJoints := frame.DFSJoints()

		clear(posDelta)
		clear(rotDeg)

		values := c.Frame(f)
		for ci := 0; ci < channelCount && ci < len(values); ci++ {
			ch := c.Channels[ci]
			if ch.Joint < 0 || ch.Joint >= jointCount {
				continue
			}
			if ch.Kind.IsRotation() {
				rotDeg[ch.Joint][ch.Kind.Axis()] = values[ci]
			} else {
				posDelta[ch.Joint][ch.Kind.Axis()] = values[ci]
			}
		}

		for i, id := range frameJoints {
			if !posDelta[i].IsZero() {
				frame.SetOffset(id, c.Base.Offset(baseJoints[i]).Add(posDelta[i]))
			}
			if !rotDeg[i].IsZero() {
				frame.SetRotation(id, mathutil.Deg2RadVec3(rotDeg[i]))
			}
		}

		frame.UpdateGlobalPose()
		frames = append(frames, frame)
	}

	return skeleton.NewMotion(frames, c.FrameTime)
}
