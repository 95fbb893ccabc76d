package skeleton

import (
	"fmt"

	"bvh-skin-renderer/internal/mathutil"
)

// Motion is an ordered sequence of fully posed skeletons sharing one topology.
// Frames must be treated as read-only once the Motion is built.
type Motion struct {
	frames    []*Skeleton
	FrameTime float64 // seconds between frames
}

// NewMotion wraps frames into a Motion. Every frame must have the same joint
// count, root and parent table as frame 0, so canonical indices agree across frames.
func NewMotion(frames []*Skeleton, frameTime float64) (*Motion, error) {
	if len(frames) > 0 {
		base := frames[0]
		if base == nil {
			return nil, fmt.Errorf("skeleton: frame 0 is nil")
		}
		for i, f := range frames[1:] {
			if f == nil {
				return nil, fmt.Errorf("skeleton: frame %d is nil", i+1)
			}
			if !sameTopology(base, f) {
				return nil, fmt.Errorf("skeleton: frame %d topology differs from frame 0", i+1)
			}
		}
	}
	return &Motion{frames: frames, FrameTime: frameTime}, nil
}

func sameTopology(a, b *Skeleton) bool {
	if a.root != b.root || len(a.joints) != len(b.joints) {
		return false
	}
	for i := range a.joints {
		ja, jb := &a.joints[i], &b.joints[i]
		if ja.Parent != jb.Parent || len(ja.Children) != len(jb.Children) {
			return false
		}
		for k := range ja.Children {
			if ja.Children[k] != jb.Children[k] {
				return false
			}
		}
	}
	return true
}

// FrameCount returns the number of frames.
func (m *Motion) FrameCount() int {
	if m == nil {
		return 0
	}
	return len(m.frames)
}

// Frame returns frame i, or false if i is out of range.
func (m *Motion) Frame(i int) (*Skeleton, bool) {
	if i < 0 || i >= m.FrameCount() {
		return nil, false
	}
	return m.frames[i], true
}

// JointPositions returns the global joint positions of frame i in canonical
// order, or nil if i is out of range.
func (m *Motion) JointPositions(i int) []mathutil.Vec3 {
	f, ok := m.Frame(i)
	if !ok {
		return nil
	}
	return f.JointPositions()
}

// Duration returns the clip length in seconds.
func (m *Motion) Duration() float64 {
	if m == nil {
		return 0
	}
	return float64(m.FrameCount()) * m.FrameTime
}
