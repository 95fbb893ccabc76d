package bvh

import (
	"errors"

	"bvh-skin-renderer/internal/skeleton"
)

// ErrParse is returned (wrapped) for unreadable files, missing mandatory
// tokens, malformed numbers and, in strict mode, unknown channel names.
var ErrParse = errors.New("bvh: parse error")

// ChannelKind identifies which local component a channel drives.
type ChannelKind int

const (
	Xposition ChannelKind = iota
	Yposition
	Zposition
	Xrotation
	Yrotation
	Zrotation
)

var channelNames = [...]string{"Xposition", "Yposition", "Zposition", "Xrotation", "Yrotation", "Zrotation"}

func (k ChannelKind) String() string {
	if k < 0 || int(k) >= len(channelNames) {
		return "ChannelKind(?)"
	}
	return channelNames[k]
}

// IsRotation reports whether k is one of the rotation channels.
func (k ChannelKind) IsRotation() bool {
	return k >= Xrotation
}

// Axis returns 0, 1 or 2 for X, Y or Z.
func (k ChannelKind) Axis() int {
	return int(k) % 3
}

// ParseChannelKind matches a channel name exactly (case-sensitive).
// Unknown names return Zrotation and false.
func ParseChannelKind(name string) (ChannelKind, bool) {
	for i, n := range channelNames {
		if n == name {
			return ChannelKind(i), true
		}
	}
	return Zrotation, false
}

// Channel maps one per-frame float onto a joint component.
// Joint is the canonical (DFS) joint index.
type Channel struct {
	Joint int
	Kind  ChannelKind
}

// Options controls parser leniency.
type Options struct {
	// StrictChannels rejects unknown channel names instead of treating them as Zrotation.
	StrictChannels bool
}

// Clip is the raw parse result: the rest-pose hierarchy plus the channel table
// and frame-major channel values.
type Clip struct {
	Base       *skeleton.Skeleton
	Channels   []Channel
	FrameCount int
	FrameTime  float64
	Values     []float64 // FrameCount × len(Channels), frame-major
}

// Frame returns the channel values of frame f.
func (c *Clip) Frame(f int) []float64 {
	n := len(c.Channels)
	if f < 0 || f >= c.FrameCount || (f+1)*n > len(c.Values) {
		return nil
	}
	return c.Values[f*n : (f+1)*n]
}
