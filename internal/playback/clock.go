package playback

import "math"

// DefaultFrameTime is used when a clip reports no usable frame time.
const DefaultFrameTime = 1.0 / 30.0

// Tolerance for time-to-frame conversion so that t = n·step lands on frame n
// despite rounding in the division.
const frameEpsilon = 1e-6

// Clock maps elapsed time onto a looping frame index.
type Clock struct {
	FrameTime  float64
	FrameCount int

	frame int
	accum float64
}

// NewClock returns a clock at frame 0.
func NewClock(frameTime float64, frameCount int) *Clock {
	return &Clock{FrameTime: frameTime, FrameCount: frameCount}
}

// Step returns the duration of one frame.
func (c *Clock) Step() float64 {
	if c.FrameTime > 0 {
		return c.FrameTime
	}
	return DefaultFrameTime
}

// Frame returns the current frame index.
func (c *Clock) Frame() int {
	return c.frame
}

// Advance adds dt seconds and returns the new frame index, wrapping past the
// last frame. Leftover time below one step carries to the next call.
func (c *Clock) Advance(dt float64) int {
	if c.FrameCount <= 0 {
		return 0
	}
	step := c.Step()
	c.accum += max(dt, 0)
	for c.accum >= step {
		c.frame = (c.frame + 1) % c.FrameCount
		c.accum -= step
	}
	return c.frame
}

// FrameAt returns the frame shown at absolute time t from the start of a
// looping playback. Negative, NaN and infinite times map to frame 0.
func (c *Clock) FrameAt(t float64) int {
	if c.FrameCount <= 0 || !(t > 0) {
		return 0
	}
	q := t / c.Step()
	if math.IsInf(q, 1) {
		return 0
	}
	// Wrap in float space; converting a huge float to int is undefined.
	n := math.Mod(math.Floor(q+frameEpsilon), float64(c.FrameCount))
	return int(n)
}

// Seek jumps to frame i (wrapped into range) and drops accumulated time.
func (c *Clock) Seek(i int) {
	c.accum = 0
	if c.FrameCount <= 0 {
		c.frame = 0
		return
	}
	c.frame = ((i % c.FrameCount) + c.FrameCount) % c.FrameCount
}

// Reset rewinds to frame 0.
func (c *Clock) Reset() {
	c.frame = 0
	c.accum = 0
}

// Duration returns the length of one loop in seconds.
func (c *Clock) Duration() float64 {
	return float64(max(c.FrameCount, 0)) * c.Step()
}
