package playback

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepDefaults(t *testing.T) {
	assert.Equal(t, 0.5, NewClock(0.5, 4).Step())
	assert.Equal(t, DefaultFrameTime, NewClock(0, 4).Step())
	assert.Equal(t, DefaultFrameTime, NewClock(-1, 4).Step())
}

func TestAdvanceWraps(t *testing.T) {
	c := NewClock(0.25, 3)
	assert.Equal(t, 0, c.Advance(0.1))
	assert.Equal(t, 1, c.Advance(0.15))
	assert.Equal(t, 2, c.Advance(0.25))
	assert.Equal(t, 0, c.Advance(0.25))
	// Several frames in one call.
	assert.Equal(t, 2, c.Advance(0.5))
	assert.Equal(t, 2, c.Frame())
	// Negative time does not rewind.
	assert.Equal(t, 2, c.Advance(-1))
}

func TestAdvanceEmptyClip(t *testing.T) {
	c := NewClock(0.1, 0)
	assert.Equal(t, 0, c.Advance(10))
	assert.Equal(t, 0, c.FrameAt(10))
}

func TestFrameAt(t *testing.T) {
	c := NewClock(0.1, 4)
	tests := []struct {
		t    float64
		want int
	}{
		{-1, 0},
		{0, 0},
		{0.05, 0},
		{0.1, 1},
		{0.3, 3},
		{0.39, 3},
		{0.4, 0},
		{1.05, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.FrameAt(tt.t), "t=%v", tt.t)
	}
}

func TestSeekAndReset(t *testing.T) {
	c := NewClock(0.1, 5)
	c.Seek(7)
	assert.Equal(t, 2, c.Frame())
	c.Seek(-1)
	assert.Equal(t, 4, c.Frame())

	c.Advance(0.05)
	c.Reset()
	assert.Equal(t, 0, c.Frame())
	// Accumulated time was dropped.
	assert.Equal(t, 0, c.Advance(0.06))
	assert.InDelta(t, 0.5, c.Duration(), 1e-12)
}

func TestFrameAtExtremeTimes(t *testing.T) {
	c := NewClock(0.1, 4)
	for _, tt := range []float64{1e300, math.MaxFloat64, float64(math.MaxInt64)} {
		f := c.FrameAt(tt)
		assert.GreaterOrEqual(t, f, 0, "t=%v", tt)
		assert.Less(t, f, 4, "t=%v", tt)
	}
	assert.Equal(t, 0, c.FrameAt(math.Inf(1)))
	assert.Equal(t, 0, c.FrameAt(math.NaN()))
	assert.Equal(t, 2, c.FrameAt(1e6+0.2))
}
