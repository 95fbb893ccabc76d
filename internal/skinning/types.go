package skinning

import (
	"errors"

	"bvh-skin-renderer/internal/mathutil"
)

var (
	// ErrEmptyInput is returned when the mesh, motion or skeleton has nothing to work with.
	ErrEmptyInput = errors.New("skinning: empty input")
	// ErrIndex is returned for out-of-range frames and mismatched array lengths.
	ErrIndex = errors.New("skinning: index out of range")
)

// Fixed solver constants.
const (
	MaxInfluences = 4
	WeightRadius  = 0.5
	FalloffPower  = 2.0
	MinWeight     = 0.02

	// Squared segment length below which a bone is treated as a point.
	degenerateLenSq = 1e-8
)

// Options tunes the weight solver.
type Options struct {
	// Diffusion passes, 0 disables.
	HeatIterations     int     `json:"heat_iterations" toml:"heat_iterations" yaml:"heat_iterations"`
	// Neighbor mix per pass, in [0,1].
	HeatLambda         float64 `json:"heat_lambda" toml:"heat_lambda" yaml:"heat_lambda"`
	// Vertices this close to a joint keep their weights.
	HeatAnchorRadius   float64 `json:"heat_anchor_radius" toml:"heat_anchor_radius" yaml:"heat_anchor_radius"`
	// Eligible joints per mesh island, 0 disables.
	ComponentMaxJoints int     `json:"component_max_joints" toml:"component_max_joints" yaml:"component_max_joints"`
}

// DefaultOptions returns the solver settings used by the preview tools.
func DefaultOptions() Options {
	return Options{
		HeatIterations:     20,
		HeatLambda:         0.6,
		HeatAnchorRadius:   0.05,
		ComponentMaxJoints: 2,
	}
}

// Clamp returns a copy with every field forced into its valid range.
func (o Options) Clamp() Options {
	o.HeatIterations = max(o.HeatIterations, 0)
	o.HeatLambda = min(max(o.HeatLambda, 0), 1)
	o.HeatAnchorRadius = max(o.HeatAnchorRadius, 0)
	o.ComponentMaxJoints = max(o.ComponentMaxJoints, 0)
	return o
}

// Influence holds up to MaxInfluences joint weights for one vertex.
// Unused slots have joint -1 and weight 0.
type Influence struct {
	Joints  [MaxInfluences]int     `json:"joints"`
	Weights [MaxInfluences]float64 `json:"weights"`
}

func emptyInfluence() Influence {
	return Influence{Joints: [MaxInfluences]int{-1, -1, -1, -1}}
}

// Count returns the number of assigned slots.
func (in Influence) Count() int {
	n := 0
	for _, j := range in.Joints {
		if j >= 0 {
			n++
		}
	}
	return n
}

// Sum returns the total weight of assigned slots.
func (in Influence) Sum() float64 {
	s := 0.0
	for k, j := range in.Joints {
		if j >= 0 {
			s += in.Weights[k]
		}
	}
	return s
}

// Dominant returns the joint with the largest weight, or -1.
func (in Influence) Dominant() int {
	best, bestW := -1, -1.0
	for k, j := range in.Joints {
		if j >= 0 && in.Weights[k] > bestW {
			best, bestW = j, in.Weights[k]
		}
	}
	return best
}

// Result is the output of Solve. Joint indices everywhere are canonical
// (DFS order of the bind skeleton).
type Result struct {
	Influences    []Influence
	InverseBind   []mathutil.Mat4
	BindPositions []mathutil.Vec3

	// Diagnostics.
	Components     []int // component id per vertex
	ComponentCount int
	NearestSegment []int // index into the segment list per vertex, -1 if none was eligible
}
