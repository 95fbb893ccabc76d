package skinning

import (
	"fmt"

	"bvh-skin-renderer/internal/mathutil"
	"bvh-skin-renderer/internal/mesh"
	"bvh-skin-renderer/internal/skeleton"
)

// Apply deforms bind into the pose of the given motion frame using linear
// blend skinning. The bind mesh is not modified; the returned mesh carries
// recomputed normals.
func Apply(bind *mesh.Mesh, motion *skeleton.Motion, frame int, scale float64, influences []Influence, inverseBind []mathutil.Mat4) (*mesh.Mesh, error) {
	if len(influences) == 0 || len(inverseBind) == 0 {
		return nil, fmt.Errorf("%w: no weights to apply", ErrEmptyInput)
	}
	if bind == nil || len(bind.Positions) == 0 {
		return nil, fmt.Errorf("%w: mesh has no vertices", ErrEmptyInput)
	}
	skel, ok := motion.Frame(frame)
	if !ok {
		return nil, fmt.Errorf("%w: frame %d of %d", ErrIndex, frame, motion.FrameCount())
	}
	current, _ := JointMatrices(skel, scale)
	if len(current) != len(inverseBind) {
		return nil, fmt.Errorf("%w: %d joints, %d inverse bind matrices", ErrIndex, len(current), len(inverseBind))
	}
	if len(influences) != len(bind.Positions) {
		return nil, fmt.Errorf("%w: %d influences for %d vertices", ErrIndex, len(influences), len(bind.Positions))
	}

	skin := make([]mathutil.Mat4, len(current))
	for i := range current {
		skin[i] = mathutil.Mat4Mul(current[i], inverseBind[i])
	}

	out := bind.Clone()
	for v, p := range bind.Positions {
		var sum mathutil.Vec3
		inf := influences[v]
		for k, j := range inf.Joints {
			if j < 0 || j >= len(skin) {
				continue
			}
			sum = sum.Add(skin[j].MulPoint(p).Scale(inf.Weights[k]))
		}
		out.Positions[v] = sum
	}
	out.Normals = out.ComputeNormals()
	return out, nil
}
