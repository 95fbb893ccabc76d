package skeleton

import (
	"iter"

	"bvh-skin-renderer/internal/mathutil"
)

// JointID addresses a joint inside its Skeleton's arena.
type JointID int

// NoJoint marks an absent parent or an invalid handle.
const NoJoint JointID = -1

// Joint holds the local transform of one node and its cached forward-kinematics result.
type Joint struct {
	Name     string
	Parent   JointID
	Children []JointID // attachment order
	IsLeaf   bool

	Offset   mathutil.Vec3 // translation from parent, in parent's frame
	Euler    mathutil.Vec3 // radians, X/Y/Z
	Rotation mathutil.Quat

	GlobalTranslation mathutil.Vec3
	GlobalRotation    mathutil.Quat
}

// Segment is a parent→child bone in global space.
type Segment struct {
	From, To mathutil.Vec3
}

// Skeleton is a joint tree stored as a flat arena.
// Joints reference each other by JointID; the root has Parent == NoJoint.
type Skeleton struct {
	joints []Joint
	root   JointID
}

// New returns an empty skeleton.
func New() *Skeleton {
	return &Skeleton{root: NoJoint}
}

// CreateJoint adds an unattached joint with zero offset and identity rotation.
func (s *Skeleton) CreateJoint(name string, isLeaf bool) JointID {
	id := JointID(len(s.joints))
	s.joints = append(s.joints, Joint{
		Name:           name,
		Parent:         NoJoint,
		IsLeaf:         isLeaf,
		Rotation:       mathutil.QuatIdentity(),
		GlobalRotation: mathutil.QuatIdentity(),
	})
	return id
}

func (s *Skeleton) valid(id JointID) bool {
	return id >= 0 && int(id) < len(s.joints)
}

// SetRoot makes id the root. Invalid ids leave the skeleton unchanged.
func (s *Skeleton) SetRoot(id JointID) {
	if !s.valid(id) {
		return
	}
	s.root = id
}

// Root returns the root joint, or NoJoint for an empty skeleton.
func (s *Skeleton) Root() JointID {
	return s.root
}

// Len returns the number of joints in the arena.
func (s *Skeleton) Len() int {
	return len(s.joints)
}

// Joint returns a copy of the joint. The Children slice is shared; do not modify it.
func (s *Skeleton) Joint(id JointID) (Joint, bool) {
	if !s.valid(id) {
		return Joint{}, false
	}
	return s.joints[id], true
}

// AttachChild links child under parent. Absent ids are silently ignored.
// Creating a cycle is the caller's error and leaves traversal undefined.
func (s *Skeleton) AttachChild(parent, child JointID) {
	if !s.valid(parent) || !s.valid(child) {
		return
	}
	s.joints[child].Parent = parent
	s.joints[parent].Children = append(s.joints[parent].Children, child)
}

// SetOffset sets the local translation.
func (s *Skeleton) SetOffset(id JointID, off mathutil.Vec3) {
	if !s.valid(id) {
		return
	}
	s.joints[id].Offset = off
}

// Offset returns the local translation, or zero for an invalid id.
func (s *Skeleton) Offset(id JointID) mathutil.Vec3 {
	if !s.valid(id) {
		return mathutil.Vec3{}
	}
	return s.joints[id].Offset
}

// SetRotation sets the local rotation from Euler angles in radians.
// The orientation is qZ × qY × qX regardless of the order channels were listed in.
func (s *Skeleton) SetRotation(id JointID, euler mathutil.Vec3) {
	if !s.valid(id) {
		return
	}
	s.joints[id].Euler = euler
	s.joints[id].Rotation = mathutil.EulerToQuat(euler[0], euler[1], euler[2])
}

// SetRotationQuat sets the local rotation directly and derives its Euler angles.
func (s *Skeleton) SetRotationQuat(id JointID, q mathutil.Quat) {
	if !s.valid(id) {
		return
	}
	s.joints[id].Rotation = q
	s.joints[id].Euler = mathutil.QuatToEuler(q)
}

// SetGlobal overrides the cached global pose.
func (s *Skeleton) SetGlobal(id JointID, t mathutil.Vec3, q mathutil.Quat) {
	if !s.valid(id) {
		return
	}
	s.joints[id].GlobalTranslation = t
	s.joints[id].GlobalRotation = q
}

// DFSJoints returns the canonical pre-order traversal: root, then each child
// subtree in attachment order. Positions in this slice are the canonical joint
// indices used by channels, weights and inverse-bind matrices.
func (s *Skeleton) DFSJoints() []JointID {
	if !s.valid(s.root) {
		return nil
	}
	order := make([]JointID, 0, len(s.joints))
	stack := []JointID{s.root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, id)
		children := s.joints[id].Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return order
}

// UpdateGlobalPose runs forward kinematics from the root down.
// Parents are always visited before their children in DFS order.
func (s *Skeleton) UpdateGlobalPose() {
	for _, id := range s.DFSJoints() {
		j := &s.joints[id]
		if j.Parent == NoJoint || id == s.root {
			j.GlobalRotation = j.Rotation
			j.GlobalTranslation = j.Offset
			continue
		}
		p := &s.joints[j.Parent]
		j.GlobalRotation = mathutil.QuatMul(p.GlobalRotation, j.Rotation)
		j.GlobalTranslation = p.GlobalTranslation.Add(p.GlobalRotation.Rotate(j.Offset))
	}
}

// JointPositions returns global translations in canonical order.
func (s *Skeleton) JointPositions() []mathutil.Vec3 {
	order := s.DFSJoints()
	out := make([]mathutil.Vec3, len(order))
	for i, id := range order {
		out[i] = s.joints[id].GlobalTranslation
	}
	return out
}

// Segments yields one (parent, child) global-space pair per bone, in DFS order.
func (s *Skeleton) Segments() iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		for _, id := range s.DFSJoints() {
			j := &s.joints[id]
			for _, c := range j.Children {
				if !yield(Segment{From: j.GlobalTranslation, To: s.joints[c].GlobalTranslation}) {
					return
				}
			}
		}
	}
}

// SegmentIndices returns the same bones as Segments as canonical index pairs.
func (s *Skeleton) SegmentIndices() [][2]int {
	order := s.DFSJoints()
	canon := make([]int, len(s.joints))
	for i := range canon {
		canon[i] = -1
	}
	for i, id := range order {
		canon[id] = i
	}

	var segs [][2]int
	for i, id := range order {
		for _, c := range s.joints[id].Children {
			if canon[c] < 0 {
				continue
			}
			segs = append(segs, [2]int{i, canon[c]})
		}
	}
	return segs
}

// Clone returns a deep copy sharing no memory with s.
func (s *Skeleton) Clone() *Skeleton {
	c := &Skeleton{
		joints: make([]Joint, len(s.joints)),
		root:   s.root,
	}
	copy(c.joints, s.joints)
	for i := range c.joints {
		if len(s.joints[i].Children) > 0 {
			c.joints[i].Children = append([]JointID(nil), s.joints[i].Children...)
		}
	}
	return c
}
