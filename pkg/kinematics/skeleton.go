package kinematics

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Skeleton is the arena that owns joints and addresses them by JointID.
// Joints form a tree: each has a parent (or NoJoint for roots) and an offset
// from the parent's frame to its own origin.
type Skeleton struct {
	joints  []*Joint
	parents []JointID
	offsets []r3.Vec
	byName  map[string]JointID
}

// NewSkeleton creates an empty skeleton.
func NewSkeleton() *Skeleton {
	return &Skeleton{byName: make(map[string]JointID)}
}

// AddJoint creates a joint under parent (NoJoint for a root).
func (s *Skeleton) AddJoint(name string, parent JointID, offset r3.Vec, shape Shape) (*Joint, error) {
	j := NewJoint(name, shape)
	if err := s.Adopt(j, parent, offset); err != nil {
		return nil, err
	}
	return j, nil
}

// Adopt registers a standalone joint under parent. Dofs already attached to
// it are re-homed to the new handle.
func (s *Skeleton) Adopt(j *Joint, parent JointID, offset r3.Vec) error {
	if j.id != NoJoint {
		return fmt.Errorf("joint %q already registered", j.name)
	}
	if _, ok := s.byName[j.name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateJoint, j.name)
	}
	if parent != NoJoint && !s.valid(parent) {
		return fmt.Errorf("%w: parent id %d", ErrNoSuchJoint, parent)
	}

	j.id = JointID(len(s.joints))
	for _, d := range j.dofs {
		d.owner = j.id
	}
	s.joints = append(s.joints, j)
	s.parents = append(s.parents, parent)
	s.offsets = append(s.offsets, offset)
	s.byName[j.name] = j.id
	return nil
}

func (s *Skeleton) valid(id JointID) bool {
	return id >= 0 && int(id) < len(s.joints)
}

// Len returns the number of joints.
func (s *Skeleton) Len() int { return len(s.joints) }

// Joint returns the joint with the given handle, or nil.
func (s *Skeleton) Joint(id JointID) *Joint {
	if !s.valid(id) {
		return nil
	}
	return s.joints[id]
}

// JointByName looks a joint up by name.
func (s *Skeleton) JointByName(name string) (*Joint, bool) {
	id, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return s.joints[id], true
}

// Joints returns all joints in registration order.
func (s *Skeleton) Joints() []*Joint {
	return append([]*Joint(nil), s.joints...)
}

// Parent returns the parent handle of id.
func (s *Skeleton) Parent(id JointID) JointID {
	if !s.valid(id) {
		return NoJoint
	}
	return s.parents[id]
}

// Offset returns the joint origin in its parent's frame.
func (s *Skeleton) Offset(id JointID) r3.Vec {
	if !s.valid(id) {
		return r3.Vec{}
	}
	return s.offsets[id]
}

// Dofs returns every Dof of every joint.
func (s *Skeleton) Dofs() []*Dof {
	var out []*Dof
	for _, j := range s.joints {
		out = append(out, j.dofs...)
	}
	return out
}

// SetAtRest moves every Dof to its rest position.
func (s *Skeleton) SetAtRest() {
	for _, j := range s.joints {
		j.SetAtRest()
	}
}

// WorldTransform returns the transform from joint id's frame to the root frame.
func (s *Skeleton) WorldTransform(id JointID) Mat4 {
	if !s.valid(id) {
		return Identity()
	}
	return s.parentTransform(id).Mul(s.joints[id].Transform())
}

// parentTransform returns World(parent)·T(offset): the frame the joint's
// outermost Dof rotates in.
func (s *Skeleton) parentTransform(id JointID) Mat4 {
	base := Identity()
	if p := s.parents[id]; p != NoJoint {
		base = s.WorldTransform(p)
	}
	return base.Mul(Translate(s.offsets[id]))
}

// dofFrame returns the world frame Dof k of joint j rotates in.
func (s *Skeleton) dofFrame(j *Joint, k int) Mat4 {
	return s.parentTransform(j.id).Mul(j.prefix(k))
}

// path returns the joint handles from base down to end, inclusive.
func (s *Skeleton) path(base, end JointID) ([]JointID, error) {
	if !s.valid(base) || !s.valid(end) {
		return nil, ErrNoSuchJoint
	}
	var rev []JointID
	for id := end; ; id = s.parents[id] {
		if id == NoJoint {
			return nil, fmt.Errorf("%w: %q is not below %q", ErrNoPath, s.joints[end].name, s.joints[base].name)
		}
		rev = append(rev, id)
		if id == base {
			break
		}
	}
	out := make([]JointID, len(rev))
	for i, id := range rev {
		out[len(rev)-1-i] = id
	}
	return out, nil
}
