package kinematics

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// JointID addresses a joint inside a Skeleton.
type JointID int

// NoJoint marks a Dof or joint that is not registered anywhere.
const NoJoint JointID = -1

// Shape restricts how many Dofs a joint accepts.
type Shape int

const (
	// ShapeFree accepts any number of Dofs.
	ShapeFree Shape = iota
	// ShapeOne is a hinge.
	ShapeOne
	// ShapeTwo is a saddle/universal joint.
	ShapeTwo
	// ShapeThree is a ball joint.
	ShapeThree
)

// Capacity returns the number of Dofs the shape requires (0 = unlimited).
func (s Shape) Capacity() int {
	switch s {
	case ShapeOne:
		return 1
	case ShapeTwo:
		return 2
	case ShapeThree:
		return 3
	default:
		return 0
	}
}

// String returns a human-readable shape name.
func (s Shape) String() string {
	switch s {
	case ShapeFree:
		return "free"
	case ShapeOne:
		return "one"
	case ShapeTwo:
		return "two"
	case ShapeThree:
		return "three"
	default:
		return "unknown"
	}
}

// ParseShape maps "free", "one", "two" and "three" to a Shape.
func ParseShape(name string) (Shape, error) {
	switch name {
	case "", "free":
		return ShapeFree, nil
	case "one":
		return ShapeOne, nil
	case "two":
		return ShapeTwo, nil
	case "three":
		return ShapeThree, nil
	default:
		return ShapeFree, fmt.Errorf("%w: %q", ErrUnknownShape, name)
	}
}

// Joint composes an ordered list of Dofs into one local transform (LIM).
//
// With Dofs [D1 … Dn] the transform is Dn·…·D1: D1 acts first on a point
// expressed in the joint frame and Dn is outermost.
type Joint struct {
	id    JointID
	name  string
	shape Shape

	dofs  []*Dof
	owned []bool

	lim   Mat4
	revs  []uint64
	dirty bool
}

// NewJoint creates a standalone joint.
func NewJoint(name string, shape Shape) *Joint {
	return &Joint{id: NoJoint, name: name, shape: shape, lim: Identity()}
}

// ID returns the joint's skeleton handle (NoJoint when standalone).
func (j *Joint) ID() JointID { return j.id }

// Name returns the joint name.
func (j *Joint) Name() string { return j.name }

// Shape returns the joint shape.
func (j *Joint) Shape() Shape { return j.shape }

// Len returns the number of attached Dofs.
func (j *Joint) Len() int { return len(j.dofs) }

// Complete reports whether a fixed-shape joint has its full complement.
func (j *Joint) Complete() bool {
	c := j.shape.Capacity()
	return c == 0 || len(j.dofs) == c
}

// NewDof creates a Dof owned by the joint and appends it.
func (j *Joint) NewDof(axis, position r3.Vec, minAngle, maxAngle float64) (*Dof, error) {
	if err := j.checkCapacity(); err != nil {
		return nil, err
	}
	d, err := NewDof(axis, position, minAngle, maxAngle)
	if err != nil {
		return nil, err
	}
	j.attach(d, true)
	return d, nil
}

// AttachDof appends an externally owned Dof by reference.
func (j *Joint) AttachDof(d *Dof) error {
	if d.attached || j.indexOf(d) >= 0 {
		return ErrDofAttached
	}
	if err := j.checkCapacity(); err != nil {
		return err
	}
	j.attach(d, false)
	return nil
}

func (j *Joint) checkCapacity() error {
	if c := j.shape.Capacity(); c > 0 && len(j.dofs) >= c {
		return fmt.Errorf("%w: %s joint %q holds %d", ErrJointFull, j.shape, j.name, c)
	}
	return nil
}

func (j *Joint) attach(d *Dof, owned bool) {
	d.owner = j.id
	d.attached = true
	j.dofs = append(j.dofs, d)
	j.owned = append(j.owned, owned)
	j.revs = append(j.revs, d.revision)
	j.dirty = true
}

func (j *Joint) indexOf(d *Dof) int {
	for i, x := range j.dofs {
		if x == d {
			return i
		}
	}
	return -1
}

// Dof returns the i-th Dof. It panics if i is out of range.
func (j *Joint) Dof(i int) *Dof { return j.dofs[i] }

// HasDof reports whether ordinal i addresses an attached Dof.
func (j *Joint) HasDof(i int) bool { return i >= 0 && i < len(j.dofs) }

// DofByName returns the ordinal of the Dof named name.
func (j *Joint) DofByName(name string) (int, bool) {
	for i, d := range j.dofs {
		if d.name == name {
			return i, true
		}
	}
	return -1, false
}

// Dofs returns the attached Dofs in order.
func (j *Joint) Dofs() []*Dof {
	return append([]*Dof(nil), j.dofs...)
}

// Owns reports whether the joint created Dof i.
func (j *Joint) Owns(i int) bool { return j.HasDof(i) && j.owned[i] }

// SetAtRest moves every Dof to its rest position.
func (j *Joint) SetAtRest() {
	for _, d := range j.dofs {
		d.SetAtRest()
	}
}

// Transform returns the composed local transform. It is recomposed whenever
// any Dof changed since the last call. Fixed-shape joints report identity
// until all their Dofs are attached.
func (j *Joint) Transform() Mat4 {
	if !j.Complete() {
		return Identity()
	}
	if j.stale() {
		j.recompose()
	}
	return j.lim
}

// Positions returns the normalized position of each Dof.
func (j *Joint) Positions() []float64 {
	out := make([]float64, len(j.dofs))
	for i, d := range j.dofs {
		out[i] = d.pos
	}
	return out
}

func (j *Joint) stale() bool {
	if j.dirty {
		return true
	}
	for i, d := range j.dofs {
		if j.revs[i] != d.revision {
			return true
		}
	}
	return false
}

func (j *Joint) recompose() {
	m := Identity()
	for i, d := range j.dofs {
		m = d.local.Mul(m)
		j.revs[i] = d.revision
	}
	j.lim = m
	j.dirty = false
}

// prefix returns the product of the Dofs after ordinal k, outermost first:
// the frame Dof k rotates in, relative to the joint frame.
func (j *Joint) prefix(k int) Mat4 {
	m := Identity()
	for i := len(j.dofs) - 1; i > k; i-- {
		m = m.Mul(j.dofs[i].local)
	}
	return m
}
