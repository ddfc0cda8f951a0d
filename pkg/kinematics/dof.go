package kinematics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Dof is a single rotational degree of freedom.
//
// Its position is normalized: 0 maps to the current minimum angle and 1 to
// the current maximum. The local transform is a rotation by the resulting
// angle around the line (center, axis), where center is the base position
// optionally offset by an evoluta path.
type Dof struct {
	name     string
	axis     r3.Vec
	position r3.Vec

	minAngle, maxAngle float64
	curMin, curMax     float64

	pos  float64
	rest float64

	path     Path
	modifier RangeModifier

	// Frame arbitration: the highest priority written during epoch.
	priority int
	epoch    uint64

	owner    JointID
	attached bool

	angle    float64
	center   r3.Vec
	local    Mat4
	revision uint64
}

// NewDof creates a Dof rotating around axis through position, limited to
// [minAngle, maxAngle] radians. It starts at normalized position 0.
func NewDof(axis, position r3.Vec, minAngle, maxAngle float64) (*Dof, error) {
	if r3.Norm(axis) == 0 {
		return nil, ErrDegenerateAxis
	}
	if minAngle > maxAngle {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrInvalidRange, minAngle, maxAngle)
	}
	d := &Dof{
		axis:     r3.Unit(axis),
		position: position,
		minAngle: minAngle,
		maxAngle: maxAngle,
		curMin:   minAngle,
		curMax:   maxAngle,
		owner:    NoJoint,
	}
	d.MoveTo(0)
	return d, nil
}

// Name returns the Dof's label ("" if unnamed).
func (d *Dof) Name() string { return d.name }

// SetName labels the Dof; joints look Dofs up by this label.
func (d *Dof) SetName(name string) { d.name = name }

// Axis returns the unit rotation axis.
func (d *Dof) Axis() r3.Vec { return d.axis }

// BasePosition returns the rotation center before any path offset.
func (d *Dof) BasePosition() r3.Vec { return d.position }

// Center returns the rotation center currently in effect.
func (d *Dof) Center() r3.Vec { return d.center }

// Range returns the base angular range.
func (d *Dof) Range() (min, max float64) { return d.minAngle, d.maxAngle }

// Position returns the normalized position in [0, 1].
func (d *Dof) Position() float64 { return d.pos }

// Angle returns the rotation angle currently applied.
func (d *Dof) Angle() float64 { return d.angle }

// Transform returns the Dof's local transform.
func (d *Dof) Transform() Mat4 { return d.local }

// Owner returns the joint the Dof is attached to, or NoJoint.
func (d *Dof) Owner() JointID { return d.owner }

// Revision increments each time the transform changes.
func (d *Dof) Revision() uint64 { return d.revision }

// Rest returns the rest position.
func (d *Dof) Rest() float64 { return d.rest }

// SetRest sets the rest position (clamped to [0, 1]).
func (d *Dof) SetRest(pos float64) { d.rest = clamp(pos, 0, 1) }

// SetAtRest moves the Dof to its rest position.
func (d *Dof) SetAtRest() { d.MoveTo(d.rest) }

// SetPath attaches an evoluta path and re-applies the current position.
// A nil path restores the fixed rotation center.
func (d *Dof) SetPath(p Path) {
	d.path = p
	d.MoveTo(d.pos)
}

// SetRangeModifier installs m (nil removes it) and re-applies the current position.
func (d *Dof) SetRangeModifier(m RangeModifier) {
	d.modifier = m
	d.MoveTo(d.pos)
}

// CurrentMin returns the base minimum intersected with the modifier's minimum.
func (d *Dof) CurrentMin() float64 {
	if d.modifier == nil {
		return d.minAngle
	}
	return math.Max(d.minAngle, d.modifier.Min())
}

// CurrentMax returns the base maximum intersected with the modifier's maximum.
func (d *Dof) CurrentMax() float64 {
	if d.modifier == nil {
		return d.maxAngle
	}
	return math.Min(d.maxAngle, d.modifier.Max())
}

func (d *Dof) refreshRange() {
	d.curMin, d.curMax = d.CurrentMin(), d.CurrentMax()
	if d.curMax < d.curMin {
		d.curMax = d.curMin
	}
}

// MoveTo sets the normalized position, clamping it to [0, 1], and rebuilds
// the local transform.
func (d *Dof) MoveTo(pos float64) {
	pos = clamp(pos, 0, 1)
	d.refreshRange()

	d.angle = d.curMin + pos*(d.curMax-d.curMin)
	d.center = d.position
	if d.path != nil {
		d.center = r3.Add(d.center, d.path.At(pos))
	}
	d.local = RotateAbout(d.center, d.axis, d.angle)
	d.pos = pos
	d.revision++
}

// MoveToPriority writes pos only if level is strictly higher than the
// priority already recorded for epoch. A stored priority from an older
// epoch counts as zero. It reports whether the write was applied.
func (d *Dof) MoveToPriority(pos float64, level int, epoch uint64) bool {
	if d.epoch != epoch {
		d.epoch = epoch
		d.priority = 0
	}
	if level <= d.priority {
		return false
	}
	d.priority = level
	d.MoveTo(pos)
	return true
}

// Priority returns the priority recorded for epoch.
func (d *Dof) Priority(epoch uint64) int {
	if d.epoch != epoch {
		return 0
	}
	return d.priority
}

// Reconfigure rotates the Dof so the direction state turns toward target.
// Both vectors are projected onto the plane perpendicular to the axis; the
// signed angle between the projections is added to the current angle and
// the result is clamped to the current range. Vectors are expressed in the
// Dof's own (parent) frame. Zero-length projections leave the Dof unchanged.
func (d *Dof) Reconfigure(state, target r3.Vec) {
	s := r3.Sub(state, r3.Scale(r3.Dot(state, d.axis), d.axis))
	t := r3.Sub(target, r3.Scale(r3.Dot(target, d.axis), d.axis))
	ns, nt := r3.Norm(s), r3.Norm(t)
	if ns == 0 || nt == 0 {
		return
	}

	// s and t are perpendicular to the axis, so their cross product is
	// parallel to it and its projection carries the sign.
	delta := math.Atan2(r3.Dot(r3.Cross(s, t), d.axis), r3.Dot(s, t))

	d.refreshRange()
	angle := clamp(d.angle+delta, d.curMin, d.curMax)
	span := d.curMax - d.curMin
	if span == 0 {
		d.MoveTo(0)
		return
	}
	d.MoveTo((angle - d.curMin) / span)
}
