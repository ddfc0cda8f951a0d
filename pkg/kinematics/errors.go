package kinematics

import "errors"

var (
	// ErrDegenerateAxis is returned when a Dof is created with a zero axis.
	ErrDegenerateAxis = errors.New("dof axis has zero length")

	// ErrInvalidRange is returned when a Dof's minimum angle exceeds its maximum.
	ErrInvalidRange = errors.New("dof min angle exceeds max angle")

	// ErrJointFull is returned when attaching more Dofs than a joint shape allows.
	ErrJointFull = errors.New("joint has no free dof slot")

	// ErrDofAttached is returned when a Dof already belongs to another joint.
	ErrDofAttached = errors.New("dof already attached to a joint")

	// ErrUnknownShape is returned by ParseShape for unrecognised names.
	ErrUnknownShape = errors.New("unknown joint shape")

	// ErrDuplicateJoint is returned when a joint name is registered twice.
	ErrDuplicateJoint = errors.New("duplicate joint name")

	// ErrNoSuchJoint is returned for unknown joint names or IDs.
	ErrNoSuchJoint = errors.New("joint not found")

	// ErrNoPath is returned when an IK end joint does not descend from the base joint.
	ErrNoPath = errors.New("no joint path between base and end")

	// ErrIncompleteJoint is returned when an IK path crosses a fixed-shape
	// joint that is missing Dofs.
	ErrIncompleteJoint = errors.New("joint is missing dofs for its shape")

	// ErrEmptyChain is returned when an IK path carries no Dofs.
	ErrEmptyChain = errors.New("ik chain has no dofs")

	// ErrTooFewSamples is returned when a sampled curve or path has fewer than two points.
	ErrTooFewSamples = errors.New("curve needs at least two samples")

	// ErrUnsortedSamples is returned when sample parameters are not strictly increasing.
	ErrUnsortedSamples = errors.New("curve samples must be strictly increasing")
)
