package animation

import "errors"

var (
	// ErrNoSuchDof is returned when a mover targets a Dof ordinal the joint does not have.
	ErrNoSuchDof = errors.New("joint has no such dof")

	// ErrEmptyWindow is returned when a mover's time window is empty after clamping.
	ErrEmptyWindow = errors.New("mover time window is empty")

	// ErrInvalidDuration is returned for non-positive action or joint mover durations.
	ErrInvalidDuration = errors.New("duration must be positive")

	// ErrInvalidPriority is returned for action priorities below 1.
	ErrInvalidPriority = errors.New("action priority must be at least 1")

	// ErrNilJoint is returned when a joint mover is created without a joint.
	ErrNilJoint = errors.New("joint mover needs a joint")

	// ErrUnknownOrder is returned by ParseOrder for unrecognised names.
	ErrUnknownOrder = errors.New("unknown scheduling order")

	// ErrUnknownSource is returned by NewSource for unrecognised kinds.
	ErrUnknownSource = errors.New("unknown noise source")
)
