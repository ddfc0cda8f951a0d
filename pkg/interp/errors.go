package interp

import "errors"

var (
	// ErrUnknownInterpolator is returned by Parse for unrecognised names.
	ErrUnknownInterpolator = errors.New("unknown interpolator")

	// ErrTooFewPoints is returned when a Hermite spline has fewer than two control points.
	ErrTooFewPoints = errors.New("hermite spline needs at least two control points")

	// ErrNonMonotonic is returned when control point times do not strictly increase.
	ErrNonMonotonic = errors.New("control point times must strictly increase")

	// ErrBadPhase is returned when a ranged sine window is empty or inverted.
	ErrBadPhase = errors.New("ranged sine needs min < max")
)
