// Package interp provides the interpolation strategies used by Dof movers.
//
// An Interpolator is a pure function from a normalized index in [0, 1] to a
// position between initial and initial+span. Implementations hold no
// per-call state, so one instance can be shared by any number of movers.
package interp

import (
	"fmt"
	"math"
	"strings"
)

// Interpolator maps an interpolation index to a position.
type Interpolator interface {
	// Interpolate returns the position at index, where index 0 is initial
	// and index 1 is initial+span.
	Interpolate(index, initial, span float64) float64

	// Name returns the name Parse accepts for this interpolator.
	Name() string
}

// Linear moves at constant speed.
type Linear struct{}

// Interpolate implements Interpolator.
func (Linear) Interpolate(index, initial, span float64) float64 {
	return initial + index*span
}

// Name implements Interpolator.
func (Linear) Name() string { return "linear" }

// Sine eases in and out with half a sine period.
type Sine struct{}

// Interpolate implements Interpolator.
func (Sine) Interpolate(index, initial, span float64) float64 {
	return initial + span*sineRamp(index)
}

// Name implements Interpolator.
func (Sine) Name() string { return "ease-in_ease-out" }

// sineRamp goes from 0 at x=0 to 1 at x=1 with zero slope at both ends.
func sineRamp(x float64) float64 {
	return (math.Sin((x+1.5)*math.Pi) + 1) / 2
}

// RangedSine runs only the [Min, Max] phase window of the sine ramp,
// rescaled so the result still starts at initial and ends at initial+span.
// Min=0, Max=1 behaves like Sine; Min=0, Max=0.5 eases in and ends at full
// speed.
type RangedSine struct {
	Min float64
	Max float64
}

// NewRangedSine validates the phase window.
func NewRangedSine(lo, hi float64) (RangedSine, error) {
	if !(lo < hi) {
		return RangedSine{}, fmt.Errorf("%w: [%g, %g]", ErrBadPhase, lo, hi)
	}
	return RangedSine{Min: lo, Max: hi}, nil
}

// Interpolate implements Interpolator. A degenerate window falls back to linear.
func (r RangedSine) Interpolate(index, initial, span float64) float64 {
	lo, hi := sineRamp(r.Min), sineRamp(r.Max)
	if hi == lo {
		return Linear{}.Interpolate(index, initial, span)
	}
	phase := r.Min + index*(r.Max-r.Min)
	return initial + span*(sineRamp(phase)-lo)/(hi-lo)
}

// Name implements Interpolator.
func (RangedSine) Name() string { return "range_sine" }

// Default is the interpolator movers fall back to when none is set.
var Default Interpolator = Linear{}

// Parse returns the interpolator registered under name. Names are matched
// case-insensitively; "sine" is accepted as an alias of "ease-in_ease-out".
// "range_sine" yields the full [0, 1] window and "hermite" a two-point
// spline equivalent to an eased linear ramp; callers that need other
// parameters construct the types directly.
func Parse(name string) (Interpolator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linear", "":
		return Linear{}, nil
	case "ease-in_ease-out", "sine":
		return Sine{}, nil
	case "range_sine":
		return RangedSine{Min: 0, Max: 1}, nil
	case "hermite":
		return DefaultHermite(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownInterpolator, name)
	}
}

// Names lists the names Parse accepts, aliases excluded.
func Names() []string {
	return []string{"linear", "ease-in_ease-out", "range_sine", "hermite"}
}
