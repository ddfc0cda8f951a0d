package interp

import (
	"fmt"
	"sort"
)

// Tension scales the neighbour slopes used as Hermite tangents.
const Tension = 0.25

// Point is a Hermite control point. Time and Value are both normalized:
// Time is the interpolation index and Value the fraction of the span.
type Point struct {
	Time  float64 `yaml:"t" json:"t"`
	Value float64 `yaml:"v" json:"v"`
}

// Hermite is a cardinal cubic Hermite spline through control points.
// Tangents are (1-Tension)·Δvalue/Δtime taken from the neighbouring points
// (one-sided at the ends). Indices outside the control range clamp to the
// first or last value.
type Hermite struct {
	points   []Point
	tangents []float64
}

// NewHermite builds a spline. Control times must strictly increase.
func NewHermite(points ...Point) (*Hermite, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewPoints, len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i].Time <= points[i-1].Time {
			return nil, fmt.Errorf("%w: t[%d]=%g after %g", ErrNonMonotonic, i, points[i].Time, points[i-1].Time)
		}
	}

	h := &Hermite{
		points:   append([]Point(nil), points...),
		tangents: make([]float64, len(points)),
	}
	last := len(points) - 1
	for i := range points {
		prev, next := i-1, i+1
		if prev < 0 {
			prev = 0
		}
		if next > last {
			next = last
		}
		dt := points[next].Time - points[prev].Time
		h.tangents[i] = (1 - Tension) * (points[next].Value - points[prev].Value) / dt
	}
	return h, nil
}

// DefaultHermite is the two-point spline from (0, 0) to (1, 1).
func DefaultHermite() *Hermite {
	h, _ := NewHermite(Point{0, 0}, Point{1, 1})
	return h
}

// Points returns a copy of the control points.
func (h *Hermite) Points() []Point {
	return append([]Point(nil), h.points...)
}

// Interpolate implements Interpolator.
func (h *Hermite) Interpolate(index, initial, span float64) float64 {
	return initial + span*h.at(index)
}

func (h *Hermite) at(t float64) float64 {
	first, last := h.points[0], h.points[len(h.points)-1]
	if t <= first.Time {
		return first.Value
	}
	if t >= last.Time {
		return last.Value
	}

	// First point strictly after t; the segment is [k-1, k].
	k := sort.Search(len(h.points), func(i int) bool { return h.points[i].Time > t })
	p0, p1 := h.points[k-1], h.points[k]
	dt := p1.Time - p0.Time
	s := (t - p0.Time) / dt

	s2 := s * s
	s3 := s2 * s
	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2
	return h00*p0.Value + h10*dt*h.tangents[k-1] + h01*p1.Value + h11*dt*h.tangents[k]
}

// Name implements Interpolator.
func (*Hermite) Name() string { return "hermite" }
