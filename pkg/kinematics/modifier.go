package kinematics

import "math"

// RangeModifier narrows a Dof's legal range based on external state.
// Min and Max are angles in radians; a Dof intersects them with its own range.
type RangeModifier interface {
	Min() float64
	Max() float64
}

// CouplingTerm binds one source Dof to a pair of bound curves.
// A nil curve leaves that side unbounded.
type CouplingTerm struct {
	Source   *Dof
	MinCurve Curve
	MaxCurve Curve
}

// Coupling is a RangeModifier driven by other Dofs' current positions.
// The reported bound is the tightest over all terms: the largest minimum and
// the smallest maximum.
type Coupling struct {
	terms []CouplingTerm
}

// NewCoupling creates a coupling from terms.
func NewCoupling(terms ...CouplingTerm) *Coupling {
	return &Coupling{terms: append([]CouplingTerm(nil), terms...)}
}

// Add appends a term.
func (c *Coupling) Add(source *Dof, minCurve, maxCurve Curve) {
	c.terms = append(c.terms, CouplingTerm{Source: source, MinCurve: minCurve, MaxCurve: maxCurve})
}

// Len returns the number of terms.
func (c *Coupling) Len() int { return len(c.terms) }

// Min returns the largest lower bound, or -Inf when no term bounds it.
func (c *Coupling) Min() float64 {
	bound := math.Inf(-1)
	for _, t := range c.terms {
		if t.MinCurve == nil || t.Source == nil {
			continue
		}
		v := t.MinCurve.At(t.Source.Position())
		if !math.IsNaN(v) && v > bound {
			bound = v
		}
	}
	return bound
}

// Max returns the smallest upper bound, or +Inf when no term bounds it.
func (c *Coupling) Max() float64 {
	bound := math.Inf(1)
	for _, t := range c.terms {
		if t.MaxCurve == nil || t.Source == nil {
			continue
		}
		v := t.MaxCurve.At(t.Source.Position())
		if !math.IsNaN(v) && v < bound {
			bound = v
		}
	}
	return bound
}
