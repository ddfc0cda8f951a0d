package choreo

import (
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-figure/pkg/interp"
)

// Document is the YAML form of a figure: skeleton, range couplings and actions.
// Angles are in degrees; action times are in seconds.
type Document struct {
	Name      string         `yaml:"name"`
	Skeleton  SkeletonSpec   `yaml:"skeleton"`
	Couplings []CouplingSpec `yaml:"couplings"`
	Actions   []ActionSpec   `yaml:"actions"`
}

// SkeletonSpec lists joints parents-first.
type SkeletonSpec struct {
	Joints []JointSpec `yaml:"joints"`
}

// JointSpec declares one joint.
type JointSpec struct {
	Name   string    `yaml:"name"`
	Parent string    `yaml:"parent"`
	Offset Vec3      `yaml:"offset"`
	Shape  string    `yaml:"shape"`
	Dofs   []DofSpec `yaml:"dofs"`
}

// DofSpec declares one rotational degree of freedom.
type DofSpec struct {
	Name   string    `yaml:"name"`
	Axis   Vec3      `yaml:"axis"`
	Center Vec3      `yaml:"center"`
	Min    float64   `yaml:"min"`
	Max    float64   `yaml:"max"`
	Rest   *float64  `yaml:"rest"`
	Path   *PathSpec `yaml:"path"`
}

// PathSpec is an evoluta sampled at normalized dof positions.
type PathSpec struct {
	Interpolation string       `yaml:"interpolation"`
	Samples       []PathSample `yaml:"samples"`
}

// PathSample is one evoluta point.
type PathSample struct {
	At     float64 `yaml:"at"`
	Offset Vec3    `yaml:"offset"`
}

// CouplingSpec bounds a dof by curves of other dofs.
type CouplingSpec struct {
	Dof   string     `yaml:"dof"`
	Terms []TermSpec `yaml:"terms"`
}

// TermSpec is one coupling term. Either curve may be omitted.
type TermSpec struct {
	Source string    `yaml:"source"`
	Min    CurveSpec `yaml:"min"`
	Max    CurveSpec `yaml:"max"`
}

// ActionSpec declares one action.
type ActionSpec struct {
	Name         string           `yaml:"name"`
	Duration     float64          `yaml:"duration"`
	Priority     int              `yaml:"priority"`
	Speed        float64          `yaml:"speed"`
	Cyclic       bool             `yaml:"cyclic"`
	TTL          float64          `yaml:"ttl"`
	Interpolator InterpolatorSpec `yaml:"interpolator"`
	Noise        *NoiseSpec       `yaml:"noise"`
	Error        *ErrorSpec       `yaml:"error"`
	Joints       []JointMoveSpec  `yaml:"joints"`
}

// JointMoveSpec groups the moves of one joint.
type JointMoveSpec struct {
	Joint        string           `yaml:"joint"`
	Duration     float64          `yaml:"duration"`
	Interpolator InterpolatorSpec `yaml:"interpolator"`
	Moves        []MoveSpec       `yaml:"moves"`
}

// MoveSpec moves one dof to Position over [From, To] seconds.
// A move with a noise or error block becomes a noisy mover.
type MoveSpec struct {
	Dof          string           `yaml:"dof"`
	From         float64          `yaml:"from"`
	To           float64          `yaml:"to"`
	Position     float64          `yaml:"position"`
	Interpolator InterpolatorSpec `yaml:"interpolator"`
	Noise        *NoiseSpec       `yaml:"noise"`
	Error        *ErrorSpec       `yaml:"error"`
}

// NoiseSpec is the periodic noise part of noise parameters.
type NoiseSpec struct {
	Amplitude  *float64 `yaml:"amplitude"`
	WaveLength *float64 `yaml:"wavelength"`
}

// ErrorSpec is the overshoot part of noise parameters.
type ErrorSpec struct {
	Overshoot *float64 `yaml:"overshoot"`
	Offset    *float64 `yaml:"offset"`
	Peak      *float64 `yaml:"peak"`
}

// Vec3 decodes a three element sequence.
type Vec3 r3.Vec

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Vec3) UnmarshalYAML(n *yaml.Node) error {
	var xs []float64
	if err := n.Decode(&xs); err != nil {
		return err
	}
	if len(xs) != 3 {
		return fmt.Errorf("line %d: want [x, y, z], got %d values", n.Line, len(xs))
	}
	*v = Vec3{X: xs[0], Y: xs[1], Z: xs[2]}
	return nil
}

// Vec returns the value as an r3.Vec.
func (v Vec3) Vec() r3.Vec { return r3.Vec(v) }

// CurveSpec is a coupling curve: a number, an expression of x, or a
// mapping with sampled points.
//
//	min: -0.2
//	max: "1 - 0.5*x"
//	max: {interpolation: cubic, samples: [[0, 1], [0.5, 0.8], [1, 0.2]]}
type CurveSpec struct {
	Const         *float64
	Expr          string
	Samples       [][2]float64
	Interpolation string
	Line          int
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *CurveSpec) UnmarshalYAML(n *yaml.Node) error {
	c.Line = n.Line
	switch n.Kind {
	case yaml.ScalarNode:
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			c.Const = &f
			return nil
		}
		c.Expr = n.Value
		return nil
	case yaml.MappingNode:
		var raw struct {
			Interpolation string      `yaml:"interpolation"`
			Samples       [][]float64 `yaml:"samples"`
		}
		if err := n.Decode(&raw); err != nil {
			return err
		}
		for _, s := range raw.Samples {
			if len(s) != 2 {
				return fmt.Errorf("line %d: curve samples are [x, y] pairs", n.Line)
			}
			c.Samples = append(c.Samples, [2]float64{s[0], s[1]})
		}
		c.Interpolation = raw.Interpolation
		return nil
	default:
		return fmt.Errorf("line %d: curve must be a number, expression or mapping", n.Line)
	}
}

// IsZero reports whether the curve was omitted.
func (c CurveSpec) IsZero() bool {
	return c.Const == nil && c.Expr == "" && c.Samples == nil
}

// InterpolatorSpec names an interpolator, optionally with parameters.
//
//	interpolator: ease-in_ease-out
//	interpolator: {type: range_sine, min: 0, max: 0.5}
//	interpolator: {type: hermite, points: [{t: 0, v: 0}, {t: 0.3, v: 0.8}, {t: 1, v: 1}]}
type InterpolatorSpec struct {
	Type   string
	Min    *float64
	Max    *float64
	Points []interp.Point
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *InterpolatorSpec) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		s.Type = n.Value
		return nil
	}
	var raw struct {
		Type   string         `yaml:"type"`
		Min    *float64       `yaml:"min"`
		Max    *float64       `yaml:"max"`
		Points []interp.Point `yaml:"points"`
	}
	if err := n.Decode(&raw); err != nil {
		return err
	}
	*s = InterpolatorSpec(raw)
	return nil
}

// IsZero reports whether the interpolator was omitted.
func (s InterpolatorSpec) IsZero() bool {
	return s.Type == "" && s.Points == nil && s.Min == nil && s.Max == nil
}

// Parse decodes a document without building it.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse choreography: %w", err)
	}
	return &doc, nil
}
