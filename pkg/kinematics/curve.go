package kinematics

import (
	"fmt"
	"math"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/spatial/r3"
)

// Curve maps a normalized Dof position to a scalar. Coupling bounds are
// Curves evaluated at their source Dof's current position.
type Curve interface {
	At(x float64) float64
}

// CurveFunc adapts a plain function to the Curve interface.
type CurveFunc func(x float64) float64

// At calls f(x).
func (f CurveFunc) At(x float64) float64 { return f(x) }

// ConstCurve is a curve with the same value everywhere.
type ConstCurve float64

// At returns the constant.
func (c ConstCurve) At(float64) float64 { return float64(c) }

// Interpolation selects how sampled curves and paths are fitted.
type Interpolation int

const (
	// LinearSamples joins samples with straight segments.
	LinearSamples Interpolation = iota

	// CubicSamples fits a natural cubic spline (falls back to linear
	// for fewer than three samples).
	CubicSamples
)

// String returns the YAML name of the interpolation.
func (i Interpolation) String() string {
	switch i {
	case LinearSamples:
		return "linear"
	case CubicSamples:
		return "cubic"
	default:
		return "unknown"
	}
}

func newPredictor(mode Interpolation, n int) interp.FittablePredictor {
	if mode == CubicSamples && n >= 3 {
		return &interp.NaturalCubic{}
	}
	return &interp.PiecewiseLinear{}
}

// SampledCurve interpolates between (x, y) samples. Inputs outside the
// sampled interval are clamped to its ends.
type SampledCurve struct {
	fit    interp.FittablePredictor
	lo, hi float64
}

// NewSampledCurve fits a curve through xs/ys. xs must be strictly increasing.
func NewSampledCurve(xs, ys []float64, mode Interpolation) (*SampledCurve, error) {
	if len(xs) < 2 || len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: got %d x / %d y", ErrTooFewSamples, len(xs), len(ys))
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("%w: x[%d]=%g after %g", ErrUnsortedSamples, i, xs[i], xs[i-1])
		}
	}
	fit := newPredictor(mode, len(xs))
	if err := fit.Fit(append([]float64(nil), xs...), append([]float64(nil), ys...)); err != nil {
		return nil, fmt.Errorf("fit curve: %w", err)
	}
	return &SampledCurve{fit: fit, lo: xs[0], hi: xs[len(xs)-1]}, nil
}

// At returns the interpolated value at x.
func (c *SampledCurve) At(x float64) float64 {
	return c.fit.Predict(clamp(x, c.lo, c.hi))
}

// curveEnv is the variable scope of expression curves.
type curveEnv struct {
	X  float64 `expr:"x"`
	Pi float64 `expr:"pi"`
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return math.NaN()
	}
}

func mathFunc(name string, fn func(float64) float64) expr.Option {
	return expr.Function(name, func(params ...any) (any, error) {
		return fn(toFloat(params[0])), nil
	}, new(func(float64) float64))
}

var curveOptions = []expr.Option{
	expr.Env(curveEnv{}),
	expr.AsFloat64(),
	mathFunc("sin", math.Sin),
	mathFunc("cos", math.Cos),
	mathFunc("tan", math.Tan),
	mathFunc("sqrt", math.Sqrt),
	mathFunc("rad", Radians),
	mathFunc("deg", Degrees),
}

// ExprCurve evaluates an expression of x, e.g. "0.5*x - rad(20)".
// Evaluation failures yield NaN, which couplings treat as "no bound".
type ExprCurve struct {
	source  string
	program *vm.Program
}

// NewExprCurve compiles source. Compilation errors are returned, never deferred.
func NewExprCurve(source string) (*ExprCurve, error) {
	program, err := expr.Compile(source, curveOptions...)
	if err != nil {
		return nil, fmt.Errorf("compile curve %q: %w", source, err)
	}
	return &ExprCurve{source: source, program: program}, nil
}

// Source returns the expression text.
func (c *ExprCurve) Source() string { return c.source }

// At evaluates the expression with x bound.
func (c *ExprCurve) At(x float64) float64 {
	out, err := expr.Run(c.program, curveEnv{X: x, Pi: math.Pi})
	if err != nil {
		return math.NaN()
	}
	return toFloat(out)
}

// Path is an evoluta: a curve, parameterized by a Dof's normalized position,
// that offsets the Dof's rotation center.
type Path interface {
	At(s float64) r3.Vec
}

// PathFunc adapts a plain function to the Path interface.
type PathFunc func(s float64) r3.Vec

// At calls f(s).
func (f PathFunc) At(s float64) r3.Vec { return f(s) }

// SampledPath interpolates offsets between samples, one fit per coordinate.
type SampledPath struct {
	x, y, z *SampledCurve
}

// NewSampledPath fits a path through points at parameters params.
func NewSampledPath(params []float64, points []r3.Vec, mode Interpolation) (*SampledPath, error) {
	if len(params) != len(points) {
		return nil, fmt.Errorf("%w: got %d params / %d points", ErrTooFewSamples, len(params), len(points))
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	zs := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i], zs[i] = p.X, p.Y, p.Z
	}
	var (
		p   SampledPath
		err error
	)
	if p.x, err = NewSampledCurve(params, xs, mode); err != nil {
		return nil, err
	}
	if p.y, err = NewSampledCurve(params, ys, mode); err != nil {
		return nil, err
	}
	if p.z, err = NewSampledCurve(params, zs, mode); err != nil {
		return nil, err
	}
	return &p, nil
}

// At returns the offset at parameter s.
func (p *SampledPath) At(s float64) r3.Vec {
	return r3.Vec{X: p.x.At(s), Y: p.y.At(s), Z: p.z.At(s)}
}
