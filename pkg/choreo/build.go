package choreo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-figure/pkg/animation"
	"github.com/teslashibe/go-figure/pkg/interp"
	"github.com/teslashibe/go-figure/pkg/kinematics"
)

// Figure is a built document.
type Figure struct {
	Name     string
	Skeleton *kinematics.Skeleton
	Library  *Library
}

// Options tune Build.
type Options struct {
	// Source supplies noise sub-goals for every action. nil leaves each
	// action with its own random source.
	Source animation.SubGoalSource
}

type builder struct {
	opts Options
	keys *animation.NoiseKeys
	fig  *Figure
	errs []error
}

func (b *builder) fail(path, value string, err error) {
	b.errs = append(b.errs, &ParseError{Path: path, Value: value, Err: err})
}

// Build turns doc into a skeleton and an action library. Problems are
// collected as ParseErrors and returned joined; the figure is still
// returned with every part that did build.
func Build(doc *Document, opts Options) (*Figure, error) {
	b := &builder{
		opts: opts,
		keys: new(animation.NoiseKeys),
		fig: &Figure{
			Name:     doc.Name,
			Skeleton: kinematics.NewSkeleton(),
			Library:  NewLibrary(),
		},
	}
	for i, js := range doc.Skeleton.Joints {
		b.joint(fmt.Sprintf("skeleton.joints[%d]", i), js)
	}
	for i, cs := range doc.Couplings {
		b.coupling(fmt.Sprintf("couplings[%d]", i), cs)
	}
	for i, as := range doc.Actions {
		b.action(fmt.Sprintf("actions[%d]", i), as)
	}
	return b.fig, errors.Join(b.errs...)
}

// LoadBytes parses and builds a document.
func LoadBytes(data []byte, opts Options) (*Figure, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Build(doc, opts)
}

func (b *builder) joint(path string, js JointSpec) {
	shape, err := kinematics.ParseShape(js.Shape)
	if err != nil {
		b.fail(path+".shape", js.Shape, err)
		return
	}
	parent := kinematics.NoJoint
	if js.Parent != "" {
		p, ok := b.fig.Skeleton.JointByName(js.Parent)
		if !ok {
			b.fail(path+".parent", js.Parent, ErrUnknownJoint)
			return
		}
		parent = p.ID()
	}
	j, err := b.fig.Skeleton.AddJoint(js.Name, parent, js.Offset.Vec(), shape)
	if err != nil {
		b.fail(path+".name", js.Name, err)
		return
	}
	for i, ds := range js.Dofs {
		b.dof(fmt.Sprintf("%s.dofs[%d]", path, i), j, ds)
	}
}

func (b *builder) dof(path string, j *kinematics.Joint, ds DofSpec) {
	d, err := j.NewDof(ds.Axis.Vec(), ds.Center.Vec(), kinematics.Radians(ds.Min), kinematics.Radians(ds.Max))
	if err != nil {
		b.fail(path, ds.Name, err)
		return
	}
	d.SetName(ds.Name)
	if ds.Path != nil {
		if p, err := buildPath(ds.Path); err != nil {
			b.fail(path+".path", "", err)
		} else {
			d.SetPath(p)
		}
	}
	if ds.Rest != nil {
		d.SetRest(*ds.Rest)
		d.SetAtRest()
	}
}

func parseInterpolation(name string) (kinematics.Interpolation, error) {
	switch name {
	case "", "linear":
		return kinematics.LinearSamples, nil
	case "cubic":
		return kinematics.CubicSamples, nil
	default:
		return 0, fmt.Errorf("%w: interpolation must be linear or cubic", ErrMalformed)
	}
}

func buildPath(ps *PathSpec) (kinematics.Path, error) {
	mode, err := parseInterpolation(ps.Interpolation)
	if err != nil {
		return nil, err
	}
	params := make([]float64, len(ps.Samples))
	points := make([]r3.Vec, len(ps.Samples))
	for i, s := range ps.Samples {
		params[i], points[i] = s.At, s.Offset.Vec()
	}
	return kinematics.NewSampledPath(params, points, mode)
}

// lookupDof resolves "joint.dof". The dof part may also be an ordinal.
func (b *builder) lookupDof(ref string) (*kinematics.Dof, error) {
	jn, dn, ok := strings.Cut(ref, ".")
	if !ok {
		return nil, fmt.Errorf("%w: want joint.dof", ErrMalformed)
	}
	j, ok := b.fig.Skeleton.JointByName(jn)
	if !ok {
		return nil, ErrUnknownJoint
	}
	i, err := dofIndex(j, dn)
	if err != nil {
		return nil, err
	}
	return j.Dof(i), nil
}

func dofIndex(j *kinematics.Joint, name string) (int, error) {
	if i, ok := j.DofByName(name); ok {
		return i, nil
	}
	if i, err := strconv.Atoi(name); err == nil && j.HasDof(i) {
		return i, nil
	}
	return 0, ErrUnknownDof
}

func (b *builder) coupling(path string, cs CouplingSpec) {
	d, err := b.lookupDof(cs.Dof)
	if err != nil {
		b.fail(path+".dof", cs.Dof, err)
		return
	}
	c := kinematics.NewCoupling()
	for i, ts := range cs.Terms {
		tp := fmt.Sprintf("%s.terms[%d]", path, i)
		src, err := b.lookupDof(ts.Source)
		if err != nil {
			b.fail(tp+".source", ts.Source, err)
			continue
		}
		lo, err := buildCurve(ts.Min)
		if err != nil {
			b.fail(tp+".min", ts.Min.Expr, err)
			continue
		}
		hi, err := buildCurve(ts.Max)
		if err != nil {
			b.fail(tp+".max", ts.Max.Expr, err)
			continue
		}
		c.Add(src, lo, hi)
	}
	d.SetRangeModifier(c)
}

// buildCurve returns nil for an omitted curve, meaning "no bound".
func buildCurve(cs CurveSpec) (kinematics.Curve, error) {
	switch {
	case cs.IsZero():
		return nil, nil
	case cs.Const != nil:
		return kinematics.ConstCurve(*cs.Const), nil
	case cs.Expr != "":
		return kinematics.NewExprCurve(cs.Expr)
	}
	mode, err := parseInterpolation(cs.Interpolation)
	if err != nil {
		return nil, err
	}
	xs := make([]float64, len(cs.Samples))
	ys := make([]float64, len(cs.Samples))
	for i, s := range cs.Samples {
		xs[i], ys[i] = s[0], s[1]
	}
	return kinematics.NewSampledCurve(xs, ys, mode)
}

// buildInterpolator returns nil for an omitted interpolator, meaning "inherit".
func buildInterpolator(s InterpolatorSpec) (interp.Interpolator, error) {
	if s.IsZero() {
		return nil, nil
	}
	switch strings.ToLower(s.Type) {
	case "range_sine":
		if s.Min == nil && s.Max == nil {
			break
		}
		lo, hi := 0.0, 1.0
		if s.Min != nil {
			lo = *s.Min
		}
		if s.Max != nil {
			hi = *s.Max
		}
		return interp.NewRangedSine(lo, hi)
	case "hermite":
		if s.Points == nil {
			break
		}
		return interp.NewHermite(s.Points...)
	}
	return interp.Parse(s.Type)
}

// noiseParams overlays the set fields of noise and error onto base.
func noiseParams(base animation.NoiseParams, noise *NoiseSpec, errSpec *ErrorSpec) animation.NoiseParams {
	p := base
	if noise != nil {
		setIf(&p.Amplitude, noise.Amplitude)
		setIf(&p.WaveLength, noise.WaveLength)
	}
	if errSpec != nil {
		setIf(&p.Overshoot, errSpec.Overshoot)
		setIf(&p.Offset, errSpec.Offset)
		setIf(&p.PeakTime, errSpec.Peak)
	}
	return p
}

func setIf(dst, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func (b *builder) action(path string, as ActionSpec) {
	ip, err := buildInterpolator(as.Interpolator)
	if err != nil {
		b.fail(path+".interpolator", as.Interpolator.Type, err)
		ip = nil
	}
	defaults := noiseParams(animation.DefaultNoiseParams(), as.Noise, as.Error)
	a, err := animation.NewAction(animation.ActionConfig{
		Name:         as.Name,
		Duration:     as.Duration,
		Speed:        as.Speed,
		Priority:     as.Priority,
		Cyclic:       as.Cyclic,
		TimeToLive:   as.TTL,
		Interpolator: ip,
		Noise:        &defaults,
		Source:       b.opts.Source,
		Keys:         b.keys,
	})
	if err != nil {
		b.fail(path, as.Name, err)
		return
	}

	for i, jms := range as.Joints {
		jp := fmt.Sprintf("%s.joints[%d]", path, i)
		j, ok := b.fig.Skeleton.JointByName(jms.Joint)
		if !ok {
			b.fail(jp+".joint", jms.Joint, ErrUnknownJoint)
			continue
		}
		jm, err := a.AddJointMover(j, jms.Duration)
		if err != nil {
			b.fail(jp+".duration", strconv.FormatFloat(jms.Duration, 'g', -1, 64), err)
			continue
		}
		if ip, err := buildInterpolator(jms.Interpolator); err != nil {
			b.fail(jp+".interpolator", jms.Interpolator.Type, err)
		} else {
			jm.SetInterpolator(ip)
		}
		for k, ms := range jms.Moves {
			b.move(fmt.Sprintf("%s.moves[%d]", jp, k), a, jm, ms)
		}
	}

	if err := b.fig.Library.Register(a); err != nil {
		b.fail(path+".name", as.Name, err)
	}
}

func (b *builder) move(path string, a *animation.Action, jm *animation.JointMover, ms MoveSpec) {
	i, err := dofIndex(jm.Joint(), ms.Dof)
	if err != nil {
		b.fail(path+".dof", ms.Dof, err)
		return
	}
	from, to := ms.From/jm.Duration(), ms.To/jm.Duration()

	var m *animation.DofMover
	if ms.Noise != nil || ms.Error != nil {
		p := noiseParams(a.NoiseDefaults(), ms.Noise, ms.Error)
		m, err = jm.AddNoisyDofMover(i, ms.Position, from, to, &p)
	} else {
		m, err = jm.AddDofMover(i, ms.Position, from, to)
	}
	if err != nil {
		b.fail(path, ms.Dof, err)
		return
	}

	ip, err := buildInterpolator(ms.Interpolator)
	if err != nil {
		b.fail(path+".interpolator", ms.Interpolator.Type, err)
		return
	}
	m.SetInterpolator(ip)
}
