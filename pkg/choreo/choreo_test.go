package choreo

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-figure/pkg/animation"
	"github.com/teslashibe/go-figure/pkg/interp"
	"github.com/teslashibe/go-figure/pkg/kinematics"
)

func TestLoadEmbedded_Arm(t *testing.T) {
	names, err := ListEmbedded()
	require.NoError(t, err)
	require.Contains(t, names, "arm")

	fig, err := LoadEmbedded("arm", Options{})
	require.NoError(t, err)
	assert.Equal(t, "arm", fig.Name)
	assert.Equal(t, 4, fig.Skeleton.Len())
	assert.Equal(t, []string{"breathe", "reach", "rest", "wave"}, fig.Library.List())

	shoulder, ok := fig.Skeleton.JointByName("shoulder")
	require.True(t, ok)
	assert.True(t, shoulder.Complete())

	// roll max = 90° - 60°·pitch, with pitch at rest 0.5.
	i, ok := shoulder.DofByName("roll")
	require.True(t, ok)
	assert.InDelta(t, kinematics.Radians(60), shoulder.Dof(i).CurrentMax(), 1e-9)

	reach, err := fig.Library.Get("reach")
	require.NoError(t, err)
	assert.Equal(t, 3, reach.Priority())
	movers := reach.JointMovers()
	require.Len(t, movers, 2)
	assert.True(t, movers[0].Movers()[0].IsNoisy())
	assert.Equal(t, "hermite", movers[0].Movers()[0].Interpolator().Name())
}

func TestBuild_RunsAnAction(t *testing.T) {
	fig, err := LoadBytes([]byte(`
name: hinge
skeleton:
  joints:
    - name: knee
      shape: one
      dofs:
        - {name: bend, axis: [0, 1, 0], center: [0, 0, 0], min: 0, max: 90}
actions:
  - name: kick
    duration: 1
    joints:
      - joint: knee
        moves:
          - {dof: bend, from: 0, to: 1, position: 1}
`), Options{Source: animation.NewPerlinSource(3)})
	require.NoError(t, err)

	kick, err := fig.Library.Get("kick")
	require.NoError(t, err)

	s := animation.NewScheduler(animation.OrderByPriority)
	s.Activate(kick)
	for i := 0; i < 5; i++ {
		s.Advance(0.25)
	}
	assert.False(t, kick.IsActive())

	knee, _ := fig.Skeleton.JointByName("knee")
	assert.InDelta(t, math.Pi/2, knee.Dof(0).Angle(), 1e-12)
}

func TestBuild_ActionsDrawDistinctNoise(t *testing.T) {
	fig, err := LoadBytes([]byte(`
name: twins
skeleton:
  joints:
    - name: left
      shape: one
      dofs:
        - {name: bend, axis: [0, 1, 0], center: [0, 0, 0], min: 0, max: 90, rest: 0.5}
    - name: right
      shape: one
      dofs:
        - {name: bend, axis: [0, 1, 0], center: [0, 0, 0], min: 0, max: 90, rest: 0.5}
actions:
  - name: fidget-left
    duration: 1
    noise: {amplitude: 0.2, wavelength: 0.1}
    joints:
      - joint: left
        moves:
          - {dof: bend, from: 0, to: 1, position: 0.5, noise: {}}
  - name: fidget-right
    duration: 1
    noise: {amplitude: 0.2, wavelength: 0.1}
    joints:
      - joint: right
        moves:
          - {dof: bend, from: 0, to: 1, position: 0.5, noise: {}}
`), Options{Source: animation.NewPerlinSource(9)})
	require.NoError(t, err)

	s := animation.NewScheduler(animation.OrderByPriority)
	for _, name := range []string{"fidget-left", "fidget-right"} {
		a, err := fig.Library.Get(name)
		require.NoError(t, err)
		s.Activate(a)
	}
	left, _ := fig.Skeleton.JointByName("left")
	right, _ := fig.Skeleton.JointByName("right")

	var lp, rp []float64
	for i := 0; i < 15; i++ {
		s.Advance(1.0 / 16)
		lp = append(lp, left.Dof(0).Position())
		rp = append(rp, right.Dof(0).Position())
	}
	assert.NotEqual(t, lp, rp, "actions sharing a source must not share noise rows")
}

func TestBuild_CollectsParseErrors(t *testing.T) {
	fig, err := LoadBytes([]byte(`
skeleton:
  joints:
    - name: hip
      shape: one
      dofs:
        - {name: swing, axis: [1, 0, 0], center: [0, 0, 0], min: -30, max: 30}
    - name: knee
      parent: thigh
    - name: ankle
      shape: seven
couplings:
  - dof: hip.swing
    terms:
      - {source: hip.swing, max: "x +"}
actions:
  - name: bad
    duration: 1
    interpolator: bezier
    joints:
      - joint: hip
        moves:
          - {dof: twist, from: 0, to: 1, position: 1}
          - {dof: swing, from: 0, to: 1, position: 1, interpolator: {type: hermite, points: [{t: 0, v: 0}]}}
  - name: good
    duration: 1
    joints:
      - joint: hip
        moves:
          - {dof: "0", from: 0, to: 0.5, position: 0.2}
`), Options{})
	require.Error(t, err)
	require.NotNil(t, fig)

	pes := ParseErrors(err)
	paths := make([]string, len(pes))
	for i, pe := range pes {
		paths[i] = pe.Path
	}
	assert.Equal(t, []string{
		"skeleton.joints[1].parent",
		"skeleton.joints[2].shape",
		"couplings[0].terms[0].max",
		"actions[0].interpolator",
		"actions[0].joints[0].moves[0].dof",
		"actions[0].joints[0].moves[1].interpolator",
	}, paths)

	assert.ErrorIs(t, err, ErrUnknownJoint)
	assert.ErrorIs(t, err, kinematics.ErrUnknownShape)
	assert.ErrorIs(t, err, interp.ErrUnknownInterpolator)
	assert.ErrorIs(t, err, ErrUnknownDof)
	assert.ErrorIs(t, err, interp.ErrTooFewPoints)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "thigh", pe.Value)

	// Everything that could be built was.
	assert.Equal(t, []string{"bad", "good"}, fig.Library.List())
	good, _ := fig.Library.Get("good")
	assert.Len(t, good.JointMovers()[0].Movers(), 1)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("skeleton:\n  joints:\n    - name: a\n      offset: [1, 2]\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("couplings:\n  - terms:\n      - max: [1, 2]\n"))
	assert.Error(t, err)
}

func TestSpecs_Unmarshal(t *testing.T) {
	doc, err := Parse([]byte(`
couplings:
  - dof: a.b
    terms:
      - source: c.d
        min: -0.25
        max: {interpolation: cubic, samples: [[0, 1], [0.5, 0.5], [1, 0.2]]}
actions:
  - name: x
    interpolator: {type: range_sine, min: 0.2}
`))
	require.NoError(t, err)

	term := doc.Couplings[0].Terms[0]
	require.NotNil(t, term.Min.Const)
	assert.Equal(t, -0.25, *term.Min.Const)
	assert.Len(t, term.Max.Samples, 3)
	assert.Equal(t, "cubic", term.Max.Interpolation)

	ip, err := buildInterpolator(doc.Actions[0].Interpolator)
	require.NoError(t, err)
	assert.Equal(t, interp.RangedSine{Min: 0.2, Max: 1}, ip)

	none, err := buildInterpolator(InterpolatorSpec{})
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestLibrary(t *testing.T) {
	l := NewLibrary()
	a, err := animation.NewAction(animation.ActionConfig{Name: "spin", Duration: 1})
	require.NoError(t, err)
	require.NoError(t, l.Register(a))
	assert.Error(t, l.Register(a))

	byID, err := l.Get(a.ID().String())
	require.NoError(t, err)
	assert.Same(t, a, byID)

	_, err = l.Get("jump")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, l.Count())
	assert.Equal(t, []*animation.Action{a}, l.Actions())
}
