package kinematics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// planarArm builds a two-link arm in the XY plane: shoulder at the origin,
// elbow one unit along X, effector one unit further. Both hinges rotate
// around Z and start straight.
func planarArm(t *testing.T) (*Skeleton, *Joint, *Joint) {
	t.Helper()
	skel := NewSkeleton()

	shoulder, err := skel.AddJoint("shoulder", NoJoint, r3.Vec{}, ShapeOne)
	require.NoError(t, err)
	d, err := shoulder.NewDof(zAxis, r3.Vec{}, -math.Pi, math.Pi)
	require.NoError(t, err)
	d.MoveTo(0.5)

	elbow, err := skel.AddJoint("elbow", shoulder.ID(), r3.Vec{X: 1}, ShapeOne)
	require.NoError(t, err)
	d, err = elbow.NewDof(zAxis, r3.Vec{}, -math.Pi, math.Pi)
	require.NoError(t, err)
	d.MoveTo(0.5)

	return skel, shoulder, elbow
}

func TestIKChain_ConvergesMonotonically(t *testing.T) {
	skel, shoulder, elbow := planarArm(t)

	chain, err := skel.NewIKChain(shoulder.ID(), elbow.ID(), r3.Vec{X: 1})
	require.NoError(t, err)
	require.Equal(t, 2, chain.Len())
	assert.InDelta(t, 2.0, chain.EndEffector().X, floatTolerance)

	chain.SetTarget(r3.Vec{X: 0.5, Y: 1.2})

	const eps = 1e-4
	prev := chain.Distance()
	converged := false
	for step := 0; step < 200; step++ {
		dist := chain.Step()
		require.LessOrEqual(t, dist, prev+1e-7, "step %d increased the residual", step)
		prev = dist
		if dist < eps {
			converged = true
			break
		}
	}
	assert.True(t, converged, "residual %v after 200 steps", prev)
}

func TestIKChain_OneStepForRightAngle(t *testing.T) {
	skel, shoulder, elbow := planarArm(t)
	chain, err := skel.NewIKChain(shoulder.ID(), elbow.ID(), r3.Vec{X: 1})
	require.NoError(t, err)

	chain.SetTarget(r3.Vec{X: 1, Y: 1})
	residual := chain.Step()

	assert.InDelta(t, 0, residual, 1e-6)
	assert.InDelta(t, math.Pi/2, elbow.Dof(0).Angle(), 1e-6)
	assert.InDelta(t, 0, shoulder.Dof(0).Angle(), 1e-6)
}

func TestIKChain_Solve(t *testing.T) {
	skel, shoulder, elbow := planarArm(t)
	chain, err := skel.NewIKChain(shoulder.ID(), elbow.ID(), r3.Vec{X: 1})
	require.NoError(t, err)

	chain.SetTarget(r3.Vec{X: -0.4, Y: 1.1})
	steps, residual := chain.Solve(500, 1e-6)
	assert.Less(t, residual, 1e-6)
	assert.Greater(t, steps, 0)
}

func TestIKChain_RespectsLimits(t *testing.T) {
	skel := NewSkeleton()
	root, _ := skel.AddJoint("root", NoJoint, r3.Vec{}, ShapeOne)
	_, err := root.NewDof(zAxis, r3.Vec{}, 0, math.Pi/6)
	require.NoError(t, err)

	chain, err := skel.NewIKChain(root.ID(), root.ID(), r3.Vec{X: 1})
	require.NoError(t, err)
	chain.SetTarget(r3.Vec{Y: 1})
	chain.Solve(10, 1e-9)

	assert.InDelta(t, math.Pi/6, root.Dof(0).Angle(), 1e-9)
}

func TestIKChain_Errors(t *testing.T) {
	skel := NewSkeleton()
	left, _ := skel.AddJoint("left", NoJoint, r3.Vec{}, ShapeFree)
	right, _ := skel.AddJoint("right", NoJoint, r3.Vec{X: 1}, ShapeFree)

	_, err := skel.NewIKChain(left.ID(), right.ID(), r3.Vec{})
	assert.ErrorIs(t, err, ErrNoPath)

	_, err = skel.NewIKChain(left.ID(), left.ID(), r3.Vec{})
	assert.ErrorIs(t, err, ErrEmptyChain)

	_, err = skel.NewIKChain(left.ID(), JointID(9), r3.Vec{})
	assert.ErrorIs(t, err, ErrNoSuchJoint)

	// A two-dof wrist with one dof never moves its children.
	wrist, _ := skel.AddJoint("wrist", left.ID(), r3.Vec{X: 1}, ShapeTwo)
	_, err = wrist.NewDof(zAxis, r3.Vec{}, -math.Pi, math.Pi)
	require.NoError(t, err)
	_, err = skel.NewIKChain(left.ID(), wrist.ID(), r3.Vec{X: 1})
	assert.ErrorIs(t, err, ErrIncompleteJoint)

	_, err = wrist.NewDof(r3.Vec{X: 1}, r3.Vec{}, -math.Pi, math.Pi)
	require.NoError(t, err)
	_, err = skel.NewIKChain(left.ID(), wrist.ID(), r3.Vec{X: 1})
	assert.NoError(t, err)
}

func TestSkeleton_WorldAndSnapshot(t *testing.T) {
	skel, shoulder, elbow := planarArm(t)
	shoulder.Dof(0).MoveTo(0.75) // +90°

	world := skel.WorldTransform(elbow.ID())
	got := world.Apply(r3.Vec{X: 1})
	assert.InDelta(t, 0, got.X, 1e-9)
	assert.InDelta(t, 2, got.Y, 1e-9)

	snap := skel.Snapshot(7)
	require.Len(t, snap.Joints, 2)
	assert.Equal(t, uint64(7), snap.Frame)
	assert.Equal(t, "shoulder", snap.Joints[1].Parent)
	assert.True(t, snap.Joints[1].World.ApproxEqual(world, 1e-12))
	assert.Equal(t, []float64{0.75}, snap.Joints[0].Positions)
}

func TestSkeleton_Registration(t *testing.T) {
	skel := NewSkeleton()
	_, err := skel.AddJoint("a", NoJoint, r3.Vec{}, ShapeFree)
	require.NoError(t, err)

	_, err = skel.AddJoint("a", NoJoint, r3.Vec{}, ShapeFree)
	assert.ErrorIs(t, err, ErrDuplicateJoint)

	_, err = skel.AddJoint("b", JointID(4), r3.Vec{}, ShapeFree)
	assert.ErrorIs(t, err, ErrNoSuchJoint)

	j := NewJoint("c", ShapeFree)
	d, _ := j.NewDof(zAxis, r3.Vec{}, 0, 1)
	require.NoError(t, skel.Adopt(j, NoJoint, r3.Vec{}))
	assert.Equal(t, j.ID(), d.Owner())

	d.MoveToPriority(1, 3, 1)
	assert.Equal(t, 3, d.Priority(1))
	assert.Equal(t, 0, d.Priority(2), "a later epoch starts from zero")
	assert.Len(t, skel.Dofs(), 1)
}
