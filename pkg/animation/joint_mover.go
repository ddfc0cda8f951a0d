package animation

import (
	"fmt"
	"math"

	"github.com/teslashibe/go-figure/pkg/interp"
	"github.com/teslashibe/go-figure/pkg/kinematics"
)

// JointMover groups the DofMovers acting on one joint. Its goal time is the
// owning action's elapsed time divided by the mover's own duration, so a
// JointMover may run faster or slower than its action.
type JointMover struct {
	action *Action
	joint  *kinematics.Joint
	movers []*DofMover

	duration        float64
	interpolator    interp.Interpolator
	minimumDuration float64
}

// Joint returns the driven joint.
func (jm *JointMover) Joint() *kinematics.Joint { return jm.joint }

// Duration returns the mover's duration in seconds.
func (jm *JointMover) Duration() float64 { return jm.duration }

// Movers returns the owned DofMovers in insertion order.
func (jm *JointMover) Movers() []*DofMover { return jm.movers }

// MinimumDuration is the smallest half-window across all movers, the floor
// for a mover's time range on activation.
func (jm *JointMover) MinimumDuration() float64 { return jm.minimumDuration }

// SetInterpolator overrides the action interpolator for this joint. nil
// restores the action's.
func (jm *JointMover) SetInterpolator(i interp.Interpolator) { jm.interpolator = i }

// Interpolator returns the interpolator fanned out to the movers.
func (jm *JointMover) Interpolator() interp.Interpolator {
	if jm.interpolator != nil {
		return jm.interpolator
	}
	if jm.action != nil && jm.action.interpolator != nil {
		return jm.action.interpolator
	}
	return interp.Default
}

// AddDofMover moves Dof ordinal dof to target during [from, to] (normalized,
// clamped to [0, 1]).
func (jm *JointMover) AddDofMover(dof int, target, from, to float64) (*DofMover, error) {
	m, err := jm.newMover(dof, target, from, to)
	if err != nil {
		return nil, err
	}
	jm.add(m)
	return m, nil
}

// AddNoisyDofMover is AddDofMover with noise. A nil params copies the
// owning action's noise defaults at this moment; later changes to the
// defaults do not reach existing movers.
func (jm *JointMover) AddNoisyDofMover(dof int, target, from, to float64, params *NoiseParams) (*DofMover, error) {
	m, err := jm.newMover(dof, target, from, to)
	if err != nil {
		return nil, err
	}
	p := DefaultNoiseParams()
	var source SubGoalSource
	var key uint64
	if jm.action != nil {
		p = jm.action.noise
		source = jm.action.source
		key = jm.action.nextNoiseKey()
	}
	if params != nil {
		p = *params
	}
	m.noise = newNoisyArm(p, source, key)
	jm.add(m)
	return m, nil
}

func (jm *JointMover) newMover(dof int, target, from, to float64) (*DofMover, error) {
	if !jm.joint.HasDof(dof) {
		return nil, fmt.Errorf("%w: %s has %d dofs, got %d", ErrNoSuchDof, jm.joint.Name(), jm.joint.Len(), dof)
	}
	from, to = clamp01(from), clamp01(to)
	if from >= to {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrEmptyWindow, from, to)
	}
	return newDofMover(jm.joint.Dof(dof), target, from, to), nil
}

func (jm *JointMover) add(m *DofMover) {
	jm.movers = append(jm.movers, m)
	jm.minimumDuration = math.Min(jm.minimumDuration, (m.finalTime-m.initialTime)/2)
}

// DeactivateDofMovers forces every mover back to Inactive so each re-arms
// on its next window.
func (jm *JointMover) DeactivateDofMovers() {
	for _, m := range jm.movers {
		m.Deactivate()
	}
}

// ModifyNoisy applies fn to every noisy mover. Plain movers are skipped.
func (jm *JointMover) ModifyNoisy(fn NoiseModifier) int {
	n := 0
	for _, m := range jm.movers {
		if !m.IsNoisy() {
			continue
		}
		fn(m, &m.noise.params)
		n++
	}
	return n
}

// Move fans one frame out to the movers at the action's elapsed seconds.
func (jm *JointMover) Move(elapsed float64, priority int, epoch uint64) {
	s := Step{
		GoalTime:        elapsed / jm.duration,
		Interpolator:    jm.Interpolator(),
		MinimumDuration: jm.minimumDuration,
		Priority:        priority,
		Epoch:           epoch,
	}
	// Settle movers outside their window first, so a mover taking over
	// the same Dof captures the settled position.
	for _, m := range jm.movers {
		if !m.inWindow(s.GoalTime) {
			m.Move(s)
		}
	}
	for _, m := range jm.movers {
		if m.inWindow(s.GoalTime) {
			m.Move(s)
		}
	}
}
