package kinematics

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

type chainLink struct {
	joint *Joint
	index int
}

// IKChain moves a chain of Dofs so an end effector approaches a target.
//
// Each Step is one cyclic-coordinate-descent pass from the end effector
// inward. After every Dof adjustment the end effector is recomputed from the
// whole chain, so later (more proximal) Dofs see the updated geometry.
// The chain references Dofs; it does not own them.
type IKChain struct {
	skel     *Skeleton
	links    []chainLink // proximal first
	end      JointID
	effector r3.Vec
	target   r3.Vec
}

// NewIKChain collects the Dofs on the path from base to end. effector is the
// end-effector point in end's local frame.
func (s *Skeleton) NewIKChain(base, end JointID, effector r3.Vec) (*IKChain, error) {
	ids, err := s.path(base, end)
	if err != nil {
		return nil, err
	}
	c := &IKChain{skel: s, end: end, effector: effector}
	for _, id := range ids {
		j := s.joints[id]
		if !j.Complete() {
			// Its transform is identity, so its Dofs could never move the effector.
			return nil, fmt.Errorf("%w: %q has %d of %d", ErrIncompleteJoint, j.name, len(j.dofs), j.shape.Capacity())
		}
		for k := len(j.dofs) - 1; k >= 0; k-- {
			c.links = append(c.links, chainLink{joint: j, index: k})
		}
	}
	if len(c.links) == 0 {
		return nil, ErrEmptyChain
	}
	c.target = c.EndEffector()
	return c, nil
}

// Len returns the number of Dofs in the chain.
func (c *IKChain) Len() int { return len(c.links) }

// Dofs returns the chain's Dofs, proximal first.
func (c *IKChain) Dofs() []*Dof {
	out := make([]*Dof, len(c.links))
	for i, l := range c.links {
		out[i] = l.joint.dofs[l.index]
	}
	return out
}

// SetTarget sets the world-space target position.
func (c *IKChain) SetTarget(target r3.Vec) { c.target = target }

// Target returns the world-space target position.
func (c *IKChain) Target() r3.Vec { return c.target }

// EndEffector returns the current world-space end-effector position.
func (c *IKChain) EndEffector() r3.Vec {
	return c.skel.WorldTransform(c.end).Apply(c.effector)
}

// Distance returns the residual distance to the target.
func (c *IKChain) Distance() float64 {
	return r3.Norm(r3.Sub(c.target, c.EndEffector()))
}

// Step performs one pass from the end effector to the base and returns the
// residual distance.
func (c *IKChain) Step() float64 {
	for i := len(c.links) - 1; i >= 0; i-- {
		l := c.links[i]
		d := l.joint.dofs[l.index]

		frame := c.skel.dofFrame(l.joint, l.index)
		center := frame.Apply(d.center)
		state := frame.UnapplyDir(r3.Sub(c.EndEffector(), center))
		target := frame.UnapplyDir(r3.Sub(c.target, center))
		d.Reconfigure(state, target)
	}
	return c.Distance()
}

// Solve calls Step until the residual falls to tolerance or maxSteps passes
// have run. It returns the passes used and the final residual.
func (c *IKChain) Solve(maxSteps int, tolerance float64) (int, float64) {
	residual := c.Distance()
	steps := 0
	for steps < maxSteps && residual > tolerance {
		residual = c.Step()
		steps++
	}
	return steps, residual
}
