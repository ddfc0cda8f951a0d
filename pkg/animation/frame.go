// Package animation drives Dof positions over time.
//
// An Action owns JointMovers, each of which owns DofMovers that interpolate
// one Dof across a window of the action's normalized time. A Scheduler keeps
// the active actions ordered by priority and advances them once per Frame;
// every frame opens a new priority epoch, so the first (highest priority)
// writer of a Dof in a frame keeps it for the rest of that frame.
package animation

import "github.com/teslashibe/go-figure/pkg/interp"

// Frame is the per-tick context handed down through an advance.
type Frame struct {
	// Number counts frames since the scheduler was created, starting at 1.
	Number uint64

	// Epoch is the priority epoch; Dof priorities recorded under an older
	// epoch count as zero.
	Epoch uint64

	// Delta is the unscaled time step in seconds.
	Delta float64
}

// Step is what a JointMover fans out to its DofMovers for one frame.
type Step struct {
	GoalTime        float64
	Interpolator    interp.Interpolator
	MinimumDuration float64
	Priority        int
	Epoch           uint64
}
