package animation

import (
	"fmt"
	"slices"
	"time"

	"github.com/teslashibe/go-figure/internal/log"
)

// Order selects how the scheduler sorts active actions.
type Order int

const (
	// OrderByPriority keeps actions in descending priority. A newly
	// activated action goes after every action whose priority is at least
	// its own.
	OrderByPriority Order = iota

	// OrderByActivation keeps actions in activation order.
	OrderByActivation
)

// String returns the configuration name of the order.
func (o Order) String() string {
	if o == OrderByActivation {
		return "activation"
	}
	return "priority"
}

// ParseOrder maps "priority" or "activation" to an Order.
func ParseOrder(name string) (Order, error) {
	switch name {
	case "priority", "":
		return OrderByPriority, nil
	case "activation":
		return OrderByActivation, nil
	}
	return OrderByPriority, fmt.Errorf("%w: %q", ErrUnknownOrder, name)
}

// Scheduler owns the active actions and the priority epoch.
// It is not safe for concurrent use; Driver serializes access.
type Scheduler struct {
	order  Order
	active []*Action

	frame  uint64
	epoch  uint64
	fixed  float64
	last   time.Time
	finals uint64
}

// NewScheduler returns an empty scheduler.
func NewScheduler(order Order) *Scheduler {
	return &Scheduler{order: order}
}

// Order returns the ordering policy.
func (s *Scheduler) Order() Order { return s.order }

// SetFrameFrequency fixes the time step to 1/hz seconds per Tick,
// regardless of wall-clock time. hz <= 0 restores wall-clock stepping.
func (s *Scheduler) SetFrameFrequency(hz float64) {
	if hz <= 0 {
		s.fixed = 0
		return
	}
	s.fixed = hz
}

// FrameFrequency returns the fixed frame frequency, or 0.
func (s *Scheduler) FrameFrequency() float64 { return s.fixed }

// Frame returns the number of the last advanced frame.
func (s *Scheduler) Frame() uint64 { return s.frame }

// Finished counts actions that have left the schedule.
func (s *Scheduler) Finished() uint64 { return s.finals }

// Active returns a copy of the active list in processing order.
func (s *Scheduler) Active() []*Action {
	return slices.Clone(s.active)
}

// IsActive reports whether a is scheduled.
func (s *Scheduler) IsActive(a *Action) bool {
	return slices.Contains(s.active, a)
}

// Activate schedules a from the start of a fresh pass. Activating an
// already active action does nothing.
func (s *Scheduler) Activate(a *Action) {
	if a.active {
		return
	}
	a.reset()
	a.active = true

	i := len(s.active)
	if s.order == OrderByPriority {
		i = slices.IndexFunc(s.active, func(o *Action) bool { return o.priority < a.priority })
		if i < 0 {
			i = len(s.active)
		}
	}
	s.active = slices.Insert(s.active, i, a)

	log.Debug("action activated", "action", a.name, "id", a.id, "priority", a.priority, "slot", i)
}

// Deactivate removes a from the schedule and fires its finish callback.
// Deactivating an inactive action does nothing.
func (s *Scheduler) Deactivate(a *Action) {
	if !a.active {
		return
	}
	s.finish(a)
}

// Clear deactivates every action.
func (s *Scheduler) Clear() {
	for _, a := range slices.Clone(s.active) {
		s.finish(a)
	}
}

func (s *Scheduler) finish(a *Action) {
	s.active = slices.DeleteFunc(s.active, func(o *Action) bool { return o == a })
	a.active = false
	s.finals++
	log.Debug("action finished", "action", a.name, "id", a.id, "elapsed", a.elapsed)
	if a.onFinish != nil {
		a.onFinish(a)
	}
}

// Tick advances by the fixed frame step or by the wall-clock time since the
// previous Tick. The first wall-clock tick has a zero step.
func (s *Scheduler) Tick(now time.Time) Frame {
	var dt float64
	switch {
	case s.fixed > 0:
		dt = 1 / s.fixed
	case !s.last.IsZero():
		dt = now.Sub(s.last).Seconds()
	}
	s.last = now
	return s.Advance(dt)
}

// Advance runs one frame of dt seconds: it opens a new priority epoch and
// moves every active action in order. Actions that finish are removed and
// their callbacks fire before the next action moves.
func (s *Scheduler) Advance(dt float64) Frame {
	if dt < 0 {
		dt = 0
	}
	s.frame++
	s.epoch++
	f := Frame{Number: s.frame, Epoch: s.epoch, Delta: dt}

	for _, a := range slices.Clone(s.active) {
		if !a.active {
			continue
		}
		if a.advance(f) {
			s.finish(a)
		}
	}
	return f
}
