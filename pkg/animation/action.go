package animation

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/teslashibe/go-figure/pkg/interp"
	"github.com/teslashibe/go-figure/pkg/kinematics"
)

// ActionConfig configures a new Action.
type ActionConfig struct {
	Name string

	// Duration of one pass, in seconds.
	Duration float64

	// Speed scales elapsed time. Zero means 1.
	Speed float64

	// Priority must be at least 1. Zero means 1.
	Priority int

	// Cyclic actions wrap instead of finishing.
	Cyclic bool

	// TimeToLive finishes the action after this many unscaled seconds,
	// cyclic or not. Zero means unlimited.
	TimeToLive float64

	// Interpolator for joint movers without their own. nil means interp.Default.
	Interpolator interp.Interpolator

	// Noise is copied into noisy movers created without explicit params.
	// nil means DefaultNoiseParams.
	Noise *NoiseParams

	// Source supplies noise sub-goals. nil means a RandomSource seeded from the action ID.
	Source SubGoalSource

	// Keys numbers noisy movers. Actions sharing a Source should share
	// Keys so no two movers read the same noise row. nil gives the action
	// its own counter.
	Keys *NoiseKeys
}

// Action is a named, prioritized animation made of JointMovers.
type Action struct {
	id       uuid.UUID
	name     string
	speed    float64
	priority int
	cyclic   bool
	duration float64

	timeToLive float64
	remaining  float64
	elapsed    float64
	active     bool

	movers       []*JointMover
	interpolator interp.Interpolator
	noise        NoiseParams
	source       SubGoalSource
	keys         *NoiseKeys

	onFinish func(*Action)
}

// NewAction validates cfg and returns an inactive action.
func NewAction(cfg ActionConfig) (*Action, error) {
	if !(cfg.Duration > 0) {
		return nil, fmt.Errorf("action %q: %w: %g", cfg.Name, ErrInvalidDuration, cfg.Duration)
	}
	if cfg.Priority < 0 {
		return nil, fmt.Errorf("action %q: %w: %d", cfg.Name, ErrInvalidPriority, cfg.Priority)
	}

	a := &Action{
		id:           uuid.New(),
		name:         cfg.Name,
		speed:        cfg.Speed,
		priority:     cfg.Priority,
		cyclic:       cfg.Cyclic,
		duration:     cfg.Duration,
		timeToLive:   math.Max(0, cfg.TimeToLive),
		remaining:    math.Max(0, cfg.TimeToLive),
		interpolator: cfg.Interpolator,
		noise:        DefaultNoiseParams(),
		source:       cfg.Source,
		keys:         cfg.Keys,
	}
	if a.speed == 0 {
		a.speed = 1
	}
	if a.priority == 0 {
		a.priority = 1
	}
	if cfg.Noise != nil {
		a.noise = *cfg.Noise
	}
	if a.keys == nil {
		a.keys = new(NoiseKeys)
	}
	if a.source == nil {
		a.source = NewRandomSource(binary.BigEndian.Uint64(a.id[:8]))
	}
	return a, nil
}

// ID returns the action's unique identifier.
func (a *Action) ID() uuid.UUID { return a.id }

// Name returns the action name.
func (a *Action) Name() string { return a.name }

// Priority returns the action priority.
func (a *Action) Priority() int { return a.priority }

// Duration returns the length of one pass in seconds.
func (a *Action) Duration() float64 { return a.duration }

// Speed returns the time scale.
func (a *Action) Speed() float64 { return a.speed }

// SetSpeed sets the time scale. Negative speeds are clamped to zero.
func (a *Action) SetSpeed(s float64) { a.speed = math.Max(0, s) }

// Cyclic reports whether the action wraps.
func (a *Action) Cyclic() bool { return a.cyclic }

// SetCyclic switches wrapping on or off.
func (a *Action) SetCyclic(c bool) { a.cyclic = c }

// TimeToLive returns the configured lifetime in seconds (0 = unlimited).
func (a *Action) TimeToLive() float64 { return a.timeToLive }

// SetTimeToLive changes the lifetime; it takes effect on next activation.
func (a *Action) SetTimeToLive(ttl float64) { a.timeToLive = math.Max(0, ttl) }

// Remaining returns the lifetime left in seconds, or +Inf when unlimited.
func (a *Action) Remaining() float64 {
	if a.timeToLive == 0 {
		return math.Inf(1)
	}
	return a.remaining
}

// Elapsed returns the scaled time into the current pass, in seconds.
func (a *Action) Elapsed() float64 { return a.elapsed }

// IsActive reports whether the action is scheduled.
func (a *Action) IsActive() bool { return a.active }

// SetInterpolator sets the interpolator used by joint movers without one.
func (a *Action) SetInterpolator(i interp.Interpolator) { a.interpolator = i }

// Interpolator returns the action-level interpolator, or nil if unset.
func (a *Action) Interpolator() interp.Interpolator { return a.interpolator }

// NoiseDefaults returns the parameters new noisy movers start from.
func (a *Action) NoiseDefaults() NoiseParams { return a.noise }

// SetNoiseDefaults changes the parameters for noisy movers created afterwards.
func (a *Action) SetNoiseDefaults(p NoiseParams) { a.noise = p }

// OnFinish sets the callback fired each time the action leaves the schedule.
func (a *Action) OnFinish(fn func(*Action)) { a.onFinish = fn }

// JointMovers returns the action's joint movers in insertion order.
func (a *Action) JointMovers() []*JointMover { return a.movers }

// AddJointMover adds a mover for j. A zero duration inherits the action's.
func (a *Action) AddJointMover(j *kinematics.Joint, duration float64) (*JointMover, error) {
	if j == nil {
		return nil, ErrNilJoint
	}
	if duration == 0 {
		duration = a.duration
	}
	if !(duration > 0) {
		return nil, fmt.Errorf("joint mover %q: %w: %g", j.Name(), ErrInvalidDuration, duration)
	}
	jm := &JointMover{
		action:          a,
		joint:           j,
		duration:        duration,
		minimumDuration: math.Inf(1),
	}
	a.movers = append(a.movers, jm)
	return jm, nil
}

// ModifyNoisy applies fn to every noisy mover of the action and returns
// how many it touched.
func (a *Action) ModifyNoisy(fn NoiseModifier) int {
	n := 0
	for _, jm := range a.movers {
		n += jm.ModifyNoisy(fn)
	}
	return n
}

// DeactivateDofMovers re-arms every DofMover.
func (a *Action) DeactivateDofMovers() {
	for _, jm := range a.movers {
		jm.DeactivateDofMovers()
	}
}

func (a *Action) nextNoiseKey() uint64 { return a.keys.Next() }

// reset prepares a fresh pass.
func (a *Action) reset() {
	a.elapsed = 0
	a.remaining = a.timeToLive
	a.DeactivateDofMovers()
}

// advance moves the action one frame and reports whether it finished.
// Overflowing a pass first settles every mover at the end of the pass; a
// cyclic action then wraps and re-arms its movers.
func (a *Action) advance(f Frame) bool {
	if a.timeToLive > 0 {
		a.remaining -= f.Delta
		if a.remaining <= 0 {
			return true
		}
	}

	a.elapsed += f.Delta * a.speed
	if a.elapsed > a.duration {
		a.moveAt(a.duration, f)
		if !a.cyclic {
			return true
		}
		a.elapsed = math.Mod(a.elapsed, a.duration)
		a.DeactivateDofMovers()
	}
	a.moveAt(a.elapsed, f)
	return false
}

func (a *Action) moveAt(elapsed float64, f Frame) {
	for _, jm := range a.movers {
		jm.Move(elapsed, a.priority, f.Epoch)
	}
}
