package animation

import (
	"math"

	"github.com/teslashibe/go-figure/pkg/interp"
	"github.com/teslashibe/go-figure/pkg/kinematics"
)

// DofMover drives one Dof toward a target across [initialTime, finalTime]
// of its JointMover's normalized time.
//
// A mover is Inactive until a step's goal time falls strictly inside its
// window. Activation captures the Dof's current position as the start and
// writes it back under the step's priority, so lower priority actions cannot
// move the Dof later in the same frame. Leaving the window deactivates the
// mover; leaving it past finalTime while active first writes the end
// position, so a coarse frame rate never strands the Dof short of its target.
//
// A noisy mover (IsNoisy) also carries overshoot, offset and sub-goal noise.
type DofMover struct {
	dof    *kinematics.Dof
	target float64

	initialTime float64
	finalTime   float64

	initialPosition float64
	positionRange   float64
	activationTime  float64
	timeRange       float64
	active          bool

	interpolator interp.Interpolator
	noise        *noisyArm
}

func newDofMover(d *kinematics.Dof, target, from, to float64) *DofMover {
	return &DofMover{
		dof:         d,
		target:      clamp01(target),
		initialTime: from,
		finalTime:   to,
	}
}

// Dof returns the driven Dof.
func (m *DofMover) Dof() *kinematics.Dof { return m.dof }

// Target returns the normalized target position.
func (m *DofMover) Target() float64 { return m.target }

// Window returns the normalized time window.
func (m *DofMover) Window() (from, to float64) { return m.initialTime, m.finalTime }

// IsActive reports whether the mover has captured a start position.
func (m *DofMover) IsActive() bool { return m.active }

// IsNoisy reports whether the mover carries noise parameters.
func (m *DofMover) IsNoisy() bool { return m.noise != nil }

// Noise returns the noise parameters of a noisy mover.
func (m *DofMover) Noise() (NoiseParams, bool) {
	if m.noise == nil {
		return NoiseParams{}, false
	}
	return m.noise.params, true
}

// SetInterpolator overrides the interpolator handed down by the JointMover.
// nil restores the inherited one.
func (m *DofMover) SetInterpolator(i interp.Interpolator) { m.interpolator = i }

// Interpolator returns the mover's own interpolator, or nil when inherited.
func (m *DofMover) Interpolator() interp.Interpolator { return m.interpolator }

// Deactivate forces the mover back to Inactive.
func (m *DofMover) Deactivate() { m.active = false }

// Move advances the mover for one step and reports whether it wrote the Dof.
func (m *DofMover) Move(s Step) bool {
	g := s.GoalTime
	ip := m.interpolator
	if ip == nil {
		ip = s.Interpolator
	}
	if ip == nil {
		ip = interp.Default
	}

	if !m.inWindow(g) {
		wrote := false
		if m.active && g >= m.finalTime {
			wrote = m.dof.MoveToPriority(m.position(1, m.finalTime, ip), s.Priority, s.Epoch)
		}
		m.active = false
		return wrote
	}

	if !m.active {
		m.activate(s)
		return m.dof.MoveToPriority(m.initialPosition, s.Priority, s.Epoch)
	}

	index := (g - m.activationTime) / m.timeRange
	return m.dof.MoveToPriority(m.position(clamp01(index), g, ip), s.Priority, s.Epoch)
}

func (m *DofMover) inWindow(g float64) bool {
	return g > m.initialTime && g < m.finalTime
}

func (m *DofMover) activate(s Step) {
	m.initialPosition = m.dof.Position()
	end := m.target
	if m.noise != nil {
		end += m.noise.params.Offset
	}
	m.positionRange = end - m.initialPosition
	m.activationTime = s.GoalTime
	m.timeRange = math.Max(m.finalTime-s.GoalTime, s.MinimumDuration)
	if m.noise != nil {
		m.noise.rearm(m.positionRange)
	}
	m.active = true
}

// position is the trajectory at interpolation index i and goal time g.
func (m *DofMover) position(i, g float64, ip interp.Interpolator) float64 {
	n := m.noise
	if n == nil {
		return ip.Interpolate(i, m.initialPosition, m.positionRange)
	}

	var p float64
	if peak := n.params.PeakTime; n.params.overshoots() {
		if i < peak {
			p = ip.Interpolate(i/peak, m.initialPosition, m.positionRange+n.overshootRange)
		} else {
			top := m.initialPosition + m.positionRange + n.overshootRange
			p = ip.Interpolate((i-peak)/(1-peak), top, -n.overshootRange)
		}
	} else {
		p = ip.Interpolate(i, m.initialPosition, m.positionRange)
	}
	if noise := n.at(g); noise != 0 {
		p += noise
	}
	return p
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
