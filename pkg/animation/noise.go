package animation

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/aquilax/go-perlin"

	"github.com/teslashibe/go-figure/pkg/interp"
)

// NoiseParams shape the error a noisy mover adds on top of its trajectory.
// Times are normalized to the owning JointMover's duration.
type NoiseParams struct {
	// Amplitude scales the sub-goal noise, in normalized Dof position.
	Amplitude float64 `yaml:"amplitude" json:"amplitude"`

	// WaveLength is the spacing between noise sub-goals.
	WaveLength float64 `yaml:"wavelength" json:"wavelength"`

	// Overshoot is the fraction of the travelled range to overshoot by.
	Overshoot float64 `yaml:"overshoot" json:"overshoot"`

	// Offset shifts the final target.
	Offset float64 `yaml:"offset" json:"offset"`

	// PeakTime is where in the mover's window the overshoot peaks, in (0, 1).
	PeakTime float64 `yaml:"peak" json:"peak"`
}

// DefaultNoiseParams is silent: no noise, no overshoot, no offset.
func DefaultNoiseParams() NoiseParams {
	return NoiseParams{
		Amplitude:  0,
		WaveLength: 0.1,
		Overshoot:  0,
		Offset:     0,
		PeakTime:   0.7,
	}
}

// overshoots reports whether the overshoot phase applies.
func (p NoiseParams) overshoots() bool {
	return p.Overshoot != 0 && p.PeakTime > 0 && p.PeakTime < 1
}

// SubGoalSource yields noise sub-goals in [-1, 1]. key identifies the mover
// and t is the sub-goal's normalized time.
type SubGoalSource interface {
	SubGoal(key uint64, t float64) float64
}

// RandomSource draws independent uniform sub-goals from a seeded PCG.
type RandomSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSource returns a source seeded with seed.
func NewRandomSource(seed uint64) *RandomSource {
	return &RandomSource{rng: rand.New(rand.NewPCG(seed, seed))}
}

// SubGoal implements SubGoalSource.
func (s *RandomSource) SubGoal(uint64, float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()*2 - 1
}

// PerlinSource samples smooth coherent noise, one row per mover key.
// The same key and time always give the same sub-goal.
type PerlinSource struct {
	noise *perlin.Perlin

	// Frequency scales normalized time before sampling.
	Frequency float64
}

// NewPerlinSource returns a Perlin source with the usual alpha=2, beta=2, n=3.
func NewPerlinSource(seed int64) *PerlinSource {
	return &PerlinSource{
		noise:     perlin.NewPerlin(2, 2, 3, seed),
		Frequency: 4,
	}
}

// SubGoal implements SubGoalSource.
func (s *PerlinSource) SubGoal(key uint64, t float64) float64 {
	// Lattice points are always zero; sample between them.
	v := s.noise.Noise2D(float64(key)+0.5, t*s.Frequency+0.5)
	return math.Max(-1, math.Min(1, v))
}

// NoiseKeys hands out mover keys, starting at 1.
type NoiseKeys struct {
	n atomic.Uint64
}

// Next returns an unused key.
func (k *NoiseKeys) Next() uint64 { return k.n.Add(1) }

// NewSource returns a "random" or "perlin" source seeded with seed.
func NewSource(kind string, seed int64) (SubGoalSource, error) {
	switch kind {
	case "random":
		return NewRandomSource(uint64(seed)), nil
	case "perlin":
		return NewPerlinSource(seed), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSource, kind)
}

// noisyArm carries the state only noisy movers have.
type noisyArm struct {
	params NoiseParams
	source SubGoalSource
	key    uint64

	overshootRange float64

	seg      int
	prevGoal float64
	nextGoal float64
}

func newNoisyArm(params NoiseParams, source SubGoalSource, key uint64) *noisyArm {
	return &noisyArm{params: params, source: source, key: key, seg: -1}
}

// rearm forgets cached sub-goals so the next pass draws fresh ones.
func (n *noisyArm) rearm(positionRange float64) {
	n.overshootRange = n.params.Overshoot * positionRange
	n.seg = -1
}

// at returns the noise to add at normalized goal time g.
func (n *noisyArm) at(g float64) float64 {
	wl := n.params.WaveLength
	if n.params.Amplitude == 0 || wl <= 0 || n.source == nil {
		return 0
	}
	k := int(math.Floor(g / wl))
	if k != n.seg {
		if n.seg >= 0 && k == n.seg+1 {
			n.prevGoal = n.nextGoal
		} else {
			n.prevGoal = n.sample(k)
		}
		n.nextGoal = n.sample(k + 1)
		n.seg = k
	}
	phase := (g - float64(k)*wl) / wl
	return interp.Sine{}.Interpolate(phase, n.prevGoal, n.nextGoal-n.prevGoal)
}

func (n *noisyArm) sample(k int) float64 {
	return n.params.Amplitude * n.source.SubGoal(n.key, float64(k)*n.params.WaveLength)
}

// NoiseModifier edits the noise parameters of one noisy mover.
type NoiseModifier func(m *DofMover, p *NoiseParams)

// ScaleNoise multiplies noise amplitude by k.
func ScaleNoise(k float64) NoiseModifier {
	return func(_ *DofMover, p *NoiseParams) {
		p.Amplitude *= k
	}
}

// SetNoise replaces the parameters wholesale.
func SetNoise(params NoiseParams) NoiseModifier {
	return func(_ *DofMover, p *NoiseParams) {
		*p = params
	}
}

// OffsetsFrom sets the target offset of movers whose Dof name is in offsets.
func OffsetsFrom(offsets map[string]float64) NoiseModifier {
	return func(m *DofMover, p *NoiseParams) {
		if v, ok := offsets[m.Dof().Name()]; ok {
			p.Offset = v
		}
	}
}
