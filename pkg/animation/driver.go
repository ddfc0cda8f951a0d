package animation

import (
	"context"
	"sync"
	"time"

	"github.com/teslashibe/go-figure/internal/log"
	"github.com/teslashibe/go-figure/pkg/kinematics"
)

// FrameObserver receives the pose after every tick. Observers run on the
// driver goroutine and must not block.
type FrameObserver func(kinematics.Snapshot)

// Driver runs the frame loop: one scheduler tick per period, followed by a
// pose snapshot handed to every observer. Everything that touches the
// skeleton or the scheduler from outside the loop goes through Do.
type Driver struct {
	skel  *kinematics.Skeleton
	sched *Scheduler
	rate  time.Duration

	mu        sync.Mutex
	observers []FrameObserver
	running   bool

	// Diagnostics
	tickCount uint64
	lastDelta float64
}

// DriverStats is a point-in-time view of the loop.
type DriverStats struct {
	Running  bool    `json:"running"`
	Ticks    uint64  `json:"ticks"`
	Frame    uint64  `json:"frame"`
	Active   int     `json:"active"`
	Finished uint64  `json:"finished"`
	Delta    float64 `json:"delta"`
}

// NewDriver creates a driver ticking every rate (e.g. ~33ms for 30Hz).
func NewDriver(skel *kinematics.Skeleton, sched *Scheduler, rate time.Duration) *Driver {
	return &Driver{skel: skel, sched: sched, rate: rate}
}

// OnFrame registers an observer.
func (d *Driver) OnFrame(fn FrameObserver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, fn)
}

// Run ticks until ctx is done.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.rate)
	defer ticker.Stop()

	d.mu.Lock()
	d.running = true
	d.mu.Unlock()

	log.Info("driver started", "hz", 1.0/d.rate.Seconds(), "order", d.sched.Order().String())

	for {
		select {
		case <-ctx.Done():
			d.mu.Lock()
			d.running = false
			d.mu.Unlock()
			log.Info("driver stopped", "ticks", d.Stats().Ticks)
			return ctx.Err()
		case now := <-ticker.C:
			d.Tick(now)
		}
	}
}

// Tick runs one scheduler tick at now and publishes the snapshot.
func (d *Driver) Tick(now time.Time) kinematics.Snapshot {
	return d.frame(func() Frame { return d.sched.Tick(now) })
}

// Step advances by exactly dt seconds, ignoring the clock.
func (d *Driver) Step(dt float64) kinematics.Snapshot {
	return d.frame(func() Frame { return d.sched.Advance(dt) })
}

func (d *Driver) frame(advance func() Frame) kinematics.Snapshot {
	d.mu.Lock()
	f := advance()
	snap := d.skel.Snapshot(f.Number)
	d.tickCount++
	d.lastDelta = f.Delta
	ticks := d.tickCount
	observers := d.observers
	d.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}

	if ticks%1000 == 0 {
		log.Debug("driver heartbeat", "ticks", ticks, "frame", f.Number)
	}
	return snap
}

// Do runs fn with exclusive access to the skeleton and scheduler.
func (d *Driver) Do(fn func(*kinematics.Skeleton, *Scheduler) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(d.skel, d.sched)
}

// Snapshot returns the current pose without advancing.
func (d *Driver) Snapshot() kinematics.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.skel.Snapshot(d.sched.Frame())
}

// Stats returns loop diagnostics.
func (d *Driver) Stats() DriverStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DriverStats{
		Running:  d.running,
		Ticks:    d.tickCount,
		Frame:    d.sched.Frame(),
		Active:   len(d.sched.active),
		Finished: d.sched.Finished(),
		Delta:    d.lastDelta,
	}
}
