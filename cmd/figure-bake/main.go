// Figure Bake - renders actions offline to JSON lines
//
// Steps the frame loop at a fixed rate without a clock and writes one pose
// snapshot per line, so runs with the same seed produce identical output.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/teslashibe/go-figure/internal/config"
	"github.com/teslashibe/go-figure/internal/log"
	"github.com/teslashibe/go-figure/pkg/animation"
	"github.com/teslashibe/go-figure/pkg/choreo"
)

type options struct {
	choreo    string
	figure    string
	actions   string
	hz        float64
	duration  float64
	frames    int
	untilIdle bool
	seed      int64
	source    string
	out       string
}

func main() {
	cfg := config.OfflineEngine()
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}

	var opts options
	flag.StringVar(&opts.choreo, "choreo", cfg.Choreography, "Choreography YAML")
	flag.StringVar(&opts.figure, "figure", "arm", "Built-in figure used when no choreography file is given")
	flag.StringVar(&opts.actions, "actions", "", "Comma-separated actions to activate (required)")
	flag.Float64Var(&opts.hz, "hz", cfg.FixedHz, "Frames per second")
	flag.Float64Var(&opts.duration, "duration", 5, "Seconds to bake")
	flag.IntVar(&opts.frames, "frames", 0, "Frames to bake (overrides -duration)")
	flag.BoolVar(&opts.untilIdle, "until-idle", false, "Stop early once no action is active")
	flag.Int64Var(&opts.seed, "seed", cfg.Noise.Seed, "Noise seed")
	flag.StringVar(&opts.source, "noise", cfg.Noise.Source, "Noise source: random or perlin")
	flag.StringVar(&opts.out, "o", "-", "Output file (- for stdout)")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	flag.Parse()

	level := cfg.LogLevel
	if *debug {
		level = "debug"
	}
	log.InitWriter(os.Stderr, level)

	if err := run(opts); err != nil {
		log.Error("bake failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.actions == "" {
		return fmt.Errorf("no actions given; use -actions")
	}
	if !(opts.hz > 0) {
		return fmt.Errorf("%w: hz must be positive, got %g", config.ErrInvalid, opts.hz)
	}

	source, err := animation.NewSource(opts.source, opts.seed)
	if err != nil {
		return err
	}
	copts := choreo.Options{Source: source}
	var fig *choreo.Figure
	if opts.choreo != "" {
		fig, err = choreo.LoadFile(opts.choreo, copts)
	} else {
		fig, err = choreo.LoadEmbedded(opts.figure, copts)
	}
	if err != nil {
		for _, pe := range choreo.ParseErrors(err) {
			log.Error("choreography", "path", pe.Path, "value", pe.Value, "error", pe.Err)
		}
		return err
	}

	sched := animation.NewScheduler(animation.OrderByPriority)
	for _, name := range strings.Split(opts.actions, ",") {
		a, err := fig.Library.Get(strings.TrimSpace(name))
		if err != nil {
			return err
		}
		sched.Activate(a)
	}

	frames := opts.frames
	if frames <= 0 {
		frames = int(math.Ceil(opts.duration * opts.hz))
	}

	w := io.Writer(os.Stdout)
	if opts.out != "-" {
		f, err := os.Create(opts.out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	bw := bufio.NewWriter(w)

	driver := animation.NewDriver(fig.Skeleton, sched, 0)
	n, err := bake(driver, bw, frames, 1/opts.hz, opts.untilIdle)
	if err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	log.Info("baked", "figure", fig.Name, "frames", n, "finished", sched.Finished())
	return nil
}

// bake steps the driver up to frames times and encodes every snapshot.
func bake(d *animation.Driver, w io.Writer, frames int, dt float64, untilIdle bool) (int, error) {
	enc := json.NewEncoder(w)
	for i := 0; i < frames; i++ {
		snap := d.Step(dt)
		if err := enc.Encode(snap); err != nil {
			return i, fmt.Errorf("frame %d: %w", snap.Frame, err)
		}
		if untilIdle && d.Stats().Active == 0 {
			return i + 1, nil
		}
	}
	return frames, nil
}

