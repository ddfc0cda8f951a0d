// Figure - articulated figure animation server
//
// Loads a choreography, runs the frame loop and serves the pose over
// HTTP and websockets.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/teslashibe/go-figure/internal/config"
	"github.com/teslashibe/go-figure/internal/log"
	"github.com/teslashibe/go-figure/pkg/animation"
	"github.com/teslashibe/go-figure/pkg/choreo"
	"github.com/teslashibe/go-figure/pkg/kinematics"
	"github.com/teslashibe/go-figure/pkg/server"
)

func main() {
	configPath := flag.String("config", "", "Engine config YAML")
	choreoPath := flag.String("choreo", "", "Choreography YAML (overrides config and FIGURE_CHOREO)")
	embedded := flag.String("figure", "arm", "Built-in figure used when no choreography file is given")
	activate := flag.String("activate", "", "Comma-separated actions to start immediately")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}
	if *choreoPath != "" {
		cfg.Choreography = *choreoPath
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	log.Init(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *embedded, *activate); err != nil {
		log.Error("figure stopped", "error", err)
		os.Exit(1)
	}
}

func loadFigure(cfg config.Engine, embedded string) (*choreo.Figure, error) {
	source, err := animation.NewSource(cfg.Noise.Source, cfg.Noise.Seed)
	if err != nil {
		return nil, err
	}
	opts := choreo.Options{Source: source}
	if cfg.Choreography != "" {
		return choreo.LoadFile(cfg.Choreography, opts)
	}
	return choreo.LoadEmbedded(embedded, opts)
}

func run(ctx context.Context, cfg config.Engine, embedded, activate string) error {
	fig, err := loadFigure(cfg, embedded)
	if err != nil {
		for _, pe := range choreo.ParseErrors(err) {
			log.Error("choreography", "path", pe.Path, "value", pe.Value, "error", pe.Err)
		}
		return err
	}
	log.Info("figure loaded", "name", fig.Name, "joints", fig.Skeleton.Len(), "actions", fig.Library.Count())

	order, err := animation.ParseOrder(cfg.Order)
	if err != nil {
		return err
	}
	sched := animation.NewScheduler(order)
	sched.SetFrameFrequency(cfg.FixedHz)
	fig.Skeleton.SetAtRest()

	driver := animation.NewDriver(fig.Skeleton, sched, cfg.FrameInterval())
	srv := server.New(fig, driver, server.Config{
		Port:         cfg.Port,
		ClientBuffer: cfg.Hub.ClientBuffer,
		EveryNth:     cfg.Hub.EveryNth,
		IKMaxSteps:   cfg.IK.MaxSteps,
		IKTolerance:  cfg.IK.Tolerance,
	})

	if activate != "" {
		err := driver.Do(func(_ *kinematics.Skeleton, s *animation.Scheduler) error {
			for _, name := range strings.Split(activate, ",") {
				a, err := fig.Library.Get(strings.TrimSpace(name))
				if err != nil {
					return err
				}
				s.Activate(a)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start(ctx)
		stop()
	}()

	err = driver.Run(ctx)
	if e := <-srvErr; e != nil {
		return e
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
