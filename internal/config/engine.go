// Package config loads engine configuration for go-figure commands.
//
// Values come from DefaultEngine, then an optional YAML file, then
// FIGURE_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvPort      = "FIGURE_PORT"
	EnvLogLevel  = "FIGURE_LOG_LEVEL"
	EnvFrameRate = "FIGURE_FRAME_RATE"
	EnvFixedHz   = "FIGURE_FIXED_HZ"
	EnvChoreo    = "FIGURE_CHOREO"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid engine config")

// Engine holds all tunable parameters of the figure engine.
type Engine struct {
	// Server
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	// Timing
	FrameRate float64 `yaml:"frame_rate"` // Driver ticks per second
	FixedHz   float64 `yaml:"fixed_hz"`   // Fixed animation step; 0 = wall clock

	// Scheduling
	Order string `yaml:"order"` // "priority" or "activation"

	// Content
	Choreography string `yaml:"choreography"` // Path to the choreography YAML

	// Noise
	Noise NoiseConfig `yaml:"noise"`

	// Inverse kinematics requests
	IK IKConfig `yaml:"ik"`

	// Streaming
	Hub HubConfig `yaml:"hub"`
}

// NoiseConfig selects the noise sub-goal source.
type NoiseConfig struct {
	Source string `yaml:"source"` // "random" or "perlin"
	Seed   int64  `yaml:"seed"`
}

// IKConfig bounds solver requests.
type IKConfig struct {
	MaxSteps  int     `yaml:"max_steps"`
	Tolerance float64 `yaml:"tolerance"`
}

// HubConfig sizes the frame fan-out.
type HubConfig struct {
	ClientBuffer int `yaml:"client_buffer"` // Frames queued per subscriber before it is dropped
	EveryNth     int `yaml:"every_nth"`     // Publish every Nth frame
}

// DefaultEngine returns the configuration for interactive use.
func DefaultEngine() Engine {
	return Engine{
		Port:     "8080",
		LogLevel: "info",

		FrameRate: 30,
		FixedHz:   0,

		Order: "priority",

		Noise: NoiseConfig{Source: "random", Seed: 1},

		IK: IKConfig{MaxSteps: 100, Tolerance: 1e-3},

		Hub: HubConfig{ClientBuffer: 64, EveryNth: 1},
	}
}

// OfflineEngine returns a deterministic configuration for baking frames.
func OfflineEngine() Engine {
	cfg := DefaultEngine()
	cfg.FixedHz = 30
	cfg.Noise.Source = "perlin"
	return cfg
}

// Load reads path (if not empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (Engine, error) {
	cfg := DefaultEngine()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from FIGURE_* variables.
func (e *Engine) ApplyEnv() error {
	if v := os.Getenv(EnvPort); v != "" {
		e.Port = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		e.LogLevel = v
	}
	if v := os.Getenv(EnvChoreo); v != "" {
		e.Choreography = v
	}
	if err := envFloat(EnvFrameRate, &e.FrameRate); err != nil {
		return err
	}
	return envFloat(EnvFixedHz, &e.FixedHz)
}

func envFloat(name string, dst *float64) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%w: %s=%q: %v", ErrInvalid, name, v, err)
	}
	*dst = f
	return nil
}

// Validate checks ranges and enumerations.
func (e Engine) Validate() error {
	switch {
	case e.FrameRate <= 0:
		return fmt.Errorf("%w: frame_rate must be positive, got %g", ErrInvalid, e.FrameRate)
	case e.FixedHz < 0:
		return fmt.Errorf("%w: fixed_hz must not be negative, got %g", ErrInvalid, e.FixedHz)
	case e.Order != "priority" && e.Order != "activation":
		return fmt.Errorf("%w: order must be priority or activation, got %q", ErrInvalid, e.Order)
	case e.Noise.Source != "random" && e.Noise.Source != "perlin":
		return fmt.Errorf("%w: noise.source must be random or perlin, got %q", ErrInvalid, e.Noise.Source)
	case e.IK.MaxSteps <= 0 || e.IK.Tolerance <= 0:
		return fmt.Errorf("%w: ik.max_steps and ik.tolerance must be positive", ErrInvalid)
	case e.Hub.ClientBuffer <= 0 || e.Hub.EveryNth <= 0:
		return fmt.Errorf("%w: hub.client_buffer and hub.every_nth must be positive", ErrInvalid)
	}
	return nil
}

// FrameInterval returns the driver tick period.
func (e Engine) FrameInterval() time.Duration {
	return time.Duration(float64(time.Second) / e.FrameRate)
}

// Addr returns the listen address for Port.
func (e Engine) Addr() string {
	return ":" + e.Port
}
