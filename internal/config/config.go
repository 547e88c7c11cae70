// Package config holds the compiled-in run parameters and their optional
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/litescript/orbitlapse/internal/orbit"
)

// cloudFactor places the cloud layer just above the planet surface.
const cloudFactor = 1.05

// Config holds every tunable of a run. Nothing is required: Default returns
// a complete configuration and environment variables only override it.
type Config struct {
	// Dataset
	DatasetPath string `env:"ORBITLAPSE_DATASET"`

	// Geocoding
	GeocodeURL     string        `env:"ORBITLAPSE_GEOCODE_URL"`
	GeocodeFile    string        `env:"ORBITLAPSE_GEOCODE_FILE"`
	UserAgent      string        `env:"ORBITLAPSE_USER_AGENT"`
	GeocodeRate    float64       `env:"ORBITLAPSE_GEOCODE_RATE"` // requests per second
	GeocodeTimeout time.Duration `env:"ORBITLAPSE_GEOCODE_TIMEOUT"`

	// Sequencing
	Pacing time.Duration `env:"ORBITLAPSE_PACING"`

	// Orbit model
	LaunchSteps     int     `env:"ORBITLAPSE_LAUNCH_STEPS"`
	TimeCompression float64 `env:"ORBITLAPSE_TIME_COMPRESSION"`
	PlanetRadius    float64 `env:"ORBITLAPSE_PLANET_RADIUS"`
	ShellFactor     float64 `env:"ORBITLAPSE_SHELL_FACTOR"`
	SpinRate        float64 `env:"ORBITLAPSE_SPIN_RATE"` // radians per frame

	// Frame loop
	FrameInterval time.Duration `env:"ORBITLAPSE_FRAME_INTERVAL"`

	// Ambient
	LogLevel       string `env:"ORBITLAPSE_LOG_LEVEL"`
	LogFile        string `env:"ORBITLAPSE_LOG_FILE"`
	MetricsAddr    string `env:"ORBITLAPSE_METRICS_ADDR"`
	TracingEnabled bool   `env:"ORBITLAPSE_TRACING"`
	TraceFile      string `env:"ORBITLAPSE_TRACE_FILE"`
}

// Default returns the compiled-in configuration.
func Default() Config {
	return Config{
		DatasetPath:     "UCS-Satellite-Database-5-1-2023.xlsx",
		GeocodeURL:      "https://nominatim.openstreetmap.org",
		UserAgent:       "orbitlapse/1.0 (launch time-lapse)",
		GeocodeRate:     1, // Nominatim usage policy: at most 1 request/s
		Pacing:          300 * time.Millisecond,
		LaunchSteps:     100,
		TimeCompression: 10,
		PlanetRadius:    2,
		ShellFactor:     1.4,
		SpinRate:        0.001,
		FrameInterval:   time.Second / 30,
		LogLevel:        "info",
		LogFile:         "orbitlapse.log",
		TraceFile:       "orbitlapse-trace.json",
	}
}

// FromEnv returns Default with any ORBITLAPSE_* environment variables applied.
func FromEnv() (Config, error) {
	cfg := Default()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects values the orbit model cannot work with.
func (c Config) Validate() error {
	var errs []error
	if c.LaunchSteps <= 0 {
		errs = append(errs, fmt.Errorf("launch steps must be positive, got %d", c.LaunchSteps))
	}
	if c.TimeCompression <= 0 {
		errs = append(errs, fmt.Errorf("time compression must be positive, got %v", c.TimeCompression))
	}
	if c.PlanetRadius <= 0 {
		errs = append(errs, fmt.Errorf("planet radius must be positive, got %v", c.PlanetRadius))
	}
	if c.ShellFactor <= 1 {
		errs = append(errs, fmt.Errorf("shell factor must be greater than 1, got %v", c.ShellFactor))
	}
	if c.FrameInterval <= 0 {
		errs = append(errs, fmt.Errorf("frame interval must be positive, got %v", c.FrameInterval))
	}
	if c.Pacing < 0 {
		errs = append(errs, fmt.Errorf("pacing must not be negative, got %v", c.Pacing))
	}
	if c.GeocodeRate < 0 {
		errs = append(errs, fmt.Errorf("geocode rate must not be negative, got %v", c.GeocodeRate))
	}
	return errors.Join(errs...)
}

// Orbit returns the orbit model configuration.
func (c Config) Orbit() orbit.Config {
	return orbit.Config{
		PlanetRadius:    c.PlanetRadius,
		CloudRadius:     c.PlanetRadius * cloudFactor,
		ShellFactor:     c.ShellFactor,
		LaunchSteps:     c.LaunchSteps,
		TimeCompression: c.TimeCompression,
		SpinRate:        c.SpinRate,
	}
}
