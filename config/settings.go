// Package config loads the settings of the fluid front-ends from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	fluid "github.com/esimov/stable-fluid/fluid-solver"
)

type Settings struct {
	Simulation SimulationSettings `toml:"simulation"`
	Server     ServerSettings     `toml:"server"`
	Terminal   TerminalSettings   `toml:"terminal"`
	Detector   DetectorSettings   `toml:"detector"`
	Log        LogSettings        `toml:"log"`
}

type SimulationSettings struct {
	Width               int              `toml:"width"`
	Height              int              `toml:"height"`
	Viscosity           float32          `toml:"viscosity"`
	Dt                  float32          `toml:"dt"`
	CellSize            float32          `toml:"cell_size"`
	PressureIterations  int              `toml:"pressure_iterations"`
	DiffusionIterations int              `toml:"diffusion_iterations"`
	Workers             int              `toml:"workers"`
	Boundary            BoundarySettings `toml:"boundary"`
	Dye                 DyeSettings      `toml:"dye"`
}

// BoundarySettings holds one boundary scale per field: "no-slip" or "neumann".
type BoundarySettings struct {
	Velocity string `toml:"velocity"`
	Pressure string `toml:"pressure"`
	Dye      string `toml:"dye"`
}

// DyeSettings selects the initial dye: "zero", "checkerboard" or "stripes",
// with Size the square or stripe width in cells.
type DyeSettings struct {
	Pattern string `toml:"pattern"`
	Size    int    `toml:"size"`
}

type ServerSettings struct {
	Address       string   `toml:"address"`
	Prefix        string   `toml:"prefix"`
	Root          string   `toml:"root"`
	FrameInterval Duration `toml:"frame_interval"`
	Palette       string   `toml:"palette"`
}

type TerminalSettings struct {
	ImpulseStrength float32  `toml:"impulse_strength"`
	Radius          float32  `toml:"radius"`
	DyeAmount       float32  `toml:"dye_amount"`
	Particles       int      `toml:"particles"`
	ParticleAge     float32  `toml:"particle_age"`
	FrameInterval   Duration `toml:"frame_interval"`
}

type DetectorSettings struct {
	Cascade  string  `toml:"cascade"`
	MinSize  int     `toml:"min_size"`
	MaxSize  int     `toml:"max_size"`
	Shift    float64 `toml:"shift"`
	Scale    float64 `toml:"scale"`
	IoU      float64 `toml:"iou"`
	Quality  float32 `toml:"quality"`
	Strength float32 `toml:"strength"`
	Radius   float32 `toml:"radius"`
}

type LogSettings struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Duration is a time.Duration written as a string ("40ms") in the file.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the settings used when no file is given.
func Default() Settings {
	cfg := fluid.DefaultConfig()
	return Settings{
		Simulation: SimulationSettings{
			Width:               cfg.Width,
			Height:              cfg.Height,
			Viscosity:           cfg.Viscosity,
			Dt:                  0.1,
			CellSize:            cfg.CellSize,
			PressureIterations:  cfg.PressureIterations,
			DiffusionIterations: cfg.DiffusionIterations,
			Boundary: BoundarySettings{
				Velocity: "no-slip",
				Pressure: "neumann",
				Dye:      "neumann",
			},
			Dye: DyeSettings{Pattern: "zero", Size: 8},
		},
		Server: ServerSettings{
			Address:       "localhost:5000",
			Prefix:        "/",
			Root:          ".",
			FrameInterval: Duration(40 * time.Millisecond),
			Palette:       "viridis",
		},
		Terminal: TerminalSettings{
			ImpulseStrength: 8,
			Radius:          0.002,
			DyeAmount:       1,
			Particles:       500,
			ParticleAge:     20,
			FrameInterval:   Duration(33 * time.Millisecond),
		},
		Detector: DetectorSettings{
			Cascade:  "data/facefinder",
			MinSize:  100,
			MaxSize:  1200,
			Shift:    0.1,
			Scale:    1.1,
			IoU:      0.1,
			Quality:  5,
			Strength: 20,
			Radius:   0.004,
		},
		Log: LogSettings{Level: "info", Format: "text"},
	}
}

// Load reads the settings file at path on top of the defaults. A missing
// file is not an error.
func Load(path string) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fluid.Logger().Info("config: no settings file, using defaults", slog.String("path", path))
			return Default(), nil
		}
		return Settings{}, err
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return Settings{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return s, nil
}

// Decode reads TOML settings from r on top of the defaults. Unknown keys are
// rejected.
func Decode(r io.Reader) (Settings, error) {
	s := Default()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Settings{}, fmt.Errorf("unknown settings:\n%s", strings.TrimSpace(strict.String()))
		}
		return Settings{}, err
	}
	return s, nil
}

// Encode writes s as TOML.
func (s Settings) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(s)
}

// FluidConfig converts the simulation section into a solver configuration.
// Only the boundary names are checked here; the values themselves are
// validated by fluid.New.
func (s Settings) FluidConfig() (fluid.Config, error) {
	sim := s.Simulation
	var errs []error
	scale := func(field, name string) fluid.BoundaryPolicy {
		v, err := fluid.ParseBoundaryScale(name)
		if err != nil {
			errs = append(errs, &fluid.ConfigError{Field: field, Value: name, Reason: err.Error()})
		}
		return fluid.BoundaryPolicy{Scale: v}
	}

	cfg := fluid.Config{
		Width:               sim.Width,
		Height:              sim.Height,
		Viscosity:           sim.Viscosity,
		CellSize:            sim.CellSize,
		PressureIterations:  sim.PressureIterations,
		DiffusionIterations: sim.DiffusionIterations,
		Workers:             sim.Workers,
		Boundaries: fluid.BoundaryPolicies{
			Velocity: scale("velocity boundary scale", sim.Boundary.Velocity),
			Pressure: scale("pressure boundary scale", sim.Boundary.Pressure),
			Dye:      scale("dye boundary scale", sim.Boundary.Dye),
		},
	}
	return cfg, errors.Join(errs...)
}

// DyePattern returns the initial dye pattern named in the settings.
func (s SimulationSettings) DyePattern() (fluid.DyePattern, error) {
	switch s.Dye.Pattern {
	case "", "zero":
		return fluid.DyeZero, nil
	case "checkerboard":
		return fluid.DyeCheckerboard(s.Dye.Size), nil
	case "stripes":
		return fluid.DyeStripes(s.Dye.Size), nil
	}
	return nil, &fluid.ConfigError{Field: "dye pattern", Value: s.Dye.Pattern, Reason: "must be zero, checkerboard or stripes"}
}

// Handler builds the slog handler described by the log section.
func (l LogSettings) Handler(w io.Writer) (slog.Handler, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return nil, fmt.Errorf("config: log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch l.Format {
	case "", "text":
		return slog.NewTextHandler(w, opts), nil
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	}
	return nil, fmt.Errorf("config: unknown log format %q", l.Format)
}
