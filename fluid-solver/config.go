package fluid

import (
	"errors"

	"github.com/chewxy/math32"
)

// Config fixes the resolution and physical constants of a Simulation.
type Config struct {
	Width, Height int

	// Viscosity enables the diffusion stage when positive.
	Viscosity float32
	// CellSize is the grid spacing dx used by the stencils.
	CellSize float32

	// Default iteration counts, used by callers that do not pick their own.
	PressureIterations  int
	DiffusionIterations int

	Boundaries BoundaryPolicies

	// Workers is the number of goroutines per kernel, 0 for GOMAXPROCS.
	Workers int
}

// DefaultConfig returns a 128×128 inviscid configuration.
func DefaultConfig() Config {
	return Config{
		Width:               128,
		Height:              128,
		Viscosity:           0,
		CellSize:            1,
		PressureIterations:  30,
		DiffusionIterations: 20,
		Boundaries:          DefaultBoundaries(),
	}
}

// Validate reports every invalid value of c, joined into one error.
func (c Config) Validate() error {
	var errs []error
	bad := func(field string, value any, reason string) {
		errs = append(errs, &ConfigError{Field: field, Value: value, Reason: reason})
	}

	if c.Width < 3 {
		bad("width", c.Width, "must be at least 3 to leave an interior")
	}
	if c.Height < 3 {
		bad("height", c.Height, "must be at least 3 to leave an interior")
	}
	if math32.IsNaN(c.Viscosity) || c.Viscosity < 0 || math32.IsInf(c.Viscosity, 1) {
		bad("viscosity", c.Viscosity, "must be a finite value >= 0")
	}
	if !(c.CellSize > 0) || math32.IsInf(c.CellSize, 1) {
		bad("cell size", c.CellSize, "must be a finite value > 0")
	}
	if c.PressureIterations <= 0 {
		bad("pressure iterations", c.PressureIterations, "must be > 0")
	}
	if c.DiffusionIterations <= 0 {
		bad("diffusion iterations", c.DiffusionIterations, "must be > 0")
	}
	if !c.Boundaries.Velocity.valid() {
		bad("velocity boundary scale", int(c.Boundaries.Velocity.Scale), "must be +1 or -1")
	}
	if !c.Boundaries.Pressure.valid() {
		bad("pressure boundary scale", int(c.Boundaries.Pressure.Scale), "must be +1 or -1")
	}
	if !c.Boundaries.Dye.valid() {
		bad("dye boundary scale", int(c.Boundaries.Dye.Scale), "must be +1 or -1")
	}
	if c.Workers < 0 {
		bad("workers", c.Workers, "must be >= 0")
	}
	return errors.Join(errs...)
}
