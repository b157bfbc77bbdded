package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fluid "github.com/esimov/stable-fluid/fluid-solver"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestDefaultsMakeAValidSimulation(t *testing.T) {
	cfg, err := Default().FluidConfig()
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, fluid.DefaultBoundaries(), cfg.Boundaries)
}

func TestDecodeOverridesDefaults(t *testing.T) {
	const doc = `
[simulation]
width = 64
viscosity = 0.0005
pressure_iterations = 50

[simulation.boundary]
dye = "no-slip"

[simulation.dye]
pattern = "checkerboard"
size = 4

[server]
address = ":8080"
frame_interval = "20ms"

[log]
level = "debug"
format = "json"
`
	s, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, 64, s.Simulation.Width)
	assert.Equal(t, Default().Simulation.Height, s.Simulation.Height)
	assert.InDelta(t, 0.0005, s.Simulation.Viscosity, 1e-9)
	assert.Equal(t, 50, s.Simulation.PressureIterations)
	assert.Equal(t, ":8080", s.Server.Address)
	assert.Equal(t, 20*time.Millisecond, s.Server.FrameInterval.Std())
	assert.Equal(t, "/", s.Server.Prefix)

	cfg, err := s.FluidConfig()
	require.NoError(t, err)
	assert.Equal(t, fluid.BoundaryNoSlip, cfg.Boundaries.Dye.Scale)
	assert.Equal(t, fluid.BoundaryNeumann, cfg.Boundaries.Pressure.Scale)

	pattern, err := s.Simulation.DyePattern()
	require.NoError(t, err)
	assert.Equal(t, float32(1), pattern(0, 0, 64, 128))
	assert.Equal(t, float32(0), pattern(4, 0, 64, 128))
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	_, err := Decode(strings.NewReader("[simulation]\nwidht = 64\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "widht")
}

func TestDecodeRejectsBadDuration(t *testing.T) {
	_, err := Decode(strings.NewReader("[server]\nframe_interval = \"soon\"\n"))
	assert.Error(t, err)
}

func TestLoadReportsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fluid.toml")
	require.NoError(t, os.WriteFile(path, []byte("[simulation\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestEncodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Default().Encode(&buf))

	s, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestFluidConfigBadBoundary(t *testing.T) {
	s := Default()
	s.Simulation.Boundary.Velocity = "periodic"

	_, err := s.FluidConfig()
	require.Error(t, err)
	assert.True(t, errors.Is(err, fluid.ErrConfiguration))

	var ce *fluid.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "velocity boundary scale", ce.Field)
}

func TestDyePatternUnknown(t *testing.T) {
	s := Default().Simulation
	s.Dye.Pattern = "plaid"
	_, err := s.DyePattern()
	assert.ErrorIs(t, err, fluid.ErrConfiguration)
}

func TestLogHandler(t *testing.T) {
	var buf bytes.Buffer
	h, err := LogSettings{Level: "warn", Format: "json"}.Handler(&buf)
	require.NoError(t, err)

	l := slog.New(h)
	l.Info("hidden")
	l.Warn("shown", slog.Int("step", 3))
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"step":3`)

	_, err = LogSettings{Level: "loud"}.Handler(&buf)
	assert.Error(t, err)
	_, err = LogSettings{Level: "info", Format: "xml"}.Handler(&buf)
	assert.Error(t, err)
}

func TestSampleFileMatchesDefaults(t *testing.T) {
	s, err := Load(filepath.Join("..", "fluid.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}
