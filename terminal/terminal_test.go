package terminal

import (
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esimov/stable-fluid/config"
	fluid "github.com/esimov/stable-fluid/fluid-solver"
)

func TestCellToUV(t *testing.T) {
	p := cellToUV(0, 0, 80, 20)
	assert.InDelta(t, 0.5/80, p.X, 1e-6)
	assert.InDelta(t, 1-0.5/20, p.Y, 1e-6)

	x, y := uvToCell(p, 80, 20)
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)

	x, y = uvToCell(cellToUV(79, 19, 80, 20), 80, 20)
	assert.Equal(t, 79, x)
	assert.Equal(t, 19, y)
}

func TestDragImpulse(t *testing.T) {
	s := config.Default().Terminal
	s.ImpulseStrength = 2

	_, ok := dragImpulse(5, 5, 5, 5, 100, 50, 128, 128, s)
	assert.False(t, ok)

	// one column right, one row up
	imp, ok := dragImpulse(10, 10, 11, 9, 100, 50, 100, 100, s)
	require.True(t, ok)
	assert.InDelta(t, 2, imp.Force.X, 1e-4)
	assert.InDelta(t, 4, imp.Force.Y, 1e-4)
	assert.Equal(t, cellToUV(11, 9, 100, 50), imp.Epicenter)
	assert.Equal(t, s.Radius, imp.Radius)
	assert.Equal(t, s.DyeAmount, imp.Dye)
}

func TestHUDFitsWidth(t *testing.T) {
	cfg := fluid.DefaultConfig()
	cfg.Width, cfg.Height = 8, 8
	sim, err := fluid.New(cfg)
	require.NoError(t, err)

	for _, w := range []int{10, 40, 200} {
		s := hud(sim, true, 3, w)
		assert.LessOrEqual(t, runewidth.StringWidth(s), w)
	}
	assert.Contains(t, hud(sim, false, 0, 200), "dye")
}

func TestNewTerminal(t *testing.T) {
	cfg := fluid.DefaultConfig()
	cfg.Width, cfg.Height = 8, 8
	sim, err := fluid.New(cfg)
	require.NoError(t, err)

	term, err := New(sim, Options{Settings: config.Default().Terminal, Dt: 0.1, PressureIterations: 5, DiffusionIterations: 5})
	require.NoError(t, err)
	assert.True(t, term.showParticles)

	term.key('v')
	assert.True(t, term.showVelocity)
	term.key('p')
	assert.False(t, term.showParticles)
}
