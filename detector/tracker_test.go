package detector

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fluid "github.com/esimov/stable-fluid/fluid-solver"
)

func TestFaceCenter(t *testing.T) {
	c := Face{Row: 0, Col: 99}.Center(100, 50)
	assert.InDelta(t, 0.995, c.X, 1e-6)
	assert.InDelta(t, 0.99, c.Y, 1e-6)
}

func TestTrackerFollowsMotion(t *testing.T) {
	tr := NewTracker(10, 0.01, 0.5)

	_, ok := tr.Track([]Face{{Row: 50, Col: 50, Q: 10}}, 100, 100)
	assert.False(t, ok, "first sighting only records the position")

	imp, ok := tr.Track([]Face{{Row: 50, Col: 60, Q: 10}}, 100, 100)
	require.True(t, ok)
	assert.InDelta(t, 1, imp.Force.X, 1e-5)
	assert.InDelta(t, 0, imp.Force.Y, 1e-5)
	assert.InDelta(t, 0.605, imp.Epicenter.X, 1e-6)
	assert.Equal(t, float32(0.01), imp.Radius)
	assert.Equal(t, float32(0.5), imp.Dye)

	// moving up in the image pushes the fluid towards +y
	imp, ok = tr.Track([]Face{{Row: 40, Col: 60, Q: 10}}, 100, 100)
	require.True(t, ok)
	assert.Greater(t, imp.Force.Y, float32(0))
}

func TestTrackerPicksStrongestFace(t *testing.T) {
	tr := NewTracker(1, 0.01, 0)
	tr.Track([]Face{{Row: 10, Col: 10, Q: 3}, {Row: 80, Col: 80, Q: 9}}, 100, 100)

	imp, ok := tr.Track([]Face{{Row: 80, Col: 90, Q: 9}, {Row: 10, Col: 10, Q: 3}}, 100, 100)
	require.True(t, ok)
	assert.InDelta(t, 0.1, imp.Force.X, 1e-5)
}

func TestTrackerIgnoresStillFaceAndLoss(t *testing.T) {
	tr := NewTracker(1, 0.01, 0)
	tr.Track([]Face{{Row: 50, Col: 50, Q: 5}}, 100, 100)

	_, ok := tr.Track([]Face{{Row: 50, Col: 50, Q: 5}}, 100, 100)
	assert.False(t, ok)

	_, ok = tr.Track(nil, 100, 100)
	assert.False(t, ok)

	// after losing the face the next sighting starts over
	_, ok = tr.Track([]Face{{Row: 10, Col: 10, Q: 5}}, 100, 100)
	assert.False(t, ok)
}

func TestTrackerImpulseIsValid(t *testing.T) {
	s, err := fluid.New(func() fluid.Config {
		c := fluid.DefaultConfig()
		c.Width, c.Height = 16, 16
		return c
	}())
	require.NoError(t, err)

	tr := NewTracker(5, 0.01, 1)
	tr.Track([]Face{{Row: 20, Col: 20, Q: 5}}, 64, 64)
	imp, ok := tr.Track([]Face{{Row: 20, Col: 30, Q: 5}}, 64, 64)
	require.True(t, ok)
	assert.NoError(t, s.InjectImpulse(imp))
}

func TestLoadMissingCascade(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "facefinder"), DefaultParams())
	assert.ErrorIs(t, err, ErrNoCascade)
}

func TestDecodeFrameRejectsGarbage(t *testing.T) {
	_, err := DecodeFrame([]byte("not an image"))
	assert.Error(t, err)
}
