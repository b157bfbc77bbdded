package visual

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fluid "github.com/esimov/stable-fluid/fluid-solver"
)

func testSnapshot() fluid.Snapshot {
	sn := fluid.Snapshot{
		Width:    3,
		Height:   2,
		Velocity: make([]fluid.Vec2, 6),
		Pressure: make([]float32, 6),
		Dye:      make([]float32, 6),
	}
	sn.Velocity[0] = fluid.Vec2{X: 2} // cell (0,0), bottom left
	sn.Dye[5] = 1                     // cell (2,1), top right
	return sn
}

func TestRenderVelocityOrientation(t *testing.T) {
	img := RenderVelocity(testSnapshot(), 0)
	require.Equal(t, 3, img.Bounds().Dx())
	require.Equal(t, 2, img.Bounds().Dy())

	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(0, 1))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(0, 0))
}

func TestRenderScalar(t *testing.T) {
	p, err := NewPalette("greys", 0, 1)
	require.NoError(t, err)

	sn := testSnapshot()
	img := RenderScalar(sn.Dye, sn.Width, sn.Height, p)
	r, _, _, _ := img.At(2, 0).RGBA()
	r0, _, _, _ := img.At(0, 1).RGBA()
	assert.NotEqual(t, r, r0)
}

func TestBlendWhitensDye(t *testing.T) {
	sn := testSnapshot()
	out := Blend(RenderVelocity(sn, 1), sn)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, out.RGBAAt(2, 0))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, out.RGBAAt(0, 1))
}

func TestScale(t *testing.T) {
	img := Scale(RenderVelocity(testSnapshot(), 1), 30, 20)
	assert.Equal(t, 30, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())
}
