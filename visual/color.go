// Package visual turns simulation fields into colours, glyphs and images.
// It only reads snapshots and never touches a running simulation.
package visual

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mazznoer/colorgrad"

	fluid "github.com/esimov/stable-fluid/fluid-solver"
)

// HueWheel maps the direction of v onto a colour wheel split into three
// 120° segments (red to green, green to blue, blue to red). The brightness
// follows |v|/maxMag, saturating at 1.
func HueWheel(v fluid.Vec2, maxMag float32) colorful.Color {
	mag := v.Len()
	if !(maxMag > 0) || mag == 0 || !v.IsFinite() {
		return colorful.Color{}
	}
	k := min(mag/maxMag, 1)

	angle := math32.Atan2(v.Y, v.X)
	if angle < 0 {
		angle += 2 * math32.Pi
	}
	seg := angle / (2 * math32.Pi / 3)
	t := seg - math32.Floor(seg)

	var r, g, b float32
	switch int(seg) % 3 {
	case 0:
		r, g = 1-t, t
	case 1:
		g, b = 1-t, t
	default:
		b, r = 1-t, t
	}
	return colorful.Color{R: float64(r * k), G: float64(g * k), B: float64(b * k)}
}

var gradients = map[string]func() colorgrad.Gradient{
	"viridis": colorgrad.Viridis,
	"inferno": colorgrad.Inferno,
	"plasma":  colorgrad.Plasma,
	"turbo":   colorgrad.Turbo,
	"rdbu":    colorgrad.RdBu,
	"greys":   colorgrad.Greys,
}

// Palette maps scalars in [Min, Max] onto a colour gradient.
type Palette struct {
	grad     colorgrad.Gradient
	Min, Max float32
}

// NewPalette builds a palette from one of the named gradients: viridis,
// inferno, plasma, turbo, rdbu or greys.
func NewPalette(name string, lo, hi float32) (Palette, error) {
	fn, ok := gradients[name]
	if !ok {
		return Palette{}, fmt.Errorf("visual: unknown palette %q", name)
	}
	if !(hi > lo) {
		return Palette{}, fmt.Errorf("visual: empty palette range [%v, %v]", lo, hi)
	}
	return Palette{grad: fn(), Min: lo, Max: hi}, nil
}

// At returns the colour of v. Values outside the range take the end colours;
// NaN maps to the low end.
func (p Palette) At(v float32) colorful.Color {
	t := float64((v - p.Min) / (p.Max - p.Min))
	if math.IsNaN(t) {
		t = 0
	}
	return p.grad.At(math.Max(0, math.Min(t, 1))).Clamped()
}

// XTerm256 returns the index of the closest colour of the 6×6×6 cube of the
// xterm 256 colour palette.
func XTerm256(c colorful.Color) int {
	r, g, b := c.Clamped().RGB255()
	q := func(x uint8) int {
		return (int(x)*5 + 127) / 255
	}
	return 16 + 36*q(r) + 6*q(g) + q(b)
}

const ramp = " .:-=+*#%@"

// Glyph returns an ASCII character whose ink coverage grows with density,
// clamped to [0, 1].
func Glyph(density float32) rune {
	if !(density > 0) {
		return rune(ramp[0])
	}
	i := int(density * float32(len(ramp)-1))
	return rune(ramp[min(i, len(ramp)-1)])
}
