package visual

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	fluid "github.com/esimov/stable-fluid/fluid-solver"
)

// RenderVelocity paints every cell of sn with HueWheel. maxMag <= 0 scales
// against the fastest cell of the snapshot. Row 0 of the image is the top of
// the domain (y = 1).
func RenderVelocity(sn fluid.Snapshot, maxMag float32) *image.RGBA {
	if maxMag <= 0 {
		for _, v := range sn.Velocity {
			maxMag = max(maxMag, v.Len())
		}
	}
	img := image.NewRGBA(image.Rect(0, 0, sn.Width, sn.Height))
	for j := 0; j < sn.Height; j++ {
		for i := 0; i < sn.Width; i++ {
			img.Set(i, sn.Height-1-j, HueWheel(sn.Velocity[i+sn.Width*j], maxMag))
		}
	}
	return img
}

// RenderScalar paints a row-major w×h scalar field through p, with the same
// orientation as RenderVelocity.
func RenderScalar(values []float32, w, h int, p Palette) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			img.Set(i, h-1-j, p.At(values[i+w*j]))
		}
	}
	return img
}

// Blend overlays dye on top of a velocity image: each pixel is mixed towards
// white by the dye amount of its cell.
func Blend(velocity *image.RGBA, sn fluid.Snapshot) *image.RGBA {
	out := image.NewRGBA(velocity.Bounds())
	white := color.RGBA{255, 255, 255, 255}
	for j := 0; j < sn.Height; j++ {
		for i := 0; i < sn.Width; i++ {
			d := min(max(sn.Dye[i+sn.Width*j], 0), 1)
			c := velocity.RGBAAt(i, sn.Height-1-j)
			out.SetRGBA(i, sn.Height-1-j, mix(c, white, d))
		}
	}
	return out
}

func mix(a, b color.RGBA, t float32) color.RGBA {
	lerp := func(x, y uint8) uint8 {
		return uint8(float32(x) + (float32(y)-float32(x))*t + 0.5)
	}
	return color.RGBA{lerp(a.R, b.R), lerp(a.G, b.G), lerp(a.B, b.B), 255}
}

// Scale resizes src to w×h with bilinear filtering.
func Scale(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
