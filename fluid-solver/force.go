package fluid

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Impulse is a Gaussian splat of force (and optionally dye) centered on
// Epicenter, given in normalized coordinates.
type Impulse struct {
	Epicenter Vec2
	Force     Vec2    // grid cells per timestep
	Radius    float32 // gaussian width, exp(-d²/Radius)
	Dye       float32 // dye added at the epicenter, 0 for none
}

func (imp Impulse) validate() error {
	if !(imp.Radius > 0) || math32.IsInf(imp.Radius, 1) {
		return fmt.Errorf("%w: impulse radius must be positive, got %v", ErrPrecondition, imp.Radius)
	}
	return nil
}

func gaussian(d2, radius float32) float32 {
	return math32.Exp(-d2 / radius)
}

// injectVelocity adds every impulse to the velocity field in one pass.
func injectVelocity(e *Executor, velocity *Field[Vec2], imps []Impulse) {
	Apply(e, velocity, func(c Cell, r Reader[Vec2]) Vec2 {
		v := r.At(c.I, c.J)
		for _, imp := range imps {
			d := c.Pos.Sub(imp.Epicenter)
			v = v.Add(imp.Force.Scale(gaussian(d.Mag2(), imp.Radius)))
		}
		return v
	})
}

// injectDye adds the dye amounts of the impulses with the same falloff.
func injectDye(e *Executor, dye *Field[Scalar], imps []Impulse) {
	Apply(e, dye, func(c Cell, r Reader[Scalar]) Scalar {
		d := r.At(c.I, c.J)
		for _, imp := range imps {
			if imp.Dye == 0 {
				continue
			}
			dist := c.Pos.Sub(imp.Epicenter)
			d += Scalar(imp.Dye * gaussian(dist.Mag2(), imp.Radius))
		}
		return d
	})
}

func hasDye(imps []Impulse) bool {
	for _, imp := range imps {
		if imp.Dye != 0 {
			return true
		}
	}
	return false
}
