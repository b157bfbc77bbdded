package fluid

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// interior collects fn(i, j) over every non-boundary cell.
func interior(w, h int, fn func(i, j int) float64) []float64 {
	out := make([]float64, 0, (w-2)*(h-2))
	for j := 1; j < h-1; j++ {
		for i := 1; i < w-1; i++ {
			out = append(out, fn(i, j))
		}
	}
	return out
}

// KineticEnergy returns ½·Σ|v|² over the interior cells.
func (s *Simulation) KineticEnergy() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return kineticEnergy(s.velocity)
}

func kineticEnergy(velocity *Field[Vec2]) float64 {
	comps := make([]float64, 0, 2*(velocity.width-2)*(velocity.height-2))
	for j := 1; j < velocity.height-1; j++ {
		for i := 1; i < velocity.width-1; i++ {
			v := velocity.At(i, j)
			comps = append(comps, float64(v.X), float64(v.Y))
		}
	}
	return 0.5 * floats.Dot(comps, comps)
}

// MaxDivergence returns the largest absolute central-difference divergence
// over the interior cells.
func (s *Simulation) MaxDivergence() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maxAbs(divergenceOf(s.velocity, s.cfg.CellSize))
}

func divergenceOf(velocity *Field[Vec2], dx float32) []float64 {
	halfrdx := 0.5 / float64(dx)
	return interior(velocity.width, velocity.height, func(i, j int) float64 {
		vL, vR := velocity.At(i-1, j), velocity.At(i+1, j)
		vB, vT := velocity.At(i, j-1), velocity.At(i, j+1)
		return halfrdx * float64((vR.X-vL.X)+(vT.Y-vB.Y))
	})
}

// PressureResidual returns the L2 norm of ∇²p - div over the interior,
// using the divergence of the last step.
func (s *Simulation) PressureResidual() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return poissonResidual(s.pressure, s.divergence, s.cfg.CellSize)
}

func poissonResidual(x, b *Field[Scalar], dx float32) float64 {
	rdx2 := 1 / float64(dx*dx)
	res := interior(x.width, x.height, func(i, j int) float64 {
		sum := x.At(i-1, j) + x.At(i+1, j) + x.At(i, j-1) + x.At(i, j+1)
		lap := float64(sum-4*x.At(i, j)) * rdx2
		return lap - float64(b.At(i, j))
	})
	return floats.Norm(res, 2)
}

// MaxSpeed returns the largest velocity magnitude in the grid.
func (s *Simulation) MaxSpeed() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	speeds := make([]float64, len(s.velocity.cur))
	for i, v := range s.velocity.cur {
		speeds[i] = float64(v.Len())
	}
	return floats.Max(speeds)
}

// MaxStableDt returns the largest dt for which no sample is traced back
// further than one cell. It is +Inf for a fluid at rest.
func (s *Simulation) MaxStableDt() float64 {
	speed := s.MaxSpeed()
	if speed == 0 {
		return math.Inf(1)
	}
	return 1 / speed
}

func maxAbs(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	abs := make([]float64, len(xs))
	for i, x := range xs {
		abs[i] = math.Abs(x)
	}
	return floats.Max(abs)
}
