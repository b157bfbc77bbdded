package fluid

// DyePattern returns the initial dye of cell (i, j) in a w×h grid.
type DyePattern func(i, j, w, h int) float32

// DyeZero leaves the dye empty.
func DyeZero(int, int, int, int) float32 { return 0 }

// DyeCheckerboard alternates 1 and 0 in squares of the given size in cells.
func DyeCheckerboard(size int) DyePattern {
	size = max(size, 1)
	return func(i, j, _, _ int) float32 {
		if (i/size+j/size)%2 == 0 {
			return 1
		}
		return 0
	}
}

// DyeStripes paints vertical stripes of the given width in cells.
func DyeStripes(width int) DyePattern {
	width = max(width, 1)
	return func(i, _, _, _ int) float32 {
		if (i/width)%2 == 0 {
			return 1
		}
		return 0
	}
}

// FillDye overwrites the dye field with pattern. No boundary correction is
// applied until the next step.
func (s *Simulation) FillDye(pattern DyePattern) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, h := s.cfg.Width, s.cfg.Height
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			s.dye.Set(i, j, Scalar(pattern(i, j, w, h)))
		}
	}
}

// Snapshot is a copy of the fields taken between steps.
type Snapshot struct {
	Width, Height int
	Step          uint64
	Velocity      []Vec2
	Pressure      []float32
	Dye           []float32
}

// Snapshot copies the current fields in row-major order.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Width:    s.cfg.Width,
		Height:   s.cfg.Height,
		Step:     s.steps,
		Velocity: s.velocity.Values(),
		Pressure: scalars(s.pressure.cur),
		Dye:      scalars(s.dye.cur),
	}
}

func scalars(src []Scalar) []float32 {
	out := make([]float32, len(src))
	for i, v := range src {
		out[i] = float32(v)
	}
	return out
}

// At returns the values of cell (i, j) of the snapshot.
func (sn Snapshot) At(i, j int) (Vec2, float32, float32) {
	k := i + sn.Width*j
	return sn.Velocity[k], sn.Pressure[k], sn.Dye[k]
}
