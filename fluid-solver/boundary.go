package fluid

import "fmt"

// BoundaryScale is the factor applied when an interior sample is mirrored
// onto the boundary.
type BoundaryScale int

const (
	// BoundaryNoSlip mirrors and negates: the value vanishes at the wall.
	BoundaryNoSlip BoundaryScale = -1
	// BoundaryNeumann mirrors without negation: zero gradient across the wall.
	BoundaryNeumann BoundaryScale = 1
)

func (s BoundaryScale) String() string {
	switch s {
	case BoundaryNoSlip:
		return "no-slip"
	case BoundaryNeumann:
		return "neumann"
	}
	return fmt.Sprintf("BoundaryScale(%d)", int(s))
}

// ParseBoundaryScale accepts "no-slip", "neumann", "-1" or "1".
func ParseBoundaryScale(s string) (BoundaryScale, error) {
	switch s {
	case "no-slip", "noslip", "-1":
		return BoundaryNoSlip, nil
	case "neumann", "1", "+1":
		return BoundaryNeumann, nil
	}
	return 0, fmt.Errorf("unknown boundary scale %q", s)
}

// BoundaryPolicy configures how a field is extended past its edge.
// The extension is always a mirror at the edge.
type BoundaryPolicy struct {
	Scale BoundaryScale
}

func (p BoundaryPolicy) valid() bool {
	return p.Scale == BoundaryNoSlip || p.Scale == BoundaryNeumann
}

// BoundaryPolicies holds the policy of each persistent field.
type BoundaryPolicies struct {
	Velocity BoundaryPolicy
	Pressure BoundaryPolicy
	Dye      BoundaryPolicy
}

// DefaultBoundaries is no-slip velocity with Neumann pressure and dye.
func DefaultBoundaries() BoundaryPolicies {
	return BoundaryPolicies{
		Velocity: BoundaryPolicy{Scale: BoundaryNoSlip},
		Pressure: BoundaryPolicy{Scale: BoundaryNeumann},
		Dye:      BoundaryPolicy{Scale: BoundaryNeumann},
	}
}

// interiorNeighbor returns the interior cell across the edge from (i, j) and
// whether (i, j) is a non-corner boundary cell at all.
func interiorNeighbor(i, j, w, h int) (int, int, bool) {
	edgeX := i == 0 || i == w-1
	edgeY := j == 0 || j == h-1
	if edgeX == edgeY {
		// interior cell, or a corner
		return i, j, false
	}
	switch {
	case i == 0:
		return 1, j, true
	case i == w-1:
		return w - 2, j, true
	case j == 0:
		return i, 1, true
	default:
		return i, h - 2, true
	}
}

// enforceBoundary overwrites every non-corner edge cell with the scaled
// interior neighbour. Interior cells and corners are copied unchanged.
func enforceBoundary[T Sample[T]](e *Executor, f *Field[T]) {
	w, h := f.width, f.height
	scale := float32(f.policy.Scale)

	Apply(e, f, func(c Cell, r Reader[T]) T {
		ni, nj, edge := interiorNeighbor(c.I, c.J, w, h)
		if !edge {
			return r.At(c.I, c.J)
		}
		return r.At(ni, nj).Scale(scale)
	})
}
