package fluid

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldAtMirrorsAcrossEdge(t *testing.T) {
	f := NewField[Vec2](4, 4, BoundaryPolicy{Scale: BoundaryNoSlip})
	f.Set(0, 1, Vec2{1, 2})
	f.Set(3, 2, Vec2{3, 4})
	f.Set(0, 0, Vec2{5, 6})

	assert.Equal(t, Vec2{-1, -2}, f.At(-1, 1))
	assert.Equal(t, Vec2{-3, -4}, f.At(4, 2))
	assert.Equal(t, Vec2{-5, -6}, f.At(0, -1))
	// mirrored across both edges: the negations cancel
	assert.Equal(t, Vec2{5, 6}, f.At(-1, -1))

	g := NewField[Scalar](4, 4, BoundaryPolicy{Scale: BoundaryNeumann})
	g.Set(0, 1, 7)
	assert.Equal(t, Scalar(7), g.At(-1, 1))
}

func TestSampleAtCellCentersIsExact(t *testing.T) {
	for _, size := range [][2]int{{8, 8}, {7, 13}, {50, 30}, {100, 100}, {333, 517}} {
		w, h := size[0], size[1]
		f := NewField[Scalar](w, h, BoundaryPolicy{Scale: BoundaryNeumann})
		for j := 0; j < h; j++ {
			for i := 0; i < w; i++ {
				f.Set(i, j, Scalar(i*1000+j))
			}
		}
		for j := 0; j < h; j++ {
			for i := 0; i < w; i++ {
				require.Equal(t, Scalar(i*1000+j), f.Sample(f.CellCenter(i, j)), "%dx%d cell (%d,%d)", w, h, i, j)
			}
		}
	}
}

func TestSampleInterpolatesBetweenCenters(t *testing.T) {
	f := NewField[Scalar](4, 4, BoundaryPolicy{Scale: BoundaryNeumann})
	f.Set(1, 1, 0)
	f.Set(2, 1, 1)
	f.Set(1, 2, 2)
	f.Set(2, 2, 3)

	mid := f.CellCenter(1, 1).Add(f.CellCenter(2, 2)).Scale(0.5)
	assert.InDelta(t, 1.5, float32(f.Sample(mid)), 1e-6)
}

func TestSampleClampsOutsideTheGrid(t *testing.T) {
	f := NewField[Scalar](4, 4, BoundaryPolicy{Scale: BoundaryNoSlip})
	f.Set(0, 0, 3)
	f.Set(3, 3, 9)

	assert.Equal(t, Scalar(3), f.Sample(Vec2{-2, -5}))
	assert.Equal(t, Scalar(9), f.Sample(Vec2{4, 1.5}))
	assert.NotPanics(t, func() {
		f.Sample(Vec2{math32.NaN(), math32.Inf(1)})
	})
}

func TestApplyWritesOnlyTheNextBuffer(t *testing.T) {
	for _, workers := range []int{1, 3, 16} {
		f := NewField[Scalar](7, 5, BoundaryPolicy{Scale: BoundaryNeumann})
		for j := 0; j < 5; j++ {
			for i := 0; i < 7; i++ {
				f.Set(i, j, Scalar(i+7*j))
			}
		}
		before := f.Values()

		// Each cell reads its right neighbour: if any write leaked into the
		// current buffer the result would depend on scheduling.
		Apply(NewExecutor(workers), f, func(c Cell, r Reader[Scalar]) Scalar {
			return r.Offset(c, 1, 0) + 100
		})
		require.Equal(t, before, f.Values(), "workers=%d: current buffer modified", workers)

		f.swap()
		for j := 0; j < 5; j++ {
			for i := 0; i < 7; i++ {
				want := Scalar(min(i+1, 6)+7*j) + 100
				assert.Equal(t, want, f.At(i, j), "workers=%d cell (%d,%d)", workers, i, j)
			}
		}
	}
}

func TestApplyPassesNormalizedCenters(t *testing.T) {
	f := NewField[Vec2](4, 2, BoundaryPolicy{Scale: BoundaryNoSlip})
	Apply(NewExecutor(2), f, func(c Cell, _ Reader[Vec2]) Vec2 {
		return c.Pos
	})
	f.swap()
	assert.Equal(t, Vec2{0.125, 0.25}, f.At(0, 0))
	assert.Equal(t, Vec2{0.875, 0.75}, f.At(3, 1))
}
