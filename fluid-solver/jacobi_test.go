package fluid

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageParams(t *testing.T) {
	p := diffusionParams(0.1, 1, 0.5)
	assert.InDelta(t, 20, p.Alpha, 1e-5)
	assert.InDelta(t, 1.0/24, p.RBeta, 1e-7)

	p = pressureParams(0.1, 2)
	assert.Equal(t, float32(-4), p.Alpha)
	assert.Equal(t, float32(0.25), p.RBeta)
}

func TestJacobiPressureResidualDecreases(t *testing.T) {
	const n = 16
	e := NewExecutor(0)
	neumann := BoundaryPolicy{Scale: BoundaryNeumann}

	// zero-mean right-hand side, odd about the center of the grid
	b := NewField[Scalar](n, n, neumann)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			pos := b.CellCenter(i, j)
			b.Set(i, j, Scalar(math32.Sin(2*math32.Pi*pos.X)*math32.Sin(2*math32.Pi*pos.Y)))
		}
	}

	x := NewField[Scalar](n, n, neumann)
	p := pressureParams(1, 1)
	var residuals []float64
	iterations := 0
	for _, target := range []int{0, 10, 50, 200} {
		for ; iterations < target; iterations++ {
			jacobiIteration(e, x, b.Reader(), p)
			x.swap()
			enforceBoundary(e, x)
			x.swap()
		}
		residuals = append(residuals, poissonResidual(x, b, 1))
	}

	require.Len(t, residuals, 4)
	for k := 1; k < len(residuals); k++ {
		assert.Less(t, residuals[k], residuals[k-1], "residuals %v", residuals)
	}
	assert.Less(t, residuals[3], 0.1*residuals[0], "residuals %v", residuals)
}

func TestJacobiDiffusionKeepsConstantField(t *testing.T) {
	e := NewExecutor(0)
	x := NewField[Vec2](6, 6, BoundaryPolicy{Scale: BoundaryNeumann})
	x.Fill(Vec2{1, 2})
	rhs := NewField[Vec2](6, 6, BoundaryPolicy{Scale: BoundaryNeumann})
	rhs.Fill(Vec2{1, 2})

	p := diffusionParams(0.1, 1, 1)
	for k := 0; k < 5; k++ {
		jacobiIteration(e, x, rhs.Reader(), p)
		x.swap()
	}
	for _, v := range x.Values() {
		assert.InDelta(t, 1, v.X, 1e-5)
		assert.InDelta(t, 2, v.Y, 1e-5)
	}
}

func TestClearAndCopy(t *testing.T) {
	e := NewExecutor(0)
	src := NewField[Scalar](4, 4, BoundaryPolicy{Scale: BoundaryNeumann})
	src.Fill(3)
	dst := NewField[Scalar](4, 4, BoundaryPolicy{Scale: BoundaryNeumann})

	copyField(e, dst, src.Reader())
	dst.swap()
	assert.Equal(t, src.Values(), dst.Values())

	clearField(e, dst)
	dst.swap()
	for _, v := range dst.Values() {
		assert.Zero(t, v)
	}
}
