package fluid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededField(w, h int, scale BoundaryScale) *Field[Vec2] {
	f := NewField[Vec2](w, h, BoundaryPolicy{Scale: scale})
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			f.Set(i, j, Vec2{float32(i + 1), float32(10 * (j + 1))})
		}
	}
	return f
}

func TestEnforceBoundary(t *testing.T) {
	for _, scale := range []BoundaryScale{BoundaryNoSlip, BoundaryNeumann} {
		t.Run(scale.String(), func(t *testing.T) {
			const w, h = 6, 5
			f := seededField(w, h, scale)
			before := seededField(w, h, scale)

			enforceBoundary(NewExecutor(0), f)
			f.swap()

			for j := 0; j < h; j++ {
				for i := 0; i < w; i++ {
					ni, nj, edge := interiorNeighbor(i, j, w, h)
					if !edge {
						assert.Equal(t, before.At(i, j), f.At(i, j), "cell (%d,%d) must be untouched", i, j)
						continue
					}
					want := before.At(ni, nj).Scale(float32(scale))
					assert.Equal(t, want, f.At(i, j), "edge cell (%d,%d)", i, j)
				}
			}
		})
	}
}

func TestInteriorNeighborSkipsCorners(t *testing.T) {
	for _, c := range [][2]int{{0, 0}, {4, 0}, {0, 3}, {4, 3}} {
		_, _, edge := interiorNeighbor(c[0], c[1], 5, 4)
		assert.False(t, edge, "corner %v", c)
	}

	i, j, edge := interiorNeighbor(0, 2, 5, 4)
	require.True(t, edge)
	assert.Equal(t, [2]int{1, 2}, [2]int{i, j})

	i, j, edge = interiorNeighbor(2, 3, 5, 4)
	require.True(t, edge)
	assert.Equal(t, [2]int{2, 2}, [2]int{i, j})
}

func TestParseBoundaryScale(t *testing.T) {
	tests := []struct {
		in   string
		want BoundaryScale
		err  bool
	}{
		{"no-slip", BoundaryNoSlip, false},
		{"-1", BoundaryNoSlip, false},
		{"neumann", BoundaryNeumann, false},
		{"+1", BoundaryNeumann, false},
		{"0", 0, true},
		{"periodic", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseBoundaryScale(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
