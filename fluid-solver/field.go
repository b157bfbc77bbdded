package fluid

import "github.com/chewxy/math32"

// Scalar is a single-channel grid sample.
type Scalar float32

func (s Scalar) Add(o Scalar) Scalar { return s + o }
func (s Scalar) Scale(k float32) Scalar { return Scalar(float32(s) * k) }

// Vec2 is a two-component grid sample. Velocity is stored in grid cells per timestep.
type Vec2 struct {
	X, Y float32
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(k float32) Vec2 { return Vec2{v.X * k, v.Y * k} }
func (v Vec2) Mul(o Vec2) Vec2 { return Vec2{v.X * o.X, v.Y * o.Y} }
func (v Vec2) Dot(o Vec2) float32 { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Mag2() float32 { return v.Dot(v) }
func (v Vec2) Len() float32 { return math32.Sqrt(v.Dot(v)) }
func (v Vec2) IsFinite() bool { return isFinite(v.X) && isFinite(v.Y) }

func isFinite(x float32) bool {
	return !math32.IsNaN(x) && !math32.IsInf(x, 0)
}

// Sample is the arithmetic a field value needs for interpolation and stencils.
type Sample[T any] interface {
	Add(T) T
	Scale(float32) T
}

// Field is a double-buffered W×H grid. Stages read the current buffer and
// write the next one; only the owning Simulation swaps them.
type Field[T Sample[T]] struct {
	width, height int
	policy        BoundaryPolicy

	cur  []T
	next []T
}

// NewField allocates both buffers of a zero-valued field.
func NewField[T Sample[T]](width, height int, policy BoundaryPolicy) *Field[T] {
	return &Field[T]{
		width:  width,
		height: height,
		policy: policy,
		cur:    make([]T, width*height),
		next:   make([]T, width*height),
	}
}

func (f *Field[T]) Width() int { return f.width }
func (f *Field[T]) Height() int { return f.height }
func (f *Field[T]) Policy() BoundaryPolicy { return f.policy }

// Texel returns the size of one cell in normalized coordinates.
func (f *Field[T]) Texel() Vec2 {
	return Vec2{1 / float32(f.width), 1 / float32(f.height)}
}

func (f *Field[T]) idx(i, j int) int {
	return i + f.width*j
}

// CellCenter returns the normalized position of the center of cell (i, j).
func (f *Field[T]) CellCenter(i, j int) Vec2 {
	return Vec2{
		(float32(i) + 0.5) / float32(f.width),
		(float32(j) + 0.5) / float32(f.height),
	}
}

// At reads the current buffer. Indices outside the grid are mirrored across
// the edge and multiplied by the boundary scale.
func (f *Field[T]) At(i, j int) T {
	var flips int
	i, flips = mirror(i, f.width, flips)
	j, flips = mirror(j, f.height, flips)

	v := f.cur[f.idx(i, j)]
	if flips%2 == 1 && f.policy.Scale != 1 {
		return v.Scale(float32(f.policy.Scale))
	}
	return v
}

func mirror(i, n, flips int) (int, int) {
	if i < 0 {
		i = -i - 1
		flips++
	} else if i >= n {
		i = 2*n - i - 1
		flips++
	}
	return max(0, min(i, n-1)), flips
}

// Sample bilinearly interpolates the current buffer at a normalized position.
// Positions beyond the outermost texel centers are clamped to them; the
// boundary cells already hold the mirrored values.
func (f *Field[T]) Sample(p Vec2) T {
	x := p.X*float32(f.width) - 0.5
	y := p.Y*float32(f.height) - 0.5

	// NaN would turn into an out-of-range index; the value itself still
	// propagates through the interpolation weights.
	if math32.IsNaN(x) {
		x = 0
	}
	if math32.IsNaN(y) {
		y = 0
	}
	x = max(0, min(x, float32(f.width-1)))
	y = max(0, min(y, float32(f.height-1)))

	i0 := int(math32.Floor(x))
	j0 := int(math32.Floor(y))
	i1 := min(i0+1, f.width-1)
	j1 := min(j0+1, f.height-1)

	s1 := snapWeight(x - float32(i0), x)
	s0 := 1 - s1
	t1 := snapWeight(y - float32(j0), y)
	t0 := 1 - t1

	a := f.cur[f.idx(i0, j0)].Scale(s0 * t0)
	b := f.cur[f.idx(i1, j0)].Scale(s1 * t0)
	c := f.cur[f.idx(i0, j1)].Scale(s0 * t1)
	d := f.cur[f.idx(i1, j1)].Scale(s1 * t1)

	return a.Add(b).Add(c).Add(d)
}

// snapWeight rounds w to 0 or 1 when it is within the float32 round-off of x.
// CellCenter followed by the scaling in Sample can land a texel center one
// ulp off its integer position.
func snapWeight(w, x float32) float32 {
	eps := max(1e-5, 4*math32.Abs(x)*epsilon32)
	switch {
	case w < eps:
		return 0
	case w > 1-eps:
		return 1
	}
	return w
}

const epsilon32 = 1.0 / (1 << 23)

// Set writes the current buffer directly. It is meant for seeding a field
// between steps, never from inside a kernel.
func (f *Field[T]) Set(i, j int, v T) {
	f.cur[f.idx(i, j)] = v
}

// Fill sets every cell of the current buffer to v.
func (f *Field[T]) Fill(v T) {
	for i := range f.cur {
		f.cur[i] = v
	}
}

// Values returns a copy of the current buffer in row-major order.
func (f *Field[T]) Values() []T {
	out := make([]T, len(f.cur))
	copy(out, f.cur)
	return out
}

func (f *Field[T]) swap() {
	f.cur, f.next = f.next, f.cur
}

// Reader exposes read-only access to a field's current buffer.
type Reader[T Sample[T]] struct {
	f *Field[T]
}

// Reader returns a read-only view of the current buffer.
func (f *Field[T]) Reader() Reader[T] {
	return Reader[T]{f: f}
}

func (r Reader[T]) At(i, j int) T { return r.f.At(i, j) }
func (r Reader[T]) Sample(p Vec2) T { return r.f.Sample(p) }

// Offset reads the neighbour of c at the given cell offset.
func (r Reader[T]) Offset(c Cell, di, dj int) T {
	return r.f.At(c.I+di, c.J+dj)
}
