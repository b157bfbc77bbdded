package fluid

// jacobiIteration performs one relaxation sweep
//
//	x'(c) = (xL + xR + xB + xT + alpha·b(c)) · rBeta
//
// reading x's current buffer and writing its next one.
func jacobiIteration[T Sample[T]](e *Executor, x *Field[T], b Reader[T], p StageParams) {
	Apply(e, x, func(c Cell, r Reader[T]) T {
		sum := r.Offset(c, -1, 0).
			Add(r.Offset(c, 1, 0)).
			Add(r.Offset(c, 0, -1)).
			Add(r.Offset(c, 0, 1))
		return sum.Add(b.At(c.I, c.J).Scale(p.Alpha)).Scale(p.RBeta)
	})
}

// copyField writes src's current buffer into dst's next buffer.
func copyField[T Sample[T]](e *Executor, dst *Field[T], src Reader[T]) {
	Apply(e, dst, func(c Cell, _ Reader[T]) T {
		return src.At(c.I, c.J)
	})
}

// clearField writes the zero value into every cell of f's next buffer.
func clearField[T Sample[T]](e *Executor, f *Field[T]) {
	var zero T
	Apply(e, f, func(Cell, Reader[T]) T {
		return zero
	})
}
