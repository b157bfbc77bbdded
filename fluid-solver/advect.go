package fluid

// advect transports f along velocity by tracing every cell center back in
// time and sampling f there. velocity and f may be the same field.
func advect[T Sample[T]](e *Executor, f *Field[T], velocity Reader[Vec2], p StageParams) {
	texel := f.Texel().Scale(p.Dt)

	Apply(e, f, func(c Cell, r Reader[T]) T {
		v := velocity.At(c.I, c.J)
		src := c.Pos.Sub(v.Mul(texel))
		return r.Sample(src)
	})
}
