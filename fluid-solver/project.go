package fluid

// computeDivergence writes the central-difference divergence of velocity
// into div.
func computeDivergence(e *Executor, div *Field[Scalar], velocity Reader[Vec2], dx float32) {
	halfrdx := 0.5 / dx

	Apply(e, div, func(c Cell, _ Reader[Scalar]) Scalar {
		vL := velocity.Offset(c, -1, 0)
		vR := velocity.Offset(c, 1, 0)
		vB := velocity.Offset(c, 0, -1)
		vT := velocity.Offset(c, 0, 1)
		return Scalar(halfrdx * ((vR.X - vL.X) + (vT.Y - vB.Y)))
	})
}

// subtractGradient removes the pressure gradient from velocity.
func subtractGradient(e *Executor, velocity *Field[Vec2], pressure Reader[Scalar], dx float32) {
	halfrdx := 0.5 / dx

	Apply(e, velocity, func(c Cell, r Reader[Vec2]) Vec2 {
		pL := float32(pressure.Offset(c, -1, 0))
		pR := float32(pressure.Offset(c, 1, 0))
		pB := float32(pressure.Offset(c, 0, -1))
		pT := float32(pressure.Offset(c, 0, 1))
		grad := Vec2{pR - pL, pT - pB}.Scale(halfrdx)
		return r.At(c.I, c.J).Sub(grad)
	})
}
