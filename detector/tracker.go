package detector

import (
	fluid "github.com/esimov/stable-fluid/fluid-solver"
)

// minMotion is the smallest face displacement, in normalized units, that
// produces an impulse.
const minMotion = 1e-3

// Tracker follows the strongest face across frames. The displacement of
// its center between two frames becomes an impulse pushing the fluid the
// same way. It is not safe for concurrent use.
type Tracker struct {
	Strength float32 // force per unit of normalized displacement
	Radius   float32
	Dye      float32

	prev    fluid.Vec2
	tracked bool
}

// NewTracker returns a tracker producing impulses of the given strength
// and radius.
func NewTracker(strength, radius, dye float32) *Tracker {
	return &Tracker{Strength: strength, Radius: radius, Dye: dye}
}

// Track consumes the faces of one width×height frame. It reports an
// impulse when the strongest face moved since the previous frame.
func (t *Tracker) Track(faces []Face, width, height int) (fluid.Impulse, bool) {
	if len(faces) == 0 || width <= 0 || height <= 0 {
		t.tracked = false
		return fluid.Impulse{}, false
	}
	best := faces[0]
	for _, f := range faces[1:] {
		if f.Q > best.Q {
			best = f
		}
	}
	cur := best.Center(width, height)
	prev, tracked := t.prev, t.tracked
	t.prev, t.tracked = cur, true
	if !tracked {
		return fluid.Impulse{}, false
	}

	delta := cur.Sub(prev)
	if delta.Len() < minMotion {
		return fluid.Impulse{}, false
	}
	return fluid.Impulse{
		Epicenter: cur,
		Force:     delta.Scale(t.Strength),
		Radius:    t.Radius,
		Dye:       t.Dye,
	}, true
}

// Reset forgets the tracked face.
func (t *Tracker) Reset() {
	t.tracked = false
}
