package fluid

// Particle is a massless tracer carried along by the velocity field.
type Particle struct {
	pos  Vec2 // normalized
	vel  Vec2 // grid cells per timestep, last sampled
	age  float32
	dead bool
}

// NewParticle spawns a new particle at the normalized position {x, y}.
func NewParticle(x, y float32) *Particle {
	return &Particle{pos: Vec2{x, y}}
}

// Pos returns the particle position in normalized coordinates.
func (p *Particle) Pos() Vec2 { return p.pos }

// Velocity returns the velocity sampled at the last update.
func (p *Particle) Velocity() Vec2 { return p.vel }

// Age returns the accumulated simulation time of the particle.
func (p *Particle) Age() float32 { return p.age }

// Dead reports whether the particle left the domain or outlived its lifetime.
func (p *Particle) Dead() bool { return p.dead }

// VelocitySampler is what particles need from a simulation.
type VelocitySampler interface {
	SampleVelocity(p Vec2) Vec2
	Texel() Vec2
}

// Particles is a bounded set of tracers.
type Particles struct {
	items  []*Particle
	limit  int
	maxAge float32
}

// NewParticles creates a set holding at most limit particles, each living
// at most maxAge time units. maxAge <= 0 means particles never age out.
func NewParticles(limit int, maxAge float32) *Particles {
	return &Particles{
		items:  make([]*Particle, 0, limit),
		limit:  limit,
		maxAge: maxAge,
	}
}

// Spawn adds a particle at pos, dropping the oldest one when full.
func (ps *Particles) Spawn(pos Vec2) {
	if ps.limit <= 0 {
		return
	}
	if len(ps.items) == ps.limit {
		ps.items = append(ps.items[:0], ps.items[1:]...)
	}
	ps.items = append(ps.items, NewParticle(pos.X, pos.Y))
}

// Update moves every particle along the sampled velocity over dt, then
// removes the dead ones.
func (ps *Particles) Update(s VelocitySampler, dt float32) {
	texel := s.Texel().Scale(dt)
	live := ps.items[:0]
	for _, p := range ps.items {
		p.vel = s.SampleVelocity(p.pos)
		p.pos = p.pos.Add(p.vel.Mul(texel))
		p.age += dt

		if p.pos.X < 0 || p.pos.X > 1 || p.pos.Y < 0 || p.pos.Y > 1 ||
			(ps.maxAge > 0 && p.age > ps.maxAge) || !p.pos.IsFinite() {
			p.dead = true
			continue
		}
		live = append(live, p)
	}
	for i := len(live); i < len(ps.items); i++ {
		ps.items[i] = nil
	}
	ps.items = live
}

// Len returns the number of live particles.
func (ps *Particles) Len() int { return len(ps.items) }

// Each calls fn for every live particle.
func (ps *Particles) Each(fn func(p *Particle)) {
	for _, p := range ps.items {
		fn(p)
	}
}

// Clear removes all particles.
func (ps *Particles) Clear() {
	clear(ps.items)
	ps.items = ps.items[:0]
}
