package fluid

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chewxy/math32"
)

// Simulation owns the fields of one fluid and advances them step by step.
// Fields are only observable between steps: every accessor takes a read
// lock that Step holds exclusively while it runs.
type Simulation struct {
	cfg  Config
	exec *Executor

	mu         sync.RWMutex
	velocity   *Field[Vec2]
	pressure   *Field[Scalar]
	dye        *Field[Scalar]
	divergence *Field[Scalar]
	rhs        *Field[Vec2] // velocity before diffusion

	stage    Stage
	steps    uint64
	observer func(Stage, int)

	pendingMu sync.Mutex
	pending   []Impulse
}

// New validates cfg and allocates a zero-initialized simulation.
func New(cfg Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w, h := cfg.Width, cfg.Height
	b := cfg.Boundaries

	s := &Simulation{
		cfg:        cfg,
		exec:       NewExecutor(cfg.Workers),
		velocity:   NewField[Vec2](w, h, b.Velocity),
		pressure:   NewField[Scalar](w, h, b.Pressure),
		dye:        NewField[Scalar](w, h, b.Dye),
		divergence: NewField[Scalar](w, h, BoundaryPolicy{Scale: BoundaryNeumann}),
		rhs:        NewField[Vec2](w, h, b.Velocity),
	}
	Logger().Info("fluid: simulation initialized",
		slog.Int("width", w),
		slog.Int("height", h),
		slog.Float64("viscosity", float64(cfg.Viscosity)),
		slog.Int("workers", s.exec.Workers()),
	)
	return s, nil
}

// Config returns the configuration the simulation was created with.
func (s *Simulation) Config() Config { return s.cfg }

// Width returns the number of cells along x, boundary cells included.
func (s *Simulation) Width() int { return s.cfg.Width }

// Height returns the number of cells along y, boundary cells included.
func (s *Simulation) Height() int { return s.cfg.Height }

// Texel is the size of one cell in normalized coordinates.
func (s *Simulation) Texel() Vec2 { return s.velocity.Texel() }

// Steps returns the number of completed steps.
func (s *Simulation) Steps() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.steps
}

// Stage returns the orchestrator state. Outside of Step it is always Idle.
func (s *Simulation) Stage() Stage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stage
}

// Observe registers fn to be called on every stage transition, with the
// Jacobi iteration number while solving. fn runs on the stepping goroutine
// and must not call back into the Simulation.
func (s *Simulation) Observe(fn func(stage Stage, iteration int)) {
	s.mu.Lock()
	s.observer = fn
	s.mu.Unlock()
}

// InjectImpulse queues imp to be applied exactly once by the next Step,
// before its projection. It is safe to call from any goroutine.
func (s *Simulation) InjectImpulse(imp Impulse) error {
	if err := imp.validate(); err != nil {
		return err
	}
	s.pendingMu.Lock()
	s.pending = append(s.pending, imp)
	s.pendingMu.Unlock()
	return nil
}

func (s *Simulation) takePending() []Impulse {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	imps := s.pending
	s.pending = nil
	return imps
}

// Step advances the simulation by dt. It runs the stages in a fixed order:
// advection, force injection, diffusion (viscosity > 0 only), divergence,
// pressure solve, gradient subtraction and boundary correction.
//
// ctx is checked between stages. When it is done the step stops, the
// fields keep the result of the last completed stage and the returned error
// wraps ctx.Err(). dt is not clamped; see MaxStableDt.
func (s *Simulation) Step(ctx context.Context, dt float32, pressureIterations, diffusionIterations int) error {
	if !(dt > 0) || math32.IsInf(dt, 1) {
		return fmt.Errorf("%w: dt must be a finite value > 0, got %v", ErrPrecondition, dt)
	}
	if pressureIterations <= 0 {
		return fmt.Errorf("%w: pressure iterations must be > 0, got %d", ErrPrecondition, pressureIterations)
	}
	if diffusionIterations <= 0 {
		return fmt.Errorf("%w: diffusion iterations must be > 0, got %d", ErrPrecondition, diffusionIterations)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.enter(StageIdle, 0)

	dx := s.cfg.CellSize
	e := s.exec

	// Advection: dye and velocity both trace back through the velocity of
	// the previous step, so neither is swapped before both are written.
	if err := s.begin(ctx, StageAdvecting); err != nil {
		return err
	}
	adv := StageParams{Dt: dt, Dx: dx}
	advect(e, s.dye, s.velocity.Reader(), adv)
	advect(e, s.velocity, s.velocity.Reader(), adv)
	s.dye.swap()
	s.velocity.swap()
	s.correct(s.velocity)
	s.correct(s.dye)

	if err := s.begin(ctx, StageInjecting); err != nil {
		return err
	}
	if imps := s.takePending(); len(imps) > 0 {
		injectVelocity(e, s.velocity, imps)
		s.velocity.swap()
		s.correct(s.velocity)
		if hasDye(imps) {
			injectDye(e, s.dye, imps)
			s.dye.swap()
			s.correct(s.dye)
		}
		Logger().Debug("fluid: impulses applied", slog.Int("count", len(imps)))
	}

	if s.cfg.Viscosity > 0 {
		if err := s.begin(ctx, StageDiffusing); err != nil {
			return err
		}
		copyField(e, s.rhs, s.velocity.Reader())
		s.rhs.swap()
		p := diffusionParams(dt, dx, s.cfg.Viscosity)
		for k := 0; k < diffusionIterations; k++ {
			jacobiIteration(e, s.velocity, s.rhs.Reader(), p)
			s.velocity.swap()
			s.correct(s.velocity)
		}
	}

	if err := s.begin(ctx, StageComputingDivergence); err != nil {
		return err
	}
	computeDivergence(e, s.divergence, s.velocity.Reader(), dx)
	s.divergence.swap()

	if err := s.begin(ctx, StageSolvingPressure); err != nil {
		return err
	}
	clearField(e, s.pressure)
	s.pressure.swap()
	p := pressureParams(dt, dx)
	for k := 0; k < pressureIterations; k++ {
		if k > 0 {
			s.enter(StageSolvingPressure, k)
		}
		jacobiIteration(e, s.pressure, s.divergence.Reader(), p)
		s.pressure.swap()
		s.correct(s.pressure)
	}

	if err := s.begin(ctx, StageProjecting); err != nil {
		return err
	}
	subtractGradient(e, s.velocity, s.pressure.Reader(), dx)
	s.velocity.swap()

	if err := s.begin(ctx, StageCorrecting); err != nil {
		return err
	}
	s.correct(s.velocity)
	s.correct(s.dye)

	s.steps++
	s.enter(StageDone, 0)
	return nil
}

// begin moves to stage unless ctx is already done.
func (s *Simulation) begin(ctx context.Context, stage Stage) error {
	if err := ctx.Err(); err != nil {
		Logger().Debug("fluid: step abandoned", slog.String("before", stage.String()), slog.Any("err", err))
		return fmt.Errorf("fluid: step abandoned before %s: %w", stage, err)
	}
	s.enter(stage, 0)
	return nil
}

func (s *Simulation) enter(stage Stage, iteration int) {
	s.stage = stage
	if iteration == 0 {
		Logger().Debug("fluid: stage", slog.String("stage", stage.String()), slog.Uint64("step", s.steps))
	}
	if s.observer != nil {
		s.observer(stage, iteration)
	}
}

// correct runs the boundary enforcer over f and swaps it.
func (s *Simulation) correct(f interface{ enforce(*Executor) }) {
	f.enforce(s.exec)
}

func (f *Field[T]) enforce(e *Executor) {
	enforceBoundary(e, f)
	f.swap()
}

// SampleVelocity bilinearly samples the velocity at a normalized position.
func (s *Simulation) SampleVelocity(p Vec2) Vec2 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.velocity.Sample(p)
}

// SamplePressure bilinearly samples the pressure of the last solve.
func (s *Simulation) SamplePressure(p Vec2) float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return float32(s.pressure.Sample(p))
}

// SampleDye bilinearly samples the dye at a normalized position.
func (s *Simulation) SampleDye(p Vec2) float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return float32(s.dye.Sample(p))
}

// Velocity returns the velocity stored in cell (i, j).
func (s *Simulation) Velocity(i, j int) Vec2 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.velocity.At(i, j)
}

// Pressure returns the pressure stored in cell (i, j).
func (s *Simulation) Pressure(i, j int) float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return float32(s.pressure.At(i, j))
}

// Dye returns the dye stored in cell (i, j).
func (s *Simulation) Dye(i, j int) float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return float32(s.dye.At(i, j))
}

// CellCenter returns the normalized center of cell (i, j).
func (s *Simulation) CellCenter(i, j int) Vec2 {
	return s.velocity.CellCenter(i, j)
}

// SetVelocity seeds the velocity of cell (i, j) between steps.
func (s *Simulation) SetVelocity(i, j int, v Vec2) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.velocity.Set(i, j, v)
}

// SetDye seeds the dye of cell (i, j) between steps.
func (s *Simulation) SetDye(i, j int, d float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dye.Set(i, j, Scalar(d))
}

// ResetVelocity zeroes velocity and pressure and drops queued impulses.
func (s *Simulation) ResetVelocity() {
	s.mu.Lock()
	s.velocity.Fill(Vec2{})
	s.pressure.Fill(0)
	s.mu.Unlock()
	s.takePending()
}

// ResetDye zeroes the dye field.
func (s *Simulation) ResetDye() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dye.Fill(0)
}
