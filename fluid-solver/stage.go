package fluid

import "fmt"

// Stage is a state of the step orchestrator.
type Stage int

const (
	StageIdle Stage = iota
	StageAdvecting
	StageInjecting
	StageDiffusing
	StageComputingDivergence
	StageSolvingPressure
	StageProjecting
	StageCorrecting
	StageDone
)

var stageNames = [...]string{
	StageIdle:                "idle",
	StageAdvecting:           "advecting",
	StageInjecting:           "injecting",
	StageDiffusing:           "diffusing",
	StageComputingDivergence: "computing-divergence",
	StageSolvingPressure:     "solving-pressure",
	StageProjecting:          "projecting",
	StageCorrecting:          "correcting",
	StageDone:                "done",
}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// StageParams carries the constants of one stage invocation.
type StageParams struct {
	Dt    float32 // timestep
	Dx    float32 // cell size
	Alpha float32
	RBeta float32 // 1/beta
}

// diffusionParams solves (I - ν·dt·∇²) x = b.
func diffusionParams(dt, dx, viscosity float32) StageParams {
	alpha := dx * dx / (viscosity * dt)
	return StageParams{
		Dt:    dt,
		Dx:    dx,
		Alpha: alpha,
		RBeta: 1 / (4 + alpha),
	}
}

// pressureParams solves ∇²p = b.
func pressureParams(dt, dx float32) StageParams {
	return StageParams{
		Dt:    dt,
		Dx:    dx,
		Alpha: -dx * dx,
		RBeta: 0.25,
	}
}
