package gpucore

import (
	"errors"
	"fmt"
)

// Stage identifies one kernel of the denoiser.
type Stage uint8

const (
	// StageGradientSamples selects one luminance pair per gradient cell.
	StageGradientSamples Stage = iota
	// StageGradientAtrous runs one edge-aware pass over the gradient pairs.
	StageGradientAtrous
	// StageAntilag resolves gradient pairs into a full-resolution alpha.
	StageAntilag
	// StageTemporal reprojects and blends history with the new sample.
	StageTemporal
	// StageVariance estimates per-pixel luminance variance.
	StageVariance
	// StageAtrous runs one iteration of the spatial filter.
	StageAtrous
	// StageResolve writes the final color.
	StageResolve

	stageCount
)

// Grid is the dispatch domain of a stage.
type Grid uint8

const (
	// GridFull dispatches one invocation per output pixel.
	GridFull Grid = iota
	// GridGradient dispatches one invocation per gradient cell.
	GridGradient
)

type stageInfo struct {
	name    string
	grid    Grid
	inputs  int
	outputs int
}

var stageTable = [stageCount]stageInfo{
	StageGradientSamples: {"gradient_samples", GridGradient, 6, 2},
	StageGradientAtrous:  {"gradient_atrous", GridGradient, 2, 2},
	StageAntilag:         {"antilag", GridFull, 1, 1},
	StageTemporal:        {"temporal", GridFull, 10, 5},
	StageVariance:        {"variance", GridFull, 4, 1},
	StageAtrous:          {"atrous", GridFull, 2, 1},
	StageResolve:         {"resolve", GridFull, 3, 1},
}

// Stages returns every stage in execution order.
func Stages() []Stage {
	return []Stage{
		StageGradientSamples, StageGradientAtrous, StageAntilag,
		StageTemporal, StageVariance, StageAtrous, StageResolve,
	}
}

// String returns the stage name used in logs and shader labels.
func (s Stage) String() string {
	if s >= stageCount {
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
	return stageTable[s].name
}

// Grid returns the dispatch domain of the stage.
func (s Stage) Grid() Grid { return stageTable[s].grid }

// Inputs returns the number of input planes the stage reads.
func (s Stage) Inputs() int { return stageTable[s].inputs }

// Outputs returns the number of output planes the stage writes.
func (s Stage) Outputs() int { return stageTable[s].outputs }

// Input plane indices of StageGradientSamples.
const (
	GradInColor = iota
	GradInGeometry
	GradInMotion
	GradInPrevGeometry
	GradInUnfiltered
	GradInSamples
)

// Input plane indices of StageTemporal.
const (
	TemporalInColor = iota
	TemporalInAlbedo
	TemporalInGeometry
	TemporalInMotion
	TemporalInPrevIllum
	TemporalInPrevMoments
	TemporalInPrevHistory
	TemporalInPrevGeometry
	TemporalInColorHistory
	TemporalInAntilag
)

// Output plane indices of StageTemporal.
const (
	TemporalOutIllum = iota
	TemporalOutMoments
	TemporalOutHistory
	TemporalOutGeometry
	TemporalOutUnfiltered
)

// Input plane indices of StageVariance.
const (
	VarianceInIllum = iota
	VarianceInMoments
	VarianceInHistory
	VarianceInGeometry
)

// Input plane indices of StageResolve.
const (
	ResolveInIllum = iota
	ResolveInAlbedo
	ResolveInAntilag
)

// ErrStageArity is returned when a dispatch carries the wrong plane count.
var ErrStageArity = errors.New("gpucore: wrong number of planes for stage")

// ErrPlaneShape is returned when a plane's data does not match its shape.
var ErrPlaneShape = errors.New("gpucore: plane data does not match its shape")

// Validate checks that a dispatch matches the stage's declared arity and
// that every plane is consistent.
func Validate(stage Stage, in, out []Plane) error {
	if stage >= stageCount {
		return fmt.Errorf("gpucore: unknown %v", stage)
	}
	if len(in) != stage.Inputs() || len(out) != stage.Outputs() {
		return fmt.Errorf("%w: %v takes %d/%d, got %d/%d",
			ErrStageArity, stage, stage.Inputs(), stage.Outputs(), len(in), len(out))
	}
	for i, p := range in {
		if len(p.Data) != p.Texels()*p.Channels || p.Channels < 1 || p.Channels > 4 {
			return fmt.Errorf("%w: %v input %d", ErrPlaneShape, stage, i)
		}
	}
	for i, p := range out {
		if len(p.Data) != p.Texels()*p.Channels || p.Channels < 1 || p.Channels > 4 {
			return fmt.Errorf("%w: %v output %d", ErrPlaneShape, stage, i)
		}
	}
	return nil
}

// Backend executes denoiser stages.
//
// Dispatch must not return before every output plane has been written.
// Implementations need not be safe for concurrent Dispatch calls; the pass
// orchestrator submits from a single goroutine.
type Backend interface {
	// Name identifies the backend in logs and statistics.
	Name() string

	// Dispatch runs stage over its grid.
	Dispatch(stage Stage, u *Uniforms, in, out []Plane) error

	// Close releases backend resources.
	Close()
}
