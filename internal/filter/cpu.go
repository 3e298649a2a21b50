package filter

import (
	"fmt"

	"github.com/gogpu/asvgf/gpucore"
	"github.com/gogpu/asvgf/internal/parallel"
)

// PixelKernel computes one texel of a stage's outputs.
type PixelKernel func(u *gpucore.Uniforms, in, out []gpucore.Plane, x, y int)

// KernelOf returns the CPU kernel implementing stage.
func KernelOf(stage gpucore.Stage) PixelKernel {
	switch stage {
	case gpucore.StageGradientSamples:
		return GradientSamples
	case gpucore.StageGradientAtrous:
		return GradientAtrous
	case gpucore.StageAntilag:
		return Antilag
	case gpucore.StageTemporal:
		return Temporal
	case gpucore.StageVariance:
		return Variance
	case gpucore.StageAtrous:
		return Atrous
	case gpucore.StageResolve:
		return Resolve
	}
	return nil
}

// CPU is the reference backend. It runs every stage on a worker pool,
// one row band per task.
type CPU struct {
	pool *parallel.WorkerPool
}

var _ gpucore.Backend = (*CPU)(nil)

// NewCPU creates a CPU backend with the given worker count
// (GOMAXPROCS when workers <= 0).
func NewCPU(workers int) *CPU {
	return &CPU{pool: parallel.NewWorkerPool(workers)}
}

// Name implements gpucore.Backend.
func (c *CPU) Name() string { return "cpu" }

// Workers returns the size of the worker pool.
func (c *CPU) Workers() int { return c.pool.Workers() }

// Dispatch implements gpucore.Backend.
func (c *CPU) Dispatch(stage gpucore.Stage, u *gpucore.Uniforms, in, out []gpucore.Plane) error {
	if err := gpucore.Validate(stage, in, out); err != nil {
		return err
	}
	k := KernelOf(stage)
	if k == nil {
		return fmt.Errorf("filter: no CPU kernel for %v", stage)
	}
	w, h := GridSize(stage, u)
	if w != out[0].Width || h != out[0].Height {
		return fmt.Errorf("filter: %v grid %dx%d does not match output %dx%d",
			stage, w, h, out[0].Width, out[0].Height)
	}
	c.pool.Rows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				k(u, in, out, x, y)
			}
		}
	})
	return nil
}

// Close stops the worker pool.
func (c *CPU) Close() { c.pool.Close() }

// GridSize returns the dispatch extent of stage for the given uniforms.
func GridSize(stage gpucore.Stage, u *gpucore.Uniforms) (width, height int) {
	if stage.Grid() == gpucore.GridGradient {
		return int(u.GradWidth), int(u.GradHeight)
	}
	return int(u.Width), int(u.Height)
}
