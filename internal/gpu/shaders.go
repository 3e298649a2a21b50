//go:build !nogpu

package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"

	"github.com/gogpu/asvgf/gpucore"
)

//go:embed shaders/common.wgsl
var commonShaderSource string

//go:embed shaders/gradient_samples.wgsl
var gradientSamplesShaderSource string

//go:embed shaders/gradient_atrous.wgsl
var gradientAtrousShaderSource string

//go:embed shaders/antilag.wgsl
var antilagShaderSource string

//go:embed shaders/temporal.wgsl
var temporalShaderSource string

//go:embed shaders/variance.wgsl
var varianceShaderSource string

//go:embed shaders/atrous.wgsl
var atrousShaderSource string

//go:embed shaders/resolve.wgsl
var resolveShaderSource string

var stageShaderSources = map[gpucore.Stage]string{
	gpucore.StageGradientSamples: gradientSamplesShaderSource,
	gpucore.StageGradientAtrous:  gradientAtrousShaderSource,
	gpucore.StageAntilag:         antilagShaderSource,
	gpucore.StageTemporal:        temporalShaderSource,
	gpucore.StageVariance:        varianceShaderSource,
	gpucore.StageAtrous:          atrousShaderSource,
	gpucore.StageResolve:         resolveShaderSource,
}

// WorkgroupSize is the edge length of the square compute workgroup every
// stage kernel declares.
const WorkgroupSize = 8

// StageSource returns the complete WGSL module of stage: the shared
// declarations followed by the stage kernel. Unknown stages return "".
func StageSource(stage gpucore.Stage) string {
	src, ok := stageShaderSources[stage]
	if !ok {
		return ""
	}
	return commonShaderSource + "\n" + src
}

// CompileStage translates the WGSL of stage to SPIR-V words.
func CompileStage(stage gpucore.Stage) ([]uint32, error) {
	src := StageSource(stage)
	if src == "" {
		return nil, fmt.Errorf("gpu: no shader for %v", stage)
	}
	spirv, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("gpu: compile %v: %w", stage, err)
	}
	if len(spirv)%4 != 0 {
		return nil, fmt.Errorf("gpu: compile %v: SPIR-V length %d is not word aligned", stage, len(spirv))
	}
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirv[i*4:])
	}
	return words, nil
}

// workgroups returns the dispatch size covering a width x height grid.
func workgroups(width, height int) (x, y uint32) {
	return uint32((width + WorkgroupSize - 1) / WorkgroupSize), //nolint:gosec // grid sizes fit uint32
		uint32((height + WorkgroupSize - 1) / WorkgroupSize) //nolint:gosec // grid sizes fit uint32
}
