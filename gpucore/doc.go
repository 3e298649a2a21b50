// Package gpucore defines the contract between the A-SVGF pass orchestrator
// and the compute backends that execute its stages.
//
// Every stage of the denoiser is a data-parallel kernel over 2D planes of
// float32 texels. A [Backend] receives the stage identifier, a [Uniforms]
// block and the input and output planes, and must return only after every
// output texel has been written. Two backends exist in this module:
//
//   - the CPU reference backend (internal/filter), used by default
//   - the wgpu/hal compute backend (internal/gpu), which runs WGSL shaders
//     that mirror the CPU kernels texel for texel
//
// # Plane layout
//
// A [Plane] stores Channels interleaved float32 values per texel in
// row-major order. Formats with fewer than four channels are not padded on
// the CPU; the GPU backend widens every plane to vec4<f32> on upload and
// narrows it again on readback.
//
// # Stages
//
//	+------------------+     +---------------+     +---------+
//	| GradientSamples  | --> | GradientAtrous| --> | Antilag |
//	+------------------+     +---------------+     +----+----+
//	                                                    |
//	+----------+     +----------+     +--------+     +--v-------+
//	|  Resolve | <-- |  Atrous  | <-- |Variance| <-- | Temporal |
//	+----------+     +----------+     +--------+     +----------+
//
// [Stage.Inputs] and [Stage.Outputs] give the plane count each stage
// expects; [Validate] checks a dispatch against them.
package gpucore
