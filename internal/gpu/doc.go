// Package gpu runs the denoiser stages as WGSL compute shaders on a wgpu
// HAL device.
//
// Every stage uses the same bind group layout: a uniform block, a
// read-only storage buffer holding the input planes, a read-write storage
// buffer holding the output planes and a descriptor table locating each
// plane. Planes are widened to vec4<f32> on upload and narrowed back to
// their channel count on readback.
//
// Stages whose WGSL does not compile on the current naga release run on
// the CPU reference kernels instead, so a Backend always executes the full
// pipeline.
//
// Build with -tags nogpu to leave the package empty.
package gpu
