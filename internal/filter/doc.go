// Package filter implements the per-pixel kernels of the A-SVGF denoiser
// and the CPU backend that runs them.
//
// Kernels are written against gpucore planes and process one texel per
// call, the same decomposition the WGSL shaders of the GPU backend use:
//   - GradientSamples, GradientAtrous, Antilag: temporal gradient estimation
//   - Temporal: reprojection and history blending
//   - Variance: moment-based variance with a spatial fallback
//   - Atrous: one edge-avoiding wavelet iteration
//   - Resolve: albedo re-modulation and debug views
//
// The CPU backend splits each dispatch into row bands on a worker pool.
// A stage only reads planes it does not write, so bands never race.
package filter
