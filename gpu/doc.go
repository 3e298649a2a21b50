// Package gpu registers the wgpu compute backend with the denoiser.
//
// Import this package for its side effect:
//
//	import _ "github.com/gogpu/asvgf/gpu" // enable GPU stage dispatch
//
// Passes created afterwards dispatch their stages as WGSL compute shaders
// unless they name a backend explicitly. If no GPU can be opened
// (no Vulkan driver, headless CI) the pass falls back to the CPU backend
// and logs a warning.
//
// Build with -tags nogpu to compile the package without wgpu.
package gpu
