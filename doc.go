// Package asvgf implements adaptive spatiotemporal variance-guided filtering
// (A-SVGF), a real-time denoiser for path-traced frames with one or a few
// samples per pixel.
//
// # Overview
//
// Each frame the pass consumes noisy radiance plus a G-buffer (albedo,
// normal, linear depth, motion) and writes a filtered RGBA16Float image.
// Sample history is accumulated over time and reprojected through the
// motion vectors. A temporal gradient measured at a reduced resolution
// detects where the shading changed, and the pass drops stale history
// there instead of ghosting.
//
// # Quick Start
//
//	import "github.com/gogpu/asvgf"
//
//	p, err := asvgf.New()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer p.Close()
//
//	p.Compile(width, height)
//	p.SetScene(scene)
//	out := render.NewHalfFloatTarget(width, height)
//	err = p.Execute(ctx, frame, out)
//
// # Pipeline
//
// Stages run in a fixed order within one frame:
//   - Gradient samples: one luminance pair per gradient cell
//   - Gradient filter: edge-aware passes over the pairs
//   - Antilag: pairs resolved into a per-pixel history trust
//   - Temporal: reprojection and exponential moving average
//   - Variance: luminance variance from moments or a spatial estimate
//   - A-trous: variance-guided wavelet iterations
//   - Resolve: albedo re-modulation into the output
//
// # Configuration
//
// Filter parameters live in [Params] and can be exchanged with a host as a
// [Properties] dictionary. Construction-time settings such as the gradient
// downsample factor or the backend are passed as [Option] values.
//
// # Backends
//
// Stages run on the CPU by default, spread over a worker pool. Importing
// the gpu package registers a wgpu compute backend:
//
//	import _ "github.com/gogpu/asvgf/gpu"
package asvgf

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
