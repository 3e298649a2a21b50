// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render provides the output side of the denoiser: render targets
// the filtered image is written to and the device handle through which a
// host application shares its GPU.
//
// # Key Principle
//
// The denoiser RECEIVES a GPU device from the host application when one is
// available; it only opens its own device when asked to run standalone.
//
// # Targets
//
//   - HalfFloatTarget: CPU-backed RGBA16Float image, the declared output
//     format of the pass
//   - PixmapTarget: CPU-backed 8-bit sRGB preview image
//
// Targets are owned by the caller. The pass writes into them once per frame
// and never retains them.
package render
