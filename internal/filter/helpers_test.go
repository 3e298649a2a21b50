package filter

import (
	"math"

	"github.com/gogpu/asvgf/gpucore"
)

// Test helper functions shared across filter tests.

// testUniforms returns uniforms for a w x h frame with the default tuning.
func testUniforms(w, h, downsample int) *gpucore.Uniforms {
	return &gpucore.Uniforms{
		Width:           uint32(w),
		Height:          uint32(h),
		GradWidth:       uint32((w + downsample - 1) / downsample),
		GradHeight:      uint32((h + downsample - 1) / downsample),
		Downsample:      uint32(downsample),
		Step:            1,
		Alpha:           0.2,
		DepthThreshold:  0.1,
		NormalThreshold: 0.9,
		PhiColor:        10,
		PhiNormal:       128,
		PhiDepth:        1,
		SpatialHistory:  4,
	}
}

// filled returns a plane with every texel set to v.
func filled(w, h, channels int, v ...float32) gpucore.Plane {
	p := gpucore.NewPlane(w, h, channels)
	for i := 0; i < p.Texels(); i++ {
		copy(p.Data[i*channels:(i+1)*channels], v)
	}
	return p
}

// flatGeometry is a camera-facing surface at depth z.
func flatGeometry(w, h int, z float32) gpucore.Plane {
	return filled(w, h, 4, z, 0, 0, 1)
}

// runAll applies k to every texel of the w x h grid.
func runAll(k PixelKernel, u *gpucore.Uniforms, in, out []gpucore.Plane, w, h int) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			k(u, in, out, x, y)
		}
	}
}

func approxEqual(a, b, tolerance float32) bool {
	return math.Abs(float64(a-b)) <= float64(tolerance)
}
