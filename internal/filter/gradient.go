package filter

import (
	"math"

	"github.com/gogpu/asvgf/gpucore"
)

// GradientSamples fills gradient cell (cx, cy) with a pair of luminances:
// the previous frame's shading of a surface point and the current frame's
// shading of the same point.
//
// With renderer-supplied samples the pair comes from the sample plane
// (x, y, previous luminance, validity) and the current color at (x, y).
// Otherwise every pixel of the cell's stratum is forward-projected into the
// previous frame; pixels that pass the geometry test contribute their
// current luminance and the unfiltered previous luminance, averaged over
// the cell. Cells without a usable pair are marked invalid.
func GradientSamples(u *gpucore.Uniforms, in, out []gpucore.Plane, cx, cy int) {
	color := in[gpucore.GradInColor]
	geoP := in[gpucore.GradInGeometry]
	d := int(max(u.Downsample, 1))

	// The cell's representative geometry is its center pixel.
	gx := min(cx*d+d/2, color.Width-1)
	gy := min(cy*d+d/2, color.Height-1)
	out[1].SetVec4(cx, cy, geoP.Vec4(gx, gy))

	var pair [4]float32
	defer func() { out[0].SetVec4(cx, cy, pair) }()

	if !u.Flags.Has(gpucore.FlagHasHistory) {
		return
	}

	if u.Flags.Has(gpucore.FlagSuppliedSamples) {
		s := in[gpucore.GradInSamples].Vec4(cx, cy)
		sx, sy := int(s[0]), int(s[1])
		if s[3] <= 0 || !color.InBounds(sx, sy) {
			return
		}
		pair = [4]float32{s[2], lum4(color.Vec4(sx, sy)), 1, 0}
		out[1].SetVec4(cx, cy, geoP.Vec4(sx, sy))
		return
	}

	motion := in[gpucore.GradInMotion]
	prevGeo := in[gpucore.GradInPrevGeometry]
	prev := in[gpucore.GradInUnfiltered]

	var sumPrev, sumCur float32
	n := 0
	for y := cy * d; y < min(cy*d+d, color.Height); y++ {
		for x := cx * d; x < min(cx*d+d, color.Width); x++ {
			px := int(math.Floor(float64(float32(x) + motion.Get(x, y, 0) + 0.5)))
			py := int(math.Floor(float64(float32(y) + motion.Get(x, y, 1) + 0.5)))
			if !prev.InBounds(px, py) {
				continue
			}
			if !consistent(geoP.Vec4(x, y), prevGeo.Vec4(px, py), u.DepthThreshold, u.NormalThreshold) {
				continue
			}
			sumPrev += lum4(prev.Vec4(px, py))
			sumCur += lum4(color.Vec4(x, y))
			n++
		}
	}
	if n == 0 {
		return
	}
	inv := 1 / float32(n)
	pair = [4]float32{sumPrev * inv, sumCur * inv, 1, 0}
}

// GradientAtrous runs one edge-aware box pass of radius u.Radius over the
// gradient pairs at cell (cx, cy), with taps u.Step cells apart. Invalid
// cells do not contribute. The geometry attachment is copied through.
func GradientAtrous(u *gpucore.Uniforms, in, out []gpucore.Plane, cx, cy int) {
	src, geoP := in[0], in[1]
	geo := geoP.Vec4(cx, cy)
	out[1].SetVec4(cx, cy, geo)

	r := int(u.Radius)
	step := int(max(u.Step, 1))
	var sumW, sumPrev, sumCur float32
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			qx, qy := cx+dx*step, cy+dy*step
			if !src.InBounds(qx, qy) {
				continue
			}
			g := src.Vec4(qx, qy)
			if g[2] <= 0 {
				continue
			}
			w := float32(1)
			if dx != 0 || dy != 0 {
				gq := geoP.Vec4(qx, qy)
				dist := float32(step) * sqrtf(float32(dx*dx+dy*dy))
				w = gradientDepthWeight(geo[0], gq[0], dist, u.DepthThreshold) *
					normalWeight(geo, gq, u.PhiNormal)
			}
			sumW += w
			sumPrev += w * g[0]
			sumCur += w * g[1]
		}
	}
	if sumW <= epsilon {
		out[0].SetVec4(cx, cy, [4]float32{})
		return
	}
	inv := 1 / sumW
	out[0].SetVec4(cx, cy, [4]float32{sumPrev * inv, sumCur * inv, 1, 0})
}

// gradientDepthWeight compares cell depths relative to the center depth,
// loosening with tap distance.
func gradientDepthWeight(zp, zq, dist, threshold float32) float32 {
	if zp <= 0 || zq <= 0 {
		if zp <= 0 && zq <= 0 {
			return 1
		}
		return 0
	}
	return expf(-absf(zp-zq) / (threshold*zp*dist + epsilon))
}

// Antilag resolves the gradient cell covering pixel (x, y) into the
// antilag alpha: the luminance change between frames, optionally relative
// to the brighter sample, clamped to [0, 1]. Invalid cells yield 0.
func Antilag(u *gpucore.Uniforms, in, out []gpucore.Plane, x, y int) {
	d := int(max(u.Downsample, 1))
	grad := in[0]
	g := grad.Vec4(min(x/d, grad.Width-1), min(y/d, grad.Height-1))

	var a float32
	if g[2] > 0 {
		a = absf(g[1] - g[0])
		if u.Flags.Has(gpucore.FlagNormalizeGradient) {
			a /= max(g[0], g[1], 1e-4)
		}
		a = clampf(a, 0, 1)
	}
	out[0].SetVec4(x, y, [4]float32{a, a, a, 1})
}
