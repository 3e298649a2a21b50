package filter

import "github.com/gogpu/asvgf/gpucore"

// prefilteredVariance blurs the variance channel of src around (x, y) with
// a 3x3 Gaussian.
func prefilteredVariance(src gpucore.Plane, x, y int) float32 {
	var sum, sumW float32
	for _, t := range VariancePrefilter() {
		qx, qy := x+t.DX, y+t.DY
		if !src.InBounds(qx, qy) {
			continue
		}
		sum += t.Weight * src.Get(qx, qy, 3)
		sumW += t.Weight
	}
	return sum / sumW
}

// Atrous runs one edge-avoiding wavelet iteration at pixel (x, y).
//
// Taps are spread u.Step pixels apart. Each tap is weighted by the kernel
// shape, a luminance term scaled by the local standard deviation, a normal
// term and a depth term. Variance is carried through with squared weights
// so that later iterations see the variance of the filtered estimate.
func Atrous(u *gpucore.Uniforms, in, out []gpucore.Plane, x, y int) {
	src := in[0]
	geoP := in[1]
	step := int(max(u.Step, 1))

	c := src.Vec4(x, y)
	geo := geoP.Vec4(x, y)
	lp := lum4(c)
	grad := depthGradient(geoP, x, y)
	phiL := u.PhiColor*sqrtf(max(0, prefilteredVariance(src, x, y))) + epsilon

	var (
		sumW float32
		sumC [3]float32
		sumV float32
	)
	for _, t := range Taps(u.Kernel) {
		qx, qy := x+t.DX*step, y+t.DY*step
		if !src.InBounds(qx, qy) {
			continue
		}
		cq := src.Vec4(qx, qy)
		w := t.Weight
		if t.DX != 0 || t.DY != 0 {
			gq := geoP.Vec4(qx, qy)
			dist := float32(step) * sqrtf(float32(t.DX*t.DX+t.DY*t.DY))
			w *= depthWeight(geo[0], gq[0], grad, dist, u.PhiDepth) *
				normalWeight(geo, gq, u.PhiNormal) *
				expf(-absf(lp-lum4(cq))/phiL)
		}
		sumW += w
		for k := 0; k < 3; k++ {
			sumC[k] += w * cq[k]
		}
		sumV += w * w * cq[3]
	}

	inv := 1 / sumW
	out[0].SetVec4(x, y, [4]float32{sumC[0] * inv, sumC[1] * inv, sumC[2] * inv, sumV * inv * inv})
}

// KernelFor returns the tap shape used by iteration i of a filter kernel
// selection. Hybrid selections use their box shape on the first iteration
// and the sparse shape afterwards.
func KernelFor(kernel, iteration int) gpucore.KernelShape {
	switch kernel {
	case 1:
		return gpucore.ShapeBox3
	case 2:
		return gpucore.ShapeBox5
	case 3:
		return gpucore.ShapeSparse
	case 4, 5:
		if iteration > 0 {
			return gpucore.ShapeSparse
		}
		if kernel == 4 {
			return gpucore.ShapeBox3
		}
		return gpucore.ShapeBox5
	default:
		return gpucore.ShapeAtrous
	}
}
