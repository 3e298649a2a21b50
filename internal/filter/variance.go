package filter

import "github.com/gogpu/asvgf/gpucore"

// spatialVarianceRadius is the half-extent of the 7x7 neighborhood used
// when a pixel's history is too short for temporal moments.
const spatialVarianceRadius = 3

// Variance writes illumination and luminance variance for pixel (x, y).
//
// Pixels with a history of at least SpatialHistory frames use their
// temporally integrated moments. Younger pixels estimate moments from an
// edge-aware 7x7 neighborhood and scale the variance by
// SpatialHistory/history to account for the small sample count.
func Variance(u *gpucore.Uniforms, in, out []gpucore.Plane, x, y int) {
	illumP := in[gpucore.VarianceInIllum]
	momP := in[gpucore.VarianceInMoments]
	geoP := in[gpucore.VarianceInGeometry]
	dst := out[0]

	c := illumP.Vec4(x, y)
	hist := in[gpucore.VarianceInHistory].Get(x, y, 0)

	if hist >= u.SpatialHistory {
		v := VarianceFromMoments(momP.Get(x, y, 0), momP.Get(x, y, 1))
		dst.SetVec4(x, y, [4]float32{c[0], c[1], c[2], v})
		return
	}

	geo := geoP.Vec4(x, y)
	lp := lum4(c)
	grad := depthGradient(geoP, x, y)

	var (
		sumW  float32
		sumC  [3]float32
		sumM1 float32
		sumM2 float32
	)
	for dy := -spatialVarianceRadius; dy <= spatialVarianceRadius; dy++ {
		for dx := -spatialVarianceRadius; dx <= spatialVarianceRadius; dx++ {
			qx, qy := x+dx, y+dy
			if !illumP.InBounds(qx, qy) {
				continue
			}
			w := float32(1)
			cq := illumP.Vec4(qx, qy)
			if dx != 0 || dy != 0 {
				gq := geoP.Vec4(qx, qy)
				dist := sqrtf(float32(dx*dx + dy*dy))
				w = depthWeight(geo[0], gq[0], grad, dist, u.PhiDepth) *
					normalWeight(geo, gq, u.PhiNormal) *
					expf(-absf(lp-lum4(cq))/(u.PhiColor+epsilon))
			}
			sumW += w
			for k := 0; k < 3; k++ {
				sumC[k] += w * cq[k]
			}
			sumM1 += w * momP.Get(qx, qy, 0)
			sumM2 += w * momP.Get(qx, qy, 1)
		}
	}

	inv := 1 / sumW
	v := VarianceFromMoments(sumM1*inv, sumM2*inv)
	v *= u.SpatialHistory / max(hist, 1)
	dst.SetVec4(x, y, [4]float32{sumC[0] * inv, sumC[1] * inv, sumC[2] * inv, v})
}
