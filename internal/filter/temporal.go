package filter

import (
	"math"

	"github.com/gogpu/asvgf/gpucore"
)

// demodulate divides albedo out of a color, leaving texture-free
// illumination. Channels with near-zero albedo pass through unchanged.
func demodulate(c, albedo [4]float32) [4]float32 {
	for i := 0; i < 3; i++ {
		if albedo[i] > 1e-3 {
			c[i] /= albedo[i]
		}
	}
	return c
}

// Temporal reprojects the previous accumulation into the current frame and
// blends it with the new sample at pixel (x, y).
//
// A 2x2 bilinear footprint around the reprojected position is tested tap by
// tap: in bounds, live history, and consistent depth and normal. Surviving
// taps are renormalized. When no tap survives, or there is no history at
// all, the sample starts a new history of length 1.
func Temporal(u *gpucore.Uniforms, in, out []gpucore.Plane, x, y int) {
	color := in[gpucore.TemporalInColor].Vec4(x, y)
	albedo := in[gpucore.TemporalInAlbedo].Vec4(x, y)
	geo := in[gpucore.TemporalInGeometry].Vec4(x, y)
	motion := in[gpucore.TemporalInMotion]

	illum := color
	if u.Flags.Has(gpucore.FlagModulateAlbedo) {
		illum = demodulate(color, albedo)
	}
	illum[3] = 1
	l := lum4(illum)

	out[gpucore.TemporalOutGeometry].SetVec4(x, y, geo)
	out[gpucore.TemporalOutUnfiltered].SetVec4(x, y, color)

	reject := func() {
		out[gpucore.TemporalOutIllum].SetVec4(x, y, illum)
		out[gpucore.TemporalOutMoments].SetVec4(x, y, [4]float32{l, l * l})
		out[gpucore.TemporalOutHistory].Set(x, y, 0, 1)
	}
	if !u.Flags.Has(gpucore.FlagHasHistory) {
		reject()
		return
	}

	prevIllum := in[gpucore.TemporalInPrevIllum]
	if u.Flags.Has(gpucore.FlagColorHistory) {
		prevIllum = in[gpucore.TemporalInColorHistory]
	}
	prevMoments := in[gpucore.TemporalInPrevMoments]
	prevHistory := in[gpucore.TemporalInPrevHistory]
	prevGeo := in[gpucore.TemporalInPrevGeometry]

	px := float32(x) + motion.Get(x, y, 0)
	py := float32(y) + motion.Get(x, y, 1)
	fx0 := float32(math.Floor(float64(px)))
	fy0 := float32(math.Floor(float64(py)))
	fx, fy := px-fx0, py-fy0
	x0, y0 := int(fx0), int(fy0)
	wx := [2]float32{1 - fx, fx}
	wy := [2]float32{1 - fy, fy}

	var (
		sumW    float32
		hist    [4]float32
		moments [2]float32
		length  float32
	)
	for j := 0; j < 2; j++ {
		for i := 0; i < 2; i++ {
			tx, ty := x0+i, y0+j
			w := wx[i] * wy[j]
			if w <= 0 || !prevIllum.InBounds(tx, ty) {
				continue
			}
			n := prevHistory.Get(tx, ty, 0)
			if n <= 0 {
				continue
			}
			if !consistent(geo, prevGeo.Vec4(tx, ty), u.DepthThreshold, u.NormalThreshold) {
				continue
			}
			c := prevIllum.Vec4(tx, ty)
			for k := 0; k < 3; k++ {
				hist[k] += w * c[k]
			}
			moments[0] += w * prevMoments.Get(tx, ty, 0)
			moments[1] += w * prevMoments.Get(tx, ty, 1)
			length += w * n
			sumW += w
		}
	}
	if sumW < minReprojectionWeight {
		reject()
		return
	}
	inv := 1 / sumW
	length *= inv

	antilag := in[gpucore.TemporalInAntilag].Get(x, y, 0)
	n := NextHistoryLength(length, antilag)
	a := BlendWeight(u.Alpha, n, antilag)

	var res [4]float32
	for k := 0; k < 3; k++ {
		res[k] = lerp(hist[k]*inv, illum[k], a)
	}
	res[3] = 1
	out[gpucore.TemporalOutIllum].SetVec4(x, y, res)
	out[gpucore.TemporalOutMoments].SetVec4(x, y, [4]float32{
		lerp(moments[0]*inv, l, a),
		lerp(moments[1]*inv, l*l, a),
	})
	out[gpucore.TemporalOutHistory].Set(x, y, 0, n)
}
