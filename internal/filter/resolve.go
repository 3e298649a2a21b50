package filter

import "github.com/gogpu/asvgf/gpucore"

// Resolve produces the final color of pixel (x, y): the filtered
// illumination, re-modulated by albedo when requested. With
// FlagShowAntilag the antilag alpha is shown as gray instead.
func Resolve(u *gpucore.Uniforms, in, out []gpucore.Plane, x, y int) {
	if u.Flags.Has(gpucore.FlagShowAntilag) {
		a := in[gpucore.ResolveInAntilag].Get(x, y, 0)
		out[0].SetVec4(x, y, [4]float32{a, a, a, 1})
		return
	}
	c := in[gpucore.ResolveInIllum].Vec4(x, y)
	if u.Flags.Has(gpucore.FlagModulateAlbedo) {
		alb := in[gpucore.ResolveInAlbedo].Vec4(x, y)
		for k := 0; k < 3; k++ {
			if alb[k] > 1e-3 {
				c[k] *= alb[k]
			}
		}
	}
	c[3] = 1
	out[0].SetVec4(x, y, c)
}
