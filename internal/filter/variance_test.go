package filter

import (
	"testing"

	"github.com/gogpu/asvgf/gpucore"
)

func varianceInputs(w, h int, illum gpucore.Plane, moments gpucore.Plane, hist float32) []gpucore.Plane {
	return []gpucore.Plane{illum, moments, filled(w, h, 1, hist), flatGeometry(w, h, 1)}
}

func TestVarianceFromTemporalMoments(t *testing.T) {
	in := varianceInputs(3, 3, filled(3, 3, 4, 0.3, 0.3, 0.3, 1), filled(3, 3, 2, 0.5, 0.5), 8)
	out := []gpucore.Plane{gpucore.NewPlane(3, 3, 4)}
	u := testUniforms(3, 3, 1)
	runAll(Variance, u, in, out, 3, 3)

	got := out[0].Vec4(1, 1)
	if !approxEqual(got[3], 0.25, 1e-6) {
		t.Errorf("variance = %v, want 0.25", got[3])
	}
	if got[0] != 0.3 {
		t.Errorf("illumination = %v, want unchanged 0.3", got[0])
	}
}

func TestVarianceClampsNegative(t *testing.T) {
	in := varianceInputs(1, 1, filled(1, 1, 4, 1, 1, 1, 1), filled(1, 1, 2, 1, 0.5), 10)
	out := []gpucore.Plane{gpucore.NewPlane(1, 1, 4)}
	runAll(Variance, testUniforms(1, 1, 1), in, out, 1, 1)
	if v := out[0].Get(0, 0, 3); v != 0 {
		t.Errorf("variance = %v, want 0", v)
	}
}

func TestVarianceSpatialFallback(t *testing.T) {
	const w, h = 8, 8
	illum := gpucore.NewPlane(w, h, 4)
	moments := gpucore.NewPlane(w, h, 2)
	// Checkerboard of 0.4 / 0.6: per-pixel moments carry no variance, the
	// neighborhood does.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float32(0.4)
			if (x+y)%2 == 1 {
				v = 0.6
			}
			illum.SetVec4(x, y, [4]float32{v, v, v, 1})
			l := Luminance(v, v, v)
			moments.SetVec4(x, y, [4]float32{l, l * l})
		}
	}
	out := []gpucore.Plane{gpucore.NewPlane(w, h, 4)}
	u := testUniforms(w, h, 1)

	runAll(Variance, u, varianceInputs(w, h, illum, moments, 1), out, w, h)
	young := out[0].Get(4, 4, 3)
	if young <= 0 {
		t.Fatalf("spatial variance = %v, want > 0", young)
	}
	if m := out[0].Get(4, 4, 0); m <= 0.4 || m >= 0.6 {
		t.Errorf("spatially averaged illumination = %v, want inside (0.4, 0.6)", m)
	}

	runAll(Variance, u, varianceInputs(w, h, illum, moments, 2), out, w, h)
	older := out[0].Get(4, 4, 3)
	// Boost is SpatialHistory/history: 4 for history 1, 2 for history 2.
	if !approxEqual(young, 2*older, 1e-5) {
		t.Errorf("variance boost: history 1 = %v, history 2 = %v, want 2:1", young, older)
	}

	runAll(Variance, u, varianceInputs(w, h, illum, moments, 4), out, w, h)
	if v := out[0].Get(4, 4, 3); v != 0 {
		t.Errorf("temporal variance = %v, want 0 from per-pixel moments", v)
	}
}

func TestVarianceNonNegativeOnNoise(t *testing.T) {
	const w, h = 16, 16
	illum := gpucore.NewPlane(w, h, 4)
	moments := gpucore.NewPlane(w, h, 2)
	for i := 0; i < w*h; i++ {
		v := float32((i*7919)%97) / 97
		copy(illum.Data[i*4:], []float32{v, v, v, 1})
		// Deliberately inconsistent moments.
		copy(moments.Data[i*2:], []float32{v, v * v * 0.5})
	}
	out := []gpucore.Plane{gpucore.NewPlane(w, h, 4)}
	for _, hist := range []float32{1, 3, 4, 100} {
		runAll(Variance, testUniforms(w, h, 1), varianceInputs(w, h, illum, moments, hist), out, w, h)
		for i := 0; i < w*h; i++ {
			if v := out[0].Data[i*4+3]; v < 0 {
				t.Fatalf("history %v: variance[%d] = %v < 0", hist, i, v)
			}
		}
	}
}
