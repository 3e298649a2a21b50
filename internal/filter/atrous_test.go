package filter

import (
	"testing"

	"github.com/gogpu/asvgf/gpucore"
)

func TestAtrousPreservesConstant(t *testing.T) {
	const w, h = 9, 9
	for _, shape := range []gpucore.KernelShape{gpucore.ShapeAtrous, gpucore.ShapeBox3, gpucore.ShapeBox5, gpucore.ShapeSparse} {
		t.Run(shape.String(), func(t *testing.T) {
			in := []gpucore.Plane{filled(w, h, 4, 0.7, 0.2, 0.1, 0.05), flatGeometry(w, h, 2)}
			out := []gpucore.Plane{gpucore.NewPlane(w, h, 4)}
			u := testUniforms(w, h, 1)
			u.Kernel = shape
			for _, step := range []uint32{1, 2, 4} {
				u.Step = step
				runAll(Atrous, u, in, out, w, h)
				for y := 0; y < h; y++ {
					for x := 0; x < w; x++ {
						c := out[0].Vec4(x, y)
						if !approxEqual(c[0], 0.7, 1e-5) || !approxEqual(c[1], 0.2, 1e-5) {
							t.Fatalf("step %d (%d,%d) = %v, want constant", step, x, y, c)
						}
						if c[3] > 0.05+1e-6 {
							t.Fatalf("step %d (%d,%d) variance grew to %v", step, x, y, c[3])
						}
					}
				}
			}
		})
	}
}

func TestAtrousReducesVariance(t *testing.T) {
	const w, h = 9, 9
	in := []gpucore.Plane{filled(w, h, 4, 0.5, 0.5, 0.5, 0.1), flatGeometry(w, h, 1)}
	out := []gpucore.Plane{gpucore.NewPlane(w, h, 4)}
	u := testUniforms(w, h, 1)
	runAll(Atrous, u, in, out, w, h)
	// Interior pixel: sum of squared B3 weights is well below 1.
	if v := out[0].Get(4, 4, 3); v >= 0.1*0.2 {
		t.Errorf("filtered variance = %v, want < %v", v, 0.1*0.2)
	}
}

func TestAtrousSmoothsNoise(t *testing.T) {
	const w, h = 16, 16
	src := gpucore.NewPlane(w, h, 4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float32(0.3)
			if (x+y)%2 == 0 {
				v = 0.7
			}
			src.SetVec4(x, y, [4]float32{v, v, v, 0.04})
		}
	}
	in := []gpucore.Plane{src, flatGeometry(w, h, 1)}
	out := []gpucore.Plane{gpucore.NewPlane(w, h, 4)}
	runAll(Atrous, testUniforms(w, h, 1), in, out, w, h)

	got := out[0].Get(8, 8, 0)
	if absf(got-0.5) >= 0.2 {
		t.Errorf("filtered value = %v, want closer to the mean 0.5 than the input", got)
	}
}

func TestAtrousStopsAtDepthEdge(t *testing.T) {
	const w, h = 10, 4
	src := gpucore.NewPlane(w, h, 4)
	geo := gpucore.NewPlane(w, h, 4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v, z := float32(0.2), float32(1)
			if x >= w/2 {
				v, z = 0.9, 10
			}
			src.SetVec4(x, y, [4]float32{v, v, v, 0.01})
			geo.SetVec4(x, y, [4]float32{z, 0, 0, 1})
		}
	}
	out := []gpucore.Plane{gpucore.NewPlane(w, h, 4)}
	u := testUniforms(w, h, 1)
	u.PhiColor = 1e6 // disable the luminance term
	runAll(Atrous, u, []gpucore.Plane{src, geo}, out, w, h)

	// Two pixels left of the edge: the depth gradient there is zero.
	if got := out[0].Get(w/2-2, 1, 0); !approxEqual(got, 0.2, 1e-3) {
		t.Errorf("left side = %v, want 0.2 (no bleeding across the edge)", got)
	}
}

func TestAtrousStopsAtNormalEdge(t *testing.T) {
	const w, h = 8, 3
	src := gpucore.NewPlane(w, h, 4)
	geo := gpucore.NewPlane(w, h, 4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float32(0.1)
			n := [3]float32{0, 0, 1}
			if x >= w/2 {
				v, n = 0.8, [3]float32{1, 0, 0}
			}
			src.SetVec4(x, y, [4]float32{v, v, v, 0.01})
			geo.SetVec4(x, y, [4]float32{1, n[0], n[1], n[2]})
		}
	}
	out := []gpucore.Plane{gpucore.NewPlane(w, h, 4)}
	u := testUniforms(w, h, 1)
	u.PhiColor = 1e6
	runAll(Atrous, u, []gpucore.Plane{src, geo}, out, w, h)
	if got := out[0].Get(w/2-1, 1, 0); !approxEqual(got, 0.1, 1e-4) {
		t.Errorf("pixel at normal edge = %v, want 0.1", got)
	}
}
