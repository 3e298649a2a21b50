package asvgf

import (
	"math"
	"math/rand"
	"testing"

	"golang.org/x/image/math/f32"

	"github.com/gogpu/asvgf/gbuffer"
	"github.com/gogpu/asvgf/gpucore"
)

// Test helpers shared across asvgf tests.

type testScene string

func (s testScene) Name() string { return string(s) }

// flatFrame returns a w x h frame of a camera-facing plane at depth 1 with
// every pixel set to the given color and no motion. Albedo is nil.
func flatFrame(w, h int, r, g, b float32) *gbuffer.Frame {
	f := gbuffer.NewFrame(w, h)
	f.Albedo = nil
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.SetColor(x, y, r, g, b, 1)
			f.SetSurface(x, y, 1, f32.Vec3{0, 0, 1})
		}
	}
	return f
}

// noisyFrame is flatFrame with uniform noise of the given amplitude added
// to a gray level.
func noisyFrame(w, h int, gray, amplitude float32, rng *rand.Rand) *gbuffer.Frame {
	f := flatFrame(w, h, gray, gray, gray)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := gray + amplitude*(2*rng.Float32()-1)
			f.SetColor(x, y, v, v, v, 1)
		}
	}
	return f
}

// readyPass returns a Ready pass compiled for w x h.
func readyPass(tb testing.TB, w, h int, opts ...Option) *Pass {
	tb.Helper()
	p, err := New(opts...)
	if err != nil {
		tb.Fatalf("New() = %v", err)
	}
	tb.Cleanup(p.Close)
	if err := p.Compile(w, h); err != nil {
		tb.Fatalf("Compile(%d, %d) = %v", w, h, err)
	}
	p.SetScene(testScene("test"))
	return p
}

// lumaVariance returns the spatial variance of the luminance of an RGBA plane.
func lumaVariance(p gpucore.Plane) float64 {
	var sum, sum2 float64
	n := float64(p.Texels())
	for i := 0; i < p.Texels(); i++ {
		c := p.Data[i*p.Channels : i*p.Channels+3]
		l := 0.2126*float64(c[0]) + 0.7152*float64(c[1]) + 0.0722*float64(c[2])
		sum += l
		sum2 += l * l
	}
	mean := sum / n
	return math.Max(0, sum2/n-mean*mean)
}

func approxEqual(a, b, tolerance float32) bool {
	return math.Abs(float64(a-b)) <= float64(tolerance)
}
