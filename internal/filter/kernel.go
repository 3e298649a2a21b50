package filter

import (
	"sync"

	"github.com/gogpu/asvgf/gpucore"
)

// B3Kernel returns the 1D cubic B-spline kernel used by the a-trous
// transform: [1/16, 1/4, 3/8, 1/4, 1/16].
func B3Kernel() []float32 {
	return []float32{1.0 / 16, 1.0 / 4, 3.0 / 8, 1.0 / 4, 1.0 / 16}
}

// BoxKernel generates a 1D box (uniform) kernel for the given radius.
// All values are equal: 1/(2*radius+1).
func BoxKernel(radius int) []float32 {
	if radius <= 0 {
		return []float32{1.0}
	}
	size := radius*2 + 1
	kernel := make([]float32, size)
	val := float32(1.0) / float32(size)
	for i := range kernel {
		kernel[i] = val
	}
	return kernel
}

// Tap is one weighted sample offset of a 2D kernel.
type Tap struct {
	DX, DY int
	Weight float32
}

// outerTaps builds the 2D taps of a separable kernel.
func outerTaps(k []float32) []Tap {
	r := len(k) / 2
	taps := make([]Tap, 0, len(k)*len(k))
	for j, wy := range k {
		for i, wx := range k {
			taps = append(taps, Tap{DX: i - r, DY: j - r, Weight: wx * wy})
		}
	}
	return taps
}

// sparseTaps keeps the checkerboard half of the 5x5 B3 taps (including the
// center) and renormalizes them to sum to one.
func sparseTaps() []Tap {
	var taps []Tap
	var sum float32
	for _, t := range outerTaps(B3Kernel()) {
		if (t.DX+t.DY)&1 != 0 {
			continue
		}
		taps = append(taps, t)
		sum += t.Weight
	}
	for i := range taps {
		taps[i].Weight /= sum
	}
	return taps
}

var (
	tapsOnce  sync.Once
	tapsTable [4][]Tap
	prefilter []Tap
)

func initTaps() {
	tapsTable[gpucore.ShapeAtrous] = outerTaps(B3Kernel())
	tapsTable[gpucore.ShapeBox3] = outerTaps(BoxKernel(1))
	tapsTable[gpucore.ShapeBox5] = outerTaps(BoxKernel(2))
	tapsTable[gpucore.ShapeSparse] = sparseTaps()
	prefilter = outerTaps([]float32{0.25, 0.5, 0.25})
}

// Taps returns the 2D tap list of a kernel shape. The returned slice is
// shared and must not be modified.
func Taps(shape gpucore.KernelShape) []Tap {
	tapsOnce.Do(initTaps)
	if int(shape) >= len(tapsTable) {
		shape = gpucore.ShapeAtrous
	}
	return tapsTable[shape]
}

// VariancePrefilter returns the 3x3 Gaussian taps applied to variance
// before it drives the luminance edge-stopping function.
func VariancePrefilter() []Tap {
	tapsOnce.Do(initTaps)
	return prefilter
}
