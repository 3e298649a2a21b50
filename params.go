package asvgf

// FilterKernel selects the tap pattern of the spatial filter.
type FilterKernel int

const (
	// KernelAtrous is the 5x5 B3-spline a-trous kernel.
	KernelAtrous FilterKernel = iota
	// KernelBox3 is a uniform 3x3 box.
	KernelBox3
	// KernelBox5 is a uniform 5x5 box.
	KernelBox5
	// KernelSparse is the checkerboard subset of the B3-spline taps.
	KernelSparse
	// KernelBox3Sparse uses Box3 on the first iteration and Sparse after.
	KernelBox3Sparse
	// KernelBox5Sparse uses Box5 on the first iteration and Sparse after.
	KernelBox5Sparse

	kernelCount
)

var kernelNames = [kernelCount]string{
	"A-Trous", "Box 3x3", "Box 5x5", "Sparse", "Box3x3 / Sparse", "Box5x5 / Sparse",
}

// String returns the label shown in the kernel dropdown.
func (k FilterKernel) String() string {
	if k < 0 || k >= kernelCount {
		return "Unknown"
	}
	return kernelNames[k]
}

// Parameter ranges enforced by Sanitize.
const (
	MaxIterations = 16
	MinHistoryTap = -1
)

// Params holds the per-pass filter configuration.
type Params struct {
	// Enabled turns the filter on. A disabled pass copies its input.
	Enabled bool

	// ModulateAlbedo filters demodulated illumination and multiplies the
	// albedo back in at the end.
	ModulateAlbedo bool

	// NumIterations is the number of a-trous iterations, 0 to 16.
	NumIterations int

	// HistoryTap is the a-trous iteration whose output feeds the next
	// frame's temporal history. -1 uses the unfiltered accumulation.
	HistoryTap int

	// FilterKernel selects the spatial kernel.
	FilterKernel FilterKernel

	// TemporalAlpha is the minimum weight of the new sample, 0 to 1.
	TemporalAlpha float32

	// DiffAtrousIterations is the number of gradient filter passes, 0 to 16.
	DiffAtrousIterations int

	// GradientFilterRadius is the box radius of each gradient pass, 0 to 16.
	GradientFilterRadius int

	// NormalizeGradient divides the luminance gradient by the brighter sample.
	NormalizeGradient bool

	// ShowAntilagAlpha outputs the antilag alpha instead of the color.
	ShowAntilagAlpha bool
}

// DefaultParams returns the default configuration.
func DefaultParams() Params {
	return Params{
		Enabled:              true,
		ModulateAlbedo:       true,
		NumIterations:        5,
		HistoryTap:           0,
		FilterKernel:         KernelAtrous,
		TemporalAlpha:        0.1,
		DiffAtrousIterations: 5,
		GradientFilterRadius: 2,
		NormalizeGradient:    true,
	}
}

// Sanitize clamps every field into its documented range.
func (p Params) Sanitize() Params {
	p.NumIterations = clampInt(p.NumIterations, 0, MaxIterations)
	p.HistoryTap = clampInt(p.HistoryTap, MinHistoryTap, MaxIterations)
	p.DiffAtrousIterations = clampInt(p.DiffAtrousIterations, 0, MaxIterations)
	p.GradientFilterRadius = clampInt(p.GradientFilterRadius, 0, MaxIterations)
	if p.FilterKernel < 0 || p.FilterKernel >= kernelCount {
		p.FilterKernel = KernelAtrous
	}
	if p.TemporalAlpha != p.TemporalAlpha || p.TemporalAlpha < 0 {
		p.TemporalAlpha = 0
	} else if p.TemporalAlpha > 1 {
		p.TemporalAlpha = 1
	}
	return p
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Thresholds tune history rejection and the edge-stopping functions.
type Thresholds struct {
	// Depth is the largest relative depth difference of a valid reprojection.
	Depth float32

	// Normal is the smallest normal cosine of a valid reprojection.
	Normal float32

	// PhiColor scales the luminance edge-stopping function.
	PhiColor float32

	// PhiNormal is the normal edge-stopping exponent.
	PhiNormal float32

	// PhiDepth scales the depth edge-stopping function.
	PhiDepth float32

	// SpatialHistory is the history length below which variance is
	// estimated spatially.
	SpatialHistory float32
}

// DefaultThresholds returns the default rejection and edge-stopping values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Depth:          0.1,
		Normal:         0.9,
		PhiColor:       10,
		PhiNormal:      128,
		PhiDepth:       1,
		SpatialHistory: 4,
	}
}
