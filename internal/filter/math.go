package filter

import (
	"math"

	"github.com/gogpu/asvgf/gpucore"
)

const (
	epsilon = 1e-10

	// MaxHistoryLength bounds the history counter to the R16Float range.
	MaxHistoryLength = 65504

	// minReprojectionWeight is the smallest bilinear footprint coverage
	// accepted as a valid reprojection.
	minReprojectionWeight = 0.01
)

// Luminance returns the Rec. 709 luminance of a linear RGB color.
func Luminance(r, g, b float32) float32 {
	return 0.2126*r + 0.7152*g + 0.0722*b
}

func lum4(v [4]float32) float32 { return Luminance(v[0], v[1], v[2]) }

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

func expf(x float32) float32 { return float32(math.Exp(float64(x))) }

func powf(x, y float32) float32 { return float32(math.Pow(float64(x), float64(y))) }

func sqrtf(x float32) float32 { return float32(math.Sqrt(float64(x))) }

// BlendWeight returns the weight of the new sample in the temporal blend.
//
// The base weight is max(alpha, 1/historyLength), so young histories
// average uniformly and old ones settle at the exponential moving average
// alpha. Antilag raises the weight toward 1: w + (1-w)*antilag.
func BlendWeight(alpha, historyLength, antilag float32) float32 {
	w := alpha
	if historyLength > 0 {
		w = max(alpha, 1/historyLength)
	}
	w = clampf(w, 0, 1)
	a := clampf(antilag, 0, 1)
	return w + (1-w)*a
}

// NextHistoryLength returns the history counter after accepting a sample.
// Antilag shortens the surviving history proportionally.
func NextHistoryLength(prev, antilag float32) float32 {
	n := prev*(1-clampf(antilag, 0, 1)) + 1
	return min(n, MaxHistoryLength)
}

// VarianceFromMoments returns max(0, E[x^2] - E[x]^2).
func VarianceFromMoments(m1, m2 float32) float32 {
	return max(0, m2-m1*m1)
}

// isBackground reports whether a geometry texel carries no surface.
func isBackground(g [4]float32) bool { return g[0] <= 0 }

// consistent runs the reprojection geometry test between a current and a
// previous geometry texel (linear depth, normal).
func consistent(cur, prev [4]float32, depthThreshold, normalThreshold float32) bool {
	cb, pb := isBackground(cur), isBackground(prev)
	if cb || pb {
		return cb && pb
	}
	rel := absf(cur[0]-prev[0]) / max(cur[0], prev[0])
	if rel >= depthThreshold {
		return false
	}
	return cur[1]*prev[1]+cur[2]*prev[2]+cur[3]*prev[3] > normalThreshold
}

// normalWeight is the normal edge-stopping function max(0, n.n')^phi.
func normalWeight(p, q [4]float32, phi float32) float32 {
	pb, qb := isBackground(p), isBackground(q)
	if pb || qb {
		if pb && qb {
			return 1
		}
		return 0
	}
	d := p[1]*q[1] + p[2]*q[2] + p[3]*q[3]
	if d <= 0 {
		return 0
	}
	return powf(d, phi)
}

// depthGradient estimates |dz| per pixel at (x, y) with central differences.
func depthGradient(geo gpucore.Plane, x, y int) float32 {
	xl, xr := max(x-1, 0), min(x+1, geo.Width-1)
	yu, yd := max(y-1, 0), min(y+1, geo.Height-1)
	dx := absf(geo.Get(xr, y, 0)-geo.Get(xl, y, 0)) / float32(max(xr-xl, 1))
	dy := absf(geo.Get(x, yd, 0)-geo.Get(x, yu, 0)) / float32(max(yd-yu, 1))
	return max(dx, dy)
}

// depthWeight is the depth edge-stopping function for a tap dist pixels
// away from a pixel whose depth changes by grad per pixel.
func depthWeight(zp, zq, grad, dist, phi float32) float32 {
	return expf(-absf(zp-zq) / (phi*max(grad, 1e-3)*dist + epsilon))
}
