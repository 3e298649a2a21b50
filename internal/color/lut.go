// Package color converts between linear radiance and 8-bit sRGB codes
// using lookup tables.
//
// Denoised frames are linear. They are encoded to sRGB for previews and
// image files, and sRGB textures are decoded to linear albedo before
// shading. Both directions run once per channel per pixel, so the transfer
// curve is tabulated instead of evaluated with math.Pow.
//
// References:
//   - sRGB specification: https://www.w3.org/Graphics/Color/sRGB
package color

import "math"

// encodeSteps is the number of linear steps of the encode table. 12 bits
// keep every 8-bit code within one step of the exact curve.
const encodeSteps = 4096

var (
	decodeLUT [256]float32
	encodeLUT [encodeSteps]uint8
)

func init() {
	for i := range decodeLUT {
		decodeLUT[i] = float32(decodeExact(uint8(i)))
	}
	for i := range encodeLUT {
		encodeLUT[i] = encodeExact(float64(i) / (encodeSteps - 1))
	}
}

// EncodeSRGB converts a linear value to an 8-bit sRGB code. Values outside
// [0, 1] are clamped; NaN encodes as 0.
//
// Example:
//
//	s := EncodeSRGB(0.5) // 188, not 128
func EncodeSRGB(l float32) uint8 {
	if !(l > 0) {
		return 0
	}
	if l >= 1 {
		return 255
	}
	return encodeLUT[int(l*(encodeSteps-1)+0.5)]
}

// DecodeSRGB converts an 8-bit sRGB code to a linear value in [0, 1].
func DecodeSRGB(s uint8) float32 {
	return decodeLUT[s]
}

// decodeExact evaluates the sRGB decoding curve.
func decodeExact(s uint8) float64 {
	f := float64(s) / 255
	if f <= 0.04045 {
		return f / 12.92
	}
	return math.Pow((f+0.055)/1.055, 2.4)
}

// encodeExact evaluates the sRGB encoding curve and rounds to a code.
func encodeExact(l float64) uint8 {
	l = math.Max(0, math.Min(1, l))
	var s float64
	if l <= 0.0031308 {
		s = l * 12.92
	} else {
		s = 1.055*math.Pow(l, 1/2.4) - 0.055
	}
	return uint8(math.Round(s * 255)) //nolint:gosec // s is in [0, 1]
}
