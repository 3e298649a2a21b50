package gpucore

import (
	"encoding/binary"
	"math"
)

// Plane is a 2D array of texels with Channels float32 values each.
type Plane struct {
	Width    int
	Height   int
	Channels int
	Data     []float32
}

// NewPlane allocates a zeroed plane.
func NewPlane(width, height, channels int) Plane {
	return Plane{
		Width:    width,
		Height:   height,
		Channels: channels,
		Data:     make([]float32, width*height*channels),
	}
}

// Texels returns the number of texels in the plane.
func (p Plane) Texels() int { return p.Width * p.Height }

// Offset returns the index of channel 0 of texel (x, y).
func (p Plane) Offset(x, y int) int { return (y*p.Width + x) * p.Channels }

// InBounds reports whether (x, y) addresses a texel of the plane.
func (p Plane) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < p.Width && y < p.Height
}

// Get returns channel c of texel (x, y).
func (p Plane) Get(x, y, c int) float32 { return p.Data[p.Offset(x, y)+c] }

// Set stores channel c of texel (x, y).
func (p Plane) Set(x, y, c int, v float32) { p.Data[p.Offset(x, y)+c] = v }

// Vec4 returns texel (x, y) widened to four channels. Missing channels
// read as 0, except alpha which reads as 1, matching texture sampling of
// narrower formats.
func (p Plane) Vec4(x, y int) [4]float32 {
	v := [4]float32{0, 0, 0, 1}
	copy(v[:], p.Data[p.Offset(x, y):p.Offset(x, y)+p.Channels])
	return v
}

// SetVec4 stores the first Channels components of v into texel (x, y).
func (p Plane) SetVec4(x, y int, v [4]float32) {
	copy(p.Data[p.Offset(x, y):p.Offset(x, y)+p.Channels], v[:p.Channels])
}

// CopyFrom copies src into p. Both planes must share the same shape.
func (p Plane) CopyFrom(src Plane) {
	copy(p.Data, src.Data)
}

// SameShape reports whether p and q have identical dimensions and channel counts.
func (p Plane) SameShape(q Plane) bool {
	return p.Width == q.Width && p.Height == q.Height && p.Channels == q.Channels
}

// Fill sets every value of the plane to v.
func (p Plane) Fill(v float32) {
	for i := range p.Data {
		p.Data[i] = v
	}
}

// Flags is a bitmask of per-dispatch switches carried in [Uniforms].
type Flags uint32

const (
	// FlagHasHistory marks that the previous accumulation buffer holds a
	// valid frame.
	FlagHasHistory Flags = 1 << iota

	// FlagColorHistory selects ColorHistory instead of the previous
	// accumulated illumination as the temporal history color.
	FlagColorHistory

	// FlagModulateAlbedo demodulates albedo before accumulation and
	// re-applies it on resolve.
	FlagModulateAlbedo

	// FlagNormalizeGradient divides the luminance gradient by the larger
	// of the two samples.
	FlagNormalizeGradient

	// FlagShowAntilag replaces the resolved color with the antilag alpha.
	FlagShowAntilag

	// FlagSuppliedSamples marks that the gradient sample plane carries
	// renderer-provided samples.
	FlagSuppliedSamples
)

// Has reports whether all bits of f2 are set in f.
func (f Flags) Has(f2 Flags) bool { return f&f2 == f2 }

// KernelShape selects the tap pattern of one spatial filter iteration.
type KernelShape uint32

const (
	// ShapeAtrous is the 5x5 B3-spline a-trous kernel.
	ShapeAtrous KernelShape = iota
	// ShapeBox3 is a uniform 3x3 kernel.
	ShapeBox3
	// ShapeBox5 is a uniform 5x5 kernel.
	ShapeBox5
	// ShapeSparse is the checkerboard subset of the 5x5 B3-spline taps.
	ShapeSparse
)

// String returns the shape name.
func (k KernelShape) String() string {
	switch k {
	case ShapeAtrous:
		return "atrous"
	case ShapeBox3:
		return "box3"
	case ShapeBox5:
		return "box5"
	case ShapeSparse:
		return "sparse"
	default:
		return "unknown"
	}
}

// Uniforms is the parameter block shared by every stage. Its field order
// and sizes match the WGSL Uniforms struct of the GPU backend.
type Uniforms struct {
	Width      uint32
	Height     uint32
	GradWidth  uint32
	GradHeight uint32
	Downsample uint32
	Step       uint32
	Radius     uint32
	Kernel     KernelShape
	Flags      Flags
	Frame      uint32

	Alpha           float32
	DepthThreshold  float32
	NormalThreshold float32
	PhiColor        float32
	PhiNormal       float32
	PhiDepth        float32
	SpatialHistory  float32

	_ [3]uint32
}

// UniformsSize is the size in bytes of the encoded uniform block.
const UniformsSize = 80

// Bytes encodes u as a little-endian std140-compatible block.
func (u *Uniforms) Bytes() []byte {
	b := make([]byte, 0, UniformsSize)
	for _, v := range []uint32{
		u.Width, u.Height, u.GradWidth, u.GradHeight,
		u.Downsample, u.Step, u.Radius, uint32(u.Kernel),
		uint32(u.Flags), u.Frame,
	} {
		b = binary.LittleEndian.AppendUint32(b, v)
	}
	for _, f := range []float32{
		u.Alpha, u.DepthThreshold, u.NormalThreshold,
		u.PhiColor, u.PhiNormal, u.PhiDepth, u.SpatialHistory,
	} {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
	}
	for len(b) < UniformsSize {
		b = append(b, 0)
	}
	return b
}
