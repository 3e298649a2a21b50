package framebuffer

import (
	"math"

	"github.com/gogpu/gputypes"
	"github.com/x448/float16"

	"github.com/gogpu/asvgf/gpucore"
)

// Texture is a named 2D target with a fixed pixel format.
//
// Texel data lives in the embedded plane as float32; Quantize rounds it to
// the precision of Format after a stage has written it.
type Texture struct {
	Name   string
	Format gputypes.TextureFormat
	gpucore.Plane
}

// NewTexture allocates a zeroed texture.
func NewTexture(name string, format gputypes.TextureFormat, width, height int) *Texture {
	return &Texture{
		Name:   name,
		Format: format,
		Plane:  gpucore.NewPlane(width, height, Channels(format)),
	}
}

// Channels returns the number of components stored per texel for format.
func Channels(format gputypes.TextureFormat) int {
	switch format {
	case gputypes.TextureFormatR16Float, gputypes.TextureFormatR32Float, gputypes.TextureFormatR8Unorm:
		return 1
	case gputypes.TextureFormatRG32Float, gputypes.TextureFormatRG16Float:
		return 2
	default:
		return 4
	}
}

// Quantize rounds every stored value to the precision of the texture format.
func (t *Texture) Quantize() {
	QuantizeSlice(t.Format, t.Data)
}

// QuantizeSlice rounds data in place to the precision of format.
func QuantizeSlice(format gputypes.TextureFormat, data []float32) {
	switch format {
	case gputypes.TextureFormatR16Float, gputypes.TextureFormatRG16Float, gputypes.TextureFormatRGBA16Float:
		for i, v := range data {
			data[i] = Half(v)
		}
	case gputypes.TextureFormatR8Unorm, gputypes.TextureFormatRGBA8Unorm:
		for i, v := range data {
			data[i] = Unorm8(v)
		}
	}
}

// Half rounds v to the nearest IEEE 754 binary16 value.
// Values beyond the binary16 range saturate to the largest finite half.
func Half(v float32) float32 {
	if v > MaxHalf {
		v = MaxHalf
	} else if v < -MaxHalf {
		v = -MaxHalf
	}
	return float16.Fromfloat32(v).Float32()
}

// MaxHalf is the largest finite binary16 value.
const MaxHalf = 65504

// Unorm8 rounds v to an 8-bit normalized value.
func Unorm8(v float32) float32 {
	if v != v || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 1
	}
	return float32(math.Round(float64(v)*255)) / 255
}

// Bytes returns the texture size in bytes for its declared format.
func (t *Texture) Bytes() int {
	return t.Texels() * bytesPerTexel(t.Format)
}

func bytesPerTexel(format gputypes.TextureFormat) int {
	switch format {
	case gputypes.TextureFormatR8Unorm:
		return 1
	case gputypes.TextureFormatR16Float:
		return 2
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatR32Float, gputypes.TextureFormatRG16Float:
		return 4
	case gputypes.TextureFormatRGBA16Float, gputypes.TextureFormatRG32Float:
		return 8
	case gputypes.TextureFormatRGBA32Float:
		return 16
	default:
		return 4
	}
}
