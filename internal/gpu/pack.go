//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/asvgf/gpucore"
)

// texelBytes is the size of one widened vec4<f32> texel.
const texelBytes = 16

// planeDescBytes is the size of one WGSL PlaneDesc.
const planeDescBytes = 16

// planeLayout locates one plane inside a packed storage buffer.
type planeLayout struct {
	offset   uint32 // in texels
	width    uint32
	height   uint32
	channels uint32
}

// layoutPlanes assigns consecutive texel offsets to planes.
func layoutPlanes(planes []gpucore.Plane) (layouts []planeLayout, texels int) {
	layouts = make([]planeLayout, len(planes))
	for i, p := range planes {
		layouts[i] = planeLayout{
			offset:   uint32(texels), //nolint:gosec // plane sizes fit uint32
			width:    uint32(p.Width),
			height:   uint32(p.Height),
			channels: uint32(p.Channels),
		}
		texels += p.Texels()
	}
	return layouts, texels
}

// packPlanes widens planes to vec4 texels and concatenates them.
// Missing channels are 0 except alpha, which is 1.
func packPlanes(planes []gpucore.Plane, texels int) []byte {
	out := make([]byte, max(texels, 1)*texelBytes)
	off := 0
	for _, p := range planes {
		for y := 0; y < p.Height; y++ {
			for x := 0; x < p.Width; x++ {
				v := p.Vec4(x, y)
				for c := 0; c < 4; c++ {
					binary.LittleEndian.PutUint32(out[off+c*4:], math.Float32bits(v[c]))
				}
				off += texelBytes
			}
		}
	}
	return out
}

// unpackPlanes narrows packed vec4 texels back into planes.
func unpackPlanes(data []byte, planes []gpucore.Plane, layouts []planeLayout) {
	for i, p := range planes {
		base := int(layouts[i].offset) * texelBytes
		for t := 0; t < p.Texels(); t++ {
			src := data[base+t*texelBytes:]
			dst := p.Data[t*p.Channels : (t+1)*p.Channels]
			for c := range dst {
				dst[c] = math.Float32frombits(binary.LittleEndian.Uint32(src[c*4:]))
			}
		}
	}
}

// packLayouts encodes the descriptor table: inputs first, then outputs.
func packLayouts(in, out []planeLayout) []byte {
	b := make([]byte, 0, (len(in)+len(out))*planeDescBytes)
	for _, l := range append(append([]planeLayout(nil), in...), out...) {
		b = binary.LittleEndian.AppendUint32(b, l.offset)
		b = binary.LittleEndian.AppendUint32(b, l.width)
		b = binary.LittleEndian.AppendUint32(b, l.height)
		b = binary.LittleEndian.AppendUint32(b, l.channels)
	}
	return b
}
