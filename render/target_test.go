package render

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

func TestHalfFloatTarget(t *testing.T) {
	tgt := NewHalfFloatTarget(3, 2)
	if tgt.Width() != 3 || tgt.Height() != 2 {
		t.Fatalf("size = %dx%d, want 3x2", tgt.Width(), tgt.Height())
	}
	if tgt.Format() != gputypes.TextureFormatRGBA16Float {
		t.Errorf("Format() = %v, want RGBA16Float", tgt.Format())
	}
	if tgt.Stride() != 24 {
		t.Errorf("Stride() = %d, want 24", tgt.Stride())
	}

	data := make([]float32, 3*2*4)
	for i := range data {
		data[i] = float32(i) * 0.25
	}
	if err := tgt.WriteRGBA(data); err != nil {
		t.Fatal(err)
	}
	r, g, b, a := tgt.At(1, 1)
	if r != 4 || g != 4.25 || b != 4.5 || a != 4.75 {
		t.Errorf("At(1,1) = %v %v %v %v", r, g, b, a)
	}
	got := tgt.Float32()
	for i := range data {
		if got[i] != data[i] {
			t.Fatalf("Float32()[%d] = %v, want %v", i, got[i], data[i])
		}
	}
}

func TestHalfFloatTargetRoundsToHalf(t *testing.T) {
	tgt := NewHalfFloatTarget(1, 1)
	if err := tgt.WriteRGBA([]float32{2049, 0.1, 1, 1}); err != nil {
		t.Fatal(err)
	}
	r, g, _, _ := tgt.At(0, 0)
	if r != 2048 {
		t.Errorf("r = %v, want 2048", r)
	}
	if g == 0.1 {
		t.Error("0.1 is not representable in half precision")
	}
	px := tgt.Pixels()
	if len(px) != 8 {
		t.Fatalf("Pixels() length = %d, want 8", len(px))
	}
	// 1.0 in binary16 is 0x3C00.
	if bits := binary.LittleEndian.Uint16(px[4:]); bits != 0x3C00 {
		t.Errorf("blue bits = %#04x, want 0x3c00", bits)
	}
}

func TestHalfFloatTargetSizeMismatch(t *testing.T) {
	tgt := NewHalfFloatTarget(2, 2)
	if err := tgt.WriteRGBA(make([]float32, 4)); !errors.Is(err, ErrTargetSize) {
		t.Errorf("WriteRGBA short = %v, want ErrTargetSize", err)
	}
}

func TestHalfFloatTargetResize(t *testing.T) {
	tgt := NewHalfFloatTarget(2, 2)
	_ = tgt.WriteRGBA([]float32{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1})
	tgt.Resize(2, 2)
	if r, _, _, _ := tgt.At(0, 0); r != 1 {
		t.Error("same-size Resize cleared the target")
	}
	tgt.Resize(4, 1)
	if tgt.Width() != 4 || tgt.Height() != 1 {
		t.Errorf("size after Resize = %dx%d", tgt.Width(), tgt.Height())
	}
	if r, _, _, _ := tgt.At(3, 0); r != 0 {
		t.Error("resized target not cleared")
	}
}

func TestPixmapTarget(t *testing.T) {
	tgt := NewPixmapTarget(2, 1)
	if tgt.Format() != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("Format() = %v", tgt.Format())
	}
	if err := tgt.WriteRGBA([]float32{0, 0.5, 1, 1, 2, -1, 0.0031308, 0.5}); err != nil {
		t.Fatal(err)
	}
	c := tgt.Image().RGBAAt(0, 0)
	if c.R != 0 || c.G != 188 || c.B != 255 || c.A != 255 {
		t.Errorf("pixel 0 = %+v", c)
	}
	c = tgt.Image().RGBAAt(1, 0)
	if c.R != 255 || c.G != 0 || c.B != 10 || c.A != 128 {
		t.Errorf("pixel 1 = %+v", c)
	}
}

func TestEncodeSRGB(t *testing.T) {
	tests := []struct {
		in   float32
		want uint8
	}{
		{0, 0},
		{1, 255},
		{0.5, 188},
		{0.22, 129},
		{10, 255},
	}
	for _, tt := range tests {
		if got := EncodeSRGB(tt.in); got != tt.want {
			t.Errorf("EncodeSRGB(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNullDeviceHandle(t *testing.T) {
	var h DeviceHandle = NullDeviceHandle{}
	if h.Device() != nil || h.Queue() != nil || h.Adapter() != nil {
		t.Error("NullDeviceHandle returned a resource")
	}
	if h.AdapterInfo().Type != gpucontext.AdapterTypeUnknown {
		t.Errorf("AdapterInfo().Type = %v", h.AdapterInfo().Type)
	}
	if h.SurfaceFormat() != gputypes.TextureFormatUndefined {
		t.Errorf("SurfaceFormat() = %v", h.SurfaceFormat())
	}
	if !IsNull(h) || !IsNull(nil) {
		t.Error("IsNull() = false for a null handle")
	}
}
