// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/x448/float16"

	srgb "github.com/gogpu/asvgf/internal/color"
)

// ErrTargetSize is returned when written data does not cover the target.
var ErrTargetSize = errors.New("render: data does not match target size")

// Target is where the filtered image goes.
//
// WriteRGBA receives Width*Height*4 linear float values in row-major RGBA
// order and stores them in the target's own format.
type Target interface {
	// Width returns the target width in pixels.
	Width() int

	// Height returns the target height in pixels.
	Height() int

	// Format returns the pixel format of the target.
	Format() gputypes.TextureFormat

	// WriteRGBA replaces the target contents.
	WriteRGBA(data []float32) error
}

// HalfFloatTarget is a CPU-backed RGBA16Float render target.
//
// Example:
//
//	out := render.NewHalfFloatTarget(1280, 720)
//	if err := pass.Execute(ctx, frame, out); err != nil {
//		return err
//	}
//	r, g, b, a := out.At(10, 10)
type HalfFloatTarget struct {
	width, height int
	pix           []float16.Float16
}

// NewHalfFloatTarget creates a zeroed RGBA16Float target.
func NewHalfFloatTarget(width, height int) *HalfFloatTarget {
	return &HalfFloatTarget{
		width:  width,
		height: height,
		pix:    make([]float16.Float16, width*height*4),
	}
}

// Width returns the target width in pixels.
func (t *HalfFloatTarget) Width() int { return t.width }

// Height returns the target height in pixels.
func (t *HalfFloatTarget) Height() int { return t.height }

// Format returns gputypes.TextureFormatRGBA16Float.
func (t *HalfFloatTarget) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA16Float
}

// WriteRGBA converts data to half precision and stores it.
func (t *HalfFloatTarget) WriteRGBA(data []float32) error {
	if len(data) != len(t.pix) {
		return fmt.Errorf("%w: got %d values for %dx%d", ErrTargetSize, len(data), t.width, t.height)
	}
	for i, v := range data {
		t.pix[i] = float16.Fromfloat32(v)
	}
	return nil
}

// At returns the color at (x, y) widened to float32.
func (t *HalfFloatTarget) At(x, y int) (r, g, b, a float32) {
	i := (y*t.width + x) * 4
	return t.pix[i].Float32(), t.pix[i+1].Float32(), t.pix[i+2].Float32(), t.pix[i+3].Float32()
}

// Float32 returns the whole image widened to float32, row-major RGBA.
func (t *HalfFloatTarget) Float32() []float32 {
	out := make([]float32, len(t.pix))
	for i, h := range t.pix {
		out[i] = h.Float32()
	}
	return out
}

// Pixels returns the raw little-endian half-float bytes, as a GPU upload of
// an RGBA16Float texture would see them.
func (t *HalfFloatTarget) Pixels() []byte {
	b := make([]byte, len(t.pix)*2)
	for i, h := range t.pix {
		binary.LittleEndian.PutUint16(b[i*2:], h.Bits())
	}
	return b
}

// Stride returns the number of bytes per row of Pixels.
func (t *HalfFloatTarget) Stride() int { return t.width * 8 }

// Resize reallocates the target when its size changes. Contents are
// cleared on reallocation.
func (t *HalfFloatTarget) Resize(width, height int) {
	if width == t.width && height == t.height {
		return
	}
	*t = *NewHalfFloatTarget(width, height)
}

// PixmapTarget is a CPU-backed 8-bit preview target. Linear input is
// clamped and encoded to sRGB.
type PixmapTarget struct {
	img *image.RGBA
}

// NewPixmapTarget creates a new preview target.
func NewPixmapTarget(width, height int) *PixmapTarget {
	return &PixmapTarget{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Width returns the target width in pixels.
func (t *PixmapTarget) Width() int { return t.img.Bounds().Dx() }

// Height returns the target height in pixels.
func (t *PixmapTarget) Height() int { return t.img.Bounds().Dy() }

// Format returns gputypes.TextureFormatRGBA8Unorm.
func (t *PixmapTarget) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// WriteRGBA encodes data into the image.
func (t *PixmapTarget) WriteRGBA(data []float32) error {
	w, h := t.Width(), t.Height()
	if len(data) != w*h*4 {
		return fmt.Errorf("%w: got %d values for %dx%d", ErrTargetSize, len(data), w, h)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			t.img.SetRGBA(x, y, color.RGBA{
				R: EncodeSRGB(data[i]),
				G: EncodeSRGB(data[i+1]),
				B: EncodeSRGB(data[i+2]),
				A: uint8(math.Round(float64(clamp01(data[i+3])) * 255)),
			})
		}
	}
	return nil
}

// Image returns the underlying image.
func (t *PixmapTarget) Image() *image.RGBA { return t.img }

// EncodeSRGB converts a linear value to an 8-bit sRGB code. Values outside
// [0, 1] are clamped.
func EncodeSRGB(v float32) uint8 { return srgb.EncodeSRGB(v) }

func clamp01(v float32) float32 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var (
	_ Target = (*HalfFloatTarget)(nil)
	_ Target = (*PixmapTarget)(nil)
)
