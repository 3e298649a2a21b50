// Package gbuffer describes the per-frame inputs the denoiser consumes from
// the renderer: noisy radiance plus the geometric buffers used for
// reprojection and edge stopping.
package gbuffer

import (
	"errors"
	"fmt"

	"golang.org/x/image/math/f32"
)

// ErrMissingInput is returned when a required plane is absent.
var ErrMissingInput = errors.New("gbuffer: missing input plane")

// ErrPlaneSize is returned when a plane's length disagrees with the frame size.
var ErrPlaneSize = errors.New("gbuffer: plane size does not match frame")

// GradientSample is a renderer-provided gradient sample: the pixel chosen
// for its stratum and the luminance obtained by shading it again with the
// previous frame's scene and random sequence.
type GradientSample struct {
	X, Y     int
	PrevLuma float32
	Valid    bool
}

// Frame holds one frame of renderer output. All per-pixel slices are row
// major with Width*Height entries (times four for RGBA planes).
type Frame struct {
	Width, Height int

	// Color is the noisy path-traced radiance, RGBA.
	Color []float32

	// Albedo is the first-hit surface albedo, RGBA. Optional; treated as
	// white when nil.
	Albedo []float32

	// Normal is the world-space shading normal of the first hit. Zero for
	// pixels without geometry.
	Normal []f32.Vec3

	// Depth is the linear view depth of the first hit. Values <= 0 mark
	// pixels without geometry.
	Depth []float32

	// Motion is the screen-space offset in pixels from each pixel to its
	// position in the previous frame.
	Motion []f32.Vec2

	// GradientSamples optionally carries one sample per gradient cell in
	// row-major cell order. When nil the denoiser derives gradients from
	// reprojected unfiltered history.
	GradientSamples []GradientSample
}

// NewFrame allocates a frame with every plane present.
func NewFrame(width, height int) *Frame {
	n := width * height
	return &Frame{
		Width:  width,
		Height: height,
		Color:  make([]float32, n*4),
		Albedo: make([]float32, n*4),
		Normal: make([]f32.Vec3, n),
		Depth:  make([]float32, n),
		Motion: make([]f32.Vec2, n),
	}
}

// Validate checks that every present plane matches the frame size and that
// the required planes exist.
func (f *Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrPlaneSize, f.Width, f.Height)
	}
	n := f.Width * f.Height
	switch {
	case f.Color == nil:
		return fmt.Errorf("%w: color", ErrMissingInput)
	case f.Normal == nil:
		return fmt.Errorf("%w: normal", ErrMissingInput)
	case f.Depth == nil:
		return fmt.Errorf("%w: depth", ErrMissingInput)
	case f.Motion == nil:
		return fmt.Errorf("%w: motion", ErrMissingInput)
	}
	checks := []struct {
		name      string
		got, want int
	}{
		{"color", len(f.Color), n * 4},
		{"normal", len(f.Normal), n},
		{"depth", len(f.Depth), n},
		{"motion", len(f.Motion), n},
	}
	if f.Albedo != nil {
		checks = append(checks, struct {
			name      string
			got, want int
		}{"albedo", len(f.Albedo), n * 4})
	}
	for _, c := range checks {
		if c.got != c.want {
			return fmt.Errorf("%w: %s has %d values, want %d", ErrPlaneSize, c.name, c.got, c.want)
		}
	}
	return nil
}

// SetColor stores an RGBA radiance sample for pixel (x, y).
func (f *Frame) SetColor(x, y int, r, g, b, a float32) {
	i := (y*f.Width + x) * 4
	f.Color[i], f.Color[i+1], f.Color[i+2], f.Color[i+3] = r, g, b, a
}

// SetAlbedo stores the albedo of pixel (x, y).
func (f *Frame) SetAlbedo(x, y int, r, g, b float32) {
	i := (y*f.Width + x) * 4
	f.Albedo[i], f.Albedo[i+1], f.Albedo[i+2], f.Albedo[i+3] = r, g, b, 1
}

// SetSurface stores depth and normal of pixel (x, y).
func (f *Frame) SetSurface(x, y int, depth float32, n f32.Vec3) {
	i := y*f.Width + x
	f.Depth[i] = depth
	f.Normal[i] = n
}

// SetMotion stores the motion vector of pixel (x, y).
func (f *Frame) SetMotion(x, y int, m f32.Vec2) {
	f.Motion[y*f.Width+x] = m
}

// Luma returns the Rec. 709 luminance of the color at (x, y).
func (f *Frame) Luma(x, y int) float32 {
	i := (y*f.Width + x) * 4
	return 0.2126*f.Color[i] + 0.7152*f.Color[i+1] + 0.0722*f.Color[i+2]
}
