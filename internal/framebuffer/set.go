package framebuffer

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// Target names, used as texture labels and in log output.
const (
	NameAccumIllum       = "AccumBuffer.illumination"
	NameAccumMoments     = "AccumBuffer.moments"
	NameAccumHistory     = "AccumBuffer.historyLength"
	NameAccumGeometry    = "AccumBuffer.linearZNormal"
	NamePing             = "PingBuffer"
	NamePong             = "PongBuffer"
	NameColorHistory     = "ColorHistory"
	NameColorUnfiltered  = "ColorHistoryUnfiltered"
	NameAntilagAlpha     = "AntilagAlphaBuffer"
	NameDiffPingGradient = "DiffPingBuffer.gradient"
	NameDiffPingGeometry = "DiffPingBuffer.geometry"
	NameDiffPongGradient = "DiffPongBuffer.gradient"
	NameDiffPongGeometry = "DiffPongBuffer.geometry"
)

// DefaultDownsample is the gradient downsample factor used when none is set.
const DefaultDownsample = 3

const (
	accumPrevNameSuffix = " (prev)"
	maxTextureDimension = 16384
)

// Errors returned by the buffer set.
var (
	// ErrInvalidSize is returned for non-positive or oversized dimensions.
	ErrInvalidSize = errors.New("framebuffer: invalid size")

	// ErrInvalidDownsample is returned for a gradient downsample factor below 1.
	ErrInvalidDownsample = errors.New("framebuffer: gradient downsample must be >= 1")

	// ErrBudgetExceeded is returned when an allocation would exceed the
	// configured memory budget.
	ErrBudgetExceeded = errors.New("framebuffer: memory budget exceeded")
)

// Accum is one accumulation buffer: four attachments sharing a resolution.
type Accum struct {
	Illum    *Texture // RGBA32Float, demodulated illumination
	Moments  *Texture // RG32Float, first and second luminance moments
	History  *Texture // R16Float, history length
	Geometry *Texture // RGBA32Float, linear depth and world normal
}

// Diff is one gradient buffer: two attachments at gradient resolution.
type Diff struct {
	Gradient *Texture // RGBA32Float: previous luma, current luma, validity
	Geometry *Texture // RGBA32Float: cell linear depth and normal
}

// Set owns every intermediate target of the denoiser.
//
// The accumulation, ping/pong and gradient pairs are stored as two-element
// arrays addressed through an index, so swapping never copies texel data.
// A Set is not safe for concurrent use.
type Set struct {
	downsample int
	budget     int

	width, height         int
	gradWidth, gradHeight int

	accum    [2]Accum
	accumCur int

	filter [2]*Texture

	ColorHistory           *Texture
	ColorHistoryUnfiltered *Texture
	AntilagAlpha           *Texture

	diff [2]Diff

	allocations int
}

// NewSet returns an unallocated buffer set using the given gradient
// downsample factor.
func NewSet(downsample int) (*Set, error) {
	if downsample < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDownsample, downsample)
	}
	return &Set{downsample: downsample}, nil
}

// SetBudget limits the total texture memory of the set in bytes.
// Zero disables the limit.
func (s *Set) SetBudget(bytes int) { s.budget = bytes }

// GradientRes returns the gradient-resolution extent for a full-resolution
// extent x: ceil(x / downsample).
func GradientRes(x, downsample int) int {
	return (x + downsample - 1) / downsample
}

// Downsample returns the gradient downsample factor.
func (s *Set) Downsample() int { return s.downsample }

// Size returns the full resolution. It is 0x0 before the first Allocate.
func (s *Set) Size() (width, height int) { return s.width, s.height }

// GradientSize returns the resolution of the gradient buffers.
func (s *Set) GradientSize() (width, height int) { return s.gradWidth, s.gradHeight }

// Allocated reports whether the full-resolution targets exist.
func (s *Set) Allocated() bool { return s.filter[0] != nil }

// Allocations returns how many target (re)allocations the set performed.
func (s *Set) Allocations() int { return s.allocations }

// Allocate (re)creates every target for a width x height render resolution.
// Contents of the new targets are zero. A set already allocated at
// width x height is left as is, contents included; use Clear to zero it.
// On error the previous targets are left untouched.
func (s *Set) Allocate(width, height int) error {
	if err := checkSize(width, height); err != nil {
		return err
	}
	if s.Allocated() && width == s.width && height == s.height {
		return nil
	}
	gw, gh := GradientRes(width, s.downsample), GradientRes(height, s.downsample)
	if s.budget > 0 {
		if need := RequiredBytes(width, height, s.downsample); need > s.budget {
			return fmt.Errorf("framebuffer: allocate %dx%d: %w (%d > %d bytes)",
				width, height, ErrBudgetExceeded, need, s.budget)
		}
	}

	var accum [2]Accum
	for i := range accum {
		suffix := ""
		if i == 1 {
			suffix = accumPrevNameSuffix
		}
		accum[i] = Accum{
			Illum:    NewTexture(NameAccumIllum+suffix, gputypes.TextureFormatRGBA32Float, width, height),
			Moments:  NewTexture(NameAccumMoments+suffix, gputypes.TextureFormatRG32Float, width, height),
			History:  NewTexture(NameAccumHistory+suffix, gputypes.TextureFormatR16Float, width, height),
			Geometry: NewTexture(NameAccumGeometry+suffix, gputypes.TextureFormatRGBA32Float, width, height),
		}
	}

	s.accum = accum
	s.accumCur = 0
	s.filter = [2]*Texture{
		NewTexture(NamePing, gputypes.TextureFormatRGBA16Float, width, height),
		NewTexture(NamePong, gputypes.TextureFormatRGBA16Float, width, height),
	}
	s.ColorHistory = NewTexture(NameColorHistory, gputypes.TextureFormatRGBA32Float, width, height)
	s.ColorHistoryUnfiltered = NewTexture(NameColorUnfiltered, gputypes.TextureFormatRGBA32Float, width, height)
	s.AntilagAlpha = NewTexture(NameAntilagAlpha, gputypes.TextureFormatRGBA8Unorm, width, height)
	s.width, s.height = width, height
	s.allocations++

	s.allocateDiff(gw, gh)

	logger().Debug("framebuffer: allocated",
		"width", width, "height", height,
		"gradWidth", gw, "gradHeight", gh,
		"bytes", s.Bytes())
	return nil
}

// EnsureGradientBuffers recomputes the gradient resolution for the given
// render size and reallocates the gradient ping/pong buffers only when it
// changed. It reports whether a reallocation happened.
func (s *Set) EnsureGradientBuffers(width, height int) (bool, error) {
	if err := checkSize(width, height); err != nil {
		return false, err
	}
	gw, gh := GradientRes(width, s.downsample), GradientRes(height, s.downsample)
	if s.diff[0].Gradient != nil && gw == s.gradWidth && gh == s.gradHeight {
		return false, nil
	}
	s.allocateDiff(gw, gh)
	logger().Debug("framebuffer: gradient buffers reallocated", "gradWidth", gw, "gradHeight", gh)
	return true, nil
}

func (s *Set) allocateDiff(gw, gh int) {
	s.diff = [2]Diff{
		{
			Gradient: NewTexture(NameDiffPingGradient, gputypes.TextureFormatRGBA32Float, gw, gh),
			Geometry: NewTexture(NameDiffPingGeometry, gputypes.TextureFormatRGBA32Float, gw, gh),
		},
		{
			Gradient: NewTexture(NameDiffPongGradient, gputypes.TextureFormatRGBA32Float, gw, gh),
			Geometry: NewTexture(NameDiffPongGeometry, gputypes.TextureFormatRGBA32Float, gw, gh),
		},
	}
	s.gradWidth, s.gradHeight = gw, gh
	s.allocations++
}

func checkSize(width, height int) error {
	if width <= 0 || height <= 0 || width > maxTextureDimension || height > maxTextureDimension {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return nil
}

// AccumBuffer returns the accumulation buffer written this frame.
func (s *Set) AccumBuffer() *Accum { return &s.accum[s.accumCur] }

// AccumBufferPrev returns the accumulation buffer written last frame.
func (s *Set) AccumBufferPrev() *Accum { return &s.accum[1-s.accumCur] }

// Swap exchanges AccumBuffer and AccumBufferPrev.
func (s *Set) Swap() { s.accumCur = 1 - s.accumCur }

// Ping returns the first spatial filter target.
func (s *Set) Ping() *Texture { return s.filter[0] }

// Pong returns the second spatial filter target.
func (s *Set) Pong() *Texture { return s.filter[1] }

// Filter returns the spatial filter target for ping/pong index i (0 or 1).
func (s *Set) Filter(i int) *Texture { return s.filter[i&1] }

// DiffPing returns the first gradient target pair.
func (s *Set) DiffPing() *Diff { return &s.diff[0] }

// DiffPong returns the second gradient target pair.
func (s *Set) DiffPong() *Diff { return &s.diff[1] }

// Diff returns the gradient target pair for ping/pong index i (0 or 1).
func (s *Set) Diff(i int) *Diff { return &s.diff[i&1] }

// Textures returns every allocated target.
func (s *Set) Textures() []*Texture {
	if !s.Allocated() {
		return nil
	}
	ts := make([]*Texture, 0, 15)
	for i := range s.accum {
		a := &s.accum[i]
		ts = append(ts, a.Illum, a.Moments, a.History, a.Geometry)
	}
	ts = append(ts, s.filter[0], s.filter[1], s.ColorHistory, s.ColorHistoryUnfiltered, s.AntilagAlpha)
	for i := range s.diff {
		ts = append(ts, s.diff[i].Gradient, s.diff[i].Geometry)
	}
	return ts
}

// Bytes returns the memory footprint of the set at declared formats.
func (s *Set) Bytes() int {
	n := 0
	for _, t := range s.Textures() {
		n += t.Bytes()
	}
	return n
}

// RequiredBytes returns the memory footprint of a set allocated for the
// given resolution.
func RequiredBytes(width, height, downsample int) int {
	full := width * height
	grad := GradientRes(width, downsample) * GradientRes(height, downsample)
	perAccum := 16 + 8 + 2 + 16
	return full*(2*perAccum+8+8+16+16+4) + grad*4*16
}

// Clear zeroes every target.
func (s *Set) Clear() {
	for _, t := range s.Textures() {
		t.Fill(0)
	}
}

// Release drops all targets. The set must be allocated again before use.
func (s *Set) Release() {
	s.accum = [2]Accum{}
	s.filter = [2]*Texture{}
	s.diff = [2]Diff{}
	s.ColorHistory, s.ColorHistoryUnfiltered, s.AntilagAlpha = nil, nil, nil
	s.width, s.height, s.gradWidth, s.gradHeight = 0, 0, 0, 0
}
