package asvgf

import (
	"errors"

	"github.com/gogpu/asvgf/internal/framebuffer"
)

// Errors returned by the pass.
var (
	// ErrNotReady is returned by Execute before the pass is compiled and
	// bound to a scene.
	ErrNotReady = errors.New("asvgf: pass is not ready")

	// ErrMissingOutput is returned when Execute has no output target.
	ErrMissingOutput = errors.New("asvgf: missing output target")

	// ErrMissingInput is returned when a required frame input is absent.
	ErrMissingInput = errors.New("asvgf: missing input")

	// ErrDimensionMismatch is returned when the frame and output sizes differ.
	ErrDimensionMismatch = errors.New("asvgf: frame and output dimensions differ")

	// ErrInvalidSize is returned for non-positive or oversized resolutions.
	ErrInvalidSize = framebuffer.ErrInvalidSize

	// ErrInvalidDownsample is returned for a gradient downsample factor below 1.
	ErrInvalidDownsample = framebuffer.ErrInvalidDownsample

	// ErrBudgetExceeded is returned when the targets would exceed the
	// memory budget set with WithMemoryBudget.
	ErrBudgetExceeded = framebuffer.ErrBudgetExceeded

	// ErrUnknownBackend is returned when a named backend is not registered.
	ErrUnknownBackend = errors.New("asvgf: unknown backend")

	// ErrInvalidProperty is returned when a property value has the wrong type.
	ErrInvalidProperty = errors.New("asvgf: invalid property value")

	// ErrClosed is returned by methods called after Close.
	ErrClosed = errors.New("asvgf: pass is closed")
)
