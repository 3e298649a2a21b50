package asvgf

import (
	"github.com/gogpu/asvgf/gpucore"
	"github.com/gogpu/asvgf/internal/framebuffer"
	"github.com/gogpu/asvgf/render"
)

// Option configures a Pass during creation.
//
// Example:
//
//	// Default CPU pass
//	p, err := asvgf.New()
//
//	// Gradient buffers at full resolution, custom thresholds
//	p, err := asvgf.New(
//		asvgf.WithGradientDownsample(1),
//		asvgf.WithThresholds(th),
//	)
type Option func(*options)

type options struct {
	params      Params
	downsample  int
	backend     gpucore.Backend
	backendName string
	device      render.DeviceHandle
	workers     int
	thresholds  Thresholds
	budget      int
}

func defaultOptions() options {
	return options{
		params:     DefaultParams(),
		downsample: framebuffer.DefaultDownsample,
		device:     render.NullDeviceHandle{},
		thresholds: DefaultThresholds(),
	}
}

// WithParams sets the initial filter parameters. They are clamped.
func WithParams(p Params) Option {
	return func(o *options) {
		o.params = p.Sanitize()
	}
}

// WithGradientDownsample sets the ratio between render and gradient
// resolution. It must be at least 1; New rejects smaller values.
func WithGradientDownsample(d int) Option {
	return func(o *options) {
		o.downsample = d
	}
}

// WithBackend injects a backend. The pass does not close a backend it
// did not create.
func WithBackend(b gpucore.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithBackendName selects a registered backend provider by name.
// See [Backends].
func WithBackendName(name string) Option {
	return func(o *options) {
		o.backendName = name
	}
}

// WithDevice shares an existing GPU device with the backend.
func WithDevice(d render.DeviceHandle) Option {
	return func(o *options) {
		if d != nil {
			o.device = d
		}
	}
}

// WithWorkers sets the CPU worker count. Zero or less uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithThresholds sets history rejection and edge-stopping parameters.
func WithThresholds(t Thresholds) Option {
	return func(o *options) {
		o.thresholds = t
	}
}

// WithMemoryBudget limits the total size of the intermediate targets in
// bytes. Allocation beyond the budget fails. Zero means unlimited.
func WithMemoryBudget(bytes int) Option {
	return func(o *options) {
		o.budget = bytes
	}
}
