//go:build !nogpu

package gpu

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/asvgf"
	"github.com/gogpu/asvgf/gpucore"
	gpuimpl "github.com/gogpu/asvgf/internal/gpu"
	"github.com/gogpu/asvgf/render"
)

// BackendName is the name the wgpu backend is registered under.
const BackendName = gpuimpl.Name

func init() {
	if err := asvgf.RegisterBackend(provider{}); err != nil {
		asvgf.Logger().Warn("GPU backend not available", "err", err)
	}
}

// provider creates wgpu backends for passes.
type provider struct{}

func (provider) Name() string { return BackendName }

func (provider) NewBackend(device render.DeviceHandle, workers int) (gpucore.Backend, error) {
	return gpuimpl.New(device, workers)
}

func (provider) SetLogger(l *slog.Logger) { gpuimpl.SetLogger(l) }

// SetDeviceProvider makes passes that are not given a device dispatch on
// the shared device of an external provider (e.g., gogpu) instead of
// opening their own.
//
// The provider must be a render.DeviceHandle whose Device() returns a
// *wgpu.Device. Pass nil to go back to private devices.
func SetDeviceProvider(provider any) error {
	if provider == nil {
		return gpuimpl.SetDeviceProvider(nil)
	}
	h, ok := provider.(render.DeviceHandle)
	if !ok {
		return fmt.Errorf("gpu: %T is not a device provider: %w", provider, gpuimpl.ErrSharedDevice)
	}
	return gpuimpl.SetDeviceProvider(h)
}
