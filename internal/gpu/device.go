//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/asvgf/render"
)

var (
	// ErrNoDevice is returned when no GPU adapter could be opened.
	ErrNoDevice = errors.New("gpu: no GPU device available")

	// ErrSharedDevice is returned when a device handle does not expose a
	// HAL device and queue.
	ErrSharedDevice = errors.New("gpu: device handle does not expose HAL types")
)

// halSource is implemented by *wgpu.Device.
type halSource interface {
	HalDevice() hal.Device
	HalQueue() hal.Queue
}

var (
	providerMu      sync.Mutex
	defaultProvider render.DeviceHandle
)

// SetDeviceProvider makes backends created with a null device handle
// dispatch on provider's device instead of opening a private one. Pass nil
// to go back to private devices. Backends that already exist keep their
// device.
func SetDeviceProvider(provider render.DeviceHandle) error {
	if provider != nil {
		if _, _, err := sharedHAL(provider); err != nil {
			return err
		}
	}
	providerMu.Lock()
	defaultProvider = provider
	providerMu.Unlock()
	return nil
}

func currentProvider() render.DeviceHandle {
	providerMu.Lock()
	defer providerMu.Unlock()
	return defaultProvider
}

// sharedHAL extracts the HAL device and queue behind a device handle.
func sharedHAL(h render.DeviceHandle) (hal.Device, hal.Queue, error) {
	if render.IsNull(h) {
		return nil, nil, fmt.Errorf("%w: null device", ErrSharedDevice)
	}
	hs, ok := h.Device().(halSource)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %T", ErrSharedDevice, h.Device())
	}
	device, queue := hs.HalDevice(), hs.HalQueue()
	if device == nil || queue == nil {
		return nil, nil, fmt.Errorf("%w: device released", ErrSharedDevice)
	}
	return device, queue, nil
}

// privateDevice is a Vulkan device opened by the backend itself.
type privateDevice struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	adapter  string
}

// openVulkan opens the first discrete or integrated adapter, falling back
// to whatever adapter comes first.
func openVulkan() (*privateDevice, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not available", ErrNoDevice)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", ErrNoDevice, err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: no adapters found", ErrNoDevice)
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	open, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("%w: open %s: %w", ErrNoDevice, selected.Info.Name, err)
	}
	return &privateDevice{
		instance: instance,
		device:   open.Device,
		queue:    open.Queue,
		adapter:  selected.Info.Name,
	}, nil
}
