package asvgf

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/asvgf/gpucore"
	"github.com/gogpu/asvgf/internal/filter"
	"github.com/gogpu/asvgf/render"
)

// BackendProvider creates stage backends for passes.
//
// The CPU provider is always registered. GPU providers are added by blank
// import:
//
//	import _ "github.com/gogpu/asvgf/gpu" // enables the wgpu backend
type BackendProvider interface {
	// Name identifies the provider, e.g. "cpu" or "wgpu".
	Name() string

	// NewBackend creates a backend. device may be render.NullDeviceHandle,
	// in which case the provider creates or reuses its own device.
	NewBackend(device render.DeviceHandle, workers int) (gpucore.Backend, error)
}

// CPUBackendName is the name of the built-in CPU provider.
const CPUBackendName = "cpu"

type cpuProvider struct{}

func (cpuProvider) Name() string { return CPUBackendName }

func (cpuProvider) NewBackend(_ render.DeviceHandle, workers int) (gpucore.Backend, error) {
	return filter.NewCPU(workers), nil
}

var (
	providerMu sync.RWMutex
	providers  = map[string]BackendProvider{CPUBackendName: cpuProvider{}}
	preferred  string
)

// RegisterBackend adds a backend provider. Registering a name twice
// replaces the earlier provider. The most recently registered non-CPU
// provider becomes the default for passes that do not name a backend.
//
// Typical usage from a backend package:
//
//	func init() {
//	    asvgf.RegisterBackend(&provider{})
//	}
func RegisterBackend(p BackendProvider) error {
	if p == nil {
		return errors.New("asvgf: backend provider must not be nil")
	}
	name := p.Name()
	if name == "" {
		return errors.New("asvgf: backend provider must have a name")
	}
	providerMu.Lock()
	providers[name] = p
	if name != CPUBackendName {
		preferred = name
	}
	providerMu.Unlock()
	propagateLogger(p, Logger())
	Logger().Debug("asvgf: backend registered", "name", name)
	return nil
}

// Backends returns the names of all registered providers, sorted.
func Backends() []string {
	providerMu.RLock()
	defer providerMu.RUnlock()
	names := make([]string, 0, len(providers))
	for n := range providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func lookupBackend(name string) (BackendProvider, error) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	if name == "" {
		name = preferred
		if name == "" {
			name = CPUBackendName
		}
	}
	p, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return p, nil
}

// newBackend creates the backend for a pass. When an explicitly named
// backend fails it is an error; when the default GPU provider fails the
// pass falls back to the CPU.
func newBackend(name string, device render.DeviceHandle, workers int) (gpucore.Backend, error) {
	p, err := lookupBackend(name)
	if err != nil {
		return nil, err
	}
	b, err := p.NewBackend(device, workers)
	if err == nil {
		Logger().Info("asvgf: backend selected", "name", b.Name())
		return b, nil
	}
	if name != "" || p.Name() == CPUBackendName {
		return nil, fmt.Errorf("asvgf: create %s backend: %w", p.Name(), err)
	}
	Logger().Warn("asvgf: backend unavailable, falling back to CPU", "name", p.Name(), "err", err)
	return filter.NewCPU(workers), nil
}
