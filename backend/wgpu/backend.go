package wgpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/postfx/backend"
	"github.com/gogpu/postfx/gpucore"
)

// ErrNoDeviceProvider is returned when the backend is initialized without
// a device source. The wgpu backend never creates its own GPU instance;
// the host hands one over through SetDeviceProvider.
var ErrNoDeviceProvider = errors.New("wgpu: no device provider configured")

var (
	providerMu      sync.Mutex
	pendingProvider gpucontext.DeviceProvider
)

// SetDeviceProvider configures the device source used the next time the
// backend initializes. The provider must also expose HAL types through
// HalDevice() any and HalQueue() any, as gogpu providers do.
//
// Call this before backend.InitDefault, typically right after the host
// window and GPU context come up.
func SetDeviceProvider(provider gpucontext.DeviceProvider) {
	providerMu.Lock()
	pendingProvider = provider
	providerMu.Unlock()
}

// halFromProvider extracts hal.Device and hal.Queue from a device provider.
func halFromProvider(provider gpucontext.DeviceProvider) (hal.Device, hal.Queue, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, nil, fmt.Errorf("wgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, fmt.Errorf("wgpu: provider HalQueue is not hal.Queue")
	}
	return device, queue, nil
}

// wgpuBackend implements backend.Backend over a shared hal device.
type wgpuBackend struct {
	mu      sync.Mutex
	adapter *HALAdapter
}

// Name returns the backend identifier.
func (b *wgpuBackend) Name() string {
	return backend.BackendWGPU
}

// Init acquires the configured device provider and builds the adapter.
func (b *wgpuBackend) Init() error {
	providerMu.Lock()
	provider := pendingProvider
	providerMu.Unlock()

	if provider == nil {
		return fmt.Errorf("%w: %w", backend.ErrBackendNotAvailable, ErrNoDeviceProvider)
	}

	device, queue, err := halFromProvider(provider)
	if err != nil {
		return fmt.Errorf("%w: %w", backend.ErrBackendNotAvailable, err)
	}

	b.mu.Lock()
	b.adapter = NewHALAdapter(device, queue, nil)
	b.mu.Unlock()

	return nil
}

// Close releases the adapter. The shared device stays with its provider.
func (b *wgpuBackend) Close() {
	b.mu.Lock()
	adapter := b.adapter
	b.adapter = nil
	b.mu.Unlock()

	if adapter != nil {
		adapter.Destroy()
	}
}

// Adapter returns the GPU adapter, or nil before Init.
func (b *wgpuBackend) Adapter() gpucore.GPUAdapter {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.adapter == nil {
		return nil
	}
	return b.adapter
}

func init() {
	backend.Register(backend.BackendWGPU, func() backend.Backend {
		return &wgpuBackend{}
	})
}
