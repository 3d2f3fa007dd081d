//go:build !nogpu

// Package gpu provides the accelerated scene backend. Building with the
// nogpu tag swaps in a stub whose Init always fails, forcing the
// software fallback.
package gpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"
	log "github.com/sirupsen/logrus"

	// Registers GPU acceleration for gg contexts when an adapter exists.
	_ "github.com/gogpu/gg/gpu"
)

// BackendName identifies the accelerated backend.
const BackendName = "wgpu"

// Backend acquires a wgpu adapter, device, and queue. A failed Init
// leaves the backend unusable and the caller falls through to the next
// backend in its list.
type Backend struct {
	mu sync.Mutex

	instance *core.Instance
	adapter  core.AdapterID
	device   core.DeviceID
	queue    core.QueueID

	ready bool
}

// New returns an uninitialized backend. Init must succeed before the
// backend counts as mounted.
func New() *Backend {
	return &Backend{}
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return BackendName
}

// Init creates the GPU resource chain: instance, adapter, device,
// queue. Any step failing unwinds what was acquired and returns the
// error.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ready {
		return nil
	}

	b.instance = core.NewInstance(&gputypes.InstanceDescriptor{
		Backends: gputypes.BackendsPrimary,
	})

	adapterID, err := b.instance.RequestAdapter(&gputypes.RequestAdapterOptions{
		PowerPreference: gputypes.PowerPreferenceHighPerformance,
	})
	if err != nil {
		b.instance = nil
		return fmt.Errorf("no gpu adapter: %w", err)
	}
	b.adapter = adapterID

	if info, err := core.GetAdapterInfo(adapterID); err == nil {
		log.Infof("gpu adapter: %s (%s, %s)", info.Name, info.DeviceType, info.Backend)
	}

	deviceID, err := core.RequestDevice(adapterID, &gputypes.DeviceDescriptor{
		Label:          "moviola-scene-device",
		RequiredLimits: gputypes.DefaultLimits(),
	})
	if err != nil {
		b.releaseLocked()
		return fmt.Errorf("device creation failed: %w", err)
	}
	b.device = deviceID

	queueID, err := core.GetDeviceQueue(deviceID)
	if err != nil {
		b.releaseLocked()
		return fmt.Errorf("queue retrieval failed: %w", err)
	}
	b.queue = queueID

	b.ready = true
	return nil
}

// Close releases the device and adapter in reverse acquisition order.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseLocked()
	b.ready = false
}

func (b *Backend) releaseLocked() {
	if !b.device.IsZero() {
		if err := core.DeviceDrop(b.device); err != nil {
			log.Warnf("gpu device release: %v", err)
		}
		b.device = core.DeviceID{}
	}
	if !b.adapter.IsZero() {
		if err := core.AdapterDrop(b.adapter); err != nil {
			log.Warnf("gpu adapter release: %v", err)
		}
		b.adapter = core.AdapterID{}
	}
	b.queue = core.QueueID{}
	b.instance = nil
}
