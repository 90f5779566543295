package gpu

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rrect"
	"github.com/gogpu/wgpu/hal"
)

// PowerPreference selects between adapters when more than one is present.
type PowerPreference int

const (
	// PowerLowPower prefers integrated adapters.
	PowerLowPower PowerPreference = iota
	// PowerHighPerformance prefers discrete adapters.
	PowerHighPerformance
)

// String returns "low-power" or "high-performance".
func (p PowerPreference) String() string {
	if p == PowerHighPerformance {
		return "high-performance"
	}
	return "low-power"
}

// Preference returns the matching gputypes preference for hosts that
// select the adapter themselves.
func (p PowerPreference) Preference() gputypes.PowerPreference {
	if p == PowerHighPerformance {
		return gputypes.PowerPreferenceHighPerformance
	}
	return gputypes.PowerPreferenceLowPower
}

// Backend names accepted by DeviceOptions. The empty name means Vulkan.
const (
	BackendVulkan = "vulkan"
	BackendNoop   = "noop"
)

// BackendVariant maps a backend name to its HAL variant.
func BackendVariant(name string) (gputypes.Backend, error) {
	switch name {
	case "", BackendVulkan:
		return gputypes.BackendVulkan, nil
	case BackendNoop:
		return gputypes.BackendEmpty, nil
	default:
		return 0, fmt.Errorf("gpu: unknown backend %q", name)
	}
}

// ErrNoAdapter is returned when the backend exposes no usable adapter.
var ErrNoAdapter = errors.New("gpu: no compatible adapter found")

// gpuWaitTimeout bounds every wait for submitted work.
const gpuWaitTimeout = 5 * time.Second

const pollInterval = 100 * time.Microsecond

// waitSubmission blocks until queue reports submission index as
// completed. Index 0 means nothing was submitted.
func waitSubmission(queue hal.Queue, index uint64, timeout time.Duration) error {
	if index == 0 {
		return nil
	}
	deadline := time.Now().Add(timeout)
	for queue.PollCompleted() < index {
		if time.Now().After(deadline) {
			return fmt.Errorf("submission %d: %w", index, rrect.ErrSurfaceTimeout)
		}
		time.Sleep(pollInterval)
	}
	return nil
}

// instanceFactory is the part of a HAL backend needed to open a device.
type instanceFactory interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

// Device is an opened GPU device and its queue. A Device either owns the
// instance and device it opened, or borrows them from a host that shares
// its GPU context; borrowed devices are never destroyed by Close.
type Device struct {
	Device hal.Device
	Queue  hal.Queue
	Name   string

	instance hal.Instance
	external bool
}

// DeviceOptions selects the adapter OpenDevice negotiates.
type DeviceOptions struct {
	Backend string
	Power   PowerPreference
}

// OpenDevice opens a standalone device on the requested backend, which
// must have been registered with the HAL. It blocks until the adapter has
// been opened; ctx is checked before and after negotiation.
func OpenDevice(ctx context.Context, opts DeviceOptions) (*Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	variant, err := BackendVariant(opts.Backend)
	if err != nil {
		return nil, err
	}
	backend, ok := hal.GetBackend(variant)
	if !ok {
		return nil, fmt.Errorf("%w: %s backend not registered", ErrNoAdapter, variant)
	}
	d, err := openDevice(backend, opts.Power)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func openDevice(factory instanceFactory, power PowerPreference) (*Device, error) {
	instance, err := factory.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	selected := selectAdapter(adapters, power)

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}
	slogger().Info("gpu: device opened",
		"adapter", selected.Info.Name, "power", power.String())
	return &Device{
		Device:   openDev.Device,
		Queue:    openDev.Queue,
		Name:     selected.Info.Name,
		instance: instance,
	}, nil
}

// selectAdapter picks the first adapter whose type matches the power
// preference, then any hardware adapter, then the first one listed.
func selectAdapter(adapters []hal.ExposedAdapter, power PowerPreference) *hal.ExposedAdapter {
	preferred, fallback := gputypes.DeviceTypeIntegratedGPU, gputypes.DeviceTypeDiscreteGPU
	if power == PowerHighPerformance {
		preferred, fallback = fallback, preferred
	}
	for _, want := range []gputypes.DeviceType{preferred, fallback} {
		for i := range adapters {
			if adapters[i].Info.DeviceType == want {
				return &adapters[i]
			}
		}
	}
	return &adapters[0]
}

// DeviceFromProvider borrows the device and queue of a host that exposes
// HalDevice() any and HalQueue() any, such as a gogpu application.
func DeviceFromProvider(provider any) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}
	return &Device{Device: device, Queue: queue, Name: "shared", external: true}, nil
}

// External reports whether the device is borrowed from a host.
func (d *Device) External() bool { return d.external }

// Close destroys the device and instance if they are owned.
func (d *Device) Close() {
	if d.external {
		d.Device = nil
		d.Queue = nil
		return
	}
	if d.Device != nil {
		d.Device.Destroy()
		d.Device = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
	d.Queue = nil
}
