package imagediff

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle provides GPU device access from the host application.
//
// This interface is the integration point between imagediff and GPU
// frameworks like gogpu: a host that already owns a GPU device implements
// DeviceHandle and hands it to the engine, so ModeGPU comparisons run on the
// shared device instead of creating a second one.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider, providing an
// engine-specific name for the interface while maintaining full
// compatibility with the gpucontext ecosystem.
type DeviceHandle = gpucontext.DeviceProvider

// SetDeviceHandle passes a host device handle to the registered GPU
// accelerator. It is the typed counterpart of SetAcceleratorDeviceProvider
// for hosts in the gpucontext ecosystem.
//
// A no-op when no accelerator is registered or the accelerator does not
// support device sharing.
func SetDeviceHandle(h DeviceHandle) error {
	if h == nil {
		return nil
	}
	return SetAcceleratorDeviceProvider(h)
}

// NullDeviceHandle is a DeviceHandle that provides nil implementations.
// Used when comparisons must stay on the CPU path.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// AdapterInfo returns zero-value adapter info for the null device.
func (NullDeviceHandle) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{}
}

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// Ensure NullDeviceHandle implements DeviceHandle.
var _ DeviceHandle = NullDeviceHandle{}
