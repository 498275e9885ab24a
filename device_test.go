package imagediff

import (
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

func TestNullDeviceHandle(t *testing.T) {
	var h DeviceHandle = NullDeviceHandle{}

	if h.Device() != nil {
		t.Error("Device() != nil for null handle")
	}
	if h.Queue() != nil {
		t.Error("Queue() != nil for null handle")
	}
	if h.Adapter() != nil {
		t.Error("Adapter() != nil for null handle")
	}
	if got := h.SurfaceFormat(); got != gputypes.TextureFormatUndefined {
		t.Errorf("SurfaceFormat() = %v, want undefined", got)
	}
	if got := h.AdapterInfo(); got != (gpucontext.AdapterInfo{}) {
		t.Errorf("AdapterInfo() = %+v, want zero value", got)
	}
}

func TestDeviceHandleAliasCompatibility(t *testing.T) {
	// DeviceHandle must stay interchangeable with gpucontext.DeviceProvider.
	acceptProvider := func(_ gpucontext.DeviceProvider) {}
	acceptProvider(NullDeviceHandle{})

	acceptHandle := func(_ DeviceHandle) {}
	var p gpucontext.DeviceProvider = NullDeviceHandle{}
	acceptHandle(p)
}

func TestSetDeviceHandleNoAccelerator(t *testing.T) {
	if err := SetDeviceHandle(nil); err != nil {
		t.Errorf("SetDeviceHandle(nil) = %v, want nil", err)
	}
	// No accelerator registered: sharing is a no-op, not an error.
	if err := SetDeviceHandle(NullDeviceHandle{}); err != nil {
		t.Errorf("SetDeviceHandle with no accelerator = %v, want nil", err)
	}
}
