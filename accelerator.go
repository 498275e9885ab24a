package imagediff

import (
	"errors"
	"sync"
)

// ErrFallbackToCPU indicates the accelerator cannot handle this comparison.
// The orchestrator falls back to the CPU pixel comparison transparently.
var ErrFallbackToCPU = errors.New("imagediff: falling back to CPU comparison")

// Accelerator is an optional GPU comparison provider.
//
// When registered via RegisterAccelerator, ModeGPU comparisons are routed to
// the accelerator first. If it returns ErrFallbackToCPU or any other error,
// the orchestrator logs the failure and falls back to the CPU pixel
// comparison. A failed GPU attempt must never leave a half-written output
// surface behind as if it were a valid result.
//
// Implementations are provided by GPU backend packages. Users opt in via
// blank import:
//
//	import _ "github.com/gogpu/imagediff/gpu" // enables GPU comparison
type Accelerator interface {
	// Name returns the accelerator name (e.g., "wgpu-diff").
	Name() string

	// Init initializes GPU resources. Called once during registration.
	// A missing capability (no usable adapter, shader compilation failure)
	// is reported here, not at comparison time.
	Init() error

	// Close releases GPU resources.
	Close()

	// Ready reports whether the device passed its capability check and the
	// comparison pipeline is usable. A fast check the orchestrator uses to
	// skip the GPU attempt entirely.
	Ready() bool

	// RenderDiff compares two equal-dimension pixmaps on the GPU, resizes
	// out to the common dimensions and writes the rendered comparison into
	// it. Returns an exact difference count.
	//
	// On any error the output surface is left untouched and all device
	// objects acquired during the pass have been released.
	RenderDiff(a, b *Pixmap, out OutputSurface, opts DiffOptions) (DiffResult, error)
}

// DeviceProviderAware is an optional interface for accelerators that can
// share a GPU device with an external provider (e.g., a gogpu window)
// instead of creating their own.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	accelMu sync.RWMutex
	accel   Accelerator
)

// RegisterAccelerator registers a GPU accelerator for ModeGPU comparisons.
//
// Only one accelerator can be registered; subsequent calls replace the
// previous one and Close it. The accelerator's Init() method is called
// during registration; if it fails, the accelerator is not registered and
// the error is returned.
func RegisterAccelerator(a Accelerator) error {
	if a == nil {
		return errors.New("imagediff: accelerator must not be nil")
	}
	propagateLogger(a, Logger())
	if err := a.Init(); err != nil {
		return err
	}
	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

// RegisteredAccelerator returns the currently registered accelerator,
// or nil if none.
func RegisteredAccelerator() Accelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}

// SetAcceleratorDeviceProvider passes a device provider to the registered
// accelerator, enabling GPU device sharing. If no accelerator is registered
// or it doesn't support device sharing, this is a no-op.
//
// The provider should implement HalDevice() any and HalQueue() any methods
// returning wgpu/hal types.
func SetAcceleratorDeviceProvider(provider any) error {
	a := RegisteredAccelerator()
	if a == nil {
		return nil
	}
	if dpa, ok := a.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}
