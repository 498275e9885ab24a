//go:build !nogpu

// Package gpu registers the wgpu comparison accelerator for
// hardware-accelerated image diffing.
//
// Import this package to route ModeGPU comparisons through a compute
// shader. If GPU initialization fails (no Vulkan available, no adapters),
// registration is skipped with a warning and comparisons fall back to the
// CPU pixel strategy.
//
// Usage:
//
//	import _ "github.com/gogpu/imagediff/gpu" // enable GPU comparison
package gpu

import (
	"github.com/gogpu/imagediff"
	gpuimpl "github.com/gogpu/imagediff/internal/gpu"
)

func init() {
	accel := &gpuimpl.DiffAccelerator{}
	if err := imagediff.RegisterAccelerator(accel); err != nil {
		imagediff.Logger().Warn("GPU comparison accelerator not available", "err", err)
	}
}

// SetDeviceProvider configures the accelerator to use a shared GPU device
// from an external provider (e.g., a gogpu window) instead of creating its
// own. Call this after registration, before comparisons.
//
// The provider should expose HalDevice() any and HalQueue() any returning
// wgpu/hal types.
func SetDeviceProvider(provider any) error {
	return imagediff.SetAcceleratorDeviceProvider(provider)
}
