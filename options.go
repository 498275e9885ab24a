package imagediff

import "fmt"

// Mode selects which comparison strategy to apply.
//
// The string values double as the wire names used in offload messages, so
// they must stay stable. ModeGPU keeps the historical "webgl" wire name from
// the browser-based predecessor of this engine.
type Mode string

const (
	// ModePixel flags any pixel whose R, G or B differs exactly.
	ModePixel Mode = "pixel"

	// ModeThreshold flags pixels whose summed channel delta exceeds Threshold.
	ModeThreshold Mode = "threshold"

	// ModeGrayscale compares luminance values and renders matches in gray.
	ModeGrayscale Mode = "grayscale"

	// ModeOverlay blends both images and tints differing pixels red.
	ModeOverlay Mode = "overlay"

	// ModeHeatmap colors every pixel by difference magnitude on a
	// blue-cyan-green-yellow-red gradient.
	ModeHeatmap Mode = "heatmap"

	// ModeSemantic classifies differences into structural changes and
	// minor styling changes and renders them at different intensities.
	ModeSemantic Mode = "semantic"

	// ModeGPU requests the GPU-accelerated comparison path. Falls back to
	// ModePixel when no accelerator is available or the GPU pass fails.
	ModeGPU Mode = "webgl"
)

// Valid reports whether m is one of the defined comparison modes.
func (m Mode) Valid() bool {
	switch m {
	case ModePixel, ModeThreshold, ModeGrayscale, ModeOverlay,
		ModeHeatmap, ModeSemantic, ModeGPU:
		return true
	}
	return false
}

// DiffOptions configures a single comparison. Immutable per invocation.
type DiffOptions struct {
	// Mode selects the comparison strategy.
	Mode Mode

	// Threshold is the tolerance on the summed R+G+B channel delta,
	// in the range [0, 255]. Ignored by ModePixel.
	Threshold int

	// OverlayOpacity controls the strength of the red tint in ModeOverlay,
	// in the range [0, 1].
	OverlayOpacity float64

	// UseGrayscale renders matching pixels as grayscale. Display flag for
	// the CPU algorithms and the GPU pass.
	UseGrayscale bool
}

// DefaultDiffOptions returns options for a plain pixel-exact comparison.
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{
		Mode:           ModePixel,
		Threshold:      0,
		OverlayOpacity: 0.5,
	}
}

// Validate checks all option ranges. The orchestration layer calls this
// before any work starts; the per-pixel algorithms assume valid options.
func (o DiffOptions) Validate() error {
	if !o.Mode.Valid() {
		return fmt.Errorf("imagediff: unknown comparison mode %q", o.Mode)
	}
	if o.Threshold < 0 || o.Threshold > 255 {
		return fmt.Errorf("imagediff: threshold %d out of range [0, 255]", o.Threshold)
	}
	if o.OverlayOpacity < 0 || o.OverlayOpacity > 1 {
		return fmt.Errorf("imagediff: overlay opacity %g out of range [0, 1]", o.OverlayOpacity)
	}
	return nil
}
