package imagediff

import "testing"

func TestModeValid(t *testing.T) {
	valid := []Mode{ModePixel, ModeThreshold, ModeGrayscale, ModeOverlay, ModeHeatmap, ModeSemantic, ModeGPU}
	for _, m := range valid {
		if !m.Valid() {
			t.Errorf("Mode(%q).Valid() = false, want true", m)
		}
	}
	for _, m := range []Mode{"", "Pixel", "gpu", "ssim"} {
		if m.Valid() {
			t.Errorf("Mode(%q).Valid() = true, want false", m)
		}
	}
}

func TestModeGPUWireName(t *testing.T) {
	if ModeGPU != "webgl" {
		t.Errorf("ModeGPU wire name = %q, want the stable %q", ModeGPU, "webgl")
	}
}

func TestDiffOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    DiffOptions
		wantErr bool
	}{
		{"defaults", DefaultDiffOptions(), false},
		{"threshold low edge", DiffOptions{Mode: ModeThreshold, Threshold: 0}, false},
		{"threshold high edge", DiffOptions{Mode: ModeThreshold, Threshold: 255}, false},
		{"threshold negative", DiffOptions{Mode: ModeThreshold, Threshold: -1}, true},
		{"threshold too large", DiffOptions{Mode: ModeThreshold, Threshold: 256}, true},
		{"opacity low edge", DiffOptions{Mode: ModeOverlay, OverlayOpacity: 0}, false},
		{"opacity high edge", DiffOptions{Mode: ModeOverlay, OverlayOpacity: 1}, false},
		{"opacity negative", DiffOptions{Mode: ModeOverlay, OverlayOpacity: -0.1}, true},
		{"opacity too large", DiffOptions{Mode: ModeOverlay, OverlayOpacity: 1.1}, true},
		{"unknown mode", DiffOptions{Mode: "sepia"}, true},
		{"empty mode", DiffOptions{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultDiffOptions(t *testing.T) {
	opts := DefaultDiffOptions()
	if opts.Mode != ModePixel {
		t.Errorf("default mode = %q, want %q", opts.Mode, ModePixel)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("default options do not validate: %v", err)
	}
}
