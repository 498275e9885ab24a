package imagediff

import "fmt"

// compareFunc is the contract shared by all CPU comparison strategies.
//
// a and b are read-only input buffers of identical length (a multiple of 4).
// diff is fully overwritten with the rendered comparison. orig, when non-nil,
// receives the "diff-free" rendering of the same comparison in lock-step:
// the visual a matching pixel would get, computed for every pixel regardless
// of whether it differed. This lets callers animate between the diff view
// and the plain view over identical pixel data for matching regions.
//
// The returned value is the number of pixels that satisfied the mode's
// difference predicate. Alpha is always written fully opaque; input alpha
// is ignored.
type compareFunc func(a, b, diff []uint8, opts DiffOptions, orig []uint8) int

// compareFuncs maps each CPU mode to its strategy. ModeGPU is dispatched by
// the orchestrator and deliberately absent here.
var compareFuncs = map[Mode]compareFunc{
	ModePixel:     comparePixel,
	ModeThreshold: compareThreshold,
	ModeGrayscale: compareGrayscale,
	ModeOverlay:   compareOverlay,
	ModeHeatmap:   compareHeatmap,
	ModeSemantic:  compareSemantic,
}

// Compare runs the CPU comparison strategy selected by opts.Mode over two
// equal-length RGBA buffers, writing the rendered diff into diff and, when
// orig is non-nil, the diff-free view into orig.
//
// Compare is a total function over well-formed input: it never returns an
// error. A buffer length mismatch is a programming-contract violation and
// panics. ModeGPU falls through to the pixel strategy; GPU dispatch is the
// orchestrator's job.
func Compare(a, b, diff []uint8, opts DiffOptions, orig []uint8) int {
	checkBuffers(a, b, diff, orig)
	f, ok := compareFuncs[opts.Mode]
	if !ok {
		f = comparePixel
	}
	return f(a, b, diff, opts, orig)
}

// checkBuffers enforces the shared algorithm precondition.
func checkBuffers(a, b, diff, orig []uint8) {
	if len(a) != len(b) || len(a) != len(diff) {
		panic(fmt.Sprintf("imagediff: buffer length mismatch: a=%d b=%d diff=%d",
			len(a), len(b), len(diff)))
	}
	if orig != nil && len(orig) != len(a) {
		panic(fmt.Sprintf("imagediff: original buffer length mismatch: a=%d orig=%d",
			len(a), len(orig)))
	}
	if len(a)%4 != 0 {
		panic(fmt.Sprintf("imagediff: buffer length %d is not a multiple of 4", len(a)))
	}
}

// comparePixel flags any pixel whose R, G or B differs exactly.
// Differing pixels render opaque red; matching pixels copy a's color
// (or its gray value when UseGrayscale is set).
func comparePixel(a, b, diff []uint8, opts DiffOptions, orig []uint8) int {
	count := 0
	for i := 0; i < len(a); i += 4 {
		sr, sg, sb := sameView(a, i, opts.UseGrayscale)
		if orig != nil {
			orig[i+0] = sr
			orig[i+1] = sg
			orig[i+2] = sb
			orig[i+3] = 255
		}
		if a[i+0] != b[i+0] || a[i+1] != b[i+1] || a[i+2] != b[i+2] {
			count++
			diff[i+0] = 255
			diff[i+1] = 0
			diff[i+2] = 0
		} else {
			diff[i+0] = sr
			diff[i+1] = sg
			diff[i+2] = sb
		}
		diff[i+3] = 255
	}
	return count
}

// compareThreshold flags pixels whose summed channel delta exceeds the
// threshold. Rendering matches comparePixel.
func compareThreshold(a, b, diff []uint8, opts DiffOptions, orig []uint8) int {
	count := 0
	for i := 0; i < len(a); i += 4 {
		sr, sg, sb := sameView(a, i, opts.UseGrayscale)
		if orig != nil {
			orig[i+0] = sr
			orig[i+1] = sg
			orig[i+2] = sb
			orig[i+3] = 255
		}
		if channelDelta(a, b, i) > opts.Threshold {
			count++
			diff[i+0] = 255
			diff[i+1] = 0
			diff[i+2] = 0
		} else {
			diff[i+0] = sr
			diff[i+1] = sg
			diff[i+2] = sb
		}
		diff[i+3] = 255
	}
	return count
}

// sameView returns the "matching pixel" rendering of a's color at index i:
// the color itself, or its gray value replicated when grayscale display is on.
func sameView(a []uint8, i int, grayscale bool) (r, g, b uint8) {
	if grayscale {
		v := uint8(luminance(a[i+0], a[i+1], a[i+2]))
		return v, v, v
	}
	return a[i+0], a[i+1], a[i+2]
}

// compareGrayscale compares ITU-R BT.601 luminance values. Matching pixels
// render as a's gray value replicated across R, G and B.
func compareGrayscale(a, b, diff []uint8, opts DiffOptions, orig []uint8) int {
	count := 0
	for i := 0; i < len(a); i += 4 {
		grayA := luminance(a[i+0], a[i+1], a[i+2])
		grayB := luminance(b[i+0], b[i+1], b[i+2])

		if orig != nil {
			g := uint8(grayA)
			orig[i+0] = g
			orig[i+1] = g
			orig[i+2] = g
			orig[i+3] = 255
		}

		d := grayA - grayB
		if d < 0 {
			d = -d
		}
		if d > float64(opts.Threshold) {
			count++
			diff[i+0] = 255
			diff[i+1] = 0
			diff[i+2] = 0
		} else {
			g := uint8(grayA)
			diff[i+0] = g
			diff[i+1] = g
			diff[i+2] = g
		}
		diff[i+3] = 255
	}
	return count
}

// compareOverlay blends both images 50/50 and tints differing pixels red.
// OverlayOpacity controls the tint strength: at 1.0 a differing pixel is
// pure red, at 0.0 it is a's color untouched.
func compareOverlay(a, b, diff []uint8, opts DiffOptions, orig []uint8) int {
	count := 0
	op := opts.OverlayOpacity
	for i := 0; i < len(a); i += 4 {
		blendR := uint8((int(a[i+0]) + int(b[i+0])) / 2)
		blendG := uint8((int(a[i+1]) + int(b[i+1])) / 2)
		blendB := uint8((int(a[i+2]) + int(b[i+2])) / 2)

		if orig != nil {
			orig[i+0] = blendR
			orig[i+1] = blendG
			orig[i+2] = blendB
			orig[i+3] = 255
		}

		if channelDelta(a, b, i) > opts.Threshold {
			count++
			diff[i+0] = uint8(clamp255(float64(a[i+0])*(1-op) + 255*op))
			diff[i+1] = uint8(clamp255(float64(a[i+1]) * (1 - op)))
			diff[i+2] = uint8(clamp255(float64(a[i+2]) * (1 - op)))
		} else {
			diff[i+0] = blendR
			diff[i+1] = blendG
			diff[i+2] = blendB
		}
		diff[i+3] = 255
	}
	return count
}

// compareHeatmap colors every pixel by normalized difference magnitude on a
// four-band gradient, whether or not it passed the difference test. The
// boolean test only affects the returned count.
func compareHeatmap(a, b, diff []uint8, opts DiffOptions, orig []uint8) int {
	count := 0
	// Same normalization for the value and the predicate: both sides of the
	// comparison live in [0, 1].
	cutoff := float64(opts.Threshold) / (3 * 255)
	for i := 0; i < len(a); i += 4 {
		d := float64(channelDelta(a, b, i)) / (3 * 255)
		if d > cutoff {
			count++
		}
		r, g, bl := getHeatmapColor(d)
		diff[i+0] = r
		diff[i+1] = g
		diff[i+2] = bl
		diff[i+3] = 255
		if orig != nil {
			orig[i+0] = r
			orig[i+1] = g
			orig[i+2] = bl
			orig[i+3] = 255
		}
	}
	return count
}

// Semantic classification bands, in summed-channel-delta units (0..765).
// Deltas above semanticStructuralBand are treated as structural changes
// (moved or added content) and render on a red-to-magenta ramp; deltas
// between the threshold and the band are minor styling changes and render
// as a yellow tint over a's color.
const semanticStructuralBand = 180

// compareSemantic renders structural changes at high intensity and styling
// changes at low intensity. The count predicate matches compareThreshold.
func compareSemantic(a, b, diff []uint8, opts DiffOptions, orig []uint8) int {
	count := 0
	for i := 0; i < len(a); i += 4 {
		blendR := uint8((int(a[i+0]) + int(b[i+0])) / 2)
		blendG := uint8((int(a[i+1]) + int(b[i+1])) / 2)
		blendB := uint8((int(a[i+2]) + int(b[i+2])) / 2)

		if orig != nil {
			orig[i+0] = blendR
			orig[i+1] = blendG
			orig[i+2] = blendB
			orig[i+3] = 255
		}

		delta := channelDelta(a, b, i)
		switch {
		case delta > semanticStructuralBand:
			// Structural: red ramping toward magenta with severity.
			severity := float64(delta-semanticStructuralBand) / float64(765-semanticStructuralBand)
			count++
			diff[i+0] = 255
			diff[i+1] = 0
			diff[i+2] = uint8(clamp255(160 * severity))
		case delta > opts.Threshold:
			// Styling: 50/50 blend of a's color toward warm yellow.
			count++
			diff[i+0] = uint8((int(a[i+0]) + 255) / 2)
			diff[i+1] = uint8((int(a[i+1]) + 220) / 2)
			diff[i+2] = uint8(int(a[i+2]) / 2)
		default:
			diff[i+0] = blendR
			diff[i+1] = blendG
			diff[i+2] = blendB
		}
		diff[i+3] = 255
	}
	return count
}

// getHeatmapColor maps a normalized difference value in [0, 1] onto a
// four-band gradient: blue, cyan, green, yellow, red. Values outside the
// range are clamped.
func getHeatmapColor(value float64) (r, g, b uint8) {
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	switch {
	case value < 0.25:
		// blue -> cyan
		t := value / 0.25
		return 0, uint8(clamp255(t * 255)), 255
	case value < 0.5:
		// cyan -> green
		t := (value - 0.25) / 0.25
		return 0, 255, uint8(clamp255((1 - t) * 255))
	case value < 0.75:
		// green -> yellow
		t := (value - 0.5) / 0.25
		return uint8(clamp255(t * 255)), 255, 0
	default:
		// yellow -> red
		t := (value - 0.75) / 0.25
		return 255, uint8(clamp255((1 - t) * 255)), 0
	}
}

// channelDelta returns |dR|+|dG|+|dB| for the pixel starting at index i.
func channelDelta(a, b []uint8, i int) int {
	d := absInt(int(a[i+0]) - int(b[i+0]))
	d += absInt(int(a[i+1]) - int(b[i+1]))
	d += absInt(int(a[i+2]) - int(b[i+2]))
	return d
}

// luminance returns the BT.601 gray value of an RGB triple.
func luminance(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
