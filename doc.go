// Package imagediff compares two rendered page images and produces a visual
// difference artifact plus quantitative difference statistics.
//
// # Overview
//
// imagediff is a pixel comparison engine for the GoGPU ecosystem. Given two
// RGBA pixel buffers (for example, two rasterized PDF pages), it answers
// "how different are these two images, and where?" by rendering a diff image
// and counting differing pixels.
//
// # Quick Start
//
//	import "github.com/gogpu/imagediff"
//
//	a := imagediff.FromImage(pageA)
//	b := imagediff.FromImage(pageB)
//	out := imagediff.NewPixmap(1, 1)
//
//	d := imagediff.New()
//	result, err := d.ComparePages(a, b, out, imagediff.DiffOptions{
//	    Mode:      imagediff.ModeThreshold,
//	    Threshold: 10,
//	}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%.2f%% of pixels differ\n", result.PercentDiff)
//	out.SavePNG("diff.png")
//
// # Comparison modes
//
// Six CPU strategies are available: pixel-exact, summed-channel threshold,
// grayscale, red-tinted overlay, heatmap gradient, and semantic
// (structural vs. styling) classification. A seventh mode requests
// GPU-accelerated comparison; import the gpu subpackage to enable it:
//
//	import _ "github.com/gogpu/imagediff/gpu" // enables GPU comparison
//
// If no accelerator is registered, or the GPU path fails at runtime, the
// engine transparently falls back to the CPU pixel comparison.
//
// # Architecture
//
//   - Public API: Differ, Pixmap, DiffOptions, NormalizationStrategy, Worker
//   - cache/: LRU cache for rasterized pages keyed by source and zoom bucket
//   - internal/gpu: wgpu compute-shader accelerator
//   - gpu/: blank-import registration of the accelerator
//
// # Concurrency
//
// The comparison algorithms are pure functions and safe to run on any
// goroutine. A Differ is safe for concurrent use as long as each call uses
// its own buffers; the surface pool it owns is internally synchronized.
// Worker offloads a comparison to a dedicated goroutine and hands back a
// future, keeping heavy numeric work off the interactive path.
package imagediff

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"
)
