// Command imagediff compares two page images and writes a visual diff.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/gogpu/imagediff"
	_ "github.com/gogpu/imagediff/gpu" // enable GPU comparison
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("202")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("76"))
)

func main() {
	var (
		pathA     = flag.String("a", "", "first image (png or jpeg)")
		pathB     = flag.String("b", "", "second image (png or jpeg)")
		mode      = flag.String("mode", "pixel", "comparison mode: pixel, threshold, grayscale, overlay, heatmap, semantic, webgl")
		threshold = flag.Int("threshold", 0, "channel-delta tolerance [0, 255]")
		opacity   = flag.Float64("opacity", 0.5, "overlay tint opacity [0, 1]")
		grayscale = flag.Bool("grayscale", false, "render matching pixels as grayscale")
		output    = flag.String("output", "diff.png", "diff artifact file")
		original  = flag.String("original", "", "optional diff-free view file (background worker only)")
		offload   = flag.Bool("worker", false, "run the comparison on a background worker")
		verbose   = flag.Bool("v", false, "enable debug logging to stderr")
	)
	flag.Parse()

	if *pathA == "" || *pathB == "" {
		fmt.Fprintln(os.Stderr, "usage: imagediff -a first.png -b second.png [-mode overlay] [-output diff.png]")
		os.Exit(2)
	}
	if *verbose {
		imagediff.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	imgA, err := loadPixmap(*pathA)
	if err != nil {
		fatal(err)
	}
	imgB, err := loadPixmap(*pathB)
	if err != nil {
		fatal(err)
	}

	opts := imagediff.DiffOptions{
		Mode:           imagediff.Mode(*mode),
		Threshold:      *threshold,
		OverlayOpacity: *opacity,
		UseGrayscale:   *grayscale,
	}
	if err := opts.Validate(); err != nil {
		fatal(err)
	}

	start := time.Now()
	var result imagediff.DiffResult
	out := imagediff.NewPixmap(1, 1)

	if *offload {
		result, err = compareOffloaded(imgA, imgB, out, opts, *original)
	} else {
		d := imagediff.New()
		result, err = d.ComparePages(imgA, imgB, out, opts, nil)
	}
	if err != nil {
		fatal(err)
	}

	if err := out.SavePNG(*output); err != nil {
		fatal(fmt.Errorf("save diff artifact: %w", err))
	}

	fmt.Printf("%s %s\n", okStyle.Render("✓"), "comparison complete")
	printStat("differing pixels", fmt.Sprintf("%d / %d", result.DifferenceCount, result.TotalPixels))
	printStat("difference", fmt.Sprintf("%.2f%%", result.PercentDiff))
	printStat("output size", fmt.Sprintf("%dx%d", out.Width(), out.Height()))
	printStat("elapsed", time.Since(start).Round(time.Millisecond).String())
	printStat("artifact", *output)
}

// compareOffloaded normalizes on the caller side, then runs the comparison
// on a background worker while a spinner keeps the terminal alive.
func compareOffloaded(imgA, imgB *imagediff.Pixmap, out *imagediff.Pixmap, opts imagediff.DiffOptions, originalPath string) (imagediff.DiffResult, error) {
	pool := imagediff.NewSurfacePool(0)
	canvasA, canvasB, err := imagediff.NormalizeCanvases(imgA, imgB, imagediff.DefaultNormalization(), pool)
	if err != nil {
		return imagediff.DiffResult{}, err
	}
	w, h := canvasA.Width(), canvasA.Height()

	worker := imagediff.NewWorker()
	defer worker.Terminate()

	// Buffers are transferred to the worker; canvasA/B must not be touched
	// (or released back to the pool) until the response arrives.
	pending, err := worker.Compare(imagediff.WorkerRequest{
		ImageA:  canvasA.Data(),
		ImageB:  canvasB.Data(),
		Width:   w,
		Height:  h,
		Options: opts,
	})
	if err != nil {
		return imagediff.DiffResult{}, err
	}

	var busy atomic.Bool
	busy.Store(true)
	go func() {
		s := spinner.New()
		s.Spinner = spinner.Dot
		s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for busy.Load() {
			<-ticker.C
			s, _ = s.Update(spinner.TickMsg{})
			fmt.Printf("\r%s comparing %dx%d pixels...", s.View(), w, h)
		}
		fmt.Print("\r")
	}()

	resp, err := pending.Await(context.Background())
	busy.Store(false)
	if err != nil {
		return imagediff.DiffResult{}, err
	}

	out.SetSize(w, h)
	if err := out.WritePixels(resp.DiffData); err != nil {
		return imagediff.DiffResult{}, err
	}
	if originalPath != "" {
		orig := imagediff.NewPixmap(w, h)
		if err := orig.WritePixels(resp.OriginalData); err != nil {
			return imagediff.DiffResult{}, err
		}
		if err := orig.SavePNG(originalPath); err != nil {
			return imagediff.DiffResult{}, fmt.Errorf("save original view: %w", err)
		}
	}
	return resp.Result, nil
}

func loadPixmap(path string) (*imagediff.Pixmap, error) {
	f, err := os.Open(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return imagediff.FromImage(img), nil
}

func printStat(label, value string) {
	fmt.Printf("  %s %s\n", labelStyle.Render(label+":"), valueStyle.Render(value))
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "imagediff: %v\n", err)
	os.Exit(1)
}
