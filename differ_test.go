package imagediff

import (
	"errors"
	"testing"
)

func TestComparePagesIdenticalSurfaces(t *testing.T) {
	a := NewPixmap(100, 50)
	a.Fill(Red)
	b := NewPixmap(100, 50)
	b.Fill(Red)
	out := NewPixmap(1, 1)

	d := New()
	result, err := d.ComparePages(a, b, out, DiffOptions{Mode: ModePixel}, nil)
	if err != nil {
		t.Fatalf("ComparePages: %v", err)
	}
	want := DiffResult{DifferenceCount: 0, TotalPixels: 5000, PercentDiff: 0}
	if result != want {
		t.Errorf("result = %+v, want %+v", result, want)
	}
	if out.Width() != 100 || out.Height() != 50 {
		t.Errorf("output size = %dx%d, want 100x50", out.Width(), out.Height())
	}
}

func TestComparePagesOverlayAllDifferent(t *testing.T) {
	a := NewPixmap(2, 2)
	a.Fill(White)
	b := NewPixmap(2, 2)
	b.Fill(Black)
	out := NewPixmap(1, 1)

	d := New()
	result, err := d.ComparePages(a, b, out, DiffOptions{
		Mode:           ModeOverlay,
		Threshold:      10,
		OverlayOpacity: 1.0,
	}, nil)
	if err != nil {
		t.Fatalf("ComparePages: %v", err)
	}
	if result.DifferenceCount != 4 || result.PercentDiff != 100 {
		t.Errorf("result = %+v, want 4 differing pixels at 100%%", result)
	}
	data := out.Data()
	for i := 0; i < len(data); i += 4 {
		if data[i] != 255 || data[i+1] != 0 || data[i+2] != 0 || data[i+3] != 255 {
			t.Fatalf("output pixel %d = (%d,%d,%d,%d), want (255,0,0,255)",
				i/4, data[i], data[i+1], data[i+2], data[i+3])
		}
	}
}

func TestComparePagesNormalizesMismatchedSizes(t *testing.T) {
	a := NewPixmap(10, 10)
	a.Fill(White)
	b := NewPixmap(20, 5)
	b.Fill(White)
	out := NewPixmap(1, 1)

	d := New()
	result, err := d.ComparePages(a, b, out, DiffOptions{Mode: ModePixel}, nil)
	if err != nil {
		t.Fatalf("ComparePages: %v", err)
	}
	// Default strategy: 20x10 canvas, both filled white where uncovered,
	// so the union minus the intersection is where exactly one source
	// painted... both sources are white on a white background: no diffs.
	if out.Width() != 20 || out.Height() != 10 {
		t.Errorf("output size = %dx%d, want normalized 20x10", out.Width(), out.Height())
	}
	if result.TotalPixels != 200 {
		t.Errorf("TotalPixels = %d, want 200", result.TotalPixels)
	}
	if result.DifferenceCount != 0 {
		t.Errorf("DifferenceCount = %d, want 0 for white-on-white", result.DifferenceCount)
	}
}

func TestComparePagesInvalidOptions(t *testing.T) {
	a := NewPixmap(2, 2)
	b := NewPixmap(2, 2)
	out := NewPixmap(1, 1)

	d := New()
	if _, err := d.ComparePages(a, b, out, DiffOptions{Mode: "bogus"}, nil); err == nil {
		t.Error("invalid mode accepted")
	}
	if _, err := d.ComparePages(a, b, out, DiffOptions{Mode: ModePixel, Threshold: 999}, nil); err == nil {
		t.Error("out-of-range threshold accepted")
	}
}

func TestComparePagesSurfaceReadFailure(t *testing.T) {
	readErr := errors.New("drawing context unavailable")
	a := failingSurface{w: 4, h: 4, err: readErr}
	b := NewPixmap(4, 4)
	out := NewPixmap(3, 3)

	d := New()
	_, err := d.ComparePages(a, b, out, DiffOptions{Mode: ModePixel}, nil)
	if !errors.Is(err, readErr) {
		t.Fatalf("err = %v, want wrapped %v", err, readErr)
	}
	// The operation failed before any output mutation.
	if out.Width() != 3 || out.Height() != 3 {
		t.Errorf("output was resized to %dx%d despite the failure", out.Width(), out.Height())
	}
}

func TestComparePagesGPUFallsBackWithoutAccelerator(t *testing.T) {
	a := NewPixmap(4, 4)
	a.Fill(White)
	b := NewPixmap(4, 4)
	b.Fill(Black)
	out := NewPixmap(1, 1)

	d := New()
	result, err := d.ComparePages(a, b, out, DiffOptions{Mode: ModeGPU}, nil)
	if err != nil {
		t.Fatalf("ComparePages: %v", err)
	}
	// No accelerator registered in tests: the CPU pixel strategy runs.
	if result.DifferenceCount != 16 {
		t.Errorf("fallback count = %d, want 16", result.DifferenceCount)
	}
}

// stubAccelerator lets tests drive the orchestrator's dispatch decision.
type stubAccelerator struct {
	ready  bool
	err    error
	result DiffResult
	calls  int
}

func (s *stubAccelerator) Name() string { return "stub" }
func (s *stubAccelerator) Init() error  { return nil }
func (s *stubAccelerator) Close()       {}
func (s *stubAccelerator) Ready() bool  { return s.ready }

func (s *stubAccelerator) RenderDiff(a, b *Pixmap, out OutputSurface, opts DiffOptions) (DiffResult, error) {
	s.calls++
	if s.err != nil {
		return DiffResult{}, s.err
	}
	out.SetSize(a.Width(), a.Height())
	return s.result, nil
}

func TestComparePagesUsesAccelerator(t *testing.T) {
	stub := &stubAccelerator{ready: true, result: DiffResult{DifferenceCount: 7, TotalPixels: 16, PercentDiff: 43.75}}
	if err := RegisterAccelerator(stub); err != nil {
		t.Fatalf("RegisterAccelerator: %v", err)
	}
	defer func() {
		accelMu.Lock()
		accel = nil
		accelMu.Unlock()
	}()

	a := NewPixmap(4, 4)
	b := NewPixmap(4, 4)
	out := NewPixmap(1, 1)

	d := New()
	result, err := d.ComparePages(a, b, out, DiffOptions{Mode: ModeGPU}, nil)
	if err != nil {
		t.Fatalf("ComparePages: %v", err)
	}
	if stub.calls != 1 {
		t.Errorf("accelerator called %d times, want 1", stub.calls)
	}
	if result != stub.result {
		t.Errorf("result = %+v, want accelerator result %+v", result, stub.result)
	}
}

func TestComparePagesAcceleratorFailureFallsBack(t *testing.T) {
	stub := &stubAccelerator{ready: true, err: ErrFallbackToCPU}
	if err := RegisterAccelerator(stub); err != nil {
		t.Fatalf("RegisterAccelerator: %v", err)
	}
	defer func() {
		accelMu.Lock()
		accel = nil
		accelMu.Unlock()
	}()

	a := NewPixmap(4, 4)
	a.Fill(White)
	b := NewPixmap(4, 4)
	b.Fill(Black)
	out := NewPixmap(1, 1)

	d := New()
	result, err := d.ComparePages(a, b, out, DiffOptions{Mode: ModeGPU}, nil)
	if err != nil {
		t.Fatalf("fallback returned error: %v", err)
	}
	if stub.calls != 1 {
		t.Errorf("accelerator called %d times, want 1", stub.calls)
	}
	if result.DifferenceCount != 16 {
		t.Errorf("fallback count = %d, want 16 from the CPU pixel strategy", result.DifferenceCount)
	}
}

func TestDifferSharedPool(t *testing.T) {
	pool := NewSurfacePool(4)
	d := New(WithPool(pool))
	if d.Pool() != pool {
		t.Fatal("WithPool did not install the shared pool")
	}

	a := NewPixmap(8, 8)
	b := NewPixmap(8, 8)
	out := NewPixmap(1, 1)
	if _, err := d.ComparePages(a, b, out, DiffOptions{Mode: ModePixel}, nil); err != nil {
		t.Fatalf("ComparePages: %v", err)
	}
	if pool.Stats().Allocations == 0 {
		t.Error("comparison did not draw canvases from the shared pool")
	}
}
