package imagediff

import (
	"math"
	"testing"
)

func TestCalculateNormalizedDimensionsSizeModes(t *testing.T) {
	tests := []struct {
		name           string
		size           SizeMode
		wantW, wantH   int
	}{
		{"largest", SizeLargest, 800, 900},
		{"smallest", SizeSmallest, 600, 700},
		{"first", SizeFirst, 800, 700},
		{"second", SizeSecond, 600, 900},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultNormalization()
			s.Size = tt.size
			layout := CalculateNormalizedDimensions(800, 700, 600, 900, s)
			if layout.TargetWidth != tt.wantW || layout.TargetHeight != tt.wantH {
				t.Errorf("target = %dx%d, want %dx%d",
					layout.TargetWidth, layout.TargetHeight, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestCalculateNormalizedDimensionsLargestCoversBoth(t *testing.T) {
	s := DefaultNormalization()
	layout := CalculateNormalizedDimensions(123, 456, 321, 99, s)
	if layout.TargetWidth < 321 || layout.TargetHeight < 456 {
		t.Errorf("largest target %dx%d does not cover both inputs",
			layout.TargetWidth, layout.TargetHeight)
	}
	// Without scale-to-fit the target is exactly the componentwise max.
	if layout.TargetWidth != 321 || layout.TargetHeight != 456 {
		t.Errorf("target = %dx%d, want exactly 321x456", layout.TargetWidth, layout.TargetHeight)
	}
}

func TestCalculateNormalizedDimensionsAlignment(t *testing.T) {
	// 100x50 source inside a 200x100 target, no scaling.
	tests := []struct {
		name   string
		align  Alignment
		wantX  float64
		wantY  float64
	}{
		{"top-left", AlignTopLeft, 0, 0},
		{"center", AlignCenter, 50, 25},
		{"top-center", AlignTopCenter, 50, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NormalizationStrategy{Size: SizeSecond, Align: tt.align, Background: White}
			layout := CalculateNormalizedDimensions(100, 50, 200, 100, s)
			if layout.A.OffsetX != tt.wantX || layout.A.OffsetY != tt.wantY {
				t.Errorf("offset = (%g, %g), want (%g, %g)",
					layout.A.OffsetX, layout.A.OffsetY, tt.wantX, tt.wantY)
			}
			if layout.A.Scale != 1 {
				t.Errorf("scale = %g, want 1 without scale-to-fit", layout.A.Scale)
			}
		})
	}
}

func TestCalculateNormalizedDimensionsScaleToFit(t *testing.T) {
	s := NormalizationStrategy{Size: SizeSecond, Align: AlignTopLeft, Background: White, ScaleToFit: true}
	// 100x50 into 200x200: limited by width, scale 2.
	layout := CalculateNormalizedDimensions(100, 50, 200, 200, s)
	if math.Abs(layout.A.Scale-2) > 1e-9 {
		t.Errorf("scale = %g, want 2", layout.A.Scale)
	}
	// 400x100 into 200x200: limited by width, scale 0.5.
	layout = CalculateNormalizedDimensions(400, 100, 200, 200, s)
	if math.Abs(layout.A.Scale-0.5) > 1e-9 {
		t.Errorf("scale = %g, want 0.5", layout.A.Scale)
	}
}

func TestNormalizeCanvasesEqualDimensions(t *testing.T) {
	a := NewPixmap(40, 30)
	a.Fill(Red)
	b := NewPixmap(20, 60)
	b.Fill(Black)
	pool := NewSurfacePool(4)

	canvasA, canvasB, err := NormalizeCanvases(a, b, DefaultNormalization(), pool)
	if err != nil {
		t.Fatalf("NormalizeCanvases: %v", err)
	}
	if canvasA.Width() != 40 || canvasA.Height() != 60 {
		t.Errorf("canvas A = %dx%d, want 40x60", canvasA.Width(), canvasA.Height())
	}
	if canvasB.Width() != canvasA.Width() || canvasB.Height() != canvasA.Height() {
		t.Errorf("canvas dimensions differ: %dx%d vs %dx%d",
			canvasA.Width(), canvasA.Height(), canvasB.Width(), canvasB.Height())
	}
}

func TestNormalizeCanvasesBackgroundFill(t *testing.T) {
	a := NewPixmap(10, 10)
	a.Fill(Black)
	b := NewPixmap(20, 20)
	b.Fill(Black)
	pool := NewSurfacePool(4)

	s := DefaultNormalization() // white background
	canvasA, _, err := NormalizeCanvases(a, b, s, pool)
	if err != nil {
		t.Fatalf("NormalizeCanvases: %v", err)
	}

	// Inside a's bounds: the source pixel.
	if got := canvasA.GetPixel(5, 5); got.R != 0 || got.G != 0 || got.B != 0 {
		t.Errorf("covered pixel = %+v, want black", got)
	}
	// Outside a's bounds: the background.
	if got := canvasA.GetPixel(15, 15); got.R != 1 || got.G != 1 || got.B != 1 {
		t.Errorf("uncovered pixel = %+v, want white background", got)
	}
}

func TestNormalizeCanvasesCenterPlacement(t *testing.T) {
	a := NewPixmap(2, 2)
	a.Fill(Red)
	b := NewPixmap(6, 6)
	b.Fill(White)
	pool := NewSurfacePool(4)

	s := NormalizationStrategy{Size: SizeSecond, Align: AlignCenter, Background: White}
	canvasA, _, err := NormalizeCanvases(a, b, s, pool)
	if err != nil {
		t.Fatalf("NormalizeCanvases: %v", err)
	}
	// The 2x2 red square sits at (2,2)-(4,4) in the 6x6 canvas.
	if got := canvasA.GetPixel(2, 2); got.R != 1 || got.G != 0 {
		t.Errorf("pixel (2,2) = %+v, want red", got)
	}
	if got := canvasA.GetPixel(0, 0); got.R != 1 || got.G != 1 {
		t.Errorf("pixel (0,0) = %+v, want white background", got)
	}
}

func TestNormalizeCanvasesScaleToFit(t *testing.T) {
	a := NewPixmap(2, 2)
	a.Fill(Red)
	b := NewPixmap(8, 8)
	b.Fill(White)
	pool := NewSurfacePool(4)

	s := NormalizationStrategy{Size: SizeSecond, Align: AlignTopLeft, Background: White, ScaleToFit: true}
	canvasA, _, err := NormalizeCanvases(a, b, s, pool)
	if err != nil {
		t.Fatalf("NormalizeCanvases: %v", err)
	}
	// Scaled 4x: the whole 8x8 canvas should be red-ish, not background.
	if got := canvasA.GetPixel(6, 6); got.R < 0.9 || got.G > 0.1 {
		t.Errorf("pixel (6,6) = %+v, want scaled red coverage", got)
	}
}

// failingSurface simulates a surface whose pixel data cannot be read.
type failingSurface struct {
	w, h int
	err  error
}

func (f failingSurface) Width() int             { return f.w }
func (f failingSurface) Height() int            { return f.h }
func (f failingSurface) RGBA() ([]uint8, error) { return nil, f.err }
