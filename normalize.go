package imagediff

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

// SizeMode selects how the common target size is derived from the two
// source image sizes.
type SizeMode int

const (
	// SizeLargest takes the componentwise maximum of both sizes.
	SizeLargest SizeMode = iota

	// SizeSmallest takes the componentwise minimum of both sizes.
	SizeSmallest

	// SizeFirst uses the first image's size.
	SizeFirst

	// SizeSecond uses the second image's size.
	SizeSecond
)

// Alignment positions a source image inside the target canvas.
type Alignment int

const (
	// AlignTopLeft places the image at the origin.
	AlignTopLeft Alignment = iota

	// AlignCenter centers the image on both axes.
	AlignCenter

	// AlignTopCenter centers the image horizontally, flush to the top.
	AlignTopCenter
)

// NormalizationStrategy determines how two differently-sized images are
// reconciled onto one common canvas before comparison.
type NormalizationStrategy struct {
	Size       SizeMode
	Align      Alignment
	Background RGBA
	ScaleToFit bool
}

// DefaultNormalization reconciles onto the largest bounding size, top-left
// aligned, on a white background, without scaling.
func DefaultNormalization() NormalizationStrategy {
	return NormalizationStrategy{
		Size:       SizeLargest,
		Align:      AlignTopLeft,
		Background: White,
		ScaleToFit: false,
	}
}

// Transform places one source image inside the target canvas.
type Transform struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// NormalizedLayout is the computed target size plus the per-image placement.
type NormalizedLayout struct {
	TargetWidth  int
	TargetHeight int
	A            Transform
	B            Transform
}

// CalculateNormalizedDimensions computes the common target size for two
// images and the transform that places each inside it.
func CalculateNormalizedDimensions(widthA, heightA, widthB, heightB int, s NormalizationStrategy) NormalizedLayout {
	var tw, th int
	switch s.Size {
	case SizeSmallest:
		tw, th = min(widthA, widthB), min(heightA, heightB)
	case SizeFirst:
		tw, th = widthA, heightA
	case SizeSecond:
		tw, th = widthB, heightB
	default: // SizeLargest
		tw, th = max(widthA, widthB), max(heightA, heightB)
	}

	return NormalizedLayout{
		TargetWidth:  tw,
		TargetHeight: th,
		A:            placeImage(widthA, heightA, tw, th, s),
		B:            placeImage(widthB, heightB, tw, th, s),
	}
}

// placeImage computes the transform for one source image.
func placeImage(srcW, srcH, targetW, targetH int, s NormalizationStrategy) Transform {
	scale := 1.0
	if s.ScaleToFit && srcW > 0 && srcH > 0 {
		scale = min(float64(targetW)/float64(srcW), float64(targetH)/float64(srcH))
	}
	scaledW := float64(srcW) * scale
	scaledH := float64(srcH) * scale

	t := Transform{Scale: scale}
	switch s.Align {
	case AlignCenter:
		t.OffsetX = (float64(targetW) - scaledW) / 2
		t.OffsetY = (float64(targetH) - scaledH) / 2
	case AlignTopCenter:
		t.OffsetX = (float64(targetW) - scaledW) / 2
	default: // AlignTopLeft: origin
	}
	return t
}

// NormalizeCanvases produces two equal-dimension surfaces ready for the
// per-pixel comparison algorithms: each is a pool-acquired canvas of the
// target size, filled with the strategy's background color, with the
// corresponding source composited at its computed offset and scale.
//
// Normalization is the mandatory precondition-satisfier for comparison when
// the source dimensions differ; skipping it and feeding mismatched buffers
// to Compare is a contract violation.
//
// Both returned surfaces belong to the caller, who should release them back
// to the pool when done.
func NormalizeCanvases(a, b Surface, s NormalizationStrategy, pool *SurfacePool) (*Pixmap, *Pixmap, error) {
	dataA, err := a.RGBA()
	if err != nil {
		return nil, nil, fmt.Errorf("imagediff: read first surface: %w", err)
	}
	dataB, err := b.RGBA()
	if err != nil {
		return nil, nil, fmt.Errorf("imagediff: read second surface: %w", err)
	}

	layout := CalculateNormalizedDimensions(a.Width(), a.Height(), b.Width(), b.Height(), s)

	canvasA := pool.Acquire(layout.TargetWidth, layout.TargetHeight)
	canvasB := pool.Acquire(layout.TargetWidth, layout.TargetHeight)

	compositeInto(canvasA, dataA, a.Width(), a.Height(), layout.A, s.Background)
	compositeInto(canvasB, dataB, b.Width(), b.Height(), layout.B, s.Background)
	return canvasA, canvasB, nil
}

// compositeInto fills dst with the background color and draws the source
// buffer at its transform. Scaled placement resamples with bilinear
// interpolation; unscaled placement is a direct copy.
func compositeInto(dst *Pixmap, src []uint8, srcW, srcH int, t Transform, bg RGBA) {
	dst.Fill(bg)
	if srcW <= 0 || srcH <= 0 {
		return
	}

	srcImg := &image.RGBA{
		Pix:    src,
		Stride: srcW * 4,
		Rect:   image.Rect(0, 0, srcW, srcH),
	}
	dstImg := dst.asRGBA()

	ox := int(t.OffsetX)
	oy := int(t.OffsetY)
	if t.Scale == 1 {
		r := image.Rect(ox, oy, ox+srcW, oy+srcH)
		xdraw.Draw(dstImg, r, srcImg, image.Point{}, xdraw.Src)
		return
	}

	scaledW := int(float64(srcW) * t.Scale)
	scaledH := int(float64(srcH) * t.Scale)
	r := image.Rect(ox, oy, ox+scaledW, oy+scaledH)
	xdraw.ApproxBiLinear.Scale(dstImg, r, srcImg, srcImg.Rect, xdraw.Src, nil)
}
