package imagediff

import (
	"image"
	"image/color"
	"image/png"
	"os"
)

// Pixmap represents a rectangular pixel buffer.
//
// The buffer is flat RGBA, 4 bytes per pixel, row-major. Pixmap implements
// both boundary interfaces of the engine: it can serve as a comparison input
// (Surface) and as the destination the diff is written into (OutputSurface).
type Pixmap struct {
	width  int
	height int
	data   []uint8 // RGBA format, 4 bytes per pixel
}

// NewPixmap creates a new pixmap with the given dimensions.
func NewPixmap(width, height int) *Pixmap {
	return &Pixmap{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// Width returns the width of the pixmap.
func (p *Pixmap) Width() int {
	return p.width
}

// Height returns the height of the pixmap.
func (p *Pixmap) Height() int {
	return p.height
}

// Data returns the raw pixel data (RGBA format).
func (p *Pixmap) Data() []uint8 {
	return p.data
}

// RGBA returns the flat RGBA byte buffer. It implements Surface.
// The returned slice aliases the pixmap's storage; callers that need an
// independent copy must copy it themselves.
func (p *Pixmap) RGBA() ([]uint8, error) {
	return p.data, nil
}

// SetSize resizes the pixmap in place. It implements OutputSurface.
//
// The backing array is reused when it is large enough, so a pooled pixmap
// keeps its identity across resizes. Contents after a resize are undefined;
// use Zero or Fill to reset them.
func (p *Pixmap) SetSize(width, height int) {
	n := width * height * 4
	if cap(p.data) >= n {
		p.data = p.data[:n]
	} else {
		p.data = make([]uint8, n)
	}
	p.width = width
	p.height = height
}

// WritePixels copies a flat RGBA buffer into the pixmap.
// It implements OutputSurface. The buffer length must match the pixmap's
// current dimensions; a mismatch is a caller bug.
func (p *Pixmap) WritePixels(data []uint8) error {
	if len(data) != len(p.data) {
		panic("imagediff: WritePixels buffer length does not match pixmap dimensions")
	}
	copy(p.data, data)
	return nil
}

// SetPixel sets the color of a single pixel.
func (p *Pixmap) SetPixel(x, y int, c RGBA) {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return
	}
	i := (y*p.width + x) * 4
	p.data[i+0] = c.byteR()
	p.data[i+1] = c.byteG()
	p.data[i+2] = c.byteB()
	p.data[i+3] = uint8(clamp255(c.A * 255))
}

// GetPixel returns the color of a single pixel.
func (p *Pixmap) GetPixel(x, y int) RGBA {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return Transparent
	}
	i := (y*p.width + x) * 4
	return RGBA{
		R: float64(p.data[i+0]) / 255,
		G: float64(p.data[i+1]) / 255,
		B: float64(p.data[i+2]) / 255,
		A: float64(p.data[i+3]) / 255,
	}
}

// Fill fills the entire pixmap with a color.
func (p *Pixmap) Fill(c RGBA) {
	r := c.byteR()
	g := c.byteG()
	b := c.byteB()
	a := uint8(clamp255(c.A * 255))

	for i := 0; i < len(p.data); i += 4 {
		p.data[i+0] = r
		p.data[i+1] = g
		p.data[i+2] = b
		p.data[i+3] = a
	}
}

// Zero clears every sample to 0 (transparent black).
func (p *Pixmap) Zero() {
	clear(p.data)
}

// ToImage converts the pixmap to an image.RGBA.
func (p *Pixmap) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	copy(img.Pix, p.data)
	return img
}

// asRGBA wraps the pixmap's storage in an image.RGBA without copying.
// The returned image aliases the pixmap; it is used internally by the
// normalizer for compositing.
func (p *Pixmap) asRGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    p.data,
		Stride: p.width * 4,
		Rect:   image.Rect(0, 0, p.width, p.height),
	}
}

// FromImage creates a pixmap from an image.
func FromImage(img image.Image) *Pixmap {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	pm := NewPixmap(width, height)

	if src, ok := img.(*image.RGBA); ok && src.Stride == width*4 {
		copy(pm.data, src.Pix)
		return pm
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			pm.SetPixel(x, y, FromColor(c))
		}
	}
	return pm
}

// SavePNG saves the pixmap to a PNG file.
func (p *Pixmap) SavePNG(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	return png.Encode(f, p.ToImage())
}

// At implements the image.Image interface.
func (p *Pixmap) At(x, y int) color.Color {
	return p.GetPixel(x, y).Color()
}

// Bounds implements the image.Image interface.
func (p *Pixmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

// ColorModel implements the image.Image interface.
func (p *Pixmap) ColorModel() color.Model {
	return color.NRGBAModel
}

// Ensure Pixmap satisfies both boundary contracts.
var (
	_ Surface       = (*Pixmap)(nil)
	_ OutputSurface = (*Pixmap)(nil)
	_ image.Image   = (*Pixmap)(nil)
)
