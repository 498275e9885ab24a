package imagediff

import "image/color"

// RGBA represents a color with red, green, blue, and alpha components.
// Each component is in the range [0, 1].
type RGBA struct {
	R, G, B, A float64
}

// Color converts RGBA to the standard color.Color interface.
func (c RGBA) Color() color.Color {
	return color.NRGBA{
		R: c.byteR(),
		G: c.byteG(),
		B: c.byteB(),
		A: uint8(clamp255(c.A * 255)),
	}
}

// FromColor converts a standard color.Color to RGBA.
func FromColor(c color.Color) RGBA {
	r, g, b, a := c.RGBA()
	return RGBA{
		R: float64(r) / 65535,
		G: float64(g) / 65535,
		B: float64(b) / 65535,
		A: float64(a) / 65535,
	}
}

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1.0}
}

func (c RGBA) byteR() uint8 { return uint8(clamp255(c.R * 255)) }
func (c RGBA) byteG() uint8 { return uint8(clamp255(c.G * 255)) }
func (c RGBA) byteB() uint8 { return uint8(clamp255(c.B * 255)) }

// Common colors.
var (
	White       = RGBA{1, 1, 1, 1}
	Black       = RGBA{0, 0, 0, 1}
	Red         = RGBA{1, 0, 0, 1}
	Transparent = RGBA{0, 0, 0, 0}
)

// clamp255 clamps v to the [0, 255] range.
func clamp255(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
