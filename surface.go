package imagediff

// Surface is the input boundary of the engine: anything that can report its
// dimensions and yield a flat RGBA byte buffer of length width*height*4.
//
// RGBA may fail when the underlying pixel source cannot be read (for example
// a canvas whose drawing context is unavailable). Such a failure aborts the
// whole comparison before any output is mutated.
type Surface interface {
	Width() int
	Height() int
	RGBA() ([]uint8, error)
}

// OutputSurface is the output boundary: a destination that accepts a size
// and can be filled from a flat RGBA buffer. The GPU path resizes the
// destination and writes the rendered comparison into it; the CPU path
// writes a staging buffer and copies it out through WritePixels.
type OutputSurface interface {
	SetSize(width, height int)
	WritePixels(data []uint8) error
}
