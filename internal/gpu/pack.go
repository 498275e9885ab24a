package gpu

import (
	"encoding/binary"
	"math"
)

// diffParams mirrors the Params uniform block in shaders/diff.wgsl.
// 32 bytes, 16-byte aligned.
type diffParams struct {
	Width     uint32
	Height    uint32
	Threshold uint32
	Flags     uint32
	Opacity   float32
	pad       [3]float32
}

const (
	flagOverlay   = 1 << 0
	flagGrayscale = 1 << 1
)

// encode serializes the params block for upload, little-endian to match the
// GPU's storage layout.
func (p diffParams) encode() []byte {
	out := make([]byte, 32)
	binary.LittleEndian.PutUint32(out[0:], p.Width)
	binary.LittleEndian.PutUint32(out[4:], p.Height)
	binary.LittleEndian.PutUint32(out[8:], p.Threshold)
	binary.LittleEndian.PutUint32(out[12:], p.Flags)
	binary.LittleEndian.PutUint32(out[16:], math.Float32bits(p.Opacity))
	return out
}

// packPixels converts a flat RGBA byte buffer into little-endian packed
// u32 words (r | g<<8 | b<<16 | a<<24) for the storage buffers.
func packPixels(data []uint8, pixelCount int) []byte {
	out := make([]byte, pixelCount*4)
	for i := 0; i < pixelCount; i++ {
		srcIdx := i * 4
		r := uint32(data[srcIdx+0])
		g := uint32(data[srcIdx+1])
		b := uint32(data[srcIdx+2])
		a := uint32(data[srcIdx+3])
		packed := r | (g << 8) | (b << 16) | (a << 24)
		binary.LittleEndian.PutUint32(out[i*4:], packed)
	}
	return out
}

// unpackPixels converts packed u32 words read back from the GPU into a flat
// RGBA byte buffer.
func unpackPixels(readback []byte, dst []uint8, pixelCount int) {
	for i := 0; i < pixelCount; i++ {
		packed := binary.LittleEndian.Uint32(readback[i*4:])
		dstIdx := i * 4
		dst[dstIdx+0] = uint8(packed)
		dst[dstIdx+1] = uint8(packed >> 8)
		dst[dstIdx+2] = uint8(packed >> 16)
		dst[dstIdx+3] = uint8(packed >> 24)
	}
}

// countMask counts the set words of the readback mask buffer. The shader
// writes exactly 0 or 1 per pixel, so this is an exact difference count.
func countMask(mask []byte, pixelCount int) int {
	count := 0
	for i := 0; i < pixelCount; i++ {
		if binary.LittleEndian.Uint32(mask[i*4:]) != 0 {
			count++
		}
	}
	return count
}
