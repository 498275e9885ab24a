package imagediff

// DiffResult summarizes a completed comparison.
type DiffResult struct {
	// DifferenceCount is the number of pixels (not channels) that satisfied
	// the selected mode's difference predicate.
	DifferenceCount int

	// TotalPixels is the number of pixels compared.
	TotalPixels int

	// PercentDiff is 100 * DifferenceCount / TotalPixels.
	PercentDiff float64
}

// NewDiffResult derives a DiffResult from a raw count and pixel total.
func NewDiffResult(differenceCount, totalPixels int) DiffResult {
	r := DiffResult{
		DifferenceCount: differenceCount,
		TotalPixels:     totalPixels,
	}
	if totalPixels > 0 {
		r.PercentDiff = 100 * float64(differenceCount) / float64(totalPixels)
	}
	return r
}
