package imagediff

// Option configures a Differ during creation.
type Option func(*Differ)

// WithPool sets the surface pool the Differ draws normalization canvases
// from. Use this to share one pool across several Differ instances.
func WithPool(pool *SurfacePool) Option {
	return func(d *Differ) {
		if pool != nil {
			d.pool = pool
		}
	}
}

// Differ is the comparison orchestrator: it normalizes two input surfaces
// onto a common canvas, dispatches to a CPU strategy or the registered GPU
// accelerator, writes the rendered diff into an output surface and derives
// the difference statistics.
//
// A Differ is safe for concurrent use as long as each call supplies its own
// surfaces; the only state shared across calls is the internally
// synchronized surface pool.
type Differ struct {
	pool *SurfacePool
}

// New creates a Differ with its own surface pool of default capacity.
func New(opts ...Option) *Differ {
	d := &Differ{pool: NewSurfacePool(DefaultPoolCapacity)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Pool returns the Differ's surface pool, mainly for observability.
func (d *Differ) Pool() *SurfacePool {
	return d.pool
}

// ComparePages compares two page images and writes the rendered diff into
// out, which is resized to the normalized target dimensions.
//
// strategy selects how differently-sized inputs are reconciled; nil selects
// DefaultNormalization. With ModeGPU, the registered accelerator is tried
// first; on a capability or runtime failure the comparison transparently
// falls back to the CPU pixel strategy and the failure is logged, never
// returned as a half-written success.
func (d *Differ) ComparePages(a, b Surface, out OutputSurface, opts DiffOptions, strategy *NormalizationStrategy) (DiffResult, error) {
	if err := opts.Validate(); err != nil {
		return DiffResult{}, err
	}
	s := DefaultNormalization()
	if strategy != nil {
		s = *strategy
	}

	canvasA, canvasB, err := NormalizeCanvases(a, b, s, d.pool)
	if err != nil {
		return DiffResult{}, err
	}
	defer d.pool.Release(canvasA)
	defer d.pool.Release(canvasB)

	out.SetSize(canvasA.Width(), canvasA.Height())

	if opts.Mode == ModeGPU {
		if result, ok := d.tryAccelerated(canvasA, canvasB, out, opts); ok {
			return result, nil
		}
		// Fall through to the CPU pixel comparison.
		opts.Mode = ModePixel
	}

	staging := make([]uint8, len(canvasA.Data()))
	count := Compare(canvasA.Data(), canvasB.Data(), staging, opts, nil)
	if err := out.WritePixels(staging); err != nil {
		return DiffResult{}, err
	}
	return NewDiffResult(count, canvasA.Width()*canvasA.Height()), nil
}

// tryAccelerated attempts the GPU comparison path. It reports false when no
// accelerator is usable or the pass failed, in which case out has not been
// written and the caller must run the CPU fallback.
func (d *Differ) tryAccelerated(a, b *Pixmap, out OutputSurface, opts DiffOptions) (DiffResult, bool) {
	accel := RegisteredAccelerator()
	if accel == nil {
		Logger().Warn("GPU comparison requested but no accelerator registered, using CPU")
		return DiffResult{}, false
	}
	if !accel.Ready() {
		Logger().Warn("GPU accelerator not ready, using CPU", "accelerator", accel.Name())
		return DiffResult{}, false
	}
	result, err := accel.RenderDiff(a, b, out, opts)
	if err != nil {
		Logger().Warn("GPU comparison failed, using CPU",
			"accelerator", accel.Name(), "err", err)
		return DiffResult{}, false
	}
	return result, true
}
