package imagediff

import (
	"sync"
	"sync/atomic"
)

// DefaultPoolCapacity is the maximum number of idle surfaces a SurfacePool
// retains. Surfaces released beyond this are dropped for the GC.
const DefaultPoolCapacity = 15

// PoolStats reports allocation behavior of a SurfacePool.
type PoolStats struct {
	// Allocations is the number of surfaces created because the pool was empty.
	Allocations uint64

	// Reuses is the number of acquisitions served from the free list.
	Reuses uint64
}

// SurfacePool is a bounded reuse pool for Pixmap surfaces.
//
// Acquire resizes an idle surface in place instead of allocating, which is
// what makes reuse valid: the surface object keeps its identity and its
// backing array grows only when a larger size is requested. Release clears
// the surface before returning it, so acquired surfaces always start zeroed.
//
// A released surface must never be referenced again by the releaser.
//
// Thread safety: SurfacePool is safe for concurrent use. The free list is
// mutex-guarded and the statistics are atomic.
type SurfacePool struct {
	mu       sync.Mutex
	free     []*Pixmap
	capacity int

	// Statistics (atomic for lock-free reads)
	allocations atomic.Uint64
	reuses      atomic.Uint64
}

// NewSurfacePool creates a pool retaining at most capacity idle surfaces.
// If capacity <= 0, DefaultPoolCapacity is used.
func NewSurfacePool(capacity int) *SurfacePool {
	if capacity <= 0 {
		capacity = DefaultPoolCapacity
	}
	return &SurfacePool{capacity: capacity}
}

// Acquire returns a surface of the requested dimensions, reusing an idle
// surface when one is available. The surface contents are zeroed.
func (p *SurfacePool) Acquire(width, height int) *Pixmap {
	p.mu.Lock()
	if n := len(p.free); n > 0 {
		pm := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		p.mu.Unlock()
		p.reuses.Add(1)
		pm.SetSize(width, height)
		pm.Zero()
		return pm
	}
	p.mu.Unlock()
	p.allocations.Add(1)
	return NewPixmap(width, height)
}

// Release clears a surface and returns it to the pool. If the pool is at
// capacity the surface is dropped. Releasing nil is a no-op.
func (p *SurfacePool) Release(pm *Pixmap) {
	if pm == nil {
		return
	}
	pm.Zero()
	p.mu.Lock()
	if len(p.free) < p.capacity {
		p.free = append(p.free, pm)
	}
	p.mu.Unlock()
}

// Stats returns the allocation/reuse counters.
func (p *SurfacePool) Stats() PoolStats {
	return PoolStats{
		Allocations: p.allocations.Load(),
		Reuses:      p.reuses.Load(),
	}
}

// ResetStats zeroes the allocation/reuse counters.
func (p *SurfacePool) ResetStats() {
	p.allocations.Store(0)
	p.reuses.Store(0)
}

// Idle returns the current number of surfaces on the free list.
func (p *SurfacePool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}
