package cache_test

import (
	"fmt"

	"github.com/gogpu/imagediff/cache"
)

// A host that rasterizes document pages keeps the decoded rasters keyed by
// source identity and quantized zoom level, so re-rendering at a
// near-identical zoom factor reuses the cached raster instead of decoding
// again.
func Example() {
	rasters := cache.New[cache.RenderKey, []uint8](8)

	raster := make([]uint8, 4) // decoded page pixels
	rasters.Set(cache.KeyFor("page-3", 1.55), raster)

	// 1.62x lands in the same zoom bucket as 1.55x.
	if _, ok := rasters.Get(cache.KeyFor("page-3", 1.62)); ok {
		fmt.Println("raster reused")
	}

	// A different page misses.
	if _, ok := rasters.Get(cache.KeyFor("page-4", 1.55)); !ok {
		fmt.Println("raster decoded")
	}

	// Output:
	// raster reused
	// raster decoded
}
