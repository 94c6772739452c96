// Package pool recycles the per-shard hit buffers of the off-target scan.
package pool

import "sync"

const (
	defaultCapacity = 64
	// maxRetained caps the capacity of buffers returned to the pool.
	maxRetained = 1 << 16
)

// Hit is a candidate within threshold, identified by its position in the index.
type Hit struct {
	Pos      int
	Distance int
	Reverse  bool
}

// Hits is a reusable slice of hits.
type Hits struct {
	List []Hit
}

var hitsPool = sync.Pool{
	New: func() any { return &Hits{List: make([]Hit, 0, defaultCapacity)} },
}

// GetHits returns an empty buffer.
func GetHits() *Hits {
	h := hitsPool.Get().(*Hits)
	h.List = h.List[:0]
	return h
}

// PutHits returns h to the pool. Oversized buffers are dropped.
func PutHits(h *Hits) {
	if h == nil || cap(h.List) > maxRetained {
		return
	}
	hitsPool.Put(h)
}
