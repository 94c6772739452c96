package cache

const numShards = 64

// Sharded is an LRU cache split into shards to reduce lock contention.
type Sharded struct {
	shards [numShards]*LRU
}

// NewSharded creates a sharded cache. The capacity is divided evenly across all shards.
func NewSharded(capacity int64) *Sharded {
	shardCapacity := max(capacity/numShards, 1)
	s := &Sharded{}
	for i := range numShards {
		s.shards[i] = NewLRU(shardCapacity)
	}
	return s
}

func (s *Sharded) shard(key uint64) *LRU {
	return s.shards[splitmix64(key)%numShards]
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// Get returns the cached value for key.
func (s *Sharded) Get(key uint64) ([]byte, bool) { return s.shard(key).Get(key) }

// Set caches b under key.
func (s *Sharded) Set(key uint64, b []byte) { s.shard(key).Set(key, b) }

// Purge removes every entry.
func (s *Sharded) Purge() {
	for _, sh := range s.shards {
		sh.Purge()
	}
}

// Stats returns aggregated hit/miss statistics.
func (s *Sharded) Stats() (hits, misses int64) {
	for _, sh := range s.shards {
		h, m := sh.Stats()
		hits += h
		misses += m
	}
	return hits, misses
}

// Len returns the number of entries across all shards.
func (s *Sharded) Len() int {
	n := 0
	for _, sh := range s.shards {
		n += sh.Len()
	}
	return n
}

// Size returns the total size across all shards.
func (s *Sharded) Size() int64 {
	var total int64
	for _, sh := range s.shards {
		total += sh.Size()
	}
	return total
}
