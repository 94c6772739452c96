// Package cache provides LRU caching for encoded off-target results.
//
// An index never changes once opened, so the answer to a query id is stable for the
// lifetime of a loaded index and can be kept until evicted.
//
// # Result Cache (RAM)
//
// Sharded splits entries across 64 LRU shards keyed by query id:
//   - Shard selection uses a splitmix64 hash of the id
//   - Per-shard mutex for minimal contention
//   - Capacity in bytes is divided evenly across shards
package cache
