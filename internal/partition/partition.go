// Package partition maps keys to partitions and partitions to shards.
// Both functions are pure, so every shard computes ownership on its own
// and no coordination service is needed; the assignment only changes when
// the shard count changes, which requires a coordinated redeploy.
package partition

// PartitionOf hashes a key into [0, total). The hash folds the key's
// UTF-8 bytes with a 31 multiplier over wrapping 32-bit arithmetic, so the
// value is stable across processes and platforms.
func PartitionOf(key string, total int) int {
	if total <= 0 {
		return 0
	}
	var h int32
	for i := 0; i < len(key); i++ {
		h = h*31 + int32(key[i])
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return int(v % int64(total))
}

// Owns reports whether the shard owns the partition. Each shard owns one
// contiguous range; the ranges are disjoint and cover [0, total).
func Owns(part, shardIndex, shardCount, total int) bool {
	if shardCount <= 0 || total <= 0 || part < 0 || part >= total {
		return false
	}
	return part*shardCount/total == shardIndex
}
