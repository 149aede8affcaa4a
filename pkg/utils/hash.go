package utils

import (
	"fmt"
	"hash/fnv"
)

// Hash32 generates a 32-bit hash of a string
func Hash32(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// ConsistentHash distributes a key across n buckets using consistent hashing.
// Used to assign partitions to consumer workers during cache population.
func ConsistentHash(key string, seed int, buckets int) int {
	if buckets <= 1 {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(fmt.Sprintf("%d:%s", seed, key)))
	return int(h.Sum32() % uint32(buckets))
}
