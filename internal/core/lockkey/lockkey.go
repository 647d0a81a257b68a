package lockkey

import "hash/fnv"

// For returns the advisory lock key for a named background job.
// Stable and deterministic: same name always maps to the same key, so
// concurrent replicas contend on the same pg_advisory lock.
// Uses FNV-64a (stdlib, fast, well-distributed).
func For(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return int64(h.Sum64())
}
