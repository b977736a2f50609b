package stage

import "sync/atomic"

// uidCounter feeds nextUID. Resource identity (textures, programs,
// geometries, uniform groups, contexts) is tracked by these numbers, so
// they must never repeat within a process.
var uidCounter atomic.Int64

// nextUID returns a process-unique positive identifier.
func nextUID() int {
	return int(uidCounter.Add(1))
}
