// Package imagetype holds the leaf types shared across the image cache:
// load keys, image metadata, and the progressive byte buffer.
package imagetype

import "sync/atomic"

// Key identifies one pending load for the lifetime of the process. It
// doubles as the pending-image id handed to consumers so a later completion
// can be correlated with the request that started it. The zero Key is never
// issued and marks work not tied to any load.
type Key uint64

// Generator issues process-unique, strictly increasing keys. The zero
// Generator is ready to use and safe for concurrent use.
type Generator struct {
	counter atomic.Uint64
}

// Next returns a key strictly greater than every previously issued key.
// The counter does not wrap; exhausting 64 bits is not a supported regime.
func (g *Generator) Next() Key {
	return Key(g.counter.Add(1))
}
