package imagetype

// Buffer accumulates the body bytes of an in-flight load.
//
// A Buffer starts mutable and grows through Append. MarkComplete freezes it
// and returns the accumulated bytes, which from then on are shared read-only
// with decoders and consumers. Mutating a frozen buffer is a logic fault in
// the collaborator, not a recoverable condition, and panics.
//
// Buffer is not self-synchronizing; the owning load's lock guards it.
type Buffer struct {
	data     []byte
	complete bool
}

// Append adds a body chunk. Panics if the buffer has been frozen.
func (b *Buffer) Append(p []byte) {
	if b.complete {
		panic("imagecache: attempted modification of complete image bytes")
	}
	b.data = append(b.data, p...)
}

// MarkComplete freezes the buffer and returns the accumulated bytes. The
// returned slice must be treated as immutable. Panics if called twice.
func (b *Buffer) MarkComplete() []byte {
	if b.complete {
		panic("imagecache: attempted modification of complete image bytes")
	}
	b.complete = true
	return b.data
}

// Bytes returns the bytes received so far without changing buffer state.
func (b *Buffer) Bytes() []byte { return b.data }

// Complete reports whether the buffer has been frozen.
func (b *Buffer) Complete() bool { return b.complete }

// Len returns the number of bytes received so far.
func (b *Buffer) Len() int { return len(b.data) }
