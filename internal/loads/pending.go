package loads

import (
	"sync"

	"github.com/veldt/imagecache/internal/imagetype"
)

// PendingLoad is one in-flight fetch+decode: the bytes received so far, any
// metadata reported before the full body, and the terminal result once the
// fetch ends. The record's own lock makes mutation safe against concurrent
// classification by lookups.
type PendingLoad struct {
	mu       sync.Mutex
	url      string
	bytes    imagetype.Buffer
	metadata *imagetype.Metadata
	done     bool
	err      error
}

func newPendingLoad(url string) *PendingLoad {
	return &PendingLoad{url: url}
}

// URL returns the url this load was created for.
func (p *PendingLoad) URL() string { return p.url }

// Append adds a body chunk. Panics if the load already completed
// successfully, because success freezes the byte buffer.
func (p *PendingLoad) Append(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bytes.Append(data)
}

// SetMetadata records metadata for the load. Last write wins.
func (p *PendingLoad) SetMetadata(m imagetype.Metadata) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metadata = &m
}

// Complete records the terminal result. On success the byte buffer is
// frozen and the shared bytes are returned. A second call reports
// already=true and changes nothing.
func (p *PendingLoad) Complete(err error) (frozen []byte, already bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return nil, true
	}
	p.done = true
	p.err = err
	if err == nil {
		frozen = p.bytes.MarkComplete()
	}
	return frozen, false
}

// Snapshot is a point-in-time view of a pending load, used by lookups to
// pick between the sync-decode, metadata-available and still-pending paths.
type Snapshot struct {
	Done     bool
	Err      error
	HasMeta  bool
	Metadata imagetype.Metadata
}

// Snapshot returns a consistent view of the load's classification inputs.
func (p *PendingLoad) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Snapshot{Done: p.done, Err: p.err}
	if p.metadata != nil {
		s.HasMeta = true
		s.Metadata = *p.metadata
	}
	return s
}

// FrozenBytes returns the shared byte buffer of a successfully completed
// load. Panics if the load has not completed successfully.
func (p *PendingLoad) FrozenBytes() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.done || p.err != nil {
		panic("imagecache: frozen bytes requested before successful completion")
	}
	return p.bytes.Bytes()
}
