// Package imagecache deduplicates and tracks in-flight and completed image
// loads keyed by url, so that layout, painting and script share one
// fetch/decode pipeline per resource instead of each issuing redundant work.
//
// A consumer asks FindImageOrMetadata for a url. Completed loads are served
// from a bounded table; otherwise the lookup lands on the pending index,
// which guarantees at most one in-flight load per url. The fetch
// collaborator feeds body bytes, optional metadata and a terminal result
// back in through NotifyChunk, NotifyMetadata and NotifyDone, addressed by
// the load key returned at request time. Completion finalizes the load into
// the completed table, where failed loads are kept too so they are not
// fetched again.
package imagecache

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/veldt/imagecache/internal/loads"
)

// DefaultCompletedCapacity bounds the completed-load table unless
// WithCompletedCapacity overrides it.
const DefaultCompletedCapacity = 1024

// completedLoad is the immutable final state for a url, retained so a
// second consumer of the same resource never redoes work.
type completedLoad struct {
	response ImageResponse
	key      LoadKey
}

// ImageCache owns the completed-load table and the pending-load index.
// Construct one with New and hand the same instance to every collaborator;
// there is no ambient global cache.
//
// All methods are safe for concurrent use from any goroutine.
type ImageCache struct {
	decoder         Decoder
	placeholderData []byte
	placeholder     *Image
	completedCap    int
	decodeWorkers   int
	log             *slog.Logger

	// mu orders cross-table transitions: lookups hold it shared across the
	// completed check and the pending get-or-create, finalization holds it
	// exclusive across the completed insert and the pending removal. No
	// reader ever sees a url in neither table mid-transition.
	mu        sync.RWMutex
	completed *lru.Cache[string, *completedLoad]
	pending   *loads.AllPendingLoads
	listeners map[LoadKey][]func(ImageResponse)

	// decodeGroup collapses the async decode worker and any sync-decoding
	// lookups into one decode per load key.
	decodeGroup singleflight.Group
	decodeSem   *semaphore.Weighted
}

// New creates an image cache.
func New(opts ...Option) (*ImageCache, error) {
	c := &ImageCache{
		decoder:      StdDecoder{},
		completedCap: DefaultCompletedCapacity,
		log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		pending:      loads.New(),
		listeners:    make(map[LoadKey][]func(ImageResponse)),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.decoder == nil {
		return nil, ErrNoDecoder
	}
	if c.completedCap <= 0 {
		c.completedCap = DefaultCompletedCapacity
	}
	if c.decodeWorkers <= 0 {
		c.decodeWorkers = runtime.GOMAXPROCS(0)
	}

	completed, err := lru.New[string, *completedLoad](c.completedCap)
	if err != nil {
		return nil, err
	}
	c.completed = completed
	c.decodeSem = semaphore.NewWeighted(int64(c.decodeWorkers))

	if len(c.placeholderData) > 0 {
		img, err := c.decoder.Decode(0, c.placeholderData)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadPlaceholder, err)
		}
		c.placeholder = img
	}
	return c, nil
}

// FindImageOrMetadata returns any available image or metadata for url, an
// indication that the load is still in flight, or, when canRequest permits,
// reserves a slot so the caller can originate the fetch.
//
// A nil availability means the returned state applies:
//   - NotRequested(key): a slot was reserved; the caller must start the
//     fetch and deliver responses for key.
//   - Pending(key): another consumer's load is in flight; poll again or
//     register a listener.
//   - LoadError: the resource failed for this caller's policy, or the url
//     is untracked and canRequest forbids creating an entry.
//
// When a load has fully received its bytes but its asynchronous decode has
// not landed yet, the lookup decodes synchronously on the calling goroutine
// rather than wait behind the decode queue: one caller pays a local decode
// so nobody queues on data that is already resident.
func (c *ImageCache) FindImageOrMetadata(url string, placeholder UsePlaceholder, canRequest CanRequestImages) (*ImageOrMetadataAvailable, ImageState) {
	c.mu.RLock()
	if avail, state, ok := c.completedLocked(url, placeholder); ok {
		c.mu.RUnlock()
		c.log.Debug("image available", "url", url)
		return avail, state
	}

	key, pl, created := c.pending.GetOrCreate(url, bool(canRequest))
	if pl == nil {
		c.mu.RUnlock()
		c.log.Debug("no entry and requests not permitted", "url", url)
		return nil, ImageState{Kind: ImageStateLoadError}
	}
	if created {
		c.mu.RUnlock()
		c.log.Debug("should be requesting", "url", url, "key", uint64(key))
		return nil, ImageState{Kind: ImageStateNotRequested, Key: key}
	}

	snap := pl.Snapshot()
	switch {
	case snap.Done && snap.Err == nil:
		c.mu.RUnlock()
		c.log.Debug("sync decoding", "url", url, "key", uint64(key))
		c.decodeOnce(key, url, pl)

		// The decode just populated the completed table (or a racing
		// finalizer beat us to it); re-check rather than trust either.
		c.mu.RLock()
		avail, state, ok := c.completedLocked(url, placeholder)
		c.mu.RUnlock()
		if !ok {
			return nil, ImageState{Kind: ImageStateLoadError}
		}
		return avail, state
	case !snap.Done && snap.HasMeta:
		c.mu.RUnlock()
		c.log.Debug("metadata available", "url", url, "key", uint64(key))
		return &ImageOrMetadataAvailable{Metadata: snap.Metadata}, ImageState{}
	default:
		c.mu.RUnlock()
		c.log.Debug("still pending", "url", url, "key", uint64(key))
		return nil, ImageState{Kind: ImageStatePending, Key: key}
	}
}

// completedLocked classifies the completed entry for url, if any. Callers
// hold mu in either mode; the lru's own lock makes the recency update safe
// under a shared hold.
func (c *ImageCache) completedLocked(url string, placeholder UsePlaceholder) (*ImageOrMetadataAvailable, ImageState, bool) {
	cl, ok := c.completed.Get(url)
	if !ok {
		return nil, ImageState{}, false
	}
	switch {
	case cl.response.Kind == ImageResponseLoaded,
		cl.response.Kind == ImageResponsePlaceholderLoaded && placeholder == UsePlaceholderYes:
		return &ImageOrMetadataAvailable{Image: cl.response.Image}, ImageState{}, true
	default:
		// A rejected placeholder, a failed load, and the never-terminal
		// metadata-only response all classify as a load error.
		return nil, ImageState{Kind: ImageStateLoadError}, true
	}
}

// PendingLoadCount reports how many loads are currently in flight.
func (c *ImageCache) PendingLoadCount() int {
	return c.pending.Len()
}

// AddListener registers fn to be invoked exactly once with the terminal
// response of the pending load for key. Callbacks run after finalization,
// outside the cache's locks, and not on any particular goroutine. Returns
// ErrUnknownLoad if no load is pending for key.
func (c *ImageCache) AddListener(key LoadKey, fn func(ImageResponse)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending.Get(key); !ok {
		return ErrUnknownLoad
	}
	c.listeners[key] = append(c.listeners[key], fn)
	return nil
}
