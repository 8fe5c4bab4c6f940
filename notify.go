package imagecache

import (
	"context"
	"strconv"

	"github.com/veldt/imagecache/internal/loads"
)

// NotifyChunk appends a body chunk to the pending load for key. Returns
// ErrUnknownLoad if no load is pending for key. Chunks arriving after the
// load's bytes have been frozen are a collaborator bug and panic.
func (c *ImageCache) NotifyChunk(key LoadKey, data []byte) error {
	pl, ok := c.pending.Get(key)
	if !ok {
		return ErrUnknownLoad
	}
	pl.Append(data)
	return nil
}

// NotifyMetadata records metadata for the pending load. Repeated delivery
// overwrites: last write wins.
func (c *ImageCache) NotifyMetadata(key LoadKey, meta ImageMetadata) error {
	pl, ok := c.pending.Get(key)
	if !ok {
		return ErrUnknownLoad
	}
	pl.SetMetadata(meta)
	return nil
}

// NotifyDone delivers the terminal result for key. A nil netErr means the
// fetch succeeded: the accumulated bytes are frozen and handed to the
// decoder on a bounded background worker. A non-nil netErr finalizes the
// load immediately, to the placeholder response when one is configured or
// to the none response otherwise.
//
// Returns ErrAlreadyComplete if the load already has a terminal result and
// ErrUnknownLoad if it has already been finalized (or never existed), so a
// duplicate delivery cannot corrupt the completed table.
func (c *ImageCache) NotifyDone(key LoadKey, netErr error) error {
	pl, ok := c.pending.Get(key)
	if !ok {
		return ErrUnknownLoad
	}
	if _, already := pl.Complete(netErr); already {
		return ErrAlreadyComplete
	}

	if netErr != nil {
		c.log.Debug("load failed", "url", pl.URL(), "key", uint64(key), "err", netErr)
		response := ImageResponse{Kind: ImageResponseNone}
		if c.placeholder != nil {
			response = ImageResponse{Kind: ImageResponsePlaceholderLoaded, Image: c.placeholder}
		}
		c.finalize(key, pl.URL(), response)
		return nil
	}

	url := pl.URL()
	go func() {
		// Acquire cannot fail with a background context.
		_ = c.decodeSem.Acquire(context.Background(), 1)
		defer c.decodeSem.Release(1)
		c.decodeOnce(key, url, pl)
	}()
	return nil
}

// decodeOnce decodes the frozen bytes of a successfully fetched load and
// finalizes it. The singleflight group merges the background worker with
// any lookups decoding synchronously; whoever runs second finds the pending
// entry already gone and does nothing.
func (c *ImageCache) decodeOnce(key LoadKey, url string, pl *loads.PendingLoad) {
	flightKey := strconv.FormatUint(uint64(key), 10)
	_, _, _ = c.decodeGroup.Do(flightKey, func() (any, error) {
		if _, stillPending := c.pending.Get(key); !stillPending {
			return nil, nil
		}

		response := ImageResponse{Kind: ImageResponseNone}
		img, err := c.decoder.Decode(key, pl.FrozenBytes())
		switch {
		case err == nil:
			response = ImageResponse{Kind: ImageResponseLoaded, Image: img}
		case c.placeholder != nil:
			// Decode failures classify like network failures.
			response = ImageResponse{Kind: ImageResponsePlaceholderLoaded, Image: c.placeholder}
		}
		if err != nil {
			c.log.Debug("decode failed", "url", url, "key", uint64(key), "err", err)
		}
		c.finalize(key, url, response)
		return nil, nil
	})
}

// finalize is the single point where a load transitions from pending to
// completed. The exclusive lock covers both table mutations, so every
// lookup sees the url in exactly one of them. Listeners fire after the
// locks are released.
func (c *ImageCache) finalize(key LoadKey, url string, response ImageResponse) {
	c.mu.Lock()
	c.completed.Add(url, &completedLoad{response: response, key: key})
	c.pending.Remove(key)
	fns := c.listeners[key]
	delete(c.listeners, key)
	c.mu.Unlock()

	c.log.Debug("load completed", "url", url, "key", uint64(key), "response", response.Kind.String())
	for _, fn := range fns {
		fn(response)
	}
}
