package imagecache

import "log/slog"

// Option configures an ImageCache.
type Option func(*ImageCache)

// WithDecoder sets the decoder invoked with completed byte buffers.
// Defaults to StdDecoder.
func WithDecoder(d Decoder) Option {
	return func(c *ImageCache) {
		c.decoder = d
	}
}

// WithPlaceholder sets the encoded placeholder image substituted for failed
// loads when callers accept one. The bytes are decoded during New; no
// placeholder means failed loads resolve to the none response.
func WithPlaceholder(data []byte) Option {
	return func(c *ImageCache) {
		c.placeholderData = data
	}
}

// WithCompletedCapacity bounds the completed-load table to n entries, with
// least-recently-used eviction beyond that. Values <= 0 use
// DefaultCompletedCapacity.
func WithCompletedCapacity(n int) Option {
	return func(c *ImageCache) {
		c.completedCap = n
	}
}

// WithDecodeConcurrency caps the number of decodes running at once on the
// asynchronous path. Values <= 0 use runtime.GOMAXPROCS(0). Synchronous
// decodes during lookups are not throttled.
func WithDecodeConcurrency(n int) Option {
	return func(c *ImageCache) {
		c.decodeWorkers = n
	}
}

// WithLogger sets the logger used for request-path tracing at debug level.
// Defaults to a logger that discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *ImageCache) {
		c.log = l
	}
}
