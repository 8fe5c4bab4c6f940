package imagecache

import "errors"

// Sentinel errors.
var (
	// ErrUnknownLoad is returned when a load key does not match any pending
	// load, including keys whose load has already been finalized.
	ErrUnknownLoad = errors.New("imagecache: unknown load")

	// ErrAlreadyComplete is returned when a terminal result is delivered to
	// a load that already has one.
	ErrAlreadyComplete = errors.New("imagecache: load already complete")

	// ErrNoDecoder is returned by New when the decoder is nil.
	ErrNoDecoder = errors.New("imagecache: nil decoder")

	// ErrBadPlaceholder is returned by New when the configured placeholder
	// bytes cannot be decoded.
	ErrBadPlaceholder = errors.New("imagecache: placeholder failed to decode")
)
