package imagecache

import (
	"image"

	"github.com/veldt/imagecache/internal/imagetype"
)

// LoadKey identifies a pending image load. It is surfaced to consumers as
// the pending-image id so a later completion can be correlated with the
// request that started it.
//
// LoadKey is an alias for imagetype.Key so internal packages share the type.
type LoadKey = imagetype.Key

// ImageMetadata carries image dimensions, known once the header bytes have
// been seen and before the full body arrives.
//
// ImageMetadata is an alias for imagetype.Metadata.
type ImageMetadata = imagetype.Metadata

// Image is a decoded image. Images published by the cache are immutable and
// shared by pointer between consumers; mutating one is a logic fault.
type Image struct {
	Width  int
	Height int

	// Frame is the decoded raster data. Decoders that hand pixels to an
	// external surface may leave it nil.
	Frame image.Image
}

// ImageResponseKind discriminates ImageResponse variants.
type ImageResponseKind uint8

const (
	// ImageResponseNone means neither the requested image nor a placeholder
	// could be loaded.
	ImageResponseNone ImageResponseKind = iota

	// ImageResponseLoaded means the requested image was loaded.
	ImageResponseLoaded

	// ImageResponseMetadataLoaded means only metadata was loaded. It is
	// never a terminal classification and never reaches the completed table.
	ImageResponseMetadataLoaded

	// ImageResponsePlaceholderLoaded means the request failed and the
	// configured placeholder was loaded instead.
	ImageResponsePlaceholderLoaded
)

func (k ImageResponseKind) String() string {
	switch k {
	case ImageResponseNone:
		return "none"
	case ImageResponseLoaded:
		return "loaded"
	case ImageResponseMetadataLoaded:
		return "metadata-loaded"
	case ImageResponsePlaceholderLoaded:
		return "placeholder-loaded"
	default:
		return "unknown"
	}
}

// ImageResponse is the terminal classification of a finished load. Image is
// set for Loaded and PlaceholderLoaded, Metadata for MetadataLoaded.
type ImageResponse struct {
	Kind     ImageResponseKind
	Image    *Image
	Metadata ImageMetadata
}

// ImageStateKind discriminates ImageState variants.
type ImageStateKind uint8

const (
	// ImageStateNone means no state applies: an image or metadata was
	// returned alongside.
	ImageStateNone ImageStateKind = iota

	// ImageStatePending means the load is in flight. Poll again or register
	// a listener with AddListener.
	ImageStatePending

	// ImageStateNotRequested means a slot was reserved for the url and the
	// caller must originate the fetch, correlating responses with Key.
	ImageStateNotRequested

	// ImageStateLoadError means the resource is broken for this caller, or
	// the caller was not permitted to start a request.
	ImageStateLoadError
)

func (k ImageStateKind) String() string {
	switch k {
	case ImageStateNone:
		return "none"
	case ImageStatePending:
		return "pending"
	case ImageStateNotRequested:
		return "not-requested"
	case ImageStateLoadError:
		return "load-error"
	default:
		return "unknown"
	}
}

// ImageState is returned by FindImageOrMetadata when no image or metadata
// is available. Key is valid for Pending and NotRequested.
type ImageState struct {
	Kind ImageStateKind
	Key  LoadKey
}

// ImageOrMetadataAvailable reports what a lookup found: the full decoded
// image when Image is non-nil, otherwise metadata only.
type ImageOrMetadataAvailable struct {
	Image    *Image
	Metadata ImageMetadata
}

// CanRequestImages reports whether the calling context may originate a new
// network request. Contexts such as layout passes running concurrently with
// script may only observe existing state.
type CanRequestImages bool

const (
	CanRequestImagesNo  CanRequestImages = false
	CanRequestImagesYes CanRequestImages = true
)

// UsePlaceholder reports whether a placeholder image is an acceptable
// substitute for a failed load.
type UsePlaceholder bool

const (
	UsePlaceholderNo  UsePlaceholder = false
	UsePlaceholderYes UsePlaceholder = true
)
