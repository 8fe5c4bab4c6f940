package imagetype

// Metadata describes an image before its body has fully arrived. Dimensions
// become known once enough header bytes have been seen, which lets layout
// reflow before the full image is available.
type Metadata struct {
	Width  int
	Height int
}
