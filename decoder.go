package imagecache

import (
	"bytes"
	"fmt"
	"image"

	// Formats the default decoder recognizes.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Decoder turns the accumulated bytes of a finished fetch into a decoded
// image. The key identifies the originating load; decodes not tied to a
// load, such as the placeholder, use key 0.
//
// Implementations must be safe for concurrent use.
type Decoder interface {
	Decode(key LoadKey, data []byte) (*Image, error)
}

// StdDecoder decodes through the standard library's image registry. PNG,
// JPEG and GIF are registered; importing further format packages extends it.
type StdDecoder struct{}

// Decode implements Decoder.
func (StdDecoder) Decode(_ LoadKey, data []byte) (*Image, error) {
	frame, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := frame.Bounds()
	return &Image{Width: b.Dx(), Height: b.Dy(), Frame: frame}, nil
}
