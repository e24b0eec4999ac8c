package sampler

import (
	"image"
	"io"
)

func decodeImage(r io.Reader) (image.Image, string, error) {
	return image.Decode(r)
}
