// filepath: internal/media/image_codecs.go
package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// CheckImageProcessing scales a tiny image the way cover thumbnails are produced and
// round-trips it through every codec the library relies on.
func CheckImageProcessing() error {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.RGBA{R: 255, A: 255})
	src.Set(1, 1, color.RGBA{B: 255, A: 255})

	thumb := image.NewRGBA(image.Rect(0, 0, 1, 1))
	draw.CatmullRom.Scale(thumb, thumb.Bounds(), src, src.Bounds(), draw.Over, nil)

	codecs := []struct {
		format string
		encode func(*bytes.Buffer, image.Image) error
	}{
		{"png", func(b *bytes.Buffer, m image.Image) error { return png.Encode(b, m) }},
		{"jpeg", func(b *bytes.Buffer, m image.Image) error { return jpeg.Encode(b, m, nil) }},
		{"gif", func(b *bytes.Buffer, m image.Image) error { return gif.Encode(b, m, nil) }},
	}

	for _, codec := range codecs {
		var buf bytes.Buffer
		if err := codec.encode(&buf, thumb); err != nil {
			return fmt.Errorf("%s encoder: %w", codec.format, err)
		}
		_, format, err := image.Decode(&buf)
		if err != nil {
			return fmt.Errorf("%s decoder: %w", codec.format, err)
		}
		if format != codec.format {
			return fmt.Errorf("%s decoder not registered, got %q", codec.format, format)
		}
	}
	return nil
}
