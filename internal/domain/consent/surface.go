package consent

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// RasterSurface adapts an already-captured PNG (the browser canvas export
// uploaded with the submit request) to the DrawingSurface capability.
type RasterSurface struct {
	data []byte
}

func NewRasterSurface(data []byte) *RasterSurface {
	return &RasterSurface{data: data}
}

func (s *RasterSurface) IsEmpty() bool { return len(s.data) == 0 }

func (s *RasterSurface) Clear() { s.data = nil }

// ExportPNG re-encodes the raster trimmed to its content bounds, so the
// stored signature carries no surrounding blank canvas.
func (s *RasterSurface) ExportPNG() ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(s.data))
	if err != nil {
		return nil, fmt.Errorf("decode signature raster: %w", err)
	}

	bounds := contentBounds(img)
	if bounds.Empty() {
		// Nothing drawn beyond blank canvas; keep the original bytes.
		return s.data, nil
	}

	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}
	cropped, ok := img.(subImager)
	if !ok {
		return s.data, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped.SubImage(bounds)); err != nil {
		return nil, fmt.Errorf("encode trimmed signature: %w", err)
	}
	return buf.Bytes(), nil
}

// contentBounds finds the bounding box of drawn (non-transparent, non-white)
// pixels.
func contentBounds(img image.Image) image.Rectangle {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X, b.Min.Y
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			if r >= 0xf000 && g >= 0xf000 && bl >= 0xf000 {
				continue
			}
			if x < minX {
				minX = x
			}
			if y < minY {
				minY = y
			}
			if x >= maxX {
				maxX = x + 1
			}
			if y >= maxY {
				maxY = y + 1
			}
		}
	}
	if minX >= maxX || minY >= maxY {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX, maxY)
}
