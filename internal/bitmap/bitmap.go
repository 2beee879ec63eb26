// Package bitmap converts images into 1-bit ink maps and packs them for printers
package bitmap

import (
	"fmt"
	"image"
)

// DefaultThreshold splits dark from light at 50% luminance
const DefaultThreshold uint8 = 128

// Bitmap is an immutable width x height grid of ink bits
type Bitmap struct {
	width, height int
	ink           []bool
}

// New builds a bitmap from rows of ink flags. All rows must share the
// width of the first one.
func New(rows [][]bool) (*Bitmap, error) {
	height := len(rows)
	width := 0
	if height > 0 {
		width = len(rows[0])
	}

	ink := make([]bool, 0, width*height)
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d pixels, expected %d", y, len(row), width)
		}
		ink = append(ink, row...)
	}

	return &Bitmap{width: width, height: height, ink: ink}, nil
}

// FromImage thresholds an image at DefaultThreshold
func FromImage(img image.Image) *Bitmap {
	return FromImageThreshold(img, DefaultThreshold)
}

// FromImageThreshold marks every pixel darker than threshold as ink.
// Fully transparent pixels are paper.
func FromImageThreshold(img image.Image, threshold uint8) *Bitmap {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	ink := make([]bool, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			if a == 0 {
				continue
			}
			// ITU-R 601 luma on 16-bit channels
			lum := (299*r + 587*g + 114*b) / 1000
			ink[y*width+x] = uint8(lum>>8) < threshold
		}
	}

	return &Bitmap{width: width, height: height, ink: ink}
}

func (b *Bitmap) Width() int {
	return b.width
}

func (b *Bitmap) Height() int {
	return b.height
}

// Ink reports whether (x, y) carries ink. Out of range pixels are paper.
func (b *Bitmap) Ink(x, y int) bool {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return false
	}
	return b.ink[y*b.width+x]
}

// Stride is the number of packed bytes per row
func (b *Bitmap) Stride() int {
	return Stride(b.width)
}

// Crop returns the part of b inside r. Pixels of r outside b are paper,
// so r may extend past the bitmap edges.
func (b *Bitmap) Crop(r image.Rectangle) *Bitmap {
	width, height := r.Dx(), r.Dy()
	ink := make([]bool, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			ink[y*width+x] = b.Ink(r.Min.X+x, r.Min.Y+y)
		}
	}
	return &Bitmap{width: width, height: height, ink: ink}
}

// Image renders the bitmap as black on white, mainly for previews
func (b *Bitmap) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, b.width, b.height))
	for i, on := range b.ink {
		if on {
			img.Pix[i] = 0x00
		} else {
			img.Pix[i] = 0xFF
		}
	}
	return img
}

func (b *Bitmap) String() string {
	return fmt.Sprintf("Bitmap(%d,%d)", b.width, b.height)
}

// FromInvertedImage reads an image whose polarity has been inverted:
// pixels at or above DefaultThreshold are ink.
func FromInvertedImage(img image.Image) *Bitmap {
	b := FromImage(img)
	for i := range b.ink {
		b.ink[i] = !b.ink[i]
	}
	return b
}
