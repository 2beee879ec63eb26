package bitmap

import "image"

// AlignToPixelPerfect moves an odd origin down to the next even
// coordinate, growing the size so the far edge stays put, then pads width
// and height up to a multiple of 8.
func AlignToPixelPerfect(r image.Rectangle) image.Rectangle {
	x, y, w, h := r.Min.X, r.Min.Y, r.Dx(), r.Dy()

	if x%2 != 0 {
		x--
		w++
	}
	if y%2 != 0 {
		y--
		h++
	}

	if rem := w % bitsPerByte; rem != 0 {
		w += bitsPerByte - rem
	}
	if rem := h % bitsPerByte; rem != 0 {
		h += bitsPerByte - rem
	}

	return image.Rect(x, y, x+w, y+h)
}

// InkBounds returns the smallest rectangle holding every inked pixel.
// ok is false for a blank bitmap.
func InkBounds(b *Bitmap) (r image.Rectangle, ok bool) {
	minX, minY := b.width, b.height
	maxX, maxY := -1, -1

	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			if !b.ink[y*b.width+x] {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}

	if maxX < 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}
