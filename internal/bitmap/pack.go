package bitmap

// Polarity selects the bit value written for an inked pixel
type Polarity int

const (
	// InkIsOne sets a bit for every dot to fire (ESC/P raster data)
	InkIsOne Polarity = iota
	// InkIsZero clears a bit for every dot to fire (TSPL BITMAP data)
	InkIsZero
)

const bitsPerByte = 8

// Stride returns the packed row length in bytes for width pixels
func Stride(width int) int {
	return (width + bitsPerByte - 1) / bitsPerByte
}

// Pack packs every row most significant pixel first, 8 pixels per byte.
// A row that does not fill its last byte is padded on the right with
// paper (white) pixels, which is 0 under InkIsOne and 1 under InkIsZero.
func Pack(b *Bitmap, polarity Polarity) []byte {
	stride := b.Stride()
	data := make([]byte, stride*b.height)

	for y := 0; y < b.height; y++ {
		packRow(data[y*stride:(y+1)*stride], b, 0, y, b.width, polarity)
	}

	return data
}

// PackColumns packs the window [left, left+width) of every row. Pixels
// right of the bitmap edge are paper. Used to cut vertical strips.
func PackColumns(b *Bitmap, left, width int, polarity Polarity) []byte {
	stride := Stride(width)
	data := make([]byte, stride*b.height)

	for y := 0; y < b.height; y++ {
		packRow(data[y*stride:(y+1)*stride], b, left, y, width, polarity)
	}

	return data
}

func packRow(dst []byte, b *Bitmap, left, y, width int, polarity Polarity) {
	for i := range dst {
		var v byte
		for bit := 0; bit < bitsPerByte; bit++ {
			x := i*bitsPerByte + bit
			on := x < width && b.Ink(left+x, y)
			if on {
				v |= 0x80 >> uint(bit)
			}
		}
		if polarity == InkIsZero {
			v = ^v
		}
		dst[i] = v
	}
}
