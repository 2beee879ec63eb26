package printer

import (
	"encoding/binary"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/thereceipt/desk-engine/internal/bitmap"
)

// ESC/P control bytes
const (
	ESC byte = 0x1B
	LF  byte = 0x0A
	FF  byte = 0x0C
)

const invalidateLength = 200

// RasterOptions control how an image is sliced into bit-image strips
type RasterOptions struct {
	Mode         byte // ESC * density mode
	LineHeight   int  // strip width in dots
	LineFeed     byte // ESC 3 line feed while printing strips
	CanvasWidth  int
	CanvasHeight int
}

// DefaultRasterOptions matches the 62mm die-cut label canvas
var DefaultRasterOptions = RasterOptions{
	Mode:         40,
	LineHeight:   24,
	LineFeed:     16,
	CanvasWidth:  410,
	CanvasHeight: 480,
}

// ESCP builds ESC/P raster command sequences. Pages are opened with
// BeginPage; only the returned page handle can write images.
type ESCP struct {
	seq      CommandSequence
	open     bool
	complete int
}

// ESCPPage is an open ESC/P page
type ESCPPage struct {
	escp   *ESCP
	closed bool
}

// NewESCP creates an empty ESC/P encoder
func NewESCP() *ESCP {
	return &ESCP{}
}

// BeginPage invalidates any half-received job, selects ESC/P mode and
// initializes the printer
func (e *ESCP) BeginPage() (*ESCPPage, error) {
	if e.open {
		return nil, fmt.Errorf("%w: a page is already open", ErrPageState)
	}

	e.seq.Append(make([]byte, invalidateLength))
	// ESC i a 0x00: dynamic command mode = ESC/P
	e.seq.Append([]byte{ESC, 'i', 'a', 0x00})
	// ESC @: initialize
	e.seq.Append([]byte{ESC, '@'})

	e.open = true
	return &ESCPPage{escp: e}, nil
}

// WriteImage writes img with DefaultRasterOptions
func (p *ESCPPage) WriteImage(img image.Image) error {
	return p.WriteImageWith(img, DefaultRasterOptions)
}

// WriteImageWith transforms img into device raster order and emits one
// bit-image command per vertical strip of opts.LineHeight dots
func (p *ESCPPage) WriteImageWith(img image.Image, opts RasterOptions) error {
	if p.closed {
		return ErrPageClosed
	}
	if opts.LineHeight <= 0 || opts.CanvasWidth <= 0 || opts.CanvasHeight <= 0 {
		return fmt.Errorf("%w: line height and canvas must be positive", ErrPageState)
	}

	seq := &p.escp.seq

	// ESC 3 n: line feed size while strips are printed
	seq.Append([]byte{ESC, '3', opts.LineFeed})

	raster := rasterize(img, opts.CanvasWidth, opts.CanvasHeight)
	rows := raster.Height()
	if rows > 0xFFFF {
		return fmt.Errorf("raster height %d does not fit a bit-image command", rows)
	}

	for left := 0; left < raster.Width(); left += opts.LineHeight {
		strip := bitmap.PackColumns(raster, left, opts.LineHeight, bitmap.InkIsOne)

		// ESC * m nL nH d1...dk LF
		cmd := make([]byte, 0, 5+len(strip)+1)
		cmd = append(cmd, ESC, '*', opts.Mode)
		cmd = binary.LittleEndian.AppendUint16(cmd, uint16(rows))
		cmd = append(cmd, strip...)
		cmd = append(cmd, LF)
		seq.Append(cmd)
	}

	// ESC 2: default line feed size
	seq.Append([]byte{ESC, '2'})

	return nil
}

// End closes the page with the print command
func (p *ESCPPage) End() error {
	if p.closed {
		return ErrPageClosed
	}

	p.escp.seq.Append([]byte{FF})
	p.closed = true
	p.escp.open = false
	p.escp.complete++
	return nil
}

// Sequence exposes the accumulated commands
func (e *ESCP) Sequence() *CommandSequence {
	return &e.seq
}

// Bytes flattens the sequence with no separator
func (e *ESCP) Bytes() ([]byte, error) {
	if e.open || e.complete == 0 {
		return nil, ErrNoPage
	}
	return e.seq.Bytes(nil, nil), nil
}

// Transmit writes the whole job to target in one write
func (e *ESCP) Transmit(target string) error {
	data, err := e.Bytes()
	if err != nil {
		return err
	}
	return Transmit(target, data)
}

// rasterize converts img to 1-bit, rotates it onto the label canvas and
// brings it into the printer's strip order. The result is
// canvasHeight wide and canvasWidth tall.
func rasterize(img image.Image, canvasWidth, canvasHeight int) *bitmap.Bitmap {
	mono := bitmap.FromImage(img).Image()

	out := imaging.Rotate90(mono)
	out = imaging.Resize(out, canvasWidth, canvasHeight, imaging.NearestNeighbor)
	out = imaging.Invert(out)
	out = imaging.FlipH(imaging.Rotate270(out))

	return bitmap.FromInvertedImage(out)
}
