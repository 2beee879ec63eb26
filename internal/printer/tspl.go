package printer

import (
	"fmt"
	"image"
	"strconv"

	"github.com/thereceipt/desk-engine/internal/bitmap"
)

var crlf = []byte("\r\n")

// TSPL builds label-description command sequences for one label config
type TSPL struct {
	cfg      Config
	seq      CommandSequence
	open     bool
	complete int
}

type tsplPageState int

const (
	tsplPageOpen tsplPageState = iota
	tsplPageConfigured
	tsplPageClosed
)

// TSPLPage is an open TSPL page
type TSPLPage struct {
	tspl  *TSPL
	state tsplPageState
}

// NewTSPL creates a TSPL encoder for cfg
func NewTSPL(cfg Config) (*TSPL, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &TSPL{cfg: cfg}, nil
}

// BeginPage emits the printer initialization command
func (t *TSPL) BeginPage() (*TSPLPage, error) {
	if t.open {
		return nil, fmt.Errorf("%w: a page is already open", ErrPageState)
	}

	t.seq.AppendString("INITIALPRINTER")
	t.open = true
	return &TSPLPage{tspl: t}, nil
}

// Configure emits the page geometry and print settings
func (p *TSPLPage) Configure() error {
	switch p.state {
	case tsplPageClosed:
		return ErrPageClosed
	case tsplPageConfigured:
		return fmt.Errorf("%w: page already configured", ErrPageState)
	}

	for _, cmd := range pageSetupCommands(p.tspl.cfg) {
		p.tspl.seq.AppendString(cmd)
	}
	p.state = tsplPageConfigured
	return nil
}

func pageSetupCommands(cfg Config) []string {
	direction := 0
	if cfg.DirectionValue() == DirectionBackward {
		direction = 1
	}

	cmds := []string{
		fmt.Sprintf("SIZE %s mm, %s mm", formatMM(cfg.Width), formatMM(cfg.Height)),
		fmt.Sprintf("GAP %d mm, 0 mm", cfg.Gap),
		fmt.Sprintf("OFFSET %s mm", formatMM(cfg.Offset)),
		fmt.Sprintf("DIRECTION %d", direction),
	}
	if cfg.Speed != "" {
		cmds = append(cmds, "SPEED "+cfg.Speed)
	}
	cmds = append(cmds, fmt.Sprintf("DENSITY %d", cfg.DensityValue()))

	return cmds
}

func formatMM(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteBitmap clears the image buffer and draws img at the origin
func (p *TSPLPage) WriteBitmap(img image.Image) error {
	if err := p.checkWritable(); err != nil {
		return err
	}

	b := bitmap.FromImage(img)
	p.emitBitmap(0, 0, b)
	return nil
}

// WriteBitmapCropped draws only the ink bounding box of img, aligned to
// even coordinates and byte sized dimensions. A blank image is sent as a
// full-canvas bitmap.
func (p *TSPLPage) WriteBitmapCropped(img image.Image) error {
	if err := p.checkWritable(); err != nil {
		return err
	}

	b := bitmap.FromImage(img)
	r, ok := bitmap.InkBounds(b)
	if !ok {
		p.emitBitmap(0, 0, b)
		return nil
	}

	r = bitmap.AlignToPixelPerfect(r)
	p.emitBitmap(r.Min.X, r.Min.Y, b.Crop(r))
	return nil
}

func (p *TSPLPage) checkWritable() error {
	switch p.state {
	case tsplPageClosed:
		return ErrPageClosed
	case tsplPageOpen:
		return fmt.Errorf("%w: configure the page before writing", ErrPageState)
	}
	return nil
}

// emitBitmap writes CLS followed by
// BITMAP x,y,width_bytes,height,mode,data where mode 0 overwrites
func (p *TSPLPage) emitBitmap(x, y int, b *bitmap.Bitmap) {
	seq := &p.tspl.seq
	seq.AppendString("CLS")

	header := fmt.Sprintf("BITMAP %d,%d,%d,%d,0,", x, y, b.Stride(), b.Height())
	cmd := append([]byte(header), bitmap.Pack(b, bitmap.InkIsZero)...)
	seq.Append(cmd)
}

// End prints one copy and ends the program
func (p *TSPLPage) End() error {
	if p.state == tsplPageClosed {
		return ErrPageClosed
	}

	p.tspl.seq.AppendString("PRINT 1")
	p.tspl.seq.AppendString("END")
	p.state = tsplPageClosed
	p.tspl.open = false
	p.tspl.complete++
	return nil
}

// Sequence exposes the accumulated commands
func (t *TSPL) Sequence() *CommandSequence {
	return &t.seq
}

// Bytes joins the commands with CRLF and terminates the last one
func (t *TSPL) Bytes() ([]byte, error) {
	if t.open || t.complete == 0 {
		return nil, ErrNoPage
	}
	return t.seq.Bytes(crlf, crlf), nil
}

// Transmit writes the whole job to target in one write
func (t *TSPL) Transmit(target string) error {
	data, err := t.Bytes()
	if err != nil {
		return err
	}
	return Transmit(target, data)
}
