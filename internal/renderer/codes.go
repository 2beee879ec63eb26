package renderer

import (
	"fmt"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/ean"
	"github.com/skip2/go-qrcode"
	"github.com/thereceipt/desk-engine/pkg/labelformat"
)

func (r *Renderer) renderBarcode(el *labelformat.Element) error {
	value := r.resolve(el)
	if value == "" {
		return nil
	}

	height := el.Height
	if height == 0 {
		height = 80
	}

	var code barcode.Barcode
	var err error

	switch el.Format {
	case "CODE39":
		code, err = code39.Encode(value, false, true)
	case "EAN13", "EAN8":
		code, err = ean.Encode(value)
	default:
		code, err = code128.Encode(value)
	}
	if err != nil {
		return err
	}

	// Scale by whole modules so bars stay crisp
	width := el.Width
	if width == 0 {
		width = (r.width - 2*margin) / code.Bounds().Dx() * code.Bounds().Dx()
		if width == 0 {
			width = code.Bounds().Dx()
		}
	}
	code, err = barcode.Scale(code, width, height)
	if err != nil {
		return err
	}

	if err := r.reserve(height + 10); err != nil {
		return err
	}

	x := (r.width - code.Bounds().Dx()) / 2
	r.ctx.DrawImage(code, x, int(r.y))
	r.y += float64(height) + 10

	return nil
}

func (r *Renderer) renderQRCode(el *labelformat.Element) error {
	value := r.resolve(el)
	if value == "" {
		return nil
	}

	level := qrcode.Medium
	switch el.ErrorCorrection {
	case "L":
		level = qrcode.Low
	case "Q":
		level = qrcode.High
	case "H":
		level = qrcode.Highest
	}

	qr, err := qrcode.New(value, level)
	if err != nil {
		return err
	}
	qr.DisableBorder = true

	// Size defaults to the largest square that fits the remaining space
	size := el.Size
	if size == 0 {
		size = min(r.width-2*margin, r.height-int(r.y)-10, 400)
	}
	if size < 21 {
		return fmt.Errorf("%w: no room for a QR code at y=%d", ErrOverflow, int(r.y))
	}
	if err := r.reserve(size + 10); err != nil {
		return err
	}

	img := qr.Image(size)
	x := (r.width - img.Bounds().Dx()) / 2
	r.ctx.DrawImage(img, x, int(r.y))
	r.y += float64(img.Bounds().Dy()) + 10

	return nil
}
