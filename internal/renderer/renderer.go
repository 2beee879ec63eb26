// Package renderer draws label templates onto a monochrome canvas
package renderer

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/thereceipt/desk-engine/internal/bitmap"
	"github.com/thereceipt/desk-engine/pkg/labelformat"
)

// ErrOverflow is returned when the elements do not fit the canvas height
var ErrOverflow = errors.New("label content exceeds canvas")

// margin is the horizontal inset of drawn content in pixels
const margin = 10

// Renderer converts label elements to an image
type Renderer struct {
	width  int
	height int
	ctx    *gg.Context
	y      float64 // Current Y position

	label  *labelformat.Label
	values map[string]string
}

// New creates a white canvas of the given pixel size
func New(width, height int) *Renderer {
	ctx := gg.NewContext(width, height)
	ctx.SetColor(color.White)
	ctx.Clear()
	ctx.SetColor(color.Black)

	return &Renderer{
		width:  width,
		height: height,
		ctx:    ctx,
	}
}

// Render draws label with values onto a canvas. The label's own size wins
// over the given default canvas size.
func Render(label *labelformat.Label, values map[string]string, width, height int) (*image.Gray, error) {
	if label.Width > 0 {
		width = label.Width
	}
	if label.Height > 0 {
		height = label.Height
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", width, height)
	}

	return New(width, height).Render(label, values)
}

// Render draws every element top to bottom and returns the thresholded
// canvas
func (r *Renderer) Render(label *labelformat.Label, values map[string]string) (*image.Gray, error) {
	r.label = label
	r.values = values

	for i := range label.Elements {
		if err := r.renderElement(&label.Elements[i]); err != nil {
			return nil, fmt.Errorf("failed to render element %d (%s): %w", i, label.Elements[i].Type, err)
		}
	}

	return r.Image(), nil
}

// Image returns the canvas as a black and white image
func (r *Renderer) Image() *image.Gray {
	return bitmap.FromImage(r.ctx.Image()).Image()
}

func (r *Renderer) renderElement(el *labelformat.Element) error {
	switch el.Type {
	case "text":
		return r.renderText(el)
	case "feed":
		return r.renderFeed(el)
	case "divider":
		return r.renderDivider(el)
	case "image":
		return r.renderImage(el)
	case "barcode":
		return r.renderBarcode(el)
	case "qrcode":
		return r.renderQRCode(el)
	case "box":
		return r.renderBox(el)
	default:
		return fmt.Errorf("unsupported element type: %s", el.Type)
	}
}

func (r *Renderer) resolve(el *labelformat.Element) string {
	if r.label == nil {
		return el.Value
	}
	return r.label.Resolve(el, r.values)
}

// reserve checks that h more pixels fit below the current position
func (r *Renderer) reserve(h int) error {
	if int(r.y)+h > r.height {
		return fmt.Errorf("%w: need %dpx at y=%d of %d", ErrOverflow, h, int(r.y), r.height)
	}
	return nil
}

// sub creates a renderer for nested content sharing this one's template
func (r *Renderer) sub(width, height int) *Renderer {
	s := New(width, height)
	s.label = r.label
	s.values = r.values
	return s
}
