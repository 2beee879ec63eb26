package renderer

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/thereceipt/desk-engine/pkg/labelformat"
)

func (r *Renderer) renderBox(el *labelformat.Element) error {
	border := el.Border
	if border == 0 {
		border = 2
	}
	padding := el.Padding
	if padding == 0 {
		padding = 10
	}

	width := r.width - 2*margin
	contentWidth := width - 2*border - 2*padding
	available := r.height - int(r.y) - 2*border - 2*padding
	if contentWidth <= 0 || available <= 0 {
		return r.reserve(2*border + 2*padding + 1)
	}

	content := r.sub(contentWidth, available)
	for i := range el.Elements {
		if err := content.renderElement(&el.Elements[i]); err != nil {
			return err
		}
	}

	contentHeight := int(content.y)
	boxHeight := contentHeight + 2*border + 2*padding
	if err := r.reserve(boxHeight); err != nil {
		return err
	}

	boxX := float64(margin)
	boxY := r.y

	if el.Inverted {
		r.ctx.SetColor(color.Black)
		r.ctx.DrawRectangle(boxX, boxY, float64(width), float64(boxHeight))
		r.ctx.Fill()
	}

	r.ctx.SetColor(color.Black)
	r.ctx.SetLineWidth(float64(border))
	r.ctx.DrawRectangle(boxX, boxY, float64(width), float64(boxHeight))
	r.ctx.Stroke()

	var img image.Image = content.ctx.Image()
	img = imaging.Crop(img, image.Rect(0, 0, contentWidth, max(contentHeight, 1)))
	if el.Inverted {
		img = imaging.Invert(img)
	}
	r.ctx.DrawImage(img, int(boxX)+border+padding, int(boxY)+border+padding)

	r.y += float64(boxHeight)
	return nil
}
