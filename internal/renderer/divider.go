package renderer

import (
	"github.com/thereceipt/desk-engine/pkg/labelformat"
)

func (r *Renderer) renderDivider(el *labelformat.Element) error {
	style := el.Style
	if style == "" {
		style = "solid"
	}

	if err := r.reserve(15); err != nil {
		return err
	}

	y := r.y + 7
	x1 := float64(margin)
	x2 := float64(r.width - margin)

	r.ctx.SetLineWidth(2)

	switch style {
	case "solid":
		r.ctx.DrawLine(x1, y, x2, y)
		r.ctx.Stroke()

	case "double":
		r.ctx.DrawLine(x1, y-2, x2, y-2)
		r.ctx.Stroke()
		r.ctx.DrawLine(x1, y+2, x2, y+2)
		r.ctx.Stroke()

	case "dashed":
		dashLength := 10.0
		gapLength := 5.0
		for x := x1; x < x2; x += dashLength + gapLength {
			endX := min(x+dashLength, x2)
			r.ctx.DrawLine(x, y, endX, y)
			r.ctx.Stroke()
		}

	case "dotted":
		for x := x1; x < x2; x += 8 {
			r.ctx.DrawCircle(x, y, 1)
			r.ctx.Fill()
		}
	}

	r.y += 15

	return nil
}
