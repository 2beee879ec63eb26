package renderer

import (
	"os"

	"github.com/thereceipt/desk-engine/internal/logger"
	"github.com/thereceipt/desk-engine/pkg/labelformat"
	"go.uber.org/zap"
)

var systemFonts = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"/usr/share/fonts/truetype/noto/NotoSans-Regular.ttf",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
	"C:\\Windows\\Fonts\\arial.ttf",
}

func (r *Renderer) renderText(el *labelformat.Element) error {
	text := r.resolve(el)

	size := float64(el.Size)
	if size == 0 {
		size = 32
	}

	r.loadFont(size)

	lines := r.ctx.WordWrap(text, float64(r.width-2*margin))
	_, lineHeight := r.ctx.MeasureString("Hg")
	lineHeight *= 1.2

	if err := r.reserve(int(lineHeight*float64(len(lines))) + 1); err != nil {
		return err
	}

	for _, line := range lines {
		w, _ := r.ctx.MeasureString(line)

		var x float64
		switch el.Align {
		case "center":
			x = float64(r.width)/2 - w/2
		case "right":
			x = float64(r.width) - w - margin
		default:
			x = margin
		}

		r.ctx.DrawStringAnchored(line, x, r.y, 0, 1)
		r.y += lineHeight
	}

	return nil
}

// loadFont loads the template font, then the first available system font.
// Without either the built-in bitmap face is kept.
func (r *Renderer) loadFont(size float64) {
	if r.label != nil && r.label.Font != "" {
		err := r.ctx.LoadFontFace(r.label.Font, size)
		if err == nil {
			return
		}
		logger.Warn("failed to load label font", zap.String("font", r.label.Font), zap.Error(err))
	}

	for _, font := range systemFonts {
		if _, err := os.Stat(font); err != nil {
			continue
		}
		if err := r.ctx.LoadFontFace(font, size); err == nil {
			return
		}
	}
}

func (r *Renderer) renderFeed(el *labelformat.Element) error {
	lines := el.Lines
	if lines == 0 {
		lines = 1
	}

	h := lines * 20
	if err := r.reserve(h); err != nil {
		return err
	}
	r.y += float64(h)

	return nil
}
