package renderer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
	"github.com/thereceipt/desk-engine/internal/bitmap"
	"github.com/thereceipt/desk-engine/pkg/labelformat"
)

// DecodeImage decodes base64 encoded PNG or JPEG data
func DecodeImage(b64 string) (image.Image, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func loadImage(el *labelformat.Element) (image.Image, error) {
	if el.Base64 != "" {
		return DecodeImage(el.Base64)
	}

	file, err := os.Open(el.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	return img, err
}

func (r *Renderer) renderImage(el *labelformat.Element) error {
	img, err := loadImage(el)
	if err != nil {
		return err
	}

	// Shrink to fit the content width and the remaining height
	maxW, maxH := r.width-2*margin, r.height-int(r.y)
	if img.Bounds().Dx() > maxW || img.Bounds().Dy() > maxH {
		img = imaging.Fit(img, maxW, maxH, imaging.Lanczos)
	}

	threshold := el.Threshold
	if threshold == 0 {
		threshold = 128
	}
	bw := bitmap.FromImageThreshold(img, uint8(threshold)).Image()

	h := bw.Bounds().Dy()
	if err := r.reserve(h); err != nil {
		return err
	}

	x := (r.width - bw.Bounds().Dx()) / 2
	r.ctx.DrawImage(bw, x, int(r.y))
	r.y += float64(h)

	return nil
}
