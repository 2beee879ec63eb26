package printer

import (
	"fmt"
	"image"
)

// Driver turns label images into a complete print job for one command
// language
type Driver interface {
	Type() CommandType
	// Encode renders one page per image
	Encode(imgs ...image.Image) ([]byte, error)
}

// NewDriver selects the driver for cfg's command type
func NewDriver(cfg Config) (Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.TypeValue() {
	case CommandTSPL:
		return tsplDriver{cfg: cfg}, nil
	default:
		return escpDriver{}, nil
	}
}

type escpDriver struct{}

func (escpDriver) Type() CommandType { return CommandESCP }

func (escpDriver) Encode(imgs ...image.Image) ([]byte, error) {
	e := NewESCP()
	for i, img := range imgs {
		page, err := e.BeginPage()
		if err != nil {
			return nil, err
		}
		if err := page.WriteImage(img); err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		if err := page.End(); err != nil {
			return nil, err
		}
	}
	return e.Bytes()
}

type tsplDriver struct {
	cfg Config
}

func (tsplDriver) Type() CommandType { return CommandTSPL }

func (d tsplDriver) Encode(imgs ...image.Image) ([]byte, error) {
	t, err := NewTSPL(d.cfg)
	if err != nil {
		return nil, err
	}

	for i, img := range imgs {
		page, err := t.BeginPage()
		if err != nil {
			return nil, err
		}
		if err := page.Configure(); err != nil {
			return nil, err
		}
		if err := page.WriteBitmap(img); err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		if err := page.End(); err != nil {
			return nil, err
		}
	}
	return t.Bytes()
}

// PrintImages encodes imgs for cfg and transmits the job to target
func PrintImages(target string, cfg Config, imgs ...image.Image) error {
	driver, err := NewDriver(cfg)
	if err != nil {
		return err
	}

	data, err := driver.Encode(imgs...)
	if err != nil {
		return fmt.Errorf("failed to encode %s job: %w", driver.Type(), err)
	}

	return Transmit(target, data)
}
