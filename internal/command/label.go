package command

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/thereceipt/desk-engine/internal/printer"
	"github.com/thereceipt/desk-engine/internal/registry"
	"github.com/thereceipt/desk-engine/internal/renderer"
	"github.com/thereceipt/desk-engine/pkg/labelformat"
)

var (
	// ErrPrinterNotFound is returned for IDs missing from the registry
	ErrPrinterNotFound = errors.New("printer not found")
	// ErrNoDevicePath is returned when a status query targets a printer
	// without a local device node
	ErrNoDevicePath = errors.New("no device path")
)

var labelClient = &http.Client{Timeout: 10 * time.Second}

// LoadLabel loads a label template from a file path or an http(s) URL
func LoadLabel(pathOrURL string) (*labelformat.Label, error) {
	if !strings.HasPrefix(pathOrURL, "http://") && !strings.HasPrefix(pathOrURL, "https://") {
		return labelformat.ParseFile(pathOrURL)
	}

	resp, err := labelClient.Get(pathOrURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch label from URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch label: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read label from URL: %w", err)
	}

	return labelformat.Parse(data)
}

func (e *Executor) printerEntry(printerID string) (*registry.PrinterEntry, error) {
	entry := e.registry.GetPrinterInfo(printerID)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrPrinterNotFound, printerID)
	}
	return entry, nil
}

// RenderLabel draws label for a printer's label canvas
func (e *Executor) RenderLabel(printerID string, label *labelformat.Label, values map[string]string) (*image.Gray, *registry.PrinterEntry, error) {
	entry, err := e.printerEntry(printerID)
	if err != nil {
		return nil, nil, err
	}
	if err := labelformat.Validate(label); err != nil {
		return nil, nil, fmt.Errorf("invalid label: %w", err)
	}

	width, height := entry.Label.Width, entry.Label.Height
	if width <= 0 || height <= 0 {
		width, height = registry.DefaultLabelWidth, registry.DefaultLabelHeight
	}

	img, err := renderer.Render(label, values, width, height)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to render label: %w", err)
	}
	return img, entry, nil
}

// Preview renders label and encodes it with the printer's command set
// without printing
func (e *Executor) Preview(printerID string, label *labelformat.Label, values map[string]string) (*image.Gray, []byte, error) {
	img, entry, err := e.RenderLabel(printerID, label, values)
	if err != nil {
		return nil, nil, err
	}

	driver, err := printer.NewDriver(entry.Config)
	if err != nil {
		return nil, nil, err
	}
	data, err := driver.Encode(img)
	if err != nil {
		return nil, nil, err
	}
	return img, data, nil
}

// PrintLabel renders label copies times and queues one job
func (e *Executor) PrintLabel(printerID string, label *labelformat.Label, values map[string]string, copies int) (string, error) {
	img, entry, err := e.RenderLabel(printerID, label, values)
	if err != nil {
		return "", err
	}

	if copies < 1 {
		copies = 1
	}
	pages := make([]image.Image, copies)
	for i := range pages {
		pages[i] = img
	}

	return e.queue.Enqueue(printerID, entry.Target(), entry.Config, pages...)
}

// PrintImages queues already rendered pages for a printer
func (e *Executor) PrintImages(printerID string, imgs ...image.Image) (string, error) {
	entry, err := e.printerEntry(printerID)
	if err != nil {
		return "", err
	}
	return e.queue.Enqueue(printerID, entry.Target(), entry.Config, imgs...)
}

// Status queries the live status reply of a printer's device node
func (e *Executor) Status(ctx context.Context, printerID string) (*printer.StatusResponse, error) {
	entry, err := e.printerEntry(printerID)
	if err != nil {
		return nil, err
	}
	if entry.Device == "" || entry.Type == "network" {
		return nil, fmt.Errorf("%w: printer %s has no device node", ErrNoDevicePath, entry.ID)
	}
	return e.status(ctx, entry.Device)
}
