// Package registry manages persistent desk printer and reader records
package registry

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/thereceipt/desk-engine/internal/logger"
	"github.com/thereceipt/desk-engine/internal/printer"
	"go.uber.org/zap"
)

// Default label canvas in pixels
const (
	DefaultLabelWidth  = 960
	DefaultLabelHeight = 410
)

// Registry manages printer identities, names, configs and scanner readers
type Registry struct {
	filePath string
	printers map[string]*PrinterEntry
	readers  map[string]*ReaderEntry
	mu       sync.RWMutex
}

// LabelSize is the render canvas of a printer's labels in pixels
type LabelSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// PrinterEntry stores persistent information about a printer
type PrinterEntry struct {
	ID          string         `json:"id"`
	IdentityKey string         `json:"identity_key"`
	Type        string         `json:"type"` // usb, serial, network, device
	VID         uint16         `json:"vid,omitempty"`
	PID         uint16         `json:"pid,omitempty"`
	Device      string         `json:"device,omitempty"`
	Host        string         `json:"host,omitempty"`
	Port        int            `json:"port,omitempty"`
	Description string         `json:"description"`
	Name        string         `json:"name,omitempty"` // Custom user-set name
	Config      printer.Config `json:"config"`
	Label       LabelSize      `json:"label"`
}

// Target returns the transmit target for the printer
func (e *PrinterEntry) Target() string {
	switch e.Type {
	case "network":
		return fmt.Sprintf("tcp://%s:%d", e.Host, e.Port)
	case "serial":
		return "serial://" + e.Device
	case "usb":
		if e.Device == "" {
			return fmt.Sprintf("usb://%04x:%04x", e.VID, e.PID)
		}
	}
	return e.Device
}

// ReaderEntry is a registered barcode/QR reader
type ReaderEntry struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	Name      string `json:"name,omitempty"`
	Automated bool   `json:"automated,omitempty"`
}

// PrinterInfo represents basic printer information for detection
type PrinterInfo struct {
	Type        string
	Description string
	Device      string
	VID         uint16
	PID         uint16
	Host        string
	Port        int
}

type fileData struct {
	Printers map[string]*PrinterEntry `json:"printers"`
	Readers  map[string]*ReaderEntry  `json:"readers"`
}

// New creates a new Registry
func New(filePath string) (*Registry, error) {
	r := &Registry{
		filePath: filePath,
		printers: make(map[string]*PrinterEntry),
		readers:  make(map[string]*ReaderEntry),
	}

	if err := r.load(); err != nil {
		// If file doesn't exist, that's okay - we'll create it on first save
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load registry: %w", err)
		}
	}

	return r, nil
}

// GetPrinterID gets or creates a persistent ID for a printer. New printers
// start with the ESC/P config and the default label canvas.
func (r *Registry) GetPrinterID(info PrinterInfo) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	identityKey := generateIdentityKey(info)

	if entry, exists := r.printers[identityKey]; exists {
		return entry.ID
	}

	entry := &PrinterEntry{
		ID:          uuid.New().String(),
		IdentityKey: identityKey,
		Type:        info.Type,
		VID:         info.VID,
		PID:         info.PID,
		Device:      info.Device,
		Host:        info.Host,
		Port:        info.Port,
		Description: info.Description,
		Config:      printer.Config{Type: printer.CommandESCP, Width: 62, Height: 29},
		Label:       LabelSize{Width: DefaultLabelWidth, Height: DefaultLabelHeight},
	}
	r.printers[identityKey] = entry
	r.persist()

	return entry.ID
}

// GetPrinterName gets the custom name for a printer, or empty string if not set
func (r *Registry) GetPrinterName(printerID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry := r.findPrinter(printerID); entry != nil {
		return entry.Name
	}
	return ""
}

// SetPrinterName sets a custom name for a printer
func (r *Registry) SetPrinterName(printerID string, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.findPrinter(printerID)
	if entry == nil {
		return false
	}
	entry.Name = name
	r.persist()
	return true
}

// SetPrinterConfig replaces the command config and label canvas of a
// printer. A zero label size keeps the current one.
func (r *Registry) SetPrinterConfig(printerID string, cfg printer.Config, label LabelSize) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if label.Width < 0 || label.Height < 0 {
		return fmt.Errorf("invalid label size %dx%d", label.Width, label.Height)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.findPrinter(printerID)
	if entry == nil {
		return fmt.Errorf("printer not found: %s", printerID)
	}

	entry.Config = cfg
	if label.Width > 0 && label.Height > 0 {
		entry.Label = label
	}
	r.persist()
	return nil
}

// GetPrinterInfo gets all stored information for a printer
func (r *Registry) GetPrinterInfo(printerID string) *PrinterEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry := r.findPrinter(printerID); entry != nil {
		entryCopy := *entry
		return &entryCopy
	}
	return nil
}

// RemovePrinter removes a printer from the registry
func (r *Registry) RemovePrinter(printerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, entry := range r.printers {
		if entry.ID == printerID {
			delete(r.printers, key)
			r.persist()
			return true
		}
	}
	return false
}

// GetAll returns all registered printers keyed by identity
func (r *Registry) GetAll() map[string]*PrinterEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*PrinterEntry, len(r.printers))
	for k, v := range r.printers {
		entryCopy := *v
		result[k] = &entryCopy
	}
	return result
}

// Printers returns all registered printers ordered by ID
func (r *Registry) Printers() []*PrinterEntry {
	all := r.GetAll()
	result := make([]*PrinterEntry, 0, len(all))
	for _, e := range all {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// AddReader registers a reader device path. Registering a known path
// updates its mode and returns the existing ID.
func (r *Registry) AddReader(path, name string, automated bool) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range r.readers {
		if entry.Path == path {
			entry.Automated = automated
			if name != "" {
				entry.Name = name
			}
			r.persist()
			return entry.ID
		}
	}

	entry := &ReaderEntry{
		ID:        uuid.New().String(),
		Path:      path,
		Name:      name,
		Automated: automated,
	}
	r.readers[entry.ID] = entry
	r.persist()
	return entry.ID
}

// GetReader returns a copy of a reader entry
func (r *Registry) GetReader(readerID string) *ReaderEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, ok := r.readers[readerID]; ok {
		entryCopy := *entry
		return &entryCopy
	}
	return nil
}

// RemoveReader removes a reader from the registry
func (r *Registry) RemoveReader(readerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.readers[readerID]; !ok {
		return false
	}
	delete(r.readers, readerID)
	r.persist()
	return true
}

// Readers returns all registered readers ordered by path
func (r *Registry) Readers() []*ReaderEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*ReaderEntry, 0, len(r.readers))
	for _, v := range r.readers {
		entryCopy := *v
		result = append(result, &entryCopy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result
}

// must be called with r.mu held
func (r *Registry) findPrinter(printerID string) *PrinterEntry {
	for _, entry := range r.printers {
		if entry.ID == printerID {
			return entry
		}
	}
	return nil
}

func (r *Registry) load() error {
	data, err := os.ReadFile(r.filePath)
	if err != nil {
		return err
	}

	var fd fileData
	if err := json.Unmarshal(data, &fd); err != nil {
		return err
	}
	if fd.Printers != nil {
		r.printers = fd.Printers
	}
	if fd.Readers != nil {
		r.readers = fd.Readers
	}
	return nil
}

// persist saves the registry. A failed save is logged and retried by the
// next mutation.
func (r *Registry) persist() {
	if err := r.save(); err != nil {
		logger.Warn("failed to save registry", zap.String("path", r.filePath), zap.Error(err))
	}
}

func (r *Registry) save() error {
	data, err := json.MarshalIndent(fileData{Printers: r.printers, Readers: r.readers}, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(r.filePath, data, 0644)
}

// generateIdentityKey creates a unique key for a printer based on its characteristics
func generateIdentityKey(info PrinterInfo) string {
	switch info.Type {
	case "usb":
		if info.VID != 0 && info.PID != 0 {
			return fmt.Sprintf("usb:%04X:%04X", info.VID, info.PID)
		}
	case "serial", "device":
		if info.Device != "" {
			return fmt.Sprintf("%s:%s", info.Type, info.Device)
		}
	case "network":
		if info.Host != "" {
			return fmt.Sprintf("network:%s:%d", info.Host, info.Port)
		}
	}

	// Fallback: hash the description
	hash := md5.Sum([]byte(info.Description))
	return fmt.Sprintf("hash:%x", hash)
}
