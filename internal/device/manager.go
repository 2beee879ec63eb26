// Package device detects printers and readers attached to the desk
package device

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/thereceipt/desk-engine/internal/logger"
	"github.com/thereceipt/desk-engine/internal/registry"
	"go.uber.org/zap"
)

// Device kinds
const (
	KindPrinter = "printer"
	KindReader  = "reader"
)

// DefaultPatterns are the device node globs scanned on Linux
var DefaultPatterns = []string{"/dev/ttyACM*", "/dev/ttyUSB*", "/dev/usb/lp*"}

// Device is a detected device node
type Device struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Path        string `json:"path"`
	Description string `json:"description"`
	Name        string `json:"name,omitempty"` // Custom user-set name
}

// Manager handles device detection
type Manager struct {
	registry *registry.Registry
	patterns []string
	glob     func(pattern string) ([]string, error)
	listUSB  func() ([]USBDevice, error)

	devices map[string]*Device
	mu      sync.RWMutex

	// Event callbacks
	onDeviceAdded   func(Device)
	onDeviceRemoved func(Device)
}

// NewManager creates a manager that registers detected printers in reg
func NewManager(reg *registry.Registry, patterns ...string) *Manager {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	return &Manager{
		registry: reg,
		patterns: patterns,
		glob:     filepath.Glob,
		listUSB:  ListUSB,
		devices:  make(map[string]*Device),
	}
}

// KindOf classifies a device path. Line printer nodes are printers, tty
// nodes are readers.
func KindOf(path string) string {
	if strings.Contains(filepath.Base(path), "lp") && !strings.Contains(path, "tty") {
		return KindPrinter
	}
	return KindReader
}

// Paths returns the existing device nodes matching the manager's patterns
func (m *Manager) Paths() []string {
	var paths []string
	for _, pattern := range m.patterns {
		matches, err := m.glob(pattern)
		if err != nil {
			logger.Warn("bad device pattern", zap.String("pattern", pattern), zap.Error(err))
			continue
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)
	return paths
}

// Detect scans for device nodes. Printer nodes get a persistent registry
// ID; reader nodes are identified by their path.
func (m *Manager) Detect() []*Device {
	var devices []*Device
	for _, path := range m.Paths() {
		d := &Device{
			ID:   path,
			Kind: KindOf(path),
			Path: path,
		}

		if d.Kind == KindPrinter {
			d.Description = fmt.Sprintf("Printer: %s", filepath.Base(path))
			d.ID = m.registry.GetPrinterID(registry.PrinterInfo{
				Type:        "device",
				Device:      path,
				Description: d.Description,
			})
			d.Name = m.registry.GetPrinterName(d.ID)
		} else {
			d.Description = fmt.Sprintf("Reader: %s", filepath.Base(path))
		}

		devices = append(devices, d)
	}

	m.mu.Lock()
	m.devices = make(map[string]*Device, len(devices))
	for _, d := range devices {
		m.devices[d.ID] = d
	}
	m.mu.Unlock()

	return devices
}

// USBDevices lists USB devices, optionally filtered by name
func (m *Manager) USBDevices(names ...string) ([]USBDevice, error) {
	devs, err := m.listUSB()
	if err != nil {
		return nil, err
	}
	return FilterByNames(devs, names...), nil
}

// GetDevice returns a detected device by ID
func (m *Manager) GetDevice(id string) *Device {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if d, ok := m.devices[id]; ok {
		dCopy := *d
		return &dCopy
	}
	return nil
}

// GetAllDevices returns the devices found by the last scan
func (m *Manager) GetAllDevices() []*Device {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Device, 0, len(m.devices))
	for _, d := range m.devices {
		dCopy := *d
		result = append(result, &dCopy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result
}

// OnDeviceAdded sets a callback for when a device appears
func (m *Manager) OnDeviceAdded(callback func(Device)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDeviceAdded = callback
}

// OnDeviceRemoved sets a callback for when a device disappears
func (m *Manager) OnDeviceRemoved(callback func(Device)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDeviceRemoved = callback
}

func (m *Manager) callbacks() (added, removed func(Device)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.onDeviceAdded, m.onDeviceRemoved
}
