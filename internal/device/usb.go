package device

import (
	"fmt"
	"strings"

	"github.com/google/gousb"
)

// USBDevice is one device on the USB bus
type USBDevice struct {
	Bus          int    `json:"bus"`
	Address      int    `json:"address"`
	VID          uint16 `json:"vid"`
	PID          uint16 `json:"pid"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Product      string `json:"product,omitempty"`
	Printer      bool   `json:"printer"`
}

// Name returns the manufacturer and product strings, or the IDs when the
// device has none
func (d USBDevice) Name() string {
	name := strings.TrimSpace(d.Manufacturer + " " + d.Product)
	if name == "" {
		return fmt.Sprintf("%04X:%04X", d.VID, d.PID)
	}
	return name
}

// ListUSB enumerates all USB devices using libusb
func ListUSB() ([]USBDevice, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	// OpenDevices returns the devices it could open alongside an error for
	// the rest; access errors on unrelated devices are common
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return true
	})
	if err != nil && len(devs) == 0 {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}

	result := make([]USBDevice, 0, len(devs))
	for _, dev := range devs {
		desc := dev.Desc

		d := USBDevice{
			Bus:     desc.Bus,
			Address: desc.Address,
			VID:     uint16(desc.Vendor),
			PID:     uint16(desc.Product),
			Printer: isPrinterClass(desc),
		}
		d.Manufacturer, _ = dev.Manufacturer()
		d.Product, _ = dev.Product()

		result = append(result, d)
		dev.Close()
	}

	return result, nil
}

// isPrinterClass checks the device class and every interface class
func isPrinterClass(desc *gousb.DeviceDesc) bool {
	if desc.Class == gousb.ClassPrinter {
		return true
	}
	for _, cfg := range desc.Configs {
		for _, iface := range cfg.Interfaces {
			for _, alt := range iface.AltSettings {
				if alt.Class == gousb.ClassPrinter {
					return true
				}
			}
		}
	}
	return false
}

// FilterByNames keeps devices whose name contains any of names, ignoring
// case. No names keeps every device.
func FilterByNames(devs []USBDevice, names ...string) []USBDevice {
	if len(names) == 0 {
		return devs
	}

	var result []USBDevice
	for _, d := range devs {
		name := strings.ToLower(d.Name())
		for _, n := range names {
			if n != "" && strings.Contains(name, strings.ToLower(n)) {
				result = append(result, d)
				break
			}
		}
	}
	return result
}
