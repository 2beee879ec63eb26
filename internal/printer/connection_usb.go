package printer

import (
	"fmt"
	"sync"

	"github.com/google/gousb"
)

// USBConnection writes to the bulk OUT endpoint of a USB printer. It is
// the fallback for hosts where the printer has no device node.
type USBConnection struct {
	ctx      *gousb.Context
	device   *gousb.Device
	iface    *gousb.Interface
	done     func()
	endpoint *gousb.OutEndpoint
	mu       sync.Mutex
}

// ConnectUSB claims the first interface of the device that has an OUT
// endpoint. It fails when libusb is unavailable.
func ConnectUSB(vid, pid uint16) (*USBConnection, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("failed to open USB device: %w", err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("%w: usb %04X:%04X", ErrDeviceNotFound, vid, pid)
	}

	// Printer class drivers (usblp) hold the interface on Linux
	dev.SetAutoDetach(true)

	iface, done, err := dev.DefaultInterface()
	if err == nil {
		if ep := findOutEndpoint(iface); ep != nil {
			return &USBConnection{ctx: ctx, device: dev, iface: iface, done: done, endpoint: ep}, nil
		}
		done()
	}

	var lastErr error
	for _, cfgDesc := range dev.Desc.Configs {
		cfg, err := dev.Config(cfgDesc.Number)
		if err != nil {
			lastErr = fmt.Errorf("failed to set config %d: %w", cfgDesc.Number, err)
			continue
		}

		for _, ifaceDesc := range cfgDesc.Interfaces {
			iface, err := cfg.Interface(ifaceDesc.Number, 0)
			if err != nil {
				lastErr = fmt.Errorf("failed to claim interface %d: %w", ifaceDesc.Number, err)
				continue
			}

			if ep := findOutEndpoint(iface); ep != nil {
				done := func() {
					iface.Close()
					cfg.Close()
				}
				return &USBConnection{ctx: ctx, device: dev, iface: iface, done: done, endpoint: ep}, nil
			}
			iface.Close()
		}

		cfg.Close()
	}

	dev.Close()
	ctx.Close()

	if lastErr != nil {
		return nil, fmt.Errorf("failed to connect to USB printer: %w", lastErr)
	}
	return nil, fmt.Errorf("no suitable interface/endpoint found for USB printer %04X:%04X", vid, pid)
}

func findOutEndpoint(iface *gousb.Interface) *gousb.OutEndpoint {
	for _, epDesc := range iface.Setting.Endpoints {
		if epDesc.Direction != gousb.EndpointDirectionOut {
			continue
		}
		if ep, err := iface.OutEndpoint(epDesc.Number); err == nil {
			return ep
		}
	}
	return nil
}

// Write sends data to the USB printer
func (c *USBConnection) Write(data []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.endpoint.Write(data)
}

// Close releases the interface, the device and the libusb context
func (c *USBConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done != nil {
		c.done()
		c.done = nil
	}
	if c.device != nil {
		c.device.Close()
		c.device = nil
	}
	if c.ctx != nil {
		c.ctx.Close()
		c.ctx = nil
	}

	return nil
}
