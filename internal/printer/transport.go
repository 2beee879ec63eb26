package printer

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Connection is a write-only byte channel to a printer
type Connection interface {
	Write(data []byte) (int, error)
	Close() error
}

// Open connects to a transmit target. Plain paths are device nodes;
// tcp://host:port, serial://path?baud=N and usb://VID:PID select the
// network, serial and raw USB transports.
func Open(target string) (Connection, error) {
	scheme, rest, ok := strings.Cut(target, "://")
	if !ok {
		return OpenDevice(target)
	}

	switch scheme {
	case "tcp":
		host, portStr, ok := strings.Cut(rest, ":")
		if !ok {
			return nil, fmt.Errorf("network target %q needs host:port", target)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid port in %q: %w", target, err)
		}
		return dialNetwork(host, port)

	case "serial":
		u, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("invalid serial target %q: %w", target, err)
		}
		baud := 0
		if v := u.Query().Get("baud"); v != "" {
			if baud, err = strconv.Atoi(v); err != nil {
				return nil, fmt.Errorf("invalid baud in %q: %w", target, err)
			}
		}
		return openSerial(u.Path, baud)

	case "usb":
		vidStr, pidStr, ok := strings.Cut(rest, ":")
		if !ok {
			return nil, fmt.Errorf("usb target %q needs VID:PID", target)
		}
		vid, err := strconv.ParseUint(vidStr, 16, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid vendor id in %q: %w", target, err)
		}
		pid, err := strconv.ParseUint(pidStr, 16, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid product id in %q: %w", target, err)
		}
		return ConnectUSB(uint16(vid), uint16(pid))
	}

	return nil, fmt.Errorf("unsupported target scheme: %s", scheme)
}

// Transmit writes data to target as one blocking write. No response is
// read back.
func Transmit(target string, data []byte) error {
	conn, err := Open(target)
	if err != nil {
		return err
	}

	n, err := conn.Write(data)
	closeErr := conn.Close()
	if err != nil {
		return fmt.Errorf("failed to write to %s: %w", target, err)
	}
	if n != len(data) {
		return fmt.Errorf("failed to write to %s: %w", target, io.ErrShortWrite)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close %s: %w", target, closeErr)
	}
	return nil
}

// WriteDevice writes data to a device path. ErrDeviceNotFound is returned
// when the path does not exist at call time.
func WriteDevice(path string, data []byte) error {
	return Transmit(path, data)
}

// DeviceConnection writes to a character device node
type DeviceConnection struct {
	f *os.File
}

// OpenDevice opens an existing device path for writing
func OpenDevice(path string) (*DeviceConnection, error) {
	if err := checkExists(path); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open device %s: %w", path, err)
	}
	return &DeviceConnection{f: f}, nil
}

func (c *DeviceConnection) Write(data []byte) (int, error) {
	return c.f.Write(data)
}

func (c *DeviceConnection) Close() error {
	return c.f.Close()
}

func checkExists(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrDeviceNotFound, path)
		}
		return fmt.Errorf("failed to stat device %s: %w", path, err)
	}
	return nil
}
