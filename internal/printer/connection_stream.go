package printer

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tarm/serial"
)

const (
	dialTimeout  = 5 * time.Second
	writeTimeout = 10 * time.Second

	// DefaultSerialBaud is used for serial:// targets without ?baud=
	DefaultSerialBaud = 9600
)

// dialNetwork opens a raw socket to a port 9100 style printer. The write
// deadline keeps a stalled printer from holding the queue worker.
func dialNetwork(host string, port int) (Connection, error) {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to network printer: %w", err)
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// openSerial opens a printer on a serial line
func openSerial(path string, baud int) (Connection, error) {
	if err := checkExists(path); err != nil {
		return nil, err
	}
	if baud == 0 {
		baud = DefaultSerialBaud
	}

	port, err := serial.OpenPort(&serial.Config{Name: path, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	return port, nil
}
