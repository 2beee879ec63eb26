package scanner

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tarm/serial"
	"github.com/thereceipt/desk-engine/internal/logger"
	"go.uber.org/zap"
)

// DefaultSettle is how long a CR terminated frame waits for a trailing LF
const DefaultSettle = 50 * time.Millisecond

// Handler receives each frame, delimiter included
type Handler func(frame string) error

// PortConfig describes a reader's serial line
type PortConfig struct {
	Path        string
	Baud        int
	Size        byte
	Parity      serial.Parity
	StopBits    serial.StopBits
	ReadTimeout time.Duration // zero blocks until data arrives
}

// DefaultPortConfig returns 115200 8N1 for path
func DefaultPortConfig(path string) PortConfig {
	return PortConfig{
		Path:     path,
		Baud:     115200,
		Size:     8,
		Parity:   serial.ParityNone,
		StopBits: serial.Stop1,
	}
}

// SerialDeviceError is returned when reading from a reader fails
type SerialDeviceError struct {
	Path string
	Err  error
}

func (e *SerialDeviceError) Error() string {
	return fmt.Sprintf("error while reading from serial device %s: %v", e.Path, e.Err)
}

func (e *SerialDeviceError) Unwrap() error {
	return e.Err
}

// Reader runs the read loop of one serial reader
type Reader struct {
	path   string
	port   io.ReadCloser
	settle time.Duration

	closeOnce sync.Once
	closed    chan struct{}
}

// Open opens the serial port described by cfg
func Open(cfg PortConfig) (*Reader, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Path,
		Baud:        cfg.Baud,
		Size:        cfg.Size,
		Parity:      cfg.Parity,
		StopBits:    cfg.StopBits,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, &SerialDeviceError{Path: cfg.Path, Err: err}
	}
	return NewReader(cfg.Path, port), nil
}

// NewReader wraps an already open port
func NewReader(path string, port io.ReadCloser) *Reader {
	return &Reader{
		path:   path,
		port:   port,
		settle: DefaultSettle,
		closed: make(chan struct{}),
	}
}

// Path returns the device path of the reader
func (r *Reader) Path() string {
	return r.path
}

type readResult struct {
	data []byte
	err  error
}

// Run reads until end of stream and calls handler once per frame, in
// arrival order. It returns nil on end of stream or after Close, and a
// *SerialDeviceError on any other read failure. Handler errors and panics
// are logged and do not stop the loop.
func (r *Reader) Run(handler Handler) error {
	log := logger.With(zap.String("reader", r.path))

	reads := make(chan readResult)
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		for {
			buf := make([]byte, 256)
			n, err := r.port.Read(buf)
			select {
			case reads <- readResult{data: buf[:n], err: err}:
			case <-stop:
				return
			}
			if err != nil || n == 0 {
				return
			}
		}
	}()

	var framer Framer
	settle := time.NewTimer(r.settle)
	settle.Stop()
	defer settle.Stop()

	flush := func() {
		if frame, ok := framer.Flush(); ok {
			r.dispatch(log, handler, frame)
		}
	}

	for {
		select {
		case <-r.closed:
			return nil

		case <-settle.C:
			flush()

		case res := <-reads:
			if len(res.data) > 0 {
				settle.Stop()
				for _, frame := range framer.Feed(res.data) {
					r.dispatch(log, handler, frame)
				}
				if framer.Pending() {
					settle.Reset(r.settle)
				}
			}

			switch {
			case r.isClosed():
				return nil
			case res.err == nil && len(res.data) == 0:
				flush()
				return nil
			case errors.Is(res.err, io.EOF):
				flush()
				return nil
			case res.err != nil:
				flush()
				return &SerialDeviceError{Path: r.path, Err: res.err}
			}
		}
	}
}

func (r *Reader) dispatch(log *zap.Logger, handler Handler, frame string) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("frame handler panicked", zap.Any("panic", p), zap.Stack("stack"))
		}
	}()

	if err := handler(frame); err != nil {
		log.Warn("frame handler failed", zap.String("frame", frame), zap.Error(err))
	}
}

func (r *Reader) isClosed() bool {
	select {
	case <-r.closed:
		return true
	default:
		return false
	}
}

// Close stops Run and closes the port. It is safe to call more than once.
func (r *Reader) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.closed)
		err = r.port.Close()
	})
	return err
}
