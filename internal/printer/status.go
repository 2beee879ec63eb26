package printer

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// StatusLength is the size of a QL series status reply
const StatusLength = 32

// StatusRequest asks the printer for a status reply (ESC i S)
var StatusRequest = []byte{ESC, 'i', 'S'}

// StatusResponse is a decoded printer status reply
type StatusResponse struct {
	ModelCode          string   `json:"model_code"`
	Errors             []string `json:"errors"`
	LabelWidth         string   `json:"label_width"`
	LabelLength        string   `json:"label_length"`
	MediaType          string   `json:"media_type"`
	Mode               string   `json:"mode"`
	StatusType         string   `json:"status_type"`
	PhaseType          string   `json:"phase_type"`
	PhaseNumber        string   `json:"phase_number"`
	NotificationNumber string   `json:"notification_number"`
}

// HasErrors reports whether any error bit was set
func (s *StatusResponse) HasErrors() bool {
	return len(s.Errors) > 0
}

var errorBits = [16]string{
	"No media when printing",
	"End of media (only for die-cut labels)",
	"Cutter jam",
	"(Not used)",
	"Printer in use",
	"Printer turned off",
	"High-voltage adapter (not used)",
	"Fan motor error (not used)",
	"Replace media error",
	"Expansion buffer full error",
	"Communication error",
	"Communication buffer full error (not used)",
	"Cover open error",
	"Cancel key (not used)",
	"Media cannot be fed (also when the media end is detected)",
	"System error",
}

var modelCodes = map[uint64]string{
	0x36: "QL-710W",
	0x37: "QL-720NW",
	0x47: "QL-600",
}

var mediaTypes = map[uint64]string{
	0x00: "No media",
	0x0A: "Continuous length tape",
	0x0B: "Die-cut labels",
	0x4A: "Continuous length tape",
	0x4B: "Die-cut labels",
}

var statusTypes = func() map[uint64]string {
	m := map[uint64]string{
		0x00: "Reply to status request",
		0x01: "Printing completed",
		0x02: "Error occurred",
		0x05: "Notification",
		0x06: "Phase change",
	}
	for i := uint64(0x08); i <= 0x20; i++ {
		m[i] = "(Not used)"
	}
	for i := uint64(0x21); i <= 0xFF; i++ {
		m[i] = "(Reserved)"
	}
	return m
}()

var phaseTypes = map[uint64]string{
	0x00: "Receiving",
	0x01: "Printing",
}

var notificationTypes = map[uint64]string{
	0x00: "Not available",
	0x03: "Cooling (started)",
	0x04: "Cooling (finished)",
}

// statusField describes one fixed-width field of the reply. Fields with a
// nil assign are reserved: they are consumed but not reported.
type statusField struct {
	name   string
	size   int
	decode func(name string, raw []byte) (any, error)
	assign func(s *StatusResponse, v any)
}

func reserved(name string, size int) statusField {
	return statusField{name: name, size: size}
}

func enumField(name string, table map[uint64]string, assign func(*StatusResponse, string)) statusField {
	return statusField{
		name: name,
		size: 1,
		decode: func(name string, raw []byte) (any, error) {
			v := bigEndian(raw)
			label, ok := table[v]
			if !ok {
				return nil, fmt.Errorf("%w: %s = %#x", ErrUnknownFieldValue, name, v)
			}
			return label, nil
		},
		assign: func(s *StatusResponse, v any) { assign(s, v.(string)) },
	}
}

func millimetreField(name string, assign func(*StatusResponse, string)) statusField {
	return statusField{
		name: name,
		size: 1,
		decode: func(_ string, raw []byte) (any, error) {
			return fmt.Sprintf("%dmm", bigEndian(raw)), nil
		},
		assign: func(s *StatusResponse, v any) { assign(s, v.(string)) },
	}
}

func hexField(name string, size int, assign func(*StatusResponse, string)) statusField {
	return statusField{
		name: name,
		size: size,
		decode: func(_ string, raw []byte) (any, error) {
			parts := make([]string, len(raw))
			for i, b := range raw {
				parts[i] = fmt.Sprintf("%#x", b)
			}
			return strings.Join(parts, " "), nil
		},
		assign: func(s *StatusResponse, v any) { assign(s, v.(string)) },
	}
}

func errorField() statusField {
	return statusField{
		name: "errors",
		size: 2,
		decode: func(_ string, raw []byte) (any, error) {
			return decodeErrorBits(uint16(bigEndian(raw))), nil
		},
		assign: func(s *StatusResponse, v any) { s.Errors = v.([]string) },
	}
}

// decodeErrorBits names every set bit, lowest bit first
func decodeErrorBits(mask uint16) []string {
	errs := []string{}
	for bit, name := range errorBits {
		if mask&(1<<uint(bit)) != 0 {
			errs = append(errs, name)
		}
	}
	return errs
}

var statusLayout = []statusField{
	reserved("print head mark", 1),
	reserved("size", 1),
	reserved("brother code", 1),
	reserved("series code", 1),
	enumField("model_code", modelCodes, func(s *StatusResponse, v string) { s.ModelCode = v }),
	reserved("country code", 1),
	reserved("reserved", 1),
	reserved("reserved", 1),
	errorField(),
	millimetreField("label_width", func(s *StatusResponse, v string) { s.LabelWidth = v }),
	enumField("media_type", mediaTypes, func(s *StatusResponse, v string) { s.MediaType = v }),
	reserved("reserved", 1),
	reserved("reserved", 1),
	reserved("reserved", 1),
	hexField("mode", 1, func(s *StatusResponse, v string) { s.Mode = v }),
	reserved("reserved", 1),
	millimetreField("label_length", func(s *StatusResponse, v string) { s.LabelLength = v }),
	enumField("status_type", statusTypes, func(s *StatusResponse, v string) { s.StatusType = v }),
	enumField("phase_type", phaseTypes, func(s *StatusResponse, v string) { s.PhaseType = v }),
	hexField("phase_number", 2, func(s *StatusResponse, v string) { s.PhaseNumber = v }),
	enumField("notification_number", notificationTypes, func(s *StatusResponse, v string) { s.NotificationNumber = v }),
	reserved("reserved", 1),
	reserved("reserved", 8),
}

func layoutSize(layout []statusField) int {
	total := 0
	for _, f := range layout {
		total += f.size
	}
	return total
}

// ParseStatus decodes a status reply. The buffer must be exactly
// StatusLength bytes; nothing is returned on any decode failure.
func ParseStatus(data []byte) (*StatusResponse, error) {
	if want := layoutSize(statusLayout); len(data) != want {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrMalformedResponse, want, len(data))
	}

	var resp StatusResponse
	offset := 0
	for _, f := range statusLayout {
		chunk := data[offset : offset+f.size]
		offset += f.size

		if f.decode == nil {
			continue
		}
		v, err := f.decode(f.name, chunk)
		if err != nil {
			return nil, err
		}
		f.assign(&resp, v)
	}

	return &resp, nil
}

func bigEndian(raw []byte) uint64 {
	var v uint64
	for _, b := range raw {
		v = v<<8 | uint64(b)
	}
	return v
}

// QueryStatus sends a status request to a device path and parses the
// reply. The read is abandoned when ctx is done.
func QueryStatus(ctx context.Context, path string) (*StatusResponse, error) {
	if err := checkExists(path); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open device %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(StatusRequest); err != nil {
		return nil, fmt.Errorf("failed to request status from %s: %w", path, err)
	}

	type result struct {
		buf []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		buf := make([]byte, StatusLength)
		_, err := io.ReadFull(f, buf)
		done <- result{buf, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("failed to read status from %s: %w", path, r.err)
		}
		return ParseStatus(r.buf)
	case <-ctx.Done():
		return nil, fmt.Errorf("status query on %s: %w", path, ctx.Err())
	}
}
