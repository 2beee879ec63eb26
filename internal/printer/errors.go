package printer

import "errors"

var (
	// ErrDeviceNotFound is returned when the target device path does not
	// exist at transmit time
	ErrDeviceNotFound = errors.New("device not found")

	// ErrMalformedResponse is returned when a status buffer does not have
	// the fixed status length
	ErrMalformedResponse = errors.New("malformed status response")

	// ErrUnknownFieldValue is returned when a status field holds a value
	// outside its lookup table
	ErrUnknownFieldValue = errors.New("unknown status field value")

	// ErrPageClosed is returned when a page handle is used after End
	ErrPageClosed = errors.New("page already closed")

	// ErrPageState is returned for out of order page calls
	ErrPageState = errors.New("invalid page state")

	// ErrNoPage is returned when transmitting before any page was closed
	ErrNoPage = errors.New("no completed page to transmit")

	// ErrInvalidConfig is returned by Config.Validate
	ErrInvalidConfig = errors.New("invalid printer config")
)
