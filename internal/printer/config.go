package printer

import (
	"fmt"
)

// CommandType selects the printer command language
type CommandType string

const (
	// CommandESCP is the raster bit-image protocol
	CommandESCP CommandType = "ESCP"
	// CommandTSPL is the label-description protocol
	CommandTSPL CommandType = "TSPL"
)

// Direction is the TSPL print direction
type Direction string

const (
	DirectionForward  Direction = "FORWARD"
	DirectionBackward Direction = "BACKWARD"
)

// DefaultDensity is used when a config leaves density unset
const DefaultDensity = 7

// Config describes the physical label and protocol of one printer.
// Sizes are millimetres.
type Config struct {
	Type      CommandType `json:"cmd_type,omitempty"`
	Width     float64     `json:"width"`
	Height    float64     `json:"height"`
	Gap       int         `json:"gap"`
	Offset    float64     `json:"offset"`
	Direction Direction   `json:"direction,omitempty"`
	Speed     string      `json:"speed,omitempty"` // inches per second, omitted when empty
	Density   *int        `json:"density,omitempty"`
}

// TypeValue returns the configured command type, ESCP when unset
func (c Config) TypeValue() CommandType {
	if c.Type == "" {
		return CommandESCP
	}
	return c.Type
}

// DensityValue returns the configured density or DefaultDensity
func (c Config) DensityValue() int {
	if c.Density == nil {
		return DefaultDensity
	}
	return *c.Density
}

// DirectionValue returns the configured direction or FORWARD
func (c Config) DirectionValue() Direction {
	if c.Direction == "" {
		return DirectionForward
	}
	return c.Direction
}

// Density is a helper for building configs with an explicit density
func Density(d int) *int {
	return &d
}

// Validate checks the config invariants
func (c Config) Validate() error {
	switch c.TypeValue() {
	case CommandESCP, CommandTSPL:
	default:
		return fmt.Errorf("%w: unsupported cmd_type %q (must be ESCP or TSPL)", ErrInvalidConfig, c.Type)
	}

	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: width and height must be positive (got %v x %v)", ErrInvalidConfig, c.Width, c.Height)
	}

	if c.Gap < 0 || c.Offset < 0 {
		return fmt.Errorf("%w: gap and offset must not be negative", ErrInvalidConfig)
	}

	if d := c.DensityValue(); d < 0 || d > 15 {
		return fmt.Errorf("%w: density %d out of range 0-15", ErrInvalidConfig, d)
	}

	switch c.DirectionValue() {
	case DirectionForward, DirectionBackward:
	default:
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidConfig, c.Direction)
	}

	return nil
}
