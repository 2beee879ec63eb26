// Package command provides a command system for the desk engine
package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/thereceipt/desk-engine/internal/device"
	"github.com/thereceipt/desk-engine/internal/printer"
	"github.com/thereceipt/desk-engine/internal/registry"
)

// StatusFunc queries the live status of a printer device node
type StatusFunc func(ctx context.Context, path string) (*printer.StatusResponse, error)

// Executor executes commands
type Executor struct {
	registry *registry.Registry
	devices  *device.Manager
	queue    *printer.PrintQueue
	status   StatusFunc
}

// NewExecutor creates a new command executor
func NewExecutor(reg *registry.Registry, devices *device.Manager, queue *printer.PrintQueue) *Executor {
	return &Executor{
		registry: reg,
		devices:  devices,
		queue:    queue,
		status:   printer.QueryStatus,
	}
}

// SetStatusFunc replaces the live status query
func (e *Executor) SetStatusFunc(fn StatusFunc) {
	e.status = fn
}

// Result represents the result of executing a command
type Result struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func failure(format string, args ...any) *Result {
	return &Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Execute executes a command string and returns a result
func (e *Executor) Execute(cmdStr string) *Result {
	parts := parseCommand(cmdStr)
	if len(parts) == 0 {
		return failure("empty command")
	}

	command := parts[0]
	args := parts[1:]

	switch command {
	case "print":
		return e.handlePrint(args)
	case "printer":
		return e.handlePrinter(args)
	case "status":
		return e.handleStatus(args)
	case "reader":
		return e.handleReader(args)
	case "job":
		return e.handleJob(args)
	case "detect":
		return e.handleDetect(args)
	case "help":
		return e.handleHelp(args)
	default:
		return failure("unknown command: %s. Type 'help' for available commands", command)
	}
}

// parseCommand parses a command string into parts, handling quoted strings
func parseCommand(cmdStr string) []string {
	cmdStr = strings.TrimSpace(cmdStr)
	if cmdStr == "" {
		return []string{}
	}

	var parts []string
	var current strings.Builder
	inQuotes := false
	quoteChar := byte(0)

	for i := 0; i < len(cmdStr); i++ {
		char := cmdStr[i]

		switch {
		case char == '"' || char == '\'':
			if !inQuotes {
				inQuotes = true
				quoteChar = char
			} else if char == quoteChar {
				inQuotes = false
				quoteChar = 0
			} else {
				current.WriteByte(char)
			}
		case char == ' ' && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(char)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}
