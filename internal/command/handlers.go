package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/thereceipt/desk-engine/internal/printer"
	"github.com/thereceipt/desk-engine/internal/registry"
)

// handlePrint handles print commands
// Usage: print <printer-id> <label-path> [key=value ...] [--copies N]
func (e *Executor) handlePrint(args []string) *Result {
	const usage = "usage: print <printer-id> <label-path> [key=value ...] [--copies N]"
	if len(args) < 2 {
		return failure(usage)
	}

	printerID := args[0]
	if e.registry.GetPrinterInfo(printerID) == nil {
		return failure("printer not found: %s", printerID)
	}

	label, err := LoadLabel(args[1])
	if err != nil {
		return failure("failed to load label: %v", err)
	}

	values := make(map[string]string)
	copies := 1
	for i := 2; i < len(args); i++ {
		arg := args[i]
		if arg == "--copies" {
			if i+1 >= len(args) {
				return failure(usage)
			}
			i++
			if copies, err = strconv.Atoi(args[i]); err != nil || copies < 1 {
				return failure("invalid copies: %s", args[i])
			}
			continue
		}
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return failure("invalid variable %q, expected key=value", arg)
		}
		values[key] = value
	}

	jobID, err := e.PrintLabel(printerID, label, values, copies)
	if err != nil {
		return failure("failed to queue label: %v", err)
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("Print job queued: %s", jobID),
		Data: map[string]any{
			"job_id":     jobID,
			"printer_id": printerID,
		},
	}
}

// handlePrinter handles printer commands
// Usage: printer list | rename <id> <name> | config <id> <ESCP|TSPL> <width> <height> [gap] | remove <id>
func (e *Executor) handlePrinter(args []string) *Result {
	if len(args) == 0 {
		return failure("usage: printer <list|rename|config|remove>")
	}

	subcommand := args[0]

	switch subcommand {
	case "list":
		printers := e.registry.Printers()
		return &Result{
			Success: true,
			Message: fmt.Sprintf("Found %d printer(s)", len(printers)),
			Data: map[string]any{
				"printers": printers,
			},
		}

	case "rename":
		if len(args) < 3 {
			return failure("usage: printer rename <id> <name>")
		}
		printerID, name := args[1], args[2]
		if !e.registry.SetPrinterName(printerID, name) {
			return failure("printer not found: %s", printerID)
		}
		return &Result{
			Success: true,
			Message: fmt.Sprintf("Renamed printer %s to %s", printerID, name),
		}

	case "config":
		if len(args) < 5 {
			return failure("usage: printer config <id> <ESCP|TSPL> <width> <height> [gap]")
		}
		entry := e.registry.GetPrinterInfo(args[1])
		if entry == nil {
			return failure("printer not found: %s", args[1])
		}

		cfg := entry.Config
		cfg.Type = printer.CommandType(strings.ToUpper(args[2]))
		var err error
		if cfg.Width, err = strconv.ParseFloat(args[3], 64); err != nil {
			return failure("invalid width: %s", args[3])
		}
		if cfg.Height, err = strconv.ParseFloat(args[4], 64); err != nil {
			return failure("invalid height: %s", args[4])
		}
		if len(args) >= 6 {
			if cfg.Gap, err = strconv.Atoi(args[5]); err != nil {
				return failure("invalid gap: %s", args[5])
			}
		}

		if err := e.registry.SetPrinterConfig(entry.ID, cfg, registry.LabelSize{}); err != nil {
			return failure("failed to set config: %v", err)
		}
		return &Result{
			Success: true,
			Message: fmt.Sprintf("Configured printer %s as %s %gx%g mm", entry.ID, cfg.Type, cfg.Width, cfg.Height),
		}

	case "remove":
		if len(args) < 2 {
			return failure("usage: printer remove <id>")
		}
		if !e.registry.RemovePrinter(args[1]) {
			return failure("printer not found: %s", args[1])
		}
		return &Result{
			Success: true,
			Message: fmt.Sprintf("Removed printer %s", args[1]),
		}

	default:
		return failure("unknown printer subcommand: %s. Use: list, rename, config, remove", subcommand)
	}
}

// handleStatus queries a printer's status reply
// Usage: status <printer-id>
func (e *Executor) handleStatus(args []string) *Result {
	if len(args) < 1 {
		return failure("usage: status <printer-id>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	status, err := e.Status(ctx, args[0])
	if err != nil {
		return failure("status query failed: %v", err)
	}

	message := "Printer ready"
	if status.HasErrors() {
		message = "Printer errors: " + strings.Join(status.Errors, ", ")
	}
	return &Result{
		Success: true,
		Message: message,
		Data: map[string]any{
			"status": status,
		},
	}
}

// handleReader handles reader commands
// Usage: reader list | add <path> [name] [--automated] | remove <id>
func (e *Executor) handleReader(args []string) *Result {
	if len(args) == 0 {
		return failure("usage: reader <list|add|remove>")
	}

	switch args[0] {
	case "list":
		readers := e.registry.Readers()
		return &Result{
			Success: true,
			Message: fmt.Sprintf("Found %d reader(s)", len(readers)),
			Data: map[string]any{
				"readers": readers,
			},
		}

	case "add":
		if len(args) < 2 {
			return failure("usage: reader add <path> [name] [--automated]")
		}
		path := args[1]
		var name string
		automated := false
		for _, arg := range args[2:] {
			if arg == "--automated" {
				automated = true
			} else {
				name = arg
			}
		}
		readerID := e.registry.AddReader(path, name, automated)
		return &Result{
			Success: true,
			Message: fmt.Sprintf("Added reader %s", path),
			Data: map[string]any{
				"reader_id": readerID,
			},
		}

	case "remove":
		if len(args) < 2 {
			return failure("usage: reader remove <id>")
		}
		if !e.registry.RemoveReader(args[1]) {
			return failure("reader not found: %s", args[1])
		}
		return &Result{
			Success: true,
			Message: fmt.Sprintf("Removed reader %s", args[1]),
		}

	default:
		return failure("unknown reader subcommand: %s. Use: list, add, remove", args[0])
	}
}

// handleJob handles job commands
// Usage: job list | status <id> | clear
func (e *Executor) handleJob(args []string) *Result {
	if len(args) == 0 {
		return failure("usage: job <list|status|clear>")
	}

	subcommand := args[0]

	switch subcommand {
	case "list":
		jobs := e.queue.GetAllJobs()
		return &Result{
			Success: true,
			Message: fmt.Sprintf("Found %d job(s)", len(jobs)),
			Data: map[string]any{
				"jobs": jobs,
			},
		}

	case "status":
		if len(args) < 2 {
			return failure("usage: job status <id>")
		}
		job := e.queue.GetJob(args[1])
		if job == nil {
			return failure("job not found: %s", args[1])
		}
		return &Result{
			Success: true,
			Message: fmt.Sprintf("Job %s is %s", job.ID, job.Status),
			Data: map[string]any{
				"job": job,
			},
		}

	case "clear":
		e.queue.ClearCompleted()
		return &Result{
			Success: true,
			Message: "Cleared completed jobs",
		}

	default:
		return failure("unknown job subcommand: %s. Use: list, status, clear", subcommand)
	}
}

// handleDetect handles detect command
// Usage: detect
func (e *Executor) handleDetect(args []string) *Result {
	devices := e.devices.Detect()
	return &Result{
		Success: true,
		Message: fmt.Sprintf("Detected %d device(s)", len(devices)),
		Data: map[string]any{
			"count":   len(devices),
			"devices": devices,
		},
	}
}

// handleHelp handles help command
func (e *Executor) handleHelp(args []string) *Result {
	helpText := `Available Commands:

  print <printer-id> <label-path> [key=value ...] [--copies N]
    Render a label template and print it

  printer list
    List registered printers

  printer rename <id> <name>
    Set a custom name for a printer

  printer config <id> <ESCP|TSPL> <width> <height> [gap]
    Set the command set and label size (mm) of a printer

  printer remove <id>
    Forget a printer

  status <printer-id>
    Query the printer's status reply

  reader list
    List registered barcode readers

  reader add <path> [name] [--automated]
    Register a barcode reader

  reader remove <id>
    Forget a barcode reader

  job list
    List all print jobs

  job status <id>
    Get status of a specific job

  job clear
    Clear completed jobs from the queue

  detect
    Scan for printer and reader device nodes

  help
    Show this help message

Examples:
  print 3f2a... ./order.label order=A-17 --copies 2
  printer config 3f2a... TSPL 40 30 2
  reader add /dev/ttyACM0 "Front desk" --automated
`

	return &Result{
		Success: true,
		Message: helpText,
	}
}
