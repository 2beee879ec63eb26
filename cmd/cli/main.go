package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultServerURL = "http://localhost:12212"
)

func main() {
	var serverURL string
	flag.StringVar(&serverURL, "server", defaultServerURL, "Server URL")
	flag.StringVar(&serverURL, "s", defaultServerURL, "Server URL (short)")
	flag.Parse()

	if flag.NArg() == 0 {
		printUsage()
		os.Exit(1)
	}

	args := flag.Args()

	// print <printer-id> --compose ... builds a temporary label file
	var tempFile string
	if len(args) >= 2 && args[0] == "print" {
		for i, arg := range args {
			if arg != "--compose" {
				continue
			}
			var err error
			if tempFile, err = createComposedLabel(args[i+1:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error creating composed label: %v\n", err)
				os.Exit(1)
			}
			args = append(args[:i:i], tempFile)
			break
		}
	}

	result := executeCommand(serverURL, joinCommand(args))
	if tempFile != "" {
		os.Remove(tempFile)
	}

	if !result.Success {
		printError(result)
		os.Exit(1)
	}
	printSuccess(result)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Desk Engine CLI

Usage:
  desk-cli [flags] <command>

Flags:
  -s, -server <url>    Server URL (default: %s)

Commands:
  print <printer-id> <label-path> [key=value ...] [--copies N]
    Render a label template and print it

  print <printer-id> --compose <elements...>
    Compose and print a label from command-line arguments
    Compose elements:
      text:"Hello World"              - Text element
      text:"Title" size:48 align:center - Text with properties
      qrcode:"https://example.com"    - QR code
      barcode:"ABC-123" format:CODE128 - Barcode
      divider style:dashed            - Divider line
      feed:2                          - Blank lines

  printer list | rename <id> <name> | config <id> <ESCP|TSPL> <w> <h> [gap] | remove <id>
  status <printer-id>
  reader list | add <path> [name] [--automated] | remove <id>
  job list | status <id> | clear
  detect
  help

Examples:
  desk-cli print 3f2a... ./order.label order=A-17
  desk-cli print 3f2a... --compose text:"Order 17" size:64 align:center qrcode:"A-17"
  desk-cli printer config 3f2a... TSPL 40 30 2
  desk-cli reader add /dev/ttyACM0 "Front desk" --automated
  desk-cli -s http://localhost:8080 printer list

`, defaultServerURL)
}

type CommandResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"-"`
	Error   string         `json:"error,omitempty"`
}

// joinCommand rebuilds a command line, quoting arguments with spaces
func joinCommand(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		if strings.ContainsAny(arg, " \t") {
			quote := `"`
			if strings.Contains(arg, `"`) {
				quote = "'"
			}
			arg = quote + arg + quote
		}
		quoted[i] = arg
	}
	return strings.Join(quoted, " ")
}

var client = &http.Client{Timeout: 30 * time.Second}

func executeCommand(serverURL, command string) *CommandResult {
	url := strings.TrimSuffix(serverURL, "/") + "/command"

	jsonData, err := json.Marshal(map[string]string{"command": command})
	if err != nil {
		return &CommandResult{Error: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	resp, err := client.Post(url, "application/json", strings.NewReader(string(jsonData)))
	if err != nil {
		return &CommandResult{Error: fmt.Sprintf("failed to connect to server: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &CommandResult{Error: fmt.Sprintf("failed to read response: %v", err)}
	}

	return decodeResult(body)
}

// decodeResult reads a /command response. Data fields are flattened into
// the top level object by the server.
func decodeResult(body []byte) *CommandResult {
	var result CommandResult
	if err := json.Unmarshal(body, &result); err != nil {
		return &CommandResult{Error: fmt.Sprintf("failed to parse response: %v", err)}
	}
	if err := json.Unmarshal(body, &result.Data); err != nil {
		return &CommandResult{Error: fmt.Sprintf("failed to parse response: %v", err)}
	}
	return &result
}

func printSuccess(result *CommandResult) {
	if result.Message != "" {
		fmt.Println(result.Message)
	}

	if printers, ok := result.Data["printers"].([]any); ok {
		fmt.Println("\nPrinters:")
		for _, p := range printers {
			if printer, ok := p.(map[string]any); ok {
				name := printer["name"]
				if name == nil || name == "" {
					name = printer["description"]
				}
				cfg, _ := printer["config"].(map[string]any)
				fmt.Printf("  %s: %s (%s, %v)\n", printer["id"], name, printer["type"], cfg["cmd_type"])
			}
		}
	}

	if readers, ok := result.Data["readers"].([]any); ok {
		fmt.Println("\nReaders:")
		for _, r := range readers {
			if reader, ok := r.(map[string]any); ok {
				fmt.Printf("  %s: %s automated=%v\n", reader["id"], reader["path"], reader["automated"] == true)
			}
		}
	}

	if devices, ok := result.Data["devices"].([]any); ok {
		fmt.Println("\nDevices:")
		for _, d := range devices {
			if dev, ok := d.(map[string]any); ok {
				fmt.Printf("  %s: %s (%s)\n", dev["kind"], dev["path"], dev["id"])
			}
		}
	}

	if jobs, ok := result.Data["jobs"].([]any); ok {
		fmt.Println("\nJobs:")
		for _, j := range jobs {
			if job, ok := j.(map[string]any); ok {
				fmt.Printf("  %s: %s (printer: %s)\n", job["id"], job["status"], job["printer_id"])
			}
		}
	}

	if status, ok := result.Data["status"].(map[string]any); ok {
		fmt.Printf("  model: %v, media: %v %vx%v, phase: %v\n",
			status["model_code"], status["media_type"], status["label_width"], status["label_length"], status["phase_type"])
	}

	if jobID, ok := result.Data["job_id"].(string); ok {
		fmt.Printf("Job ID: %s\n", jobID)
	}
}

func printError(result *CommandResult) {
	if result.Error != "" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", result.Error)
	} else if result.Message != "" {
		fmt.Fprintf(os.Stderr, "%s\n", result.Message)
	}
}

// createComposedLabel turns compose arguments into a temporary label file.
// Each element starts with its type (e.g. "text:", "feed:", "divider") and
// may be followed by properties (e.g. "size:32", "align:center").
func createComposedLabel(composeArgs []string) (string, error) {
	elements, err := composeElements(composeArgs)
	if err != nil {
		return "", err
	}

	label := map[string]any{
		"version":  "1.0",
		"elements": elements,
	}

	tmpFile, err := os.CreateTemp("", "desk-composed-*.label")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()

	encoder := json.NewEncoder(tmpFile)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(label); err != nil {
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("failed to write label JSON: %v", err)
	}

	return tmpFile.Name(), nil
}

func composeElements(composeArgs []string) ([]map[string]any, error) {
	if len(composeArgs) == 0 {
		return nil, fmt.Errorf("no compose arguments provided")
	}

	var elements []map[string]any
	var current map[string]any

	for _, arg := range composeArgs {
		switch {
		case isElementStart(arg):
			if current != nil {
				elements = append(elements, current)
			}
			var err error
			if current, err = parseElementStart(arg); err != nil {
				return nil, fmt.Errorf("failed to parse element '%s': %v", arg, err)
			}
		case current != nil:
			if err := parseElementProperty(current, arg); err != nil {
				return nil, fmt.Errorf("failed to parse property '%s': %v", arg, err)
			}
		default:
			return nil, fmt.Errorf("unexpected argument '%s' (expected element start)", arg)
		}
	}

	if current != nil {
		elements = append(elements, current)
	}
	return elements, nil
}

var elementStarts = []string{"text:", "feed:", "divider", "image:", "barcode:", "qrcode:"}

// isElementStart checks if an argument starts a new element
func isElementStart(arg string) bool {
	for _, start := range elementStarts {
		if strings.HasPrefix(arg, start) || arg == strings.TrimSuffix(start, ":") {
			return true
		}
	}
	return false
}

// parseElementStart parses an element type and its first value
func parseElementStart(arg string) (map[string]any, error) {
	el := make(map[string]any)

	elType, firstValue, ok := strings.Cut(arg, ":")
	el["type"] = elType
	if !ok {
		return el, nil
	}

	switch elType {
	case "feed":
		lines, err := strconv.Atoi(firstValue)
		if err != nil {
			return nil, fmt.Errorf("invalid feed lines value: %s", firstValue)
		}
		el["lines"] = lines
	case "image":
		el["path"] = strings.Trim(firstValue, `"'`)
	default:
		el["value"] = strings.Trim(firstValue, `"'`)
	}

	return el, nil
}

// parseElementProperty parses a name:value property onto el
func parseElementProperty(el map[string]any, arg string) error {
	name, value, ok := strings.Cut(arg, ":")
	if !ok {
		return fmt.Errorf("property must be in format 'name:value', got: %s", arg)
	}

	if intVal, err := strconv.Atoi(value); err == nil {
		el[name] = intVal
	} else if boolVal, err := strconv.ParseBool(value); err == nil {
		el[name] = boolVal
	} else {
		el[name] = strings.Trim(value, `"'`)
	}

	return nil
}
