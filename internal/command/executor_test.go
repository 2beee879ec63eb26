package command

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/thereceipt/desk-engine/internal/device"
	"github.com/thereceipt/desk-engine/internal/printer"
	"github.com/thereceipt/desk-engine/internal/registry"
)

const testLabel = `{
  "version": "1.0",
  "name": "Order",
  "variables": [{"let": "order", "valueType": "string", "prefix": "#"}],
  "elements": [
    {"type": "text", "dynamicValue": "order", "size": 40},
    {"type": "divider"}
  ]
}`

type printed struct {
	target string
	cfg    printer.Config
	pages  int
}

type fakePrinter struct {
	mu   sync.Mutex
	jobs []printed
}

func (f *fakePrinter) print(target string, cfg printer.Config, imgs ...image.Image) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, printed{target, cfg, len(imgs)})
	return nil
}

func (f *fakePrinter) printed() []printed {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]printed(nil), f.jobs...)
}

type fixture struct {
	exec     *Executor
	reg      *registry.Registry
	printer  *fakePrinter
	dir      string
	deviceID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	reg, err := registry.New(filepath.Join(dir, "registry.json"))
	if err != nil {
		t.Fatalf("registry.New failed: %v", err)
	}

	fp := &fakePrinter{}
	queue := printer.NewPrintQueue(fp.print, 1)
	t.Cleanup(queue.Stop)

	lp := filepath.Join(dir, "lp0")
	if err := os.WriteFile(lp, nil, 0644); err != nil {
		t.Fatal(err)
	}
	id := reg.GetPrinterID(registry.PrinterInfo{Type: "device", Device: lp, Description: "Printer: lp0"})

	return &fixture{
		exec:     NewExecutor(reg, device.NewManager(reg, filepath.Join(dir, "lp*")), queue),
		reg:      reg,
		printer:  fp,
		dir:      dir,
		deviceID: id,
	}
}

func (f *fixture) writeLabel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(f.dir, "order.label")
	if err := os.WriteFile(path, []byte(testLabel), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"  job   list ", []string{"job", "list"}},
		{`printer rename abc "Front desk"`, []string{"printer", "rename", "abc", "Front desk"}},
		{`reader add /dev/ttyACM0 'Bob"s reader'`, []string{"reader", "add", "/dev/ttyACM0", `Bob"s reader`}},
	}

	for _, tt := range tests {
		got := parseCommand(tt.in)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Errorf("parseCommand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExecute_Unknown(t *testing.T) {
	f := newFixture(t)

	for _, cmd := range []string{"", "launch", "printer", "printer fly", "job", "reader nope"} {
		if r := f.exec.Execute(cmd); r.Success || r.Error == "" {
			t.Errorf("Execute(%q) = %+v, expected failure", cmd, r)
		}
	}
	if r := f.exec.Execute("help"); !r.Success || !strings.Contains(r.Message, "print <printer-id>") {
		t.Errorf("Unexpected help: %+v", r)
	}
}

func TestExecute_PrintLabel(t *testing.T) {
	f := newFixture(t)
	path := f.writeLabel(t)

	r := f.exec.Execute("print " + f.deviceID + " " + path + " order=A-17 --copies 2")
	if !r.Success {
		t.Fatalf("print failed: %s", r.Error)
	}

	deadline := time.Now().Add(3 * time.Second)
	for len(f.printer.printed()) == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}

	jobs := f.printer.printed()
	if len(jobs) != 1 {
		t.Fatalf("Expected 1 printed job, got %d", len(jobs))
	}
	if jobs[0].target != filepath.Join(f.dir, "lp0") || jobs[0].pages != 2 {
		t.Errorf("Unexpected job %+v", jobs[0])
	}
	if jobs[0].cfg.TypeValue() != printer.CommandESCP {
		t.Errorf("Expected ESCP config, got %s", jobs[0].cfg.Type)
	}
}

func TestExecute_PrintErrors(t *testing.T) {
	f := newFixture(t)
	path := f.writeLabel(t)

	tests := []string{
		"print " + f.deviceID,
		"print missing " + path,
		"print " + f.deviceID + " " + filepath.Join(f.dir, "none.label"),
		"print " + f.deviceID + " " + path + " novalue",
		"print " + f.deviceID + " " + path + " --copies 0",
	}
	for _, cmd := range tests {
		if r := f.exec.Execute(cmd); r.Success {
			t.Errorf("Execute(%q) succeeded, expected failure", cmd)
		}
	}
}

func TestExecute_PrinterConfig(t *testing.T) {
	f := newFixture(t)

	r := f.exec.Execute("printer config " + f.deviceID + " tspl 40 30 2")
	if !r.Success {
		t.Fatalf("config failed: %s", r.Error)
	}
	cfg := f.reg.GetPrinterInfo(f.deviceID).Config
	if cfg.Type != printer.CommandTSPL || cfg.Width != 40 || cfg.Height != 30 || cfg.Gap != 2 {
		t.Errorf("Unexpected config %+v", cfg)
	}

	if r := f.exec.Execute("printer config " + f.deviceID + " ZPL 40 30"); r.Success {
		t.Error("Expected unknown command type to fail")
	}
	if r := f.exec.Execute("printer rename " + f.deviceID + " Kitchen"); !r.Success {
		t.Errorf("rename failed: %s", r.Error)
	}
	if name := f.reg.GetPrinterName(f.deviceID); name != "Kitchen" {
		t.Errorf("Expected name Kitchen, got %q", name)
	}
	if r := f.exec.Execute("printer remove " + f.deviceID); !r.Success {
		t.Errorf("remove failed: %s", r.Error)
	}
	if r := f.exec.Execute("printer remove " + f.deviceID); r.Success {
		t.Error("Expected second remove to fail")
	}
}

func TestExecute_Status(t *testing.T) {
	f := newFixture(t)
	f.exec.SetStatusFunc(func(ctx context.Context, path string) (*printer.StatusResponse, error) {
		if path != filepath.Join(f.dir, "lp0") {
			return nil, errors.New("wrong path")
		}
		return &printer.StatusResponse{Errors: []string{"No media when printing"}}, nil
	})

	r := f.exec.Execute("status " + f.deviceID)
	if !r.Success || !strings.Contains(r.Message, "No media") {
		t.Errorf("Unexpected status result %+v", r)
	}

	f.exec.SetStatusFunc(func(context.Context, string) (*printer.StatusResponse, error) {
		return nil, printer.ErrDeviceNotFound
	})
	if r := f.exec.Execute("status " + f.deviceID); r.Success {
		t.Error("Expected status failure")
	}
}

func TestExecute_Readers(t *testing.T) {
	f := newFixture(t)

	r := f.exec.Execute(`reader add /dev/ttyACM0 "Front desk" --automated`)
	if !r.Success {
		t.Fatalf("reader add failed: %s", r.Error)
	}
	readers := f.reg.Readers()
	if len(readers) != 1 || readers[0].Name != "Front desk" || !readers[0].Automated {
		t.Fatalf("Unexpected readers %+v", readers)
	}

	if r := f.exec.Execute("reader remove " + readers[0].ID); !r.Success {
		t.Errorf("reader remove failed: %s", r.Error)
	}
	if len(f.reg.Readers()) != 0 {
		t.Error("Expected reader to be removed")
	}
}

func TestExecute_Detect(t *testing.T) {
	f := newFixture(t)

	r := f.exec.Execute("detect")
	if !r.Success || r.Data["count"] != 1 {
		t.Errorf("Unexpected detect result %+v", r)
	}
}

func TestPreview(t *testing.T) {
	f := newFixture(t)
	label, err := LoadLabel(f.writeLabel(t))
	if err != nil {
		t.Fatalf("LoadLabel failed: %v", err)
	}

	img, data, err := f.exec.Preview(f.deviceID, label, map[string]string{"order": "A-17"})
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if img.Bounds().Dx() != registry.DefaultLabelWidth || img.Bounds().Dy() != registry.DefaultLabelHeight {
		t.Errorf("Unexpected preview size %v", img.Bounds())
	}
	if len(data) == 0 || data[len(data)-1] != printer.FF {
		t.Errorf("Expected ESC/P job ending in form feed")
	}

	if _, _, err := f.exec.Preview("missing", label, nil); !errors.Is(err, ErrPrinterNotFound) {
		t.Errorf("Expected ErrPrinterNotFound, got %v", err)
	}
}
