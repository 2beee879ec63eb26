package printer

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"
)

func labelConfig() Config {
	return Config{
		Type:      CommandTSPL,
		Width:     40,
		Height:    30,
		Gap:       2,
		Offset:    0,
		Direction: DirectionForward,
		Density:   Density(7),
	}
}

func newTSPL(t *testing.T, cfg Config) *TSPL {
	t.Helper()
	tspl, err := NewTSPL(cfg)
	if err != nil {
		t.Fatalf("NewTSPL failed: %v", err)
	}
	return tspl
}

func TestTSPL_PageSetup(t *testing.T) {
	tspl := newTSPL(t, labelConfig())
	page, _ := tspl.BeginPage()
	if err := page.Configure(); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	var got []string
	for _, c := range tspl.Sequence().Chunks() {
		got = append(got, string(c))
	}
	want := []string{
		"INITIALPRINTER",
		"SIZE 40 mm, 30 mm",
		"GAP 2 mm, 0 mm",
		"OFFSET 0 mm",
		"DIRECTION 0",
		"DENSITY 7",
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Unexpected setup commands:\n got %q\nwant %q", got, want)
	}
}

func TestTSPL_OptionalSettings(t *testing.T) {
	cfg := labelConfig()
	cfg.Width = 50.5
	cfg.Offset = 1.25
	cfg.Direction = DirectionBackward
	cfg.Speed = "4"
	cfg.Density = nil

	cmds := pageSetupCommands(cfg)
	want := []string{
		"SIZE 50.5 mm, 30 mm",
		"GAP 2 mm, 0 mm",
		"OFFSET 1.25 mm",
		"DIRECTION 1",
		"SPEED 4",
		"DENSITY 7",
	}
	if strings.Join(cmds, "|") != strings.Join(want, "|") {
		t.Errorf("Unexpected setup commands:\n got %q\nwant %q", cmds, want)
	}
}

func TestTSPL_MinimalJob(t *testing.T) {
	tspl := newTSPL(t, labelConfig())
	page, _ := tspl.BeginPage()
	page.End()

	got, err := tspl.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if string(got) != "INITIALPRINTER\r\nPRINT 1\r\nEND\r\n" {
		t.Errorf("Unexpected minimal job %q", got)
	}
}

func TestTSPL_WriteBitmap(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 16, 2))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	img.SetGray(0, 0, color.Gray{Y: 0})

	tspl := newTSPL(t, labelConfig())
	page, _ := tspl.BeginPage()
	page.Configure()
	if err := page.WriteBitmap(img); err != nil {
		t.Fatalf("WriteBitmap failed: %v", err)
	}
	page.End()

	chunks := tspl.Sequence().Chunks()
	if string(chunks[6]) != "CLS" {
		t.Errorf("Expected CLS before BITMAP, got %q", chunks[6])
	}
	want := append([]byte("BITMAP 0,0,2,2,0,"), 0x7F, 0xFF, 0xFF, 0xFF)
	if !bytes.Equal(chunks[7], want) {
		t.Errorf("Unexpected BITMAP command:\n got %q\nwant %q", chunks[7], want)
	}

	data, _ := tspl.Bytes()
	if !bytes.HasSuffix(data, []byte("\r\nPRINT 1\r\nEND\r\n")) {
		t.Errorf("Expected CRLF terminated job, got %q", data[len(data)-20:])
	}
	if !bytes.Contains(data, append(want, '\r', '\n')) {
		t.Error("Expected BITMAP command followed by CRLF")
	}
}

func TestTSPL_WriteBitmapCropped(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 40, 30))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(11, 5, 13, 7), &image.Uniform{color.Black}, image.Point{}, draw.Src)

	tspl := newTSPL(t, labelConfig())
	page, _ := tspl.BeginPage()
	page.Configure()
	if err := page.WriteBitmapCropped(img); err != nil {
		t.Fatalf("WriteBitmapCropped failed: %v", err)
	}

	chunks := tspl.Sequence().Chunks()
	want := []byte("BITMAP 10,4,1,8,0,")
	// rows 5 and 6 hold ink in crop columns 1 and 2
	want = append(want, 0xFF, 0x9F, 0x9F, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
	if got := chunks[len(chunks)-1]; !bytes.Equal(got, want) {
		t.Errorf("Unexpected cropped BITMAP:\n got %q\nwant %q", got, want)
	}
}

func TestTSPL_CallOrder(t *testing.T) {
	tspl := newTSPL(t, labelConfig())
	if _, err := tspl.Bytes(); !errors.Is(err, ErrNoPage) {
		t.Errorf("Expected ErrNoPage, got %v", err)
	}

	page, _ := tspl.BeginPage()
	if err := page.WriteBitmap(image.NewGray(image.Rect(0, 0, 8, 8))); !errors.Is(err, ErrPageState) {
		t.Errorf("Expected ErrPageState before Configure, got %v", err)
	}
	page.Configure()
	if err := page.Configure(); !errors.Is(err, ErrPageState) {
		t.Errorf("Expected ErrPageState on second Configure, got %v", err)
	}

	page.End()
	if err := page.Configure(); !errors.Is(err, ErrPageClosed) {
		t.Errorf("Expected ErrPageClosed, got %v", err)
	}
	if err := page.End(); !errors.Is(err, ErrPageClosed) {
		t.Errorf("Expected ErrPageClosed on second End, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"default type", func(c *Config) { c.Type = "" }, false},
		{"unknown type", func(c *Config) { c.Type = "ZPL" }, true},
		{"zero width", func(c *Config) { c.Width = 0 }, true},
		{"negative gap", func(c *Config) { c.Gap = -1 }, true},
		{"density too high", func(c *Config) { c.Density = Density(16) }, true},
		{"bad direction", func(c *Config) { c.Direction = "UP" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := labelConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
