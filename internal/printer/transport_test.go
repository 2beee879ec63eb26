package printer

import (
	"bytes"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func aDevicePath(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lp0")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWriteDevice(t *testing.T) {
	path := aDevicePath(t)
	data := []byte{0x1B, 0x40, 0x0C}

	if err := WriteDevice(path, data); err != nil {
		t.Fatalf("WriteDevice failed: %v", err)
	}

	got, _ := os.ReadFile(path)
	if !bytes.Equal(got, data) {
		t.Errorf("Expected % X, got % X", data, got)
	}
}

func TestWriteDevice_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing")
	err := WriteDevice(path, []byte("x"))
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Expected ErrDeviceNotFound, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("WriteDevice must not create the device path")
	}
}

func TestOpen_InvalidTargets(t *testing.T) {
	for _, target := range []string{
		"tcp://printer",
		"tcp://printer:http",
		"usb://04b8",
		"usb://zz:0202",
		"ftp://host/file",
	} {
		if _, err := Open(target); err == nil {
			t.Errorf("Expected error for %q", target)
		}
	}
}

func TestOpen_SerialMissing(t *testing.T) {
	_, err := Open("serial://" + filepath.Join(t.TempDir(), "ttyUSB9") + "?baud=9600")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Expected ErrDeviceNotFound, got %v", err)
	}
}

func TestESCP_Transmit(t *testing.T) {
	path := aDevicePath(t)
	e := NewESCP()
	page, _ := e.BeginPage()
	page.End()

	if err := e.Transmit(path); err != nil {
		t.Fatalf("Transmit failed: %v", err)
	}
	got, _ := os.ReadFile(path)
	want, _ := e.Bytes()
	if !bytes.Equal(got, want) {
		t.Error("Device contents differ from the encoded job")
	}
}

func TestTransmit_Network(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("no loopback listener: %v", err)
	}
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	data := []byte("INITIALPRINTER\r\nPRINT 1\r\nEND\r\n")
	if err := Transmit("tcp://"+ln.Addr().String(), data); err != nil {
		t.Fatalf("Transmit failed: %v", err)
	}

	select {
	case got := <-received:
		if !bytes.Equal(got, data) {
			t.Errorf("Expected %q, got %q", data, got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("listener never received the job")
	}
}
