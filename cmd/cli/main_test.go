package main

import (
	"testing"
)

func TestComposeElements(t *testing.T) {
	elements, err := composeElements([]string{
		`text:"Order 17"`, "size:64", "align:center",
		"divider", "style:dashed",
		"feed:2",
		"qrcode:A-17",
	})
	if err != nil {
		t.Fatalf("composeElements failed: %v", err)
	}
	if len(elements) != 4 {
		t.Fatalf("Expected 4 elements, got %d: %v", len(elements), elements)
	}

	text := elements[0]
	if text["type"] != "text" || text["value"] != "Order 17" || text["size"] != 64 || text["align"] != "center" {
		t.Errorf("Unexpected text element %v", text)
	}
	if elements[1]["style"] != "dashed" {
		t.Errorf("Unexpected divider %v", elements[1])
	}
	if elements[2]["lines"] != 2 {
		t.Errorf("Unexpected feed %v", elements[2])
	}
	if elements[3]["type"] != "qrcode" || elements[3]["value"] != "A-17" {
		t.Errorf("Unexpected qrcode %v", elements[3])
	}
}

func TestComposeElements_Errors(t *testing.T) {
	tests := [][]string{
		nil,
		{"size:12"},
		{"feed:many"},
		{"text:hi", "nocolon"},
	}
	for _, args := range tests {
		if _, err := composeElements(args); err == nil {
			t.Errorf("composeElements(%q) expected error", args)
		}
	}
}

func TestJoinCommand(t *testing.T) {
	got := joinCommand([]string{"printer", "rename", "abc", "Front desk", `say "hi" now`})
	want := `printer rename abc "Front desk" 'say "hi" now'`
	if got != want {
		t.Errorf("joinCommand = %q, want %q", got, want)
	}
}

func TestDecodeResult(t *testing.T) {
	r := decodeResult([]byte(`{"success":true,"message":"ok","job_id":"j1"}`))
	if !r.Success || r.Message != "ok" || r.Data["job_id"] != "j1" {
		t.Errorf("Unexpected result %+v", r)
	}

	if r := decodeResult([]byte("not json")); r.Success || r.Error == "" {
		t.Errorf("Expected parse failure, got %+v", r)
	}
}
