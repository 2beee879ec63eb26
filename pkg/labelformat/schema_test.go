package labelformat

import (
	"path/filepath"
	"testing"
)

func TestValidate_ValidLabel(t *testing.T) {
	label := &Label{
		Version: "1.0",
		Name:    "Badge",
		Elements: []Element{
			{Type: "text", Value: "Hello World"},
			{Type: "feed"},
		},
	}

	if err := Validate(label); err != nil {
		t.Errorf("Expected valid label, got error: %v", err)
	}
}

func TestValidate_MissingVersion(t *testing.T) {
	label := &Label{
		Elements: []Element{{Type: "text", Value: "Hello"}},
	}

	if err := Validate(label); err == nil {
		t.Error("Expected error for missing version")
	}
}

func TestValidate_InvalidVersion(t *testing.T) {
	label := &Label{
		Version:  "2.0",
		Elements: []Element{{Type: "text", Value: "Hello"}},
	}

	if err := Validate(label); err == nil {
		t.Error("Expected error for invalid version")
	}
}

func TestValidate_NoElements(t *testing.T) {
	label := &Label{Version: "1.0", Elements: []Element{}}

	if err := Validate(label); err == nil {
		t.Error("Expected error for no elements")
	}
}

func TestValidate_NegativeCanvas(t *testing.T) {
	label := &Label{
		Version:  "1.0",
		Width:    -1,
		Elements: []Element{{Type: "text", Value: "Hello"}},
	}

	if err := Validate(label); err == nil {
		t.Error("Expected error for negative width")
	}
}

func TestValidate_Variables(t *testing.T) {
	label := &Label{
		Version: "1.0",
		Variables: []Variable{
			{Let: "guest", ValueType: "string", DefaultValue: "Guest"},
			{Let: "orderId", ValueType: "string"},
		},
		Elements: []Element{
			{Type: "text", DynamicValue: "guest"},
			{Type: "qrcode", DynamicValue: "orderId"},
		},
	}

	if err := Validate(label); err != nil {
		t.Errorf("Expected valid label with variables, got error: %v", err)
	}
}

func TestValidate_DuplicateVariableName(t *testing.T) {
	label := &Label{
		Version: "1.0",
		Variables: []Variable{
			{Let: "name", ValueType: "string"},
			{Let: "name", ValueType: "string"},
		},
		Elements: []Element{{Type: "text", Value: "Hello"}},
	}

	if err := Validate(label); err == nil {
		t.Error("Expected error for duplicate variable name")
	}
}

func TestValidate_UnknownVariable(t *testing.T) {
	label := &Label{
		Version:  "1.0",
		Elements: []Element{{Type: "text", DynamicValue: "unknownVar"}},
	}

	if err := Validate(label); err == nil {
		t.Error("Expected error for unknown variable")
	}
}

func TestValidate_Elements(t *testing.T) {
	tests := []struct {
		name    string
		el      Element
		wantErr bool
	}{
		{"valid static text", Element{Type: "text", Value: "Hello"}, false},
		{"valid align center", Element{Type: "text", Value: "Hello", Align: "center"}, false},
		{"invalid align", Element{Type: "text", Value: "Hello", Align: "justify"}, true},
		{"empty text", Element{Type: "text"}, true},
		{"missing type", Element{Value: "Hello"}, true},
		{"unknown type", Element{Type: "cut"}, true},
		{"image without source", Element{Type: "image"}, true},
		{"image with both sources", Element{Type: "image", Path: "a.png", Base64: "AAAA"}, true},
		{"image threshold", Element{Type: "image", Path: "a.png", Threshold: 300}, true},
		{"valid barcode", Element{Type: "barcode", Value: "12345", Format: "CODE39"}, false},
		{"barcode format", Element{Type: "barcode", Value: "12345", Format: "PDF417"}, true},
		{"barcode without value", Element{Type: "barcode"}, true},
		{"valid qrcode", Element{Type: "qrcode", Value: "x", ErrorCorrection: "H"}, false},
		{"qrcode level", Element{Type: "qrcode", Value: "x", ErrorCorrection: "Z"}, true},
		{"divider style", Element{Type: "divider", Style: "wavy"}, true},
		{"nested box", Element{Type: "box", Elements: []Element{{Type: "text"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label := &Label{Version: "1.0", Elements: []Element{tt.el}}
			err := Validate(label)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	label := &Label{
		Version: "1.0",
		Variables: []Variable{
			{Let: "seat", ValueType: "number", DefaultValue: 12.0, Prefix: "Seat "},
			{Let: "name", ValueType: "string"},
		},
	}

	tests := []struct {
		el     Element
		values map[string]string
		want   string
	}{
		{Element{Value: "static"}, nil, "static"},
		{Element{DynamicValue: "seat"}, nil, "Seat 12"},
		{Element{DynamicValue: "seat"}, map[string]string{"seat": "7"}, "Seat 7"},
		{Element{DynamicValue: "name"}, nil, ""},
		{Element{DynamicValue: "name"}, map[string]string{"name": "Kim"}, "Kim"},
	}

	for _, tt := range tests {
		if got := label.Resolve(&tt.el, tt.values); got != tt.want {
			t.Errorf("Resolve(%+v) = %q, want %q", tt.el, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	data := []byte(`{
		"version": "1.0",
		"name": "Order",
		"width": 960,
		"height": 410,
		"variables": [{"let": "orderId", "valueType": "string"}],
		"elements": [
			{"type": "text", "value": "ORDER", "size": 48, "align": "center"},
			{"type": "qrcode", "dynamicValue": "orderId"}
		]
	}`)

	label, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if label.Width != 960 || len(label.Elements) != 2 || label.Elements[0].Size != 48 {
		t.Errorf("Unexpected label %+v", label)
	}

	if _, err := Parse([]byte(`{"version": "1.0", "elements": [{"type": "bogus"}]}`)); err == nil {
		t.Error("Expected validation error")
	}
	if _, err := Parse([]byte(`{`)); err == nil {
		t.Error("Expected JSON error")
	}
}

func TestSaveAndParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badge.json")
	label := &Label{
		Version:  "1.0",
		Name:     "Badge",
		Elements: []Element{{Type: "text", Value: "Hello"}},
	}

	if err := label.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}
	loaded, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if loaded.Name != "Badge" {
		t.Errorf("Expected name to round trip, got %q", loaded.Name)
	}
}
