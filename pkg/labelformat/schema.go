// Package labelformat defines the JSON label template format
package labelformat

// Label is the root of a label template
type Label struct {
	Version     string     `json:"version"`
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	Width       int        `json:"width,omitempty"`  // canvas pixels, 0 uses the printer's label size
	Height      int        `json:"height,omitempty"` // canvas pixels, 0 uses the printer's label size
	Font        string     `json:"font,omitempty"`   // TrueType font path
	Variables   []Variable `json:"variables,omitempty"`
	Elements    []Element  `json:"elements"`
}

// Variable is a template variable filled in at render time
type Variable struct {
	Let          string      `json:"let"`
	ValueType    string      `json:"valueType"` // string, number, double, boolean
	DefaultValue interface{} `json:"defaultValue,omitempty"`
	Prefix       string      `json:"prefix,omitempty"`
	Suffix       string      `json:"suffix,omitempty"`
	Description  string      `json:"description,omitempty"`
}

// Element is one drawable item of a label
type Element struct {
	Type string `json:"type"`

	// Text, barcode and QR code content
	Value        string `json:"value,omitempty"`
	DynamicValue string `json:"dynamicValue,omitempty"`

	// Text element
	Size  int    `json:"size,omitempty"`
	Align string `json:"align,omitempty"`

	// Image element
	Path      string `json:"path,omitempty"`
	Base64    string `json:"base64,omitempty"`
	Threshold int    `json:"threshold,omitempty"`

	// Feed element
	Lines int `json:"lines,omitempty"`

	// Divider element
	Style string `json:"style,omitempty"`

	// Barcode element
	Format string `json:"format,omitempty"`
	Height int    `json:"height,omitempty"`
	Width  int    `json:"width,omitempty"`

	// QR code element
	ErrorCorrection string `json:"error_correction,omitempty"`

	// Box element
	Elements []Element `json:"elements,omitempty"`
	Border   int       `json:"border,omitempty"`
	Padding  int       `json:"padding,omitempty"`
	Inverted bool      `json:"inverted,omitempty"`
}
