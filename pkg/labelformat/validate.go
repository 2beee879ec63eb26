package labelformat

import (
	"fmt"
	"slices"
)

var (
	valueTypes     = []string{"string", "number", "double", "boolean"}
	aligns         = []string{"left", "center", "right"}
	barcodeFormats = []string{"CODE128", "CODE39", "EAN13", "EAN8"}
	ecLevels       = []string{"L", "M", "Q", "H"}
	dividerStyles  = []string{"solid", "double", "dashed", "dotted"}
)

// Validate validates a Label structure
func Validate(l *Label) error {
	if l.Version == "" {
		return fmt.Errorf("version is required")
	}
	if l.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected 1.0)", l.Version)
	}

	if l.Width < 0 || l.Height < 0 {
		return fmt.Errorf("invalid canvas size %dx%d", l.Width, l.Height)
	}

	variableNames := make(map[string]bool)
	for i, v := range l.Variables {
		if v.Let == "" {
			return fmt.Errorf("variable[%d]: 'let' is required", i)
		}
		if variableNames[v.Let] {
			return fmt.Errorf("variable[%d]: duplicate variable name '%s'", i, v.Let)
		}
		variableNames[v.Let] = true

		if !slices.Contains(valueTypes, v.ValueType) {
			return fmt.Errorf("variable[%d] '%s': invalid valueType '%s' (must be string, number, double, or boolean)", i, v.Let, v.ValueType)
		}
	}

	if len(l.Elements) == 0 {
		return fmt.Errorf("at least one element is required")
	}

	for i := range l.Elements {
		if err := validateElement(&l.Elements[i], variableNames); err != nil {
			return fmt.Errorf("element[%d]: %w", i, err)
		}
	}

	return nil
}

func validateElement(el *Element, variables map[string]bool) error {
	if el.DynamicValue != "" && !variables[el.DynamicValue] {
		return fmt.Errorf("unknown variable '%s' in dynamicValue", el.DynamicValue)
	}

	switch el.Type {
	case "text":
		return validateText(el)
	case "image":
		return validateImage(el)
	case "barcode":
		return validateBarcode(el)
	case "qrcode":
		return validateQRCode(el)
	case "divider":
		if el.Style != "" && !slices.Contains(dividerStyles, el.Style) {
			return fmt.Errorf("invalid divider style '%s'", el.Style)
		}
		return nil
	case "box":
		for i := range el.Elements {
			if err := validateElement(&el.Elements[i], variables); err != nil {
				return fmt.Errorf("elements[%d]: %w", i, err)
			}
		}
		return nil
	case "feed":
		return nil
	case "":
		return fmt.Errorf("element type is required")
	default:
		return fmt.Errorf("unknown element type: %s", el.Type)
	}
}

func hasContent(el *Element) (bool, error) {
	if el.Value != "" && el.DynamicValue != "" {
		return false, fmt.Errorf("%s element cannot have both value and dynamicValue", el.Type)
	}
	return el.Value != "" || el.DynamicValue != "", nil
}

func validateText(el *Element) error {
	ok, err := hasContent(el)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("text element must have value or dynamicValue")
	}

	if el.Align != "" && !slices.Contains(aligns, el.Align) {
		return fmt.Errorf("invalid align '%s' (must be left, center, or right)", el.Align)
	}
	return nil
}

func validateImage(el *Element) error {
	if el.Path == "" && el.Base64 == "" {
		return fmt.Errorf("image element requires either path or base64")
	}
	if el.Path != "" && el.Base64 != "" {
		return fmt.Errorf("image element cannot have both path and base64")
	}
	if el.Threshold < 0 || el.Threshold > 255 {
		return fmt.Errorf("threshold %d out of range 0-255", el.Threshold)
	}
	return nil
}

func validateBarcode(el *Element) error {
	ok, err := hasContent(el)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("barcode element requires value or dynamicValue")
	}

	if el.Format != "" && !slices.Contains(barcodeFormats, el.Format) {
		return fmt.Errorf("invalid barcode format '%s'", el.Format)
	}
	return nil
}

func validateQRCode(el *Element) error {
	ok, err := hasContent(el)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("qrcode element requires value or dynamicValue")
	}

	if el.ErrorCorrection != "" && !slices.Contains(ecLevels, el.ErrorCorrection) {
		return fmt.Errorf("invalid error_correction '%s' (must be L, M, Q, or H)", el.ErrorCorrection)
	}
	return nil
}
