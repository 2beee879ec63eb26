package labelformat

import (
	"encoding/json"
	"fmt"
	"os"
)

// Parse parses and validates a label template
func Parse(data []byte) (*Label, error) {
	var label Label
	if err := json.Unmarshal(data, &label); err != nil {
		return nil, fmt.Errorf("failed to parse label: %w", err)
	}

	if err := Validate(&label); err != nil {
		return nil, err
	}

	return &label, nil
}

// ParseFile parses a label template from disk
func ParseFile(path string) (*Label, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read label file: %w", err)
	}

	return Parse(data)
}

// ToJSON converts a Label to JSON bytes
func (l *Label) ToJSON() ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// SaveToFile saves a Label to a file
func (l *Label) SaveToFile(path string) error {
	data, err := l.ToJSON()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Resolve returns the text an element shows. Dynamic values come from
// values, then from the variable's default, and carry the variable's
// prefix and suffix.
func (l *Label) Resolve(el *Element, values map[string]string) string {
	if el.DynamicValue == "" {
		return el.Value
	}

	for _, v := range l.Variables {
		if v.Let != el.DynamicValue {
			continue
		}
		value, ok := values[v.Let]
		if !ok {
			if v.DefaultValue == nil {
				return ""
			}
			value = fmt.Sprint(v.DefaultValue)
		}
		return v.Prefix + value + v.Suffix
	}

	return values[el.DynamicValue]
}
