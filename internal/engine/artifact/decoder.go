package artifact

import (
	"encoding/json"
	"fmt"
	"os"
)

// LabelDecoder is the inverse of a fitted LabelEncoder: index i decodes to
// classes[i].
type LabelDecoder struct {
	classes []string
}

// NewLabelDecoder builds a decoder over classes. Labels must be non-empty
// and unique so that the index mapping stays a bijection.
func NewLabelDecoder(classes []string) (*LabelDecoder, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("decoder: no classes")
	}
	seen := make(map[string]int, len(classes))
	for i, c := range classes {
		if c == "" {
			return nil, fmt.Errorf("decoder: class %d is empty", i)
		}
		if j, dup := seen[c]; dup {
			return nil, fmt.Errorf("decoder: label %q at both %d and %d", c, j, i)
		}
		seen[c] = i
	}
	return &LabelDecoder{classes: append([]string(nil), classes...)}, nil
}

// LoadLabelDecoder reads {"classes": [...]} from path.
func LoadLabelDecoder(path string) (*LabelDecoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("decoder: %w", err)
	}
	var f struct {
		Classes []string `json:"classes"`
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoder: failed to parse %s: %w", path, err)
	}
	return NewLabelDecoder(f.Classes)
}

// Decode returns the label for index.
func (d *LabelDecoder) Decode(index int) (string, error) {
	if index < 0 || index >= len(d.classes) {
		return "", fmt.Errorf("decoder: index %d outside [0, %d)", index, len(d.classes))
	}
	return d.classes[index], nil
}

// Len returns the number of classes.
func (d *LabelDecoder) Len() int { return len(d.classes) }

// Labels returns a copy of the labels in index order.
func (d *LabelDecoder) Labels() []string {
	return append([]string(nil), d.classes...)
}
