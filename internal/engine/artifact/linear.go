package artifact

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hejijunhao/teller/internal/model"
)

// Linear is a one-vs-rest linear model: LogisticRegression and LinearSVC
// share the same decision function, so both variants load into it.
type Linear struct {
	kind      model.Variant
	classes   []int
	coef      [][]float64 // [rows, dim]
	intercept []float64
	dim       int
}

type linearFile struct {
	Kind      string      `json:"kind"`
	Classes   []int       `json:"classes"`
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

// LoadLinear reads a linear classifier exported as JSON.
func LoadLinear(path string) (*Linear, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("linear: %w", err)
	}
	var f linearFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("linear: failed to parse %s: %w", path, err)
	}
	var kind model.Variant
	if f.Kind != "" {
		kind, err = model.ParseVariant(f.Kind)
		if err != nil {
			return nil, fmt.Errorf("linear: %w", err)
		}
	}
	return NewLinear(kind, f.Classes, f.Coef, f.Intercept)
}

// NewLinear validates the shapes of coef and intercept. A single coef row
// is the binary case. When classes is nil the class labels are 0..k-1;
// otherwise classes must be a permutation of 0..k-1.
func NewLinear(kind model.Variant, classes []int, coef [][]float64, intercept []float64) (*Linear, error) {
	rows := len(coef)
	if rows == 0 {
		return nil, fmt.Errorf("linear: empty coef")
	}
	dim := len(coef[0])
	if dim == 0 {
		return nil, fmt.Errorf("linear: coef has no features")
	}
	for i, row := range coef {
		if len(row) != dim {
			return nil, fmt.Errorf("linear: coef row %d has %d features, want %d", i, len(row), dim)
		}
	}
	if len(intercept) != rows {
		return nil, fmt.Errorf("linear: intercept has %d values for %d coef rows", len(intercept), rows)
	}

	want := rows
	if rows == 1 {
		want = 2
	}
	if classes == nil {
		classes = make([]int, want)
		for i := range classes {
			classes[i] = i
		}
	}
	if len(classes) != want {
		return nil, fmt.Errorf("linear: %d classes for %d coef rows", len(classes), rows)
	}
	seen := make([]bool, want)
	for _, c := range classes {
		if c < 0 || c >= want {
			return nil, fmt.Errorf("linear: class %d outside [0, %d)", c, want)
		}
		if seen[c] {
			return nil, fmt.Errorf("linear: class %d listed twice", c)
		}
		seen[c] = true
	}

	return &Linear{
		kind:      kind,
		classes:   classes,
		coef:      coef,
		intercept: intercept,
		dim:       dim,
	}, nil
}

// Dim returns the number of input features.
func (l *Linear) Dim() int { return l.dim }

// Classes returns the number of output classes.
func (l *Linear) Classes() int { return len(l.classes) }

// Kind returns the variant recorded in the export, if any.
func (l *Linear) Kind() model.Variant { return l.kind }

// Predict returns the class with the highest decision score. Ties go to the
// lowest row.
func (l *Linear) Predict(vec FeatureVector) (int, error) {
	if vec.Dim != l.dim {
		return 0, fmt.Errorf("linear: vector has %d features, want %d", vec.Dim, l.dim)
	}
	scores := l.decision(vec)
	if len(scores) == 1 {
		if scores[0] > 0 {
			return l.classes[1], nil
		}
		return l.classes[0], nil
	}
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return l.classes[best], nil
}

func (l *Linear) decision(vec FeatureVector) []float64 {
	scores := make([]float64, len(l.coef))
	for r, row := range l.coef {
		sum := l.intercept[r]
		for i, col := range vec.Index {
			sum += row[col] * vec.Value[i]
		}
		scores[r] = sum
	}
	return scores
}
