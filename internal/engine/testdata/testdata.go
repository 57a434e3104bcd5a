package testdata

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/hejijunhao/teller/internal/model"
)

//go:embed samples.json
var samplesJSON []byte

// Sample is a complaint paired with the category a user should expect.
type Sample struct {
	Dataset          model.Dataset `json:"dataset"`
	Text             string        `json:"text"`
	ExpectedCategory string        `json:"expected_category"`
	ExpectedIcon     string        `json:"expected_icon"`
}

// LoadSamples parses the embedded samples.json and returns all entries.
func LoadSamples() ([]Sample, error) {
	var samples []Sample
	if err := json.Unmarshal(samplesJSON, &samples); err != nil {
		return nil, fmt.Errorf("parse samples.json: %w", err)
	}
	return samples, nil
}

// ForDataset returns the samples for ds, in file order.
func ForDataset(samples []Sample, ds model.Dataset) []Sample {
	var out []Sample
	for _, s := range samples {
		if s.Dataset == ds {
			out = append(out, s)
		}
	}
	return out
}
