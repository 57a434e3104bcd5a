// Package artifacttest writes small keyword-weighted artifact sets for tests
// that need a real FileLoader without trained models.
package artifacttest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/hejijunhao/teller/internal/model"
)

// Vocab is the shared vectorizer vocabulary, in column order.
var Vocab = []string{
	"card", "fee", "charge", "report", "dispute", "debt", "collector",
	"call", "mortgage", "escrow", "payment", "account", "bank", "check",
	"student", "loan", "servicer",
}

type topic struct {
	label   string
	weights map[string]float64
}

var (
	cardWeights     = map[string]float64{"card": 2, "fee": 1, "charge": 1}
	reportWeights   = map[string]float64{"report": 2, "dispute": 1}
	debtWeights     = map[string]float64{"debt": 2, "collector": 2, "call": 1}
	mortgageWeights = map[string]float64{"mortgage": 2, "escrow": 1, "payment": 1}
	bankWeights     = map[string]float64{"account": 1, "bank": 1, "check": 2}
	studentWeights  = map[string]float64{"student": 2, "loan": 1, "servicer": 1}
)

var topics = map[model.Dataset][]topic{
	model.Dataset1: {
		{"credit_card", cardWeights},
		{"credit_reporting", reportWeights},
		{"debt_collection", debtWeights},
		{"mortgages_and_loans", mortgageWeights},
		{"retail_banking", bankWeights},
	},
	model.Dataset2: {
		{"Bank account or service", bankWeights},
		{"Credit card", cardWeights},
		{"Credit reporting", reportWeights},
		{"Debt collection", debtWeights},
		{"Mortgage", mortgageWeights},
		{"Student loan", studentWeights},
	},
}

// Labels returns the decoder classes written for ds, in class-index order.
func Labels(ds model.Dataset) []string {
	var out []string
	for _, tp := range topics[ds] {
		out = append(out, tp.label)
	}
	return out
}

// WriteJSON marshals v to path.
func WriteJSON(t testing.TB, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// WriteDataset writes the vectorizer, label decoder and both classifier
// variants for ds into dir. Each class scores the sum of its keyword weights,
// so a complaint lands in the class whose keywords it mentions most.
func WriteDataset(t testing.TB, dir string, ds model.Dataset) {
	t.Helper()
	tps, ok := topics[ds]
	if !ok {
		t.Fatalf("artifacttest: no topics for %s", ds)
	}

	vocab := make(map[string]int, len(Vocab))
	idf := make([]float64, len(Vocab))
	for i, term := range Vocab {
		vocab[term] = i
		idf[i] = 1
	}
	WriteJSON(t, filepath.Join(dir, "tfidf_vectorizer_"+ds.Suffix()+".json"), map[string]any{
		"vocabulary":  vocab,
		"idf":         idf,
		"ngram_range": []int{1, 1},
		"norm":        "l2",
	})
	WriteJSON(t, filepath.Join(dir, "label_encoder_"+ds.Suffix()+".json"), map[string]any{"classes": Labels(ds)})

	coef := make([][]float64, len(tps))
	classes := make([]int, len(tps))
	for c, tp := range tps {
		classes[c] = c
		coef[c] = make([]float64, len(Vocab))
		for term, w := range tp.weights {
			coef[c][vocab[term]] = w
		}
	}
	for _, v := range model.Variants() {
		WriteJSON(t, filepath.Join(dir, string(v)+"_model_"+ds.Suffix()+".json"), map[string]any{
			"kind":      string(v),
			"classes":   classes,
			"coef":      coef,
			"intercept": make([]float64, len(tps)),
		})
	}
}

// Dir returns a temporary directory holding artifact sets for every
// dataset in dss.
func Dir(t testing.TB, dss ...model.Dataset) string {
	t.Helper()
	dir := t.TempDir()
	for _, ds := range dss {
		WriteDataset(t, dir, ds)
	}
	return dir
}
