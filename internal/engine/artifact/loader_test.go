package artifact

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hejijunhao/teller/internal/model"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

// writeArtifacts lays out a minimal dataset-1 artifact directory.
func writeArtifacts(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, "tfidf_vectorizer_D1.json"),
		`{"vocabulary": {"card": 0, "report": 1, "collector": 2, "mortgage": 3, "account": 4}, "idf": [1, 1, 1, 1, 1], "ngram_range": [1, 1]}`)
	writeFile(t, filepath.Join(dir, "label_encoder_D1.json"),
		`{"classes": ["credit_card", "credit_reporting", "debt_collection", "mortgages_and_loans", "retail_banking"]}`)
	writeFile(t, filepath.Join(dir, "logistic_model_D1.json"),
		`{"kind": "logistic", "classes": [0, 1, 2, 3, 4], "coef": [[1,0,0,0,0],[0,1,0,0,0],[0,0,1,0,0],[0,0,0,1,0],[0,0,0,0,1]], "intercept": [0, 0, 0, 0, 0]}`)
}

func TestFileLoaderJSON(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir)
	l := NewFileLoader(dir, "")

	vec, err := l.LoadVectorizer(model.Dataset1)
	if err != nil {
		t.Fatalf("LoadVectorizer: %v", err)
	}
	dec, err := l.LoadDecoder(model.Dataset1)
	if err != nil {
		t.Fatalf("LoadDecoder: %v", err)
	}
	cls, err := l.LoadClassifier(model.Dataset1, model.Logistic)
	if err != nil {
		t.Fatalf("LoadClassifier: %v", err)
	}
	if err := CheckCompatible(model.Dataset1, model.Logistic, vec, cls, dec); err != nil {
		t.Fatalf("CheckCompatible: %v", err)
	}

	idx, err := cls.Predict(vec.Transform("mortgage"))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if label, _ := dec.Decode(idx); label != "mortgages_and_loans" {
		t.Errorf("label = %q, want mortgages_and_loans", label)
	}
}

func TestFileLoaderFormatOrder(t *testing.T) {
	if got := ClassifierFormats(); !reflect.DeepEqual(got, []string{".json", ".safetensors", ".onnx"}) {
		t.Fatalf("ClassifierFormats() = %v", got)
	}

	dir := t.TempDir()
	l := NewFileLoader(dir, "")
	stem := l.ClassifierStem(model.Dataset1, model.SVM)
	writeSafetensors(t, stem+".safetensors", map[string]tensor{
		"coef":      {shape: []int{2, 1}, data: []float32{1, -1}},
		"intercept": {shape: []int{2}, data: []float32{0, 0}},
	})

	cls, err := l.LoadClassifier(model.Dataset1, model.SVM)
	if err != nil {
		t.Fatalf("LoadClassifier (safetensors): %v", err)
	}
	if cls.Dim() != 1 {
		t.Errorf("Dim() = %d, want 1 from safetensors", cls.Dim())
	}

	writeFile(t, stem+".json", `{"coef": [[1, 0, 0], [0, 1, 0]], "intercept": [0, 0]}`)
	cls, err = l.LoadClassifier(model.Dataset1, model.SVM)
	if err != nil {
		t.Fatalf("LoadClassifier (json): %v", err)
	}
	if cls.Dim() != 3 {
		t.Errorf("Dim() = %d, want 3 from json", cls.Dim())
	}
}

func TestFileLoaderMissing(t *testing.T) {
	l := NewFileLoader(t.TempDir(), "")

	_, err := l.LoadClassifier(model.Dataset2, model.SVM)
	if !errors.Is(err, ErrArtifactLoad) {
		t.Fatalf("expected ErrArtifactLoad, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected wrapped fs.ErrNotExist, got %v", err)
	}
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LoadError, got %T", err)
	}
	if le.Dataset != model.Dataset2 || le.Kind != KindClassifier || le.Variant != model.SVM {
		t.Errorf("LoadError key = %v/%v/%v", le.Dataset, le.Kind, le.Variant)
	}

	if _, err := l.LoadVectorizer(model.Dataset1); !errors.Is(err, ErrArtifactLoad) {
		t.Errorf("LoadVectorizer: expected ErrArtifactLoad, got %v", err)
	}
	if _, err := l.LoadDecoder(model.Dataset1); !errors.Is(err, ErrArtifactLoad) {
		t.Errorf("LoadDecoder: expected ErrArtifactLoad, got %v", err)
	}
}

func TestFileLoaderCorrupt(t *testing.T) {
	dir := t.TempDir()
	l := NewFileLoader(dir, "")
	path := l.DecoderPath(model.Dataset1)
	writeFile(t, path, `{"classes": ["a", "a"]}`)

	_, err := l.LoadDecoder(model.Dataset1)
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LoadError, got %v", err)
	}
	if le.Path != path {
		t.Errorf("Path = %q, want %q", le.Path, path)
	}
}

func TestFileLoaderRejectsBrokenLabelSpace(t *testing.T) {
	eye := `[[1,0,0,0,0],[0,1,0,0,0],[0,0,1,0,0],[0,0,0,1,0],[0,0,0,0,1]]`
	for _, classes := range []string{"[0, 1, 2, 3, 7]", "[0, 0, 1, 2, 3]"} {
		dir := t.TempDir()
		writeArtifacts(t, dir)
		writeFile(t, filepath.Join(dir, "logistic_model_D1.json"),
			`{"kind": "logistic", "classes": `+classes+`, "coef": `+eye+`, "intercept": [0, 0, 0, 0, 0]}`)

		_, err := NewFileLoader(dir, "").LoadClassifier(model.Dataset1, model.Logistic)
		if !errors.Is(err, ErrArtifactLoad) {
			t.Errorf("classes %s: expected ErrArtifactLoad at load time, got %v", classes, err)
		}
	}
}

func TestCheckCompatible(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir)
	l := NewFileLoader(dir, "")
	vec, _ := l.LoadVectorizer(model.Dataset1)
	dec, _ := l.LoadDecoder(model.Dataset1)

	narrow, _ := NewLinear(model.Logistic, nil, [][]float64{{1, 0}, {0, 1}}, []float64{0, 0})
	if err := CheckCompatible(model.Dataset1, model.Logistic, vec, narrow, dec); !errors.Is(err, ErrArtifactLoad) {
		t.Errorf("dimension mismatch: got %v", err)
	}

	coef := make([][]float64, 3)
	for i := range coef {
		coef[i] = make([]float64, 5)
	}
	few, _ := NewLinear(model.Logistic, nil, coef, []float64{0, 0, 0})
	if err := CheckCompatible(model.Dataset1, model.Logistic, vec, few, dec); !errors.Is(err, ErrArtifactLoad) {
		t.Errorf("class count mismatch: got %v", err)
	}
}

func TestLoadONNX(t *testing.T) {
	const path = "../../../models/logistic_model_D1.onnx"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("ONNX classifier not found; export it with skl2onnx first")
	}
	cls, err := LoadONNX(path, "../../../models/libonnxruntime.so")
	if err != nil {
		t.Fatalf("LoadONNX: %v", err)
	}
	defer cls.Close()

	idx, err := cls.Predict(FeatureVector{Dim: cls.Dim()})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if idx < 0 {
		t.Errorf("Predict = %d, want non-negative class index", idx)
	}
}
