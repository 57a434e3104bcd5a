// Package artifact loads and memoizes the trained objects a classification
// needs: the per-dataset TF-IDF vectorizer, the per-dataset label decoder, and
// one linear classifier per (dataset, variant).
package artifact

import (
	"errors"
	"fmt"

	"github.com/hejijunhao/teller/internal/model"
)

// ErrArtifactLoad is matched by every error produced while loading or
// validating an artifact.
var ErrArtifactLoad = errors.New("artifact load failed")

// Kind identifies one of the three artifact families.
type Kind string

const (
	KindVectorizer Kind = "vectorizer"
	KindDecoder    Kind = "decoder"
	KindClassifier Kind = "classifier"
)

// Key addresses one artifact in the cache. Variant is empty for the
// vectorizer and decoder, which are shared across variants.
type Key struct {
	Dataset model.Dataset
	Kind    Kind
	Variant model.Variant
}

func (k Key) String() string {
	if k.Variant == "" {
		return fmt.Sprintf("%s/%s", k.Dataset, k.Kind)
	}
	return fmt.Sprintf("%s/%s/%s", k.Dataset, k.Kind, k.Variant)
}

// FeatureVector is a sparse row over the vectorizer's fixed vocabulary.
// Index is strictly increasing; columns not listed are zero.
type FeatureVector struct {
	Dim   int
	Index []int
	Value []float64
}

// Dense expands the vector into a float32 slice of length Dim.
func (v FeatureVector) Dense() []float32 {
	out := make([]float32, v.Dim)
	for i, col := range v.Index {
		out[col] = float32(v.Value[i])
	}
	return out
}

// Vectorizer maps normalized text onto a FeatureVector.
type Vectorizer interface {
	Transform(text string) FeatureVector
	Dim() int
}

// Classifier predicts a single class index from a FeatureVector.
type Classifier interface {
	Predict(vec FeatureVector) (int, error)
	// Dim is the number of input features the classifier was trained on.
	Dim() int
	// Classes is the size of the output class space, or 0 when the
	// format does not expose it.
	Classes() int
}

// Decoder maps class indices back to canonical category labels.
type Decoder interface {
	Decode(index int) (string, error)
	Len() int
	Labels() []string
}

// LoadError describes a failed artifact load.
type LoadError struct {
	Dataset model.Dataset
	Kind    Kind
	Variant model.Variant
	Path    string
	Err     error
}

func (e *LoadError) Error() string {
	key := Key{Dataset: e.Dataset, Kind: e.Kind, Variant: e.Variant}
	if e.Path != "" {
		return fmt.Sprintf("artifact: load %s from %s: %v", key, e.Path, e.Err)
	}
	return fmt.Sprintf("artifact: load %s: %v", key, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is reports LoadError as ErrArtifactLoad.
func (e *LoadError) Is(target error) bool { return target == ErrArtifactLoad }

func loadErr(key Key, path string, err error) *LoadError {
	return &LoadError{Dataset: key.Dataset, Kind: key.Kind, Variant: key.Variant, Path: path, Err: err}
}

// asLoadError tags err with key unless it already is a LoadError.
func asLoadError(key Key, err error) error {
	var le *LoadError
	if errors.As(err, &le) {
		return err
	}
	return loadErr(key, "", err)
}

// CheckCompatible verifies that the three artifacts for one (dataset,
// variant) agree on feature dimension and label space.
func CheckCompatible(ds model.Dataset, v model.Variant, vec Vectorizer, cls Classifier, dec Decoder) error {
	key := Key{Dataset: ds, Kind: KindClassifier, Variant: v}
	if cls.Dim() != vec.Dim() {
		return loadErr(key, "", fmt.Errorf("classifier expects %d features, vectorizer produces %d", cls.Dim(), vec.Dim()))
	}
	if n := cls.Classes(); n != 0 && n != dec.Len() {
		return loadErr(key, "", fmt.Errorf("classifier has %d classes, decoder has %d labels", n, dec.Len()))
	}
	return nil
}
