package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hejijunhao/teller/internal/model"
)

// Loader reads artifacts from persistent storage. Implementations are
// called at most once per successful key by Cache.
type Loader interface {
	LoadVectorizer(ds model.Dataset) (Vectorizer, error)
	LoadDecoder(ds model.Dataset) (Decoder, error)
	LoadClassifier(ds model.Dataset, v model.Variant) (Classifier, error)
}

// classifierFormat reads one on-disk encoding of a classifier.
type classifierFormat struct {
	ext  string
	read func(l *FileLoader, path string, v model.Variant) (Classifier, error)
}

// classifierFormats is tried in order; the first file that exists wins.
var classifierFormats = []classifierFormat{
	{ext: ".json", read: func(_ *FileLoader, path string, _ model.Variant) (Classifier, error) {
		return LoadLinear(path)
	}},
	{ext: ".safetensors", read: func(_ *FileLoader, path string, v model.Variant) (Classifier, error) {
		return LoadLinearSafetensors(path, v)
	}},
	{ext: ".onnx", read: func(l *FileLoader, path string, _ model.Variant) (Classifier, error) {
		return LoadONNX(path, l.onnxLibrary())
	}},
}

// ClassifierFormats returns the classifier file extensions in lookup order.
func ClassifierFormats() []string {
	exts := make([]string, len(classifierFormats))
	for i, f := range classifierFormats {
		exts[i] = f.ext
	}
	return exts
}

// FileLoader reads artifacts from a directory laid out as
//
//	tfidf_vectorizer_D1.json
//	label_encoder_D1.json
//	logistic_model_D1.{json,safetensors,onnx}
//	svm_model_D1.{json,safetensors,onnx}
//
// and likewise for D2.
type FileLoader struct {
	Dir string
	// ONNXLibrary is the onnxruntime shared library. Defaults to
	// libonnxruntime.so inside Dir.
	ONNXLibrary string
}

// NewFileLoader returns a FileLoader rooted at dir.
func NewFileLoader(dir, onnxLibrary string) *FileLoader {
	return &FileLoader{Dir: dir, ONNXLibrary: onnxLibrary}
}

func (l *FileLoader) onnxLibrary() string {
	if l.ONNXLibrary != "" {
		return l.ONNXLibrary
	}
	return filepath.Join(l.Dir, "libonnxruntime.so")
}

// VectorizerPath returns the vectorizer file for ds.
func (l *FileLoader) VectorizerPath(ds model.Dataset) string {
	return filepath.Join(l.Dir, "tfidf_vectorizer_"+ds.Suffix()+".json")
}

// DecoderPath returns the label encoder file for ds.
func (l *FileLoader) DecoderPath(ds model.Dataset) string {
	return filepath.Join(l.Dir, "label_encoder_"+ds.Suffix()+".json")
}

// ClassifierStem returns the classifier path for (ds, v) without extension.
func (l *FileLoader) ClassifierStem(ds model.Dataset, v model.Variant) string {
	return filepath.Join(l.Dir, string(v)+"_model_"+ds.Suffix())
}

// LoadVectorizer implements Loader.
func (l *FileLoader) LoadVectorizer(ds model.Dataset) (Vectorizer, error) {
	key := Key{Dataset: ds, Kind: KindVectorizer}
	path := l.VectorizerPath(ds)
	t, err := LoadTFIDF(path)
	if err != nil {
		return nil, loadErr(key, path, err)
	}
	return t, nil
}

// LoadDecoder implements Loader.
func (l *FileLoader) LoadDecoder(ds model.Dataset) (Decoder, error) {
	key := Key{Dataset: ds, Kind: KindDecoder}
	path := l.DecoderPath(ds)
	d, err := LoadLabelDecoder(path)
	if err != nil {
		return nil, loadErr(key, path, err)
	}
	return d, nil
}

// LoadClassifier implements Loader.
func (l *FileLoader) LoadClassifier(ds model.Dataset, v model.Variant) (Classifier, error) {
	key := Key{Dataset: ds, Kind: KindClassifier, Variant: v}
	stem := l.ClassifierStem(ds, v)
	for _, f := range classifierFormats {
		path := stem + f.ext
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, loadErr(key, path, err)
		}
		c, err := f.read(l, path, v)
		if err != nil {
			return nil, loadErr(key, path, err)
		}
		return c, nil
	}
	return nil, loadErr(key, stem+".*", fmt.Errorf("no classifier file (tried %v): %w", ClassifierFormats(), fs.ErrNotExist))
}
