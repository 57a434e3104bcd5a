package teller

import "time"

type options struct {
	artifactDir    string
	onnxLibrary    string
	wordNetDir     string
	stopwordsPath  string
	defaultVariant string
	onLoad         func(LoadEvent)
}

// Option configures a Teller instance.
type Option func(*options)

// LoadEvent describes one artifact load from storage.
type LoadEvent struct {
	Dataset  int
	Kind     string // vectorizer, decoder or classifier
	Variant  string // set for classifiers
	Duration time.Duration
	Err      error
}

// WithArtifactDir sets the directory holding the trained artifacts.
// Expects tfidf_vectorizer_D{n}.json, label_encoder_D{n}.json and
// {logistic,svm}_model_D{n}.{json,safetensors,onnx}. Default: "models".
func WithArtifactDir(dir string) Option {
	return func(o *options) { o.artifactDir = dir }
}

// WithONNXLibrary sets the path to the ONNX Runtime shared library, used
// only when a classifier is stored as .onnx. Default: libonnxruntime.so in
// the artifact directory.
func WithONNXLibrary(path string) Option {
	return func(o *options) { o.onnxLibrary = path }
}

// WithWordNet loads the verb lexicon from a WordNet dict directory
// (index.verb and verb.exc) instead of the embedded one.
func WithWordNet(dir string) Option {
	return func(o *options) { o.wordNetDir = dir }
}

// WithStopwords replaces the embedded English stopword list with the words
// in path, one per line.
func WithStopwords(path string) Option {
	return func(o *options) { o.stopwordsPath = path }
}

// WithDefaultVariant sets the model used when Classify is given an empty
// variant. Accepts "logistic", "svm" and their display names.
// Default: "logistic".
func WithDefaultVariant(v string) Option {
	return func(o *options) { o.defaultVariant = v }
}

// WithLoadHook registers a callback run after every artifact load attempt.
func WithLoadHook(f func(LoadEvent)) Option {
	return func(o *options) { o.onLoad = f }
}

func defaultOptions() options {
	return options{
		artifactDir:    "models",
		defaultVariant: "logistic",
	}
}
