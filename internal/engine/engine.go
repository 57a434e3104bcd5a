package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hejijunhao/teller/internal/engine/artifact"
	"github.com/hejijunhao/teller/internal/engine/textnorm"
	"github.com/hejijunhao/teller/internal/model"
)

// ErrEmptyInput is returned when a complaint normalizes to nothing. It is a
// normal outcome: the caller should ask for more text.
var ErrEmptyInput = errors.New("engine: complaint has no usable content")

// ErrInvalidConfiguration is matched by ConfigError.
var ErrInvalidConfiguration = errors.New("engine: invalid configuration")

// ConfigError reports an unsupported dataset or model variant.
type ConfigError struct {
	Field string
	Value any
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("engine: unsupported %s %v", e.Field, e.Value)
}

// Is reports ConfigError as ErrInvalidConfiguration.
func (e *ConfigError) Is(target error) bool { return target == ErrInvalidConfiguration }

// Artifacts supplies the trained objects for a classification.
// *artifact.Cache implements it.
type Artifacts interface {
	Vectorizer(ds model.Dataset) (artifact.Vectorizer, error)
	Decoder(ds model.Dataset) (artifact.Decoder, error)
	Classifier(ds model.Dataset, v model.Variant) (artifact.Classifier, error)
}

// Engine orchestrates the normalize → vectorize → predict → decode pipeline.
// It holds no state of its own beyond its collaborators.
type Engine struct {
	norm      *textnorm.Normalizer
	artifacts Artifacts
}

// New creates an Engine with the provided components.
func New(norm *textnorm.Normalizer, artifacts Artifacts) *Engine {
	return &Engine{norm: norm, artifacts: artifacts}
}

// Normalize exposes the engine's normalizer.
func (e *Engine) Normalize(raw string) string {
	return e.norm.Normalize(raw)
}

// Validate checks that ds and v name a supported configuration.
func Validate(ds model.Dataset, v model.Variant) error {
	if !ds.Valid() {
		return &ConfigError{Field: "dataset", Value: int(ds)}
	}
	if !v.Valid() {
		return &ConfigError{Field: "model variant", Value: fmt.Sprintf("%q", string(v))}
	}
	return nil
}

// Classify predicts the category of one complaint. It returns ErrEmptyInput
// without touching the artifacts when the text normalizes to nothing.
func (e *Engine) Classify(ds model.Dataset, raw string, v model.Variant) (model.Prediction, error) {
	if err := Validate(ds, v); err != nil {
		return model.Prediction{}, err
	}

	text := e.norm.Normalize(raw)
	if text == "" {
		slog.Debug("complaint normalized to nothing", "dataset", int(ds), "variant", string(v))
		return model.Prediction{}, ErrEmptyInput
	}

	vec, cls, dec, err := e.load(ds, v)
	if err != nil {
		return model.Prediction{}, err
	}

	idx, err := cls.Predict(vec.Transform(text))
	if err != nil {
		return model.Prediction{}, fmt.Errorf("engine: predict: %w", err)
	}
	label, err := dec.Decode(idx)
	if err != nil {
		return model.Prediction{}, &artifact.LoadError{Dataset: ds, Kind: artifact.KindDecoder, Err: err}
	}

	return model.Prediction{
		Dataset:   ds,
		Category:  label,
		Class:     idx,
		ModelUsed: v,
	}, nil
}

// ClassifyOptional is Classify for a possibly missing complaint; nil is
// treated as empty.
func (e *Engine) ClassifyOptional(ds model.Dataset, raw *string, v model.Variant) (model.Prediction, error) {
	if raw == nil {
		return e.Classify(ds, "", v)
	}
	return e.Classify(ds, *raw, v)
}

// Warm loads and cross-checks the artifacts for (ds, v) ahead of the first
// classification.
func (e *Engine) Warm(ds model.Dataset, v model.Variant) error {
	if err := Validate(ds, v); err != nil {
		return err
	}
	_, _, _, err := e.load(ds, v)
	return err
}

func (e *Engine) load(ds model.Dataset, v model.Variant) (artifact.Vectorizer, artifact.Classifier, artifact.Decoder, error) {
	vec, err := e.artifacts.Vectorizer(ds)
	if err != nil {
		return nil, nil, nil, err
	}
	cls, err := e.artifacts.Classifier(ds, v)
	if err != nil {
		return nil, nil, nil, err
	}
	dec, err := e.artifacts.Decoder(ds)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := artifact.CheckCompatible(ds, v, vec, cls, dec); err != nil {
		return nil, nil, nil, err
	}
	return vec, cls, dec, nil
}
