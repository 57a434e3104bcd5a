package teller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hejijunhao/teller/internal/engine"
	"github.com/hejijunhao/teller/internal/engine/artifact"
	"github.com/hejijunhao/teller/internal/engine/lexicon"
	"github.com/hejijunhao/teller/internal/engine/resolver"
	"github.com/hejijunhao/teller/internal/engine/textnorm"
	"github.com/hejijunhao/teller/internal/model"
)

// Errors returned by Classify. Match them with errors.Is.
var (
	// ErrEmptyInput means the complaint had no usable words after
	// normalization. Ask the user for more detail.
	ErrEmptyInput = engine.ErrEmptyInput
	// ErrInvalidConfiguration means the dataset or model is not supported.
	ErrInvalidConfiguration = engine.ErrInvalidConfiguration
	// ErrArtifactLoad means a trained artifact is missing, corrupt or
	// incompatible with its siblings.
	ErrArtifactLoad = artifact.ErrArtifactLoad
)

// Teller is a bank complaint classifier. Safe for concurrent use.
type Teller struct {
	engine         *engine.Engine
	norm           *textnorm.Normalizer
	resolver       *resolver.Resolver
	cache          *artifact.Cache
	defaultVariant model.Variant
}

// New creates a Teller. Artifacts are not read until first use; call Warm
// to load them upfront.
func New(opts ...Option) (*Teller, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	v, err := model.ParseVariant(o.defaultVariant)
	if err != nil {
		return nil, fmt.Errorf("teller: %w", err)
	}
	if info, err := os.Stat(o.artifactDir); err != nil {
		return nil, fmt.Errorf("teller: artifact dir: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("teller: artifact dir %s is not a directory", o.artifactDir)
	}

	lex, err := lexicon.Load(o.wordNetDir, o.stopwordsPath)
	if err != nil {
		return nil, fmt.Errorf("teller: %w", err)
	}

	var cacheOpts []artifact.CacheOption
	if o.onLoad != nil {
		hook := o.onLoad
		cacheOpts = append(cacheOpts, artifact.WithObserver(func(key artifact.Key, d time.Duration, err error) {
			hook(LoadEvent{
				Dataset:  int(key.Dataset),
				Kind:     string(key.Kind),
				Variant:  string(key.Variant),
				Duration: d,
				Err:      err,
			})
		}))
	}

	norm := textnorm.New(lex)
	cache := artifact.NewCache(artifact.NewFileLoader(o.artifactDir, o.onnxLibrary), cacheOpts...)
	return &Teller{
		engine:         engine.New(norm, cache),
		norm:           norm,
		resolver:       resolver.Default(),
		cache:          cache,
		defaultVariant: v,
	}, nil
}

// Classify predicts the category of one complaint. variant may be empty to
// use the default model. If ctx ends first, Classify returns ctx.Err()
// and the result of the still-running call is discarded.
func (t *Teller) Classify(ctx context.Context, dataset int, text, variant string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	ds := model.Dataset(dataset)
	v, err := t.variant(variant)
	if err != nil {
		return Result{}, err
	}

	type outcome struct {
		res Result
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		res, err := t.classify(ds, text, v)
		ch <- outcome{res, err}
	}()

	select {
	case out := <-ch:
		return out.res, out.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// ClassifyBatch classifies several complaints for one dataset and model.
// Complaints with no usable content come back with Empty set instead of
// failing the batch; any other error stops it.
func (t *Teller) ClassifyBatch(ctx context.Context, dataset int, texts []string, variant string) ([]Result, error) {
	ds := model.Dataset(dataset)
	v, err := t.variant(variant)
	if err != nil {
		return nil, err
	}
	if err := engine.Validate(ds, v); err != nil {
		return nil, err
	}

	results := make([]Result, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := t.classify(ds, text, v)
		switch {
		case errors.Is(err, ErrEmptyInput):
			results[i] = Result{Dataset: dataset, Model: string(v), Empty: true}
		case err != nil:
			return nil, fmt.Errorf("teller: complaint %d: %w", i, err)
		default:
			results[i] = res
		}
	}
	return results, nil
}

// Normalize returns the text exactly as the classifier sees it: lowercased,
// letters only, stopwords removed and verbs lemmatized.
func (t *Teller) Normalize(text string) string {
	return t.norm.Normalize(text)
}

// Warm loads the artifacts of every dataset for the given variants (the
// default when none are given). Failures are joined; datasets that loaded
// stay cached.
func (t *Teller) Warm(variants ...string) error {
	if len(variants) == 0 {
		variants = []string{string(t.defaultVariant)}
	}
	var errs []error
	for _, name := range variants {
		v, err := t.variant(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, ds := range model.Datasets() {
			if err := t.engine.Warm(ds, v); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Datasets lists the supported datasets with their categories and icons.
func (t *Teller) Datasets() []Dataset {
	catalog := t.resolver.Catalog()
	out := make([]Dataset, len(catalog))
	for i, info := range catalog {
		var cats []Category
		for _, c := range t.resolver.Categories(info.Dataset) {
			cats = append(cats, Category{Name: c.Name, Icon: c.Icon})
		}
		out[i] = Dataset{
			ID:         int(info.Dataset),
			Title:      info.Title,
			Complaints: info.Complaints,
			Categories: cats,
		}
	}
	return out
}

// Models lists the supported classifier variants.
func (t *Teller) Models() []Model {
	var out []Model
	for _, v := range model.Variants() {
		out = append(out, Model{ID: string(v), DisplayName: v.DisplayName()})
	}
	return out
}

// Close releases loaded artifacts, including ONNX Runtime sessions.
func (t *Teller) Close() error {
	return t.cache.Close()
}

func (t *Teller) variant(name string) (model.Variant, error) {
	if name == "" {
		return t.defaultVariant, nil
	}
	v, err := model.ParseVariant(name)
	if err != nil {
		return "", &engine.ConfigError{Field: "model variant", Value: fmt.Sprintf("%q", name)}
	}
	return v, nil
}

func (t *Teller) classify(ds model.Dataset, text string, v model.Variant) (Result, error) {
	pred, err := t.engine.Classify(ds, text, v)
	if err != nil {
		return Result{}, err
	}
	r := t.resolver.ResolveFor(ds, pred.Category)
	return Result{
		Dataset:     int(pred.Dataset),
		Category:    pred.Category,
		DisplayName: r.DisplayName,
		Icon:        r.Icon,
		Model:       string(pred.ModelUsed),
	}, nil
}
