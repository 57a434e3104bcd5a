package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hejijunhao/teller/internal/engine"
	"github.com/hejijunhao/teller/internal/engine/artifact"
	"github.com/hejijunhao/teller/internal/model"
	"github.com/hejijunhao/teller/internal/output"
)

const (
	defaultWorkers = 4
	defaultMaxLine = 1024 * 1024 // 1MB per complaint
)

// Classifier predicts the category of one complaint. *engine.Engine
// implements it.
type Classifier interface {
	Classify(ds model.Dataset, raw string, v model.Variant) (model.Prediction, error)
}

// Resolver maps a decoded label to its display form. *resolver.Resolver
// implements it.
type Resolver interface {
	ResolveFor(ds model.Dataset, label string) model.Resolution
}

// Stats summarizes a batch run.
type Stats struct {
	Lines      int           `json:"lines"`
	Classified int           `json:"classified"`
	Empty      int           `json:"empty"`
	Failed     int           `json:"failed"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDataset sets the dataset used for lines that do not name one.
// Default: dataset 1.
func WithDataset(ds model.Dataset) Option {
	return func(p *Pipeline) { p.dataset = ds }
}

// WithVariant sets the model variant used for lines that do not name one.
// Default: logistic.
func WithVariant(v model.Variant) Option {
	return func(p *Pipeline) { p.variant = v }
}

// WithWorkers sets how many lines are classified concurrently. Results are
// always written in input order. Default: 4.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithMaxLineSize sets the longest accepted input line in bytes. Default: 1MB.
func WithMaxLineSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxLine = n
		}
	}
}

// Pipeline classifies newline-delimited complaints and writes one result per
// line to an output.
type Pipeline struct {
	classifier Classifier
	resolver   Resolver
	output     output.Output
	dataset    model.Dataset
	variant    model.Variant
	workers    int
	maxLine    int
}

// New creates a Pipeline from the given components.
func New(cls Classifier, res Resolver, out output.Output, opts ...Option) *Pipeline {
	p := &Pipeline{
		classifier: cls,
		resolver:   res,
		output:     out,
		dataset:    model.Dataset1,
		variant:    model.Logistic,
		workers:    defaultWorkers,
		maxLine:    defaultMaxLine,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// line is one input record. Plain text lines carry only Text; JSON lines may
// override the dataset and model per complaint.
type line struct {
	Text    *string `json:"text"`
	Dataset *int    `json:"dataset"`
	Model   *string `json:"model"`
}

type lineResult struct {
	result model.Result
	err    error // aborts the run
}

// Run reads complaints from r until EOF and writes a result for each line,
// including empty ones. Per-line problems (empty text, unknown dataset or
// model) are recorded in the result; an artifact load failure or an output
// error stops the run.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) (Stats, error) {
	var stats Stats
	if err := engine.Validate(p.dataset, p.variant); err != nil {
		return stats, fmt.Errorf("pipeline: %w", err)
	}
	start := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan chan lineResult, p.workers)
	sem := make(chan struct{}, p.workers)
	var scanErr error

	go func() {
		defer close(queue)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, min(64*1024, p.maxLine)), p.maxLine)
		for n := 1; sc.Scan(); n++ {
			text := sc.Text()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			fut := make(chan lineResult, 1)
			select {
			case queue <- fut:
			case <-ctx.Done():
				<-sem
				return
			}
			go func(n int, text string) {
				defer func() { <-sem }()
				fut <- p.classifyLine(n, text)
			}(n, text)
		}
		scanErr = sc.Err()
	}()

	for fut := range queue {
		lr := <-fut
		if lr.err != nil {
			stats.Elapsed = time.Since(start)
			return stats, lr.err
		}
		stats.Lines++
		switch {
		case lr.result.Empty:
			stats.Empty++
		case lr.result.Error != "":
			stats.Failed++
		default:
			stats.Classified++
		}
		if err := p.output.Write(ctx, lr.result); err != nil {
			stats.Elapsed = time.Since(start)
			return stats, fmt.Errorf("pipeline: output: %w", err)
		}
	}
	stats.Elapsed = time.Since(start)

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if scanErr != nil {
		return stats, fmt.Errorf("pipeline: read: %w", scanErr)
	}

	slog.Info("batch complete",
		"lines", stats.Lines,
		"classified", stats.Classified,
		"empty", stats.Empty,
		"failed", stats.Failed,
		"elapsed", stats.Elapsed,
	)
	return stats, nil
}

// Close shuts down the output.
func (p *Pipeline) Close() error {
	return p.output.Close()
}

func (p *Pipeline) classifyLine(n int, raw string) lineResult {
	text, ds, v, err := p.parse(raw)
	if err != nil {
		slog.Warn("skipping complaint", "line", n, "error", err)
		return lineResult{result: model.Result{Text: text, Dataset: ds, Error: err.Error()}}
	}

	pred, err := p.classifier.Classify(ds, text, v)
	switch {
	case err == nil:
		return lineResult{result: pred.Result(text, p.resolver.ResolveFor(ds, pred.Category))}
	case errors.Is(err, engine.ErrEmptyInput):
		return lineResult{result: model.Result{Text: text, Dataset: ds, Empty: true}}
	case errors.Is(err, artifact.ErrArtifactLoad):
		return lineResult{err: fmt.Errorf("pipeline: line %d: %w", n, err)}
	default:
		slog.Warn("complaint not classified", "line", n, "dataset", int(ds), "variant", string(v), "error", err)
		return lineResult{result: model.Result{Text: text, Dataset: ds, ModelUsed: v, Error: err.Error()}}
	}
}

// parse splits a line into its text and the dataset and variant to use.
// Lines that are not JSON objects are taken verbatim as complaint text.
func (p *Pipeline) parse(raw string) (string, model.Dataset, model.Variant, error) {
	ds, v := p.dataset, p.variant
	if !strings.HasPrefix(strings.TrimSpace(raw), "{") {
		return raw, ds, v, nil
	}
	var rec line
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return raw, ds, v, nil
	}

	var text string
	if rec.Text != nil {
		text = *rec.Text
	}
	if rec.Dataset != nil {
		ds = model.Dataset(*rec.Dataset)
	}
	if rec.Model != nil {
		parsed, err := model.ParseVariant(*rec.Model)
		if err != nil {
			return text, ds, v, &engine.ConfigError{Field: "model variant", Value: fmt.Sprintf("%q", *rec.Model)}
		}
		v = parsed
	}
	return text, ds, v, nil
}
