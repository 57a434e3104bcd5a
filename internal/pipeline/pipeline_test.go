package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hejijunhao/teller/internal/engine"
	"github.com/hejijunhao/teller/internal/engine/artifact"
	"github.com/hejijunhao/teller/internal/model"
)

// --- mocks ---

// keywordClassifier labels a complaint by the first keyword it contains.
// Text "unavailable" simulates a missing artifact; whitespace-only text is
// empty input.
type keywordClassifier struct {
	mu    sync.Mutex
	calls []model.Variant
	delay func(text string) time.Duration
}

func (k *keywordClassifier) Classify(ds model.Dataset, raw string, v model.Variant) (model.Prediction, error) {
	if err := engine.Validate(ds, v); err != nil {
		return model.Prediction{}, err
	}
	if k.delay != nil {
		time.Sleep(k.delay(raw))
	}
	k.mu.Lock()
	k.calls = append(k.calls, v)
	k.mu.Unlock()

	text := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case text == "":
		return model.Prediction{}, engine.ErrEmptyInput
	case text == "unavailable":
		return model.Prediction{}, &artifact.LoadError{Dataset: ds, Kind: artifact.KindClassifier, Variant: v, Err: errors.New("no such file")}
	case strings.Contains(text, "mortgage"):
		return model.Prediction{Dataset: ds, Category: "mortgages_and_loans", ModelUsed: v}, nil
	default:
		return model.Prediction{Dataset: ds, Category: "credit_card", ModelUsed: v}, nil
	}
}

type upperResolver struct{}

func (upperResolver) ResolveFor(_ model.Dataset, label string) model.Resolution {
	return model.Resolution{DisplayName: strings.ToUpper(label), Icon: "icon-" + label}
}

type recorder struct {
	mu      sync.Mutex
	results []model.Result
	err     error
	closed  bool
}

func (r *recorder) Write(_ context.Context, res model.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.results = append(r.results, res)
	return nil
}

func (r *recorder) Close() error {
	r.closed = true
	return nil
}

// --- tests ---

func TestRunPlainLines(t *testing.T) {
	out := &recorder{}
	p := New(&keywordClassifier{}, upperResolver{}, out)

	input := "My mortgage servicer lost my payment\n\nUnauthorized charge on my card\n"
	stats, err := p.Run(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	want := Stats{Lines: 3, Classified: 2, Empty: 1}
	stats.Elapsed = 0
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	if len(out.results) != 3 {
		t.Fatalf("got %d results, want 3", len(out.results))
	}
	if got := out.results[0]; got.Category != "mortgages_and_loans" || got.DisplayName != "MORTGAGES_AND_LOANS" || got.Icon != "icon-mortgages_and_loans" {
		t.Errorf("result 0 = %+v", got)
	}
	if got := out.results[1]; !got.Empty || got.Dataset != model.Dataset1 || got.Category != "" {
		t.Errorf("blank line should yield an empty record, got %+v", got)
	}
	if got := out.results[2]; got.Text != "Unauthorized charge on my card" || got.ModelUsed != model.Logistic {
		t.Errorf("result 2 = %+v", got)
	}
}

func TestRunPreservesInputOrder(t *testing.T) {
	// Earlier lines take longer, so workers finish out of order.
	cls := &keywordClassifier{delay: func(text string) time.Duration {
		var i int
		fmt.Sscanf(text, "complaint %d", &i)
		return time.Duration(20-i) * time.Millisecond
	}}
	out := &recorder{}
	p := New(cls, upperResolver{}, out, WithWorkers(8))

	var b strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "complaint %d\n", i)
	}
	if _, err := p.Run(context.Background(), strings.NewReader(b.String())); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(out.results) != 20 {
		t.Fatalf("got %d results, want 20", len(out.results))
	}
	for i, r := range out.results {
		if want := fmt.Sprintf("complaint %d", i); r.Text != want {
			t.Fatalf("result %d text = %q, want %q", i, r.Text, want)
		}
	}
}

func TestRunJSONOverrides(t *testing.T) {
	cls := &keywordClassifier{}
	out := &recorder{}
	p := New(cls, upperResolver{}, out, WithDataset(model.Dataset2), WithVariant(model.SVM))

	input := strings.Join([]string{
		`{"text": "mortgage escrow shortage", "dataset": 1, "model": "Logistic Regression"}`,
		`{"text": "card fee"}`,
		`{"text": "card fee", "dataset": 7}`,
		`{"text": "card fee", "model": "naive_bayes"}`,
		`{not json, classified as text}`,
	}, "\n")
	stats, err := p.Run(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if stats.Lines != 5 || stats.Classified != 3 || stats.Failed != 2 {
		t.Errorf("stats = %+v", stats)
	}

	r := out.results
	if r[0].Dataset != model.Dataset1 || r[0].ModelUsed != model.Logistic || r[0].Text != "mortgage escrow shortage" {
		t.Errorf("override not applied: %+v", r[0])
	}
	if r[1].Dataset != model.Dataset2 || r[1].ModelUsed != model.SVM {
		t.Errorf("defaults not applied: %+v", r[1])
	}
	if r[2].Error == "" || r[2].Dataset != model.Dataset(7) {
		t.Errorf("unknown dataset should be recorded as an error: %+v", r[2])
	}
	if !strings.Contains(r[3].Error, "naive_bayes") {
		t.Errorf("unknown model should be recorded as an error: %+v", r[3])
	}
	if r[4].Text != "{not json, classified as text}" || r[4].Category != "credit_card" {
		t.Errorf("malformed JSON should be classified verbatim: %+v", r[4])
	}
}

func TestRunArtifactLoadErrorAborts(t *testing.T) {
	out := &recorder{}
	p := New(&keywordClassifier{}, upperResolver{}, out, WithWorkers(1))

	stats, err := p.Run(context.Background(), strings.NewReader("card fee\nunavailable\ncard fee\n"))
	if !errors.Is(err, artifact.ErrArtifactLoad) {
		t.Fatalf("err = %v, want ErrArtifactLoad", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should name the line: %v", err)
	}
	if stats.Lines != 1 || len(out.results) != 1 {
		t.Errorf("expected only the first line written, stats=%+v results=%d", stats, len(out.results))
	}
}

func TestRunInvalidDefaultsRejectedUpfront(t *testing.T) {
	cls := &keywordClassifier{}
	p := New(cls, upperResolver{}, &recorder{}, WithDataset(model.Dataset(3)))

	_, err := p.Run(context.Background(), strings.NewReader("card fee\n"))
	if !errors.Is(err, engine.ErrInvalidConfiguration) {
		t.Fatalf("err = %v, want ErrInvalidConfiguration", err)
	}
	if len(cls.calls) != 0 {
		t.Error("no line should be classified with an invalid configuration")
	}
}

func TestRunOutputError(t *testing.T) {
	out := &recorder{err: errors.New("disk full")}
	p := New(&keywordClassifier{}, upperResolver{}, out)

	_, err := p.Run(context.Background(), strings.NewReader("card fee\ncard fee\n"))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("err = %v, want output error", err)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(&keywordClassifier{}, upperResolver{}, &recorder{})
	_, err := p.Run(ctx, strings.NewReader(strings.Repeat("card fee\n", 100)))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRunLineTooLong(t *testing.T) {
	p := New(&keywordClassifier{}, upperResolver{}, &recorder{}, WithMaxLineSize(16))

	_, err := p.Run(context.Background(), strings.NewReader(strings.Repeat("x", 64)+"\n"))
	if err == nil || !strings.Contains(err.Error(), "read") {
		t.Fatalf("err = %v, want read error", err)
	}
}

func TestClose(t *testing.T) {
	out := &recorder{}
	p := New(&keywordClassifier{}, upperResolver{}, out)
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if !out.closed {
		t.Error("Close did not close the output")
	}
}
