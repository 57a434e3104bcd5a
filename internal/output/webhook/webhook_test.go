package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hejijunhao/teller/internal/model"
	"github.com/hejijunhao/teller/internal/output"
)

func testResult(category string) model.Result {
	return model.Result{
		Text:        "I was charged an annual fee I never agreed to.",
		Dataset:     model.Dataset1,
		Category:    category,
		DisplayName: "Credit Card",
		Icon:        "ri-bank-card-line",
		ModelUsed:   model.Logistic,
	}
}

// collector is an httptest handler that records every posted batch.
type collector struct {
	mu      sync.Mutex
	batches [][]map[string]any
}

func (c *collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var batch []map[string]any
	json.Unmarshal(body, &batch)
	c.mu.Lock()
	c.batches = append(c.batches, batch)
	c.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (c *collector) snapshot() [][]map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]map[string]any(nil), c.batches...)
}

func TestBatchFlushAtBatchSize(t *testing.T) {
	col := &collector{}
	srv := httptest.NewServer(col)
	defer srv.Close()

	out := New(srv.URL, WithBatchSize(3), WithFlushInterval(10*time.Second))
	for i := 0; i < 3; i++ {
		if err := out.Write(context.Background(), testResult("credit_card")); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}

	// The third Write posts synchronously.
	got := col.snapshot()
	if len(got) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(got))
	}
	if len(got[0]) != 3 {
		t.Errorf("batch size = %d, want 3", len(got[0]))
	}
	if got[0][0]["category"] != "credit_card" {
		t.Errorf("category = %v", got[0][0]["category"])
	}
	out.Close()
}

func TestTimerFlushBeforeBatchSize(t *testing.T) {
	col := &collector{}
	srv := httptest.NewServer(col)
	defer srv.Close()

	out := New(srv.URL, WithBatchSize(100), WithFlushInterval(50*time.Millisecond))
	out.Write(context.Background(), testResult("retail_banking"))

	time.Sleep(300 * time.Millisecond)

	got := col.snapshot()
	if len(got) != 1 || len(got[0]) != 1 {
		t.Fatalf("expected one timer-triggered batch of 1, got %v", got)
	}
	out.Close()
}

func TestMinimalVerbosityOmitsText(t *testing.T) {
	col := &collector{}
	srv := httptest.NewServer(col)
	defer srv.Close()

	out := New(srv.URL, WithBatchSize(1), WithVerbosity(output.Minimal))
	out.Write(context.Background(), testResult("credit_card"))

	got := col.snapshot()
	if len(got) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(got))
	}
	if _, ok := got[0][0]["text"]; ok {
		t.Error("Minimal verbosity should not post the complaint text")
	}
}

func TestRetryOn5xx(t *testing.T) {
	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	out := New(srv.URL, WithBatchSize(1), WithBackoff(time.Millisecond))
	if err := out.Write(context.Background(), testResult("retry")); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3", attempts.Load())
	}
}

func TestRetriesExhausted(t *testing.T) {
	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	out := New(srv.URL, WithBatchSize(1), WithBackoff(time.Millisecond))
	if err := out.Write(context.Background(), testResult("down")); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if attempts.Load() != maxRetries+1 {
		t.Errorf("attempts = %d, want %d", attempts.Load(), maxRetries+1)
	}
}

func TestNoRetryOn4xx(t *testing.T) {
	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	out := New(srv.URL, WithBatchSize(1))
	if err := out.Write(context.Background(), testResult("client-error")); err == nil {
		t.Error("expected error for 400 response")
	}
	if attempts.Load() != 1 {
		t.Errorf("expected exactly 1 attempt for 4xx, got %d", attempts.Load())
	}
}

func TestCanceledContextStopsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := New(srv.URL, WithBatchSize(1), WithBackoff(time.Hour))
	done := make(chan error, 1)
	go func() { done <- out.Write(ctx, testResult("canceled")) }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected error for canceled context")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Write did not return after context cancellation")
	}
}

func TestCustomHeaders(t *testing.T) {
	var gotAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	out := New(srv.URL,
		WithBatchSize(1),
		WithHeaders(map[string]string{"Authorization": "Bearer secret123"}),
	)
	out.Write(context.Background(), testResult("headers"))

	if got, _ := gotAuth.Load().(string); got != "Bearer secret123" {
		t.Errorf("Authorization = %q, want Bearer secret123", got)
	}
}

func TestTimerFlushErrorCallbackInvoked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	var errCount atomic.Int64
	out := New(srv.URL,
		WithBatchSize(100),
		WithFlushInterval(50*time.Millisecond),
		WithOnError(func(error) { errCount.Add(1) }),
	)
	out.Write(context.Background(), testResult("timer-error"))

	time.Sleep(300 * time.Millisecond)

	if errCount.Load() != 1 {
		t.Errorf("error callback called %d times, want 1", errCount.Load())
	}
	out.Close()
}

func TestCloseFlushesRemaining(t *testing.T) {
	col := &collector{}
	srv := httptest.NewServer(col)
	defer srv.Close()

	out := New(srv.URL, WithBatchSize(100), WithFlushInterval(10*time.Second))
	out.Write(context.Background(), testResult("close-flush"))
	out.Write(context.Background(), testResult("close-flush"))

	if err := out.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	got := col.snapshot()
	if len(got) != 1 || len(got[0]) != 2 {
		t.Fatalf("expected one batch of 2 on Close, got %v", got)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("second Close error: %v", err)
	}
}
