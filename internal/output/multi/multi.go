package multi

import (
	"context"
	"errors"

	"github.com/hejijunhao/teller/internal/model"
	"github.com/hejijunhao/teller/internal/output"
)

// Multi writes each result to several destinations in order, e.g. stdout
// plus an NDJSON file during a batch run. A failing destination does not
// stop the others from receiving the result.
type Multi struct {
	outputs []output.Output
}

// New creates a Multi over the given outputs. Nil entries are skipped so
// callers can pass optional destinations directly.
func New(outputs ...output.Output) *Multi {
	m := &Multi{}
	for _, o := range outputs {
		if o != nil {
			m.outputs = append(m.outputs, o)
		}
	}
	return m
}

// Len returns the number of wrapped outputs.
func (m *Multi) Len() int { return len(m.outputs) }

// Write delivers the result to every wrapped output and joins their errors.
func (m *Multi) Write(ctx context.Context, result model.Result) error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Write(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every wrapped output and joins their errors.
func (m *Multi) Close() error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
