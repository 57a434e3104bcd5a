package output

import (
	"context"

	"github.com/hejijunhao/teller/internal/model"
)

// Output defines the interface for classification result destinations.
type Output interface {
	Write(ctx context.Context, result model.Result) error
	Close() error
}
