package output

import (
	"strings"

	"github.com/hejijunhao/teller/internal/model"
)

// Verbosity controls which result fields are written.
type Verbosity int

const (
	// Minimal omits the complaint text.
	Minimal Verbosity = iota
	// Standard writes every field.
	Standard
)

// ParseVerbosity maps "minimal" and "standard" (case-insensitive) to a
// Verbosity. Anything else is Standard.
func ParseVerbosity(s string) Verbosity {
	if strings.EqualFold(strings.TrimSpace(s), "minimal") {
		return Minimal
	}
	return Standard
}

// FormatResult returns a copy of the result with fields stripped according
// to verbosity. At Minimal the complaint text is zeroed (omitted from JSON
// via omitempty).
func FormatResult(r model.Result, verbosity Verbosity) model.Result {
	if verbosity == Minimal {
		r.Text = ""
	}
	return r
}
