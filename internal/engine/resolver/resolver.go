// Package resolver turns decoded category labels into what a user sees: a
// display name and an icon tag.
package resolver

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hejijunhao/teller/internal/model"
)

// Entry pairs a canonical category key with its icon tag.
type Entry struct {
	Key  string
	Icon string
}

// Mode selects how a label is rendered for display. Dataset 1 labels are
// snake_case and shown title-cased; dataset 2 labels are shown verbatim.
type Mode int

const (
	TitleCase Mode = iota
	Raw
)

func (m Mode) String() string {
	switch m {
	case TitleCase:
		return "title"
	case Raw:
		return "raw"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "title":
		*m = TitleCase
	case "raw":
		*m = Raw
	default:
		return fmt.Errorf("resolver: unknown display mode %q", b)
	}
	return nil
}

// Resolver looks labels up in an ordered icon table.
type Resolver struct {
	entries     []Entry
	defaultIcon string
	catalog     []DatasetInfo
}

// New creates a Resolver over entries. Keys are canonicalized; order is
// preserved.
func New(entries []Entry, defaultIcon string, catalog []DatasetInfo) *Resolver {
	r := &Resolver{
		entries:     make([]Entry, len(entries)),
		defaultIcon: defaultIcon,
		catalog:     catalog,
	}
	for i, e := range entries {
		r.entries[i] = Entry{Key: Canonicalize(e.Key), Icon: e.Icon}
	}
	return r
}

var std = New(DefaultEntries(), DefaultIcon, DefaultCatalog())

// Default returns the resolver built from the built-in table and catalog.
func Default() *Resolver { return std }

// Canonicalize lowercases label, replaces underscores with spaces and trims.
func Canonicalize(label string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ToLower(label), "_", " "))
}

// Icon returns the icon for label: an exact key match first, then the first
// entry whose key contains the label or is contained in it, then the
// default icon. A blank label is contained in every key, so it takes the
// first entry's icon.
func (r *Resolver) Icon(label string) string {
	name := Canonicalize(label)
	for _, e := range r.entries {
		if e.Key == name {
			return e.Icon
		}
	}
	for _, e := range r.entries {
		if strings.Contains(name, e.Key) || strings.Contains(e.Key, name) {
			return e.Icon
		}
	}
	return r.defaultIcon
}

// Resolve formats label for display under mode and looks up its icon.
func (r *Resolver) Resolve(label string, mode Mode) model.Resolution {
	display := Format(label, mode)
	return model.Resolution{DisplayName: display, Icon: r.Icon(display)}
}

// ResolveFor resolves label using the display mode of dataset ds.
func (r *Resolver) ResolveFor(ds model.Dataset, label string) model.Resolution {
	return r.Resolve(label, r.ModeFor(ds))
}

// ModeFor returns the catalog display mode for ds, TitleCase when ds is not
// in the catalog.
func (r *Resolver) ModeFor(ds model.Dataset) Mode {
	if info, ok := r.Dataset(ds); ok {
		return info.Mode
	}
	return TitleCase
}

// Resolve returns the icon for label using the default table.
func Resolve(label string) string { return std.Icon(label) }

// Format renders label for display. TitleCase replaces underscores with
// spaces and capitalizes each word; Raw returns the label unchanged.
func Format(label string, mode Mode) string {
	if mode == Raw {
		return label
	}
	// Casers keep state and are not safe for concurrent use.
	return cases.Title(language.English).String(strings.ReplaceAll(label, "_", " "))
}
