package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Dataset identifies one of the trained complaint datasets.
type Dataset int

const (
	Dataset1 Dataset = 1
	Dataset2 Dataset = 2
)

// Datasets lists every supported dataset in display order.
func Datasets() []Dataset {
	return []Dataset{Dataset1, Dataset2}
}

// Valid reports whether d names a supported dataset.
func (d Dataset) Valid() bool {
	return d == Dataset1 || d == Dataset2
}

// Suffix returns the artifact file suffix for the dataset, e.g. "D1".
func (d Dataset) Suffix() string {
	return "D" + strconv.Itoa(int(d))
}

// CategoryCount returns the size of the dataset's canonical category set,
// fixed at training time.
func (d Dataset) CategoryCount() int {
	switch d {
	case Dataset1:
		return 5
	case Dataset2:
		return 6
	default:
		return 0
	}
}

func (d Dataset) String() string {
	return "dataset" + strconv.Itoa(int(d))
}

// Variant is a trained classifier type available for every dataset.
type Variant string

const (
	Logistic Variant = "logistic"
	SVM      Variant = "svm"
)

// Variants lists the supported classifier variants.
func Variants() []Variant {
	return []Variant{Logistic, SVM}
}

// Valid reports whether v names a supported classifier variant.
func (v Variant) Valid() bool {
	return v == Logistic || v == SVM
}

// DisplayName returns the human-readable model name shown to users.
func (v Variant) DisplayName() string {
	switch v {
	case Logistic:
		return "Logistic Regression"
	case SVM:
		return "Support Vector Machine"
	default:
		return string(v)
	}
}

// ParseVariant accepts canonical variant ids as well as their display names
// ("Logistic Regression", "Support Vector Machine"), case-insensitively.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "logistic", "logistic regression", "lr":
		return Logistic, nil
	case "svm", "support vector machine", "linear svm":
		return SVM, nil
	default:
		return "", fmt.Errorf("unknown model variant %q", s)
	}
}
