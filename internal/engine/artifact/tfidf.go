package artifact

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// defaultTokenPattern is scikit-learn's default token_pattern. It is matched
// by scanWords rather than compiled, since Go's \w and \b are ASCII-only.
const defaultTokenPattern = `(?u)\b\w\w+\b`

// tfidfFile is the JSON export of a fitted TfidfVectorizer.
type tfidfFile struct {
	Vocabulary   map[string]int  `json:"vocabulary"`
	IDF          []float64       `json:"idf"`
	NgramRange   [2]int          `json:"ngram_range"`
	SublinearTF  bool            `json:"sublinear_tf"`
	Norm         json.RawMessage `json:"norm"`
	UseIDF       *bool           `json:"use_idf"`
	Lowercase    *bool           `json:"lowercase"`
	TokenPattern string          `json:"token_pattern"`
}

// TFIDF reproduces TfidfVectorizer.transform for single documents.
type TFIDF struct {
	vocab     map[string]int
	idf       []float64
	minN      int
	maxN      int
	sublinear bool
	useIDF    bool
	lowercase bool
	norm      string
	pattern   *regexp.Regexp // nil means defaultTokenPattern
}

// LoadTFIDF reads a vectorizer exported as JSON.
func LoadTFIDF(path string) (*TFIDF, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tfidf: %w", err)
	}
	var f tfidfFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("tfidf: failed to parse %s: %w", path, err)
	}
	return newTFIDF(f)
}

func newTFIDF(f tfidfFile) (*TFIDF, error) {
	if len(f.Vocabulary) == 0 {
		return nil, fmt.Errorf("tfidf: empty vocabulary")
	}
	t := &TFIDF{
		vocab:     f.Vocabulary,
		idf:       f.IDF,
		minN:      f.NgramRange[0],
		maxN:      f.NgramRange[1],
		sublinear: f.SublinearTF,
		useIDF:    true,
		lowercase: true,
		norm:      "l2",
	}
	if t.minN == 0 && t.maxN == 0 {
		t.minN, t.maxN = 1, 1
	}
	if t.minN < 1 || t.maxN < t.minN {
		return nil, fmt.Errorf("tfidf: invalid ngram_range [%d, %d]", t.minN, t.maxN)
	}
	if f.UseIDF != nil {
		t.useIDF = *f.UseIDF
	}
	if f.Lowercase != nil {
		t.lowercase = *f.Lowercase
	}
	// An explicit null disables normalization; an absent key keeps l2.
	if len(f.Norm) > 0 {
		var norm *string
		if err := json.Unmarshal(f.Norm, &norm); err != nil {
			return nil, fmt.Errorf("tfidf: norm: %w", err)
		}
		t.norm = ""
		if norm != nil {
			t.norm = *norm
		}
	}
	switch t.norm {
	case "l1", "l2", "":
	default:
		return nil, fmt.Errorf("tfidf: unsupported norm %q", t.norm)
	}

	dim := len(t.vocab)
	for term, col := range t.vocab {
		if col < 0 || col >= dim {
			return nil, fmt.Errorf("tfidf: term %q has column %d outside [0, %d)", term, col, dim)
		}
	}
	if t.useIDF && len(t.idf) != dim {
		return nil, fmt.Errorf("tfidf: idf has %d weights for %d terms", len(t.idf), dim)
	}

	if f.TokenPattern != "" && f.TokenPattern != defaultTokenPattern {
		re, err := regexp.Compile(strings.TrimPrefix(f.TokenPattern, "(?u)"))
		if err != nil {
			return nil, fmt.Errorf("tfidf: token_pattern: %w", err)
		}
		if re.NumSubexp() > 1 {
			return nil, fmt.Errorf("tfidf: token_pattern has more than one capturing group")
		}
		t.pattern = re
	}
	return t, nil
}

// Dim returns the vocabulary size.
func (t *TFIDF) Dim() int { return len(t.vocab) }

// Transform vectorizes one document. Terms outside the vocabulary are
// ignored.
func (t *TFIDF) Transform(text string) FeatureVector {
	if t.lowercase {
		text = strings.ToLower(text)
	}
	counts := make(map[int]float64)
	for _, term := range t.ngrams(t.tokens(text)) {
		if col, ok := t.vocab[term]; ok {
			counts[col]++
		}
	}

	vec := FeatureVector{Dim: len(t.vocab)}
	if len(counts) == 0 {
		return vec
	}
	vec.Index = make([]int, 0, len(counts))
	for col := range counts {
		vec.Index = append(vec.Index, col)
	}
	sort.Ints(vec.Index)

	vec.Value = make([]float64, len(vec.Index))
	var norm float64
	for i, col := range vec.Index {
		w := counts[col]
		if t.sublinear {
			w = math.Log(w) + 1
		}
		if t.useIDF {
			w *= t.idf[col]
		}
		vec.Value[i] = w
		switch t.norm {
		case "l2":
			norm += w * w
		case "l1":
			norm += math.Abs(w)
		}
	}
	if t.norm == "l2" {
		norm = math.Sqrt(norm)
	}
	if t.norm != "" && norm > 0 {
		for i := range vec.Value {
			vec.Value[i] /= norm
		}
	}
	return vec
}

func (t *TFIDF) tokens(text string) []string {
	if t.pattern == nil {
		return scanWords(text)
	}
	matches := t.pattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if len(m) > 1 {
			out = append(out, m[1])
		} else {
			out = append(out, m[0])
		}
	}
	return out
}

// ngrams expands tokens into word n-grams over [minN, maxN], ordered the
// way scikit-learn emits them.
func (t *TFIDF) ngrams(tokens []string) []string {
	if t.maxN == 1 {
		return tokens
	}
	var out []string
	minN := t.minN
	if minN == 1 {
		out = append(out, tokens...)
		minN++
	}
	for n := minN; n <= t.maxN && n <= len(tokens); n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// scanWords returns maximal runs of word characters that are at least two
// runes long.
func scanWords(text string) []string {
	var out []string
	start, runes := -1, 0
	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start, runes = i, 0
			}
			runes++
			continue
		}
		if start >= 0 && runes >= 2 {
			out = append(out, text[start:i])
		}
		start = -1
	}
	if start >= 0 && runes >= 2 {
		out = append(out, text[start:])
	}
	return out
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
