// Package textnorm turns raw complaint text into the normalized bag of
// lemmas the vectorizers were trained on.
package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hejijunhao/teller/internal/engine/lexicon"
)

// whitespace mirrors the full Unicode whitespace set recognised by the
// training-side regular expressions, which is wider than RE2's \s.
const whitespace = `\t\n\v\f\r\x{1c}-\x{1f} \x{85}\x{a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}`

var (
	urlPattern     = regexp.MustCompile(`http[^` + whitespace + `]+|www[^` + whitespace + `]+|https[^` + whitespace + `]+`)
	emailPattern   = regexp.MustCompile(`[^` + whitespace + `]+@[^` + whitespace + `]+`)
	nonLetter      = regexp.MustCompile(`[^a-z` + whitespace + `]`)
	whitespaceRuns = regexp.MustCompile(`[` + whitespace + `]+`)
)

// contractions are whole-word splits the word tokenizer applies to
// letters-only text.
var contractions = map[string][]string{
	"cannot": {"can", "not"},
	"gimme":  {"gim", "me"},
	"gonna":  {"gon", "na"},
	"gotta":  {"got", "ta"},
	"lemme":  {"lem", "me"},
	"wanna":  {"wan", "na"},
}

// minTokenLen is the shortest token kept after lemmatization.
const minTokenLen = 3

// Normalizer is a pure text transform over a fixed lexicon. It holds no
// mutable state and is safe for concurrent use.
type Normalizer struct {
	lex *lexicon.Lexicon
}

// New creates a Normalizer backed by the given lexicon.
func New(lex *lexicon.Lexicon) *Normalizer {
	return &Normalizer{lex: lex}
}

// Normalize lowercases raw text, strips URLs, email addresses, digits and
// punctuation, drops stopwords, lemmatizes verbs and drops short tokens.
// It returns "" when nothing usable remains.
func (n *Normalizer) Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	text := strings.TrimSpace(cases.Lower(language.Und).String(raw))
	text = clean(text)

	var kept []string
	for _, tok := range tokenize(text) {
		if n.lex.IsStopword(tok) {
			continue
		}
		lemma := n.lex.LemmatizeVerb(tok)
		if len(lemma) < minTokenLen {
			continue
		}
		kept = append(kept, lemma)
	}
	return strings.Join(kept, " ")
}

// NormalizeOptional treats a missing value like empty text.
func (n *Normalizer) NormalizeOptional(raw *string) string {
	if raw == nil {
		return ""
	}
	return n.Normalize(*raw)
}

func clean(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = emailPattern.ReplaceAllString(text, "")
	text = nonLetter.ReplaceAllString(text, "")
	text = whitespaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// tokenize splits cleaned text into word tokens.
func tokenize(text string) []string {
	if text == "" {
		return nil
	}
	fields := strings.Split(text, " ")
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" {
			continue
		}
		if parts, ok := contractions[f]; ok {
			tokens = append(tokens, parts...)
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
