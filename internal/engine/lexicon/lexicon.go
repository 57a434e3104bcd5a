// Package lexicon holds the linguistic resources used by text normalization:
// an English stopword set and a verb lemmatizer that reproduces WordNet's
// morphological reduction for verbs.
package lexicon

import (
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

//go:embed data/stopwords.txt data/verbs.txt data/verb.exc
var embedded embed.FS

// Lexicon is an immutable set of linguistic resources. It is safe for
// concurrent use once constructed.
type Lexicon struct {
	stopwords  map[string]struct{}
	verbs      map[string]struct{}
	exceptions map[string][]string
}

// detachment rules for verbs, applied in this order.
var verbRules = []struct {
	suffix, repl string
}{
	{"s", ""},
	{"ies", "y"},
	{"es", "e"},
	{"es", ""},
	{"ed", "e"},
	{"ed", ""},
	{"ing", "e"},
	{"ing", ""},
}

var defaultLexicon struct {
	once sync.Once
	lex  *Lexicon
	err  error
}

// Default returns the embedded lexicon, parsing it on first use. Every call
// returns the same instance.
//
// The embedded verb list holds about 4,100 lemmas, which are the general
// English verbs of WordNet's index.verb rather than all 11.5k. The exception
// list covers irregular, doubled-consonant and -ied forms. Words outside
// the list are not lemmatized, so use LoadWordNet with the complete
// dictionary to match NLTK's lemmatizer on every token.
func Default() (*Lexicon, error) {
	defaultLexicon.once.Do(func() {
		defaultLexicon.lex, defaultLexicon.err = loadEmbedded()
	})
	return defaultLexicon.lex, defaultLexicon.err
}

// MustDefault is like Default but panics if the embedded data is unreadable.
func MustDefault() *Lexicon {
	lex, err := Default()
	if err != nil {
		panic(err)
	}
	return lex
}

func loadEmbedded() (*Lexicon, error) {
	open := func(name string) (*parsedFile, error) {
		f, err := embedded.Open("data/" + name)
		if err != nil {
			return nil, fmt.Errorf("lexicon: %w", err)
		}
		defer f.Close()
		return parseFile(f, name)
	}

	stop, err := open("stopwords.txt")
	if err != nil {
		return nil, err
	}
	verbs, err := open("verbs.txt")
	if err != nil {
		return nil, err
	}
	exc, err := open("verb.exc")
	if err != nil {
		return nil, err
	}
	return New(stop.words(), verbs.words(), exc.exceptions())
}

// New builds a Lexicon from explicit word lists. verbs is the set of base
// verb forms; exceptions maps irregular inflections to their base forms.
func New(stopwords, verbs []string, exceptions map[string][]string) (*Lexicon, error) {
	if len(verbs) == 0 {
		return nil, fmt.Errorf("lexicon: verb list is empty")
	}
	l := &Lexicon{
		stopwords:  make(map[string]struct{}, len(stopwords)),
		verbs:      make(map[string]struct{}, len(verbs)),
		exceptions: make(map[string][]string, len(exceptions)),
	}
	for _, w := range stopwords {
		l.stopwords[w] = struct{}{}
	}
	for _, v := range verbs {
		l.verbs[v] = struct{}{}
	}
	for form, bases := range exceptions {
		l.exceptions[form] = append([]string(nil), bases...)
	}
	return l, nil
}

// LoadWordNet builds a Lexicon from a WordNet dict directory (index.verb and
// verb.exc) and a stopword file. An empty stopwordsPath keeps the embedded
// stopword set.
func LoadWordNet(dir, stopwordsPath string) (*Lexicon, error) {
	verbs, err := readFile(filepath.Join(dir, "index.verb"))
	if err != nil {
		return nil, err
	}
	exc, err := readFile(filepath.Join(dir, "verb.exc"))
	if err != nil {
		return nil, err
	}

	var stop []string
	if stopwordsPath != "" {
		sf, err := readFile(stopwordsPath)
		if err != nil {
			return nil, err
		}
		stop = sf.words()
	} else {
		def, err := Default()
		if err != nil {
			return nil, err
		}
		stop = def.Stopwords()
	}
	return New(stop, verbs.indexLemmas(), exc.exceptions())
}

// WithStopwords returns a copy of l that uses the given stopword set.
func (l *Lexicon) WithStopwords(words []string) *Lexicon {
	cp := &Lexicon{
		stopwords:  make(map[string]struct{}, len(words)),
		verbs:      l.verbs,
		exceptions: l.exceptions,
	}
	for _, w := range words {
		cp.stopwords[w] = struct{}{}
	}
	return cp
}

// IsStopword reports whether w is in the stopword set.
func (l *Lexicon) IsStopword(w string) bool {
	_, ok := l.stopwords[w]
	return ok
}

// IsVerb reports whether w is a known base verb form.
func (l *Lexicon) IsVerb(w string) bool {
	_, ok := l.verbs[w]
	return ok
}

// Stopwords returns the stopword set as a slice in unspecified order.
func (l *Lexicon) Stopwords() []string {
	out := make([]string, 0, len(l.stopwords))
	for w := range l.stopwords {
		out = append(out, w)
	}
	return out
}

// LemmatizeVerb reduces an inflected verb to its base form. Words with no
// verb lemma are returned unchanged. When several lemmas qualify the
// shortest wins, ties going to the first candidate found.
func (l *Lexicon) LemmatizeVerb(word string) string {
	lemmas := l.morphy(word)
	if len(lemmas) == 0 {
		return word
	}
	best := lemmas[0]
	for _, c := range lemmas[1:] {
		if len(c) < len(best) {
			best = c
		}
	}
	return best
}

// morphy returns every base verb form reachable from form, in discovery
// order.
func (l *Lexicon) morphy(form string) []string {
	if bases, ok := l.exceptions[form]; ok {
		return l.known(append([]string{form}, bases...))
	}

	forms := applyRules([]string{form})
	if found := l.known(append([]string{form}, forms...)); len(found) > 0 {
		return found
	}
	for len(forms) > 0 {
		forms = applyRules(forms)
		if found := l.known(forms); len(found) > 0 {
			return found
		}
	}
	return nil
}

// known keeps the candidates present in the verb set, dropping duplicates.
func (l *Lexicon) known(candidates []string) []string {
	var out []string
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		if l.IsVerb(c) {
			out = append(out, c)
		}
	}
	return out
}

func applyRules(forms []string) []string {
	var out []string
	for _, f := range forms {
		for _, r := range verbRules {
			if strings.HasSuffix(f, r.suffix) {
				out = append(out, f[:len(f)-len(r.suffix)]+r.repl)
			}
		}
	}
	return out
}

// Load returns the lexicon selected by the two optional overrides: a WordNet
// dict directory replaces the embedded verb lexicon, and a stopword file
// replaces the embedded stopword list. With both empty it is Default.
func Load(wordnetDir, stopwordsPath string) (*Lexicon, error) {
	if wordnetDir != "" {
		return LoadWordNet(wordnetDir, stopwordsPath)
	}
	lex, err := Default()
	if err != nil || stopwordsPath == "" {
		return lex, err
	}
	sf, err := readFile(stopwordsPath)
	if err != nil {
		return nil, err
	}
	return lex.WithStopwords(sf.words()), nil
}
