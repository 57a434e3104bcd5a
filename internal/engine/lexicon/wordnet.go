package lexicon

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// parsedFile is a line-oriented resource file with blank lines and
// license-header lines (leading space) removed.
type parsedFile struct {
	name  string
	lines [][]string
}

func readFile(path string) (*parsedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: %w", err)
	}
	defer f.Close()
	return parseFile(f, path)
}

func parseFile(r io.Reader, name string) (*parsedFile, error) {
	pf := &parsedFile{name: name}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == ' ' || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		pf.lines = append(pf.lines, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("lexicon: read %s: %w", name, err)
	}
	return pf, nil
}

// words returns the first field of every line.
func (pf *parsedFile) words() []string {
	out := make([]string, 0, len(pf.lines))
	for _, fields := range pf.lines {
		out = append(out, fields[0])
	}
	return out
}

// indexLemmas reads WordNet index.* lines ("lemma pos synset_cnt ...") and
// returns the lemmas. Collocations keep their underscores and so never match
// a single token.
func (pf *parsedFile) indexLemmas() []string {
	out := make([]string, 0, len(pf.lines))
	for _, fields := range pf.lines {
		if len(fields) < 2 {
			continue
		}
		out = append(out, fields[0])
	}
	return out
}

// exceptions reads WordNet *.exc lines ("inflected base [base...]").
func (pf *parsedFile) exceptions() map[string][]string {
	m := make(map[string][]string, len(pf.lines))
	for _, fields := range pf.lines {
		if len(fields) < 2 {
			continue
		}
		m[fields[0]] = append(m[fields[0]], fields[1:]...)
	}
	return m
}
