package dict

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
)

func NewLeadmineReader() Reader {
	return leadmineReader{}
}

// leadmineReader reads tab separated rows: kind, category, lemmas...
// Kind is a part of speech, or MODIFIER for a modifier group whose name is
// also one of its lemmas.
type leadmineReader struct{}

func (l leadmineReader) Read(r io.Reader) (chan Entry, chan error) {
	entries := make(chan Entry)
	errors := make(chan error)
	go l.read(r, entries, errors)
	return entries, errors
}

func (l leadmineReader) read(r io.Reader, entries chan Entry, errors chan error) {
	scn := bufio.NewScanner(r)
	lineNumber := 0
	for scn.Scan() {
		lineNumber++
		line := scn.Text()

		// skip empty lines and commented out lines.
		if len(strings.TrimSpace(line)) == 0 || line[0] == '#' {
			continue
		}

		row := strings.Split(line, "\t")
		if len(row) < 2 {
			errors <- fmt.Errorf("line %d: expected kind and category columns", lineNumber)
			return
		}

		kind, category := row[0], row[1]
		lemmas := row[2:]
		if kind == ModifierKind {
			lemmas = append([]string{category}, lemmas...)
		} else if len(lemmas) == 0 {
			log.Warn().Int("line", lineNumber).Str("category", category).Msg("category without lemmas")
		}

		entries <- Entry{Kind: kind, Category: category, Lemmas: lemmas}
	}
	if err := scn.Err(); err != nil {
		errors <- err
		return
	}
	errors <- nil
}
