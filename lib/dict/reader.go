package dict

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
)

type Format string

const (
	NativeDictionaryFormat   Format = "native"
	LeadmineDictionaryFormat Format = "leadmine"
)

// ModifierKind marks entries that define a modifier group rather than an
// attribute category.
const ModifierKind = "MODIFIER"

// Entry is one category (or modifier group) read from a dictionary file.
// For attribute entries Kind is the part of speech.
type Entry struct {
	Kind     string
	Category string
	Lemmas   []string
}

type Reader interface {
	Read(r io.Reader) (chan Entry, chan error)
}

func Read(format Format, r io.Reader) (chan Entry, chan error, error) {
	switch format {
	case NativeDictionaryFormat, "":
		entries, errors := NewNativeReader().Read(r)
		return entries, errors, nil
	case LeadmineDictionaryFormat:
		entries, errors := NewLeadmineReader().Read(r)
		return entries, errors, nil
	default:
		return nil, nil, fmt.Errorf("unsupported dictionary format %v", format)
	}
}

// ReadWithCallback reads the dictionary according to its format and executes
// onEntry for each entry. onEOF runs once there are no more entries.
func ReadWithCallback(r io.Reader, format Format, onEntry func(entry Entry) error, onEOF func() error) error {
	entries, errors, err := Read(format, r)
	if err != nil {
		return err
	}

Listen:
	for {
		select {
		case err := <-errors:
			if err != nil {
				return err
			}
			break Listen
		case entry := <-entries:
			if err := onEntry(entry); err != nil {
				go drain(entries, errors)
				return err
			}
		}
	}

	if onEOF != nil {
		return onEOF()
	}
	return nil
}

func drain(entries chan Entry, errors chan error) {
	for {
		select {
		case <-entries:
		case <-errors:
			return
		}
	}
}

// Load reads a dictionary file.
func Load(path string, format Format) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("could not open dictionary")
		return nil, err
	}
	defer f.Close()

	d, err := build(f, format)
	if err != nil {
		return nil, fmt.Errorf("dictionary %s: %w", path, err)
	}
	log.Info().Str("path", path).Str("format", string(format)).Msg("dictionary loaded")
	return d, nil
}

func build(r io.Reader, format Format) (*Dictionary, error) {
	d := newDictionary()
	err := ReadWithCallback(r, format, func(e Entry) error {
		return d.add(e)
	}, nil)
	if err != nil {
		return nil, err
	}
	return d, nil
}
