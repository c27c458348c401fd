package dict

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v2"
)

func NewNativeReader() Reader {
	return nativeReader{}
}

// nativeReader reads the YAML layout of default.yml. MapSlice keeps the
// category order of the file.
type nativeReader struct{}

type nativeDictionary struct {
	AttributeLemmas yaml.MapSlice `yaml:"attribute_lemmas"`
	ModifierGroups  []string      `yaml:"modifier_groups"`
}

func (n nativeReader) Read(r io.Reader) (chan Entry, chan error) {
	entries := make(chan Entry)
	errors := make(chan error)
	go n.read(r, entries, errors)
	return entries, errors
}

func (n nativeReader) read(r io.Reader, entries chan Entry, errors chan error) {
	b, err := io.ReadAll(r)
	if err != nil {
		errors <- err
		return
	}

	var nd nativeDictionary
	if err := yaml.Unmarshal(b, &nd); err != nil {
		errors <- err
		return
	}

	for _, pos := range nd.AttributeLemmas {
		categories, ok := pos.Value.(yaml.MapSlice)
		if !ok {
			errors <- fmt.Errorf("attribute_lemmas.%v must be a mapping", pos.Key)
			return
		}
		for _, category := range categories {
			lemmas, err := stringList(category.Value)
			if err != nil {
				errors <- fmt.Errorf("attribute_lemmas.%v.%v: %w", pos.Key, category.Key, err)
				return
			}
			entries <- Entry{
				Kind:     fmt.Sprint(pos.Key),
				Category: fmt.Sprint(category.Key),
				Lemmas:   lemmas,
			}
		}
	}

	for _, group := range nd.ModifierGroups {
		lemmas := strings.Split(group, "|")
		entries <- Entry{Kind: ModifierKind, Category: lemmas[0], Lemmas: lemmas}
	}
	errors <- nil
}

func stringList(v interface{}) ([]string, error) {
	items, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a list of lemmas, got %T", v)
	}
	res := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("lemma %v is not a string", item)
		}
		res = append(res, s)
	}
	return res, nil
}
