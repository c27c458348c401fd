package dict

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

//go:embed default.yml
var defaultDictionaryYAML []byte

var defaultDictionary *Dictionary

func init() {
	d, err := build(bytes.NewReader(defaultDictionaryYAML), NativeDictionaryFormat)
	if err != nil {
		panic(fmt.Sprintf("could not load default dictionary: %v", err))
	}
	defaultDictionary = d
}

// Default returns the built-in lemma tables. It is shared and must not be
// modified.
func Default() *Dictionary {
	return defaultDictionary
}

type category struct {
	name   string
	lemmas map[string]struct{}
}

type ModifierGroup struct {
	Name   string
	Lemmas []string
}

// Has reports whether lemma belongs to the group.
func (g ModifierGroup) Has(lemma string) bool {
	for _, l := range g.Lemmas {
		if l == lemma {
			return true
		}
	}
	return false
}

// Dictionary holds the attribute lemma tables, keyed by part of speech, and
// the modifier lemma groups. It is read-only once built.
type Dictionary struct {
	attributes     map[string][]category
	modifierGroups []ModifierGroup
}

func newDictionary() *Dictionary {
	return &Dictionary{attributes: make(map[string][]category)}
}

func (d *Dictionary) add(e Entry) error {
	if e.Category == "" {
		return fmt.Errorf("entry of kind %q has no category", e.Kind)
	}
	if e.Kind == ModifierKind {
		d.modifierGroups = append(d.modifierGroups, ModifierGroup{Name: e.Category, Lemmas: e.Lemmas})
		return nil
	}

	// a repeated category extends the existing one so order stays first-seen
	for i, c := range d.attributes[e.Kind] {
		if c.name == e.Category {
			for _, l := range e.Lemmas {
				d.attributes[e.Kind][i].lemmas[l] = struct{}{}
			}
			return nil
		}
	}
	c := category{name: e.Category, lemmas: make(map[string]struct{}, len(e.Lemmas))}
	for _, l := range e.Lemmas {
		c.lemmas[l] = struct{}{}
	}
	d.attributes[e.Kind] = append(d.attributes[e.Kind], c)
	return nil
}

// Categories returns, in table order, every category of the part of speech
// whose lemmas include lemma.
func (d *Dictionary) Categories(pos, lemma string) []string {
	var res []string
	for _, c := range d.attributes[pos] {
		if _, ok := c.lemmas[lemma]; ok {
			res = append(res, c.name)
		}
	}
	return res
}

// ModifierGroups returns the groups in table order.
func (d *Dictionary) ModifierGroups() []ModifierGroup {
	return d.modifierGroups
}

// Fingerprint identifies the content of the tables: two dictionaries with the
// same categories, lemmas and modifier groups, in the same order, share it.
func (d *Dictionary) Fingerprint() string {
	h := sha256.New()
	kinds := make([]string, 0, len(d.attributes))
	for kind := range d.attributes {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		for _, c := range d.attributes[kind] {
			lemmas := make([]string, 0, len(c.lemmas))
			for l := range c.lemmas {
				lemmas = append(lemmas, l)
			}
			sort.Strings(lemmas)
			fmt.Fprintf(h, "%s\t%s\t%s\n", kind, c.name, strings.Join(lemmas, ","))
		}
	}
	for _, g := range d.modifierGroups {
		fmt.Fprintf(h, "%s\t%s\t%s\n", ModifierKind, g.Name, strings.Join(g.Lemmas, ","))
	}
	return hex.EncodeToString(h.Sum(nil))
}
