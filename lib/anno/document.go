package anno

import (
	"errors"
	"fmt"

	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/doc"
)

const (
	SpacyTokens     = "spacy.tokens"
	SpacyNes        = "spacy.nes"
	SpacyNounChunks = "spacy.noun_chunks"
	SpacySentences  = "spacy.sentences"
)

var ErrUnknownTier = errors.New("unknown tier")

// Annotator produces named tiers for a document.
type Annotator interface {
	Annotate(d *Document, debug bool) (map[string]*Tier, error)
}

// Document is a parsed document plus the tiers annotated onto it so far.
type Document struct {
	*doc.Doc
	Tiers map[string]*Tier
}

func NewDocument(d *doc.Doc) *Document {
	return &Document{Doc: d, Tiers: make(map[string]*Tier)}
}

// RequireTiers returns the named tiers, building the parser tiers on first
// use. Tiers that no annotator has produced are an error.
func (d *Document) RequireTiers(names ...string) ([]*Tier, error) {
	res := make([]*Tier, len(names))
	for i, name := range names {
		tier, ok := d.Tiers[name]
		if !ok {
			switch name {
			case SpacyTokens, SpacyNes, SpacyNounChunks, SpacySentences:
				for k, v := range SpacyTiers(d.Doc) {
					d.Tiers[k] = v
				}
				tier = d.Tiers[name]
			default:
				return nil, fmt.Errorf("%w: %s", ErrUnknownTier, name)
			}
		}
		res[i] = tier
	}
	return res, nil
}

// AddTiers runs the annotator and stores its output tiers on the document.
func (d *Document) AddTiers(a Annotator, debug bool) error {
	tiers, err := a.Annotate(d, debug)
	if err != nil {
		return err
	}
	for name, tier := range tiers {
		d.Tiers[name] = tier
	}
	return nil
}

// SpacyTiers exposes the upstream parse as tiers. Entity spans carry their
// label so that WithLabel can select them.
func SpacyTiers(d *doc.Doc) map[string]*Tier {
	tokens := make([]*Span, len(d.Tokens))
	for i, t := range d.Tokens {
		tokens[i] = NewTokenSpan(t, d)
	}

	ranges := func(rs []doc.Range) *Tier {
		spans := make([]*Span, len(rs))
		for i, r := range rs {
			spans[i] = &Span{Start: r.Start, End: r.End, Doc: d, Label: r.Label}
		}
		return NewTier(spans)
	}

	return map[string]*Tier{
		SpacyTokens:     NewTier(tokens),
		SpacyNes:        ranges(d.Ents),
		SpacyNounChunks: ranges(d.NounChunks),
		SpacySentences:  ranges(d.Sents),
	}
}
