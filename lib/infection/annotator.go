// Package infection finds reports of infections, deaths and hospitalizations
// in parsed text, together with their counts and modifiers ("12 confirmed
// cases"). It errs on the side of excluding events: anything ambiguous is
// left out rather than reported with a guessed count.
package infection

import (
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/anno"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/blocklist"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/dict"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/doc"
)

// InfectionsTier names the tier produced by Annotate.
const InfectionsTier = "infections"

type Annotator struct {
	dictionary  *dict.Dictionary
	blocklist   *blocklist.Blocklist
	fingerprint string
}

type Option func(*Annotator)

func WithDictionary(d *dict.Dictionary) Option {
	return func(a *Annotator) {
		if d != nil {
			a.dictionary = d
		}
	}
}

func WithBlocklist(b *blocklist.Blocklist) Option {
	return func(a *Annotator) {
		if b != nil {
			a.blocklist = b
		}
	}
}

func NewAnnotator(opts ...Option) *Annotator {
	a := &Annotator{
		dictionary: dict.Default(),
		blocklist:  blocklist.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.fingerprint = a.dictionary.Fingerprint() + ":" + a.blocklist.Fingerprint()
	return a
}

// Fingerprint identifies the dictionary and blocklist in use. Annotations
// made with different fingerprints may differ for the same document.
func (a *Annotator) Fingerprint() string {
	return a.fingerprint
}

// Annotate returns the infections tier of d. Debug traces from every stage
// are kept on the output spans when debug is set.
func (a *Annotator) Annotate(d *anno.Document, debug bool) (map[string]*anno.Tier, error) {
	if _, err := d.RequireTiers(anno.SpacyTokens, anno.SpacyNes, anno.SpacyNounChunks, anno.SpacySentences); err != nil {
		return nil, err
	}

	infections, err := a.FromNounChunksWithInfectionLemmas(d, debug)
	if err != nil {
		return nil, err
	}
	people, err := a.FromNounChunksWithPersonLemmas(d, debug)
	if err != nil {
		return nil, err
	}

	tier, err := a.AddCountModifiers(append(infections, people...), d)
	if err != nil {
		return nil, err
	}
	return map[string]*anno.Tier{InfectionsTier: a.blocklist.FilterTier(tier)}, nil
}

// AnnotateDoc validates d and returns its infections tier.
func (a *Annotator) AnnotateDoc(d *doc.Doc, debug bool) (*anno.Tier, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	document := anno.NewDocument(d)
	if err := document.AddTiers(a, debug); err != nil {
		return nil, err
	}
	return document.Tiers[InfectionsTier], nil
}
