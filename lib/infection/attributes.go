package infection

import (
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/anno"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/dict"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/doc"
)

const (
	AttributeInfection       = "infection"
	AttributeDeath           = "death"
	AttributeHospitalization = "hospitalization"
	AttributePerson          = "person"
)

// TriggerLemmas are the attributes that make a span about a reportable event.
var TriggerLemmas = []string{AttributeInfection, AttributeDeath, AttributeHospitalization}

// GenerateAttributes tags each token with the categories its lemma belongs to
// for its part of speech. Duplicates are kept; merging removes them.
// Possessive nouns are skipped because they produce spurious matches.
// A nil dictionary means the built-in tables.
func GenerateAttributes(dictionary *dict.Dictionary, tokens ...doc.Token) anno.Metadata {
	if dictionary == nil {
		dictionary = dict.Default()
	}
	attributes := []string{}
	for _, t := range tokens {
		if t.Pos == "NOUN" && t.Dep == "poss" {
			continue
		}
		attributes = append(attributes, dictionary.Categories(t.Pos, t.Lemma)...)
	}
	return anno.Metadata{Attributes: attributes}
}

// HasTriggerLemmas reports whether any of lemmas is among the attributes,
// defaulting to TriggerLemmas.
func HasTriggerLemmas(metadata anno.Metadata, lemmas ...string) bool {
	if len(lemmas) == 0 {
		lemmas = TriggerLemmas
	}
	for _, lemma := range lemmas {
		if metadata.HasAttribute(lemma) {
			return true
		}
	}
	return false
}

// HasSingleCount reports whether a single count has been resolved.
func HasSingleCount(metadata anno.Metadata) bool {
	return metadata.Count != nil
}
