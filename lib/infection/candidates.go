package infection

import (
	"github.com/rs/zerolog/log"

	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/anno"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/doc"
)

const (
	debugFromNounChunk       = "attributes from noun chunk"
	debugFromAncestors       = "attributes from ancestors"
	debugFromDisjointSubtree = "attributes from disjoint subtree"
)

var subjectOrObject = map[string]bool{"nsubj": true, "nsubjpass": true, "dobj": true}

// chunkFn decides whether a noun chunk becomes a candidate span.
type chunkFn func(d *anno.Document, chunk []doc.Token, debug bool) (*anno.Span, error)

// FromNounChunksWithInfectionLemmas returns a span for every noun chunk that
// names an infection, death or hospitalization and carries a single count.
// When the chunk is a subject or object, trigger lemmas among the ancestors
// of its root ("5 patients were diagnosed") widen the span to cover them.
func (a *Annotator) FromNounChunksWithInfectionLemmas(d *anno.Document, debug bool) ([]*anno.Span, error) {
	return a.fromNounChunks(d, debug, a.infectionCandidate)
}

// FromNounChunksWithPersonLemmas returns a span for every noun chunk that
// names people, has a trigger lemma close by and carries a single count.
// When the ancestors do not supply a trigger lemma the rest of the chunk's
// subtree is searched as well.
func (a *Annotator) FromNounChunksWithPersonLemmas(d *anno.Document, debug bool) ([]*anno.Span, error) {
	return a.fromNounChunks(d, debug, a.personCandidate)
}

func (a *Annotator) fromNounChunks(d *anno.Document, debug bool, candidate chunkFn) ([]*anno.Span, error) {
	tiers, err := d.RequireTiers(anno.SpacyTokens, anno.SpacyNounChunks)
	if err != nil {
		return nil, err
	}
	tokens, chunks := tiers[0], tiers[1]

	var spans []*anno.Span
	for _, nc := range chunks.Spans {
		chunk := tokensOf(tokens.SpansContainedBy(nc))
		if len(chunk) == 0 {
			continue
		}
		span, err := candidate(d, chunk, debug)
		if err != nil {
			log.Debug().Err(err).Str("chunk", nc.Text()).Msg("rejected noun chunk")
			continue
		}
		if span != nil {
			spans = append(spans, span)
		}
	}
	return spans, nil
}

func (a *Annotator) infectionCandidate(d *anno.Document, chunk []doc.Token, debug bool) (*anno.Span, error) {
	var debugAttributes []string
	out := append([]doc.Token{}, chunk...)

	metadata, err := a.generateMetadata(chunk, debug)
	if err != nil {
		return nil, err
	}
	if HasTriggerLemmas(metadata) {
		debugAttributes = append(debugAttributes, debugFromNounChunk)
		if hasSubjectOrObject(chunk) {
			ancestors := a.rootAncestors(d, chunk)
			ancestorMetadata, err := a.generateMetadata(ancestors, debug)
			if err != nil {
				return nil, err
			}
			if HasTriggerLemmas(ancestorMetadata) {
				out = append(out, ancestors...)
				metadata = anno.MergeMetadata(metadata, ancestorMetadata)
				debugAttributes = append(debugAttributes, debugFromAncestors)
			}
		}
	}

	if !HasTriggerLemmas(metadata) || !HasSingleCount(metadata) {
		return nil, nil
	}
	return newCandidate(d, out, metadata, debug, debugAttributes), nil
}

func (a *Annotator) personCandidate(d *anno.Document, chunk []doc.Token, debug bool) (*anno.Span, error) {
	var debugAttributes []string
	out := append([]doc.Token{}, chunk...)

	metadata, err := a.generateMetadata(chunk, debug)
	if err != nil {
		return nil, err
	}
	if metadata.HasAttribute(AttributePerson) {
		debugAttributes = append(debugAttributes, debugFromNounChunk)
		if hasSubjectOrObject(chunk) {
			ancestors := a.rootAncestors(d, chunk)
			ancestorMetadata, err := a.generateMetadata(ancestors, debug)
			if err != nil {
				return nil, err
			}
			if HasTriggerLemmas(ancestorMetadata) {
				out = append(out, ancestors...)
				metadata = anno.MergeMetadata(metadata, ancestorMetadata)
				debugAttributes = append(debugAttributes, debugFromAncestors)
			}
		}
		// Wider and less precise than the ancestors, so only a fallback.
		if !HasTriggerLemmas(metadata) {
			subtree := disjointSubtree(d, chunk)
			subtreeMetadata, err := a.generateMetadata(subtree, debug)
			if err != nil {
				return nil, err
			}
			if HasTriggerLemmas(subtreeMetadata) {
				out = append(out, subtree...)
				metadata = anno.MergeMetadata(metadata, subtreeMetadata)
				debugAttributes = append(debugAttributes, debugFromDisjointSubtree)
			}
		}
	}

	if !metadata.HasAttribute(AttributePerson) || !HasTriggerLemmas(metadata) || !HasSingleCount(metadata) {
		return nil, nil
	}
	return newCandidate(d, out, metadata, debug, debugAttributes), nil
}

// generateMetadata merges the attributes and count of tokens.
func (a *Annotator) generateMetadata(tokens []doc.Token, debug bool) (anno.Metadata, error) {
	counts, err := GenerateCounts(tokens, debug)
	if err != nil {
		return anno.Metadata{}, err
	}
	return anno.MergeMetadata(GenerateAttributes(a.dictionary, tokens...), counts), nil
}

func (a *Annotator) rootAncestors(d *anno.Document, chunk []doc.Token) []doc.Token {
	root, ok := d.Root(chunk)
	if !ok {
		return nil
	}
	return d.Ancestors(root.Index)
}

func newCandidate(d *anno.Document, tokens []doc.Token, metadata anno.Metadata, debug bool, debugAttributes []string) *anno.Span {
	start, end := tokens[0].Start, tokens[0].End
	for _, t := range tokens[1:] {
		if t.Start < start {
			start = t.Start
		}
		if t.End > end {
			end = t.End
		}
	}
	if debug {
		metadata = anno.MergeMetadata(metadata, anno.Metadata{DebugAttributes: debugAttributes})
	} else {
		metadata.DebugAttributes = nil
	}
	return anno.NewSpan(start, end, d.Doc, metadata)
}

func hasSubjectOrObject(tokens []doc.Token) bool {
	for _, t := range tokens {
		if subjectOrObject[t.Dep] {
			return true
		}
	}
	return false
}

// disjointSubtree returns the descendants of the chunk's tokens that are not
// part of the chunk, in document order.
func disjointSubtree(d *anno.Document, chunk []doc.Token) []doc.Token {
	inChunk := make(map[int]bool, len(chunk))
	for _, t := range chunk {
		inChunk[t.Index] = true
	}
	seen := make(map[int]bool)
	for _, t := range chunk {
		for _, s := range d.Subtree(t.Index) {
			if !inChunk[s.Index] {
				seen[s.Index] = true
			}
		}
	}
	var res []doc.Token
	for _, t := range d.Tokens {
		if seen[t.Index] {
			res = append(res, t)
		}
	}
	return res
}

func tokensOf(spans []*anno.Span) []doc.Token {
	res := make([]doc.Token, 0, len(spans))
	for _, s := range spans {
		if s.IsToken() {
			res = append(res, *s.Token)
		}
	}
	return res
}
