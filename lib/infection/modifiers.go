package infection

import (
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/anno"
)

// AddCountModifiers attaches modifier lemmas ("confirmed", "new", "over") to
// the candidate spans. Each candidate competes in up to three forms: bare,
// with the modifiers found inside it, and additionally with the modifiers
// among its tokens' ancestors. One non-overlapping selection is made over all
// forms of all candidates and the survivors are flattened.
func (a *Annotator) AddCountModifiers(spans []*anno.Span, d *anno.Document) (*anno.Tier, error) {
	tiers, err := d.RequireTiers(anno.SpacyTokens, anno.SpacyNes)
	if err != nil {
		return nil, err
	}
	tokens, nes := tiers[0], tiers[1]
	// place and person names are never read as modifiers
	names := nes.WithLabel("GPE").Concat(nes.WithLabel("PERSON"))

	var candidates []*anno.Span
	for _, base := range anno.NewTier(spans).Spans {
		forms := []*anno.Span{base}

		baseTokens := anno.NewTier(tokens.SpansOverlappedBy(base)).WithoutOverlaps(names)
		if modifiers := a.modifiersOf(baseTokens.Spans); modifiers != nil {
			forms = append(forms, anno.NewSpanGroup([]*anno.Span{base, modifiers}, "", anno.Metadata{}))
		}

		var ancestorSpans []*anno.Span
		for _, t := range baseTokens.Spans {
			for _, ancestor := range d.Ancestors(t.Token.Index) {
				ancestorSpans = append(ancestorSpans, anno.NewTokenSpan(ancestor, d.Doc))
			}
		}
		ancestors := anno.NewTier(ancestorSpans).
			WithoutOverlaps(names).
			WithoutOverlaps(baseTokens).
			OptimalSpanSet(anno.PreferTextLength)
		if modifiers := a.modifiersOf(ancestors.Spans); modifiers != nil {
			last := forms[len(forms)-1]
			forms = append(forms, anno.NewSpanGroup([]*anno.Span{last, modifiers}, "", anno.Metadata{}))
		}

		candidates = append(candidates, forms...)
	}

	selected := anno.NewTier(candidates).OptimalSpanSet(MaxModifiersMinText)
	collapsed := make([]*anno.Span, len(selected.Spans))
	for i, s := range selected.Spans {
		collapsed[i] = CollapseSpanGroup(s)
	}
	return anno.NewTier(collapsed), nil
}

// modifiersOf groups the token spans whose lemma is in a modifier group,
// tagging the group with the names of the groups matched. Nil when nothing
// matched.
func (a *Annotator) modifiersOf(tokenSpans []*anno.Span) *anno.Span {
	var matched []*anno.Span
	var names []string
	for _, group := range a.dictionary.ModifierGroups() {
		for _, s := range tokenSpans {
			if s.IsToken() && group.Has(s.Token.Lemma) {
				matched = append(matched, s)
				names = append(names, group.Name)
			}
		}
	}
	if len(matched) == 0 {
		return nil
	}
	return anno.NewSpanGroup(matched, "", anno.Metadata{Attributes: names})
}

// MaxModifiersMinText prefers selections with the most modifier tokens, then
// the least text. Every span scores at least one so that a selection is never
// empty while candidates remain.
func MaxModifiersMinText(s *anno.Span) anno.Score {
	modifiers := 0
	for _, leaf := range s.LeafBaseSpans() {
		if leaf != s && leaf.IsToken() {
			modifiers++
		}
	}
	return anno.Score{modifiers + 1, -s.Len()}
}

// CollapseSpanGroup flattens a span group into a plain span with the group's
// bounds. Its metadata is the group label as an attribute, the group's own
// metadata and the collapsed metadata of each constituent, merged in that
// order. Other spans are returned as they are.
func CollapseSpanGroup(s *anno.Span) *anno.Span {
	if !s.IsGroup() {
		return s
	}
	var all []anno.Metadata
	if s.Label != "" {
		all = append(all, anno.Metadata{Attributes: []string{s.Label}})
	}
	all = append(all, s.Metadata)
	for _, b := range s.BaseSpans {
		all = append(all, CollapseSpanGroup(b).Metadata)
	}
	return anno.NewSpan(s.Start, s.End, s.Doc, anno.MergeMetadata(all...))
}
