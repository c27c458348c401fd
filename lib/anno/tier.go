package anno

import (
	"sort"
)

// Score ranks a span for OptimalSpanSet. Scores are summed over a selection
// and compared lexicographically.
type Score [2]int

func (s Score) Add(o Score) Score {
	return Score{s[0] + o[0], s[1] + o[1]}
}

func (s Score) Less(o Score) bool {
	if s[0] != o[0] {
		return s[0] < o[0]
	}
	return s[1] < o[1]
}

type Preference func(*Span) Score

// PreferTextLength selects the most text, then the fewest spans.
func PreferTextLength(s *Span) Score {
	return Score{s.Len(), -1}
}

// Tier is one ordered layer of annotation. Spans are sorted by start then end
// when the tier is built; every derived tier preserves that order.
type Tier struct {
	Spans []*Span
}

func NewTier(spans []*Span) *Tier {
	sorted := make([]*Span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})
	return &Tier{Spans: sorted}
}

func presorted(spans []*Span) *Tier {
	if spans == nil {
		spans = []*Span{}
	}
	return &Tier{Spans: spans}
}

func (t *Tier) Len() int {
	return len(t.Spans)
}

func (t *Tier) Filter(keep func(*Span) bool) *Tier {
	var res []*Span
	for _, s := range t.Spans {
		if keep(s) {
			res = append(res, s)
		}
	}
	return presorted(res)
}

// SpansContainedBy returns the spans lying entirely inside span.
func (t *Tier) SpansContainedBy(span *Span) []*Span {
	return t.Filter(span.Contains).Spans
}

// SpansOverlappedBy returns the spans sharing at least one character with span.
func (t *Tier) SpansOverlappedBy(span *Span) []*Span {
	return t.Filter(span.Overlaps).Spans
}

// WithoutOverlaps drops every span that overlaps a span of other.
func (t *Tier) WithoutOverlaps(other *Tier) *Tier {
	return t.Filter(func(s *Span) bool {
		for _, o := range other.Spans {
			if s.Overlaps(o) {
				return false
			}
		}
		return true
	})
}

func (t *Tier) WithLabel(label string) *Tier {
	return t.Filter(func(s *Span) bool {
		return s.Label == label
	})
}

func (t *Tier) Concat(other *Tier) *Tier {
	spans := make([]*Span, 0, len(t.Spans)+len(other.Spans))
	spans = append(spans, t.Spans...)
	spans = append(spans, other.Spans...)
	return NewTier(spans)
}

// Grouping pairs a span with the spans of another tier it contains.
type Grouping struct {
	Span      *Span
	Contained []*Span
}

// GroupSpansByContainingSpan pairs each span of t with the spans of other
// that it contains.
func (t *Tier) GroupSpansByContainingSpan(other *Tier) []Grouping {
	res := make([]Grouping, 0, len(t.Spans))
	for _, s := range t.Spans {
		res = append(res, Grouping{Span: s, Contained: other.SpansContainedBy(s)})
	}
	return res
}

// OptimalSpanSet returns the non-overlapping subset of spans with the highest
// summed score. This is weighted interval scheduling solved exactly; among
// equal scores the earlier-ending selection wins.
func (t *Tier) OptimalSpanSet(prefer Preference) *Tier {
	if prefer == nil {
		prefer = PreferTextLength
	}
	n := len(t.Spans)
	if n == 0 {
		return presorted(nil)
	}

	byEnd := make([]*Span, n)
	copy(byEnd, t.Spans)
	sort.SliceStable(byEnd, func(i, j int) bool {
		if byEnd[i].End != byEnd[j].End {
			return byEnd[i].End < byEnd[j].End
		}
		return byEnd[i].Start < byEnd[j].Start
	})

	// prev[j] is the number of spans (in end order) that finish at or before
	// span j starts, i.e. the prefix compatible with selecting j.
	prev := make([]int, n)
	for j, s := range byEnd {
		prev[j] = sort.Search(n, func(k int) bool {
			return byEnd[k].End > s.Start
		})
		if prev[j] > j {
			prev[j] = j
		}
	}

	best := make([]Score, n+1)
	take := make([]bool, n+1)
	for j, s := range byEnd {
		with := prefer(s).Add(best[prev[j]])
		if best[j].Less(with) {
			best[j+1] = with
			take[j+1] = true
		} else {
			best[j+1] = best[j]
		}
	}

	var selected []*Span
	for j := n; j > 0; {
		if take[j] {
			selected = append(selected, byEnd[j-1])
			j = prev[j-1]
		} else {
			j--
		}
	}
	return NewTier(selected)
}
