package anno

import (
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/doc"
)

// Span is a [Start, End) character range over a document with metadata.
//
// It is one of three variants: a plain span, a token span (Token is set) or a
// span group (BaseSpans is non-empty). Groups are trees built and discarded
// within one annotation call; a constituent belongs to at most one group.
type Span struct {
	Start     int
	End       int
	Doc       *doc.Doc
	Label     string
	Metadata  Metadata
	Token     *doc.Token
	BaseSpans []*Span
}

func NewSpan(start, end int, d *doc.Doc, metadata Metadata) *Span {
	return &Span{Start: start, End: end, Doc: d, Metadata: metadata}
}

func NewTokenSpan(t doc.Token, d *doc.Doc) *Span {
	return &Span{Start: t.Start, End: t.End, Doc: d, Token: &t}
}

// NewSpanGroup wraps the constituents; its bounds cover all of them.
func NewSpanGroup(baseSpans []*Span, label string, metadata Metadata) *Span {
	g := &Span{Label: label, Metadata: metadata, BaseSpans: baseSpans}
	for i, s := range baseSpans {
		if i == 0 || s.Start < g.Start {
			g.Start = s.Start
		}
		if i == 0 || s.End > g.End {
			g.End = s.End
		}
		if g.Doc == nil {
			g.Doc = s.Doc
		}
	}
	return g
}

func (s *Span) IsGroup() bool {
	return len(s.BaseSpans) > 0
}

func (s *Span) IsToken() bool {
	return s.Token != nil
}

func (s *Span) Len() int {
	return s.End - s.Start
}

func (s *Span) Text() string {
	if s.Doc == nil || s.End > len(s.Doc.Text) {
		return ""
	}
	return s.Doc.Text[s.Start:s.End]
}

// Overlaps reports whether the two ranges share at least one character.
func (s *Span) Overlaps(other *Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// Contains reports whether other lies entirely inside s.
func (s *Span) Contains(other *Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// LeafBaseSpans flattens a group down to its non-group constituents. A
// non-group span is its own only leaf.
func (s *Span) LeafBaseSpans() []*Span {
	if !s.IsGroup() {
		return []*Span{s}
	}
	var leaves []*Span
	for _, b := range s.BaseSpans {
		leaves = append(leaves, b.LeafBaseSpans()...)
	}
	return leaves
}
