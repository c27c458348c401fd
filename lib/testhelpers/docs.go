package testhelpers

import (
	"strings"

	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/doc"
)

// Tok describes one token of a hand-built parse. Head is a token index and
// Ent an entity label shared by consecutive tokens of the same entity.
type Tok struct {
	Text  string
	Lemma string
	Pos   string
	Dep   string
	Head  int
	Ent   string
}

// Chunk is a [Start, End) range of token indices.
type Chunk struct {
	Start int
	End   int
}

// NewDoc joins the tokens with single spaces, derives entity spans from the
// tokens' Ent labels and treats the whole text as one sentence.
func NewDoc(toks []Tok, chunks ...Chunk) *doc.Doc {
	var sb strings.Builder
	d := &doc.Doc{}
	for i, t := range toks {
		if i > 0 {
			sb.WriteByte(' ')
		}
		start := sb.Len()
		sb.WriteString(t.Text)
		lemma := t.Lemma
		if lemma == "" {
			lemma = strings.ToLower(t.Text)
		}
		d.Tokens = append(d.Tokens, doc.Token{
			Index:   i,
			Start:   start,
			End:     sb.Len(),
			Text:    t.Text,
			Lemma:   lemma,
			Pos:     t.Pos,
			Dep:     t.Dep,
			Head:    t.Head,
			EntType: t.Ent,
		})
	}
	d.Text = sb.String()

	for i := 0; i < len(toks); i++ {
		if toks[i].Ent == "" {
			continue
		}
		j := i
		for j+1 < len(toks) && toks[j+1].Ent == toks[i].Ent {
			j++
		}
		d.Ents = append(d.Ents, doc.Range{Start: d.Tokens[i].Start, End: d.Tokens[j].End, Label: toks[i].Ent})
		i = j
	}

	for _, c := range chunks {
		d.NounChunks = append(d.NounChunks, doc.Range{Start: d.Tokens[c.Start].Start, End: d.Tokens[c.End-1].End})
	}
	if len(d.Tokens) > 0 {
		d.Sents = []doc.Range{{Start: 0, End: len(d.Text)}}
	}

	if err := d.Validate(); err != nil {
		panic(err)
	}
	return d
}

// FivePatientsDied is "5 patients died".
func FivePatientsDied() *doc.Doc {
	return NewDoc([]Tok{
		{Text: "5", Lemma: "5", Pos: "NUM", Dep: "nummod", Head: 1, Ent: "CARDINAL"},
		{Text: "patients", Lemma: "patient", Pos: "NOUN", Dep: "nsubj", Head: 2},
		{Text: "died", Lemma: "die", Pos: "VERB", Dep: "ROOT", Head: 2},
	}, Chunk{0, 2})
}

// APatientWasHospitalized is "a patient was hospitalized".
func APatientWasHospitalized() *doc.Doc {
	return NewDoc([]Tok{
		{Text: "a", Lemma: "a", Pos: "DET", Dep: "det", Head: 1},
		{Text: "patient", Lemma: "patient", Pos: "NOUN", Dep: "nsubjpass", Head: 3},
		{Text: "was", Lemma: "be", Pos: "AUX", Dep: "auxpass", Head: 3},
		{Text: "hospitalized", Lemma: "hospitalize", Pos: "VERB", Dep: "ROOT", Head: 3},
	}, Chunk{0, 2})
}

// SomePatientsRecovered is "some patients recovered".
func SomePatientsRecovered() *doc.Doc {
	return NewDoc([]Tok{
		{Text: "some", Lemma: "some", Pos: "DET", Dep: "det", Head: 1},
		{Text: "patients", Lemma: "patient", Pos: "NOUN", Dep: "nsubj", Head: 2},
		{Text: "recovered", Lemma: "recover", Pos: "VERB", Dep: "ROOT", Head: 2},
	}, Chunk{0, 2})
}

// ThreeRecoveredPatients is "3 patients recovered", which is accepted as a
// candidate and then removed by the recovered rule.
func ThreeRecoveredPatients() *doc.Doc {
	return NewDoc([]Tok{
		{Text: "3", Lemma: "3", Pos: "NUM", Dep: "nummod", Head: 1, Ent: "CARDINAL"},
		{Text: "patients", Lemma: "patient", Pos: "NOUN", Dep: "nsubj", Head: 2},
		{Text: "recovered", Lemma: "recover", Pos: "VERB", Dep: "ROOT", Head: 2},
	}, Chunk{0, 2})
}

// ConfirmedCasesInBrazil is "12 confirmed cases were reported in Brazil".
func ConfirmedCasesInBrazil() *doc.Doc {
	return NewDoc([]Tok{
		{Text: "12", Lemma: "12", Pos: "NUM", Dep: "nummod", Head: 2, Ent: "CARDINAL"},
		{Text: "confirmed", Lemma: "confirm", Pos: "VERB", Dep: "amod", Head: 2},
		{Text: "cases", Lemma: "case", Pos: "NOUN", Dep: "nsubjpass", Head: 4},
		{Text: "were", Lemma: "be", Pos: "AUX", Dep: "auxpass", Head: 4},
		{Text: "reported", Lemma: "report", Pos: "VERB", Dep: "ROOT", Head: 4},
		{Text: "in", Lemma: "in", Pos: "ADP", Dep: "prep", Head: 4},
		{Text: "Brazil", Lemma: "Brazil", Pos: "PROPN", Dep: "pobj", Head: 5, Ent: "GPE"},
	}, Chunk{0, 3}, Chunk{6, 7})
}
