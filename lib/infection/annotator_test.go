package infection

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/anno"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/blocklist"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/doc"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/testhelpers"
)

type Tok = testhelpers.Tok
type Chunk = testhelpers.Chunk

// "5 new 10 patients died"
func separateCardinals() *doc.Doc {
	return testhelpers.NewDoc([]Tok{
		{Text: "5", Pos: "NUM", Dep: "nummod", Head: 3, Ent: "CARDINAL"},
		{Text: "new", Pos: "ADJ", Dep: "amod", Head: 3},
		{Text: "10", Pos: "NUM", Dep: "nummod", Head: 3, Ent: "CARDINAL"},
		{Text: "patients", Lemma: "patient", Pos: "NOUN", Dep: "nsubj", Head: 4},
		{Text: "died", Lemma: "die", Pos: "VERB", Dep: "ROOT", Head: 4},
	}, Chunk{Start: 0, End: 4})
}

// "5 Active County patients died", where Active County is a place.
func placeNameModifier() *doc.Doc {
	return testhelpers.NewDoc([]Tok{
		{Text: "5", Pos: "NUM", Dep: "nummod", Head: 3, Ent: "CARDINAL"},
		{Text: "Active", Lemma: "active", Pos: "PROPN", Dep: "compound", Head: 2, Ent: "GPE"},
		{Text: "County", Lemma: "county", Pos: "PROPN", Dep: "compound", Head: 3, Ent: "GPE"},
		{Text: "patients", Lemma: "patient", Pos: "NOUN", Dep: "nsubj", Head: 4},
		{Text: "died", Lemma: "die", Pos: "VERB", Dep: "ROOT", Head: 4},
	}, Chunk{Start: 0, End: 4})
}

// "5 doctors arrived"
func noTriggerLemma() *doc.Doc {
	return testhelpers.NewDoc([]Tok{
		{Text: "5", Pos: "NUM", Dep: "nummod", Head: 1, Ent: "CARDINAL"},
		{Text: "doctors", Lemma: "doctor", Pos: "NOUN", Dep: "nsubj", Head: 2},
		{Text: "arrived", Lemma: "arrive", Pos: "VERB", Dep: "ROOT", Head: 2},
	}, Chunk{Start: 0, End: 2})
}

// "the 4 men with infections" has the trigger lemma below the chunk.
func triggerInSubtree() *doc.Doc {
	return testhelpers.NewDoc([]Tok{
		{Text: "the", Pos: "DET", Dep: "det", Head: 2},
		{Text: "4", Pos: "NUM", Dep: "nummod", Head: 2, Ent: "CARDINAL"},
		{Text: "men", Lemma: "man", Pos: "NOUN", Dep: "ROOT", Head: 2},
		{Text: "with", Pos: "ADP", Dep: "prep", Head: 2},
		{Text: "infections", Lemma: "infection", Pos: "NOUN", Dep: "pobj", Head: 3},
	}, Chunk{Start: 0, End: 3}, Chunk{Start: 4, End: 5})
}

func annotate(a *Annotator, d *doc.Doc, debug bool) []*anno.Span {
	tier, err := a.AnnotateDoc(d, debug)
	Expect(err).Should(BeNil())
	return tier.Spans
}

var _ = Describe("Annotator", func() {

	var annotator *Annotator

	BeforeEach(func() {
		annotator = NewAnnotator()
	})

	It("should find deaths through the chunk's ancestors", func() {
		spans := annotate(annotator, testhelpers.FivePatientsDied(), false)

		Expect(spans).Should(HaveLen(1))
		Expect(spans[0].Text()).Should(Equal("5 patients died"))
		Expect(spans[0].Metadata.Attributes).Should(Equal([]string{"infection", "person", "death"}))
		Expect(*spans[0].Metadata.Count).Should(Equal(5))
		Expect(spans[0].Metadata.DebugAttributes).Should(BeNil())
	})

	It("should infer a count of one from a singular noun chunk", func() {
		spans := annotate(annotator, testhelpers.APatientWasHospitalized(), false)

		Expect(spans).Should(HaveLen(1))
		Expect(spans[0].Text()).Should(Equal("a patient was hospitalized"))
		Expect(spans[0].Metadata.Attributes).Should(ContainElement("hospitalization"))
		Expect(*spans[0].Metadata.Count).Should(Equal(1))
	})

	It("should reject plural chunks without a count", func() {
		d := anno.NewDocument(testhelpers.SomePatientsRecovered())

		infections, err := annotator.FromNounChunksWithInfectionLemmas(d, false)
		Expect(err).Should(BeNil())
		Expect(infections).Should(BeEmpty())

		people, err := annotator.FromNounChunksWithPersonLemmas(d, false)
		Expect(err).Should(BeNil())
		Expect(people).Should(BeEmpty())
	})

	It("should reject chunks with separate numerals", func() {
		Expect(annotate(annotator, separateCardinals(), false)).Should(BeEmpty())
	})

	It("should require a trigger lemma as well as a count", func() {
		d := anno.NewDocument(noTriggerLemma())

		spans, err := annotator.FromNounChunksWithInfectionLemmas(d, false)
		Expect(err).Should(BeNil())
		Expect(spans).Should(BeEmpty())
	})

	It("should attach modifiers inside the chunk", func() {
		spans := annotate(annotator, testhelpers.ConfirmedCasesInBrazil(), false)

		Expect(spans).Should(HaveLen(1))
		Expect(spans[0].Text()).Should(Equal("12 confirmed cases"))
		Expect(spans[0].Metadata.Attributes).Should(Equal([]string{"infection", "confirmed"}))
		Expect(*spans[0].Metadata.Count).Should(Equal(12))
	})

	It("should not read place names as modifiers", func() {
		spans := annotate(annotator, placeNameModifier(), false)

		Expect(spans).Should(HaveLen(1))
		Expect(spans[0].Metadata.Attributes).ShouldNot(ContainElement("ongoing"))
		Expect(*spans[0].Metadata.Count).Should(Equal(5))
	})

	It("should drop recovered patients", func() {
		d := anno.NewDocument(testhelpers.ThreeRecoveredPatients())

		candidates, err := annotator.FromNounChunksWithInfectionLemmas(d, false)
		Expect(err).Should(BeNil())
		Expect(candidates).Should(HaveLen(1))

		tiers, err := annotator.Annotate(d, false)
		Expect(err).Should(BeNil())
		Expect(tiers[InfectionsTier].Spans).Should(BeEmpty())
	})

	It("should keep recovered patients when the blocklist allows them", func() {
		allowAll := &blocklist.Blocklist{}
		spans := annotate(NewAnnotator(WithBlocklist(allowAll)), testhelpers.ThreeRecoveredPatients(), false)

		Expect(spans).Should(HaveLen(1))
		Expect(spans[0].Metadata.Attributes).Should(ContainElement("recovered"))
	})

	It("should search the subtree of person chunks", func() {
		d := anno.NewDocument(triggerInSubtree())

		infections, err := annotator.FromNounChunksWithInfectionLemmas(d, true)
		Expect(err).Should(BeNil())
		Expect(infections).Should(BeEmpty())

		people, err := annotator.FromNounChunksWithPersonLemmas(d, true)
		Expect(err).Should(BeNil())
		Expect(people).Should(HaveLen(1))
		Expect(people[0].Text()).Should(Equal("the 4 men with infections"))
		Expect(people[0].Metadata.Attributes).Should(Equal([]string{"person", "infection"}))
		Expect(people[0].Metadata.DebugAttributes).Should(Equal([]string{debugFromNounChunk, debugFromDisjointSubtree}))
	})

	It("should keep debug traces through the selection", func() {
		spans := annotate(annotator, testhelpers.FivePatientsDied(), true)

		Expect(spans).Should(HaveLen(1))
		Expect(spans[0].Metadata.DebugAttributes).Should(Equal([]string{debugFromNounChunk, debugFromAncestors}))
	})

	It("should never return overlapping spans", func() {
		for _, d := range []*doc.Doc{
			testhelpers.FivePatientsDied(),
			testhelpers.APatientWasHospitalized(),
			testhelpers.ConfirmedCasesInBrazil(),
			placeNameModifier(),
			triggerInSubtree(),
		} {
			spans := annotate(annotator, d, false)
			for i := range spans {
				for j := i + 1; j < len(spans); j++ {
					Expect(spans[i].Overlaps(spans[j])).Should(BeFalse(), d.Text)
				}
			}
		}
	})

	It("should fail on tiers nothing has produced", func() {
		d := anno.NewDocument(testhelpers.FivePatientsDied())
		_, err := d.RequireTiers("missing")
		Expect(err).Should(MatchError(anno.ErrUnknownTier))
	})
})
