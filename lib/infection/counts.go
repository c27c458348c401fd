package infection

import (
	"strings"

	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/anno"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/count"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/doc"
)

const (
	debugSingleCardinal      = "single-length CARDINAL ent"
	debugNummodNoCardinal    = "nummod with no CARDINAL ent"
	debugJoinedConsecutive   = "joined consecutive tokens"
	debugCountFromSingularNC = "count_inferred_from_singular_nc"
)

// articles after which a singular noun chunk is not read as a count of one,
// as in "in any case".
var excludedArticles = map[string]bool{"any": true}

// GenerateCounts extracts a count from tokens that are assumed to form a noun
// chunk. The count comes from a numeral token, a single run of consecutive
// numeral tokens, or, for a chunk starting with an article and containing no
// plural noun, is inferred to be one. Several separate numerals are
// ambiguous and produce no count. Errors come from the count parser only.
func GenerateCounts(tokens []doc.Token, debug bool) (anno.Metadata, error) {
	if len(tokens) == 0 {
		return anno.Metadata{}, nil
	}
	metadata := anno.Metadata{Attributes: []string{}}
	var debugAttributes []string

	var cardinals, nummods, cardinalNummods []int
	for i, t := range tokens {
		isCardinal, isNummod := t.EntType == "CARDINAL", t.Dep == "nummod"
		if isCardinal {
			cardinals = append(cardinals, i)
		}
		if isNummod {
			nummods = append(nummods, i)
		}
		if isCardinal && isNummod {
			cardinalNummods = append(cardinalNummods, i)
		}
	}

	var numIdx []int
	switch {
	case len(cardinalNummods) == 1 && len(cardinals) == 1:
		numIdx = cardinalNummods
	case len(cardinals) > 0:
		numIdx = cardinals
		if len(numIdx) == 1 {
			debugAttributes = append(debugAttributes, debugSingleCardinal)
		}
	case len(nummods) > 0:
		numIdx = nummods
		debugAttributes = append(debugAttributes, debugNummodNoCardinal)
	}

	if len(numIdx) == 1 {
		c, err := count.ParseCountText(tokens[numIdx[0]].Text)
		if err != nil {
			return anno.Metadata{}, err
		}
		metadata.Count = anno.IntPtr(c)
	} else if len(numIdx) > 1 {
		if runs := consecutiveRuns(numIdx); len(runs) == 1 {
			texts := make([]string, len(runs[0]))
			for i, idx := range runs[0] {
				texts[i] = tokens[idx].Text
			}
			c, err := count.ParseCountText(strings.Join(texts, " "))
			if err != nil {
				return anno.Metadata{}, err
			}
			metadata.Count = anno.IntPtr(c)
			debugAttributes = append(debugAttributes, debugJoinedConsecutive)
		}
	}

	if metadata.Count == nil && tokens[0].Dep == "det" {
		plural := false
		for _, t := range tokens {
			if t.Pos == "NOUN" && t.Lower() != t.Lemma {
				plural = true
				break
			}
		}
		if !plural && !excludedArticles[tokens[0].Lower()] {
			metadata.Count = anno.IntPtr(1)
			debugAttributes = append(debugAttributes, debugCountFromSingularNC)
		}
	}

	if debug {
		metadata.DebugAttributes = append([]string{}, debugAttributes...)
	}
	return metadata, nil
}

// consecutiveRuns groups sorted indices into maximal runs of consecutive
// integers: [1 4 5 6 8 9] becomes [[1] [4 5 6] [8 9]].
func consecutiveRuns(indices []int) [][]int {
	var runs [][]int
	for i, idx := range indices {
		if i > 0 && idx == indices[i-1]+1 {
			runs[len(runs)-1] = append(runs[len(runs)-1], idx)
			continue
		}
		runs = append(runs, []int{idx})
	}
	return runs
}
