// Package count turns the text of numeral tokens into integer counts.
package count

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/blevesearch/segment"
	"golang.org/x/text/unicode/norm"
)

var ErrUnparsableCount = errors.New("unparsable count")

var smallNumbers = map[string]float64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"thirteen": 13, "fourteen": 14, "fifteen": 15, "sixteen": 16,
	"seventeen": 17, "eighteen": 18, "nineteen": 19,
}

var tens = map[string]float64{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

// multipliers scale the value accumulated so far within the current group.
var multipliers = map[string]float64{
	"hundred": 100,
	"dozen":   12,
}

// scales close the current group.
var scales = map[string]float64{
	"thousand": 1e3,
	"million":  1e6,
	"billion":  1e9,
}

type parser struct {
	total    float64
	current  float64
	hasValue bool
	// lastDigits holds the length of the previous digit group, 0 otherwise.
	lastDigits int
	// lastWord is true when the previous segment contributed a value.
	lastWord bool
}

// ParseCountText parses digits ("1,200", "1.5 million") and number words
// ("twenty-five", "a hundred"). Zero padded numerals, fractions and words that
// are not numbers are errors wrapping ErrUnparsableCount.
func ParseCountText(text string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(norm.NFKC.String(text)))
	if s == "" {
		return 0, fmt.Errorf("%w: empty text", ErrUnparsableCount)
	}
	if s[0] == '0' && len(s) > 1 {
		return 0, fmt.Errorf("%w: zero padded %q", ErrUnparsableCount, text)
	}

	p := &parser{}
	segmenter := segment.NewWordSegmenterDirect([]byte(s))
	for segmenter.Segment() {
		word := string(segmenter.Bytes())
		var err error
		switch segmenter.Type() {
		case segment.None:
			err = p.separator(word)
		case segment.Number:
			err = p.number(word)
		case segment.Letter:
			err = p.word(word)
		default:
			err = fmt.Errorf("unexpected segment %q", word)
		}
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %s", ErrUnparsableCount, text, err)
		}
	}
	if err := segmenter.Err(); err != nil {
		return 0, fmt.Errorf("%w: %q: %s", ErrUnparsableCount, text, err)
	}

	if !p.hasValue {
		return 0, fmt.Errorf("%w: no number in %q", ErrUnparsableCount, text)
	}
	value := p.total + p.current
	if value != math.Trunc(value) || value >= float64(math.MaxInt) {
		return 0, fmt.Errorf("%w: %q is not a whole count", ErrUnparsableCount, text)
	}
	return int(value), nil
}

func (p *parser) number(word string) error {
	digits := strings.ReplaceAll(word, ",", "")
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return err
	}

	switch {
	case p.lastDigits > 0 && len(digits) == 3 && !strings.Contains(digits, "."):
		// "10 000": a space used as a thousands separator
		p.current = p.current*1000 + v
	case p.lastWord:
		return fmt.Errorf("adjacent numbers before %q", word)
	default:
		p.current += v
	}
	p.hasValue = true
	p.lastWord = true
	p.lastDigits = len(digits)
	return nil
}

// separator accepts whitespace anywhere and hyphens or commas joining two
// parts of a number. Signs, currency and percent symbols are errors.
func (p *parser) separator(word string) error {
	if strings.TrimSpace(word) == "" {
		return nil
	}
	if (word == "-" || word == ",") && p.hasValue {
		return nil
	}
	return fmt.Errorf("unexpected %q", word)
}

func (p *parser) word(word string) error {
	defer func() { p.lastDigits = 0 }()

	if v, ok := smallNumbers[word]; ok {
		if p.lastWord && math.Mod(p.current, 100) != 0 && !(math.Mod(p.current, 10) == 0 && v < 10) {
			return fmt.Errorf("adjacent numbers before %q", word)
		}
		p.current += v
		p.hasValue, p.lastWord = true, true
		return nil
	}
	if v, ok := tens[word]; ok {
		if p.lastWord && math.Mod(p.current, 100) != 0 {
			return fmt.Errorf("adjacent numbers before %q", word)
		}
		p.current += v
		p.hasValue, p.lastWord = true, true
		return nil
	}
	if v, ok := multipliers[word]; ok {
		if p.current == 0 {
			p.current = 1
		}
		p.current *= v
		p.hasValue, p.lastWord = true, false
		return nil
	}
	if v, ok := scales[word]; ok {
		if p.current == 0 {
			p.current = 1
		}
		p.total += p.current * v
		p.current = 0
		p.hasValue, p.lastWord = true, false
		return nil
	}

	switch word {
	case "a", "an":
		// only meaningful before a multiplier or scale, "a hundred"
		if p.lastWord || p.current != 0 {
			return fmt.Errorf("unexpected %q", word)
		}
		return nil
	case "and":
		p.lastWord = false
		return nil
	}
	return fmt.Errorf("%q is not a number", word)
}
