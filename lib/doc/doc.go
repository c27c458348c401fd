/*
 * Copyright 2022 Medicines Discovery Catapult
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *     http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package doc holds the parsed documents produced by the upstream NLP pipeline.
// Documents are read-only once validated: nothing downstream mutates them.
package doc

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidDoc = errors.New("invalid document")

// Token is a single parsed token. Head is the index of the governing token;
// the sentence root governs itself.
type Token struct {
	Index   int    `json:"id"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Text    string `json:"text,omitempty"`
	Lemma   string `json:"lemma"`
	Pos     string `json:"pos"`
	Tag     string `json:"tag,omitempty"`
	Dep     string `json:"dep"`
	Head    int    `json:"head"`
	EntType string `json:"ent_type,omitempty"`
}

// Lower returns the lowercased surface form.
func (t Token) Lower() string {
	return strings.ToLower(t.Text)
}

// Range is a [Start, End) character range with an optional label.
type Range struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label,omitempty"`
}

type Doc struct {
	Text       string  `json:"text"`
	Tokens     []Token `json:"tokens"`
	Ents       []Range `json:"ents"`
	NounChunks []Range `json:"noun_chunks"`
	Sents      []Range `json:"sents"`
}

// Validate checks the structural invariants the annotator relies on and fills
// in derived fields (token text and entity types) when the parser omitted them.
func (d *Doc) Validate() error {
	textLen := len(d.Text)
	for i := range d.Tokens {
		t := &d.Tokens[i]
		if t.Index != i {
			return fmt.Errorf("%w: token %d has id %d", ErrInvalidDoc, i, t.Index)
		}
		if t.Start < 0 || t.End < t.Start || t.End > textLen {
			return fmt.Errorf("%w: token %d has range [%d, %d) outside text of length %d", ErrInvalidDoc, i, t.Start, t.End, textLen)
		}
		if i > 0 && t.Start < d.Tokens[i-1].End {
			return fmt.Errorf("%w: token %d overlaps token %d", ErrInvalidDoc, i, i-1)
		}
		if t.Head < 0 || t.Head >= len(d.Tokens) {
			return fmt.Errorf("%w: token %d has head %d out of range", ErrInvalidDoc, i, t.Head)
		}
		if t.Text == "" {
			t.Text = d.Text[t.Start:t.End]
		}
	}

	for name, ranges := range map[string][]Range{"ent": d.Ents, "noun chunk": d.NounChunks, "sentence": d.Sents} {
		for _, r := range ranges {
			if r.Start < 0 || r.End < r.Start || r.End > textLen {
				return fmt.Errorf("%w: %s [%d, %d) outside text of length %d", ErrInvalidDoc, name, r.Start, r.End, textLen)
			}
		}
	}

	for i := range d.Tokens {
		if d.Tokens[i].EntType != "" {
			continue
		}
		for _, ent := range d.Ents {
			if d.Tokens[i].Start >= ent.Start && d.Tokens[i].End <= ent.End {
				d.Tokens[i].EntType = ent.Label
				break
			}
		}
	}

	// Every head chain must reach a root, otherwise Ancestors would not terminate.
	for i := range d.Tokens {
		if _, err := d.depth(i); err != nil {
			return err
		}
	}
	return nil
}

func (d *Doc) isRoot(i int) bool {
	return d.Tokens[i].Head == i
}

func (d *Doc) depth(i int) (int, error) {
	depth := 0
	for cur := i; !d.isRoot(cur); cur = d.Tokens[cur].Head {
		depth++
		if depth > len(d.Tokens) {
			return 0, fmt.Errorf("%w: token %d has a cyclic head chain", ErrInvalidDoc, i)
		}
	}
	return depth, nil
}

// Ancestors returns the governors of token i, nearest first.
func (d *Doc) Ancestors(i int) []Token {
	var res []Token
	for cur := i; !d.isRoot(cur); {
		cur = d.Tokens[cur].Head
		res = append(res, d.Tokens[cur])
		if len(res) > len(d.Tokens) {
			break
		}
	}
	return res
}

// IsAncestor reports whether token a governs token i, directly or transitively.
func (d *Doc) IsAncestor(a, i int) bool {
	for _, anc := range d.Ancestors(i) {
		if anc.Index == a {
			return true
		}
	}
	return false
}

// Subtree returns token i and all of its descendants in document order.
func (d *Doc) Subtree(i int) []Token {
	var res []Token
	for j := range d.Tokens {
		if j == i || d.IsAncestor(i, j) {
			res = append(res, d.Tokens[j])
		}
	}
	return res
}

// Root returns the shallowest token of the group, the first one on ties.
func (d *Doc) Root(tokens []Token) (Token, bool) {
	if len(tokens) == 0 {
		return Token{}, false
	}
	best, bestDepth := tokens[0], -1
	for _, t := range tokens {
		depth, err := d.depth(t.Index)
		if err != nil {
			continue
		}
		if bestDepth == -1 || depth < bestDepth {
			best, bestDepth = t, depth
		}
	}
	return best, true
}
