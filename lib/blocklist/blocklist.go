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

package blocklist

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"

	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/anno"
)

// Recovered spans describe people who are no longer ill and are never reported.
const Recovered = "recovered"

type Blocklist struct {
	Attributes      map[string]bool
	CaseSensitive   map[string]bool
	CaseInsensitive map[string]bool
}

// Default blocks the recovered attribute only.
func Default() *Blocklist {
	return &Blocklist{
		Attributes:      map[string]bool{Recovered: true},
		CaseSensitive:   map[string]bool{},
		CaseInsensitive: map[string]bool{},
	}
}

// Allowed returns true if neither the span's attributes nor its text are blocklisted.
func (blocklist Blocklist) Allowed(span *anno.Span) bool {
	for _, attr := range span.Metadata.Attributes {
		if blocklist.Attributes[attr] {
			return false
		}
	}

	text := span.Text()
	if _, ok := blocklist.CaseSensitive[text]; ok {
		return false
	}

	if _, ok := blocklist.CaseInsensitive[strings.ToLower(text)]; ok {
		return false
	}

	return true
}

// FilterTier keeps the allowed spans of tier in their original order.
func (blocklist Blocklist) FilterTier(tier *anno.Tier) *anno.Tier {
	return tier.Filter(blocklist.Allowed)
}

// Load returns an unmarshalled blocklist from a YAML file at the given path.
// The recovered attribute is always blocked.
func Load(path string) (*Blocklist, error) {

	bytes, err := os.ReadFile(path)
	if err != nil {
		log.Error().Msg(fmt.Sprintf("could not find blocklist at %v", path))
		return nil, err
	}

	type yamlBlocklist struct {
		Attributes      []string `yaml:"attributes"`
		CaseSensitive   []string `yaml:"case_sensitive"`
		CaseInsensitive []string `yaml:"case_insensitive"`
	}

	yamlBl := yamlBlocklist{}
	if err := yaml.Unmarshal(bytes, &yamlBl); err != nil {
		log.Error().Msg(fmt.Sprintf("could not load blocklist from %v", path))
		return nil, err
	}

	res := Default()
	for _, v := range yamlBl.Attributes {
		res.Attributes[v] = true
	}
	for _, v := range yamlBl.CaseSensitive {
		res.CaseSensitive[v] = true
	}
	for _, v := range yamlBl.CaseInsensitive {
		res.CaseInsensitive[strings.ToLower(v)] = true
	}

	log.Info().Msg(fmt.Sprintf("blocklist set from %v", path))

	return res, nil
}

// Fingerprint identifies the blocked attributes and texts.
func (blocklist Blocklist) Fingerprint() string {
	h := sha256.New()
	for _, section := range []map[string]bool{blocklist.Attributes, blocklist.CaseSensitive, blocklist.CaseInsensitive} {
		keys := make([]string, 0, len(section))
		for k, blocked := range section {
			if blocked {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(h, "%s\n", k)
		}
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
