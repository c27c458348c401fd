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

// Package cache stores annotations keyed by the digest of the raw document
// they were computed from.
package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib"
)

// Entry is the value we will store in the backend.
type Entry struct {
	Digest     string             `json:"digest"`
	Annotation *lib.APIAnnotation `json:"annotation"`
}

type Type string

const (
	None          Type = "none"
	Local         Type = "local"
	Redis         Type = "redis"
	Elasticsearch Type = "elasticsearch"
)

// Digest is the hex sha256 of a raw document. Debug and normal annotations of
// the same document are different entries, and so are annotations made with a
// different annotator fingerprint.
func Digest(raw []byte, debug bool, fingerprint string) string {
	h := sha256.New()
	h.Write(raw)
	if debug {
		h.Write([]byte{0})
	}
	if fingerprint != "" {
		h.Write([]byte{1})
		h.Write([]byte(fingerprint))
	}
	return hex.EncodeToString(h.Sum(nil))
}
