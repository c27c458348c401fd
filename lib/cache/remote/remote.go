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

// Package remote shares annotations between processes. Lookups and writes are
// batched into pipelines, one round trip per batch.
package remote

import (
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/cache"
)

type Client interface {
	NewGetPipeline(size int) GetPipeline
	NewSetPipeline(size int) SetPipeline
	Ready() bool
}

type Pipeline interface {
	Size() int
}

// GetPipeline queues digests and resolves them on ExecGet. onResult receives a
// nil entry for every digest that is not cached.
type GetPipeline interface {
	Get(digest string)
	ExecGet(onResult func(digest string, entry *cache.Entry) error) error
	Pipeline
}

type SetPipeline interface {
	Set(digest string, data []byte)
	ExecSet() error
	Pipeline
}
