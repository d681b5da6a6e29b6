// Copyright 2021 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package process

import (
	"context"
)

// Limitation specifies the limits and knobs of a query.
type Limitation struct {
	// BatchRows, max rows for batch read by a scan.
	BatchRows int64
	// OutputBatchRows, max rows for batch emitted by a join probe.
	OutputBatchRows int64
	// MaxFixedKeyBits, widest fixed width key encoding of a hash join.
	MaxFixedKeyBits int
	// ForceSerializedKeys disables fixed width key encodings.
	ForceSerializedKeys bool
	// BuildWorkers, ProbeWorkers are the parallelism of a hash join.
	BuildWorkers int
	ProbeWorkers int
}

// Process contains context used in query execution.
// one or more pipeline will be generated for one query,
// and one pipeline has one process instance.
type Process struct {
	// Id, query id.
	Id  string
	Lim Limitation

	Ctx    context.Context
	Cancel context.CancelFunc
}
