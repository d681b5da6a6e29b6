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

package hashjoin

import (
	"sync"

	"github.com/matrixorigin/joinunnest/pkg/common/hashmap"
	"github.com/matrixorigin/joinunnest/pkg/container/batch"
	"github.com/matrixorigin/joinunnest/pkg/container/hashtable"
	"github.com/matrixorigin/joinunnest/pkg/container/types"
	"github.com/matrixorigin/joinunnest/pkg/container/vector"
	"github.com/matrixorigin/joinunnest/pkg/sql/colexec"
	"github.com/matrixorigin/joinunnest/pkg/sql/plan"
	"github.com/matrixorigin/joinunnest/pkg/vm/process"
)

var _ HashJoinState = new(JoinHashTable)

// HashJoinState is the part of a hash join shared by its build and probe
// workers. Every worker calls Attach before it builds and Detach once done,
// the last Detach finishes the build side. Probe is only valid afterwards.
type HashJoinState interface {
	Build(bat *batch.Batch) error
	Probe(bat *batch.Batch, state *ProbeState) ([]*batch.Batch, error)
	Attach() error
	Detach() error
	IsFinished() (bool, error)
}

// HashJoinDesc describes a join. Key executors see one batch, the build
// side for BuildKeys and the probe side for ProbeKeys. OtherPredicate sees
// a batch holding the probe columns followed by the build columns.
type HashJoinDesc struct {
	JoinType       plan.JoinType
	BuildKeys      []colexec.ExpressionExecutor
	ProbeKeys      []colexec.ExpressionExecutor
	OtherPredicate colexec.ExpressionExecutor
	MarkerIndex    *plan.ColumnID
}

type DataSchema struct {
	Attrs []string
	Types []types.Type
}

func (s DataSchema) Len() int {
	return len(s.Types)
}

func (s DataSchema) nullable() DataSchema {
	typs := make([]types.Type, len(s.Types))
	for i, typ := range s.Types {
		typs[i] = typ.WithNullable(true)
	}
	return DataSchema{Attrs: s.Attrs, Types: typs}
}

// MarkerKind is the three valued result of a mark join.
type MarkerKind uint8

const (
	MarkerFalse MarkerKind = iota
	MarkerTrue
	MarkerNull
)

func (m MarkerKind) String() string {
	switch m {
	case MarkerTrue:
		return "true"
	case MarkerNull:
		return "null"
	}
	return "false"
}

// RowPtr addresses one build row.
type RowPtr struct {
	ChunkIndex uint32
	RowIndex   uint32
}

// Chunk is one build batch. Serialized keys are computed when the chunk is
// added, fixed width keys are rebuilt from Cols when the table is finished.
type Chunk struct {
	Data     *batch.Batch
	Keys     [][]byte
	KeyNulls []bool
	Cols     []*vector.Vector
}

// RowSpace holds every build row, chunk by chunk in arrival order.
type RowSpace struct {
	mu     sync.RWMutex
	schema DataSchema
	chunks []*Chunk
}

// HashTable maps encoded keys to the rows holding them. Exactly one map
// is set, the one of kind.
type HashTable struct {
	kind hashmap.HashMethodKind

	serialized *hashtable.StringHashMap
	u8         *hashtable.FixedHashMap[uint8]
	u16        *hashtable.FixedHashMap[uint16]
	u32        *hashtable.FixedHashMap[uint32]
	u64        *hashtable.FixedHashMap[uint64]
	u128       *hashtable.FixedHashMap[[2]uint64]
	u256       *hashtable.FixedHashMap[[4]uint64]
	u512       *hashtable.FixedHashMap[[8]uint64]

	// groups[id-1] are the rows of group id, in insertion order
	groups [][]RowPtr
}

// keyBuffers is the scratch memory of one key lookup round.
type keyBuffers struct {
	fixed      any
	serialized [][]byte
	zValues    []int64
	values     []uint64
}

// ProbeState is the scratch space of one probe worker, reused across
// Probe calls. It must not be shared between goroutines.
type ProbeState struct {
	keys keyBuffers

	keyVecs   []*vector.Vector
	probeSels []int64
	buildPtrs []RowPtr
	matched   []bool
	keyNulls  []bool
}

// JoinHashTable is the HashJoinState of every join type.
type JoinHashTable struct {
	proc *process.Process
	desc HashJoinDesc

	buildSchema DataSchema
	method      hashmap.HashMethodKind

	rowSpace *RowSpace
	state    *finishState

	// mu guards the hash table and the markers, written once by finish
	mu        sync.RWMutex
	hashTable *HashTable
	markers   []MarkerKind
	hasNull   bool
	buildRows int

	crossOnce  sync.Once
	crossBuild *batch.Batch
	crossErr   error
}
