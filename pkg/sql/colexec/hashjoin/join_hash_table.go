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
	"time"

	"go.uber.org/zap"

	"github.com/matrixorigin/joinunnest/pkg/common/hashmap"
	"github.com/matrixorigin/joinunnest/pkg/common/moerr"
	"github.com/matrixorigin/joinunnest/pkg/container/batch"
	"github.com/matrixorigin/joinunnest/pkg/container/types"
	"github.com/matrixorigin/joinunnest/pkg/container/vector"
	"github.com/matrixorigin/joinunnest/pkg/logutil/logutil2"
	"github.com/matrixorigin/joinunnest/pkg/sql/colexec"
	"github.com/matrixorigin/joinunnest/pkg/sql/plan"
	"github.com/matrixorigin/joinunnest/pkg/vm/process"
)

const defaultMaxFixedKeyBits = 512

// chooseHashMethod is a variable so that tests can force an encoding.
var chooseHashMethod = hashmap.ChooseHashMethod

// NewJoinHashTable prepares an empty hash table. The key encoding is fixed
// here from the static types of the build keys. A left join turns every
// build column nullable so that unmatched probe rows can be padded.
func NewJoinHashTable(proc *process.Process, desc HashJoinDesc, buildSchema DataSchema) (*JoinHashTable, error) {
	if len(buildSchema.Attrs) != len(buildSchema.Types) {
		buildSchema.Attrs = make([]string, len(buildSchema.Types))
	}
	keyTypes := make([]types.Type, 0, len(desc.BuildKeys))
	if desc.JoinType != plan.JoinCross {
		if len(desc.BuildKeys) != len(desc.ProbeKeys) {
			return nil, moerr.NewInternalError(proc.Ctx, "join has %d build keys and %d probe keys", len(desc.BuildKeys), len(desc.ProbeKeys))
		}
		for i := range desc.BuildKeys {
			bt, pt := desc.BuildKeys[i].ReturnType(), desc.ProbeKeys[i].ReturnType()
			if bt.Oid != pt.Oid {
				return nil, moerr.NewInternalError(proc.Ctx, "build key %d is %s but probe key is %s", i, bt, pt)
			}
			keyTypes = append(keyTypes, bt)
		}
	}
	switch desc.JoinType {
	case plan.JoinLeft:
		buildSchema = buildSchema.nullable()
	case plan.JoinMark:
		if desc.MarkerIndex == nil {
			return nil, moerr.NewInternalError(proc.Ctx, "mark join without marker column")
		}
	}

	method := hashmap.Serialized
	if !proc.Lim.ForceSerializedKeys {
		maxBits := proc.Lim.MaxFixedKeyBits
		if maxBits <= 0 {
			maxBits = defaultMaxFixedKeyBits
		}
		method = chooseHashMethod(keyTypes, maxBits)
	}
	logutil2.Debug(proc.Ctx, "hash join key encoding",
		zap.Stringer("join", desc.JoinType),
		zap.Stringer("method", method),
		zap.Int("keys", len(keyTypes)))

	ht := &JoinHashTable{
		proc:        proc,
		desc:        desc,
		buildSchema: buildSchema,
		method:      method,
		rowSpace:    NewRowSpace(buildSchema),
	}
	ht.state = newFinishState(proc.Ctx, ht.finish)
	return ht, nil
}

func (ht *JoinHashTable) Method() hashmap.HashMethodKind {
	return ht.method
}

func (ht *JoinHashTable) BuildSchema() DataSchema {
	return ht.buildSchema
}

func (ht *JoinHashTable) RowSpace() *RowSpace {
	return ht.rowSpace
}

// HashTable is nil until the build side is finished.
func (ht *JoinHashTable) HashTable() *HashTable {
	ht.mu.RLock()
	defer ht.mu.RUnlock()
	return ht.hashTable
}

// Markers returns the marker of every build row of a mark join.
func (ht *JoinHashTable) Markers() []MarkerKind {
	ht.mu.RLock()
	defer ht.mu.RUnlock()
	return ht.markers
}

func (ht *JoinHashTable) Attach() error {
	return ht.state.attach()
}

func (ht *JoinHashTable) Detach() error {
	return ht.state.detach()
}

func (ht *JoinHashTable) IsFinished() (bool, error) {
	return ht.state.isFinished()
}

// Build copies bat into the row space. Nothing is hashed before finish.
func (ht *JoinHashTable) Build(bat *batch.Batch) error {
	if finished, _ := ht.state.isFinished(); finished {
		return moerr.NewInvalidState(ht.proc.Ctx, "build into a finished hash table")
	}
	if bat == nil || bat.RowCount() == 0 {
		return nil
	}
	if err := ht.proc.InterruptIfCanceled(); err != nil {
		return err
	}
	if len(bat.Vecs) != ht.buildSchema.Len() {
		return moerr.NewInternalError(ht.proc.Ctx, "build batch has %d columns, expected %d", len(bat.Vecs), ht.buildSchema.Len())
	}
	data := bat.Dup()
	for i, vec := range data.Vecs {
		typ := ht.buildSchema.Types[i]
		if vec.GetType().Oid != typ.Oid {
			return moerr.NewInternalError(ht.proc.Ctx, "build column %d is %s, expected %s", i, vec.GetType(), typ)
		}
		vec.SetType(typ)
	}
	chunk := &Chunk{Data: data}
	cols, err := evalKeys(ht.proc, ht.desc.BuildKeys, data, nil)
	if err != nil {
		return err
	}
	if ht.method == hashmap.Serialized {
		n := data.RowCount()
		chunk.Keys = make([][]byte, n)
		chunk.KeyNulls = make([]bool, n)
		zValues := make([]int64, n)
		hashmap.BuildSerializedKeys(cols, 0, n, chunk.Keys, zValues)
		for i, z := range zValues {
			chunk.KeyNulls[i] = z == 0
		}
	} else {
		chunk.Cols = cols
	}
	ht.rowSpace.pushChunk(chunk)
	return nil
}

// finish hashes every build row once, under the write lock of the table.
func (ht *JoinHashTable) finish() error {
	start := time.Now()
	ht.mu.Lock()
	defer ht.mu.Unlock()

	table := newHashTable(ht.method)
	chunks := ht.rowSpace.Chunks()
	mark := ht.desc.JoinType == plan.JoinMark
	var b keyBuffers
	rows := 0
	for ci, c := range chunks {
		n := c.Data.RowCount()
		for i := 0; i < n; i += hashmap.UnitLimit {
			if err := ht.proc.InterruptIfCanceled(); err != nil {
				return err
			}
			cnt := n - i
			if cnt > hashmap.UnitLimit {
				cnt = hashmap.UnitLimit
			}
			if ht.method == hashmap.Serialized {
				table.insertSerialized(&b, c.Keys[i:i+cnt], c.KeyNulls[i:i+cnt])
			} else {
				table.insertFixed(&b, c.Cols, i, cnt)
			}
			for k := 0; k < cnt; k++ {
				null := b.zValues[k] == 0
				if mark {
					if null {
						ht.markers = append(ht.markers, MarkerNull)
						ht.hasNull = true
					} else {
						ht.markers = append(ht.markers, MarkerFalse)
					}
				}
				if null {
					continue
				}
				table.addRow(b.values[k], RowPtr{ChunkIndex: uint32(ci), RowIndex: uint32(i + k)})
			}
		}
		rows += n
	}
	ht.hashTable = table
	ht.buildRows = rows

	logutil2.Info(ht.proc.Ctx, "hash join build finished",
		zap.Stringer("join", ht.desc.JoinType),
		zap.Int("rows", rows),
		zap.Int("groups", table.GroupCount()),
		zap.Int("chunks", len(chunks)),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func evalKeys(proc *process.Process, executors []colexec.ExpressionExecutor, bat *batch.Batch, vecs []*vector.Vector) ([]*vector.Vector, error) {
	vecs = vecs[:0]
	for _, executor := range executors {
		vec, err := executor.Eval(proc, []*batch.Batch{bat})
		if err != nil {
			return nil, err
		}
		vecs = append(vecs, vec)
	}
	return vecs, nil
}
