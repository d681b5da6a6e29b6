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

package compile

import (
	"github.com/matrixorigin/joinunnest/pkg/common/hashmap"
	"github.com/matrixorigin/joinunnest/pkg/container/batch"
	"github.com/matrixorigin/joinunnest/pkg/container/hashtable"
	"github.com/matrixorigin/joinunnest/pkg/container/types"
	"github.com/matrixorigin/joinunnest/pkg/container/vector"
)

type aggState struct {
	count int64
	sumI  int64
	sumU  uint64
	sumF  float64
	val   any
	has   bool
	seen  map[any]struct{}
}

// runAggregate groups bat by the group expressions. Without any group
// expression there is exactly one group, even for an empty input.
func (s *Scope) runAggregate(bat *batch.Batch) (*batch.Batch, error) {
	batches := []*batch.Batch{bat}
	groupVecs := make([]*vector.Vector, len(s.exprs))
	for i, exec := range s.exprs {
		vec, err := exec.Eval(s.Proc, batches)
		if err != nil {
			return nil, err
		}
		groupVecs[i] = vec
	}
	argVecs := make([]*vector.Vector, len(s.aggs))
	for i, agg := range s.aggs {
		if agg.arg == nil {
			continue
		}
		vec, err := agg.arg.Eval(s.Proc, batches)
		if err != nil {
			return nil, err
		}
		argVecs[i] = vec
	}

	n := bat.RowCount()
	groups, firstRows := groupRows(groupVecs, n)
	ngroups := len(firstRows)
	if len(groupVecs) == 0 {
		ngroups = 1
	}
	states := make([][]aggState, ngroups)
	for g := range states {
		states[g] = make([]aggState, len(s.aggs))
	}
	for row := 0; row < n; row++ {
		g := groups[row]
		for j, agg := range s.aggs {
			agg.update(&states[g][j], argVecs[j], row)
		}
	}

	rbat := s.newBatch()
	for i, vec := range groupVecs {
		for _, row := range firstRows {
			rbat.Vecs[i].UnionOne(vec, row)
		}
	}
	for j, agg := range s.aggs {
		vec := rbat.Vecs[len(groupVecs)+j]
		for g := range states {
			if err := agg.appendResult(vec, &states[g][j]); err != nil {
				return nil, err
			}
		}
	}
	rbat.SetRowCount(ngroups)
	return rbat, nil
}

// groupRows returns the 0 based group of every row and the first row of
// every group. NULL is a group of its own, so every column is prefixed by
// a null flag before its serialized value.
func groupRows(vecs []*vector.Vector, n int) ([]uint64, []int64) {
	groups := make([]uint64, n)
	if len(vecs) == 0 {
		return groups, nil
	}
	mp := hashtable.NewStringHashMap()
	keys := make([][]byte, hashmap.UnitLimit)
	colKeys := make([][]byte, hashmap.UnitLimit)
	zValues := make([]int64, hashmap.UnitLimit)
	var firstRows []int64
	for start := 0; start < n; start += hashmap.UnitLimit {
		count := n - start
		if count > hashmap.UnitLimit {
			count = hashmap.UnitLimit
		}
		for i := 0; i < count; i++ {
			keys[i] = keys[i][:0]
		}
		for _, vec := range vecs {
			hashmap.BuildSerializedKeys([]*vector.Vector{vec}, start, count, colKeys, zValues)
			for i := 0; i < count; i++ {
				if zValues[i] == 0 {
					keys[i] = append(keys[i], 0)
					continue
				}
				keys[i] = append(keys[i], 1)
				keys[i] = append(keys[i], colKeys[i]...)
			}
		}
		for i := 0; i < count; i++ {
			id := mp.Insert(keys[i])
			if int(id) > len(firstRows) {
				firstRows = append(firstRows, int64(start+i))
			}
			groups[start+i] = id - 1
		}
	}
	return groups, firstRows
}

func (agg *aggregator) update(st *aggState, vec *vector.Vector, row int) {
	if vec == nil {
		st.count++
		return
	}
	v := vec.GetAny(row)
	if v == nil {
		return
	}
	if agg.distinct {
		if st.seen == nil {
			st.seen = make(map[any]struct{})
		}
		if _, ok := st.seen[v]; ok {
			return
		}
		st.seen[v] = struct{}{}
	}
	switch agg.name {
	case "count":
		st.count++
	case "sum":
		switch agg.typ.Oid {
		case types.T_float64:
			st.sumF += toFloat(v)
		case types.T_uint64:
			st.sumU += toUint(v)
		default:
			st.sumI += toInt(v)
		}
	case "min":
		if !st.has || compareValues(v, st.val) < 0 {
			st.val = v
		}
	case "max":
		if !st.has || compareValues(v, st.val) > 0 {
			st.val = v
		}
	}
	st.has = true
}

func (agg *aggregator) appendResult(vec *vector.Vector, st *aggState) error {
	switch agg.name {
	case "count":
		vector.Append(vec, st.count, false)
	case "sum":
		if !st.has {
			vec.AppendNulls(1)
			return nil
		}
		switch agg.typ.Oid {
		case types.T_float64:
			vector.Append(vec, st.sumF, false)
		case types.T_uint64:
			vector.Append(vec, st.sumU, false)
		default:
			vector.Append(vec, st.sumI, false)
		}
	default:
		return vector.AppendAny(vec, st.val)
	}
	return nil
}
