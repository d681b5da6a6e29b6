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
	"github.com/matrixorigin/joinunnest/pkg/common/hashmap"
	"github.com/matrixorigin/joinunnest/pkg/common/moerr"
	"github.com/matrixorigin/joinunnest/pkg/container/batch"
	"github.com/matrixorigin/joinunnest/pkg/container/types"
	"github.com/matrixorigin/joinunnest/pkg/container/vector"
	"github.com/matrixorigin/joinunnest/pkg/sql/colexec"
	"github.com/matrixorigin/joinunnest/pkg/sql/plan"
)

const markerAttr = "marker"

func NewProbeState() *ProbeState {
	return &ProbeState{}
}

// Probe joins bat against the finished build side. Inner, left and cross
// joins emit the probe columns followed by the build columns, semi and anti
// joins the probe columns only and mark joins the probe columns followed
// by the marker. Results are split into batches of at most OutputBatchRows.
func (ht *JoinHashTable) Probe(bat *batch.Batch, state *ProbeState) ([]*batch.Batch, error) {
	finished, err := ht.state.isFinished()
	if err != nil {
		return nil, err
	}
	if !finished {
		return nil, moerr.NewInvalidState(ht.proc.Ctx, "probe of a hash table still building")
	}
	if bat == nil || bat.RowCount() == 0 {
		return nil, nil
	}
	if err = ht.proc.InterruptIfCanceled(); err != nil {
		return nil, err
	}
	if state == nil {
		state = NewProbeState()
	}

	ht.mu.RLock()
	defer ht.mu.RUnlock()

	var rbat *batch.Batch
	switch ht.desc.JoinType {
	case plan.JoinCross:
		rbat, err = ht.probeCross(bat)
	case plan.JoinInner:
		rbat, err = ht.probeInner(bat, state)
	case plan.JoinLeft:
		rbat, err = ht.probeLeft(bat, state)
	case plan.JoinSemi, plan.JoinAnti:
		rbat, err = ht.probeSemiAnti(bat, state)
	case plan.JoinMark:
		rbat, err = ht.probeMark(bat, state)
	default:
		return nil, moerr.NewNotSupported(ht.proc.Ctx, "join type %s", ht.desc.JoinType)
	}
	if err != nil || rbat == nil || rbat.RowCount() == 0 {
		return nil, err
	}
	return splitBatch(rbat, ht.proc.GetOutputBatchRows()), nil
}

// collectPairs looks up every probe row and records one (probe row, build
// row) pair per candidate match, in probe row order.
func (ht *JoinHashTable) collectPairs(bat *batch.Batch, state *ProbeState) error {
	vecs, err := evalKeys(ht.proc, ht.desc.ProbeKeys, bat, state.keyVecs)
	if err != nil {
		return err
	}
	state.keyVecs = vecs
	n := bat.RowCount()
	state.probeSels = state.probeSels[:0]
	state.buildPtrs = state.buildPtrs[:0]
	state.keyNulls = resetBools(state.keyNulls, n)
	for i := 0; i < n; i += hashmap.UnitLimit {
		cnt := n - i
		if cnt > hashmap.UnitLimit {
			cnt = hashmap.UnitLimit
		}
		ht.hashTable.find(&state.keys, vecs, i, cnt)
		for k := 0; k < cnt; k++ {
			if state.keys.zValues[k] == 0 {
				state.keyNulls[i+k] = true
				continue
			}
			for _, ptr := range ht.hashTable.Rows(state.keys.values[k]) {
				state.probeSels = append(state.probeSels, int64(i+k))
				state.buildPtrs = append(state.buildPtrs, ptr)
			}
		}
	}
	return nil
}

// pairBlock returns the candidate pairs as probe columns followed by build columns.
func (ht *JoinHashTable) pairBlock(bat *batch.Batch, state *ProbeState) (*batch.Batch, error) {
	return MergeEqBlock(ht.proc.Ctx, bat.Take(state.probeSels), ht.rowSpace.Gather(state.buildPtrs))
}

// passingPairs evaluates the other predicate over the pairs, nil means
// every pair passes.
func (ht *JoinHashTable) passingPairs(pairs *batch.Batch) ([]bool, error) {
	if ht.desc.OtherPredicate == nil {
		return nil, nil
	}
	sels, err := colexec.FilterSels(ht.proc, ht.desc.OtherPredicate, []*batch.Batch{pairs})
	if err != nil {
		return nil, err
	}
	pass := make([]bool, pairs.RowCount())
	for _, sel := range sels {
		pass[sel] = true
	}
	return pass, nil
}

// matchedRows flags the probe rows having at least one passing pair.
func (ht *JoinHashTable) matchedRows(bat *batch.Batch, state *ProbeState) error {
	if err := ht.collectPairs(bat, state); err != nil {
		return err
	}
	state.matched = resetBools(state.matched, bat.RowCount())
	if ht.desc.OtherPredicate == nil {
		for _, row := range state.probeSels {
			state.matched[row] = true
		}
		return nil
	}
	if len(state.probeSels) == 0 {
		return nil
	}
	pairs, err := ht.pairBlock(bat, state)
	if err != nil {
		return err
	}
	pass, err := ht.passingPairs(pairs)
	if err != nil {
		return err
	}
	for p, row := range state.probeSels {
		if pass[p] {
			state.matched[row] = true
		}
	}
	return nil
}

func (ht *JoinHashTable) probeInner(bat *batch.Batch, state *ProbeState) (*batch.Batch, error) {
	if err := ht.collectPairs(bat, state); err != nil {
		return nil, err
	}
	if len(state.probeSels) == 0 {
		return nil, nil
	}
	pairs, err := ht.pairBlock(bat, state)
	if err != nil {
		return nil, err
	}
	if ht.desc.OtherPredicate == nil {
		return pairs, nil
	}
	sels, err := colexec.FilterSels(ht.proc, ht.desc.OtherPredicate, []*batch.Batch{pairs})
	if err != nil {
		return nil, err
	}
	return pairs.Take(sels), nil
}

// probeLeft emits, per probe row in order, its passing pairs or a single
// row whose build columns are NULL.
func (ht *JoinHashTable) probeLeft(bat *batch.Batch, state *ProbeState) (*batch.Batch, error) {
	if err := ht.collectPairs(bat, state); err != nil {
		return nil, err
	}
	var pairs *batch.Batch
	var pass []bool
	var err error
	if len(state.probeSels) > 0 {
		if pairs, err = ht.pairBlock(bat, state); err != nil {
			return nil, err
		}
		if pass, err = ht.passingPairs(pairs); err != nil {
			return nil, err
		}
	}

	probeCols := len(bat.Vecs)
	typs := append(bat.Types(), ht.buildSchema.Types...)
	rbat := batch.NewWithSchema(mergeAttrs(bat, probeCols, ht.buildSchema.Attrs), typs)
	p, count := 0, 0
	for row := 0; row < bat.RowCount(); row++ {
		matched := false
		for ; p < len(state.probeSels) && state.probeSels[p] == int64(row); p++ {
			if pass != nil && !pass[p] {
				continue
			}
			for j, vec := range rbat.Vecs {
				vec.UnionOne(pairs.Vecs[j], int64(p))
			}
			matched = true
			count++
		}
		if !matched {
			for j, vec := range rbat.Vecs {
				if j < probeCols {
					vec.UnionOne(bat.Vecs[j], int64(row))
				} else {
					vec.AppendNulls(1)
				}
			}
			count++
		}
	}
	rbat.SetRowCount(count)
	return rbat, nil
}

func (ht *JoinHashTable) probeSemiAnti(bat *batch.Batch, state *ProbeState) (*batch.Batch, error) {
	if err := ht.matchedRows(bat, state); err != nil {
		return nil, err
	}
	want := ht.desc.JoinType == plan.JoinSemi
	sels := make([]int64, 0, bat.RowCount())
	for row, matched := range state.matched {
		if matched == want {
			sels = append(sels, int64(row))
		}
	}
	return bat.Take(sels), nil
}

// probeMark annotates every probe row with a marker: true on a match,
// otherwise null if the probe key or any build key is NULL, otherwise
// false. An empty build side is false for every row.
func (ht *JoinHashTable) probeMark(bat *batch.Batch, state *ProbeState) (*batch.Batch, error) {
	if err := ht.matchedRows(bat, state); err != nil {
		return nil, err
	}
	n := bat.RowCount()
	marker := vector.NewVec(types.NewNullable(types.T_bool))
	for row := 0; row < n; row++ {
		kind := MarkerFalse
		switch {
		case state.matched[row]:
			kind = MarkerTrue
		case ht.buildRows == 0:
		case state.keyNulls[row] || ht.hasNull:
			kind = MarkerNull
		}
		vector.Append(marker, kind == MarkerTrue, kind == MarkerNull)
	}

	rbat := bat.Dup()
	rbat.Attrs = mergeAttrs(bat, len(bat.Vecs), []string{markerAttr})
	rbat.Vecs = append(rbat.Vecs, marker)
	return rbat, nil
}

func (ht *JoinHashTable) probeCross(bat *batch.Batch) (*batch.Batch, error) {
	ht.crossOnce.Do(func() {
		ht.crossBuild, ht.crossErr = ht.rowSpace.Materialize(ht.proc.Ctx)
	})
	if ht.crossErr != nil {
		return nil, ht.crossErr
	}
	build := ht.crossBuild
	if build.RowCount() == 0 {
		return nil, nil
	}

	var rbat *batch.Batch
	for row := 0; row < bat.RowCount(); row++ {
		if err := ht.proc.InterruptIfCanceled(); err != nil {
			return nil, err
		}
		merged := MergeWithConstantBlock(bat, row, build)
		if ht.desc.OtherPredicate != nil {
			sels, err := colexec.FilterSels(ht.proc, ht.desc.OtherPredicate, []*batch.Batch{merged})
			if err != nil {
				return nil, err
			}
			merged = merged.Take(sels)
		}
		if rbat == nil {
			rbat = batch.NewWithSchema(merged.Attrs, merged.Types())
		}
		if _, err := rbat.Append(ht.proc.Ctx, merged); err != nil {
			return nil, err
		}
	}
	return rbat, nil
}

// splitBatch cuts bat into batches of at most limit rows.
func splitBatch(bat *batch.Batch, limit int) []*batch.Batch {
	n := bat.RowCount()
	if n <= limit {
		return []*batch.Batch{bat}
	}
	bats := make([]*batch.Batch, 0, (n+limit-1)/limit)
	for start := 0; start < n; start += limit {
		end := start + limit
		if end > n {
			end = n
		}
		sels := make([]int64, end-start)
		for i := range sels {
			sels[i] = int64(start + i)
		}
		bats = append(bats, bat.Take(sels))
	}
	return bats
}

func resetBools(bs []bool, n int) []bool {
	if cap(bs) < n {
		return make([]bool, n)
	}
	bs = bs[:n]
	for i := range bs {
		bs[i] = false
	}
	return bs
}
