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
	"sort"

	"github.com/matrixorigin/joinunnest/pkg/common/moerr"
	"github.com/matrixorigin/joinunnest/pkg/container/batch"
	"github.com/matrixorigin/joinunnest/pkg/sql/colexec"
	"github.com/matrixorigin/joinunnest/pkg/sql/colexec/hashjoin"
	"github.com/matrixorigin/joinunnest/pkg/sql/plan"
)

// Run executes the scope and its inputs and returns every output row in
// one batch.
func (s *Scope) Run() (*batch.Batch, error) {
	if err := s.Proc.InterruptIfCanceled(); err != nil {
		return nil, err
	}
	switch s.Magic {
	case Scan:
		return s.runScan()
	case HashJoin:
		return s.runJoin()
	case Apply:
		return s.runApply()
	}

	bat, err := s.PreScopes[0].Run()
	if err != nil {
		return nil, err
	}
	switch s.Magic {
	case Filter:
		return s.runFilter(bat)
	case Evaluation:
		return s.runEval(bat)
	case Projection:
		return s.runProject(bat), nil
	case Aggregation:
		return s.runAggregate(bat)
	case Order:
		return s.runOrder(bat), nil
	case LimitOffset:
		return s.runLimit(bat), nil
	case SingleRow:
		return s.runSingleRow(bat)
	}
	return nil, moerr.NewInternalError(s.Proc.Ctx, "unknown scope %s", s.Magic)
}

// Release frees the executors of s and its inputs.
func (s *Scope) Release() {
	if s == nil {
		return
	}
	for _, exec := range s.exprs {
		exec.Free()
	}
	for _, agg := range s.aggs {
		if agg.arg != nil {
			agg.arg.Free()
		}
	}
	if s.join != nil {
		for _, exec := range s.join.desc.BuildKeys {
			exec.Free()
		}
		for _, exec := range s.join.desc.ProbeKeys {
			exec.Free()
		}
		if s.join.desc.OtherPredicate != nil {
			s.join.desc.OtherPredicate.Free()
		}
	}
	for _, ps := range s.PreScopes {
		ps.Release()
	}
}

func (s *Scope) newBatch() *batch.Batch {
	return batch.NewWithSchema(s.Attrs, s.Types)
}

func (s *Scope) runScan() (*batch.Batch, error) {
	rd, err := s.rel.NewReader(s.Proc.Ctx, s.Proc.GetBatchRows())
	if err != nil {
		return nil, err
	}
	defer rd.Close()

	rbat := s.newBatch()
	for {
		if err := s.Proc.InterruptIfCanceled(); err != nil {
			return nil, err
		}
		bat, err := rd.Read(s.Proc.Ctx)
		if err != nil {
			return nil, err
		}
		if bat == nil {
			return rbat, nil
		}
		sub := batch.NewWithSize(len(s.positions))
		for i, pos := range s.positions {
			sub.Vecs[i] = bat.Vecs[pos]
		}
		sub.SetRowCount(bat.RowCount())
		if _, err := rbat.Append(s.Proc.Ctx, sub); err != nil {
			return nil, err
		}
	}
}

func (s *Scope) runFilter(bat *batch.Batch) (*batch.Batch, error) {
	if len(s.exprs) == 0 || bat.RowCount() == 0 {
		return bat, nil
	}
	sels, err := colexec.FilterSels(s.Proc, s.exprs[0], []*batch.Batch{bat})
	if err != nil {
		return nil, err
	}
	if len(sels) == bat.RowCount() {
		return bat, nil
	}
	return bat.Take(sels), nil
}

func (s *Scope) runEval(bat *batch.Batch) (*batch.Batch, error) {
	rbat := batch.NewWithSize(0)
	rbat.Attrs = s.Attrs
	rbat.Vecs = append(rbat.Vecs, bat.Vecs...)
	for _, exec := range s.exprs {
		vec, err := exec.Eval(s.Proc, []*batch.Batch{bat})
		if err != nil {
			return nil, err
		}
		rbat.Vecs = append(rbat.Vecs, vec)
	}
	rbat.SetRowCount(bat.RowCount())
	return rbat, nil
}

func (s *Scope) runProject(bat *batch.Batch) *batch.Batch {
	rbat := batch.NewWithSize(len(s.positions))
	rbat.Attrs = s.Attrs
	for i, pos := range s.positions {
		rbat.Vecs[i] = bat.Vecs[pos]
	}
	rbat.SetRowCount(bat.RowCount())
	return rbat
}

// runOrder sorts stably, NULL sorts first or last as asked by each key.
func (s *Scope) runOrder(bat *batch.Batch) *batch.Batch {
	n := bat.RowCount()
	if n < 2 || len(s.orderBy) == 0 {
		return bat
	}
	sels := make([]int64, n)
	for i := range sels {
		sels[i] = int64(i)
	}
	sort.SliceStable(sels, func(i, j int) bool {
		for _, key := range s.orderBy {
			vec := bat.Vecs[key.pos]
			a, b := vec.GetAny(int(sels[i])), vec.GetAny(int(sels[j]))
			if a == nil || b == nil {
				if a == nil && b == nil {
					continue
				}
				return (a == nil) == key.nullsFirst
			}
			r := compareValues(a, b)
			if r == 0 {
				continue
			}
			if key.asc {
				return r < 0
			}
			return r > 0
		}
		return false
	})
	return bat.Take(sels)
}

// runLimit keeps limit rows after skipping offset ones, a negative limit
// keeps every remaining row.
func (s *Scope) runLimit(bat *batch.Batch) *batch.Batch {
	n := int64(bat.RowCount())
	start := s.offset
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end := n
	if s.limit >= 0 && start+s.limit < n {
		end = start + s.limit
	}
	if start == 0 && end == n {
		return bat
	}
	sels := make([]int64, 0, end-start)
	for i := start; i < end; i++ {
		sels = append(sels, i)
	}
	return bat.Take(sels)
}

// runSingleRow lets at most one row through. No row at all is a row of
// NULLs.
func (s *Scope) runSingleRow(bat *batch.Batch) (*batch.Batch, error) {
	switch bat.RowCount() {
	case 0:
		rbat := s.newBatch()
		for _, vec := range rbat.Vecs {
			vec.AppendNulls(1)
		}
		rbat.SetRowCount(1)
		return rbat, nil
	case 1:
		return bat, nil
	default:
		return nil, moerr.NewScalarSubqueryRow(s.Proc.Ctx)
	}
}

// runApply runs the right side once per left row, the columns of that row
// are bound as constants.
func (s *Scope) runApply() (*batch.Batch, error) {
	left, err := s.PreScopes[0].Run()
	if err != nil {
		return nil, err
	}
	rbat := s.newBatch()
	outer := make(map[plan.ColumnID]any, len(s.outer)+len(left.Vecs))
	for col, val := range s.outer {
		outer[col] = val
	}
	schema := s.PreScopes[0].Schema
	for row := 0; row < left.RowCount(); row++ {
		for i, col := range schema {
			outer[col] = left.Vecs[i].GetAny(row)
		}
		right, err := s.c.compileScope(s.apply, outer)
		if err != nil {
			return nil, err
		}
		bat, err := right.Run()
		right.Release()
		if err != nil {
			return nil, err
		}
		if bat.RowCount() == 0 {
			continue
		}
		if _, err = rbat.Append(s.Proc.Ctx, hashjoin.MergeWithConstantBlock(left, row, bat)); err != nil {
			return nil, err
		}
	}
	return rbat, nil
}

func compareValues(a, b any) int {
	switch x := a.(type) {
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case string:
		return compareOrdered(x, b.(string))
	case float32:
		return compareOrdered(float64(x), toFloat(b))
	case float64:
		return compareOrdered(x, toFloat(b))
	case uint8, uint16, uint32, uint64:
		return compareOrdered(toUint(a), toUint(b))
	}
	return compareOrdered(toInt(a), toInt(b))
}

func compareOrdered[T int64 | uint64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float32:
		return float64(x)
	case float64:
		return x
	}
	return float64(toInt(v))
}

func toUint(v any) uint64 {
	switch x := v.(type) {
	case uint8:
		return uint64(x)
	case uint16:
		return uint64(x)
	case uint32:
		return uint64(x)
	case uint64:
		return x
	}
	return uint64(toInt(v))
}

func toInt(v any) int64 {
	switch x := v.(type) {
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint8, uint16, uint32, uint64:
		return int64(toUint(v))
	}
	return 0
}
