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

package plan

import (
	"github.com/matrixorigin/joinunnest/pkg/container/types"
)

type JoinPredicateKind int

const (
	// JoinPredLeft reads the left side only.
	JoinPredLeft JoinPredicateKind = iota
	// JoinPredRight reads the right side only, constants included.
	JoinPredRight
	// JoinPredBoth is an equality between a left and a right operand.
	JoinPredBoth
	// JoinPredOther is anything else reading both sides.
	JoinPredOther
)

func (k JoinPredicateKind) String() string {
	switch k {
	case JoinPredLeft:
		return "Left"
	case JoinPredRight:
		return "Right"
	case JoinPredBoth:
		return "Both"
	default:
		return "Other"
	}
}

// JoinCondition is one conjunct of a join predicate, classified against
// the output columns of both join sides. Left and Right are set, cast to a
// common type, for JoinPredBoth only.
type JoinCondition struct {
	Kind      JoinPredicateKind
	Predicate ScalarExpr
	Left      ScalarExpr
	Right     ScalarExpr
}

// classifyJoinCondition returns false if pred reads a column neither side
// produces.
func classifyJoinCondition(pred ScalarExpr, leftCols, rightCols ColumnSet) (*JoinCondition, bool) {
	used := pred.UsedColumns()
	if !used.SubsetOf(leftCols.Union(rightCols)) {
		return nil, false
	}
	jc := &JoinCondition{Predicate: pred}
	switch {
	case used.IsEmpty() || used.SubsetOf(rightCols):
		jc.Kind = JoinPredRight
	case used.SubsetOf(leftCols):
		jc.Kind = JoinPredLeft
	default:
		jc.Kind = JoinPredOther
		cmp, ok := pred.(*ComparisonExpr)
		if !ok || cmp.Op != CmpEqual {
			break
		}
		l, r := cmp.Left, cmp.Right
		if !isSideOperand(l, leftCols) || !isSideOperand(r, rightCols) {
			l, r = r, l
			if !isSideOperand(l, leftCols) || !isSideOperand(r, rightCols) {
				break
			}
		}
		typ, ok := types.MergeTypes(l.DataType(), r.DataType())
		if !ok {
			break
		}
		jc.Kind = JoinPredBoth
		jc.Left = wrapCastIfNeeded(l, typ)
		jc.Right = wrapCastIfNeeded(r, typ)
	}
	return jc, true
}

func isSideOperand(e ScalarExpr, cols ColumnSet) bool {
	used := e.UsedColumns()
	return !used.IsEmpty() && used.SubsetOf(cols)
}

// wrapCastIfNeeded casts e to the oid of target, keeping the nullability
// of e.
func wrapCastIfNeeded(e ScalarExpr, target types.Type) ScalarExpr {
	if e.DataType().Oid == target.Oid {
		return e
	}
	return &CastExpr{
		Argument:   e,
		TargetType: target.WithNullable(e.DataType().Nullable),
	}
}
