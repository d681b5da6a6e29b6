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
	"context"

	"go.uber.org/zap"

	"github.com/matrixorigin/joinunnest/pkg/logutil/logutil2"
)

// DecorrelateSubquery unnests every subquery of a bound plan, allocating
// the new columns in metadata.
func DecorrelateSubquery(ctx context.Context, metadata *Metadata, s *SExpr) (*SExpr, error) {
	return NewSubqueryRewriter(ctx, metadata).Rewrite(s)
}

// the only subquery shape decorrelated into a semi or anti join
var decorrelatePattern = NewUnary(&Pattern{PatternOp: RelOpProject},
	NewUnary(&Pattern{PatternOp: RelOpEvalScalar},
		NewUnary(&Pattern{PatternOp: RelOpFilter},
			NewLeaf(&Pattern{PatternOp: RelOpLogicalGet}))))

// tryDecorrelateSubquery turns input joined with an (NOT) EXISTS subquery
// into a semi (anti) join. It returns nil if the subquery does not have the
// shape Project <- EvalScalar <- Filter <- Get, or if the correlation is not
// confined to the filter.
func (r *SubqueryRewriter) tryDecorrelateSubquery(input *SExpr, subquery *SubqueryExpr) (*SExpr, error) {
	if !subquery.Subquery.MatchPattern(decorrelatePattern) {
		logutil2.Debug(r.ctx, "decorrelation declined", zap.String("reason", "subquery shape"))
		return nil, nil
	}
	filterExpr := subquery.Subquery.children[0].children[0]
	filter := filterExpr.plan.(*Filter)
	get := filterExpr.children[0]

	rightProp, err := NewRelExpr(r.ctx, filterExpr).DeriveRelationalPropChild(0)
	if err != nil {
		return nil, err
	}
	if !rightProp.OuterColumns.IsEmpty() {
		logutil2.Debug(r.ctx, "decorrelation declined", zap.String("reason", "correlation below filter"))
		return nil, nil
	}
	leftProp, err := NewRelExpr(r.ctx, input).DeriveRelationalProp()
	if err != nil {
		return nil, err
	}

	joinType := JoinSemi
	if subquery.Typ == SubqueryNotExists {
		joinType = JoinAnti
	}
	var leftFilters, rightFilters, leftConds, rightConds, otherConds []ScalarExpr
	for _, pred := range filter.Predicates {
		for _, conj := range SplitConjunctions(pred) {
			jc, ok := classifyJoinCondition(conj, leftProp.OutputColumns, rightProp.OutputColumns)
			if !ok {
				logutil2.Debug(r.ctx, "decorrelation declined",
					zap.String("reason", "unresolved column"),
					zap.String("predicate", conj.String()))
				return nil, nil
			}
			switch jc.Kind {
			case JoinPredLeft:
				// an outer row failing the predicate has no match, which
				// removes it from a semi join but keeps it in an anti join
				if joinType == JoinAnti {
					otherConds = append(otherConds, conj)
				} else {
					leftFilters = append(leftFilters, conj)
				}
			case JoinPredRight:
				rightFilters = append(rightFilters, conj)
			case JoinPredBoth:
				leftConds = append(leftConds, jc.Left)
				rightConds = append(rightConds, jc.Right)
			default:
				otherConds = append(otherConds, conj)
			}
		}
	}

	left := input
	if len(leftFilters) > 0 {
		left = NewUnary(&Filter{Predicates: leftFilters}, left)
	}
	right := get
	if len(rightFilters) > 0 {
		right = NewUnary(&Filter{Predicates: rightFilters}, right)
	}
	columns := usedColumns(rightConds).
		Union(usedColumns(otherConds)).
		Difference(leftProp.OutputColumns)
	right = NewUnary(&Project{Columns: columns}, right)

	join := &LogicalInnerJoin{
		LeftConditions:         leftConds,
		RightConditions:        rightConds,
		OtherConditions:        otherConds,
		JoinType:               joinType,
		FromCorrelatedSubquery: true,
	}
	return NewBinary(join, left, right), nil
}
