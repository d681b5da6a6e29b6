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

	"github.com/fagongzi/util/format"
	"go.uber.org/zap"

	"github.com/matrixorigin/joinunnest/pkg/common/moerr"
	"github.com/matrixorigin/joinunnest/pkg/container/types"
	"github.com/matrixorigin/joinunnest/pkg/logutil/logutil2"
)

// UnnestResult tells how a subquery was joined to its input.
type UnnestResult int

const (
	// UnnestUncorrelated is a cross join with an uncorrelated subquery.
	UnnestUncorrelated UnnestResult = iota
	// UnnestApply is a CrossApply still to be decorrelated or run as a
	// nested loop.
	UnnestApply
	// UnnestSimpleJoin is a semi or anti join replacing the whole predicate.
	UnnestSimpleJoin
	// UnnestMarkJoin is a mark join, the subquery becomes its marker.
	UnnestMarkJoin
)

func (r UnnestResult) String() string {
	switch r {
	case UnnestUncorrelated:
		return "Uncorrelated"
	case UnnestApply:
		return "Apply"
	case UnnestSimpleJoin:
		return "SimpleJoin"
	default:
		return "MarkJoin"
	}
}

// SubqueryRewriter replaces the subqueries of a bound plan with joins.
// New columns are allocated in metadata.
type SubqueryRewriter struct {
	ctx      context.Context
	metadata *Metadata
}

func NewSubqueryRewriter(ctx context.Context, metadata *Metadata) *SubqueryRewriter {
	return &SubqueryRewriter{
		ctx:      ctx,
		metadata: metadata,
	}
}

func (r *SubqueryRewriter) Rewrite(s *SExpr) (*SExpr, error) {
	switch op := s.plan.(type) {
	case *EvalScalar:
		input, err := r.Rewrite(s.children[0])
		if err != nil {
			return nil, err
		}
		items, input, changed, err := r.rewriteItems(op.Items, input)
		if err != nil {
			return nil, err
		}
		if !changed && input == s.children[0] {
			return s, nil
		}
		return NewUnary(&EvalScalar{Items: items}, input), nil

	case *Filter:
		input, err := r.Rewrite(s.children[0])
		if err != nil {
			return nil, err
		}
		changed := false
		preds := make([]ScalarExpr, len(op.Predicates))
		for i, pred := range op.Predicates {
			if preds[i], input, err = r.tryRewriteSubquery(pred, input, true); err != nil {
				return nil, err
			}
			changed = changed || preds[i] != pred
		}
		if !changed && input == s.children[0] {
			return s, nil
		}
		return NewUnary(&Filter{Predicates: preds, IsHaving: op.IsHaving}, input), nil

	case *Aggregate:
		input, err := r.Rewrite(s.children[0])
		if err != nil {
			return nil, err
		}
		groupItems, input, groupChanged, err := r.rewriteItems(op.GroupItems, input)
		if err != nil {
			return nil, err
		}
		aggItems, input, aggChanged, err := r.rewriteItems(op.AggregateFunctions, input)
		if err != nil {
			return nil, err
		}
		if !groupChanged && !aggChanged && input == s.children[0] {
			return s, nil
		}
		return NewUnary(&Aggregate{GroupItems: groupItems, AggregateFunctions: aggItems}, input), nil

	case *LogicalInnerJoin:
		left, err := r.Rewrite(s.children[0])
		if err != nil {
			return nil, err
		}
		right, err := r.Rewrite(s.children[1])
		if err != nil {
			return nil, err
		}
		if left == s.children[0] && right == s.children[1] {
			return s, nil
		}
		return s.ReplaceChildren(left, right), nil

	case *Project, *Limit, *Sort:
		child, err := r.Rewrite(s.children[0])
		if err != nil {
			return nil, err
		}
		if child == s.children[0] {
			return s, nil
		}
		return s.ReplaceChildren(child), nil

	case *LogicalGet:
		return s, nil

	default:
		return nil, moerr.NewInternalError(r.ctx, "invalid plan type: %s", op.RelOp())
	}
}

// rewriteItems folds the scalars of items over input, left to right.
func (r *SubqueryRewriter) rewriteItems(items []ScalarItem, input *SExpr) ([]ScalarItem, *SExpr, bool, error) {
	var err error
	changed := false
	newItems := make([]ScalarItem, len(items))
	for i, item := range items {
		newItems[i] = item
		if newItems[i].Scalar, input, err = r.tryRewriteSubquery(item.Scalar, input, false); err != nil {
			return nil, nil, false, err
		}
		changed = changed || newItems[i].Scalar != item.Scalar
	}
	return newItems, input, changed, nil
}

// tryRewriteSubquery rewrites the subqueries of scalar, from left to
// right, joining each one to s. It returns the substituted scalar, scalar
// itself if it holds no subquery, and the grown input.
func (r *SubqueryRewriter) tryRewriteSubquery(scalar ScalarExpr, s *SExpr, isConjunctivePredicate bool) (ScalarExpr, *SExpr, error) {
	var err error
	switch e := scalar.(type) {
	case *BoundColumnRef, *ConstantExpr, *AggregateFunction:
		return scalar, s, nil

	case *AndExpr:
		ne := &AndExpr{}
		if ne.Left, s, err = r.tryRewriteSubquery(e.Left, s, false); err != nil {
			return nil, nil, err
		}
		if ne.Right, s, err = r.tryRewriteSubquery(e.Right, s, false); err != nil {
			return nil, nil, err
		}
		if ne.Left == e.Left && ne.Right == e.Right {
			return e, s, nil
		}
		return ne, s, nil

	case *OrExpr:
		ne := &OrExpr{}
		if ne.Left, s, err = r.tryRewriteSubquery(e.Left, s, false); err != nil {
			return nil, nil, err
		}
		if ne.Right, s, err = r.tryRewriteSubquery(e.Right, s, false); err != nil {
			return nil, nil, err
		}
		if ne.Left == e.Left && ne.Right == e.Right {
			return e, s, nil
		}
		return ne, s, nil

	case *ComparisonExpr:
		ne := &ComparisonExpr{Op: e.Op}
		if ne.Left, s, err = r.tryRewriteSubquery(e.Left, s, false); err != nil {
			return nil, nil, err
		}
		if ne.Right, s, err = r.tryRewriteSubquery(e.Right, s, false); err != nil {
			return nil, nil, err
		}
		if ne.Left == e.Left && ne.Right == e.Right {
			return e, s, nil
		}
		return ne, s, nil

	case *FunctionCall:
		ne := &FunctionCall{
			FuncName: e.FuncName,
			Args:     make([]ScalarExpr, len(e.Args)),
			Typ:      e.Typ,
		}
		changed := false
		for i, arg := range e.Args {
			if ne.Args[i], s, err = r.tryRewriteSubquery(arg, s, false); err != nil {
				return nil, nil, err
			}
			changed = changed || ne.Args[i] != arg
		}
		if !changed {
			return e, s, nil
		}
		return ne, s, nil

	case *CastExpr:
		ne := &CastExpr{TargetType: e.TargetType}
		if ne.Argument, s, err = r.tryRewriteSubquery(e.Argument, s, false); err != nil {
			return nil, nil, err
		}
		if ne.Argument == e.Argument {
			return e, s, nil
		}
		return ne, s, nil

	case *SubqueryExpr:
		body, err := r.Rewrite(e.Subquery)
		if err != nil {
			return nil, nil, err
		}
		subquery := *e
		subquery.Subquery = body
		if e.ChildExpr != nil {
			if subquery.ChildExpr, s, err = r.tryRewriteSubquery(e.ChildExpr, s, false); err != nil {
				return nil, nil, err
			}
		}

		ns, result, column, err := r.unnestSubquery(s, &subquery, isConjunctivePredicate)
		if err != nil {
			return nil, nil, err
		}
		logutil2.Debug(r.ctx, "subquery unnested",
			zap.Stringer("type", e.Typ),
			zap.Stringer("result", result))

		switch result {
		case UnnestSimpleJoin:
			return &ConstantExpr{Value: true, Typ: types.New(types.T_bool)}, ns, nil
		case UnnestMarkJoin:
			return &BoundColumnRef{
				Index: column,
				Name:  "marker",
				Typ:   types.NewNullable(types.T_bool),
			}, ns, nil
		default:
			typ := r.metadata.Column(column).Typ
			if e.Typ == SubqueryScalar {
				// no row at all yields NULL
				typ = typ.WithNullable(true)
			}
			return &BoundColumnRef{
				Index: column,
				Name:  "subquery_" + format.Int64ToString(int64(column)),
				Typ:   typ,
			}, ns, nil
		}

	default:
		return nil, nil, moerr.NewInternalError(r.ctx, "invalid scalar expression: %s", scalar)
	}
}

// unnestSubquery joins subquery to left. The returned column is the
// substitute of the subquery for the Uncorrelated, Apply and Mark results.
func (r *SubqueryRewriter) unnestSubquery(left *SExpr, subquery *SubqueryExpr, isConjunctivePredicate bool) (*SExpr, UnnestResult, ColumnID, error) {
	switch subquery.Typ {
	case SubqueryScalar:
		column, err := r.firstOutputColumn(subquery.Subquery)
		if err != nil {
			return nil, 0, 0, err
		}
		right := NewUnary(&Max1Row{}, subquery.Subquery)
		s, result := r.joinSubquery(left, right, subquery.OuterColumns)
		return s, result, column, nil

	case SubqueryExists, SubqueryNotExists:
		if isConjunctivePredicate {
			s, err := r.tryDecorrelateSubquery(left, subquery)
			if err != nil {
				return nil, 0, 0, err
			}
			if s != nil {
				return s, UnnestSimpleJoin, 0, nil
			}
		}
		right, column := r.buildCountSubquery(subquery)
		s, result := r.joinSubquery(left, right, subquery.OuterColumns)
		return s, result, column, nil

	case SubqueryAny:
		if !subquery.OuterColumns.IsEmpty() {
			return nil, 0, 0, moerr.NewNotSupported(r.ctx, "correlated subquery type: ANY")
		}
		if subquery.CompareOp != CmpEqual {
			return nil, 0, 0, moerr.NewNotSupported(r.ctx, "ANY subquery with operator %s", subquery.CompareOp)
		}
		if subquery.ChildExpr == nil {
			return nil, 0, 0, moerr.NewInternalError(r.ctx, "ANY subquery without operand")
		}
		column, err := r.firstOutputColumn(subquery.Subquery)
		if err != nil {
			return nil, 0, 0, err
		}
		var subqueryExpr ScalarExpr = r.metadata.ColumnRef(column)
		typ, ok := types.MergeTypes(subqueryExpr.DataType(), subquery.ChildExpr.DataType())
		if !ok {
			return nil, 0, 0, moerr.NewInvalidInput(r.ctx, "cannot compare %s with %s",
				subquery.ChildExpr.DataType(), subqueryExpr.DataType())
		}
		marker := r.metadata.AddColumn("marker", types.NewNullable(types.T_bool), nil)
		join := &LogicalInnerJoin{
			LeftConditions:  []ScalarExpr{wrapCastIfNeeded(subqueryExpr, typ)},
			RightConditions: []ScalarExpr{wrapCastIfNeeded(subquery.ChildExpr, typ)},
			JoinType:        JoinMark,
			MarkerIndex:     &marker,
		}
		return NewBinary(join, subquery.Subquery, left), UnnestMarkJoin, marker, nil

	case SubqueryAll:
		return nil, 0, 0, moerr.NewNotSupported(r.ctx, "subquery type: ALL")

	default:
		return nil, 0, 0, moerr.NewInternalError(r.ctx, "invalid subquery type: %s", subquery.Typ)
	}
}

// joinSubquery puts right beside left, with a cross join if right is
// uncorrelated and a CrossApply otherwise.
func (r *SubqueryRewriter) joinSubquery(left, right *SExpr, outerColumns ColumnSet) (*SExpr, UnnestResult) {
	if outerColumns.IsEmpty() {
		return NewBinary(&LogicalInnerJoin{JoinType: JoinCross}, left, right), UnnestUncorrelated
	}
	apply := &CrossApply{CorrelatedColumns: outerColumns.Clone()}
	return NewBinary(apply, left, right), UnnestApply
}

// buildCountSubquery turns an (NOT) EXISTS subquery into
//
//	Project{subquery} <- EvalScalar{subquery: count(*) = 1|0} <- Aggregate{count(*)} <- Limit 1 <- body
//
// and returns it with its only column.
func (r *SubqueryRewriter) buildCountSubquery(subquery *SubqueryExpr) (*SExpr, ColumnID) {
	limit := NewUnary(&Limit{Limit: 1}, subquery.Subquery)

	countType := types.New(types.T_int64)
	count := r.metadata.AddColumn("count(*)", countType, nil)
	agg := NewUnary(&Aggregate{
		AggregateFunctions: []ScalarItem{{
			Scalar: &AggregateFunction{FuncName: "count", Typ: countType},
			Index:  count,
		}},
	}, limit)

	var expected int64 = 1
	if subquery.Typ == SubqueryNotExists {
		expected = 0
	}
	cmp := &ComparisonExpr{
		Op:    CmpEqual,
		Left:  &BoundColumnRef{Index: count, Name: "count(*)", Typ: countType},
		Right: &ConstantExpr{Value: expected, Typ: countType},
	}
	column := r.metadata.AddColumn("subquery", types.New(types.T_bool), nil)
	eval := NewUnary(&EvalScalar{Items: []ScalarItem{{Scalar: cmp, Index: column}}}, agg)

	return NewUnary(&Project{Columns: NewColumnSet(column)}, eval), column
}

func (r *SubqueryRewriter) firstOutputColumn(s *SExpr) (ColumnID, error) {
	prop, err := NewRelExpr(r.ctx, s).DeriveRelationalProp()
	if err != nil {
		return 0, err
	}
	column, ok := prop.OutputColumns.First()
	if !ok {
		return 0, moerr.NewInternalError(r.ctx, "subquery has no output column")
	}
	return column, nil
}
