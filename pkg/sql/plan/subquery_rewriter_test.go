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
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/joinunnest/pkg/common/moerr"
	"github.com/matrixorigin/joinunnest/pkg/container/types"
)

func TestDecorrelateExists(t *testing.T) {
	ctx := context.Background()
	tt := newTestTables()
	// SELECT * FROM t1 WHERE EXISTS (SELECT 1 FROM t2 WHERE t2.a = t1.a)
	body := tt.selectOne(tt.t2, eq(tt.ref(tt.t2a), tt.ref(tt.t1a)))
	s := tt.existsFilter(SubqueryExists, body, tt.t1a)

	out, err := DecorrelateSubquery(ctx, tt.md, s)
	require.NoError(t, err)

	filter := out.Plan().(*Filter)
	require.Equal(t, "true", filter.Predicates[0].String())
	joinExpr := out.Children()[0]
	join := joinExpr.Plan().(*LogicalInnerJoin)
	require.Equal(t, JoinSemi, join.JoinType)
	require.True(t, join.FromCorrelatedSubquery)
	require.Len(t, join.LeftConditions, 1)
	require.Equal(t, tt.t1a, join.LeftConditions[0].(*BoundColumnRef).Index)
	require.Equal(t, tt.t2a, join.RightConditions[0].(*BoundColumnRef).Index)
	require.Empty(t, join.OtherConditions)

	require.Equal(t, "t1", joinExpr.Children()[0].Plan().(*LogicalGet).Table)
	project := joinExpr.Children()[1].Plan().(*Project)
	require.Equal(t, []ColumnID{tt.t2a}, project.Columns.ToSlice())
	require.Equal(t, RelOpLogicalGet, joinExpr.Children()[1].Children()[0].Plan().RelOp())

	prop, err := NewRelExpr(ctx, out).DeriveRelationalProp()
	require.NoError(t, err)
	require.Equal(t, []ColumnID{tt.t1a, tt.t1b}, prop.OutputColumns.ToSlice())
	require.True(t, prop.OuterColumns.IsEmpty())
}

func TestDecorrelateNotExistsSplitsPredicates(t *testing.T) {
	ctx := context.Background()
	tt := newTestTables()
	// NOT EXISTS (SELECT 1 FROM t2 WHERE t2.c = t1.a AND t2.a > 1 AND t1.b = 2 AND t2.a < t1.b)
	gt := &ComparisonExpr{Op: CmpGT, Left: tt.ref(tt.t2a), Right: int64Const(1)}
	leftOnly := eq(tt.ref(tt.t1b), int64Const(2))
	other := &ComparisonExpr{Op: CmpLT, Left: tt.ref(tt.t2a), Right: tt.ref(tt.t1b)}
	pred := CombineConjunctions([]ScalarExpr{eq(tt.ref(tt.t2c), tt.ref(tt.t1a)), gt, leftOnly})
	body := tt.selectOne(tt.t2, pred, other)
	s := tt.existsFilter(SubqueryNotExists, body, tt.t1a, tt.t1b)

	out, err := DecorrelateSubquery(ctx, tt.md, s)
	require.NoError(t, err)
	joinExpr := out.Children()[0]
	join := joinExpr.Plan().(*LogicalInnerJoin)
	require.Equal(t, JoinAnti, join.JoinType)

	// t2.c is cast to the type of t1.a
	cast := join.RightConditions[0].(*CastExpr)
	require.Equal(t, types.T_int64, cast.TargetType.Oid)
	require.Equal(t, tt.t2c, cast.Argument.(*BoundColumnRef).Index)

	// the left only conjunct must not filter the outer rows of an anti join
	require.Equal(t, []ScalarExpr{leftOnly, other}, join.OtherConditions)
	require.Equal(t, RelOpLogicalGet, joinExpr.Children()[0].Plan().RelOp())

	right := joinExpr.Children()[1]
	require.Equal(t, []ColumnID{tt.t2a, tt.t2c}, right.Plan().(*Project).Columns.ToSlice())
	rightFilter := right.Children()[0].Plan().(*Filter)
	require.Equal(t, []ScalarExpr{gt}, rightFilter.Predicates)
}

func TestDecorrelateSemiPushesLeftFilter(t *testing.T) {
	tt := newTestTables()
	leftOnly := eq(tt.ref(tt.t1b), int64Const(2))
	body := tt.selectOne(tt.t2, eq(tt.ref(tt.t2a), tt.ref(tt.t1a)), leftOnly)
	out, err := DecorrelateSubquery(context.Background(), tt.md, tt.existsFilter(SubqueryExists, body, tt.t1a, tt.t1b))
	require.NoError(t, err)
	joinExpr := out.Children()[0]
	left := joinExpr.Children()[0]
	require.Equal(t, []ScalarExpr{leftOnly}, left.Plan().(*Filter).Predicates)
	require.Empty(t, joinExpr.Plan().(*LogicalInnerJoin).OtherConditions)
}

func TestExistsFallback(t *testing.T) {
	ctx := context.Background()
	tt := newTestTables()
	body := tt.selectOne(tt.t2, eq(tt.ref(tt.t2a), tt.ref(tt.t1a)))
	sub := &SubqueryExpr{
		Subquery:     body,
		Typ:          SubqueryExists,
		OuterColumns: NewColumnSet(tt.t1a),
		DataTyp:      types.New(types.T_bool),
	}
	// not a conjunct by itself: no decorrelation
	pred := &OrExpr{Left: sub, Right: eq(tt.ref(tt.t1b), int64Const(1))}
	s := NewUnary(&Filter{Predicates: []ScalarExpr{pred}}, tt.get(tt.t1))

	out, err := DecorrelateSubquery(ctx, tt.md, s)
	require.NoError(t, err)
	filter := out.Plan().(*Filter)
	or := filter.Predicates[0].(*OrExpr)
	ref := or.Left.(*BoundColumnRef)
	require.True(t, strings.HasPrefix(ref.Name, "subquery_"))
	require.Equal(t, types.T_bool, ref.Typ.Oid)

	applyExpr := out.Children()[0]
	apply := applyExpr.Plan().(*CrossApply)
	require.Equal(t, []ColumnID{tt.t1a}, apply.CorrelatedColumns.ToSlice())

	// Project <- EvalScalar <- Aggregate <- Limit <- body
	right := applyExpr.Children()[1]
	require.Equal(t, []ColumnID{ref.Index}, right.Plan().(*Project).Columns.ToSlice())
	eval := right.Children()[0]
	cmp := eval.Plan().(*EvalScalar).Items[0].Scalar.(*ComparisonExpr)
	require.Equal(t, int64(1), cmp.Right.(*ConstantExpr).Value)
	agg := eval.Children()[0]
	require.Equal(t, "count(*)", agg.Plan().(*Aggregate).AggregateFunctions[0].Scalar.String())
	limit := agg.Children()[0]
	require.Equal(t, int64(1), limit.Plan().(*Limit).Limit)
	require.Same(t, body, limit.Children()[0])
}

func TestUncorrelatedNotExists(t *testing.T) {
	tt := newTestTables()
	body := tt.selectOne(tt.t2, eq(tt.ref(tt.t2a), int64Const(7)))
	s := tt.existsFilter(SubqueryNotExists, body)
	out, err := DecorrelateSubquery(context.Background(), tt.md, s)
	require.NoError(t, err)
	join := out.Children()[0].Plan().(*LogicalInnerJoin)
	// uncorrelated subqueries reach the decorrelation with nothing to split
	// and become anti joins without keys
	require.Equal(t, JoinAnti, join.JoinType)
	require.Empty(t, join.LeftConditions)
}

func TestScalarSubquery(t *testing.T) {
	ctx := context.Background()
	tt := newTestTables()
	// SELECT (SELECT t2.c FROM t2 WHERE t2.a = t1.a) FROM t1
	body := NewUnary(&Project{Columns: NewColumnSet(tt.t2c)},
		NewUnary(&Filter{Predicates: []ScalarExpr{eq(tt.ref(tt.t2a), tt.ref(tt.t1a))}}, tt.get(tt.t2)))
	item := tt.md.AddColumn("x", types.NewNullable(types.T_int32), nil)
	sub := &SubqueryExpr{
		Subquery:     body,
		Typ:          SubqueryScalar,
		OuterColumns: NewColumnSet(tt.t1a),
		DataTyp:      types.NewNullable(types.T_int32),
	}
	s := NewUnary(&EvalScalar{Items: []ScalarItem{{Scalar: sub, Index: item}}}, tt.get(tt.t1))

	out, err := DecorrelateSubquery(ctx, tt.md, s)
	require.NoError(t, err)
	ref := out.Plan().(*EvalScalar).Items[0].Scalar.(*BoundColumnRef)
	require.Equal(t, tt.t2c, ref.Index)
	require.Equal(t, "subquery_3", ref.Name)
	require.True(t, ref.Typ.Nullable)

	applyExpr := out.Children()[0]
	require.Equal(t, RelOpCrossApply, applyExpr.Plan().RelOp())
	require.Equal(t, RelOpMax1Row, applyExpr.Children()[1].Plan().RelOp())

	// uncorrelated: a cross join
	sub2 := &SubqueryExpr{Subquery: NewUnary(&Project{Columns: NewColumnSet(tt.t2c)}, tt.get(tt.t2)), Typ: SubqueryScalar}
	s = NewUnary(&EvalScalar{Items: []ScalarItem{{Scalar: sub2, Index: item}}}, tt.get(tt.t1))
	out, err = DecorrelateSubquery(ctx, tt.md, s)
	require.NoError(t, err)
	join := out.Children()[0].Plan().(*LogicalInnerJoin)
	require.Equal(t, JoinCross, join.JoinType)
}

func TestAnySubquery(t *testing.T) {
	ctx := context.Background()
	tt := newTestTables()
	// SELECT t1.a, t1.a IN (SELECT t2.c FROM t2) FROM t1
	body := NewUnary(&Project{Columns: NewColumnSet(tt.t2c)}, tt.get(tt.t2))
	item := tt.md.AddColumn("in", types.NewNullable(types.T_bool), nil)
	sub := &SubqueryExpr{
		Subquery:  body,
		Typ:       SubqueryAny,
		ChildExpr: tt.ref(tt.t1a),
		CompareOp: CmpEqual,
		DataTyp:   types.NewNullable(types.T_bool),
	}
	s := NewUnary(&EvalScalar{Items: []ScalarItem{{Scalar: sub, Index: item}}}, tt.get(tt.t1))

	out, err := DecorrelateSubquery(ctx, tt.md, s)
	require.NoError(t, err)
	ref := out.Plan().(*EvalScalar).Items[0].Scalar.(*BoundColumnRef)
	require.Equal(t, "marker", ref.Name)
	require.True(t, ref.Typ.Nullable)

	joinExpr := out.Children()[0]
	join := joinExpr.Plan().(*LogicalInnerJoin)
	require.Equal(t, JoinMark, join.JoinType)
	require.Equal(t, ref.Index, *join.MarkerIndex)
	// the subquery is the left, build, side
	require.Same(t, body, joinExpr.Children()[0])
	require.Equal(t, types.T_int64, join.LeftConditions[0].DataType().Oid)
	require.Equal(t, tt.t1a, join.RightConditions[0].(*BoundColumnRef).Index)

	prop, err := NewRelExpr(ctx, joinExpr).DeriveRelationalProp()
	require.NoError(t, err)
	require.Equal(t, []ColumnID{tt.t1a, tt.t1b, ref.Index}, prop.OutputColumns.ToSlice())
}

func TestUnsupportedSubqueries(t *testing.T) {
	ctx := context.Background()
	tt := newTestTables()
	body := tt.selectOne(tt.t2, eq(tt.ref(tt.t2a), tt.ref(tt.t1a)))

	correlatedAny := &SubqueryExpr{
		Subquery:     body,
		Typ:          SubqueryAny,
		OuterColumns: NewColumnSet(tt.t1a),
		ChildExpr:    tt.ref(tt.t1b),
		DataTyp:      types.NewNullable(types.T_bool),
	}
	_, err := DecorrelateSubquery(ctx, tt.md, NewUnary(&Filter{Predicates: []ScalarExpr{correlatedAny}}, tt.get(tt.t1)))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNotSupported))

	all := &SubqueryExpr{
		Subquery:  NewUnary(&Project{Columns: NewColumnSet(tt.t2a)}, tt.get(tt.t2)),
		Typ:       SubqueryAll,
		ChildExpr: tt.ref(tt.t1b),
		DataTyp:   types.NewNullable(types.T_bool),
	}
	_, err = DecorrelateSubquery(ctx, tt.md, NewUnary(&Filter{Predicates: []ScalarExpr{all}}, tt.get(tt.t1)))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNotSupported))

	lessAny := &SubqueryExpr{
		Subquery:  NewUnary(&Project{Columns: NewColumnSet(tt.t2a)}, tt.get(tt.t2)),
		Typ:       SubqueryAny,
		ChildExpr: tt.ref(tt.t1b),
		CompareOp: CmpLT,
		DataTyp:   types.NewNullable(types.T_bool),
	}
	_, err = DecorrelateSubquery(ctx, tt.md, NewUnary(&Filter{Predicates: []ScalarExpr{lessAny}}, tt.get(tt.t1)))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNotSupported))
}

func TestInvalidPlanShapes(t *testing.T) {
	ctx := context.Background()
	tt := newTestTables()
	for _, s := range []*SExpr{
		NewBinary(&CrossApply{}, tt.get(tt.t1), tt.get(tt.t2)),
		NewUnary(&Max1Row{}, tt.get(tt.t1)),
		NewLeaf(&Pattern{PatternOp: RelOpPattern}),
		NewLeaf(&PhysicalScan{Table: "t1"}),
		NewBinary(&PhysicalHashJoin{}, tt.get(tt.t1), tt.get(tt.t2)),
		// below a valid root
		NewUnary(&Limit{Limit: 1}, NewUnary(&Max1Row{}, tt.get(tt.t1))),
	} {
		_, err := DecorrelateSubquery(ctx, tt.md, s)
		require.True(t, moerr.IsMoErrCode(err, moerr.ErrInternal), Format(s))
	}
}

func TestSiblingSubqueriesStack(t *testing.T) {
	tt := newTestTables()
	first := tt.selectOne(tt.t2, eq(tt.ref(tt.t2a), tt.ref(tt.t1a)))
	second := tt.selectOne(tt.t2, eq(tt.ref(tt.t2c), int64Const(3)))
	s := NewUnary(&Filter{Predicates: []ScalarExpr{
		&SubqueryExpr{Subquery: first, Typ: SubqueryExists, OuterColumns: NewColumnSet(tt.t1a)},
		&SubqueryExpr{Subquery: second, Typ: SubqueryNotExists},
	}}, tt.get(tt.t1))
	out, err := DecorrelateSubquery(context.Background(), tt.md, s)
	require.NoError(t, err)

	// the join of the second predicate sits above the first one
	outer := out.Children()[0]
	require.Equal(t, JoinAnti, outer.Plan().(*LogicalInnerJoin).JoinType)
	inner := outer.Children()[0]
	require.Equal(t, JoinSemi, inner.Plan().(*LogicalInnerJoin).JoinType)

	text := Format(out)
	require.Contains(t, text, "Join(Anti)")
	require.Contains(t, text, "└── ")
}
