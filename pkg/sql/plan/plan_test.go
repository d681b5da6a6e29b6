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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/joinunnest/pkg/container/types"
	"github.com/matrixorigin/joinunnest/pkg/vm/engine"
)

type testTables struct {
	md     *Metadata
	t1, t2 int
	// t1.a, t1.b, t2.a, t2.c
	t1a, t1b, t2a, t2c ColumnID
}

func newTestTables() *testTables {
	md := NewMetadata()
	tt := &testTables{md: md}
	tt.t1 = md.AddTable("t1", []engine.Attribute{
		{Name: "a", Type: types.NewNullable(types.T_int64)},
		{Name: "b", Type: types.New(types.T_int64)},
	})
	tt.t2 = md.AddTable("t2", []engine.Attribute{
		{Name: "a", Type: types.NewNullable(types.T_int64)},
		{Name: "c", Type: types.New(types.T_int32)},
	})
	tt.t1a, tt.t1b = md.Table(tt.t1).Columns[0], md.Table(tt.t1).Columns[1]
	tt.t2a, tt.t2c = md.Table(tt.t2).Columns[0], md.Table(tt.t2).Columns[1]
	return tt
}

func (tt *testTables) get(table int) *SExpr {
	return NewLeaf(NewLogicalGet(tt.md, table))
}

func (tt *testTables) ref(col ColumnID) *BoundColumnRef {
	return tt.md.ColumnRef(col)
}

func eq(l, r ScalarExpr) *ComparisonExpr {
	return &ComparisonExpr{Op: CmpEqual, Left: l, Right: r}
}

func int64Const(v int64) *ConstantExpr {
	return &ConstantExpr{Value: v, Typ: types.New(types.T_int64)}
}

// selectOne builds Project <- EvalScalar{1} <- Filter{preds} <- Get(table).
func (tt *testTables) selectOne(table int, preds ...ScalarExpr) *SExpr {
	one := tt.md.AddColumn("1", types.New(types.T_int64), nil)
	s := tt.get(table)
	s = NewUnary(&Filter{Predicates: preds}, s)
	s = NewUnary(&EvalScalar{Items: []ScalarItem{{Scalar: int64Const(1), Index: one}}}, s)
	return NewUnary(&Project{Columns: NewColumnSet(one)}, s)
}

func (tt *testTables) existsFilter(typ SubqueryType, body *SExpr, outer ...ColumnID) *SExpr {
	sub := &SubqueryExpr{
		Subquery:     body,
		Typ:          typ,
		OuterColumns: NewColumnSet(outer...),
		DataTyp:      types.New(types.T_bool),
	}
	return NewUnary(&Filter{Predicates: []ScalarExpr{sub}}, tt.get(tt.t1))
}

func TestColumnSet(t *testing.T) {
	var empty ColumnSet
	require.True(t, empty.IsEmpty())
	require.Equal(t, 0, empty.Len())
	_, ok := empty.First()
	require.False(t, ok)

	a := NewColumnSet(3, 1, 2)
	b := NewColumnSet(2, 5)
	require.Equal(t, []ColumnID{1, 2, 3}, a.ToSlice())
	require.Equal(t, []ColumnID{1, 2, 3, 5}, a.Union(b).ToSlice())
	require.Equal(t, []ColumnID{2}, a.Intersection(b).ToSlice())
	require.Equal(t, []ColumnID{1, 3}, a.Difference(b).ToSlice())
	require.True(t, NewColumnSet(1, 3).SubsetOf(a))
	require.False(t, b.SubsetOf(a))
	require.True(t, a.Equals(NewColumnSet(1, 2, 3)))
	first, ok := a.First()
	require.True(t, ok)
	require.Equal(t, 1, first)
	require.Equal(t, "{1, 2, 3}", a.String())

	c := a.Clone()
	c.Add(9)
	require.False(t, a.Contains(9))
	require.True(t, c.Contains(9))
	require.True(t, empty.Union(b).Equals(b))
	require.True(t, empty.Difference(b).IsEmpty())
}

func TestSExprArity(t *testing.T) {
	tt := newTestTables()
	require.Panics(t, func() {
		NewUnary(&LogicalInnerJoin{}, tt.get(tt.t1))
	})
	require.Panics(t, func() {
		NewBinary(&Filter{}, tt.get(tt.t1), tt.get(tt.t2))
	})
	s := NewBinary(&LogicalInnerJoin{JoinType: JoinCross}, tt.get(tt.t1), tt.get(tt.t2))
	require.Equal(t, 2, s.Arity())
	_, err := s.Child(2)
	require.Error(t, err)
	child, err := s.Child(1)
	require.NoError(t, err)
	require.Equal(t, "t2", child.Plan().(*LogicalGet).Table)
}

func TestMatchPattern(t *testing.T) {
	tt := newTestTables()
	body := tt.selectOne(tt.t2, eq(tt.ref(tt.t2a), tt.ref(tt.t1a)))
	require.True(t, body.MatchPattern(decorrelatePattern))

	anyChild := NewUnary(&Pattern{PatternOp: RelOpProject}, NewLeaf(&Pattern{PatternOp: RelOpPattern}))
	require.True(t, body.MatchPattern(anyChild))

	noFilter := NewUnary(&Project{}, NewUnary(&EvalScalar{}, tt.get(tt.t2)))
	require.False(t, noFilter.MatchPattern(decorrelatePattern))
	require.False(t, body.MatchPattern(body))
}

func TestDeriveRelationalProp(t *testing.T) {
	ctx := context.Background()
	tt := newTestTables()

	// Filter{t2.a = t1.a} <- Get(t2): t1.a is an outer column
	filter := NewUnary(&Filter{Predicates: []ScalarExpr{eq(tt.ref(tt.t2a), tt.ref(tt.t1a))}}, tt.get(tt.t2))
	prop, err := NewRelExpr(ctx, filter).DeriveRelationalProp()
	require.NoError(t, err)
	require.Equal(t, []ColumnID{tt.t2a, tt.t2c}, prop.OutputColumns.ToSlice())
	require.Equal(t, []ColumnID{tt.t1a}, prop.OuterColumns.ToSlice())

	child, err := NewRelExpr(ctx, filter).DeriveRelationalPropChild(0)
	require.NoError(t, err)
	require.True(t, child.OuterColumns.IsEmpty())

	// the apply resolves the correlation
	apply := NewBinary(&CrossApply{CorrelatedColumns: NewColumnSet(tt.t1a)}, tt.get(tt.t1), filter)
	prop, err = NewRelExpr(ctx, apply).DeriveRelationalProp()
	require.NoError(t, err)
	require.Equal(t, []ColumnID{tt.t1a, tt.t1b, tt.t2a, tt.t2c}, prop.OutputColumns.ToSlice())
	require.True(t, prop.OuterColumns.IsEmpty())

	semi := NewBinary(&LogicalInnerJoin{JoinType: JoinSemi}, tt.get(tt.t1), tt.get(tt.t2))
	prop, err = NewRelExpr(ctx, semi).DeriveRelationalProp()
	require.NoError(t, err)
	require.Equal(t, []ColumnID{tt.t1a, tt.t1b}, prop.OutputColumns.ToSlice())

	marker := tt.md.AddColumn("marker", types.NewNullable(types.T_bool), nil)
	mark := NewBinary(&LogicalInnerJoin{JoinType: JoinMark, MarkerIndex: &marker}, tt.get(tt.t2), tt.get(tt.t1))
	prop, err = NewRelExpr(ctx, mark).DeriveRelationalProp()
	require.NoError(t, err)
	require.Equal(t, []ColumnID{tt.t1a, tt.t1b, marker}, prop.OutputColumns.ToSlice())

	cnt := tt.md.AddColumn("count(*)", types.New(types.T_int64), nil)
	agg := NewUnary(&Aggregate{
		GroupItems:         []ScalarItem{{Scalar: tt.ref(tt.t2c), Index: tt.t2c}},
		AggregateFunctions: []ScalarItem{{Scalar: &AggregateFunction{FuncName: "count", Typ: types.New(types.T_int64)}, Index: cnt}},
	}, tt.get(tt.t2))
	prop, err = NewRelExpr(ctx, agg).DeriveRelationalProp()
	require.NoError(t, err)
	require.Equal(t, []ColumnID{tt.t2c, cnt}, prop.OutputColumns.ToSlice())

	project := NewUnary(&Project{Columns: NewColumnSet(tt.t1b)}, tt.get(tt.t1))
	prop, err = NewRelExpr(ctx, project).DeriveRelationalProp()
	require.NoError(t, err)
	require.Equal(t, []ColumnID{tt.t1b}, prop.OutputColumns.ToSlice())

	_, err = NewRelExpr(ctx, NewLeaf(&Pattern{PatternOp: RelOpPattern})).DeriveRelationalProp()
	require.Error(t, err)
}

func TestMetadata(t *testing.T) {
	tt := newTestTables()
	require.Len(t, tt.md.Tables(), 2)
	require.Len(t, tt.md.Columns(), 4)
	col := tt.md.Column(tt.t2c)
	require.Equal(t, "c", col.Name)
	require.Equal(t, tt.t2, *col.TableIndex)

	id := tt.md.AddColumn("marker", types.NewNullable(types.T_bool), nil)
	require.Equal(t, 4, id)
	require.Nil(t, tt.md.Column(id).TableIndex)
	require.Equal(t, "marker (#4)", tt.md.ColumnRef(id).String())
}

func TestClassifyJoinCondition(t *testing.T) {
	tt := newTestTables()
	left := NewColumnSet(tt.t1a, tt.t1b)
	right := NewColumnSet(tt.t2a, tt.t2c)

	jc, ok := classifyJoinCondition(eq(tt.ref(tt.t1b), int64Const(1)), left, right)
	require.True(t, ok)
	require.Equal(t, JoinPredLeft, jc.Kind)

	jc, ok = classifyJoinCondition(eq(int64Const(1), int64Const(1)), left, right)
	require.True(t, ok)
	require.Equal(t, JoinPredRight, jc.Kind)

	// operands are swapped so that Left reads the left side
	jc, ok = classifyJoinCondition(eq(tt.ref(tt.t2c), tt.ref(tt.t1a)), left, right)
	require.True(t, ok)
	require.Equal(t, JoinPredBoth, jc.Kind)
	require.Equal(t, tt.t1a, jc.Left.(*BoundColumnRef).Index)
	cast, isCast := jc.Right.(*CastExpr)
	require.True(t, isCast)
	require.Equal(t, types.T_int64, cast.TargetType.Oid)
	require.False(t, cast.TargetType.Nullable)

	lt := &ComparisonExpr{Op: CmpLT, Left: tt.ref(tt.t1a), Right: tt.ref(tt.t2a)}
	jc, ok = classifyJoinCondition(lt, left, right)
	require.True(t, ok)
	require.Equal(t, JoinPredOther, jc.Kind)

	_, ok = classifyJoinCondition(eq(tt.ref(tt.t1a), &BoundColumnRef{Index: 99}), left, right)
	require.False(t, ok)
}
