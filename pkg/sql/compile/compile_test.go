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
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/joinunnest/pkg/common/moerr"
	"github.com/matrixorigin/joinunnest/pkg/container/batch"
	"github.com/matrixorigin/joinunnest/pkg/container/types"
	"github.com/matrixorigin/joinunnest/pkg/sql/colexec/hashjoin"
	"github.com/matrixorigin/joinunnest/pkg/sql/plan"
	"github.com/matrixorigin/joinunnest/pkg/vm/engine"
	"github.com/matrixorigin/joinunnest/pkg/vm/engine/memoryengine"
	mock_engine "github.com/matrixorigin/joinunnest/pkg/vm/engine/test"
	"github.com/matrixorigin/joinunnest/pkg/vm/process"
)

var (
	t1Attrs = []engine.Attribute{
		{Name: "a", Type: types.NewNullable(types.T_int64)},
		{Name: "b", Type: types.New(types.T_int64)},
	}
	t2Attrs = []engine.Attribute{
		{Name: "a", Type: types.NewNullable(types.T_int64)},
		{Name: "c", Type: types.New(types.T_int32)},
	}
)

type testEnv struct {
	proc   *process.Process
	md     *plan.Metadata
	e      *memoryengine.Engine
	t1, t2 int
	// t1.a, t1.b, t2.a, t2.c
	t1a, t1b, t2a, t2c plan.ColumnID
}

func newTestEnv(t *testing.T, t1Rows, t2Rows [][]any) *testEnv {
	ctx := context.Background()
	env := &testEnv{
		proc: process.NewTestProcess(),
		md:   plan.NewMetadata(),
		e:    memoryengine.New(),
	}
	require.NoError(t, memoryengine.CreateTable(ctx, env.e, "t1", t1Attrs, t1Rows))
	require.NoError(t, memoryengine.CreateTable(ctx, env.e, "t2", t2Attrs, t2Rows))
	env.t1 = env.md.AddTable("t1", t1Attrs)
	env.t2 = env.md.AddTable("t2", t2Attrs)
	env.t1a, env.t1b = env.md.Table(env.t1).Columns[0], env.md.Table(env.t1).Columns[1]
	env.t2a, env.t2c = env.md.Table(env.t2).Columns[0], env.md.Table(env.t2).Columns[1]
	return env
}

func (env *testEnv) get(table int) *plan.SExpr {
	return plan.NewLeaf(plan.NewLogicalGet(env.md, table))
}

func (env *testEnv) ref(col plan.ColumnID) *plan.BoundColumnRef {
	return env.md.ColumnRef(col)
}

// selectOne builds SELECT 1 FROM t2 WHERE preds.
func (env *testEnv) selectOne(preds ...plan.ScalarExpr) *plan.SExpr {
	one := env.md.AddColumn("1", types.New(types.T_int64), nil)
	s := plan.NewUnary(&plan.Filter{Predicates: preds}, env.get(env.t2))
	s = plan.NewUnary(&plan.EvalScalar{Items: []plan.ScalarItem{{Scalar: int64Const(1), Index: one}}}, s)
	return plan.NewUnary(&plan.Project{Columns: plan.NewColumnSet(one)}, s)
}

func (env *testEnv) run(t *testing.T, s *plan.SExpr) ([]plan.ColumnID, [][]any) {
	ss, err := Compile(env.proc, env.md, env.e, s)
	require.NoError(t, err)
	defer ss.Release()
	bat, err := ss.Run()
	require.NoError(t, err)
	return ss.Schema, rowsOf(bat)
}

func (env *testEnv) runRewritten(t *testing.T, s *plan.SExpr) [][]any {
	out, err := plan.DecorrelateSubquery(env.proc.Ctx, env.md, s)
	require.NoError(t, err)
	_, rows := env.run(t, out)
	return rows
}

func eq(l, r plan.ScalarExpr) *plan.ComparisonExpr {
	return &plan.ComparisonExpr{Op: plan.CmpEqual, Left: l, Right: r}
}

func int64Const(v int64) *plan.ConstantExpr {
	return &plan.ConstantExpr{Value: v, Typ: types.New(types.T_int64)}
}

func rowsOf(bat *batch.Batch) [][]any {
	rows := make([][]any, bat.RowCount())
	for i := range rows {
		for _, vec := range bat.Vecs {
			rows[i] = append(rows[i], vec.GetAny(i))
		}
	}
	return rows
}

func sortedRows(rows [][]any) [][]any {
	sort.SliceStable(rows, func(i, j int) bool {
		return fmt.Sprint(rows[i]) < fmt.Sprint(rows[j])
	})
	return rows
}

func TestExistsBecomesSemiJoin(t *testing.T) {
	env := newTestEnv(t,
		[][]any{{int64(1), int64(10)}, {int64(2), int64(20)}},
		[][]any{{int64(1), int32(100)}, {int64(1), int32(101)}, {int64(3), int32(103)}})
	// SELECT * FROM t1 WHERE EXISTS (SELECT 1 FROM t2 WHERE t2.a = t1.a)
	sub := &plan.SubqueryExpr{
		Subquery:     env.selectOne(eq(env.ref(env.t2a), env.ref(env.t1a))),
		Typ:          plan.SubqueryExists,
		OuterColumns: plan.NewColumnSet(env.t1a),
		DataTyp:      types.New(types.T_bool),
	}
	s := plan.NewUnary(&plan.Filter{Predicates: []plan.ScalarExpr{sub}}, env.get(env.t1))

	out, err := plan.DecorrelateSubquery(env.proc.Ctx, env.md, s)
	require.NoError(t, err)
	require.Equal(t, plan.JoinSemi, out.Children()[0].Plan().(*plan.LogicalInnerJoin).JoinType)

	schema, rows := env.run(t, out)
	require.Equal(t, []plan.ColumnID{env.t1a, env.t1b}, schema)
	// two matching t2 rows still emit t1 once
	require.Equal(t, [][]any{{int64(1), int64(10)}}, rows)
}

func TestInSubqueryMarker(t *testing.T) {
	env := newTestEnv(t,
		[][]any{{int64(5), int64(50)}, {int64(1), int64(10)}},
		[][]any{{int64(1), int32(100)}, {nil, int32(101)}, {int64(3), int32(103)}})
	// SELECT t1.a, t1.a IN (SELECT t2.a FROM t2) FROM t1
	in := env.md.AddColumn("in", types.NewNullable(types.T_bool), nil)
	sub := &plan.SubqueryExpr{
		Subquery:  plan.NewUnary(&plan.Project{Columns: plan.NewColumnSet(env.t2a)}, env.get(env.t2)),
		Typ:       plan.SubqueryAny,
		ChildExpr: env.ref(env.t1a),
		CompareOp: plan.CmpEqual,
		DataTyp:   types.NewNullable(types.T_bool),
	}
	s := plan.NewUnary(&plan.EvalScalar{Items: []plan.ScalarItem{{Scalar: sub, Index: in}}}, env.get(env.t1))
	s = plan.NewUnary(&plan.Project{Columns: plan.NewColumnSet(env.t1a, in)}, s)

	rows := env.runRewritten(t, s)
	// 5 is not in t2 but t2 holds a NULL: unknown, not false
	require.Equal(t, [][]any{{int64(5), nil}, {int64(1), true}}, rows)
}

func TestInSubqueryWithoutNulls(t *testing.T) {
	env := newTestEnv(t,
		[][]any{{int64(5), int64(50)}, {nil, int64(0)}, {int64(3), int64(30)}},
		[][]any{{int64(1), int32(100)}, {int64(3), int32(103)}})
	in := env.md.AddColumn("in", types.NewNullable(types.T_bool), nil)
	sub := &plan.SubqueryExpr{
		Subquery:  plan.NewUnary(&plan.Project{Columns: plan.NewColumnSet(env.t2a)}, env.get(env.t2)),
		Typ:       plan.SubqueryAny,
		ChildExpr: env.ref(env.t1a),
		CompareOp: plan.CmpEqual,
		DataTyp:   types.NewNullable(types.T_bool),
	}
	s := plan.NewUnary(&plan.EvalScalar{Items: []plan.ScalarItem{{Scalar: sub, Index: in}}}, env.get(env.t1))
	s = plan.NewUnary(&plan.Project{Columns: plan.NewColumnSet(env.t1a, in)}, s)

	rows := env.runRewritten(t, s)
	require.Equal(t, [][]any{{int64(5), false}, {nil, nil}, {int64(3), true}}, rows)
}

// The decorrelated join and the nested loop fallback must agree. Wrapping
// the subquery into AND keeps it out of the conjunct list, which forces
// the fallback.
func TestDecorrelationEquivalence(t *testing.T) {
	t1Rows := [][]any{
		{int64(1), int64(10)},
		{int64(2), int64(20)},
		{nil, int64(30)},
		{int64(3), int64(5)},
	}
	t2Rows := [][]any{
		{int64(1), int32(5)},
		{int64(1), int32(15)},
		{int64(3), int32(1)},
		{nil, int32(100)},
	}
	for _, typ := range []plan.SubqueryType{plan.SubqueryExists, plan.SubqueryNotExists} {
		for _, other := range []bool{false, true} {
			t.Run(fmt.Sprintf("%s/other=%v", typ, other), func(t *testing.T) {
				env := newTestEnv(t, t1Rows, t2Rows)
				build := func(wrap bool) *plan.SExpr {
					preds := []plan.ScalarExpr{eq(env.ref(env.t2a), env.ref(env.t1a))}
					if other {
						preds = append(preds, &plan.ComparisonExpr{Op: plan.CmpGT, Left: env.ref(env.t2c), Right: env.ref(env.t1b)})
					}
					var pred plan.ScalarExpr = &plan.SubqueryExpr{
						Subquery:     env.selectOne(preds...),
						Typ:          typ,
						OuterColumns: plan.NewColumnSet(env.t1a, env.t1b),
						DataTyp:      types.New(types.T_bool),
					}
					if wrap {
						pred = &plan.AndExpr{Left: pred, Right: &plan.ConstantExpr{Value: true, Typ: types.New(types.T_bool)}}
					}
					s := plan.NewUnary(&plan.Filter{Predicates: []plan.ScalarExpr{pred}}, env.get(env.t1))
					return plan.NewUnary(&plan.Project{Columns: plan.NewColumnSet(env.t1a, env.t1b)}, s)
				}

				joined, err := plan.DecorrelateSubquery(env.proc.Ctx, env.md, build(false))
				require.NoError(t, err)
				require.Equal(t, plan.RelOpLogicalInnerJoin, joined.Children()[0].Children()[0].Plan().RelOp())
				applied, err := plan.DecorrelateSubquery(env.proc.Ctx, env.md, build(true))
				require.NoError(t, err)
				require.Equal(t, plan.RelOpCrossApply, applied.Children()[0].Children()[0].Plan().RelOp())

				_, joinRows := env.run(t, joined)
				_, applyRows := env.run(t, applied)
				require.Equal(t, sortedRows(applyRows), sortedRows(joinRows))

				matched := [][]any{{int64(1), int64(10)}, {int64(3), int64(5)}}
				if other {
					matched = matched[:1]
				}
				if typ == plan.SubqueryExists {
					require.Equal(t, matched, joinRows)
				} else {
					require.Len(t, joinRows, len(t1Rows)-len(matched))
				}
			})
		}
	}
}

func TestScalarSubquery(t *testing.T) {
	t2Rows := [][]any{{int64(1), int32(5)}, {int64(1), int32(15)}, {int64(3), int32(1)}}
	correlated := func(env *testEnv) *plan.SExpr {
		// SELECT t1.a, (SELECT t2.c FROM t2 WHERE t2.a = t1.a) FROM t1
		x := env.md.AddColumn("x", types.NewNullable(types.T_int32), nil)
		body := plan.NewUnary(&plan.Project{Columns: plan.NewColumnSet(env.t2c)},
			plan.NewUnary(&plan.Filter{Predicates: []plan.ScalarExpr{eq(env.ref(env.t2a), env.ref(env.t1a))}}, env.get(env.t2)))
		sub := &plan.SubqueryExpr{
			Subquery:     body,
			Typ:          plan.SubqueryScalar,
			OuterColumns: plan.NewColumnSet(env.t1a),
			DataTyp:      types.NewNullable(types.T_int32),
		}
		s := plan.NewUnary(&plan.EvalScalar{Items: []plan.ScalarItem{{Scalar: sub, Index: x}}}, env.get(env.t1))
		return plan.NewUnary(&plan.Project{Columns: plan.NewColumnSet(env.t1a, x)}, s)
	}

	env := newTestEnv(t, [][]any{{int64(3), int64(0)}, {int64(2), int64(0)}}, t2Rows)
	rows := env.runRewritten(t, correlated(env))
	require.Equal(t, [][]any{{int64(3), int32(1)}, {int64(2), nil}}, rows)

	env = newTestEnv(t, [][]any{{int64(1), int64(0)}}, t2Rows)
	out, err := plan.DecorrelateSubquery(env.proc.Ctx, env.md, correlated(env))
	require.NoError(t, err)
	ss, err := Compile(env.proc, env.md, env.e, out)
	require.NoError(t, err)
	_, err = ss.Run()
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrScalarSubqueryRow))

	// uncorrelated and empty: a cross join with a row of NULLs
	env = newTestEnv(t, [][]any{{int64(1), int64(0)}, {int64(2), int64(0)}}, t2Rows)
	x := env.md.AddColumn("x", types.NewNullable(types.T_int32), nil)
	body := plan.NewUnary(&plan.Project{Columns: plan.NewColumnSet(env.t2c)},
		plan.NewUnary(&plan.Filter{Predicates: []plan.ScalarExpr{eq(env.ref(env.t2a), int64Const(7))}}, env.get(env.t2)))
	sub := &plan.SubqueryExpr{Subquery: body, Typ: plan.SubqueryScalar, DataTyp: types.NewNullable(types.T_int32)}
	s := plan.NewUnary(&plan.EvalScalar{Items: []plan.ScalarItem{{Scalar: sub, Index: x}}}, env.get(env.t1))
	s = plan.NewUnary(&plan.Project{Columns: plan.NewColumnSet(env.t1a, x)}, s)
	rows = env.runRewritten(t, s)
	require.Equal(t, [][]any{{int64(1), nil}, {int64(2), nil}}, rows)
}

func TestAggregateSortLimit(t *testing.T) {
	env := newTestEnv(t, nil, [][]any{
		{int64(1), int32(5)},
		{int64(1), int32(15)},
		{int64(3), int32(1)},
		{nil, int32(100)},
		{nil, int32(7)},
	})
	g := env.md.AddColumn("g", types.NewNullable(types.T_int64), nil)
	cnt := env.md.AddColumn("count(*)", types.New(types.T_int64), nil)
	sum := env.md.AddColumn("sum(c)", types.NewNullable(types.T_int64), nil)
	lo := env.md.AddColumn("min(c)", types.NewNullable(types.T_int32), nil)
	hi := env.md.AddColumn("max(c)", types.NewNullable(types.T_int32), nil)
	c := env.ref(env.t2c)
	agg := plan.NewUnary(&plan.Aggregate{
		GroupItems: []plan.ScalarItem{{Scalar: env.ref(env.t2a), Index: g}},
		AggregateFunctions: []plan.ScalarItem{
			{Scalar: &plan.AggregateFunction{FuncName: "count", Typ: types.New(types.T_int64)}, Index: cnt},
			{Scalar: &plan.AggregateFunction{FuncName: "sum", Args: []plan.ScalarExpr{c}, Typ: types.NewNullable(types.T_int64)}, Index: sum},
			{Scalar: &plan.AggregateFunction{FuncName: "min", Args: []plan.ScalarExpr{c}, Typ: types.NewNullable(types.T_int32)}, Index: lo},
			{Scalar: &plan.AggregateFunction{FuncName: "max", Args: []plan.ScalarExpr{c}, Typ: types.NewNullable(types.T_int32)}, Index: hi},
		},
	}, env.get(env.t2))
	sorted := plan.NewUnary(&plan.Sort{Items: []plan.SortItem{{Index: g, Asc: true, NullsFirst: true}}}, agg)

	schema, rows := env.run(t, sorted)
	require.Equal(t, []plan.ColumnID{g, cnt, sum, lo, hi}, schema)
	require.Equal(t, [][]any{
		{nil, int64(2), int64(107), int32(7), int32(100)},
		{int64(1), int64(2), int64(20), int32(5), int32(15)},
		{int64(3), int64(1), int64(1), int32(1), int32(1)},
	}, rows)

	desc := plan.NewUnary(&plan.Sort{Items: []plan.SortItem{{Index: g}}}, agg)
	_, rows = env.run(t, plan.NewUnary(&plan.Limit{Limit: 1, Offset: 1}, desc))
	require.Equal(t, [][]any{{int64(1), int64(2), int64(20), int32(5), int32(15)}}, rows)

	_, rows = env.run(t, plan.NewUnary(&plan.Limit{Limit: -1, Offset: 2}, sorted))
	require.Len(t, rows, 1)
	require.Equal(t, int64(3), rows[0][0])
}

func TestAggregateWithoutGroups(t *testing.T) {
	env := newTestEnv(t, nil, [][]any{
		{int64(1), int32(5)},
		{int64(1), int32(15)},
		{int64(3), int32(1)},
		{nil, int32(100)},
	})
	a := env.ref(env.t2a)
	items := []plan.ScalarItem{
		{Scalar: &plan.AggregateFunction{FuncName: "count"}},
		{Scalar: &plan.AggregateFunction{FuncName: "count", Args: []plan.ScalarExpr{a}}},
		{Scalar: &plan.AggregateFunction{FuncName: "count", Distinct: true, Args: []plan.ScalarExpr{a}}},
		{Scalar: &plan.AggregateFunction{FuncName: "sum", Args: []plan.ScalarExpr{a}}},
	}
	for i := range items {
		items[i].Index = env.md.AddColumn(fmt.Sprintf("agg%d", i), types.NewNullable(types.T_int64), nil)
	}
	agg := plan.NewUnary(&plan.Aggregate{AggregateFunctions: items}, env.get(env.t2))
	_, rows := env.run(t, agg)
	require.Equal(t, [][]any{{int64(4), int64(3), int64(2), int64(5)}}, rows)

	// an empty input still has its single group
	empty := plan.NewUnary(&plan.Filter{Predicates: []plan.ScalarExpr{
		&plan.ConstantExpr{Value: false, Typ: types.New(types.T_bool)},
	}}, env.get(env.t2))
	_, rows = env.run(t, plan.NewUnary(&plan.Aggregate{AggregateFunctions: items}, empty))
	require.Equal(t, [][]any{{int64(0), int64(0), int64(0), nil}}, rows)

	_, err := Compile(env.proc, env.md, env.e, plan.NewUnary(&plan.Aggregate{
		AggregateFunctions: []plan.ScalarItem{{Scalar: &plan.AggregateFunction{FuncName: "median", Args: []plan.ScalarExpr{a}}}},
	}, env.get(env.t2)))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNotSupported))
}

func TestParallelHashJoin(t *testing.T) {
	var t1Rows, t2Rows [][]any
	for i := 0; i < 40; i++ {
		t1Rows = append(t1Rows, []any{int64(i % 10), int64(i)})
	}
	for i := 0; i < 30; i++ {
		t2Rows = append(t2Rows, []any{int64(i % 5), int32(i)})
	}
	for _, typ := range []plan.JoinType{plan.JoinInner, plan.JoinLeft, plan.JoinSemi, plan.JoinAnti} {
		t.Run(typ.String(), func(t *testing.T) {
			env := newTestEnv(t, t1Rows, t2Rows)
			join := plan.NewBinary(&plan.LogicalInnerJoin{
				JoinType:        typ,
				LeftConditions:  []plan.ScalarExpr{env.ref(env.t1a)},
				RightConditions: []plan.ScalarExpr{env.ref(env.t2a)},
			}, env.get(env.t1), env.get(env.t2))

			_, serial := env.run(t, join)
			env.proc.Lim.BatchRows = 7
			env.proc.Lim.OutputBatchRows = 5
			env.proc.Lim.BuildWorkers = 3
			env.proc.Lim.ProbeWorkers = 4
			_, parallel := env.run(t, join)
			// build chunks are pushed in any order, so matches may too
			require.Equal(t, sortedRows(serial), sortedRows(parallel))

			want := map[plan.JoinType]int{
				plan.JoinInner: 120,
				plan.JoinLeft:  140,
				plan.JoinSemi:  20,
				plan.JoinAnti:  20,
			}[typ]
			require.Len(t, parallel, want)
		})
	}
}

func TestCrossJoin(t *testing.T) {
	env := newTestEnv(t,
		[][]any{{int64(1), int64(10)}, {int64(2), int64(20)}},
		[][]any{{int64(7), int32(70)}, {int64(8), int32(80)}, {int64(9), int32(90)}})
	join := plan.NewBinary(&plan.LogicalInnerJoin{JoinType: plan.JoinCross}, env.get(env.t1), env.get(env.t2))
	schema, rows := env.run(t, join)
	require.Equal(t, []plan.ColumnID{env.t1a, env.t1b, env.t2a, env.t2c}, schema)
	require.Len(t, rows, 6)
	require.Equal(t, []any{int64(1), int64(10), int64(7), int32(70)}, rows[0])
}

func TestCompileErrors(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	missing := env.md.AddTable("t3", t1Attrs)
	_, err := Compile(env.proc, env.md, env.e, env.get(missing))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNoSuchTable))

	renamed := env.md.AddTable("t2", []engine.Attribute{{Name: "z", Type: types.New(types.T_int64)}})
	_, err = Compile(env.proc, env.md, env.e, env.get(renamed))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadFieldError))

	filter := plan.NewUnary(&plan.Filter{Predicates: []plan.ScalarExpr{eq(env.ref(env.t2a), int64Const(1))}}, env.get(env.t1))
	_, err = Compile(env.proc, env.md, env.e, filter)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInternal))
}

func TestRunCanceled(t *testing.T) {
	env := newTestEnv(t, [][]any{{int64(1), int64(10)}}, nil)
	ss, err := Compile(env.proc, env.md, env.e, env.get(env.t1))
	require.NoError(t, err)
	env.proc.Cancel()
	_, err = ss.Run()
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrQueryInterrupted))
}

func TestEngineErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	proc := process.NewTestProcess()
	md := plan.NewMetadata()
	t1 := md.AddTable("t1", t1Attrs)
	get := plan.NewLeaf(plan.NewLogicalGet(md, t1))

	eng := mock_engine.NewMockEngine(ctrl)
	eng.EXPECT().Relation(gomock.Any(), "t1").Return(nil, moerr.NewNoSuchTable(ctx, "db", "t1"))
	_, err := Compile(proc, md, eng, get)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNoSuchTable))

	rel := mock_engine.NewMockRelation(ctrl)
	rd := mock_engine.NewMockReader(ctrl)
	eng.EXPECT().Relation(gomock.Any(), "t1").Return(rel, nil)
	rel.EXPECT().Attributes().Return(t1Attrs)
	rel.EXPECT().NewReader(gomock.Any(), proc.GetBatchRows()).Return(rd, nil)
	rd.EXPECT().Read(gomock.Any()).Return(nil, moerr.NewUnexpectedEOF(ctx, "t1"))
	rd.EXPECT().Close().Return(nil)

	ss, err := Compile(proc, md, eng, get)
	require.NoError(t, err)
	_, err = ss.Run()
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrUnexpectedEOF))
}

// limitedAttach refuses attaches past limit and counts detaches.
type limitedAttach struct {
	hashjoin.HashJoinState
	limit    int
	attached int
	detached int
}

func (a *limitedAttach) Attach() error {
	if a.attached == a.limit {
		return moerr.NewInvalidState(context.Background(), "hash table already finished")
	}
	a.attached++
	return nil
}

func (a *limitedAttach) Detach() error {
	a.detached++
	return nil
}

func TestAttachWorkersReleasesOnFailure(t *testing.T) {
	ht := &limitedAttach{limit: 2}
	err := attachWorkers(ht, 4)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidState))
	require.Equal(t, 2, ht.attached)
	require.Equal(t, 2, ht.detached)

	ht = &limitedAttach{limit: 4}
	require.NoError(t, attachWorkers(ht, 4))
	require.Equal(t, 0, ht.detached)
}
