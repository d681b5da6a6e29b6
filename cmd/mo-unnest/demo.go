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

package main

import (
	"context"

	"github.com/matrixorigin/joinunnest/pkg/container/types"
	"github.com/matrixorigin/joinunnest/pkg/sql/plan"
	"github.com/matrixorigin/joinunnest/pkg/vm/engine"
	"github.com/matrixorigin/joinunnest/pkg/vm/engine/memoryengine"
)

var demoNames = []string{"exists", "notexists", "in", "scalar"}

var demos = map[string]func(env *demoEnv) (string, *plan.SExpr){
	"exists": func(env *demoEnv) (string, *plan.SExpr) {
		return "SELECT * FROM t1 WHERE EXISTS (SELECT 1 FROM t2 WHERE t2.a = t1.a)",
			env.existsQuery(plan.SubqueryExists)
	},
	"notexists": func(env *demoEnv) (string, *plan.SExpr) {
		return "SELECT * FROM t1 WHERE NOT EXISTS (SELECT 1 FROM t2 WHERE t2.a = t1.a)",
			env.existsQuery(plan.SubqueryNotExists)
	},
	"in": func(env *demoEnv) (string, *plan.SExpr) {
		return "SELECT t1.a, t1.a IN (SELECT t2.a FROM t2) FROM t1", env.inQuery()
	},
	"scalar": func(env *demoEnv) (string, *plan.SExpr) {
		return "SELECT t1.a, (SELECT max(t2.c) FROM t2 WHERE t2.a = t1.a) FROM t1", env.scalarQuery()
	},
}

type demoEnv struct {
	md *plan.Metadata
	e  *memoryengine.Engine
	// t1.a, t1.b, t2.a, t2.c
	t1a, t1b, t2a, t2c plan.ColumnID
	t1, t2             int
}

func newDemoEnv(ctx context.Context) (*demoEnv, error) {
	t1Attrs := []engine.Attribute{
		{Name: "a", Type: types.NewNullable(types.T_int64)},
		{Name: "b", Type: types.New(types.T_int64)},
	}
	t2Attrs := []engine.Attribute{
		{Name: "a", Type: types.NewNullable(types.T_int64)},
		{Name: "c", Type: types.New(types.T_int32)},
	}
	env := &demoEnv{md: plan.NewMetadata(), e: memoryengine.New()}
	err := memoryengine.CreateTable(ctx, env.e, "t1", t1Attrs, [][]any{
		{int64(1), int64(10)},
		{int64(2), int64(20)},
		{int64(5), int64(50)},
		{nil, int64(0)},
	})
	if err != nil {
		return nil, err
	}
	err = memoryengine.CreateTable(ctx, env.e, "t2", t2Attrs, [][]any{
		{int64(1), int32(100)},
		{int64(1), int32(101)},
		{int64(3), int32(103)},
		{nil, int32(0)},
	})
	if err != nil {
		return nil, err
	}
	env.t1 = env.md.AddTable("t1", t1Attrs)
	env.t2 = env.md.AddTable("t2", t2Attrs)
	env.t1a, env.t1b = env.md.Table(env.t1).Columns[0], env.md.Table(env.t1).Columns[1]
	env.t2a, env.t2c = env.md.Table(env.t2).Columns[0], env.md.Table(env.t2).Columns[1]
	return env, nil
}

func (env *demoEnv) get(table int) *plan.SExpr {
	return plan.NewLeaf(plan.NewLogicalGet(env.md, table))
}

func (env *demoEnv) correlation() plan.ScalarExpr {
	return &plan.ComparisonExpr{Op: plan.CmpEqual, Left: env.md.ColumnRef(env.t2a), Right: env.md.ColumnRef(env.t1a)}
}

func (env *demoEnv) existsQuery(typ plan.SubqueryType) *plan.SExpr {
	one := env.md.AddColumn("1", types.New(types.T_int64), nil)
	body := plan.NewUnary(&plan.Filter{Predicates: []plan.ScalarExpr{env.correlation()}}, env.get(env.t2))
	body = plan.NewUnary(&plan.EvalScalar{Items: []plan.ScalarItem{{
		Scalar: &plan.ConstantExpr{Value: int64(1), Typ: types.New(types.T_int64)},
		Index:  one,
	}}}, body)
	body = plan.NewUnary(&plan.Project{Columns: plan.NewColumnSet(one)}, body)
	sub := &plan.SubqueryExpr{
		Subquery:     body,
		Typ:          typ,
		OuterColumns: plan.NewColumnSet(env.t1a),
		DataTyp:      types.New(types.T_bool),
	}
	return plan.NewUnary(&plan.Filter{Predicates: []plan.ScalarExpr{sub}}, env.get(env.t1))
}

func (env *demoEnv) inQuery() *plan.SExpr {
	in := env.md.AddColumn("in", types.NewNullable(types.T_bool), nil)
	sub := &plan.SubqueryExpr{
		Subquery:  plan.NewUnary(&plan.Project{Columns: plan.NewColumnSet(env.t2a)}, env.get(env.t2)),
		Typ:       plan.SubqueryAny,
		ChildExpr: env.md.ColumnRef(env.t1a),
		CompareOp: plan.CmpEqual,
		DataTyp:   types.NewNullable(types.T_bool),
	}
	s := plan.NewUnary(&plan.EvalScalar{Items: []plan.ScalarItem{{Scalar: sub, Index: in}}}, env.get(env.t1))
	return plan.NewUnary(&plan.Project{Columns: plan.NewColumnSet(env.t1a, in)}, s)
}

func (env *demoEnv) scalarQuery() *plan.SExpr {
	maxc := env.md.AddColumn("max(t2.c)", types.NewNullable(types.T_int32), nil)
	body := plan.NewUnary(&plan.Filter{Predicates: []plan.ScalarExpr{env.correlation()}}, env.get(env.t2))
	body = plan.NewUnary(&plan.Aggregate{AggregateFunctions: []plan.ScalarItem{{
		Scalar: &plan.AggregateFunction{
			FuncName: "max",
			Args:     []plan.ScalarExpr{env.md.ColumnRef(env.t2c)},
			Typ:      types.NewNullable(types.T_int32),
		},
		Index: maxc,
	}}}, body)
	x := env.md.AddColumn("x", types.NewNullable(types.T_int32), nil)
	sub := &plan.SubqueryExpr{
		Subquery:     body,
		Typ:          plan.SubqueryScalar,
		OuterColumns: plan.NewColumnSet(env.t1a),
		DataTyp:      types.NewNullable(types.T_int32),
	}
	s := plan.NewUnary(&plan.EvalScalar{Items: []plan.ScalarItem{{Scalar: sub, Index: x}}}, env.get(env.t1))
	return plan.NewUnary(&plan.Project{Columns: plan.NewColumnSet(env.t1a, x)}, s)
}
