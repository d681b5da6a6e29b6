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
	"strings"

	"github.com/matrixorigin/joinunnest/pkg/common/moerr"
	"github.com/matrixorigin/joinunnest/pkg/container/types"
	"github.com/matrixorigin/joinunnest/pkg/sql/colexec"
	"github.com/matrixorigin/joinunnest/pkg/sql/colexec/hashjoin"
	"github.com/matrixorigin/joinunnest/pkg/sql/plan"
	"github.com/matrixorigin/joinunnest/pkg/vm/engine"
	"github.com/matrixorigin/joinunnest/pkg/vm/process"
)

// Compile turns a plan into a tree of scopes ready to run. Subqueries must
// have been rewritten away, a CrossApply is run as a nested loop.
func Compile(proc *process.Process, md *plan.Metadata, e engine.Engine, s *plan.SExpr) (*Scope, error) {
	c := &compile{e: e, md: md, proc: proc}
	return c.compileScope(s, nil)
}

// compileScope compiles s. Columns that s uses but does not produce are
// looked up in outer, the values of the current outer row of an apply.
func (c *compile) compileScope(s *plan.SExpr, outer map[plan.ColumnID]any) (*Scope, error) {
	var children []*Scope
	if _, ok := s.Plan().(*plan.CrossApply); !ok {
		for _, child := range s.Children() {
			cs, err := c.compileScope(child, outer)
			if err != nil {
				return nil, err
			}
			children = append(children, cs)
		}
	}

	switch op := s.Plan().(type) {
	case *plan.LogicalGet:
		return c.compileScan(op.Table, op.Columns, outer)

	case *plan.PhysicalScan:
		return c.compileScan(op.Table, op.Columns, outer)

	case *plan.Filter:
		ss := c.newScope(Filter, outer, children[0])
		ss.setSchema(children[0].Schema, children[0].Types)
		if len(op.Predicates) == 0 {
			return ss, nil
		}
		exec, err := colexec.NewExpressionExecutorFromScalar(c.proc, plan.CombineConjunctions(op.Predicates), ss.Schema, outer)
		if err != nil {
			return nil, err
		}
		ss.exprs = []colexec.ExpressionExecutor{exec}
		return ss, nil

	case *plan.EvalScalar:
		ss := c.newScope(Evaluation, outer, children[0])
		schema := append([]plan.ColumnID{}, children[0].Schema...)
		typs := append([]types.Type{}, children[0].Types...)
		for _, item := range op.Items {
			exec, err := colexec.NewExpressionExecutorFromScalar(c.proc, item.Scalar, children[0].Schema, outer)
			if err != nil {
				return nil, err
			}
			ss.exprs = append(ss.exprs, exec)
			schema = append(schema, item.Index)
			typs = append(typs, exec.ReturnType())
		}
		ss.setSchema(schema, typs)
		return ss, nil

	case *plan.Project:
		ss := c.newScope(Projection, outer, children[0])
		cols := op.Columns.ToSlice()
		typs := make([]types.Type, len(cols))
		for i, col := range cols {
			pos, err := c.position(children[0].Schema, col)
			if err != nil {
				return nil, err
			}
			ss.positions = append(ss.positions, pos)
			typs[i] = children[0].Types[pos]
		}
		ss.setSchema(cols, typs)
		return ss, nil

	case *plan.Aggregate:
		return c.compileAggregate(op, children[0], outer)

	case *plan.Sort:
		ss := c.newScope(Order, outer, children[0])
		ss.setSchema(children[0].Schema, children[0].Types)
		for _, item := range op.Items {
			pos, err := c.position(ss.Schema, item.Index)
			if err != nil {
				return nil, err
			}
			ss.orderBy = append(ss.orderBy, orderKey{pos: pos, asc: item.Asc, nullsFirst: item.NullsFirst})
		}
		return ss, nil

	case *plan.Limit:
		ss := c.newScope(LimitOffset, outer, children[0])
		ss.setSchema(children[0].Schema, children[0].Types)
		ss.limit, ss.offset = op.Limit, op.Offset
		return ss, nil

	case *plan.Max1Row:
		ss := c.newScope(SingleRow, outer, children[0])
		typs := make([]types.Type, len(children[0].Types))
		for i, typ := range children[0].Types {
			typs[i] = typ.WithNullable(true)
		}
		ss.setSchema(children[0].Schema, typs)
		return ss, nil

	case *plan.LogicalInnerJoin:
		probeConds, buildConds := op.LeftConditions, op.RightConditions
		if op.JoinType == plan.JoinMark {
			probeConds, buildConds = op.RightConditions, op.LeftConditions
		}
		return c.compileJoin(op.JoinType, probeConds, buildConds, op.OtherConditions, op.MarkerIndex, children, outer)

	case *plan.PhysicalHashJoin:
		return c.compileJoin(op.JoinType, op.ProbeKeys, op.BuildKeys, op.OtherConditions, op.MarkerIndex, children, outer)

	case *plan.CrossApply:
		return c.compileApply(s, outer)

	default:
		return nil, moerr.NewInternalError(c.proc.Ctx, "cannot execute %s", s.Plan().RelOp())
	}
}

func (c *compile) newScope(magic magicType, outer map[plan.ColumnID]any, children ...*Scope) *Scope {
	return &Scope{
		Magic:     magic,
		PreScopes: children,
		Proc:      c.proc,
		c:         c,
		outer:     outer,
	}
}

func (s *Scope) setSchema(schema []plan.ColumnID, typs []types.Type) {
	s.Schema = schema
	s.Types = typs
	s.Attrs = make([]string, len(schema))
	for i, col := range schema {
		s.Attrs[i] = s.c.md.Column(col).Name
	}
}

func (c *compile) position(schema []plan.ColumnID, col plan.ColumnID) (int, error) {
	for i, id := range schema {
		if id == col {
			return i, nil
		}
	}
	return -1, moerr.NewInternalError(c.proc.Ctx, "column %s not found in input", c.md.ColumnRef(col))
}

func (c *compile) compileScan(table string, cols []plan.ColumnID, outer map[plan.ColumnID]any) (*Scope, error) {
	rel, err := c.e.Relation(c.proc.Ctx, table)
	if err != nil {
		return nil, err
	}
	attrs := rel.Attributes()
	ss := c.newScope(Scan, outer)
	ss.rel = rel
	typs := make([]types.Type, len(cols))
	for i, col := range cols {
		name := c.md.Column(col).Name
		pos := -1
		for j, attr := range attrs {
			if strings.EqualFold(attr.Name, name) {
				pos = j
				break
			}
		}
		if pos < 0 {
			return nil, moerr.NewBadFieldError(c.proc.Ctx, name, table)
		}
		ss.positions = append(ss.positions, pos)
		typs[i] = attrs[pos].Type
	}
	ss.setSchema(cols, typs)
	return ss, nil
}

func (c *compile) compileAggregate(op *plan.Aggregate, child *Scope, outer map[plan.ColumnID]any) (*Scope, error) {
	ss := c.newScope(Aggregation, outer, child)
	var schema []plan.ColumnID
	var typs []types.Type
	for _, item := range op.GroupItems {
		exec, err := colexec.NewExpressionExecutorFromScalar(c.proc, item.Scalar, child.Schema, outer)
		if err != nil {
			return nil, err
		}
		ss.exprs = append(ss.exprs, exec)
		schema = append(schema, item.Index)
		typs = append(typs, exec.ReturnType())
	}
	for _, item := range op.AggregateFunctions {
		fn, ok := item.Scalar.(*plan.AggregateFunction)
		if !ok {
			return nil, moerr.NewInternalError(c.proc.Ctx, "%s is not an aggregate function", item.Scalar)
		}
		agg, err := c.newAggregator(fn, child.Schema, outer)
		if err != nil {
			return nil, err
		}
		ss.aggs = append(ss.aggs, agg)
		schema = append(schema, item.Index)
		typs = append(typs, agg.typ)
	}
	ss.setSchema(schema, typs)
	return ss, nil
}

func (c *compile) newAggregator(fn *plan.AggregateFunction, schema []plan.ColumnID, outer map[plan.ColumnID]any) (*aggregator, error) {
	name := strings.ToLower(fn.FuncName)
	agg := &aggregator{name: name, distinct: fn.Distinct}
	switch name {
	case "count", "sum", "min", "max":
	default:
		return nil, moerr.NewNotSupported(c.proc.Ctx, "aggregate function %s", fn.FuncName)
	}
	switch len(fn.Args) {
	case 0:
		if name != "count" {
			return nil, moerr.NewInvalidInput(c.proc.Ctx, "%s needs an argument", name)
		}
	case 1:
		exec, err := colexec.NewExpressionExecutorFromScalar(c.proc, fn.Args[0], schema, outer)
		if err != nil {
			return nil, err
		}
		agg.arg = exec
	default:
		return nil, moerr.NewInvalidInput(c.proc.Ctx, "%s takes one argument, got %d", name, len(fn.Args))
	}

	switch name {
	case "count":
		agg.typ = types.New(types.T_int64)
	case "sum":
		argType := agg.arg.ReturnType()
		switch {
		case argType.IsFloat():
			agg.typ = types.NewNullable(types.T_float64)
		case argType.IsUnsigned():
			agg.typ = types.NewNullable(types.T_uint64)
		case argType.IsSigned():
			agg.typ = types.NewNullable(types.T_int64)
		default:
			return nil, moerr.NewInvalidArg(c.proc.Ctx, "sum", argType.String())
		}
	default:
		agg.typ = agg.arg.ReturnType().WithNullable(true)
	}
	return agg, nil
}

// compileJoin puts the probe side first. Keys are cast to their common type
// so both sides hash the same bytes.
func (c *compile) compileJoin(typ plan.JoinType, probeConds, buildConds, others []plan.ScalarExpr,
	marker *plan.ColumnID, children []*Scope, outer map[plan.ColumnID]any) (*Scope, error) {
	probe, build := children[0], children[1]
	if typ == plan.JoinMark {
		probe, build = children[1], children[0]
	}
	if len(probeConds) != len(buildConds) {
		return nil, moerr.NewInternalError(c.proc.Ctx, "join has %d left and %d right conditions", len(probeConds), len(buildConds))
	}

	desc := hashjoin.HashJoinDesc{JoinType: typ, MarkerIndex: marker}
	for i := range probeConds {
		pe, err := colexec.BindExpr(c.proc.Ctx, probeConds[i], probe.Schema, outer)
		if err != nil {
			return nil, err
		}
		be, err := colexec.BindExpr(c.proc.Ctx, buildConds[i], build.Schema, outer)
		if err != nil {
			return nil, err
		}
		keyType, ok := types.MergeTypes(pe.Typ, be.Typ)
		if !ok {
			return nil, moerr.NewInvalidInput(c.proc.Ctx, "cannot compare %s with %s", pe.Typ, be.Typ)
		}
		probeKey, err := colexec.NewExpressionExecutor(c.proc, colexec.NewCastExpr(pe, keyType))
		if err != nil {
			return nil, err
		}
		buildKey, err := colexec.NewExpressionExecutor(c.proc, colexec.NewCastExpr(be, keyType))
		if err != nil {
			return nil, err
		}
		desc.ProbeKeys = append(desc.ProbeKeys, probeKey)
		desc.BuildKeys = append(desc.BuildKeys, buildKey)
	}
	if len(others) > 0 {
		pair := append(append([]plan.ColumnID{}, probe.Schema...), build.Schema...)
		exec, err := colexec.NewExpressionExecutorFromScalar(c.proc, plan.CombineConjunctions(others), pair, outer)
		if err != nil {
			return nil, err
		}
		desc.OtherPredicate = exec
	}

	ss := c.newScope(HashJoin, outer, probe, build)
	ss.join = &joinArg{
		desc:        desc,
		buildSchema: hashjoin.DataSchema{Attrs: build.Attrs, Types: build.Types},
	}
	schema := append([]plan.ColumnID{}, probe.Schema...)
	typs := append([]types.Type{}, probe.Types...)
	switch typ {
	case plan.JoinSemi, plan.JoinAnti:
	case plan.JoinMark:
		if marker == nil {
			return nil, moerr.NewInternalError(c.proc.Ctx, "mark join without marker column")
		}
		schema = append(schema, *marker)
		typs = append(typs, types.NewNullable(types.T_bool))
	case plan.JoinLeft:
		schema = append(schema, build.Schema...)
		for _, t := range build.Types {
			typs = append(typs, t.WithNullable(true))
		}
	default:
		schema = append(schema, build.Schema...)
		typs = append(typs, build.Types...)
	}
	ss.setSchema(schema, typs)
	return ss, nil
}

// compileApply compiles the right side once without outer values, only to
// learn its schema. It is compiled again for every row of the left side.
func (c *compile) compileApply(s *plan.SExpr, outer map[plan.ColumnID]any) (*Scope, error) {
	left, err := c.compileScope(s.Children()[0], outer)
	if err != nil {
		return nil, err
	}
	probe := make(map[plan.ColumnID]any, len(outer)+len(left.Schema))
	for col, val := range outer {
		probe[col] = val
	}
	for _, col := range left.Schema {
		probe[col] = nil
	}
	right, err := c.compileScope(s.Children()[1], probe)
	if err != nil {
		return nil, err
	}
	right.Release()

	ss := c.newScope(Apply, outer, left)
	ss.apply = s.Children()[1]
	ss.setSchema(append(append([]plan.ColumnID{}, left.Schema...), right.Schema...),
		append(append([]types.Type{}, left.Types...), right.Types...))
	return ss, nil
}
