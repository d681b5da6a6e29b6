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

package colexec

import (
	"context"

	"github.com/matrixorigin/joinunnest/pkg/common/moerr"
	"github.com/matrixorigin/joinunnest/pkg/container/types"
	"github.com/matrixorigin/joinunnest/pkg/sql/plan"
)

var comparisonFunctions = map[plan.ComparisonOp]string{
	plan.CmpEqual:    "=",
	plan.CmpNotEqual: "<>",
	plan.CmpLT:       "<",
	plan.CmpLTE:      "<=",
	plan.CmpGT:       ">",
	plan.CmpGTE:      ">=",
}

// BindExpr compiles a plan scalar into a physical expression over a batch
// whose columns are schema, in order. A column missing from schema is
// taken from outer as a constant, it is an error if outer misses it too.
func BindExpr(ctx context.Context, scalar plan.ScalarExpr, schema []plan.ColumnID, outer map[plan.ColumnID]any) (*Expr, error) {
	switch e := scalar.(type) {
	case *plan.BoundColumnRef:
		for i, col := range schema {
			if col == e.Index {
				return NewColExpr(0, int32(i), e.Typ, e.Name), nil
			}
		}
		if val, ok := outer[e.Index]; ok {
			return NewConstExpr(val, e.Typ), nil
		}
		return nil, moerr.NewInternalError(ctx, "column %s not found in input", e)

	case *plan.ConstantExpr:
		return NewConstExpr(e.Value, e.Typ), nil

	case *plan.AndExpr:
		return bindBinary(ctx, "and", e.Left, e.Right, schema, outer)

	case *plan.OrExpr:
		return bindBinary(ctx, "or", e.Left, e.Right, schema, outer)

	case *plan.ComparisonExpr:
		l, err := BindExpr(ctx, e.Left, schema, outer)
		if err != nil {
			return nil, err
		}
		r, err := BindExpr(ctx, e.Right, schema, outer)
		if err != nil {
			return nil, err
		}
		typ, ok := types.MergeTypes(l.Typ, r.Typ)
		if !ok {
			return nil, moerr.NewInvalidInput(ctx, "cannot compare %s with %s", l.Typ, r.Typ)
		}
		l, r = NewCastExpr(l, typ), NewCastExpr(r, typ)
		return NewFunctionExpr(comparisonFunctions[e.Op], boolResult(l, r), l, r), nil

	case *plan.FunctionCall:
		args := make([]*Expr, len(e.Args))
		for i, arg := range e.Args {
			bound, err := BindExpr(ctx, arg, schema, outer)
			if err != nil {
				return nil, err
			}
			args[i] = bound
		}
		if _, ok := functionRegistry[e.FuncName]; !ok {
			return nil, moerr.NewNotSupported(ctx, "function %s", e.FuncName)
		}
		if isArithmetic(e.FuncName) && len(args) == 2 {
			// operands are evaluated in the result type
			args[0] = NewCastExpr(args[0], e.Typ)
			args[1] = NewCastExpr(args[1], e.Typ)
		}
		return NewFunctionExpr(e.FuncName, e.Typ, args...), nil

	case *plan.CastExpr:
		arg, err := BindExpr(ctx, e.Argument, schema, outer)
		if err != nil {
			return nil, err
		}
		if arg.Typ.Oid == e.TargetType.Oid {
			return arg, nil
		}
		return NewFunctionExpr("cast", e.TargetType, arg), nil

	case *plan.AggregateFunction:
		return nil, moerr.NewInternalError(ctx, "aggregate function %s outside of an aggregation", e)

	case *plan.SubqueryExpr:
		return nil, moerr.NewInternalError(ctx, "subquery was not unnested: %s", e)
	}
	return nil, moerr.NewNYI(ctx, "binding of %s", scalar)
}

func bindBinary(ctx context.Context, name string, left, right plan.ScalarExpr, schema []plan.ColumnID, outer map[plan.ColumnID]any) (*Expr, error) {
	l, err := BindExpr(ctx, left, schema, outer)
	if err != nil {
		return nil, err
	}
	r, err := BindExpr(ctx, right, schema, outer)
	if err != nil {
		return nil, err
	}
	return NewFunctionExpr(name, boolResult(l, r), l, r), nil
}
