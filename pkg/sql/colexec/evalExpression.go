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
	"github.com/matrixorigin/joinunnest/pkg/common/moerr"
	"github.com/matrixorigin/joinunnest/pkg/container/batch"
	"github.com/matrixorigin/joinunnest/pkg/container/types"
	"github.com/matrixorigin/joinunnest/pkg/container/vector"
	"github.com/matrixorigin/joinunnest/pkg/sql/plan"
	"github.com/matrixorigin/joinunnest/pkg/vm/process"
)

var (
	_ ExpressionExecutor = new(FixedVectorExpressionExecutor)
	_ ExpressionExecutor = new(FunctionExpressionExecutor)
	_ ExpressionExecutor = new(ColumnExpressionExecutor)
)

// ExpressionExecutor generated from plan.Expr, can evaluate the result from vectors directly.
// Executors keep no per call state, one executor can serve many goroutines.
type ExpressionExecutor interface {
	// Eval returns the result of this expression over batches, with as many
	// rows as batches[0]. The result may share memory with the input and
	// must not be modified by the caller.
	Eval(proc *process.Process, batches []*batch.Batch) (*vector.Vector, error)

	ReturnType() types.Type

	// Free should release all memory of executor.
	Free()
}

func NewExpressionExecutorsFromPlanExpressions(proc *process.Process, planExprs []*Expr) (executors []ExpressionExecutor, err error) {
	executors = make([]ExpressionExecutor, len(planExprs))
	for i := range executors {
		executors[i], err = NewExpressionExecutor(proc, planExprs[i])
		if err != nil {
			for j := 0; j < i; j++ {
				executors[j].Free()
			}
			return nil, err
		}
	}
	return executors, err
}

func NewExpressionExecutor(proc *process.Process, planExpr *Expr) (ExpressionExecutor, error) {
	switch t := planExpr.Expr.(type) {
	case *Expr_C:
		vec, err := generateConstVector(proc, planExpr.Typ, t.C)
		if err != nil {
			return nil, err
		}
		return &FixedVectorExpressionExecutor{
			resultVector: vec,
		}, nil

	case *Expr_Col:
		return &ColumnExpressionExecutor{
			relIndex: int(t.Col.RelPos),
			colIndex: int(t.Col.ColPos),
			typ:      planExpr.Typ,
		}, nil

	case *Expr_F:
		def, ok := functionRegistry[t.F.Name]
		if !ok {
			return nil, moerr.NewNotSupported(proc.Ctx, "function %s", t.F.Name)
		}
		executor := &FunctionExpressionExecutor{
			name:              t.F.Name,
			typ:               planExpr.Typ,
			def:               def,
			parameterExecutor: make([]ExpressionExecutor, len(t.F.Args)),
		}
		for i := range executor.parameterExecutor {
			subExecutor, paramErr := NewExpressionExecutor(proc, t.F.Args[i])
			if paramErr != nil {
				executor.Free()
				return nil, paramErr
			}
			executor.parameterExecutor[i] = subExecutor
		}

		// IF all parameters here were constant, the function is computed
		// once and folded into a FixedVectorExpressionExecutor.
		if ifAllArgsAreConstant(executor) {
			params := make([]*vector.Vector, len(executor.parameterExecutor))
			for i, param := range executor.parameterExecutor {
				params[i] = param.(*FixedVectorExpressionExecutor).resultVector
			}
			result, err := executor.evalFn(proc, params, 1)
			executor.Free()
			if err != nil {
				return nil, err
			}
			return &FixedVectorExpressionExecutor{
				resultVector: result.ToConst(0, 1),
			}, nil
		}
		return executor, nil
	}
	return nil, moerr.NewNYI(proc.Ctx, "expression executor for %s", planExpr)
}

// NewExpressionExecutorFromScalar binds a plan scalar over schema and builds its executor.
func NewExpressionExecutorFromScalar(proc *process.Process, scalar plan.ScalarExpr, schema []plan.ColumnID, outer map[plan.ColumnID]any) (ExpressionExecutor, error) {
	expr, err := BindExpr(proc.Ctx, scalar, schema, outer)
	if err != nil {
		return nil, err
	}
	return NewExpressionExecutor(proc, expr)
}

func EvalExpressionOnce(proc *process.Process, planExpr *Expr, batches []*batch.Batch) (*vector.Vector, error) {
	executor, err := NewExpressionExecutor(proc, planExpr)
	if err != nil {
		return nil, err
	}
	defer executor.Free()
	return executor.Eval(proc, batches)
}

// FilterSels evaluates a boolean executor and returns the rows where it is
// true. NULL counts as false.
func FilterSels(proc *process.Process, executor ExpressionExecutor, batches []*batch.Batch) ([]int64, error) {
	vec, err := executor.Eval(proc, batches)
	if err != nil {
		return nil, err
	}
	if vec.GetType().Oid != types.T_bool && !vec.IsConstNull() {
		return nil, moerr.NewEvaluation(proc.Ctx, "filter returns %s instead of bool", vec.GetType())
	}
	rows := batches[0].RowCount()
	p := vector.GenerateFunctionParameter[bool](vec)
	sels := make([]int64, 0, rows)
	for i := uint64(0); i < uint64(rows); i++ {
		if v, null := p.GetValue(i); v && !null {
			sels = append(sels, int64(i))
		}
	}
	return sels, nil
}

func ifAllArgsAreConstant(executor *FunctionExpressionExecutor) bool {
	for _, paramE := range executor.parameterExecutor {
		if _, ok := paramE.(*FixedVectorExpressionExecutor); !ok {
			return false
		}
	}
	return true
}

// FixedVectorExpressionExecutor
// the content of its vector is fixed.
// e.g.
//
//	ConstVector [1, 1, 1, 1, 1]
//	ConstVector [null, null, null]
type FixedVectorExpressionExecutor struct {
	// a constant vector of length one
	resultVector *vector.Vector
}

type FunctionExpressionExecutor struct {
	name string
	typ  types.Type
	def  functionDef

	parameterExecutor []ExpressionExecutor
}

type ColumnExpressionExecutor struct {
	relIndex int
	colIndex int
	typ      types.Type
}

func (expr *FunctionExpressionExecutor) Eval(proc *process.Process, batches []*batch.Batch) (*vector.Vector, error) {
	params := make([]*vector.Vector, len(expr.parameterExecutor))
	for i := range expr.parameterExecutor {
		vec, err := expr.parameterExecutor[i].Eval(proc, batches)
		if err != nil {
			return nil, err
		}
		params[i] = vec
	}
	return expr.evalFn(proc, params, batches[0].RowCount())
}

func (expr *FunctionExpressionExecutor) evalFn(proc *process.Process, params []*vector.Vector, length int) (*vector.Vector, error) {
	if expr.def.strict {
		for _, param := range params {
			if param.IsConstNull() || param.GetType().Oid == types.T_any {
				return vector.NewConstNull(expr.typ, length), nil
			}
		}
	}
	return expr.def.fn(proc, params, expr.typ, length)
}

func (expr *FunctionExpressionExecutor) ReturnType() types.Type {
	return expr.typ
}

func (expr *FunctionExpressionExecutor) Free() {
	for _, p := range expr.parameterExecutor {
		if p != nil {
			p.Free()
		}
	}
	expr.parameterExecutor = nil
}

func (expr *ColumnExpressionExecutor) Eval(proc *process.Process, batches []*batch.Batch) (*vector.Vector, error) {
	if expr.relIndex >= len(batches) {
		return nil, moerr.NewInternalError(proc.Ctx, "relation %d out of %d inputs", expr.relIndex, len(batches))
	}
	bat := batches[expr.relIndex]
	if expr.colIndex >= len(bat.Vecs) {
		return nil, moerr.NewInternalError(proc.Ctx, "column %d out of %d columns", expr.colIndex, len(bat.Vecs))
	}
	vec := bat.Vecs[expr.colIndex]
	if vec.GetType().Oid != expr.typ.Oid && !vec.IsConstNull() {
		return nil, moerr.NewInternalError(proc.Ctx, "column %d is %s instead of %s", expr.colIndex, vec.GetType(), expr.typ)
	}
	return vec, nil
}

func (expr *ColumnExpressionExecutor) ReturnType() types.Type {
	return expr.typ
}

func (expr *ColumnExpressionExecutor) Free() {}

func (expr *FixedVectorExpressionExecutor) Eval(_ *process.Process, batches []*batch.Batch) (*vector.Vector, error) {
	rows := 1
	if len(batches) > 0 && batches[0] != nil {
		rows = batches[0].RowCount()
	}
	if expr.resultVector.IsConstNull() {
		return vector.NewConstNull(*expr.resultVector.GetType(), rows), nil
	}
	return expr.resultVector.ToConst(0, rows), nil
}

func (expr *FixedVectorExpressionExecutor) ReturnType() types.Type {
	return *expr.resultVector.GetType()
}

func (expr *FixedVectorExpressionExecutor) Free() {
	expr.resultVector = nil
}

func generateConstVector(proc *process.Process, typ types.Type, con *Const) (*vector.Vector, error) {
	if con.Isnull {
		return vector.NewConstNull(typ, 1), nil
	}
	vec := vector.NewVec(typ)
	if err := vector.AppendAny(vec, con.Value); err != nil {
		// literals are cast to their declared type, e.g. an int for a bigint column
		cv, err := castValue(proc.Ctx, con.Value, typ.Oid)
		if err != nil {
			return nil, err
		}
		if err = vector.AppendAny(vec, cv); err != nil {
			return nil, err
		}
	}
	return vec.ToConst(0, 1), nil
}
