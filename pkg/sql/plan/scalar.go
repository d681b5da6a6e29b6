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
	"fmt"
	"strings"

	"github.com/matrixorigin/joinunnest/pkg/container/types"
)

// ScalarExpr is a bound scalar expression of a logical plan.
type ScalarExpr interface {
	DataType() types.Type
	// UsedColumns returns the columns the expression reads, outer
	// references of a subquery included.
	UsedColumns() ColumnSet
	String() string
}

type BoundColumnRef struct {
	Index ColumnID
	Name  string
	Typ   types.Type
}

// ConstantExpr holds a literal, a nil Value is NULL.
type ConstantExpr struct {
	Value any
	Typ   types.Type
}

type AndExpr struct {
	Left  ScalarExpr
	Right ScalarExpr
}

type OrExpr struct {
	Left  ScalarExpr
	Right ScalarExpr
}

type ComparisonOp int

const (
	CmpEqual ComparisonOp = iota
	CmpNotEqual
	CmpLT
	CmpLTE
	CmpGT
	CmpGTE
)

var comparisonOpNames = [...]string{
	CmpEqual:    "=",
	CmpNotEqual: "<>",
	CmpLT:       "<",
	CmpLTE:      "<=",
	CmpGT:       ">",
	CmpGTE:      ">=",
}

func (op ComparisonOp) String() string {
	if op < CmpEqual || op > CmpGTE {
		return fmt.Sprintf("ComparisonOp(%d)", int(op))
	}
	return comparisonOpNames[op]
}

type ComparisonExpr struct {
	Op    ComparisonOp
	Left  ScalarExpr
	Right ScalarExpr
}

type AggregateFunction struct {
	FuncName string
	Distinct bool
	Args     []ScalarExpr
	Typ      types.Type
}

type FunctionCall struct {
	FuncName string
	Args     []ScalarExpr
	Typ      types.Type
}

type CastExpr struct {
	Argument   ScalarExpr
	TargetType types.Type
}

type SubqueryType int

const (
	SubqueryScalar SubqueryType = iota
	SubqueryExists
	SubqueryNotExists
	SubqueryAny
	SubqueryAll
)

var subqueryTypeNames = [...]string{
	SubqueryScalar:    "Scalar",
	SubqueryExists:    "Exists",
	SubqueryNotExists: "NotExists",
	SubqueryAny:       "Any",
	SubqueryAll:       "All",
}

func (t SubqueryType) String() string {
	if t < SubqueryScalar || t > SubqueryAll {
		return fmt.Sprintf("SubqueryType(%d)", int(t))
	}
	return subqueryTypeNames[t]
}

// SubqueryExpr is a subquery in a scalar position. It only lives between
// binding and unnesting.
type SubqueryExpr struct {
	Subquery     *SExpr
	Typ          SubqueryType
	OuterColumns ColumnSet
	// ChildExpr and CompareOp are the left operand and the operator of
	// Any and All.
	ChildExpr ScalarExpr
	CompareOp ComparisonOp
	DataTyp   types.Type
}

var (
	_ ScalarExpr = new(BoundColumnRef)
	_ ScalarExpr = new(ConstantExpr)
	_ ScalarExpr = new(AndExpr)
	_ ScalarExpr = new(OrExpr)
	_ ScalarExpr = new(ComparisonExpr)
	_ ScalarExpr = new(AggregateFunction)
	_ ScalarExpr = new(FunctionCall)
	_ ScalarExpr = new(CastExpr)
	_ ScalarExpr = new(SubqueryExpr)
)

func (e *BoundColumnRef) DataType() types.Type { return e.Typ }

func (e *BoundColumnRef) UsedColumns() ColumnSet { return NewColumnSet(e.Index) }

func (e *BoundColumnRef) String() string {
	if e.Name == "" {
		return fmt.Sprintf("#%d", e.Index)
	}
	return fmt.Sprintf("%s (#%d)", e.Name, e.Index)
}

func (e *ConstantExpr) DataType() types.Type { return e.Typ }

func (e *ConstantExpr) UsedColumns() ColumnSet { return ColumnSet{} }

func (e *ConstantExpr) String() string {
	switch v := e.Value.(type) {
	case nil:
		return "NULL"
	case string:
		return fmt.Sprintf("'%s'", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (e *AndExpr) DataType() types.Type {
	return boolType(e.Left, e.Right)
}

func (e *AndExpr) UsedColumns() ColumnSet {
	return e.Left.UsedColumns().Union(e.Right.UsedColumns())
}

func (e *AndExpr) String() string {
	return fmt.Sprintf("(%s AND %s)", e.Left, e.Right)
}

func (e *OrExpr) DataType() types.Type {
	return boolType(e.Left, e.Right)
}

func (e *OrExpr) UsedColumns() ColumnSet {
	return e.Left.UsedColumns().Union(e.Right.UsedColumns())
}

func (e *OrExpr) String() string {
	return fmt.Sprintf("(%s OR %s)", e.Left, e.Right)
}

func (e *ComparisonExpr) DataType() types.Type {
	return boolType(e.Left, e.Right)
}

func (e *ComparisonExpr) UsedColumns() ColumnSet {
	return e.Left.UsedColumns().Union(e.Right.UsedColumns())
}

func (e *ComparisonExpr) String() string {
	return fmt.Sprintf("%s %s %s", e.Left, e.Op, e.Right)
}

func (e *AggregateFunction) DataType() types.Type { return e.Typ }

func (e *AggregateFunction) UsedColumns() ColumnSet {
	return usedColumns(e.Args)
}

func (e *AggregateFunction) String() string {
	if len(e.Args) == 0 {
		return e.FuncName + "(*)"
	}
	prefix := ""
	if e.Distinct {
		prefix = "DISTINCT "
	}
	return fmt.Sprintf("%s(%s%s)", e.FuncName, prefix, joinScalars(e.Args))
}

func (e *FunctionCall) DataType() types.Type { return e.Typ }

func (e *FunctionCall) UsedColumns() ColumnSet {
	return usedColumns(e.Args)
}

func (e *FunctionCall) String() string {
	return fmt.Sprintf("%s(%s)", e.FuncName, joinScalars(e.Args))
}

func (e *CastExpr) DataType() types.Type { return e.TargetType }

func (e *CastExpr) UsedColumns() ColumnSet { return e.Argument.UsedColumns() }

func (e *CastExpr) String() string {
	return fmt.Sprintf("CAST(%s AS %s)", e.Argument, e.TargetType.Oid)
}

func (e *SubqueryExpr) DataType() types.Type { return e.DataTyp }

func (e *SubqueryExpr) UsedColumns() ColumnSet {
	cols := e.OuterColumns.Clone()
	if e.ChildExpr != nil {
		cols = cols.Union(e.ChildExpr.UsedColumns())
	}
	return cols
}

func (e *SubqueryExpr) String() string {
	if e.ChildExpr != nil {
		return fmt.Sprintf("%s %s %s(subquery)", e.ChildExpr, e.CompareOp, e.Typ)
	}
	return fmt.Sprintf("%s(subquery)", e.Typ)
}

func boolType(l, r ScalarExpr) types.Type {
	return types.New(types.T_bool).WithNullable(l.DataType().Nullable || r.DataType().Nullable)
}

func usedColumns(args []ScalarExpr) ColumnSet {
	var cols ColumnSet
	for _, arg := range args {
		cols = cols.Union(arg.UsedColumns())
	}
	return cols
}

func joinScalars(args []ScalarExpr) string {
	strs := make([]string, len(args))
	for i, arg := range args {
		strs[i] = arg.String()
	}
	return strings.Join(strs, ", ")
}

// SplitConjunctions flattens nested ANDs into their conjuncts, in order.
func SplitConjunctions(e ScalarExpr) []ScalarExpr {
	if and, ok := e.(*AndExpr); ok {
		return append(SplitConjunctions(and.Left), SplitConjunctions(and.Right)...)
	}
	return []ScalarExpr{e}
}

// CombineConjunctions is the reverse of SplitConjunctions, nil for no
// conjunct at all.
func CombineConjunctions(conds []ScalarExpr) ScalarExpr {
	if len(conds) == 0 {
		return nil
	}
	e := conds[0]
	for _, cond := range conds[1:] {
		e = &AndExpr{Left: e, Right: cond}
	}
	return e
}
