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
	"fmt"
	"strings"

	"github.com/matrixorigin/joinunnest/pkg/container/types"
)

// Expr is a physical expression, bound to column positions of its input
// batches.
type Expr struct {
	Typ  types.Type
	Expr isExpr_Expr
}

type isExpr_Expr interface {
	isExpr_Expr()
}

type Expr_Col struct {
	Col *ColRef
}

type Expr_C struct {
	C *Const
}

type Expr_F struct {
	F *Function
}

func (*Expr_Col) isExpr_Expr() {}
func (*Expr_C) isExpr_Expr()   {}
func (*Expr_F) isExpr_Expr()   {}

// ColRef is column ColPos of input batch RelPos.
type ColRef struct {
	RelPos int32
	ColPos int32
	Name   string
}

type Const struct {
	Isnull bool
	Value  any
}

type Function struct {
	Name string
	Args []*Expr
}

func (e *Expr) GetCol() *ColRef {
	if x, ok := e.Expr.(*Expr_Col); ok {
		return x.Col
	}
	return nil
}

func (e *Expr) GetC() *Const {
	if x, ok := e.Expr.(*Expr_C); ok {
		return x.C
	}
	return nil
}

func (e *Expr) GetF() *Function {
	if x, ok := e.Expr.(*Expr_F); ok {
		return x.F
	}
	return nil
}

func (e *Expr) String() string {
	switch x := e.Expr.(type) {
	case *Expr_Col:
		if x.Col.Name != "" {
			return x.Col.Name
		}
		return fmt.Sprintf("$%d.%d", x.Col.RelPos, x.Col.ColPos)
	case *Expr_C:
		if x.C.Isnull {
			return "null"
		}
		return fmt.Sprintf("%v", x.C.Value)
	case *Expr_F:
		args := make([]string, len(x.F.Args))
		for i, arg := range x.F.Args {
			args[i] = arg.String()
		}
		if x.F.Name == "cast" {
			return fmt.Sprintf("cast(%s as %s)", args[0], e.Typ.Oid)
		}
		return fmt.Sprintf("%s(%s)", x.F.Name, strings.Join(args, ", "))
	}
	return "?"
}

func NewColExpr(relPos, colPos int32, typ types.Type, name string) *Expr {
	return &Expr{
		Typ: typ,
		Expr: &Expr_Col{
			Col: &ColRef{RelPos: relPos, ColPos: colPos, Name: name},
		},
	}
}

// NewConstExpr returns a literal, NULL if value is nil.
func NewConstExpr(value any, typ types.Type) *Expr {
	if value == nil {
		typ = typ.WithNullable(true)
	}
	return &Expr{
		Typ: typ,
		Expr: &Expr_C{
			C: &Const{Isnull: value == nil, Value: value},
		},
	}
}

func NewFunctionExpr(name string, typ types.Type, args ...*Expr) *Expr {
	return &Expr{
		Typ: typ,
		Expr: &Expr_F{
			F: &Function{Name: name, Args: args},
		},
	}
}

// NewCastExpr casts e to the oid of typ, e itself if it already has it.
func NewCastExpr(e *Expr, typ types.Type) *Expr {
	if e.Typ.Oid == typ.Oid {
		return e
	}
	return NewFunctionExpr("cast", typ.WithNullable(e.Typ.Nullable), e)
}

// NewAndExpr folds exprs with and, nil for no expression.
func NewAndExpr(exprs ...*Expr) *Expr {
	if len(exprs) == 0 {
		return nil
	}
	e := exprs[0]
	for _, arg := range exprs[1:] {
		e = NewFunctionExpr("and", boolResult(e, arg), e, arg)
	}
	return e
}

func boolResult(args ...*Expr) types.Type {
	nullable := false
	for _, arg := range args {
		nullable = nullable || arg.Typ.Nullable
	}
	return types.New(types.T_bool).WithNullable(nullable)
}
