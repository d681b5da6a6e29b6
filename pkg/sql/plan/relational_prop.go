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

	"github.com/matrixorigin/joinunnest/pkg/common/moerr"
)

// RelationalProperty is derived from a tree on demand and never stored on
// the nodes.
type RelationalProperty struct {
	// OutputColumns are the columns the tree makes visible.
	OutputColumns ColumnSet
	// OuterColumns are the columns the tree reads but does not produce,
	// the correlation of a subquery.
	OuterColumns ColumnSet
}

type RelExpr struct {
	ctx   context.Context
	sexpr *SExpr
}

func NewRelExpr(ctx context.Context, s *SExpr) RelExpr {
	return RelExpr{ctx: ctx, sexpr: s}
}

func (e RelExpr) DeriveRelationalProp() (*RelationalProperty, error) {
	children := make([]*RelationalProperty, len(e.sexpr.children))
	for i := range e.sexpr.children {
		prop, err := e.DeriveRelationalPropChild(i)
		if err != nil {
			return nil, err
		}
		children[i] = prop
	}
	return e.derive(children)
}

// DeriveRelationalPropChild derives the property of the i-th child only.
func (e RelExpr) DeriveRelationalPropChild(i int) (*RelationalProperty, error) {
	child, err := e.sexpr.Child(i)
	if err != nil {
		return nil, err
	}
	return NewRelExpr(e.ctx, child).DeriveRelationalProp()
}

func (e RelExpr) derive(children []*RelationalProperty) (*RelationalProperty, error) {
	var output ColumnSet
	switch op := e.sexpr.plan.(type) {
	case *LogicalGet:
		output = NewColumnSet(op.Columns...)
	case *PhysicalScan:
		output = NewColumnSet(op.Columns...)
	case *Filter, *Sort, *Limit, *Max1Row:
		output = children[0].OutputColumns.Clone()
	case *EvalScalar:
		output = children[0].OutputColumns.Clone()
		for _, item := range op.Items {
			output.Add(item.Index)
		}
	case *Project:
		output = op.Columns.Clone()
	case *Aggregate:
		for _, item := range op.GroupItems {
			output.Add(item.Index)
		}
		for _, item := range op.AggregateFunctions {
			output.Add(item.Index)
		}
	case *LogicalInnerJoin:
		output = joinOutputColumns(op.JoinType, op.MarkerIndex, children)
	case *PhysicalHashJoin:
		output = joinOutputColumns(op.JoinType, op.MarkerIndex, children)
	case *CrossApply:
		output = children[0].OutputColumns.Union(children[1].OutputColumns)
	default:
		return nil, moerr.NewInternalError(e.ctx, "cannot derive relational property of %s",
			e.sexpr.plan.RelOp())
	}

	visible := output.Clone()
	outer := e.sexpr.plan.UsedColumns()
	for _, child := range children {
		visible = visible.Union(child.OutputColumns)
		outer = outer.Union(child.OuterColumns)
	}
	return &RelationalProperty{
		OutputColumns: output,
		OuterColumns:  outer.Difference(visible),
	}, nil
}

func joinOutputColumns(typ JoinType, marker *ColumnID, children []*RelationalProperty) ColumnSet {
	switch typ {
	case JoinSemi, JoinAnti:
		return children[0].OutputColumns.Clone()
	case JoinMark:
		output := children[1].OutputColumns.Clone()
		if marker != nil {
			output.Add(*marker)
		}
		return output
	default:
		return children[0].OutputColumns.Union(children[1].OutputColumns)
	}
}
