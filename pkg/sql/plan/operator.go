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
)

type RelOp int

const (
	RelOpLogicalGet RelOp = iota
	RelOpFilter
	RelOpEvalScalar
	RelOpProject
	RelOpAggregate
	RelOpSort
	RelOpLimit
	RelOpLogicalInnerJoin
	RelOpCrossApply
	RelOpMax1Row
	RelOpPhysicalScan
	RelOpPhysicalHashJoin
	RelOpPattern
)

var relOpNames = [...]string{
	RelOpLogicalGet:       "LogicalGet",
	RelOpFilter:           "Filter",
	RelOpEvalScalar:       "EvalScalar",
	RelOpProject:          "Project",
	RelOpAggregate:        "Aggregate",
	RelOpSort:             "Sort",
	RelOpLimit:            "Limit",
	RelOpLogicalInnerJoin: "LogicalInnerJoin",
	RelOpCrossApply:       "CrossApply",
	RelOpMax1Row:          "Max1Row",
	RelOpPhysicalScan:     "PhysicalScan",
	RelOpPhysicalHashJoin: "PhysicalHashJoin",
	RelOpPattern:          "Pattern",
}

func (op RelOp) String() string {
	if op < RelOpLogicalGet || op > RelOpPattern {
		return fmt.Sprintf("RelOp(%d)", int(op))
	}
	return relOpNames[op]
}

// RelOperator is the operator carried by an SExpr node.
type RelOperator interface {
	RelOp() RelOp
	// Arity is the number of children the operator takes, -1 for any.
	Arity() int
	// UsedColumns returns the columns read by the operator's own
	// expressions.
	UsedColumns() ColumnSet
}

type LogicalGet struct {
	TableIndex int
	Table      string
	// Columns are in the order of the table attributes.
	Columns []ColumnID
}

// PhysicalScan is the physical counterpart of LogicalGet.
type PhysicalScan struct {
	TableIndex int
	Table      string
	Columns    []ColumnID
}

type Filter struct {
	Predicates []ScalarExpr
	IsHaving   bool
}

// ScalarItem binds a scalar expression to the column it produces.
type ScalarItem struct {
	Scalar ScalarExpr
	Index  ColumnID
}

type EvalScalar struct {
	Items []ScalarItem
}

type Project struct {
	Columns ColumnSet
}

type Aggregate struct {
	GroupItems         []ScalarItem
	AggregateFunctions []ScalarItem
}

type SortItem struct {
	Index      ColumnID
	Asc        bool
	NullsFirst bool
}

type Sort struct {
	Items []SortItem
}

// Limit skips Offset rows then keeps at most Limit rows, a negative Limit
// keeps every row.
type Limit struct {
	Limit  int64
	Offset int64
}

// LogicalInnerJoin joins its two children. Every join type except Mark
// probes with the left child and builds with the right one. LeftConditions
// and RightConditions are the equality keys of the left and right child,
// pairwise. OtherConditions are evaluated on each candidate pair.
type LogicalInnerJoin struct {
	LeftConditions  []ScalarExpr
	RightConditions []ScalarExpr
	OtherConditions []ScalarExpr
	JoinType        JoinType
	MarkerIndex     *ColumnID

	FromCorrelatedSubquery bool
}

// CrossApply evaluates its right child once per row of its left child,
// binding CorrelatedColumns.
type CrossApply struct {
	CorrelatedColumns ColumnSet
}

// Max1Row fails if its child produces more than one row, and produces a
// row of NULLs if it produces none.
type Max1Row struct{}

type PhysicalHashJoin struct {
	BuildKeys       []ScalarExpr
	ProbeKeys       []ScalarExpr
	OtherConditions []ScalarExpr
	JoinType        JoinType
	MarkerIndex     *ColumnID
}

// Pattern matches any node whose operator is PatternOp, or any node at
// all if PatternOp is RelOpPattern.
type Pattern struct {
	PatternOp RelOp
}

var (
	_ RelOperator = new(LogicalGet)
	_ RelOperator = new(PhysicalScan)
	_ RelOperator = new(Filter)
	_ RelOperator = new(EvalScalar)
	_ RelOperator = new(Project)
	_ RelOperator = new(Aggregate)
	_ RelOperator = new(Sort)
	_ RelOperator = new(Limit)
	_ RelOperator = new(LogicalInnerJoin)
	_ RelOperator = new(CrossApply)
	_ RelOperator = new(Max1Row)
	_ RelOperator = new(PhysicalHashJoin)
	_ RelOperator = new(Pattern)
)

func (op *LogicalGet) RelOp() RelOp { return RelOpLogicalGet }
func (op *LogicalGet) Arity() int { return 0 }
func (op *LogicalGet) UsedColumns() ColumnSet { return ColumnSet{} }

func (op *PhysicalScan) RelOp() RelOp { return RelOpPhysicalScan }
func (op *PhysicalScan) Arity() int { return 0 }
func (op *PhysicalScan) UsedColumns() ColumnSet { return ColumnSet{} }

func (op *Filter) RelOp() RelOp { return RelOpFilter }
func (op *Filter) Arity() int { return 1 }
func (op *Filter) UsedColumns() ColumnSet {
	return usedColumns(op.Predicates)
}

func (op *EvalScalar) RelOp() RelOp { return RelOpEvalScalar }
func (op *EvalScalar) Arity() int { return 1 }
func (op *EvalScalar) UsedColumns() ColumnSet {
	return itemsUsedColumns(op.Items)
}

func (op *Project) RelOp() RelOp { return RelOpProject }
func (op *Project) Arity() int { return 1 }
func (op *Project) UsedColumns() ColumnSet { return op.Columns.Clone() }

func (op *Aggregate) RelOp() RelOp { return RelOpAggregate }
func (op *Aggregate) Arity() int { return 1 }
func (op *Aggregate) UsedColumns() ColumnSet {
	return itemsUsedColumns(op.GroupItems).Union(itemsUsedColumns(op.AggregateFunctions))
}

func (op *Sort) RelOp() RelOp { return RelOpSort }
func (op *Sort) Arity() int { return 1 }
func (op *Sort) UsedColumns() ColumnSet {
	var cols ColumnSet
	for _, item := range op.Items {
		cols.Add(item.Index)
	}
	return cols
}

func (op *Limit) RelOp() RelOp { return RelOpLimit }
func (op *Limit) Arity() int { return 1 }
func (op *Limit) UsedColumns() ColumnSet { return ColumnSet{} }

func (op *LogicalInnerJoin) RelOp() RelOp { return RelOpLogicalInnerJoin }
func (op *LogicalInnerJoin) Arity() int { return 2 }
func (op *LogicalInnerJoin) UsedColumns() ColumnSet {
	return usedColumns(op.LeftConditions).
		Union(usedColumns(op.RightConditions)).
		Union(usedColumns(op.OtherConditions))
}

func (op *CrossApply) RelOp() RelOp { return RelOpCrossApply }
func (op *CrossApply) Arity() int { return 2 }
func (op *CrossApply) UsedColumns() ColumnSet { return op.CorrelatedColumns.Clone() }

func (op *Max1Row) RelOp() RelOp { return RelOpMax1Row }
func (op *Max1Row) Arity() int { return 1 }
func (op *Max1Row) UsedColumns() ColumnSet { return ColumnSet{} }

func (op *PhysicalHashJoin) RelOp() RelOp { return RelOpPhysicalHashJoin }
func (op *PhysicalHashJoin) Arity() int { return 2 }
func (op *PhysicalHashJoin) UsedColumns() ColumnSet {
	return usedColumns(op.BuildKeys).
		Union(usedColumns(op.ProbeKeys)).
		Union(usedColumns(op.OtherConditions))
}

func (op *Pattern) RelOp() RelOp { return RelOpPattern }
func (op *Pattern) Arity() int { return -1 }
func (op *Pattern) UsedColumns() ColumnSet { return ColumnSet{} }

func itemsUsedColumns(items []ScalarItem) ColumnSet {
	var cols ColumnSet
	for _, item := range items {
		cols = cols.Union(item.Scalar.UsedColumns())
	}
	return cols
}

// NewLogicalGet returns a scan of every column of a table registered in md.
func NewLogicalGet(md *Metadata, tableIndex int) *LogicalGet {
	tbl := md.Table(tableIndex)
	return &LogicalGet{
		TableIndex: tableIndex,
		Table:      tbl.Name,
		Columns:    append([]ColumnID{}, tbl.Columns...),
	}
}
