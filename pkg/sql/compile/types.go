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
	"github.com/matrixorigin/joinunnest/pkg/container/types"
	"github.com/matrixorigin/joinunnest/pkg/sql/colexec"
	"github.com/matrixorigin/joinunnest/pkg/sql/colexec/hashjoin"
	"github.com/matrixorigin/joinunnest/pkg/sql/plan"
	"github.com/matrixorigin/joinunnest/pkg/vm/engine"
	"github.com/matrixorigin/joinunnest/pkg/vm/process"
)

type magicType int

const (
	Scan magicType = iota
	Filter
	Evaluation
	Projection
	Aggregation
	Order
	LimitOffset
	SingleRow
	HashJoin
	Apply
)

func (m magicType) String() string {
	switch m {
	case Scan:
		return "Scan"
	case Filter:
		return "Filter"
	case Evaluation:
		return "Evaluation"
	case Projection:
		return "Projection"
	case Aggregation:
		return "Aggregation"
	case Order:
		return "Order"
	case LimitOffset:
		return "LimitOffset"
	case SingleRow:
		return "SingleRow"
	case HashJoin:
		return "HashJoin"
	case Apply:
		return "Apply"
	}
	return "Unknown"
}

// Scope is one compiled operator. Its output has one column per entry of
// Schema, typed as Types. PreScopes are the inputs, for a hash join the
// probe side comes first and the build side second.
type Scope struct {
	Magic     magicType
	Schema    []plan.ColumnID
	Types     []types.Type
	Attrs     []string
	PreScopes []*Scope
	Proc      *process.Process

	c     *compile
	outer map[plan.ColumnID]any

	rel       engine.Relation
	positions []int
	exprs     []colexec.ExpressionExecutor
	aggs      []*aggregator
	orderBy   []orderKey
	limit     int64
	offset    int64
	join      *joinArg
	apply     *plan.SExpr
}

type compile struct {
	e    engine.Engine
	md   *plan.Metadata
	proc *process.Process
}

type orderKey struct {
	pos        int
	asc        bool
	nullsFirst bool
}

type aggregator struct {
	name     string
	distinct bool
	arg      colexec.ExpressionExecutor
	typ      types.Type
}

type joinArg struct {
	desc        hashjoin.HashJoinDesc
	buildSchema hashjoin.DataSchema
}
