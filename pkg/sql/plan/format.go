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
	"bytes"
	"fmt"
	"strings"
)

// Format renders s as an indented tree, one operator per line.
func Format(s *SExpr) string {
	var buf bytes.Buffer
	formatSExpr(&buf, s, "", "")
	return buf.String()
}

func formatSExpr(buf *bytes.Buffer, s *SExpr, prefix, childPrefix string) {
	buf.WriteString(prefix)
	buf.WriteString(describeOperator(s.plan))
	buf.WriteByte('\n')
	for i, child := range s.children {
		if i == len(s.children)-1 {
			formatSExpr(buf, child, childPrefix+"└── ", childPrefix+"    ")
		} else {
			formatSExpr(buf, child, childPrefix+"├── ", childPrefix+"│   ")
		}
	}
}

func describeOperator(op RelOperator) string {
	switch op := op.(type) {
	case *LogicalGet:
		return fmt.Sprintf("LogicalGet: %s %v", op.Table, op.Columns)
	case *PhysicalScan:
		return fmt.Sprintf("PhysicalScan: %s %v", op.Table, op.Columns)
	case *Filter:
		return fmt.Sprintf("Filter: [%s]", joinScalars(op.Predicates))
	case *EvalScalar:
		return fmt.Sprintf("EvalScalar: [%s]", formatItems(op.Items))
	case *Project:
		return fmt.Sprintf("Project: %s", op.Columns)
	case *Aggregate:
		return fmt.Sprintf("Aggregate: group [%s], aggregate [%s]",
			formatItems(op.GroupItems), formatItems(op.AggregateFunctions))
	case *Sort:
		items := make([]string, len(op.Items))
		for i, item := range op.Items {
			dir := "ASC"
			if !item.Asc {
				dir = "DESC"
			}
			items[i] = fmt.Sprintf("#%d %s", item.Index, dir)
		}
		return fmt.Sprintf("Sort: [%s]", strings.Join(items, ", "))
	case *Limit:
		return fmt.Sprintf("Limit: %d, offset %d", op.Limit, op.Offset)
	case *LogicalInnerJoin:
		return formatJoin("Join", op.JoinType, op.LeftConditions, op.RightConditions, op.OtherConditions, op.MarkerIndex)
	case *PhysicalHashJoin:
		return formatJoin("HashJoin", op.JoinType, op.ProbeKeys, op.BuildKeys, op.OtherConditions, op.MarkerIndex)
	case *CrossApply:
		return fmt.Sprintf("CrossApply: correlated %s", op.CorrelatedColumns)
	case *Max1Row:
		return "Max1Row"
	case *Pattern:
		return fmt.Sprintf("Pattern: %s", op.PatternOp)
	default:
		return op.RelOp().String()
	}
}

func formatJoin(name string, typ JoinType, left, right, other []ScalarExpr, marker *ColumnID) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s(%s)", name, typ)
	if len(left) > 0 {
		fmt.Fprintf(&buf, ": left [%s], right [%s]", joinScalars(left), joinScalars(right))
	}
	if len(other) > 0 {
		fmt.Fprintf(&buf, ", other [%s]", joinScalars(other))
	}
	if marker != nil {
		fmt.Fprintf(&buf, ", marker #%d", *marker)
	}
	return buf.String()
}

func formatItems(items []ScalarItem) string {
	strs := make([]string, len(items))
	for i, item := range items {
		strs[i] = fmt.Sprintf("#%d := %s", item.Index, item.Scalar)
	}
	return strings.Join(strs, ", ")
}
