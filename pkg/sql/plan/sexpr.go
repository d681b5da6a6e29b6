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

// SExpr is an immutable node of a relational expression tree. Rewrites
// build new nodes and share the untouched subtrees.
type SExpr struct {
	plan     RelOperator
	children []*SExpr
}

func newSExpr(plan RelOperator, children ...*SExpr) *SExpr {
	if arity := plan.Arity(); arity >= 0 && arity != len(children) {
		panic(moerr.NewInternalErrorNoCtx("operator %s takes %d children, got %d",
			plan.RelOp(), arity, len(children)))
	}
	return &SExpr{
		plan:     plan,
		children: children,
	}
}

func NewLeaf(plan RelOperator) *SExpr {
	return newSExpr(plan)
}

func NewUnary(plan RelOperator, child *SExpr) *SExpr {
	return newSExpr(plan, child)
}

func NewBinary(plan RelOperator, left, right *SExpr) *SExpr {
	return newSExpr(plan, left, right)
}

func (s *SExpr) Plan() RelOperator {
	return s.plan
}

func (s *SExpr) Arity() int {
	return len(s.children)
}

func (s *SExpr) Children() []*SExpr {
	return s.children
}

func (s *SExpr) Child(i int) (*SExpr, error) {
	if i < 0 || i >= len(s.children) {
		return nil, moerr.NewInternalError(context.Background(),
			"invalid child index %d of %s", i, s.plan.RelOp())
	}
	return s.children[i], nil
}

// ReplaceChildren returns a copy of s holding children instead.
func (s *SExpr) ReplaceChildren(children ...*SExpr) *SExpr {
	return newSExpr(s.plan, children...)
}

// MatchPattern reports whether s has the shape of pattern, a tree of
// Pattern operators.
func (s *SExpr) MatchPattern(pattern *SExpr) bool {
	p, ok := pattern.plan.(*Pattern)
	if !ok {
		return false
	}
	if p.PatternOp == RelOpPattern {
		return true
	}
	if p.PatternOp != s.plan.RelOp() || len(pattern.children) != len(s.children) {
		return false
	}
	for i, child := range s.children {
		if !child.MatchPattern(pattern.children[i]) {
			return false
		}
	}
	return true
}
