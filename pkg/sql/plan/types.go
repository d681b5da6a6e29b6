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

	"github.com/RoaringBitmap/roaring"
)

// IndexType indexes a column in Metadata.
type IndexType = int

type ColumnID = IndexType

// ColumnSet is a set of column ids. The zero value is an empty set.
// Add mutates the set, every other operation returns a new set.
type ColumnSet struct {
	bm *roaring.Bitmap
}

func NewColumnSet(cols ...ColumnID) ColumnSet {
	var s ColumnSet
	for _, col := range cols {
		s.Add(col)
	}
	return s
}

func (s *ColumnSet) Add(col ColumnID) {
	if s.bm == nil {
		s.bm = roaring.New()
	}
	s.bm.Add(uint32(col))
}

func (s ColumnSet) Contains(col ColumnID) bool {
	return s.bm != nil && s.bm.Contains(uint32(col))
}

func (s ColumnSet) IsEmpty() bool {
	return s.bm == nil || s.bm.IsEmpty()
}

func (s ColumnSet) Len() int {
	if s.bm == nil {
		return 0
	}
	return int(s.bm.GetCardinality())
}

// First returns the smallest column of the set, false if it is empty.
func (s ColumnSet) First() (ColumnID, bool) {
	if s.IsEmpty() {
		return 0, false
	}
	return ColumnID(s.bm.Minimum()), true
}

func (s ColumnSet) Clone() ColumnSet {
	if s.bm == nil {
		return ColumnSet{}
	}
	return ColumnSet{bm: s.bm.Clone()}
}

func (s ColumnSet) Union(o ColumnSet) ColumnSet {
	switch {
	case s.bm == nil:
		return o.Clone()
	case o.bm == nil:
		return s.Clone()
	}
	return ColumnSet{bm: roaring.Or(s.bm, o.bm)}
}

func (s ColumnSet) Intersection(o ColumnSet) ColumnSet {
	if s.bm == nil || o.bm == nil {
		return ColumnSet{}
	}
	return ColumnSet{bm: roaring.And(s.bm, o.bm)}
}

func (s ColumnSet) Difference(o ColumnSet) ColumnSet {
	switch {
	case s.bm == nil:
		return ColumnSet{}
	case o.bm == nil:
		return s.Clone()
	}
	return ColumnSet{bm: roaring.AndNot(s.bm, o.bm)}
}

func (s ColumnSet) SubsetOf(o ColumnSet) bool {
	return s.Difference(o).IsEmpty()
}

func (s ColumnSet) Equals(o ColumnSet) bool {
	return s.SubsetOf(o) && o.SubsetOf(s)
}

// ToSlice returns the columns in ascending order.
func (s ColumnSet) ToSlice() []ColumnID {
	if s.bm == nil {
		return nil
	}
	cols := make([]ColumnID, 0, s.bm.GetCardinality())
	itr := s.bm.Iterator()
	for itr.HasNext() {
		cols = append(cols, ColumnID(itr.Next()))
	}
	return cols
}

func (s ColumnSet) String() string {
	cols := s.ToSlice()
	strs := make([]string, len(cols))
	for i, col := range cols {
		strs[i] = fmt.Sprintf("%d", col)
	}
	return "{" + strings.Join(strs, ", ") + "}"
}

type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinSemi
	JoinAnti
	JoinCross
	// JoinMark annotates every probe row with a three valued marker telling
	// whether it has a match, its left child is the build side.
	JoinMark
)

var joinTypeNames = [...]string{
	JoinInner: "Inner",
	JoinLeft:  "Left",
	JoinSemi:  "Semi",
	JoinAnti:  "Anti",
	JoinCross: "Cross",
	JoinMark:  "Mark",
}

func (t JoinType) String() string {
	if t < JoinInner || t > JoinMark {
		return fmt.Sprintf("JoinType(%d)", int(t))
	}
	return joinTypeNames[t]
}
