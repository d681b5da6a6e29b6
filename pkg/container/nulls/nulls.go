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

// Package nulls wrap up functions for the manipulation of bitmap library roaring.
// Every column stores its NULL rows in a Nulls.
package nulls

import (
	"fmt"

	"github.com/RoaringBitmap/roaring"
)

type Nulls struct {
	Np *roaring.Bitmap
}

func NewWithSize(_ int) *Nulls {
	return &Nulls{Np: roaring.NewBitmap()}
}

func Build(size int, rows ...uint64) *Nulls {
	nsp := NewWithSize(size)
	Add(nsp, rows...)
	return nsp
}

func (nsp *Nulls) Clone() *Nulls {
	if nsp == nil {
		return nil
	}
	if nsp.Np == nil {
		return &Nulls{}
	}
	return &Nulls{Np: nsp.Np.Clone()}
}

func Reset(nsp *Nulls) {
	if nsp.Np != nil {
		nsp.Np.Clear()
	}
}

// Any returns true if any bit in the Nulls is set, otherwise it will return false.
func Any(nsp *Nulls) bool {
	if nsp == nil || nsp.Np == nil {
		return false
	}
	return !nsp.Np.IsEmpty()
}

// Length returns the number of integers contained in the Nulls
func Length(nsp *Nulls) int {
	if nsp == nil || nsp.Np == nil {
		return 0
	}
	return int(nsp.Np.GetCardinality())
}

func String(nsp *Nulls) string {
	if nsp == nil || nsp.Np == nil {
		return "[]"
	}
	return fmt.Sprintf("%v", nsp.Np.ToArray())
}

// Contains returns true if the integer is contained in the Nulls
func Contains(nsp *Nulls, row uint64) bool {
	return nsp != nil && nsp.Np != nil && nsp.Np.Contains(uint32(row))
}

func Add(nsp *Nulls, rows ...uint64) {
	if len(rows) == 0 {
		return
	}
	if nsp.Np == nil {
		nsp.Np = roaring.NewBitmap()
	}
	for _, row := range rows {
		nsp.Np.Add(uint32(row))
	}
}

// AddRange adds the rows in [start, end).
func AddRange(nsp *Nulls, start, end uint64) {
	if start >= end {
		return
	}
	if nsp.Np == nil {
		nsp.Np = roaring.NewBitmap()
	}
	nsp.Np.AddRange(start, end)
}

func Del(nsp *Nulls, rows ...uint64) {
	if nsp.Np == nil {
		return
	}
	for _, row := range rows {
		nsp.Np.Remove(uint32(row))
	}
}

// Set performs union operation on Nulls nsp,m and store the result in nsp
func Set(nsp, m *Nulls) {
	if m != nil && m.Np != nil {
		if nsp.Np == nil {
			nsp.Np = roaring.NewBitmap()
		}
		nsp.Np.Or(m.Np)
	}
}

// Or performs union operation on Nulls nsp,m and store the result in r
func Or(nsp, m, r *Nulls) {
	if !Any(nsp) && !Any(m) {
		r.Np = nil
		return
	}
	r.Np = roaring.NewBitmap()
	if Any(nsp) {
		r.Np.Or(nsp.Np)
	}
	if Any(m) {
		r.Np.Or(m.Np)
	}
}

// Range adds the numbers in nsp starting at start and ending at end to m.
// `bias` represents the starting offset used for the Range Output
// Return the result
func Range(nsp *Nulls, start, end, bias uint64, m *Nulls) *Nulls {
	if !Any(nsp) {
		return m
	}
	if m.Np == nil {
		m.Np = roaring.NewBitmap()
	}
	itr := nsp.Np.Iterator()
	for itr.HasNext() {
		row := uint64(itr.Next())
		if row >= start && row < end {
			m.Np.Add(uint32(row - bias))
		}
	}
	return m
}

// Filter returns the Nulls of the rows picked by sels, renumbered by their
// position in sels.
func Filter(nsp *Nulls, sels []int64) *Nulls {
	if !Any(nsp) {
		return &Nulls{}
	}
	np := roaring.NewBitmap()
	for i, sel := range sels {
		if nsp.Np.Contains(uint32(sel)) {
			np.Add(uint32(i))
		}
	}
	return &Nulls{Np: np}
}

// FilterCount returns the number count that appears in both nsp and sel
func FilterCount(nsp *Nulls, sels []int64) int {
	var cnt int

	if !Any(nsp) {
		return cnt
	}
	for _, sel := range sels {
		if nsp.Np.Contains(uint32(sel)) {
			cnt++
		}
	}
	return cnt
}

func ToArray(nsp *Nulls) []uint64 {
	if !Any(nsp) {
		return nil
	}
	rows := nsp.Np.ToArray()
	ret := make([]uint64, len(rows))
	for i, row := range rows {
		ret[i] = uint64(row)
	}
	return ret
}
