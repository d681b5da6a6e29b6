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

package batch

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matrixorigin/joinunnest/pkg/common/moerr"
	"github.com/matrixorigin/joinunnest/pkg/container/types"
	"github.com/matrixorigin/joinunnest/pkg/container/vector"
	"github.com/matrixorigin/joinunnest/pkg/logutil"
)

func New(attrs []string) *Batch {
	return &Batch{
		Attrs:    attrs,
		Vecs:     make([]*vector.Vector, len(attrs)),
		rowCount: 0,
	}
}

func NewWithSize(n int) *Batch {
	return &Batch{
		Vecs:     make([]*vector.Vector, n),
		rowCount: 0,
	}
}

// NewWithSchema returns an empty batch holding one flat vector per type.
func NewWithSchema(attrs []string, typs []types.Type) *Batch {
	bat := New(attrs)
	for i, typ := range typs {
		bat.Vecs[i] = vector.NewVec(typ)
	}
	return bat
}

func SetLength(bat *Batch, n int) {
	for _, vec := range bat.Vecs {
		vec.SetLength(n)
	}
	bat.rowCount = n
}

// Shrink keeps the rows in sels, sels must be ordered.
func (bat *Batch) Shrink(sels []int64) {
	if len(sels) == bat.rowCount {
		return
	}
	mp := make(map[*vector.Vector]uint8)
	for _, vec := range bat.Vecs {
		if _, ok := mp[vec]; ok {
			continue
		}
		mp[vec]++
		vec.Shrink(sels)
	}
	bat.rowCount = len(sels)
}

func (bat *Batch) RowCount() int {
	return bat.rowCount
}

func (bat *Batch) SetRowCount(rowCount int) {
	bat.rowCount = rowCount
}

func (bat *Batch) AddRowCount(rowCount int) {
	bat.rowCount += rowCount
}

func (bat *Batch) VectorCount() int {
	return len(bat.Vecs)
}

func (bat *Batch) SetAttributes(attrs []string) {
	bat.Attrs = attrs
}

func (bat *Batch) SetVector(pos int32, vec *vector.Vector) {
	bat.Vecs[pos] = vec
}

func (bat *Batch) GetVector(pos int32) *vector.Vector {
	return bat.Vecs[pos]
}

// Types returns the column types in order.
func (bat *Batch) Types() []types.Type {
	typs := make([]types.Type, len(bat.Vecs))
	for i, vec := range bat.Vecs {
		typs[i] = *vec.GetType()
	}
	return typs
}

func (bat *Batch) GetSubBatch(cols []string) *Batch {
	mp := make(map[string]int)
	for i, attr := range bat.Attrs {
		mp[attr] = i
	}
	rbat := NewWithSize(len(cols))
	rbat.Attrs = cols
	for i, col := range cols {
		rbat.Vecs[i] = bat.Vecs[mp[col]]
	}
	rbat.rowCount = bat.rowCount
	return rbat
}

func (bat *Batch) IsEmpty() bool {
	return bat.rowCount == 0
}

func (bat *Batch) String() string {
	var buf bytes.Buffer

	for i, vec := range bat.Vecs {
		buf.WriteString(fmt.Sprintf("%d : %s\n", i, vec.String()))
	}
	return buf.String()
}

func (bat *Batch) Log(tag string) {
	if bat == nil || bat.rowCount < 1 {
		return
	}
	logutil.Infof("\n" + tag + "\n" + bat.String())
}

// Dup returns a flat deep copy of bat.
func (bat *Batch) Dup() *Batch {
	rbat := NewWithSize(len(bat.Vecs))
	rbat.SetAttributes(bat.Attrs)
	for j, vec := range bat.Vecs {
		rbat.SetVector(int32(j), vec.ToFlat().Dup())
	}
	rbat.rowCount = bat.rowCount
	return rbat
}

// Append appends every row of b onto bat. A nil bat returns b itself.
func (bat *Batch) Append(ctx context.Context, b *Batch) (*Batch, error) {
	if bat == nil {
		return b, nil
	}
	if len(bat.Vecs) != len(b.Vecs) {
		return nil, moerr.NewInternalError(ctx, "unexpected error happens in batch append")
	}
	for i := range bat.Vecs {
		bat.Vecs[i].UnionBatch(b.Vecs[i], 0, b.rowCount)
	}
	bat.rowCount += b.rowCount
	return bat, nil
}

// Concat returns a new batch holding the rows of every input in order.
func Concat(ctx context.Context, attrs []string, typs []types.Type, bats []*Batch) (*Batch, error) {
	rbat := NewWithSchema(attrs, typs)
	for _, bat := range bats {
		if _, err := rbat.Append(ctx, bat); err != nil {
			return nil, err
		}
	}
	return rbat, nil
}

// Take returns a new batch holding the rows of bat picked by sels, in order.
// Rows may repeat.
func (bat *Batch) Take(sels []int64) *Batch {
	rbat := NewWithSize(len(bat.Vecs))
	rbat.SetAttributes(bat.Attrs)
	for i, vec := range bat.Vecs {
		rvec := vector.NewVec(*vec.GetType())
		rvec.Union(vec, sels)
		rbat.Vecs[i] = rvec
	}
	rbat.rowCount = len(sels)
	return rbat
}
