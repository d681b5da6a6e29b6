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

package vector

import (
	"fmt"

	"github.com/matrixorigin/joinunnest/pkg/common/moerr"
	"github.com/matrixorigin/joinunnest/pkg/container/nulls"
	"github.com/matrixorigin/joinunnest/pkg/container/types"
)

const (
	FLAT     = iota // flat vector represent a uncompressed vector
	CONSTANT        // const vector
)

// Vector represent a column
type Vector struct {
	// vector's class
	class int
	// type represent the type of column
	typ types.Type
	nsp *nulls.Nulls // nulls list

	// typed slice holding the data, []string for the string family.
	// A constant vector keeps a single element.
	col any

	length int
}

func NewVec(typ types.Type) *Vector {
	return &Vector{
		typ:   typ,
		class: FLAT,
		nsp:   &nulls.Nulls{},
		col:   makeCol(typ, 0),
	}
}

func NewConstNull(typ types.Type, length int) *Vector {
	vec := &Vector{
		typ:    typ.WithNullable(true),
		class:  CONSTANT,
		nsp:    &nulls.Nulls{},
		col:    makeCol(typ, 1),
		length: length,
	}
	nulls.Add(vec.nsp, 0)
	return vec
}

func NewConst[T any](typ types.Type, val T, length int) *Vector {
	return &Vector{
		typ:    typ,
		class:  CONSTANT,
		nsp:    &nulls.Nulls{},
		col:    []T{val},
		length: length,
	}
}

func makeCol(typ types.Type, n int) any {
	switch typ.Oid {
	case types.T_any:
		return make([]bool, n)
	case types.T_bool:
		return make([]bool, n)
	case types.T_int8:
		return make([]int8, n)
	case types.T_int16:
		return make([]int16, n)
	case types.T_int32:
		return make([]int32, n)
	case types.T_int64:
		return make([]int64, n)
	case types.T_uint8:
		return make([]uint8, n)
	case types.T_uint16:
		return make([]uint16, n)
	case types.T_uint32:
		return make([]uint32, n)
	case types.T_uint64:
		return make([]uint64, n)
	case types.T_float32:
		return make([]float32, n)
	case types.T_float64:
		return make([]float64, n)
	case types.T_char, types.T_varchar:
		return make([]string, n)
	default:
		panic(moerr.NewInternalErrorNoCtx("unexpect type %s for vector", typ))
	}
}

func (v *Vector) Length() int {
	return v.length
}

func (v *Vector) SetLength(n int) {
	v.length = n
}

func (v *Vector) GetType() *types.Type {
	return &v.typ
}

func (v *Vector) SetType(typ types.Type) {
	v.typ = typ
}

func (v *Vector) GetNulls() *nulls.Nulls {
	return v.nsp
}

func (v *Vector) SetNulls(nsp *nulls.Nulls) {
	v.nsp = nsp
}

func (v *Vector) IsConst() bool {
	return v.class == CONSTANT
}

func (v *Vector) IsConstNull() bool {
	return v.class == CONSTANT && nulls.Contains(v.nsp, 0)
}

// IsNull reports whether row i is NULL, constant vectors included.
func (v *Vector) IsNull(i uint64) bool {
	if v.class == CONSTANT {
		return nulls.Contains(v.nsp, 0)
	}
	return nulls.Contains(v.nsp, i)
}

func MustFixedCol[T types.FixedSizeT](v *Vector) []T {
	return v.col.([]T)
}

func MustStrCol(v *Vector) []string {
	return v.col.([]string)
}

// MustCol returns the data of v decoded as T.
func MustCol[T types.ColT](v *Vector) []T {
	return v.col.([]T)
}

// GetAny returns row i boxed, nil for NULL.
func (v *Vector) GetAny(i int) any {
	if v.class == CONSTANT {
		i = 0
	}
	if nulls.Contains(v.nsp, uint64(i)) {
		return nil
	}
	switch col := v.col.(type) {
	case []bool:
		return col[i]
	case []int8:
		return col[i]
	case []int16:
		return col[i]
	case []int32:
		return col[i]
	case []int64:
		return col[i]
	case []uint8:
		return col[i]
	case []uint16:
		return col[i]
	case []uint32:
		return col[i]
	case []uint64:
		return col[i]
	case []float32:
		return col[i]
	case []float64:
		return col[i]
	case []string:
		return col[i]
	}
	panic(moerr.NewInternalErrorNoCtx("unexpect type %s for function vector.GetAny", v.typ))
}

// ToFlat returns a flat copy of a constant vector, or v itself.
func (v *Vector) ToFlat() *Vector {
	if v.class != CONSTANT {
		return v
	}
	w := NewVec(v.typ)
	w.UnionMulti(v, 0, v.length)
	return w
}

// ToConst returns a constant vector of length rows holding row of v.
func (v *Vector) ToConst(row int, length int) *Vector {
	w := NewVec(v.typ)
	w.UnionOne(v, int64(row))
	w.class = CONSTANT
	w.length = length
	return w
}

func (v *Vector) Dup() *Vector {
	w := &Vector{
		class:  v.class,
		typ:    v.typ,
		nsp:    v.nsp.Clone(),
		length: v.length,
	}
	switch col := v.col.(type) {
	case []bool:
		w.col = append([]bool{}, col...)
	case []int8:
		w.col = append([]int8{}, col...)
	case []int16:
		w.col = append([]int16{}, col...)
	case []int32:
		w.col = append([]int32{}, col...)
	case []int64:
		w.col = append([]int64{}, col...)
	case []uint8:
		w.col = append([]uint8{}, col...)
	case []uint16:
		w.col = append([]uint16{}, col...)
	case []uint32:
		w.col = append([]uint32{}, col...)
	case []uint64:
		w.col = append([]uint64{}, col...)
	case []float32:
		w.col = append([]float32{}, col...)
	case []float64:
		w.col = append([]float64{}, col...)
	case []string:
		w.col = append([]string{}, col...)
	default:
		panic(moerr.NewInternalErrorNoCtx("unexpect type %s for function vector.Dup", v.typ))
	}
	return w
}

// Shrink use to shrink vectors, sels must be guaranteed to be ordered
func (v *Vector) Shrink(sels []int64) {
	if v.class == FLAT {
		switch v.col.(type) {
		case []bool:
			shrinkFixed[bool](v, sels)
		case []int8:
			shrinkFixed[int8](v, sels)
		case []int16:
			shrinkFixed[int16](v, sels)
		case []int32:
			shrinkFixed[int32](v, sels)
		case []int64:
			shrinkFixed[int64](v, sels)
		case []uint8:
			shrinkFixed[uint8](v, sels)
		case []uint16:
			shrinkFixed[uint16](v, sels)
		case []uint32:
			shrinkFixed[uint32](v, sels)
		case []uint64:
			shrinkFixed[uint64](v, sels)
		case []float32:
			shrinkFixed[float32](v, sels)
		case []float64:
			shrinkFixed[float64](v, sels)
		case []string:
			shrinkFixed[string](v, sels)
		default:
			panic(moerr.NewInternalErrorNoCtx("unexpect type %s for function vector.Shrink", v.typ))
		}
		v.nsp = nulls.Filter(v.nsp, sels)
	}
	v.length = len(sels)
}

// UnionOne appends row sel of w to v.
func (v *Vector) UnionOne(w *Vector, sel int64) {
	if w.class == CONSTANT {
		sel = 0
	}
	if nulls.Contains(w.nsp, uint64(sel)) {
		v.AppendNulls(1)
		return
	}
	switch col := w.col.(type) {
	case []bool:
		appendOne(v, col[sel])
	case []int8:
		appendOne(v, col[sel])
	case []int16:
		appendOne(v, col[sel])
	case []int32:
		appendOne(v, col[sel])
	case []int64:
		appendOne(v, col[sel])
	case []uint8:
		appendOne(v, col[sel])
	case []uint16:
		appendOne(v, col[sel])
	case []uint32:
		appendOne(v, col[sel])
	case []uint64:
		appendOne(v, col[sel])
	case []float32:
		appendOne(v, col[sel])
	case []float64:
		appendOne(v, col[sel])
	case []string:
		appendOne(v, col[sel])
	default:
		panic(moerr.NewInternalErrorNoCtx("unexpect type %s for function vector.UnionOne", v.typ))
	}
}

// UnionMulti appends row sel of w to v cnt times.
func (v *Vector) UnionMulti(w *Vector, sel int64, cnt int) {
	if w.class == CONSTANT {
		sel = 0
	}
	if nulls.Contains(w.nsp, uint64(sel)) {
		v.AppendNulls(cnt)
		return
	}
	switch col := w.col.(type) {
	case []bool:
		appendMulti(v, col[sel], cnt)
	case []int8:
		appendMulti(v, col[sel], cnt)
	case []int16:
		appendMulti(v, col[sel], cnt)
	case []int32:
		appendMulti(v, col[sel], cnt)
	case []int64:
		appendMulti(v, col[sel], cnt)
	case []uint8:
		appendMulti(v, col[sel], cnt)
	case []uint16:
		appendMulti(v, col[sel], cnt)
	case []uint32:
		appendMulti(v, col[sel], cnt)
	case []uint64:
		appendMulti(v, col[sel], cnt)
	case []float32:
		appendMulti(v, col[sel], cnt)
	case []float64:
		appendMulti(v, col[sel], cnt)
	case []string:
		appendMulti(v, col[sel], cnt)
	default:
		panic(moerr.NewInternalErrorNoCtx("unexpect type %s for function vector.UnionMulti", v.typ))
	}
}

func (v *Vector) Union(w *Vector, sels []int64) {
	for _, sel := range sels {
		v.UnionOne(w, sel)
	}
}

// UnionBatch appends cnt rows of w starting at offset.
func (v *Vector) UnionBatch(w *Vector, offset int64, cnt int) {
	for i := 0; i < cnt; i++ {
		v.UnionOne(w, offset+int64(i))
	}
}

// AppendNulls appends cnt NULL rows.
func (v *Vector) AppendNulls(cnt int) {
	if cnt <= 0 {
		return
	}
	length := v.length
	switch col := v.col.(type) {
	case []bool:
		v.col = append(col, make([]bool, cnt)...)
	case []int8:
		v.col = append(col, make([]int8, cnt)...)
	case []int16:
		v.col = append(col, make([]int16, cnt)...)
	case []int32:
		v.col = append(col, make([]int32, cnt)...)
	case []int64:
		v.col = append(col, make([]int64, cnt)...)
	case []uint8:
		v.col = append(col, make([]uint8, cnt)...)
	case []uint16:
		v.col = append(col, make([]uint16, cnt)...)
	case []uint32:
		v.col = append(col, make([]uint32, cnt)...)
	case []uint64:
		v.col = append(col, make([]uint64, cnt)...)
	case []float32:
		v.col = append(col, make([]float32, cnt)...)
	case []float64:
		v.col = append(col, make([]float64, cnt)...)
	case []string:
		v.col = append(col, make([]string, cnt)...)
	default:
		panic(moerr.NewInternalErrorNoCtx("unexpect type %s for function vector.AppendNulls", v.typ))
	}
	v.length += cnt
	nulls.AddRange(v.nsp, uint64(length), uint64(length+cnt))
}

func Append[T any](vec *Vector, val T, isNull bool) {
	if isNull {
		vec.AppendNulls(1)
		return
	}
	appendOne(vec, val)
}

func AppendMulti[T any](vec *Vector, val T, isNull bool, cnt int) {
	if isNull {
		vec.AppendNulls(cnt)
		return
	}
	appendMulti(vec, val, cnt)
}

func AppendList[T any](vec *Vector, ws []T, isNulls []bool) {
	for i, w := range ws {
		if len(isNulls) > 0 && isNulls[i] {
			vec.AppendNulls(1)
		} else {
			appendOne(vec, w)
		}
	}
}

// AppendAny appends a boxed value, nil is NULL. The dynamic type of val
// must match the vector type.
func AppendAny(vec *Vector, val any) error {
	if val == nil {
		vec.AppendNulls(1)
		return nil
	}
	switch col := vec.col.(type) {
	case []bool:
		if x, ok := val.(bool); ok {
			vec.col = append(col, x)
			vec.length++
			return nil
		}
	case []int8:
		if x, ok := val.(int8); ok {
			vec.col = append(col, x)
			vec.length++
			return nil
		}
	case []int16:
		if x, ok := val.(int16); ok {
			vec.col = append(col, x)
			vec.length++
			return nil
		}
	case []int32:
		if x, ok := val.(int32); ok {
			vec.col = append(col, x)
			vec.length++
			return nil
		}
	case []int64:
		if x, ok := val.(int64); ok {
			vec.col = append(col, x)
			vec.length++
			return nil
		}
	case []uint8:
		if x, ok := val.(uint8); ok {
			vec.col = append(col, x)
			vec.length++
			return nil
		}
	case []uint16:
		if x, ok := val.(uint16); ok {
			vec.col = append(col, x)
			vec.length++
			return nil
		}
	case []uint32:
		if x, ok := val.(uint32); ok {
			vec.col = append(col, x)
			vec.length++
			return nil
		}
	case []uint64:
		if x, ok := val.(uint64); ok {
			vec.col = append(col, x)
			vec.length++
			return nil
		}
	case []float32:
		if x, ok := val.(float32); ok {
			vec.col = append(col, x)
			vec.length++
			return nil
		}
	case []float64:
		if x, ok := val.(float64); ok {
			vec.col = append(col, x)
			vec.length++
			return nil
		}
	case []string:
		if x, ok := val.(string); ok {
			vec.col = append(col, x)
			vec.length++
			return nil
		}
	}
	return moerr.NewInternalErrorNoCtx("cannot append %T to %s vector", val, vec.typ)
}

func appendOne[T any](vec *Vector, val T) {
	vec.col = append(vec.col.([]T), val)
	vec.length++
}

func appendMulti[T any](vec *Vector, val T, cnt int) {
	col := vec.col.([]T)
	for i := 0; i < cnt; i++ {
		col = append(col, val)
	}
	vec.col = col
	vec.length += cnt
}

func shrinkFixed[T any](v *Vector, sels []int64) {
	vs := v.col.([]T)
	ws := make([]T, len(sels))
	for i, sel := range sels {
		ws[i] = vs[sel]
	}
	v.col = ws
}

func (v *Vector) String() string {
	if v.class == CONSTANT {
		if v.IsConstNull() {
			return "null"
		}
		return fmt.Sprintf("%v", v.GetAny(0))
	}
	vals := make([]string, v.length)
	for i := range vals {
		if val := v.GetAny(i); val != nil {
			vals[i] = fmt.Sprintf("%v", val)
		} else {
			vals[i] = "null"
		}
	}
	return fmt.Sprintf("%v", vals)
}
