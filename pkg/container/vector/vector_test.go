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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/joinunnest/pkg/container/types"
)

func TestAppendAndUnion(t *testing.T) {
	v := NewVec(types.NewNullable(types.T_int64))
	AppendList(v, []int64{1, 2, 3}, []bool{false, true, false})
	require.Equal(t, 3, v.Length())
	require.True(t, v.IsNull(1))
	require.Equal(t, int64(3), v.GetAny(2))
	require.Nil(t, v.GetAny(1))

	w := NewVec(types.NewNullable(types.T_int64))
	w.UnionOne(v, 2)
	w.UnionMulti(v, 1, 2)
	w.Union(v, []int64{0, 0})
	require.Equal(t, 5, w.Length())
	require.Equal(t, "[3 null null 1 1]", w.String())
}

func TestConst(t *testing.T) {
	c := NewConst(types.New(types.T_varchar), "a", 3)
	require.True(t, c.IsConst())
	require.False(t, c.IsNull(2))
	require.Equal(t, "a", c.GetAny(2))

	flat := c.ToFlat()
	require.False(t, flat.IsConst())
	require.Equal(t, []string{"a", "a", "a"}, MustStrCol(flat))

	n := NewConstNull(types.New(types.T_int32), 4)
	require.True(t, n.IsConstNull())
	require.True(t, n.GetType().Nullable)
	require.True(t, n.IsNull(3))
	require.Equal(t, "null", n.String())
}

func TestShrinkAndDup(t *testing.T) {
	v := NewVec(types.NewNullable(types.T_varchar))
	for _, s := range []string{"a", "b", "c", "d"} {
		Append(v, s, s == "c")
	}
	d := v.Dup()
	v.Shrink([]int64{1, 2})
	require.Equal(t, 2, v.Length())
	require.Equal(t, "b", v.GetAny(0))
	require.True(t, v.IsNull(1))
	require.Equal(t, 4, d.Length())
	require.Equal(t, "d", d.GetAny(3))
}

func TestAppendAny(t *testing.T) {
	v := NewVec(types.New(types.T_int16))
	require.NoError(t, AppendAny(v, int16(7)))
	require.NoError(t, AppendAny(v, nil))
	require.Error(t, AppendAny(v, "x"))
	require.Equal(t, 2, v.Length())
	require.True(t, v.IsNull(1))
}

func TestFunctionParameter(t *testing.T) {
	v := NewVec(types.NewNullable(types.T_int32))
	AppendList(v, []int32{4, 5}, []bool{false, true})
	p := GenerateFunctionParameter[int32](v)
	val, null := p.GetValue(0)
	require.Equal(t, int32(4), val)
	require.False(t, null)
	_, null = p.GetValue(1)
	require.True(t, null)

	s := GenerateFunctionParameter[string](NewConst(types.New(types.T_char), "z", 10))
	val2, null := s.GetValue(9)
	require.Equal(t, "z", val2)
	require.False(t, null)

	n := GenerateFunctionParameter[bool](NewConstNull(types.New(types.T_bool), 1))
	_, null = n.GetValue(0)
	require.True(t, null)
}

func TestToConst(t *testing.T) {
	v := NewVec(types.NewNullable(types.T_float64))
	AppendList(v, []float64{1.5, 0}, []bool{false, true})
	c := v.ToConst(0, 5)
	require.True(t, c.IsConst())
	require.Equal(t, 5, c.Length())
	require.Equal(t, 1.5, c.GetAny(4))
	n := v.ToConst(1, 2)
	require.True(t, n.IsConstNull())
}
