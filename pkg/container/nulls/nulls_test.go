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

package nulls

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNulls(t *testing.T) {
	nsp := &Nulls{}
	require.False(t, Any(nsp))
	require.False(t, Contains(nsp, 1))

	Add(nsp, 1, 3, 5)
	AddRange(nsp, 10, 12)
	require.True(t, Any(nsp))
	require.Equal(t, 5, Length(nsp))
	require.Equal(t, []uint64{1, 3, 5, 10, 11}, ToArray(nsp))

	Del(nsp, 3)
	require.False(t, Contains(nsp, 3))
	require.Equal(t, "[1 5 10 11]", String(nsp))

	clone := nsp.Clone()
	Reset(nsp)
	require.False(t, Any(nsp))
	require.Equal(t, 4, Length(clone))
}

func TestFilterAndRange(t *testing.T) {
	nsp := Build(8, 0, 2, 6)
	f := Filter(nsp, []int64{2, 3, 6})
	require.Equal(t, []uint64{0, 2}, ToArray(f))
	require.Equal(t, 2, FilterCount(nsp, []int64{0, 1, 2}))

	m := Range(nsp, 2, 7, 2, &Nulls{})
	require.Equal(t, []uint64{0, 4}, ToArray(m))

	r := &Nulls{}
	Or(Build(4, 1), Build(4, 3), r)
	require.Equal(t, []uint64{1, 3}, ToArray(r))
	Set(r, Build(4, 0))
	require.Equal(t, 3, Length(r))
}
