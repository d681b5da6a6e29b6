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

package hashtable

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFixedHashMapUint64(t *testing.T) {
	ht := NewFixedHashMap[uint64]()
	keys := make([]uint64, 10000)
	for i := range keys {
		keys[i] = uint64(i % 5000)
	}
	values := make([]uint64, len(keys))
	ht.InsertBatch(keys, nil, values)
	require.Equal(t, uint64(5000), ht.GroupCount())
	for i := 0; i < 5000; i++ {
		require.Equal(t, values[i], values[i+5000])
	}
	require.Equal(t, uint64(1), values[0])

	found := make([]uint64, 3)
	ht.FindBatch([]uint64{0, 4999, 5000}, []int64{1, 1, 1}, found)
	require.Equal(t, values[0], found[0])
	require.Equal(t, values[4999], found[1])
	require.Equal(t, uint64(0), found[2])
}

func TestFixedHashMapWide(t *testing.T) {
	ht := NewFixedHashMap[[4]uint64]()
	a := ht.Insert([4]uint64{1, 2, 3, 4})
	b := ht.Insert([4]uint64{})
	c := ht.Insert([4]uint64{1, 2, 3, 4})
	require.Equal(t, a, c)
	require.NotEqual(t, a, b)
	require.Equal(t, b, ht.Find([4]uint64{}))
	require.Equal(t, uint64(0), ht.Find([4]uint64{4, 3, 2, 1}))
	require.Equal(t, uint64(2), ht.GroupCount())
}

func TestFixedHashMapNullRows(t *testing.T) {
	ht := NewFixedHashMap[uint8]()
	values := make([]uint64, 3)
	ht.InsertBatch([]uint8{7, 0, 7}, []int64{1, 0, 1}, values)
	require.Equal(t, []uint64{1, 0, 1}, values)
	require.Equal(t, uint64(1), ht.GroupCount())
	require.Equal(t, uint64(0), ht.Find(0))
}

func TestStringHashMap(t *testing.T) {
	ht := NewStringHashMap()
	keys := make([][]byte, 2000)
	for i := range keys {
		keys[i] = []byte(fmt.Sprintf("key-%d", i%700))
	}
	values := make([]uint64, len(keys))
	ht.InsertBatch(keys, nil, values)
	require.Equal(t, uint64(700), ht.GroupCount())
	require.Equal(t, values[3], values[703])

	buf := []byte("key-3")
	require.Equal(t, values[3], ht.Find(buf))
	buf[4] = '9'
	require.Equal(t, values[9], ht.Find(buf))
	require.Equal(t, uint64(0), ht.Find([]byte("missing")))

	empty := ht.Insert(nil)
	require.Equal(t, empty, ht.Find([]byte{}))
}
