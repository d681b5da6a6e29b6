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

package hashjoin

import (
	"github.com/matrixorigin/joinunnest/pkg/common/hashmap"
	"github.com/matrixorigin/joinunnest/pkg/container/hashtable"
	"github.com/matrixorigin/joinunnest/pkg/container/vector"
)

func newHashTable(kind hashmap.HashMethodKind) *HashTable {
	ht := &HashTable{kind: kind}
	switch kind {
	case hashmap.KeysU8:
		ht.u8 = hashtable.NewFixedHashMap[uint8]()
	case hashmap.KeysU16:
		ht.u16 = hashtable.NewFixedHashMap[uint16]()
	case hashmap.KeysU32:
		ht.u32 = hashtable.NewFixedHashMap[uint32]()
	case hashmap.KeysU64:
		ht.u64 = hashtable.NewFixedHashMap[uint64]()
	case hashmap.KeysU128:
		ht.u128 = hashtable.NewFixedHashMap[[2]uint64]()
	case hashmap.KeysU256:
		ht.u256 = hashtable.NewFixedHashMap[[4]uint64]()
	case hashmap.KeysU512:
		ht.u512 = hashtable.NewFixedHashMap[[8]uint64]()
	default:
		ht.serialized = hashtable.NewStringHashMap()
	}
	return ht
}

func (ht *HashTable) Kind() hashmap.HashMethodKind {
	return ht.kind
}

func (ht *HashTable) GroupCount() int {
	return len(ht.groups)
}

// Rows returns the rows of group id, nil for 0.
func (ht *HashTable) Rows(id uint64) []RowPtr {
	if id == 0 {
		return nil
	}
	return ht.groups[id-1]
}

// addRow records ptr under group id, ids are handed out in order.
func (ht *HashTable) addRow(id uint64, ptr RowPtr) {
	for uint64(len(ht.groups)) < id {
		ht.groups = append(ht.groups, nil)
	}
	ht.groups[id-1] = append(ht.groups[id-1], ptr)
}

// insertFixed encodes rows [start, start+count) of vecs and inserts them,
// b.values and b.zValues receive the group ids and null marks.
func (ht *HashTable) insertFixed(b *keyBuffers, vecs []*vector.Vector, start, count int) {
	b.reset(count)
	switch ht.kind {
	case hashmap.KeysU8:
		insertFixedKeys(ht.u8, b, vecs, start, count)
	case hashmap.KeysU16:
		insertFixedKeys(ht.u16, b, vecs, start, count)
	case hashmap.KeysU32:
		insertFixedKeys(ht.u32, b, vecs, start, count)
	case hashmap.KeysU64:
		insertFixedKeys(ht.u64, b, vecs, start, count)
	case hashmap.KeysU128:
		insertFixedKeys(ht.u128, b, vecs, start, count)
	case hashmap.KeysU256:
		insertFixedKeys(ht.u256, b, vecs, start, count)
	case hashmap.KeysU512:
		insertFixedKeys(ht.u512, b, vecs, start, count)
	}
}

// insertSerialized inserts already serialized keys.
func (ht *HashTable) insertSerialized(b *keyBuffers, keys [][]byte, keyNulls []bool) {
	b.reset(len(keys))
	for i, null := range keyNulls {
		b.zValues[i] = 1
		if null {
			b.zValues[i] = 0
		}
	}
	ht.serialized.InsertBatch(keys, b.zValues[:len(keys)], b.values[:len(keys)])
}

// find looks up rows [start, start+count) of vecs.
func (ht *HashTable) find(b *keyBuffers, vecs []*vector.Vector, start, count int) {
	b.reset(count)
	switch ht.kind {
	case hashmap.KeysU8:
		findFixedKeys(ht.u8, b, vecs, start, count)
	case hashmap.KeysU16:
		findFixedKeys(ht.u16, b, vecs, start, count)
	case hashmap.KeysU32:
		findFixedKeys(ht.u32, b, vecs, start, count)
	case hashmap.KeysU64:
		findFixedKeys(ht.u64, b, vecs, start, count)
	case hashmap.KeysU128:
		findFixedKeys(ht.u128, b, vecs, start, count)
	case hashmap.KeysU256:
		findFixedKeys(ht.u256, b, vecs, start, count)
	case hashmap.KeysU512:
		findFixedKeys(ht.u512, b, vecs, start, count)
	default:
		keys := b.serialized[:count]
		hashmap.BuildSerializedKeys(vecs, start, count, keys, b.zValues[:count])
		ht.serialized.FindBatch(keys, b.zValues[:count], b.values[:count])
	}
}

func insertFixedKeys[K hashtable.FixedKey](mp *hashtable.FixedHashMap[K], b *keyBuffers, vecs []*vector.Vector, start, count int) {
	keys := fixedKeys[K](b)[:count]
	hashmap.BuildFixedKeys(vecs, start, count, keys, b.zValues[:count])
	mp.InsertBatch(keys, b.zValues[:count], b.values[:count])
}

func findFixedKeys[K hashtable.FixedKey](mp *hashtable.FixedHashMap[K], b *keyBuffers, vecs []*vector.Vector, start, count int) {
	keys := fixedKeys[K](b)[:count]
	hashmap.BuildFixedKeys(vecs, start, count, keys, b.zValues[:count])
	mp.FindBatch(keys, b.zValues[:count], b.values[:count])
}

func fixedKeys[K hashtable.FixedKey](b *keyBuffers) []K {
	if keys, ok := b.fixed.([]K); ok {
		return keys
	}
	keys := make([]K, hashmap.UnitLimit)
	b.fixed = keys
	return keys
}

// reset makes room for count keys, count never exceeds hashmap.UnitLimit.
func (b *keyBuffers) reset(count int) {
	if b.values == nil {
		b.values = make([]uint64, hashmap.UnitLimit)
		b.zValues = make([]int64, hashmap.UnitLimit)
		b.serialized = make([][]byte, hashmap.UnitLimit)
	}
	for i := 0; i < count; i++ {
		b.values[i] = 0
	}
}
