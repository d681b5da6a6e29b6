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
	"bytes"
)

type StringHashMapCell struct {
	Hash   uint64
	Key    []byte
	Mapped uint64
}

// StringHashMap maps serialized keys to group ids starting at 1. Keys are
// copied on insert, so callers may reuse their buffers.
type StringHashMap struct {
	bucketCntBits uint8
	bucketCnt     uint64
	elemCnt       uint64
	maxElemCnt    uint64
	bucketData    []StringHashMapCell
}

func NewStringHashMap() *StringHashMap {
	ht := &StringHashMap{}
	ht.Init()
	return ht
}

func (ht *StringHashMap) Init() {
	ht.bucketCntBits = kInitialBucketCntBits
	ht.bucketCnt = kInitialBucketCnt
	ht.elemCnt = 0
	ht.maxElemCnt = maxElemCnt(kInitialBucketCnt)
	ht.bucketData = make([]StringHashMapCell, kInitialBucketCnt)
}

func (ht *StringHashMap) Insert(key []byte) uint64 {
	ht.resizeOnDemand(1)

	hash := BytesHash(key)
	empty, _, cell := ht.findBucket(hash, key)
	if empty {
		ht.elemCnt++
		cell.Hash = hash
		cell.Key = append(make([]byte, 0, len(key)), key...)
		cell.Mapped = ht.elemCnt
	}
	return cell.Mapped
}

// InsertBatch inserts every key whose zValue is not 0 and writes its group id
// into values. Rows with a zero zValue get 0.
func (ht *StringHashMap) InsertBatch(keys [][]byte, zValues []int64, values []uint64) {
	ht.resizeOnDemand(len(keys))

	for i := range keys {
		if zValues != nil && zValues[i] == 0 {
			values[i] = 0
			continue
		}
		values[i] = ht.Insert(keys[i])
	}
}

func (ht *StringHashMap) Find(key []byte) uint64 {
	_, _, cell := ht.findBucket(BytesHash(key), key)
	return cell.Mapped
}

// FindBatch looks up every key whose zValue is not 0. Missing keys and
// skipped rows get 0.
func (ht *StringHashMap) FindBatch(keys [][]byte, zValues []int64, values []uint64) {
	for i := range keys {
		if zValues != nil && zValues[i] == 0 {
			values[i] = 0
			continue
		}
		values[i] = ht.Find(keys[i])
	}
}

func (ht *StringHashMap) findBucket(hash uint64, key []byte) (empty bool, idx uint64, cell *StringHashMapCell) {
	mask := ht.bucketCnt - 1
	for idx = hash & mask; true; idx = (idx + 1) & mask {
		cell = &ht.bucketData[idx]
		if cell.Mapped == 0 {
			return true, idx, cell
		}
		if cell.Hash == hash && bytes.Equal(cell.Key, key) {
			return false, idx, cell
		}
	}
	return
}

func (ht *StringHashMap) resizeOnDemand(n int) {
	targetCnt := ht.elemCnt + uint64(n)
	if targetCnt <= ht.maxElemCnt {
		return
	}

	oldBucketData := ht.bucketData

	ht.bucketCntBits = newBucketCntBits(ht.bucketCntBits, targetCnt)
	ht.bucketCnt = uint64(1) << ht.bucketCntBits
	ht.maxElemCnt = maxElemCnt(ht.bucketCnt)
	ht.bucketData = make([]StringHashMapCell, ht.bucketCnt)

	mask := ht.bucketCnt - 1
	for i := range oldBucketData {
		cell := &oldBucketData[i]
		if cell.Mapped == 0 {
			continue
		}
		idx := cell.Hash & mask
		for ht.bucketData[idx].Mapped != 0 {
			idx = (idx + 1) & mask
		}
		ht.bucketData[idx] = *cell
	}
}

// GroupCount returns the number of distinct keys inserted.
func (ht *StringHashMap) GroupCount() uint64 {
	return ht.elemCnt
}
