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

// FixedKey are the key shapes of the fixed width hash maps, from 8 to 512 bits.
type FixedKey interface {
	uint8 | uint16 | uint32 | uint64 | [2]uint64 | [4]uint64 | [8]uint64
}

type FixedHashMapCell[K FixedKey] struct {
	Key    K
	Mapped uint64
}

// FixedHashMap is an open addressing hash map from a fixed width key to a
// group id. Group ids start at 1, 0 means not found. The zero key lives in
// its own cell so that an empty bucket is recognised by its zero key.
type FixedHashMap[K FixedKey] struct {
	bucketCntBits uint8
	bucketCnt     uint64
	elemCnt       uint64
	maxElemCnt    uint64
	zeroCell      FixedHashMapCell[K]
	bucketData    []FixedHashMapCell[K]
}

func NewFixedHashMap[K FixedKey]() *FixedHashMap[K] {
	ht := &FixedHashMap[K]{}
	ht.Init()
	return ht
}

func (ht *FixedHashMap[K]) Init() {
	ht.bucketCntBits = kInitialBucketCntBits
	ht.bucketCnt = kInitialBucketCnt
	ht.elemCnt = 0
	ht.maxElemCnt = maxElemCnt(kInitialBucketCnt)
	ht.zeroCell = FixedHashMapCell[K]{}
	ht.bucketData = make([]FixedHashMapCell[K], kInitialBucketCnt)
}

func (ht *FixedHashMap[K]) Insert(key K) uint64 {
	var zero K
	if key == zero {
		if ht.zeroCell.Mapped == 0 {
			ht.elemCnt++
			ht.zeroCell.Mapped = ht.elemCnt
		}
		return ht.zeroCell.Mapped
	}

	ht.resizeOnDemand(1)

	empty, _, cell := ht.findBucket(fixedKeyHash(&key), key)
	if empty {
		ht.elemCnt++
		cell.Key = key
		cell.Mapped = ht.elemCnt
	}
	return cell.Mapped
}

// InsertBatch inserts every key whose zValue is not 0 and writes its group id
// into values. Rows with a zero zValue get 0.
func (ht *FixedHashMap[K]) InsertBatch(keys []K, zValues []int64, values []uint64) {
	ht.resizeOnDemand(len(keys))

	for i := range keys {
		if zValues != nil && zValues[i] == 0 {
			values[i] = 0
			continue
		}
		values[i] = ht.Insert(keys[i])
	}
}

func (ht *FixedHashMap[K]) Find(key K) uint64 {
	var zero K
	if key == zero {
		return ht.zeroCell.Mapped
	}
	_, _, cell := ht.findBucket(fixedKeyHash(&key), key)
	return cell.Mapped
}

// FindBatch looks up every key whose zValue is not 0. Missing keys and
// skipped rows get 0.
func (ht *FixedHashMap[K]) FindBatch(keys []K, zValues []int64, values []uint64) {
	for i := range keys {
		if zValues != nil && zValues[i] == 0 {
			values[i] = 0
			continue
		}
		values[i] = ht.Find(keys[i])
	}
}

func (ht *FixedHashMap[K]) findBucket(hash uint64, key K) (empty bool, idx uint64, cell *FixedHashMapCell[K]) {
	var zero K
	mask := ht.bucketCnt - 1
	var equal bool
	for idx = hash & mask; true; idx = (idx + 1) & mask {
		cell = &ht.bucketData[idx]
		empty, equal = cell.Key == zero, cell.Key == key
		if empty || equal {
			return
		}
	}
	return
}

func (ht *FixedHashMap[K]) resizeOnDemand(n int) {
	targetCnt := ht.elemCnt + uint64(n)
	if targetCnt <= ht.maxElemCnt {
		return
	}

	oldBucketData := ht.bucketData

	ht.bucketCntBits = newBucketCntBits(ht.bucketCntBits, targetCnt)
	ht.bucketCnt = uint64(1) << ht.bucketCntBits
	ht.maxElemCnt = maxElemCnt(ht.bucketCnt)
	ht.bucketData = make([]FixedHashMapCell[K], ht.bucketCnt)

	var zero K
	for i := range oldBucketData {
		cell := &oldBucketData[i]
		if cell.Key != zero {
			_, newIdx, _ := ht.findBucket(fixedKeyHash(&cell.Key), cell.Key)
			ht.bucketData[newIdx] = *cell
		}
	}
}

// GroupCount returns the number of distinct keys inserted.
func (ht *FixedHashMap[K]) GroupCount() uint64 {
	return ht.elemCnt
}
