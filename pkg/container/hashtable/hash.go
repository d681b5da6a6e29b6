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
	"math/bits"
	"math/rand"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

var hashkey [4]uint64

func init() {
	hashkey[0] = rand.Uint64()
	hashkey[1] = rand.Uint64()
	hashkey[2] = rand.Uint64()
	hashkey[3] = rand.Uint64()
}

const (
	m1 = 0xa0761d6478bd642f
	m2 = 0xe7037ed1a0b428db
	m5 = 0x1d8e4e27c47d124f
)

func mix(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return hi ^ lo
}

// Int64Hash is the wyhash finalizer over a single word.
func Int64Hash(x uint64) uint64 {
	return mix(m5^8, mix(x^m2, x^hashkey[1]^hashkey[0]^m1))
}

// BytesHash hashes a byte string with xxhash, salted per process.
func BytesHash(data []byte) uint64 {
	return mix(xxhash.Sum64(data)^m2, hashkey[2]^m1)
}

// fixedKeyHash hashes the memory of a fixed width key. Keys up to a word are
// folded into a single word first.
func fixedKeyHash[K FixedKey](k *K) uint64 {
	size := unsafe.Sizeof(*k)
	data := unsafe.Slice((*byte)(unsafe.Pointer(k)), size)
	if size <= 8 {
		var x uint64
		for i := len(data) - 1; i >= 0; i-- {
			x = x<<8 | uint64(data[i])
		}
		return Int64Hash(x)
	}
	return BytesHash(data)
}
