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

package hashmap

import (
	"encoding/binary"
	"unsafe"

	"github.com/matrixorigin/joinunnest/pkg/common/moerr"
	"github.com/matrixorigin/joinunnest/pkg/container/hashtable"
	"github.com/matrixorigin/joinunnest/pkg/container/types"
	"github.com/matrixorigin/joinunnest/pkg/container/vector"
)

// BuildFixedKeys packs rows [start, start+count) of vecs into keys. The
// columns are laid out one after another in the key memory, in order.
// zValues[i] is 0 if any key column of row i is NULL and 1 otherwise; such
// rows never match.
func BuildFixedKeys[K hashtable.FixedKey](vecs []*vector.Vector, start, count int, keys []K, zValues []int64) {
	if count == 0 {
		return
	}
	var zero K
	keySize := int(unsafe.Sizeof(zero))
	for i := 0; i < count; i++ {
		keys[i] = zero
		zValues[i] = 1
	}
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&keys[0])), count*keySize)
	offset := 0
	for _, vec := range vecs {
		switch vec.GetType().Oid {
		case types.T_any:
			for i := 0; i < count; i++ {
				zValues[i] = 0
			}
			offset++
			continue
		case types.T_bool:
			fillFixedKeys[bool](raw, keySize, offset, vec, start, count, zValues)
		case types.T_int8:
			fillFixedKeys[int8](raw, keySize, offset, vec, start, count, zValues)
		case types.T_int16:
			fillFixedKeys[int16](raw, keySize, offset, vec, start, count, zValues)
		case types.T_int32:
			fillFixedKeys[int32](raw, keySize, offset, vec, start, count, zValues)
		case types.T_int64:
			fillFixedKeys[int64](raw, keySize, offset, vec, start, count, zValues)
		case types.T_uint8:
			fillFixedKeys[uint8](raw, keySize, offset, vec, start, count, zValues)
		case types.T_uint16:
			fillFixedKeys[uint16](raw, keySize, offset, vec, start, count, zValues)
		case types.T_uint32:
			fillFixedKeys[uint32](raw, keySize, offset, vec, start, count, zValues)
		case types.T_uint64:
			fillFixedKeys[uint64](raw, keySize, offset, vec, start, count, zValues)
		case types.T_float32:
			fillFixedKeys[float32](raw, keySize, offset, vec, start, count, zValues)
		case types.T_float64:
			fillFixedKeys[float64](raw, keySize, offset, vec, start, count, zValues)
		default:
			panic(moerr.NewInternalErrorNoCtx("type %s can not be a fixed width key", vec.GetType()))
		}
		offset += vec.GetType().FixedLength()
	}
}

func fillFixedKeys[T types.FixedSizeT](raw []byte, keySize, offset int, vec *vector.Vector, start, count int, zValues []int64) {
	var t T
	sz := int(unsafe.Sizeof(t))
	p := vector.GenerateFunctionParameter[T](vec)
	for i := 0; i < count; i++ {
		v, null := p.GetValue(uint64(start + i))
		if null {
			zValues[i] = 0
			continue
		}
		v = canonicalKey(v)
		pos := i*keySize + offset
		copy(raw[pos:pos+sz], unsafe.Slice((*byte)(unsafe.Pointer(&v)), sz))
	}
}

// BuildSerializedKeys appends rows [start, start+count) of vecs into keys,
// reusing their buffers. Fixed length values are written as is, strings are
// prefixed by their length. zValues is set as in BuildFixedKeys.
func BuildSerializedKeys(vecs []*vector.Vector, start, count int, keys [][]byte, zValues []int64) {
	for i := 0; i < count; i++ {
		keys[i] = keys[i][:0]
		zValues[i] = 1
	}
	for _, vec := range vecs {
		switch vec.GetType().Oid {
		case types.T_any:
			for i := 0; i < count; i++ {
				zValues[i] = 0
			}
		case types.T_bool:
			fillSerializedKeys[bool](vec, start, count, keys, zValues)
		case types.T_int8:
			fillSerializedKeys[int8](vec, start, count, keys, zValues)
		case types.T_int16:
			fillSerializedKeys[int16](vec, start, count, keys, zValues)
		case types.T_int32:
			fillSerializedKeys[int32](vec, start, count, keys, zValues)
		case types.T_int64:
			fillSerializedKeys[int64](vec, start, count, keys, zValues)
		case types.T_uint8:
			fillSerializedKeys[uint8](vec, start, count, keys, zValues)
		case types.T_uint16:
			fillSerializedKeys[uint16](vec, start, count, keys, zValues)
		case types.T_uint32:
			fillSerializedKeys[uint32](vec, start, count, keys, zValues)
		case types.T_uint64:
			fillSerializedKeys[uint64](vec, start, count, keys, zValues)
		case types.T_float32:
			fillSerializedKeys[float32](vec, start, count, keys, zValues)
		case types.T_float64:
			fillSerializedKeys[float64](vec, start, count, keys, zValues)
		case types.T_char, types.T_varchar:
			p := vector.GenerateFunctionParameter[string](vec)
			var lenBuf [4]byte
			for i := 0; i < count; i++ {
				v, null := p.GetValue(uint64(start + i))
				if null {
					zValues[i] = 0
					continue
				}
				binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(v)))
				keys[i] = append(keys[i], lenBuf[:]...)
				keys[i] = append(keys[i], v...)
			}
		default:
			panic(moerr.NewInternalErrorNoCtx("type %s can not be a key", vec.GetType()))
		}
	}
}

func fillSerializedKeys[T types.FixedSizeT](vec *vector.Vector, start, count int, keys [][]byte, zValues []int64) {
	var t T
	sz := int(unsafe.Sizeof(t))
	p := vector.GenerateFunctionParameter[T](vec)
	for i := 0; i < count; i++ {
		v, null := p.GetValue(uint64(start + i))
		if null {
			zValues[i] = 0
			continue
		}
		v = canonicalKey(v)
		keys[i] = append(keys[i], unsafe.Slice((*byte)(unsafe.Pointer(&v)), sz)...)
	}
}

// canonicalKey maps -0.0 to 0.0 so that equal floats have equal key bytes.
func canonicalKey[T types.FixedSizeT](v T) T {
	var zero T
	switch x := any(v).(type) {
	case float32:
		if x == 0 {
			return zero
		}
	case float64:
		if x == 0 {
			return zero
		}
	}
	return v
}
