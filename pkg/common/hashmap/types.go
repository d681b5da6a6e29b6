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
	"fmt"
)

const (
	UnitLimit = 256
)

// HashMethodKind is the physical encoding of a join or group key. A fixed
// kind packs the key columns into an unsigned integer of its width, the
// Serialized kind concatenates their bytes.
type HashMethodKind int

const (
	Serialized HashMethodKind = iota
	KeysU8
	KeysU16
	KeysU32
	KeysU64
	KeysU128
	KeysU256
	KeysU512
)

var fixedKinds = []HashMethodKind{KeysU8, KeysU16, KeysU32, KeysU64, KeysU128, KeysU256, KeysU512}

// Bits returns the key width of a fixed kind, 0 for Serialized.
func (k HashMethodKind) Bits() int {
	if k == Serialized {
		return 0
	}
	return 8 << (k - KeysU8)
}

func (k HashMethodKind) String() string {
	if k == Serialized {
		return "Serialized"
	}
	if k > KeysU512 || k < Serialized {
		return fmt.Sprintf("HashMethodKind(%d)", int(k))
	}
	return fmt.Sprintf("KeysU%d", k.Bits())
}
