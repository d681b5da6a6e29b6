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
	"github.com/matrixorigin/joinunnest/pkg/container/types"
)

// ChooseHashMethod picks the key encoding from the static key types. The
// value widths are summed; if every key is fixed length and the sum fits in
// maxFixedBits, the narrowest fixed kind holding it wins. Otherwise, or with
// no key at all, keys are serialized.
func ChooseHashMethod(keyTypes []types.Type, maxFixedBits int) HashMethodKind {
	if len(keyTypes) == 0 {
		return Serialized
	}
	size := 0
	for _, typ := range keyTypes {
		width := typ.FixedLength()
		if width < 0 {
			return Serialized
		}
		if width == 0 {
			// a NULL literal key never matches, give it a byte anyway
			width = 1
		}
		size += width
	}
	for _, kind := range fixedKinds {
		bits := kind.Bits()
		if bits > maxFixedBits {
			break
		}
		if size*8 <= bits {
			return kind
		}
	}
	return Serialized
}
