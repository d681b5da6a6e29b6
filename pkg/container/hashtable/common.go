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

const (
	kInitialBucketCntBits = 8
	kInitialBucketCnt     = 1 << kInitialBucketCntBits

	kLoadFactorNumerator   = 1
	kLoadFactorDenominator = 2
)

func maxElemCnt(bucketCnt uint64) uint64 {
	return bucketCnt * kLoadFactorNumerator / kLoadFactorDenominator
}

// newBucketCntBits returns the bucket bits able to hold targetCnt elements,
// growing by at least a factor of four.
func newBucketCntBits(oldBits uint8, targetCnt uint64) uint8 {
	bits := oldBits + 2
	for maxElemCnt(uint64(1)<<bits) < targetCnt {
		bits++
	}
	return bits
}
