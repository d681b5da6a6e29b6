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
	"context"

	"github.com/matrixorigin/joinunnest/pkg/common/moerr"
	"github.com/matrixorigin/joinunnest/pkg/container/batch"
)

// MergeEqBlock zips two batches of the same row count, the columns of
// build follow those of probe. The vectors are shared, not copied.
func MergeEqBlock(ctx context.Context, probe, build *batch.Batch) (*batch.Batch, error) {
	if probe.RowCount() != build.RowCount() {
		return nil, moerr.NewInternalError(ctx, "merge blocks of %d and %d rows", probe.RowCount(), build.RowCount())
	}
	bat := batch.NewWithSize(0)
	bat.Attrs = mergeAttrs(probe, len(probe.Vecs), padAttrs(build))
	bat.Vecs = append(append(bat.Vecs, probe.Vecs...), build.Vecs...)
	bat.SetRowCount(probe.RowCount())
	return bat, nil
}

// MergeWithConstantBlock pairs row of probe with every row of build: the
// probe columns become constant vectors as long as build.
func MergeWithConstantBlock(probe *batch.Batch, row int, build *batch.Batch) *batch.Batch {
	n := build.RowCount()
	bat := batch.NewWithSize(0)
	bat.Attrs = mergeAttrs(probe, len(probe.Vecs), padAttrs(build))
	for _, vec := range probe.Vecs {
		bat.Vecs = append(bat.Vecs, vec.ToConst(row, n))
	}
	bat.Vecs = append(bat.Vecs, build.Vecs...)
	bat.SetRowCount(n)
	return bat
}

// mergeAttrs returns the n attributes of probe followed by rest.
func mergeAttrs(probe *batch.Batch, n int, rest []string) []string {
	attrs := make([]string, n, n+len(rest))
	copy(attrs, probe.Attrs)
	return append(attrs, rest...)
}

func padAttrs(bat *batch.Batch) []string {
	attrs := make([]string, len(bat.Vecs))
	copy(attrs, bat.Attrs)
	return attrs
}
