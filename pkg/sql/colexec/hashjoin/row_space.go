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

	"github.com/matrixorigin/joinunnest/pkg/container/batch"
)

func NewRowSpace(schema DataSchema) *RowSpace {
	return &RowSpace{schema: schema}
}

// pushChunk appends c and returns its chunk index.
func (rs *RowSpace) pushChunk(c *Chunk) int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.chunks = append(rs.chunks, c)
	return len(rs.chunks) - 1
}

func (rs *RowSpace) Chunks() []*Chunk {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.chunks[:len(rs.chunks):len(rs.chunks)]
}

func (rs *RowSpace) RowCount() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	n := 0
	for _, c := range rs.chunks {
		n += c.Data.RowCount()
	}
	return n
}

// Gather returns the rows of ptrs as one batch of the row space schema.
func (rs *RowSpace) Gather(ptrs []RowPtr) *batch.Batch {
	chunks := rs.Chunks()
	bat := batch.NewWithSchema(rs.schema.Attrs, rs.schema.Types)
	for i, vec := range bat.Vecs {
		for _, ptr := range ptrs {
			vec.UnionOne(chunks[ptr.ChunkIndex].Data.Vecs[i], int64(ptr.RowIndex))
		}
	}
	bat.SetRowCount(len(ptrs))
	return bat
}

// Materialize concatenates every chunk.
func (rs *RowSpace) Materialize(ctx context.Context) (*batch.Batch, error) {
	chunks := rs.Chunks()
	bats := make([]*batch.Batch, len(chunks))
	for i, c := range chunks {
		bats[i] = c.Data
	}
	return batch.Concat(ctx, rs.schema.Attrs, rs.schema.Types, bats)
}
