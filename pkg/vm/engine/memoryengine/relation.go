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

package memoryengine

import (
	"context"
	"sync"

	"github.com/matrixorigin/joinunnest/pkg/common/moerr"
	"github.com/matrixorigin/joinunnest/pkg/container/batch"
	"github.com/matrixorigin/joinunnest/pkg/container/types"
	"github.com/matrixorigin/joinunnest/pkg/vm/engine"
)

type Relation struct {
	sync.RWMutex
	name  string
	attrs []engine.Attribute
	data  *batch.Batch
}

var _ engine.Relation = new(Relation)

func newRelation(name string, attrs []engine.Attribute) *Relation {
	names := make([]string, len(attrs))
	typs := make([]types.Type, len(attrs))
	for i, attr := range attrs {
		names[i] = attr.Name
		typs[i] = attr.Type
	}
	return &Relation{
		name:  name,
		attrs: attrs,
		data:  batch.NewWithSchema(names, typs),
	}
}

func (r *Relation) GetTableName() string {
	return r.name
}

func (r *Relation) Attributes() []engine.Attribute {
	return r.attrs
}

func (r *Relation) Rows() int64 {
	r.RLock()
	defer r.RUnlock()
	return int64(r.data.RowCount())
}

func (r *Relation) Write(ctx context.Context, bat *batch.Batch) error {
	if len(bat.Vecs) != len(r.attrs) {
		return moerr.NewInvalidInput(ctx, "table %s has %d columns, got %d", r.name, len(r.attrs), len(bat.Vecs))
	}
	for i, vec := range bat.Vecs {
		if vec.GetType().Oid != r.attrs[i].Type.Oid {
			return moerr.NewInvalidInput(ctx, "column %s expects %s, got %s", r.attrs[i].Name, r.attrs[i].Type, vec.GetType())
		}
	}
	r.Lock()
	defer r.Unlock()
	_, err := r.data.Append(ctx, bat)
	return err
}

// NewReader returns a reader over a snapshot of the rows written so far.
func (r *Relation) NewReader(_ context.Context, batchRows int) (engine.Reader, error) {
	if batchRows <= 0 {
		batchRows = 8192
	}
	r.RLock()
	rows := r.data.RowCount()
	r.RUnlock()
	return &reader{
		rel:       r,
		rows:      rows,
		batchRows: batchRows,
	}, nil
}

type reader struct {
	rel       *Relation
	pos       int
	rows      int
	batchRows int
}

func (rd *reader) Read(_ context.Context) (*batch.Batch, error) {
	if rd.pos >= rd.rows {
		return nil, nil
	}
	end := rd.pos + rd.batchRows
	if end > rd.rows {
		end = rd.rows
	}
	sels := make([]int64, 0, end-rd.pos)
	for i := rd.pos; i < end; i++ {
		sels = append(sels, int64(i))
	}
	rd.pos = end

	rd.rel.RLock()
	defer rd.rel.RUnlock()
	return rd.rel.data.Take(sels), nil
}

func (rd *reader) Close() error {
	rd.pos = rd.rows
	return nil
}
