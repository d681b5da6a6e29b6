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

package engine

import (
	"context"

	"github.com/matrixorigin/joinunnest/pkg/container/batch"
	"github.com/matrixorigin/joinunnest/pkg/container/types"
)

type Attribute struct {
	Name string
	Type types.Type
}

// Reader yields the rows of a relation batch by batch. Read returns a nil
// batch once every row has been read.
type Reader interface {
	Read(ctx context.Context) (*batch.Batch, error)
	Close() error
}

type Relation interface {
	GetTableName() string
	Attributes() []Attribute
	Rows() int64

	Write(ctx context.Context, bat *batch.Batch) error

	NewReader(ctx context.Context, batchRows int) (Reader, error)
}

type Engine interface {
	Create(ctx context.Context, name string, attrs []Attribute) error
	Delete(ctx context.Context, name string) error
	Relation(ctx context.Context, name string) (Relation, error)
	Relations(ctx context.Context) []string
}
