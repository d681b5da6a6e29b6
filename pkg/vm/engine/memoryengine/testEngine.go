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

	"github.com/matrixorigin/joinunnest/pkg/container/batch"
	"github.com/matrixorigin/joinunnest/pkg/container/vector"
	"github.com/matrixorigin/joinunnest/pkg/vm/engine"
)

// CreateTable creates a relation and writes rows into it. Each row holds
// one boxed value per attribute, nil for NULL.
func CreateTable(ctx context.Context, e engine.Engine, name string, attrs []engine.Attribute, rows [][]any) error {
	if err := e.Create(ctx, name, attrs); err != nil {
		return err
	}
	rel, err := e.Relation(ctx, name)
	if err != nil {
		return err
	}
	bat := batch.NewWithSize(len(attrs))
	for i, attr := range attrs {
		bat.Attrs = append(bat.Attrs, attr.Name)
		bat.Vecs[i] = vector.NewVec(attr.Type)
	}
	for _, row := range rows {
		for i, val := range row {
			if err := vector.AppendAny(bat.Vecs[i], val); err != nil {
				return err
			}
		}
	}
	bat.SetRowCount(len(rows))
	return rel.Write(ctx, bat)
}
