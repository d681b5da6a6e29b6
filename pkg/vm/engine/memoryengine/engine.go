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
	"strings"
	"sync"

	"github.com/google/btree"

	"github.com/matrixorigin/joinunnest/pkg/common/moerr"
	"github.com/matrixorigin/joinunnest/pkg/vm/engine"
)

const (
	defaultDatabase = "default"
	btreeDegree     = 32
)

// Engine keeps its relations in memory, ordered by name.
type Engine struct {
	sync.RWMutex
	tables *btree.BTree
}

type tableItem struct {
	name string
	rel  *Relation
}

func (t *tableItem) Less(than btree.Item) bool {
	return t.name < than.(*tableItem).name
}

var _ engine.Engine = new(Engine)

func New() *Engine {
	return &Engine{
		tables: btree.New(btreeDegree),
	}
}

func (e *Engine) Create(ctx context.Context, name string, attrs []engine.Attribute) error {
	name = strings.ToLower(name)
	e.Lock()
	defer e.Unlock()
	if e.tables.Has(&tableItem{name: name}) {
		return moerr.NewInvalidInput(ctx, "table %s already exists", name)
	}
	e.tables.ReplaceOrInsert(&tableItem{
		name: name,
		rel:  newRelation(name, attrs),
	})
	return nil
}

func (e *Engine) Delete(ctx context.Context, name string) error {
	name = strings.ToLower(name)
	e.Lock()
	defer e.Unlock()
	if e.tables.Delete(&tableItem{name: name}) == nil {
		return moerr.NewNoSuchTable(ctx, defaultDatabase, name)
	}
	return nil
}

func (e *Engine) Relation(ctx context.Context, name string) (engine.Relation, error) {
	name = strings.ToLower(name)
	e.RLock()
	defer e.RUnlock()
	item := e.tables.Get(&tableItem{name: name})
	if item == nil {
		return nil, moerr.NewNoSuchTable(ctx, defaultDatabase, name)
	}
	return item.(*tableItem).rel, nil
}

func (e *Engine) Relations(_ context.Context) []string {
	e.RLock()
	defer e.RUnlock()
	names := make([]string, 0, e.tables.Len())
	e.tables.Ascend(func(i btree.Item) bool {
		names = append(names, i.(*tableItem).name)
		return true
	})
	return names
}
