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

package plan

import (
	"sync"

	"github.com/matrixorigin/joinunnest/pkg/container/types"
	"github.com/matrixorigin/joinunnest/pkg/vm/engine"
)

type ColumnEntry struct {
	Index ColumnID
	Name  string
	Typ   types.Type
	// TableIndex is nil for a derived column.
	TableIndex *int
}

type TableEntry struct {
	Index   int
	Name    string
	Columns []ColumnID
}

// Metadata registers the tables and columns of one query. Column ids are
// allocated in order, starting at 0.
type Metadata struct {
	sync.RWMutex
	tables  []TableEntry
	columns []ColumnEntry
}

func NewMetadata() *Metadata {
	return &Metadata{}
}

// AddTable registers a base table and one column per attribute, and
// returns the table index.
func (md *Metadata) AddTable(name string, attrs []engine.Attribute) int {
	md.Lock()
	defer md.Unlock()
	idx := len(md.tables)
	tbl := TableEntry{
		Index:   idx,
		Name:    name,
		Columns: make([]ColumnID, len(attrs)),
	}
	for i, attr := range attrs {
		tableIndex := idx
		tbl.Columns[i] = md.addColumnLocked(attr.Name, attr.Type, &tableIndex)
	}
	md.tables = append(md.tables, tbl)
	return idx
}

// AddColumn allocates a new column.
func (md *Metadata) AddColumn(name string, typ types.Type, tableIndex *int) ColumnID {
	md.Lock()
	defer md.Unlock()
	return md.addColumnLocked(name, typ, tableIndex)
}

func (md *Metadata) addColumnLocked(name string, typ types.Type, tableIndex *int) ColumnID {
	idx := len(md.columns)
	md.columns = append(md.columns, ColumnEntry{
		Index:      idx,
		Name:       name,
		Typ:        typ,
		TableIndex: tableIndex,
	})
	return idx
}

func (md *Metadata) Column(idx ColumnID) ColumnEntry {
	md.RLock()
	defer md.RUnlock()
	return md.columns[idx]
}

func (md *Metadata) Columns() []ColumnEntry {
	md.RLock()
	defer md.RUnlock()
	return append([]ColumnEntry{}, md.columns...)
}

func (md *Metadata) Table(idx int) TableEntry {
	md.RLock()
	defer md.RUnlock()
	return md.tables[idx]
}

func (md *Metadata) Tables() []TableEntry {
	md.RLock()
	defer md.RUnlock()
	return append([]TableEntry{}, md.tables...)
}

// ColumnRef returns a reference to a registered column.
func (md *Metadata) ColumnRef(idx ColumnID) *BoundColumnRef {
	col := md.Column(idx)
	return &BoundColumnRef{
		Index: col.Index,
		Name:  col.Name,
		Typ:   col.Typ,
	}
}
