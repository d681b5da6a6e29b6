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

package types

import (
	"fmt"
)

type T uint8

const (
	// any family
	T_any T = 0

	// bool family
	T_bool T = 10

	// numeric/integer family
	T_int8   T = 20
	T_int16  T = 21
	T_int32  T = 22
	T_int64  T = 23
	T_uint8  T = 25
	T_uint16 T = 26
	T_uint32 T = 27
	T_uint64 T = 28

	// numeric/float family
	T_float32 T = 30
	T_float64 T = 31

	// string family
	T_char    T = 40
	T_varchar T = 41
)

// Type is the logical type of a column. Nullable records whether the column
// may hold NULL, which decides how keys are encoded and how outer joins pad.
type Type struct {
	Oid      T
	Nullable bool
}

type Ints interface {
	int8 | int16 | int32 | int64
}

type UInts interface {
	uint8 | uint16 | uint32 | uint64
}

type Floats interface {
	float32 | float64
}

type Number interface {
	Ints | UInts | Floats
}

// OrderedT are the go types a column can be decoded to and compared in.
type OrderedT interface {
	Number | string
}

// FixedSizeT are the go types of fixed length columns.
type FixedSizeT interface {
	bool | Number
}

// ColT are the go types a column is stored as.
type ColT interface {
	bool | Number | string
}

var Types = map[string]T{
	"bool": T_bool,

	"tinyint":  T_int8,
	"smallint": T_int16,
	"int":      T_int32,
	"integer":  T_int32,
	"bigint":   T_int64,

	"tinyint unsigned":  T_uint8,
	"smallint unsigned": T_uint16,
	"int unsigned":      T_uint32,
	"integer unsigned":  T_uint32,
	"bigint unsigned":   T_uint64,

	"float":  T_float32,
	"double": T_float64,

	"char":    T_char,
	"varchar": T_varchar,
}

func New(oid T) Type {
	return Type{Oid: oid}
}

func NewNullable(oid T) Type {
	return Type{Oid: oid, Nullable: true}
}

func (t T) ToType() Type {
	return New(t)
}

func (t T) String() string {
	switch t {
	case T_any:
		return "ANY"
	case T_bool:
		return "BOOL"
	case T_int8:
		return "TINYINT"
	case T_int16:
		return "SMALLINT"
	case T_int32:
		return "INT"
	case T_int64:
		return "BIGINT"
	case T_uint8:
		return "TINYINT UNSIGNED"
	case T_uint16:
		return "SMALLINT UNSIGNED"
	case T_uint32:
		return "INT UNSIGNED"
	case T_uint64:
		return "BIGINT UNSIGNED"
	case T_float32:
		return "FLOAT"
	case T_float64:
		return "DOUBLE"
	case T_char:
		return "CHAR"
	case T_varchar:
		return "VARCHAR"
	}
	return fmt.Sprintf("unexpected type: %d", t)
}

// FixedLength returns the byte width of a fixed length type, -1 for
// variable length ones and 0 for T_any.
func (t T) FixedLength() int {
	switch t {
	case T_any:
		return 0
	case T_bool, T_int8, T_uint8:
		return 1
	case T_int16, T_uint16:
		return 2
	case T_int32, T_uint32, T_float32:
		return 4
	case T_int64, T_uint64, T_float64:
		return 8
	case T_char, T_varchar:
		return -1
	}
	panic(fmt.Sprintf("unknown type %d", t))
}

func (t Type) String() string {
	if t.Nullable {
		return t.Oid.String() + " NULL"
	}
	return t.Oid.String()
}

func (t Type) FixedLength() int {
	return t.Oid.FixedLength()
}

func (t Type) IsFixedLen() bool {
	return t.Oid.FixedLength() >= 0
}

func (t Type) IsVarlen() bool {
	return t.Oid == T_char || t.Oid == T_varchar
}

func (t Type) IsBoolean() bool {
	return t.Oid == T_bool
}

func (t Type) IsSigned() bool {
	return t.Oid >= T_int8 && t.Oid <= T_int64
}

func (t Type) IsUnsigned() bool {
	return t.Oid >= T_uint8 && t.Oid <= T_uint64
}

func (t Type) IsIntegral() bool {
	return t.IsSigned() || t.IsUnsigned()
}

func (t Type) IsFloat() bool {
	return t.Oid == T_float32 || t.Oid == T_float64
}

func (t Type) IsNumeric() bool {
	return t.IsIntegral() || t.IsFloat()
}

// WithNullable returns t with the given nullability.
func (t Type) WithNullable(nullable bool) Type {
	t.Nullable = nullable
	return t
}

// Eq reports whether both types share an oid, nullability aside.
func (t Type) Eq(u Type) bool {
	return t.Oid == u.Oid
}

// MergeTypes returns the common type both a and b can be cast to without
// losing the comparison result. The merged type is nullable if either is.
func MergeTypes(a, b Type) (Type, bool) {
	nullable := a.Nullable || b.Nullable
	switch {
	case a.Oid == b.Oid:
		return Type{Oid: a.Oid, Nullable: nullable}, true
	case a.Oid == T_any:
		return Type{Oid: b.Oid, Nullable: true}, true
	case b.Oid == T_any:
		return Type{Oid: a.Oid, Nullable: true}, true
	case a.IsVarlen() && b.IsVarlen():
		return Type{Oid: T_varchar, Nullable: nullable}, true
	case a.IsFloat() || b.IsFloat():
		if a.IsNumeric() && b.IsNumeric() {
			return Type{Oid: T_float64, Nullable: nullable}, true
		}
	case a.IsSigned() && b.IsSigned(), a.IsUnsigned() && b.IsUnsigned():
		if a.Oid > b.Oid {
			return Type{Oid: a.Oid, Nullable: nullable}, true
		}
		return Type{Oid: b.Oid, Nullable: nullable}, true
	case a.IsIntegral() && b.IsIntegral():
		if a.Oid == T_uint64 || b.Oid == T_uint64 {
			return Type{Oid: T_float64, Nullable: nullable}, true
		}
		return Type{Oid: T_int64, Nullable: nullable}, true
	}
	return Type{}, false
}
