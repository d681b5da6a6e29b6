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

package colexec

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/matrixorigin/joinunnest/pkg/common/moerr"
	"github.com/matrixorigin/joinunnest/pkg/container/types"
	"github.com/matrixorigin/joinunnest/pkg/container/vector"
	"github.com/matrixorigin/joinunnest/pkg/vm/process"
)

// evalFn computes length rows of a function over its evaluated arguments.
type evalFn func(proc *process.Process, params []*vector.Vector, result types.Type, length int) (*vector.Vector, error)

type functionDef struct {
	fn evalFn
	// strict functions are NULL as soon as one argument is NULL
	strict bool
}

var functionRegistry = map[string]functionDef{
	"=":  {fn: compareFn(func(c int) bool { return c == 0 }), strict: true},
	"<>": {fn: compareFn(func(c int) bool { return c != 0 }), strict: true},
	"<":  {fn: compareFn(func(c int) bool { return c < 0 }), strict: true},
	"<=": {fn: compareFn(func(c int) bool { return c <= 0 }), strict: true},
	">":  {fn: compareFn(func(c int) bool { return c > 0 }), strict: true},
	">=": {fn: compareFn(func(c int) bool { return c >= 0 }), strict: true},

	"and": {fn: andFn},
	"or":  {fn: orFn},
	"not": {fn: notFn, strict: true},

	"is_null":     {fn: isNullFn(true)},
	"is_not_null": {fn: isNullFn(false)},

	"+": {fn: arithFn("+"), strict: true},
	"-": {fn: arithFn("-"), strict: true},
	"*": {fn: arithFn("*"), strict: true},
	"/": {fn: arithFn("/"), strict: true},

	"cast": {fn: castFn, strict: true},
}

func isArithmetic(name string) bool {
	return name == "+" || name == "-" || name == "*" || name == "/"
}

func compareFn(accept func(int) bool) evalFn {
	return func(proc *process.Process, params []*vector.Vector, result types.Type, length int) (*vector.Vector, error) {
		switch params[0].GetType().Oid {
		case types.T_bool:
			return compareBool(params, result, length, accept), nil
		case types.T_int8:
			return compareOrdered[int8](params, result, length, accept), nil
		case types.T_int16:
			return compareOrdered[int16](params, result, length, accept), nil
		case types.T_int32:
			return compareOrdered[int32](params, result, length, accept), nil
		case types.T_int64:
			return compareOrdered[int64](params, result, length, accept), nil
		case types.T_uint8:
			return compareOrdered[uint8](params, result, length, accept), nil
		case types.T_uint16:
			return compareOrdered[uint16](params, result, length, accept), nil
		case types.T_uint32:
			return compareOrdered[uint32](params, result, length, accept), nil
		case types.T_uint64:
			return compareOrdered[uint64](params, result, length, accept), nil
		case types.T_float32:
			return compareOrdered[float32](params, result, length, accept), nil
		case types.T_float64:
			return compareOrdered[float64](params, result, length, accept), nil
		case types.T_char, types.T_varchar:
			return compareOrdered[string](params, result, length, accept), nil
		}
		return nil, moerr.NewEvaluation(proc.Ctx, "cannot compare values of type %s", params[0].GetType())
	}
}

func compareOrdered[T types.OrderedT](params []*vector.Vector, result types.Type, length int, accept func(int) bool) *vector.Vector {
	p1 := vector.GenerateFunctionParameter[T](params[0])
	p2 := vector.GenerateFunctionParameter[T](params[1])
	rs := vector.NewVec(result)
	for i := uint64(0); i < uint64(length); i++ {
		v1, null1 := p1.GetValue(i)
		v2, null2 := p2.GetValue(i)
		if null1 || null2 {
			vector.Append(rs, false, true)
			continue
		}
		c := 0
		if v1 < v2 {
			c = -1
		} else if v1 > v2 {
			c = 1
		}
		vector.Append(rs, accept(c), false)
	}
	return rs
}

// false sorts before true
func compareBool(params []*vector.Vector, result types.Type, length int, accept func(int) bool) *vector.Vector {
	p1 := vector.GenerateFunctionParameter[bool](params[0])
	p2 := vector.GenerateFunctionParameter[bool](params[1])
	rs := vector.NewVec(result)
	for i := uint64(0); i < uint64(length); i++ {
		v1, null1 := p1.GetValue(i)
		v2, null2 := p2.GetValue(i)
		if null1 || null2 {
			vector.Append(rs, false, true)
			continue
		}
		c := 0
		if !v1 && v2 {
			c = -1
		} else if v1 && !v2 {
			c = 1
		}
		vector.Append(rs, accept(c), false)
	}
	return rs
}

func andFn(_ *process.Process, params []*vector.Vector, result types.Type, length int) (*vector.Vector, error) {
	p1 := vector.GenerateFunctionParameter[bool](params[0])
	p2 := vector.GenerateFunctionParameter[bool](params[1])
	rs := vector.NewVec(result)
	for i := uint64(0); i < uint64(length); i++ {
		v1, null1 := p1.GetValue(i)
		v2, null2 := p2.GetValue(i)
		switch {
		case (!null1 && !v1) || (!null2 && !v2):
			vector.Append(rs, false, false)
		case null1 || null2:
			vector.Append(rs, false, true)
		default:
			vector.Append(rs, true, false)
		}
	}
	return rs, nil
}

func orFn(_ *process.Process, params []*vector.Vector, result types.Type, length int) (*vector.Vector, error) {
	p1 := vector.GenerateFunctionParameter[bool](params[0])
	p2 := vector.GenerateFunctionParameter[bool](params[1])
	rs := vector.NewVec(result)
	for i := uint64(0); i < uint64(length); i++ {
		v1, null1 := p1.GetValue(i)
		v2, null2 := p2.GetValue(i)
		switch {
		case (!null1 && v1) || (!null2 && v2):
			vector.Append(rs, true, false)
		case null1 || null2:
			vector.Append(rs, false, true)
		default:
			vector.Append(rs, false, false)
		}
	}
	return rs, nil
}

func notFn(_ *process.Process, params []*vector.Vector, result types.Type, length int) (*vector.Vector, error) {
	p := vector.GenerateFunctionParameter[bool](params[0])
	rs := vector.NewVec(result)
	for i := uint64(0); i < uint64(length); i++ {
		v, null := p.GetValue(i)
		vector.Append(rs, !v, null)
	}
	return rs, nil
}

func isNullFn(want bool) evalFn {
	return func(_ *process.Process, params []*vector.Vector, result types.Type, length int) (*vector.Vector, error) {
		rs := vector.NewVec(result.WithNullable(false))
		for i := 0; i < length; i++ {
			vector.Append(rs, params[0].IsNull(uint64(i)) == want, false)
		}
		return rs, nil
	}
}

func arithFn(op string) evalFn {
	return func(proc *process.Process, params []*vector.Vector, result types.Type, length int) (*vector.Vector, error) {
		ctx := proc.Ctx
		switch result.Oid {
		case types.T_int8:
			return arith(params, result, length, signedOp[int8](ctx, op, result.Oid))
		case types.T_int16:
			return arith(params, result, length, signedOp[int16](ctx, op, result.Oid))
		case types.T_int32:
			return arith(params, result, length, signedOp[int32](ctx, op, result.Oid))
		case types.T_int64:
			return arith(params, result, length, signedOp[int64](ctx, op, result.Oid))
		case types.T_uint8:
			return arith(params, result, length, unsignedOp[uint8](ctx, op, result.Oid))
		case types.T_uint16:
			return arith(params, result, length, unsignedOp[uint16](ctx, op, result.Oid))
		case types.T_uint32:
			return arith(params, result, length, unsignedOp[uint32](ctx, op, result.Oid))
		case types.T_uint64:
			return arith(params, result, length, unsignedOp[uint64](ctx, op, result.Oid))
		case types.T_float32:
			return arith(params, result, length, floatOp[float32](ctx, op))
		case types.T_float64:
			return arith(params, result, length, floatOp[float64](ctx, op))
		}
		return nil, moerr.NewEvaluation(ctx, "operator %s on type %s", op, result)
	}
}

type binaryOp[T types.Number] func(v1, v2 T) (T, error)

func arith[T types.Number](params []*vector.Vector, result types.Type, length int, op binaryOp[T]) (*vector.Vector, error) {
	p1 := vector.GenerateFunctionParameter[T](params[0])
	p2 := vector.GenerateFunctionParameter[T](params[1])
	rs := vector.NewVec(result)
	for i := uint64(0); i < uint64(length); i++ {
		v1, null1 := p1.GetValue(i)
		v2, null2 := p2.GetValue(i)
		if null1 || null2 {
			vector.Append(rs, T(0), true)
			continue
		}
		v, err := op(v1, v2)
		if err != nil {
			return nil, err
		}
		vector.Append(rs, v, false)
	}
	return rs, nil
}

func signedOp[T types.Ints](ctx context.Context, op string, oid types.T) binaryOp[T] {
	return func(a, b T) (T, error) {
		var c T
		overflow := false
		switch op {
		case "+":
			c = a + b
			overflow = (a > 0 && b > 0 && c < 0) || (a < 0 && b < 0 && c >= 0)
		case "-":
			c = a - b
			overflow = (b < 0 && c < a) || (b > 0 && c > a)
		case "*":
			c = a * b
			// -1 * min wraps back to min
			overflow = a != 0 && (c/a != b || (a == -1 && b < 0 && c == b))
		case "/":
			if b == 0 {
				return 0, moerr.NewDivByZero(ctx)
			}
			c = a / b
			// min / -1 wraps back to min
			overflow = b == -1 && a < 0 && c == a
		}
		if overflow {
			return 0, moerr.NewOutOfRange(ctx, oid.String(), "%v %s %v overflows", a, op, b)
		}
		return c, nil
	}
}

func unsignedOp[T types.UInts](ctx context.Context, op string, oid types.T) binaryOp[T] {
	return func(a, b T) (T, error) {
		var c T
		overflow := false
		switch op {
		case "+":
			c = a + b
			overflow = c < a
		case "-":
			c = a - b
			overflow = a < b
		case "*":
			c = a * b
			overflow = a != 0 && c/a != b
		case "/":
			if b == 0 {
				return 0, moerr.NewDivByZero(ctx)
			}
			c = a / b
		}
		if overflow {
			return 0, moerr.NewOutOfRange(ctx, oid.String(), "%v %s %v overflows", a, op, b)
		}
		return c, nil
	}
}

func floatOp[T types.Floats](ctx context.Context, op string) binaryOp[T] {
	return func(a, b T) (T, error) {
		switch op {
		case "+":
			return a + b, nil
		case "-":
			return a - b, nil
		case "*":
			return a * b, nil
		case "/":
			if b == 0 {
				return 0, moerr.NewDivByZero(ctx)
			}
			return a / b, nil
		}
		return 0, moerr.NewNotSupported(ctx, "operator %s", op)
	}
}

func castFn(proc *process.Process, params []*vector.Vector, result types.Type, length int) (*vector.Vector, error) {
	from := params[0]
	rs := vector.NewVec(result)
	for i := 0; i < length; i++ {
		val := from.GetAny(i)
		if val == nil {
			rs.AppendNulls(1)
			continue
		}
		cv, err := castValue(proc.Ctx, val, result.Oid)
		if err != nil {
			return nil, err
		}
		if err = vector.AppendAny(rs, cv); err != nil {
			return nil, err
		}
	}
	return rs, nil
}

// castValue converts a boxed value of any column type to the go type of oid.
func castValue(ctx context.Context, val any, oid types.T) (any, error) {
	switch oid {
	case types.T_bool:
		switch x := val.(type) {
		case bool:
			return x, nil
		case string:
			b, err := types.ParseBool(x)
			if err != nil {
				return nil, moerr.NewInvalidCast(ctx, fmt.Sprintf("'%s'", x), types.T_bool.String())
			}
			return b, nil
		}
		f, err := toFloat64(ctx, val)
		if err != nil {
			return nil, err
		}
		return f != 0, nil

	case types.T_int8, types.T_int16, types.T_int32, types.T_int64:
		i, err := toInt64(ctx, val)
		if err != nil {
			return nil, err
		}
		return narrowInt(ctx, i, oid)

	case types.T_uint8, types.T_uint16, types.T_uint32, types.T_uint64:
		if u, ok := val.(uint64); ok {
			return narrowUint(ctx, u, oid)
		}
		i, err := toInt64(ctx, val)
		if err != nil {
			return nil, err
		}
		if i < 0 {
			return nil, moerr.NewOutOfRange(ctx, oid.String(), "value %d", i)
		}
		return narrowUint(ctx, uint64(i), oid)

	case types.T_float32:
		f, err := toFloat64(ctx, val)
		if err != nil {
			return nil, err
		}
		return float32(f), nil

	case types.T_float64:
		return toFloat64(ctx, val)

	case types.T_char, types.T_varchar:
		if s, ok := val.(string); ok {
			return s, nil
		}
		return fmt.Sprintf("%v", val), nil
	}
	return nil, moerr.NewInvalidCast(ctx, fmt.Sprintf("%T", val), oid.String())
}

func toInt64(ctx context.Context, val any) (int64, error) {
	switch x := val.(type) {
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, moerr.NewOutOfRange(ctx, types.T_int64.String(), "value %d", x)
		}
		return int64(x), nil
	case float32:
		return floatToInt64(ctx, float64(x))
	case float64:
		return floatToInt64(ctx, x)
	case string:
		i, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, moerr.NewInvalidCast(ctx, fmt.Sprintf("'%s'", x), types.T_int64.String())
		}
		return i, nil
	}
	return 0, moerr.NewInvalidCast(ctx, fmt.Sprintf("%T", val), types.T_int64.String())
}

func floatToInt64(ctx context.Context, f float64) (int64, error) {
	f = math.Round(f)
	if f < math.MinInt64 || f >= math.MaxInt64 || math.IsNaN(f) {
		return 0, moerr.NewOutOfRange(ctx, types.T_int64.String(), "value %v", f)
	}
	return int64(f), nil
}

func toFloat64(ctx context.Context, val any) (float64, error) {
	switch x := val.(type) {
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	case uint64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, moerr.NewInvalidCast(ctx, fmt.Sprintf("'%s'", x), types.T_float64.String())
		}
		return f, nil
	}
	i, err := toInt64(ctx, val)
	return float64(i), err
}

func narrowInt(ctx context.Context, i int64, oid types.T) (any, error) {
	switch oid {
	case types.T_int8:
		if i >= math.MinInt8 && i <= math.MaxInt8 {
			return int8(i), nil
		}
	case types.T_int16:
		if i >= math.MinInt16 && i <= math.MaxInt16 {
			return int16(i), nil
		}
	case types.T_int32:
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return int32(i), nil
		}
	case types.T_int64:
		return i, nil
	}
	return nil, moerr.NewOutOfRange(ctx, oid.String(), "value %d", i)
}

func narrowUint(ctx context.Context, u uint64, oid types.T) (any, error) {
	switch oid {
	case types.T_uint8:
		if u <= math.MaxUint8 {
			return uint8(u), nil
		}
	case types.T_uint16:
		if u <= math.MaxUint16 {
			return uint16(u), nil
		}
	case types.T_uint32:
		if u <= math.MaxUint32 {
			return uint32(u), nil
		}
	case types.T_uint64:
		return u, nil
	}
	return nil, moerr.NewOutOfRange(ctx, oid.String(), "value %d", u)
}
