// Copyright 2021 - 2022 Matrix Origin
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

package moerr

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		err  *Error
		code uint16
		msg  string
	}{
		{"internal", NewInternalError(ctx, "invalid plan type: %s", "Pattern"), ErrInternal, "internal error: invalid plan type: Pattern"},
		{"not supported", NewNotSupported(ctx, "subquery type: %s", "ALL"), ErrNotSupported, "not supported: subquery type: ALL"},
		{"evaluation", NewEvaluation(ctx, "bad key"), ErrEvaluation, "evaluation error: bad key"},
		{"bad config", NewBadConfig(ctx, "workers must be positive"), ErrBadConfig, "invalid configuration: workers must be positive"},
		{"no such table", NewNoSuchTable(ctx, "db", "t1"), ErrNoSuchTable, "no such table db.t1"},
		{"scalar subquery", NewScalarSubqueryRow(ctx), ErrScalarSubqueryRow, "scalar subquery returns more than 1 row"},
		{"out of range", NewOutOfRange(ctx, "TINYINT", "value %d", 1000), ErrOutOfRange, "data out of range: data type TINYINT, value 1000"},
		{"division by zero", NewDivByZero(ctx), ErrDivByZero, "division by zero"},
		{"invalid cast", NewInvalidCast(ctx, "'abc'", "BIGINT"), ErrInvalidCast, "invalid cast from 'abc' to BIGINT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.code, tt.err.ErrorCode())
			require.Equal(t, tt.msg, tt.err.Error())
			require.True(t, IsMoErrCode(tt.err, tt.code))
			require.False(t, tt.err.Succeeded())
		})
	}
	require.Equal(t, ER_SUBQUERY_NO_1_ROW, NewScalarSubqueryRow(ctx).MySQLCode())
	require.Equal(t, "21000", NewScalarSubqueryRow(ctx).SqlState())
	require.True(t, IsMoErrCode(nil, Ok))
	require.False(t, IsMoErrCode(io.EOF, ErrInternal))
}

func TestDetail(t *testing.T) {
	ctx := AttachDetail(context.Background(), "hash join build")
	err := NewEvaluation(ctx, "division by zero in key")
	require.Equal(t, "hash join build", err.Detail())
	require.Equal(t, "evaluation error: division by zero in key: hash join build", err.Display())
}

func TestConvertGoError(t *testing.T) {
	ctx := context.Background()
	require.Nil(t, ConvertGoError(ctx, nil))
	require.True(t, IsMoErrCode(ConvertGoError(ctx, io.EOF), ErrUnexpectedEOF))
	orig := NewInvalidInput(ctx, "x")
	require.Equal(t, error(orig), ConvertGoError(ctx, orig))
	require.True(t, IsMoErrCode(ConvertGoError(ctx, context.Canceled), ErrInternal))
}

func TestConvertPanicError(t *testing.T) {
	ctx := context.Background()
	e := NewNotSupported(ctx, "x")
	require.Equal(t, e, ConvertPanicError(ctx, e))
	require.Equal(t, ErrInternal, ConvertPanicError(ctx, "boom").ErrorCode())
}
