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

package process

import (
	"context"

	"github.com/google/uuid"

	"github.com/matrixorigin/joinunnest/pkg/common/moerr"
	"github.com/matrixorigin/joinunnest/pkg/config"
	"github.com/matrixorigin/joinunnest/pkg/logutil"
)

const DefaultBatchSize = 8192

// New creates a new Process with a fresh query id. The context carries the
// query id for logging.
func New(ctx context.Context, lim Limitation) *Process {
	id := uuid.New().String()
	c, cancel := context.WithCancel(logutil.WithQueryID(ctx, id))
	return &Process{
		Id:     id,
		Lim:    lim,
		Ctx:    c,
		Cancel: cancel,
	}
}

// NewFromParameters creates a Process with limits from the configuration.
func NewFromParameters(ctx context.Context, params *config.Parameters) *Process {
	return New(ctx, Limitation{
		BatchRows:           int64(params.Pipeline.ScanBatchRows),
		OutputBatchRows:     int64(params.Join.OutputBatchRows),
		MaxFixedKeyBits:     params.Join.MaxFixedKeyBits,
		ForceSerializedKeys: params.Join.ForceSerializedKeys,
		BuildWorkers:        params.Pipeline.BuildWorkers,
		ProbeWorkers:        params.Pipeline.ProbeWorkers,
	})
}

// NewTestProcess returns a process with default limits.
func NewTestProcess() *Process {
	params := &config.Parameters{}
	params.SetDefaults()
	return NewFromParameters(context.Background(), params)
}

func (proc *Process) QueryId() string {
	return proc.Id
}

// InterruptIfCanceled returns a query interrupted error once the query has
// been canceled from outside.
func (proc *Process) InterruptIfCanceled() error {
	select {
	case <-proc.Ctx.Done():
		return moerr.NewQueryInterrupted(proc.Ctx)
	default:
		return nil
	}
}

func (proc *Process) GetBatchRows() int {
	if proc.Lim.BatchRows <= 0 {
		return DefaultBatchSize
	}
	return int(proc.Lim.BatchRows)
}

func (proc *Process) GetOutputBatchRows() int {
	if proc.Lim.OutputBatchRows <= 0 {
		return DefaultBatchSize
	}
	return int(proc.Lim.OutputBatchRows)
}
