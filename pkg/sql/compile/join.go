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

package compile

import (
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/matrixorigin/joinunnest/pkg/common/moerr"
	"github.com/matrixorigin/joinunnest/pkg/container/batch"
	"github.com/matrixorigin/joinunnest/pkg/logutil"
	"github.com/matrixorigin/joinunnest/pkg/sql/colexec/hashjoin"
)

// firstError keeps the first error reported by a group of workers.
type firstError struct {
	sync.Mutex
	err error
}

func (e *firstError) store(err error) {
	if err == nil {
		return
	}
	e.Lock()
	defer e.Unlock()
	if e.err == nil {
		e.err = err
	}
}

func (e *firstError) load() error {
	e.Lock()
	defer e.Unlock()
	return e.err
}

// runJoin builds the hash table from the build side in parallel, then
// probes it in parallel. Output keeps the order of the probe chunks.
func (s *Scope) runJoin() (*batch.Batch, error) {
	probe, err := s.PreScopes[0].Run()
	if err != nil {
		return nil, err
	}
	build, err := s.PreScopes[1].Run()
	if err != nil {
		return nil, err
	}

	ht, err := hashjoin.NewJoinHashTable(s.Proc, s.join.desc, s.join.buildSchema)
	if err != nil {
		return nil, err
	}
	if err = s.parallelBuild(ht, splitRows(build, s.Proc.GetBatchRows())); err != nil {
		return nil, err
	}
	results, err := s.parallelProbe(ht, splitRows(probe, s.Proc.GetBatchRows()))
	if err != nil {
		return nil, err
	}

	rbat := s.newBatch()
	for _, bats := range results {
		for _, bat := range bats {
			if _, err = rbat.Append(s.Proc.Ctx, bat); err != nil {
				return nil, err
			}
		}
	}
	return rbat, nil
}

// parallelBuild attaches every worker before any of them starts, so the
// table cannot finish while a worker is still to build into it.
func (s *Scope) parallelBuild(ht *hashjoin.JoinHashTable, bats []*batch.Batch) error {
	workers := workerCount(s.Proc.Lim.BuildWorkers, len(bats))
	pool, err := ants.NewPool(workers)
	if err != nil {
		return moerr.ConvertGoError(s.Proc.Ctx, err)
	}
	defer pool.Release()

	if err = attachWorkers(ht, workers); err != nil {
		return err
	}

	var (
		wg    sync.WaitGroup
		first firstError
	)
	for w := 0; w < workers; w++ {
		w := w
		wg.Add(1)
		err = pool.Submit(func() {
			defer wg.Done()
			defer func() {
				first.store(ht.Detach())
			}()
			defer s.recoverWorker(&first, "build")

			for i := w; i < len(bats); i += workers {
				if err := ht.Build(bats[i]); err != nil {
					s.workerFailed(&first, "build", err)
					return
				}
			}
		})
		if err != nil {
			wg.Done()
			s.workerFailed(&first, "build", moerr.ConvertGoError(s.Proc.Ctx, err))
			first.store(ht.Detach())
		}
	}
	wg.Wait()
	return first.load()
}

// attachWorkers takes n references on ht, or none if one of them fails.
func attachWorkers(ht hashjoin.HashJoinState, n int) error {
	for i := 0; i < n; i++ {
		if err := ht.Attach(); err != nil {
			for ; i > 0; i-- {
				_ = ht.Detach()
			}
			return err
		}
	}
	return nil
}

func (s *Scope) parallelProbe(ht *hashjoin.JoinHashTable, bats []*batch.Batch) ([][]*batch.Batch, error) {
	results := make([][]*batch.Batch, len(bats))
	if len(bats) == 0 {
		return results, nil
	}
	workers := workerCount(s.Proc.Lim.ProbeWorkers, len(bats))
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, moerr.ConvertGoError(s.Proc.Ctx, err)
	}
	defer pool.Release()

	var (
		wg    sync.WaitGroup
		first firstError
	)
	for w := 0; w < workers; w++ {
		w := w
		wg.Add(1)
		err = pool.Submit(func() {
			defer wg.Done()
			defer s.recoverWorker(&first, "probe")

			state := hashjoin.NewProbeState()
			for i := w; i < len(bats); i += workers {
				out, err := ht.Probe(bats[i], state)
				if err != nil {
					s.workerFailed(&first, "probe", err)
					return
				}
				results[i] = out
			}
		})
		if err != nil {
			wg.Done()
			s.workerFailed(&first, "probe", moerr.ConvertGoError(s.Proc.Ctx, err))
		}
	}
	wg.Wait()
	if err = first.load(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Scope) recoverWorker(first *firstError, phase string) {
	if r := recover(); r != nil {
		s.workerFailed(first, phase, moerr.ConvertPanicError(s.Proc.Ctx, r))
	}
}

func (s *Scope) workerFailed(first *firstError, phase string, err error) {
	logutil.Error("hash join worker failed",
		zap.String("query", s.Proc.QueryId()),
		zap.String("phase", phase),
		zap.Error(err))
	first.store(err)
}

func workerCount(limit, chunks int) int {
	n := chunks
	if limit > 0 && limit < n {
		n = limit
	}
	if n < 1 {
		n = 1
	}
	return n
}

// splitRows cuts bat into batches of at most n rows that share nothing
// with bat.
func splitRows(bat *batch.Batch, n int) []*batch.Batch {
	rows := bat.RowCount()
	if rows == 0 {
		return nil
	}
	if rows <= n {
		return []*batch.Batch{bat}
	}
	bats := make([]*batch.Batch, 0, (rows+n-1)/n)
	for start := 0; start < rows; start += n {
		end := start + n
		if end > rows {
			end = rows
		}
		sels := make([]int64, 0, end-start)
		for i := start; i < end; i++ {
			sels = append(sels, int64(i))
		}
		bats = append(bats, bat.Take(sels))
	}
	return bats
}
