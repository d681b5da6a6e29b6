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

package hashjoin

import (
	"context"
	"sync"

	"github.com/matrixorigin/joinunnest/pkg/common/moerr"
)

type finishPhase int

const (
	phaseBuilding finishPhase = iota
	phaseFinished
)

func (p finishPhase) String() string {
	if p == phaseFinished {
		return "finished"
	}
	return "building"
}

// finishState counts the attached workers and runs finish exactly once,
// when the count drops back to zero while building. A failed finish is
// finished as well, its error is reported to every later caller.
type finishState struct {
	ctx context.Context

	mu     sync.Mutex
	phase  finishPhase
	refs   int
	err    error
	finish func() error
}

func newFinishState(ctx context.Context, finish func() error) *finishState {
	return &finishState{ctx: ctx, finish: finish}
}

func (s *finishState) attach() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != phaseBuilding {
		return moerr.NewInvalidState(s.ctx, "attach to a %s hash table", s.phase)
	}
	s.refs++
	return nil
}

func (s *finishState) detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs == 0 {
		return moerr.NewInvalidState(s.ctx, "detach from a hash table without attach")
	}
	s.refs--
	if s.refs == 0 && s.phase == phaseBuilding {
		s.err = s.finish()
		s.phase = phaseFinished
	}
	return s.err
}

func (s *finishState) isFinished() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == phaseFinished, s.err
}
