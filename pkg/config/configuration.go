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

package config

import (
	"context"

	"github.com/BurntSushi/toml"

	"github.com/matrixorigin/joinunnest/pkg/common/moerr"
	"github.com/matrixorigin/joinunnest/pkg/logutil"
)

const (
	defaultMaxFixedKeyBits = 512
	defaultOutputBatchRows = 8192
	defaultBuildWorkers    = 4
	defaultProbeWorkers    = 4
	defaultScanBatchRows   = 8192
)

// Parameters of the query processing core
type Parameters struct {
	Log logutil.LogConfig `toml:"log"`

	Join JoinParameters `toml:"join"`

	Pipeline PipelineParameters `toml:"pipeline"`
}

// JoinParameters of the hash join
type JoinParameters struct {
	//widest fixed width key encoding in bits, one of 8, 16, 32, 64, 128, 256, 512. default: 512
	MaxFixedKeyBits int `toml:"maxFixedKeyBits"`

	//the count of rows in each batch emitted by a probe. default: 8192
	OutputBatchRows int `toml:"outputBatchRows"`

	//default is false. true : always encode keys by serializing them
	ForceSerializedKeys bool `toml:"forceSerializedKeys"`
}

// PipelineParameters of the executor
type PipelineParameters struct {
	//default is 4. The count of go routine building the hash table.
	BuildWorkers int `toml:"buildWorkers"`

	//default is 4. The count of go routine probing the hash table.
	ProbeWorkers int `toml:"probeWorkers"`

	//the count of rows in vector of batch read by a scan. default: 8192
	ScanBatchRows int `toml:"scanBatchRows"`
}

// LoadFile reads parameters from a toml file and fills the defaults.
func LoadFile(path string) (*Parameters, error) {
	params := &Parameters{}
	if _, err := toml.DecodeFile(path, params); err != nil {
		return nil, moerr.NewBadConfig(context.Background(), "decode %s: %v", path, err)
	}
	params.SetDefaults()
	return params, nil
}

// SetDefaults fills every unset field with its default value.
func (p *Parameters) SetDefaults() {
	if p.Log.Level == "" {
		p.Log.Level = "info"
	}
	if p.Log.Format == "" {
		p.Log.Format = "console"
	}
	if p.Log.MaxSize == 0 {
		p.Log.MaxSize = 512
	}
	if p.Join.MaxFixedKeyBits == 0 {
		p.Join.MaxFixedKeyBits = defaultMaxFixedKeyBits
	}
	if p.Join.OutputBatchRows == 0 {
		p.Join.OutputBatchRows = defaultOutputBatchRows
	}
	if p.Pipeline.BuildWorkers == 0 {
		p.Pipeline.BuildWorkers = defaultBuildWorkers
	}
	if p.Pipeline.ProbeWorkers == 0 {
		p.Pipeline.ProbeWorkers = defaultProbeWorkers
	}
	if p.Pipeline.ScanBatchRows == 0 {
		p.Pipeline.ScanBatchRows = defaultScanBatchRows
	}
}

func (p *Parameters) Validate(ctx context.Context) error {
	switch p.Join.MaxFixedKeyBits {
	case 8, 16, 32, 64, 128, 256, 512:
	default:
		return moerr.NewBadConfig(ctx, "maxFixedKeyBits must be a power of two in [8, 512], got %d", p.Join.MaxFixedKeyBits)
	}
	if p.Join.OutputBatchRows < 0 {
		return moerr.NewBadConfig(ctx, "outputBatchRows must be positive, got %d", p.Join.OutputBatchRows)
	}
	if p.Pipeline.BuildWorkers < 0 || p.Pipeline.ProbeWorkers < 0 {
		return moerr.NewBadConfig(ctx, "worker count must be positive")
	}
	if p.Pipeline.ScanBatchRows < 0 {
		return moerr.NewBadConfig(ctx, "scanBatchRows must be positive, got %d", p.Pipeline.ScanBatchRows)
	}
	return nil
}
