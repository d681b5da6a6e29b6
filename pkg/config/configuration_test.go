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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/joinunnest/pkg/common/moerr"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unnest.toml")
	content := `
[log]
level = "debug"
format = "json"

[join]
maxFixedKeyBits = 128
forceSerializedKeys = true

[pipeline]
buildWorkers = 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	params, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "debug", params.Log.Level)
	require.Equal(t, "json", params.Log.Format)
	require.Equal(t, 128, params.Join.MaxFixedKeyBits)
	require.True(t, params.Join.ForceSerializedKeys)
	require.Equal(t, defaultOutputBatchRows, params.Join.OutputBatchRows)
	require.Equal(t, 2, params.Pipeline.BuildWorkers)
	require.Equal(t, defaultProbeWorkers, params.Pipeline.ProbeWorkers)
	require.NoError(t, params.Validate(context.Background()))
}

func TestLoadFileError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[join\nmaxFixedKeyBits ="), 0644))
	_, err := LoadFile(path)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadConfig))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadConfig))
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		modify func(p *Parameters)
		ok     bool
	}{
		{"defaults", func(p *Parameters) {}, true},
		{"bad key bits", func(p *Parameters) { p.Join.MaxFixedKeyBits = 48 }, false},
		{"negative batch", func(p *Parameters) { p.Join.OutputBatchRows = -1 }, false},
		{"negative workers", func(p *Parameters) { p.Pipeline.ProbeWorkers = -2 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Parameters{}
			p.SetDefaults()
			tt.modify(p)
			err := p.Validate(ctx)
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadConfig))
			}
		})
	}
}
