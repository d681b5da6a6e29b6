// Copyright 2022 Matrix Origin
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

package logutil

import (
	"context"
	"regexp"
	"testing"

	"github.com/lni/goutils/leaktest"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/matrixorigin/joinunnest/pkg/common/moerr"
)

func TestLogConfig_getter(t *testing.T) {
	cfg := &LogConfig{
		Level:        "debug",
		Format:       "console",
		DisableStore: true,
	}
	entry := zapcore.Entry{Level: zapcore.DebugLevel, Message: "console msg"}

	require.Equal(t, zap.NewAtomicLevelAt(zap.DebugLevel), cfg.getLevel())
	require.Equal(t, 2, len(cfg.getOptions()))
	require.Equal(t, zapcore.FatalLevel, cfg.getStacktraceLevel())
	require.Equal(t, getConsoleSyncer(), cfg.getSyncer())
	wantMsg, _ := getLoggerEncoder("console").EncodeEntry(entry, nil)
	gotMsg, _ := cfg.getEncoder().EncodeEntry(entry, nil)
	require.Equal(t, wantMsg.String(), gotMsg.String())
	require.Equal(t, 1, len(cfg.getSinks()))

	cfg.StacktraceLevel = "error"
	require.Equal(t, zapcore.ErrorLevel, cfg.getStacktraceLevel())
}

func TestSetupMOLogger(t *testing.T) {
	defer leaktest.AfterTest(t)()
	tests := []struct {
		name string
		conf *LogConfig
	}{
		{
			name: "console",
			conf: &LogConfig{
				Level:           zapcore.DebugLevel.String(),
				Format:          "console",
				MaxSize:         512,
				DisableStore:    true,
				StacktraceLevel: "panic",
			},
		},
		{
			name: "json",
			conf: &LogConfig{
				Level:           zapcore.InfoLevel.String(),
				Format:          "json",
				MaxSize:         512,
				DisableStore:    true,
				StacktraceLevel: "error",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetupMOLogger(tt.conf)
			require.NotNil(t, GetGlobalLogger())
		})
	}
}

func TestSetupMOLogger_panic(t *testing.T) {
	defer leaktest.AfterTest(t)()
	conf := &LogConfig{
		Level:  zapcore.DebugLevel.String(),
		Format: "panic",
	}
	defer func() {
		if err := recover(); err != nil {
			require.Equal(t, moerr.NewInternalError(context.Background(), "unsupported log format: %s", conf.Format), err)
		} else {
			t.Errorf("not receive panic")
		}
	}()
	SetupMOLogger(conf)
}

func TestSetupMOLogger_panicDir(t *testing.T) {
	conf := &LogConfig{
		Level:        zapcore.DebugLevel.String(),
		Format:       "json",
		Filename:     t.TempDir(),
		DisableStore: true,
	}
	defer func() {
		if err := recover(); err != nil {
			require.Equal(t, "log file can't be a directory", err)
		} else {
			t.Errorf("not receive panic")
		}
	}()
	SetupMOLogger(conf)
}

func Test_getLoggerEncoder(t *testing.T) {
	defer leaktest.AfterTest(t)()
	tests := []struct {
		format     string
		entry      zapcore.Entry
		wantOutput *regexp.Regexp
	}{
		{
			format: "console",
			entry:  zapcore.Entry{Level: zapcore.DebugLevel, Message: "console msg"},
			// like: 0001/01/01 00:00:00.000000 +0000 DEBUG console msg
			wantOutput: regexp.MustCompile(`\d{4}/\d{2}/\d{2} (\d{2}:{0,1}){3}\.\d{6} \+\d{4}\s+DEBUG\s+console msg`),
		},
		{
			format:     "json",
			entry:      zapcore.Entry{Level: zapcore.DebugLevel, Message: "json msg"},
			wantOutput: regexp.MustCompile(`\{.*"level":"DEBUG".*"msg":"json msg".*\}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got := getLoggerEncoder(tt.format)
			require.NotNil(t, got)
			buf, err := got.EncodeEntry(tt.entry, nil)
			require.Nil(t, err)
			require.Equal(t, 1, len(tt.wantOutput.FindAll(buf.Bytes(), -1)))
		})
	}
}

func TestContextFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	old := GetGlobalLogger()
	replaceGlobalLogger(zap.New(core))
	defer replaceGlobalLogger(old)

	ctx := WithQueryID(context.Background(), "q-1")
	GetGlobalLogger().WithOptions(ContextFields()(ctx)).Info("with id")
	GetGlobalLogger().WithOptions(ContextFields()(context.Background())).Info("without id")
	Debugf("filtered %d", 1)
	Infof("build rows %d", 3)
	Error("join failed", zap.String("phase", "probe"))

	entries := logs.AllUntimed()
	require.Equal(t, 4, len(entries))
	require.Equal(t, "q-1", entries[0].ContextMap()["query_id"])
	require.Empty(t, entries[1].ContextMap())
	require.Equal(t, "build rows 3", entries[2].Message)
	require.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	require.Equal(t, "probe", entries[3].ContextMap()["phase"])
}
