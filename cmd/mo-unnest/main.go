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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/matrixorigin/joinunnest/pkg/common/moerr"
	"github.com/matrixorigin/joinunnest/pkg/config"
	"github.com/matrixorigin/joinunnest/pkg/container/batch"
	"github.com/matrixorigin/joinunnest/pkg/logutil"
	"github.com/matrixorigin/joinunnest/pkg/sql/compile"
	"github.com/matrixorigin/joinunnest/pkg/sql/plan"
	"github.com/matrixorigin/joinunnest/pkg/vm/process"
)

var (
	configFile = flag.String("cfg", "", "toml configuration, defaults are used if empty")
	query      = flag.String("query", "all", "demo query to run: exists, notexists, in, scalar or all")
)

func main() {
	flag.Parse()

	params, err := parseConfig(*configFile)
	if err != nil {
		panic(fmt.Sprintf("failed to parse config from %s, error: %s", *configFile, err.Error()))
	}
	logutil.SetupMOLogger(&params.Log)

	names := []string{strings.ToLower(*query)}
	if names[0] == "all" {
		names = demoNames
	}
	for _, name := range names {
		if err := runDemo(params, name); err != nil {
			logutil.Error("demo failed", append([]zap.Field{zap.String("query", name)}, errorFields(err)...)...)
			os.Exit(1)
		}
	}
}

func parseConfig(path string) (*config.Parameters, error) {
	if path == "" {
		params := &config.Parameters{}
		params.SetDefaults()
		return params, nil
	}
	params, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err = params.Validate(context.Background()); err != nil {
		return nil, err
	}
	return params, nil
}

// errorFields reports a coded error the way a MySQL client would see it.
func errorFields(err error) []zap.Field {
	var me *moerr.Error
	if !errors.As(err, &me) {
		return []zap.Field{zap.Error(err)}
	}
	return []zap.Field{
		zap.String("error", me.Display()),
		zap.Uint16("mysqlCode", me.MySQLCode()),
		zap.String("sqlState", me.SqlState()),
	}
}

func runDemo(params *config.Parameters, name string) error {
	ctx := moerr.AttachDetail(context.Background(), "demo "+name)
	env, err := newDemoEnv(ctx)
	if err != nil {
		return err
	}
	build, ok := demos[name]
	if !ok {
		return moerr.NewInvalidInput(ctx, "unknown demo query %s", name)
	}
	sql, s := build(env)

	proc := process.NewFromParameters(ctx, params)
	defer proc.Cancel()

	fmt.Printf("-- %s\n%s\n\nEXPLAIN\n%s\n", name, sql, plan.Format(s))
	out, err := plan.DecorrelateSubquery(proc.Ctx, env.md, s)
	if err != nil {
		return err
	}
	fmt.Printf("EXPLAIN (decorrelated)\n%s\n", plan.Format(out))

	ss, err := compile.Compile(proc, env.md, env.e, out)
	if err != nil {
		return err
	}
	defer ss.Release()
	bat, err := ss.Run()
	if err != nil {
		return err
	}
	printRows(bat)
	return nil
}

func printRows(bat *batch.Batch) {
	fmt.Println(strings.Join(bat.Attrs, "\t"))
	for i := 0; i < bat.RowCount(); i++ {
		vals := make([]string, len(bat.Vecs))
		for j, vec := range bat.Vecs {
			if v := vec.GetAny(i); v != nil {
				vals[j] = fmt.Sprint(v)
			} else {
				vals[j] = "NULL"
			}
		}
		fmt.Println(strings.Join(vals, "\t"))
	}
	fmt.Printf("(%d rows)\n\n", bat.RowCount())
}
