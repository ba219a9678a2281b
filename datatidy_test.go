/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package datatidy

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rulego/datatidy/fallback"
	"github.com/rulego/datatidy/functions"
	"github.com/rulego/datatidy/logger"
	"github.com/rulego/datatidy/table"
	"github.com/rulego/datatidy/types"
	"github.com/rulego/datatidy/utils/cast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orders() *table.Table {
	return table.MustFromColumns([]string{"qty", "price", "sku"}, map[string][]any{
		"qty":   {int64(2), int64(1), int64(4)},
		"price": {2.5, 10.0, 1.0},
		"sku":   {"a-1", "b-2", "c-3"},
	})
}

func double(ctx *functions.FunctionContext, args []any) (any, error) {
	f, err := cast.ToFloat64E(args[0])
	return f * 2, err
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	assert.Equal(t, types.CategoryConfiguration, types.CategoryOf(err))

	cfg := types.NewConfig(types.ColumnSpec{Name: "x", Source: "qty"})
	cfg.GlobalSettings.LogLevel = "chatty"
	_, err = New(cfg)
	require.Error(t, err)
	assert.Equal(t, types.CategoryConfiguration, types.CategoryOf(err))

	cfg.GlobalSettings.LogLevel = "warn"
	dt, err := New(cfg, WithDiscardLog())
	require.NoError(t, err)
	assert.Same(t, cfg, dt.Config())

	_, err = New(cfg, WithCustomFunction("abs", 1, 1, double))
	require.Error(t, err, "builtin names cannot be registered again")
	assert.Equal(t, types.CategoryConfiguration, types.CategoryOf(err))
}

func TestProcess(t *testing.T) {
	cfg := types.NewConfig(
		types.ColumnSpec{Name: "total", Transformation: "qty * price"},
		types.ColumnSpec{Name: "doubled", Transformation: "double(total)", Type: types.TypeInt},
		types.ColumnSpec{Name: "code", Transformation: "str(sku)", Interim: true},
	)
	cfg.Output.OnlyOutputColumns = true

	var logs bytes.Buffer
	dt, err := New(cfg,
		WithLogOutput(&logs, logger.INFO),
		WithCustomFunction("double", 1, 1, double),
	)
	require.NoError(t, err)

	res, err := dt.Process(context.Background(), orders())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"total", "doubled"}, res.Data.Columns())
	doubled, _ := res.Data.Column("doubled")
	assert.Equal(t, []any{int64(10), int64(20), int64(8)}, doubled)
	assert.Contains(t, logs.String(), res.RunID)
}

func TestPlan(t *testing.T) {
	cfg := types.NewConfig(
		types.ColumnSpec{Name: "b", Transformation: "a + 1"},
		types.ColumnSpec{Name: "a", Source: "qty"},
	)
	dt, err := New(cfg, WithDiscardLog())
	require.NoError(t, err)

	plan, err := dt.Plan([]string{"qty"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, plan.Order())
}

func TestErrorSinks(t *testing.T) {
	cfg := types.NewConfig(
		types.ColumnSpec{Name: "ok", Source: "qty"},
		types.ColumnSpec{Name: "broken", Source: "nope"},
	)
	cfg.GlobalSettings.ProcessingMode = types.ModePartial
	cfg.GlobalSettings.FailureThreshold = 0.9

	first, second := fallback.NewErrorLog(), fallback.NewErrorLog()
	dt, err := New(cfg, WithDiscardLog(), WithErrorSink(first), WithErrorSink(second))
	require.NoError(t, err)

	res, err := dt.Process(context.Background(), orders())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"broken"}, res.FailedColumns)
	require.Equal(t, 1, first.Len())
	assert.Equal(t, first.Records(), second.Records())
	assert.Equal(t, types.CategoryInput, first.Records()[0].Category)
}

func TestFallbackSupplier(t *testing.T) {
	cfg := types.NewConfig(types.ColumnSpec{Name: "total", Transformation: "qty * price"})
	cfg.GlobalSettings.ProcessingMode = types.ModeFallback

	supplied := table.MustFromColumns([]string{"total"}, map[string][]any{"total": {1.0}})
	dt, err := New(cfg, WithDiscardLog(), WithFallbackSupplier(func(ctx context.Context) (*table.Table, error) {
		return supplied, nil
	}))
	require.NoError(t, err)

	res, err := dt.Process(context.Background(), orders())
	require.NoError(t, err)
	assert.True(t, res.FallbackUsed)
	assert.Same(t, supplied, res.Data)

	dt, err = New(cfg, WithDiscardLog(), WithFallbackSupplier(func(ctx context.Context) (*table.Table, error) {
		return nil, errors.New("connection refused")
	}))
	require.NoError(t, err)
	res, err = dt.Process(context.Background(), orders())
	require.NoError(t, err)
	assert.True(t, res.FallbackUsed)
	assert.Len(t, res.Errors, 1)
}

func TestProcessRecords(t *testing.T) {
	cfg := types.NewConfig(types.ColumnSpec{Name: "n", Transformation: "len(name)"})
	dt, err := New(cfg, WithDiscardLog())
	require.NoError(t, err)

	res, err := dt.ProcessRecords(context.Background(), []map[string]any{{"name": "ab"}, {"name": "abcd"}})
	require.NoError(t, err)
	n, _ := res.Data.Column("n")
	assert.Equal(t, []any{int64(2), int64(4)}, n)

	_, err = dt.Process(context.Background(), nil)
	assert.Equal(t, types.CategoryInput, types.CategoryOf(err))
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
output:
  columns:
    price_with_tax:
      transformation: "round(price * 1.2, 2)"
global_settings:
  processing_mode: strict
  log_level: error
`), 0o644))

	dt, err := NewFromFile(path)
	require.NoError(t, err)
	res, err := dt.Process(context.Background(), orders())
	require.NoError(t, err)
	v, _ := res.Data.Column("price_with_tax")
	assert.Equal(t, []any{3.0, 12.0, 1.2}, v)

	_, err = NewFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPrintTable(t *testing.T) {
	dt, err := New(types.NewConfig(types.ColumnSpec{Name: "q", Source: "qty"}), WithDiscardLog())
	require.NoError(t, err)

	var buf bytes.Buffer
	dt.PrintTable(&buf, nil, 0)
	assert.Equal(t, "(no data)\n", buf.String())

	res, err := dt.Process(context.Background(), orders())
	require.NoError(t, err)
	buf.Reset()
	dt.PrintTable(&buf, res, 2)
	assert.Contains(t, buf.String(), "| qty ")
	assert.Contains(t, buf.String(), "(2 of 3 rows)")
}
