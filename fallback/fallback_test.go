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

package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rulego/datatidy/expr"
	"github.com/rulego/datatidy/functions"
	"github.com/rulego/datatidy/table"
	"github.com/rulego/datatidy/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func input() *table.Table {
	return table.MustFromColumns([]string{"a", "b"}, map[string][]any{
		"a": {int64(1), int64(2), int64(3)},
		"b": {"x", "y", "z"},
	})
}

var (
	ok1  = types.ColumnSpec{Name: "double", Transformation: "a * 2"}
	ok2  = types.ColumnSpec{Name: "label", Source: "b"}
	bad1 = types.ColumnSpec{Name: "num", Transformation: "int(b)"}
	bad2 = types.ColumnSpec{Name: "scaled", Transformation: "b * 1.5"}
	bad3 = types.ColumnSpec{Name: "other", Source: "missing_col"}
)

func newConfig(mode types.ProcessingMode, cols ...types.ColumnSpec) *types.Config {
	cfg := types.NewConfig(cols...)
	cfg.GlobalSettings.ProcessingMode = mode
	return cfg
}

func process(t *testing.T, cfg *types.Config, opts ...Option) (*ProcessingResult, error) {
	t.Helper()
	p, err := NewProcessor(cfg, opts...)
	require.NoError(t, err)
	res, err := p.Process(context.Background(), input(), nil)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.RunID)
	return res, err
}

func TestStrict(t *testing.T) {
	res, err := process(t, newConfig(types.ModeStrict, ok1, ok2))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"a", "b", "double", "label"}, res.Data.Columns())
	double, _ := res.Data.Column("double")
	assert.Equal(t, []any{int64(2), int64(4), int64(6)}, double)
	assert.Equal(t, []string{"double", "label"}, res.SuccessfulColumns)
	assert.Empty(t, res.Errors)
}

func TestStrictAbortsWithoutPartialTable(t *testing.T) {
	cfg := newConfig(types.ModeStrict, ok1, bad1, ok2)
	res, err := process(t, cfg)
	require.Error(t, err)
	assert.Equal(t, types.CategoryTransformation, types.CategoryOf(err))
	assert.False(t, res.Success)
	assert.Equal(t, []string{"num"}, res.FailedColumns)
	assert.Equal(t, []string{"double"}, res.SuccessfulColumns)
	assert.Equal(t, []string{"label"}, res.SkippedColumns)
	require.NotNil(t, res.Data)
	assert.Equal(t, []string{"a", "b"}, res.Data.Columns())
	require.Len(t, res.Errors, 1)
	assert.False(t, res.Errors[0].Skipped)
	assert.Equal(t, []int{0, 1, 2}, res.Errors[0].Indices)

	cfg.GlobalSettings.ReturnInputOnFailure = false
	res, err = process(t, cfg)
	require.Error(t, err)
	assert.Nil(t, res.Data)
}

func TestPartialThreshold(t *testing.T) {
	tests := []struct {
		name         string
		cols         []types.ColumnSpec
		failed       []string
		success      bool
		fallbackUsed bool
	}{
		{"half failing stays below", []types.ColumnSpec{ok1, ok2, bad1, bad2}, []string{"num", "scaled"}, true, false},
		{"three of four escalate", []types.ColumnSpec{ok1, bad3, bad1, bad2}, []string{"other", "num", "scaled"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig(types.ModePartial, tt.cols...)
			cfg.GlobalSettings.FailureThreshold = 0.5
			cfg.Output.Filters = []types.FilterSpec{{Condition: "a > 1"}}
			res, err := process(t, cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.success, res.Success)
			assert.Equal(t, tt.fallbackUsed, res.FallbackUsed)
			assert.Equal(t, tt.failed, res.FailedColumns)
			assert.Equal(t, tt.failed, res.SkippedColumns)
			for _, c := range tt.failed {
				assert.False(t, res.Data.Has(c), c)
			}
			if tt.fallbackUsed {
				assert.Equal(t, 3, res.Data.Len(), "post-processing is skipped")
			} else {
				assert.Equal(t, 2, res.Data.Len())
			}
			for _, rec := range res.Errors {
				assert.True(t, rec.Skipped)
			}
		})
	}
}

func TestPartialEscalationNeedsFallbackEnabled(t *testing.T) {
	cfg := newConfig(types.ModePartial, ok1, bad3, bad1, bad2)
	cfg.GlobalSettings.EnableFallback = false
	res, err := process(t, cfg)
	require.NoError(t, err)
	assert.False(t, res.FallbackUsed)
	assert.True(t, res.Success)
	assert.InDelta(t, 0.75, res.FailureRate, 1e-9)
}

func TestPartialSubstitutes(t *testing.T) {
	cfg := newConfig(types.ModePartial,
		types.ColumnSpec{Name: "y", Transformation: "int(b)"},
		types.ColumnSpec{Name: "z", Transformation: "y + '!'"},
		types.ColumnSpec{Name: "w", Transformation: "int(b)"},
	)
	cfg.GlobalSettings.FallbackTransformations = map[string]types.SubstituteSpec{
		"y": {Type: types.SubstituteDefaultValue, Value: "X"},
		"w": {Type: types.SubstituteCopyColumn, Source: "nope"},
	}
	log := NewErrorLog()
	p, err := NewProcessor(cfg)
	require.NoError(t, err)
	res, err := p.Process(context.Background(), input(), log)
	require.NoError(t, err)

	y, ok := res.Data.Column("y")
	require.True(t, ok)
	assert.Equal(t, []any{"X", "X", "X"}, y)
	z, _ := res.Data.Column("z")
	assert.Equal(t, []any{"X!", "X!", "X!"}, z)
	assert.Equal(t, []string{"y", "w"}, res.FailedColumns)
	assert.Equal(t, []string{"w"}, res.SkippedColumns)
	assert.Equal(t, []string{"z"}, res.SuccessfulColumns)
	assert.False(t, res.Data.Has("w"))
	assert.Equal(t, res.Errors, log.Records())
	assert.Equal(t, "failed", res.ColumnStatus("y"))
	assert.Equal(t, "success", res.ColumnStatus("z"))
}

func TestDependencyErrorsAreFatal(t *testing.T) {
	for _, mode := range []types.ProcessingMode{types.ModeStrict, types.ModePartial} {
		t.Run(string(mode), func(t *testing.T) {
			cfg := newConfig(mode,
				types.ColumnSpec{Name: "p", Transformation: "q + 1"},
				types.ColumnSpec{Name: "q", Transformation: "p + 1"},
			)
			res, err := process(t, cfg)
			require.Error(t, err)
			assert.Equal(t, types.CategoryDependency, types.CategoryOf(err))
			assert.False(t, res.Success)
			require.Len(t, res.Errors, 1)
			assert.Equal(t, "planning", res.Errors[0].Stage)
		})
	}
}

func TestFallbackSupplier(t *testing.T) {
	supplied := table.MustFromColumns([]string{"k"}, map[string][]any{"k": {int64(9)}})
	cfg := newConfig(types.ModeFallback, ok1, bad1)
	res, err := process(t, cfg, WithSupplier(func(context.Context) (*table.Table, error) {
		return supplied, nil
	}))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.FallbackUsed)
	assert.Same(t, supplied, res.Data)
	assert.Equal(t, []string{"double", "num"}, res.SkippedColumns)
	assert.Empty(t, res.SuccessfulColumns)
}

func TestFallbackBasic(t *testing.T) {
	cfg := newConfig(types.ModeFallback,
		types.ColumnSpec{Name: "a_str", Source: "a", Type: types.TypeString},
		types.ColumnSpec{Name: "n", Source: "b", Type: types.TypeInt, Transformation: "1 / 0"},
		types.ColumnSpec{Name: "gone", Source: "zzz"},
		types.ColumnSpec{Name: "tmp", Source: "a", Interim: true},
	)
	res, err := process(t, cfg, WithSupplier(func(context.Context) (*table.Table, error) {
		return nil, errors.New("database unavailable")
	}))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"a", "b", "a_str", "n"}, res.Data.Columns())
	s, _ := res.Data.Column("a_str")
	assert.Equal(t, []any{"1", "2", "3"}, s)
	n, _ := res.Data.Column("n")
	assert.Equal(t, []any{nil, nil, nil}, n)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, types.CategorySystem, res.Errors[0].Category)

	cfg.Output.OnlyOutputColumns = true
	res, err = process(t, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"a_str", "n"}, res.Data.Columns())
}

func TestOutputAssembly(t *testing.T) {
	cfg := newConfig(types.ModeStrict,
		types.ColumnSpec{Name: "total", Transformation: "base * 10"},
		types.ColumnSpec{Name: "base", Transformation: "a + 1", Interim: true},
		types.ColumnSpec{Name: "b", Transformation: "b.upper()"},
	)
	cfg.Output.Sort = []types.SortSpec{{Column: "total", Ascending: new(bool)}}
	res, err := process(t, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "total", "b"}, res.Plan.Order())
	assert.Equal(t, []string{"a", "b", "total"}, res.Data.Columns())
	total, _ := res.Data.Column("total")
	assert.Equal(t, []any{int64(40), int64(30), int64(20)}, total)
	b, _ := res.Data.Column("b")
	assert.Equal(t, []any{"Z", "Y", "X"}, b)

	cfg.Output.OnlyOutputColumns = true
	res, err = process(t, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"total", "b"}, res.Data.Columns())
}

func TestCancellation(t *testing.T) {
	p, err := NewProcessor(newConfig(types.ModePartial, ok1, ok2))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := p.Process(ctx, input(), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, res.Success)
	assert.Equal(t, []string{"double", "label"}, res.SkippedColumns)
}

func TestNewProcessorRejectsInvalidConfig(t *testing.T) {
	_, err := NewProcessor(nil)
	assert.Error(t, err)
	cfg := newConfig(types.ModeStrict, ok1)
	cfg.GlobalSettings.FailureThreshold = 2
	_, err = NewProcessor(cfg)
	assert.Equal(t, types.CategoryConfiguration, types.CategoryOf(err))
}

func TestSubstitute(t *testing.T) {
	work := table.MustFromColumns([]string{"v"}, map[string][]any{
		"v": {nil, int64(1), nil, int64(5), int64(3)},
	})
	tests := []struct {
		name string
		spec types.SubstituteSpec
		want []any
	}{
		{"default", types.SubstituteSpec{Type: types.SubstituteDefaultValue, Value: 0}, []any{int64(0), int64(0), int64(0), int64(0), int64(0)}},
		{"copy", types.SubstituteSpec{Type: types.SubstituteCopyColumn, Source: "v"}, []any{nil, int64(1), nil, int64(5), int64(3)}},
		{"mean", types.SubstituteSpec{Type: types.SubstituteBasicCalculation, Source: "v", Operation: "mean"}, []any{3.0, 3.0, 3.0, 3.0, 3.0}},
		{"median", types.SubstituteSpec{Type: types.SubstituteBasicCalculation, Source: "v", Operation: "median"}, []any{3.0, 3.0, 3.0, 3.0, 3.0}},
		{"forward fill", types.SubstituteSpec{Type: types.SubstituteBasicCalculation, Source: "v", Operation: "forward_fill"}, []any{nil, int64(1), int64(1), int64(5), int64(3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Substitute(tt.spec, work)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Substitute(types.SubstituteSpec{Type: types.SubstituteCopyColumn, Source: "nope"}, work)
	assert.Error(t, err)
	_, err = Substitute(types.SubstituteSpec{Type: types.SubstituteBasicCalculation, Source: "v", Operation: "mode"}, work)
	assert.Error(t, err)
}

func TestReport(t *testing.T) {
	cfg := newConfig(types.ModePartial, ok1, bad1, bad3)
	cfg.GlobalSettings.EnableFallback = false
	res, err := process(t, cfg)
	require.NoError(t, err)

	rep := res.Report()
	assert.Equal(t, 3, rep.Metrics.TotalColumns)
	assert.Equal(t, 1, rep.Metrics.SuccessfulColumns)
	assert.Equal(t, 2, rep.Metrics.FailedColumns)
	assert.Equal(t, 1, rep.Metrics.ErrorCategories[types.CategoryTransformation])
	assert.Equal(t, 1, rep.Metrics.ErrorCategories[types.CategoryInput])
	assert.Equal(t, map[string]int{"num": 1, "other": 1}, rep.Summary.ByColumn)
	assert.Equal(t, 1, rep.Summary.MostCommonErrors["*expr.EvalError"])
	assert.Contains(t, rep.Suggestions, "Input errors: check that source columns exist in the input data")

	var buf bytes.Buffer
	require.NoError(t, rep.WriteJSON(&buf))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "processing_metrics")
	assert.Contains(t, decoded, "error_log")
	assert.Contains(t, decoded, "error_summary")

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, res.ExportReport(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), res.RunID)

	clean, err := process(t, newConfig(types.ModeStrict, ok1))
	require.NoError(t, err)
	assert.Equal(t, []string{"No errors found"}, clean.Suggestions())
	assert.Equal(t, 0, clean.Report().Summary.TotalErrors)
}

func TestPartialIndependence(t *testing.T) {
	cfg := newConfig(types.ModePartial,
		types.ColumnSpec{Name: "x", Source: "a"},
		types.ColumnSpec{Name: "y", Transformation: "1/0"},
	)
	cfg.Output.OnlyOutputColumns = true
	p, err := NewProcessor(cfg)
	require.NoError(t, err)

	in := table.MustFromColumns([]string{"a"}, map[string][]any{"a": {int64(1), int64(2), int64(3)}})
	res, err := p.Process(context.Background(), in, nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"x"}, res.SuccessfulColumns)
	assert.Equal(t, []string{"y"}, res.FailedColumns)
	assert.Equal(t, []string{"x"}, res.Data.Columns())
	x, _ := res.Data.Column("x")
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, x)
	assert.Equal(t, "failed", res.ColumnStatus("y"))
	assert.Equal(t, "success", res.ColumnStatus("x"))
}

func TestOversizedRepetitionFailsColumn(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"string", "b * 9223372036854775807"},
		{"list", "[1] * 9223372036854775807"},
		{"zfill", "b.zfill(10**12)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig(types.ModePartial, ok1, types.ColumnSpec{Name: "boom", Transformation: tt.expr})
			cfg.GlobalSettings.FailureThreshold = 0.9
			var res *ProcessingResult
			var err error
			assert.NotPanics(t, func() { res, err = process(t, cfg) })
			require.NoError(t, err)
			assert.True(t, res.Success)
			assert.Equal(t, []string{"double"}, res.SuccessfulColumns)
			assert.Equal(t, []string{"boom"}, res.FailedColumns)
			require.Len(t, res.Errors, 1)
			assert.Equal(t, types.CategoryTransformation, res.Errors[0].Category)
		})
	}
}

func TestColumnPanicRecovered(t *testing.T) {
	reg := functions.NewBuiltinRegistry()
	require.NoError(t, reg.RegisterCustomFunction("explode", functions.TypeCustom, "", 1, 1,
		func(ctx *functions.FunctionContext, args []any) (any, error) {
			panic("kaboom")
		}))
	boom := types.ColumnSpec{Name: "boom", Transformation: "explode(a)"}

	cfg := newConfig(types.ModePartial, ok1, boom, ok2)
	cfg.GlobalSettings.FailureThreshold = 0.9
	var res *ProcessingResult
	var err error
	assert.NotPanics(t, func() { res, err = process(t, cfg, WithInterpreter(expr.NewInterpreter(reg))) })
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"double", "label"}, res.SuccessfulColumns)
	assert.Equal(t, []string{"boom"}, res.FailedColumns)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, types.CategorySystem, res.Errors[0].Category)
	assert.Contains(t, res.Errors[0].Message, "kaboom")

	cfg = newConfig(types.ModeStrict, ok1, boom, ok2)
	assert.NotPanics(t, func() { res, err = process(t, cfg, WithInterpreter(expr.NewInterpreter(reg))) })
	require.Error(t, err)
	assert.Equal(t, types.CategorySystem, types.CategoryOf(err))
	assert.Equal(t, []string{"boom"}, res.FailedColumns)
	assert.Equal(t, []string{"label"}, res.SkippedColumns)
}
