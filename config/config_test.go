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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rulego/datatidy/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
input:
  type: CSV
  source: users.csv
output:
  only_output_columns: true
  columns:
    user_id:
      source: id
      type: int
      validation:
        min_value: 1
    full_name:
      transformation: "first_name + ' ' + last_name"
      type: string
    age_group:
      transformation: "'adult' if age >= 18 else 'minor'"
    total_age:
      source: age
      operations:
        - type: reduce
          function: "lambda acc, x: acc + x"
          initial_value: 0
    scratch:
      interim: true
    joined:
      type: datetime
      format: "%Y-%m-%d"
      default: "2000-01-01"
  filters:
    - condition: "user_id > 0"
  sort:
    - column: full_name
      ascending: false
global_settings:
  processing_mode: Partial
  failure_threshold: 0.25
  fallback_transformations:
    age_group:
      type: default_value
      value: unknown
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, &types.InputConfig{Type: InputCSV, Source: "users.csv"}, cfg.Input)
	assert.Equal(t, []string{"user_id", "full_name", "age_group", "total_age", "scratch", "joined"}, cfg.Output.Columns.Names())
	assert.True(t, cfg.Output.OnlyOutputColumns)

	uid, ok := cfg.Output.Columns.Get("user_id")
	require.True(t, ok)
	assert.Equal(t, "id", uid.Source)
	assert.Equal(t, types.TypeInt, uid.Type)
	require.NotNil(t, uid.Validation)
	assert.Equal(t, 1.0, *uid.Validation.MinValue)
	assert.True(t, uid.Validation.IsRequired())
	assert.False(t, uid.Validation.IsNullable())

	total, _ := cfg.Output.Columns.Get("total_age")
	require.Len(t, total.Operations, 1)
	assert.Equal(t, types.OpReduce, total.Operations[0].Type)
	assert.Equal(t, 0, total.Operations[0].InitialValue)

	scratch, _ := cfg.Output.Columns.Get("scratch")
	assert.True(t, scratch.Interim)
	assert.Equal(t, "scratch", scratch.SourceName())

	assert.Equal(t, []types.FilterSpec{{Condition: "user_id > 0"}}, cfg.Output.Filters)
	require.Len(t, cfg.Output.Sort, 1)
	assert.False(t, cfg.Output.Sort[0].IsAscending())

	gs := cfg.GlobalSettings
	assert.Equal(t, types.ModePartial, gs.ProcessingMode)
	assert.Equal(t, 0.25, gs.FailureThreshold)
	assert.True(t, gs.EnableFallback)
	assert.True(t, gs.ReturnInputOnFailure)
	assert.Equal(t, "info", gs.LogLevel)
	assert.Equal(t, types.SubstituteSpec{Type: types.SubstituteDefaultValue, Value: "unknown"}, gs.FallbackTransformations["age_group"])
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("output:\n  columns:\n    a:\n"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Input)
	assert.Equal(t, types.DefaultGlobalSettings(), cfg.GlobalSettings)
	assert.Equal(t, types.ColumnSpecs{{Name: "a"}}, cfg.Output.Columns)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", ""},
		{"not yaml", "output: ["},
		{"no columns", "output:\n  columns: {}\n"},
		{"columns as list", "output:\n  columns:\n    - a\n"},
		{"unknown field", "output:\n  columns:\n    a:\n  colour: red\n"},
		{"bad mode", "output:\n  columns:\n    a:\nglobal_settings:\n  processing_mode: lenient\n"},
		{"bad threshold", "output:\n  columns:\n    a:\nglobal_settings:\n  failure_threshold: 1.5\n"},
		{"bad type", "output:\n  columns:\n    a:\n      type: decimal\n"},
		{"both computations", "output:\n  columns:\n    a:\n      transformation: b\n      operations:\n        - type: map\n          function: x\n"},
		{"bad operation", "output:\n  columns:\n    a:\n      operations:\n        - type: window\n          function: sum\n"},
		{"bad substitute", "output:\n  columns:\n    a:\nglobal_settings:\n  fallback_transformations:\n    a:\n      type: copy_column\n"},
		{"sqlite without query", "input:\n  type: sqlite\n  source: db.sqlite\noutput:\n  columns:\n    a:\n"},
		{"unknown input", "input:\n  type: parquet\n  source: x\noutput:\n  columns:\n    a:\n"},
		{"bad filter action", "output:\n  columns:\n    a:\n  filters:\n    - condition: a > 1\n      action: drop\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Equal(t, types.CategoryConfiguration, types.CategoryOf(err))
		})
	}
}

func TestLoadAndMarshal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)

	data, err := Marshal(cfg)
	require.NoError(t, err)
	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg.Output.Columns.Names(), again.Output.Columns.Names())
	assert.Equal(t, cfg.GlobalSettings, again.GlobalSettings)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, types.CategoryInput, types.CategoryOf(err))
}
