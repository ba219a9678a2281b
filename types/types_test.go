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

package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type customErr struct{}

func (customErr) Error() string            { return "custom" }
func (customErr) Category() ErrorCategory { return CategoryInput }

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), CategorySystem},
		{"validation", NewValidationError("a", "null values", []int{1}), CategoryValidation},
		{"wrapped", fmt.Errorf("outer: %w", NewDataTypeError("a", "bad int", nil)), CategoryDataType},
		{"categorized interface", fmt.Errorf("x: %w", customErr{}), CategoryInput},
		{"message text is ignored", errors.New("validation failed: dependency cycle"), CategorySystem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryOf(tt.err))
		})
	}
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(CategorySystem, "a", nil))

	inner := NewTransformationError("", "map", errors.New("bad"))
	wrapped := WrapError(CategorySystem, "total", inner)
	assert.Equal(t, CategoryTransformation, wrapped.Kind)
	assert.Equal(t, "total", wrapped.Column)
	assert.Empty(t, inner.Column)

	viaInterface := WrapError(CategorySystem, "a", customErr{})
	assert.Equal(t, CategoryInput, viaInterface.Kind)
	assert.ErrorIs(t, viaInterface, customErr{})
}

func TestError_Message(t *testing.T) {
	err := NewValidationError("age", "null values found", []int{0, 3})
	assert.Equal(t, "validation_error: column 'age': null values found (2 rows affected)", err.Error())
	assert.Equal(t, []int{0, 3}, IndicesOf(fmt.Errorf("wrap: %w", err)))
	assert.Nil(t, IndicesOf(errors.New("x")))
}

func TestOperationSpec_Validate(t *testing.T) {
	tests := []struct {
		op      OperationSpec
		wantErr string
	}{
		{OperationSpec{Type: OpMap, Function: "x * 2"}, ""},
		{OperationSpec{Type: OpMap}, "requires 'function'"},
		{OperationSpec{Type: OpFilter}, "requires 'condition'"},
		{OperationSpec{Type: OpGroup, Function: "mean"}, "requires 'group_by'"},
		{OperationSpec{Type: OpWindow, Function: "mean"}, "positive 'window_size'"},
		{OperationSpec{Type: OpWindow, WindowSize: 3, Function: "mean"}, ""},
		{OperationSpec{Type: "pivot"}, "unknown operation type"},
		{OperationSpec{}, "missing 'type'"},
	}
	for _, tt := range tests {
		err := tt.op.Validate()
		if tt.wantErr == "" {
			assert.NoError(t, err)
		} else {
			assert.ErrorContains(t, err, tt.wantErr)
		}
	}
}

func TestColumnSpec_Validate(t *testing.T) {
	ok := ColumnSpec{Name: "a", Transformation: "b + 1"}
	assert.NoError(t, ok.Validate())

	both := ColumnSpec{Name: "a", Transformation: "b", Operations: []OperationSpec{{Type: OpMap, Function: "x"}}}
	err := both.Validate()
	require.Error(t, err)
	assert.Equal(t, CategoryConfiguration, CategoryOf(err))

	badOp := ColumnSpec{Name: "a", Operations: []OperationSpec{{Type: "explode"}}}
	err = badOp.Validate()
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "operation 0", e.Stage)

	assert.Error(t, ColumnSpec{Name: "a", Type: "decimal"}.Validate())
	assert.Equal(t, "a", ColumnSpec{Name: "a"}.SourceName())
	assert.Equal(t, "b", ColumnSpec{Name: "a", Source: "b"}.SourceName())
	assert.False(t, ColumnSpec{Name: "a", Source: "a"}.HasExplicitSource())
}

func TestColumnSpecs_YAMLKeepsOrder(t *testing.T) {
	doc := `
zeta:
  transformation: "a + 1"
alpha:
  source: raw
  type: int
middle:
`
	var specs ColumnSpecs
	require.NoError(t, yaml.Unmarshal([]byte(doc), &specs))
	assert.Equal(t, []string{"zeta", "alpha", "middle"}, specs.Names())

	alpha, ok := specs.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, "raw", alpha.Source)
	assert.Equal(t, TypeInt, alpha.Type)

	out, err := yaml.Marshal(specs)
	require.NoError(t, err)
	var again ColumnSpecs
	require.NoError(t, yaml.Unmarshal(out, &again))
	assert.Equal(t, specs.Names(), again.Names())

	assert.Error(t, yaml.Unmarshal([]byte("- a\n- b\n"), &specs))
}

func TestValidationRules_Defaults(t *testing.T) {
	v := &ValidationRules{}
	assert.True(t, v.IsRequired())
	assert.False(t, v.IsNullable())
	yes := true
	v.Nullable = &yes
	assert.True(t, v.IsNullable())
}

func TestConfig_Validate(t *testing.T) {
	cfg := NewConfig(ColumnSpec{Name: "a"}, ColumnSpec{Name: "b", Transformation: "a * 2"})
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ModeStrict, cfg.GlobalSettings.ProcessingMode)

	dup := NewConfig(ColumnSpec{Name: "a"}, ColumnSpec{Name: "a"})
	assert.ErrorContains(t, dup.Validate(), "duplicate")

	threshold := NewConfig(ColumnSpec{Name: "a"})
	threshold.GlobalSettings.FailureThreshold = 1.5
	assert.Error(t, threshold.Validate())

	sub := NewConfig(ColumnSpec{Name: "a"})
	sub.GlobalSettings.FallbackTransformations = map[string]SubstituteSpec{
		"a": {Type: SubstituteBasicCalculation, Source: "b", Operation: "mode"},
	}
	assert.ErrorContains(t, sub.Validate(), "unsupported basic_calculation")

	filter := NewConfig(ColumnSpec{Name: "a"})
	filter.Output.Filters = []FilterSpec{{Condition: "a > 1", Action: "drop"}}
	assert.Error(t, filter.Validate())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Partial")
	require.NoError(t, err)
	assert.Equal(t, ModePartial, m)
	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeStrict, m)
	_, err = ParseMode("lenient")
	assert.Error(t, err)
}
