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

package dependency

import (
	"errors"
	"testing"

	"github.com/rulego/datatidy/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func col(name, transformation string) types.ColumnSpec {
	return types.ColumnSpec{Name: name, Transformation: transformation}
}

func TestIdentifiers(t *testing.T) {
	a := NewAnalyzer(nil)
	tests := []struct {
		src    string
		params []string
		want   []string
	}{
		{"a + b * a", nil, []string{"a", "b"}},
		{"abs(a) + max(b, c)", nil, []string{"a", "b", "c"}},
		{"name.str.upper()", nil, []string{"name"}},
		{"name.strip().lower()", nil, []string{"name"}},
		{"users.name + orders.total", nil, []string{"users.name", "orders.total"}},
		{"x * factor", []string{"x"}, []string{"factor"}},
		{"lambda acc, x: acc + x + bonus", []string{"x"}, []string{"bonus"}},
		{"a if a is not None else nan", nil, []string{"a"}},
		{"True and None", nil, nil},
		{"unknown_fn(a)", nil, []string{"unknown_fn", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, ok := a.Identifiers(tt.src, tt.params...)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := a.Identifiers("a +")
	assert.False(t, ok)
}

func TestExtractReferences(t *testing.T) {
	a := NewAnalyzer(nil)
	known := NewSet("a", "b", "max", "users.name")

	assert.Equal(t, NewSet("a", "b"), a.ExtractReferences("max(a, b) + zzz", known))
	assert.Equal(t, NewSet("users.name"), a.ExtractReferences("users.name.upper()", known))
	// unparsable text falls back to a token scan
	assert.Equal(t, NewSet("a", "b", "users.name"), a.ExtractReferences("a + (b users.name", known))
}

func TestExtractOperationReferences(t *testing.T) {
	a := NewAnalyzer(nil)
	known := NewSet("price", "qty", "region", "x")
	ops := []types.OperationSpec{
		{Type: types.OpMap, Function: "lambda v: v * qty"},
		{Type: types.OpFilter, Condition: "x > 0"},
		{Type: types.OpReduce, Function: "acc + x"},
		{Type: types.OpGroup, GroupBy: "region", Function: "mean"},
		{Type: types.OpWindow, WindowSize: 3, Function: "sum"},
	}
	assert.Equal(t, NewSet("qty", "region"), a.ExtractOperationReferences(ops, known))
}

func TestResolveOrder(t *testing.T) {
	a := NewAnalyzer(nil)
	specs := types.ColumnSpecs{
		col("total", "subtotal + tax"),
		col("tax", "subtotal * 0.2"),
		{Name: "label", Source: "name"},
		col("subtotal", "price * qty"),
		col("flag", "1"),
	}
	g, order, err := a.Resolve(specs, []string{"price", "qty", "name"})
	require.NoError(t, err)
	assert.Equal(t, []string{"label", "subtotal", "tax", "total", "flag"}, order)
	assert.Equal(t, []string{"subtotal", "tax"}, g.Dependencies("total"))
	assert.Equal(t, []string{"total", "tax"}, g.Dependents("subtotal"))
	assert.True(t, g.IsInput("price"))
	assert.False(t, g.IsInput("total"))

	position := map[string]int{}
	for i, name := range order {
		position[name] = i
	}
	for _, name := range g.Outputs() {
		for _, dep := range g.Dependencies(name) {
			if _, isOutput := position[dep]; isOutput {
				assert.Less(t, position[dep], position[name], "%s before %s", dep, name)
			}
		}
	}

	// deterministic across runs
	for i := 0; i < 5; i++ {
		_, again, err := a.Resolve(specs, []string{"price", "qty", "name"})
		require.NoError(t, err)
		assert.Equal(t, order, again)
	}
}

func TestResolveSelfReference(t *testing.T) {
	a := NewAnalyzer(nil)
	_, order, err := a.Resolve(types.ColumnSpecs{col("age", "age + 1")}, []string{"age"})
	require.NoError(t, err)
	assert.Equal(t, []string{"age"}, order)
}

func TestCycleError(t *testing.T) {
	a := NewAnalyzer(nil)
	specs := types.ColumnSpecs{
		col("ok", "a * 2"),
		col("A", "B + 1"),
		col("B", "A + 1"),
		col("C", "B + ok"),
	}
	_, _, err := a.Resolve(specs, []string{"a"})
	require.Error(t, err)
	var cycle *CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []string{"A", "B", "C"}, cycle.Columns)
	assert.Equal(t, types.CategoryDependency, types.CategoryOf(err))

	_, _, err = a.Resolve(types.ColumnSpecs{col("A", "B + 1"), col("B", "A + 1")}, nil)
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []string{"A", "B"}, cycle.Columns)
}

func TestUnresolvedReferences(t *testing.T) {
	a := NewAnalyzer(nil)
	specs := types.ColumnSpecs{
		col("x", "a + missing"),
		{Name: "y", Operations: []types.OperationSpec{{Type: types.OpGroup, GroupBy: "nowhere", Function: "sum"}}},
		{Name: "z", Source: "not_there"},
	}
	_, err := a.BuildGraph(specs, []string{"a"})
	require.Error(t, err)
	var unresolved *UnresolvedError
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, []string{"missing"}, unresolved.References["x"])
	assert.Equal(t, []string{"nowhere"}, unresolved.References["y"])
	assert.NotContains(t, unresolved.References, "z")
	assert.Equal(t, types.CategoryDependency, types.CategoryOf(err))
	assert.Contains(t, err.Error(), "column 'x' references unknown column(s) missing")
}
