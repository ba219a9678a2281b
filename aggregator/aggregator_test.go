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

package aggregator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	values := []any{int64(4), nil, 2, 6.0, math.NaN()}
	tests := []struct {
		agg  AggregateType
		want any
	}{
		{Mean, 4.0},
		{Avg, 4.0},
		{Sum, 12.0},
		{Count, int64(3)},
		{Max, 6.0},
		{Min, int64(2)},
		{StdDev, 2.0},
		{Var, 4.0},
		{Median, 4.0},
		{First, int64(4)},
		{Last, 6.0},
		{"MEAN", 4.0},
	}
	for _, tt := range tests {
		t.Run(string(tt.agg), func(t *testing.T) {
			got, err := Aggregate(tt.agg, values)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAggregateEdgeCases(t *testing.T) {
	got, err := Aggregate(Sum, []any{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, int64(6), got)

	got, err = Aggregate(Sum, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)

	for _, agg := range []AggregateType{Mean, Median, StdDev, Max, First} {
		got, err := Aggregate(agg, []any{nil})
		require.NoError(t, err)
		assert.Nil(t, got, agg)
	}

	got, err = Aggregate(StdDev, []any{5})
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = Aggregate(Max, []any{"pear", "apple", "zoo"})
	require.NoError(t, err)
	assert.Equal(t, "zoo", got)

	_, err = Aggregate(Mean, []any{1, "x"})
	assert.Error(t, err)

	_, err = Aggregate("mode", []any{1})
	assert.Error(t, err)
}

type productAggregator struct {
	value float64
	seen  bool
}

func (p *productAggregator) New() AggregatorFunction { return &productAggregator{} }

func (p *productAggregator) Add(v any) error {
	f, err := toFloat(v)
	if err != nil {
		return err
	}
	if !p.seen {
		p.value, p.seen = 1, true
	}
	p.value *= f
	return nil
}

func (p *productAggregator) Result() any { return p.value }

func TestRegister(t *testing.T) {
	assert.False(t, IsAggregate("product"))
	require.NoError(t, Register("product", func() AggregatorFunction { return &productAggregator{} }))
	defer Unregister("product")

	assert.True(t, IsAggregate("product"))
	got, err := Aggregate("product", []any{2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 24.0, got)

	assert.Error(t, Register("mean", func() AggregatorFunction { return &productAggregator{} }))
	assert.True(t, IsAggregate(" Median "))
	assert.False(t, IsAggregate("x * 2"))
}

func TestBroadcast(t *testing.T) {
	keys := []any{"a", "b", "a", nil, int64(1), 1.0}
	values := []any{int64(1), int64(2), int64(3), int64(4), int64(5), int64(6)}

	got, err := Broadcast(Sum, keys, values)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(4), int64(2), int64(4), nil, int64(11), int64(11)}, got)

	got, err = Broadcast(Count, keys, values)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(2), int64(1), int64(2), nil, int64(2), int64(2)}, got)

	_, err = Broadcast(Sum, keys, values[:2])
	assert.Error(t, err)

	g, err := NewGroupAggregator(Mean)
	require.NoError(t, err)
	require.NoError(t, g.Add("x", 1))
	require.NoError(t, g.Add("x", 3))
	require.NoError(t, g.Add(nil, 100))
	assert.Equal(t, 1, g.Len())
	assert.Equal(t, 2.0, g.Result("x"))
	assert.Nil(t, g.Result("y"))
}
