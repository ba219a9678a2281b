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
	"fmt"

	"github.com/rulego/datatidy/utils/cast"
)

// GroupAggregator aggregates values per group key
type GroupAggregator struct {
	prototype AggregatorFunction
	groups    map[string]AggregatorFunction
	order     []string
}

// NewGroupAggregator creates a group aggregator for a named aggregate
func NewGroupAggregator(aggType AggregateType) (*GroupAggregator, error) {
	proto, err := CreateBuiltinAggregator(aggType)
	if err != nil {
		return nil, err
	}
	return &GroupAggregator{prototype: proto, groups: make(map[string]AggregatorFunction)}, nil
}

// GroupKey returns a comparable key for a group value. Null values belong
// to no group.
func GroupKey(v any) (string, bool) {
	v = cast.Normalize(v)
	if cast.IsNull(v) {
		return "", false
	}
	switch x := v.(type) {
	case int64:
		// 1 and 1.0 fall into the same group
		return fmt.Sprintf("n:%v", float64(x)), true
	case float64:
		return fmt.Sprintf("n:%v", x), true
	}
	return fmt.Sprintf("%T:%s", v, cast.ToString(v)), true
}

// Add adds a value to the group of key. Values with a null key are ignored.
func (g *GroupAggregator) Add(key, value any) error {
	k, ok := GroupKey(key)
	if !ok {
		return nil
	}
	agg, exists := g.groups[k]
	if !exists {
		agg = g.prototype.New()
		g.groups[k] = agg
		g.order = append(g.order, k)
	}
	return agg.Add(value)
}

// Result returns the aggregate of the group of key, or nil
func (g *GroupAggregator) Result(key any) any {
	k, ok := GroupKey(key)
	if !ok {
		return nil
	}
	if agg, exists := g.groups[k]; exists {
		return agg.Result()
	}
	return nil
}

// Len returns the number of groups
func (g *GroupAggregator) Len() int {
	return len(g.order)
}

// Broadcast aggregates values by key and returns each row's group result
func Broadcast(aggType AggregateType, keys, values []any) ([]any, error) {
	if len(keys) != len(values) {
		return nil, fmt.Errorf("group keys have %d rows, values have %d", len(keys), len(values))
	}
	g, err := NewGroupAggregator(aggType)
	if err != nil {
		return nil, err
	}
	for i := range keys {
		if err := g.Add(keys[i], values[i]); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = g.Result(k)
	}
	return out, nil
}
