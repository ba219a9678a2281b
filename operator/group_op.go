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

package operator

import (
	"fmt"

	"github.com/rulego/datatidy/aggregator"
	"github.com/rulego/datatidy/expr"
	"github.com/rulego/datatidy/window"
)

// GroupOp computes a per-group aggregate of the chain's source column keyed
// by another column and broadcasts it back to every row of the group. Rows
// with a null key get null.
type GroupOp struct {
	BaseOp
	named bool
}

func (o *GroupOp) Init(in *expr.Interpreter) error {
	if aggregator.IsAggregate(o.Spec.Function) {
		o.named = true
		return nil
	}
	return o.compile(in, o.Spec.Function, elementParams)
}

func (o *GroupOp) Apply(ctx *Context) ([]any, error) {
	if ctx.Table == nil {
		return nil, fmt.Errorf("group_by column '%s' is not available", o.Spec.GroupBy)
	}
	keys, ok := ctx.Table.Column(o.Spec.GroupBy)
	if !ok {
		return nil, fmt.Errorf("group_by column '%s' not found", o.Spec.GroupBy)
	}
	values := ctx.Source
	if values == nil {
		values = ctx.Values
	}
	if o.named {
		return aggregator.Broadcast(aggregator.AggregateType(o.Spec.Function), keys, values)
	}

	groups := map[string][]int{}
	var order []string
	for i, k := range keys {
		key, ok := aggregator.GroupKey(k)
		if !ok {
			continue
		}
		if _, exists := groups[key]; !exists {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}
	out := make([]any, len(values))
	for _, key := range order {
		rows := groups[key]
		members := make([]any, len(rows))
		for j, r := range rows {
			members[j] = values[r]
		}
		v, err := o.interpreter.Apply(o.program, nil, members)
		if err != nil {
			return nil, fmt.Errorf("group %v: %w", keys[rows[0]], err)
		}
		for _, r := range rows {
			out[r] = v
		}
	}
	return out, nil
}

// WindowOp computes a rolling aggregate over the previous WindowSize
// elements. A custom function receives the window as a list.
type WindowOp struct {
	BaseOp
	named bool
}

func (o *WindowOp) Init(in *expr.Interpreter) error {
	if aggregator.IsAggregate(o.Spec.Function) {
		o.named = true
		return nil
	}
	return o.compile(in, o.Spec.Function, elementParams)
}

func (o *WindowOp) Apply(ctx *Context) ([]any, error) {
	if o.named {
		return window.Aggregate(ctx.Values, o.Spec.WindowSize, aggregator.AggregateType(o.Spec.Function))
	}
	return window.Apply(ctx.Values, o.Spec.WindowSize, func(w []any, _ bool) (any, error) {
		return o.interpreter.Apply(o.program, nil, w)
	})
}
