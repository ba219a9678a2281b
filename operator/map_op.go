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
	"github.com/rulego/datatidy/expr"
	"github.com/rulego/datatidy/functions"
)

// MapOp applies a function to every element
type MapOp struct {
	BaseOp
}

func (o *MapOp) Init(in *expr.Interpreter) error {
	return o.compile(in, o.Spec.Function, elementParams)
}

func (o *MapOp) Apply(ctx *Context) ([]any, error) {
	b := vectorBindings(ctx.Table, o.program.Params()[0], ctx.Values)
	return o.interpreter.EvaluateVectors(o.program, b, len(ctx.Values))
}

// FilterOp replaces elements failing the condition with the fill value.
// Rows are never removed.
type FilterOp struct {
	BaseOp
}

func (o *FilterOp) Init(in *expr.Interpreter) error {
	return o.compile(in, o.Spec.Condition, elementParams)
}

func (o *FilterOp) Apply(ctx *Context) ([]any, error) {
	b := vectorBindings(ctx.Table, o.program.Params()[0], ctx.Values)
	mask, err := o.interpreter.EvaluateVectors(o.program, b, len(ctx.Values))
	if err != nil {
		return nil, err
	}
	out := make([]any, len(ctx.Values))
	for i, keep := range mask {
		if functions.Truthy(keep) {
			out[i] = ctx.Values[i]
		} else {
			out[i] = o.Spec.FillValue
		}
	}
	return out, nil
}
