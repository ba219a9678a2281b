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

	"github.com/rulego/datatidy/expr"
	"github.com/rulego/datatidy/utils/cast"
)

// ReduceOp folds the non-null elements from the left and broadcasts the
// result back to every row
type ReduceOp struct {
	BaseOp
}

func (o *ReduceOp) Init(in *expr.Interpreter) error {
	return o.compile(in, o.Spec.Function, reduceParams)
}

func (o *ReduceOp) Apply(ctx *Context) ([]any, error) {
	acc := cast.Normalize(o.Spec.InitialValue)
	started := o.Spec.InitialValue != nil
	for i, v := range ctx.Values {
		if cast.IsNull(v) {
			continue
		}
		if !started {
			acc, started = cast.Normalize(v), true
			continue
		}
		var base expr.Bindings
		if ctx.Table != nil && ctx.Table.Len() == len(ctx.Values) {
			base = rowBindings(ctx.Table, i)
		}
		r, err := o.interpreter.Apply(o.program, base, acc, v)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if vec, ok := r.(expr.Vector); ok {
			return nil, fmt.Errorf("row %d: reduce function returned %d values", i, len(vec))
		}
		acc = r
	}
	out := make([]any, len(ctx.Values))
	for i := range out {
		out[i] = acc
	}
	return out, nil
}
