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

package expr

import (
	"errors"
	"fmt"
	"math"

	"github.com/rulego/datatidy/functions"
	"github.com/rulego/datatidy/utils/cast"
)

// Vector is a column bound for vectorized evaluation. Operations on a
// Vector apply element-wise; a plain []any is a single list value.
type Vector []any

// Bindings maps identifiers to scalar values or Vectors
type Bindings map[string]any

type evaluator struct {
	registry *functions.FunctionRegistry
	bindings Bindings
}

// broadcast calls fn once when no argument is a Vector, and once per element
// otherwise. Element-wise domain errors produce nulls.
func broadcast(args []any, fn func([]any) (any, error)) (any, error) {
	n := -1
	for _, a := range args {
		if v, ok := a.(Vector); ok {
			if n >= 0 && len(v) != n {
				return nil, evalErrorf("vector length mismatch: %d and %d", n, len(v))
			}
			n = len(v)
		}
	}
	if n < 0 {
		return fn(args)
	}
	out := make(Vector, n)
	for i := 0; i < n; i++ {
		row := make([]any, len(args))
		for j, a := range args {
			if v, ok := a.(Vector); ok {
				row[j] = v[i]
			} else {
				row[j] = a
			}
		}
		v, err := fn(row)
		if err != nil {
			if errors.Is(err, functions.ErrDomain) {
				continue
			}
			return nil, &EvalError{Message: fmt.Sprintf("element %d", i), Err: err}
		}
		out[i] = v
	}
	return out, nil
}

func (e *evaluator) eval(node *ExprNode) (any, error) {
	switch node.Type {
	case NodeConst:
		return node.Value, nil
	case NodeName:
		return e.lookup(node.Name)
	case NodeUnary:
		v, err := e.eval(node.Left)
		if err != nil {
			return nil, err
		}
		return broadcast([]any{v}, func(a []any) (any, error) {
			return unaryOp(node.Op, a[0])
		})
	case NodeBinary:
		l, err := e.eval(node.Left)
		if err != nil {
			return nil, err
		}
		r, err := e.eval(node.Right)
		if err != nil {
			return nil, err
		}
		return broadcast([]any{l, r}, func(a []any) (any, error) {
			return binaryOp(node.Op, a[0], a[1])
		})
	case NodeBoolOp:
		values, err := e.evalAll(node.Args)
		if err != nil {
			return nil, err
		}
		return broadcast(values, func(a []any) (any, error) {
			return boolOp(node.Op, a), nil
		})
	case NodeCompare:
		values, err := e.evalAll(node.Args)
		if err != nil {
			return nil, err
		}
		return broadcast(values, func(a []any) (any, error) {
			for i, op := range node.Ops {
				r, err := compareOp(op, a[i], a[i+1])
				if err != nil {
					return nil, err
				}
				if !r.(bool) {
					return false, nil
				}
			}
			return true, nil
		})
	case NodeIfExp:
		values, err := e.evalAll([]*ExprNode{node.Test, node.Body, node.Else})
		if err != nil {
			return nil, err
		}
		return broadcast(values, func(a []any) (any, error) {
			if functions.Truthy(a[0]) {
				return a[1], nil
			}
			return a[2], nil
		})
	case NodeList, NodeTuple:
		values, err := e.evalAll(node.Args)
		if err != nil {
			return nil, err
		}
		return broadcast(values, func(a []any) (any, error) {
			out := make([]any, len(a))
			for i, v := range a {
				out[i] = cast.Normalize(v)
			}
			return out, nil
		})
	case NodeAttribute:
		if accessors[node.Name] {
			return e.eval(node.Left)
		}
		if node.Left != nil && node.Left.Type == NodeName {
			return e.lookup(node.Left.Name + "." + node.Name)
		}
		return nil, &UnsafeConstructError{Kind: "Attribute", Detail: node.Name, Position: node.Pos}
	case NodeSubscript:
		return e.evalSubscript(node)
	case NodeCall:
		return e.evalCall(node)
	}
	return nil, &UnsafeConstructError{Kind: string(node.Type), Position: node.Pos}
}

func (e *evaluator) evalAll(nodes []*ExprNode) ([]any, error) {
	values := make([]any, len(nodes))
	for i, n := range nodes {
		v, err := e.eval(n)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func (e *evaluator) lookup(name string) (any, error) {
	if v, ok := e.bindings[name]; ok {
		if vec, isVec := v.(Vector); isVec {
			return vec, nil
		}
		return cast.Normalize(v), nil
	}
	switch name {
	case "nan":
		return math.NaN(), nil
	case "inf":
		return math.Inf(1), nil
	}
	return nil, &UnknownBindingError{Name: name}
}

// boolOp folds and/or with operand-returning semantics, so "x or 0" yields
// x when x is truthy and 0 otherwise.
func boolOp(op string, values []any) any {
	result := values[0]
	for _, v := range values[1:] {
		t := functions.Truthy(result)
		if (op == "and" && !t) || (op == "or" && t) {
			return result
		}
		result = v
	}
	return result
}

func (e *evaluator) evalSubscript(node *ExprNode) (any, error) {
	target, err := e.eval(node.Left)
	if err != nil {
		return nil, err
	}
	if node.Right.Type != NodeSlice {
		index, err := e.eval(node.Right)
		if err != nil {
			return nil, err
		}
		return broadcast([]any{target, index}, func(a []any) (any, error) {
			return subscript(a[0], a[1])
		})
	}
	args := []any{target, nil, nil, nil}
	for i, part := range node.Right.Args {
		if part == nil {
			continue
		}
		v, err := e.eval(part)
		if err != nil {
			return nil, err
		}
		args[i+1] = v
	}
	return broadcast(args, func(a []any) (any, error) {
		return subscript(a[0], sliceBounds{start: a[1], stop: a[2], step: a[3]})
	})
}

func (e *evaluator) evalCall(node *ExprNode) (any, error) {
	args, err := e.evalAll(node.Args)
	if err != nil {
		return nil, err
	}
	if node.Func.Type == NodeAttribute {
		method := node.Func.Name
		recv, err := e.eval(node.Func.Left)
		if err != nil {
			return nil, err
		}
		return broadcast(append([]any{recv}, args...), func(a []any) (any, error) {
			return callMethod(method, a[0], a[1:])
		})
	}

	name := node.Func.Name
	fn, ok := e.registry.Get(name)
	if !ok {
		return nil, &UnsafeConstructError{Kind: "Call", Detail: name, Position: node.Pos}
	}
	if err := fn.Validate(args); err != nil {
		return nil, &EvalError{Err: err}
	}
	call := func(a []any, row int) (any, error) {
		v, err := fn.Execute(&functions.FunctionContext{Row: row}, a)
		if err != nil {
			return nil, &EvalError{Message: name + "()", Err: err}
		}
		return cast.Normalize(v), nil
	}
	if fn.GetType() == functions.TypeAggregation && len(args) == 1 {
		if vec, ok := args[0].(Vector); ok {
			list := make([]any, len(vec))
			for i, v := range vec {
				list[i] = cast.Normalize(v)
			}
			return call([]any{list}, -1)
		}
	}
	nullAware := false
	if na, ok := fn.(functions.NullAware); ok {
		nullAware = na.AcceptsNull()
	}
	row := 0
	_, vectorized := firstVector(args)
	return broadcast(args, func(a []any) (any, error) {
		r := -1
		if vectorized {
			r = row
			row++
		}
		if !nullAware {
			for _, v := range a {
				if cast.IsNull(v) {
					return nil, nil
				}
			}
		}
		return call(a, r)
	})
}

func firstVector(args []any) (Vector, bool) {
	for _, a := range args {
		if v, ok := a.(Vector); ok {
			return v, true
		}
	}
	return nil, false
}
