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

	"github.com/rulego/datatidy/dependency"
	"github.com/rulego/datatidy/expr"
	"github.com/rulego/datatidy/table"
	"github.com/rulego/datatidy/types"
)

// Context carries the state one stage operates on
type Context struct {
	Column string
	// Values is the output of the previous stage
	Values []any
	// Source is the column the chain started from
	Source []any
	// Table is the working table, used for group keys and row bindings
	Table *table.Table
}

// Operator is one stage of a column operation chain. Init compiles the stage
// before any row is touched; Apply returns a vector of the same length as
// ctx.Values.
type Operator interface {
	Type() types.OperationType
	Init(in *expr.Interpreter) error
	Apply(ctx *Context) ([]any, error)
}

type BaseOp struct {
	Spec        types.OperationSpec
	interpreter *expr.Interpreter
	program     *expr.Program
}

func (o *BaseOp) Type() types.OperationType {
	return o.Spec.Type
}

// compile parses an operation function with the default parameter names and
// checks it declares the expected number of parameters
func (o *BaseOp) compile(in *expr.Interpreter, src string, params []string) error {
	p, err := in.ParseFunction(src, params...)
	if err != nil {
		return err
	}
	if len(p.Params()) != len(params) {
		return fmt.Errorf("%s function must take %d argument(s), got %d", o.Spec.Type, len(params), len(p.Params()))
	}
	o.interpreter = in
	o.program = p
	return nil
}

// rowBindings binds the scalar values of row i of t
func rowBindings(t *table.Table, i int) expr.Bindings {
	if t == nil {
		return expr.Bindings{}
	}
	b := make(expr.Bindings, len(t.Columns()))
	for _, name := range t.Columns() {
		col, _ := t.Column(name)
		b[name] = col[i]
	}
	return b
}

// vectorBindings binds every column of t as a vector plus the stage input
func vectorBindings(t *table.Table, param string, values []any) expr.Bindings {
	b := expr.Bindings{}
	if t != nil && t.Len() == len(values) {
		b = expr.BindTable(t)
	}
	b[param] = expr.Vector(values)
	return b
}

// New creates the operator for a stage
func New(spec types.OperationSpec) (Operator, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	base := BaseOp{Spec: spec}
	switch spec.Type {
	case types.OpMap:
		return &MapOp{BaseOp: base}, nil
	case types.OpFilter:
		return &FilterOp{BaseOp: base}, nil
	case types.OpReduce:
		return &ReduceOp{BaseOp: base}, nil
	case types.OpGroup:
		return &GroupOp{BaseOp: base}, nil
	case types.OpWindow:
		return &WindowOp{BaseOp: base}, nil
	}
	return nil, fmt.Errorf("unknown operation type '%s'", spec.Type)
}

// Chain applies an ordered list of stages to one column
type Chain struct {
	column    string
	operators []Operator
}

// NewChain builds and initializes every stage. A malformed stage fails with
// a configuration error before any value is processed.
func NewChain(column string, specs []types.OperationSpec, in *expr.Interpreter) (*Chain, error) {
	if in == nil {
		in = expr.NewInterpreter(nil)
	}
	c := &Chain{column: column}
	for i, spec := range specs {
		op, err := New(spec)
		if err == nil {
			err = op.Init(in)
		}
		if err != nil {
			return nil, &types.Error{Kind: types.CategoryConfiguration, Column: column, Stage: stageName(i, spec.Type), Err: err}
		}
		c.operators = append(c.operators, op)
	}
	return c, nil
}

// Len returns the number of stages
func (c *Chain) Len() int {
	return len(c.operators)
}

// Apply runs the stages in order. Each stage consumes the previous stage's
// output, except group which aggregates values, the chain's source column.
// The result always has the length of values.
func (c *Chain) Apply(values []any, t *table.Table) ([]any, error) {
	current := values
	for i, op := range c.operators {
		out, err := op.Apply(&Context{Column: c.column, Values: current, Source: values, Table: t})
		if err != nil {
			e := types.NewTransformationError(c.column, stageName(i, op.Type()), err)
			e.Indices = types.IndicesOf(err)
			return nil, e
		}
		if len(out) != len(current) {
			return nil, types.NewTransformationError(c.column, stageName(i, op.Type()),
				fmt.Errorf("stage produced %d values for %d rows", len(out), len(current)))
		}
		current = out
	}
	return current, nil
}

func stageName(i int, t types.OperationType) string {
	return fmt.Sprintf("operation %d (%s)", i, t)
}

var (
	elementParams = dependency.ElementParams
	reduceParams  = dependency.ReduceParams
)
