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
	"sync"

	"github.com/rulego/datatidy/functions"
	"github.com/rulego/datatidy/table"
)

// Program is a parsed and validated expression ready for evaluation
type Program struct {
	source string
	root   *ExprNode
	body   *ExprNode
	params []string
}

// Source returns the expression text
func (p *Program) Source() string { return p.source }

// Root returns the parsed tree, including a lambda node if present
func (p *Program) Root() *ExprNode { return p.root }

// Params returns the parameter names of an operation function
func (p *Program) Params() []string { return p.params }

// maxCachedPrograms bounds the compiled program cache. The cache is cleared
// when it fills up.
const maxCachedPrograms = 1024

// Interpreter parses, validates and evaluates restricted expressions.
// It is safe for concurrent use. Compiled programs are cached by source, up
// to maxCachedPrograms entries.
type Interpreter struct {
	registry  *functions.FunctionRegistry
	validator *validator

	mu    sync.RWMutex
	cache map[string]*Program
}

// NewInterpreter creates an interpreter over the given function registry.
// A nil registry uses the builtin functions.
func NewInterpreter(registry *functions.FunctionRegistry) *Interpreter {
	if registry == nil {
		registry = functions.NewBuiltinRegistry()
	}
	return &Interpreter{
		registry:  registry,
		validator: &validator{registry: registry},
		cache:     make(map[string]*Program),
	}
}

// Registry returns the function registry used for calls
func (in *Interpreter) Registry() *functions.FunctionRegistry {
	return in.registry
}

// ParseAndValidate parses an expression and checks it against the whitelist.
// Lambdas are rejected.
func (in *Interpreter) ParseAndValidate(src string) (*Program, error) {
	return in.compile(src, false, nil)
}

// ParseFunction parses an operation function. The source is either a
// lambda or a bare body whose free parameters are defaultParams.
func (in *Interpreter) ParseFunction(src string, defaultParams ...string) (*Program, error) {
	return in.compile(src, true, defaultParams)
}

func (in *Interpreter) compile(src string, allowLambda bool, defaultParams []string) (*Program, error) {
	key := src
	if allowLambda {
		key = "fn:" + src
		for _, p := range defaultParams {
			key += "," + p
		}
	}
	in.mu.RLock()
	p, ok := in.cache[key]
	in.mu.RUnlock()
	if ok {
		return p, nil
	}

	root, err := Parse(src)
	if err != nil {
		return nil, err
	}
	if err := in.validator.validate(root, allowLambda); err != nil {
		return nil, err
	}
	p = &Program{source: src, root: root, body: root, params: defaultParams}
	if root.Type == NodeLambda {
		p.body = root.Body
		p.params = root.Params
	}

	in.mu.Lock()
	if len(in.cache) >= maxCachedPrograms {
		clear(in.cache)
	}
	in.cache[key] = p
	in.mu.Unlock()
	return p, nil
}

// Evaluate evaluates a program against bindings. Vector bindings produce a
// Vector result.
func (in *Interpreter) Evaluate(p *Program, b Bindings) (any, error) {
	e := &evaluator{registry: in.registry, bindings: b}
	return e.eval(p.body)
}

// Apply evaluates an operation function with its parameters bound
// positionally to args on top of base.
func (in *Interpreter) Apply(p *Program, base Bindings, args ...any) (any, error) {
	if len(args) != len(p.params) {
		return nil, evalErrorf("function takes %d argument(s), %d given", len(p.params), len(args))
	}
	b := make(Bindings, len(base)+len(args))
	for k, v := range base {
		b[k] = v
	}
	for i, name := range p.params {
		b[name] = args[i]
	}
	return in.Evaluate(p, b)
}

// EvaluateVectors evaluates a program over n rows and returns one value per
// row. Vectorized evaluation is tried first; if it fails for a reason other
// than safety, a missing name or a scalar domain error, evaluation is
// retried row by row and the failing rows are reported.
func (in *Interpreter) EvaluateVectors(p *Program, b Bindings, n int) ([]any, error) {
	v, err := in.Evaluate(p, b)
	if err == nil {
		return spread(v, n)
	}
	if !retryable(err) {
		return nil, err
	}
	return in.evaluateRows(p, b, n)
}

func (in *Interpreter) evaluateRows(p *Program, b Bindings, n int) ([]any, error) {
	out := make([]any, n)
	var failed []int
	var first error
	row := make(Bindings, len(b))
	for i := 0; i < n; i++ {
		for k, v := range b {
			if vec, ok := v.(Vector); ok {
				row[k] = vec[i]
			} else {
				row[k] = v
			}
		}
		v, err := in.Evaluate(p, row)
		if err != nil {
			if errors.Is(err, functions.ErrDomain) {
				continue
			}
			if !retryable(err) {
				return nil, err
			}
			if first == nil {
				first = err
			}
			failed = append(failed, i)
			continue
		}
		if vec, ok := v.(Vector); ok {
			if len(vec) != 1 {
				return nil, evalErrorf("row %d produced %d values", i, len(vec))
			}
			v = vec[0]
		}
		out[i] = v
	}
	if len(failed) > 0 {
		return nil, &EvalError{Message: "evaluation failed", Err: first, Indices: failed}
	}
	return out, nil
}

// EvaluateTable evaluates a program with every column of t bound as a
// Vector. Entries in extra take precedence over columns.
func (in *Interpreter) EvaluateTable(p *Program, t *table.Table, extra Bindings) ([]any, error) {
	b := BindTable(t)
	for k, v := range extra {
		b[k] = v
	}
	return in.EvaluateVectors(p, b, t.Len())
}

// BindTable binds every column of t as a Vector
func BindTable(t *table.Table) Bindings {
	b := make(Bindings, len(t.Columns()))
	for _, name := range t.Columns() {
		col, _ := t.Column(name)
		b[name] = Vector(col)
	}
	return b
}

func spread(v any, n int) ([]any, error) {
	if vec, ok := v.(Vector); ok {
		if len(vec) != n {
			return nil, evalErrorf("result has %d values, expected %d", len(vec), n)
		}
		return []any(vec), nil
	}
	out := make([]any, n)
	for i := range out {
		out[i] = v
	}
	return out, nil
}

// retryable reports whether a vectorized failure may succeed row by row
func retryable(err error) bool {
	var unsafe *UnsafeConstructError
	var unknown *UnknownBindingError
	var syntax *SyntaxError
	if errors.As(err, &unsafe) || errors.As(err, &unknown) || errors.As(err, &syntax) {
		return false
	}
	return !errors.Is(err, functions.ErrDomain)
}

// IsSafetyError reports whether err is a rejected construct or bad syntax
func IsSafetyError(err error) bool {
	var unsafe *UnsafeConstructError
	var syntax *SyntaxError
	return errors.As(err, &unsafe) || errors.As(err, &syntax)
}
