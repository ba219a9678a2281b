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

package transform

import (
	"errors"
	"fmt"

	"github.com/rulego/datatidy/expr"
	"github.com/rulego/datatidy/logger"
	"github.com/rulego/datatidy/operator"
	"github.com/rulego/datatidy/table"
	"github.com/rulego/datatidy/types"
)

// Processor computes output columns and post-processes result tables
type Processor struct {
	interpreter *expr.Interpreter
	log         logger.Logger
}

// NewProcessor creates a processor. A nil interpreter uses the builtin
// function table and a nil logger discards output.
func NewProcessor(in *expr.Interpreter, log logger.Logger) *Processor {
	if in == nil {
		in = expr.NewInterpreter(nil)
	}
	return &Processor{interpreter: in, log: logger.OrDiscard(log)}
}

// Interpreter returns the expression interpreter used for columns
func (p *Processor) Interpreter() *expr.Interpreter {
	return p.interpreter
}

// ProcessColumn computes spec against the working table t: values from the
// transformation, the operation chain or the source, then type coercion,
// default fill and validation.
func (p *Processor) ProcessColumn(spec types.ColumnSpec, t *table.Table) ([]any, error) {
	values, err := p.compute(spec, t)
	if err != nil {
		return nil, err
	}
	values, err = Coerce(spec.Name, values, spec.Type, spec.Format)
	if err != nil {
		return nil, err
	}
	values = FillDefault(values, spec.Default, spec.Type, spec.Format)
	if spec.Validation != nil {
		if err := Validate(spec.Name, values, spec.Validation); err != nil {
			return nil, err
		}
	}
	p.log.Debug("column '%s' computed (%d rows)", spec.Name, len(values))
	return values, nil
}

func (p *Processor) compute(spec types.ColumnSpec, t *table.Table) ([]any, error) {
	if spec.Transformation != "" {
		prog, err := p.interpreter.ParseAndValidate(spec.Transformation)
		if err != nil {
			return nil, transformationError(spec.Name, "transformation", err)
		}
		out, err := p.interpreter.EvaluateTable(prog, t, nil)
		if err != nil {
			return nil, transformationError(spec.Name, "transformation", err)
		}
		return out, nil
	}

	values, err := p.source(spec, t)
	if err != nil {
		return nil, err
	}
	if len(spec.Operations) == 0 {
		return values, nil
	}
	chain, err := operator.NewChain(spec.Name, spec.Operations, p.interpreter)
	if err != nil {
		return nil, err
	}
	return chain.Apply(values, t)
}

// source returns a copy of the source column. A source that is not a column
// is evaluated as an expression over the table.
func (p *Processor) source(spec types.ColumnSpec, t *table.Table) ([]any, error) {
	name := spec.SourceName()
	if col, ok := t.Column(name); ok {
		out := make([]any, len(col))
		copy(out, col)
		return out, nil
	}
	notFound := types.NewInputError(spec.Name, fmt.Sprintf("source column '%s' not found", name))
	prog, err := p.interpreter.ParseAndValidate(name)
	if err != nil || prog.Root().Type == expr.NodeName {
		return nil, notFound
	}
	out, err := p.interpreter.EvaluateTable(prog, t, nil)
	if err != nil {
		var unknown *expr.UnknownBindingError
		if errors.As(err, &unknown) {
			notFound.Err = err
			return nil, notFound
		}
		return nil, transformationError(spec.Name, "source", err)
	}
	return out, nil
}

func transformationError(column, stage string, err error) *types.Error {
	e := types.NewTransformationError(column, stage, err)
	e.Indices = types.IndicesOf(err)
	return e
}
