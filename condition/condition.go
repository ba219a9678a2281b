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

package condition

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rulego/datatidy/table"
	"github.com/rulego/datatidy/types"
	"github.com/rulego/datatidy/utils/cast"
)

// Condition decides whether a row passes
type Condition interface {
	Evaluate(env map[string]any) bool
}

// ExprCondition is a boolean expression compiled with expr-lang
type ExprCondition struct {
	source  string
	program *vm.Program
}

// constants visible to every condition in addition to the row's columns
var constants = map[string]any{
	"True":  true,
	"False": false,
	"None":  nil,
}

func NewExprCondition(expression string) (*ExprCondition, error) {
	options := []expr.Option{
		expr.Function("like_match", func(params ...any) (any, error) {
			if len(params) != 2 {
				return false, fmt.Errorf("like_match function requires 2 parameters")
			}
			text, ok1 := params[0].(string)
			pattern, ok2 := params[1].(string)
			if !ok1 || !ok2 {
				return false, nil
			}
			return matchesLikePattern(text, pattern), nil
		}),
		expr.Function("is_null", func(params ...any) (any, error) {
			if len(params) != 1 {
				return false, fmt.Errorf("is_null function requires 1 parameter")
			}
			return cast.IsNull(params[0]), nil
		}),
		expr.Function("is_not_null", func(params ...any) (any, error) {
			if len(params) != 1 {
				return false, fmt.Errorf("is_not_null function requires 1 parameter")
			}
			return !cast.IsNull(params[0]), nil
		}),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	}

	program, err := expr.Compile(expression, options...)
	if err != nil {
		return nil, err
	}
	return &ExprCondition{source: expression, program: program}, nil
}

// Evaluate runs the condition against env. A runtime error counts as false.
func (ec *ExprCondition) Evaluate(env map[string]any) bool {
	scope := make(map[string]any, len(env)+len(constants))
	for k, v := range constants {
		scope[k] = v
	}
	for k, v := range env {
		if cast.IsNull(v) {
			v = nil
		}
		scope[k] = v
	}
	result, err := expr.Run(ec.program, scope)
	if err != nil {
		return false
	}
	ok, _ := result.(bool)
	return ok
}

func (ec *ExprCondition) String() string {
	return ec.source
}

// Mask evaluates c against every row of t
func Mask(c Condition, t *table.Table) []bool {
	mask := make([]bool, t.Len())
	for i := range mask {
		mask[i] = c.Evaluate(t.Row(i))
	}
	return mask
}

// Action tells a RowFilter what to do with matching rows
type Action string

const (
	ActionKeep   Action = "keep"
	ActionRemove Action = "remove"
)

// RowFilter keeps or removes the rows matching its condition
type RowFilter struct {
	Condition
	Action Action
}

func NewRowFilter(spec types.FilterSpec) (*RowFilter, error) {
	action := Action(strings.ToLower(strings.TrimSpace(spec.Action)))
	switch action {
	case "":
		action = ActionKeep
	case ActionKeep, ActionRemove:
	default:
		return nil, fmt.Errorf("unknown filter action '%s'", spec.Action)
	}
	cond, err := NewExprCondition(spec.Condition)
	if err != nil {
		return nil, fmt.Errorf("filter '%s': %w", spec.Condition, err)
	}
	return &RowFilter{Condition: cond, Action: action}, nil
}

// Apply returns the rows of t that survive the filter
func (f *RowFilter) Apply(t *table.Table) (*table.Table, error) {
	mask := Mask(f.Condition, t)
	if f.Action == ActionRemove {
		for i := range mask {
			mask[i] = !mask[i]
		}
	}
	return t.Filter(mask)
}

// matchesLikePattern implements SQL LIKE matching:
// % matches any run of characters and _ matches exactly one.
func matchesLikePattern(text, pattern string) bool {
	return likeMatch([]rune(text), []rune(pattern), 0, 0)
}

func likeMatch(text, pattern []rune, ti, pi int) bool {
	if pi >= len(pattern) {
		return ti >= len(text)
	}
	if ti >= len(text) {
		for i := pi; i < len(pattern); i++ {
			if pattern[i] != '%' {
				return false
			}
		}
		return true
	}
	switch pattern[pi] {
	case '%':
		for i := ti; i <= len(text); i++ {
			if likeMatch(text, pattern, i, pi+1) {
				return true
			}
		}
		return false
	case '_':
		return likeMatch(text, pattern, ti+1, pi+1)
	}
	if text[ti] != pattern[pi] {
		return false
	}
	return likeMatch(text, pattern, ti+1, pi+1)
}
