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
	"fmt"
	"strings"

	"github.com/rulego/datatidy/types"
)

// SyntaxError reports source text that is not a well formed expression
type SyntaxError struct {
	Source   string
	Position int
	Message  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s (in %q)", e.Position, e.Message, e.Source)
}

func (e *SyntaxError) Category() types.ErrorCategory {
	return types.CategoryTransformation
}

// UnsafeConstructError reports a syntax node outside the whitelist
type UnsafeConstructError struct {
	Kind     string // node kind, e.g. Call, Attribute, Lambda, Import
	Detail   string // offending name or operator
	Position int
}

func (e *UnsafeConstructError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("unsafe construct %s '%s' at position %d", e.Kind, e.Detail, e.Position)
	}
	return fmt.Sprintf("unsafe construct %s at position %d", e.Kind, e.Position)
}

func (e *UnsafeConstructError) Category() types.ErrorCategory {
	return types.CategoryTransformation
}

// UnknownBindingError reports an identifier with no binding
type UnknownBindingError struct {
	Name string
}

func (e *UnknownBindingError) Error() string {
	return fmt.Sprintf("unknown name '%s'", e.Name)
}

func (e *UnknownBindingError) Category() types.ErrorCategory {
	return types.CategoryTransformation
}

// EvalError reports a failure while evaluating a valid expression
type EvalError struct {
	Message string
	Err     error
	Indices []int // failing rows, set by row-by-row evaluation
}

func (e *EvalError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Err != nil {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	if len(e.Indices) > 0 {
		fmt.Fprintf(&b, " (rows %s)", formatIndices(e.Indices, 10))
	}
	return b.String()
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// RowIndices implements types.Indexed
func (e *EvalError) RowIndices() []int {
	return e.Indices
}

func (e *EvalError) Category() types.ErrorCategory {
	return types.CategoryTransformation
}

func evalErrorf(format string, args ...any) *EvalError {
	return &EvalError{Message: fmt.Sprintf(format, args...)}
}

func formatIndices(indices []int, limit int) string {
	parts := make([]string, 0, limit+1)
	for i, idx := range indices {
		if i == limit {
			parts = append(parts, fmt.Sprintf("... %d more", len(indices)-limit))
			break
		}
		parts = append(parts, fmt.Sprint(idx))
	}
	return strings.Join(parts, ", ")
}
