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

package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory classifies an error for reporting
type ErrorCategory string

const (
	CategoryValidation     ErrorCategory = "validation_error"
	CategoryTransformation ErrorCategory = "transformation_error"
	CategoryDataType       ErrorCategory = "data_type_error"
	CategoryDependency     ErrorCategory = "dependency_error"
	CategoryConfiguration  ErrorCategory = "configuration_error"
	CategoryInput          ErrorCategory = "input_error"
	CategorySystem         ErrorCategory = "system_error"
)

// Categories lists all categories in reporting order
var Categories = []ErrorCategory{
	CategoryValidation,
	CategoryTransformation,
	CategoryDataType,
	CategoryDependency,
	CategoryConfiguration,
	CategoryInput,
	CategorySystem,
}

// Categorized is implemented by errors that know their own category.
type Categorized interface {
	Category() ErrorCategory
}

// Error is the categorized error produced by the engine.
type Error struct {
	Kind    ErrorCategory // error category
	Column  string        // column being processed, if any
	Stage   string        // operation stage or processing step, if any
	Message string        // human readable description
	Indices []int         // affected row indices, if known
	Err     error         // wrapped cause
}

// Category implements Categorized
func (e *Error) Category() ErrorCategory {
	return e.Kind
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Column != "" {
		fmt.Fprintf(&b, ": column '%s'", e.Column)
	}
	if e.Stage != "" {
		fmt.Fprintf(&b, ": %s", e.Stage)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Indices) > 0 {
		fmt.Fprintf(&b, " (%d rows affected)", len(e.Indices))
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a categorized error
func NewError(kind ErrorCategory, column, message string) *Error {
	return &Error{Kind: kind, Column: column, Message: message}
}

// WrapError wraps err under the given category. If err is already an *Error
// without a column, the column is filled in and the original category is kept.
func WrapError(kind ErrorCategory, column string, err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Column == "" {
			cp := *e
			cp.Column = column
			return &cp
		}
		return e
	}
	if c, ok := categoryFrom(err); ok {
		kind = c
	}
	return &Error{Kind: kind, Column: column, Err: err}
}

func NewValidationError(column, message string, indices []int) *Error {
	return &Error{Kind: CategoryValidation, Column: column, Message: message, Indices: indices}
}

func NewTransformationError(column, stage string, err error) *Error {
	return &Error{Kind: CategoryTransformation, Column: column, Stage: stage, Err: err}
}

func NewDataTypeError(column, message string, indices []int) *Error {
	return &Error{Kind: CategoryDataType, Column: column, Message: message, Indices: indices}
}

func NewDependencyError(message string, err error) *Error {
	return &Error{Kind: CategoryDependency, Message: message, Err: err}
}

func NewConfigurationError(column, message string) *Error {
	return &Error{Kind: CategoryConfiguration, Column: column, Message: message}
}

func NewInputError(column, message string) *Error {
	return &Error{Kind: CategoryInput, Column: column, Message: message}
}

func categoryFrom(err error) (ErrorCategory, bool) {
	var c Categorized
	if errors.As(err, &c) {
		return c.Category(), true
	}
	return "", false
}

// CategoryOf returns the category of err, defaulting to system_error.
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return ""
	}
	if c, ok := categoryFrom(err); ok {
		return c
	}
	return CategorySystem
}

// Indexed is implemented by errors that know which rows failed
type Indexed interface {
	RowIndices() []int
}

// IndicesOf returns the affected row indices carried by err, if any.
func IndicesOf(err error) []int {
	var e *Error
	if errors.As(err, &e) && len(e.Indices) > 0 {
		return e.Indices
	}
	var ix Indexed
	if errors.As(err, &ix) {
		return ix.RowIndices()
	}
	return nil
}
