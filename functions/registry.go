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

package functions

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// FunctionType classifies functions
type FunctionType string

const (
	// TypeMath numeric functions
	TypeMath FunctionType = "math"
	// TypeConversion type conversion functions
	TypeConversion FunctionType = "conversion"
	// TypeString string functions
	TypeString FunctionType = "string"
	// TypeAggregation functions that reduce a sequence
	TypeAggregation FunctionType = "aggregation"
	// TypeCustom user supplied functions
	TypeCustom FunctionType = "custom"
)

// ErrDomain marks evaluation errors that become nulls under element-wise
// evaluation, such as division by zero or the square root of a negative number.
var ErrDomain = errors.New("math domain error")

// FunctionContext is passed to every call
type FunctionContext struct {
	// Row is the row index for element-wise calls, -1 otherwise
	Row int
}

// Function is a pure function callable from expressions
type Function interface {
	// GetName returns the lower-case call name
	GetName() string
	// GetType returns the function type
	GetType() FunctionType
	// GetDescription returns a one line description
	GetDescription() string
	// Validate checks the argument list before execution
	Validate(args []any) error
	// Execute runs the function
	Execute(ctx *FunctionContext, args []any) (any, error)
}

// NullAware is implemented by functions that want null arguments. Other
// functions return null without being called when any argument is null.
type NullAware interface {
	AcceptsNull() bool
}

// FunctionRegistry holds the callable functions
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry creates an empty registry
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: make(map[string]Function)}
}

// NewBuiltinRegistry creates a registry holding the built-in functions
func NewBuiltinRegistry() *FunctionRegistry {
	r := NewFunctionRegistry()
	for _, fn := range builtins() {
		if err := r.Register(fn); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a function. Names are case-insensitive and must be unique.
func (r *FunctionRegistry) Register(fn Function) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := strings.ToLower(fn.GetName())
	if name == "" || strings.HasPrefix(name, "__") {
		return fmt.Errorf("invalid function name %q", fn.GetName())
	}
	if _, exists := r.functions[name]; exists {
		return fmt.Errorf("function %s already registered", name)
	}
	r.functions[name] = fn
	return nil
}

// Get returns the named function
func (r *FunctionRegistry) Get(name string) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, exists := r.functions[strings.ToLower(name)]
	return fn, exists
}

// Has reports whether name is registered
func (r *FunctionRegistry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Names returns the registered names in sorted order
func (r *FunctionRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unregister removes a function
func (r *FunctionRegistry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	name = strings.ToLower(name)
	if _, exists := r.functions[name]; !exists {
		return false
	}
	delete(r.functions, name)
	return true
}

// Clone returns an independent copy of the registry
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := NewFunctionRegistry()
	for name, fn := range r.functions {
		out.functions[name] = fn
	}
	return out
}

// RegisterCustomFunction registers a function built from an executor
func (r *FunctionRegistry) RegisterCustomFunction(name string, fnType FunctionType, description string,
	minArgs, maxArgs int, executor func(ctx *FunctionContext, args []any) (any, error)) error {
	return r.Register(&CustomFunction{
		BaseFunction: NewBaseFunction(name, fnType, description, minArgs, maxArgs),
		executor:     executor,
	})
}

// Execute validates and runs the named function
func (r *FunctionRegistry) Execute(name string, ctx *FunctionContext, args []any) (any, error) {
	fn, exists := r.Get(name)
	if !exists {
		return nil, fmt.Errorf("function %s not found", name)
	}
	if err := fn.Validate(args); err != nil {
		return nil, err
	}
	return fn.Execute(ctx, args)
}
