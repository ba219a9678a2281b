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

import "fmt"

// BaseFunction carries the metadata shared by all functions
type BaseFunction struct {
	name        string
	fnType      FunctionType
	description string
	minArgs     int
	maxArgs     int // -1 means unlimited
}

// NewBaseFunction creates base function metadata
func NewBaseFunction(name string, fnType FunctionType, description string, minArgs, maxArgs int) *BaseFunction {
	return &BaseFunction{
		name:        name,
		fnType:      fnType,
		description: description,
		minArgs:     minArgs,
		maxArgs:     maxArgs,
	}
}

func (bf *BaseFunction) GetName() string {
	return bf.name
}

func (bf *BaseFunction) GetType() FunctionType {
	return bf.fnType
}

func (bf *BaseFunction) GetDescription() string {
	return bf.description
}

// Validate checks the argument count
func (bf *BaseFunction) Validate(args []any) error {
	return bf.ValidateArgCount(args)
}

// ValidateArgCount checks the number of arguments
func (bf *BaseFunction) ValidateArgCount(args []any) error {
	argCount := len(args)
	if argCount < bf.minArgs {
		return fmt.Errorf("function %s requires at least %d arguments, got %d", bf.name, bf.minArgs, argCount)
	}
	if bf.maxArgs != -1 && argCount > bf.maxArgs {
		return fmt.Errorf("function %s accepts at most %d arguments, got %d", bf.name, bf.maxArgs, argCount)
	}
	return nil
}

// CustomFunction adapts an executor func to the Function interface
type CustomFunction struct {
	*BaseFunction
	executor func(ctx *FunctionContext, args []any) (any, error)
}

func (f *CustomFunction) Execute(ctx *FunctionContext, args []any) (any, error) {
	return f.executor(ctx, args)
}
