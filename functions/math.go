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
	"fmt"
	"math"

	"github.com/rulego/datatidy/utils/cast"
)

func floatArg(name string, v any) (float64, error) {
	if b, ok := v.(bool); ok {
		if b {
			return 1, nil
		}
		return 0, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("%s(): %w", name, err)
	}
	return f, nil
}

// SqrtFunction calculates square root
type SqrtFunction struct {
	*BaseFunction
}

func NewSqrtFunction() *SqrtFunction {
	return &SqrtFunction{BaseFunction: NewBaseFunction("sqrt", TypeMath, "Calculate square root", 1, 1)}
}

func (f *SqrtFunction) Execute(ctx *FunctionContext, args []any) (any, error) {
	val, err := floatArg("sqrt", args[0])
	if err != nil {
		return nil, err
	}
	if val < 0 {
		return nil, fmt.Errorf("sqrt of negative number: %w", ErrDomain)
	}
	return math.Sqrt(val), nil
}

// roundingFunction implements floor and ceil, both returning integers
type roundingFunction struct {
	*BaseFunction
	op func(float64) float64
}

func NewFloorFunction() Function {
	return &roundingFunction{BaseFunction: NewBaseFunction("floor", TypeMath, "Largest integer not greater than x", 1, 1), op: math.Floor}
}

func NewCeilFunction() Function {
	return &roundingFunction{BaseFunction: NewBaseFunction("ceil", TypeMath, "Smallest integer not less than x", 1, 1), op: math.Ceil}
}

func (f *roundingFunction) Execute(ctx *FunctionContext, args []any) (any, error) {
	if i, ok := cast.Normalize(args[0]).(int64); ok {
		return i, nil
	}
	val, err := floatArg(f.name, args[0])
	if err != nil {
		return nil, err
	}
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return nil, fmt.Errorf("%s of %v: %w", f.name, val, ErrDomain)
	}
	return int64(f.op(val)), nil
}

// ExpFunction calculates e**x
type ExpFunction struct {
	*BaseFunction
}

func NewExpFunction() *ExpFunction {
	return &ExpFunction{BaseFunction: NewBaseFunction("exp", TypeMath, "Calculate e raised to x", 1, 1)}
}

func (f *ExpFunction) Execute(ctx *FunctionContext, args []any) (any, error) {
	val, err := floatArg("exp", args[0])
	if err != nil {
		return nil, err
	}
	return math.Exp(val), nil
}

// LogFunction calculates the natural logarithm, or the logarithm in a given base
type LogFunction struct {
	*BaseFunction
}

func NewLogFunction() *LogFunction {
	return &LogFunction{BaseFunction: NewBaseFunction("log", TypeMath, "Natural logarithm or logarithm in base b", 1, 2)}
}

func (f *LogFunction) Execute(ctx *FunctionContext, args []any) (any, error) {
	val, err := floatArg("log", args[0])
	if err != nil {
		return nil, err
	}
	if val <= 0 {
		return nil, fmt.Errorf("log of non-positive number: %w", ErrDomain)
	}
	if len(args) == 1 {
		return math.Log(val), nil
	}
	base, err := floatArg("log", args[1])
	if err != nil {
		return nil, err
	}
	if base <= 0 || base == 1 {
		return nil, fmt.Errorf("invalid logarithm base %v: %w", base, ErrDomain)
	}
	return math.Log(val) / math.Log(base), nil
}

// Log10Function calculates the base 10 logarithm
type Log10Function struct {
	*BaseFunction
}

func NewLog10Function() *Log10Function {
	return &Log10Function{BaseFunction: NewBaseFunction("log10", TypeMath, "Base 10 logarithm", 1, 1)}
}

func (f *Log10Function) Execute(ctx *FunctionContext, args []any) (any, error) {
	val, err := floatArg("log10", args[0])
	if err != nil {
		return nil, err
	}
	if val <= 0 {
		return nil, fmt.Errorf("log10 of non-positive number: %w", ErrDomain)
	}
	return math.Log10(val), nil
}

// PowFunction calculates x**y as a float
type PowFunction struct {
	*BaseFunction
}

func NewPowFunction() *PowFunction {
	return &PowFunction{BaseFunction: NewBaseFunction("pow", TypeMath, "Calculate x raised to y", 2, 2)}
}

func (f *PowFunction) Execute(ctx *FunctionContext, args []any) (any, error) {
	x, err := floatArg("pow", args[0])
	if err != nil {
		return nil, err
	}
	y, err := floatArg("pow", args[1])
	if err != nil {
		return nil, err
	}
	r := math.Pow(x, y)
	if math.IsNaN(r) && !math.IsNaN(x) && !math.IsNaN(y) {
		return nil, fmt.Errorf("pow(%v, %v): %w", x, y, ErrDomain)
	}
	return r, nil
}
