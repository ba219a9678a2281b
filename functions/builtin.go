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
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rulego/datatidy/utils/cast"
)

func builtins() []Function {
	return []Function{
		NewAbsFunction(),
		NewMaxFunction(),
		NewMinFunction(),
		NewRoundFunction(),
		NewLenFunction(),
		NewStrFunction(),
		NewIntFunction(),
		NewFloatFunction(),
		NewBoolFunction(),
		NewSumFunction(),
		NewAnyFunction(),
		NewAllFunction(),
		NewSortedFunction(),
		NewSqrtFunction(),
		NewFloorFunction(),
		NewCeilFunction(),
		NewExpFunction(),
		NewLogFunction(),
		NewLog10Function(),
		NewPowFunction(),
		NewIsNullFunction(),
		NewNotNullFunction(),
	}
}

// Truthy reports the truth value of v: null, zero, empty string and empty list are false.
func Truthy(v any) bool {
	switch x := cast.Normalize(v).(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	}
	return true
}

func sequenceArg(name string, v any) ([]any, error) {
	switch x := v.(type) {
	case []any:
		return x, nil
	case string:
		out := make([]any, 0, len(x))
		for _, r := range x {
			out = append(out, string(r))
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s() argument must be a sequence, got %T", name, v)
}

func nonNull(values []any) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		if !cast.IsNull(v) {
			out = append(out, v)
		}
	}
	return out
}

// AbsFunction calculates absolute value
type AbsFunction struct {
	*BaseFunction
}

func NewAbsFunction() *AbsFunction {
	return &AbsFunction{BaseFunction: NewBaseFunction("abs", TypeMath, "Calculate absolute value", 1, 1)}
}

func (f *AbsFunction) Execute(ctx *FunctionContext, args []any) (any, error) {
	switch x := cast.Normalize(args[0]).(type) {
	case int64:
		if x < 0 {
			return -x, nil
		}
		return x, nil
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	}
	val, err := cast.ToFloat64E(args[0])
	if err != nil {
		return nil, err
	}
	return math.Abs(val), nil
}

// extremeFunction implements max and min
type extremeFunction struct {
	*BaseFunction
	sign int
}

func NewMaxFunction() Function {
	return &extremeFunction{BaseFunction: NewBaseFunction("max", TypeAggregation, "Largest value of a sequence or of the arguments", 1, -1), sign: 1}
}

func NewMinFunction() Function {
	return &extremeFunction{BaseFunction: NewBaseFunction("min", TypeAggregation, "Smallest value of a sequence or of the arguments", 1, -1), sign: -1}
}

func (f *extremeFunction) AcceptsNull() bool { return true }

func (f *extremeFunction) Execute(ctx *FunctionContext, args []any) (any, error) {
	values := args
	if len(args) == 1 {
		if args[0] == nil {
			return nil, nil
		}
		seq, err := sequenceArg(f.name, args[0])
		if err != nil {
			return nil, err
		}
		values = seq
	}
	values = nonNull(values)
	if len(values) == 0 {
		if len(args) == 1 {
			return nil, fmt.Errorf("%s() arg is an empty sequence", f.name)
		}
		return nil, nil
	}
	best := values[0]
	for _, v := range values[1:] {
		if cast.Compare(v, best)*f.sign > 0 {
			best = v
		}
	}
	return cast.Normalize(best), nil
}

// RoundFunction rounds half to even, returning an int when no digits are given
type RoundFunction struct {
	*BaseFunction
}

func NewRoundFunction() *RoundFunction {
	return &RoundFunction{BaseFunction: NewBaseFunction("round", TypeMath, "Round to the given number of digits", 1, 2)}
}

func (f *RoundFunction) Execute(ctx *FunctionContext, args []any) (any, error) {
	if i, ok := cast.Normalize(args[0]).(int64); ok && len(args) == 1 {
		return i, nil
	}
	val, err := cast.ToFloat64E(args[0])
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("cannot round %v to an integer: %w", val, ErrDomain)
		}
		return int64(math.RoundToEven(val)), nil
	}
	digits, err := cast.ToInt64E(args[1])
	if err != nil {
		return nil, err
	}
	scale := math.Pow(10, float64(digits))
	return math.RoundToEven(val*scale) / scale, nil
}

// LenFunction returns the length of a string or list
type LenFunction struct {
	*BaseFunction
}

func NewLenFunction() *LenFunction {
	return &LenFunction{BaseFunction: NewBaseFunction("len", TypeString, "Length of a string or list", 1, 1)}
}

func (f *LenFunction) Execute(ctx *FunctionContext, args []any) (any, error) {
	switch x := args[0].(type) {
	case string:
		return int64(utf8.RuneCountInString(x)), nil
	case []any:
		return int64(len(x)), nil
	}
	return nil, fmt.Errorf("object of type %T has no len()", args[0])
}

// StrFunction converts to string
type StrFunction struct {
	*BaseFunction
}

func NewStrFunction() *StrFunction {
	return &StrFunction{BaseFunction: NewBaseFunction("str", TypeConversion, "Convert to string", 1, 1)}
}

func (f *StrFunction) Execute(ctx *FunctionContext, args []any) (any, error) {
	return cast.ToStringE(args[0])
}

// IntFunction converts to int, truncating floats toward zero
type IntFunction struct {
	*BaseFunction
}

func NewIntFunction() *IntFunction {
	return &IntFunction{BaseFunction: NewBaseFunction("int", TypeConversion, "Convert to integer", 1, 1)}
}

func (f *IntFunction) Execute(ctx *FunctionContext, args []any) (any, error) {
	switch x := cast.Normalize(args[0]).(type) {
	case int64:
		return x, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("cannot convert %v to integer", x)
		}
		return int64(math.Trunc(x)), nil
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid literal for int(): %q", x)
		}
		return i, nil
	}
	return nil, fmt.Errorf("int() argument must be a string or a number, not %T", args[0])
}

// FloatFunction converts to float
type FloatFunction struct {
	*BaseFunction
}

func NewFloatFunction() *FloatFunction {
	return &FloatFunction{BaseFunction: NewBaseFunction("float", TypeConversion, "Convert to float", 1, 1)}
}

func (f *FloatFunction) Execute(ctx *FunctionContext, args []any) (any, error) {
	if b, ok := args[0].(bool); ok {
		if b {
			return 1.0, nil
		}
		return 0.0, nil
	}
	return cast.ToFloat64E(args[0])
}

// BoolFunction returns the truth value of its argument
type BoolFunction struct {
	*BaseFunction
}

func NewBoolFunction() *BoolFunction {
	return &BoolFunction{BaseFunction: NewBaseFunction("bool", TypeConversion, "Truth value", 1, 1)}
}

func (f *BoolFunction) Execute(ctx *FunctionContext, args []any) (any, error) {
	return Truthy(args[0]), nil
}

// SumFunction adds the non-null values of a sequence
type SumFunction struct {
	*BaseFunction
}

func NewSumFunction() *SumFunction {
	return &SumFunction{BaseFunction: NewBaseFunction("sum", TypeAggregation, "Sum of a sequence", 1, 2)}
}

func (f *SumFunction) Execute(ctx *FunctionContext, args []any) (any, error) {
	if args[0] == nil {
		return nil, nil
	}
	seq, err := sequenceArg("sum", args[0])
	if err != nil {
		return nil, err
	}
	var start any = int64(0)
	if len(args) == 2 && args[1] != nil {
		start = cast.Normalize(args[1])
	}
	isInt := true
	var isum int64
	var fsum float64
	add := func(v any) error {
		switch x := cast.Normalize(v).(type) {
		case int64:
			isum += x
			fsum += float64(x)
		case bool:
			if x {
				isum++
				fsum++
			}
		case float64:
			isInt = false
			fsum += x
		default:
			return fmt.Errorf("unsupported operand type for sum(): %T", v)
		}
		return nil
	}
	if err := add(start); err != nil {
		return nil, err
	}
	for _, v := range nonNull(seq) {
		if err := add(v); err != nil {
			return nil, err
		}
	}
	if isInt {
		return isum, nil
	}
	return fsum, nil
}

func (f *SumFunction) AcceptsNull() bool { return true }

// truthFunction implements any and all
type truthFunction struct {
	*BaseFunction
	all bool
}

func NewAnyFunction() Function {
	return &truthFunction{BaseFunction: NewBaseFunction("any", TypeAggregation, "True if any element is true", 1, 1)}
}

func NewAllFunction() Function {
	return &truthFunction{BaseFunction: NewBaseFunction("all", TypeAggregation, "True if all elements are true", 1, 1), all: true}
}

func (f *truthFunction) Execute(ctx *FunctionContext, args []any) (any, error) {
	seq, err := sequenceArg(f.name, args[0])
	if err != nil {
		return nil, err
	}
	for _, v := range nonNull(seq) {
		if Truthy(v) != f.all {
			return !f.all, nil
		}
	}
	return f.all, nil
}

// SortedFunction returns a sorted copy of a sequence; nulls sort last
type SortedFunction struct {
	*BaseFunction
}

func NewSortedFunction() *SortedFunction {
	return &SortedFunction{BaseFunction: NewBaseFunction("sorted", TypeAggregation, "Sorted copy of a sequence", 1, 2)}
}

func (f *SortedFunction) Execute(ctx *FunctionContext, args []any) (any, error) {
	seq, err := sequenceArg("sorted", args[0])
	if err != nil {
		return nil, err
	}
	reverse := len(args) == 2 && Truthy(args[1])
	out := nonNull(seq)
	nulls := len(seq) - len(out)
	sort.SliceStable(out, func(i, j int) bool {
		c := cast.Compare(out[i], out[j])
		if reverse {
			return c > 0
		}
		return c < 0
	})
	for i := 0; i < nulls; i++ {
		out = append(out, nil)
	}
	return out, nil
}

// IsNullFunction reports whether a value is null
type IsNullFunction struct {
	*BaseFunction
	negate bool
}

func NewIsNullFunction() *IsNullFunction {
	return &IsNullFunction{BaseFunction: NewBaseFunction("isnull", TypeConversion, "True if the value is null", 1, 1)}
}

func NewNotNullFunction() *IsNullFunction {
	return &IsNullFunction{BaseFunction: NewBaseFunction("notnull", TypeConversion, "True if the value is not null", 1, 1), negate: true}
}

func (f *IsNullFunction) AcceptsNull() bool { return true }

func (f *IsNullFunction) Execute(ctx *FunctionContext, args []any) (any, error) {
	return cast.IsNull(args[0]) != f.negate, nil
}
