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
	"math"
	"strings"
	"time"

	"github.com/rulego/datatidy/functions"
	"github.com/rulego/datatidy/utils/cast"
)

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "None"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "str"
	case bool:
		return "bool"
	case []any:
		return "list"
	case time.Time:
		return "datetime"
	}
	return fmt.Sprintf("%T", v)
}

func typeErr(op string, a, b any) error {
	return evalErrorf("unsupported operand type(s) for %s: '%s' and '%s'", op, typeName(a), typeName(b))
}

func zeroDivision() error {
	return &EvalError{Message: "division by zero", Err: functions.ErrDomain}
}

// numeric returns v as int64 or float64, treating bools as integers
func numeric(v any) (any, bool) {
	switch x := v.(type) {
	case int64, float64:
		return x, true
	case bool:
		if x {
			return int64(1), true
		}
		return int64(0), true
	}
	return nil, false
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case float64:
		return x
	}
	return math.NaN()
}

// MaxRepeatLength caps the length of strings and lists built by repetition
// or padding.
const MaxRepeatLength = 1 << 24

// repeatLength returns unit*n, or 0 when n is not positive. Results above
// MaxRepeatLength are errors.
func repeatLength(unit int, n int64) (int64, error) {
	if n <= 0 || unit == 0 {
		return 0, nil
	}
	if n > MaxRepeatLength/int64(unit) {
		return 0, evalErrorf("repeating a sequence of length %d %d times exceeds the limit of %d", unit, n, MaxRepeatLength)
	}
	return int64(unit) * n, nil
}

// binaryOp applies an arithmetic or bitwise operator to two scalars.
// A null operand yields null.
func binaryOp(op string, a, b any) (any, error) {
	a, b = cast.Normalize(a), cast.Normalize(b)
	if cast.IsNull(a) || cast.IsNull(b) {
		return nil, nil
	}
	switch op {
	case "&", "|", "^":
		return bitwiseOp(op, a, b)
	}
	switch x := a.(type) {
	case string:
		switch op {
		case "+":
			if y, ok := b.(string); ok {
				return x + y, nil
			}
		case "*":
			if n, ok := b.(int64); ok {
				if _, err := repeatLength(len(x), n); err != nil {
					return nil, err
				}
				return strings.Repeat(x, int(max(n, 0))), nil
			}
		}
		return nil, typeErr(op, a, b)
	case []any:
		switch op {
		case "+":
			if y, ok := b.([]any); ok {
				out := make([]any, 0, len(x)+len(y))
				return append(append(out, x...), y...), nil
			}
		case "*":
			if n, ok := b.(int64); ok {
				size, err := repeatLength(len(x), n)
				if err != nil {
					return nil, err
				}
				out := make([]any, 0, size)
				for i := int64(0); i < n && len(x) > 0; i++ {
					out = append(out, x...)
				}
				return out, nil
			}
		}
		return nil, typeErr(op, a, b)
	}
	if op == "*" {
		if n, ok := a.(int64); ok {
			switch b.(type) {
			case string, []any:
				return binaryOp(op, b, n)
			}
		}
	}
	na, okA := numeric(a)
	nb, okB := numeric(b)
	if !okA || !okB {
		return nil, typeErr(op, a, b)
	}
	ia, aInt := na.(int64)
	ib, bInt := nb.(int64)
	if aInt && bInt {
		return intOp(op, ia, ib)
	}
	return floatOp(op, toFloat(na), toFloat(nb))
}

func intOp(op string, a, b int64) (any, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return nil, zeroDivision()
		}
		return float64(a) / float64(b), nil
	case "//":
		if b == 0 {
			return nil, zeroDivision()
		}
		q := a / b
		if (a%b != 0) && ((a < 0) != (b < 0)) {
			q--
		}
		return q, nil
	case "%":
		if b == 0 {
			return nil, zeroDivision()
		}
		r := a % b
		if r != 0 && ((r < 0) != (b < 0)) {
			r += b
		}
		return r, nil
	case "**":
		if b < 0 {
			if a == 0 {
				return nil, zeroDivision()
			}
			return math.Pow(float64(a), float64(b)), nil
		}
		result := int64(1)
		base := a
		for e := b; e > 0; e >>= 1 {
			if e&1 == 1 {
				result *= base
			}
			base *= base
		}
		return result, nil
	}
	return nil, evalErrorf("unsupported operator %s", op)
}

func floatOp(op string, a, b float64) (any, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return nil, zeroDivision()
		}
		return a / b, nil
	case "//":
		if b == 0 {
			return nil, zeroDivision()
		}
		return math.Floor(a / b), nil
	case "%":
		if b == 0 {
			return nil, zeroDivision()
		}
		r := math.Mod(a, b)
		if r != 0 && ((r < 0) != (b < 0)) {
			r += b
		}
		return r, nil
	case "**":
		if a == 0 && b < 0 {
			return nil, zeroDivision()
		}
		r := math.Pow(a, b)
		if math.IsNaN(r) {
			return nil, &EvalError{Message: fmt.Sprintf("%v ** %v is not a real number", a, b), Err: functions.ErrDomain}
		}
		return r, nil
	}
	return nil, evalErrorf("unsupported operator %s", op)
}

func bitwiseOp(op string, a, b any) (any, error) {
	if x, ok := a.(bool); ok {
		if y, ok := b.(bool); ok {
			switch op {
			case "&":
				return x && y, nil
			case "|":
				return x || y, nil
			default:
				return x != y, nil
			}
		}
	}
	na, okA := numeric(a)
	nb, okB := numeric(b)
	ia, aInt := na.(int64)
	ib, bInt := nb.(int64)
	if !okA || !okB || !aInt || !bInt {
		return nil, typeErr(op, a, b)
	}
	switch op {
	case "&":
		return ia & ib, nil
	case "|":
		return ia | ib, nil
	default:
		return ia ^ ib, nil
	}
}

// unaryOp applies a unary operator to a scalar
func unaryOp(op string, a any) (any, error) {
	a = cast.Normalize(a)
	if op == "not" {
		return !functions.Truthy(a), nil
	}
	if cast.IsNull(a) {
		return nil, nil
	}
	switch x := a.(type) {
	case bool:
		switch op {
		case "~":
			return !x, nil
		case "-":
			if x {
				return int64(-1), nil
			}
			return int64(0), nil
		default:
			if x {
				return int64(1), nil
			}
			return int64(0), nil
		}
	case int64:
		switch op {
		case "-":
			return -x, nil
		case "~":
			return ^x, nil
		default:
			return x, nil
		}
	case float64:
		switch op {
		case "-":
			return -x, nil
		case "+":
			return x, nil
		}
	}
	return nil, evalErrorf("bad operand type for unary %s: '%s'", op, typeName(a))
}

// valuesEqual compares two scalars for equality; nulls are never equal
func valuesEqual(a, b any) bool {
	a, b = cast.Normalize(a), cast.Normalize(b)
	if cast.IsNull(a) || cast.IsNull(b) {
		return false
	}
	if na, ok := numeric(a); ok {
		if nb, ok := numeric(b); ok {
			return toFloat(na) == toFloat(nb)
		}
		return false
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !valuesEqual(x[i], y[i]) && !(x[i] == nil && y[i] == nil) {
				return false
			}
		}
		return true
	}
	return false
}

// compareOp applies a comparison operator to two scalars
func compareOp(op string, a, b any) (any, error) {
	a, b = cast.Normalize(a), cast.Normalize(b)
	switch op {
	case "==":
		return valuesEqual(a, b), nil
	case "!=":
		return !valuesEqual(a, b), nil
	case "is":
		return identical(a, b), nil
	case "is not":
		return !identical(a, b), nil
	case "in":
		return containsOp(a, b)
	case "not in":
		r, err := containsOp(a, b)
		if err != nil {
			return nil, err
		}
		return !r.(bool), nil
	}
	if cast.IsNull(a) || cast.IsNull(b) {
		return false, nil
	}
	c, err := order(a, b)
	if err != nil {
		return nil, typeErr(op, a, b)
	}
	switch op {
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case ">":
		return c > 0, nil
	case ">=":
		return c >= 0, nil
	}
	return nil, evalErrorf("unsupported comparison %s", op)
}

func identical(a, b any) bool {
	an, bn := cast.IsNull(a), cast.IsNull(b)
	if an || bn {
		return an && bn
	}
	if x, ok := a.(bool); ok {
		y, ok := b.(bool)
		return ok && x == y
	}
	if _, ok := b.(bool); ok {
		return false
	}
	return valuesEqual(a, b)
}

func order(a, b any) (int, error) {
	if na, ok := numeric(a); ok {
		if nb, ok := numeric(b); ok {
			fa, fb := toFloat(na), toFloat(nb)
			switch {
			case fa < fb:
				return -1, nil
			case fa > fb:
				return 1, nil
			}
			return 0, nil
		}
		return 0, fmt.Errorf("not comparable")
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), nil
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), nil
		}
	}
	return 0, fmt.Errorf("not comparable")
}

func containsOp(item, container any) (any, error) {
	switch c := container.(type) {
	case nil:
		return false, nil
	case string:
		if cast.IsNull(item) {
			return false, nil
		}
		s, ok := item.(string)
		if !ok {
			return nil, evalErrorf("'in <string>' requires string as left operand, not %s", typeName(item))
		}
		return strings.Contains(c, s), nil
	case []any:
		for _, e := range c {
			if valuesEqual(item, e) || (cast.IsNull(item) && cast.IsNull(e)) {
				return true, nil
			}
		}
		return false, nil
	}
	return nil, evalErrorf("argument of type '%s' is not iterable", typeName(container))
}
