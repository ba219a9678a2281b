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

// Package cast converts cell values between Go representations.
// It wraps github.com/spf13/cast with the null handling the engine needs.
package cast

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
	"github.com/spf13/cast"
)

// IsNull reports whether v is a table null: nil or a float NaN.
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	}
	return false
}

// Normalize maps Go numeric kinds onto int64 and float64 so that the
// evaluator only needs to handle two numeric representations.
func Normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return float64(x)
		}
		return int64(x)
	case float32:
		return float64(x)
	}
	return v
}

// IsNumeric reports whether v is an integer or float (bool excluded).
func IsNumeric(v any) bool {
	switch Normalize(v).(type) {
	case int64, float64:
		return true
	}
	return false
}

// ToFloat64E converts v to float64. Nulls are an error.
func ToFloat64E(v any) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("unable to cast null to float64")
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("unable to cast %q to float64", s)
		}
		return f, nil
	}
	return cast.ToFloat64E(v)
}

// ToInt64E converts v to int64. Floats must be integral; strings may be
// written as integers or integral decimals ("3", "3.0").
func ToInt64E(v any) (int64, error) {
	switch x := Normalize(v).(type) {
	case nil:
		return 0, fmt.Errorf("unable to cast null to int64")
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || x != math.Trunc(x) {
			return 0, fmt.Errorf("unable to cast %v to int64 without loss", x)
		}
		return int64(x), nil
	case string:
		s := strings.TrimSpace(x)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("unable to cast %q to int64", x)
		}
		return int64(f), nil
	}
	return cast.ToInt64E(v)
}

// ToBoolE converts v to bool using the spf13/cast vocabulary (true/false, 1/0, t/f).
func ToBoolE(v any) (bool, error) {
	if v == nil {
		return false, fmt.Errorf("unable to cast null to bool")
	}
	if s, ok := v.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "yes", "y":
			return true, nil
		case "no", "n":
			return false, nil
		}
		return cast.ToBoolE(strings.TrimSpace(s))
	}
	return cast.ToBoolE(v)
}

// ToStringE converts v to its display string.
func ToStringE(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", fmt.Errorf("unable to cast null to string")
	case time.Time:
		return x.Format(time.RFC3339), nil
	case bool:
		if x {
			return "True", nil
		}
		return "False", nil
	case float64:
		return FormatFloat(x), nil
	case float32:
		return FormatFloat(float64(x)), nil
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			if e == nil {
				parts[i] = "None"
				continue
			}
			parts[i] = ToString(e)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	}
	return cast.ToStringE(v)
}

// ToString converts v to string, returning "" for values that cannot be converted.
func ToString(v any) string {
	s, err := ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

// ToTimeE converts v to time.Time. When format is non-empty it is a strftime
// layout such as "%Y-%m-%d"; otherwise the common layouts known to spf13/cast are tried.
func ToTimeE(v any, format string) (time.Time, error) {
	if v == nil {
		return time.Time{}, fmt.Errorf("unable to cast null to time")
	}
	if t, ok := v.(time.Time); ok {
		return t, nil
	}
	if format != "" {
		s, err := cast.ToStringE(v)
		if err != nil {
			return time.Time{}, err
		}
		return strftime.Parse(format, strings.TrimSpace(s))
	}
	return cast.ToTimeE(v)
}

// FormatFloat renders a float the way it is displayed in expressions:
// integral values keep a trailing ".0" and special values are nan, inf and -inf.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// Compare orders two non-null values. Numbers and bools compare numerically,
// times chronologically, strings lexically, and mixed kinds by their string form.
func Compare(a, b any) int {
	a, b = Normalize(a), Normalize(b)
	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(ToString(a), ToString(b))
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
