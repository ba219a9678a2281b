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
	"strings"
	"unicode"

	"github.com/rulego/datatidy/functions"
	"github.com/rulego/datatidy/utils/cast"
)

func argCount(method string, args []any, min, max int) error {
	if len(args) < min || len(args) > max {
		if min == max {
			return evalErrorf("%s() takes %d arguments (%d given)", method, min, len(args))
		}
		return evalErrorf("%s() takes %d to %d arguments (%d given)", method, min, max, len(args))
	}
	return nil
}

func stringArg(method string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", evalErrorf("%s() argument must be str, not %s", method, typeName(v))
	}
	return s, nil
}

// callMethod applies a whitelisted method to a scalar receiver
func callMethod(method string, recv any, args []any) (any, error) {
	recv = cast.Normalize(recv)
	switch method {
	case "isna", "isnull":
		return cast.IsNull(recv), argCount(method, args, 0, 0)
	case "notna", "notnull":
		return !cast.IsNull(recv), argCount(method, args, 0, 0)
	case "fillna":
		if err := argCount(method, args, 1, 1); err != nil {
			return nil, err
		}
		if cast.IsNull(recv) {
			return cast.Normalize(args[0]), nil
		}
		return recv, nil
	}
	if cast.IsNull(recv) {
		return nil, nil
	}
	s, ok := recv.(string)
	if !ok {
		return nil, evalErrorf("'%s' object has no method '%s'", typeName(recv), method)
	}
	for _, a := range args {
		if cast.IsNull(a) {
			return nil, nil
		}
	}
	return stringMethod(method, s, args)
}

func stringMethod(method, s string, args []any) (any, error) {
	switch method {
	case "upper":
		return strings.ToUpper(s), argCount(method, args, 0, 0)
	case "lower":
		return strings.ToLower(s), argCount(method, args, 0, 0)
	case "title":
		return titleCase(s), argCount(method, args, 0, 0)
	case "capitalize":
		if err := argCount(method, args, 0, 0); err != nil {
			return nil, err
		}
		r := []rune(strings.ToLower(s))
		if len(r) > 0 {
			r[0] = unicode.ToUpper(r[0])
		}
		return string(r), nil
	case "strip", "lstrip", "rstrip":
		if err := argCount(method, args, 0, 1); err != nil {
			return nil, err
		}
		return stripString(method, s, args)
	case "replace":
		if err := argCount(method, args, 2, 3); err != nil {
			return nil, err
		}
		old, err := stringArg(method, args[0])
		if err != nil {
			return nil, err
		}
		repl, err := stringArg(method, args[1])
		if err != nil {
			return nil, err
		}
		n := -1
		if len(args) == 3 {
			c, err := cast.ToInt64E(args[2])
			if err != nil {
				return nil, evalErrorf("replace() count must be an integer")
			}
			n = int(c)
		}
		return strings.Replace(s, old, repl, n), nil
	case "split":
		return splitString(s, args)
	case "join":
		if err := argCount(method, args, 1, 1); err != nil {
			return nil, err
		}
		items, ok := args[0].([]any)
		if !ok {
			return nil, evalErrorf("join() argument must be a list")
		}
		parts := make([]string, len(items))
		for i, it := range items {
			p, err := stringArg(method, it)
			if err != nil {
				return nil, err
			}
			parts[i] = p
		}
		return strings.Join(parts, s), nil
	case "startswith", "endswith":
		if err := argCount(method, args, 1, 1); err != nil {
			return nil, err
		}
		candidates := []any{args[0]}
		if list, ok := args[0].([]any); ok {
			candidates = list
		}
		for _, c := range candidates {
			affix, err := stringArg(method, c)
			if err != nil {
				return nil, err
			}
			if method == "startswith" && strings.HasPrefix(s, affix) || method == "endswith" && strings.HasSuffix(s, affix) {
				return true, nil
			}
		}
		return false, nil
	case "find", "count":
		if err := argCount(method, args, 1, 1); err != nil {
			return nil, err
		}
		sub, err := stringArg(method, args[0])
		if err != nil {
			return nil, err
		}
		if method == "count" {
			if sub == "" {
				return int64(len([]rune(s)) + 1), nil
			}
			return int64(strings.Count(s, sub)), nil
		}
		idx := strings.Index(s, sub)
		if idx < 0 {
			return int64(-1), nil
		}
		return int64(len([]rune(s[:idx]))), nil
	case "zfill":
		if err := argCount(method, args, 1, 1); err != nil {
			return nil, err
		}
		width, err := cast.ToInt64E(args[0])
		if err != nil {
			return nil, evalErrorf("zfill() width must be an integer")
		}
		r := []rune(s)
		if width > MaxRepeatLength {
			return nil, evalErrorf("zfill() width %d exceeds the limit of %d", width, MaxRepeatLength)
		}
		if int(width) <= len(r) {
			return s, nil
		}
		pad := strings.Repeat("0", int(width)-len(r))
		if len(r) > 0 && (r[0] == '-' || r[0] == '+') {
			return string(r[0]) + pad + string(r[1:]), nil
		}
		return pad + s, nil
	case "isdigit", "isalpha", "isalnum", "isspace", "isupper", "islower":
		return classify(method, s), argCount(method, args, 0, 0)
	}
	return nil, evalErrorf("unknown method '%s'", method)
}

func stripString(method, s string, args []any) (any, error) {
	cutset := ""
	if len(args) == 1 {
		c, err := stringArg(method, args[0])
		if err != nil {
			return nil, err
		}
		cutset = c
	}
	trim := func(fn func(string, string) string, fnSpace func(string, func(rune) bool) string) string {
		if cutset == "" {
			return fnSpace(s, unicode.IsSpace)
		}
		return fn(s, cutset)
	}
	switch method {
	case "lstrip":
		return trim(strings.TrimLeft, strings.TrimLeftFunc), nil
	case "rstrip":
		return trim(strings.TrimRight, strings.TrimRightFunc), nil
	}
	return trim(strings.Trim, strings.TrimFunc), nil
}

func splitString(s string, args []any) (any, error) {
	if err := argCount("split", args, 0, 2); err != nil {
		return nil, err
	}
	limit := -1
	if len(args) == 2 {
		n, err := cast.ToInt64E(args[1])
		if err != nil {
			return nil, evalErrorf("split() maxsplit must be an integer")
		}
		if n >= 0 {
			limit = int(n) + 1
		}
	}
	var parts []string
	if len(args) == 0 || args[0] == nil {
		parts = strings.Fields(s)
		if limit > 0 && len(parts) > limit {
			// re-split keeping the remainder intact
			rest := strings.TrimLeftFunc(s, unicode.IsSpace)
			parts = parts[:0]
			for i := 0; i < limit-1; i++ {
				idx := strings.IndexFunc(rest, unicode.IsSpace)
				parts = append(parts, rest[:idx])
				rest = strings.TrimLeftFunc(rest[idx:], unicode.IsSpace)
			}
			parts = append(parts, rest)
		}
	} else {
		sep, err := stringArg("split", args[0])
		if err != nil {
			return nil, err
		}
		if sep == "" {
			return nil, evalErrorf("empty separator")
		}
		parts = strings.SplitN(s, sep, limit)
	}
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out, nil
}

func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		prevLetter = false
		b.WriteRune(r)
	}
	return b.String()
}

func classify(method, s string) bool {
	if s == "" {
		return false
	}
	hasCased := false
	for _, r := range s {
		switch method {
		case "isdigit":
			if !unicode.IsDigit(r) {
				return false
			}
		case "isalpha":
			if !unicode.IsLetter(r) {
				return false
			}
		case "isalnum":
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return false
			}
		case "isspace":
			if !unicode.IsSpace(r) {
				return false
			}
		case "isupper":
			if unicode.IsLower(r) {
				return false
			}
			hasCased = hasCased || unicode.IsUpper(r)
		case "islower":
			if unicode.IsUpper(r) {
				return false
			}
			hasCased = hasCased || unicode.IsLower(r)
		}
	}
	if method == "isupper" || method == "islower" {
		return hasCased
	}
	return true
}

// subscript indexes or slices a string or list
func subscript(target, index any) (any, error) {
	target, index = cast.Normalize(target), cast.Normalize(index)
	if cast.IsNull(target) {
		return nil, nil
	}
	var seq []any
	var runes []rune
	isStr := false
	switch t := target.(type) {
	case string:
		runes, isStr = []rune(t), true
	case []any:
		seq = t
	default:
		return nil, evalErrorf("'%s' object is not subscriptable", typeName(target))
	}
	length := len(seq)
	if isStr {
		length = len(runes)
	}
	if sl, ok := index.(sliceBounds); ok {
		start, stop, step, err := sl.resolve(length)
		if err != nil {
			return nil, err
		}
		if isStr {
			var b strings.Builder
			for i := start; (step > 0 && i < stop) || (step < 0 && i > stop); i += step {
				b.WriteRune(runes[i])
			}
			return b.String(), nil
		}
		out := []any{}
		for i := start; (step > 0 && i < stop) || (step < 0 && i > stop); i += step {
			out = append(out, seq[i])
		}
		return out, nil
	}
	i, ok := index.(int64)
	if !ok {
		if b, isBool := index.(bool); isBool {
			i = 0
			if b {
				i = 1
			}
		} else {
			return nil, evalErrorf("indices must be integers, not %s", typeName(index))
		}
	}
	if i < 0 {
		i += int64(length)
	}
	if i < 0 || i >= int64(length) {
		return nil, &EvalError{Message: "index out of range", Err: functions.ErrDomain}
	}
	if isStr {
		return string(runes[i]), nil
	}
	return cast.Normalize(seq[i]), nil
}

// sliceBounds is the evaluated form of a slice; nil parts are omitted bounds
type sliceBounds struct {
	start, stop, step any
}

func (s sliceBounds) resolve(length int) (int, int, int, error) {
	step := 1
	if s.step != nil {
		v, ok := cast.Normalize(s.step).(int64)
		if !ok || v == 0 {
			return 0, 0, 0, evalErrorf("slice step must be a non-zero integer")
		}
		step = int(v)
	}
	bound := func(v any, def int) (int, error) {
		if v == nil {
			return def, nil
		}
		i, ok := cast.Normalize(v).(int64)
		if !ok {
			return 0, evalErrorf("slice indices must be integers")
		}
		n := int(i)
		if n < 0 {
			n += length
		}
		lo, hi := 0, length
		if step < 0 {
			lo, hi = -1, length-1
		}
		return min(max(n, lo), hi), nil
	}
	var start, stop int
	var err error
	if step > 0 {
		if start, err = bound(s.start, 0); err != nil {
			return 0, 0, 0, err
		}
		stop, err = bound(s.stop, length)
	} else {
		if start, err = bound(s.start, length-1); err != nil {
			return 0, 0, 0, err
		}
		stop, err = bound(s.stop, -1)
	}
	return start, stop, step, err
}
