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

package transform

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rulego/datatidy/types"
	"github.com/rulego/datatidy/utils/cast"
)

type violation struct {
	message string
	rows    []int
}

// Validate checks a computed column against its rules. All violated rules
// are reported in one validation_error whose indices are the union of the
// offending rows.
func Validate(column string, values []any, rules *types.ValidationRules) error {
	if rules == nil {
		return nil
	}
	var pattern *regexp.Regexp
	if rules.Pattern != "" {
		re, err := regexp.Compile("^(?:" + rules.Pattern + ")")
		if err != nil {
			e := types.NewConfigurationError(column, fmt.Sprintf("invalid pattern '%s'", rules.Pattern))
			e.Err = err
			return e
		}
		pattern = re
	}

	var found []violation
	check := func(message string, bad func(v any) bool) {
		var rows []int
		for i, v := range values {
			if cast.IsNull(v) {
				continue
			}
			if bad(v) {
				rows = append(rows, i)
			}
		}
		if len(rows) > 0 {
			found = append(found, violation{message, rows})
		}
	}

	var nulls []int
	for i, v := range values {
		if cast.IsNull(v) {
			nulls = append(nulls, i)
		}
	}
	if rules.IsRequired() && len(values) > 0 && len(nulls) == len(values) {
		found = append(found, violation{"required column has no values", nulls})
	} else if !rules.IsNullable() && len(nulls) > 0 {
		found = append(found, violation{"null values in non-nullable column", nulls})
	}

	if rules.MinValue != nil {
		lo := *rules.MinValue
		check(fmt.Sprintf("values below minimum (%v)", lo), func(v any) bool {
			f, err := cast.ToFloat64E(v)
			return err != nil || f < lo
		})
	}
	if rules.MaxValue != nil {
		hi := *rules.MaxValue
		check(fmt.Sprintf("values above maximum (%v)", hi), func(v any) bool {
			f, err := cast.ToFloat64E(v)
			return err != nil || f > hi
		})
	}
	if rules.MinLength != nil {
		n := *rules.MinLength
		check(fmt.Sprintf("values shorter than minimum length (%d)", n), func(v any) bool {
			return utf8.RuneCountInString(cast.ToString(v)) < n
		})
	}
	if rules.MaxLength != nil {
		n := *rules.MaxLength
		check(fmt.Sprintf("values longer than maximum length (%d)", n), func(v any) bool {
			return utf8.RuneCountInString(cast.ToString(v)) > n
		})
	}
	if pattern != nil {
		check(fmt.Sprintf("values not matching pattern '%s'", rules.Pattern), func(v any) bool {
			return !pattern.MatchString(cast.ToString(v))
		})
	}
	if len(rules.AllowedValues) > 0 {
		check(fmt.Sprintf("values not in allowed list %v", rules.AllowedValues), func(v any) bool {
			return !allowed(v, rules.AllowedValues)
		})
	}

	if len(found) == 0 {
		return nil
	}
	messages := make([]string, len(found))
	seen := make(map[int]bool)
	var rows []int
	for i, f := range found {
		messages[i] = fmt.Sprintf("%s at indices %v", f.message, f.rows)
		for _, r := range f.rows {
			if !seen[r] {
				seen[r] = true
				rows = append(rows, r)
			}
		}
	}
	sort.Ints(rows)
	return types.NewValidationError(column, strings.Join(messages, "; "), rows)
}

func allowed(v any, list []any) bool {
	v = cast.Normalize(v)
	for _, a := range list {
		a = cast.Normalize(a)
		if cast.IsNumeric(v) && cast.IsNumeric(a) {
			if cast.Compare(v, a) == 0 {
				return true
			}
			continue
		}
		if reflect.DeepEqual(v, a) {
			return true
		}
	}
	return false
}
