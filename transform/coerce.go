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

	"github.com/rulego/datatidy/types"
	"github.com/rulego/datatidy/utils/cast"
)

// Convert converts one value to the target type. Nulls stay null and the
// empty type keeps the value unchanged.
func Convert(v any, typ types.TargetType, format string) (any, error) {
	if cast.IsNull(v) {
		return nil, nil
	}
	switch typ {
	case "":
		return v, nil
	case types.TypeString:
		return cast.ToStringE(v)
	case types.TypeInt:
		return cast.ToInt64E(v)
	case types.TypeFloat:
		return cast.ToFloat64E(v)
	case types.TypeBool:
		return cast.ToBoolE(v)
	case types.TypeDatetime:
		return cast.ToTimeE(v, format)
	}
	return nil, fmt.Errorf("unsupported type '%s'", typ)
}

// Coerce converts every value of a column. Values that cannot be converted
// produce a data_type_error listing their rows.
func Coerce(column string, values []any, typ types.TargetType, format string) ([]any, error) {
	if typ == "" {
		return values, nil
	}
	out := make([]any, len(values))
	var failed []int
	var first error
	for i, v := range values {
		c, err := Convert(v, typ, format)
		if err != nil {
			if first == nil {
				first = err
			}
			failed = append(failed, i)
			continue
		}
		out[i] = c
	}
	if len(failed) > 0 {
		e := types.NewDataTypeError(column, fmt.Sprintf("cannot convert to %s", typ), failed)
		e.Err = first
		return nil, e
	}
	return out, nil
}

// CoerceLenient converts every value of a column, turning failures into nulls
func CoerceLenient(values []any, typ types.TargetType, format string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		c, err := Convert(v, typ, format)
		if err == nil {
			out[i] = c
		}
	}
	return out
}

// FillDefault returns values with nulls replaced by def, converted to the
// column type when possible.
func FillDefault(values []any, def any, typ types.TargetType, format string) []any {
	if def == nil {
		return values
	}
	fill := cast.Normalize(def)
	if c, err := Convert(fill, typ, format); err == nil {
		fill = c
	}
	out := make([]any, len(values))
	for i, v := range values {
		if cast.IsNull(v) {
			v = fill
		}
		out[i] = v
	}
	return out
}
