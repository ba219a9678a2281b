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

package fallback

import (
	"fmt"

	"github.com/rulego/datatidy/aggregator"
	"github.com/rulego/datatidy/table"
	"github.com/rulego/datatidy/types"
	"github.com/rulego/datatidy/utils/cast"
)

// Substitute computes the replacement values for a column whose primary
// computation failed. It reads from the working table t.
func Substitute(spec types.SubstituteSpec, t *table.Table) ([]any, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	n := t.Len()
	if spec.Type == types.SubstituteDefaultValue {
		return fill(n, cast.Normalize(spec.Value)), nil
	}
	src, ok := t.Column(spec.Source)
	if !ok {
		return nil, fmt.Errorf("substitute source column '%s' not found", spec.Source)
	}
	if spec.Type == types.SubstituteCopyColumn {
		return append([]any(nil), src...), nil
	}
	switch spec.Operation {
	case "mean":
		v, err := aggregator.Aggregate(aggregator.Mean, src)
		if err != nil {
			return nil, err
		}
		return fill(n, v), nil
	case "median":
		v, err := aggregator.Aggregate(aggregator.Median, src)
		if err != nil {
			return nil, err
		}
		return fill(n, v), nil
	}
	return forwardFill(src), nil
}

func fill(n int, v any) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// forwardFill replaces each null with the last non-null value before it.
// Leading nulls stay null.
func forwardFill(values []any) []any {
	out := make([]any, len(values))
	var last any
	for i, v := range values {
		if cast.IsNull(v) {
			out[i] = last
			continue
		}
		out[i], last = v, v
	}
	return out
}
