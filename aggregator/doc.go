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

/*
Package aggregator provides the named aggregates used by group and window
operations and by basic_calculation substitutes.

Supported aggregates:

	mean (avg), sum, count, max, min, std, var, median, first, last

Numeric aggregates are computed with github.com/montanaflynn/stats. Nulls
are skipped; std and var use the sample definition and need at least two
values. Custom aggregates can be added with Register.

	v, err := aggregator.Aggregate(aggregator.Mean, []any{1, 2, nil, 3})
	// v == 2.0

	per, err := aggregator.Broadcast(aggregator.Sum,
		[]any{"a", "b", "a"}, []any{1, 2, 3})
	// per == []any{int64(4), int64(2), int64(4)}
*/
package aggregator
