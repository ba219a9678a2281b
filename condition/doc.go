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
Package condition evaluates output row filters.

Filters are boolean expressions compiled with github.com/expr-lang/expr and
evaluated once per row with the row's columns as variables. Besides the
expr-lang operators (and, or, not, in, ==, <, ...) three helpers are available:

	like_match(text, pattern)  SQL LIKE with % and _ wildcards
	is_null(value)             true for nil and NaN
	is_not_null(value)         negation of is_null

True, False and None are predefined. A condition that fails at run time,
for example by comparing a null with a number, evaluates to false.

	f, err := condition.NewRowFilter(types.FilterSpec{Condition: "age >= 18"})
	if err != nil {
		return err
	}
	adults, err := f.Apply(t)
*/
package condition
