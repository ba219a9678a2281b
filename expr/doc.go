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
Package expr implements the restricted expression language used by column
sources, transformations, operation functions and validation rules.

Expressions use a Python-like syntax: arithmetic, comparisons, boolean
logic, conditional expressions, subscripts and slices, list literals,
calls to registered functions and a fixed set of string and null methods.
Everything else (assignments, imports, comprehensions, attribute access on
arbitrary values, dunder names) is rejected by the validator before any
evaluation happens.

Columns are bound as Vector values and every operator applies element-wise,
so an expression over a table is evaluated once per column rather than once
per row:

	in := expr.NewInterpreter(nil)
	p, err := in.ParseAndValidate("price * quantity")
	if err != nil {
		return err
	}
	values, err := in.EvaluateTable(p, t, nil)

Operation functions may be written as lambdas or as bare bodies over default
parameter names:

	p, err := in.ParseFunction("lambda x: x * 2")
	p, err := in.ParseFunction("acc + x", "acc", "x")
*/
package expr
