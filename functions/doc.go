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
Package functions provides the table of pure functions callable from DataTidy
expressions.

Only functions registered in a FunctionRegistry can be called; there is no
other way for an expression to reach Go code. NewBuiltinRegistry returns a
registry holding the built-in set:

	abs(x)              absolute value
	max(xs) / max(a, b, ...)
	min(xs) / min(a, b, ...)
	round(x[, n])       round half to even
	len(x)              length of a string or list
	str(x), int(x), float(x), bool(x)
	sum(xs[, start])    sum of the non-null values
	any(xs), all(xs)    truthiness tests
	sorted(xs[, reverse])
	sqrt, floor, ceil, exp, log(x[, base]), log10, pow(x, y)
	isnull(x), notnull(x)

# Aggregation Functions

Functions of type TypeAggregation receive a whole sequence when they are
called with a single column argument; otherwise every call is element-wise.
So "max(price)" is the column maximum while "max(price, 0)" clips each row.

# Custom Functions

	reg := functions.NewBuiltinRegistry()
	_ = reg.RegisterCustomFunction("double", functions.TypeCustom, "doubles a number", 1, 1,
		func(ctx *functions.FunctionContext, args []any) (any, error) {
			f, err := cast.ToFloat64E(args[0])
			return f * 2, err
		})
*/
package functions
