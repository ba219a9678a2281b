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
Package datatidy derives output columns from tabular input according to a
declarative configuration, and keeps producing a usable result when some
derivations fail.

# Core Features

• Restricted expressions - formulas are parsed and checked against a whitelist before they run
• Dependency ordering - computed columns may read each other; order follows the references
• Operation chains - map, filter, reduce, group and rolling window stages per column
• Three processing modes - strict, partial with substitutes, and fallback
• Structured errors - seven error categories with affected row indices and a JSON report

# Getting Started

	package main

	import (
		"context"
		"os"

		"github.com/rulego/datatidy"
		"github.com/rulego/datatidy/table"
		"github.com/rulego/datatidy/types"
	)

	func main() {
		cfg := types.NewConfig(
			types.ColumnSpec{Name: "total", Transformation: "qty * price"},
			types.ColumnSpec{Name: "band", Transformation: "'big' if total > 100 else 'small'"},
		)
		dt, err := datatidy.New(cfg)
		if err != nil {
			panic(err)
		}

		input := table.MustFromColumns([]string{"qty", "price"}, map[string][]any{
			"qty":   {2, 30},
			"price": {9.5, 4.0},
		})
		result, err := dt.Process(context.Background(), input)
		if err != nil {
			panic(err)
		}
		dt.PrintTable(os.Stdout, result, 10)
	}

# Configuration

Configurations are usually loaded from YAML with config.Load or NewFromFile:

	input:
	  type: csv
	  source: users.csv
	output:
	  columns:
	    full_name:
	      transformation: "first_name + ' ' + last_name"
	    age_group:
	      transformation: "'adult' if age >= 18 else 'minor'"
	  filters:
	    - condition: "age >= 18"
	  sort:
	    - column: full_name
	global_settings:
	  processing_mode: partial
	  failure_threshold: 0.5

Columns are computed in dependency order. Columns that reference nothing
else keep their declaration order.

# Processing Modes

Strict mode aborts on the first failing column. Partial mode records the
failure, applies the column's substitute from fallback_transformations when
one is configured, and continues; when the share of failed columns exceeds
failure_threshold the run is marked as fallback and post-processing is
skipped. Fallback mode reads the output from a supplier (see
WithFallbackSupplier) or copies source columns with lenient type coercion.

# Custom Functions

	dt, err := datatidy.New(cfg, datatidy.WithCustomFunction("square", 1, 1,
		func(ctx *functions.FunctionContext, args []any) (any, error) {
			v, err := cast.ToFloat64E(args[0])
			return v * v, err
		}))

Registered functions are callable from transformations and operation
functions and are excluded from dependency analysis.
*/
package datatidy
