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
Package dependency finds which columns each output column reads and orders
the output columns so that every column is computed after the columns it
depends on.

The Analyzer only inspects parsed expression trees; nothing is evaluated.
Expressions that do not parse are scanned for identifier-like tokens so
that a real dependency is never missed.

	a := dependency.NewAnalyzer(nil)
	graph, order, err := a.Resolve(cfg.Output.Columns, table.Columns())

Ordering uses Kahn's algorithm over output-to-output edges. When several
columns are ready at once, the one declared first is scheduled first, so the
same configuration always produces the same order. Columns left over when no
more columns are ready are reported by a CycleError.
*/
package dependency
