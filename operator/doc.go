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
Package operator implements column operation chains.

A chain applies typed stages to one column in order, each stage consuming
the previous stage's output. Group is the exception: it aggregates the
column the chain started from.

	map     function applied to every element (lambda x: ... or a body over x)
	filter  elements failing the condition are replaced by fill_value (null by default)
	reduce  left fold over non-null elements, optional initial_value, broadcast to every row
	group   per-group aggregate of the source column keyed by group_by, broadcast back per row
	window  rolling aggregate of window_size elements

Every stage preserves the column length. Stages are compiled by NewChain, so
a malformed stage fails with a configuration error before any row is
processed; runtime failures are transformation errors naming the stage.

	chain, err := operator.NewChain("score", cfg.Operations, interpreter)
	if err != nil {
		return err
	}
	values, err = chain.Apply(values, workingTable)
*/
package operator
