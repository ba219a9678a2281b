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
Package window implements positional rolling windows over a column.

A rolling window of size k at row i covers rows i-k+1 through i. Rows with
fewer than k preceding values produce null, so the output always has the
input's length:

	out, err := window.Aggregate([]any{1, 2, 3, 4}, 2, aggregator.Mean)
	// out == []any{nil, 1.5, 2.5, 3.5}

Arbitrary per-window computations use Apply with a callback receiving the
window contents from oldest to newest.
*/
package window
