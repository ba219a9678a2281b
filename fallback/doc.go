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

// Package fallback runs a configuration over a table under one of three
// processing modes and reports what happened to every column.
//
//   - strict: columns run in plan order and the first failure aborts the run.
//   - partial: failures are recorded, configured substitutes (default_value,
//     copy_column, basic_calculation) replace failed columns, and the run
//     escalates to a failed, fallback-flagged result when the share of failed
//     columns is greater than failure_threshold.
//   - fallback: a Supplier provides the output, or source columns are copied
//     with lenient type coercion. This mode never fails.
//
// Each failure becomes an ErrorRecord, appended to the ProcessingResult and
// sent to the caller's ErrorSink. ProcessingResult.Report builds the JSON
// error report with per-category metrics and debugging suggestions.
package fallback
