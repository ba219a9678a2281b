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

// Package transform computes individual output columns.
//
// A column's values come from exactly one of: its transformation expression,
// its operation chain applied to the source, or a plain copy of the source.
// The values are then coerced to the column type, nulls are filled with the
// column default and the validation rules are checked. Every failure is a
// categorized *types.Error carrying the affected row indices when known.
//
// The package also applies the output post-processing: row filters followed
// by a stable multi-key sort.
package transform
