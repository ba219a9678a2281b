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
Package types provides the data model shared by every DataTidy component.

# Column Specifications

Each output column is described by a ColumnSpec. Exactly one of three drivers
computes its values: a plain copy of the source column, a transformation
expression, or an ordered chain of operations:

	total:
	  transformation: "price * quantity"
	  type: float
	running:
	  source: total
	  operations:
	    - type: window
	      window_size: 3
	      function: mean

Validation and default filling apply after computation regardless of the driver.

# Errors

Every error produced by the engine carries one of seven categories
(validation_error, transformation_error, data_type_error, dependency_error,
configuration_error, input_error, system_error). Categories are read
structurally with CategoryOf and never by inspecting message text.
*/
package types
