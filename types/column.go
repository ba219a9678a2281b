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

package types

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// TargetType is the type an output column is coerced to
type TargetType string

const (
	TypeString   TargetType = "string"
	TypeInt      TargetType = "int"
	TypeFloat    TargetType = "float"
	TypeBool     TargetType = "bool"
	TypeDatetime TargetType = "datetime"
)

// Valid reports whether t is a known target type. The empty type means no coercion.
func (t TargetType) Valid() bool {
	switch t {
	case "", TypeString, TypeInt, TypeFloat, TypeBool, TypeDatetime:
		return true
	}
	return false
}

// OperationType is the tag of an operation chain stage
type OperationType string

const (
	OpMap    OperationType = "map"
	OpFilter OperationType = "filter"
	OpReduce OperationType = "reduce"
	OpGroup  OperationType = "group"
	OpWindow OperationType = "window"
)

// OperationSpec describes one stage of a column operation chain.
type OperationSpec struct {
	Type         OperationType `yaml:"type" json:"type"`
	Function     string        `yaml:"function,omitempty" json:"function,omitempty"`           // map/reduce/window expression, group/window aggregate name
	Condition    string        `yaml:"condition,omitempty" json:"condition,omitempty"`         // filter predicate
	FillValue    any           `yaml:"fill_value,omitempty" json:"fill_value,omitempty"`       // filter replacement, null by default
	InitialValue any           `yaml:"initial_value,omitempty" json:"initial_value,omitempty"` // reduce seed
	GroupBy      string        `yaml:"group_by,omitempty" json:"group_by,omitempty"`           // group key column
	WindowSize   int           `yaml:"window_size,omitempty" json:"window_size,omitempty"`     // rolling window length
}

// Validate checks the stage has the fields its tag requires.
func (o OperationSpec) Validate() error {
	switch o.Type {
	case OpMap, OpReduce:
		if o.Function == "" {
			return fmt.Errorf("%s operation requires 'function'", o.Type)
		}
	case OpFilter:
		if o.Condition == "" {
			return fmt.Errorf("filter operation requires 'condition'")
		}
	case OpGroup:
		if o.GroupBy == "" {
			return fmt.Errorf("group operation requires 'group_by'")
		}
		if o.Function == "" {
			return fmt.Errorf("group operation requires an aggregate 'function'")
		}
	case OpWindow:
		if o.WindowSize <= 0 {
			return fmt.Errorf("window operation requires a positive 'window_size'")
		}
		if o.Function == "" {
			return fmt.Errorf("window operation requires 'function'")
		}
	case "":
		return fmt.Errorf("operation is missing 'type'")
	default:
		return fmt.Errorf("unknown operation type '%s'", o.Type)
	}
	return nil
}

// ValidationRules are checked after a column is computed, coerced and default-filled.
type ValidationRules struct {
	Required      *bool    `yaml:"required,omitempty" json:"required,omitempty"` // defaults to true
	Nullable      *bool    `yaml:"nullable,omitempty" json:"nullable,omitempty"` // defaults to false
	MinValue      *float64 `yaml:"min_value,omitempty" json:"min_value,omitempty"`
	MaxValue      *float64 `yaml:"max_value,omitempty" json:"max_value,omitempty"`
	MinLength     *int     `yaml:"min_length,omitempty" json:"min_length,omitempty"`
	MaxLength     *int     `yaml:"max_length,omitempty" json:"max_length,omitempty"`
	Pattern       string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	AllowedValues []any    `yaml:"allowed_values,omitempty" json:"allowed_values,omitempty"`
}

func (v *ValidationRules) IsRequired() bool {
	return v.Required == nil || *v.Required
}

func (v *ValidationRules) IsNullable() bool {
	return v.Nullable != nil && *v.Nullable
}

// ColumnSpec describes how one output column is computed.
type ColumnSpec struct {
	Name           string           `yaml:"-" json:"name"`
	Source         string           `yaml:"source,omitempty" json:"source,omitempty"` // defaults to Name
	Type           TargetType       `yaml:"type,omitempty" json:"type,omitempty"`
	Format         string           `yaml:"format,omitempty" json:"format,omitempty"` // strftime layout for datetime coercion
	Transformation string           `yaml:"transformation,omitempty" json:"transformation,omitempty"`
	Operations     []OperationSpec  `yaml:"operations,omitempty" json:"operations,omitempty"`
	Validation     *ValidationRules `yaml:"validation,omitempty" json:"validation,omitempty"`
	Default        any              `yaml:"default,omitempty" json:"default,omitempty"`
	Interim        bool             `yaml:"interim,omitempty" json:"interim,omitempty"`
}

// SourceName returns the source column, defaulting to the column's own name.
func (c ColumnSpec) SourceName() string {
	if c.Source == "" {
		return c.Name
	}
	return c.Source
}

// HasExplicitSource reports whether the source differs from the column name.
func (c ColumnSpec) HasExplicitSource() bool {
	return c.Source != "" && c.Source != c.Name
}

// Validate checks the spec is well formed. Operation stages are validated here,
// before any row is touched.
func (c ColumnSpec) Validate() error {
	if c.Name == "" {
		return NewConfigurationError("", "column name is empty")
	}
	if !c.Type.Valid() {
		return NewConfigurationError(c.Name, fmt.Sprintf("unsupported type '%s'", c.Type))
	}
	if c.Transformation != "" && len(c.Operations) > 0 {
		return NewConfigurationError(c.Name, "'transformation' and 'operations' are mutually exclusive")
	}
	for i, op := range c.Operations {
		if err := op.Validate(); err != nil {
			e := NewConfigurationError(c.Name, err.Error())
			e.Stage = fmt.Sprintf("operation %d", i)
			return e
		}
	}
	if c.Validation != nil {
		v := c.Validation
		if v.MinValue != nil && v.MaxValue != nil && *v.MinValue > *v.MaxValue {
			return NewConfigurationError(c.Name, "min_value is greater than max_value")
		}
		if v.MinLength != nil && v.MaxLength != nil && *v.MinLength > *v.MaxLength {
			return NewConfigurationError(c.Name, "min_length is greater than max_length")
		}
	}
	return nil
}

// ColumnSpecs is an ordered list of column specifications. Declaration order
// is the scheduling tie-break, so it decodes from a YAML mapping without losing order.
type ColumnSpecs []ColumnSpec

// Names returns the column names in declaration order
func (cs ColumnSpecs) Names() []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name
	}
	return names
}

// Get returns the spec named name
func (cs ColumnSpecs) Get(name string) (ColumnSpec, bool) {
	for _, c := range cs {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// UnmarshalYAML decodes a mapping of column name to spec, keeping key order.
func (cs *ColumnSpecs) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: columns must be a mapping of name to specification", value.Line)
	}
	out := make(ColumnSpecs, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, body := value.Content[i], value.Content[i+1]
		var spec ColumnSpec
		// a bare "name:" entry is a plain copy
		if !(body.Kind == yaml.ScalarNode && body.Tag == "!!null") {
			if err := body.Decode(&spec); err != nil {
				return fmt.Errorf("column '%s': %w", key.Value, err)
			}
		}
		spec.Name = key.Value
		out = append(out, spec)
	}
	*cs = out
	return nil
}

// MarshalYAML encodes the specs back into an ordered mapping.
func (cs ColumnSpecs) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, c := range cs {
		var body yaml.Node
		if err := body.Encode(c); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: c.Name}, &body)
	}
	return node, nil
}
