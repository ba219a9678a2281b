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
	"strings"
)

// ProcessingMode selects how the engine reacts to column failures
type ProcessingMode string

const (
	// ModeStrict aborts the run on the first column error
	ModeStrict ProcessingMode = "strict"
	// ModePartial records column errors and keeps going
	ModePartial ProcessingMode = "partial"
	// ModeFallback skips expression processing entirely
	ModeFallback ProcessingMode = "fallback"
)

// ParseMode converts a configuration string into a ProcessingMode
func ParseMode(s string) (ProcessingMode, error) {
	switch m := ProcessingMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeStrict, ModePartial, ModeFallback:
		return m, nil
	case "":
		return ModeStrict, nil
	}
	return "", fmt.Errorf("unknown processing mode '%s'", s)
}

// SubstituteType is the kind of replacement used for a failed column
type SubstituteType string

const (
	SubstituteDefaultValue     SubstituteType = "default_value"
	SubstituteCopyColumn       SubstituteType = "copy_column"
	SubstituteBasicCalculation SubstituteType = "basic_calculation"
)

// SubstituteSpec describes the replacement for a column that failed in partial mode.
type SubstituteSpec struct {
	Type      SubstituteType `yaml:"type" json:"type"`
	Value     any            `yaml:"value,omitempty" json:"value,omitempty"`         // default_value
	Source    string         `yaml:"source,omitempty" json:"source,omitempty"`       // copy_column, basic_calculation
	Operation string         `yaml:"operation,omitempty" json:"operation,omitempty"` // mean, median, forward_fill
}

func (s SubstituteSpec) Validate() error {
	switch s.Type {
	case SubstituteDefaultValue:
	case SubstituteCopyColumn:
		if s.Source == "" {
			return fmt.Errorf("copy_column requires 'source'")
		}
	case SubstituteBasicCalculation:
		if s.Source == "" {
			return fmt.Errorf("basic_calculation requires 'source'")
		}
		switch s.Operation {
		case "mean", "median", "forward_fill":
		default:
			return fmt.Errorf("unsupported basic_calculation operation '%s'", s.Operation)
		}
	default:
		return fmt.Errorf("unknown substitute type '%s'", s.Type)
	}
	return nil
}

// InputConfig describes where input rows come from
type InputConfig struct {
	Type   string `yaml:"type" json:"type"`                       // csv or sqlite
	Source string `yaml:"source" json:"source"`                   // file path or DSN
	Query  string `yaml:"query,omitempty" json:"query,omitempty"` // SQL query for database inputs
}

// FilterSpec keeps or removes output rows matching a condition
type FilterSpec struct {
	Condition string `yaml:"condition" json:"condition"`
	Action    string `yaml:"action,omitempty" json:"action,omitempty"` // keep (default) or remove
}

// SortSpec orders output rows by one column
type SortSpec struct {
	Column    string `yaml:"column" json:"column"`
	Ascending *bool  `yaml:"ascending,omitempty" json:"ascending,omitempty"` // defaults to true
}

func (s SortSpec) IsAscending() bool {
	return s.Ascending == nil || *s.Ascending
}

// OutputConfig describes the output columns and post-processing
type OutputConfig struct {
	Columns           ColumnSpecs  `yaml:"columns" json:"columns"`
	Filters           []FilterSpec `yaml:"filters,omitempty" json:"filters,omitempty"`
	Sort              []SortSpec   `yaml:"sort,omitempty" json:"sort,omitempty"`
	OnlyOutputColumns bool         `yaml:"only_output_columns,omitempty" json:"only_output_columns,omitempty"`
}

// GlobalSettings controls error handling for a run
type GlobalSettings struct {
	ProcessingMode          ProcessingMode            `yaml:"processing_mode" json:"processing_mode"`
	FailureThreshold        float64                   `yaml:"failure_threshold" json:"failure_threshold"`
	EnableFallback          bool                      `yaml:"enable_fallback" json:"enable_fallback"`
	ReturnInputOnFailure    bool                      `yaml:"return_input_on_failure" json:"return_input_on_failure"`
	FallbackTransformations map[string]SubstituteSpec `yaml:"fallback_transformations,omitempty" json:"fallback_transformations,omitempty"`
	FallbackQuery           string                    `yaml:"fallback_query,omitempty" json:"fallback_query,omitempty"`
	LogLevel                string                    `yaml:"log_level,omitempty" json:"log_level,omitempty"`
}

// Config is the full DataTidy configuration
type Config struct {
	Input          *InputConfig   `yaml:"input,omitempty" json:"input,omitempty"`
	Output         OutputConfig   `yaml:"output" json:"output"`
	GlobalSettings GlobalSettings `yaml:"global_settings" json:"global_settings"`
}

// DefaultGlobalSettings returns the settings used when a configuration omits them
func DefaultGlobalSettings() GlobalSettings {
	return GlobalSettings{
		ProcessingMode:       ModeStrict,
		FailureThreshold:     0.5,
		EnableFallback:       true,
		ReturnInputOnFailure: true,
		LogLevel:             "info",
	}
}

// NewConfig creates a configuration with default global settings
func NewConfig(columns ...ColumnSpec) *Config {
	return &Config{
		Output:         OutputConfig{Columns: columns},
		GlobalSettings: DefaultGlobalSettings(),
	}
}

// Validate checks the whole configuration and returns a configuration_error
// describing the first problem found.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Output.Columns))
	for _, col := range c.Output.Columns {
		if err := col.Validate(); err != nil {
			return err
		}
		if seen[col.Name] {
			return NewConfigurationError(col.Name, "duplicate column name")
		}
		seen[col.Name] = true
	}
	gs := c.GlobalSettings
	if _, err := ParseMode(string(gs.ProcessingMode)); err != nil {
		return NewConfigurationError("", err.Error())
	}
	if gs.FailureThreshold < 0 || gs.FailureThreshold > 1 {
		return NewConfigurationError("", fmt.Sprintf("failure_threshold %v is outside [0, 1]", gs.FailureThreshold))
	}
	for name, sub := range gs.FallbackTransformations {
		if err := sub.Validate(); err != nil {
			return NewConfigurationError(name, err.Error())
		}
	}
	for i, f := range c.Output.Filters {
		if strings.TrimSpace(f.Condition) == "" {
			return NewConfigurationError("", fmt.Sprintf("filter %d has an empty condition", i))
		}
		switch f.Action {
		case "", "keep", "remove":
		default:
			return NewConfigurationError("", fmt.Sprintf("filter %d has unknown action '%s'", i, f.Action))
		}
	}
	for i, s := range c.Output.Sort {
		if s.Column == "" {
			return NewConfigurationError("", fmt.Sprintf("sort %d has no column", i))
		}
	}
	return nil
}
